package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"wa_listings/config"
)

// Runner is the job the scheduler drives.
type Runner interface {
	RunAll(ctx context.Context) error
}

// RunnerFunc adapts a function to Runner.
type RunnerFunc func(ctx context.Context) error

func (f RunnerFunc) RunAll(ctx context.Context) error { return f(ctx) }

type Scheduler struct {
	cfg    config.SchedulerConfig
	runner Runner
	logger *slog.Logger
	cron   *cron.Cron
	ticker *time.Ticker
	stopCh chan struct{}
	once   sync.Once

	// running guards against overlapping runs when a run outlasts the period
	running sync.Mutex
}

func New(cfg config.SchedulerConfig, runner Runner, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		cfg:    cfg,
		runner: runner,
		logger: logger.With("component", "scheduler"),
		cron:   cron.New(),
		stopCh: make(chan struct{}),
	}
}

func (s *Scheduler) Start(ctx context.Context) error {
	if s.cfg.Cron != "" {
		s.logger.Info("starting scheduler", "cron", s.cfg.Cron)
		_, err := s.cron.AddFunc(s.cfg.Cron, func() { s.run(ctx) })
		if err != nil {
			return fmt.Errorf("invalid cron expression: %w", err)
		}
		s.cron.Start()
	} else if s.cfg.Interval > 0 {
		s.logger.Info("starting scheduler", "interval", s.cfg.Interval.String())
		s.ticker = time.NewTicker(s.cfg.Interval)
		go func() {
			for {
				select {
				case <-s.ticker.C:
					s.run(ctx)
				case <-s.stopCh:
					return
				case <-ctx.Done():
					return
				}
			}
		}()
	} else {
		s.logger.Info("no schedule configured, imports only via API and -import")
	}

	return nil
}

func (s *Scheduler) run(ctx context.Context) {
	if !s.running.TryLock() {
		s.logger.Warn("previous run still in progress, skipping")
		return
	}
	defer s.running.Unlock()

	if err := s.runner.RunAll(ctx); err != nil {
		s.logger.Error("scheduled run error", "error", err)
	}
}

// TriggerNow runs the job synchronously.
func (s *Scheduler) TriggerNow(ctx context.Context) error {
	s.running.Lock()
	defer s.running.Unlock()
	return s.runner.RunAll(ctx)
}

func (s *Scheduler) Stop() {
	s.once.Do(func() {
		<-s.cron.Stop().Done()
		if s.ticker != nil {
			s.ticker.Stop()
		}
		close(s.stopCh)
	})
}
