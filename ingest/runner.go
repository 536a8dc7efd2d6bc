// Package ingest imports chat exports dropped into per-source inbox
// directories.
package ingest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"wa_listings/chatexport"
	"wa_listings/config"
	"wa_listings/models"
)

const (
	ProcessedDir = "processed"
	FailedDir    = "failed"
)

// ErrBusy is returned by Trigger while a run is in progress.
var ErrBusy = errors.New("ingest run already in progress")

// Importer is the part of services.Importer the runner needs.
type Importer interface {
	Import(ctx context.Context, msgs []models.IncomingMessage) (*models.ImportSummary, error)
}

// Archiver keeps a copy of an imported export.
type Archiver interface {
	Archive(ctx context.Context, source, name string, data io.Reader) (string, error)
}

// FileResult is the outcome of one export file.
type FileResult struct {
	Source  string
	File    string
	Summary *models.ImportSummary
	Archive string
	Err     error
}

type Runner struct {
	mu       sync.Mutex
	runMu    sync.Mutex
	sources  map[string]*config.SourceConfig
	importer Importer
	archiver Archiver
	logger   *slog.Logger
	paused   bool
}

func NewRunner(sources map[string]*config.SourceConfig, importer Importer, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		sources:  sources,
		importer: importer,
		logger:   logger.With("component", "ingest"),
	}
}

// SetArchiver enables archiving of imported files.
func (r *Runner) SetArchiver(a Archiver) {
	r.archiver = a
}

func (r *Runner) Pause() {
	r.mu.Lock()
	r.paused = true
	r.mu.Unlock()
	r.logger.Info("ingest paused")
}

func (r *Runner) Resume() {
	r.mu.Lock()
	r.paused = false
	r.mu.Unlock()
	r.logger.Info("ingest resumed")
}

func (r *Runner) IsPaused() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.paused
}

// RunAll processes every enabled source. Source failures are logged and do
// not stop the other sources. Runs never overlap.
func (r *Runner) RunAll(ctx context.Context) ([]FileResult, error) {
	r.runMu.Lock()
	defer r.runMu.Unlock()
	return r.runAll(ctx)
}

// Trigger starts a run in the background and returns immediately.
func (r *Runner) Trigger(ctx context.Context) error {
	if !r.runMu.TryLock() {
		return ErrBusy
	}
	go func() {
		defer r.runMu.Unlock()
		if _, err := r.runAll(context.WithoutCancel(ctx)); err != nil {
			r.logger.Error("triggered run failed", "error", err)
		}
	}()
	return nil
}

func (r *Runner) runAll(ctx context.Context) ([]FileResult, error) {
	if r.IsPaused() {
		r.logger.Info("ingest is paused, skipping run")
		return nil, nil
	}

	var all []FileResult
	for _, id := range r.SourceIDs() {
		if err := ctx.Err(); err != nil {
			return all, err
		}
		if !r.sources[id].IsEnabled() {
			continue
		}
		results, err := r.RunSource(ctx, id)
		if err != nil {
			r.logger.Error("source run failed", "source", id, "error", err)
		}
		all = append(all, results...)
	}
	return all, nil
}

// RunSource imports every pending file in one source inbox, oldest name
// first. A parse failure moves the file to failed/; a store failure leaves
// it in place for the next run.
func (r *Runner) RunSource(ctx context.Context, sourceID string) ([]FileResult, error) {
	src, ok := r.sources[sourceID]
	if !ok {
		return nil, fmt.Errorf("unknown source: %s", sourceID)
	}

	files, err := pendingFiles(src)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, nil
	}
	r.logger.Info("importing source", "source", src.ID, "files", len(files))

	var results []FileResult
	for _, name := range files {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		res := r.runFile(ctx, src, name)
		results = append(results, res)
	}
	return results, nil
}

func (r *Runner) runFile(ctx context.Context, src *config.SourceConfig, name string) FileResult {
	res := FileResult{Source: src.ID, File: name}
	path := filepath.Join(src.Inbox, name)

	data, err := os.ReadFile(path)
	if err != nil {
		res.Err = fmt.Errorf("read %s: %w", name, err)
		return res
	}

	opts := chatexport.Options{
		DayFirst: src.DayFirst,
		OnSkip: func(line int, err error) {
			r.logger.Warn("export line skipped", "source", src.ID, "file", name, "line", line, "error", err)
		},
	}
	msgs, err := chatexport.Parse(bytes.NewReader(data), src.Format, Selectors(src), opts)
	if err != nil {
		res.Err = fmt.Errorf("parse %s: %w", name, err)
		r.logger.Warn("export rejected", "source", src.ID, "file", name, "error", err)
		if mvErr := moveTo(src.Inbox, FailedDir, name); mvErr != nil {
			r.logger.Error("move failed export", "file", name, "error", mvErr)
		}
		return res
	}

	summary, err := r.importer.Import(ctx, msgs)
	if err != nil {
		res.Err = fmt.Errorf("import %s: %w", name, err)
		r.logger.Error("export import failed", "source", src.ID, "file", name, "error", err)
		return res
	}
	res.Summary = summary

	if r.archiver != nil {
		key, err := r.archiver.Archive(ctx, src.ID, name, bytes.NewReader(data))
		if err != nil {
			// the import itself is committed
			r.logger.Warn("archive failed", "source", src.ID, "file", name, "error", err)
		} else {
			res.Archive = key
		}
	}

	if err := moveTo(src.Inbox, ProcessedDir, name); err != nil {
		res.Err = fmt.Errorf("move %s: %w", name, err)
	}

	r.logger.Info("export imported",
		"source", src.ID, "file", name, "batch_id", summary.BatchID,
		"imported", summary.Imported, "skipped", summary.Skipped,
		"properties", summary.PropertyMessages, "new_agents", summary.NewAgents)
	return res
}

// Selectors converts a source's yaml selectors.
func Selectors(src *config.SourceConfig) chatexport.Selectors {
	return chatexport.Selectors{
		Message:  src.Selectors.Message,
		Sender:   src.Selectors.Sender,
		Text:     src.Selectors.Text,
		Time:     src.Selectors.Time,
		TimeAttr: src.Selectors.TimeAttr,
	}
}

// ImportFile parses and imports a single export outside any inbox. An empty
// format is guessed from the file extension.
func ImportFile(ctx context.Context, importer Importer, path, format string, sel chatexport.Selectors, opts chatexport.Options) (*models.ImportSummary, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if format == "" {
		format = chatexport.FormatFromName(path)
	}
	if format == chatexport.FormatHTML && sel.Message == "" {
		return nil, errors.New("html exports need selectors, pass -source")
	}

	msgs, err := chatexport.Parse(f, format, sel, opts)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	return importer.Import(ctx, msgs)
}

func (r *Runner) SourceIDs() []string {
	ids := make([]string, 0, len(r.sources))
	for id := range r.sources {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (r *Runner) MarshalStatus() ([]byte, error) {
	status := map[string]interface{}{
		"paused":  r.IsPaused(),
		"sources": r.SourceIDs(),
	}
	return json.Marshal(status)
}

func pendingFiles(src *config.SourceConfig) ([]string, error) {
	entries, err := os.ReadDir(src.Inbox)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read inbox %s: %w", src.Inbox, err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || !chatexport.Matches(e.Name(), src.Format) {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}

func moveTo(inbox, dir, name string) error {
	target := filepath.Join(inbox, dir)
	if err := os.MkdirAll(target, 0755); err != nil {
		return err
	}
	return os.Rename(filepath.Join(inbox, name), filepath.Join(target, name))
}
