package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"wa_listings/api"
	"wa_listings/chatexport"
	"wa_listings/config"
	"wa_listings/ingest"
	"wa_listings/logging"
	"wa_listings/scheduler"
	"wa_listings/services"
	"wa_listings/storage"
)

var (
	importFile   = flag.String("import", "", "Import one chat export and exit")
	importFormat = flag.String("format", "", "Export format for -import: txt or html (default: from extension)")
	importSource = flag.String("source", "", "Source config to take html selectors and date order from for -import")
)

func main() {
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, closeLogs, err := logging.Setup(logging.Options{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		File:       cfg.Log.File,
		FluentHost: cfg.Log.FluentHost,
		FluentPort: cfg.Log.FluentPort,
	})
	if err != nil {
		log.Fatalf("Failed to set up logging: %v", err)
	}
	defer closeLogs()

	logger.Info("starting wa_listings", "store", cfg.Store.Driver, "sources", len(cfg.Sources))
	for _, id := range cfg.SourceIDs() {
		src := cfg.Sources[id]
		logger.Info("source configured", "id", id, "name", src.Name, "format", src.Format, "enabled", src.IsEnabled())
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, err := openStore(ctx, cfg.Store, logger)
	if err != nil {
		logger.Error("failed to open store", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	catalog, err := store.LoadCatalog(ctx)
	if err != nil {
		logger.Error("failed to load catalog", "error", err)
		os.Exit(1)
	}

	importer := services.NewImporter(store, catalog, logger)
	query := services.NewQueryService(store)

	if *importFile != "" {
		if err := runImport(ctx, cfg, importer, logger); err != nil {
			logger.Error("import failed", "file", *importFile, "error", err)
			os.Exit(1)
		}
		return
	}

	runner := ingest.NewRunner(cfg.Sources, importer, logger)
	if cfg.S3.Enabled() {
		archiver, err := storage.NewS3Archiver(ctx, storage.S3Config{
			Bucket:          cfg.S3.Bucket,
			Region:          cfg.S3.Region,
			Endpoint:        cfg.S3.Endpoint,
			AccessKeyID:     cfg.S3.AccessKeyID,
			SecretAccessKey: cfg.S3.SecretAccessKey,
		})
		if err != nil {
			logger.Error("failed to set up S3 archive", "error", err)
			os.Exit(1)
		}
		runner.SetArchiver(archiver)
		logger.Info("archiving exports to S3", "bucket", cfg.S3.Bucket)
	}

	sched := scheduler.New(cfg.Scheduler, scheduler.RunnerFunc(func(ctx context.Context) error {
		_, err := runner.RunAll(ctx)
		return err
	}), logger)
	if err := sched.Start(ctx); err != nil {
		logger.Error("failed to start scheduler", "error", err)
		os.Exit(1)
	}

	handlers := api.NewHandlers(importer, query, logger)
	handlers.SetIngest(runner)
	server := api.NewServer(cfg.HTTP.Addr, handlers, logger)

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("shutting down", "signal", sig.String())
	case err := <-serverErr:
		if err != nil {
			logger.Error("server stopped", "error", err)
		}
	}

	sched.Stop()
	shutdownCtx, stop := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer stop()
	if err := server.Stop(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	}
	cancel()
	logger.Info("goodbye")
}

func openStore(ctx context.Context, cfg config.StoreConfig, logger *slog.Logger) (storage.Store, error) {
	switch cfg.Driver {
	case "memory":
		logger.Warn("using in-memory store, data is lost on exit")
		return storage.NewMemoryStore(nil), nil
	case "json":
		logger.Info("using JSON store", "dir", cfg.DataDir)
		return storage.NewJSONStore(cfg.DataDir)
	case "sqlite":
		logger.Info("using SQLite store", "path", cfg.DBPath)
		return storage.NewSQLiteStore(cfg.DBPath)
	case "postgres":
		logger.Info("using Postgres store", "url", maskConnectionString(cfg.DatabaseURL))
		return storage.NewPostgresStore(ctx, cfg.DatabaseURL)
	}
	return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
}

func runImport(ctx context.Context, cfg *config.Config, importer *services.Importer, logger *slog.Logger) error {
	format := *importFormat
	var sel chatexport.Selectors
	opts := chatexport.Options{
		OnSkip: func(line int, err error) {
			logger.Warn("export line skipped", "line", line, "error", err)
		},
	}
	if *importSource != "" {
		src, ok := cfg.Sources[*importSource]
		if !ok {
			return fmt.Errorf("unknown source: %s", *importSource)
		}
		sel = ingest.Selectors(src)
		opts.DayFirst = src.DayFirst
		if format == "" {
			format = src.Format
		}
	}

	summary, err := ingest.ImportFile(ctx, importer, *importFile, format, sel, opts)
	if err != nil {
		return err
	}

	out, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

// maskConnectionString masks password in connection string for logging
func maskConnectionString(connStr string) string {
	start := 0
	for i := 0; i < len(connStr)-3; i++ {
		if connStr[i:i+3] == "://" {
			start = i + 3
			break
		}
	}
	if start == 0 {
		return connStr
	}

	colonIdx := -1
	atIdx := -1
	for i := start; i < len(connStr); i++ {
		if connStr[i] == ':' && colonIdx == -1 {
			colonIdx = i
		}
		if connStr[i] == '@' {
			atIdx = i
			break
		}
	}

	if colonIdx > 0 && atIdx > colonIdx {
		return connStr[:colonIdx+1] + "****" + connStr[atIdx:]
	}
	return connStr
}
