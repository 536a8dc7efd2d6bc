package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeSource(t *testing.T, dir, name, body string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func TestLoad_EnvAndSources(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, dir, "maadi.yaml", "id: maadi\nname: Maadi brokers\nday_first: true\n")
	writeSource(t, dir, "web.yaml", `
id: web
format: html
enabled: false
selectors:
  message: div.msg
  sender: .from
  text: .body
`)
	writeSource(t, dir, "notes.txt", "ignored")

	t.Setenv("SOURCES_DIR", dir)
	t.Setenv("STORE_DRIVER", "json")
	t.Setenv("HTTP_ADDR", "")
	t.Setenv("IMPORT_INTERVAL", "15m")
	t.Setenv("FLUENT_PORT", "not-a-port")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.HTTP.Addr != ":8080" {
		t.Fatalf("expected default addr, got %s", cfg.HTTP.Addr)
	}
	if cfg.Store.Driver != "json" {
		t.Fatalf("expected json driver, got %s", cfg.Store.Driver)
	}
	if cfg.Scheduler.Interval != 15*time.Minute {
		t.Fatalf("expected 15m interval, got %s", cfg.Scheduler.Interval)
	}
	if cfg.Log.FluentPort != 24224 {
		t.Fatalf("expected default fluent port, got %d", cfg.Log.FluentPort)
	}

	if len(cfg.Sources) != 2 {
		t.Fatalf("expected 2 sources, got %d", len(cfg.Sources))
	}
	maadi := cfg.Sources["maadi"]
	if maadi.Format != "txt" || !maadi.DayFirst || !maadi.IsEnabled() {
		t.Fatalf("unexpected maadi source %+v", maadi)
	}
	if maadi.Inbox != filepath.Join("data", "inbox", "maadi") {
		t.Fatalf("unexpected default inbox %s", maadi.Inbox)
	}
	web := cfg.Sources["web"]
	if web.IsEnabled() || web.Selectors.Message != "div.msg" {
		t.Fatalf("unexpected web source %+v", web)
	}
	if ids := cfg.SourceIDs(); ids[0] != "maadi" || ids[1] != "web" {
		t.Fatalf("unexpected source order %v", ids)
	}
}

func TestLoad_Rejects(t *testing.T) {
	t.Setenv("SOURCES_DIR", t.TempDir())

	t.Setenv("STORE_DRIVER", "redis")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for unknown driver")
	}

	t.Setenv("STORE_DRIVER", "postgres")
	t.Setenv("DATABASE_URL", "")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for postgres without DATABASE_URL")
	}

	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("IMPORT_INTERVAL", "soon")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for bad interval")
	}
}

func TestLoad_HTMLSourceNeedsSelectors(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, dir, "bad.yaml", "id: bad\nformat: html\n")
	t.Setenv("SOURCES_DIR", dir)
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("IMPORT_INTERVAL", "")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error for html source without selectors")
	}
}
