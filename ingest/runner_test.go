package ingest

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"wa_listings/chatexport"
	"wa_listings/config"
	"wa_listings/models"
)

type fakeImporter struct {
	batches [][]models.IncomingMessage
	err     error
}

func (f *fakeImporter) Import(_ context.Context, msgs []models.IncomingMessage) (*models.ImportSummary, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.batches = append(f.batches, msgs)
	return &models.ImportSummary{BatchID: "b", Total: len(msgs), Imported: len(msgs)}, nil
}

type fakeArchiver struct {
	keys []string
	data []string
}

func (f *fakeArchiver) Archive(_ context.Context, source, name string, r io.Reader) (string, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	key := source + "/" + name
	f.keys = append(f.keys, key)
	f.data = append(f.data, string(b))
	return key, nil
}

func setupInbox(t *testing.T) (*config.SourceConfig, string) {
	t.Helper()
	inbox := t.TempDir()
	fixture, err := os.ReadFile(filepath.Join("..", "chatexport", "testdata", "android.txt"))
	if err != nil {
		t.Fatalf("read fixture: %v", err)
	}
	if err := os.WriteFile(filepath.Join(inbox, "a-chat.txt"), fixture, 0644); err != nil {
		t.Fatal(err)
	}
	// a single line past the scanner limit cannot be read at all
	broken := "13/13/24, 10:00 - Ahmed: " + strings.Repeat("x", 5<<20)
	if err := os.WriteFile(filepath.Join(inbox, "b-broken.txt"), []byte(broken), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(inbox, "notes.md"), []byte("ignored"), 0644); err != nil {
		t.Fatal(err)
	}
	return &config.SourceConfig{ID: "maadi", Format: "txt", Inbox: inbox}, inbox
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func TestRunSource_MovesFiles(t *testing.T) {
	src, inbox := setupInbox(t)
	imp := &fakeImporter{}
	arch := &fakeArchiver{}
	r := NewRunner(map[string]*config.SourceConfig{src.ID: src}, imp, nil)
	r.SetArchiver(arch)

	results, err := r.RunSource(context.Background(), "maadi")
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 file results, got %d", len(results))
	}
	if results[0].Err != nil || results[0].Summary.Total != 3 {
		t.Fatalf("unexpected first result %+v", results[0])
	}
	if results[0].Archive != "maadi/a-chat.txt" {
		t.Fatalf("expected archive key, got %q", results[0].Archive)
	}
	if results[1].Err == nil {
		t.Fatalf("expected parse error for broken export")
	}

	if len(imp.batches) != 1 {
		t.Fatalf("expected one batch per good file, got %d", len(imp.batches))
	}
	if !exists(filepath.Join(inbox, ProcessedDir, "a-chat.txt")) {
		t.Fatalf("good export not moved to processed")
	}
	if !exists(filepath.Join(inbox, FailedDir, "b-broken.txt")) {
		t.Fatalf("broken export not moved to failed")
	}
	if !exists(filepath.Join(inbox, "notes.md")) {
		t.Fatalf("unrelated file should stay")
	}

	// second run finds nothing left
	results, err = r.RunSource(context.Background(), "maadi")
	if err != nil || len(results) != 0 {
		t.Fatalf("expected empty rerun, got %d results err=%v", len(results), err)
	}
}

func TestRunSource_StoreFailureKeepsFile(t *testing.T) {
	src, inbox := setupInbox(t)
	imp := &fakeImporter{err: errors.New("disk full")}
	r := NewRunner(map[string]*config.SourceConfig{src.ID: src}, imp, nil)

	results, err := r.RunSource(context.Background(), "maadi")
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if results[0].Err == nil {
		t.Fatalf("expected import error")
	}
	if !exists(filepath.Join(inbox, "a-chat.txt")) {
		t.Fatalf("export should stay in the inbox for retry")
	}
}

func TestRunAll_SkipsDisabledAndPaused(t *testing.T) {
	src, inbox := setupInbox(t)
	off := false
	src.Enabled = &off
	imp := &fakeImporter{}
	r := NewRunner(map[string]*config.SourceConfig{src.ID: src}, imp, nil)

	if _, err := r.RunAll(context.Background()); err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if len(imp.batches) != 0 || !exists(filepath.Join(inbox, "a-chat.txt")) {
		t.Fatalf("disabled source should not be imported")
	}

	src.Enabled = nil
	r.Pause()
	if _, err := r.RunAll(context.Background()); err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if len(imp.batches) != 0 {
		t.Fatalf("paused runner should not import")
	}

	r.Resume()
	if _, err := r.RunAll(context.Background()); err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if len(imp.batches) != 1 {
		t.Fatalf("expected import after resume, got %d", len(imp.batches))
	}
}

func TestRunSource_Unknown(t *testing.T) {
	r := NewRunner(map[string]*config.SourceConfig{}, &fakeImporter{}, nil)
	if _, err := r.RunSource(context.Background(), "nope"); err == nil {
		t.Fatalf("expected error for unknown source")
	}
}

func TestImportFile(t *testing.T) {
	imp := &fakeImporter{}
	path := filepath.Join("..", "chatexport", "testdata", "ios.txt")
	summary, err := ImportFile(context.Background(), imp, path, "", Selectors(&config.SourceConfig{}), chatexport.Options{DayFirst: true})
	if err != nil {
		t.Fatalf("import failed: %v", err)
	}
	if summary.Total != 2 {
		t.Fatalf("expected 2 messages, got %d", summary.Total)
	}

	if _, err := ImportFile(context.Background(), imp, "chat.html", "html", Selectors(&config.SourceConfig{}), chatexport.Options{}); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
