package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"wa_listings/models"
	"wa_listings/services"
	"wa_listings/storage"
)

const scenarioBody = `{"messages":[
	{"sender":"Ahmed","message":"شقة للبيع في المعادي السعر 500 ألف جنيه, مساحة 120 متر","timestamp":"2024-05-01T10:00:00Z","agent_phone":"01012345678"},
	{"sender":"Omar","message":"فيه جراج ومصعد","timestamp":"2024-05-01T11:00:00Z"}
]}`

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	store := storage.NewMemoryStore(nil)
	logger := discardLogger()
	h := NewHandlers(
		services.NewImporter(store, models.SeedCatalog(), logger),
		services.NewQueryService(store),
		logger,
	)
	return NewRouter(h, logger)
}

func do(t *testing.T, router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
}

func TestBulkImportAndQueries(t *testing.T) {
	router := newTestRouter(t)

	rec := do(t, router, http.MethodPost, "/messages/bulk", scenarioBody)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if rec.Header().Get(RequestIDHeader) == "" {
		t.Fatalf("expected request id header")
	}
	var summary struct {
		Success          bool   `json:"success"`
		BatchID          string `json:"batch_id"`
		Imported         int    `json:"imported"`
		Total            int    `json:"total"`
		Skipped          int    `json:"skipped"`
		PropertyMessages int    `json:"propertyMessages"`
		NewAgents        int    `json:"newAgents"`
	}
	decode(t, rec, &summary)
	if !summary.Success || summary.Total != 2 || summary.Imported != 2 || summary.PropertyMessages != 1 || summary.NewAgents != 1 {
		t.Fatalf("unexpected summary %+v", summary)
	}

	rec = do(t, router, http.MethodGet, "/messages?property_type=apartment", "")
	var views []models.MessageView
	decode(t, rec, &views)
	if len(views) != 1 {
		t.Fatalf("expected 1 apartment message, got %d", len(views))
	}
	v := views[0]
	if v.Price == nil || *v.Price != "500 ألف جنيه" || v.AgentPhone == nil || *v.AgentPhone != "01012345678" {
		t.Fatalf("unexpected view %+v", v)
	}
	if v.PropertyID == nil {
		t.Fatalf("expected linked property")
	}

	rec = do(t, router, http.MethodGet, "/messages", "")
	decode(t, rec, &views)
	if len(views) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(views))
	}

	rec = do(t, router, http.MethodGet, "/properties/1", "")
	var prop models.Property
	decode(t, rec, &prop)
	if rec.Code != http.StatusOK || prop.TransactionType != models.TransactionSale {
		t.Fatalf("unexpected property %d %+v", rec.Code, prop)
	}

	rec = do(t, router, http.MethodGet, "/stats", "")
	var stats []models.TypeStat
	decode(t, rec, &stats)
	if len(stats) != 1 || stats[0].PropertyType != "apartment" || stats[0].Count != 1 {
		t.Fatalf("unexpected stats %+v", stats)
	}

	rec = do(t, router, http.MethodGet, "/agents", "")
	var agents []models.AgentSummary
	decode(t, rec, &agents)
	if len(agents) != 1 || agents[0].PropertiesCount != 1 || agents[0].AvgPrice == nil || *agents[0].AvgPrice != 500000 {
		t.Fatalf("unexpected agents %+v", agents)
	}

	// resubmitting the same batch only produces duplicates
	rec = do(t, router, http.MethodPost, "/messages/bulk", scenarioBody)
	decode(t, rec, &summary)
	if summary.Imported != 0 || summary.Skipped != 2 {
		t.Fatalf("expected all duplicates, got %+v", summary)
	}
}

func TestCatalogRoutes(t *testing.T) {
	router := newTestRouter(t)
	cases := map[string]int{
		"/catalog/areas":           10,
		"/catalog/property-types":  7,
		"/catalog/phone-operators": 4,
	}
	for path, want := range cases {
		rec := do(t, router, http.MethodGet, path, "")
		var rows []map[string]interface{}
		decode(t, rec, &rows)
		if len(rows) != want {
			t.Fatalf("%s: expected %d rows, got %d", path, want, len(rows))
		}
	}
}

func TestErrorResponses(t *testing.T) {
	router := newTestRouter(t)
	cases := []struct {
		method, path, body string
		status             int
	}{
		{http.MethodGet, "/messages/99", "", http.StatusNotFound},
		{http.MethodGet, "/properties/5", "", http.StatusNotFound},
		{http.MethodGet, "/messages/abc", "", http.StatusBadRequest},
		{http.MethodGet, "/messages?limit=-1", "", http.StatusBadRequest},
		{http.MethodPost, "/messages/bulk", `{"items":[]}`, http.StatusBadRequest},
		{http.MethodPost, "/messages/bulk", `{"messages":{"sender":"Ahmed"}}`, http.StatusBadRequest},
		{http.MethodPost, "/messages/bulk", `{"messages":null}`, http.StatusBadRequest},
		{http.MethodPost, "/messages/bulk", `not json`, http.StatusBadRequest},
		{http.MethodGet, "/nowhere", "", http.StatusNotFound},
	}
	for _, c := range cases {
		rec := do(t, router, c.method, c.path, c.body)
		if rec.Code != c.status {
			t.Fatalf("%s %s: expected %d, got %d", c.method, c.path, c.status, rec.Code)
		}
		var body map[string]interface{}
		decode(t, rec, &body)
		if body["success"] != false || body["error"] == "" {
			t.Fatalf("%s %s: unexpected error body %v", c.method, c.path, body)
		}
	}
}

func TestBulkImport_MalformedItemsSkipped(t *testing.T) {
	router := newTestRouter(t)

	body := `{"messages":[
		{"sender":"Ahmed","message":"شقة للبيع في المعادي السعر 500 ألف جنيه","timestamp":"2024-05-01T10:00:00Z"},
		{"sender":"Sara"},
		{"sender":"Omar","message":"فيلا للبيع","timestamp":1714557600},
		{"sender":1,"message":"محل للبيع"},
		"not an object",
		{"sender":"Mona","message":"ارض للبيع 300 م2","timestamp":null,"agent_phone":null,"keywords":null}
	]}`
	rec := do(t, router, http.MethodPost, "/messages/bulk", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var summary models.ImportSummary
	decode(t, rec, &summary)
	if summary.Total != 6 || summary.Imported != 2 || summary.Skipped != 4 {
		t.Fatalf("unexpected summary %+v", summary)
	}

	rec = do(t, router, http.MethodGet, "/messages", "")
	var views []models.MessageView
	decode(t, rec, &views)
	if len(views) != 2 {
		t.Fatalf("expected the 2 valid messages stored, got %d", len(views))
	}
}

func TestBulkImport_OneBadOneGood(t *testing.T) {
	router := newTestRouter(t)

	rec := do(t, router, http.MethodPost, "/messages/bulk",
		`{"messages":[{"sender":"Ahmed","message":"شقة للبيع"},{"sender":"Sara"}]}`)
	var summary models.ImportSummary
	decode(t, rec, &summary)
	if rec.Code != http.StatusOK || summary.Imported != 1 || summary.Skipped != 1 {
		t.Fatalf("expected imported=1 skipped=1, got %d %+v", rec.Code, summary)
	}
}

func TestBulkImport_SchemaErrorHidesPath(t *testing.T) {
	router := newTestRouter(t)

	rec := do(t, router, http.MethodPost, "/messages/bulk", `{"messages":"nope"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	msg := rec.Body.String()
	if strings.Contains(msg, "file://") || strings.Contains(msg, "schemas/") {
		t.Fatalf("error leaks schema location: %s", msg)
	}
	if !strings.Contains(msg, "/messages") {
		t.Fatalf("error should name the bad field: %s", msg)
	}
}

type failingImporter struct{}

func (failingImporter) Import(context.Context, []models.IncomingMessage) (*models.ImportSummary, error) {
	return nil, &services.BatchError{BatchID: "b-1", Err: errors.New("disk full")}
}

func TestBulkImport_StoreFailure(t *testing.T) {
	store := storage.NewMemoryStore(nil)
	logger := discardLogger()
	router := NewRouter(NewHandlers(failingImporter{}, services.NewQueryService(store), logger), logger)

	rec := do(t, router, http.MethodPost, "/messages/bulk", scenarioBody)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "imported") {
		t.Fatalf("no counters expected on failure: %s", rec.Body.String())
	}
}

type fakeIngest struct {
	triggered int
	paused    bool
	err       error
}

func (f *fakeIngest) Pause()  { f.paused = true }
func (f *fakeIngest) Resume() { f.paused = false }

func (f *fakeIngest) Trigger(context.Context) error {
	f.triggered++
	return f.err
}

func (f *fakeIngest) MarshalStatus() ([]byte, error) {
	return json.Marshal(map[string]interface{}{"paused": f.paused, "sources": []string{"maadi-brokers"}})
}

func TestIngestRoutes(t *testing.T) {
	store := storage.NewMemoryStore(nil)
	logger := discardLogger()
	h := NewHandlers(services.NewImporter(store, models.SeedCatalog(), logger), services.NewQueryService(store), logger)
	fake := &fakeIngest{}
	h.SetIngest(fake)
	router := NewRouter(h, logger)

	rec := do(t, router, http.MethodPost, "/ingest/run", "")
	if rec.Code != http.StatusAccepted || fake.triggered != 1 {
		t.Fatalf("expected accepted trigger, got %d", rec.Code)
	}

	rec = do(t, router, http.MethodGet, "/ingest/status", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "maadi-brokers") {
		t.Fatalf("unexpected status response %d %s", rec.Code, rec.Body.String())
	}

	rec = do(t, router, http.MethodPost, "/ingest/pause", "")
	if rec.Code != http.StatusOK || !fake.paused || !strings.Contains(rec.Body.String(), `"paused":true`) {
		t.Fatalf("unexpected pause response %d %s", rec.Code, rec.Body.String())
	}

	rec = do(t, router, http.MethodPost, "/ingest/resume", "")
	if rec.Code != http.StatusOK || fake.paused || !strings.Contains(rec.Body.String(), `"paused":false`) {
		t.Fatalf("unexpected resume response %d %s", rec.Code, rec.Body.String())
	}

	rec = do(t, router, http.MethodGet, "/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("health: %d", rec.Code)
	}
}
