package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"wa_listings/ingest"
	"wa_listings/models"
	"wa_listings/services"
	"wa_listings/storage"
)

const maxBodyBytes = 10 << 20

// Importer is implemented by services.Importer.
type Importer interface {
	Import(ctx context.Context, msgs []models.IncomingMessage) (*models.ImportSummary, error)
}

// IngestRunner is implemented by ingest.Runner.
type IngestRunner interface {
	Trigger(ctx context.Context) error
	Pause()
	Resume()
	MarshalStatus() ([]byte, error)
}

type Handlers struct {
	importer Importer
	query    *services.QueryService
	ingest   IngestRunner
	logger   *slog.Logger
}

func NewHandlers(importer Importer, query *services.QueryService, logger *slog.Logger) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handlers{importer: importer, query: query, logger: logger}
}

// SetIngest exposes the inbox runner under /ingest.
func (h *Handlers) SetIngest(r IngestRunner) {
	h.ingest = r
}

type bulkImportRequest struct {
	Messages []json.RawMessage `json:"messages"`
}

type bulkImportResponse struct {
	Success bool `json:"success"`
	*models.ImportSummary
}

func (h *Handlers) BulkImport(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		WriteJSONError(w, http.StatusBadRequest, "could not read request body")
		return
	}
	if err := validateBody(bulkSchema, body); err != nil {
		WriteJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req bulkImportRequest
	if err := json.Unmarshal(body, &req); err != nil {
		WriteJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	msgs := make([]models.IncomingMessage, len(req.Messages))
	for i, raw := range req.Messages {
		msgs[i] = decodeItem(raw)
	}

	summary, err := h.importer.Import(r.Context(), msgs)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	RespondWithJSON(w, http.StatusOK, bulkImportResponse{Success: true, ImportSummary: summary})
}

// decodeItem never fails: a bad item goes to the importer marked
// malformed so the rest of the batch still runs.
func decodeItem(raw json.RawMessage) models.IncomingMessage {
	if err := validateBody(itemSchema, raw); err != nil {
		return models.IncomingMessage{Malformed: err}
	}
	var msg models.IncomingMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		return models.IncomingMessage{Malformed: err}
	}
	return msg
}

func (h *Handlers) ListMessages(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := services.MessageFilter{
		Search:       q.Get("search"),
		PropertyType: q.Get("property_type"),
	}
	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			WriteJSONError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		filter.Limit = limit
	}

	views, err := h.query.ListMessages(r.Context(), filter)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	RespondWithJSON(w, http.StatusOK, views)
}

func (h *Handlers) GetMessage(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	view, err := h.query.GetMessage(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	RespondWithJSON(w, http.StatusOK, view)
}

func (h *Handlers) GetProperty(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	prop, err := h.query.GetProperty(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	RespondWithJSON(w, http.StatusOK, prop)
}

func (h *Handlers) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.query.Stats(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	RespondWithJSON(w, http.StatusOK, stats)
}

func (h *Handlers) Agents(w http.ResponseWriter, r *http.Request) {
	agents, err := h.query.Agents(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	RespondWithJSON(w, http.StatusOK, agents)
}

func (h *Handlers) Areas(w http.ResponseWriter, r *http.Request) {
	h.catalog(w, r, func(c *models.Catalog) interface{} { return c.Areas })
}

func (h *Handlers) PropertyTypes(w http.ResponseWriter, r *http.Request) {
	h.catalog(w, r, func(c *models.Catalog) interface{} { return c.PropertyTypes })
}

func (h *Handlers) PhoneOperators(w http.ResponseWriter, r *http.Request) {
	h.catalog(w, r, func(c *models.Catalog) interface{} { return c.PhoneOperators })
}

func (h *Handlers) catalog(w http.ResponseWriter, r *http.Request, pick func(*models.Catalog) interface{}) {
	c, err := h.query.Catalog(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	RespondWithJSON(w, http.StatusOK, pick(c))
}

func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	RespondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handlers) IngestStatus(w http.ResponseWriter, r *http.Request) {
	status, err := h.ingest.MarshalStatus()
	if err != nil {
		h.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write(status)
}

func (h *Handlers) IngestRun(w http.ResponseWriter, r *http.Request) {
	if err := h.ingest.Trigger(r.Context()); err != nil {
		if errors.Is(err, ingest.ErrBusy) {
			WriteJSONError(w, http.StatusConflict, err.Error())
			return
		}
		h.fail(w, r, err)
		return
	}
	RespondWithJSON(w, http.StatusAccepted, map[string]bool{"success": true})
}

// IngestPause stops scheduled and triggered runs until resumed. A run that
// is already going finishes.
func (h *Handlers) IngestPause(w http.ResponseWriter, r *http.Request) {
	h.ingest.Pause()
	h.IngestStatus(w, r)
}

func (h *Handlers) IngestResume(w http.ResponseWriter, r *http.Request) {
	h.ingest.Resume()
	h.IngestStatus(w, r)
}

func (h *Handlers) fail(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, storage.ErrNotFound) {
		WriteJSONError(w, http.StatusNotFound, err.Error())
		return
	}

	logger := loggerFrom(r.Context(), h.logger)
	var batchErr *services.BatchError
	if errors.As(err, &batchErr) {
		logger.Error("import batch failed", "batch_id", batchErr.BatchID, "error", batchErr.Err)
		WriteJSONError(w, http.StatusInternalServerError, "import failed, nothing was saved")
		return
	}
	logger.Error("request failed", "path", r.URL.Path, "error", err)
	WriteJSONError(w, http.StatusInternalServerError, "internal error")
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		WriteJSONError(w, http.StatusBadRequest, "id must be a positive integer")
		return 0, false
	}
	return id, true
}
