package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"wa_listings/extract"
	"wa_listings/identity"
	"wa_listings/models"
	"wa_listings/storage"
)

var (
	ErrEmptyMessage = errors.New("message text is empty")
	ErrBadTimestamp = errors.New("unparseable timestamp")
)

// BatchError is returned when the store fails mid-batch. Nothing from the
// batch was committed.
type BatchError struct {
	BatchID string
	Err     error
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("import batch %s: %v", e.BatchID, e.Err)
}

func (e *BatchError) Unwrap() error {
	return e.Err
}

// itemError is a failure confined to one message. Anything else aborts the
// batch.
type itemError struct {
	err error
}

func (e *itemError) Error() string { return e.err.Error() }
func (e *itemError) Unwrap() error { return e.err }

// coreAttributes is the number of attributes counted by the confidence score.
const coreAttributes = 5

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// Importer runs batches of chat messages through extraction, resolution and
// materialization. Batches are serialized.
type Importer struct {
	mu           sync.Mutex
	store        storage.Store
	extractor    *extract.Extractor
	resolver     *Resolver
	materializer *Materializer
	logger       *slog.Logger
	now          func() time.Time
}

func NewImporter(store storage.Store, catalog *models.Catalog, logger *slog.Logger) *Importer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Importer{
		store:        store,
		extractor:    extract.New(),
		resolver:     NewResolver(catalog, logger),
		materializer: NewMaterializer(),
		logger:       logger,
		now:          time.Now,
	}
}

// Import processes msgs in order as one batch. Per-message failures are
// counted as skipped; a store failure returns a *BatchError and no summary.
func (im *Importer) Import(ctx context.Context, msgs []models.IncomingMessage) (*models.ImportSummary, error) {
	im.mu.Lock()
	defer im.mu.Unlock()

	start := time.Now()
	summary := &models.ImportSummary{BatchID: uuid.NewString(), Total: len(msgs)}
	logger := im.logger.With("batch_id", summary.BatchID)

	err := im.store.WithBatch(ctx, func(b storage.Batch) error {
		for i := range msgs {
			status, newAgent, err := im.importOne(ctx, b, &msgs[i])
			var ie *itemError
			if errors.As(err, &ie) {
				logger.Debug("message skipped", "index", i, "sender", msgs[i].Sender, "error", ie.err)
				summary.Record(models.ItemError, false)
				continue
			}
			if err != nil {
				return fmt.Errorf("message %d: %w", i, err)
			}
			logger.Debug("message processed", "index", i, "sender", msgs[i].Sender, "status", status, "new_agent", newAgent)
			summary.Record(status, newAgent)
		}
		return nil
	})
	if err != nil {
		logger.Error("import batch failed", "total", len(msgs), "error", err)
		return nil, &BatchError{BatchID: summary.BatchID, Err: err}
	}

	logger.Info("import batch done",
		"total", summary.Total,
		"imported", summary.Imported,
		"skipped", summary.Skipped,
		"property_messages", summary.PropertyMessages,
		"new_agents", summary.NewAgents,
		"duration", time.Since(start).Round(time.Millisecond))

	return summary, nil
}

func (im *Importer) importOne(ctx context.Context, b storage.Batch, in *models.IncomingMessage) (status models.ItemStatus, newAgent bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			status, newAgent = models.ItemError, false
			err = &itemError{fmt.Errorf("panic: %v", r)}
		}
	}()

	if in.Malformed != nil {
		return models.ItemError, false, &itemError{in.Malformed}
	}
	if strings.TrimSpace(in.Message) == "" {
		return models.ItemError, false, &itemError{ErrEmptyMessage}
	}

	now := im.now()
	date, err := parseTimestamp(in.Timestamp, now)
	if err != nil {
		return models.ItemError, false, &itemError{err}
	}

	key := identity.MessageKey(in.Sender, in.Message)
	seen, err := b.HasMessage(ctx, key)
	if err != nil {
		return "", false, fmt.Errorf("dedup check: %w", err)
	}
	if seen {
		return models.ItemDuplicate, false, nil
	}

	attrs := im.extractor.Extract(in.Message)

	res, err := im.resolver.Resolve(ctx, b, &attrs, in.Sender, in.AgentPhone, now)
	if err != nil {
		return "", false, err
	}

	msg := &models.Message{
		AgentID:           res.AgentID,
		SenderName:        in.Sender,
		MessageText:       in.Message,
		MessageDate:       date,
		ExtractedPrice:    attrs.Price,
		ExtractedAreaSize: attrs.AreaSize,
		ExtractedLocation: attrs.AreaName,
		Keywords:          messageKeywords(in.Keywords, &attrs),
		IsProcessed:       true,
		ConfidenceScore:   float64(attrs.Populated()) / coreAttributes,
		DedupKey:          key,
		CreatedAt:         now,
	}
	if err := b.InsertMessage(ctx, msg); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			return models.ItemDuplicate, res.NewAgent, nil
		}
		return "", false, fmt.Errorf("insert message: %w", err)
	}

	prop, err := im.materializer.Materialize(ctx, b, msg, res, &attrs, now)
	if err != nil {
		return "", false, err
	}
	if prop != nil {
		return models.ItemPropertyCreated, res.NewAgent, nil
	}
	return models.ItemImported, res.NewAgent, nil
}

// parseTimestamp accepts RFC 3339 and a few plain layouts. An empty value
// means the message is dated now.
func parseTimestamp(raw string, now time.Time) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return now, nil
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrBadTimestamp, raw)
}

func messageKeywords(given []string, attrs *extract.Attributes) string {
	var kw []string
	for _, k := range given {
		if k = strings.TrimSpace(k); k != "" {
			kw = append(kw, k)
		}
	}
	if len(kw) == 0 {
		kw = attrs.Keywords()
	}
	return strings.Join(kw, ",")
}
