package storage

import (
	"context"
	"errors"

	"wa_listings/models"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("duplicate message")
)

// Dataset is a full read of the store. Slices are in insertion (id) order.
type Dataset struct {
	Catalog    *models.Catalog
	Agents     []models.Agent
	Messages   []models.Message
	Properties []models.Property
}

// Store is the backing store for imported chat data. Catalog rows are seeded
// when the store is opened and never written afterwards.
type Store interface {
	LoadCatalog(ctx context.Context) (*models.Catalog, error)
	Snapshot(ctx context.Context) (*Dataset, error)
	// WithBatch runs fn as one unit of work. Nothing fn wrote is visible
	// unless fn returns nil and the commit succeeds.
	WithBatch(ctx context.Context, fn func(Batch) error) error
	Close() error
}

// Batch is the write side of one import batch. Reads observe earlier writes
// of the same batch.
type Batch interface {
	HasMessage(ctx context.Context, dedupKey string) (bool, error)
	// FindAgentByPhone returns nil, nil when no agent has the phone.
	FindAgentByPhone(ctx context.Context, phone string) (*models.Agent, error)
	// UpsertAgentIfAbsent inserts a unless an agent with the same phone
	// exists, in which case a is overwritten with the stored row.
	UpsertAgentIfAbsent(ctx context.Context, a *models.Agent) (created bool, err error)
	// InsertMessage sets m.ID. It returns ErrDuplicate when the dedup key
	// is already stored.
	InsertMessage(ctx context.Context, m *models.Message) error
	InsertProperty(ctx context.Context, p *models.Property) error
	SetMessageProperty(ctx context.Context, messageID, propertyID int64) error
}
