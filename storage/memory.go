package storage

import (
	"context"
	"fmt"
	"sync"

	"wa_listings/models"
)

// memState holds the mutable collections in memory. A batch works on a clone
// and the clone replaces the live state on commit.
type memState struct {
	catalog      *models.Catalog
	agents       []models.Agent
	messages     []models.Message
	properties   []models.Property
	messageKeys  map[string]struct{}
	agentByPhone map[string]int
}

func newMemState(catalog *models.Catalog) *memState {
	return &memState{
		catalog:      catalog,
		messageKeys:  make(map[string]struct{}),
		agentByPhone: make(map[string]int),
	}
}

// index rebuilds the lookup maps. The first agent with a phone wins.
func (s *memState) index() {
	s.messageKeys = make(map[string]struct{}, len(s.messages))
	for _, m := range s.messages {
		s.messageKeys[m.DedupKey] = struct{}{}
	}
	s.agentByPhone = make(map[string]int, len(s.agents))
	for i, a := range s.agents {
		if _, ok := s.agentByPhone[a.Phone]; !ok {
			s.agentByPhone[a.Phone] = i
		}
	}
}

func (s *memState) clone() *memState {
	c := &memState{
		catalog:      s.catalog,
		agents:       append([]models.Agent(nil), s.agents...),
		messages:     append([]models.Message(nil), s.messages...),
		properties:   append([]models.Property(nil), s.properties...),
		messageKeys:  make(map[string]struct{}, len(s.messageKeys)),
		agentByPhone: make(map[string]int, len(s.agentByPhone)),
	}
	for k := range s.messageKeys {
		c.messageKeys[k] = struct{}{}
	}
	for k, v := range s.agentByPhone {
		c.agentByPhone[k] = v
	}
	return c
}

func (s *memState) dataset() *Dataset {
	return &Dataset{
		Catalog:    s.catalog,
		Agents:     append([]models.Agent(nil), s.agents...),
		Messages:   append([]models.Message(nil), s.messages...),
		Properties: append([]models.Property(nil), s.properties...),
	}
}

// memBatch implements Batch over a working copy.
type memBatch struct {
	state *memState
}

func (b *memBatch) HasMessage(_ context.Context, dedupKey string) (bool, error) {
	_, ok := b.state.messageKeys[dedupKey]
	return ok, nil
}

func (b *memBatch) FindAgentByPhone(_ context.Context, phone string) (*models.Agent, error) {
	i, ok := b.state.agentByPhone[phone]
	if !ok {
		return nil, nil
	}
	agent := b.state.agents[i]
	return &agent, nil
}

func (b *memBatch) UpsertAgentIfAbsent(_ context.Context, a *models.Agent) (bool, error) {
	if i, ok := b.state.agentByPhone[a.Phone]; ok {
		*a = b.state.agents[i]
		return false, nil
	}
	a.ID = 1
	if n := len(b.state.agents); n > 0 {
		a.ID = b.state.agents[n-1].ID + 1
	}
	b.state.agents = append(b.state.agents, *a)
	b.state.agentByPhone[a.Phone] = len(b.state.agents) - 1
	return true, nil
}

func (b *memBatch) InsertMessage(_ context.Context, m *models.Message) error {
	if _, ok := b.state.messageKeys[m.DedupKey]; ok {
		return ErrDuplicate
	}
	m.ID = 1
	if n := len(b.state.messages); n > 0 {
		m.ID = b.state.messages[n-1].ID + 1
	}
	b.state.messages = append(b.state.messages, *m)
	b.state.messageKeys[m.DedupKey] = struct{}{}
	return nil
}

func (b *memBatch) InsertProperty(_ context.Context, p *models.Property) error {
	p.ID = 1
	if n := len(b.state.properties); n > 0 {
		p.ID = b.state.properties[n-1].ID + 1
	}
	b.state.properties = append(b.state.properties, *p)
	return nil
}

func (b *memBatch) SetMessageProperty(_ context.Context, messageID, propertyID int64) error {
	for i := len(b.state.messages) - 1; i >= 0; i-- {
		if b.state.messages[i].ID == messageID {
			b.state.messages[i].PropertyID = &propertyID
			return nil
		}
	}
	return fmt.Errorf("message %d: %w", messageID, ErrNotFound)
}

// MemoryStore keeps everything in process memory. Used by tests and for
// throwaway runs.
type MemoryStore struct {
	mu    sync.RWMutex
	state *memState
}

func NewMemoryStore(catalog *models.Catalog) *MemoryStore {
	if catalog == nil {
		catalog = models.SeedCatalog()
	}
	return &MemoryStore{state: newMemState(catalog)}
}

func (s *MemoryStore) LoadCatalog(_ context.Context) (*models.Catalog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.catalog, nil
}

func (s *MemoryStore) Snapshot(_ context.Context) (*Dataset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.dataset(), nil
}

func (s *MemoryStore) WithBatch(_ context.Context, fn func(Batch) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	work := s.state.clone()
	if err := fn(&memBatch{state: work}); err != nil {
		return err
	}
	s.state = work
	return nil
}

func (s *MemoryStore) Close() error {
	return nil
}
