package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"wa_listings/identity"
	"wa_listings/models"
)

// File names inside the data directory, one JSON array per table.
const (
	phoneOperatorsFile = "phone_operators.json"
	propertyTypesFile  = "property_types.json"
	areasFile          = "areas.json"
	agentsFile         = "agents.json"
	messagesFile       = "messages.json"
	propertiesFile     = "properties.json"
)

// JSONStore keeps each table as a JSON array file. A batch is committed by
// rewriting the three mutable files through a temp file and rename.
type JSONStore struct {
	dir   string
	mu    sync.RWMutex
	state *memState
}

func NewJSONStore(dir string) (*JSONStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	store := &JSONStore{dir: dir}
	catalog, err := store.loadOrSeedCatalog()
	if err != nil {
		return nil, err
	}

	state := newMemState(catalog)
	if err := store.readFile(agentsFile, &state.agents); err != nil {
		return nil, err
	}
	if err := store.readFile(messagesFile, &state.messages); err != nil {
		return nil, err
	}
	if err := store.readFile(propertiesFile, &state.properties); err != nil {
		return nil, err
	}
	// Files written by older tools may lack the dedup key.
	for i := range state.messages {
		if state.messages[i].DedupKey == "" {
			state.messages[i].DedupKey = identity.MessageKey(state.messages[i].SenderName, state.messages[i].MessageText)
		}
	}
	state.index()
	store.state = state

	return store, nil
}

func (s *JSONStore) loadOrSeedCatalog() (*models.Catalog, error) {
	seed := models.SeedCatalog()
	catalog := &models.Catalog{}

	tables := []struct {
		name string
		dst  any
		seed any
	}{
		{phoneOperatorsFile, &catalog.PhoneOperators, seed.PhoneOperators},
		{propertyTypesFile, &catalog.PropertyTypes, seed.PropertyTypes},
		{areasFile, &catalog.Areas, seed.Areas},
	}
	for _, t := range tables {
		_, err := os.Stat(filepath.Join(s.dir, t.name))
		if errors.Is(err, os.ErrNotExist) {
			if err := s.writeFile(t.name, t.seed); err != nil {
				return nil, err
			}
		} else if err != nil {
			return nil, fmt.Errorf("stat %s: %w", t.name, err)
		}
		if err := s.readFile(t.name, t.dst); err != nil {
			return nil, err
		}
	}
	return catalog, nil
}

// readFile leaves dst untouched when the file does not exist.
func (s *JSONStore) readFile(name string, dst any) error {
	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", name, err)
	}
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("decode %s: %w", name, err)
	}
	return nil
}

func (s *JSONStore) writeFile(name string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}

	tmp, err := os.CreateTemp(s.dir, name+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp for %s: %w", name, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", name, err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(s.dir, name)); err != nil {
		return fmt.Errorf("rename %s: %w", name, err)
	}
	return nil
}

func (s *JSONStore) LoadCatalog(_ context.Context) (*models.Catalog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.catalog, nil
}

func (s *JSONStore) Snapshot(_ context.Context) (*Dataset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.dataset(), nil
}

func (s *JSONStore) WithBatch(_ context.Context, fn func(Batch) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	work := s.state.clone()
	if err := fn(&memBatch{state: work}); err != nil {
		return err
	}

	// Properties first: a message never points at a property missing on disk
	// if the process dies between renames.
	if err := s.writeFile(propertiesFile, nonNil(work.properties)); err != nil {
		return err
	}
	if err := s.writeFile(agentsFile, nonNil(work.agents)); err != nil {
		return err
	}
	if err := s.writeFile(messagesFile, nonNil(work.messages)); err != nil {
		return err
	}
	s.state = work
	return nil
}

func (s *JSONStore) Close() error {
	return nil
}

// nonNil makes empty tables encode as [] instead of null.
func nonNil[T any](rows []T) []T {
	if rows == nil {
		return []T{}
	}
	return rows
}
