package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"tabbook/backend/internal/store"
)

// Store keeps each collection as its encoded JSON document so that loads
// hand back independent copies, the same as the SQL stores do.
type Store struct {
	mu   sync.RWMutex
	docs map[store.Collection][]byte
}

var _ store.Repository = (*Store)(nil)

func New() *Store {
	return &Store{docs: make(map[store.Collection][]byte)}
}

func (s *Store) Load(_ context.Context, collection store.Collection, dest any) (bool, error) {
	if !collection.Valid() {
		return false, store.ErrValidation
	}

	s.mu.RLock()
	raw, ok := s.docs[collection]
	s.mu.RUnlock()
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return true, fmt.Errorf("decode %s: %w", collection, err)
	}
	return true, nil
}

func (s *Store) Save(ctx context.Context, collection store.Collection, value any) error {
	return s.SaveAll(ctx, map[store.Collection]any{collection: value})
}

func (s *Store) SaveAll(_ context.Context, docs map[store.Collection]any) error {
	encoded := make(map[store.Collection][]byte, len(docs))
	for collection, value := range docs {
		if !collection.Valid() {
			return store.ErrValidation
		}
		raw, err := json.Marshal(value)
		if err != nil {
			return fmt.Errorf("encode %s: %w", collection, err)
		}
		encoded[collection] = raw
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for collection, raw := range encoded {
		s.docs[collection] = raw
	}
	return nil
}

func (s *Store) Close() error {
	return nil
}
