package settings

import (
	"context"
	"sync"
)

// InMemoryStore keeps registry configuration in process memory. Minting
// starts unpaused with no base URI, matching the construction defaults.
type InMemoryStore struct {
	mu      sync.RWMutex
	paused  bool
	baseURI string
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

func (s *InMemoryStore) IsPaused(_ context.Context) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.paused, nil
}

func (s *InMemoryStore) SetPaused(_ context.Context, paused bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.paused = paused
	return nil
}

func (s *InMemoryStore) BaseURI(_ context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.baseURI, nil
}

func (s *InMemoryStore) SetBaseURI(_ context.Context, uri string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.baseURI = uri
	return nil
}
