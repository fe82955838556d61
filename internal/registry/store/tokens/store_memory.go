package tokens

import (
	"context"
	"sync"

	"mintgate/internal/registry/allocator"
	"mintgate/pkg/domain"
	"mintgate/pkg/platform/sentinel"
)

// InMemoryStore keeps the ownership ledger in process memory. It intentionally
// favors clarity over performance and is the default for development and
// unit tests.
//
// The reverse lookup walks identifiers 1..last in ascending order and stops
// once the holder's balance count has been collected, so the scan is bounded
// by supply but usually exits early. Balances are tracked explicitly to make
// that bound possible.
type InMemoryStore struct {
	mu       sync.RWMutex
	seq      *allocator.Sequence
	owners   map[domain.TokenID]domain.Principal
	balances map[domain.Principal]uint64
	uris     map[domain.TokenID]string
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		seq:      allocator.NewSequence(),
		owners:   make(map[domain.TokenID]domain.Principal),
		balances: make(map[domain.Principal]uint64),
		uris:     make(map[domain.TokenID]string),
	}
}

func (s *InMemoryStore) CreateTokens(_ context.Context, owners []domain.Principal) ([]domain.TokenID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids, err := s.seq.NextN(len(owners))
	if err != nil {
		return nil, err
	}

	for i, id := range ids {
		if _, exists := s.owners[id]; exists {
			// The sequence never repeats, so a collision means corruption.
			return nil, sentinel.ErrConflict
		}
		s.owners[id] = owners[i]
		s.balances[owners[i]]++
	}
	return ids, nil
}

func (s *InMemoryStore) OwnerOf(_ context.Context, id domain.TokenID) (domain.Principal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	owner, ok := s.owners[id]
	if !ok {
		return domain.NullPrincipal, sentinel.ErrNotFound
	}
	return owner, nil
}

func (s *InMemoryStore) UpdateOwner(_ context.Context, id domain.TokenID, newOwner domain.Principal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.owners[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	s.owners[id] = newOwner
	s.balances[current]--
	if s.balances[current] == 0 {
		delete(s.balances, current)
	}
	s.balances[newOwner]++
	return nil
}

func (s *InMemoryStore) TokensOf(_ context.Context, owner domain.Principal) ([]domain.TokenID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	balance := s.balances[owner]
	if balance == 0 {
		return nil, nil
	}

	ids := make([]domain.TokenID, 0, balance)
	last := s.seq.Last()
	for raw := uint64(1); raw <= last; raw++ {
		id := domain.TokenID(raw)
		if s.owners[id] == owner {
			ids = append(ids, id)
			if uint64(len(ids)) == balance {
				break
			}
		}
	}
	return ids, nil
}

func (s *InMemoryStore) BalanceOf(_ context.Context, owner domain.Principal) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.balances[owner], nil
}

func (s *InMemoryStore) TotalSupply(_ context.Context) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.seq.Last(), nil
}

func (s *InMemoryStore) URIOverride(_ context.Context, id domain.TokenID) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.owners[id]; !ok {
		return "", sentinel.ErrNotFound
	}
	return s.uris[id], nil
}

func (s *InMemoryStore) SetURIOverride(_ context.Context, id domain.TokenID, uri string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.owners[id]; !ok {
		return sentinel.ErrNotFound
	}
	s.uris[id] = uri
	return nil
}
