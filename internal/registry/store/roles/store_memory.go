package roles

import (
	"context"
	"sync"

	"mintgate/internal/registry/models"
	"mintgate/pkg/domain"
)

// InMemoryStore keeps role membership in process memory.
type InMemoryStore struct {
	mu     sync.RWMutex
	grants map[models.Role]map[domain.Principal]struct{}
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{grants: make(map[models.Role]map[domain.Principal]struct{})}
}

func (s *InMemoryStore) HasRole(_ context.Context, role models.Role, principal domain.Principal) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.grants[role][principal]
	return ok, nil
}

func (s *InMemoryStore) Grant(_ context.Context, role models.Role, principal domain.Principal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.grants[role] == nil {
		s.grants[role] = make(map[domain.Principal]struct{})
	}
	s.grants[role][principal] = struct{}{}
	return nil
}

func (s *InMemoryStore) Revoke(_ context.Context, role models.Role, principal domain.Principal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.grants[role], principal)
	return nil
}

func (s *InMemoryStore) RolesOf(_ context.Context, principal domain.Principal) ([]models.Role, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Role
	for _, role := range models.AllRoles() {
		if _, ok := s.grants[role][principal]; ok {
			out = append(out, role)
		}
	}
	return out, nil
}
