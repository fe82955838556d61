// Package allocator issues the strictly increasing token identifiers used by
// the in-memory ledger. The Postgres ledger expresses the same contract with
// a counter row advanced inside the mint transaction.
package allocator

import (
	"math"
	"sync"

	"mintgate/pkg/domain"
	"mintgate/pkg/platform/sentinel"
)

// Sequence hands out identifiers starting at 1, each exactly one greater than
// the last. Identifiers are never reused. Exhaustion of the uint64 range is a
// boundary condition reported as sentinel.ErrExhausted, not handled specially
// anywhere else.
type Sequence struct {
	mu   sync.Mutex
	last uint64
}

func NewSequence() *Sequence {
	return &Sequence{}
}

// Next allocates the next identifier.
func (s *Sequence) Next() (domain.TokenID, error) {
	ids, err := s.NextN(1)
	if err != nil {
		return 0, err
	}
	return ids[0], nil
}

// NextN allocates n consecutive identifiers, all-or-nothing: if the range
// cannot cover the block, nothing is consumed.
func (s *Sequence) NextN(n int) ([]domain.TokenID, error) {
	if n <= 0 {
		return nil, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if uint64(n) > math.MaxUint64-s.last {
		return nil, sentinel.ErrExhausted
	}

	ids := make([]domain.TokenID, n)
	for i := range ids {
		s.last++
		ids[i] = domain.TokenID(s.last)
	}
	return ids, nil
}

// Last returns the most recently allocated identifier, 0 if none.
func (s *Sequence) Last() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}
