package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/arloliu/gridkey/coord"
	"github.com/arloliu/gridkey/errs"
)

// MemoryStore is a BlockStore kept entirely in process memory, built on the
// coord.Map container (position hash for bucket selection, structural
// equality for lookup). It always runs the extended four-axis scheme.
//
// Intended for tests and for running without a data directory; contents are
// lost when the process exits.
type MemoryStore struct {
	mu     sync.RWMutex
	blocks *coord.Map[[]byte]
	closed bool
}

var _ BlockStore = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory block store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{blocks: coord.NewMap[[]byte]()}
}

// Put stores a copy of payload under pos.
func (s *MemoryStore) Put(ctx context.Context, pos coord.Pos4, payload []byte) error {
	if err := ctxErr(ctx); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errs.ErrStoreClosed
	}

	stored := make([]byte, len(payload))
	copy(stored, payload)
	s.blocks.Put(pos, stored)

	return nil
}

// Get returns a copy of the payload stored under pos.
func (s *MemoryStore) Get(ctx context.Context, pos coord.Pos4) ([]byte, error) {
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, errs.ErrStoreClosed
	}

	stored, ok := s.blocks.Get(pos)
	if !ok {
		return nil, fmt.Errorf("block %v: %w", pos, errs.ErrBlockNotFound)
	}

	payload := make([]byte, len(stored))
	copy(payload, stored)

	return payload, nil
}

// Delete removes the payload stored under pos, if any.
func (s *MemoryStore) Delete(ctx context.Context, pos coord.Pos4) error {
	if err := ctxErr(ctx); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errs.ErrStoreClosed
	}

	s.blocks.Delete(pos)

	return nil
}

// ForEach calls fn for every stored block in unspecified order.
func (s *MemoryStore) ForEach(ctx context.Context, fn func(pos coord.Pos4, payload []byte) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return errs.ErrStoreClosed
	}

	var iterErr error
	s.blocks.Range(func(pos coord.Pos4, stored []byte) bool {
		if iterErr = ctxErr(ctx); iterErr != nil {
			return false
		}

		payload := make([]byte, len(stored))
		copy(payload, stored)

		iterErr = fn(pos, payload)

		return iterErr == nil
	})

	return iterErr
}

// Len returns the number of stored blocks. A closed store reports zero.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return 0
	}

	return s.blocks.Len()
}

// Close marks the store closed and drops its contents.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	s.blocks = nil

	return nil
}
