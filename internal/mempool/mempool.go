package mempool

import (
	"errors"
	"fmt"
	"sync"

	"realvora-go/internal/ledger"
)

// ErrFull is returned by Submit when the mempool holds max calls.
var ErrFull = errors.New("mempool full")

// mempool implements ledger.Mempool on a pluggable callStore.
// All ordering logic lives here.
type mempool struct {
	store    callStore
	maxCalls int
	mu       sync.Mutex
}

var _ ledger.Mempool = (*mempool)(nil)

func (m *mempool) Submit(call ledger.Call) error {
	if call.ID == "" || call.Operation == "" {
		return fmt.Errorf("call needs an id and an operation")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	n, err := m.store.Len()
	if err != nil {
		return fmt.Errorf("counting calls: %w", err)
	}
	if n >= m.maxCalls {
		return fmt.Errorf("%w: %d calls queued", ErrFull, n)
	}
	if err := m.store.Append(call); err != nil {
		return fmt.Errorf("adding to queue: %w", err)
	}
	return nil
}

// ProcessNext runs fn on the oldest call outside the lock. The call is
// removed only when fn succeeds, so a failed call stays for retry.
func (m *mempool) ProcessNext(fn ledger.CallFunc) error {
	m.mu.Lock()
	call, err := m.store.Peek()
	m.mu.Unlock()
	if err != nil {
		return err
	}
	if call == nil {
		return nil
	}

	if err := fn(*call); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	return m.store.Pop(call.ID)
}

func (m *mempool) Pending() ([]ledger.Call, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.store.List()
}

func (m *mempool) Count() (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.store.Len()
}
