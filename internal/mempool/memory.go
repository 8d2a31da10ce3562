package mempool

import (
	"fmt"

	"realvora-go/internal/ledger"
)

// NewMemoryMempool creates an in-memory mempool, useful for testing.
// maxCalls must be positive.
func NewMemoryMempool(maxCalls int) ledger.Mempool {
	return &mempool{store: &memoryStore{}, maxCalls: maxCalls}
}

type memoryStore struct {
	calls []ledger.Call
}

func (s *memoryStore) Append(call ledger.Call) error {
	s.calls = append(s.calls, call)
	return nil
}

func (s *memoryStore) Peek() (*ledger.Call, error) {
	if len(s.calls) == 0 {
		return nil, nil
	}
	c := s.calls[0]
	return &c, nil
}

func (s *memoryStore) Pop(id string) error {
	for i, c := range s.calls {
		if c.ID == id {
			s.calls = append(s.calls[:i], s.calls[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("call %s not queued", id)
}

func (s *memoryStore) Len() (int, error) {
	return len(s.calls), nil
}

func (s *memoryStore) List() ([]ledger.Call, error) {
	out := make([]ledger.Call, len(s.calls))
	copy(out, s.calls)
	return out, nil
}
