package mempool

import "realvora-go/internal/ledger"

// callStore abstracts the storage of the call queue.
// Concurrency is managed by the caller (mempool.mu), so stores
// do not need to be safe for concurrent use.
type callStore interface {
	// Append adds a call to the end of the queue.
	Append(call ledger.Call) error

	// Peek returns the first call without removing it, or nil if the
	// queue is empty.
	Peek() (*ledger.Call, error)

	// Pop removes the call with the given id.
	Pop(id string) error

	// Len returns the number of queued calls.
	Len() (int, error)

	// List returns every queued call, oldest first.
	List() ([]ledger.Call, error)
}
