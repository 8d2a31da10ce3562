package ledger

import (
	"encoding/json"
	"time"
)

// Call is one queued ledger operation awaiting inclusion in a block.
type Call struct {
	ID          string          `json:"id"`
	Caller      string          `json:"caller"`
	Operation   string          `json:"operation"`
	Args        json.RawMessage `json:"args"`
	SubmittedAt time.Time       `json:"submitted_at"`
}

// CallFunc executes a call. Returning nil removes it from the mempool.
type CallFunc func(call Call) error

// Mempool orders submitted calls for the next block.
// Calls are processed in submission order.
type Mempool interface {
	// Submit appends a call. It fails when the mempool is full.
	Submit(call Call) error

	// ProcessNext peeks the oldest call and runs fn on it. The call is
	// removed only if fn returns nil. An empty mempool is not an error.
	ProcessNext(fn CallFunc) error

	// Pending returns the queued calls, oldest first.
	Pending() ([]Call, error)

	// Count returns the number of queued calls.
	Count() (int, error)
}
