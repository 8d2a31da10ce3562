package app

import (
	"encoding/json"
	"fmt"
	"sync"

	"realvora-go/internal/ledger"
	"realvora-go/internal/model"
)

// Journal statuses.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Receipt records the outcome of one executed call. Every call that reaches
// the ledger gets a journal entry, whether it succeeded or not.
type Receipt struct {
	CallID      string          `json:"call_id"`
	Operation   string          `json:"operation"`
	Caller      string          `json:"caller"`
	OperationID int64           `json:"operation_id"`
	Block       uint64          `json:"block"`
	Status      string          `json:"status"`
	Result      json.RawMessage `json:"result,omitempty"`
	Error       string          `json:"error,omitempty"`
}

// Failed reports whether the call was rejected.
func (r *Receipt) Failed() bool {
	return r.Status == StatusError
}

// journalDB is the Database the ledger service runs on. While a call is
// armed, the first Atomic that commits also writes the call's journal row,
// so a ledger change and its journal entry commit or roll back together.
type journalDB struct {
	ledger.Database

	mu        sync.Mutex
	pending   *model.Operation
	committed bool
}

func (j *journalDB) arm(op *model.Operation) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.pending, j.committed = op, false
}

// disarm clears the armed call and reports whether its row was committed.
func (j *journalDB) disarm() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	committed := j.committed
	j.pending, j.committed = nil, false
	return committed
}

func (j *journalDB) Atomic(fn func(tx ledger.Tx) error) error {
	j.mu.Lock()
	op := j.pending
	if j.committed {
		op = nil
	}
	j.mu.Unlock()
	if op == nil {
		return j.Database.Atomic(fn)
	}

	err := j.Database.Atomic(func(tx ledger.Tx) error {
		if err := fn(tx); err != nil {
			return err
		}
		if err := tx.RecordOperation(op); err != nil {
			return fmt.Errorf("journaling %s: %w", op.Operation, err)
		}
		return nil
	})
	if err == nil {
		j.mu.Lock()
		j.committed = true
		j.mu.Unlock()
	}
	return err
}

// journal runs fn as the journaled operation described by call. The
// returned error is fn's; journal I/O failures are reported as infra errors
// and leave the receipt nil.
func (a *App) journal(call ledger.Call, fn func() (any, error)) (*Receipt, error) {
	height, err := a.db.Height()
	if err != nil {
		return nil, err
	}

	params := string(call.Args)
	if params == "" {
		params = "{}"
	}
	op := &model.Operation{
		CallID:     call.ID,
		Operation:  call.Operation,
		Caller:     call.Caller,
		Parameters: params,
		Status:     StatusSuccess,
		Block:      height,
		StartedAt:  a.clock.Now(),
	}

	a.journaled.arm(op)
	result, runErr := fn()
	committed := a.journaled.disarm()

	r := &Receipt{
		CallID:    call.ID,
		Operation: call.Operation,
		Caller:    call.Caller,
		Block:     height,
		Status:    StatusSuccess,
	}
	if runErr != nil {
		r.Status = StatusError
		r.Error = runErr.Error()
		op.Result = r.Error
	} else if result != nil {
		if r.Result, err = json.Marshal(result); err != nil {
			return nil, fmt.Errorf("encoding %s result: %w", call.Operation, err)
		}
		op.Result = string(r.Result)
	}
	op.Status = r.Status

	if committed {
		err = a.db.FinishOperation(op.ID, op.Status, op.Result)
	} else {
		finished := a.clock.Now()
		op.FinishedAt = &finished
		err = a.db.RecordOperation(op)
	}
	if err != nil {
		return nil, fmt.Errorf("journaling %s: %w", call.Operation, err)
	}
	r.OperationID = op.ID
	return r, runErr
}
