package app

import (
	"errors"
	"fmt"

	"realvora-go/internal/ledger"
)

// producerCaller is recorded as the caller of block-level sweeps.
const producerCaller = "block-producer"

// BlockResult summarizes one mined block.
type BlockResult struct {
	Height    uint64     `json:"height"` // height the calls executed at
	Receipts  []*Receipt `json:"receipts"`
	Expired   int64      `json:"expired"`
	NewHeight uint64     `json:"new_height"`
}

// Failed returns the number of rejected calls in the block.
func (b *BlockResult) Failed() int {
	n := 0
	for _, r := range b.Receipts {
		if r.Failed() {
			n++
		}
	}
	return n
}

// MineBlock executes the calls queued when it starts, oldest first, then
// expires lapsed orders and advances the height by one. A rejected call is
// recorded in its receipt and does not stop the block. A call whose id is
// already journaled is dropped without running again. Calls submitted
// while the block runs wait for the next one.
func (a *App) MineBlock() (*BlockResult, error) {
	a.mineMu.Lock()
	defer a.mineMu.Unlock()

	height, err := a.db.Height()
	if err != nil {
		return nil, err
	}
	queued, err := a.mempool.Count()
	if err != nil {
		return nil, fmt.Errorf("counting mempool: %w", err)
	}

	res := &BlockResult{Height: height}
	for i := 0; i < queued; i++ {
		err := a.mempool.ProcessNext(func(call ledger.Call) error {
			r, err := a.Execute(call)
			switch {
			case r != nil:
				res.Receipts = append(res.Receipts, r)
				return nil
			case errors.Is(err, ErrAlreadyExecuted):
				a.logger.Warn("skipping journaled call", "id", call.ID, "operation", call.Operation, "error", err)
				return nil
			case errors.Is(err, ErrUnknownOperation), errors.Is(err, ErrMissingCaller):
				res.Receipts = append(res.Receipts, &Receipt{
					CallID:    call.ID,
					Operation: call.Operation,
					Caller:    call.Caller,
					Block:     height,
					Status:    StatusError,
					Error:     err.Error(),
				})
				return nil
			default:
				return err
			}
		})
		if err != nil {
			return res, fmt.Errorf("block %d: %w", height, err)
		}
	}

	a.execMu.Lock()
	res.Expired, err = a.service.ExpireOrders(producerCaller)
	a.execMu.Unlock()
	if err != nil {
		return res, fmt.Errorf("block %d: %w", height, err)
	}
	if res.NewHeight, err = a.db.AdvanceHeight(1); err != nil {
		return res, err
	}

	a.logger.Info("block mined", "height", height, "calls", len(res.Receipts),
		"failed", res.Failed(), "expired", res.Expired)
	return res, nil
}
