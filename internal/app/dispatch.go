package app

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"realvora-go/internal/ledger"
	"realvora-go/internal/model"
)

// ErrUnknownOperation is returned for a call naming no ledger operation.
var ErrUnknownOperation = errors.New("unknown operation")

// ErrBadArguments is returned when a call's arguments do not decode.
var ErrBadArguments = errors.New("bad arguments")

// ErrMissingCaller is returned for a call without a caller address.
var ErrMissingCaller = errors.New("caller required")

// ErrAlreadyExecuted is returned for a call whose id is already journaled.
var ErrAlreadyExecuted = errors.New("call already executed")

// handler runs one ledger operation from JSON arguments.
type handler func(s *ledger.Service, caller string, args json.RawMessage) (any, error)

// typed decodes args strictly into T before calling fn.
func typed[T any](fn func(s *ledger.Service, caller string, args T) (any, error)) handler {
	return func(s *ledger.Service, caller string, raw json.RawMessage) (any, error) {
		var args T
		if len(bytes.TrimSpace(raw)) > 0 {
			dec := json.NewDecoder(bytes.NewReader(raw))
			dec.DisallowUnknownFields()
			if err := dec.Decode(&args); err != nil {
				return nil, fmt.Errorf("%w: %v", ErrBadArguments, err)
			}
		}
		return fn(s, caller, args)
	}
}

// Argument shapes for calls that take more than a params struct.
type (
	PurchaseArgs struct {
		PropertyID uint64 `json:"property_id"`
		Shares     uint64 `json:"shares"`
	}
	TransferOwnershipArgs struct {
		PropertyID uint64 `json:"property_id"`
		NewOwner   string `json:"new_owner"`
	}
	DistributeArgs struct {
		PropertyID     uint64 `json:"property_id"`
		TotalAmount    uint64 `json:"total_amount"`
		DistributionID uint64 `json:"distribution_id"`
	}
	ClaimArgs struct {
		PropertyID     uint64 `json:"property_id"`
		DistributionID uint64 `json:"distribution_id"`
	}
	OrderIDArgs struct {
		OrderID uint64 `json:"order_id"`
	}
	TradeArgs struct {
		BuyOrderID  uint64 `json:"buy_order_id"`
		SellOrderID uint64 `json:"sell_order_id"`
		Shares      uint64 `json:"shares"`
	}
	ProposalIDArgs struct {
		ProposalID uint64 `json:"proposal_id"`
	}
	VoteArgs struct {
		ProposalID uint64 `json:"proposal_id"`
		InFavor    bool   `json:"in_favor"`
	}
	VotingPowerArgs struct {
		Address string `json:"address"`
		Power   uint64 `json:"power"`
	}
	DepositArgs struct {
		Address string `json:"address"`
		Amount  uint64 `json:"amount"`
	}
	WithdrawArgs struct {
		Amount uint64 `json:"amount"`
	}
	TransferArgs struct {
		To     string `json:"to"`
		Amount uint64 `json:"amount"`
	}
	RoleArgs struct {
		Address string     `json:"address"`
		Role    model.Role `json:"role"`
	}
	noArgs struct{}
)

// Operation names accepted by Execute and the mempool.
const (
	OpExpireOrders = "expire_orders"
)

var handlers = map[string]handler{
	"create_property": typed(func(s *ledger.Service, caller string, p ledger.PropertyParams) (any, error) {
		id, err := s.CreateProperty(caller, p)
		return map[string]uint64{"property_id": id}, err
	}),
	"purchase_shares": typed(func(s *ledger.Service, caller string, a PurchaseArgs) (any, error) {
		shares, err := s.PurchaseShares(caller, a.PropertyID, a.Shares)
		return map[string]uint64{"shares": shares}, err
	}),
	"transfer_ownership": typed(func(s *ledger.Service, caller string, a TransferOwnershipArgs) (any, error) {
		return nil, s.TransferOwnership(caller, a.PropertyID, a.NewOwner)
	}),
	"distribute_revenue": typed(func(s *ledger.Service, caller string, a DistributeArgs) (any, error) {
		id, err := s.DistributeRevenue(caller, a.PropertyID, a.TotalAmount, a.DistributionID)
		return map[string]uint64{"distribution_id": id}, err
	}),
	"claim_revenue": typed(func(s *ledger.Service, caller string, a ClaimArgs) (any, error) {
		amount, err := s.ClaimRevenue(caller, a.PropertyID, a.DistributionID)
		return map[string]uint64{"amount": amount}, err
	}),
	"create_buy_order": typed(func(s *ledger.Service, caller string, p ledger.OrderParams) (any, error) {
		id, err := s.CreateBuyOrder(caller, p)
		return map[string]uint64{"order_id": id}, err
	}),
	"create_sell_order": typed(func(s *ledger.Service, caller string, p ledger.OrderParams) (any, error) {
		id, err := s.CreateSellOrder(caller, p)
		return map[string]uint64{"order_id": id}, err
	}),
	"cancel_order": typed(func(s *ledger.Service, caller string, a OrderIDArgs) (any, error) {
		return nil, s.CancelOrder(caller, a.OrderID)
	}),
	"execute_trade": typed(func(s *ledger.Service, caller string, a TradeArgs) (any, error) {
		id, err := s.ExecuteTrade(caller, a.BuyOrderID, a.SellOrderID, a.Shares)
		return map[string]uint64{"trade_id": id}, err
	}),
	OpExpireOrders: typed(func(s *ledger.Service, caller string, _ noArgs) (any, error) {
		n, err := s.ExpireOrders(caller)
		return map[string]int64{"expired": n}, err
	}),
	"create_proposal": typed(func(s *ledger.Service, caller string, p ledger.ProposalParams) (any, error) {
		id, err := s.CreateProposal(caller, p)
		return map[string]uint64{"proposal_id": id}, err
	}),
	"vote": typed(func(s *ledger.Service, caller string, a VoteArgs) (any, error) {
		return nil, s.Vote(caller, a.ProposalID, a.InFavor)
	}),
	"finalize_proposal": typed(func(s *ledger.Service, caller string, a ProposalIDArgs) (any, error) {
		status, err := s.FinalizeProposal(caller, a.ProposalID)
		return map[string]model.ProposalStatus{"status": status}, err
	}),
	"execute_proposal": typed(func(s *ledger.Service, caller string, a ProposalIDArgs) (any, error) {
		status, err := s.ExecuteProposal(caller, a.ProposalID)
		return map[string]model.ProposalStatus{"status": status}, err
	}),
	"update_voting_power": typed(func(s *ledger.Service, caller string, a VotingPowerArgs) (any, error) {
		return nil, s.UpdateVotingPower(caller, a.Address, a.Power)
	}),
	"deposit": typed(func(s *ledger.Service, caller string, a DepositArgs) (any, error) {
		return nil, s.Deposit(caller, a.Address, a.Amount)
	}),
	"withdraw": typed(func(s *ledger.Service, caller string, a WithdrawArgs) (any, error) {
		return nil, s.Withdraw(caller, a.Amount)
	}),
	"transfer": typed(func(s *ledger.Service, caller string, a TransferArgs) (any, error) {
		return nil, s.Transfer(caller, a.To, a.Amount)
	}),
	"grant_role": typed(func(s *ledger.Service, caller string, a RoleArgs) (any, error) {
		return nil, s.GrantRole(caller, a.Address, a.Role)
	}),
	"revoke_role": typed(func(s *ledger.Service, caller string, a RoleArgs) (any, error) {
		return nil, s.RevokeRole(caller, a.Address, a.Role)
	}),
}

// Operations lists the call names Execute accepts, sorted.
func Operations() []string {
	names := make([]string, 0, len(handlers))
	for name := range handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NewCall builds a call with encoded arguments, stamped by the app's
// id generator and clock.
func (a *App) NewCall(caller, operation string, args any) (ledger.Call, error) {
	raw, err := json.Marshal(args)
	if err != nil {
		return ledger.Call{}, fmt.Errorf("encoding %s arguments: %w", operation, err)
	}
	return ledger.Call{
		ID:          a.ids.New(),
		Caller:      caller,
		Operation:   operation,
		Args:        raw,
		SubmittedAt: a.clock.Now(),
	}, nil
}

// Execute applies a call immediately and journals it. A rejected call
// returns both its receipt and the ledger error. A call id runs at most
// once; replaying one returns ErrAlreadyExecuted.
func (a *App) Execute(call ledger.Call) (*Receipt, error) {
	h, ok := handlers[call.Operation]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownOperation, call.Operation)
	}
	if call.Caller == "" {
		return nil, fmt.Errorf("%s: %w", call.Operation, ErrMissingCaller)
	}

	a.execMu.Lock()
	defer a.execMu.Unlock()
	if call.ID != "" {
		prior, err := a.db.OperationByCallID(call.ID)
		if err != nil {
			return nil, err
		}
		if prior != nil {
			return nil, fmt.Errorf("%w: %s is journal entry %d", ErrAlreadyExecuted, call.ID, prior.ID)
		}
	}
	r, err := a.journal(call, func() (any, error) {
		return h(a.service, call.Caller, call.Args)
	})
	if r != nil {
		a.logger.Info("call executed", "operation", call.Operation, "caller", call.Caller,
			"status", r.Status, "journal", r.OperationID)
	}
	return r, err
}

// Run builds a call and executes it.
func (a *App) Run(caller, operation string, args any) (*Receipt, error) {
	call, err := a.NewCall(caller, operation, args)
	if err != nil {
		return nil, err
	}
	return a.Execute(call)
}

// Submit queues a call for the next block. Unknown operations are refused
// up front; argument errors surface when the block is mined.
func (a *App) Submit(caller, operation string, args any) (ledger.Call, error) {
	if _, ok := handlers[operation]; !ok {
		return ledger.Call{}, fmt.Errorf("%w: %q", ErrUnknownOperation, operation)
	}
	call, err := a.NewCall(caller, operation, args)
	if err != nil {
		return ledger.Call{}, err
	}
	if err := a.mempool.Submit(call); err != nil {
		return ledger.Call{}, fmt.Errorf("submitting %s: %w", operation, err)
	}
	a.logger.Info("call submitted", "id", call.ID, "operation", operation, "caller", caller)
	return call, nil
}

// Pending returns the calls waiting for the next block.
func (a *App) Pending() ([]ledger.Call, error) {
	return a.mempool.Pending()
}
