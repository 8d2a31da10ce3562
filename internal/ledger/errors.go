package ledger

import (
	"errors"
	"fmt"
)

// Kind classifies a ledger error.
type Kind string

const (
	KindNotFound             Kind = "NotFound"
	KindUnauthorized         Kind = "Unauthorized"
	KindInvalidState         Kind = "InvalidState"
	KindQuantityViolation    Kind = "QuantityViolation"
	KindInsufficientResource Kind = "InsufficientResource"
	KindExpired              Kind = "Expired"
	KindDuplicateOperation   Kind = "DuplicateOperation"
)

// Error is a rejected operation. Nothing was written when one is returned.
type Error struct {
	Kind   Kind
	Code   uint32
	Reason string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s (u%d)", e.Kind, e.Reason, e.Code)
}

// Is matches another *Error by code, or by kind when target carries no code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Code == 0 {
		return t.Kind == e.Kind
	}
	return t.Code == e.Code
}

func newError(kind Kind, code uint32, reason string) *Error {
	return &Error{Kind: kind, Code: code, Reason: reason}
}

// Kind sentinels, for errors.Is(err, ledger.ErrNotFound) style checks.
var (
	ErrNotFound             = &Error{Kind: KindNotFound}
	ErrUnauthorizedKind     = &Error{Kind: KindUnauthorized}
	ErrInvalidState         = &Error{Kind: KindInvalidState}
	ErrQuantityViolation    = &Error{Kind: KindQuantityViolation}
	ErrInsufficientResource = &Error{Kind: KindInsufficientResource}
	ErrExpired              = &Error{Kind: KindExpired}
	ErrDuplicateOperation   = &Error{Kind: KindDuplicateOperation}
)

// Shares ledger and revenue.
var (
	ErrUnauthorized           = newError(KindUnauthorized, 100, "caller is not authorized")
	ErrPropertyNotFound       = newError(KindNotFound, 101, "property not found")
	ErrInvalidQuantity        = newError(KindQuantityViolation, 102, "quantity must be positive")
	ErrInsufficientFunds      = newError(KindInsufficientResource, 103, "insufficient funds")
	ErrAlreadyClaimed         = newError(KindInvalidState, 104, "revenue already claimed")
	ErrDistributionNotFound   = newError(KindNotFound, 105, "distribution not found")
	ErrExceedsAvailableSupply = newError(KindQuantityViolation, 106, "exceeds available supply")
	ErrNoShares               = newError(KindInsufficientResource, 107, "caller holds no shares")
	ErrDuplicateDistribution  = newError(KindDuplicateOperation, 108, "distribution id already used")
	ErrInsufficientShares     = newError(KindInsufficientResource, 109, "insufficient shares")
	ErrDistributionExhausted  = newError(KindQuantityViolation, 110, "distribution exhausted")
	ErrInvalidParams          = newError(KindQuantityViolation, 111, "invalid parameters")
	ErrAmountOverflow         = newError(KindQuantityViolation, 112, "amount overflows ledger range")
)

// Governance.
var (
	ErrProposalNotFound    = newError(KindNotFound, 201, "proposal not found")
	ErrProposalNotActive   = newError(KindInvalidState, 202, "proposal is not active")
	ErrProposalExpired     = newError(KindExpired, 203, "voting period has ended")
	ErrNotExpired          = newError(KindInvalidState, 204, "voting period has not ended")
	ErrNoVotingPower       = newError(KindInsufficientResource, 205, "caller has no voting power")
	ErrAlreadyVoted        = newError(KindInvalidState, 206, "caller already voted")
	ErrAlreadyFinalized    = newError(KindInvalidState, 207, "proposal already finalized")
	ErrUnknownProposalType = newError(KindQuantityViolation, 208, "unknown proposal type")
	ErrInvalidProposal     = newError(KindQuantityViolation, 209, "invalid proposal arguments")
)

// Marketplace.
var (
	ErrOrderNotFound         = newError(KindNotFound, 301, "order not found")
	ErrOrderNotOpen          = newError(KindInvalidState, 302, "order is not open")
	ErrOrderExpired          = newError(KindExpired, 303, "order expired")
	ErrExceedsOrderRemainder = newError(KindQuantityViolation, 306, "exceeds order remainder")
	ErrPriceMismatch         = newError(KindQuantityViolation, 307, "buy price below sell price")
	ErrOrderTypeMismatch     = newError(KindInvalidState, 308, "order sides do not match")
	ErrPropertyMismatch      = newError(KindInvalidState, 309, "orders are for different properties")
	ErrSelfTrade             = newError(KindInvalidState, 310, "buyer and seller are the same")
	ErrTooManyOrders         = newError(KindQuantityViolation, 311, "too many open orders")
)

// Access control.
var (
	ErrUnknownRole = newError(KindQuantityViolation, 501, "unknown role")
)

// IsKind reports whether err is a ledger error of the given kind.
func IsKind(err error, kind Kind) bool {
	var le *Error
	if !errors.As(err, &le) {
		return false
	}
	return le.Kind == kind
}

// AsError returns the ledger error in err's chain, if any.
func AsError(err error) (*Error, bool) {
	var le *Error
	ok := errors.As(err, &le)
	return le, ok
}

func reject(sentinel *Error, format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), sentinel)
}
