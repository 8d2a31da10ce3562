package ledger

import (
	"fmt"
	"strconv"
	"sync"

	"realvora-go/internal/model"
)

// Effect is what a passed proposal of one type does to the ledger.
type Effect interface {
	// Check validates proposal arguments at creation time.
	Check(tx Tx, params ProposalParams) error
	// Apply runs inside the executing transaction.
	Apply(tx Tx, p *model.Proposal, height uint64) error
}

// EffectRegistry maps proposal types to effects.
type EffectRegistry struct {
	mu      sync.RWMutex
	effects map[model.ProposalType]Effect
}

func NewEffectRegistry() *EffectRegistry {
	return &EffectRegistry{effects: make(map[model.ProposalType]Effect)}
}

// Register adds or replaces the effect for a proposal type.
func (r *EffectRegistry) Register(t model.ProposalType, e Effect) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.effects[t] = e
}

func (r *EffectRegistry) Lookup(t model.ProposalType) (Effect, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.effects[t]
	return e, ok
}

func defaultEffects(s *Service) *EffectRegistry {
	r := NewEffectRegistry()
	r.Register(model.ProposalPropertySale, propertySale{})
	r.Register(model.ProposalTreasuryRelease, treasuryRelease{treasury: s.settings.Treasury})
	r.Register(model.ProposalFeeChange, feeChange{maxBps: s.settings.MaxFeeBps})
	r.Register(model.ProposalProtocolUpgrade, signal{})
	return r
}

// propertySale hands the property to the target address. A non-zero amount
// is the sale price, paid by the target to the outgoing owner. The target
// may be left open at creation and must be set by execution time.
type propertySale struct{}

func (propertySale) Check(_ Tx, params ProposalParams) error {
	if !params.PropertyID.IsSome() {
		return reject(ErrInvalidProposal, "property sale needs a property")
	}
	return nil
}

func (propertySale) Apply(tx Tx, p *model.Proposal, _ uint64) error {
	id, ok := p.PropertyID.Get()
	if !ok {
		return reject(ErrInvalidProposal, "proposal %d lacks a property", p.ID)
	}
	buyer, ok := p.Target.Get()
	if !ok || buyer == "" {
		return reject(ErrInvalidProposal, "proposal %d has no buyer", p.ID)
	}
	prop, err := getProperty(tx, id)
	if err != nil {
		return err
	}
	if price := p.Amount.OrElse(0); price > 0 {
		if err := moveFunds(tx, buyer, prop.Owner, price); err != nil {
			return fmt.Errorf("paying sale price: %w", err)
		}
	}
	return setOwner(tx, id, buyer)
}

// treasuryRelease pays amount from the treasury account to the target.
type treasuryRelease struct {
	treasury string
}

func (e treasuryRelease) Check(_ Tx, params ProposalParams) error {
	if e.treasury == "" {
		return reject(ErrInvalidProposal, "no treasury configured")
	}
	amount, ok := params.Amount.Get()
	if !ok || amount == 0 || !params.Target.IsSome() {
		return reject(ErrInvalidProposal, "treasury release needs a positive amount and a target")
	}
	return nil
}

func (e treasuryRelease) Apply(tx Tx, p *model.Proposal, _ uint64) error {
	amount, ok := p.Amount.Get()
	target, ok2 := p.Target.Get()
	if !ok || !ok2 {
		return reject(ErrInvalidProposal, "proposal %d lacks amount or target", p.ID)
	}
	return moveFunds(tx, e.treasury, target, amount)
}

// feeChange sets the marketplace trading fee in basis points.
type feeChange struct {
	maxBps uint64
}

func (e feeChange) Check(_ Tx, params ProposalParams) error {
	bps, ok := params.Amount.Get()
	if !ok {
		return reject(ErrInvalidProposal, "fee change needs an amount in basis points")
	}
	if bps > e.maxBps {
		return reject(ErrInvalidProposal, "fee %d bps exceeds %d", bps, e.maxBps)
	}
	return nil
}

func (e feeChange) Apply(tx Tx, p *model.Proposal, _ uint64) error {
	bps, ok := p.Amount.Get()
	if !ok || bps > e.maxBps {
		return reject(ErrInvalidProposal, "proposal %d fee out of range", p.ID)
	}
	if err := tx.SetParam(paramTradingFee, strconv.FormatUint(bps, 10)); err != nil {
		return fmt.Errorf("setting trading fee: %w", err)
	}
	return nil
}

// signal records the outcome only.
type signal struct{}

func (signal) Check(Tx, ProposalParams) error           { return nil }
func (signal) Apply(Tx, *model.Proposal, uint64) error { return nil }
