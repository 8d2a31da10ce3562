package model

import "fmt"

// ProposalType selects the effect a passed proposal applies.
type ProposalType uint8

const (
	ProposalPropertySale    ProposalType = 1
	ProposalTreasuryRelease ProposalType = 2
	ProposalFeeChange       ProposalType = 3
	ProposalProtocolUpgrade ProposalType = 4
)

func (t ProposalType) String() string {
	switch t {
	case ProposalPropertySale:
		return "property-sale"
	case ProposalTreasuryRelease:
		return "treasury-release"
	case ProposalFeeChange:
		return "fee-change"
	case ProposalProtocolUpgrade:
		return "protocol-upgrade"
	}
	return fmt.Sprintf("type-%d", uint8(t))
}

// ParseProposalType accepts either the numeric code or the name.
func ParseProposalType(s string) (ProposalType, error) {
	for t := ProposalPropertySale; t <= ProposalProtocolUpgrade; t++ {
		if s == t.String() || s == fmt.Sprint(uint8(t)) {
			return t, nil
		}
	}
	return 0, fmt.Errorf("unknown proposal type %q", s)
}

type ProposalStatus string

const (
	ProposalActive   ProposalStatus = "active"
	ProposalPassed   ProposalStatus = "passed"
	ProposalRejected ProposalStatus = "rejected"
	ProposalExecuted ProposalStatus = "executed"
)

// Proposal is a governance motion with a weighted tally.
type Proposal struct {
	ID           uint64         `json:"id"`
	PropertyID   Option[uint64] `json:"property_id"`
	Type         ProposalType   `json:"proposal_type"`
	Title        string         `json:"title"`
	Description  string         `json:"description"`
	Amount       Option[uint64] `json:"amount"`
	Target       Option[string] `json:"target"`
	Creator      string         `json:"creator"`
	VotesFor     uint64         `json:"votes_for"`
	VotesAgainst uint64         `json:"votes_against"`
	Status       ProposalStatus `json:"status"`
	CreatedAt    uint64         `json:"created_at"`
	ExpiresAt    uint64         `json:"expires_at"`
	ExecutedAt   Option[uint64] `json:"executed_at"`
}

// Vote is one voter's weighted ballot on a proposal.
type Vote struct {
	ProposalID uint64 `db:"proposal_id" json:"proposal_id"`
	Voter      string `db:"voter" json:"voter"`
	InFavor    bool   `db:"in_favor" json:"in_favor"`
	Weight     uint64 `db:"weight" json:"weight"`
	CastAt     uint64 `db:"cast_at" json:"cast_at"`
}
