package model

import "time"

// Property is a tokenized real-world asset divided into a fixed number of shares.
type Property struct {
	ID              uint64 `db:"id" json:"id"`
	Name            string `db:"name" json:"name"`
	Description     string `db:"description" json:"description"`
	Location        string `db:"location" json:"location"`
	TotalValue      uint64 `db:"total_value" json:"total_value"`
	TotalShares     uint64 `db:"total_shares" json:"total_shares"`
	PricePerShare   uint64 `db:"price_per_share" json:"price_per_share"`
	RentalYield     uint64 `db:"rental_yield" json:"rental_yield"` // basis points
	MetadataURI     string `db:"metadata_uri" json:"metadata_uri"`
	Owner           string `db:"owner" json:"owner"`
	AvailableShares uint64 `db:"available_shares" json:"available_shares"`
	CreatedAt       uint64 `db:"created_at" json:"created_at"` // block height
}

// HeldShares returns the number of shares sold to holders.
func (p *Property) HeldShares() uint64 {
	return p.TotalShares - p.AvailableShares
}

// ShareHolding is one holder's balance in one property.
type ShareHolding struct {
	PropertyID uint64 `db:"property_id" json:"property_id"`
	Holder     string `db:"holder" json:"holder"`
	Shares     uint64 `db:"shares" json:"shares"`
}

// Distribution is a revenue snapshot announced for a property.
type Distribution struct {
	PropertyID          uint64 `db:"property_id" json:"property_id"`
	ID                  uint64 `db:"id" json:"id"`
	TotalAmount         uint64 `db:"total_amount" json:"total_amount"`
	SnapshotTotalShares uint64 `db:"snapshot_total_shares" json:"snapshot_total_shares"`
	HeldShares          uint64 `db:"held_shares" json:"held_shares"`
	ClaimedAmount       uint64 `db:"claimed_amount" json:"claimed_amount"`
	Distributor         string `db:"distributor" json:"distributor"`
	CreatedAt           uint64 `db:"created_at" json:"created_at"`
}

// Remaining returns the part of the distribution not yet claimed.
func (d *Distribution) Remaining() uint64 {
	return d.TotalAmount - d.ClaimedAmount
}

// Claim records a holder's payout from a distribution.
type Claim struct {
	PropertyID     uint64 `db:"property_id" json:"property_id"`
	DistributionID uint64 `db:"distribution_id" json:"distribution_id"`
	Holder         string `db:"holder" json:"holder"`
	Amount         uint64 `db:"amount" json:"amount"`
	ClaimedAt      uint64 `db:"claimed_at" json:"claimed_at"`
}

// Operation is one journaled mutating call.
type Operation struct {
	ID         int64      `db:"id" json:"id"`
	CallID     string     `db:"call_id" json:"call_id,omitempty"`
	Operation  string     `db:"operation" json:"operation"`
	Caller     string     `db:"caller" json:"caller"`
	Parameters string     `db:"parameters" json:"parameters"`
	Status     string     `db:"status" json:"status"`
	Result     string     `db:"result" json:"result"`
	Block      uint64     `db:"block" json:"block"`
	StartedAt  time.Time  `db:"started_at" json:"started_at"`
	FinishedAt *time.Time `db:"finished_at" json:"finished_at,omitempty"`
}

// Role is a capability granted to an address.
type Role string

const (
	RoleAdmin           Role = "admin"
	RolePropertyCreator Role = "property_creator"
	RoleOperator        Role = "operator"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RolePropertyCreator, RoleOperator:
		return true
	}
	return false
}
