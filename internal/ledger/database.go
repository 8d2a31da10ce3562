package ledger

import "realvora-go/internal/model"

// Database is the persistent store behind the ledger.
// Every ledger operation runs inside exactly one Atomic call: when fn
// returns an error nothing it wrote is kept.
type Database interface {
	Atomic(fn func(tx Tx) error) error
	View(fn func(tx Tx) error) error

	// Operation journal. A call id is journaled at most once.
	RecordOperation(op *model.Operation) error
	FinishOperation(id int64, status, result string) error
	OperationByCallID(callID string) (*model.Operation, error)
	ListOperations(limit int) ([]*model.Operation, error)
	LastOperationID() (int64, error)

	Close() error
}

// Tx exposes the ledger tables inside a transaction.
// Lookups of a single row return nil, nil when the row does not exist.
type Tx interface {
	// Properties and holdings.
	InsertProperty(p *model.Property) (uint64, error)
	GetProperty(id uint64) (*model.Property, error)
	ListProperties() ([]*model.Property, error)
	UpdateAvailableShares(id, available uint64) error
	UpdatePropertyOwner(id uint64, owner string) error
	GetShares(propertyID uint64, holder string) (uint64, error)
	SetShares(propertyID uint64, holder string, shares uint64) error
	ListHoldings(propertyID uint64) ([]*model.ShareHolding, error)
	SumHoldings(propertyID uint64) (uint64, error)
	HolderShares(holder string) (uint64, error)
	TotalHeldShares() (uint64, error)

	// Funds.
	GetBalance(address string) (uint64, error)
	SetBalance(address string, amount uint64) error
	SumBalances() (uint64, error)

	// Revenue.
	InsertDistribution(d *model.Distribution) error
	GetDistribution(propertyID, id uint64) (*model.Distribution, error)
	UpdateDistributionClaimed(propertyID, id, claimed uint64) error
	GetClaim(propertyID, distributionID uint64, holder string) (*model.Claim, error)
	InsertClaim(c *model.Claim) error

	// Marketplace.
	InsertOrder(o *model.Order) (uint64, error)
	GetOrder(id uint64) (*model.Order, error)
	UpdateOrderFill(id, remaining uint64, status model.OrderStatus) error
	UpdateOrderStatus(id uint64, status model.OrderStatus) error
	CountLiveOrders(creator string, height uint64) (int, error)
	ListLiveOrders(propertyID, height uint64) ([]*model.Order, error)
	ExpireOrders(height uint64) (int64, error)
	InsertTrade(t *model.Trade) (uint64, error)
	GetTrade(id uint64) (*model.Trade, error)
	ListTrades(propertyID uint64) ([]*model.Trade, error)

	// Governance.
	InsertProposal(p *model.Proposal) (uint64, error)
	GetProposal(id uint64) (*model.Proposal, error)
	UpdateProposalTally(id, votesFor, votesAgainst uint64) error
	UpdateProposalStatus(id uint64, status model.ProposalStatus, executedAt model.Option[uint64]) error
	GetVote(proposalID uint64, voter string) (*model.Vote, error)
	InsertVote(v *model.Vote) error
	GetVotingPower(address string) (uint64, error)
	SetVotingPower(address string, power uint64) error
	SumVotingPower() (uint64, error)

	// Access control and parameters.
	HasRole(address string, role model.Role) (bool, error)
	GrantRole(address string, role model.Role, height uint64) error
	RevokeRole(address string, role model.Role) error
	ListRoles(address string) ([]model.Role, error)
	GetParam(key string) (string, bool, error)
	SetParam(key, value string) error

	// RecordOperation journals op in the same transaction as the ledger
	// change it describes and sets op.ID.
	RecordOperation(op *model.Operation) error
}
