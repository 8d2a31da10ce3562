package database

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"realvora-go/internal/ledger"
	"realvora-go/internal/model"
)

// sqliteTx implements ledger.Tx over one SQLite transaction.
type sqliteTx struct {
	tx *sqlx.Tx
}

var _ ledger.Tx = (*sqliteTx)(nil)

// getOne scans a single row into dest, returning false when there is none.
func (t *sqliteTx) getOne(dest any, query string, args ...any) (bool, error) {
	err := t.tx.Get(dest, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (t *sqliteTx) sum(query string, args ...any) (uint64, error) {
	var n uint64
	if err := t.tx.Get(&n, query, args...); err != nil {
		return 0, err
	}
	return n, nil
}

func (t *sqliteTx) insertID(query string, arg any) (uint64, error) {
	res, err := t.tx.NamedExec(query, arg)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading inserted id: %w", err)
	}
	return uint64(id), nil
}

// Properties and holdings

const propertyColumns = `id, name, description, location, total_value, total_shares, price_per_share,
	rental_yield, metadata_uri, owner, available_shares, created_at`

func (t *sqliteTx) InsertProperty(p *model.Property) (uint64, error) {
	id, err := t.insertID(`INSERT INTO properties
		(name, description, location, total_value, total_shares, price_per_share,
		 rental_yield, metadata_uri, owner, available_shares, created_at)
		VALUES (:name, :description, :location, :total_value, :total_shares, :price_per_share,
		 :rental_yield, :metadata_uri, :owner, :available_shares, :created_at)`, p)
	if err != nil {
		return 0, fmt.Errorf("inserting property: %w", err)
	}
	p.ID = id
	return id, nil
}

func (t *sqliteTx) GetProperty(id uint64) (*model.Property, error) {
	var p model.Property
	ok, err := t.getOne(&p, "SELECT "+propertyColumns+" FROM properties WHERE id = ?", id)
	if err != nil || !ok {
		return nil, err
	}
	return &p, nil
}

func (t *sqliteTx) ListProperties() ([]*model.Property, error) {
	var props []*model.Property
	if err := t.tx.Select(&props, "SELECT "+propertyColumns+" FROM properties ORDER BY id"); err != nil {
		return nil, fmt.Errorf("listing properties: %w", err)
	}
	return props, nil
}

func (t *sqliteTx) UpdateAvailableShares(id, available uint64) error {
	_, err := t.tx.Exec("UPDATE properties SET available_shares = ? WHERE id = ?", available, id)
	return err
}

func (t *sqliteTx) UpdatePropertyOwner(id uint64, owner string) error {
	_, err := t.tx.Exec("UPDATE properties SET owner = ? WHERE id = ?", owner, id)
	return err
}

func (t *sqliteTx) GetShares(propertyID uint64, holder string) (uint64, error) {
	return t.sum("SELECT COALESCE(SUM(shares), 0) FROM share_holdings WHERE property_id = ? AND holder = ?", propertyID, holder)
}

func (t *sqliteTx) SetShares(propertyID uint64, holder string, shares uint64) error {
	_, err := t.tx.Exec(`INSERT INTO share_holdings (property_id, holder, shares) VALUES (?, ?, ?)
		ON CONFLICT (property_id, holder) DO UPDATE SET shares = excluded.shares`, propertyID, holder, shares)
	return err
}

func (t *sqliteTx) ListHoldings(propertyID uint64) ([]*model.ShareHolding, error) {
	var hs []*model.ShareHolding
	err := t.tx.Select(&hs, `SELECT property_id, holder, shares FROM share_holdings
		WHERE property_id = ? ORDER BY shares DESC, holder`, propertyID)
	if err != nil {
		return nil, fmt.Errorf("listing holdings: %w", err)
	}
	return hs, nil
}

func (t *sqliteTx) SumHoldings(propertyID uint64) (uint64, error) {
	return t.sum("SELECT COALESCE(SUM(shares), 0) FROM share_holdings WHERE property_id = ?", propertyID)
}

func (t *sqliteTx) HolderShares(holder string) (uint64, error) {
	return t.sum("SELECT COALESCE(SUM(shares), 0) FROM share_holdings WHERE holder = ?", holder)
}

func (t *sqliteTx) TotalHeldShares() (uint64, error) {
	return t.sum("SELECT COALESCE(SUM(shares), 0) FROM share_holdings")
}

// Funds

func (t *sqliteTx) GetBalance(address string) (uint64, error) {
	return t.sum("SELECT COALESCE(SUM(amount), 0) FROM balances WHERE address = ?", address)
}

func (t *sqliteTx) SetBalance(address string, amount uint64) error {
	_, err := t.tx.Exec(`INSERT INTO balances (address, amount) VALUES (?, ?)
		ON CONFLICT (address) DO UPDATE SET amount = excluded.amount`, address, amount)
	return err
}

func (t *sqliteTx) SumBalances() (uint64, error) {
	return t.sum("SELECT COALESCE(SUM(amount), 0) FROM balances")
}

// Revenue

func (t *sqliteTx) InsertDistribution(d *model.Distribution) error {
	_, err := t.tx.NamedExec(`INSERT INTO distributions
		(property_id, id, total_amount, snapshot_total_shares, held_shares, claimed_amount, distributor, created_at)
		VALUES (:property_id, :id, :total_amount, :snapshot_total_shares, :held_shares, :claimed_amount, :distributor, :created_at)`, d)
	if err != nil {
		return fmt.Errorf("inserting distribution: %w", err)
	}
	return nil
}

func (t *sqliteTx) GetDistribution(propertyID, id uint64) (*model.Distribution, error) {
	var d model.Distribution
	ok, err := t.getOne(&d, `SELECT property_id, id, total_amount, snapshot_total_shares, held_shares,
		claimed_amount, distributor, created_at
		FROM distributions WHERE property_id = ? AND id = ?`, propertyID, id)
	if err != nil || !ok {
		return nil, err
	}
	return &d, nil
}

func (t *sqliteTx) UpdateDistributionClaimed(propertyID, id, claimed uint64) error {
	_, err := t.tx.Exec("UPDATE distributions SET claimed_amount = ? WHERE property_id = ? AND id = ?", claimed, propertyID, id)
	return err
}

func (t *sqliteTx) GetClaim(propertyID, distributionID uint64, holder string) (*model.Claim, error) {
	var c model.Claim
	ok, err := t.getOne(&c, `SELECT property_id, distribution_id, holder, amount, claimed_at
		FROM claims WHERE property_id = ? AND distribution_id = ? AND holder = ?`, propertyID, distributionID, holder)
	if err != nil || !ok {
		return nil, err
	}
	return &c, nil
}

func (t *sqliteTx) InsertClaim(c *model.Claim) error {
	_, err := t.tx.NamedExec(`INSERT INTO claims (property_id, distribution_id, holder, amount, claimed_at)
		VALUES (:property_id, :distribution_id, :holder, :amount, :claimed_at)`, c)
	return err
}

// Marketplace

const orderColumns = `id, property_id, creator, order_type, shares, remaining, price_per_share,
	status, created_at, expires_at`

func (t *sqliteTx) InsertOrder(o *model.Order) (uint64, error) {
	id, err := t.insertID(`INSERT INTO orders
		(property_id, creator, order_type, shares, remaining, price_per_share, status, created_at, expires_at)
		VALUES (:property_id, :creator, :order_type, :shares, :remaining, :price_per_share, :status, :created_at, :expires_at)`, o)
	if err != nil {
		return 0, fmt.Errorf("inserting order: %w", err)
	}
	o.ID = id
	return id, nil
}

func (t *sqliteTx) GetOrder(id uint64) (*model.Order, error) {
	var o model.Order
	ok, err := t.getOne(&o, "SELECT "+orderColumns+" FROM orders WHERE id = ?", id)
	if err != nil || !ok {
		return nil, err
	}
	return &o, nil
}

func (t *sqliteTx) UpdateOrderFill(id, remaining uint64, status model.OrderStatus) error {
	_, err := t.tx.Exec("UPDATE orders SET remaining = ?, status = ? WHERE id = ?", remaining, status, id)
	return err
}

func (t *sqliteTx) UpdateOrderStatus(id uint64, status model.OrderStatus) error {
	_, err := t.tx.Exec("UPDATE orders SET status = ? WHERE id = ?", status, id)
	return err
}

func (t *sqliteTx) CountLiveOrders(creator string, height uint64) (int, error) {
	var n int
	err := t.tx.Get(&n, `SELECT COUNT(*) FROM orders
		WHERE creator = ? AND status IN ('open', 'partially_filled') AND expires_at >= ?`, creator, height)
	return n, err
}

func (t *sqliteTx) ListLiveOrders(propertyID, height uint64) ([]*model.Order, error) {
	var orders []*model.Order
	err := t.tx.Select(&orders, "SELECT "+orderColumns+` FROM orders
		WHERE property_id = ? AND status IN ('open', 'partially_filled') AND expires_at >= ?
		ORDER BY id`, propertyID, height)
	if err != nil {
		return nil, fmt.Errorf("listing orders: %w", err)
	}
	return orders, nil
}

func (t *sqliteTx) ExpireOrders(height uint64) (int64, error) {
	res, err := t.tx.Exec(`UPDATE orders SET status = 'expired'
		WHERE status IN ('open', 'partially_filled') AND expires_at < ?`, height)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const tradeColumns = `id, buy_order_id, sell_order_id, property_id, shares, price_per_share, fee,
	buyer, seller, executed_at`

func (t *sqliteTx) InsertTrade(tr *model.Trade) (uint64, error) {
	id, err := t.insertID(`INSERT INTO trades
		(buy_order_id, sell_order_id, property_id, shares, price_per_share, fee, buyer, seller, executed_at)
		VALUES (:buy_order_id, :sell_order_id, :property_id, :shares, :price_per_share, :fee, :buyer, :seller, :executed_at)`, tr)
	if err != nil {
		return 0, fmt.Errorf("inserting trade: %w", err)
	}
	tr.ID = id
	return id, nil
}

func (t *sqliteTx) GetTrade(id uint64) (*model.Trade, error) {
	var tr model.Trade
	ok, err := t.getOne(&tr, "SELECT "+tradeColumns+" FROM trades WHERE id = ?", id)
	if err != nil || !ok {
		return nil, err
	}
	return &tr, nil
}

func (t *sqliteTx) ListTrades(propertyID uint64) ([]*model.Trade, error) {
	var trades []*model.Trade
	err := t.tx.Select(&trades, "SELECT "+tradeColumns+" FROM trades WHERE property_id = ? ORDER BY id", propertyID)
	if err != nil {
		return nil, fmt.Errorf("listing trades: %w", err)
	}
	return trades, nil
}

// Governance

// proposalRow mirrors the proposals table; optional columns are nullable.
type proposalRow struct {
	ID           uint64         `db:"id"`
	PropertyID   sql.NullInt64  `db:"property_id"`
	Type         uint8          `db:"proposal_type"`
	Title        string         `db:"title"`
	Description  string         `db:"description"`
	Amount       sql.NullInt64  `db:"amount"`
	Target       sql.NullString `db:"target"`
	Creator      string         `db:"creator"`
	VotesFor     uint64         `db:"votes_for"`
	VotesAgainst uint64         `db:"votes_against"`
	Status       string         `db:"status"`
	CreatedAt    uint64         `db:"created_at"`
	ExpiresAt    uint64         `db:"expires_at"`
	ExecutedAt   sql.NullInt64  `db:"executed_at"`
}

func nullUint(o model.Option[uint64]) sql.NullInt64 {
	v, ok := o.Get()
	return sql.NullInt64{Int64: int64(v), Valid: ok}
}

func optUint(n sql.NullInt64) model.Option[uint64] {
	if !n.Valid {
		return model.None[uint64]()
	}
	return model.Some(uint64(n.Int64))
}

func toProposalRow(p *model.Proposal) proposalRow {
	target, ok := p.Target.Get()
	return proposalRow{
		ID:           p.ID,
		PropertyID:   nullUint(p.PropertyID),
		Type:         uint8(p.Type),
		Title:        p.Title,
		Description:  p.Description,
		Amount:       nullUint(p.Amount),
		Target:       sql.NullString{String: target, Valid: ok},
		Creator:      p.Creator,
		VotesFor:     p.VotesFor,
		VotesAgainst: p.VotesAgainst,
		Status:       string(p.Status),
		CreatedAt:    p.CreatedAt,
		ExpiresAt:    p.ExpiresAt,
		ExecutedAt:   nullUint(p.ExecutedAt),
	}
}

func (r *proposalRow) toModel() *model.Proposal {
	p := &model.Proposal{
		ID:           r.ID,
		PropertyID:   optUint(r.PropertyID),
		Type:         model.ProposalType(r.Type),
		Title:        r.Title,
		Description:  r.Description,
		Amount:       optUint(r.Amount),
		Creator:      r.Creator,
		VotesFor:     r.VotesFor,
		VotesAgainst: r.VotesAgainst,
		Status:       model.ProposalStatus(r.Status),
		CreatedAt:    r.CreatedAt,
		ExpiresAt:    r.ExpiresAt,
		ExecutedAt:   optUint(r.ExecutedAt),
	}
	if r.Target.Valid {
		p.Target = model.Some(r.Target.String)
	}
	return p
}

func (t *sqliteTx) InsertProposal(p *model.Proposal) (uint64, error) {
	id, err := t.insertID(`INSERT INTO proposals
		(property_id, proposal_type, title, description, amount, target, creator,
		 votes_for, votes_against, status, created_at, expires_at, executed_at)
		VALUES (:property_id, :proposal_type, :title, :description, :amount, :target, :creator,
		 :votes_for, :votes_against, :status, :created_at, :expires_at, :executed_at)`, toProposalRow(p))
	if err != nil {
		return 0, fmt.Errorf("inserting proposal: %w", err)
	}
	p.ID = id
	return id, nil
}

func (t *sqliteTx) GetProposal(id uint64) (*model.Proposal, error) {
	var r proposalRow
	ok, err := t.getOne(&r, `SELECT id, property_id, proposal_type, title, description, amount, target, creator,
		votes_for, votes_against, status, created_at, expires_at, executed_at
		FROM proposals WHERE id = ?`, id)
	if err != nil || !ok {
		return nil, err
	}
	return r.toModel(), nil
}

func (t *sqliteTx) UpdateProposalTally(id, votesFor, votesAgainst uint64) error {
	_, err := t.tx.Exec("UPDATE proposals SET votes_for = ?, votes_against = ? WHERE id = ?", votesFor, votesAgainst, id)
	return err
}

func (t *sqliteTx) UpdateProposalStatus(id uint64, status model.ProposalStatus, executedAt model.Option[uint64]) error {
	_, err := t.tx.Exec("UPDATE proposals SET status = ?, executed_at = ? WHERE id = ?", status, nullUint(executedAt), id)
	return err
}

func (t *sqliteTx) GetVote(proposalID uint64, voter string) (*model.Vote, error) {
	var v model.Vote
	ok, err := t.getOne(&v, `SELECT proposal_id, voter, in_favor, weight, cast_at
		FROM votes WHERE proposal_id = ? AND voter = ?`, proposalID, voter)
	if err != nil || !ok {
		return nil, err
	}
	return &v, nil
}

func (t *sqliteTx) InsertVote(v *model.Vote) error {
	_, err := t.tx.NamedExec(`INSERT INTO votes (proposal_id, voter, in_favor, weight, cast_at)
		VALUES (:proposal_id, :voter, :in_favor, :weight, :cast_at)`, v)
	return err
}

func (t *sqliteTx) GetVotingPower(address string) (uint64, error) {
	return t.sum("SELECT COALESCE(SUM(power), 0) FROM voting_power WHERE address = ?", address)
}

func (t *sqliteTx) SetVotingPower(address string, power uint64) error {
	_, err := t.tx.Exec(`INSERT INTO voting_power (address, power) VALUES (?, ?)
		ON CONFLICT (address) DO UPDATE SET power = excluded.power`, address, power)
	return err
}

func (t *sqliteTx) SumVotingPower() (uint64, error) {
	return t.sum("SELECT COALESCE(SUM(power), 0) FROM voting_power")
}

// Access control and parameters

func (t *sqliteTx) HasRole(address string, role model.Role) (bool, error) {
	var n int
	if err := t.tx.Get(&n, "SELECT COUNT(*) FROM roles WHERE address = ? AND role = ?", address, role); err != nil {
		return false, err
	}
	return n > 0, nil
}

func (t *sqliteTx) GrantRole(address string, role model.Role, height uint64) error {
	_, err := t.tx.Exec(`INSERT INTO roles (address, role, granted_at) VALUES (?, ?, ?)
		ON CONFLICT (address, role) DO NOTHING`, address, role, height)
	return err
}

func (t *sqliteTx) RevokeRole(address string, role model.Role) error {
	_, err := t.tx.Exec("DELETE FROM roles WHERE address = ? AND role = ?", address, role)
	return err
}

func (t *sqliteTx) ListRoles(address string) ([]model.Role, error) {
	var roles []model.Role
	if err := t.tx.Select(&roles, "SELECT role FROM roles WHERE address = ? ORDER BY role", address); err != nil {
		return nil, fmt.Errorf("listing roles: %w", err)
	}
	return roles, nil
}

func (t *sqliteTx) GetParam(key string) (string, bool, error) {
	var v string
	ok, err := t.getOne(&v, "SELECT value FROM params WHERE key = ?", key)
	return v, ok, err
}

func (t *sqliteTx) SetParam(key, value string) error {
	_, err := t.tx.Exec(`INSERT INTO params (key, value) VALUES (?, ?)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value`, key, value)
	return err
}

// Journal

func (t *sqliteTx) RecordOperation(op *model.Operation) error {
	id, err := t.insertID(insertOperation, op)
	if err != nil {
		return fmt.Errorf("recording operation: %w", err)
	}
	op.ID = int64(id)
	return nil
}
