package testutil

import (
	"errors"
	"sync"
	"testing"

	"realvora-go/internal/database"
	"realvora-go/internal/ledger"
	"realvora-go/internal/model"
)

// NewTestDatabase creates an in-memory SQLite ledger store with the schema
// applied. It is closed when the test completes.
func NewTestDatabase(t *testing.T) *database.SQLiteDatabase {
	t.Helper()

	sqlDB, err := database.OpenConnection(":memory:")
	if err != nil {
		t.Fatalf("opening database: %v", err)
	}
	db := database.NewSQLiteDatabaseFromDB(sqlDB, ":memory:", FixedClock())
	t.Cleanup(func() { db.Close() })

	if err := db.Migrate(); err != nil {
		t.Fatalf("migrating database: %v", err)
	}
	return db
}

// ErrInjected is returned by FaultyDatabase when a fault fires.
var ErrInjected = errors.New("injected fault")

// FaultyDatabase wraps a ledger.Database and fails the named Tx method
// inside Atomic, after every earlier write of the operation has been made.
type FaultyDatabase struct {
	ledger.Database

	mu     sync.Mutex
	failOn string
}

func NewFaultyDatabase(inner ledger.Database) *FaultyDatabase {
	return &FaultyDatabase{Database: inner}
}

// FailOn arms a fault on the Tx method named method. An empty name disarms.
func (f *FaultyDatabase) FailOn(method string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failOn = method
}

func (f *FaultyDatabase) armed() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.failOn
}

func (f *FaultyDatabase) Atomic(fn func(tx ledger.Tx) error) error {
	method := f.armed()
	return f.Database.Atomic(func(tx ledger.Tx) error {
		return fn(&faultyTx{Tx: tx, failOn: method})
	})
}

type faultyTx struct {
	ledger.Tx
	failOn string
}

func (t *faultyTx) InsertTrade(tr *model.Trade) (uint64, error) {
	if t.failOn == "InsertTrade" {
		return 0, ErrInjected
	}
	return t.Tx.InsertTrade(tr)
}

func (t *faultyTx) InsertClaim(c *model.Claim) error {
	if t.failOn == "InsertClaim" {
		return ErrInjected
	}
	return t.Tx.InsertClaim(c)
}

func (t *faultyTx) InsertVote(v *model.Vote) error {
	if t.failOn == "InsertVote" {
		return ErrInjected
	}
	return t.Tx.InsertVote(v)
}

func (t *faultyTx) UpdateAvailableShares(id, available uint64) error {
	if t.failOn == "UpdateAvailableShares" {
		return ErrInjected
	}
	return t.Tx.UpdateAvailableShares(id, available)
}
