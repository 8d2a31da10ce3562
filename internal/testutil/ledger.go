package testutil

import (
	"testing"

	"realvora-go/internal/ledger"
	"realvora-go/internal/model"
)

// Addresses used across ledger tests.
const (
	Admin    = "ST1ADMIN"
	Creator  = "ST1CREATOR"
	Alice    = "ST1ALICE"
	Bob      = "ST1BOB"
	Carol    = "ST1CAROL"
	Treasury = "ST1TREASURY"
)

// TestLedger bundles a service with the collaborators a test drives.
type TestLedger struct {
	Service *ledger.Service
	DB      *FaultyDatabase
	Blocks  *StubBlocks
}

// NewTestLedger builds a service on an in-memory store at block 1, with
// Admin seeded as admin and Creator granted property_creator.
func NewTestLedger(t *testing.T, settings ledger.Settings) *TestLedger {
	t.Helper()

	db := NewFaultyDatabase(NewTestDatabase(t))
	blocks := NewStubBlocks(1)
	svc := ledger.NewService(db, blocks, settings, ledger.NewNopLogger())

	if err := svc.Bootstrap([]string{Admin}); err != nil {
		t.Fatalf("Bootstrap() error = %v", err)
	}
	if err := svc.GrantRole(Admin, Creator, model.RolePropertyCreator); err != nil {
		t.Fatalf("GrantRole() error = %v", err)
	}
	return &TestLedger{Service: svc, DB: db, Blocks: blocks}
}

// Fund deposits amount to each address.
func (l *TestLedger) Fund(t *testing.T, amount uint64, addresses ...string) {
	t.Helper()
	for _, a := range addresses {
		if err := l.Service.Deposit(Admin, a, amount); err != nil {
			t.Fatalf("Deposit(%s) error = %v", a, err)
		}
	}
}
