package ledger_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"realvora-go/internal/ledger"
	"realvora-go/internal/model"
	"realvora-go/internal/testutil"
)

func loftParams(shares, price uint64) ledger.PropertyParams {
	return ledger.PropertyParams{
		Name:          "Harbor Loft",
		Description:   "Two-bed loft by the marina",
		Location:      "Lisbon",
		TotalValue:    shares * price,
		TotalShares:   shares,
		PricePerShare: price,
		RentalYield:   450,
		MetadataURI:   "ipfs://loft",
	}
}

// newProperty creates a property owned by testutil.Creator.
func newProperty(t *testing.T, l *testutil.TestLedger, shares, price uint64) uint64 {
	t.Helper()
	id, err := l.Service.CreateProperty(testutil.Creator, loftParams(shares, price))
	require.NoError(t, err)
	return id
}

func TestService_CreateProperty(t *testing.T) {
	t.Run("creator owns property with full supply available", func(t *testing.T) {
		l := testutil.NewTestLedger(t, ledger.DefaultSettings())

		id := newProperty(t, l, 1000, 100)
		assert.Equal(t, uint64(1), id)

		p, err := l.Service.GetProperty(id)
		require.NoError(t, err)
		require.NotNil(t, p)
		assert.Equal(t, testutil.Creator, p.Owner)
		assert.Equal(t, uint64(1000), p.AvailableShares)
		assert.Equal(t, uint64(1), p.CreatedAt)
	})

	t.Run("ids are sequential", func(t *testing.T) {
		l := testutil.NewTestLedger(t, ledger.DefaultSettings())
		first := newProperty(t, l, 10, 1)
		second := newProperty(t, l, 10, 1)
		assert.Equal(t, first+1, second)
	})

	t.Run("caller without role is unauthorized", func(t *testing.T) {
		l := testutil.NewTestLedger(t, ledger.DefaultSettings())

		_, err := l.Service.CreateProperty(testutil.Alice, loftParams(10, 1))
		assert.ErrorIs(t, err, ledger.ErrUnauthorized)
		assert.True(t, ledger.IsKind(err, ledger.KindUnauthorized))
	})

	t.Run("admin may create", func(t *testing.T) {
		l := testutil.NewTestLedger(t, ledger.DefaultSettings())
		_, err := l.Service.CreateProperty(testutil.Admin, loftParams(10, 1))
		assert.NoError(t, err)
	})

	t.Run("invalid parameters are rejected", func(t *testing.T) {
		l := testutil.NewTestLedger(t, ledger.DefaultSettings())

		tests := []struct {
			name   string
			params ledger.PropertyParams
		}{
			{"zero shares", loftParams(0, 10)},
			{"zero price", loftParams(10, 0)},
			{"missing name", func() ledger.PropertyParams { p := loftParams(10, 1); p.Name = ""; return p }()},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, err := l.Service.CreateProperty(testutil.Creator, tt.params)
				assert.ErrorIs(t, err, ledger.ErrInvalidParams)
				assert.True(t, ledger.IsKind(err, ledger.KindQuantityViolation))
			})
		}

		props, err := l.Service.ListProperties()
		require.NoError(t, err)
		assert.Empty(t, props)
	})
}

func TestService_PurchaseShares(t *testing.T) {
	t.Run("moves shares and funds", func(t *testing.T) {
		l := testutil.NewTestLedger(t, ledger.DefaultSettings())
		id := newProperty(t, l, 1000, 100)
		l.Fund(t, 50_000, testutil.Alice)

		got, err := l.Service.PurchaseShares(testutil.Alice, id, 300)
		require.NoError(t, err)
		assert.Equal(t, uint64(300), got)

		shares, err := l.Service.GetUserShares(testutil.Alice, id)
		require.NoError(t, err)
		assert.Equal(t, uint64(300), shares)

		p, err := l.Service.GetProperty(id)
		require.NoError(t, err)
		assert.Equal(t, uint64(700), p.AvailableShares)

		alice, _ := l.Service.GetBalance(testutil.Alice)
		owner, _ := l.Service.GetBalance(testutil.Creator)
		assert.Equal(t, uint64(20_000), alice)
		assert.Equal(t, uint64(30_000), owner)
		require.NoError(t, l.Service.CheckConservation(id))
	})

	t.Run("oversell is rejected and supply unchanged", func(t *testing.T) {
		l := testutil.NewTestLedger(t, ledger.DefaultSettings())
		id := newProperty(t, l, 100, 1)
		l.Fund(t, 1000, testutil.Alice)

		_, err := l.Service.PurchaseShares(testutil.Alice, id, 150)
		require.Error(t, err)
		assert.ErrorIs(t, err, ledger.ErrExceedsAvailableSupply)
		assert.True(t, ledger.IsKind(err, ledger.KindQuantityViolation))
		le, ok := ledger.AsError(err)
		require.True(t, ok)
		assert.Equal(t, uint32(106), le.Code)

		p, err := l.Service.GetProperty(id)
		require.NoError(t, err)
		assert.Equal(t, uint64(100), p.AvailableShares)
	})

	t.Run("unknown property", func(t *testing.T) {
		l := testutil.NewTestLedger(t, ledger.DefaultSettings())
		_, err := l.Service.PurchaseShares(testutil.Alice, 42, 1)
		assert.ErrorIs(t, err, ledger.ErrPropertyNotFound)
		assert.ErrorIs(t, err, ledger.ErrNotFound)
	})

	t.Run("zero shares", func(t *testing.T) {
		l := testutil.NewTestLedger(t, ledger.DefaultSettings())
		id := newProperty(t, l, 100, 1)
		_, err := l.Service.PurchaseShares(testutil.Alice, id, 0)
		assert.ErrorIs(t, err, ledger.ErrInvalidQuantity)
	})

	t.Run("insufficient funds leaves nothing behind", func(t *testing.T) {
		l := testutil.NewTestLedger(t, ledger.DefaultSettings())
		id := newProperty(t, l, 100, 10)
		l.Fund(t, 99, testutil.Alice)

		_, err := l.Service.PurchaseShares(testutil.Alice, id, 10)
		assert.ErrorIs(t, err, ledger.ErrInsufficientFunds)
		assert.True(t, ledger.IsKind(err, ledger.KindInsufficientResource))

		shares, _ := l.Service.GetUserShares(testutil.Alice, id)
		assert.Zero(t, shares)
		bal, _ := l.Service.GetBalance(testutil.Alice)
		assert.Equal(t, uint64(99), bal)
	})

	t.Run("owner may buy own shares without paying", func(t *testing.T) {
		l := testutil.NewTestLedger(t, ledger.DefaultSettings())
		id := newProperty(t, l, 100, 10)

		_, err := l.Service.PurchaseShares(testutil.Creator, id, 5)
		require.NoError(t, err)
		shares, _ := l.Service.GetUserShares(testutil.Creator, id)
		assert.Equal(t, uint64(5), shares)
	})

	t.Run("price overflow is a quantity violation", func(t *testing.T) {
		l := testutil.NewTestLedger(t, ledger.DefaultSettings())
		params := loftParams(1<<40, 1<<30)
		params.TotalValue = 0
		id, err := l.Service.CreateProperty(testutil.Creator, params)
		require.NoError(t, err)

		_, err = l.Service.PurchaseShares(testutil.Alice, id, 1<<40)
		assert.ErrorIs(t, err, ledger.ErrAmountOverflow)
	})

	t.Run("failure after writes rolls back", func(t *testing.T) {
		l := testutil.NewTestLedger(t, ledger.DefaultSettings())
		id := newProperty(t, l, 100, 10)
		l.Fund(t, 1000, testutil.Alice)

		l.DB.FailOn("UpdateAvailableShares")
		_, err := l.Service.PurchaseShares(testutil.Alice, id, 10)
		assert.True(t, errors.Is(err, testutil.ErrInjected))
		l.DB.FailOn("")

		shares, _ := l.Service.GetUserShares(testutil.Alice, id)
		assert.Zero(t, shares)
		bal, _ := l.Service.GetBalance(testutil.Alice)
		assert.Equal(t, uint64(1000), bal)
		require.NoError(t, l.Service.CheckConservation(id))
	})
}

func TestService_ConservationAcrossOperations(t *testing.T) {
	l := testutil.NewTestLedger(t, ledger.DefaultSettings())
	id := newProperty(t, l, 1000, 1)
	l.Fund(t, 10_000, testutil.Alice, testutil.Bob, testutil.Carol)

	for _, buy := range []struct {
		who    string
		shares uint64
	}{{testutil.Alice, 300}, {testutil.Bob, 200}, {testutil.Carol, 499}, {testutil.Alice, 1}} {
		_, err := l.Service.PurchaseShares(buy.who, id, buy.shares)
		require.NoError(t, err)
		require.NoError(t, l.Service.CheckConservation(id))
	}

	_, err := l.Service.PurchaseShares(testutil.Bob, id, 1)
	assert.ErrorIs(t, err, ledger.ErrExceedsAvailableSupply)

	holders, err := l.Service.ListHolders(id)
	require.NoError(t, err)
	require.Len(t, holders, 3)
	assert.Equal(t, testutil.Carol, holders[0].Holder)

	total, err := l.Service.TotalFunds()
	require.NoError(t, err)
	assert.Equal(t, uint64(30_000), total)
}

func TestService_TransferOwnership(t *testing.T) {
	t.Run("owner transfers", func(t *testing.T) {
		l := testutil.NewTestLedger(t, ledger.DefaultSettings())
		id := newProperty(t, l, 10, 1)

		require.NoError(t, l.Service.TransferOwnership(testutil.Creator, id, testutil.Bob))
		p, _ := l.Service.GetProperty(id)
		assert.Equal(t, testutil.Bob, p.Owner)
	})

	t.Run("stranger is unauthorized", func(t *testing.T) {
		l := testutil.NewTestLedger(t, ledger.DefaultSettings())
		id := newProperty(t, l, 10, 1)

		err := l.Service.TransferOwnership(testutil.Alice, id, testutil.Alice)
		assert.ErrorIs(t, err, ledger.ErrUnauthorized)
	})

	t.Run("admin may transfer", func(t *testing.T) {
		l := testutil.NewTestLedger(t, ledger.DefaultSettings())
		id := newProperty(t, l, 10, 1)
		assert.NoError(t, l.Service.TransferOwnership(testutil.Admin, id, testutil.Carol))
	})
}

func TestService_GetPropertyMissing(t *testing.T) {
	l := testutil.NewTestLedger(t, ledger.DefaultSettings())

	p, err := l.Service.GetProperty(7)
	require.NoError(t, err)
	assert.Nil(t, p)

	shares, err := l.Service.GetUserShares(testutil.Alice, 7)
	require.NoError(t, err)
	assert.Zero(t, shares)

	roles, err := l.Service.ListRoles(testutil.Creator)
	require.NoError(t, err)
	assert.Equal(t, []model.Role{model.RolePropertyCreator}, roles)
}
