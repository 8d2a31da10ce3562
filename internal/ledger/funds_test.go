package ledger_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"realvora-go/internal/ledger"
	"realvora-go/internal/model"
	"realvora-go/internal/testutil"
)

func TestService_Funds(t *testing.T) {
	l := testutil.NewTestLedger(t, ledger.DefaultSettings())

	err := l.Service.Deposit(testutil.Alice, testutil.Alice, 10)
	assert.ErrorIs(t, err, ledger.ErrUnauthorized)

	l.Fund(t, 500, testutil.Alice)
	require.NoError(t, l.Service.Transfer(testutil.Alice, testutil.Bob, 200))

	err = l.Service.Transfer(testutil.Alice, testutil.Bob, 301)
	assert.ErrorIs(t, err, ledger.ErrInsufficientFunds)

	err = l.Service.Transfer(testutil.Alice, testutil.Bob, 0)
	assert.ErrorIs(t, err, ledger.ErrInvalidQuantity)

	require.NoError(t, l.Service.Withdraw(testutil.Bob, 50))
	err = l.Service.Withdraw(testutil.Bob, 151)
	assert.ErrorIs(t, err, ledger.ErrInsufficientFunds)

	alice, _ := l.Service.GetBalance(testutil.Alice)
	bob, _ := l.Service.GetBalance(testutil.Bob)
	assert.Equal(t, uint64(300), alice)
	assert.Equal(t, uint64(150), bob)

	total, err := l.Service.TotalFunds()
	require.NoError(t, err)
	assert.Equal(t, uint64(450), total)

	unknown, err := l.Service.GetBalance("ST1NOBODY")
	require.NoError(t, err)
	assert.Zero(t, unknown)
}

func TestService_FundsRequireAddress(t *testing.T) {
	l := testutil.NewTestLedger(t, ledger.DefaultSettings())
	l.Fund(t, 500, testutil.Alice)

	err := l.Service.Deposit(testutil.Admin, "", 100)
	assert.ErrorIs(t, err, ledger.ErrInvalidParams)

	err = l.Service.Transfer(testutil.Alice, "", 100)
	assert.ErrorIs(t, err, ledger.ErrInvalidParams)

	alice, _ := l.Service.GetBalance(testutil.Alice)
	assert.Equal(t, uint64(500), alice)
	total, err := l.Service.TotalFunds()
	require.NoError(t, err)
	assert.Equal(t, uint64(500), total)
}

func TestService_DepositOverflow(t *testing.T) {
	l := testutil.NewTestLedger(t, ledger.DefaultSettings())
	l.Fund(t, 1<<62, testutil.Alice)
	l.Fund(t, 1<<61, testutil.Bob)

	err := l.Service.Deposit(testutil.Admin, testutil.Carol, 1<<61)
	assert.ErrorIs(t, err, ledger.ErrAmountOverflow)

	carol, _ := l.Service.GetBalance(testutil.Carol)
	assert.Zero(t, carol)
}

// Funds only enter through Deposit and leave through Withdraw.
func TestService_FundsConservation(t *testing.T) {
	settings := ledger.DefaultSettings()
	settings.Treasury = testutil.Treasury
	l := testutil.NewTestLedger(t, settings)
	id := newProperty(t, l, 1000, 3)
	l.Fund(t, 10_000, testutil.Alice, testutil.Bob)
	deposited := uint64(20_000)

	steps := []func() error{
		func() error { _, err := l.Service.PurchaseShares(testutil.Alice, id, 400); return err },
		func() error { return l.Service.Transfer(testutil.Bob, testutil.Carol, 777) },
		func() error {
			sell, err := l.Service.CreateSellOrder(testutil.Alice, order(id, 100, 5))
			if err != nil {
				return err
			}
			buy, err := l.Service.CreateBuyOrder(testutil.Bob, order(id, 100, 5))
			if err != nil {
				return err
			}
			_, err = l.Service.ExecuteTrade(testutil.Carol, buy, sell, 77)
			return err
		},
		func() error { _, err := l.Service.DistributeRevenue(testutil.Creator, id, 999, 1); return err },
		func() error { _, err := l.Service.ClaimRevenue(testutil.Alice, id, 1); return err },
		func() error { _, err := l.Service.ClaimRevenue(testutil.Bob, id, 1); return err },
	}
	for i, step := range steps {
		require.NoError(t, step(), "step %d", i)
		total, err := l.Service.TotalFunds()
		require.NoError(t, err)
		assert.Equal(t, deposited, total, "step %d", i)
		require.NoError(t, l.Service.CheckConservation(id))
	}

	require.NoError(t, l.Service.Withdraw(testutil.Carol, 700))
	total, _ := l.Service.TotalFunds()
	assert.Equal(t, deposited-700, total)
}

func TestService_Roles(t *testing.T) {
	l := testutil.NewTestLedger(t, ledger.DefaultSettings())

	ok, err := l.Service.HasRole(testutil.Admin, model.RoleAdmin)
	require.NoError(t, err)
	assert.True(t, ok)

	err = l.Service.GrantRole(testutil.Alice, testutil.Alice, model.RoleAdmin)
	assert.ErrorIs(t, err, ledger.ErrUnauthorized)

	err = l.Service.GrantRole(testutil.Admin, testutil.Alice, model.Role("king"))
	assert.ErrorIs(t, err, ledger.ErrUnknownRole)

	require.NoError(t, l.Service.GrantRole(testutil.Admin, testutil.Alice, model.RoleOperator))
	require.NoError(t, l.Service.GrantRole(testutil.Admin, testutil.Alice, model.RolePropertyCreator))
	require.NoError(t, l.Service.GrantRole(testutil.Admin, testutil.Alice, model.RoleOperator), "granting twice is harmless")

	roles, err := l.Service.ListRoles(testutil.Alice)
	require.NoError(t, err)
	assert.ElementsMatch(t, []model.Role{model.RoleOperator, model.RolePropertyCreator}, roles)

	_, err = l.Service.CreateProperty(testutil.Alice, loftParams(10, 1))
	require.NoError(t, err)

	require.NoError(t, l.Service.RevokeRole(testutil.Admin, testutil.Alice, model.RolePropertyCreator))
	_, err = l.Service.CreateProperty(testutil.Alice, loftParams(10, 1))
	assert.ErrorIs(t, err, ledger.ErrUnauthorized)

	err = l.Service.RevokeRole(testutil.Bob, testutil.Admin, model.RoleAdmin)
	assert.ErrorIs(t, err, ledger.ErrUnauthorized)
}

func TestService_History(t *testing.T) {
	l := testutil.NewTestLedger(t, ledger.DefaultSettings())

	ops, err := l.Service.GetHistory(10)
	require.NoError(t, err)
	assert.Empty(t, ops)
}
