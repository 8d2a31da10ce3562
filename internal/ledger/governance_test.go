package ledger_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"realvora-go/internal/ledger"
	"realvora-go/internal/model"
	"realvora-go/internal/testutil"
)

// govFixture sells a 1000-share property out to Alice (600) and Bob (400).
func govFixture(t *testing.T, settings ledger.Settings) (*testutil.TestLedger, uint64) {
	t.Helper()
	l := testutil.NewTestLedger(t, settings)
	id := newProperty(t, l, 1000, 1)
	l.Fund(t, 1000, testutil.Alice, testutil.Bob)
	_, err := l.Service.PurchaseShares(testutil.Alice, id, 600)
	require.NoError(t, err)
	_, err = l.Service.PurchaseShares(testutil.Bob, id, 400)
	require.NoError(t, err)
	return l, id
}

func signalParams(id uint64) ledger.ProposalParams {
	return ledger.ProposalParams{
		PropertyID: model.Some(id),
		Type:       model.ProposalProtocolUpgrade,
		Title:      "Replace the roof",
	}
}

func propose(t *testing.T, l *testutil.TestLedger, caller string, params ledger.ProposalParams) uint64 {
	t.Helper()
	id, err := l.Service.CreateProposal(caller, params)
	require.NoError(t, err)
	return id
}

// closeVoting moves past the default voting period of a proposal created at block 1.
func closeVoting(l *testutil.TestLedger) {
	l.Blocks.Advance(1441)
}

func TestService_CreateProposal(t *testing.T) {
	l, id := govFixture(t, ledger.DefaultSettings())

	pid := propose(t, l, testutil.Alice, signalParams(id))
	p, err := l.Service.GetProposal(pid)
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, model.ProposalActive, p.Status)
	assert.Equal(t, uint64(1+1440), p.ExpiresAt)
	assert.False(t, p.ExecutedAt.IsSome())

	tests := []struct {
		name    string
		caller  string
		params  ledger.ProposalParams
		wantErr error
	}{
		{"no voting power", testutil.Carol, signalParams(id), ledger.ErrNoVotingPower},
		{"unknown property", testutil.Alice, signalParams(77), ledger.ErrPropertyNotFound},
		{"missing title", testutil.Alice, ledger.ProposalParams{Type: model.ProposalProtocolUpgrade}, ledger.ErrInvalidParams},
		{"unknown type", testutil.Alice, ledger.ProposalParams{Type: 9, Title: "x"}, ledger.ErrUnknownProposalType},
		{"sale without property", testutil.Alice, ledger.ProposalParams{Type: model.ProposalPropertySale, Title: "sell", Target: model.Some(testutil.Carol)}, ledger.ErrInvalidProposal},
		{"release without treasury", testutil.Alice, ledger.ProposalParams{Type: model.ProposalTreasuryRelease, Title: "pay", Amount: model.Some(uint64(5)), Target: model.Some(testutil.Carol)}, ledger.ErrInvalidProposal},
		{"fee above cap", testutil.Alice, ledger.ProposalParams{Type: model.ProposalFeeChange, Title: "fee", Amount: model.Some(uint64(1001))}, ledger.ErrInvalidProposal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := l.Service.CreateProposal(tt.caller, tt.params)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	t.Run("sale with price and no buyer yet", func(t *testing.T) {
		params := ledger.ProposalParams{PropertyID: model.Some(id), Type: model.ProposalPropertySale, Title: "sell", Amount: model.Some(uint64(1_000_000))}
		pid, err := l.Service.CreateProposal(testutil.Alice, params)
		require.NoError(t, err)

		p, err := l.Service.GetProposal(pid)
		require.NoError(t, err)
		assert.Equal(t, model.ProposalActive, p.Status)
		assert.Equal(t, uint64(1_000_000), p.Amount.OrElse(0))
		assert.False(t, p.Target.IsSome())
	})
}

func TestService_VoteOnce(t *testing.T) {
	l, id := govFixture(t, ledger.DefaultSettings())
	pid := propose(t, l, testutil.Alice, signalParams(id))

	require.NoError(t, l.Service.Vote(testutil.Alice, pid, true))

	err := l.Service.Vote(testutil.Alice, pid, false)
	assert.ErrorIs(t, err, ledger.ErrAlreadyVoted)
	assert.ErrorIs(t, err, ledger.ErrInvalidState)
	assert.True(t, ledger.IsKind(err, ledger.KindInvalidState))

	p, _ := l.Service.GetProposal(pid)
	assert.Equal(t, uint64(600), p.VotesFor)
	assert.Zero(t, p.VotesAgainst)

	v, err := l.Service.GetVote(pid, testutil.Alice)
	require.NoError(t, err)
	require.NotNil(t, v)
	assert.True(t, v.InFavor)
	assert.Equal(t, uint64(600), v.Weight)

	require.NoError(t, l.Service.Vote(testutil.Bob, pid, false))
	p, _ = l.Service.GetProposal(pid)
	assert.Equal(t, uint64(400), p.VotesAgainst)

	err = l.Service.Vote(testutil.Carol, pid, true)
	assert.ErrorIs(t, err, ledger.ErrNoVotingPower)

	err = l.Service.Vote(testutil.Carol, 99, true)
	assert.ErrorIs(t, err, ledger.ErrProposalNotFound)
}

func TestService_VotingWindow(t *testing.T) {
	l, id := govFixture(t, ledger.DefaultSettings())
	pid := propose(t, l, testutil.Alice, signalParams(id))

	_, err := l.Service.FinalizeProposal(testutil.Carol, pid)
	assert.ErrorIs(t, err, ledger.ErrNotExpired)

	l.Blocks.Advance(1440)
	require.NoError(t, l.Service.Vote(testutil.Alice, pid, true), "last block of the window")

	l.Blocks.Advance(1)
	err = l.Service.Vote(testutil.Bob, pid, true)
	assert.ErrorIs(t, err, ledger.ErrProposalExpired)
	assert.True(t, ledger.IsKind(err, ledger.KindExpired))

	status, err := l.Service.FinalizeProposal(testutil.Carol, pid)
	require.NoError(t, err)
	assert.Equal(t, model.ProposalPassed, status)

	_, err = l.Service.FinalizeProposal(testutil.Carol, pid)
	assert.ErrorIs(t, err, ledger.ErrAlreadyFinalized)

	err = l.Service.Vote(testutil.Bob, pid, true)
	assert.ErrorIs(t, err, ledger.ErrProposalNotActive)
}

func TestService_ProposalOutcome(t *testing.T) {
	tests := []struct {
		name  string
		votes map[string]bool
		want  model.ProposalStatus
	}{
		{"majority for", map[string]bool{testutil.Alice: true, testutil.Bob: false}, model.ProposalPassed},
		{"majority against", map[string]bool{testutil.Alice: false, testutil.Bob: true}, model.ProposalRejected},
		{"below quorum", map[string]bool{testutil.Bob: true}, model.ProposalRejected},
		{"quorum on one holder", map[string]bool{testutil.Alice: true}, model.ProposalPassed},
		{"no votes", nil, model.ProposalRejected},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, id := govFixture(t, ledger.DefaultSettings())
			pid := propose(t, l, testutil.Alice, signalParams(id))
			for voter, inFavor := range tt.votes {
				require.NoError(t, l.Service.Vote(voter, pid, inFavor))
			}
			closeVoting(l)

			status, err := l.Service.FinalizeProposal(testutil.Carol, pid)
			require.NoError(t, err)
			assert.Equal(t, tt.want, status)
		})
	}
}

func TestService_ExecuteProposal(t *testing.T) {
	t.Run("rejected proposal is finalized without effect", func(t *testing.T) {
		l, id := govFixture(t, ledger.DefaultSettings())
		params := ledger.ProposalParams{PropertyID: model.Some(id), Type: model.ProposalPropertySale, Title: "sell", Target: model.Some(testutil.Carol)}
		pid := propose(t, l, testutil.Alice, params)
		require.NoError(t, l.Service.Vote(testutil.Alice, pid, false))
		closeVoting(l)

		status, err := l.Service.ExecuteProposal(testutil.Carol, pid)
		require.NoError(t, err)
		assert.Equal(t, model.ProposalRejected, status)

		p, _ := l.Service.GetProperty(id)
		assert.Equal(t, testutil.Creator, p.Owner)

		_, err = l.Service.ExecuteProposal(testutil.Carol, pid)
		assert.ErrorIs(t, err, ledger.ErrAlreadyFinalized)
	})

	t.Run("still open", func(t *testing.T) {
		l, id := govFixture(t, ledger.DefaultSettings())
		pid := propose(t, l, testutil.Alice, signalParams(id))
		_, err := l.Service.ExecuteProposal(testutil.Carol, pid)
		assert.ErrorIs(t, err, ledger.ErrNotExpired)
	})

	t.Run("property sale transfers ownership", func(t *testing.T) {
		l, id := govFixture(t, ledger.DefaultSettings())
		params := ledger.ProposalParams{PropertyID: model.Some(id), Type: model.ProposalPropertySale, Title: "sell", Target: model.Some(testutil.Carol)}
		pid := propose(t, l, testutil.Alice, params)
		require.NoError(t, l.Service.Vote(testutil.Alice, pid, true))
		closeVoting(l)

		_, err := l.Service.FinalizeProposal(testutil.Bob, pid)
		require.NoError(t, err)
		status, err := l.Service.ExecuteProposal(testutil.Bob, pid)
		require.NoError(t, err)
		assert.Equal(t, model.ProposalExecuted, status)

		p, _ := l.Service.GetProperty(id)
		assert.Equal(t, testutil.Carol, p.Owner)

		prop, _ := l.Service.GetProposal(pid)
		at, ok := prop.ExecutedAt.Get()
		require.True(t, ok)
		assert.Equal(t, uint64(1+1441), at)

		_, err = l.Service.ExecuteProposal(testutil.Bob, pid)
		assert.ErrorIs(t, err, ledger.ErrAlreadyFinalized)
	})

	t.Run("property sale collects the price from the buyer", func(t *testing.T) {
		l, id := govFixture(t, ledger.DefaultSettings())
		buyerBefore, _ := l.Service.GetBalance(testutil.Bob)
		ownerBefore, _ := l.Service.GetBalance(testutil.Creator)

		params := ledger.ProposalParams{PropertyID: model.Some(id), Type: model.ProposalPropertySale, Title: "sell", Amount: model.Some(uint64(250)), Target: model.Some(testutil.Bob)}
		pid := propose(t, l, testutil.Alice, params)
		require.NoError(t, l.Service.Vote(testutil.Alice, pid, true))
		closeVoting(l)

		status, err := l.Service.ExecuteProposal(testutil.Carol, pid)
		require.NoError(t, err)
		assert.Equal(t, model.ProposalExecuted, status)

		p, _ := l.Service.GetProperty(id)
		assert.Equal(t, testutil.Bob, p.Owner)
		buyerAfter, _ := l.Service.GetBalance(testutil.Bob)
		ownerAfter, _ := l.Service.GetBalance(testutil.Creator)
		assert.Equal(t, buyerBefore-250, buyerAfter)
		assert.Equal(t, ownerBefore+250, ownerAfter)
	})

	t.Run("property sale without a buyer fails at execution", func(t *testing.T) {
		l, id := govFixture(t, ledger.DefaultSettings())
		params := ledger.ProposalParams{PropertyID: model.Some(id), Type: model.ProposalPropertySale, Title: "sell", Amount: model.Some(uint64(250))}
		pid := propose(t, l, testutil.Alice, params)
		require.NoError(t, l.Service.Vote(testutil.Alice, pid, true))
		closeVoting(l)

		_, err := l.Service.ExecuteProposal(testutil.Carol, pid)
		assert.ErrorIs(t, err, ledger.ErrInvalidProposal)

		p, _ := l.Service.GetProposal(pid)
		assert.Equal(t, model.ProposalActive, p.Status)
		prop, _ := l.Service.GetProperty(id)
		assert.Equal(t, testutil.Creator, prop.Owner)
	})

	t.Run("property sale buyer short of the price", func(t *testing.T) {
		l, id := govFixture(t, ledger.DefaultSettings())
		params := ledger.ProposalParams{PropertyID: model.Some(id), Type: model.ProposalPropertySale, Title: "sell", Amount: model.Some(uint64(5000)), Target: model.Some(testutil.Carol)}
		pid := propose(t, l, testutil.Alice, params)
		require.NoError(t, l.Service.Vote(testutil.Alice, pid, true))
		closeVoting(l)

		_, err := l.Service.ExecuteProposal(testutil.Carol, pid)
		assert.ErrorIs(t, err, ledger.ErrInsufficientFunds)

		prop, _ := l.Service.GetProperty(id)
		assert.Equal(t, testutil.Creator, prop.Owner)
	})

	t.Run("treasury release pays the target", func(t *testing.T) {
		settings := ledger.DefaultSettings()
		settings.Treasury = testutil.Treasury
		l, _ := govFixture(t, settings)
		l.Fund(t, 1000, testutil.Treasury)

		params := ledger.ProposalParams{Type: model.ProposalTreasuryRelease, Title: "repairs", Amount: model.Some(uint64(700)), Target: model.Some(testutil.Carol)}
		pid := propose(t, l, testutil.Bob, params)
		require.NoError(t, l.Service.Vote(testutil.Alice, pid, true))
		closeVoting(l)

		status, err := l.Service.ExecuteProposal(testutil.Bob, pid)
		require.NoError(t, err)
		assert.Equal(t, model.ProposalExecuted, status)

		carol, _ := l.Service.GetBalance(testutil.Carol)
		treasury, _ := l.Service.GetBalance(testutil.Treasury)
		assert.Equal(t, uint64(700), carol)
		assert.Equal(t, uint64(300), treasury)
	})

	t.Run("treasury shortfall aborts execution", func(t *testing.T) {
		settings := ledger.DefaultSettings()
		settings.Treasury = testutil.Treasury
		l, _ := govFixture(t, settings)

		params := ledger.ProposalParams{Type: model.ProposalTreasuryRelease, Title: "repairs", Amount: model.Some(uint64(700)), Target: model.Some(testutil.Carol)}
		pid := propose(t, l, testutil.Bob, params)
		require.NoError(t, l.Service.Vote(testutil.Alice, pid, true))
		closeVoting(l)

		_, err := l.Service.ExecuteProposal(testutil.Bob, pid)
		assert.ErrorIs(t, err, ledger.ErrInsufficientFunds)

		p, _ := l.Service.GetProposal(pid)
		assert.Equal(t, model.ProposalActive, p.Status, "finalization rolled back with the effect")
	})

	t.Run("fee change updates the trading fee", func(t *testing.T) {
		l, _ := govFixture(t, ledger.DefaultSettings())

		bps, err := l.Service.TradingFeeBps()
		require.NoError(t, err)
		assert.Equal(t, uint64(250), bps)

		params := ledger.ProposalParams{Type: model.ProposalFeeChange, Title: "cut fees", Amount: model.Some(uint64(100))}
		pid := propose(t, l, testutil.Alice, params)
		require.NoError(t, l.Service.Vote(testutil.Alice, pid, true))
		closeVoting(l)

		_, err = l.Service.ExecuteProposal(testutil.Alice, pid)
		require.NoError(t, err)

		bps, err = l.Service.TradingFeeBps()
		require.NoError(t, err)
		assert.Equal(t, uint64(100), bps)
	})
}

func TestService_RegistryVotingPower(t *testing.T) {
	settings := ledger.DefaultSettings()
	settings.VotingPower = ledger.VotingPowerRegistry
	l := testutil.NewTestLedger(t, settings)

	require.NoError(t, l.Service.UpdateVotingPower(testutil.Admin, testutil.Alice, 500))
	require.NoError(t, l.Service.UpdateVotingPower(testutil.Admin, testutil.Bob, 300))

	err := l.Service.UpdateVotingPower(testutil.Alice, testutil.Alice, 10_000)
	assert.ErrorIs(t, err, ledger.ErrUnauthorized)

	err = l.Service.UpdateVotingPower(testutil.Admin, "", 10_000)
	assert.ErrorIs(t, err, ledger.ErrInvalidParams)

	power, err := l.Service.GetVotingPower(testutil.Alice, model.None[uint64]())
	require.NoError(t, err)
	assert.Equal(t, uint64(500), power)

	params := ledger.ProposalParams{Type: model.ProposalProtocolUpgrade, Title: "v2"}
	_, err = l.Service.CreateProposal(testutil.Carol, params)
	assert.ErrorIs(t, err, ledger.ErrNoVotingPower)

	pid := propose(t, l, testutil.Alice, params)
	require.NoError(t, l.Service.Vote(testutil.Alice, pid, true))
	require.NoError(t, l.Service.Vote(testutil.Bob, pid, false))

	p, _ := l.Service.GetProposal(pid)
	assert.Equal(t, uint64(500), p.VotesFor)
	assert.Equal(t, uint64(300), p.VotesAgainst)

	closeVoting(l)
	status, err := l.Service.FinalizeProposal(testutil.Carol, pid)
	require.NoError(t, err)
	assert.Equal(t, model.ProposalPassed, status)
}

// Under the shares model a vote weighs the voter's holding at vote time, so
// shares sold after voting are counted again when the buyer votes.
func TestService_SharesVoteAgainAfterSale(t *testing.T) {
	l, id := govFixture(t, ledger.DefaultSettings())
	l.Fund(t, 1000, testutil.Carol)
	pid := propose(t, l, testutil.Alice, signalParams(id))
	require.NoError(t, l.Service.Vote(testutil.Bob, pid, true))

	sell, err := l.Service.CreateSellOrder(testutil.Bob, order(id, 100, 1))
	require.NoError(t, err)
	buy, err := l.Service.CreateBuyOrder(testutil.Carol, order(id, 100, 1))
	require.NoError(t, err)
	_, err = l.Service.ExecuteTrade(testutil.Carol, buy, sell, 100)
	require.NoError(t, err)

	require.NoError(t, l.Service.Vote(testutil.Carol, pid, true))

	p, _ := l.Service.GetProposal(pid)
	assert.Equal(t, uint64(400+100), p.VotesFor, "the 100 traded shares count for both holders")
	bob, _ := l.Service.GetVote(pid, testutil.Bob)
	carol, _ := l.Service.GetVote(pid, testutil.Carol)
	assert.Equal(t, uint64(400), bob.Weight)
	assert.Equal(t, uint64(100), carol.Weight)
}

func TestService_VoteFailureRollsBack(t *testing.T) {
	l, id := govFixture(t, ledger.DefaultSettings())
	pid := propose(t, l, testutil.Alice, signalParams(id))

	l.DB.FailOn("InsertVote")
	err := l.Service.Vote(testutil.Alice, pid, true)
	assert.ErrorIs(t, err, testutil.ErrInjected)
	l.DB.FailOn("")

	p, _ := l.Service.GetProposal(pid)
	assert.Zero(t, p.VotesFor)
	v, err := l.Service.GetVote(pid, testutil.Alice)
	require.NoError(t, err)
	assert.Nil(t, v)

	assert.NoError(t, l.Service.Vote(testutil.Alice, pid, true))
}
