package domain_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/ark-network/oracle/internal/core/domain"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const (
	resolverId = "challenge"
	upstreamId = "upstream"
	alice      = "alice"
	bob        = "bob"
	carol      = "carol"
)

var (
	ctx    = context.Background()
	config = domain.ChallengeConfig{
		SpreadMultiplier:  3,
		ChallengeWindow:   200,
		MinChallengeStake: 100,
		FrontRunnerPeriod: 50,
	}
)

func newChallengeResolver(
	t *testing.T, upstream domain.OutcomeSource, escrow domain.Escrow, clock domain.Clock,
) *domain.ChallengeResolver {
	resolver, err := domain.NewChallengeResolver(
		resolverId, upstreamId, upstream, escrow, clock, config,
	)
	require.NoError(t, err)
	return resolver
}

func fundedEscrow() *testEscrow {
	return newTestEscrow(map[string]domain.Stake{
		alice: 1000,
		bob:   1000,
		carol: 1000,
	})
}

func TestChallengeResolver(t *testing.T) {
	t.Run("new", func(t *testing.T) {
		clock := newTestClock(0)
		escrow := fundedEscrow()
		resolver := newChallengeResolver(t, resolvedSource(1), escrow, clock)
		require.Equal(t, resolverId, resolver.Id)
		require.Equal(t, upstreamId, resolver.Upstream)
		require.Equal(t, domain.ChallengePendingStage, resolver.Stage())

		invalidConfigs := []domain.ChallengeConfig{
			{SpreadMultiplier: 0, ChallengeWindow: 200},
			{SpreadMultiplier: 3, ChallengeWindow: -1},
			{SpreadMultiplier: 3, FrontRunnerPeriod: -1},
			{SpreadMultiplier: 3, MarginRule: "unknown"},
		}
		for _, cfg := range invalidConfigs {
			r, err := domain.NewChallengeResolver(
				resolverId, upstreamId, resolvedSource(1), escrow, clock, cfg,
			)
			require.Error(t, err)
			require.Nil(t, r)
		}

		r, err := domain.NewChallengeResolver(
			resolverId, upstreamId, nil, escrow, clock, config,
		)
		require.Error(t, err)
		require.Nil(t, r)
	})

	t.Run("pull_forwarded_outcome", func(t *testing.T) {
		clock := newTestClock(10)
		upstream := unresolvedSource()
		resolver := newChallengeResolver(t, upstream, fundedEscrow(), clock)

		_, err := resolver.PullForwardedOutcome()
		require.ErrorIs(t, err, domain.ErrUpstreamNotResolved)
		require.Equal(t, domain.ChallengePendingStage, resolver.Stage())

		upstream.set(1)
		event, err := resolver.PullForwardedOutcome()
		require.NoError(t, err)
		pulled, ok := event.(domain.ForwardPulled)
		require.True(t, ok)
		require.Equal(t, domain.Outcome(1), pulled.Outcome)
		require.Equal(t, int64(10), pulled.Timestamp)
		require.Equal(t, domain.ChallengeForwardPulledStage, resolver.Stage())

		upstream.set(2)
		_, err = resolver.PullForwardedOutcome()
		require.ErrorIs(t, err, domain.ErrForwardAlreadyPulled)

		info := resolver.Info()
		require.NotNil(t, info.ForwardedOutcome)
		require.Equal(t, domain.Outcome(1), *info.ForwardedOutcome)
	})

	t.Run("forward_wins", func(t *testing.T) {
		clock := newTestClock(0)
		resolver := newChallengeResolver(t, resolvedSource(1), fundedEscrow(), clock)

		require.False(t, resolver.IsOutcomeSet())
		_, err := resolver.GetOutcome()
		require.ErrorIs(t, err, domain.ErrNotResolved)

		_, err = resolver.PullForwardedOutcome()
		require.NoError(t, err)

		clock.advance(config.ChallengeWindow - 1)
		require.False(t, resolver.IsOutcomeSet())
		_, err = resolver.GetOutcome()
		require.ErrorIs(t, err, domain.ErrNotResolved)

		clock.advance(1)
		require.True(t, resolver.IsOutcomeSet())
		outcome, err := resolver.GetOutcome()
		require.NoError(t, err)
		require.Equal(t, domain.Outcome(1), outcome)
		require.Equal(t, domain.ChallengeResolvedStage, resolver.Stage())

		// queries never record the resolution
		require.Len(t, resolver.Events(), 2)

		_, err = resolver.PlaceBid(ctx, alice, 2, 100)
		require.ErrorIs(t, err, domain.ErrAlreadyResolved)

		events := resolver.Events()
		require.Len(t, events, 3)
		resolved, ok := events[2].(domain.ChallengeResolved)
		require.True(t, ok)
		require.Equal(t, domain.ResolvedByForward, resolved.Via)
		require.Equal(t, config.ChallengeWindow, resolved.ResolvedAt)
		require.Empty(t, resolved.Winner)

		_, _, err = resolver.Withdraw(ctx, alice)
		require.ErrorIs(t, err, domain.ErrNotWinner)
	})

	t.Run("auction_wins", func(t *testing.T) {
		clock := newTestClock(0)
		escrow := fundedEscrow()
		resolver := newChallengeResolver(t, resolvedSource(1), escrow, clock)

		_, err := resolver.PlaceBid(ctx, alice, 2, 100)
		require.ErrorIs(t, err, domain.ErrForwardNotPulled)

		_, err = resolver.PullForwardedOutcome()
		require.NoError(t, err)

		clock.advance(10)
		_, err = resolver.PlaceBid(ctx, alice, 2, 100)
		require.NoError(t, err)
		require.Equal(t, domain.ChallengeChallengedStage, resolver.Stage())

		clock.advance(10)
		_, err = resolver.PlaceBid(ctx, bob, 3, 200)
		require.NoError(t, err)

		// premature withdraw
		_, _, err = resolver.Withdraw(ctx, bob)
		require.ErrorIs(t, err, domain.ErrNotResolved)
		_, _, err = resolver.Withdraw(ctx, alice)
		require.ErrorIs(t, err, domain.ErrNotResolved)

		clock.advance(config.FrontRunnerPeriod - 1)
		require.False(t, resolver.IsOutcomeSet())

		clock.advance(1)
		require.True(t, resolver.IsOutcomeSet())
		outcome, err := resolver.GetOutcome()
		require.NoError(t, err)
		require.Equal(t, domain.Outcome(3), outcome)

		_, _, err = resolver.Withdraw(ctx, alice)
		require.ErrorIs(t, err, domain.ErrNotWinner)

		amount, event, err := resolver.Withdraw(ctx, bob)
		require.NoError(t, err)
		require.Equal(t, domain.Stake(300), amount)
		require.Equal(t, domain.EventTypeWinningsWithdrawn, event.GetType())
		require.Equal(t, domain.Stake(1100), escrow.balance(bob))
		require.Equal(t, domain.Stake(900), escrow.balance(alice))
		require.Zero(t, escrow.balance(resolverId))

		_, _, err = resolver.Withdraw(ctx, bob)
		require.ErrorIs(t, err, domain.ErrAlreadyPaid)
		require.Equal(t, domain.Stake(1100), escrow.balance(bob))

		info := resolver.Info()
		require.True(t, info.WinnerPaid)
		require.Zero(t, info.TotalPot)
		require.Equal(t, bob, info.Winner)
	})

	t.Run("bid_monotonicity", func(t *testing.T) {
		clock := newTestClock(0)
		escrow := fundedEscrow()
		resolver := newChallengeResolver(t, resolvedSource(1), escrow, clock)
		_, err := resolver.PullForwardedOutcome()
		require.NoError(t, err)

		fixtures := []struct {
			bidder      string
			stake       domain.Stake
			expectedErr error
		}{
			{alice, 0, domain.ErrStakeTooLow},
			{alice, 99, domain.ErrStakeTooLow},
			{alice, 100, nil},
			{bob, 100, domain.ErrStakeTooLow},
			{bob, 133, domain.ErrStakeTooLow},
			{bob, 134, nil},
			{carol, 150, domain.ErrStakeTooLow},
			{carol, 179, nil},
		}

		var pot domain.Stake
		for i, f := range fixtures {
			before := resolver.Info()
			_, err := resolver.PlaceBid(ctx, f.bidder, 2, f.stake)
			if f.expectedErr != nil {
				require.ErrorIs(t, err, f.expectedErr, "fixture %d", i)
				require.Equal(t, before.FrontRunner, resolver.Info().FrontRunner)
				require.Equal(t, before.TotalPot, resolver.Info().TotalPot)
				continue
			}
			require.NoError(t, err, "fixture %d", i)
			pot += f.stake
			info := resolver.Info()
			require.Equal(t, f.bidder, info.FrontRunner.Bidder)
			require.Equal(t, f.stake, info.FrontRunner.Amount)
			require.Equal(t, pot, info.TotalPot)
			require.Equal(t, pot, escrow.balance(resolverId))
		}
	})

	t.Run("timer_restart", func(t *testing.T) {
		clock := newTestClock(0)
		resolver := newChallengeResolver(t, resolvedSource(1), fundedEscrow(), clock)
		_, err := resolver.PullForwardedOutcome()
		require.NoError(t, err)

		_, err = resolver.PlaceBid(ctx, alice, 2, 100)
		require.NoError(t, err)

		clock.advance(config.FrontRunnerPeriod - 1)
		_, err = resolver.PlaceBid(ctx, bob, 3, 200)
		require.NoError(t, err)

		clock.advance(config.FrontRunnerPeriod - 1)
		require.False(t, resolver.IsOutcomeSet())
		_, err = resolver.PlaceBid(ctx, alice, 2, 300)
		require.NoError(t, err)

		clock.advance(config.FrontRunnerPeriod - 1)
		require.False(t, resolver.IsOutcomeSet())

		clock.advance(1)
		outcome, err := resolver.GetOutcome()
		require.NoError(t, err)
		require.Equal(t, domain.Outcome(2), outcome)
	})

	t.Run("bid_after_window_without_challenge", func(t *testing.T) {
		clock := newTestClock(0)
		resolver := newChallengeResolver(t, resolvedSource(1), fundedEscrow(), clock)
		_, err := resolver.PullForwardedOutcome()
		require.NoError(t, err)

		clock.advance(config.ChallengeWindow + 5)
		_, err = resolver.PlaceBid(ctx, alice, 2, 100)
		require.ErrorIs(t, err, domain.ErrAlreadyResolved)
	})

	t.Run("bids_extend_past_challenge_window", func(t *testing.T) {
		clock := newTestClock(0)
		resolver := newChallengeResolver(t, resolvedSource(1), fundedEscrow(), clock)
		_, err := resolver.PullForwardedOutcome()
		require.NoError(t, err)

		clock.advance(config.ChallengeWindow - 1)
		_, err = resolver.PlaceBid(ctx, alice, 2, 100)
		require.NoError(t, err)

		clock.advance(config.FrontRunnerPeriod - 1)
		require.False(t, resolver.IsOutcomeSet())

		clock.advance(1)
		outcome, err := resolver.GetOutcome()
		require.NoError(t, err)
		require.Equal(t, domain.Outcome(2), outcome)
	})

	t.Run("insufficient_funds", func(t *testing.T) {
		clock := newTestClock(0)
		escrow := &mockedEscrow{}
		escrow.On("Debit", mock.Anything, resolverId, alice, domain.Stake(100)).
			Return(fmt.Errorf("%w: allowance exceeded", domain.ErrInsufficientFunds))
		escrow.On("Debit", mock.Anything, resolverId, bob, domain.Stake(100)).
			Return(nil)

		resolver := newChallengeResolver(t, resolvedSource(1), escrow, clock)
		_, err := resolver.PullForwardedOutcome()
		require.NoError(t, err)

		_, err = resolver.PlaceBid(ctx, alice, 2, 100)
		require.ErrorIs(t, err, domain.ErrInsufficientFunds)
		info := resolver.Info()
		require.Nil(t, info.FrontRunner)
		require.Zero(t, info.TotalPot)
		require.Equal(t, domain.ChallengeForwardPulledStage, info.Stage)

		_, err = resolver.PlaceBid(ctx, bob, 2, 100)
		require.NoError(t, err)
		escrow.AssertExpectations(t)
	})

	t.Run("escrow_failure", func(t *testing.T) {
		clock := newTestClock(0)
		escrow := &mockedEscrow{}
		escrow.On("Debit", mock.Anything, resolverId, alice, domain.Stake(100)).
			Return(fmt.Errorf("database is locked"))

		resolver := newChallengeResolver(t, resolvedSource(1), escrow, clock)
		_, err := resolver.PullForwardedOutcome()
		require.NoError(t, err)

		_, err = resolver.PlaceBid(ctx, alice, 2, 100)
		require.Error(t, err)
		require.NotErrorIs(t, err, domain.ErrInsufficientFunds)
		require.Contains(t, err.Error(), "database is locked")
		info := resolver.Info()
		require.Nil(t, info.FrontRunner)
		require.Zero(t, info.TotalPot)
		escrow.AssertExpectations(t)
	})

	t.Run("settle", func(t *testing.T) {
		clock := newTestClock(0)
		resolver := newChallengeResolver(t, resolvedSource(1), fundedEscrow(), clock)

		_, ok := resolver.Settle()
		require.False(t, ok)

		_, err := resolver.PullForwardedOutcome()
		require.NoError(t, err)
		_, err = resolver.PlaceBid(ctx, alice, 4, 100)
		require.NoError(t, err)

		clock.advance(config.FrontRunnerPeriod + 30)
		event, ok := resolver.Settle()
		require.True(t, ok)
		resolved, ok := event.(domain.ChallengeResolved)
		require.True(t, ok)
		require.Equal(t, domain.Outcome(4), resolved.Outcome)
		require.Equal(t, alice, resolved.Winner)
		require.Equal(t, domain.ResolvedByAuction, resolved.Via)
		require.Equal(t, config.FrontRunnerPeriod, resolved.ResolvedAt)
		require.Equal(t, config.FrontRunnerPeriod+30, resolved.Timestamp)

		_, ok = resolver.Settle()
		require.False(t, ok)
	})

	t.Run("from_events", func(t *testing.T) {
		clock := newTestClock(0)
		escrow := fundedEscrow()
		resolver := newChallengeResolver(t, resolvedSource(1), escrow, clock)
		_, err := resolver.PullForwardedOutcome()
		require.NoError(t, err)
		_, err = resolver.PlaceBid(ctx, alice, 2, 100)
		require.NoError(t, err)

		restored, err := domain.NewChallengeResolverFromEvents(
			resolver.Events(), resolvedSource(1), escrow, clock,
		)
		require.NoError(t, err)
		require.Equal(t, uint(3), restored.Version)
		require.Equal(t, resolver.Info(), restored.Info())

		_, err = restored.PlaceBid(ctx, bob, 3, 133)
		require.ErrorIs(t, err, domain.ErrStakeTooLow)
		_, err = restored.PlaceBid(ctx, bob, 3, 200)
		require.NoError(t, err)

		clock.advance(config.FrontRunnerPeriod)
		amount, _, err := restored.Withdraw(ctx, bob)
		require.NoError(t, err)
		require.Equal(t, domain.Stake(300), amount)

		_, err = domain.NewChallengeResolverFromEvents(nil, resolvedSource(1), escrow, clock)
		require.Error(t, err)
	})
}
