package domain

import (
	"context"
	"fmt"
	"math"
	"math/bits"
	"sync"
)

const (
	ChallengePendingStage ChallengeStage = iota
	ChallengeForwardPulledStage
	ChallengeChallengedStage
	ChallengeResolvedStage
)

type ChallengeStage int

func (s ChallengeStage) String() string {
	switch s {
	case ChallengeForwardPulledStage:
		return "CHALLENGE_FORWARD_PULLED_STAGE"
	case ChallengeChallengedStage:
		return "CHALLENGE_CHALLENGED_STAGE"
	case ChallengeResolvedStage:
		return "CHALLENGE_RESOLVED_STAGE"
	default:
		return "CHALLENGE_PENDING_STAGE"
	}
}

type ResolutionPath string

const (
	ResolvedByForward ResolutionPath = "forward"
	ResolvedByAuction ResolutionPath = "auction"
)

// ChallengeConfig is fixed at creation. Durations are expressed in the unit
// of the clock the resolver is built with.
type ChallengeConfig struct {
	SpreadMultiplier  uint64
	ChallengeWindow   int64
	MinChallengeStake Stake
	FrontRunnerPeriod int64
	MarginRule        string
}

func (c ChallengeConfig) validate() error {
	if c.SpreadMultiplier < 1 {
		return fmt.Errorf("spread multiplier must be at least 1")
	}
	if c.ChallengeWindow < 0 {
		return fmt.Errorf("challenge window must not be negative")
	}
	if c.FrontRunnerPeriod < 0 {
		return fmt.Errorf("front runner period must not be negative")
	}
	return nil
}

type Bid struct {
	Bidder    string
	Outcome   Outcome
	Amount    Stake
	Timestamp int64
}

// ChallengeInfo is a point-in-time view of a ChallengeResolver.
type ChallengeInfo struct {
	Id               string
	Upstream         string
	Config           ChallengeConfig
	Stage            ChallengeStage
	ForwardedOutcome *Outcome
	ForwardedAt      int64
	FrontRunner      *Bid
	TotalPot         Stake
	Outcome          *Outcome
	Winner           string
	WinnerPaid       bool
	Now              int64
}

// ChallengeResolver forwards the outcome of an upstream source unless it is
// challenged within the challenge window. A challenge opens an overbidding
// auction: every bid must beat the previous one by the configured margin and
// the last bid standing for a full front-runner period wins the whole pot.
//
// Resolution is never driven by timers. Every operation snapshots the clock
// once and derives the stage from (state, now). Mutating operations record
// a ChallengeResolved event the first time they observe the resolution.
type ChallengeResolver struct {
	Id       string
	Upstream string
	Version  uint

	config   ChallengeConfig
	margin   BidMargin
	upstream OutcomeSource
	escrow   Escrow
	clock    Clock

	forwardPulled    bool
	forwardedOutcome Outcome
	forwardedAt      int64
	currentBid       *Bid
	totalPot         Stake
	resolved         bool
	finalOutcome     Outcome
	winner           string
	winnerPaid       bool

	lock    *sync.Mutex
	changes []Event
}

func NewChallengeResolver(
	id, upstreamId string, upstream OutcomeSource, escrow Escrow, clock Clock,
	config ChallengeConfig,
) (*ChallengeResolver, error) {
	if id == "" {
		return nil, fmt.Errorf("missing id")
	}
	if upstream == nil {
		return nil, fmt.Errorf("missing forwarded source")
	}
	if escrow == nil {
		return nil, fmt.Errorf("missing escrow")
	}
	if clock == nil {
		return nil, fmt.Errorf("missing clock")
	}
	if err := config.validate(); err != nil {
		return nil, err
	}
	margin, err := NewBidMargin(config.MarginRule, config.SpreadMultiplier)
	if err != nil {
		return nil, err
	}

	r := &ChallengeResolver{
		margin:   margin,
		upstream: upstream,
		escrow:   escrow,
		clock:    clock,
		lock:     &sync.Mutex{},
		changes:  make([]Event, 0),
	}
	r.raise(ChallengeResolverCreated{
		ChallengeResolverEvent: ChallengeResolverEvent{
			Id: id, Type: EventTypeChallengeResolverCreated,
		},
		Upstream:  upstreamId,
		Config:    config,
		Timestamp: clock.Now(),
	})
	return r, nil
}

func NewChallengeResolverFromEvents(
	events []Event, upstream OutcomeSource, escrow Escrow, clock Clock,
) (*ChallengeResolver, error) {
	if len(events) <= 0 {
		return nil, fmt.Errorf("missing events")
	}
	created, ok := events[0].(ChallengeResolverCreated)
	if !ok {
		return nil, fmt.Errorf("invalid events, first one must be creation")
	}
	margin, err := NewBidMargin(created.Config.MarginRule, created.Config.SpreadMultiplier)
	if err != nil {
		return nil, err
	}

	r := &ChallengeResolver{
		margin:   margin,
		upstream: upstream,
		escrow:   escrow,
		clock:    clock,
		lock:     &sync.Mutex{},
	}
	for _, event := range events {
		r.on(event, true)
	}
	r.changes = append([]Event{}, events...)

	return r, nil
}

// PullForwardedOutcome snapshots the upstream outcome and opens the
// challenge window.
func (r *ChallengeResolver) PullForwardedOutcome() (Event, error) {
	r.lock.Lock()
	defer r.lock.Unlock()

	now := r.clock.Now()

	if r.forwardPulled {
		return nil, ErrForwardAlreadyPulled
	}
	if !r.upstream.IsOutcomeSet() {
		return nil, ErrUpstreamNotResolved
	}
	outcome, err := r.upstream.GetOutcome()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUpstreamNotResolved, err)
	}

	event := ForwardPulled{
		ChallengeResolverEvent: ChallengeResolverEvent{Id: r.Id, Type: EventTypeForwardPulled},
		Outcome:                outcome,
		Timestamp:              now,
	}
	r.raise(event)
	return event, nil
}

// PlaceBid escrows stake from the bidder and makes them the front-runner.
// The debit happens before any state change, a failed debit leaves the
// resolver untouched.
func (r *ChallengeResolver) PlaceBid(
	ctx context.Context, bidder string, outcome Outcome, stake Stake,
) (Event, error) {
	r.lock.Lock()
	defer r.lock.Unlock()

	now := r.clock.Now()
	r.settle(now)

	if !r.forwardPulled {
		return nil, ErrForwardNotPulled
	}
	if r.resolved {
		return nil, ErrAlreadyResolved
	}
	if bidder == "" {
		return nil, fmt.Errorf("missing bidder")
	}
	if stake == 0 {
		return nil, fmt.Errorf("%w: stake must be positive", ErrStakeTooLow)
	}
	if r.currentBid == nil {
		if stake < r.config.MinChallengeStake {
			return nil, fmt.Errorf(
				"%w: first bid must be at least %d", ErrStakeTooLow, r.config.MinChallengeStake,
			)
		}
	} else if !r.margin.Accepts(r.currentBid.Amount, stake) {
		return nil, fmt.Errorf(
			"%w: %d does not beat %d with margin %s",
			ErrStakeTooLow, stake, r.currentBid.Amount, r.margin,
		)
	}
	pot, carry := bits.Add64(uint64(r.totalPot), uint64(stake), 0)
	if carry != 0 {
		return nil, fmt.Errorf("stake overflows pot")
	}

	if err := r.escrow.Debit(ctx, r.Id, bidder, stake); err != nil {
		return nil, fmt.Errorf("failed to escrow stake: %w", err)
	}

	event := BidAccepted{
		ChallengeResolverEvent: ChallengeResolverEvent{Id: r.Id, Type: EventTypeBidAccepted},
		Bidder:                 bidder,
		Outcome:                outcome,
		Amount:                 stake,
		TotalPot:               Stake(pot),
		Timestamp:              now,
	}
	r.raise(event)
	return event, nil
}

// Withdraw pays the whole pot to the auction winner, once.
func (r *ChallengeResolver) Withdraw(
	ctx context.Context, caller string,
) (Stake, Event, error) {
	r.lock.Lock()
	defer r.lock.Unlock()

	now := r.clock.Now()
	r.settle(now)

	if !r.resolved {
		return 0, nil, ErrNotResolved
	}
	if r.winner == "" || caller != r.winner {
		return 0, nil, ErrNotWinner
	}
	if r.winnerPaid {
		return 0, nil, ErrAlreadyPaid
	}

	amount := r.totalPot
	if err := r.escrow.Credit(ctx, r.Id, caller, amount); err != nil {
		return 0, nil, fmt.Errorf("failed to credit winnings: %w", err)
	}

	event := WinningsWithdrawn{
		ChallengeResolverEvent: ChallengeResolverEvent{Id: r.Id, Type: EventTypeWinningsWithdrawn},
		Winner:                 caller,
		Amount:                 amount,
		Timestamp:              now,
	}
	r.raise(event)
	return amount, event, nil
}

// Settle records the resolution if it holds and was not recorded yet.
func (r *ChallengeResolver) Settle() (Event, bool) {
	r.lock.Lock()
	defer r.lock.Unlock()

	return r.settle(r.clock.Now())
}

func (r *ChallengeResolver) IsOutcomeSet() bool {
	r.lock.Lock()
	defer r.lock.Unlock()

	_, _, _, _, ok := r.resolution(r.clock.Now())
	return ok
}

func (r *ChallengeResolver) GetOutcome() (Outcome, error) {
	r.lock.Lock()
	defer r.lock.Unlock()

	outcome, _, _, _, ok := r.resolution(r.clock.Now())
	if !ok {
		return 0, ErrNotResolved
	}
	return outcome, nil
}

func (r *ChallengeResolver) Stage() ChallengeStage {
	r.lock.Lock()
	defer r.lock.Unlock()

	return r.stage(r.clock.Now())
}

func (r *ChallengeResolver) Info() ChallengeInfo {
	r.lock.Lock()
	defer r.lock.Unlock()

	now := r.clock.Now()
	info := ChallengeInfo{
		Id:          r.Id,
		Upstream:    r.Upstream,
		Config:      r.config,
		Stage:       r.stage(now),
		ForwardedAt: r.forwardedAt,
		TotalPot:    r.totalPot,
		WinnerPaid:  r.winnerPaid,
		Now:         now,
	}
	if r.forwardPulled {
		forwarded := r.forwardedOutcome
		info.ForwardedOutcome = &forwarded
	}
	if r.currentBid != nil {
		bid := *r.currentBid
		info.FrontRunner = &bid
	}
	if outcome, winner, _, _, ok := r.resolution(now); ok {
		info.Outcome = &outcome
		info.Winner = winner
	}
	return info
}

func (r *ChallengeResolver) Events() []Event {
	r.lock.Lock()
	defer r.lock.Unlock()

	return append([]Event{}, r.changes...)
}

func (r *ChallengeResolver) stage(now int64) ChallengeStage {
	if _, _, _, _, ok := r.resolution(now); ok {
		return ChallengeResolvedStage
	}
	if r.currentBid != nil {
		return ChallengeChallengedStage
	}
	if r.forwardPulled {
		return ChallengeForwardPulledStage
	}
	return ChallengePendingStage
}

// resolution is a pure function of the current state and now.
func (r *ChallengeResolver) resolution(now int64) (
	outcome Outcome, winner string, resolvedAt int64, via ResolutionPath, ok bool,
) {
	if r.resolved {
		via = ResolvedByForward
		if r.winner != "" {
			via = ResolvedByAuction
		}
		return r.finalOutcome, r.winner, 0, via, true
	}
	if !r.forwardPulled {
		return
	}
	if r.currentBid == nil {
		deadline := addSaturating(r.forwardedAt, r.config.ChallengeWindow)
		if now >= deadline {
			return r.forwardedOutcome, "", deadline, ResolvedByForward, true
		}
		return
	}
	deadline := addSaturating(r.currentBid.Timestamp, r.config.FrontRunnerPeriod)
	if now >= deadline {
		return r.currentBid.Outcome, r.currentBid.Bidder, deadline, ResolvedByAuction, true
	}
	return
}

func (r *ChallengeResolver) settle(now int64) (Event, bool) {
	if r.resolved {
		return nil, false
	}
	outcome, winner, resolvedAt, via, ok := r.resolution(now)
	if !ok {
		return nil, false
	}

	event := ChallengeResolved{
		ChallengeResolverEvent: ChallengeResolverEvent{Id: r.Id, Type: EventTypeChallengeResolved},
		Outcome:                outcome,
		Winner:                 winner,
		Via:                    via,
		ResolvedAt:             resolvedAt,
		Timestamp:              now,
	}
	r.raise(event)
	return event, true
}

func (r *ChallengeResolver) on(event Event, replayed bool) {
	switch e := event.(type) {
	case ChallengeResolverCreated:
		r.Id = e.Id
		r.Upstream = e.Upstream
		r.config = e.Config
	case ForwardPulled:
		r.forwardPulled = true
		r.forwardedOutcome = e.Outcome
		r.forwardedAt = e.Timestamp
	case BidAccepted:
		r.currentBid = &Bid{
			Bidder:    e.Bidder,
			Outcome:   e.Outcome,
			Amount:    e.Amount,
			Timestamp: e.Timestamp,
		}
		r.totalPot = e.TotalPot
	case ChallengeResolved:
		r.resolved = true
		r.finalOutcome = e.Outcome
		r.winner = e.Winner
	case WinningsWithdrawn:
		r.winnerPaid = true
		r.totalPot = 0
	}

	if replayed {
		r.Version++
	}
}

func (r *ChallengeResolver) raise(event Event) {
	if r.changes == nil {
		r.changes = make([]Event, 0)
	}
	r.changes = append(r.changes, event)
	r.on(event, false)
}

func addSaturating(a, b int64) int64 {
	if b > 0 && a > math.MaxInt64-b {
		return math.MaxInt64
	}
	return a + b
}
