package scenario

import (
	"context"
	"errors"
	"fmt"

	"github.com/ark-network/oracle/internal/core/application"
	"github.com/ark-network/oracle/internal/core/domain"
	"github.com/ark-network/oracle/internal/core/ports"
	manualclock "github.com/ark-network/oracle/internal/infrastructure/clock/manual"
	"github.com/ark-network/oracle/internal/infrastructure/db"
	inmemoryledger "github.com/ark-network/oracle/internal/infrastructure/ledger/inmemory"
	log "github.com/sirupsen/logrus"
)

var errorsByName = map[string]error{
	"not_resolved":           domain.ErrNotResolved,
	"upstream_not_resolved":  domain.ErrUpstreamNotResolved,
	"forward_not_pulled":     domain.ErrForwardNotPulled,
	"forward_already_pulled": domain.ErrForwardAlreadyPulled,
	"already_resolved":       domain.ErrAlreadyResolved,
	"stake_too_low":          domain.ErrStakeTooLow,
	"insufficient_funds":     domain.ErrInsufficientFunds,
	"not_winner":             domain.ErrNotWinner,
	"already_paid":           domain.ErrAlreadyPaid,
	"unauthorized":           domain.ErrUnauthorized,
	"outcome_already_set":    domain.ErrOutcomeAlreadySet,
	"no_children":            domain.ErrNoChildren,
	"custodian_account":      ports.ErrCustodianAccount,
	"not_found":              application.ErrResolverNotFound,
	"wrong_kind":             application.ErrWrongResolverKind,
}

// StepResult reports what a step did, Detail is a human readable summary.
type StepResult struct {
	Index  int
	Action string
	Detail string
	Err    error
}

type Report struct {
	Name      string
	Resolvers map[string]string
	Steps     []StepResult
}

// Run executes the scenario on a fresh in-memory service and stops at the
// first step whose result doesn't match its expectations.
func Run(ctx context.Context, s *Scenario) (*Report, error) {
	repo, err := db.NewService(db.ServiceConfig{
		EventStoreType:   "badger",
		EventStoreConfig: []interface{}{"", nil},
	})
	if err != nil {
		return nil, err
	}
	ledger, err := inmemoryledger.NewLedger()
	if err != nil {
		return nil, err
	}
	clock := manualclock.NewClock(s.StartTime, ports.UnixTime)

	svc, err := application.NewService(0, s.MarginRule, clock, nil, repo, ledger)
	if err != nil {
		return nil, err
	}
	if err := svc.Start(); err != nil {
		return nil, err
	}
	defer svc.Stop()

	r := &runner{
		svc:   svc,
		clock: clock,
		names: make(map[string]string),
	}
	report := &Report{
		Name:      s.Name,
		Resolvers: r.names,
		Steps:     make([]StepResult, 0, len(s.Steps)),
	}

	for i, step := range s.Steps {
		detail, err := r.run(ctx, step)
		result := StepResult{i, step.Action, detail, err}
		report.Steps = append(report.Steps, result)

		if err := check(step, err); err != nil {
			return report, fmt.Errorf("step %d (%s): %w", i, step.Action, err)
		}
		log.Debugf("scenario %s step %d: %s %s", s.Name, i, step.Action, detail)
	}
	return report, nil
}

type runner struct {
	svc   application.Service
	clock *manualclock.Clock
	names map[string]string
}

// ref maps a scenario name to the resolver id, other strings are returned
// as they are.
func (r *runner) ref(name string) string {
	if id, ok := r.names[name]; ok {
		return id
	}
	return name
}

func (r *runner) run(ctx context.Context, step Step) (string, error) {
	switch step.Action {
	case ActionCreateManual:
		id, err := r.svc.CreateManualResolver(ctx, step.Owner, step.QuestionRef)
		if err != nil {
			return "", err
		}
		r.names[step.As] = id
		return id, nil

	case ActionCreateMajority:
		children := make([]string, 0, len(step.Children))
		for _, child := range step.Children {
			children = append(children, r.ref(child))
		}
		id, err := r.svc.CreateMajorityResolver(ctx, children)
		if err != nil {
			return "", err
		}
		r.names[step.As] = id
		return id, nil

	case ActionCreateChallenge:
		id, err := r.svc.CreateChallengeResolver(ctx, r.ref(step.Upstream), domain.ChallengeConfig{
			SpreadMultiplier:  step.SpreadMultiplier,
			ChallengeWindow:   step.ChallengeWindow,
			MinChallengeStake: domain.Stake(step.MinChallengeStake),
			FrontRunnerPeriod: step.FrontRunnerPeriod,
			MarginRule:        step.MarginRule,
		})
		if err != nil {
			return "", err
		}
		r.names[step.As] = id
		return id, nil

	case ActionSetOutcome:
		return "", r.svc.SetOutcome(
			ctx, r.ref(step.Resolver), step.Caller, domain.Outcome(step.Outcome),
		)

	case ActionReplaceOwner:
		return "", r.svc.ReplaceOwner(ctx, r.ref(step.Resolver), step.Caller, step.NewOwner)

	case ActionPull:
		outcome, err := r.svc.PullForwardedOutcome(ctx, r.ref(step.Resolver))
		if err != nil {
			return "", err
		}
		if err := expectOutcome(step.Expect, true, outcome); err != nil {
			return "", err
		}
		return fmt.Sprintf("forwarded outcome %d", outcome), nil

	case ActionBid:
		return "", r.svc.PlaceBid(
			ctx, r.ref(step.Resolver), step.Bidder,
			domain.Outcome(step.Outcome), domain.Stake(step.Stake),
		)

	case ActionWithdraw:
		amount, err := r.svc.Withdraw(ctx, r.ref(step.Resolver), step.Caller)
		if err != nil {
			return "", err
		}
		if step.Expect != nil && step.Expect.Amount != nil &&
			uint64(amount) != *step.Expect.Amount {
			return "", fmt.Errorf("expected amount %d, got %d", *step.Expect.Amount, amount)
		}
		return fmt.Sprintf("withdrawn %d", amount), nil

	case ActionOutcome:
		info, err := r.svc.GetOutcome(ctx, r.ref(step.Resolver))
		if err != nil {
			return "", err
		}
		var outcome domain.Outcome
		if info.Outcome != nil {
			outcome = *info.Outcome
		}
		if err := expectOutcome(step.Expect, info.IsOutcomeSet, outcome); err != nil {
			return "", err
		}
		if !info.IsOutcomeSet {
			return "not resolved", nil
		}
		return fmt.Sprintf("outcome %d", outcome), nil

	case ActionChallenge:
		info, err := r.svc.GetChallengeInfo(ctx, r.ref(step.Resolver))
		if err != nil {
			return "", err
		}
		if err := expectChallenge(step.Expect, info); err != nil {
			return "", err
		}
		return fmt.Sprintf("%s pot %d", info.Stage, info.TotalPot), nil

	case ActionDeposit:
		return "", r.svc.Deposit(ctx, step.Account, domain.Stake(step.Amount))

	case ActionApprove:
		return "", r.svc.Approve(
			ctx, step.Account, r.ref(step.Spender), domain.Stake(step.Amount),
		)

	case ActionBalance:
		balance, err := r.svc.GetBalance(ctx, step.Account)
		if err != nil {
			return "", err
		}
		if step.Expect != nil && step.Expect.Balance != nil &&
			uint64(balance) != *step.Expect.Balance {
			return "", fmt.Errorf("expected balance %d, got %d", *step.Expect.Balance, balance)
		}
		return fmt.Sprintf("balance %d", balance), nil

	case ActionAdvance:
		if err := r.clock.Advance(step.Delta); err != nil {
			return "", err
		}
		return fmt.Sprintf("now %d", r.clock.Now()), nil

	default:
		return "", fmt.Errorf("unknown action %q", step.Action)
	}
}

func check(step Step, err error) error {
	wantName := ""
	if step.Expect != nil {
		wantName = step.Expect.Error
	}

	if wantName == "" {
		return err
	}
	if err == nil {
		return fmt.Errorf("expected error %s, got none", wantName)
	}
	if !errors.Is(err, errorsByName[wantName]) {
		return fmt.Errorf("expected error %s, got %w", wantName, err)
	}
	return nil
}

func expectOutcome(expect *Expect, resolved bool, outcome domain.Outcome) error {
	if expect == nil {
		return nil
	}
	if expect.Resolved != nil && *expect.Resolved != resolved {
		return fmt.Errorf("expected resolved %t, got %t", *expect.Resolved, resolved)
	}
	if expect.Outcome != nil {
		if !resolved {
			return fmt.Errorf("expected outcome %d, got none", *expect.Outcome)
		}
		if uint64(outcome) != *expect.Outcome {
			return fmt.Errorf("expected outcome %d, got %d", *expect.Outcome, outcome)
		}
	}
	return nil
}

func expectChallenge(expect *Expect, info *domain.ChallengeInfo) error {
	if expect == nil {
		return nil
	}
	if expect.Stage != "" && expect.Stage != stageName(info.Stage) {
		return fmt.Errorf("expected stage %s, got %s", expect.Stage, stageName(info.Stage))
	}
	if expect.Pot != nil && uint64(info.TotalPot) != *expect.Pot {
		return fmt.Errorf("expected pot %d, got %d", *expect.Pot, info.TotalPot)
	}
	if expect.Winner != "" && expect.Winner != info.Winner {
		return fmt.Errorf("expected winner %s, got %s", expect.Winner, info.Winner)
	}

	var outcome domain.Outcome
	if info.Outcome != nil {
		outcome = *info.Outcome
	}
	return expectOutcome(expect, info.Outcome != nil, outcome)
}

func stageName(stage domain.ChallengeStage) string {
	switch stage {
	case domain.ChallengeForwardPulledStage:
		return "forward_pulled"
	case domain.ChallengeChallengedStage:
		return "challenged"
	case domain.ChallengeResolvedStage:
		return "resolved"
	default:
		return "pending"
	}
}
