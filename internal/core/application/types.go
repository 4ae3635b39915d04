package application

import (
	"context"

	"github.com/ark-network/oracle/internal/core/domain"
)

type ResolverKind string

const (
	ManualResolver    ResolverKind = "manual"
	MajorityResolver  ResolverKind = "majority"
	ChallengeResolver ResolverKind = "challenge"
)

type Service interface {
	Start() error
	Stop()

	CreateManualResolver(ctx context.Context, owner, questionRef string) (string, error)
	CreateMajorityResolver(ctx context.Context, children []string) (string, error)
	CreateChallengeResolver(
		ctx context.Context, upstream string, config domain.ChallengeConfig,
	) (string, error)

	GetOutcome(ctx context.Context, id string) (*OutcomeInfo, error)
	GetEvents(ctx context.Context, id string) ([]domain.Event, error)

	SetOutcome(ctx context.Context, id, caller string, outcome domain.Outcome) error
	ReplaceOwner(ctx context.Context, id, caller, newOwner string) error

	PullForwardedOutcome(ctx context.Context, id string) (domain.Outcome, error)
	PlaceBid(
		ctx context.Context, id, bidder string, outcome domain.Outcome, stake domain.Stake,
	) error
	Withdraw(ctx context.Context, id, caller string) (domain.Stake, error)
	GetChallengeInfo(ctx context.Context, id string) (*domain.ChallengeInfo, error)

	Deposit(ctx context.Context, account string, amount domain.Stake) error
	Approve(ctx context.Context, owner, spender string, amount domain.Stake) error
	GetBalance(ctx context.Context, account string) (domain.Stake, error)
	GetAllowance(ctx context.Context, owner, spender string) (domain.Stake, error)
}

type OutcomeInfo struct {
	Id           string
	Kind         ResolverKind
	IsOutcomeSet bool
	Outcome      *domain.Outcome
}
