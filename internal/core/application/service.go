package application

import (
	"context"
	"errors"
	"fmt"

	"github.com/ark-network/oracle/internal/core/domain"
	"github.com/ark-network/oracle/internal/core/ports"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

const maxRestoreDepth = 64

type service struct {
	settleInterval int64
	marginRule     string

	clock       ports.ClockService
	scheduler   ports.SchedulerService
	repoManager ports.RepoManager
	ledger      ports.Ledger
	resolvers   *resolversMap
}

// NewService returns the application service. The scheduler is optional,
// without it challenge resolutions are only recorded when an operation
// observes them.
func NewService(
	settleInterval int64, marginRule string,
	clockSvc ports.ClockService, schedulerSvc ports.SchedulerService,
	repoManager ports.RepoManager, ledger ports.Ledger,
) (Service, error) {
	if clockSvc == nil {
		return nil, fmt.Errorf("missing clock service")
	}
	if repoManager == nil {
		return nil, fmt.Errorf("missing repo manager")
	}
	if ledger == nil {
		return nil, fmt.Errorf("missing ledger")
	}
	if _, err := domain.NewBidMargin(marginRule, 1); err != nil {
		return nil, err
	}

	return &service{
		settleInterval: settleInterval,
		marginRule:     marginRule,
		clock:          clockSvc,
		scheduler:      schedulerSvc,
		repoManager:    repoManager,
		ledger:         ledger,
		resolvers:      newResolversMap(),
	}, nil
}

func (s *service) Start() error {
	if err := s.clock.Start(); err != nil {
		return err
	}

	repo := s.repoManager.Events()
	for _, topic := range []string{
		domain.ManualResolverTopic,
		domain.MajorityResolverTopic,
		domain.ChallengeResolverTopic,
	} {
		repo.RegisterEventsHandler(topic, logEvents)
	}

	if s.scheduler == nil {
		return nil
	}
	if err := s.scheduler.ScheduleTask(
		s.settleInterval, false, s.settleChallenges,
	); err != nil {
		return err
	}
	s.scheduler.Start()
	return nil
}

func (s *service) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
		log.Debug("stopped settle watcher")
	}
	s.clock.Stop()
	s.repoManager.Events().ClearRegisteredHandlers()
	s.repoManager.Close()
	log.Debug("closed connection to event store")
	s.ledger.Close()
	log.Debug("closed connection to ledger")
}

func (s *service) CreateManualResolver(
	ctx context.Context, owner, questionRef string,
) (string, error) {
	resolver, err := domain.NewManualResolver(
		uuid.New().String(), owner, questionRef, s.clock,
	)
	if err != nil {
		return "", err
	}

	entry := newEntry(resolver.Id, ManualResolver)
	entry.manual = resolver
	s.resolvers.add(entry)
	s.commit(ctx, entry)

	log.Debugf("created manual resolver %s owned by %s", resolver.Id, owner)
	return resolver.Id, nil
}

func (s *service) CreateMajorityResolver(
	ctx context.Context, childIds []string,
) (string, error) {
	if len(childIds) <= 0 {
		return "", domain.ErrNoChildren
	}

	children := make([]domain.OutcomeSource, 0, len(childIds))
	for _, childId := range childIds {
		child, err := s.getResolver(ctx, childId)
		if err != nil {
			return "", err
		}
		children = append(children, child.source())
	}

	id := uuid.New().String()
	resolver, err := domain.NewMajorityResolver(id, children)
	if err != nil {
		return "", err
	}

	entry := newEntry(id, MajorityResolver)
	entry.majority = resolver
	entry.majorityEvents = []domain.Event{
		domain.MajorityResolverCreated{
			MajorityResolverEvent: domain.MajorityResolverEvent{
				Id: id, Type: domain.EventTypeMajorityResolverCreated,
			},
			Children:  append([]string{}, childIds...),
			Timestamp: s.clock.Now(),
		},
	}
	s.resolvers.add(entry)
	s.commit(ctx, entry)

	log.Debugf("created majority resolver %s over %d sources", id, len(childIds))
	return id, nil
}

func (s *service) CreateChallengeResolver(
	ctx context.Context, upstreamId string, config domain.ChallengeConfig,
) (string, error) {
	upstream, err := s.getResolver(ctx, upstreamId)
	if err != nil {
		return "", err
	}
	if config.MarginRule == "" {
		config.MarginRule = s.marginRule
	}

	resolver, err := domain.NewChallengeResolver(
		uuid.New().String(), upstreamId, upstream.source(), s.ledger, s.clock, config,
	)
	if err != nil {
		return "", err
	}

	entry := newEntry(resolver.Id, ChallengeResolver)
	entry.challenge = resolver
	s.resolvers.add(entry)
	s.commit(ctx, entry)

	log.Debugf("created challenge resolver %s forwarding %s", resolver.Id, upstreamId)
	return resolver.Id, nil
}

func (s *service) GetOutcome(ctx context.Context, id string) (*OutcomeInfo, error) {
	entry, err := s.getResolver(ctx, id)
	if err != nil {
		return nil, err
	}

	info := &OutcomeInfo{Id: id, Kind: entry.kind}
	outcome, err := entry.source().GetOutcome()
	if err != nil {
		if errors.Is(err, domain.ErrNotResolved) {
			return info, nil
		}
		return nil, err
	}
	info.IsOutcomeSet = true
	info.Outcome = &outcome
	return info, nil
}

func (s *service) GetEvents(ctx context.Context, id string) ([]domain.Event, error) {
	entry, err := s.getResolver(ctx, id)
	if err != nil {
		return nil, err
	}
	if entry.kind == ChallengeResolver {
		s.settle(ctx, entry)
	}
	return entry.events(), nil
}

func (s *service) SetOutcome(
	ctx context.Context, id, caller string, outcome domain.Outcome,
) error {
	entry, err := s.getKind(ctx, id, ManualResolver)
	if err != nil {
		return err
	}

	if _, err := entry.manual.SetOutcome(caller, outcome); err != nil {
		return err
	}
	s.commit(ctx, entry)

	log.Debugf("outcome of resolver %s set to %d", id, outcome)
	return nil
}

func (s *service) ReplaceOwner(ctx context.Context, id, caller, newOwner string) error {
	entry, err := s.getKind(ctx, id, ManualResolver)
	if err != nil {
		return err
	}

	if _, err := entry.manual.ReplaceOwner(caller, newOwner); err != nil {
		return err
	}
	s.commit(ctx, entry)

	log.Debugf("owner of resolver %s replaced by %s", id, newOwner)
	return nil
}

func (s *service) PullForwardedOutcome(ctx context.Context, id string) (domain.Outcome, error) {
	entry, err := s.getKind(ctx, id, ChallengeResolver)
	if err != nil {
		return 0, err
	}

	event, err := entry.challenge.PullForwardedOutcome()
	if err != nil {
		return 0, err
	}
	s.commit(ctx, entry)

	outcome := event.(domain.ForwardPulled).Outcome
	log.Debugf("resolver %s pulled forwarded outcome %d", id, outcome)
	return outcome, nil
}

func (s *service) PlaceBid(
	ctx context.Context, id, bidder string, outcome domain.Outcome, stake domain.Stake,
) error {
	entry, err := s.getKind(ctx, id, ChallengeResolver)
	if err != nil {
		return err
	}

	_, err = entry.challenge.PlaceBid(ctx, bidder, outcome, stake)
	// a failed bid may still have recorded the resolution.
	s.commit(ctx, entry)
	if err != nil {
		return err
	}

	log.Debugf(
		"resolver %s accepted bid of %d on outcome %d from %s",
		id, stake, outcome, bidder,
	)
	return nil
}

func (s *service) Withdraw(ctx context.Context, id, caller string) (domain.Stake, error) {
	entry, err := s.getKind(ctx, id, ChallengeResolver)
	if err != nil {
		return 0, err
	}

	amount, _, err := entry.challenge.Withdraw(ctx, caller)
	s.commit(ctx, entry)
	if err != nil {
		return 0, err
	}

	log.Debugf("resolver %s paid %d to %s", id, amount, caller)
	return amount, nil
}

func (s *service) GetChallengeInfo(
	ctx context.Context, id string,
) (*domain.ChallengeInfo, error) {
	entry, err := s.getKind(ctx, id, ChallengeResolver)
	if err != nil {
		return nil, err
	}

	s.settle(ctx, entry)
	info := entry.challenge.Info()
	return &info, nil
}

func (s *service) Deposit(ctx context.Context, account string, amount domain.Stake) error {
	return s.ledger.Deposit(ctx, account, amount)
}

func (s *service) Approve(
	ctx context.Context, owner, spender string, amount domain.Stake,
) error {
	return s.ledger.Approve(ctx, owner, spender, amount)
}

func (s *service) GetBalance(ctx context.Context, account string) (domain.Stake, error) {
	return s.ledger.Balance(ctx, account)
}

func (s *service) GetAllowance(
	ctx context.Context, owner, spender string,
) (domain.Stake, error) {
	return s.ledger.Allowance(ctx, owner, spender)
}

func (s *service) getKind(
	ctx context.Context, id string, kind ResolverKind,
) (*resolverEntry, error) {
	entry, err := s.getResolver(ctx, id)
	if err != nil {
		return nil, err
	}
	if entry.kind != kind {
		return nil, errWrongResolverKind{id, entry.kind, kind}
	}
	return entry, nil
}

func (s *service) settle(ctx context.Context, entry *resolverEntry) {
	if _, ok := entry.challenge.Settle(); ok {
		log.Debugf("challenge resolver %s resolved", entry.id)
	}
	s.commit(ctx, entry)
}

func logEvents(events []domain.Event) {
	for _, event := range events {
		log.WithFields(log.Fields{
			"topic": event.GetTopic(),
			"id":    event.GetId(),
			"type":  event.GetType().String(),
		}).Info("resolver event persisted")
	}
}
