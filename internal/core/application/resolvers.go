package application

import (
	"context"
	"fmt"
	"sync"

	"github.com/ark-network/oracle/internal/core/domain"
	log "github.com/sirupsen/logrus"
)

type resolverEntry struct {
	id   string
	kind ResolverKind

	manual    *domain.ManualResolver
	majority  *domain.MajorityResolver
	challenge *domain.ChallengeResolver
	// majority resolvers are stateless, their only event is the creation.
	majorityEvents []domain.Event

	commitLock *sync.Mutex
	committed  int
}

func (e *resolverEntry) source() domain.OutcomeSource {
	switch e.kind {
	case ManualResolver:
		return e.manual
	case MajorityResolver:
		return e.majority
	default:
		return e.challenge
	}
}

func (e *resolverEntry) topic() string {
	switch e.kind {
	case ManualResolver:
		return domain.ManualResolverTopic
	case MajorityResolver:
		return domain.MajorityResolverTopic
	default:
		return domain.ChallengeResolverTopic
	}
}

func (e *resolverEntry) events() []domain.Event {
	switch e.kind {
	case ManualResolver:
		return e.manual.Events()
	case MajorityResolver:
		return append([]domain.Event{}, e.majorityEvents...)
	default:
		return e.challenge.Events()
	}
}

type resolversMap struct {
	lock      *sync.RWMutex
	resolvers map[string]*resolverEntry
}

func newResolversMap() *resolversMap {
	return &resolversMap{
		lock:      &sync.RWMutex{},
		resolvers: make(map[string]*resolverEntry),
	}
}

func (m *resolversMap) get(id string) (*resolverEntry, bool) {
	m.lock.RLock()
	defer m.lock.RUnlock()

	entry, ok := m.resolvers[id]
	return entry, ok
}

// add returns the entry already registered under the same id, if any.
func (m *resolversMap) add(entry *resolverEntry) *resolverEntry {
	m.lock.Lock()
	defer m.lock.Unlock()

	if existing, ok := m.resolvers[entry.id]; ok {
		return existing
	}
	m.resolvers[entry.id] = entry
	return entry
}

func (m *resolversMap) challenges() []*resolverEntry {
	m.lock.RLock()
	defer m.lock.RUnlock()

	entries := make([]*resolverEntry, 0)
	for _, entry := range m.resolvers {
		if entry.kind == ChallengeResolver {
			entries = append(entries, entry)
		}
	}
	return entries
}

func newEntry(id string, kind ResolverKind) *resolverEntry {
	return &resolverEntry{
		id:         id,
		kind:       kind,
		commitLock: &sync.Mutex{},
	}
}

// commit saves the events raised since the last successful commit. A failed
// save is logged and retried on the next commit, the in-memory state stays
// authoritative.
func (s *service) commit(ctx context.Context, entry *resolverEntry) {
	entry.commitLock.Lock()
	defer entry.commitLock.Unlock()

	events := entry.events()
	if len(events) <= entry.committed {
		return
	}

	if err := s.repoManager.Events().Save(
		ctx, entry.topic(), entry.id, events[entry.committed:],
	); err != nil {
		log.WithError(err).Warnf("failed to persist events of resolver %s", entry.id)
		return
	}
	entry.committed = len(events)
}

// getResolver looks up the resolver in memory first and falls back to
// rebuilding it from the event store.
func (s *service) getResolver(ctx context.Context, id string) (*resolverEntry, error) {
	if entry, ok := s.resolvers.get(id); ok {
		return entry, nil
	}
	return s.restoreResolver(ctx, id, 0)
}

func (s *service) restoreResolver(
	ctx context.Context, id string, depth int,
) (*resolverEntry, error) {
	if entry, ok := s.resolvers.get(id); ok {
		return entry, nil
	}
	if depth > maxRestoreDepth {
		return nil, fmt.Errorf("resolver %s nested too deep", id)
	}

	repo := s.repoManager.Events()

	events, err := repo.Load(ctx, domain.ManualResolverTopic, id)
	if err != nil {
		return nil, err
	}
	if len(events) > 0 {
		manual, err := domain.NewManualResolverFromEvents(events, s.clock)
		if err != nil {
			return nil, fmt.Errorf("failed to restore resolver %s: %w", id, err)
		}
		entry := newEntry(id, ManualResolver)
		entry.manual = manual
		entry.committed = len(events)
		return s.resolvers.add(entry), nil
	}

	events, err = repo.Load(ctx, domain.MajorityResolverTopic, id)
	if err != nil {
		return nil, err
	}
	if len(events) > 0 {
		created, ok := events[0].(domain.MajorityResolverCreated)
		if !ok {
			return nil, fmt.Errorf("failed to restore resolver %s: invalid events", id)
		}
		children := make([]domain.OutcomeSource, 0, len(created.Children))
		for _, childId := range created.Children {
			child, err := s.restoreResolver(ctx, childId, depth+1)
			if err != nil {
				return nil, err
			}
			children = append(children, child.source())
		}
		majority, err := domain.NewMajorityResolver(id, children)
		if err != nil {
			return nil, fmt.Errorf("failed to restore resolver %s: %w", id, err)
		}
		entry := newEntry(id, MajorityResolver)
		entry.majority = majority
		entry.majorityEvents = events
		entry.committed = len(events)
		return s.resolvers.add(entry), nil
	}

	events, err = repo.Load(ctx, domain.ChallengeResolverTopic, id)
	if err != nil {
		return nil, err
	}
	if len(events) > 0 {
		created, ok := events[0].(domain.ChallengeResolverCreated)
		if !ok {
			return nil, fmt.Errorf("failed to restore resolver %s: invalid events", id)
		}
		upstream, err := s.restoreResolver(ctx, created.Upstream, depth+1)
		if err != nil {
			return nil, err
		}
		challenge, err := domain.NewChallengeResolverFromEvents(
			events, upstream.source(), s.ledger, s.clock,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to restore resolver %s: %w", id, err)
		}
		entry := newEntry(id, ChallengeResolver)
		entry.challenge = challenge
		entry.committed = len(events)
		return s.resolvers.add(entry), nil
	}

	return nil, errResolverNotFound{id}
}
