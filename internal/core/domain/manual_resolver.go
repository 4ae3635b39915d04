package domain

import (
	"fmt"
	"sync"
)

// ManualResolver lets a single owner set the outcome once. Ownership can be
// handed over, the question reference never changes.
type ManualResolver struct {
	Id          string
	QuestionRef string
	Version     uint

	owner   string
	outcome *Outcome
	clock   Clock
	lock    *sync.Mutex
	changes []Event
}

func NewManualResolver(
	id, owner, questionRef string, clock Clock,
) (*ManualResolver, error) {
	if id == "" {
		return nil, fmt.Errorf("missing id")
	}
	if owner == "" {
		return nil, fmt.Errorf("missing owner")
	}
	if clock == nil {
		return nil, fmt.Errorf("missing clock")
	}

	r := &ManualResolver{
		clock:   clock,
		lock:    &sync.Mutex{},
		changes: make([]Event, 0),
	}
	r.raise(ManualResolverCreated{
		ManualResolverEvent: ManualResolverEvent{
			Id: id, Type: EventTypeManualResolverCreated,
		},
		Owner:       owner,
		QuestionRef: questionRef,
		Timestamp:   clock.Now(),
	})
	return r, nil
}

func NewManualResolverFromEvents(
	events []Event, clock Clock,
) (*ManualResolver, error) {
	if len(events) <= 0 {
		return nil, fmt.Errorf("missing events")
	}
	if _, ok := events[0].(ManualResolverCreated); !ok {
		return nil, fmt.Errorf("invalid events, first one must be creation")
	}

	r := &ManualResolver{
		clock: clock,
		lock:  &sync.Mutex{},
	}
	for _, event := range events {
		r.on(event, true)
	}
	r.changes = append([]Event{}, events...)

	return r, nil
}

func (r *ManualResolver) SetOutcome(caller string, outcome Outcome) (Event, error) {
	r.lock.Lock()
	defer r.lock.Unlock()

	if caller != r.owner {
		return nil, ErrUnauthorized
	}
	if r.outcome != nil {
		return nil, ErrOutcomeAlreadySet
	}

	event := OutcomeSet{
		ManualResolverEvent: ManualResolverEvent{Id: r.Id, Type: EventTypeOutcomeSet},
		Outcome:             outcome,
		SetBy:               caller,
		Timestamp:           r.clock.Now(),
	}
	r.raise(event)
	return event, nil
}

func (r *ManualResolver) ReplaceOwner(caller, newOwner string) (Event, error) {
	r.lock.Lock()
	defer r.lock.Unlock()

	if caller != r.owner {
		return nil, ErrUnauthorized
	}
	if newOwner == "" {
		return nil, fmt.Errorf("missing new owner")
	}

	event := OwnerReplaced{
		ManualResolverEvent: ManualResolverEvent{Id: r.Id, Type: EventTypeOwnerReplaced},
		PreviousOwner:       r.owner,
		NewOwner:            newOwner,
		Timestamp:           r.clock.Now(),
	}
	r.raise(event)
	return event, nil
}

func (r *ManualResolver) IsOutcomeSet() bool {
	r.lock.Lock()
	defer r.lock.Unlock()

	return r.outcome != nil
}

func (r *ManualResolver) GetOutcome() (Outcome, error) {
	r.lock.Lock()
	defer r.lock.Unlock()

	if r.outcome == nil {
		return 0, ErrNotResolved
	}
	return *r.outcome, nil
}

func (r *ManualResolver) Owner() string {
	r.lock.Lock()
	defer r.lock.Unlock()

	return r.owner
}

func (r *ManualResolver) Events() []Event {
	r.lock.Lock()
	defer r.lock.Unlock()

	return append([]Event{}, r.changes...)
}

func (r *ManualResolver) on(event Event, replayed bool) {
	switch e := event.(type) {
	case ManualResolverCreated:
		r.Id = e.Id
		r.owner = e.Owner
		r.QuestionRef = e.QuestionRef
	case OwnerReplaced:
		r.owner = e.NewOwner
	case OutcomeSet:
		outcome := e.Outcome
		r.outcome = &outcome
	}

	if replayed {
		r.Version++
	}
}

func (r *ManualResolver) raise(event Event) {
	if r.changes == nil {
		r.changes = make([]Event, 0)
	}
	r.changes = append(r.changes, event)
	r.on(event, false)
}
