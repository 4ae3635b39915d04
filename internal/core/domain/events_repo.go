package domain

import "context"

type EventType int

const (
	EventTypeUndefined EventType = iota

	// ManualResolver
	EventTypeManualResolverCreated
	EventTypeOwnerReplaced
	EventTypeOutcomeSet
)

const (
	// MajorityResolver
	EventTypeMajorityResolverCreated EventType = iota + 100
)

const (
	// ChallengeResolver
	EventTypeChallengeResolverCreated EventType = iota + 200
	EventTypeForwardPulled
	EventTypeBidAccepted
	EventTypeChallengeResolved
	EventTypeWinningsWithdrawn
)

func (t EventType) String() string {
	switch t {
	case EventTypeManualResolverCreated:
		return "MANUAL_RESOLVER_CREATED"
	case EventTypeOwnerReplaced:
		return "OWNER_REPLACED"
	case EventTypeOutcomeSet:
		return "OUTCOME_SET"
	case EventTypeMajorityResolverCreated:
		return "MAJORITY_RESOLVER_CREATED"
	case EventTypeChallengeResolverCreated:
		return "CHALLENGE_RESOLVER_CREATED"
	case EventTypeForwardPulled:
		return "FORWARD_PULLED"
	case EventTypeBidAccepted:
		return "BID_ACCEPTED"
	case EventTypeChallengeResolved:
		return "CHALLENGE_RESOLVED"
	case EventTypeWinningsWithdrawn:
		return "WINNINGS_WITHDRAWN"
	default:
		return "UNDEFINED"
	}
}

type Event interface {
	GetId() string
	GetTopic() string
	GetType() EventType
}

type EventRepository interface {
	Save(ctx context.Context, topic, id string, events []Event) error
	Load(ctx context.Context, topic, id string) ([]Event, error)
	RegisterEventsHandler(topic string, handler func(events []Event))
	ClearRegisteredHandlers(topic ...string)
	Close()
}
