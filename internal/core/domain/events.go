package domain

const (
	ManualResolverTopic    = "manual_resolver"
	MajorityResolverTopic  = "majority_resolver"
	ChallengeResolverTopic = "challenge_resolver"
)

type ManualResolverEvent struct {
	Id   string
	Type EventType
}

func (e ManualResolverEvent) GetId() string      { return e.Id }
func (e ManualResolverEvent) GetTopic() string   { return ManualResolverTopic }
func (e ManualResolverEvent) GetType() EventType { return e.Type }

type ManualResolverCreated struct {
	ManualResolverEvent
	Owner       string
	QuestionRef string
	Timestamp   int64
}

type OwnerReplaced struct {
	ManualResolverEvent
	PreviousOwner string
	NewOwner      string
	Timestamp     int64
}

type OutcomeSet struct {
	ManualResolverEvent
	Outcome   Outcome
	SetBy     string
	Timestamp int64
}

type MajorityResolverEvent struct {
	Id   string
	Type EventType
}

func (e MajorityResolverEvent) GetId() string      { return e.Id }
func (e MajorityResolverEvent) GetTopic() string   { return MajorityResolverTopic }
func (e MajorityResolverEvent) GetType() EventType { return e.Type }

type MajorityResolverCreated struct {
	MajorityResolverEvent
	Children  []string
	Timestamp int64
}

type ChallengeResolverEvent struct {
	Id   string
	Type EventType
}

func (e ChallengeResolverEvent) GetId() string      { return e.Id }
func (e ChallengeResolverEvent) GetTopic() string   { return ChallengeResolverTopic }
func (e ChallengeResolverEvent) GetType() EventType { return e.Type }

type ChallengeResolverCreated struct {
	ChallengeResolverEvent
	Upstream  string
	Config    ChallengeConfig
	Timestamp int64
}

type ForwardPulled struct {
	ChallengeResolverEvent
	Outcome   Outcome
	Timestamp int64
}

type BidAccepted struct {
	ChallengeResolverEvent
	Bidder    string
	Outcome   Outcome
	Amount    Stake
	TotalPot  Stake
	Timestamp int64
}

// ChallengeResolved is recorded the first time an operation observes that
// the resolution condition holds. ResolvedAt is the instant the condition
// became true, Timestamp the instant it was observed.
type ChallengeResolved struct {
	ChallengeResolverEvent
	Outcome    Outcome
	Winner     string
	Via        ResolutionPath
	ResolvedAt int64
	Timestamp  int64
}

type WinningsWithdrawn struct {
	ChallengeResolverEvent
	Winner    string
	Amount    Stake
	Timestamp int64
}
