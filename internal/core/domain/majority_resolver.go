package domain

// MajorityResolver reports the outcome shared by a strict majority of its
// children. Children count toward the denominator whether resolved or not
// and are polled on every query, nothing is cached.
type MajorityResolver struct {
	Id       string
	children []OutcomeSource
}

func NewMajorityResolver(id string, children []OutcomeSource) (*MajorityResolver, error) {
	if len(children) <= 0 {
		return nil, ErrNoChildren
	}
	return &MajorityResolver{
		Id:       id,
		children: append([]OutcomeSource{}, children...),
	}, nil
}

func (r *MajorityResolver) IsOutcomeSet() bool {
	_, ok := r.majority()
	return ok
}

func (r *MajorityResolver) GetOutcome() (Outcome, error) {
	outcome, ok := r.majority()
	if !ok {
		return 0, ErrNotResolved
	}
	return outcome, nil
}

func (r *MajorityResolver) Size() int {
	return len(r.children)
}

func (r *MajorityResolver) majority() (Outcome, bool) {
	total := len(r.children)
	counts := make(map[Outcome]int)
	for _, child := range r.children {
		if !child.IsOutcomeSet() {
			continue
		}
		outcome, err := child.GetOutcome()
		if err != nil {
			continue
		}
		counts[outcome]++
		if counts[outcome]*2 > total {
			return outcome, true
		}
	}
	return 0, false
}
