package domain_test

import (
	"testing"

	"github.com/ark-network/oracle/internal/core/domain"
	"github.com/stretchr/testify/require"
)

func TestMajorityResolver(t *testing.T) {
	t.Run("invalid", func(t *testing.T) {
		resolver, err := domain.NewMajorityResolver("id", nil)
		require.ErrorIs(t, err, domain.ErrNoChildren)
		require.Nil(t, resolver)
	})

	t.Run("single_child", func(t *testing.T) {
		child := unresolvedSource()
		resolver, err := domain.NewMajorityResolver("id", []domain.OutcomeSource{child})
		require.NoError(t, err)
		require.False(t, resolver.IsOutcomeSet())

		child.set(4)
		require.True(t, resolver.IsOutcomeSet())
		outcome, err := resolver.GetOutcome()
		require.NoError(t, err)
		require.Equal(t, domain.Outcome(4), outcome)
	})

	fixtures := []struct {
		name            string
		outcomes        []*domain.Outcome
		expectedSet     bool
		expectedOutcome domain.Outcome
	}{
		{
			name:     "none_resolved",
			outcomes: []*domain.Outcome{nil, nil, nil},
		},
		{
			name:     "exactly_half",
			outcomes: []*domain.Outcome{outcomePtr(1), outcomePtr(1), nil, nil},
		},
		{
			name:     "split_vote",
			outcomes: []*domain.Outcome{outcomePtr(1), outcomePtr(2), outcomePtr(3)},
		},
		{
			name:            "strict_majority",
			outcomes:        []*domain.Outcome{outcomePtr(1), nil, outcomePtr(1)},
			expectedSet:     true,
			expectedOutcome: 1,
		},
		{
			name:            "majority_with_dissent",
			outcomes:        []*domain.Outcome{outcomePtr(2), outcomePtr(3), outcomePtr(3), outcomePtr(3), nil},
			expectedSet:     true,
			expectedOutcome: 3,
		},
	}

	for _, f := range fixtures {
		t.Run(f.name, func(t *testing.T) {
			children := make([]domain.OutcomeSource, 0, len(f.outcomes))
			for _, outcome := range f.outcomes {
				children = append(children, &staticSource{outcome})
			}
			resolver, err := domain.NewMajorityResolver("id", children)
			require.NoError(t, err)
			require.Equal(t, len(f.outcomes), resolver.Size())

			require.Equal(t, f.expectedSet, resolver.IsOutcomeSet())
			outcome, err := resolver.GetOutcome()
			if !f.expectedSet {
				require.ErrorIs(t, err, domain.ErrNotResolved)
				return
			}
			require.NoError(t, err)
			require.Equal(t, f.expectedOutcome, outcome)
		})
	}

	t.Run("stays_resolved", func(t *testing.T) {
		a, b, c := unresolvedSource(), unresolvedSource(), unresolvedSource()
		resolver, err := domain.NewMajorityResolver("id", []domain.OutcomeSource{a, b, c})
		require.NoError(t, err)

		a.set(1)
		require.False(t, resolver.IsOutcomeSet())
		b.set(1)
		require.True(t, resolver.IsOutcomeSet())

		c.set(2)
		require.True(t, resolver.IsOutcomeSet())
		outcome, err := resolver.GetOutcome()
		require.NoError(t, err)
		require.Equal(t, domain.Outcome(1), outcome)
	})

	t.Run("duplicate_children", func(t *testing.T) {
		a, b := unresolvedSource(), unresolvedSource()
		resolver, err := domain.NewMajorityResolver("id", []domain.OutcomeSource{a, a, b})
		require.NoError(t, err)

		a.set(5)
		require.True(t, resolver.IsOutcomeSet())
	})

	t.Run("children_are_copied", func(t *testing.T) {
		children := []domain.OutcomeSource{resolvedSource(1)}
		resolver, err := domain.NewMajorityResolver("id", children)
		require.NoError(t, err)

		children[0] = unresolvedSource()
		require.True(t, resolver.IsOutcomeSet())
	})
}

func outcomePtr(o domain.Outcome) *domain.Outcome {
	return &o
}
