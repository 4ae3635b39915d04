package scenario_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/ark-network/oracle/internal/interface/scenario"
	"github.com/stretchr/testify/require"
)

func TestRunScenarios(t *testing.T) {
	files, err := filepath.Glob(filepath.Join("testdata", "*.yaml"))
	require.NoError(t, err)
	require.NotEmpty(t, files)

	for _, file := range files {
		t.Run(filepath.Base(file), func(t *testing.T) {
			s, err := scenario.LoadScenario(file)
			require.NoError(t, err)

			report, err := scenario.Run(context.Background(), s)
			require.NoError(t, err)
			require.Len(t, report.Steps, len(s.Steps))
		})
	}
}

func TestRunFailingScenario(t *testing.T) {
	s, err := scenario.ParseScenario([]byte(`
name: wrong expectation
steps:
  - action: create_manual
    as: question
    owner: alice
  - action: set_outcome
    resolver: question
    caller: alice
    outcome: 1
  - action: outcome
    resolver: question
    expect:
      outcome: 2
  - action: outcome
    resolver: question
`))
	require.NoError(t, err)

	report, err := scenario.Run(context.Background(), s)
	require.Error(t, err)
	require.Contains(t, err.Error(), "step 2")
	require.Len(t, report.Steps, 3)
	require.Contains(t, report.Resolvers, "question")
}

func TestParseScenario(t *testing.T) {
	fixtures := []struct {
		name string
		data string
	}{
		{
			name: "missing_name",
			data: `
steps:
  - action: advance
    delta: 1
`,
		},
		{
			name: "no_steps",
			data: `name: empty`,
		},
		{
			name: "unknown_field",
			data: `
name: typo
steps:
  - action: advance
    delat: 1
`,
		},
		{
			name: "unknown_action",
			data: `
name: unknown action
steps:
  - action: resolve
`,
		},
		{
			name: "unnamed_resolver",
			data: `
name: unnamed
steps:
  - action: create_manual
    owner: alice
`,
		},
		{
			name: "duplicated_name",
			data: `
name: duplicated
steps:
  - action: create_manual
    as: question
    owner: alice
  - action: create_manual
    as: question
    owner: bob
`,
		},
		{
			name: "missing_resolver",
			data: `
name: missing resolver
steps:
  - action: pull
`,
		},
		{
			name: "unknown_error",
			data: `
name: unknown error
steps:
  - action: create_manual
    as: question
    owner: alice
    expect:
      error: boom
`,
		},
	}

	for _, f := range fixtures {
		t.Run(f.name, func(t *testing.T) {
			_, err := scenario.ParseScenario([]byte(f.data))
			require.Error(t, err)
		})
	}
}
