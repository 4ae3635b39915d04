package scenario

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Scenario is a scripted sequence of resolver operations run against a
// clock that only moves when a step advances it.
type Scenario struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	// StartTime is the initial clock reading.
	StartTime int64 `yaml:"start_time,omitempty"`
	// MarginRule applies to challenge resolvers that don't set their own.
	MarginRule string `yaml:"margin_rule,omitempty"`
	Steps      []Step `yaml:"steps"`
}

// Step invokes one action. Resolvers created by a step can be referenced by
// later steps through the name given in As.
type Step struct {
	Action   string `yaml:"action"`
	As       string `yaml:"as,omitempty"`
	Resolver string `yaml:"resolver,omitempty"`

	Owner       string   `yaml:"owner,omitempty"`
	QuestionRef string   `yaml:"question_ref,omitempty"`
	Caller      string   `yaml:"caller,omitempty"`
	NewOwner    string   `yaml:"new_owner,omitempty"`
	Outcome     uint64   `yaml:"outcome,omitempty"`
	Children    []string `yaml:"children,omitempty"`

	Upstream          string `yaml:"upstream,omitempty"`
	SpreadMultiplier  uint64 `yaml:"spread_multiplier,omitempty"`
	ChallengeWindow   int64  `yaml:"challenge_window,omitempty"`
	MinChallengeStake uint64 `yaml:"min_challenge_stake,omitempty"`
	FrontRunnerPeriod int64  `yaml:"front_runner_period,omitempty"`
	MarginRule        string `yaml:"margin_rule,omitempty"`

	Bidder  string `yaml:"bidder,omitempty"`
	Stake   uint64 `yaml:"stake,omitempty"`
	Account string `yaml:"account,omitempty"`
	Spender string `yaml:"spender,omitempty"`
	Amount  uint64 `yaml:"amount,omitempty"`
	Delta   int64  `yaml:"delta,omitempty"`

	Expect *Expect `yaml:"expect,omitempty"`
}

// Expect lists the checks made on a step result. Unset fields are not
// checked, a step without Error must succeed.
type Expect struct {
	Error    string  `yaml:"error,omitempty"`
	Resolved *bool   `yaml:"resolved,omitempty"`
	Outcome  *uint64 `yaml:"outcome,omitempty"`
	Amount   *uint64 `yaml:"amount,omitempty"`
	Balance  *uint64 `yaml:"balance,omitempty"`
	Stage    string  `yaml:"stage,omitempty"`
	Winner   string  `yaml:"winner,omitempty"`
	Pot      *uint64 `yaml:"pot,omitempty"`
}

const (
	ActionCreateManual    = "create_manual"
	ActionCreateMajority  = "create_majority"
	ActionCreateChallenge = "create_challenge"
	ActionSetOutcome      = "set_outcome"
	ActionReplaceOwner    = "replace_owner"
	ActionPull            = "pull"
	ActionBid             = "bid"
	ActionWithdraw        = "withdraw"
	ActionOutcome         = "outcome"
	ActionChallenge       = "challenge"
	ActionDeposit         = "deposit"
	ActionApprove         = "approve"
	ActionBalance         = "balance"
	ActionAdvance         = "advance"
)

func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := scenario.validate(); err != nil {
		return nil, err
	}
	return &scenario, nil
}

func (s *Scenario) validate() error {
	if s.Name == "" {
		return fmt.Errorf("scenario name is required")
	}
	if len(s.Steps) <= 0 {
		return fmt.Errorf("scenario %s has no steps", s.Name)
	}

	names := make(map[string]struct{})
	for i, step := range s.Steps {
		switch step.Action {
		case ActionCreateManual, ActionCreateMajority, ActionCreateChallenge:
			if step.As == "" {
				return fmt.Errorf("step %d: %s requires a name", i, step.Action)
			}
			if _, ok := names[step.As]; ok {
				return fmt.Errorf("step %d: name %s already used", i, step.As)
			}
			names[step.As] = struct{}{}
		case ActionSetOutcome, ActionReplaceOwner, ActionPull, ActionBid,
			ActionWithdraw, ActionOutcome, ActionChallenge:
			if step.Resolver == "" {
				return fmt.Errorf("step %d: %s requires a resolver", i, step.Action)
			}
		case ActionDeposit, ActionApprove, ActionBalance, ActionAdvance:
		default:
			return fmt.Errorf("step %d: unknown action %q", i, step.Action)
		}
		if step.Expect != nil && step.Expect.Error != "" {
			if _, ok := errorsByName[step.Expect.Error]; !ok {
				return fmt.Errorf("step %d: unknown error %q", i, step.Expect.Error)
			}
		}
	}
	return nil
}
