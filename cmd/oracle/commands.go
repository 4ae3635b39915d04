package main

import (
	"context"
	"fmt"

	"github.com/ark-network/oracle/internal/interface/scenario"
	"github.com/urfave/cli/v2"
)

// flags
var (
	resolverFlag = &cli.StringFlag{
		Name:     "id",
		Usage:    "the resolver id",
		Required: true,
	}
	ownerFlag = &cli.StringFlag{
		Name:     "owner",
		Usage:    "the account allowed to set the outcome",
		Required: true,
	}
	questionRefFlag = &cli.StringFlag{
		Name:  "question-ref",
		Usage: "reference to the question being resolved, ie. an ipfs hash",
	}
	callerFlag = &cli.StringFlag{
		Name:     "caller",
		Usage:    "the account performing the operation",
		Required: true,
	}
	newOwnerFlag = &cli.StringFlag{
		Name:     "new-owner",
		Usage:    "the account replacing the current owner",
		Required: true,
	}
	outcomeFlag = &cli.Uint64Flag{
		Name:     "outcome",
		Usage:    "the outcome",
		Required: true,
	}
	childrenFlag = &cli.StringSliceFlag{
		Name:     "child",
		Usage:    "id of an outcome source, repeat for every child",
		Required: true,
	}
	upstreamFlag = &cli.StringFlag{
		Name:     "upstream",
		Usage:    "id of the forwarded outcome source",
		Required: true,
	}
	spreadFlag = &cli.Uint64Flag{
		Name:  "spread-multiplier",
		Usage: "minimum overbidding margin parameter",
		Value: 3,
	}
	windowFlag = &cli.Int64Flag{
		Name:  "challenge-window",
		Usage: "how long the forwarded outcome can be challenged",
		Value: 86400,
	}
	minStakeFlag = &cli.Uint64Flag{
		Name:  "min-stake",
		Usage: "minimum amount of the first challenge",
		Value: 1000,
	}
	frontRunnerFlag = &cli.Int64Flag{
		Name:  "front-runner-period",
		Usage: "how long a front-runner must stay unchallenged to win",
		Value: 3600,
	}
	marginRuleFlag = &cli.StringFlag{
		Name:  "margin-rule",
		Usage: "bid margin rule, fractional or multiplicative (default: daemon setting)",
	}
	bidderFlag = &cli.StringFlag{
		Name:     "bidder",
		Usage:    "the account placing the bid",
		Required: true,
	}
	stakeFlag = &cli.Uint64Flag{
		Name:     "stake",
		Usage:    "the amount staked",
		Required: true,
	}
	accountFlag = &cli.StringFlag{
		Name:     "account",
		Usage:    "the ledger account",
		Required: true,
	}
	spenderFlag = &cli.StringFlag{
		Name:     "spender",
		Usage:    "the account allowed to spend, ie. a challenge resolver id",
		Required: true,
	}
	amountFlag = &cli.Uint64Flag{
		Name:     "amount",
		Usage:    "the amount",
		Required: true,
	}
)

// commands
var (
	manualCmd = &cli.Command{
		Name:  "manual",
		Usage: "Manage manual resolvers",
		Subcommands: append(
			cli.Commands{},
			manualCreateCmd,
			manualSetOutcomeCmd,
			manualReplaceOwnerCmd,
		),
	}
	manualCreateCmd = &cli.Command{
		Name:   "create",
		Usage:  "Create a resolver whose outcome is set by its owner",
		Action: manualCreateAction,
		Flags:  []cli.Flag{ownerFlag, questionRefFlag},
	}
	manualSetOutcomeCmd = &cli.Command{
		Name:   "set-outcome",
		Usage:  "Set the outcome, only the owner can do it and only once",
		Action: manualSetOutcomeAction,
		Flags:  []cli.Flag{resolverFlag, callerFlag, outcomeFlag},
	}
	manualReplaceOwnerCmd = &cli.Command{
		Name:   "replace-owner",
		Usage:  "Transfer the ownership of the resolver",
		Action: manualReplaceOwnerAction,
		Flags:  []cli.Flag{resolverFlag, callerFlag, newOwnerFlag},
	}

	majorityCmd = &cli.Command{
		Name:  "majority",
		Usage: "Manage majority resolvers",
		Subcommands: append(
			cli.Commands{},
			majorityCreateCmd,
		),
	}
	majorityCreateCmd = &cli.Command{
		Name:   "create",
		Usage:  "Create a resolver reporting the strict majority of its children",
		Action: majorityCreateAction,
		Flags:  []cli.Flag{childrenFlag},
	}

	challengeCmd = &cli.Command{
		Name:  "challenge",
		Usage: "Manage challenge resolvers",
		Subcommands: append(
			cli.Commands{},
			challengeCreateCmd,
			challengePullCmd,
			challengeBidCmd,
			challengeWithdrawCmd,
			challengeInfoCmd,
		),
	}
	challengeCreateCmd = &cli.Command{
		Name:   "create",
		Usage:  "Create a resolver forwarding an outcome unless challenged",
		Action: challengeCreateAction,
		Flags: []cli.Flag{
			upstreamFlag, spreadFlag, windowFlag, minStakeFlag, frontRunnerFlag,
			marginRuleFlag,
		},
	}
	challengePullCmd = &cli.Command{
		Name:   "pull",
		Usage:  "Pull the forwarded outcome and open the challenge window",
		Action: challengePullAction,
		Flags:  []cli.Flag{resolverFlag},
	}
	challengeBidCmd = &cli.Command{
		Name:   "bid",
		Usage:  "Challenge the current outcome by staking on another one",
		Action: challengeBidAction,
		Flags:  []cli.Flag{resolverFlag, bidderFlag, outcomeFlag, stakeFlag},
	}
	challengeWithdrawCmd = &cli.Command{
		Name:   "withdraw",
		Usage:  "Withdraw the pot of a resolved auction",
		Action: challengeWithdrawAction,
		Flags:  []cli.Flag{resolverFlag, callerFlag},
	}
	challengeInfoCmd = &cli.Command{
		Name:   "info",
		Usage:  "Get the state of the challenge, including the front-runner",
		Action: challengeInfoAction,
		Flags:  []cli.Flag{resolverFlag},
	}

	outcomeCmd = &cli.Command{
		Name:   "outcome",
		Usage:  "Get the outcome of any resolver",
		Action: outcomeAction,
		Flags:  []cli.Flag{resolverFlag},
	}
	eventsCmd = &cli.Command{
		Name:   "events",
		Usage:  "Get the history of a resolver",
		Action: eventsAction,
		Flags:  []cli.Flag{resolverFlag},
	}

	ledgerCmd = &cli.Command{
		Name:  "ledger",
		Usage: "Manage the funds used for challenges",
		Subcommands: append(
			cli.Commands{},
			ledgerDepositCmd,
			ledgerApproveCmd,
			ledgerBalanceCmd,
		),
	}
	ledgerDepositCmd = &cli.Command{
		Name:   "deposit",
		Usage:  "Credit an account",
		Action: ledgerDepositAction,
		Flags:  []cli.Flag{accountFlag, amountFlag},
	}
	ledgerApproveCmd = &cli.Command{
		Name:   "approve",
		Usage:  "Allow a challenge resolver to take funds from an account",
		Action: ledgerApproveAction,
		Flags:  []cli.Flag{accountFlag, spenderFlag, amountFlag},
	}
	ledgerBalanceCmd = &cli.Command{
		Name:   "balance",
		Usage:  "Get the balance of an account",
		Action: ledgerBalanceAction,
		Flags:  []cli.Flag{accountFlag},
	}

	simulateCmd = &cli.Command{
		Name:      "simulate",
		Usage:     "Run a scenario file locally, no daemon required",
		ArgsUsage: "<scenario.yaml>",
		Action:    simulateAction,
	}
)

type idResponse struct {
	Id string `json:"id"`
}

func manualCreateAction(ctx *cli.Context) error {
	resp, err := post[idResponse](
		endpoint(ctx.String("url"), "resolvers", "manual"),
		map[string]interface{}{
			"owner":       ctx.String(ownerFlag.Name),
			"questionRef": ctx.String(questionRefFlag.Name),
		},
	)
	if err != nil {
		return err
	}

	fmt.Println(resp.Id)
	return nil
}

func manualSetOutcomeAction(ctx *cli.Context) error {
	if _, err := post[struct{}](
		endpoint(ctx.String("url"), "resolvers", ctx.String(resolverFlag.Name), "outcome"),
		map[string]interface{}{
			"caller":  ctx.String(callerFlag.Name),
			"outcome": ctx.Uint64(outcomeFlag.Name),
		},
	); err != nil {
		return err
	}

	fmt.Println("outcome set")
	return nil
}

func manualReplaceOwnerAction(ctx *cli.Context) error {
	if _, err := post[struct{}](
		endpoint(ctx.String("url"), "resolvers", ctx.String(resolverFlag.Name), "owner"),
		map[string]interface{}{
			"caller":   ctx.String(callerFlag.Name),
			"newOwner": ctx.String(newOwnerFlag.Name),
		},
	); err != nil {
		return err
	}

	fmt.Println("owner replaced")
	return nil
}

func majorityCreateAction(ctx *cli.Context) error {
	resp, err := post[idResponse](
		endpoint(ctx.String("url"), "resolvers", "majority"),
		map[string]interface{}{"children": ctx.StringSlice(childrenFlag.Name)},
	)
	if err != nil {
		return err
	}

	fmt.Println(resp.Id)
	return nil
}

func challengeCreateAction(ctx *cli.Context) error {
	resp, err := post[idResponse](
		endpoint(ctx.String("url"), "resolvers", "challenge"),
		map[string]interface{}{
			"upstream":          ctx.String(upstreamFlag.Name),
			"spreadMultiplier":  ctx.Uint64(spreadFlag.Name),
			"challengeWindow":   ctx.Int64(windowFlag.Name),
			"minChallengeStake": ctx.Uint64(minStakeFlag.Name),
			"frontRunnerPeriod": ctx.Int64(frontRunnerFlag.Name),
			"marginRule":        ctx.String(marginRuleFlag.Name),
		},
	)
	if err != nil {
		return err
	}

	fmt.Println(resp.Id)
	return nil
}

func challengePullAction(ctx *cli.Context) error {
	resp, err := post[map[string]interface{}](
		endpoint(ctx.String("url"), "resolvers", ctx.String(resolverFlag.Name), "pull"),
		struct{}{},
	)
	if err != nil {
		return err
	}
	return printJSON(resp)
}

func challengeBidAction(ctx *cli.Context) error {
	if _, err := post[struct{}](
		endpoint(ctx.String("url"), "resolvers", ctx.String(resolverFlag.Name), "bids"),
		map[string]interface{}{
			"bidder":  ctx.String(bidderFlag.Name),
			"outcome": ctx.Uint64(outcomeFlag.Name),
			"stake":   ctx.Uint64(stakeFlag.Name),
		},
	); err != nil {
		return err
	}

	fmt.Println("bid accepted")
	return nil
}

func challengeWithdrawAction(ctx *cli.Context) error {
	resp, err := post[map[string]interface{}](
		endpoint(ctx.String("url"), "resolvers", ctx.String(resolverFlag.Name), "withdraw"),
		map[string]interface{}{"caller": ctx.String(callerFlag.Name)},
	)
	if err != nil {
		return err
	}
	return printJSON(resp)
}

func challengeInfoAction(ctx *cli.Context) error {
	resp, err := get[map[string]interface{}](
		endpoint(ctx.String("url"), "resolvers", ctx.String(resolverFlag.Name), "challenge"),
	)
	if err != nil {
		return err
	}
	return printJSON(resp)
}

func outcomeAction(ctx *cli.Context) error {
	resp, err := get[map[string]interface{}](
		endpoint(ctx.String("url"), "resolvers", ctx.String(resolverFlag.Name), "outcome"),
	)
	if err != nil {
		return err
	}
	return printJSON(resp)
}

func eventsAction(ctx *cli.Context) error {
	resp, err := get[[]map[string]interface{}](
		endpoint(ctx.String("url"), "resolvers", ctx.String(resolverFlag.Name), "events"),
	)
	if err != nil {
		return err
	}
	return printJSON(resp)
}

func ledgerDepositAction(ctx *cli.Context) error {
	if _, err := post[struct{}](
		endpoint(ctx.String("url"), "ledger", "deposit"),
		map[string]interface{}{
			"account": ctx.String(accountFlag.Name),
			"amount":  ctx.Uint64(amountFlag.Name),
		},
	); err != nil {
		return err
	}

	fmt.Println("deposited")
	return nil
}

func ledgerApproveAction(ctx *cli.Context) error {
	if _, err := post[struct{}](
		endpoint(ctx.String("url"), "ledger", "approve"),
		map[string]interface{}{
			"owner":   ctx.String(accountFlag.Name),
			"spender": ctx.String(spenderFlag.Name),
			"amount":  ctx.Uint64(amountFlag.Name),
		},
	); err != nil {
		return err
	}

	fmt.Println("approved")
	return nil
}

func ledgerBalanceAction(ctx *cli.Context) error {
	resp, err := get[map[string]interface{}](
		endpoint(ctx.String("url"), "ledger", ctx.String(accountFlag.Name)),
	)
	if err != nil {
		return err
	}
	return printJSON(resp)
}

func simulateAction(ctx *cli.Context) error {
	if ctx.NArg() != 1 {
		return fmt.Errorf("expected exactly one scenario file")
	}

	s, err := scenario.LoadScenario(ctx.Args().First())
	if err != nil {
		return err
	}

	report, err := scenario.Run(context.Background(), s)
	if report != nil {
		fmt.Printf("scenario: %s\n", report.Name)
		for _, step := range report.Steps {
			line := fmt.Sprintf("  %2d %-18s %s", step.Index, step.Action, step.Detail)
			if step.Err != nil {
				line = fmt.Sprintf("%s error: %s", line, step.Err)
			}
			fmt.Println(line)
		}
	}
	if err != nil {
		return err
	}

	fmt.Println("ok")
	return nil
}
