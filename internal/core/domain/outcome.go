package domain

import "context"

// Outcome is the index of the answer a resolver settled on.
type Outcome uint64

// Stake is an amount of escrowed funds.
type Stake uint64

// OutcomeSource is the capability every resolver exposes to its consumers.
// IsOutcomeSet never mutates state, GetOutcome fails with ErrNotResolved
// until IsOutcomeSet reports true.
type OutcomeSource interface {
	IsOutcomeSet() bool
	GetOutcome() (Outcome, error)
}

// Clock is read once per operation. Units are either unix seconds or block
// heights depending on the implementation, resolvers only compare values.
type Clock interface {
	Now() int64
}

// Escrow moves funds between an account and the escrow held by a
// custodian (the resolver id).
// Debit consumes the allowance the account granted to the custodian.
type Escrow interface {
	Debit(ctx context.Context, custodian, account string, amount Stake) error
	Credit(ctx context.Context, custodian, account string, amount Stake) error
}
