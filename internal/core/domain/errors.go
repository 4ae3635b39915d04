package domain

import "errors"

var (
	ErrNotResolved          = errors.New("outcome not resolved yet")
	ErrUpstreamNotResolved  = errors.New("forwarded source not resolved yet")
	ErrForwardNotPulled     = errors.New("forwarded outcome not pulled yet")
	ErrForwardAlreadyPulled = errors.New("forwarded outcome already pulled")
	ErrAlreadyResolved      = errors.New("challenge already resolved")
	ErrStakeTooLow          = errors.New("stake too low")
	ErrInsufficientFunds    = errors.New("insufficient funds")
	ErrNotWinner            = errors.New("caller is not the winner")
	ErrAlreadyPaid          = errors.New("winnings already withdrawn")
	ErrUnauthorized         = errors.New("caller is not the owner")
	ErrOutcomeAlreadySet    = errors.New("outcome already set")
	ErrNoChildren           = errors.New("majority resolver requires at least one child")
)
