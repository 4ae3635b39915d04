package ports

import (
	"context"
	"errors"
	"fmt"

	"github.com/ark-network/oracle/internal/core/domain"
)

var (
	ErrInsufficientBalance   = fmt.Errorf("%w: insufficient balance", domain.ErrInsufficientFunds)
	ErrInsufficientAllowance = fmt.Errorf("%w: insufficient allowance", domain.ErrInsufficientFunds)
	ErrBalanceOverflow       = errors.New("balance overflow")
	ErrCustodianAccount      = errors.New("account is an escrow custodian")
)

// Ledger keeps account balances and spending allowances. It backs the
// escrow the challenge resolvers debit and credit.
// Escrowed funds live apart from account balances, a custodian can't deposit,
// approve or spend from the account side.
type Ledger interface {
	domain.Escrow

	Deposit(ctx context.Context, account string, amount domain.Stake) error
	// Approve overwrites the allowance owner grants to spender.
	Approve(ctx context.Context, owner, spender string, amount domain.Stake) error
	Balance(ctx context.Context, account string) (domain.Stake, error)
	Allowance(ctx context.Context, owner, spender string) (domain.Stake, error)
	Escrowed(ctx context.Context, custodian string) (domain.Stake, error)
	Close()
}
