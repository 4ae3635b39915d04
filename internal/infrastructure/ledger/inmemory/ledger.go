package inmemoryledger

import (
	"context"
	"fmt"
	"math/bits"
	"sync"

	"github.com/ark-network/oracle/internal/core/domain"
	"github.com/ark-network/oracle/internal/core/ports"
)

type allowanceKey struct {
	owner   string
	spender string
}

type ledger struct {
	lock       *sync.RWMutex
	balances   map[string]domain.Stake
	allowances map[allowanceKey]domain.Stake
	escrows    map[string]domain.Stake
}

func NewLedger(_ ...interface{}) (ports.Ledger, error) {
	return &ledger{
		lock:       &sync.RWMutex{},
		balances:   make(map[string]domain.Stake),
		allowances: make(map[allowanceKey]domain.Stake),
		escrows:    make(map[string]domain.Stake),
	}, nil
}

func (l *ledger) Deposit(_ context.Context, account string, amount domain.Stake) error {
	if account == "" {
		return fmt.Errorf("missing account")
	}

	l.lock.Lock()
	defer l.lock.Unlock()

	if err := l.checkAccount(account); err != nil {
		return err
	}
	balance, err := add(l.balances[account], amount)
	if err != nil {
		return err
	}
	l.balances[account] = balance
	return nil
}

func (l *ledger) Approve(_ context.Context, owner, spender string, amount domain.Stake) error {
	if owner == "" || spender == "" {
		return fmt.Errorf("missing owner or spender")
	}

	l.lock.Lock()
	defer l.lock.Unlock()

	if err := l.checkAccount(owner); err != nil {
		return err
	}
	l.allowances[allowanceKey{owner, spender}] = amount
	return nil
}

func (l *ledger) Balance(_ context.Context, account string) (domain.Stake, error) {
	l.lock.RLock()
	defer l.lock.RUnlock()

	return l.balances[account], nil
}

func (l *ledger) Allowance(_ context.Context, owner, spender string) (domain.Stake, error) {
	l.lock.RLock()
	defer l.lock.RUnlock()

	return l.allowances[allowanceKey{owner, spender}], nil
}

func (l *ledger) Escrowed(_ context.Context, custodian string) (domain.Stake, error) {
	l.lock.RLock()
	defer l.lock.RUnlock()

	return l.escrows[custodian], nil
}

func (l *ledger) Debit(
	_ context.Context, custodian, account string, amount domain.Stake,
) error {
	if custodian == account {
		return fmt.Errorf("custodian and account must differ")
	}

	l.lock.Lock()
	defer l.lock.Unlock()

	if err := l.checkAccount(account); err != nil {
		return err
	}
	key := allowanceKey{account, custodian}
	if l.allowances[key] < amount {
		return fmt.Errorf(
			"%w: %s allowed %s to spend %d, got %d",
			ports.ErrInsufficientAllowance, account, custodian, l.allowances[key], amount,
		)
	}
	if l.balances[account] < amount {
		return fmt.Errorf(
			"%w: %s has %d, got %d",
			ports.ErrInsufficientBalance, account, l.balances[account], amount,
		)
	}
	escrowed, err := add(l.escrows[custodian], amount)
	if err != nil {
		return err
	}

	l.allowances[key] -= amount
	l.balances[account] -= amount
	l.escrows[custodian] = escrowed
	return nil
}

func (l *ledger) Credit(
	_ context.Context, custodian, account string, amount domain.Stake,
) error {
	if custodian == account {
		return fmt.Errorf("custodian and account must differ")
	}

	l.lock.Lock()
	defer l.lock.Unlock()

	if err := l.checkAccount(account); err != nil {
		return err
	}
	if l.escrows[custodian] < amount {
		return fmt.Errorf(
			"%w: %s holds %d, got %d",
			ports.ErrInsufficientBalance, custodian, l.escrows[custodian], amount,
		)
	}
	accountBalance, err := add(l.balances[account], amount)
	if err != nil {
		return err
	}

	l.escrows[custodian] -= amount
	l.balances[account] = accountBalance
	return nil
}

func (l *ledger) Close() {}

// checkAccount must be called with the lock held.
func (l *ledger) checkAccount(account string) error {
	if _, ok := l.escrows[account]; ok {
		return fmt.Errorf("%w: %s", ports.ErrCustodianAccount, account)
	}
	return nil
}

func add(a, b domain.Stake) (domain.Stake, error) {
	sum, carry := bits.Add64(uint64(a), uint64(b), 0)
	if carry != 0 {
		return 0, ports.ErrBalanceOverflow
	}
	return domain.Stake(sum), nil
}
