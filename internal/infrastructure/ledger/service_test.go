package ledger_test

import (
	"context"
	"os"
	"sync"
	"testing"

	"github.com/ark-network/oracle/internal/core/domain"
	"github.com/ark-network/oracle/internal/core/ports"
	"github.com/ark-network/oracle/internal/infrastructure/ledger"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

const redisUrlEnv = "ORACLE_TEST_REDIS_URL"

func TestLedger(t *testing.T) {
	tests := []struct {
		name       string
		ledgerType string
		config     []interface{}
	}{
		{
			name:       "inmemory_ledger",
			ledgerType: "inmemory",
		},
		{
			name:       "inmemory_sqlite_ledger",
			ledgerType: "sqlite",
			config:     []interface{}{""},
		},
		{
			name:       "sqlite_ledger",
			ledgerType: "sqlite",
			config:     []interface{}{t.TempDir()},
		},
		{
			name:       "redis_ledger",
			ledgerType: "redis",
			config:     []interface{}{os.Getenv(redisUrlEnv), 50},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.ledgerType == "redis" && os.Getenv(redisUrlEnv) == "" {
				t.Skipf("%s not set", redisUrlEnv)
			}

			svc, err := ledger.NewService(tt.ledgerType, tt.config...)
			require.NoError(t, err)
			defer svc.Close()

			testDeposit(t, svc)
			testApprove(t, svc)
			testDebitAndCredit(t, svc)
			testConcurrentDebits(t, svc)
			testEscrowIsolation(t, svc)
		})
	}

	t.Run("invalid", func(t *testing.T) {
		svc, err := ledger.NewService("postgres")
		require.Error(t, err)
		require.Nil(t, svc)

		svc, err = ledger.NewService("sqlite")
		require.Error(t, err)
		require.Nil(t, svc)

		svc, err = ledger.NewService("redis", "")
		require.Error(t, err)
		require.Nil(t, svc)
	})
}

func testDeposit(t *testing.T, svc ports.Ledger) {
	t.Run("deposit", func(t *testing.T) {
		ctx := context.Background()
		account := uuid.New().String()

		balance, err := svc.Balance(ctx, account)
		require.NoError(t, err)
		require.Zero(t, balance)

		require.NoError(t, svc.Deposit(ctx, account, 100))
		require.NoError(t, svc.Deposit(ctx, account, 50))

		balance, err = svc.Balance(ctx, account)
		require.NoError(t, err)
		require.Equal(t, domain.Stake(150), balance)

		require.Error(t, svc.Deposit(ctx, "", 10))
	})
}

func testApprove(t *testing.T, svc ports.Ledger) {
	t.Run("approve", func(t *testing.T) {
		ctx := context.Background()
		owner, spender := uuid.New().String(), uuid.New().String()

		allowance, err := svc.Allowance(ctx, owner, spender)
		require.NoError(t, err)
		require.Zero(t, allowance)

		require.NoError(t, svc.Approve(ctx, owner, spender, 300))
		require.NoError(t, svc.Approve(ctx, owner, spender, 200))

		allowance, err = svc.Allowance(ctx, owner, spender)
		require.NoError(t, err)
		require.Equal(t, domain.Stake(200), allowance)

		allowance, err = svc.Allowance(ctx, spender, owner)
		require.NoError(t, err)
		require.Zero(t, allowance)
	})
}

func testDebitAndCredit(t *testing.T, svc ports.Ledger) {
	t.Run("debit_and_credit", func(t *testing.T) {
		ctx := context.Background()
		custodian, alice, bob := uuid.New().String(), uuid.New().String(), uuid.New().String()

		require.NoError(t, svc.Deposit(ctx, alice, 1000))

		err := svc.Debit(ctx, custodian, alice, 100)
		require.ErrorIs(t, err, ports.ErrInsufficientAllowance)

		require.NoError(t, svc.Approve(ctx, alice, custodian, 2000))
		err = svc.Debit(ctx, custodian, alice, 1500)
		require.ErrorIs(t, err, ports.ErrInsufficientBalance)

		require.NoError(t, svc.Debit(ctx, custodian, alice, 400))
		requireBalance(t, svc, alice, 600)
		requireEscrowed(t, svc, custodian, 400)
		requireBalance(t, svc, custodian, 0)

		allowance, err := svc.Allowance(ctx, alice, custodian)
		require.NoError(t, err)
		require.Equal(t, domain.Stake(1600), allowance)

		err = svc.Credit(ctx, custodian, bob, 500)
		require.ErrorIs(t, err, ports.ErrInsufficientBalance)

		require.NoError(t, svc.Credit(ctx, custodian, bob, 400))
		requireBalance(t, svc, bob, 400)
		requireEscrowed(t, svc, custodian, 0)

		require.Error(t, svc.Debit(ctx, alice, alice, 1))
		require.Error(t, svc.Credit(ctx, alice, alice, 1))
	})
}

func testConcurrentDebits(t *testing.T, svc ports.Ledger) {
	t.Run("concurrent_debits", func(t *testing.T) {
		ctx := context.Background()
		custodian, account := uuid.New().String(), uuid.New().String()
		require.NoError(t, svc.Deposit(ctx, account, 100))
		require.NoError(t, svc.Approve(ctx, account, custodian, 100))

		wg := sync.WaitGroup{}
		errs := make(chan error, 20)
		for i := 0; i < 20; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				errs <- svc.Debit(ctx, custodian, account, 10)
			}()
		}
		wg.Wait()
		close(errs)

		succeeded := 0
		for err := range errs {
			if err == nil {
				succeeded++
			}
		}
		require.Equal(t, 10, succeeded)
		requireBalance(t, svc, account, 0)
		requireEscrowed(t, svc, custodian, 100)
	})
}

func testEscrowIsolation(t *testing.T, svc ports.Ledger) {
	t.Run("escrow_isolation", func(t *testing.T) {
		ctx := context.Background()
		resolverA, resolverB := uuid.New().String(), uuid.New().String()
		alice, bob := uuid.New().String(), uuid.New().String()

		require.NoError(t, svc.Deposit(ctx, alice, 100))
		require.NoError(t, svc.Approve(ctx, alice, resolverA, 100))
		require.NoError(t, svc.Debit(ctx, resolverA, alice, 100))
		requireEscrowed(t, svc, resolverA, 100)

		// a custodian can't act as an account to move its escrow elsewhere.
		err := svc.Approve(ctx, resolverA, resolverB, 100)
		require.ErrorIs(t, err, ports.ErrCustodianAccount)
		err = svc.Debit(ctx, resolverB, resolverA, 100)
		require.ErrorIs(t, err, ports.ErrCustodianAccount)
		require.NotErrorIs(t, err, domain.ErrInsufficientFunds)
		err = svc.Deposit(ctx, resolverA, 10)
		require.ErrorIs(t, err, ports.ErrCustodianAccount)
		err = svc.Credit(ctx, resolverB, resolverA, 10)
		require.Error(t, err)

		requireEscrowed(t, svc, resolverA, 100)
		requireEscrowed(t, svc, resolverB, 0)
		requireBalance(t, svc, resolverA, 0)

		require.NoError(t, svc.Credit(ctx, resolverA, bob, 100))
		requireBalance(t, svc, bob, 100)
		requireEscrowed(t, svc, resolverA, 0)
	})

	t.Run("escrow_separate_from_balance", func(t *testing.T) {
		ctx := context.Background()
		resolverA, resolverB := uuid.New().String(), uuid.New().String()
		alice := uuid.New().String()

		// funds deposited under a resolver id before it holds any escrow
		// stay in the account namespace.
		require.NoError(t, svc.Deposit(ctx, resolverA, 50))
		require.NoError(t, svc.Approve(ctx, resolverA, resolverB, 50))
		require.NoError(t, svc.Debit(ctx, resolverB, resolverA, 50))
		requireEscrowed(t, svc, resolverB, 50)
		requireEscrowed(t, svc, resolverA, 0)

		require.NoError(t, svc.Deposit(ctx, alice, 100))
		require.NoError(t, svc.Approve(ctx, alice, resolverA, 100))
		require.NoError(t, svc.Debit(ctx, resolverA, alice, 100))
		requireEscrowed(t, svc, resolverA, 100)
		requireEscrowed(t, svc, resolverB, 50)

		err := svc.Credit(ctx, resolverA, alice, 101)
		require.ErrorIs(t, err, ports.ErrInsufficientBalance)
		require.NoError(t, svc.Credit(ctx, resolverA, alice, 100))
		requireBalance(t, svc, alice, 100)
	})
}

func requireEscrowed(
	t *testing.T, svc ports.Ledger, custodian string, expected domain.Stake,
) {
	escrowed, err := svc.Escrowed(context.Background(), custodian)
	require.NoError(t, err)
	require.Equal(t, expected, escrowed)
}

func requireBalance(t *testing.T, svc ports.Ledger, account string, expected domain.Stake) {
	balance, err := svc.Balance(context.Background(), account)
	require.NoError(t, err)
	require.Equal(t, expected, balance)
}
