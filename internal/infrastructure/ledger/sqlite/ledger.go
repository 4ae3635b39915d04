package sqliteledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"path/filepath"

	"github.com/ark-network/oracle/internal/core/domain"
	"github.com/ark-network/oracle/internal/core/ports"
	log "github.com/sirupsen/logrus"
)

const (
	sqliteDbFile = "ledger.db"
	inMemoryDb   = ":memory:"

	selectBalance   = "SELECT amount FROM balance WHERE account = ?"
	upsertBalance   = "INSERT INTO balance (account, amount) VALUES (?, ?) ON CONFLICT(account) DO UPDATE SET amount = excluded.amount"
	selectAllowance = "SELECT amount FROM allowance WHERE owner = ? AND spender = ?"
	upsertAllowance = "INSERT INTO allowance (owner, spender, amount) VALUES (?, ?, ?) ON CONFLICT(owner, spender) DO UPDATE SET amount = excluded.amount"
	selectEscrow    = "SELECT amount FROM escrow WHERE custodian = ?"
	upsertEscrow    = "INSERT INTO escrow (custodian, amount) VALUES (?, ?) ON CONFLICT(custodian) DO UPDATE SET amount = excluded.amount"
)

type ledger struct {
	db *sql.DB
}

// NewLedger expects the directory of the db file, an empty one keeps the
// ledger in memory.
func NewLedger(config ...interface{}) (ports.Ledger, error) {
	if len(config) != 1 {
		return nil, fmt.Errorf("invalid config")
	}
	dir, ok := config[0].(string)
	if !ok {
		return nil, fmt.Errorf("invalid db directory")
	}

	dbPath := inMemoryDb
	if len(dir) > 0 {
		dbPath = filepath.Join(dir, sqliteDbFile)
	}
	db, err := openDb(dbPath)
	if err != nil {
		return nil, err
	}
	if err := migrateDb(db); err != nil {
		//nolint:errcheck
		db.Close()
		return nil, err
	}
	return &ledger{db}, nil
}

func (l *ledger) Deposit(ctx context.Context, account string, amount domain.Stake) error {
	if account == "" {
		return fmt.Errorf("missing account")
	}

	return execTx(ctx, l.db, func(tx *sql.Tx) error {
		if err := checkAccount(ctx, tx, account); err != nil {
			return err
		}
		balance, err := getBalance(ctx, tx, account)
		if err != nil {
			return err
		}
		newBalance, err := add(balance, amount)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, upsertBalance, account, int64(newBalance))
		return err
	})
}

func (l *ledger) Approve(
	ctx context.Context, owner, spender string, amount domain.Stake,
) error {
	if owner == "" || spender == "" {
		return fmt.Errorf("missing owner or spender")
	}
	if amount > math.MaxInt64 {
		return ports.ErrBalanceOverflow
	}

	return execTx(ctx, l.db, func(tx *sql.Tx) error {
		if err := checkAccount(ctx, tx, owner); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, upsertAllowance, owner, spender, int64(amount))
		return err
	})
}

func (l *ledger) Balance(ctx context.Context, account string) (domain.Stake, error) {
	var amount int64
	err := l.db.QueryRowContext(ctx, selectBalance, account).Scan(&amount)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, err
	}
	return domain.Stake(amount), nil
}

func (l *ledger) Allowance(ctx context.Context, owner, spender string) (domain.Stake, error) {
	var amount int64
	err := l.db.QueryRowContext(ctx, selectAllowance, owner, spender).Scan(&amount)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, err
	}
	return domain.Stake(amount), nil
}

func (l *ledger) Escrowed(ctx context.Context, custodian string) (domain.Stake, error) {
	var amount int64
	err := l.db.QueryRowContext(ctx, selectEscrow, custodian).Scan(&amount)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, err
	}
	return domain.Stake(amount), nil
}

func (l *ledger) Debit(
	ctx context.Context, custodian, account string, amount domain.Stake,
) error {
	if custodian == account {
		return fmt.Errorf("custodian and account must differ")
	}

	return execTx(ctx, l.db, func(tx *sql.Tx) error {
		if err := checkAccount(ctx, tx, account); err != nil {
			return err
		}
		allowance, err := getAllowance(ctx, tx, account, custodian)
		if err != nil {
			return err
		}
		if allowance < amount {
			return fmt.Errorf(
				"%w: %s allowed %s to spend %d, got %d",
				ports.ErrInsufficientAllowance, account, custodian, allowance, amount,
			)
		}
		balance, err := getBalance(ctx, tx, account)
		if err != nil {
			return err
		}
		if balance < amount {
			return fmt.Errorf(
				"%w: %s has %d, got %d", ports.ErrInsufficientBalance, account, balance, amount,
			)
		}
		escrowed, _, err := getEscrow(ctx, tx, custodian)
		if err != nil {
			return err
		}
		newEscrowed, err := add(escrowed, amount)
		if err != nil {
			return err
		}

		if _, err := tx.ExecContext(
			ctx, upsertAllowance, account, custodian, int64(allowance-amount),
		); err != nil {
			return err
		}
		if _, err := tx.ExecContext(
			ctx, upsertBalance, account, int64(balance-amount),
		); err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, upsertEscrow, custodian, int64(newEscrowed))
		return err
	})
}

func (l *ledger) Credit(
	ctx context.Context, custodian, account string, amount domain.Stake,
) error {
	if custodian == account {
		return fmt.Errorf("custodian and account must differ")
	}

	return execTx(ctx, l.db, func(tx *sql.Tx) error {
		if err := checkAccount(ctx, tx, account); err != nil {
			return err
		}
		escrowed, _, err := getEscrow(ctx, tx, custodian)
		if err != nil {
			return err
		}
		if escrowed < amount {
			return fmt.Errorf(
				"%w: %s holds %d, got %d",
				ports.ErrInsufficientBalance, custodian, escrowed, amount,
			)
		}
		balance, err := getBalance(ctx, tx, account)
		if err != nil {
			return err
		}
		newBalance, err := add(balance, amount)
		if err != nil {
			return err
		}

		if _, err := tx.ExecContext(
			ctx, upsertEscrow, custodian, int64(escrowed-amount),
		); err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, upsertBalance, account, int64(newBalance))
		return err
	})
}

func (l *ledger) Close() {
	if err := l.db.Close(); err != nil {
		log.WithError(err).Warn("failed to close ledger db")
	}
}

func getBalance(ctx context.Context, tx *sql.Tx, account string) (domain.Stake, error) {
	var amount int64
	err := tx.QueryRowContext(ctx, selectBalance, account).Scan(&amount)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to get balance of %s: %w", account, err)
	}
	return domain.Stake(amount), nil
}

func getAllowance(
	ctx context.Context, tx *sql.Tx, owner, spender string,
) (domain.Stake, error) {
	var amount int64
	err := tx.QueryRowContext(ctx, selectAllowance, owner, spender).Scan(&amount)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to get allowance of %s for %s: %w", owner, spender, err)
	}
	return domain.Stake(amount), nil
}

func getEscrow(
	ctx context.Context, tx *sql.Tx, custodian string,
) (domain.Stake, bool, error) {
	var amount int64
	err := tx.QueryRowContext(ctx, selectEscrow, custodian).Scan(&amount)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("failed to get escrow of %s: %w", custodian, err)
	}
	return domain.Stake(amount), true, nil
}

func checkAccount(ctx context.Context, tx *sql.Tx, account string) error {
	_, isCustodian, err := getEscrow(ctx, tx, account)
	if err != nil {
		return err
	}
	if isCustodian {
		return fmt.Errorf("%w: %s", ports.ErrCustodianAccount, account)
	}
	return nil
}

// amounts are stored as signed 64-bit integers.
func add(a, b domain.Stake) (domain.Stake, error) {
	if b > math.MaxInt64 || a > math.MaxInt64-b {
		return 0, ports.ErrBalanceOverflow
	}
	return a + b, nil
}
