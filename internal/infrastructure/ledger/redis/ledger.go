package redisledger

import (
	"context"
	"errors"
	"fmt"
	"math/bits"
	"strconv"

	"github.com/ark-network/oracle/internal/core/domain"
	"github.com/ark-network/oracle/internal/core/ports"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

const (
	balanceKeyPrefix   = "ledger:balance:"
	allowanceKeyPrefix = "ledger:allowance:"
	escrowKeyPrefix    = "ledger:escrow:"

	defaultNumOfRetries = 10
)

type ledger struct {
	rdb          *redis.Client
	numOfRetries int
}

// NewLedger expects the redis url and optionally the number of retries of
// optimistic transactions.
func NewLedger(config ...interface{}) (ports.Ledger, error) {
	if len(config) < 1 || len(config) > 2 {
		return nil, fmt.Errorf("invalid config")
	}
	url, ok := config[0].(string)
	if !ok || url == "" {
		return nil, fmt.Errorf("invalid redis url")
	}
	numOfRetries := defaultNumOfRetries
	if len(config) == 2 && config[1] != nil {
		n, ok := config[1].(int)
		if !ok || n <= 0 {
			return nil, fmt.Errorf("invalid number of retries")
		}
		numOfRetries = n
	}

	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		//nolint:errcheck
		rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &ledger{rdb, numOfRetries}, nil
}

func (l *ledger) Deposit(ctx context.Context, account string, amount domain.Stake) error {
	if account == "" {
		return fmt.Errorf("missing account")
	}

	key := balanceKey(account)
	escrowK := escrowKey(account)
	return l.withRetries(ctx, func(tx *redis.Tx) error {
		if err := checkAccount(ctx, tx, account); err != nil {
			return err
		}
		balance, err := getAmount(ctx, tx, key)
		if err != nil {
			return err
		}
		newBalance, err := add(balance, amount)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			setAmount(ctx, pipe, key, newBalance)
			return nil
		})
		return err
	}, key, escrowK)
}

func (l *ledger) Approve(
	ctx context.Context, owner, spender string, amount domain.Stake,
) error {
	if owner == "" || spender == "" {
		return fmt.Errorf("missing owner or spender")
	}

	key := allowanceKey(owner, spender)
	escrowK := escrowKey(owner)
	return l.withRetries(ctx, func(tx *redis.Tx) error {
		if err := checkAccount(ctx, tx, owner); err != nil {
			return err
		}
		_, err := tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			setAmount(ctx, pipe, key, amount)
			return nil
		})
		return err
	}, key, escrowK)
}

func (l *ledger) Balance(ctx context.Context, account string) (domain.Stake, error) {
	return getAmount(ctx, l.rdb, balanceKey(account))
}

func (l *ledger) Allowance(ctx context.Context, owner, spender string) (domain.Stake, error) {
	return getAmount(ctx, l.rdb, allowanceKey(owner, spender))
}

func (l *ledger) Escrowed(ctx context.Context, custodian string) (domain.Stake, error) {
	return getAmount(ctx, l.rdb, escrowKey(custodian))
}

func (l *ledger) Debit(
	ctx context.Context, custodian, account string, amount domain.Stake,
) error {
	if custodian == account {
		return fmt.Errorf("custodian and account must differ")
	}

	allowanceK := allowanceKey(account, custodian)
	accountK := balanceKey(account)
	accountEscrowK := escrowKey(account)
	custodianK := escrowKey(custodian)
	return l.withRetries(ctx, func(tx *redis.Tx) error {
		if err := checkAccount(ctx, tx, account); err != nil {
			return err
		}
		allowance, err := getAmount(ctx, tx, allowanceK)
		if err != nil {
			return err
		}
		if allowance < amount {
			return fmt.Errorf(
				"%w: %s allowed %s to spend %d, got %d",
				ports.ErrInsufficientAllowance, account, custodian, allowance, amount,
			)
		}
		balance, err := getAmount(ctx, tx, accountK)
		if err != nil {
			return err
		}
		if balance < amount {
			return fmt.Errorf(
				"%w: %s has %d, got %d", ports.ErrInsufficientBalance, account, balance, amount,
			)
		}
		escrowed, err := getAmount(ctx, tx, custodianK)
		if err != nil {
			return err
		}
		newEscrowed, err := add(escrowed, amount)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			setAmount(ctx, pipe, allowanceK, allowance-amount)
			setAmount(ctx, pipe, accountK, balance-amount)
			setAmount(ctx, pipe, custodianK, newEscrowed)
			return nil
		})
		return err
	}, allowanceK, accountK, accountEscrowK, custodianK)
}

func (l *ledger) Credit(
	ctx context.Context, custodian, account string, amount domain.Stake,
) error {
	if custodian == account {
		return fmt.Errorf("custodian and account must differ")
	}

	accountK := balanceKey(account)
	accountEscrowK := escrowKey(account)
	custodianK := escrowKey(custodian)
	return l.withRetries(ctx, func(tx *redis.Tx) error {
		if err := checkAccount(ctx, tx, account); err != nil {
			return err
		}
		escrowed, err := getAmount(ctx, tx, custodianK)
		if err != nil {
			return err
		}
		if escrowed < amount {
			return fmt.Errorf(
				"%w: %s holds %d, got %d",
				ports.ErrInsufficientBalance, custodian, escrowed, amount,
			)
		}
		balance, err := getAmount(ctx, tx, accountK)
		if err != nil {
			return err
		}
		newBalance, err := add(balance, amount)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			setAmount(ctx, pipe, custodianK, escrowed-amount)
			setAmount(ctx, pipe, accountK, newBalance)
			return nil
		})
		return err
	}, accountK, accountEscrowK, custodianK)
}

func (l *ledger) Close() {
	if err := l.rdb.Close(); err != nil {
		log.WithError(err).Warn("failed to close redis client")
	}
}

func (l *ledger) withRetries(
	ctx context.Context, txBody func(tx *redis.Tx) error, keys ...string,
) error {
	for attempt := 0; attempt < l.numOfRetries; attempt++ {
		err := l.rdb.Watch(ctx, txBody, keys...)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return err
	}
	return fmt.Errorf("ledger update failed after %d retries", l.numOfRetries)
}

type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func getAmount(ctx context.Context, rdb getter, key string) (domain.Stake, error) {
	val, err := rdb.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	amount, err := strconv.ParseUint(val, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount at %s: %w", key, err)
	}
	return domain.Stake(amount), nil
}

// checkAccount expects the escrow key of account to be watched by tx.
func checkAccount(ctx context.Context, tx *redis.Tx, account string) error {
	n, err := tx.Exists(ctx, escrowKey(account)).Result()
	if err != nil {
		return err
	}
	if n > 0 {
		return fmt.Errorf("%w: %s", ports.ErrCustodianAccount, account)
	}
	return nil
}

func setAmount(ctx context.Context, pipe redis.Pipeliner, key string, amount domain.Stake) {
	pipe.Set(ctx, key, formatAmount(amount), 0)
}

func formatAmount(amount domain.Stake) string {
	return strconv.FormatUint(uint64(amount), 10)
}

func balanceKey(account string) string {
	return balanceKeyPrefix + account
}

func escrowKey(custodian string) string {
	return escrowKeyPrefix + custodian
}

func allowanceKey(owner, spender string) string {
	return fmt.Sprintf("%s%s:%s", allowanceKeyPrefix, owner, spender)
}

func add(a, b domain.Stake) (domain.Stake, error) {
	sum, carry := bits.Add64(uint64(a), uint64(b), 0)
	if carry != 0 {
		return 0, ports.ErrBalanceOverflow
	}
	return domain.Stake(sum), nil
}
