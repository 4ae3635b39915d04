package domain_test

import (
	"context"
	"fmt"
	"sync"

	"github.com/ark-network/oracle/internal/core/domain"
	"github.com/stretchr/testify/mock"
)

type testClock struct {
	lock sync.Mutex
	now  int64
}

func newTestClock(now int64) *testClock {
	return &testClock{now: now}
}

func (c *testClock) Now() int64 {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.now
}

func (c *testClock) advance(delta int64) {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.now += delta
}

// testEscrow keeps plain balances, custodians hold escrowed funds under
// their own id.
type testEscrow struct {
	lock     sync.Mutex
	balances map[string]domain.Stake
}

func newTestEscrow(balances map[string]domain.Stake) *testEscrow {
	return &testEscrow{balances: balances}
}

func (e *testEscrow) Debit(
	_ context.Context, custodian, account string, amount domain.Stake,
) error {
	e.lock.Lock()
	defer e.lock.Unlock()

	if e.balances[account] < amount {
		return fmt.Errorf(
			"%w: account %s has %d, needs %d",
			domain.ErrInsufficientFunds, account, e.balances[account], amount,
		)
	}
	e.balances[account] -= amount
	e.balances[custodian] += amount
	return nil
}

func (e *testEscrow) Credit(
	_ context.Context, custodian, account string, amount domain.Stake,
) error {
	e.lock.Lock()
	defer e.lock.Unlock()

	if e.balances[custodian] < amount {
		return fmt.Errorf("custodian %s has %d, needs %d", custodian, e.balances[custodian], amount)
	}
	e.balances[custodian] -= amount
	e.balances[account] += amount
	return nil
}

func (e *testEscrow) balance(account string) domain.Stake {
	e.lock.Lock()
	defer e.lock.Unlock()
	return e.balances[account]
}

type mockedEscrow struct {
	mock.Mock
}

func (m *mockedEscrow) Debit(
	ctx context.Context, custodian, account string, amount domain.Stake,
) error {
	args := m.Called(ctx, custodian, account, amount)
	return args.Error(0)
}

func (m *mockedEscrow) Credit(
	ctx context.Context, custodian, account string, amount domain.Stake,
) error {
	args := m.Called(ctx, custodian, account, amount)
	return args.Error(0)
}

type staticSource struct {
	outcome *domain.Outcome
}

func resolvedSource(outcome domain.Outcome) *staticSource {
	return &staticSource{&outcome}
}

func unresolvedSource() *staticSource {
	return &staticSource{}
}

func (s *staticSource) IsOutcomeSet() bool {
	return s.outcome != nil
}

func (s *staticSource) GetOutcome() (domain.Outcome, error) {
	if s.outcome == nil {
		return 0, domain.ErrNotResolved
	}
	return *s.outcome, nil
}

func (s *staticSource) set(outcome domain.Outcome) {
	s.outcome = &outcome
}
