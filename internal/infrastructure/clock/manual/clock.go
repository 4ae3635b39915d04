package manualclock

import (
	"fmt"
	"sync"

	"github.com/ark-network/oracle/internal/core/ports"
)

// Clock only moves when told to. It backs scripted scenarios and tests.
type Clock struct {
	lock *sync.RWMutex
	now  int64
	unit ports.TimeUnit
}

func NewClock(now int64, unit ports.TimeUnit) *Clock {
	return &Clock{
		lock: &sync.RWMutex{},
		now:  now,
		unit: unit,
	}
}

func (c *Clock) Now() int64 {
	c.lock.RLock()
	defer c.lock.RUnlock()

	return c.now
}

func (c *Clock) Unit() ports.TimeUnit {
	return c.unit
}

func (c *Clock) Start() error { return nil }

func (c *Clock) Stop() {}

func (c *Clock) Advance(delta int64) error {
	if delta < 0 {
		return fmt.Errorf("clock cannot go backwards")
	}

	c.lock.Lock()
	defer c.lock.Unlock()

	c.now += delta
	return nil
}

func (c *Clock) Set(now int64) error {
	c.lock.Lock()
	defer c.lock.Unlock()

	if now < c.now {
		return fmt.Errorf("clock cannot go backwards, current %d, got %d", c.now, now)
	}
	c.now = now
	return nil
}
