package unixclock

import (
	"sync/atomic"
	"time"

	"github.com/ark-network/oracle/internal/core/ports"
)

// clock reports wall-clock seconds and never goes backwards: a step back of
// the system time (ie. NTP correction) keeps returning the highest value seen.
type clock struct {
	last    *atomic.Int64
	timeNow func() time.Time
}

func NewClock() ports.ClockService {
	return newClock(time.Now)
}

func newClock(timeNow func() time.Time) *clock {
	return &clock{&atomic.Int64{}, timeNow}
}

func (c *clock) Now() int64 {
	now := c.timeNow().Unix()
	for {
		last := c.last.Load()
		if now <= last {
			return last
		}
		if c.last.CompareAndSwap(last, now) {
			return now
		}
	}
}

func (c *clock) Unit() ports.TimeUnit {
	return ports.UnixTime
}

func (c *clock) Start() error { return nil }

func (c *clock) Stop() {}
