package unixclock

import (
	"sync"
	"testing"
	"time"

	"github.com/ark-network/oracle/internal/core/ports"
	"github.com/stretchr/testify/require"
)

type wallClock struct {
	lock sync.Mutex
	now  time.Time
}

func (w *wallClock) Now() time.Time {
	w.lock.Lock()
	defer w.lock.Unlock()
	return w.now
}

func (w *wallClock) set(now time.Time) {
	w.lock.Lock()
	defer w.lock.Unlock()
	w.now = now
}

func TestClock(t *testing.T) {
	t.Run("system_time", func(t *testing.T) {
		svc := NewClock()
		require.NoError(t, svc.Start())
		defer svc.Stop()

		require.Equal(t, ports.UnixTime, svc.Unit())
		require.InDelta(t, time.Now().Unix(), svc.Now(), 1)
	})

	t.Run("never_goes_backwards", func(t *testing.T) {
		wall := &wallClock{now: time.Unix(1200, 0)}
		svc := newClock(wall.Now)

		require.Equal(t, int64(1200), svc.Now())

		wall.set(time.Unix(1198, 0))
		require.Equal(t, int64(1200), svc.Now())

		wall.set(time.Unix(1201, 0))
		require.Equal(t, int64(1201), svc.Now())
	})

	t.Run("concurrent_reads", func(t *testing.T) {
		wall := &wallClock{now: time.Unix(1000, 0)}
		svc := newClock(wall.Now)

		wg := sync.WaitGroup{}
		for i := 0; i < 20; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				wall.set(time.Unix(int64(1000+i%5), 0))
				prev := svc.Now()
				require.GreaterOrEqual(t, svc.Now(), prev)
			}(i)
		}
		wg.Wait()
		require.GreaterOrEqual(t, svc.Now(), int64(1000))
	})
}
