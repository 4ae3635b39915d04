package blockclock_test

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ark-network/oracle/internal/core/ports"
	blockclock "github.com/ark-network/oracle/internal/infrastructure/clock/block"
	"github.com/stretchr/testify/require"
)

func TestBlockClock(t *testing.T) {
	var tip atomic.Int64
	tip.Store(840000)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/blocks/tip/height" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		fmt.Fprintf(w, "%d", tip.Load())
	}))
	defer server.Close()

	clock, err := blockclock.NewClock(server.URL, 10*time.Millisecond)
	require.NoError(t, err)
	require.Equal(t, ports.BlockHeight, clock.Unit())

	require.NoError(t, clock.Start())
	defer clock.Stop()
	require.Equal(t, int64(840000), clock.Now())

	tip.Store(840002)
	require.Eventually(t, func() bool {
		return clock.Now() == 840002
	}, time.Second, 10*time.Millisecond)

	// a lagging explorer never moves the clock back
	tip.Store(839990)
	time.Sleep(50 * time.Millisecond)
	require.Equal(t, int64(840002), clock.Now())
}

func TestBlockClockInvalid(t *testing.T) {
	_, err := blockclock.NewClock("", time.Second)
	require.Error(t, err)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	clock, err := blockclock.NewClock(server.URL, time.Second)
	require.NoError(t, err)
	require.Error(t, clock.Start())
}
