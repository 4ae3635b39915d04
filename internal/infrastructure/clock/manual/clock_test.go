package manualclock_test

import (
	"testing"

	"github.com/ark-network/oracle/internal/core/ports"
	manualclock "github.com/ark-network/oracle/internal/infrastructure/clock/manual"
	"github.com/stretchr/testify/require"
)

func TestClock(t *testing.T) {
	clock := manualclock.NewClock(1000, ports.UnixTime)
	require.NoError(t, clock.Start())
	defer clock.Stop()

	require.Equal(t, int64(1000), clock.Now())
	require.Equal(t, ports.UnixTime, clock.Unit())

	require.NoError(t, clock.Advance(200))
	require.Equal(t, int64(1200), clock.Now())

	require.NoError(t, clock.Advance(0))
	require.Equal(t, int64(1200), clock.Now())

	require.Error(t, clock.Advance(-1))
	require.Equal(t, int64(1200), clock.Now())

	require.NoError(t, clock.Set(1500))
	require.Equal(t, int64(1500), clock.Now())

	require.Error(t, clock.Set(1499))
	require.Equal(t, int64(1500), clock.Now())
}
