package countdown

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCountdown_TickClampsAtZero(t *testing.T) {
	c := New(2)
	require.False(t, c.Done())

	c.Tick()
	require.Equal(t, 1, c.Remaining())
	c.Tick()
	require.True(t, c.Done())

	// Further ticks stay at zero.
	c.Tick()
	require.Equal(t, 0, c.Remaining())
}

func TestCountdown_Reset(t *testing.T) {
	c := New(0)
	require.True(t, c.Done())

	c.Reset(120)
	require.Equal(t, 120, c.Remaining())
	require.False(t, c.Done())

	c.Reset(-5)
	require.True(t, c.Done())
}

func TestFormat(t *testing.T) {
	require.Equal(t, "2:00", Format(120))
	require.Equal(t, "1:59", Format(119))
	require.Equal(t, "0:05", Format(5))
	require.Equal(t, "0:00", Format(0))
	require.Equal(t, "0:00", Format(-3))
}
