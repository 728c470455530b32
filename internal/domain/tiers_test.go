package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMultiplierFor(t *testing.T) {
	cases := []struct {
		duration   time.Duration
		multiplier string
	}{
		{30 * time.Second, "1.8"},
		{60 * time.Second, "1.85"},
		{120 * time.Second, "1.9"},
		{300 * time.Second, "2"},
		{600 * time.Second, "2.2"},
	}
	for _, tc := range cases {
		m, ok := MultiplierFor(tc.duration)
		require.True(t, ok, "duration %s", tc.duration)
		assert.Equal(t, tc.multiplier, m.String())
	}
}

func TestMultiplierForUnknownDuration(t *testing.T) {
	for _, d := range []time.Duration{0, time.Second, 45 * time.Second, time.Hour} {
		_, ok := MultiplierFor(d)
		assert.False(t, ok, "duration %s should not be a tier", d)
	}
}

func TestTierDurationsSorted(t *testing.T) {
	durations := TierDurations()
	require.Len(t, durations, 5)
	assert.Equal(t, 30*time.Second, durations[0])
	assert.Equal(t, 600*time.Second, durations[4])
	for i := 1; i < len(durations); i++ {
		assert.Less(t, durations[i-1], durations[i])
	}
}
