package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTimeGrid_RejectsBadDayCount(t *testing.T) {
	_, err := NewTimeGrid(4, 6, nil)
	require.Error(t, err)
}

func TestNewTimeGrid_DoubleStartsSkipPause(t *testing.T) {
	g, err := NewTimeGrid(5, 8, []int{6})
	require.NoError(t, err)

	assert.True(t, g.CanDouble(0, 1))
	assert.True(t, g.CanDouble(0, 5))
	assert.False(t, g.CanDouble(0, 6), "a double may not straddle the configured pause")
	assert.True(t, g.CanDouble(0, 7))
}

func TestTimeGrid_AllSlotsCanonicalOrder(t *testing.T) {
	g, err := NewTimeGrid(5, 3, nil)
	require.NoError(t, err)

	slots := g.AllSlots()
	require.Len(t, slots, 15)
	assert.Equal(t, DayPeriod{Day: 0, Period: 1}, slots[0])
	assert.Equal(t, DayPeriod{Day: 0, Period: 3}, slots[2])
	assert.Equal(t, DayPeriod{Day: 1, Period: 1}, slots[3])
}

func TestTimeGrid_RebuildAfterUnmarshal(t *testing.T) {
	g := &TimeGrid{Days: 5, PeriodsPerDay: 6, PauseAfter: []int{3}}
	require.NoError(t, g.Rebuild())
	assert.False(t, g.CanDouble(0, 3))
	assert.True(t, g.CanDouble(0, 4))
}
