package slotindex

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sekundarstufe/stundenplan-core/internal/domain"
)

func TestBuild_CanonicalOrderingAndRank(t *testing.T) {
	grid, err := domain.NewTimeGrid(5, 4, nil)
	require.NoError(t, err)
	idx := Build(grid)

	require.Len(t, idx.Slots, 20)
	assert.Equal(t, 0, idx.RankOf(domain.DayPeriod{Day: 0, Period: 1}))
	assert.Equal(t, 4, idx.RankOf(domain.DayPeriod{Day: 1, Period: 1}))
	assert.Equal(t, -1, idx.RankOf(domain.DayPeriod{Day: 9, Period: 1}))
}

func TestBuild_DoublePairsRespectPause(t *testing.T) {
	grid, err := domain.NewTimeGrid(5, 6, []int{3})
	require.NoError(t, err)
	idx := Build(grid)

	assert.True(t, idx.IsDoubleStart(domain.DayPeriod{Day: 0, Period: 4}))
	assert.False(t, idx.IsDoubleStart(domain.DayPeriod{Day: 0, Period: 3}), "period 3 must not start a double across the pause")

	peer := idx.DoublePeer(domain.DayPeriod{Day: 0, Period: 4})
	assert.Equal(t, domain.DayPeriod{Day: 0, Period: 5}, peer)
}

func TestBuild_SingleOnlyExcludesDoubleStarts(t *testing.T) {
	grid, err := domain.NewTimeGrid(5, 4, nil)
	require.NoError(t, err)
	idx := Build(grid)

	singles := idx.SingleOnly()
	for _, s := range singles {
		assert.False(t, idx.IsDoubleStart(s))
	}
	assert.Contains(t, singles, domain.DayPeriod{Day: 0, Period: 4}, "last period of the day is always single-only")
}

func TestBuild_ByDayGroupsInPeriodOrder(t *testing.T) {
	grid, err := domain.NewTimeGrid(5, 3, nil)
	require.NoError(t, err)
	idx := Build(grid)

	byDay := idx.ByDay()
	require.Len(t, byDay, 5)
	assert.Equal(t, []int{0, 1, 2}, byDay[0])
	assert.Equal(t, []int{3, 4, 5}, byDay[1])
}
