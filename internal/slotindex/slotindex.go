// Package slotindex enumerates the canonical set of schedulable slots for a
// TimeGrid and the legal double-period placements within it, per spec §4.1.
package slotindex

import (
	"sort"

	"github.com/sekundarstufe/stundenplan-core/internal/domain"
)

// Slot is a canonically-ordered weekly (day, period) position together with
// its 0-based rank in that ordering — used as the array index backing the
// solver's per-slot variable families.
type Slot struct {
	domain.DayPeriod
	Index int
}

// Index enumerates a TimeGrid's slots in canonical order (day-major, period
// ascending) and classifies which slots may start a double lesson.
type Index struct {
	Slots        []Slot
	bySlot       map[domain.DayPeriod]int
	doubleStart  map[domain.DayPeriod]bool
	doublePeer   map[domain.DayPeriod]domain.DayPeriod // start -> second half
}

// Build constructs the canonical slot index for a grid.
func Build(grid *domain.TimeGrid) *Index {
	all := grid.AllSlots()
	idx := &Index{
		Slots:       make([]Slot, len(all)),
		bySlot:      make(map[domain.DayPeriod]int, len(all)),
		doubleStart: make(map[domain.DayPeriod]bool),
		doublePeer:  make(map[domain.DayPeriod]domain.DayPeriod),
	}
	for i, dp := range all {
		idx.Slots[i] = Slot{DayPeriod: dp, Index: i}
		idx.bySlot[dp] = i
	}
	for _, start := range grid.DoubleStarts() {
		idx.doubleStart[start] = true
		idx.doublePeer[start] = domain.DayPeriod{Day: start.Day, Period: start.Period + 1}
	}
	return idx
}

// RankOf returns the canonical 0-based index for a (day, period), or -1 if
// the slot isn't part of the grid.
func (idx *Index) RankOf(dp domain.DayPeriod) int {
	if i, ok := idx.bySlot[dp]; ok {
		return i
	}
	return -1
}

// IsDoubleStart reports whether a double lesson may begin at dp.
func (idx *Index) IsDoubleStart(dp domain.DayPeriod) bool {
	return idx.doubleStart[dp]
}

// DoublePeer returns the second half of the double lesson starting at dp.
// Only valid when IsDoubleStart(dp) is true.
func (idx *Index) DoublePeer(dp domain.DayPeriod) domain.DayPeriod {
	return idx.doublePeer[dp]
}

// SingleOnly returns the slots at which a double lesson can never start —
// either because they're the last period of the day or because a pause
// immediately follows them.
func (idx *Index) SingleOnly() []domain.DayPeriod {
	var out []domain.DayPeriod
	for _, s := range idx.Slots {
		if !idx.doubleStart[s.DayPeriod] {
			out = append(out, s.DayPeriod)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Day != out[j].Day {
			return out[i].Day < out[j].Day
		}
		return out[i].Period < out[j].Period
	})
	return out
}

// DoublePairs returns every (start, peer) pair of legal double placements.
func (idx *Index) DoublePairs() [][2]domain.DayPeriod {
	var out [][2]domain.DayPeriod
	for _, s := range idx.Slots {
		if idx.doubleStart[s.DayPeriod] {
			out = append(out, [2]domain.DayPeriod{s.DayPeriod, idx.doublePeer[s.DayPeriod]})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i][0], out[j][0]
		if a.Day != b.Day {
			return a.Day < b.Day
		}
		return a.Period < b.Period
	})
	return out
}

// ByDay groups slot ranks by day, in period order, for day-scoped
// constraints (max hours per day, gap counting).
func (idx *Index) ByDay() [][]int {
	days := map[int][]int{}
	maxDay := -1
	for _, s := range idx.Slots {
		days[s.Day] = append(days[s.Day], s.Index)
		if s.Day > maxDay {
			maxDay = s.Day
		}
	}
	out := make([][]int, maxDay+1)
	for day, ranks := range days {
		sort.Ints(ranks)
		out[day] = ranks
	}
	return out
}
