package domain

import "sort"

// TimeGrid is the weekly period layout: which days are in use, how many
// periods per day, and which adjacent period pairs may legally host a
// double lesson (a pair never crosses a pause/lunch break).
type TimeGrid struct {
	Days          int   `json:"days" yaml:"days" validate:"required,gte=5,lte=6"`
	PeriodsPerDay int   `json:"periods_per_day" yaml:"periods_per_day" validate:"required,gt=0"`
	PauseAfter    []int `json:"pause_after,omitempty" yaml:"pause_after,omitempty"`

	doublePairs []DayPeriod
}

// NewTimeGrid builds a grid and precomputes its legal double-period starts.
// Enforces the invariant that a double block never straddles a period in
// PauseAfter (e.g. a lunch break between periods 6 and 7).
func NewTimeGrid(days, periodsPerDay int, pauseAfter []int) (*TimeGrid, error) {
	g := &TimeGrid{Days: days, PeriodsPerDay: periodsPerDay, PauseAfter: pauseAfter}
	if days < 5 || days > 6 {
		return nil, newInputViolation("time grid: days must be 5 or 6, got %d", days)
	}
	if periodsPerDay < 1 {
		return nil, newInputViolation("time grid: periods_per_day must be positive, got %d", periodsPerDay)
	}
	pause := make(map[int]bool, len(pauseAfter))
	for _, p := range pauseAfter {
		pause[p] = true
	}
	g.doublePairs = nil
	for day := 0; day < days; day++ {
		for period := 1; period < periodsPerDay; period++ {
			if pause[period] {
				continue
			}
			g.doublePairs = append(g.doublePairs, DayPeriod{Day: day, Period: period})
		}
	}
	return g, nil
}

// AllSlots enumerates every (day, period) in the grid in canonical order:
// day-major, then period ascending.
func (g *TimeGrid) AllSlots() []DayPeriod {
	out := make([]DayPeriod, 0, g.Days*g.PeriodsPerDay)
	for day := 0; day < g.Days; day++ {
		for period := 1; period <= g.PeriodsPerDay; period++ {
			out = append(out, DayPeriod{Day: day, Period: period})
		}
	}
	return out
}

// DoubleStarts returns the (day, period) pairs at which a double lesson may
// legally begin — period and period+1 on the same day, not separated by a
// configured pause.
func (g *TimeGrid) DoubleStarts() []DayPeriod {
	out := make([]DayPeriod, len(g.doublePairs))
	copy(out, g.doublePairs)
	sort.Slice(out, func(i, j int) bool {
		if out[i].Day != out[j].Day {
			return out[i].Day < out[j].Day
		}
		return out[i].Period < out[j].Period
	})
	return out
}

// CanDouble reports whether a double lesson may start at (day, period).
func (g *TimeGrid) CanDouble(day, period int) bool {
	for _, dp := range g.doublePairs {
		if dp.Day == day && dp.Period == period {
			return true
		}
	}
	return false
}

// TotalWeeklyPeriods is Days * PeriodsPerDay.
func (g *TimeGrid) TotalWeeklyPeriods() int {
	return g.Days * g.PeriodsPerDay
}

// Rebuild recomputes the derived doublePairs index. Required after
// unmarshaling a TimeGrid from JSON/YAML, since the unexported index is not
// part of the wire format.
func (g *TimeGrid) Rebuild() error {
	rebuilt, err := NewTimeGrid(g.Days, g.PeriodsPerDay, g.PauseAfter)
	if err != nil {
		return err
	}
	g.doublePairs = rebuilt.doublePairs
	return nil
}
