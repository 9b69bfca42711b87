// Package roomassign resolves the room-type placeholders a solve leaves on
// its schedule entries into concrete room IDs (spec §4.6 step 3): per-slot
// double-booking is forbidden, weekly usage is balanced across rooms of a
// type, and all classes of one coupling occurrence share one physical room.
package roomassign

import (
	"context"
	"fmt"
	"sort"

	"github.com/gitrdm/gokanlogic/pkg/minikanren"
	"go.uber.org/zap"

	"github.com/sekundarstufe/stundenplan-core/internal/domain"
)

// occurrenceKey identifies one coupling occurrence: all entries sharing it
// represent the same group of students in the same physical room.
type occurrenceKey struct {
	CouplingID, TeacherID string
	Day, Period           int
}

// slotTypeKey groups room demands by (day, period, room type).
type slotTypeKey struct {
	Day, Period int
	RoomType    string
}

// Assigner tracks per-slot occupancy and cumulative weekly usage while
// walking a solution's entries.
type Assigner struct {
	data   *domain.SchoolData
	logger *zap.Logger

	usedAt    map[domain.DayPeriod]map[string]bool
	weeklyUse map[string]int
}

// New returns an Assigner over the given school data. logger may be nil.
func New(data *domain.SchoolData, logger *zap.Logger) *Assigner {
	return &Assigner{
		data:      data,
		logger:    logger,
		usedAt:    map[domain.DayPeriod]map[string]bool{},
		weeklyUse: map[string]int{},
	}
}

// Apply mutates sol in place: every entry with a RoomType placeholder gets a
// concrete RoomID (or the "<type>-?" shortage sentinel), and entries without
// a specialty requirement get their class's home room.
func (a *Assigner) Apply(sol *domain.Solution) {
	groups := map[slotTypeKey][]int{}
	for i := range sol.Entries {
		e := &sol.Entries[i]
		if e.RoomType == "" {
			if cls := a.data.Class(e.ClassID); cls != nil {
				e.RoomID = cls.HomeRoomID
			}
			continue
		}
		key := slotTypeKey{Day: e.Day, Period: e.Period, RoomType: e.RoomType}
		groups[key] = append(groups[key], i)
	}

	keys := make([]slotTypeKey, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Day != keys[j].Day {
			return keys[i].Day < keys[j].Day
		}
		if keys[i].Period != keys[j].Period {
			return keys[i].Period < keys[j].Period
		}
		return keys[i].RoomType < keys[j].RoomType
	})

	for _, k := range keys {
		a.assignGroup(sol, k, groups[k])
	}
}

// assignGroup resolves every entry of one (day, period, room type) bucket.
// Entries of the same coupling occurrence collapse to a single demand, so
// one physical room serves the whole group regardless of how many classes
// are listed.
func (a *Assigner) assignGroup(sol *domain.Solution, key slotTypeKey, entryIdx []int) {
	type demand struct {
		entries []int
	}
	var demands []demand
	occIndex := map[occurrenceKey]int{}
	for _, i := range entryIdx {
		e := &sol.Entries[i]
		if e.IsCoupling() {
			occ := occurrenceKey{CouplingID: e.CouplingID, TeacherID: e.TeacherID, Day: e.Day, Period: e.Period}
			if di, ok := occIndex[occ]; ok {
				demands[di].entries = append(demands[di].entries, i)
				continue
			}
			occIndex[occ] = len(demands)
			demands = append(demands, demand{entries: []int{i}})
			continue
		}
		demands = append(demands, demand{entries: []int{i}})
	}

	candidates := a.freeRooms(key)
	assigned := a.pickRooms(len(demands), candidates)

	dp := domain.DayPeriod{Day: key.Day, Period: key.Period}
	for di, d := range demands {
		roomID := fmt.Sprintf("%s-?", key.RoomType)
		if di < len(assigned) {
			roomID = assigned[di]
			if a.usedAt[dp] == nil {
				a.usedAt[dp] = map[string]bool{}
			}
			a.usedAt[dp][roomID] = true
			a.weeklyUse[roomID]++
		} else if a.logger != nil {
			a.logger.Warn("room_shortage",
				zap.String("room_type", key.RoomType),
				zap.Int("day", key.Day),
				zap.Int("period", key.Period),
			)
		}
		for _, i := range d.entries {
			sol.Entries[i].RoomID = roomID
		}
	}
}

// freeRooms lists the rooms of the required type not yet booked at the
// slot, least-used first (ties broken by ID for determinism).
func (a *Assigner) freeRooms(key slotTypeKey) []string {
	dp := domain.DayPeriod{Day: key.Day, Period: key.Period}
	var out []string
	for i := range a.data.Rooms {
		r := &a.data.Rooms[i]
		if r.Type != key.RoomType {
			continue
		}
		if a.usedAt[dp][r.ID] {
			continue
		}
		out = append(out, r.ID)
	}
	sort.Slice(out, func(i, j int) bool {
		if a.weeklyUse[out[i]] != a.weeklyUse[out[j]] {
			return a.weeklyUse[out[i]] < a.weeklyUse[out[j]]
		}
		return out[i] < out[j]
	})
	return out
}

// pickRooms selects n distinct rooms out of candidates (already least-used
// first). The selection is posted as a small finite-domain CSP — one
// variable per demand over the candidate indices, AllDifferent across them —
// so that the distinctness requirement and the load-balancing preference are
// solved together; the first solution enumerates candidates in preference
// order. Falls back to the plain greedy prefix if the CSP yields nothing.
func (a *Assigner) pickRooms(n int, candidates []string) []string {
	if n == 0 || len(candidates) == 0 {
		return nil
	}
	if n > len(candidates) {
		n = len(candidates)
	}
	if n == 1 {
		return candidates[:1]
	}

	m := minikanren.NewModel()
	vars := make([]*minikanren.FDVariable, n)
	for i := range vars {
		vars[i] = m.IntVar(1, len(candidates), fmt.Sprintf("room%d", i+1))
	}
	if err := m.AllDifferent(vars...); err != nil {
		return candidates[:n]
	}
	solutions, err := minikanren.SolveN(context.Background(), m, 1)
	if err != nil || len(solutions) == 0 {
		return candidates[:n]
	}
	out := make([]string, n)
	for i, v := range solutions[0] {
		if i >= n {
			break
		}
		out[i] = candidates[v-1]
	}
	return out
}
