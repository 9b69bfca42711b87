package solver

import (
	"fmt"
	"sort"

	"github.com/sekundarstufe/stundenplan-core/internal/cpsat"
	"github.com/sekundarstufe/stundenplan-core/internal/domain"
)

// GapVariables is the single shared source of truth for "gap" semantics
// (spec §4.4): per (teacher, day, period) an "active" indicator — occupied
// by a regular lesson or a coupling group, never a narrower definition — and
// an "is_gap" indicator for a free period sandwiched between two active
// ones. Both H14 and the soft gap-penalty term (§4.5) read from here; no
// other package computes gaps independently (spec §9's Open Question).
type GapVariables struct {
	Active map[teacherSlotKey]cpsat.BoolVar
	IsGap  map[teacherSlotKey]cpsat.BoolVar
}

// BuildGapVariables constructs the active/is_gap indicators for every
// teacher and day. vars.BuildCouplingBusy must have already been called.
func BuildGapVariables(model *cpsat.Model, data *domain.SchoolData, vars *Variables) *GapVariables {
	g := &GapVariables{
		Active: map[teacherSlotKey]cpsat.BoolVar{},
		IsGap:  map[teacherSlotKey]cpsat.BoolVar{},
	}

	for ti := range data.Teachers {
		t := &data.Teachers[ti]
		byDay := map[int][]domain.DayPeriod{}
		for _, s := range vars.Slots.Slots {
			byDay[s.Day] = append(byDay[s.Day], s.DayPeriod)
		}
		days := make([]int, 0, len(byDay))
		for d := range byDay {
			days = append(days, d)
		}
		sort.Ints(days)

		for _, d := range days {
			periods := byDay[d]
			sort.Slice(periods, func(i, j int) bool { return periods[i].Period < periods[j].Period })
			if len(periods) < 3 {
				continue // spec §4.4.3: fewer than three periods can't yield a gap
			}

			active := make([]cpsat.BoolVar, len(periods))
			for i, dp := range periods {
				tsk := teacherSlotKey{Teacher: t.ID, Day: dp.Day, Period: dp.Period}
				var lits []cpsat.Lit
				for _, sv := range vars.ByTeacherSlot[tsk] {
					lits = append(lits, cpsat.T(sv))
				}
				for _, bv := range vars.CouplingBusy[tsk] {
					lits = append(lits, cpsat.T(bv))
				}
				name := fmt.Sprintf("active[%s,%d,%d]", t.ID, dp.Day, dp.Period)
				active[i] = model.OrAux(name, lits...)
				g.Active[tsk] = active[i]
			}

			for i, dp := range periods {
				var beforeLits, afterLits []cpsat.Lit
				for j := 0; j < i; j++ {
					beforeLits = append(beforeLits, cpsat.T(active[j]))
				}
				for j := i + 1; j < len(periods); j++ {
					afterLits = append(afterLits, cpsat.T(active[j]))
				}
				before := model.OrAux(fmt.Sprintf("before[%s,%d,%d]", t.ID, dp.Day, dp.Period), beforeLits...)
				after := model.OrAux(fmt.Sprintf("after[%s,%d,%d]", t.ID, dp.Day, dp.Period), afterLits...)
				isGap := model.AndAux(fmt.Sprintf("is_gap[%s,%d,%d]", t.ID, dp.Day, dp.Period),
					cpsat.T(before), cpsat.T(after), cpsat.F(active[i]))
				g.IsGap[teacherSlotKey{Teacher: t.ID, Day: dp.Day, Period: dp.Period}] = isGap
			}
		}
	}
	return g
}

// WeeklyGapSum returns the linear expression summing every is_gap indicator
// for teacher t, used by both H14's optional cap and the soft penalty term.
func (g *GapVariables) WeeklyGapSum(teacherID string) cpsat.LinearExpr {
	expr := cpsat.NewLinearExpr()
	for k, v := range g.IsGap {
		if k.Teacher == teacherID {
			expr.AddTerm(v, 1)
		}
	}
	return expr
}

// DailyGapSum returns the is_gap sum for one (teacher, day), for the
// per-day cap.
func (g *GapVariables) DailyGapSum(teacherID string, day int) cpsat.LinearExpr {
	expr := cpsat.NewLinearExpr()
	for k, v := range g.IsGap {
		if k.Teacher == teacherID && k.Day == day {
			expr.AddTerm(v, 1)
		}
	}
	return expr
}
