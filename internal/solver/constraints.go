package solver

import (
	"fmt"
	"sort"

	"github.com/sekundarstufe/stundenplan-core/internal/cpsat"
	"github.com/sekundarstufe/stundenplan-core/internal/domain"
)

// ConstraintResult carries the side products of posting the hard
// constraints that downstream stages (the gap builder's consumer, the
// objective, the extractor) need without recomputing them: the shared gap
// variables and any pins that could not be matched to a variable.
type ConstraintResult struct {
	Gaps        *GapVariables
	DroppedPins []string
}

// PostHardConstraints posts H1 through H14, in the order the spec lists
// them (§4.3), plus the optional pin constraints (H13). model and vars must
// come from the same BuildVariables call.
func PostHardConstraints(model *cpsat.Model, data *domain.SchoolData, vars *Variables, pins []domain.PinnedLesson, override ModelOverride) *ConstraintResult {
	vars.BuildCouplingBusy()

	postH1(model, vars)
	postH2(model, vars)
	postH3(model, vars, data)
	postH4(model, vars)
	postH5(model, vars)
	postH6(model, vars, data)
	postH7(model, vars, data, override)
	if !override.UnlimitedRooms {
		postH8(model, vars, data)
	}
	postH9(model, vars, data, override)
	postH9b(model, vars)
	postH10(model, vars, data)
	postH11(model, vars, data)
	if !override.DropCouplings {
		postH12(model, vars, data)
	}
	dropped := postH13(model, vars, pins)

	gaps := BuildGapVariables(model, data, vars)
	postH14(model, gaps, data)

	return &ConstraintResult{Gaps: gaps, DroppedPins: dropped}
}

// H1. slot[t,c,s,d,h] -> assign[t,c,s].
func postH1(model *cpsat.Model, vars *Variables) {
	for sk, sv := range vars.Slot {
		ak := assignKey{Teacher: sk.Teacher, Class: sk.Class, Subject: sk.Subject}
		av := vars.Assign[ak]
		model.AddImplication(cpsat.T(sv), cpsat.T(av))
	}
}

// H2. Exactly one qualified teacher per (class, subject) that has any assign.
func postH2(model *cpsat.Model, vars *Variables) {
	byClassSubject := map[[2]string][]cpsat.Lit{}
	for ak, av := range vars.Assign {
		key := [2]string{ak.Class, ak.Subject}
		byClassSubject[key] = append(byClassSubject[key], cpsat.T(av))
	}
	for _, lits := range byClassSubject {
		model.AddExactlyOne(lits...)
	}
}

// H3. Curriculum satisfaction: Σ slot[t,c,s,d,h] = curriculum[c][s].
func postH3(model *cpsat.Model, vars *Variables, data *domain.SchoolData) {
	for ci := range data.Classes {
		c := &data.Classes[ci]
		for subject, hours := range c.Curriculum {
			if vars.CoveredSubjects[c.ID][subject] {
				continue
			}
			key := [2]string{c.ID, subject}
			slotVars := vars.BySubjectClass[key]
			if len(slotVars) == 0 {
				continue
			}
			expr := cpsat.NewLinearExpr()
			for _, sv := range slotVars {
				expr.AddTerm(sv, 1)
			}
			model.AddLinearConstraint(expr, cpsat.EQ, int64(hours))
		}
	}
}

// H4. Teacher non-conflict: at most one busy indicator per (t,d,h).
func postH4(model *cpsat.Model, vars *Variables) {
	for tsk, regular := range vars.ByTeacherSlot {
		lits := make([]cpsat.Lit, 0, len(regular)+len(vars.CouplingBusy[tsk]))
		for _, sv := range regular {
			lits = append(lits, cpsat.T(sv))
		}
		for _, bv := range vars.CouplingBusy[tsk] {
			lits = append(lits, cpsat.T(bv))
		}
		model.AddAtMostOne(lits...)
	}
	// Teachers with only coupling busy indicators (no regular slot vars at
	// that slot) still need the at-most-one guard.
	for tsk, busy := range vars.CouplingBusy {
		if _, ok := vars.ByTeacherSlot[tsk]; ok {
			continue
		}
		lits := make([]cpsat.Lit, 0, len(busy))
		for _, bv := range busy {
			lits = append(lits, cpsat.T(bv))
		}
		model.AddAtMostOne(lits...)
	}
}

// H5. Class non-conflict: at most one regular/coupling occupant per (c,d,h).
func postH5(model *cpsat.Model, vars *Variables) {
	for csk, regular := range vars.ByClassSlot {
		lits := make([]cpsat.Lit, 0, len(regular))
		for _, sv := range regular {
			lits = append(lits, cpsat.T(sv))
		}
		for _, groupID := range vars.GroupsByClass[csk.Class] {
			if cv, ok := vars.CouplingSlot[couplingSlotKey{Group: groupID, Day: csk.Day, Period: csk.Period}]; ok {
				lits = append(lits, cpsat.T(cv))
			}
		}
		model.AddAtMostOne(lits...)
	}
}

// H6. Teacher unavailability: fix slot vars to 0, forbid coupling assignment
// from activating at unavailable slots.
func postH6(model *cpsat.Model, vars *Variables, data *domain.SchoolData) {
	for ti := range data.Teachers {
		t := &data.Teachers[ti]
		for _, dp := range t.Unavailable {
			tsk := teacherSlotKey{Teacher: t.ID, Day: dp.Day, Period: dp.Period}
			for _, sv := range vars.ByTeacherSlot[tsk] {
				model.AddBoolAnd(cpsat.F(sv))
			}
			for _, ak := range vars.CouplingAssignByTeacher[t.ID] {
				csk := couplingSlotKey{Group: ak.Group, Day: dp.Day, Period: dp.Period}
				if cv, ok := vars.CouplingSlot[csk]; ok {
					model.AddImplication(cpsat.T(vars.CouplingAssign[ak]), cpsat.F(cv))
				}
			}
		}
	}
}

// H7. Per-teacher deputat bounds, with the relaxer's additive buffer
// applied only to the upper bound (see DESIGN.md's Open Question decision).
func postH7(model *cpsat.Model, vars *Variables, data *domain.SchoolData, override ModelOverride) {
	for ti := range data.Teachers {
		t := &data.Teachers[ti]
		expr := teacherActualHoursExpr(data, vars, t.ID)
		model.AddLinearConstraint(expr, cpsat.GE, int64(t.DeputatMin))
		model.AddLinearConstraint(expr, cpsat.LE, int64(t.DeputatMax+override.DeputatMaxBuffer))
	}
}

// teacherActualHoursExpr sums every hour teacher t is scheduled for — regular
// slots plus weighted coupling assignments. Shared by H7's bounds and the
// objective's deputat-deviation term so the two never drift apart.
func teacherActualHoursExpr(data *domain.SchoolData, vars *Variables, teacherID string) cpsat.LinearExpr {
	expr := cpsat.NewLinearExpr()
	for tsk, slotVars := range vars.ByTeacherSlot {
		if tsk.Teacher != teacherID {
			continue
		}
		for _, sv := range slotVars {
			expr.AddTerm(sv, 1)
		}
	}
	for _, ak := range vars.CouplingAssignByTeacher[teacherID] {
		hours := couplingHoursPerWeek(data, ak.Group)
		expr.AddTerm(vars.CouplingAssign[ak], int64(hours))
	}
	return expr
}

func couplingHoursPerWeek(data *domain.SchoolData, groupID string) int {
	for i := range data.Couplings {
		if data.Couplings[i].ID == groupID && len(data.Couplings[i].Members) > 0 {
			return data.Couplings[i].Members[0].Periods
		}
	}
	return 0
}

// roomTypeCapacity returns the number of rooms of the given type, used as
// the room type's simultaneous-use capacity.
func roomTypeCapacity(data *domain.SchoolData, roomType string) int {
	count := 0
	for i := range data.Rooms {
		if data.Rooms[i].Type == roomType {
			count++
		}
	}
	return count
}

// H8. Specialty room capacity: bounded room types can host at most cap(R)
// simultaneous lessons (regular or coupling) requiring them.
func postH8(model *cpsat.Model, vars *Variables, data *domain.SchoolData) {
	roomTypes := map[string]bool{}
	for i := range data.Subjects {
		if data.Subjects[i].NeedsRoom() {
			roomTypes[data.Subjects[i].RequiredRoomType] = true
		}
	}
	for roomType := range roomTypes {
		capacity := roomTypeCapacity(data, roomType)
		if capacity >= 999 {
			continue // effectively unlimited, per spec
		}
		for _, s := range vars.Slots.Slots {
			expr := cpsat.NewLinearExpr()
			for sk, sv := range vars.Slot {
				if sk.Day != s.Day || sk.Period != s.Period {
					continue
				}
				if subj := data.Subject(sk.Subject); subj != nil && subj.RequiredRoomType == roomType {
					expr.AddTerm(sv, 1)
				}
			}
			for i := range data.Couplings {
				g := &data.Couplings[i]
				cv, ok := vars.CouplingSlot[couplingSlotKey{Group: g.ID, Day: s.Day, Period: s.Period}]
				if !ok {
					continue
				}
				coeff := int64(0)
				for _, subject := range vars.GroupSubjects[g.ID] {
					if subj := data.Subject(subject); subj != nil && subj.RequiredRoomType == roomType {
						coeff++
					}
				}
				if coeff > 0 {
					expr.AddTerm(cv, coeff)
				}
			}
			if len(expr.Vars()) == 0 {
				continue
			}
			model.AddLinearConstraint(expr, cpsat.LE, int64(capacity))
		}
	}
}

func doubleSecondSet(vars *Variables) map[domain.DayPeriod]bool {
	out := map[domain.DayPeriod]bool{}
	for _, pair := range vars.Slots.DoublePairs() {
		out[pair[1]] = true
	}
	return out
}

// H9. Double-required subjects: pair linking, forced-zero single-only
// periods, and the odd-N same-day exclusion.
func postH9(model *cpsat.Model, vars *Variables, data *domain.SchoolData, override ModelOverride) {
	secondSet := doubleSecondSet(vars)

	assignKeys := make([]assignKey, 0, len(vars.Assign))
	for ak := range vars.Assign {
		assignKeys = append(assignKeys, ak)
	}
	sort.Slice(assignKeys, func(i, j int) bool {
		if assignKeys[i].Teacher != assignKeys[j].Teacher {
			return assignKeys[i].Teacher < assignKeys[j].Teacher
		}
		if assignKeys[i].Class != assignKeys[j].Class {
			return assignKeys[i].Class < assignKeys[j].Class
		}
		return assignKeys[i].Subject < assignKeys[j].Subject
	})

	for _, ak := range assignKeys {
		subj := data.Subject(ak.Subject)
		if subj == nil || override.ForceNoDoubleRequired || !subj.DoubleRequired {
			continue
		}
		cls := data.Class(ak.Class)
		if cls == nil {
			continue
		}
		n := cls.Curriculum[ak.Subject]

		// Link every legal double start/second pair.
		doubleStartDays := map[int]domain.DayPeriod{}
		for _, pair := range vars.Slots.DoublePairs() {
			start, peer := pair[0], pair[1]
			firstKey := slotKey{Teacher: ak.Teacher, Class: ak.Class, Subject: ak.Subject, Day: start.Day, Period: start.Period}
			secondKey := slotKey{Teacher: ak.Teacher, Class: ak.Class, Subject: ak.Subject, Day: peer.Day, Period: peer.Period}
			firstVar, ok1 := vars.Slot[firstKey]
			secondVar, ok2 := vars.Slot[secondKey]
			if !ok1 || !ok2 {
				continue
			}
			model.AddImplication(cpsat.T(firstVar), cpsat.T(secondVar))
			model.AddImplication(cpsat.T(secondVar), cpsat.T(firstVar))
			doubleStartDays[start.Day] = start
		}

		for _, dp := range vars.Slots.Slots {
			if vars.Slots.IsDoubleStart(dp.DayPeriod) || secondSet[dp.DayPeriod] {
				continue
			}
			sk := slotKey{Teacher: ak.Teacher, Class: ak.Class, Subject: ak.Subject, Day: dp.Day, Period: dp.Period}
			sv, ok := vars.Slot[sk]
			if !ok {
				continue
			}
			if n == 1 {
				continue // a lone single is permitted
			}
			if n%2 == 0 {
				model.AddBoolAnd(cpsat.F(sv))
				continue
			}
			// n odd and >= 3: forbid same-day co-occurrence with a double start.
			if start, ok := doubleStartDays[dp.Day]; ok {
				startKey := slotKey{Teacher: ak.Teacher, Class: ak.Class, Subject: ak.Subject, Day: start.Day, Period: start.Period}
				if startVar, ok := vars.Slot[startKey]; ok {
					expr := cpsat.NewLinearExpr()
					expr.AddTerm(startVar, 1)
					expr.AddTerm(sv, 1)
					model.AddLinearConstraint(expr, cpsat.LE, 1)
				}
			}
		}
	}
}

// H9b. double[t,c,s,d,h] <-> slot[h] ∧ slot[h+1].
func postH9b(model *cpsat.Model, vars *Variables) {
	for sk, dv := range vars.Double {
		peer := vars.Slots.DoublePeer(domain.DayPeriod{Day: sk.Day, Period: sk.Period})
		firstVar := vars.Slot[sk]
		secondKey := slotKey{Teacher: sk.Teacher, Class: sk.Class, Subject: sk.Subject, Day: peer.Day, Period: peer.Period}
		secondVar := vars.Slot[secondKey]

		model.AddImplication(cpsat.T(dv), cpsat.T(firstVar))
		model.AddImplication(cpsat.T(dv), cpsat.T(secondVar))

		expr := cpsat.NewLinearExpr()
		expr.AddTerm(firstVar, 1)
		expr.AddTerm(secondVar, 1)
		expr.AddTerm(dv, -1)
		model.AddLinearConstraint(expr, cpsat.LE, 1)
	}
}

// H10. Compact class day: active periods form a prefix of the day.
func postH10(model *cpsat.Model, vars *Variables, data *domain.SchoolData) {
	for ci := range data.Classes {
		c := &data.Classes[ci]
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

			active := make([]cpsat.BoolVar, len(periods))
			for i, dp := range periods {
				csk := classSlotKey{Class: c.ID, Day: dp.Day, Period: dp.Period}
				var lits []cpsat.Lit
				for _, sv := range vars.ByClassSlot[csk] {
					lits = append(lits, cpsat.T(sv))
				}
				for _, groupID := range vars.GroupsByClass[c.ID] {
					if cv, ok := vars.CouplingSlot[couplingSlotKey{Group: groupID, Day: dp.Day, Period: dp.Period}]; ok {
						lits = append(lits, cpsat.T(cv))
					}
				}
				active[i] = model.OrAux(fmt.Sprintf("classactive[%s,%d,%d]", c.ID, dp.Day, dp.Period), lits...)
			}
			for i := 1; i < len(active); i++ {
				model.AddImplication(cpsat.T(active[i]), cpsat.T(active[i-1]))
			}
		}
	}
}

// H11. Teacher max hours per day.
func postH11(model *cpsat.Model, vars *Variables, data *domain.SchoolData) {
	for ti := range data.Teachers {
		t := &data.Teachers[ti]
		byDay := map[int]cpsat.LinearExpr{}
		for tsk, slotVars := range vars.ByTeacherSlot {
			if tsk.Teacher != t.ID {
				continue
			}
			expr := byDay[tsk.Day]
			for _, sv := range slotVars {
				expr.AddTerm(sv, 1)
			}
			byDay[tsk.Day] = expr
		}
		for tsk, busy := range vars.CouplingBusy {
			if tsk.Teacher != t.ID {
				continue
			}
			expr := byDay[tsk.Day]
			for _, bv := range busy {
				expr.AddTerm(bv, 1)
			}
			byDay[tsk.Day] = expr
		}
		for _, expr := range byDay {
			e := expr
			model.AddLinearConstraint(e, cpsat.LE, int64(t.MaxHoursPerDay))
		}
	}
}

// H12. Coupling totals and unique group-teacher assignment.
func postH12(model *cpsat.Model, vars *Variables, data *domain.SchoolData) {
	for i := range data.Couplings {
		g := &data.Couplings[i]
		expr := cpsat.NewLinearExpr()
		for _, s := range vars.Slots.Slots {
			if cv, ok := vars.CouplingSlot[couplingSlotKey{Group: g.ID, Day: s.Day, Period: s.Period}]; ok {
				expr.AddTerm(cv, 1)
			}
		}
		hours := 0
		if len(g.Members) > 0 {
			hours = g.Members[0].Periods
		}
		model.AddLinearConstraint(expr, cpsat.EQ, int64(hours))

		for _, subject := range vars.GroupSubjects[g.ID] {
			var lits []cpsat.Lit
			for ak, av := range vars.CouplingAssign {
				if ak.Group == g.ID && ak.Subject == subject {
					lits = append(lits, cpsat.T(av))
				}
			}
			model.AddExactlyOne(lits...)
		}
	}
}

// H13. Pinned lessons. Returns the IDs of pins that could not be matched to
// a variable (underspecified teacher, or a subject absent from the class's
// curriculum) — these are dropped silently per spec §7, logged by the caller.
func postH13(model *cpsat.Model, vars *Variables, pins []domain.PinnedLesson) []string {
	var dropped []string
	for _, p := range pins {
		if p.TeacherID == "" {
			dropped = append(dropped, p.ID)
			continue
		}
		sk := slotKey{Teacher: p.TeacherID, Class: p.ClassID, Subject: p.Subject, Day: p.Day, Period: p.Period}
		sv, ok := vars.Slot[sk]
		if !ok {
			dropped = append(dropped, p.ID)
			continue
		}
		model.AddBoolAnd(cpsat.T(sv))
	}
	return dropped
}

// H14. Optional gap caps: weekly per teacher, and per day when a teacher
// carries a daily cap. A cap of 0 means "no hard cap, soft objective only".
func postH14(model *cpsat.Model, gaps *GapVariables, data *domain.SchoolData) {
	for ti := range data.Teachers {
		t := &data.Teachers[ti]
		if t.MaxGapsPerWeek > 0 {
			model.AddLinearConstraint(gaps.WeeklyGapSum(t.ID), cpsat.LE, int64(t.MaxGapsPerWeek))
		}
		if t.MaxGapsPerDay > 0 {
			for day := 0; day < data.Grid.Days; day++ {
				expr := gaps.DailyGapSum(t.ID, day)
				if len(expr.Vars()) == 0 {
					continue
				}
				model.AddLinearConstraint(expr, cpsat.LE, int64(t.MaxGapsPerDay))
			}
		}
	}
}
