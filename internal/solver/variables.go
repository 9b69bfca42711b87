package solver

import (
	"fmt"
	"sort"

	"github.com/sekundarstufe/stundenplan-core/internal/cpsat"
	"github.com/sekundarstufe/stundenplan-core/internal/domain"
	"github.com/sekundarstufe/stundenplan-core/internal/slotindex"
)

// assignKey identifies one assign[t,c,s] variable (spec §4.2 family 1).
type assignKey struct {
	Teacher, Class, Subject string
}

// slotKey identifies one slot[t,c,s,d,h] or double[t,c,s,d,h] variable.
type slotKey struct {
	Teacher, Class, Subject string
	Day, Period             int
}

// couplingSlotKey identifies one coupling_slot[k,d,h] variable.
type couplingSlotKey struct {
	Group      string
	Day, Period int
}

// couplingAssignKey identifies one coupling_assign[k,g,t] variable — g here
// is a group's subject, since a coupling occurrence's "groups" (spec §3) are
// distinguished by the subject its members are taught.
type couplingAssignKey struct {
	Group, Subject, Teacher string
}

// teacherSlotKey groups slot variables by (teacher, day, period) for H4,
// H6, H11 and the gap builder.
type teacherSlotKey struct {
	Teacher     string
	Day, Period int
}

// teacherClassSubjectDayKey groups slot variables by (teacher, class,
// subject, day) for the subject-spread objective term.
type teacherClassSubjectDayKey struct {
	Teacher, Class, Subject string
	Day                     int
}

// classSlotKey groups slot variables by (class, day, period) for H5 and
// H10's per-class compact-day rule.
type classSlotKey struct {
	Class       string
	Day, Period int
}

// Variables holds the four-plus-one boolean variable families (spec §4.2)
// and the secondary indices built alongside them.
type Variables struct {
	Model    *cpsat.Model
	Data     *domain.SchoolData
	Slots    *slotindex.Index
	Override ModelOverride

	Assign         map[assignKey]cpsat.BoolVar
	Slot           map[slotKey]cpsat.BoolVar
	CouplingSlot   map[couplingSlotKey]cpsat.BoolVar
	CouplingAssign map[couplingAssignKey]cpsat.BoolVar
	Double         map[slotKey]cpsat.BoolVar

	// ByTeacherSlot indexes every slot var by (teacher, day, period) —
	// built during creation per spec §9's anti-quadratic-filter rule.
	ByTeacherSlot map[teacherSlotKey][]cpsat.BoolVar
	// ByTeacherClassSubjectDay indexes slot vars for the subject-spread term.
	ByTeacherClassSubjectDay map[teacherClassSubjectDayKey][]cpsat.BoolVar
	// ByGroupSlot indexes coupling_slot vars by (day, period). H5 and H8
	// read coupling slots through CouplingSlot instead.
	ByGroupSlot map[[2]int][]couplingSlotEntry
	// BySubjectClass indexes slot vars by (class, subject) for H3's
	// curriculum-satisfaction sum, independent of teacher/day/period.
	BySubjectClass map[[2]string][]cpsat.BoolVar
	// CouplingAssignByTeacher indexes coupling_assign keys by teacher, for
	// H4's and the gap builder's per-teacher coupling-busy scan.
	CouplingAssignByTeacher map[string][]couplingAssignKey
	// CouplingBusy[t,d,h] is the OR of every "t teaches a coupling group at
	// (d,h)" AND-linearized indicator, built once and shared by H4, H11 and
	// the gap builder (§4.4).
	CouplingBusy map[teacherSlotKey][]cpsat.BoolVar
	// ByClassSlot indexes slot vars by (class, day, period) for H5/H10.
	ByClassSlot map[classSlotKey][]cpsat.BoolVar
	// GroupsByClass lists, per class, the coupling groups it participates in.
	GroupsByClass map[string][]string

	// CoveredSubjects[classID][subject] is true when that class receives
	// the subject exclusively via a coupling (spec §4.2's "coupling
	// coverage") and therefore never gets assign/slot variables of its own.
	CoveredSubjects map[string]map[string]bool
	// GroupSubjects lists, in stable order, the distinct subjects taught
	// within one coupling group (its "groups" per spec §3).
	GroupSubjects map[string][]string
	// GroupSubjectClasses lists the classes that receive a given subject
	// within a coupling group.
	GroupSubjectClasses map[string]map[string][]string
}

type couplingSlotEntry struct {
	Group string
	Var   cpsat.BoolVar
}

// BuildVariables constructs every decision variable and secondary index for
// one solve, per spec §4.2.
func BuildVariables(model *cpsat.Model, data *domain.SchoolData, slots *slotindex.Index, override ModelOverride) *Variables {
	v := &Variables{
		Model:                    model,
		Data:                     data,
		Slots:                    slots,
		Override:                 override,
		Assign:                   map[assignKey]cpsat.BoolVar{},
		Slot:                     map[slotKey]cpsat.BoolVar{},
		CouplingSlot:             map[couplingSlotKey]cpsat.BoolVar{},
		CouplingAssign:           map[couplingAssignKey]cpsat.BoolVar{},
		Double:                   map[slotKey]cpsat.BoolVar{},
		ByTeacherSlot:            map[teacherSlotKey][]cpsat.BoolVar{},
		ByTeacherClassSubjectDay: map[teacherClassSubjectDayKey][]cpsat.BoolVar{},
		ByGroupSlot:              map[[2]int][]couplingSlotEntry{},
		BySubjectClass:           map[[2]string][]cpsat.BoolVar{},
		CouplingAssignByTeacher:  map[string][]couplingAssignKey{},
		CouplingBusy:             map[teacherSlotKey][]cpsat.BoolVar{},
		ByClassSlot:              map[classSlotKey][]cpsat.BoolVar{},
		GroupsByClass:            map[string][]string{},
		CoveredSubjects:          map[string]map[string]bool{},
		GroupSubjects:            map[string][]string{},
		GroupSubjectClasses:      map[string]map[string][]string{},
	}

	v.buildCoupligCoverage()
	v.buildAssignAndSlot()
	if !override.DropCouplings {
		v.buildCouplingVars()
	}
	v.buildDoubleVars()
	return v
}

func (v *Variables) buildCoupligCoverage() {
	if v.Override.DropCouplings {
		return
	}
	for i := range v.Data.Couplings {
		g := &v.Data.Couplings[i]
		for _, classID := range g.ClassIDs() {
			v.GroupsByClass[classID] = append(v.GroupsByClass[classID], g.ID)
		}
		subjSeen := map[string]bool{}
		for _, m := range g.Members {
			if v.CoveredSubjects[m.ClassID] == nil {
				v.CoveredSubjects[m.ClassID] = map[string]bool{}
			}
			v.CoveredSubjects[m.ClassID][m.Subject] = true

			if !subjSeen[m.Subject] {
				subjSeen[m.Subject] = true
				v.GroupSubjects[g.ID] = append(v.GroupSubjects[g.ID], m.Subject)
			}
			if v.GroupSubjectClasses[g.ID] == nil {
				v.GroupSubjectClasses[g.ID] = map[string][]string{}
			}
			v.GroupSubjectClasses[g.ID][m.Subject] = append(v.GroupSubjectClasses[g.ID][m.Subject], m.ClassID)
		}
		sort.Strings(v.GroupSubjects[g.ID])
	}
}

// buildAssignAndSlot creates assign[t,c,s] and slot[t,c,s,d,h] in
// deterministic order: teachers, then classes, then each teacher's
// qualified subjects — mirroring the input record's own ordering (spec §5
// "Ordering"). Slots past a class's last usable period get no variables at
// all, so no constraint ever has to exclude them.
func (v *Variables) buildAssignAndSlot() {
	for ti := range v.Data.Teachers {
		t := &v.Data.Teachers[ti]
		for ci := range v.Data.Classes {
			c := &v.Data.Classes[ci]
			maxPeriod := c.EffectiveMaxPeriod(v.Data.Grid.PeriodsPerDay)
			for _, subject := range sortedCurriculumSubjects(c.Curriculum) {
				if !t.Qualified(subject) {
					continue
				}
				if v.CoveredSubjects[c.ID][subject] {
					continue
				}
				ak := assignKey{Teacher: t.ID, Class: c.ID, Subject: subject}
				if _, exists := v.Assign[ak]; exists {
					continue
				}
				assignVar := v.Model.NewBoolVar(fmt.Sprintf("assign[%s,%s,%s]", t.ID, c.ID, subject))
				v.Assign[ak] = assignVar

				for _, s := range v.Slots.Slots {
					if s.Period > maxPeriod {
						continue
					}
					sk := slotKey{Teacher: t.ID, Class: c.ID, Subject: subject, Day: s.Day, Period: s.Period}
					slotVar := v.Model.NewBoolVar(fmt.Sprintf("slot[%s,%s,%s,%d,%d]", t.ID, c.ID, subject, s.Day, s.Period))
					v.Slot[sk] = slotVar

					tdk := teacherSlotKey{Teacher: t.ID, Day: s.Day, Period: s.Period}
					v.ByTeacherSlot[tdk] = append(v.ByTeacherSlot[tdk], slotVar)

					tcsd := teacherClassSubjectDayKey{Teacher: t.ID, Class: c.ID, Subject: subject, Day: s.Day}
					v.ByTeacherClassSubjectDay[tcsd] = append(v.ByTeacherClassSubjectDay[tcsd], slotVar)

					scKey := [2]string{c.ID, subject}
					v.BySubjectClass[scKey] = append(v.BySubjectClass[scKey], slotVar)

					clsk := classSlotKey{Class: c.ID, Day: s.Day, Period: s.Period}
					v.ByClassSlot[clsk] = append(v.ByClassSlot[clsk], slotVar)
				}
			}
		}
	}
}

func (v *Variables) buildCouplingVars() {
	for i := range v.Data.Couplings {
		g := &v.Data.Couplings[i]
		// A coupling slot must be usable by every involved class, so the
		// tightest per-class period cap bounds the whole group.
		maxPeriod := v.Data.Grid.PeriodsPerDay
		for _, classID := range g.ClassIDs() {
			if c := v.Data.Class(classID); c != nil {
				if mp := c.EffectiveMaxPeriod(v.Data.Grid.PeriodsPerDay); mp < maxPeriod {
					maxPeriod = mp
				}
			}
		}
		for _, s := range v.Slots.Slots {
			if s.Period > maxPeriod {
				continue
			}
			cskKey := couplingSlotKey{Group: g.ID, Day: s.Day, Period: s.Period}
			cv := v.Model.NewBoolVar(fmt.Sprintf("coupling_slot[%s,%d,%d]", g.ID, s.Day, s.Period))
			v.CouplingSlot[cskKey] = cv

			gridKey := [2]int{s.Day, s.Period}
			v.ByGroupSlot[gridKey] = append(v.ByGroupSlot[gridKey], couplingSlotEntry{Group: g.ID, Var: cv})
		}
		for _, subject := range v.GroupSubjects[g.ID] {
			for ti := range v.Data.Teachers {
				t := &v.Data.Teachers[ti]
				if !t.Qualified(subject) {
					continue
				}
				cak := couplingAssignKey{Group: g.ID, Subject: subject, Teacher: t.ID}
				v.CouplingAssign[cak] = v.Model.NewBoolVar(fmt.Sprintf("coupling_assign[%s,%s,%s]", g.ID, subject, t.ID))
				v.CouplingAssignByTeacher[t.ID] = append(v.CouplingAssignByTeacher[t.ID], cak)
			}
		}
	}
}

// buildDoubleVars creates double[t,c,s,d,h] only where both slot halves
// exist and the subject prefers or requires double periods.
func (v *Variables) buildDoubleVars() {
	keys := make([]assignKey, 0, len(v.Assign))
	for ak := range v.Assign {
		keys = append(keys, ak)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Teacher != keys[j].Teacher {
			return keys[i].Teacher < keys[j].Teacher
		}
		if keys[i].Class != keys[j].Class {
			return keys[i].Class < keys[j].Class
		}
		return keys[i].Subject < keys[j].Subject
	})
	for _, ak := range keys {
		subj := v.Data.Subject(ak.Subject)
		if subj == nil || !(subj.DoubleRequired || subj.DoublePreferred) {
			continue
		}
		for _, start := range v.Slots.Slots {
			if !v.Slots.IsDoubleStart(start.DayPeriod) {
				continue
			}
			peer := v.Slots.DoublePeer(start.DayPeriod)
			firstKey := slotKey{Teacher: ak.Teacher, Class: ak.Class, Subject: ak.Subject, Day: start.Day, Period: start.Period}
			secondKey := slotKey{Teacher: ak.Teacher, Class: ak.Class, Subject: ak.Subject, Day: peer.Day, Period: peer.Period}
			if _, ok := v.Slot[firstKey]; !ok {
				continue
			}
			if _, ok := v.Slot[secondKey]; !ok {
				continue
			}
			v.Double[firstKey] = v.Model.NewBoolVar(fmt.Sprintf("double[%s,%s,%s,%d,%d]", ak.Teacher, ak.Class, ak.Subject, start.Day, start.Period))
		}
	}
}

// BuildCouplingBusy reifies, for every (teacher, day, period), the set of
// "this teacher is occupied by a coupling group here" indicators — one per
// qualified (group, subject) pairing, via the standard AND-linearization of
// coupling_assign[k,g,t] ∧ coupling_slot[k,d,h]. Built once and shared by
// H4, H11 and the gap builder (§4.4), per spec §9's anti-duplication rule.
func (v *Variables) BuildCouplingBusy() {
	if v.Override.DropCouplings || len(v.CouplingBusy) > 0 {
		return
	}
	teacherIDs := make([]string, 0, len(v.CouplingAssignByTeacher))
	for teacherID := range v.CouplingAssignByTeacher {
		teacherIDs = append(teacherIDs, teacherID)
	}
	sort.Strings(teacherIDs)
	for _, teacherID := range teacherIDs {
		keys := v.CouplingAssignByTeacher[teacherID]
		for _, ak := range keys {
			assignVar := v.CouplingAssign[ak]
			for _, s := range v.Slots.Slots {
				csk := couplingSlotKey{Group: ak.Group, Day: s.Day, Period: s.Period}
				slotVar, ok := v.CouplingSlot[csk]
				if !ok {
					continue
				}
				name := fmt.Sprintf("busy[%s,%s,%s,%d,%d]", teacherID, ak.Group, ak.Subject, s.Day, s.Period)
				aux := v.Model.AndAux(name, cpsat.T(assignVar), cpsat.T(slotVar))
				tsk := teacherSlotKey{Teacher: teacherID, Day: s.Day, Period: s.Period}
				v.CouplingBusy[tsk] = append(v.CouplingBusy[tsk], aux)
			}
		}
	}
}

func sortedCurriculumSubjects(c domain.Curriculum) []string {
	out := make([]string, 0, len(c))
	for s := range c {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}
