// Package feasibility runs the cheap pre-solve sanity pass over a SchoolData
// graph (spec §2/§4): struct-level validation plus the cross-entity checks
// that would otherwise only surface as a silent INFEASIBLE from the solver.
package feasibility

import (
	"fmt"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/sekundarstufe/stundenplan-core/internal/domain"
)

var validate = validator.New()

// Report collects hard errors (the solve cannot proceed) separately from
// warnings (the solve may proceed but the result deserves scrutiny).
type Report struct {
	Errors   []string `json:"errors,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

// OK reports whether the school data is solvable at all.
func (r *Report) OK() bool {
	return len(r.Errors) == 0
}

func (r *Report) addError(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

func (r *Report) addWarning(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// Check runs the full feasibility pre-check over d and returns a Report.
// d must already have Finalize called.
func Check(d *domain.SchoolData) *Report {
	r := &Report{}

	if err := validate.Struct(d); err != nil {
		r.addError("struct validation failed: %v", err)
	}
	if err := d.Validate(); err != nil {
		r.addError("%v", err)
	}

	checkQualifiedTeacherExists(d, r)
	checkSubjectCapacity(d, r)
	checkRoomTypeAvailability(d, r)
	checkGlobalHourBalance(d, r)
	checkClassDayCapacity(d, r)
	checkDeputatBounds(d, r)
	checkFreeDayCluster(d, r)
	checkPinConsistency(d, r)

	return r
}

// couplingCoveredSubjects returns the subjects whose demand is satisfied
// through coupling groups rather than direct (class, subject) lessons —
// their teacher capacity is governed by the group assignment, not by the
// raw curriculum sum.
func couplingCoveredSubjects(d *domain.SchoolData) map[string]bool {
	covered := map[string]bool{}
	for i := range d.Couplings {
		for _, m := range d.Couplings[i].Members {
			covered[m.Subject] = true
		}
	}
	return covered
}

// checkSubjectCapacity compares, per subject, the school-wide curriculum
// demand against the summed deputat_max of its qualified teachers.
// Capacity below 90% of demand is a hard error; below demand, or within
// 10% above it, a warning. Coupling-covered subjects are skipped — their
// effective demand is per group, far below the raw curriculum sum.
func checkSubjectCapacity(d *domain.SchoolData, r *Report) {
	need := map[string]int{}
	for i := range d.Classes {
		for subject, hours := range d.Classes[i].Curriculum {
			if hours > 0 {
				need[subject] += hours
			}
		}
	}

	capacity := map[string]int{}
	for i := range d.Teachers {
		for _, subject := range d.Teachers[i].Subjects {
			capacity[subject] += d.Teachers[i].DeputatMax
		}
	}

	covered := couplingCoveredSubjects(d)
	subjects := make([]string, 0, len(need))
	for subject := range need {
		subjects = append(subjects, subject)
	}
	sort.Strings(subjects)

	for _, subject := range subjects {
		if covered[subject] {
			continue
		}
		n := need[subject]
		have := capacity[subject]
		switch {
		case have == 0:
			// Reported per class by checkQualifiedTeacherExists.
		case have*10 < n*9:
			r.addError("subject %s: teacher capacity (%dh) far below demand (%dh, %dh short), additional staff required",
				subject, have, n, n-have)
		case have < n:
			r.addWarning("subject %s: capacity (%dh) just below demand (%dh), depends on how multi-subject teachers split their hours",
				subject, have, n)
		case have*10 < n*11:
			r.addWarning("subject %s: utilization very high, %dh demand against %dh capacity (%.0f%%)",
				subject, n, have, 100*float64(n)/float64(have))
		}
	}
}

// checkQualifiedTeacherExists ensures every subject taught by any class has
// at least one qualified teacher. Capacity is checked by checkSubjectCapacity.
func checkQualifiedTeacherExists(d *domain.SchoolData, r *Report) {
	for i := range d.Classes {
		cls := &d.Classes[i]
		for subject := range cls.Curriculum {
			found := false
			for j := range d.Teachers {
				if d.Teachers[j].Qualified(subject) {
					found = true
					break
				}
			}
			if !found {
				r.addError("class %s: no teacher qualified for subject %q", cls.ID, subject)
			}
		}
	}
}

// checkRoomTypeAvailability ensures every required room type has at least
// one matching room. Subjects no class demands are skipped — an unused
// subject definition must not block the solve.
func checkRoomTypeAvailability(d *domain.SchoolData, r *Report) {
	demanded := map[string]bool{}
	for i := range d.Classes {
		for subject, hours := range d.Classes[i].Curriculum {
			if hours > 0 {
				demanded[subject] = true
			}
		}
	}
	// Coupling groups occupy rooms too (H8 counts them against capacity).
	for i := range d.Couplings {
		for _, m := range d.Couplings[i].Members {
			demanded[m.Subject] = true
		}
	}
	for i := range d.Subjects {
		s := &d.Subjects[i]
		if !s.NeedsRoom() || !demanded[s.Name] {
			continue
		}
		found := false
		for j := range d.Rooms {
			if d.Rooms[j].Suitable(s.RequiredRoomType) {
				found = true
				break
			}
		}
		if !found {
			r.addError("subject %s: no room of required type %q exists", s.Name, s.RequiredRoomType)
		}
	}
}

// checkGlobalHourBalance reports an error when the school-wide curriculum
// demand exceeds the sum of all teachers' deputat_max, and a warning when
// demand uses more than 95% of that sum.
func checkGlobalHourBalance(d *domain.SchoolData, r *Report) {
	demand := 0
	for i := range d.Classes {
		demand += d.Classes[i].WeeklyLoad()
	}
	supply := 0
	for i := range d.Teachers {
		supply += d.Teachers[i].DeputatMax
	}
	if demand > supply {
		r.addError("global hour balance: curriculum demand (%d) exceeds total teacher deputat_max (%d)", demand, supply)
	} else if float64(demand) > 0.95*float64(supply) {
		r.addWarning("global hour balance: curriculum demand (%d) uses %.0f%% of available deputat_max — little slack for the solver", demand, 100*float64(demand)/float64(supply))
	}
}

// checkClassDayCapacity errors when a class's weekly load cannot fit into
// its usable slots (days times last usable period).
func checkClassDayCapacity(d *domain.SchoolData, r *Report) {
	for i := range d.Classes {
		c := &d.Classes[i]
		usable := d.Grid.Days * c.EffectiveMaxPeriod(d.Grid.PeriodsPerDay)
		if load := c.WeeklyLoad(); load > usable {
			r.addError("class %s: weekly load (%dh) exceeds usable slots (%d days x %d periods)",
				c.ID, load, d.Grid.Days, c.EffectiveMaxPeriod(d.Grid.PeriodsPerDay))
		}
	}
}

// checkFreeDayCluster warns when four or more teachers wish the same day
// free; the objective can't satisfy them all on a compact grid.
func checkFreeDayCluster(d *domain.SchoolData, r *Report) {
	byDay := map[int][]string{}
	for i := range d.Teachers {
		for _, day := range d.Teachers[i].PreferredFreeDays {
			byDay[day] = append(byDay[day], d.Teachers[i].ID)
		}
	}
	days := make([]int, 0, len(byDay))
	for day := range byDay {
		days = append(days, day)
	}
	sort.Ints(days)
	for _, day := range days {
		ids := byDay[day]
		if len(ids) >= 4 {
			sort.Strings(ids)
			r.addWarning("free-day cluster: %d teachers wish day %d free (%s), expect day-wish penalties",
				len(ids), day, strings.Join(ids, ", "))
		}
	}
}

// checkDeputatBounds reports an error for a teacher whose max_hours_per_day
// ceiling over the week is below deputat_min, and a warning when the slots
// left after unavailability are fewer than deputat_min.
func checkDeputatBounds(d *domain.SchoolData, r *Report) {
	total := d.Grid.TotalWeeklyPeriods()
	for i := range d.Teachers {
		t := &d.Teachers[i]
		ceiling := t.MaxHoursPerDay * d.Grid.Days
		if ceiling < t.DeputatMin {
			r.addError("teacher %s: max_hours_per_day * days (%d) is below deputat_min (%d)", t.ID, ceiling, t.DeputatMin)
		}
		if total-len(t.Unavailable) < t.DeputatMin {
			r.addWarning("teacher %s: available slots (%d) do not cover deputat_min (%d)", t.ID, total-len(t.Unavailable), t.DeputatMin)
		}
	}
}

// checkPinConsistency ensures a pin's teacher (if any) is qualified and
// available at the pinned slot, and its room (if any) is suitable.
func checkPinConsistency(d *domain.SchoolData, r *Report) {
	for _, p := range d.Pins {
		cls := d.Class(p.ClassID)
		if cls == nil {
			continue // already reported by d.Validate
		}
		if _, ok := cls.Curriculum[p.Subject]; !ok {
			r.addError("pin %s: class %s has no curriculum entry for subject %q", p.ID, p.ClassID, p.Subject)
		}
		if p.TeacherID != "" {
			t := d.Teacher(p.TeacherID)
			if t == nil {
				continue
			}
			if !t.Qualified(p.Subject) {
				r.addError("pin %s: teacher %s is not qualified for subject %q", p.ID, p.TeacherID, p.Subject)
			}
			if t.IsUnavailable(p.Day, p.Period) {
				r.addError("pin %s: teacher %s is unavailable at day %d period %d", p.ID, p.TeacherID, p.Day, p.Period)
			}
		}
		if p.RoomID != "" {
			if sub := d.Subject(p.Subject); sub != nil && sub.NeedsRoom() {
				room := d.Room(p.RoomID)
				if room != nil && !room.Suitable(sub.RequiredRoomType) {
					r.addError("pin %s: room %s is not suitable for subject %q", p.ID, p.RoomID, p.Subject)
				}
			}
		}
	}
}
