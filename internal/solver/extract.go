package solver

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/sekundarstufe/stundenplan-core/internal/domain"
)

// Extract reads a completed search's boolean assignment back into a
// domain.Solution (spec §4.6, C7's first half — concrete room IDs are
// resolved by internal/roomassign afterwards). Entries are emitted in stable
// (day, period, class) order regardless of map iteration order, per spec §5.
func Extract(data *domain.SchoolData, out *SolveOutput) *domain.Solution {
	result := out.Final
	sol := &domain.Solution{
		ID:             uuid.NewString(),
		Status:         domain.SolverStatus(result.Status),
		ObjectiveValue: result.Objective,
		NumVariables:   out.Model.NumVars(),
		NumConstraints: out.Model.NumConstraints(),
		DroppedPins:    out.DroppedPins,
		WallTime:       result.WallTime,
		SolvedAt:       time.Now().UTC(),
	}
	if snapshot, err := data.Clone(); err == nil {
		sol.Snapshot = snapshot
	}
	if result.Values == nil {
		return sol
	}
	vars, gaps := out.Vars, out.Gaps

	for sk, sv := range vars.Slot {
		if !result.Values[sv] {
			continue
		}
		isDouble := false
		if dv, ok := vars.Double[sk]; ok {
			isDouble = result.Values[dv]
		}
		// The second half of a double is flagged too: its double var sits
		// on the start one period earlier.
		if !isDouble {
			prev := sk
			prev.Period--
			if dv, ok := vars.Double[prev]; ok {
				isDouble = result.Values[dv]
			}
		}
		roomType := ""
		if subj := data.Subject(sk.Subject); subj != nil {
			roomType = subj.RequiredRoomType
		}
		sol.Entries = append(sol.Entries, domain.ScheduleEntry{
			ClassID:   sk.Class,
			Subject:   sk.Subject,
			TeacherID: sk.Teacher,
			RoomType:  roomType,
			Day:       sk.Day,
			Period:    sk.Period,
			IsDouble:  isDouble,
		})
	}

	for i := range data.Couplings {
		g := &data.Couplings[i]
		teacherBySubject := map[string]string{}
		for ak, av := range vars.CouplingAssign {
			if ak.Group != g.ID || !result.Values[av] {
				continue
			}
			teacherBySubject[ak.Subject] = ak.Teacher
		}
		for csk, cv := range vars.CouplingSlot {
			if csk.Group != g.ID || !result.Values[cv] {
				continue
			}
			for _, subject := range vars.GroupSubjects[g.ID] {
				teacherID, ok := teacherBySubject[subject]
				if !ok {
					continue
				}
				roomType := ""
				if subj := data.Subject(subject); subj != nil {
					roomType = subj.RequiredRoomType
				}
				for _, classID := range vars.GroupSubjectClasses[g.ID][subject] {
					sol.Entries = append(sol.Entries, domain.ScheduleEntry{
						ClassID:    classID,
						Subject:    subject,
						TeacherID:  teacherID,
						RoomType:   roomType,
						Day:        csk.Day,
						Period:     csk.Period,
						IsDouble:   g.Double,
						CouplingID: g.ID,
					})
				}
			}
		}
	}

	sort.Slice(sol.Entries, func(i, j int) bool {
		a, b := sol.Entries[i], sol.Entries[j]
		if a.Day != b.Day {
			return a.Day < b.Day
		}
		if a.Period != b.Period {
			return a.Period < b.Period
		}
		return a.ClassID < b.ClassID
	})

	for ti := range data.Teachers {
		t := &data.Teachers[ti]
		worked := map[domain.DayPeriod]bool{}
		for _, e := range sol.Entries {
			if e.TeacherID == t.ID {
				worked[domain.DayPeriod{Day: e.Day, Period: e.Period}] = true
			}
		}
		hours := len(worked)
		gapCount := 0
		for tsk, gv := range gaps.IsGap {
			if tsk.Teacher == t.ID && result.Values[gv] {
				gapCount++
			}
		}
		sol.Assignments = append(sol.Assignments, domain.TeacherAssignment{
			TeacherID:     t.ID,
			AssignedHours: hours,
			DeputatMin:    t.DeputatMin,
			DeputatMax:    t.DeputatMax,
			GapCount:      gapCount,
		})
	}
	sort.Slice(sol.Assignments, func(i, j int) bool { return sol.Assignments[i].TeacherID < sol.Assignments[j].TeacherID })

	return sol
}
