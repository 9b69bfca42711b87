// Package analysis computes read-only quality metrics over a solved
// timetable: per-teacher gap counts and deputat utilization, free-day-wish
// violations, double-lesson realization and room shortages.
package analysis

import (
	"fmt"
	"sort"
	"strings"

	"github.com/sekundarstufe/stundenplan-core/internal/domain"
)

// TeacherQuality is one teacher's realized schedule quality.
type TeacherQuality struct {
	TeacherID          string  `json:"teacher_id"`
	AssignedHours      int     `json:"assigned_hours"`
	DeputatMax         int     `json:"deputat_max"`
	Utilization        float64 `json:"utilization"`
	GapCount           int     `json:"gap_count"`
	FreeDayWishesMet   int     `json:"free_day_wishes_met"`
	FreeDayWishesTotal int     `json:"free_day_wishes_total"`
}

// ClassQuality is one class's realized weekly layout.
type ClassQuality struct {
	ClassID      string `json:"class_id"`
	WeeklyHours  int    `json:"weekly_hours"`
	DoubleBlocks int    `json:"double_blocks"`
}

// QualityReport aggregates post-solve metrics for reporting surfaces.
type QualityReport struct {
	Teachers      []TeacherQuality `json:"teachers"`
	Classes       []ClassQuality   `json:"classes"`
	TotalGaps     int              `json:"total_gaps"`
	RoomShortages []string         `json:"room_shortages,omitempty"`
}

// Build computes a QualityReport from a usable solution. Gap counts are
// taken from the solution's per-teacher assignments (the solver's own gap
// indicators), never re-derived here.
func Build(data *domain.SchoolData, sol *domain.Solution) *QualityReport {
	rep := &QualityReport{}

	byTeacher := map[string]domain.TeacherAssignment{}
	for _, a := range sol.Assignments {
		byTeacher[a.TeacherID] = a
	}

	for ti := range data.Teachers {
		t := &data.Teachers[ti]
		assigned := byTeacher[t.ID]

		daysWorked := map[int]bool{}
		for _, e := range sol.ForTeacher(t.ID) {
			daysWorked[e.Day] = true
		}
		wishesMet := 0
		for _, day := range t.PreferredFreeDays {
			if !daysWorked[day] {
				wishesMet++
			}
		}

		util := 0.0
		if t.DeputatMax > 0 {
			util = float64(assigned.AssignedHours) / float64(t.DeputatMax)
		}
		rep.Teachers = append(rep.Teachers, TeacherQuality{
			TeacherID:          t.ID,
			AssignedHours:      assigned.AssignedHours,
			DeputatMax:         t.DeputatMax,
			Utilization:        util,
			GapCount:           assigned.GapCount,
			FreeDayWishesMet:   wishesMet,
			FreeDayWishesTotal: len(t.PreferredFreeDays),
		})
		rep.TotalGaps += assigned.GapCount
	}
	sort.Slice(rep.Teachers, func(i, j int) bool { return rep.Teachers[i].TeacherID < rep.Teachers[j].TeacherID })

	for ci := range data.Classes {
		c := &data.Classes[ci]
		hours := 0
		doubles := 0
		for _, e := range sol.ForClass(c.ID) {
			hours++
			if e.IsDouble {
				doubles++
			}
		}
		// A double block spans two entries; count blocks, not halves.
		rep.Classes = append(rep.Classes, ClassQuality{
			ClassID:      c.ID,
			WeeklyHours:  hours,
			DoubleBlocks: doubles / 2,
		})
	}
	sort.Slice(rep.Classes, func(i, j int) bool { return rep.Classes[i].ClassID < rep.Classes[j].ClassID })

	shortageSeen := map[string]bool{}
	for _, e := range sol.Entries {
		if strings.HasSuffix(e.RoomID, "-?") && !shortageSeen[e.RoomID] {
			shortageSeen[e.RoomID] = true
			rep.RoomShortages = append(rep.RoomShortages,
				fmt.Sprintf("%s at day %d period %d", e.RoomID, e.Day, e.Period))
		}
	}
	sort.Strings(rep.RoomShortages)

	return rep
}
