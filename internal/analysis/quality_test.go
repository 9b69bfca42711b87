package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sekundarstufe/stundenplan-core/internal/domain"
)

func qualityTestData(t *testing.T) (*domain.SchoolData, *domain.Solution) {
	t.Helper()
	grid, err := domain.NewTimeGrid(5, 4, nil)
	require.NoError(t, err)
	data := &domain.SchoolData{
		Name: "quality",
		Grid: grid,
		Subjects: []domain.Subject{
			{Name: "Mathematik", Short: "M", Category: domain.CategoryHauptfach, IsMain: true},
		},
		Teachers: []domain.Teacher{
			{ID: "T01", Name: "Abel", Subjects: []string{"Mathematik"}, DeputatMin: 2, DeputatMax: 4, MaxHoursPerDay: 4, PreferredFreeDays: []int{4}},
		},
		Classes: []domain.SchoolClass{
			{ID: "5a", Name: "5a", Grade: 5, Curriculum: domain.Curriculum{"Mathematik": 3}},
		},
		Rooms: []domain.Room{{ID: "R1", Name: "Raum 1"}},
	}
	require.NoError(t, data.Finalize())

	sol := &domain.Solution{
		Status: domain.StatusFeasible,
		Entries: []domain.ScheduleEntry{
			{ClassID: "5a", Subject: "Mathematik", TeacherID: "T01", Day: 0, Period: 1, IsDouble: true},
			{ClassID: "5a", Subject: "Mathematik", TeacherID: "T01", Day: 0, Period: 2, IsDouble: true},
			{ClassID: "5a", Subject: "Mathematik", TeacherID: "T01", Day: 2, Period: 1},
		},
		Assignments: []domain.TeacherAssignment{
			{TeacherID: "T01", AssignedHours: 3, DeputatMin: 2, DeputatMax: 4, GapCount: 1},
		},
	}
	return data, sol
}

func TestBuildQualityReport(t *testing.T) {
	data, sol := qualityTestData(t)
	rep := Build(data, sol)

	require.Len(t, rep.Teachers, 1)
	tq := rep.Teachers[0]
	assert.Equal(t, "T01", tq.TeacherID)
	assert.Equal(t, 3, tq.AssignedHours)
	assert.InDelta(t, 0.75, tq.Utilization, 1e-9)
	assert.Equal(t, 1, tq.GapCount)
	assert.Equal(t, 1, rep.TotalGaps)
	// Friday (day 4) is lesson-free, so the single wish is met.
	assert.Equal(t, 1, tq.FreeDayWishesMet)
	assert.Equal(t, 1, tq.FreeDayWishesTotal)

	require.Len(t, rep.Classes, 1)
	assert.Equal(t, 3, rep.Classes[0].WeeklyHours)
	assert.Equal(t, 1, rep.Classes[0].DoubleBlocks)
	assert.Empty(t, rep.RoomShortages)
}

func TestBuildReportsRoomShortage(t *testing.T) {
	data, sol := qualityTestData(t)
	sol.Entries[2].RoomID = "chemie-?"
	rep := Build(data, sol)

	require.Len(t, rep.RoomShortages, 1)
	assert.Contains(t, rep.RoomShortages[0], "chemie-?")
}
