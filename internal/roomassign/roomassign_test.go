package roomassign

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sekundarstufe/stundenplan-core/internal/domain"
)

func roomTestData(t *testing.T) *domain.SchoolData {
	t.Helper()
	grid, err := domain.NewTimeGrid(5, 6, []int{4})
	require.NoError(t, err)
	data := &domain.SchoolData{
		Name: "rooms",
		Grid: grid,
		Subjects: []domain.Subject{
			{Name: "Chemie", Short: "Ch", Category: domain.CategoryNW, RequiredRoomType: "chemie"},
			{Name: "Deutsch", Short: "D", Category: domain.CategoryHauptfach},
		},
		Teachers: []domain.Teacher{
			{ID: "T01", Name: "Abel", Subjects: []string{"Chemie"}, DeputatMin: 1, DeputatMax: 20, MaxHoursPerDay: 6},
		},
		Classes: []domain.SchoolClass{
			{ID: "8a", Name: "8a", Grade: 8, Curriculum: domain.Curriculum{"Chemie": 2}, HomeRoomID: "R201"},
			{ID: "8b", Name: "8b", Grade: 8, Curriculum: domain.Curriculum{"Chemie": 2}, HomeRoomID: "R202"},
		},
		Rooms: []domain.Room{
			{ID: "CH1", Name: "Chemie 1", Type: "chemie"},
			{ID: "CH2", Name: "Chemie 2", Type: "chemie"},
			{ID: "R201", Name: "Raum 201", IsHome: true},
			{ID: "R202", Name: "Raum 202", IsHome: true},
		},
	}
	require.NoError(t, data.Finalize())
	return data
}

func TestApplyAssignsDistinctRooms(t *testing.T) {
	data := roomTestData(t)
	sol := &domain.Solution{Entries: []domain.ScheduleEntry{
		{ClassID: "8a", Subject: "Chemie", TeacherID: "T01", RoomType: "chemie", Day: 0, Period: 1},
		{ClassID: "8b", Subject: "Chemie", TeacherID: "T01", RoomType: "chemie", Day: 0, Period: 1},
	}}

	New(data, nil).Apply(sol)

	assert.NotEqual(t, sol.Entries[0].RoomID, sol.Entries[1].RoomID)
	for _, e := range sol.Entries {
		assert.Contains(t, []string{"CH1", "CH2"}, e.RoomID)
	}
}

func TestApplyBalancesWeeklyUsage(t *testing.T) {
	data := roomTestData(t)
	sol := &domain.Solution{Entries: []domain.ScheduleEntry{
		{ClassID: "8a", Subject: "Chemie", TeacherID: "T01", RoomType: "chemie", Day: 0, Period: 1},
		{ClassID: "8a", Subject: "Chemie", TeacherID: "T01", RoomType: "chemie", Day: 1, Period: 1},
	}}

	New(data, nil).Apply(sol)

	// Two lessons on different days spread across the two rooms.
	assert.Equal(t, "CH1", sol.Entries[0].RoomID)
	assert.Equal(t, "CH2", sol.Entries[1].RoomID)
}

func TestApplyShortageSentinel(t *testing.T) {
	data := roomTestData(t)
	sol := &domain.Solution{Entries: []domain.ScheduleEntry{
		{ClassID: "8a", Subject: "Chemie", TeacherID: "T01", RoomType: "chemie", Day: 0, Period: 1},
		{ClassID: "8b", Subject: "Chemie", TeacherID: "T01", RoomType: "chemie", Day: 0, Period: 1},
		{ClassID: "8c", Subject: "Chemie", TeacherID: "T01", RoomType: "chemie", Day: 0, Period: 1},
	}}

	New(data, nil).Apply(sol)

	sentinels := 0
	for _, e := range sol.Entries {
		if e.RoomID == "chemie-?" {
			sentinels++
		}
	}
	assert.Equal(t, 1, sentinels, "one lesson beyond capacity gets the shortage sentinel")
}

func TestApplyCouplingSharesOneRoom(t *testing.T) {
	data := roomTestData(t)
	sol := &domain.Solution{Entries: []domain.ScheduleEntry{
		{ClassID: "8a", Subject: "Chemie", TeacherID: "T01", RoomType: "chemie", Day: 2, Period: 3, CouplingID: "wpf-8"},
		{ClassID: "8b", Subject: "Chemie", TeacherID: "T01", RoomType: "chemie", Day: 2, Period: 3, CouplingID: "wpf-8"},
	}}

	New(data, nil).Apply(sol)

	require.NotEmpty(t, sol.Entries[0].RoomID)
	assert.Equal(t, sol.Entries[0].RoomID, sol.Entries[1].RoomID,
		"all classes of one coupling occurrence share a physical room")
}

func TestApplyHomeRoomFallback(t *testing.T) {
	data := roomTestData(t)
	sol := &domain.Solution{Entries: []domain.ScheduleEntry{
		{ClassID: "8a", Subject: "Deutsch", TeacherID: "T01", Day: 0, Period: 2},
	}}

	New(data, nil).Apply(sol)

	assert.Equal(t, "R201", sol.Entries[0].RoomID)
}
