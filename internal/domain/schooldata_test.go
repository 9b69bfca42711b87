package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleSchoolData(t *testing.T) *SchoolData {
	t.Helper()
	grid, err := NewTimeGrid(5, 6, []int{3})
	require.NoError(t, err)

	d := &SchoolData{
		Name: "Testschule",
		Grid: grid,
		Subjects: []Subject{
			{Name: "Mathe", Short: "MA", Category: CategoryHauptfach, IsMain: true},
			{Name: "Chemie", Short: "CH", Category: CategoryNW, RequiredRoomType: "chemistry"},
		},
		Teachers: []Teacher{
			{ID: "t1", Name: "Frau Muster", Subjects: []string{"Mathe"}, DeputatMin: 20, DeputatMax: 25, MaxHoursPerDay: 6},
		},
		Classes: []SchoolClass{
			{ID: "c1", Name: "7b", Grade: 7, Curriculum: Curriculum{"Mathe": 4, "Chemie": 2}},
		},
		Rooms: []Room{
			{ID: "r1", Name: "Raum 101"},
			{ID: "r2", Name: "Chemielabor", Type: "chemistry"},
		},
	}
	require.NoError(t, d.Finalize())
	return d
}

func TestSchoolData_FinalizeBuildsIndices(t *testing.T) {
	d := sampleSchoolData(t)
	assert.NotNil(t, d.Teacher("t1"))
	assert.Nil(t, d.Teacher("missing"))
	assert.NotNil(t, d.Class("c1"))
	assert.NotNil(t, d.Room("r2"))
	assert.True(t, d.Room("r2").Suitable("chemistry"))
	assert.False(t, d.Room("r1").Suitable("chemistry"))
}

func TestSchoolData_ValidateCatchesDanglingSubject(t *testing.T) {
	d := sampleSchoolData(t)
	d.Classes[0].Curriculum["Physik"] = 2
	err := d.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Physik")
}

func TestSchoolData_TouchPreservesCreatedAt(t *testing.T) {
	d := sampleSchoolData(t)
	first := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	d.Touch(first)
	require.Equal(t, first, d.CreatedAt)

	second := first.Add(24 * time.Hour)
	d.Touch(second)
	assert.Equal(t, first, d.CreatedAt, "created_at must survive re-save")
	assert.Equal(t, second, d.ModifiedAt)
}

func TestSchoolData_CloneIsIndependentAndReindexed(t *testing.T) {
	d := sampleSchoolData(t)
	clone, err := d.Clone()
	require.NoError(t, err)

	clone.Teachers[0].DeputatMax = 99
	assert.Equal(t, 25, d.Teachers[0].DeputatMax, "mutating the clone must not affect the original")
	assert.NotNil(t, clone.Teacher("t1"), "clone must rebuild its lookup indices")
	assert.False(t, clone.Grid.CanDouble(0, 3), "clone's grid must preserve the pause invariant")
}
