package feasibility

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sekundarstufe/stundenplan-core/internal/domain"
)

func baseSchoolData(t *testing.T) *domain.SchoolData {
	t.Helper()
	grid, err := domain.NewTimeGrid(5, 6, nil)
	require.NoError(t, err)

	d := &domain.SchoolData{
		Name: "Testschule",
		Grid: grid,
		Subjects: []domain.Subject{
			{Name: "Mathe", Short: "MA", Category: domain.CategoryHauptfach, IsMain: true},
			{Name: "Chemie", Short: "CH", Category: domain.CategoryNW, RequiredRoomType: "chemistry"},
		},
		Teachers: []domain.Teacher{
			{ID: "t1", Name: "Frau Muster", Subjects: []string{"Mathe"}, DeputatMin: 10, DeputatMax: 25, MaxHoursPerDay: 6},
		},
		Classes: []domain.SchoolClass{
			{ID: "c1", Name: "7b", Grade: 7, Curriculum: domain.Curriculum{"Mathe": 4}},
		},
		Rooms: []domain.Room{
			{ID: "r1", Name: "Raum 101"},
		},
	}
	require.NoError(t, d.Finalize())
	return d
}

func TestCheck_ReportsOKOnValidData(t *testing.T) {
	d := baseSchoolData(t)
	r := Check(d)
	assert.True(t, r.OK(), "expected no errors, got %v", r.Errors)
}

func TestCheck_MissingQualifiedTeacher(t *testing.T) {
	d := baseSchoolData(t)
	d.Classes[0].Curriculum["Chemie"] = 2

	r := Check(d)
	require.False(t, r.OK())
	assert.Contains(t, r.Errors[0], "Chemie")
}

func TestCheck_MissingRoomType(t *testing.T) {
	d := baseSchoolData(t)
	d.Classes[0].Curriculum["Chemie"] = 2
	d.Teachers[0].Subjects = append(d.Teachers[0].Subjects, "Chemie")
	require.NoError(t, d.Finalize())

	r := Check(d)
	require.False(t, r.OK())
	found := false
	for _, e := range r.Errors {
		if e == `subject Chemie: no room of required type "chemistry" exists` {
			found = true
		}
	}
	assert.True(t, found, "expected a missing-room-type error, got %v", r.Errors)
}

func TestCheck_GlobalHourBalanceDeficit(t *testing.T) {
	d := baseSchoolData(t)
	d.Teachers[0].DeputatMax = 2

	r := Check(d)
	require.False(t, r.OK())
}

func TestCheck_SubjectCapacityShortfallIsError(t *testing.T) {
	d := baseSchoolData(t)
	// Mathe demand 12h against 10h qualified capacity: below the 90% line.
	d.Classes[0].Curriculum["Mathe"] = 12
	d.Teachers[0].DeputatMax = 10

	r := Check(d)
	require.False(t, r.OK())
	found := false
	for _, e := range r.Errors {
		if strings.Contains(e, "subject Mathe") && strings.Contains(e, "far below demand") {
			found = true
		}
	}
	assert.True(t, found, "expected a per-subject capacity error, got %v", r.Errors)
}

func TestCheck_SubjectCapacityTightIsWarning(t *testing.T) {
	d := baseSchoolData(t)
	// The chemistry-bottleneck shape: 52h capacity against 48h demand sits
	// inside the 110% utilization band and must warn, naming the subject.
	d.Teachers = append(d.Teachers,
		domain.Teacher{ID: "t2", Name: "Frau Chemie", Subjects: []string{"Chemie"}, DeputatMin: 10, DeputatMax: 26, MaxHoursPerDay: 6},
		domain.Teacher{ID: "t3", Name: "Herr Chemie", Subjects: []string{"Chemie"}, DeputatMin: 10, DeputatMax: 26, MaxHoursPerDay: 6},
	)
	d.Classes[0].Curriculum["Chemie"] = 24
	d.Classes = append(d.Classes, domain.SchoolClass{
		ID: "c2", Name: "8c", Grade: 8, Curriculum: domain.Curriculum{"Chemie": 24},
	})
	d.Rooms = append(d.Rooms, domain.Room{ID: "r2", Name: "Chemielabor", Type: "chemistry"})
	require.NoError(t, d.Finalize())

	r := Check(d)
	found := false
	for _, w := range r.Warnings {
		if strings.Contains(w, "subject Chemie") && strings.Contains(w, "utilization very high") {
			found = true
		}
	}
	assert.True(t, found, "expected a high-utilization warning naming Chemie, got %v", r.Warnings)
}

func TestCheck_CouplingCoveredSubjectSkipsCapacity(t *testing.T) {
	d := baseSchoolData(t)
	// Religion demand vastly exceeds any single teacher, but it arrives via
	// a coupling group, so the per-subject check must not fire.
	d.Subjects = append(d.Subjects, domain.Subject{Name: "Religion", Short: "REL", Category: domain.CategoryGesellschaft})
	d.Teachers = append(d.Teachers, domain.Teacher{ID: "t9", Name: "Frau Reli", Subjects: []string{"Religion"}, DeputatMin: 2, DeputatMax: 4, MaxHoursPerDay: 6})
	d.Classes[0].Curriculum["Religion"] = 20
	d.Couplings = []domain.CouplingGroup{
		{ID: "reli-7", Members: []domain.Coupling{
			{ClassID: "c1", Subject: "Religion", Periods: 20},
			{ClassID: "c1", Subject: "Religion", Periods: 20},
		}},
	}
	require.NoError(t, d.Finalize())

	r := Check(d)
	for _, e := range r.Errors {
		assert.NotContains(t, e, "subject Religion", "coupling-covered subjects must skip the capacity check")
	}
}

func TestCheck_ClassDayCapacity(t *testing.T) {
	d := baseSchoolData(t)
	// 5 days x 2 usable periods = 10 slots cannot host 12 weekly hours.
	d.Classes[0].MaxPeriod = 2
	d.Classes[0].Curriculum["Mathe"] = 12
	d.Teachers[0].DeputatMax = 30

	r := Check(d)
	require.False(t, r.OK())
	found := false
	for _, e := range r.Errors {
		if strings.Contains(e, "class c1") && strings.Contains(e, "usable slots") {
			found = true
		}
	}
	assert.True(t, found, "expected a class day-capacity error, got %v", r.Errors)
}

func TestCheck_FreeDayClusterWarning(t *testing.T) {
	d := baseSchoolData(t)
	for i := 0; i < 4; i++ {
		d.Teachers = append(d.Teachers, domain.Teacher{
			ID: string(rune('A' + i)), Name: "Teilzeit", Subjects: []string{"Mathe"},
			DeputatMin: 2, DeputatMax: 10, MaxHoursPerDay: 6, IsPartTime: true,
			PreferredFreeDays: []int{4},
		})
	}
	require.NoError(t, d.Finalize())

	r := Check(d)
	found := false
	for _, w := range r.Warnings {
		if strings.Contains(w, "free-day cluster") && strings.Contains(w, "day 4") {
			found = true
		}
	}
	assert.True(t, found, "expected a free-day cluster warning, got %v", r.Warnings)
}

func TestCheck_PinWithUnqualifiedTeacher(t *testing.T) {
	d := baseSchoolData(t)
	d.Teachers = append(d.Teachers, domain.Teacher{ID: "t2", Name: "Herr Other", Subjects: []string{"Sport"}, DeputatMin: 5, DeputatMax: 10, MaxHoursPerDay: 6})
	d.Pins = []domain.PinnedLesson{
		{ID: "p1", ClassID: "c1", Subject: "Mathe", Day: 0, Period: 1, TeacherID: "t2"},
	}
	require.NoError(t, d.Finalize())

	r := Check(d)
	require.False(t, r.OK())
}
