package ingest

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sekundarstufe/stundenplan-core/internal/domain"
)

func writeFile(path, content string) error {
	return os.WriteFile(path, []byte(content), 0o644)
}

func sampleData(t *testing.T) *domain.SchoolData {
	t.Helper()
	grid, err := domain.NewTimeGrid(5, 4, []int{2})
	require.NoError(t, err)
	data := &domain.SchoolData{
		Name: "roundtrip",
		Grid: grid,
		Subjects: []domain.Subject{
			{Name: "Mathematik", Short: "M", Category: domain.CategoryHauptfach, IsMain: true},
		},
		Teachers: []domain.Teacher{
			{ID: "T01", Name: "Abel", Subjects: []string{"Mathematik"}, DeputatMin: 2, DeputatMax: 10, MaxHoursPerDay: 4},
		},
		Classes: []domain.SchoolClass{
			{ID: "5a", Name: "5a", Grade: 5, Curriculum: domain.Curriculum{"Mathematik": 4}},
		},
		Rooms: []domain.Room{{ID: "R1", Name: "Raum 1"}},
	}
	require.NoError(t, data.Finalize())
	return data
}

func TestSchoolDataJSONRoundTrip(t *testing.T) {
	data := sampleData(t)
	path := filepath.Join(t.TempDir(), "school.json")

	require.NoError(t, SaveSchoolData(path, data))
	loaded, err := LoadSchoolData(path)
	require.NoError(t, err)

	assert.Equal(t, data.Name, loaded.Name)
	assert.Equal(t, data.Grid.Days, loaded.Grid.Days)
	require.NotNil(t, loaded.Teacher("T01"))
	assert.True(t, loaded.Teacher("T01").Qualified("Mathematik"))
	// Derived double-period index survives the round trip.
	assert.True(t, loaded.Grid.CanDouble(0, 1))
	assert.False(t, loaded.Grid.CanDouble(0, 2), "pause after period 2 forbids a 2-3 double")
}

func TestSaveSchoolDataPreservesCreatedAt(t *testing.T) {
	data := sampleData(t)
	created := time.Date(2025, 9, 1, 8, 0, 0, 0, time.UTC)
	data.CreatedAt = created
	path := filepath.Join(t.TempDir(), "school.json")

	require.NoError(t, SaveSchoolData(path, data))
	loaded, err := LoadSchoolData(path)
	require.NoError(t, err)

	assert.Equal(t, created, loaded.CreatedAt)
	assert.True(t, loaded.ModifiedAt.After(created))
}

func TestLoadSchoolDataYAML(t *testing.T) {
	yamlDoc := `
name: yaml-school
grid:
  days: 5
  periods_per_day: 4
subjects:
  - name: Mathematik
    short: M
    category: hauptfach
    is_main: true
teachers:
  - id: T01
    name: Abel
    subjects: [Mathematik]
    deputat_min: 2
    deputat_max: 10
    max_hours_per_day: 4
classes:
  - id: 5a
    name: 5a
    grade: 5
    curriculum:
      Mathematik: 4
rooms:
  - id: R1
    name: Raum 1
`
	path := filepath.Join(t.TempDir(), "school.yaml")
	require.NoError(t, writeFile(path, yamlDoc))

	data, err := LoadSchoolData(path)
	require.NoError(t, err)
	assert.Equal(t, "yaml-school", data.Name)
	require.NotNil(t, data.Class("5a"))
	assert.Equal(t, 4, data.Class("5a").Curriculum["Mathematik"])
}

func TestSolutionRoundTrip(t *testing.T) {
	data := sampleData(t)
	sol := &domain.Solution{
		ID:     "sol-1",
		Status: domain.StatusFeasible,
		Entries: []domain.ScheduleEntry{
			{ClassID: "5a", Subject: "Mathematik", TeacherID: "T01", Day: 0, Period: 1},
		},
	}
	snapshot, err := data.Clone()
	require.NoError(t, err)
	sol.Snapshot = snapshot

	path := filepath.Join(t.TempDir(), "solution.json")
	require.NoError(t, SaveSolution(path, sol))
	loaded, err := LoadSolution(path)
	require.NoError(t, err)

	assert.Equal(t, sol.ID, loaded.ID)
	assert.Equal(t, sol.Entries, loaded.Entries)
	require.NotNil(t, loaded.Snapshot)
	assert.NotNil(t, loaded.Snapshot.Teacher("T01"))
}

func TestImportTeacherRoster(t *testing.T) {
	csvDoc := strings.Join([]string{
		"id,name,subjects,deputat_min,deputat_max,max_hours_per_day,parttime",
		"t01,Abel,Mathematik;Physik,10,26,6,false",
		"T02,Bode,Deutsch,8,14,4,true",
	}, "\n")

	teachers, err := ImportTeacherRoster(strings.NewReader(csvDoc))
	require.NoError(t, err)
	require.Len(t, teachers, 2)

	assert.Equal(t, "T01", teachers[0].ID, "IDs are uppercased on import")
	assert.Equal(t, []string{"Mathematik", "Physik"}, teachers[0].Subjects)
	assert.Equal(t, 26, teachers[0].DeputatMax)
	assert.True(t, teachers[1].IsPartTime)
}

func TestImportTeacherRosterRejectsBadHeader(t *testing.T) {
	_, err := ImportTeacherRoster(strings.NewReader("id,name\nT01,Abel"))
	require.Error(t, err)
}

func TestExportTeacherRosterRoundTrip(t *testing.T) {
	teachers := []domain.Teacher{
		{ID: "T01", Name: "Abel", Subjects: []string{"Mathematik"}, DeputatMin: 10, DeputatMax: 26, MaxHoursPerDay: 6},
	}
	buf := &bytes.Buffer{}
	require.NoError(t, ExportTeacherRoster(buf, teachers))

	back, err := ImportTeacherRoster(buf)
	require.NoError(t, err)
	assert.Equal(t, teachers, back)
}
