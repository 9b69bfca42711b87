package solver

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sekundarstufe/stundenplan-core/internal/cpsat"
	"github.com/sekundarstufe/stundenplan-core/internal/domain"
	"github.com/sekundarstufe/stundenplan-core/internal/slotindex"
)

// miniSchool is a deliberately tiny instance: 5 days x 2 periods, two
// classes, four teachers, one religion/ethics coupling. Small enough that
// the search finishes in well under a second but still exercises every
// constraint family except H14.
func miniSchool(t *testing.T) *domain.SchoolData {
	t.Helper()
	grid, err := domain.NewTimeGrid(5, 2, nil)
	require.NoError(t, err)

	data := &domain.SchoolData{
		Name: "mini",
		Grid: grid,
		Subjects: []domain.Subject{
			{Name: "Mathematik", Short: "M", Category: domain.CategoryHauptfach, IsMain: true},
			{Name: "Deutsch", Short: "D", Category: domain.CategoryHauptfach, IsMain: true},
			{Name: "Religion", Short: "Rel", Category: domain.CategoryGesellschaft},
			{Name: "Ethik", Short: "Eth", Category: domain.CategoryGesellschaft},
		},
		Teachers: []domain.Teacher{
			{ID: "T01", Name: "Abel", Subjects: []string{"Mathematik"}, DeputatMin: 1, DeputatMax: 8, MaxHoursPerDay: 2},
			{ID: "T02", Name: "Bode", Subjects: []string{"Deutsch"}, DeputatMin: 1, DeputatMax: 8, MaxHoursPerDay: 2},
			{ID: "T03", Name: "Cuno", Subjects: []string{"Religion"}, DeputatMin: 1, DeputatMax: 8, MaxHoursPerDay: 2},
			{ID: "T04", Name: "Dahl", Subjects: []string{"Ethik"}, DeputatMin: 1, DeputatMax: 8, MaxHoursPerDay: 2},
		},
		Classes: []domain.SchoolClass{
			{ID: "5a", Name: "5a", Grade: 5, Curriculum: domain.Curriculum{"Mathematik": 3, "Deutsch": 2, "Religion": 1}, HomeRoomID: "R101"},
			{ID: "5b", Name: "5b", Grade: 5, Curriculum: domain.Curriculum{"Mathematik": 2, "Deutsch": 3, "Ethik": 1}, HomeRoomID: "R102"},
		},
		Rooms: []domain.Room{
			{ID: "R101", Name: "Raum 101", IsHome: true},
			{ID: "R102", Name: "Raum 102", IsHome: true},
		},
		Couplings: []domain.CouplingGroup{
			{
				ID: "reli-5",
				Members: []domain.Coupling{
					{ClassID: "5a", Subject: "Religion", Periods: 1},
					{ClassID: "5b", Subject: "Ethik", Periods: 1},
				},
			},
		},
	}
	require.NoError(t, data.Finalize())
	require.NoError(t, data.Validate())
	return data
}

func solveMini(t *testing.T, data *domain.SchoolData, pins []domain.PinnedLesson) (*SolveOutput, *domain.Solution) {
	t.Helper()
	slots := slotindex.Build(data.Grid)
	out := Solve(context.Background(), data, slots, pins, SolveConfig{
		TimeLimit:  10 * time.Second,
		NumWorkers: 1,
		Weights:    DefaultWeights(),
	})
	sol := Extract(data, out)
	return out, sol
}

func TestSolveMiniSchool(t *testing.T) {
	data := miniSchool(t)
	out, sol := solveMini(t, data, nil)

	require.True(t, sol.IsUsable(), "expected a usable solution, got %s", sol.Status)
	assert.Equal(t, out.Model.NumVars(), sol.NumVariables)
	assert.Equal(t, out.Model.NumConstraints(), sol.NumConstraints)
	require.NotNil(t, sol.Snapshot)

	// Curriculum satisfied for every non-coupling (class, subject).
	counts := map[[2]string]int{}
	for _, e := range sol.Entries {
		if !e.IsCoupling() {
			counts[[2]string{e.ClassID, e.Subject}]++
		}
	}
	assert.Equal(t, 3, counts[[2]string{"5a", "Mathematik"}])
	assert.Equal(t, 2, counts[[2]string{"5a", "Deutsch"}])
	assert.Equal(t, 2, counts[[2]string{"5b", "Mathematik"}])
	assert.Equal(t, 3, counts[[2]string{"5b", "Deutsch"}])
	// Religion/Ethik arrive only through the coupling.
	assert.Zero(t, counts[[2]string{"5a", "Religion"}])
	assert.Zero(t, counts[[2]string{"5b", "Ethik"}])

	// No teacher teaches two lessons at once.
	teacherBusy := map[[3]int]map[string]int{}
	for _, e := range sol.Entries {
		key := [3]int{e.Day, e.Period, 0}
		if teacherBusy[key] == nil {
			teacherBusy[key] = map[string]int{}
		}
		if !e.IsCoupling() {
			teacherBusy[key][e.TeacherID]++
			assert.LessOrEqual(t, teacherBusy[key][e.TeacherID], 1,
				"teacher %s double-booked at day %d period %d", e.TeacherID, e.Day, e.Period)
		}
	}

	// A class is never in a regular lesson and a coupling at the same slot.
	classSlots := map[[2]int]map[string]string{}
	for _, e := range sol.Entries {
		key := [2]int{e.Day, e.Period}
		if classSlots[key] == nil {
			classSlots[key] = map[string]string{}
		}
		prev, seen := classSlots[key][e.ClassID]
		if seen {
			assert.Equal(t, prev, e.CouplingID, "class %s has conflicting entries at day %d period %d", e.ClassID, e.Day, e.Period)
			assert.NotEmpty(t, e.CouplingID)
		}
		classSlots[key][e.ClassID] = e.CouplingID
	}
}

func TestSolveCouplingSynchronized(t *testing.T) {
	data := miniSchool(t)
	_, sol := solveMini(t, data, nil)
	require.True(t, sol.IsUsable())

	var reliEntries []domain.ScheduleEntry
	for _, e := range sol.Entries {
		if e.CouplingID == "reli-5" {
			reliEntries = append(reliEntries, e)
		}
	}
	require.Len(t, reliEntries, 2, "one entry per coupled class")
	assert.Equal(t, reliEntries[0].Day, reliEntries[1].Day)
	assert.Equal(t, reliEntries[0].Period, reliEntries[1].Period)

	classes := map[string]string{}
	for _, e := range reliEntries {
		classes[e.ClassID] = e.Subject
	}
	assert.Equal(t, "Religion", classes["5a"])
	assert.Equal(t, "Ethik", classes["5b"])
}

func TestSolveHonorsPin(t *testing.T) {
	data := miniSchool(t)
	pins := []domain.PinnedLesson{
		{ID: "p1", ClassID: "5a", Subject: "Mathematik", TeacherID: "T01", Day: 0, Period: 1},
	}
	out, sol := solveMini(t, data, pins)
	require.True(t, sol.IsUsable())
	assert.Empty(t, out.DroppedPins)

	found := false
	for _, e := range sol.Entries {
		if e.ClassID == "5a" && e.Subject == "Mathematik" && e.TeacherID == "T01" && e.Day == 0 && e.Period == 1 {
			found = true
		}
	}
	assert.True(t, found, "pinned lesson missing from solution")
}

func TestSolveDropsUnmatchablePin(t *testing.T) {
	data := miniSchool(t)
	pins := []domain.PinnedLesson{
		// 5a has no Ethik in its curriculum; the slot variable never exists.
		{ID: "ghost", ClassID: "5a", Subject: "Ethik", TeacherID: "T04", Day: 0, Period: 1},
	}
	out, sol := solveMini(t, data, pins)
	require.True(t, sol.IsUsable())
	assert.Equal(t, []string{"ghost"}, out.DroppedPins)
	assert.Equal(t, []string{"ghost"}, sol.DroppedPins)
}

func TestSolveRespectsUnavailability(t *testing.T) {
	data := miniSchool(t)
	data.Teachers[0].Unavailable = []domain.DayPeriod{{Day: 0, Period: 1}, {Day: 0, Period: 2}}
	require.NoError(t, data.Finalize())

	_, sol := solveMini(t, data, nil)
	require.True(t, sol.IsUsable())
	for _, e := range sol.Entries {
		if e.TeacherID == "T01" {
			assert.False(t, e.Day == 0 && (e.Period == 1 || e.Period == 2),
				"T01 scheduled during unavailability at day %d period %d", e.Day, e.Period)
		}
	}
}

func TestSolveRespectsClassMaxPeriod(t *testing.T) {
	data := miniSchool(t)
	data.Classes[0].MaxPeriod = 1
	data.Classes[0].Curriculum = domain.Curriculum{"Mathematik": 2, "Deutsch": 2, "Religion": 1}
	require.NoError(t, data.Finalize())

	slots := slotindex.Build(data.Grid)
	model := cpsat.NewModel()
	vars := BuildVariables(model, data, slots, ModelOverride{})
	for sk := range vars.Slot {
		if sk.Class == "5a" {
			assert.Equal(t, 1, sk.Period, "no slot variable may exist past the class's max_period")
		}
	}
	// The coupling is bounded by its tightest involved class.
	for csk := range vars.CouplingSlot {
		assert.Equal(t, 1, csk.Period)
	}

	_, sol := solveMini(t, data, nil)
	require.True(t, sol.IsUsable())
	for _, e := range sol.Entries {
		if e.ClassID == "5a" {
			assert.Equal(t, 1, e.Period, "5a scheduled past its last usable period")
		}
	}
}

func TestSolveDeterministicModelSize(t *testing.T) {
	sizes := make([][2]int, 0, 2)
	for i := 0; i < 2; i++ {
		data := miniSchool(t)
		out, _ := solveMini(t, data, nil)
		sizes = append(sizes, [2]int{out.Model.NumVars(), out.Model.NumConstraints()})
	}
	assert.Equal(t, sizes[0], sizes[1], "identical inputs must encode identical models")
}

func TestVariablesCouplingCoverage(t *testing.T) {
	data := miniSchool(t)
	slots := slotindex.Build(data.Grid)
	model := cpsat.NewModel()
	vars := BuildVariables(model, data, slots, ModelOverride{})

	assert.True(t, vars.CoveredSubjects["5a"]["Religion"])
	assert.True(t, vars.CoveredSubjects["5b"]["Ethik"])
	_, hasReliAssign := vars.Assign[assignKey{Teacher: "T03", Class: "5a", Subject: "Religion"}]
	assert.False(t, hasReliAssign, "coupling-covered subjects must not get assign variables")
	_, hasMathAssign := vars.Assign[assignKey{Teacher: "T01", Class: "5a", Subject: "Mathematik"}]
	assert.True(t, hasMathAssign)

	// Coupling assignment variables exist for the qualified teachers only.
	_, ok := vars.CouplingAssign[couplingAssignKey{Group: "reli-5", Subject: "Religion", Teacher: "T03"}]
	assert.True(t, ok)
	_, ok = vars.CouplingAssign[couplingAssignKey{Group: "reli-5", Subject: "Religion", Teacher: "T01"}]
	assert.False(t, ok)
}

func TestVariablesDropCouplingsOverride(t *testing.T) {
	data := miniSchool(t)
	slots := slotindex.Build(data.Grid)
	model := cpsat.NewModel()
	vars := BuildVariables(model, data, slots, ModelOverride{DropCouplings: true})

	assert.Empty(t, vars.CouplingSlot)
	assert.Empty(t, vars.CouplingAssign)
	// Without coverage, the coupled subjects become ordinary lessons.
	_, ok := vars.Assign[assignKey{Teacher: "T03", Class: "5a", Subject: "Religion"}]
	assert.True(t, ok)
}

func TestDoubleRequiredEvenN(t *testing.T) {
	grid, err := domain.NewTimeGrid(5, 2, nil)
	require.NoError(t, err)
	data := &domain.SchoolData{
		Name: "chem",
		Grid: grid,
		Subjects: []domain.Subject{
			{Name: "Chemie", Short: "Ch", Category: domain.CategoryNW, RequiredRoomType: "chemie", DoubleRequired: true, DoublePreferred: true},
			{Name: "Deutsch", Short: "D", Category: domain.CategoryHauptfach, IsMain: true},
		},
		Teachers: []domain.Teacher{
			{ID: "T01", Name: "Abel", Subjects: []string{"Chemie"}, DeputatMin: 1, DeputatMax: 6, MaxHoursPerDay: 2},
			{ID: "T02", Name: "Bode", Subjects: []string{"Deutsch"}, DeputatMin: 1, DeputatMax: 6, MaxHoursPerDay: 2},
		},
		Classes: []domain.SchoolClass{
			{ID: "8a", Name: "8a", Grade: 8, Curriculum: domain.Curriculum{"Chemie": 2, "Deutsch": 2}},
		},
		Rooms: []domain.Room{
			{ID: "CH1", Name: "Chemiesaal", Type: "chemie"},
		},
	}
	require.NoError(t, data.Finalize())

	_, sol := solveMini(t, data, nil)
	require.True(t, sol.IsUsable())

	var chemie []domain.ScheduleEntry
	for _, e := range sol.Entries {
		if e.Subject == "Chemie" {
			chemie = append(chemie, e)
		}
	}
	require.Len(t, chemie, 2)
	assert.Equal(t, chemie[0].Day, chemie[1].Day, "even-N double-required lessons form one block")
	assert.Equal(t, chemie[0].Period+1, chemie[1].Period)
}

func TestDiagnoseInfeasible(t *testing.T) {
	data := miniSchool(t)
	// Starve 5a's Mathematik: the only qualified teacher may work one hour
	// per day but is unavailable on all but two slots, leaving fewer legal
	// placements than the curriculum demands.
	data.Teachers[0].MaxHoursPerDay = 1
	data.Teachers[0].Unavailable = []domain.DayPeriod{
		{Day: 0, Period: 1}, {Day: 0, Period: 2},
		{Day: 1, Period: 1}, {Day: 1, Period: 2},
		{Day: 2, Period: 1}, {Day: 2, Period: 2},
		{Day: 3, Period: 1}, {Day: 3, Period: 2},
	}
	require.NoError(t, data.Finalize())

	_, sol := solveMini(t, data, nil)
	require.Equal(t, domain.StatusInfeasible, sol.Status)

	slots := slotindex.Build(data.Grid)
	diag := Diagnose(context.Background(), data, slots, nil, nil)
	require.Len(t, diag.Results, 5)
	assert.NotEmpty(t, diag.Recommendation)
	for _, r := range diag.Results[:4] {
		// Neither doubles, rooms, couplings nor deputat cause this
		// infeasibility; availability does, which no relaxation lifts.
		assert.False(t, r.Feasible(), "relaxation %s unexpectedly feasible", r.Name)
	}
}
