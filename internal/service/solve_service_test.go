package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sekundarstufe/stundenplan-core/internal/domain"
	"github.com/sekundarstufe/stundenplan-core/pkg/config"
	appErrors "github.com/sekundarstufe/stundenplan-core/pkg/errors"
)

func serviceTestData(t *testing.T) *domain.SchoolData {
	t.Helper()
	grid, err := domain.NewTimeGrid(5, 2, nil)
	require.NoError(t, err)
	data := &domain.SchoolData{
		Name: "service",
		Grid: grid,
		Subjects: []domain.Subject{
			{Name: "Mathematik", Short: "M", Category: domain.CategoryHauptfach, IsMain: true},
			{Name: "Deutsch", Short: "D", Category: domain.CategoryHauptfach, IsMain: true},
		},
		Teachers: []domain.Teacher{
			{ID: "T01", Name: "Abel", Subjects: []string{"Mathematik"}, DeputatMin: 1, DeputatMax: 8, MaxHoursPerDay: 2},
			{ID: "T02", Name: "Bode", Subjects: []string{"Deutsch"}, DeputatMin: 1, DeputatMax: 8, MaxHoursPerDay: 2},
		},
		Classes: []domain.SchoolClass{
			{ID: "5a", Name: "5a", Grade: 5, Curriculum: domain.Curriculum{"Mathematik": 2, "Deutsch": 2}, HomeRoomID: "R101"},
		},
		Rooms: []domain.Room{{ID: "R101", Name: "Raum 101", IsHome: true}},
	}
	require.NoError(t, data.Finalize())
	return data
}

func newTestSolveService() *SolveService {
	return NewSolveService(config.SolverConfig{TimeLimit: 10 * time.Second, NumWorkers: 1}, nil, nil, nil)
}

func TestSolveServiceEndToEnd(t *testing.T) {
	svc := newTestSolveService()
	resp, err := svc.Solve(context.Background(), serviceTestData(t), nil, SolveOptions{})
	require.NoError(t, err)

	require.NotNil(t, resp.Solution)
	assert.True(t, resp.Solution.IsUsable())
	require.NotNil(t, resp.Feasibility)
	assert.Empty(t, resp.Feasibility.Errors)
	require.NotNil(t, resp.Quality)

	// Lessons without specialty rooms land in the class's home room.
	for _, e := range resp.Solution.Entries {
		assert.Equal(t, "R101", e.RoomID)
	}
}

func TestSolveServiceBlocksOnFeasibilityError(t *testing.T) {
	data := serviceTestData(t)
	// Remove the only Mathematik teacher's qualification.
	data.Teachers[0].Subjects = []string{"Deutsch"}
	require.NoError(t, data.Finalize())

	svc := newTestSolveService()
	resp, err := svc.Solve(context.Background(), data, nil, SolveOptions{})

	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrFeasibility.Code, appErr.Code)
	assert.Contains(t, appErr.Message, "Mathematik")
	require.NotNil(t, resp.Feasibility)
	assert.Nil(t, resp.Solution, "solve must not run when the pre-check blocks")
}

func TestSolveServiceWeightsFallBackToDefaults(t *testing.T) {
	svc := NewSolveService(config.SolverConfig{GapWeight: 9}, nil, nil, nil)
	w := svc.Weights()
	assert.Equal(t, int64(9), w.GapPenalty)
	assert.Equal(t, int64(1), w.DeputatDeviationPenalty, "unset weights keep solver defaults")
}
