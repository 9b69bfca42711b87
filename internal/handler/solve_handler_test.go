package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sekundarstufe/stundenplan-core/internal/domain"
	"github.com/sekundarstufe/stundenplan-core/internal/dto"
	"github.com/sekundarstufe/stundenplan-core/internal/feasibility"
	"github.com/sekundarstufe/stundenplan-core/internal/service"
)

type fakeSolver struct {
	resp     *dto.SolveResponse
	err      error
	lastOpts service.SolveOptions
}

func (f *fakeSolver) Solve(_ context.Context, _ *domain.SchoolData, _ []domain.PinnedLesson, opts service.SolveOptions) (*dto.SolveResponse, error) {
	f.lastOpts = opts
	return f.resp, f.err
}

func (f *fakeSolver) Validate(*domain.SchoolData) *feasibility.Report {
	return &feasibility.Report{Warnings: []string{"knapp"}}
}

func solveBody(t *testing.T) []byte {
	t.Helper()
	grid, err := domain.NewTimeGrid(5, 2, nil)
	require.NoError(t, err)
	data := &domain.SchoolData{
		Name: "req",
		Grid: grid,
		Subjects: []domain.Subject{
			{Name: "Mathematik", Short: "M", Category: domain.CategoryHauptfach},
		},
		Teachers: []domain.Teacher{
			{ID: "T01", Name: "Abel", Subjects: []string{"Mathematik"}, DeputatMin: 1, DeputatMax: 8, MaxHoursPerDay: 2},
		},
		Classes: []domain.SchoolClass{
			{ID: "5a", Name: "5a", Grade: 5, Curriculum: domain.Curriculum{"Mathematik": 2}},
		},
		Rooms: []domain.Room{{ID: "R1", Name: "Raum 1"}},
	}
	raw, err := json.Marshal(dto.SolveRequest{Data: data, TimeLimit: "30s"})
	require.NoError(t, err)
	return raw
}

func newSolveContext(t *testing.T, handlerBody []byte) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/solve", bytes.NewReader(handlerBody))
	c.Request.Header.Set("Content-Type", "application/json")
	return c, rec
}

func TestSolveHandlerSuccess(t *testing.T) {
	fake := &fakeSolver{resp: &dto.SolveResponse{
		Solution:    &domain.Solution{Status: domain.StatusFeasible},
		Feasibility: &feasibility.Report{},
	}}
	h := &SolveHandler{solver: fake}

	c, rec := newSolveContext(t, solveBody(t))
	h.Solve(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 30.0, fake.lastOpts.TimeLimit.Seconds())

	var envelope struct {
		Data dto.SolveResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, domain.StatusFeasible, envelope.Data.Solution.Status)
}

func TestSolveHandlerRejectsMissingData(t *testing.T) {
	h := &SolveHandler{solver: &fakeSolver{}}

	c, rec := newSolveContext(t, []byte(`{}`))
	h.Solve(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSolveHandlerRejectsBadTimeLimit(t *testing.T) {
	body := solveBody(t)
	body = bytes.Replace(body, []byte(`"30s"`), []byte(`"soon"`), 1)
	h := &SolveHandler{solver: &fakeSolver{}}

	c, rec := newSolveContext(t, body)
	h.Solve(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSolveHandlerAsyncDisabled(t *testing.T) {
	h := &SolveHandler{solver: &fakeSolver{}}

	c, rec := newSolveContext(t, solveBody(t))
	h.SolveAsync(c)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestValidateHandler(t *testing.T) {
	h := &SolveHandler{solver: &fakeSolver{}}

	body := solveBody(t)
	c, rec := newSolveContext(t, body)
	h.Validate(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	var envelope struct {
		Data feasibility.Report `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, []string{"knapp"}, envelope.Data.Warnings)
}
