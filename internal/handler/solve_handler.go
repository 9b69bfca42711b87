// Package handler exposes the timetabling pipeline over HTTP.
package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sekundarstufe/stundenplan-core/internal/domain"
	"github.com/sekundarstufe/stundenplan-core/internal/dto"
	"github.com/sekundarstufe/stundenplan-core/internal/feasibility"
	"github.com/sekundarstufe/stundenplan-core/internal/service"
	appErrors "github.com/sekundarstufe/stundenplan-core/pkg/errors"
	"github.com/sekundarstufe/stundenplan-core/pkg/response"
)

type timetableSolver interface {
	Solve(ctx context.Context, data *domain.SchoolData, pins []domain.PinnedLesson, opts service.SolveOptions) (*dto.SolveResponse, error)
	Validate(data *domain.SchoolData) *feasibility.Report
}

type solveJobRunner interface {
	Enqueue(data *domain.SchoolData, pins []domain.PinnedLesson, opts service.SolveOptions) (string, error)
	Status(jobID string) (*dto.JobStatusResponse, error)
}

// SolveHandler exposes synchronous and asynchronous solve endpoints.
type SolveHandler struct {
	solver timetableSolver
	jobs   solveJobRunner
}

// NewSolveHandler constructs the handler. jobs may be nil to disable the
// async endpoints.
func NewSolveHandler(solver *service.SolveService, jobs *service.SolveJobService) *SolveHandler {
	h := &SolveHandler{solver: solver}
	if jobs != nil {
		h.jobs = jobs
	}
	return h
}

func bindSolveRequest(c *gin.Context) (*dto.SolveRequest, service.SolveOptions, bool) {
	var req dto.SolveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid solve payload"))
		return nil, service.SolveOptions{}, false
	}
	if req.Data == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "data is required"))
		return nil, service.SolveOptions{}, false
	}
	if err := req.Data.Finalize(); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInputInvalid.Code, appErrors.ErrInputInvalid.Status, "school data is invalid"))
		return nil, service.SolveOptions{}, false
	}
	if err := req.Data.Validate(); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInputInvalid.Code, appErrors.ErrInputInvalid.Status, "school data is invalid"))
		return nil, service.SolveOptions{}, false
	}

	opts := service.SolveOptions{Diagnose: req.Diagnose}
	if req.TimeLimit != "" {
		d, err := time.ParseDuration(req.TimeLimit)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid time_limit"))
			return nil, service.SolveOptions{}, false
		}
		opts.TimeLimit = d
	}
	return &req, opts, true
}

// Solve godoc
// @Summary Solve a weekly timetable synchronously
// @Tags Timetable
// @Accept json
// @Produce json
// @Param payload body dto.SolveRequest true "School data, optional pins and solver options"
// @Success 200 {object} response.Envelope
// @Router /solve [post]
func (h *SolveHandler) Solve(c *gin.Context) {
	req, opts, ok := bindSolveRequest(c)
	if !ok {
		return
	}
	resp, err := h.solver.Solve(c.Request.Context(), req.Data, req.Pins, opts)
	if err != nil {
		appErr := appErrors.FromError(err)
		if appErr.Code == appErrors.ErrFeasibility.Code && resp != nil {
			// The pre-check report is the useful payload here.
			c.JSON(appErr.Status, response.Envelope{Data: resp, Error: appErr})
			return
		}
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, resp, nil)
}

// SolveAsync godoc
// @Summary Enqueue a timetable solve as a background job
// @Tags Timetable
// @Accept json
// @Produce json
// @Param payload body dto.SolveRequest true "School data, optional pins and solver options"
// @Success 202 {object} response.Envelope
// @Router /solve/async [post]
func (h *SolveHandler) SolveAsync(c *gin.Context) {
	if h.jobs == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "async solving is disabled"))
		return
	}
	req, opts, ok := bindSolveRequest(c)
	if !ok {
		return
	}
	jobID, err := h.jobs.Enqueue(req.Data, req.Pins, opts)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusAccepted, dto.SolveJobResponse{JobID: jobID, EnqueuedAt: time.Now().UTC()}, nil)
}

// JobStatus godoc
// @Summary Poll an async solve job
// @Tags Timetable
// @Produce json
// @Param id path string true "Job ID"
// @Success 200 {object} response.Envelope
// @Router /solve/jobs/{id} [get]
func (h *SolveHandler) JobStatus(c *gin.Context) {
	if h.jobs == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "async solving is disabled"))
		return
	}
	status, err := h.jobs.Status(c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, status, nil)
}

// Validate godoc
// @Summary Run only the feasibility pre-check
// @Tags Timetable
// @Accept json
// @Produce json
// @Param payload body dto.ValidateRequest true "School data"
// @Success 200 {object} response.Envelope
// @Router /validate [post]
func (h *SolveHandler) Validate(c *gin.Context) {
	var req dto.ValidateRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Data == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "data is required"))
		return
	}
	if err := req.Data.Finalize(); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInputInvalid.Code, appErrors.ErrInputInvalid.Status, "school data is invalid"))
		return
	}
	response.JSON(c, http.StatusOK, h.solver.Validate(req.Data), nil)
}
