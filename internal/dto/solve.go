// Package dto defines the request/response payloads of the HTTP surface,
// kept separate from the domain records they wrap.
package dto

import (
	"time"

	"github.com/sekundarstufe/stundenplan-core/internal/analysis"
	"github.com/sekundarstufe/stundenplan-core/internal/domain"
	"github.com/sekundarstufe/stundenplan-core/internal/feasibility"
	"github.com/sekundarstufe/stundenplan-core/internal/solver"
)

// SolveRequest carries the school data to solve plus optional pins and
// per-request solver overrides.
type SolveRequest struct {
	Data      *domain.SchoolData    `json:"data" validate:"required"`
	Pins      []domain.PinnedLesson `json:"pins,omitempty"`
	TimeLimit string                `json:"time_limit,omitempty"`
	Diagnose  bool                  `json:"diagnose,omitempty"`
}

// SolveResponse returns the solution, the pre-check report and, when the
// solve was INFEASIBLE and diagnosis was requested, the relaxer's findings.
type SolveResponse struct {
	Solution    *domain.Solution        `json:"solution"`
	Feasibility *feasibility.Report     `json:"feasibility"`
	Quality     *analysis.QualityReport `json:"quality,omitempty"`
	Diagnosis   *solver.Diagnosis       `json:"diagnosis,omitempty"`
}

// SolveJobResponse acknowledges an asynchronous solve submission.
type SolveJobResponse struct {
	JobID      string    `json:"job_id"`
	EnqueuedAt time.Time `json:"enqueued_at"`
}

// JobStatusResponse reports an async job's lifecycle state.
type JobStatusResponse struct {
	JobID    string         `json:"job_id"`
	State    string         `json:"state"`
	Error    string         `json:"error,omitempty"`
	Response *SolveResponse `json:"response,omitempty"`
}

// ValidateRequest asks only for the feasibility pre-check.
type ValidateRequest struct {
	Data *domain.SchoolData `json:"data" validate:"required"`
}
