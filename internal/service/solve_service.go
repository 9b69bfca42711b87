// Package service wires the solver core to the API surface: solve
// orchestration, scenario snapshots, authentication and metrics.
package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/sekundarstufe/stundenplan-core/internal/analysis"
	"github.com/sekundarstufe/stundenplan-core/internal/domain"
	"github.com/sekundarstufe/stundenplan-core/internal/dto"
	"github.com/sekundarstufe/stundenplan-core/internal/feasibility"
	"github.com/sekundarstufe/stundenplan-core/internal/roomassign"
	"github.com/sekundarstufe/stundenplan-core/internal/slotindex"
	"github.com/sekundarstufe/stundenplan-core/internal/solver"
	"github.com/sekundarstufe/stundenplan-core/internal/store"
	"github.com/sekundarstufe/stundenplan-core/pkg/config"
	appErrors "github.com/sekundarstufe/stundenplan-core/pkg/errors"
)

// SolveOptions are the per-request knobs of one solve.
type SolveOptions struct {
	TimeLimit time.Duration
	Diagnose  bool
}

// SolveService runs the full solve pipeline: pre-check, model build and
// search, room assignment, quality analysis and (on INFEASIBLE) diagnosis.
type SolveService struct {
	cfg     config.SolverConfig
	hints   *store.HintCache // nil disables warm-start caching
	metrics *MetricsService  // nil disables instrumentation
	logger  *zap.Logger
}

// NewSolveService constructs the service. hints and metrics may be nil.
func NewSolveService(cfg config.SolverConfig, hints *store.HintCache, metrics *MetricsService, logger *zap.Logger) *SolveService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SolveService{cfg: cfg, hints: hints, metrics: metrics, logger: logger}
}

// Weights translates the configured objective weights, falling back to the
// solver defaults for any weight left at zero.
func (s *SolveService) Weights() solver.Weights {
	w := solver.DefaultWeights()
	if s.cfg.GapWeight > 0 {
		w.GapPenalty = s.cfg.GapWeight
	}
	if s.cfg.DayWishWeight > 0 {
		w.DayWishPenalty = s.cfg.DayWishWeight
	}
	if s.cfg.DoublePreferredWeight > 0 {
		w.DoublePreferredBonus = s.cfg.DoublePreferredWeight
	}
	if s.cfg.SubjectSpreadWeight > 0 {
		w.SubjectSpreadPenalty = s.cfg.SubjectSpreadWeight
	}
	if s.cfg.DeputatWeight > 0 {
		w.DeputatDeviationPenalty = s.cfg.DeputatWeight
	}
	return w
}

// Validate runs only the feasibility pre-check.
func (s *SolveService) Validate(data *domain.SchoolData) *feasibility.Report {
	return feasibility.Check(data)
}

// Solve runs the pipeline end to end. Problem-space outcomes (INFEASIBLE,
// UNKNOWN) are values on the returned solution, not errors; an *Error is
// returned only for contract violations such as blocking feasibility errors.
func (s *SolveService) Solve(ctx context.Context, data *domain.SchoolData, pins []domain.PinnedLesson, opts SolveOptions) (*dto.SolveResponse, error) {
	resp := &dto.SolveResponse{}

	resp.Feasibility = feasibility.Check(data)
	if !resp.Feasibility.OK() {
		s.logger.Warn("feasibility_blocked", zap.Strings("errors", resp.Feasibility.Errors))
		return resp, appErrors.Clone(appErrors.ErrFeasibility, strings.Join(resp.Feasibility.Errors, "; "))
	}
	for _, w := range resp.Feasibility.Warnings {
		s.logger.Warn("feasibility_warning", zap.String("warning", w))
	}

	slots := slotindex.Build(data.Grid)

	solveCfg := solver.SolveConfig{
		TimeLimit:  s.cfg.TimeLimit,
		NumWorkers: s.cfg.NumWorkers,
		Weights:    s.Weights(),
		Logger:     s.logger,
	}
	if opts.TimeLimit > 0 {
		solveCfg.TimeLimit = opts.TimeLimit
	}

	var hintKey string
	if s.hints != nil {
		if key, err := s.hints.Key(data, pins); err == nil {
			hintKey = key
			if seed, err := s.hints.Get(ctx, key); err == nil && seed != nil {
				solveCfg.SeedValues = seed
				s.logger.Info("warm_start_seeded_from_cache", zap.Int("values", len(seed)))
			}
		}
	}

	started := time.Now()
	out := solver.Solve(ctx, data, slots, pins, solveCfg)
	sol := solver.Extract(data, out)
	resp.Solution = sol

	for _, pinID := range out.DroppedPins {
		s.logger.Warn("pin_dropped", zap.String("pin_id", pinID))
	}

	if s.metrics != nil {
		s.metrics.ObserveSolve(string(sol.Status), time.Since(started))
	}

	switch sol.Status {
	case domain.StatusOptimal, domain.StatusFeasible:
		roomassign.New(data, s.logger).Apply(sol)
		resp.Quality = analysis.Build(data, sol)
		if s.hints != nil && hintKey != "" {
			if err := s.hints.Put(ctx, hintKey, out.Final.Values); err != nil {
				s.logger.Warn("hint_cache_store_failed", zap.Error(err))
			}
		}
	case domain.StatusInfeasible:
		s.logger.Warn("solve_infeasible",
			zap.Int("variables", sol.NumVariables),
			zap.Int("constraints", sol.NumConstraints),
		)
		if opts.Diagnose {
			resp.Diagnosis = solver.Diagnose(ctx, data, slots, pins, s.logger)
		}
	default:
		s.logger.Warn("solve_no_incumbent", zap.String("status", string(sol.Status)))
	}

	return resp, nil
}
