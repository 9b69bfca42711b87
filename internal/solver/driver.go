package solver

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/sekundarstufe/stundenplan-core/internal/cpsat"
	"github.com/sekundarstufe/stundenplan-core/internal/domain"
	"github.com/sekundarstufe/stundenplan-core/internal/slotindex"
)

// SolveConfig configures one end-to-end solve (spec §4.5's "Solver Driver").
type SolveConfig struct {
	TimeLimit  time.Duration
	NumWorkers int
	Weights    Weights
	Override   ModelOverride
	Logger     *zap.Logger // optional; nil disables logging

	// SeedValues is an optional full assignment from a previous solve of
	// the same input (e.g. the Redis hint cache). When its length matches
	// the model, it seeds the warm-start pass.
	SeedValues []bool
}

// SolveOutput bundles everything the extractor (C7) and relaxer (C8) need
// from one solve: the model and its variables, the shared gap indicators,
// any pins dropped during posting, and both the warm-start and final
// search results.
type SolveOutput struct {
	Model       *cpsat.Model
	Vars        *Variables
	Gaps        *GapVariables
	DroppedPins []string
	WarmStart   cpsat.Result
	Final       cpsat.Result
}

// Solve runs one complete solve: variable construction, hard-constraint
// posting, a warm-start pass with no objective, then the full minimization
// pass seeded with the warm-start's assignment (spec §4.5's warm-start
// protocol).
func Solve(ctx context.Context, data *domain.SchoolData, slots *slotindex.Index, pins []domain.PinnedLesson, cfg SolveConfig) *SolveOutput {
	model := cpsat.NewModel()
	vars := BuildVariables(model, data, slots, cfg.Override)
	cr := PostHardConstraints(model, data, vars, pins, cfg.Override)

	out := &SolveOutput{Model: model, Vars: vars, Gaps: cr.Gaps, DroppedPins: cr.DroppedPins}

	warmBudget := cfg.TimeLimit / 3
	if warmBudget > 90*time.Second {
		warmBudget = 90 * time.Second
	}
	if warmBudget <= 0 {
		warmBudget = 30 * time.Second
	}

	// A cached assignment was recorded after BuildObjective added its
	// auxiliary variables, so it may run past this (pre-objective) model;
	// the shared prefix is valid because construction order is
	// deterministic. A shorter cache means the input changed — discard it.
	var seedHints []cpsat.Hint
	if n := model.NumVars(); n > 0 && len(cfg.SeedValues) >= n {
		seedHints = make([]cpsat.Hint, n)
		for i := 0; i < n; i++ {
			seedHints[i] = cpsat.Hint{Var: cpsat.BoolVar(i), Value: cfg.SeedValues[i]}
		}
	}

	warmSolver := cpsat.NewSolver(model)
	warm := warmSolver.Solve(ctx, cpsat.Params{TimeLimit: warmBudget, NumWorkers: cfg.NumWorkers, Hints: seedHints})
	out.WarmStart = warm
	logWarmStart(cfg.Logger, warm)

	var hints []cpsat.Hint
	if warm.Status == cpsat.StatusOptimal || warm.Status == cpsat.StatusFeasible {
		hints = make([]cpsat.Hint, model.NumVars())
		for i := 0; i < model.NumVars(); i++ {
			hints[i] = cpsat.Hint{Var: cpsat.BoolVar(i), Value: warm.Values[i]}
		}
	}

	BuildObjective(model, data, vars, cr.Gaps, cfg.Weights)

	remaining := cfg.TimeLimit - warm.WallTime
	if remaining <= 0 {
		remaining = cfg.TimeLimit
	}

	finalSolver := cpsat.NewSolver(model)
	final := finalSolver.Solve(ctx, cpsat.Params{
		TimeLimit:  remaining,
		NumWorkers: cfg.NumWorkers,
		Hints:      hints,
		OnProgress: progressLogger(cfg.Logger),
	})
	out.Final = final
	return out
}

func logWarmStart(l *zap.Logger, r cpsat.Result) {
	if l == nil {
		return
	}
	l.Info("warm_start_complete",
		zap.String("status", string(r.Status)),
		zap.Duration("wall_time", r.WallTime),
	)
}

func progressLogger(l *zap.Logger) cpsat.ProgressCallback {
	if l == nil {
		return nil
	}
	return func(objective float64, elapsed time.Duration) {
		l.Debug("objective_improved", zap.Float64("objective", objective), zap.Duration("elapsed", elapsed))
	}
}
