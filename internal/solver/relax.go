package solver

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/sekundarstufe/stundenplan-core/internal/cpsat"
	"github.com/sekundarstufe/stundenplan-core/internal/domain"
	"github.com/sekundarstufe/stundenplan-core/internal/slotindex"
)

const (
	// relaxTimeBudget caps each diagnostic sibling solve.
	relaxTimeBudget = 30 * time.Second
	relaxWorkers    = 2
	// relaxDeputatBuffer is the bounded additive widening applied to
	// deputat_max during the deputat relaxation step. Only the upper bound
	// moves; deputat_min is a contractual floor no relaxation may cross.
	relaxDeputatBuffer = 4
)

// RelaxationResult is the outcome of one scoped diagnostic solve.
type RelaxationResult struct {
	Name        string              `json:"name"`
	Description string              `json:"description"`
	Status      domain.SolverStatus `json:"status"`
	WallTime    time.Duration       `json:"wall_time"`
}

// Feasible reports whether the relaxation restored feasibility.
func (r *RelaxationResult) Feasible() bool {
	return r.Status == domain.StatusOptimal || r.Status == domain.StatusFeasible
}

// Diagnosis is the relaxer's full report: every scoped result plus a
// synthesized human-readable recommendation.
type Diagnosis struct {
	Results        []RelaxationResult `json:"results"`
	Recommendation string             `json:"recommendation"`
}

// relaxationStep names one scoped override of the model.
type relaxationStep struct {
	name        string
	description string
	override    ModelOverride
	advice      string
}

func relaxationSteps() []relaxationStep {
	return []relaxationStep{
		{
			name:        "no_double_required",
			description: "all double_required flags forced off",
			override:    ModelOverride{ForceNoDoubleRequired: true},
			advice:      "lift double-required: some subjects lack legal double-block slot combinations",
		},
		{
			name:        "unlimited_rooms",
			description: "every specialty-room capacity lifted",
			override:    ModelOverride{UnlimitedRooms: true},
			advice:      "specialty rooms are the bottleneck: add rooms or stagger room-bound subjects",
		},
		{
			name:        "no_couplings",
			description: "all coupling groups removed",
			override:    ModelOverride{DropCouplings: true},
			advice:      "coupling synchronization is unsatisfiable: revisit which classes are coupled together",
		},
		{
			name:        "deputat_buffer",
			description: fmt.Sprintf("deputat_max widened by %d hours", relaxDeputatBuffer),
			override:    ModelOverride{DeputatMaxBuffer: relaxDeputatBuffer},
			advice:      "teacher deputat ceilings are too tight: raise deputat_max or hire capacity",
		},
		{
			name:        "all_combined",
			description: "all four relaxations applied together",
			override: ModelOverride{
				ForceNoDoubleRequired: true,
				UnlimitedRooms:        true,
				DropCouplings:         true,
				DeputatMaxBuffer:      relaxDeputatBuffer,
			},
			advice: "only the combination of all relaxations is feasible: the constraint families interact; relax more than one",
		},
	}
}

// Diagnose runs the five scoped relaxation solves (spec §4.7) after a main
// solve came back INFEASIBLE, and synthesizes a recommendation from which
// relaxation restored feasibility. Each sibling solve is a plain
// feasibility pass: no objective, no warm start, a short budget.
func Diagnose(ctx context.Context, data *domain.SchoolData, slots *slotindex.Index, pins []domain.PinnedLesson, logger *zap.Logger) *Diagnosis {
	diag := &Diagnosis{}
	for _, step := range relaxationSteps() {
		model := cpsat.NewModel()
		vars := BuildVariables(model, data, slots, step.override)
		PostHardConstraints(model, data, vars, pins, step.override)

		s := cpsat.NewSolver(model)
		result := s.Solve(ctx, cpsat.Params{TimeLimit: relaxTimeBudget, NumWorkers: relaxWorkers})

		rr := RelaxationResult{
			Name:        step.name,
			Description: step.description,
			Status:      domain.SolverStatus(result.Status),
			WallTime:    result.WallTime,
		}
		diag.Results = append(diag.Results, rr)
		if logger != nil {
			logger.Info("relaxation_probe",
				zap.String("relaxation", step.name),
				zap.String("status", string(rr.Status)),
				zap.Duration("wall_time", rr.WallTime),
			)
		}
	}

	diag.Recommendation = synthesizeRecommendation(diag.Results)
	return diag
}

func synthesizeRecommendation(results []RelaxationResult) string {
	steps := relaxationSteps()
	var hits []string
	for i, r := range results {
		if i >= len(steps) || !r.Feasible() {
			continue
		}
		if steps[i].name == "all_combined" && len(hits) > 0 {
			// The combined run confirms the earlier finding; only cite it
			// when it is the sole feasible probe.
			continue
		}
		hits = append(hits, steps[i].advice)
	}
	if len(hits) == 0 {
		return "no single relaxation restores feasibility: overall capacity shortage — total curriculum demand, teacher availability and grid size do not fit together"
	}
	return strings.Join(hits, "; ")
}
