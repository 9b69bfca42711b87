package cpsat

import (
	"context"
	"runtime"
	"sort"
	"time"
)

// Status mirrors the CP-SAT status vocabulary from spec §6.
type Status string

const (
	StatusOptimal      Status = "OPTIMAL"
	StatusFeasible     Status = "FEASIBLE"
	StatusInfeasible   Status = "INFEASIBLE"
	StatusUnknown      Status = "UNKNOWN"
	StatusModelInvalid Status = "MODEL_INVALID"
)

// Hint is a warm-start suggestion: try v=value before exploring other
// branches for it. Hints never force a value; an infeasible hint is simply
// abandoned during search.
type Hint struct {
	Var   BoolVar
	Value bool
}

// ProgressCallback is invoked whenever the solver improves its incumbent.
type ProgressCallback func(objective float64, elapsed time.Duration)

// Params configures one Solve call.
type Params struct {
	TimeLimit  time.Duration
	NumWorkers int
	Hints      []Hint
	OnProgress ProgressCallback
}

// Result is the outcome of a Solve call.
type Result struct {
	Status    Status
	Values    []bool
	Objective float64
	WallTime  time.Duration
}

// Solver runs branch-and-bound search over a Model.
type Solver struct {
	model *Model
}

// NewSolver returns a Solver bound to m. m must not be modified afterwards.
func NewSolver(m *Model) *Solver {
	return &Solver{model: m}
}

// Solve runs the search under the given parameters. A zero TimeLimit means
// no deadline. NumWorkers <= 0 defaults to runtime.NumCPU(); the search is
// single-threaded and the worker count is recorded but not consulted. No
// caller runs solver instances concurrently either.
func (s *Solver) Solve(ctx context.Context, params Params) Result {
	start := time.Now()
	if params.NumWorkers <= 0 {
		params.NumWorkers = runtime.NumCPU()
	}

	deadline := time.Time{}
	if params.TimeLimit > 0 {
		deadline = start.Add(params.TimeLimit)
	}

	n := s.model.numVars
	values := make([]int8, n)
	for i := range values {
		values[i] = unknown
	}

	hintOrder := make(map[BoolVar]bool, len(params.Hints))
	hintValue := make(map[BoolVar]bool, len(params.Hints))
	for _, h := range params.Hints {
		hintOrder[h.Var] = true
		hintValue[h.Var] = h.Value
	}

	search := &search{
		model:     s.model,
		deadline:  deadline,
		hintValue: hintValue,
		hintOrder: hintOrder,
		onProgress: params.OnProgress,
		start:     start,
	}

	ok, timedOut := search.run(values)

	result := Result{WallTime: time.Since(start)}
	if !ok && search.best == nil {
		if timedOut {
			result.Status = StatusUnknown
		} else {
			result.Status = StatusInfeasible
		}
		return result
	}

	best := search.best
	if best == nil {
		best = values
	}
	result.Values = toBoolSlice(best)
	if s.model.hasObj {
		result.Objective = float64(s.model.objective.Eval(result.Values))
	}
	if timedOut {
		result.Status = StatusFeasible
	} else {
		result.Status = StatusOptimal
	}
	return result
}

func toBoolSlice(values []int8) []bool {
	out := make([]bool, len(values))
	for i, v := range values {
		out[i] = v == isTrue
	}
	return out
}

type search struct {
	model      *Model
	deadline   time.Time
	hintValue  map[BoolVar]bool
	hintOrder  map[BoolVar]bool
	onProgress ProgressCallback
	start      time.Time

	best      []int8
	bestObj   float64
	haveBest  bool
	nodeCount int
}

func (s *search) timedOut() bool {
	return !s.deadline.IsZero() && time.Now().After(s.deadline)
}

// run performs depth-first branch-and-bound. Returns (foundAny, timedOut).
func (s *search) run(values []int8) (bool, bool) {
	ok, timedOut := s.dfs(values)
	return ok, timedOut
}

func (s *search) dfs(values []int8) (bool, bool) {
	s.nodeCount++
	if s.nodeCount%4096 == 0 && s.timedOut() {
		return s.haveBest, true
	}

	// Propagate to a fixed point.
	for {
		changedAny := false
		for _, c := range s.model.constraints {
			ok, changed := c.Propagate(values)
			if !ok {
				return s.haveBest, false
			}
			changedAny = changedAny || changed
		}
		if !changedAny {
			break
		}
	}

	branchVar, done := s.pickBranchVar(values)
	if done {
		return s.recordIfBetter(values), false
	}
	if branchVar < 0 {
		// No unassigned variable left but not "done" per pickBranchVar's
		// bookkeeping; treat as a leaf.
		return s.recordIfBetter(values), false
	}

	order := []int8{isTrue, isFalse}
	if hv, ok := s.hintValue[branchVar]; ok && s.hintOrder[branchVar] {
		if hv {
			order = []int8{isTrue, isFalse}
		} else {
			order = []int8{isFalse, isTrue}
		}
		delete(s.hintOrder, branchVar) // consume the hint once
	}

	for _, want := range order {
		trial := make([]int8, len(values))
		copy(trial, values)
		trial[branchVar] = want
		found, timedOut := s.dfs(trial)
		if timedOut {
			return found, true
		}
		if found && !s.model.hasObj {
			// First feasible solution suffices when there's no objective to
			// optimize; this mirrors a SAT-style "any solution" search.
			return true, false
		}
	}
	return s.haveBest, false
}

// pickBranchVar returns the next unassigned variable to branch on (most
// constrained first, by appearance count) or done=true if every variable is
// already assigned.
func (s *search) pickBranchVar(values []int8) (BoolVar, bool) {
	type cand struct {
		v     BoolVar
		count int
	}
	var unassigned []cand
	counts := make([]int, len(values))
	for _, c := range s.model.constraints {
		if lc, ok := c.(*linearConstraint); ok {
			for _, v := range lc.lc.Expr.Vars() {
				counts[v]++
			}
		}
	}
	for i, v := range values {
		if v == unknown {
			unassigned = append(unassigned, cand{BoolVar(i), counts[i]})
		}
	}
	if len(unassigned) == 0 {
		return -1, true
	}
	sort.Slice(unassigned, func(i, j int) bool {
		if unassigned[i].count != unassigned[j].count {
			return unassigned[i].count > unassigned[j].count
		}
		return unassigned[i].v < unassigned[j].v
	})
	return unassigned[0].v, false
}

func (s *search) recordIfBetter(values []int8) bool {
	assign := toBoolSlice(values)
	for _, c := range s.model.constraints {
		if !c.Satisfied(assign) {
			return false
		}
	}
	if !s.model.hasObj {
		s.best = append([]int8(nil), values...)
		s.haveBest = true
		return true
	}
	obj := float64(s.model.objective.Eval(assign))
	improves := !s.haveBest
	if s.haveBest {
		if s.model.minimize {
			improves = obj < s.bestObj
		} else {
			improves = obj > s.bestObj
		}
	}
	if improves {
		s.best = append([]int8(nil), values...)
		s.bestObj = obj
		s.haveBest = true
		if s.onProgress != nil {
			s.onProgress(obj, time.Since(s.start))
		}
	}
	return true
}
