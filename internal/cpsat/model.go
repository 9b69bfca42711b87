// Package cpsat is a small, self-contained CP-SAT-style constraint engine:
// boolean decision variables, linear sums over them, boolean logic
// (implication, or, and, exactly-one, at-most-one), a branch-and-bound
// solver with a time budget, and a warm-start hint mechanism.
//
// There is no Go binding for Google OR-Tools CP-SAT anywhere in the
// reference pack (see DESIGN.md), and the one real constraint-solving
// library in the pack (gitrdm/gokanlogic) models finite-domain CSPs with a
// materially different convention (1-indexed domains, equality-only linear
// sums) that doesn't fit the dense boolean model spec §5/§6 describe at
// timetable scale. This package is the deliberate standard-library
// exception documented in DESIGN.md; gokanlogic is still wired in for the
// bounded sub-CSPs in internal/roomassign.
package cpsat

import "fmt"

// BoolVar is a handle to a boolean decision variable in a Model.
type BoolVar int

// Model accumulates boolean variables and constraints before being handed
// to a Solver. A Model is not safe for concurrent modification.
type Model struct {
	numVars     int
	names       []string
	constraints []Constraint
	objective   LinearExpr
	minimize    bool
	hasObj      bool
}

// NewModel returns an empty model.
func NewModel() *Model {
	return &Model{}
}

// NewBoolVar allocates a fresh boolean variable with a debug name.
func (m *Model) NewBoolVar(name string) BoolVar {
	v := BoolVar(m.numVars)
	m.numVars++
	m.names = append(m.names, name)
	return v
}

// NewBoolVarArray allocates n fresh boolean variables named "<prefix>[i]".
func (m *Model) NewBoolVarArray(prefix string, n int) []BoolVar {
	out := make([]BoolVar, n)
	for i := 0; i < n; i++ {
		out[i] = m.NewBoolVar(fmt.Sprintf("%s[%d]", prefix, i))
	}
	return out
}

// NumVars returns the number of boolean variables registered so far.
func (m *Model) NumVars() int { return m.numVars }

// NumConstraints returns the number of posted constraints.
func (m *Model) NumConstraints() int { return len(m.constraints) }

// Name returns the debug name of v.
func (m *Model) Name(v BoolVar) string {
	if int(v) < 0 || int(v) >= len(m.names) {
		return "?"
	}
	return m.names[v]
}

// Lit is a literal: a boolean variable or its negation.
type Lit struct {
	Var BoolVar
	Neg bool
}

// T returns the positive literal for v.
func T(v BoolVar) Lit { return Lit{Var: v} }

// F returns the negative literal for v (i.e. "not v").
func F(v BoolVar) Lit { return Lit{Var: v, Neg: true} }

// AndAux returns a fresh boolean variable constrained to equal the logical
// AND of lits, via the standard linearization:
//
//	aux <= lits[i]         for every i   (aux true implies every lit true)
//	aux >= sum(lits) - (n-1)             (all lits true implies aux true)
//
// Used wherever the hard constraints need a conjunction reified into a
// single variable (e.g. "this teacher is assigned to a coupling group and
// that group occupies this slot").
func (m *Model) AndAux(name string, lits ...Lit) BoolVar {
	aux := m.NewBoolVar(name)
	for _, l := range lits {
		m.AddImplication(T(aux), l)
	}
	expr := NewLinearExpr()
	for _, l := range lits {
		expr.AddLit(l, 1)
	}
	expr.AddTerm(aux, -1)
	m.AddLinearConstraint(expr, LE, int64(len(lits)-1))
	return aux
}

// OrAux returns a fresh boolean variable constrained to equal the logical OR
// of lits: aux <-> (lits[0] ∨ lits[1] ∨ ...). With zero lits, aux is forced
// false. Used by the shared gap-variable builder (§4.4) and H10's per-class
// "active period" indicator.
func (m *Model) OrAux(name string, lits ...Lit) BoolVar {
	aux := m.NewBoolVar(name)
	for _, l := range lits {
		m.AddImplication(l, T(aux))
	}
	clause := make([]Lit, 0, len(lits)+1)
	clause = append(clause, F(aux))
	clause = append(clause, lits...)
	m.AddBoolOr(clause...)
	return aux
}

// SetObjective sets the linear objective to minimize (or maximize).
func (m *Model) SetObjective(expr LinearExpr, minimize bool) {
	m.objective = expr
	m.minimize = minimize
	m.hasObj = true
}
