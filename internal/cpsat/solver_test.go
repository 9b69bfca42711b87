package cpsat

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func solve(t *testing.T, m *Model, params Params) Result {
	t.Helper()
	if params.TimeLimit == 0 {
		params.TimeLimit = 5 * time.Second
	}
	return NewSolver(m).Solve(context.Background(), params)
}

func TestExactlyOne(t *testing.T) {
	m := NewModel()
	vars := m.NewBoolVarArray("x", 3)
	m.AddExactlyOne(T(vars[0]), T(vars[1]), T(vars[2]))

	r := solve(t, m, Params{})
	require.Equal(t, StatusOptimal, r.Status)
	trueCount := 0
	for _, v := range vars {
		if r.Values[v] {
			trueCount++
		}
	}
	assert.Equal(t, 1, trueCount)
}

func TestImplicationChain(t *testing.T) {
	m := NewModel()
	a := m.NewBoolVar("a")
	b := m.NewBoolVar("b")
	c := m.NewBoolVar("c")
	m.AddImplication(T(a), T(b))
	m.AddImplication(T(b), T(c))
	m.AddBoolAnd(T(a))
	m.AddBoolAnd(F(c))

	r := solve(t, m, Params{})
	assert.Equal(t, StatusInfeasible, r.Status)
}

func TestLinearEquality(t *testing.T) {
	m := NewModel()
	vars := m.NewBoolVarArray("x", 5)
	expr := NewLinearExpr()
	for _, v := range vars {
		expr.AddTerm(v, 1)
	}
	m.AddLinearConstraint(expr, EQ, 3)

	r := solve(t, m, Params{})
	require.Equal(t, StatusOptimal, r.Status)
	count := 0
	for _, v := range vars {
		if r.Values[v] {
			count++
		}
	}
	assert.Equal(t, 3, count)
}

func TestLinearInfeasible(t *testing.T) {
	m := NewModel()
	vars := m.NewBoolVarArray("x", 2)
	expr := NewLinearExpr()
	for _, v := range vars {
		expr.AddTerm(v, 1)
	}
	m.AddLinearConstraint(expr, GE, 3)

	r := solve(t, m, Params{})
	assert.Equal(t, StatusInfeasible, r.Status)
}

func TestAndAuxLinearization(t *testing.T) {
	m := NewModel()
	a := m.NewBoolVar("a")
	b := m.NewBoolVar("b")
	aux := m.AndAux("aux", T(a), T(b))

	m.AddBoolAnd(T(a), T(b))
	r := solve(t, m, Params{})
	require.Equal(t, StatusOptimal, r.Status)
	assert.True(t, r.Values[aux], "aux must follow a AND b")

	m2 := NewModel()
	a2 := m2.NewBoolVar("a")
	b2 := m2.NewBoolVar("b")
	aux2 := m2.AndAux("aux", T(a2), T(b2))
	m2.AddBoolAnd(T(a2), F(b2))
	r2 := solve(t, m2, Params{})
	require.Equal(t, StatusOptimal, r2.Status)
	assert.False(t, r2.Values[aux2])
}

func TestOrAuxEmptyIsFalse(t *testing.T) {
	m := NewModel()
	aux := m.OrAux("aux")
	r := solve(t, m, Params{})
	require.Equal(t, StatusOptimal, r.Status)
	assert.False(t, r.Values[aux])
}

func TestMinimizeObjective(t *testing.T) {
	m := NewModel()
	vars := m.NewBoolVarArray("x", 4)
	cover := NewLinearExpr()
	for _, v := range vars {
		cover.AddTerm(v, 1)
	}
	m.AddLinearConstraint(cover, GE, 2)

	// Costs 1,2,3,4: the optimum picks the two cheapest.
	obj := NewLinearExpr()
	for i, v := range vars {
		obj.AddTerm(v, int64(i+1))
	}
	m.SetObjective(obj, true)

	r := solve(t, m, Params{})
	require.Equal(t, StatusOptimal, r.Status)
	assert.Equal(t, 3.0, r.Objective)
	assert.True(t, r.Values[vars[0]])
	assert.True(t, r.Values[vars[1]])
}

func TestHintsSteerSearch(t *testing.T) {
	m := NewModel()
	vars := m.NewBoolVarArray("x", 3)
	m.AddExactlyOne(T(vars[0]), T(vars[1]), T(vars[2]))

	r := solve(t, m, Params{Hints: []Hint{{Var: vars[2], Value: true}}})
	require.Equal(t, StatusOptimal, r.Status)
	// Hints are suggestions, never constraints; the solution must still be
	// valid either way.
	count := 0
	for _, v := range vars {
		if r.Values[v] {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestProgressCallbackFires(t *testing.T) {
	m := NewModel()
	vars := m.NewBoolVarArray("x", 3)
	cover := NewLinearExpr()
	for _, v := range vars {
		cover.AddTerm(v, 1)
	}
	m.AddLinearConstraint(cover, GE, 1)
	obj := NewLinearExpr()
	for _, v := range vars {
		obj.AddTerm(v, 1)
	}
	m.SetObjective(obj, true)

	fired := 0
	r := solve(t, m, Params{OnProgress: func(float64, time.Duration) { fired++ }})
	require.Equal(t, StatusOptimal, r.Status)
	assert.Greater(t, fired, 0)
}
