package cpsat

// Constraint is implemented by every posted constraint kind. Propagate is
// given the current partial assignment (values[v] == -1 means unassigned)
// and may tighten it in place; it reports ok=false on a detected conflict.
type Constraint interface {
	Propagate(values []int8) (ok bool, changed bool)
	Satisfied(assign []bool) bool
}

const (
	unknown int8 = -1
	isFalse int8 = 0
	isTrue  int8 = 1
)

func litValue(l Lit, values []int8) int8 {
	v := values[l.Var]
	if v == unknown {
		return unknown
	}
	if l.Neg {
		if v == isTrue {
			return isFalse
		}
		return isTrue
	}
	return v
}

func setLit(l Lit, want int8, values []int8) (ok, changed bool) {
	target := want
	if l.Neg {
		if want == isTrue {
			target = isFalse
		} else if want == isFalse {
			target = isTrue
		}
	}
	cur := values[l.Var]
	if cur == unknown {
		values[l.Var] = target
		return true, true
	}
	return cur == target, false
}

// clauseConstraint requires at least one literal to be true (AddBoolOr).
type clauseConstraint struct {
	lits []Lit
}

func (c *clauseConstraint) Propagate(values []int8) (bool, bool) {
	unassigned := 0
	lastUnassigned := -1
	for i, l := range c.lits {
		v := litValue(l, values)
		if v == isTrue {
			return true, false
		}
		if v == unknown {
			unassigned++
			lastUnassigned = i
		}
	}
	if unassigned == 0 {
		return false, false // all false, none true: conflict
	}
	if unassigned == 1 {
		_, changed := setLit(c.lits[lastUnassigned], isTrue, values)
		return true, changed
	}
	return true, false
}

func (c *clauseConstraint) Satisfied(assign []bool) bool {
	for _, l := range c.lits {
		if assign[l.Var] != l.Neg {
			return true
		}
	}
	return false
}

// atMostOneConstraint requires that at most one of lits is true.
type atMostOneConstraint struct {
	lits []Lit
}

func (c *atMostOneConstraint) Propagate(values []int8) (bool, bool) {
	trueCount := 0
	trueIdx := -1
	for i, l := range c.lits {
		if litValue(l, values) == isTrue {
			trueCount++
			trueIdx = i
		}
	}
	if trueCount > 1 {
		return false, false
	}
	changed := false
	if trueCount == 1 {
		for i, l := range c.lits {
			if i == trueIdx {
				continue
			}
			if litValue(l, values) == unknown {
				_, ch := setLit(l, isFalse, values)
				changed = changed || ch
			}
		}
	}
	return true, changed
}

func (c *atMostOneConstraint) Satisfied(assign []bool) bool {
	count := 0
	for _, l := range c.lits {
		if assign[l.Var] != l.Neg {
			count++
		}
	}
	return count <= 1
}

// linearConstraint is the generic sum(coeff*lit) <op> rhs form, used for
// curriculum totals, deputat bounds, max-hours-per-day, gap budgets.
// Exactly-one is posted as a clause plus an at-most-one, not as EQ 1.
type linearConstraint struct {
	lc LinearConstraint
}

func (c *linearConstraint) Propagate(values []int8) (bool, bool) {
	var minSum, maxSum, constant int64
	constant = c.lc.Expr.constant
	minSum, maxSum = constant, constant
	type pending struct {
		lit   Lit
		coeff int64
	}
	var free []pending

	for _, t := range c.lc.Expr.terms {
		v := litValue(t.lit, values)
		switch v {
		case isTrue:
			minSum += t.coeff
			maxSum += t.coeff
		case isFalse:
			// contributes 0
		default:
			if t.coeff > 0 {
				maxSum += t.coeff
			} else {
				minSum += t.coeff
			}
			free = append(free, pending{t.lit, t.coeff})
		}
	}

	switch c.lc.Op {
	case LE:
		if minSum > c.lc.RHS {
			return false, false
		}
	case GE:
		if maxSum < c.lc.RHS {
			return false, false
		}
	case EQ:
		if minSum > c.lc.RHS || maxSum < c.lc.RHS {
			return false, false
		}
	}

	changed := false

	// When min_sum has no slack left below rhs (LE/EQ), every remaining free
	// literal is forced to the value that keeps the sum from rising; when
	// max_sum has no slack left above rhs (GE/EQ), to the value that keeps
	// it from falling.
	switch c.lc.Op {
	case EQ, LE:
		if minSum == c.lc.RHS {
			for _, p := range free {
				if p.coeff > 0 {
					_, ch := setLit(p.lit, isFalse, values)
					changed = changed || ch
				} else {
					_, ch := setLit(p.lit, isTrue, values)
					changed = changed || ch
				}
			}
		}
	}
	switch c.lc.Op {
	case EQ, GE:
		if maxSum == c.lc.RHS {
			for _, p := range free {
				if p.coeff > 0 {
					_, ch := setLit(p.lit, isTrue, values)
					changed = changed || ch
				} else {
					_, ch := setLit(p.lit, isFalse, values)
					changed = changed || ch
				}
			}
		}
	}

	return true, changed
}

func (c *linearConstraint) Satisfied(assign []bool) bool {
	return c.lc.Satisfied(assign)
}

// AddImplication posts a -> b as the clause (not a) or b.
func (m *Model) AddImplication(a, b Lit) {
	m.constraints = append(m.constraints, &clauseConstraint{lits: []Lit{negate(a), b}})
}

func negate(l Lit) Lit {
	return Lit{Var: l.Var, Neg: !l.Neg}
}

// AddBoolOr posts "at least one of lits is true".
func (m *Model) AddBoolOr(lits ...Lit) {
	m.constraints = append(m.constraints, &clauseConstraint{lits: lits})
}

// AddBoolAnd posts "every lit is true" as one unit clause per literal.
func (m *Model) AddBoolAnd(lits ...Lit) {
	for _, l := range lits {
		m.constraints = append(m.constraints, &clauseConstraint{lits: []Lit{l}})
	}
}

// AddAtMostOne posts "at most one of lits is true".
func (m *Model) AddAtMostOne(lits ...Lit) {
	m.constraints = append(m.constraints, &atMostOneConstraint{lits: lits})
}

// AddExactlyOne posts "exactly one of lits is true".
func (m *Model) AddExactlyOne(lits ...Lit) {
	m.AddBoolOr(lits...)
	m.AddAtMostOne(lits...)
}

// AddLinearConstraint posts a generic linear constraint over the model.
func (m *Model) AddLinearConstraint(expr LinearExpr, op CmpOp, rhs int64) {
	m.constraints = append(m.constraints, &linearConstraint{lc: LinearConstraint{Expr: expr, Op: op, RHS: rhs}})
}
