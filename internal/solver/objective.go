package solver

import (
	"fmt"

	"github.com/sekundarstufe/stundenplan-core/internal/cpsat"
	"github.com/sekundarstufe/stundenplan-core/internal/domain"
)

// Weights configures the relative cost of each soft-objective term (spec
// §4.5). Units are arbitrary; only ratios between weights matter.
type Weights struct {
	GapPenalty              int64
	DayWishPenalty          int64
	DoublePreferredBonus    int64
	SubjectSpreadPenalty    int64
	DeputatDeviationPenalty int64
}

// DefaultWeights mirrors the balance used across the worked examples in
// spec §8: gaps weigh most, then double preference and day wishes, then
// spread; the deputat pull is a gentle always-on nudge rather than a
// dominant term.
func DefaultWeights() Weights {
	return Weights{
		GapPenalty:              5,
		DayWishPenalty:          3,
		DoublePreferredBonus:    4,
		SubjectSpreadPenalty:    2,
		DeputatDeviationPenalty: 1,
	}
}

// BuildObjective composes the five weighted soft-objective terms into a
// single linear expression and sets it as the model's minimization target.
// gaps must come from the same PostHardConstraints call that posted this
// model's constraints (it is H14's and this term's only source of is_gap).
func BuildObjective(model *cpsat.Model, data *domain.SchoolData, vars *Variables, gaps *GapVariables, w Weights) cpsat.LinearExpr {
	objective := cpsat.NewLinearExpr()

	for ti := range data.Teachers {
		t := &data.Teachers[ti]

		gapSum := gaps.WeeklyGapSum(t.ID)
		objective.AddExpr(gapSum, w.GapPenalty)

		for _, day := range t.PreferredFreeDays {
			var lits []cpsat.Lit
			for _, s := range vars.Slots.Slots {
				if s.Day != day {
					continue
				}
				tsk := teacherSlotKey{Teacher: t.ID, Day: s.Day, Period: s.Period}
				for _, sv := range vars.ByTeacherSlot[tsk] {
					lits = append(lits, cpsat.T(sv))
				}
				for _, bv := range vars.CouplingBusy[tsk] {
					lits = append(lits, cpsat.T(bv))
				}
			}
			if len(lits) == 0 {
				continue
			}
			hasLesson := model.OrAux(fmt.Sprintf("daywish[%s,%d]", t.ID, day), lits...)
			objective.AddTerm(hasLesson, w.DayWishPenalty)
		}

		devExpr := cpsat.NewLinearExpr()
		devExpr.AddConstant(int64(t.DeputatMax))
		devExpr.AddExpr(teacherActualHoursExpr(data, vars, t.ID), -1)
		objective.AddExpr(devExpr, w.DeputatDeviationPenalty)
	}

	for sk, dv := range vars.Double {
		subj := data.Subject(sk.Subject)
		if subj == nil || !subj.DoublePreferred {
			continue
		}
		objective.AddTerm(dv, -w.DoublePreferredBonus)
	}

	for tcsd, slotVars := range vars.ByTeacherClassSubjectDay {
		subj := data.Subject(tcsd.Subject)
		if subj == nil || !subj.IsMain {
			continue
		}

		var lits []cpsat.Lit
		for _, sv := range slotVars {
			lits = append(lits, cpsat.T(sv))
		}
		taughtThatDay := model.OrAux(fmt.Sprintf("spread[%s,%s,%s,%d]", tcsd.Teacher, tcsd.Class, tcsd.Subject, tcsd.Day), lits...)
		objective.AddTerm(taughtThatDay, w.SubjectSpreadPenalty)
	}

	model.SetObjective(objective, true)
	return objective
}
