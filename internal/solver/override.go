// Package solver builds and drives the constraint model for one weekly
// timetable solve: variable construction (C4), hard-constraint posting
// (C5), the shared gap-variable builder (§4.4), the soft objective and
// warm-start/optimize driver (C6), solution extraction (C7) and the
// diagnostic relaxer (C8).
package solver

// ModelOverride flags a scoped relaxation of the model, threaded explicitly
// through the variable builder and constraint poster instead of mutating
// global state (spec §9's "global mutable state" redesign note). The zero
// value builds the unmodified model.
type ModelOverride struct {
	// ForceNoDoubleRequired treats every subject's DoubleRequired flag as
	// false for the purposes of H9/H9b (constraint relaxer step 1).
	ForceNoDoubleRequired bool
	// UnlimitedRooms skips H8 entirely, as if every room type had
	// effectively infinite capacity (constraint relaxer step 2).
	UnlimitedRooms bool
	// DropCouplings removes all coupling variables and constraints,
	// restoring coupling-covered subjects to ordinary assign/slot
	// variables (constraint relaxer step 3).
	DropCouplings bool
	// DeputatMaxBuffer widens every teacher's deputat_max by this many
	// hours for H7's upper bound only; deputat_min is never widened (see
	// DESIGN.md's Open Question decision). Constraint relaxer step 4.
	DeputatMaxBuffer int
}
