package domain

import "fmt"

// Violation is a structural input error discovered while finalizing or
// validating a SchoolData graph, e.g. a dangling teacher/room reference.
type Violation struct {
	msg string
}

func (v *Violation) Error() string { return v.msg }

func newInputViolation(format string, args ...any) error {
	return &Violation{msg: fmt.Sprintf(format, args...)}
}
