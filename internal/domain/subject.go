// Package domain holds the immutable input model for a weekly timetable
// solve: subjects, teachers, classes, rooms, couplings, the time grid, pins
// and the solution that eventually comes out of the solver.
package domain

// SubjectCategory buckets subjects for spread-penalty and defaulting rules.
type SubjectCategory string

const (
	CategoryHauptfach    SubjectCategory = "hauptfach"
	CategorySprache      SubjectCategory = "sprache"
	CategoryNW           SubjectCategory = "nw"
	CategoryMusisch      SubjectCategory = "musisch"
	CategorySport        SubjectCategory = "sport"
	CategoryGesellschaft SubjectCategory = "gesellschaft"
	CategoryWPF          SubjectCategory = "wpf"
	CategorySonstig      SubjectCategory = "sonstig"
)

// Subject is immutable once loaded into a SchoolData.
type Subject struct {
	Name             string          `json:"name" yaml:"name" validate:"required"`
	Short            string          `json:"short" yaml:"short" validate:"required"`
	Category         SubjectCategory `json:"category" yaml:"category" validate:"required"`
	IsMain           bool            `json:"is_main" yaml:"is_main"`
	RequiredRoomType string          `json:"required_room_type,omitempty" yaml:"required_room_type,omitempty"`
	DoubleRequired   bool            `json:"double_required" yaml:"double_required"`
	DoublePreferred  bool            `json:"double_preferred" yaml:"double_preferred"`
}

// NeedsRoom reports whether this subject requires a specialty room type.
func (s Subject) NeedsRoom() bool {
	return s.RequiredRoomType != ""
}
