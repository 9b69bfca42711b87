package domain

import (
	"encoding/json"
	"time"
)

// SchoolData is the full immutable input graph for one solve: subjects,
// teachers, classes, rooms, coupling groups, the time grid and any pins.
// Timestamps are populated at save time by Touch; CreatedAt is preserved
// across re-save.
type SchoolData struct {
	Name          string          `json:"name" yaml:"name" validate:"required"`
	Grid          *TimeGrid       `json:"grid" yaml:"grid" validate:"required"`
	Subjects      []Subject       `json:"subjects" yaml:"subjects" validate:"required,min=1"`
	Teachers      []Teacher       `json:"teachers" yaml:"teachers" validate:"required,min=1"`
	Classes       []SchoolClass   `json:"classes" yaml:"classes" validate:"required,min=1"`
	Rooms         []Room          `json:"rooms" yaml:"rooms" validate:"required,min=1"`
	Couplings     []CouplingGroup `json:"couplings,omitempty" yaml:"couplings,omitempty"`
	Pins          []PinnedLesson  `json:"pins,omitempty" yaml:"pins,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	ModifiedAt    time.Time       `json:"modified_at"`

	teacherByID map[string]*Teacher
	classByID   map[string]*SchoolClass
	roomByID    map[string]*Room
	subjByName  map[string]*Subject
}

// Finalize builds the lookup indices used by downstream packages (slotindex,
// feasibility, solver). Must be called once after loading or deserializing.
func (d *SchoolData) Finalize() error {
	if d.Grid != nil {
		if err := d.Grid.Rebuild(); err != nil {
			return err
		}
	}
	d.teacherByID = make(map[string]*Teacher, len(d.Teachers))
	for i := range d.Teachers {
		d.Teachers[i].Init()
		d.teacherByID[d.Teachers[i].ID] = &d.Teachers[i]
	}
	d.classByID = make(map[string]*SchoolClass, len(d.Classes))
	for i := range d.Classes {
		d.classByID[d.Classes[i].ID] = &d.Classes[i]
	}
	d.roomByID = make(map[string]*Room, len(d.Rooms))
	for i := range d.Rooms {
		d.roomByID[d.Rooms[i].ID] = &d.Rooms[i]
	}
	d.subjByName = make(map[string]*Subject, len(d.Subjects))
	for i := range d.Subjects {
		d.subjByName[d.Subjects[i].Name] = &d.Subjects[i]
	}
	return nil
}

// Teacher looks up a teacher by ID, or nil if absent.
func (d *SchoolData) Teacher(id string) *Teacher { return d.teacherByID[id] }

// Class looks up a class by ID, or nil if absent.
func (d *SchoolData) Class(id string) *SchoolClass { return d.classByID[id] }

// Room looks up a room by ID, or nil if absent.
func (d *SchoolData) Room(id string) *Room { return d.roomByID[id] }

// Subject looks up a subject by name, or nil if absent.
func (d *SchoolData) Subject(name string) *Subject { return d.subjByName[name] }

// Touch stamps ModifiedAt with now and, on first save, CreatedAt too.
func (d *SchoolData) Touch(now time.Time) {
	if d.CreatedAt.IsZero() {
		d.CreatedAt = now
	}
	d.ModifiedAt = now
}

// Validate runs the cross-entity structural checks that struct tags can't
// express: dangling references between teachers/classes/rooms/subjects and
// the per-entity Validate methods.
func (d *SchoolData) Validate() error {
	total := d.Grid.TotalWeeklyPeriods()
	for i := range d.Teachers {
		if err := d.Teachers[i].Validate(total); err != nil {
			return err
		}
	}
	for i := range d.Classes {
		if err := d.Classes[i].Validate(); err != nil {
			return err
		}
		if d.Classes[i].MaxPeriod > d.Grid.PeriodsPerDay {
			return newInputViolation("class %s: max_period (%d) exceeds the grid's periods_per_day (%d)",
				d.Classes[i].ID, d.Classes[i].MaxPeriod, d.Grid.PeriodsPerDay)
		}
		for subject := range d.Classes[i].Curriculum {
			if d.Subject(subject) == nil {
				return newInputViolation("class %s: curriculum references unknown subject %q", d.Classes[i].ID, subject)
			}
		}
	}
	for i := range d.Couplings {
		if err := d.Couplings[i].Validate(); err != nil {
			return err
		}
		for _, m := range d.Couplings[i].Members {
			if d.Class(m.ClassID) == nil {
				return newInputViolation("coupling group %s: unknown class %q", d.Couplings[i].ID, m.ClassID)
			}
		}
	}
	for _, p := range d.Pins {
		if d.Class(p.ClassID) == nil {
			return newInputViolation("pin %s: unknown class %q", p.ID, p.ClassID)
		}
		if p.TeacherID != "" && d.Teacher(p.TeacherID) == nil {
			return newInputViolation("pin %s: unknown teacher %q", p.ID, p.TeacherID)
		}
		if p.RoomID != "" && d.Room(p.RoomID) == nil {
			return newInputViolation("pin %s: unknown room %q", p.ID, p.RoomID)
		}
	}
	return nil
}

// Clone returns a deep copy, safe to mutate independently (used by the
// relaxer and by scenario save/load, which must not share backing arrays
// with the original in-memory data).
func (d *SchoolData) Clone() (*SchoolData, error) {
	raw, err := json.Marshal(d)
	if err != nil {
		return nil, err
	}
	var out SchoolData
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	if err := out.Finalize(); err != nil {
		return nil, err
	}
	return &out, nil
}
