package domain

// DayPeriod is a canonical (day, period) pair, 0-based day and 1-based period.
type DayPeriod struct {
	Day    int `json:"day"`
	Period int `json:"period"`
}

// Teacher carries qualifications, deputat bounds and availability.
type Teacher struct {
	ID                string      `json:"id" yaml:"id" validate:"required"`
	Name              string      `json:"name" yaml:"name" validate:"required"`
	Subjects          []string    `json:"subjects" yaml:"subjects" validate:"required,min=1"`
	DeputatMax        int         `json:"deputat_max" yaml:"deputat_max" validate:"required,gt=0"`
	DeputatMin        int         `json:"deputat_min" yaml:"deputat_min" validate:"required,gt=0"`
	IsPartTime        bool        `json:"is_parttime" yaml:"is_parttime"`
	Unavailable       []DayPeriod `json:"unavailable,omitempty" yaml:"unavailable,omitempty"`
	PreferredFreeDays []int       `json:"preferred_free_days,omitempty" yaml:"preferred_free_days,omitempty"`
	MaxHoursPerDay    int         `json:"max_hours_per_day" yaml:"max_hours_per_day" validate:"required,gt=0"`
	MaxGapsPerDay     int         `json:"max_gaps_per_day,omitempty" yaml:"max_gaps_per_day,omitempty"`
	MaxGapsPerWeek    int         `json:"max_gaps_per_week,omitempty" yaml:"max_gaps_per_week,omitempty"`

	subjectSet map[string]bool
	unavailSet map[DayPeriod]bool
}

// Init builds the teacher's fast lookup sets. Called once by SchoolData.Finalize.
func (t *Teacher) Init() {
	t.subjectSet = make(map[string]bool, len(t.Subjects))
	for _, s := range t.Subjects {
		t.subjectSet[s] = true
	}
	t.unavailSet = make(map[DayPeriod]bool, len(t.Unavailable))
	for _, dp := range t.Unavailable {
		t.unavailSet[dp] = true
	}
}

// Qualified reports whether the teacher may teach the given subject.
func (t *Teacher) Qualified(subject string) bool {
	return t.subjectSet[subject]
}

// IsUnavailable reports whether the teacher cannot teach at (day, period).
func (t *Teacher) IsUnavailable(day, period int) bool {
	return t.unavailSet[DayPeriod{Day: day, Period: period}]
}

// Validate checks the structural invariants from spec §3 that validator
// struct tags cannot express (cross-field comparisons, derived totals).
func (t *Teacher) Validate(totalWeeklyPeriods int) error {
	if t.DeputatMin > t.DeputatMax {
		return newInputViolation("teacher %s: deputat_min (%d) > deputat_max (%d)", t.ID, t.DeputatMin, t.DeputatMax)
	}
	if len(t.Unavailable)+t.DeputatMin > totalWeeklyPeriods {
		return newInputViolation("teacher %s: unavailable slots (%d) + deputat_min (%d) exceed weekly periods (%d)",
			t.ID, len(t.Unavailable), t.DeputatMin, totalWeeklyPeriods)
	}
	return nil
}
