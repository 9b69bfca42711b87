package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// SchoolConfig is the YAML-level school setup a configuration wizard (or a
// hand-edited file) produces: the weekly grid shape and the grade span the
// timetable covers. It is validated here, before any domain object is built
// from it.
type SchoolConfig struct {
	SchoolName    string `yaml:"school_name"`
	Days          int    `yaml:"days"`
	PeriodsPerDay int    `yaml:"periods_per_day"`
	PauseAfter    []int  `yaml:"pause_after,omitempty"`
	MinGrade      int    `yaml:"min_grade"`
	MaxGrade      int    `yaml:"max_grade"`
	MinHoursPerDay int   `yaml:"min_hours_per_day,omitempty"`
}

// LoadSchoolConfig reads and validates a school configuration YAML file.
func LoadSchoolConfig(path string) (*SchoolConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read school config: %w", err)
	}
	var cfg SchoolConfig
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("parse school config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate enforces the structural rules a wizard would: a 5- or 6-day
// week, Sek I grade span, contiguous 1-based period numbering and pauses
// anchored strictly inside the day.
func (c *SchoolConfig) Validate() error {
	if c.SchoolName == "" {
		return fmt.Errorf("school config: school_name is required")
	}
	if c.Days != 5 && c.Days != 6 {
		return fmt.Errorf("school config: days must be 5 or 6, got %d", c.Days)
	}
	if c.PeriodsPerDay < 1 || c.PeriodsPerDay > 12 {
		return fmt.Errorf("school config: periods_per_day must be between 1 and 12, got %d", c.PeriodsPerDay)
	}
	if c.MinGrade < 5 || c.MaxGrade > 10 || c.MinGrade > c.MaxGrade {
		return fmt.Errorf("school config: grade span %d-%d outside Sek I (5-10)", c.MinGrade, c.MaxGrade)
	}
	prev := 0
	for _, p := range c.PauseAfter {
		if p < 1 || p >= c.PeriodsPerDay {
			return fmt.Errorf("school config: pause_after %d outside 1..%d", p, c.PeriodsPerDay-1)
		}
		if p <= prev {
			return fmt.Errorf("school config: pause_after values must be strictly increasing")
		}
		prev = p
	}
	if c.MinHoursPerDay < 0 || c.MinHoursPerDay > c.PeriodsPerDay {
		return fmt.Errorf("school config: min_hours_per_day %d exceeds periods_per_day %d", c.MinHoursPerDay, c.PeriodsPerDay)
	}
	return nil
}
