// Package ingest loads and persists school data and solutions: JSON and
// YAML documents for the full input graph, plus a CSV roster format for
// teacher bulk import.
package ingest

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sekundarstufe/stundenplan-core/internal/domain"
)

// LoadSchoolData reads a school data file (.json, .yaml or .yml), finalizes
// its lookup indices and validates its structural invariants.
func LoadSchoolData(path string) (*domain.SchoolData, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read school data: %w", err)
	}

	var data domain.SchoolData
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(raw, &data); err != nil {
			return nil, fmt.Errorf("parse school data yaml: %w", err)
		}
	default:
		if err := json.Unmarshal(raw, &data); err != nil {
			return nil, fmt.Errorf("parse school data json: %w", err)
		}
	}

	if err := data.Finalize(); err != nil {
		return nil, err
	}
	if err := data.Validate(); err != nil {
		return nil, err
	}
	return &data, nil
}

// SaveSchoolData writes the data as indented JSON, stamping ModifiedAt and
// preserving CreatedAt across re-saves.
func SaveSchoolData(path string, data *domain.SchoolData) error {
	data.Touch(time.Now().UTC())
	raw, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("encode school data: %w", err)
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("write school data: %w", err)
	}
	return nil
}

// LoadSolution reads a previously saved solution JSON file.
func LoadSolution(path string) (*domain.Solution, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read solution: %w", err)
	}
	var sol domain.Solution
	if err := json.Unmarshal(raw, &sol); err != nil {
		return nil, fmt.Errorf("parse solution: %w", err)
	}
	if sol.Snapshot != nil {
		if err := sol.Snapshot.Finalize(); err != nil {
			return nil, err
		}
	}
	return &sol, nil
}

// SaveSolution writes a solution as indented JSON.
func SaveSolution(path string, sol *domain.Solution) error {
	raw, err := json.MarshalIndent(sol, "", "  ")
	if err != nil {
		return fmt.Errorf("encode solution: %w", err)
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("write solution: %w", err)
	}
	return nil
}
