package dto

import (
	"github.com/sekundarstufe/stundenplan-core/internal/domain"
	"github.com/sekundarstufe/stundenplan-core/internal/store"
)

// SaveScenarioRequest snapshots school data (and optionally its last
// solution) under a name.
type SaveScenarioRequest struct {
	Name     string             `json:"name" validate:"required"`
	Data     *domain.SchoolData `json:"data" validate:"required"`
	Solution *domain.Solution   `json:"solution,omitempty"`
}

// ScenarioResponse returns one stored scenario version.
type ScenarioResponse struct {
	Scenario *store.Scenario `json:"scenario"`
}

// ScenarioListResponse lists stored scenario names.
type ScenarioListResponse struct {
	Scenarios []store.ScenarioSummary `json:"scenarios"`
}
