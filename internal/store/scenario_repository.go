// Package store persists named scenarios — versioned snapshots of a school
// data graph together with the last solution computed for it — and caches
// warm-start hints between re-solves.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/sekundarstufe/stundenplan-core/internal/domain"
)

// Scenario is one stored snapshot row. Data and Solution are the JSON
// encodings of the domain records; Solution may be empty for a scenario
// saved before any solve ran.
type Scenario struct {
	ID        string          `db:"id" json:"id"`
	Name      string          `db:"name" json:"name"`
	Version   int             `db:"version" json:"version"`
	Data      json.RawMessage `db:"data" json:"data"`
	Solution  json.RawMessage `db:"solution" json:"solution,omitempty"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
}

// SchoolData decodes the scenario's school data payload.
func (s *Scenario) SchoolData() (*domain.SchoolData, error) {
	var data domain.SchoolData
	if err := json.Unmarshal(s.Data, &data); err != nil {
		return nil, fmt.Errorf("decode scenario data: %w", err)
	}
	if err := data.Finalize(); err != nil {
		return nil, err
	}
	return &data, nil
}

// LastSolution decodes the scenario's solution payload, or nil when none
// was stored.
func (s *Scenario) LastSolution() (*domain.Solution, error) {
	if len(s.Solution) == 0 {
		return nil, nil
	}
	var sol domain.Solution
	if err := json.Unmarshal(s.Solution, &sol); err != nil {
		return nil, fmt.Errorf("decode scenario solution: %w", err)
	}
	return &sol, nil
}

// ErrScenarioNotFound reports a lookup for a name with no stored versions.
var ErrScenarioNotFound = errors.New("scenario not found")

// ScenarioRepository persists versioned scenarios.
type ScenarioRepository struct {
	db *sqlx.DB
}

// NewScenarioRepository constructs the repository.
func NewScenarioRepository(db *sqlx.DB) *ScenarioRepository {
	return &ScenarioRepository{db: db}
}

// SaveVersioned inserts a snapshot under the given name, assigning the next
// version number for that name.
func (r *ScenarioRepository) SaveVersioned(ctx context.Context, name string, data *domain.SchoolData, sol *domain.Solution) (*Scenario, error) {
	if name == "" {
		return nil, fmt.Errorf("scenario name is required")
	}
	rawData, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("encode scenario data: %w", err)
	}
	var rawSol json.RawMessage
	if sol != nil {
		rawSol, err = json.Marshal(sol)
		if err != nil {
			return nil, fmt.Errorf("encode scenario solution: %w", err)
		}
	}

	scenario := &Scenario{
		ID:        uuid.NewString(),
		Name:      name,
		Data:      rawData,
		Solution:  rawSol,
		CreatedAt: time.Now().UTC(),
	}

	const nextVersionQuery = `SELECT COALESCE(MAX(version), 0) + 1 FROM scenarios WHERE name = $1`
	if err := sqlx.GetContext(ctx, r.db, &scenario.Version, nextVersionQuery, name); err != nil {
		return nil, fmt.Errorf("compute next scenario version: %w", err)
	}

	const insertQuery = `
INSERT INTO scenarios (id, name, version, data, solution, created_at)
VALUES (:id, :name, :version, :data, :solution, :created_at)`
	if _, err := sqlx.NamedExecContext(ctx, r.db, insertQuery, scenario); err != nil {
		return nil, fmt.Errorf("insert scenario: %w", err)
	}
	return scenario, nil
}

// Latest loads the newest version stored under a name.
func (r *ScenarioRepository) Latest(ctx context.Context, name string) (*Scenario, error) {
	const query = `SELECT id, name, version, data, solution, created_at
FROM scenarios WHERE name = $1 ORDER BY version DESC LIMIT 1`
	var scenario Scenario
	if err := r.db.GetContext(ctx, &scenario, query, name); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrScenarioNotFound
		}
		return nil, fmt.Errorf("load scenario: %w", err)
	}
	return &scenario, nil
}

// ListNames returns the distinct scenario names with their newest version.
func (r *ScenarioRepository) ListNames(ctx context.Context) ([]ScenarioSummary, error) {
	const query = `SELECT name, MAX(version) AS version, MAX(created_at) AS created_at
FROM scenarios GROUP BY name ORDER BY name`
	var out []ScenarioSummary
	if err := r.db.SelectContext(ctx, &out, query); err != nil {
		return nil, fmt.Errorf("list scenarios: %w", err)
	}
	return out, nil
}

// Delete removes every version stored under a name.
func (r *ScenarioRepository) Delete(ctx context.Context, name string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM scenarios WHERE name = $1`, name)
	if err != nil {
		return fmt.Errorf("delete scenario: %w", err)
	}
	affected, err := res.RowsAffected()
	if err == nil && affected == 0 {
		return ErrScenarioNotFound
	}
	return nil
}

// ScenarioSummary is one row of the scenario listing.
type ScenarioSummary struct {
	Name      string    `db:"name" json:"name"`
	Version   int       `db:"version" json:"version"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
