package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/sekundarstufe/stundenplan-core/internal/dto"
	"github.com/sekundarstufe/stundenplan-core/internal/store"
	appErrors "github.com/sekundarstufe/stundenplan-core/pkg/errors"
)

// ScenarioService manages named, versioned snapshots of school data.
type ScenarioService struct {
	repo   *store.ScenarioRepository
	logger *zap.Logger
}

// NewScenarioService constructs the service.
func NewScenarioService(repo *store.ScenarioRepository, logger *zap.Logger) *ScenarioService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScenarioService{repo: repo, logger: logger}
}

// Save stores a new version of a scenario.
func (s *ScenarioService) Save(ctx context.Context, req dto.SaveScenarioRequest) (*store.Scenario, error) {
	if req.Name == "" || req.Data == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "scenario name and data are required")
	}
	if err := req.Data.Validate(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInputInvalid.Code, appErrors.ErrInputInvalid.Status, "scenario data is invalid")
	}
	scenario, err := s.repo.SaveVersioned(ctx, req.Name, req.Data, req.Solution)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save scenario")
	}
	s.logger.Info("scenario_saved", zap.String("name", scenario.Name), zap.Int("version", scenario.Version))
	return scenario, nil
}

// Load returns the latest version stored under a name.
func (s *ScenarioService) Load(ctx context.Context, name string) (*store.Scenario, error) {
	scenario, err := s.repo.Latest(ctx, name)
	if err != nil {
		if errors.Is(err, store.ErrScenarioNotFound) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load scenario")
	}
	return scenario, nil
}

// List returns every stored scenario name with its newest version.
func (s *ScenarioService) List(ctx context.Context) ([]store.ScenarioSummary, error) {
	list, err := s.repo.ListNames(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list scenarios")
	}
	return list, nil
}

// Delete removes every version of a scenario.
func (s *ScenarioService) Delete(ctx context.Context, name string) error {
	if err := s.repo.Delete(ctx, name); err != nil {
		if errors.Is(err, store.ErrScenarioNotFound) {
			return appErrors.ErrNotFound
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete scenario")
	}
	return nil
}
