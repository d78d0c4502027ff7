package household

import (
	"context"
	"log/slog"

	householdDatamodel "github.com/quanlynhankhau/registry-api/internal/core/datamodel/household"
)

type RepositoryAPI interface {
	GetByID(ctx context.Context, id int64) (*householdDatamodel.Household, error)
	List(ctx context.Context) ([]*householdDatamodel.Household, error)
}

// Service exposes household lookups to payment creation and notifications.
type Service struct {
	repo   RepositoryAPI
	logger *slog.Logger
}

func NewService(repo RepositoryAPI, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger,
	}
}

func (s *Service) GetByID(ctx context.Context, id int64) (*householdDatamodel.Household, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context) ([]*householdDatamodel.Household, error) {
	return s.repo.List(ctx)
}
