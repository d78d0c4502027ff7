package fee

import (
	"context"
	"log/slog"

	feeDatamodel "github.com/quanlynhankhau/registry-api/internal/core/datamodel/fee"
)

type RepositoryAPI interface {
	GetByID(ctx context.Context, id int64) (*feeDatamodel.FeeObligation, error)
	List(ctx context.Context) ([]*feeDatamodel.FeeObligation, error)
}

// Service exposes fee obligation lookups to payment creation and to the
// listing endpoint.
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

func (s *Service) GetByID(ctx context.Context, id int64) (*feeDatamodel.FeeObligation, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context) ([]*feeDatamodel.FeeObligation, error) {
	return s.repo.List(ctx)
}
