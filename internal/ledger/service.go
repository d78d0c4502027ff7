package ledger

import (
	"context"
	"log/slog"
	"time"

	ledgerDatamodel "github.com/quanlynhankhau/registry-api/internal/core/datamodel/ledger"
)

// SystemCollector marks ledger rows written by webhook reconciliation rather
// than by a staff member at the door.
const SystemCollector = "webhook"

type RepositoryAPI interface {
	Create(ctx context.Context, collection *ledgerDatamodel.FeeCollection) error
	ListByFeeObligation(ctx context.Context, feeObligationID int64) ([]*ledgerDatamodel.FeeCollection, error)
	ListByHousehold(ctx context.Context, householdID int64) ([]*ledgerDatamodel.FeeCollection, error)
}

// Service records confirmed collections into the fee ledger.
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

func (s *Service) RecordCollection(ctx context.Context, feeObligationID, householdID, amount int64, collectedOn time.Time, collectedBy string) error {
	collection := &ledgerDatamodel.FeeCollection{
		FeeObligationID: feeObligationID,
		HouseholdID:     householdID,
		Amount:          amount,
		CollectedOn:     collectedOn,
		CollectedBy:     collectedBy,
	}
	if err := s.repo.Create(ctx, collection); err != nil {
		return err
	}

	s.logger.Info("fee collection recorded",
		"fee_obligation_id", feeObligationID,
		"household_id", householdID,
		"amount", amount)
	return nil
}

func (s *Service) ListByFeeObligation(ctx context.Context, feeObligationID int64) ([]*ledgerDatamodel.FeeCollection, error) {
	return s.repo.ListByFeeObligation(ctx, feeObligationID)
}

func (s *Service) ListByHousehold(ctx context.Context, householdID int64) ([]*ledgerDatamodel.FeeCollection, error) {
	return s.repo.ListByHousehold(ctx, householdID)
}
