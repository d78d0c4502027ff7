package postgres

import (
	"context"

	"gorm.io/gorm"

	ledgerDatamodel "github.com/quanlynhankhau/registry-api/internal/core/datamodel/ledger"
	ledgerpkg "github.com/quanlynhankhau/registry-api/internal/ledger"
)

type LedgerRepository struct {
	db *gorm.DB
}

func NewLedgerRepository(db *gorm.DB) ledgerpkg.RepositoryAPI {
	return &LedgerRepository{
		db: db,
	}
}

func (r *LedgerRepository) Create(ctx context.Context, collection *ledgerDatamodel.FeeCollection) error {
	return r.db.WithContext(ctx).Create(collection).Error
}

func (r *LedgerRepository) ListByFeeObligation(ctx context.Context, feeObligationID int64) ([]*ledgerDatamodel.FeeCollection, error) {
	var collections []*ledgerDatamodel.FeeCollection
	err := r.db.WithContext(ctx).
		Where("fee_obligation_id = ?", feeObligationID).
		Order("collected_on DESC").
		Find(&collections).Error
	return collections, err
}

func (r *LedgerRepository) ListByHousehold(ctx context.Context, householdID int64) ([]*ledgerDatamodel.FeeCollection, error) {
	var collections []*ledgerDatamodel.FeeCollection
	err := r.db.WithContext(ctx).
		Where("household_id = ?", householdID).
		Order("collected_on DESC").
		Find(&collections).Error
	return collections, err
}
