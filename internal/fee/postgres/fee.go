package postgres

import (
	"context"
	"errors"

	"gorm.io/gorm"

	appinternal "github.com/quanlynhankhau/registry-api/internal"
	feeDatamodel "github.com/quanlynhankhau/registry-api/internal/core/datamodel/fee"
	feepkg "github.com/quanlynhankhau/registry-api/internal/fee"
)

type FeeRepository struct {
	db *gorm.DB
}

func NewFeeRepository(db *gorm.DB) feepkg.RepositoryAPI {
	return &FeeRepository{
		db: db,
	}
}

func (r *FeeRepository) GetByID(ctx context.Context, id int64) (*feeDatamodel.FeeObligation, error) {
	var fee feeDatamodel.FeeObligation
	err := r.db.WithContext(ctx).First(&fee, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, appinternal.ErrFeeNotFound
		}
		return nil, err
	}
	return &fee, nil
}

func (r *FeeRepository) List(ctx context.Context) ([]*feeDatamodel.FeeObligation, error) {
	var fees []*feeDatamodel.FeeObligation
	err := r.db.WithContext(ctx).Order("due_date ASC, id ASC").Find(&fees).Error
	return fees, err
}
