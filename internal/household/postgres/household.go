package postgres

import (
	"context"
	"errors"

	"gorm.io/gorm"

	appinternal "github.com/quanlynhankhau/registry-api/internal"
	householdDatamodel "github.com/quanlynhankhau/registry-api/internal/core/datamodel/household"
	householdpkg "github.com/quanlynhankhau/registry-api/internal/household"
)

type HouseholdRepository struct {
	db *gorm.DB
}

func NewHouseholdRepository(db *gorm.DB) householdpkg.RepositoryAPI {
	return &HouseholdRepository{
		db: db,
	}
}

func (r *HouseholdRepository) GetByID(ctx context.Context, id int64) (*householdDatamodel.Household, error) {
	var h householdDatamodel.Household
	err := r.db.WithContext(ctx).First(&h, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, appinternal.ErrHouseholdNotFound
		}
		return nil, err
	}
	return &h, nil
}

func (r *HouseholdRepository) List(ctx context.Context) ([]*householdDatamodel.Household, error) {
	var households []*householdDatamodel.Household
	err := r.db.WithContext(ctx).Order("code ASC").Find(&households).Error
	return households, err
}
