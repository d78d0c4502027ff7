package postgres

import (
	"errors"

	"gorm.io/gorm"

	appinternal "github.com/quanlynhankhau/registry-api/internal"
	userDatamodel "github.com/quanlynhankhau/registry-api/internal/core/datamodel/user"
	userpkg "github.com/quanlynhankhau/registry-api/internal/user"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) userpkg.Repository {
	return &UserRepository{
		db: db,
	}
}

func (r *UserRepository) GetByID(userID int64) (*userDatamodel.User, error) {
	var user userDatamodel.User
	err := r.db.First(&user, userID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, appinternal.NewNotFoundError("User not found", appinternal.ErrCodeInvalidCredentials)
		}
		return nil, err
	}
	return &user, nil
}
