package postgres

import (
	"errors"

	"gorm.io/gorm"

	appinternal "github.com/quanlynhankhau/registry-api/internal"
	authpkg "github.com/quanlynhankhau/registry-api/internal/auth"
	userDatamodel "github.com/quanlynhankhau/registry-api/internal/core/datamodel/user"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) authpkg.UserRepository {
	return &Repository{
		db: db,
	}
}

func (r *Repository) GetByUsername(username string) (*userDatamodel.User, error) {
	var user userDatamodel.User
	err := r.db.Where("username = ?", username).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, appinternal.ErrInvalidCredentials
		}
		return nil, err
	}
	return &user, nil
}

func (r *Repository) GetByID(id int64) (*userDatamodel.User, error) {
	var user userDatamodel.User
	err := r.db.First(&user, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, appinternal.ErrInvalidToken
		}
		return nil, err
	}
	return &user, nil
}
