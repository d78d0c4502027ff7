package user

import (
	"fmt"

	userDatamodel "github.com/quanlynhankhau/registry-api/internal/core/datamodel/user"
)

type Repository interface {
	GetByID(userID int64) (*userDatamodel.User, error)
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{
		repo: repo,
	}
}

func (s *Service) GetByID(userID int64) (*User, error) {
	u, err := s.repo.GetByID(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}
	return FromDataModel(u), nil
}
