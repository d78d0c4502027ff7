package user

import (
	"time"

	userDatamodel "github.com/quanlynhankhau/registry-api/internal/core/datamodel/user"
)

// User is the client-facing account shape. The password hash never leaves
// the repository layer.
type User struct {
	ID          int64     `json:"id"`
	Username    string    `json:"username"`
	FullName    string    `json:"full_name"`
	Role        string    `json:"role"`
	HouseholdID *int64    `json:"household_id,omitempty"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func FromDataModel(u *userDatamodel.User) *User {
	return &User{
		ID:          u.ID,
		Username:    u.Username,
		FullName:    u.FullName,
		Role:        u.Role,
		HouseholdID: u.HouseholdID,
		IsActive:    u.IsActive,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}
