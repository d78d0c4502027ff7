package internal

import (
	"context"
	"time"
)

type ctxKey string

const ContextUserKey ctxKey = "user"

// User is the authenticated identity attached to a request. Residents carry
// the household they belong to; staff accounts have no household context.
type User struct {
	ID          int64  `json:"id"`
	Username    string `json:"username"`
	Role        string `json:"role"`
	HouseholdID *int64 `json:"household_id,omitempty"`
}

const (
	RoleAdmin      = "admin"
	RoleAccountant = "accountant"
	RoleResident   = "resident"
)

func (u *User) IsStaff() bool {
	return u.Role == RoleAdmin || u.Role == RoleAccountant
}

func UserFromContext(ctx context.Context) (*User, bool) {
	if ctx == nil {
		return nil, false
	}
	u, ok := ctx.Value(ContextUserKey).(*User)
	return u, ok
}

func ContextWithUser(ctx context.Context, user *User) context.Context {
	return context.WithValue(ctx, ContextUserKey, user)
}

// WithTimeout returns a context with timeout, defaulting to 5 seconds if duration is zero or negative.
func WithTimeout(ctx context.Context, duration time.Duration) (context.Context, context.CancelFunc) {
	if duration <= 0 {
		duration = 5 * time.Second
	}
	return context.WithTimeout(ctx, duration)
}
