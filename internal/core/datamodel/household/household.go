package household

import "time"

// Household is the registry record a resident payer belongs to.
type Household struct {
	ID        int64     `gorm:"primaryKey"`
	Code      string    `gorm:"column:code;uniqueIndex;not null"`
	Address   string    `gorm:"column:address"`
	HeadName  string    `gorm:"column:head_name"`
	CreatedAt time.Time `gorm:"column:created_at;default:now()"`
	UpdatedAt time.Time `gorm:"column:updated_at;default:now()"`
}
