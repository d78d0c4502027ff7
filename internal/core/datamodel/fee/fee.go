package fee

import "time"

// FeeObligation is a billable charge payments are issued against.
type FeeObligation struct {
	ID          int64      `gorm:"primaryKey"`
	Name        string     `gorm:"column:name;not null"`
	Description string     `gorm:"column:description"`
	Amount      int64      `gorm:"column:amount"`
	Mandatory   bool       `gorm:"column:mandatory;default:false"`
	DueDate     *time.Time `gorm:"column:due_date"`
	CreatedAt   time.Time  `gorm:"column:created_at;default:now()"`
	UpdatedAt   time.Time  `gorm:"column:updated_at;default:now()"`
}
