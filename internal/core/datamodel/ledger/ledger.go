package ledger

import "time"

// FeeCollection is one "fee collected" ledger row. Webhook-confirmed
// payments are recorded with CollectedBy set to the system collector name.
type FeeCollection struct {
	ID              int64     `gorm:"primaryKey"`
	FeeObligationID int64     `gorm:"column:fee_obligation_id;not null"`
	HouseholdID     int64     `gorm:"column:household_id;not null"`
	Amount          int64     `gorm:"column:amount;not null"`
	CollectedOn     time.Time `gorm:"column:collected_on;not null"`
	CollectedBy     string    `gorm:"column:collected_by"`
	CreatedAt       time.Time `gorm:"column:created_at;default:now()"`
}
