package payment

import (
	"encoding/json"
	"time"
)

// Payment is the authoritative record of one collection attempt. OrderCode is
// the upstream correlation key assigned when the provider API issues the
// payable link; quick-link payments have none and correlate by PaymentID.
// Rows are never deleted, they form the audit trail.
type Payment struct {
	ID              int64           `gorm:"primaryKey"`
	PaymentID       string          `gorm:"column:payment_id;uniqueIndex;not null"`
	OrderCode       *int64          `gorm:"column:order_code;uniqueIndex"`
	FeeObligationID int64           `gorm:"column:fee_obligation_id;not null"`
	HouseholdID     *int64          `gorm:"column:household_id"`
	Amount          int64           `gorm:"column:amount;not null"`
	Status          string          `gorm:"column:status;default:PENDING"`
	QRReference     string          `gorm:"column:qr_reference;type:text"`
	CheckoutURL     *string         `gorm:"column:checkout_url;type:text"`
	PayerName       *string         `gorm:"column:payer_name"`
	PayerAccount    *string         `gorm:"column:payer_account"`
	GatewayPayload  json.RawMessage `gorm:"column:gateway_payload;type:jsonb"`
	PaidAt          *time.Time      `gorm:"column:paid_at"`
	CreatedAt       time.Time       `gorm:"column:created_at;default:now()"`
	UpdatedAt       time.Time       `gorm:"column:updated_at;default:now()"`
}

// PaymentNotification is the one-per-paid-payment alert shown to staff.
// The unique index on payment_id is what enforces at-most-one even if two
// reconciliation attempts race past the status guard.
type PaymentNotification struct {
	ID                 int64      `gorm:"primaryKey"`
	NotificationID     string     `gorm:"column:notification_id;uniqueIndex;not null"`
	PaymentID          string     `gorm:"column:payment_id;uniqueIndex;not null"`
	FeeObligationID    int64      `gorm:"column:fee_obligation_id"`
	FeeObligationLabel string     `gorm:"column:fee_obligation_label"`
	HouseholdID        *int64     `gorm:"column:household_id"`
	HouseholdLabel     string     `gorm:"column:household_label"`
	PayerName          string     `gorm:"column:payer_name"`
	Amount             int64      `gorm:"column:amount;not null"`
	PaidAt             *time.Time `gorm:"column:paid_at"`
	IsRead             bool       `gorm:"column:is_read;default:false"`
	CreatedAt          time.Time  `gorm:"column:created_at;default:now()"`
}
