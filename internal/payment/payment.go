package payment

import (
	"strings"
	"time"

	paymentDatamodel "github.com/quanlynhankhau/registry-api/internal/core/datamodel/payment"
)

// Payment status values as stored. Clients see them lower-cased.
// PENDING is the only non-terminal state; a payment transitions out of it
// exactly once and never changes again.
const (
	StatusPending   = "PENDING"
	StatusPaid      = "PAID"
	StatusExpired   = "EXPIRED"
	StatusCancelled = "CANCELLED"
)

func IsTerminal(status string) bool {
	switch status {
	case StatusPaid, StatusExpired, StatusCancelled:
		return true
	}
	return false
}

// Quick-link webhook status strings reported by the bank-notification path.
const (
	quickLinkStatusPaid      = "paid"
	quickLinkStatusExpired   = "expired"
	quickLinkStatusCancelled = "cancelled"
)

// providerPaidCode is the provider's result code for a completed transfer.
const providerPaidCode = "00"

// ClassifyProviderCode maps a provider result code to a terminal status.
// Anything other than the documented success code is treated as CANCELLED;
// an unknown code must never be read as money received.
func ClassifyProviderCode(code string) string {
	if code == providerPaidCode {
		return StatusPaid
	}
	return StatusCancelled
}

// ClassifyQuickLinkStatus maps a manual-path status string to a terminal
// status, defaulting unknown values to CANCELLED.
func ClassifyQuickLinkStatus(status string) string {
	switch strings.ToLower(status) {
	case quickLinkStatusPaid:
		return StatusPaid
	case quickLinkStatusExpired:
		return StatusExpired
	case quickLinkStatusCancelled:
		return StatusCancelled
	}
	return StatusCancelled
}

// StatusView is the client-facing shape of a payment's state.
type StatusView struct {
	ID        string     `json:"id"`
	Status    string     `json:"status"`
	Amount    int64      `json:"amount"`
	CreatedAt time.Time  `json:"created_at"`
	PaidAt    *time.Time `json:"paid_at,omitempty"`
}

func ToStatusView(p *paymentDatamodel.Payment) *StatusView {
	return &StatusView{
		ID:        p.PaymentID,
		Status:    strings.ToLower(p.Status),
		Amount:    p.Amount,
		CreatedAt: p.CreatedAt,
		PaidAt:    p.PaidAt,
	}
}

// NotificationView is the client-facing shape of a payment notification.
type NotificationView struct {
	ID                 string     `json:"id"`
	PaymentID          string     `json:"payment_id"`
	FeeObligationID    int64      `json:"fee_obligation_id"`
	FeeObligationLabel string     `json:"fee_obligation_label"`
	HouseholdID        *int64     `json:"household_id,omitempty"`
	HouseholdLabel     string     `json:"household_label"`
	PayerName          string     `json:"payer_name"`
	Amount             int64      `json:"amount"`
	PaidAt             *time.Time `json:"paid_at,omitempty"`
	IsRead             bool       `json:"is_read"`
	CreatedAt          time.Time  `json:"created_at"`
}

func ToNotificationView(n *paymentDatamodel.PaymentNotification) *NotificationView {
	return &NotificationView{
		ID:                 n.NotificationID,
		PaymentID:          n.PaymentID,
		FeeObligationID:    n.FeeObligationID,
		FeeObligationLabel: n.FeeObligationLabel,
		HouseholdID:        n.HouseholdID,
		HouseholdLabel:     n.HouseholdLabel,
		PayerName:          n.PayerName,
		Amount:             n.Amount,
		PaidAt:             n.PaidAt,
		IsRead:             n.IsRead,
		CreatedAt:          n.CreatedAt,
	}
}

func ToNotificationViews(notifications []*paymentDatamodel.PaymentNotification) []*NotificationView {
	views := make([]*NotificationView, len(notifications))
	for i, n := range notifications {
		views[i] = ToNotificationView(n)
	}
	return views
}
