package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventTypePaymentPaid      = "payment.paid"
	EventTypePaymentCancelled = "payment.cancelled"
)

// PaymentPaidEvent fires exactly once per payment that reaches PAID, after
// the status transition and notification insert are committed. The fee
// ledger bridge subscribes to it.
type PaymentPaidEvent struct {
	BaseEvent
	PaymentID       string    `json:"payment_id"`
	FeeObligationID int64     `json:"fee_obligation_id"`
	HouseholdID     *int64    `json:"household_id,omitempty"`
	Amount          int64     `json:"amount"`
	PaidAt          time.Time `json:"paid_at"`
	PayerName       string    `json:"payer_name"`
}

func NewPaymentPaidEvent(paymentID string, feeObligationID int64, householdID *int64, amount int64, paidAt time.Time, payerName string) *PaymentPaidEvent {
	return &PaymentPaidEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypePaymentPaid,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"payment_id":        paymentID,
				"fee_obligation_id": feeObligationID,
				"household_id":      householdID,
				"amount":            amount,
				"paid_at":           paidAt,
				"payer_name":        payerName,
			},
		},
		PaymentID:       paymentID,
		FeeObligationID: feeObligationID,
		HouseholdID:     householdID,
		Amount:          amount,
		PaidAt:          paidAt,
		PayerName:       payerName,
	}
}

type PaymentCancelledEvent struct {
	BaseEvent
	PaymentID       string `json:"payment_id"`
	FeeObligationID int64  `json:"fee_obligation_id"`
	Status          string `json:"status"`
}

func NewPaymentCancelledEvent(paymentID string, feeObligationID int64, status string) *PaymentCancelledEvent {
	return &PaymentCancelledEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypePaymentCancelled,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"payment_id":        paymentID,
				"fee_obligation_id": feeObligationID,
				"status":            status,
			},
		},
		PaymentID:       paymentID,
		FeeObligationID: feeObligationID,
		Status:          status,
	}
}
