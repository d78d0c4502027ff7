package payment

import (
	"time"

	errors "github.com/quanlynhankhau/registry-api/internal"
	"github.com/quanlynhankhau/registry-api/internal/core/common/validation"
)

// CreatePaymentDTO starts a collection attempt for a fee obligation. Amount
// overrides the obligation's configured amount when positive; household is
// taken from the authenticated user when absent. AccountNo and AccountName
// redirect a quick-link transfer to a receiver other than the configured
// default.
type CreatePaymentDTO struct {
	FeeObligationID int64  `json:"fee_obligation_id"`
	HouseholdID     *int64 `json:"household_id,omitempty"`
	Amount          int64  `json:"amount,omitempty"`
	Description     string `json:"description,omitempty"`
	ReturnURL       string `json:"return_url,omitempty"`
	CancelURL       string `json:"cancel_url,omitempty"`
	AccountNo       string `json:"account_no,omitempty"`
	AccountName     string `json:"account_name,omitempty"`
}

func (d CreatePaymentDTO) Validate() *errors.AppError {
	v := validation.NewValidator()
	v.Field("fee_obligation_id", d.FeeObligationID).Required()
	if err := v.Validate(); err != nil {
		return err
	}
	if d.Amount != 0 {
		return validation.ValidatePaymentAmount(d.Amount)
	}
	return nil
}

// CreatePaymentResponse is returned by both creation strategies. QRReference
// holds the raw QR payload on the provider path and the image URL on the
// quick-link path.
type CreatePaymentResponse struct {
	PaymentID   string  `json:"payment_id"`
	OrderCode   *int64  `json:"order_code,omitempty"`
	Amount      int64   `json:"amount"`
	Status      string  `json:"status"`
	QRReference string  `json:"qr_reference"`
	CheckoutURL *string `json:"checkout_url,omitempty"`
}

// ProviderWebhookDTO mirrors the provider's webhook envelope. Field names
// are fixed by the provider contract.
type ProviderWebhookDTO struct {
	Code      string               `json:"code"`
	Desc      string               `json:"desc"`
	Data      *ProviderWebhookData `json:"data"`
	Signature string               `json:"signature,omitempty"`
}

type ProviderWebhookData struct {
	OrderCode           int64  `json:"orderCode"`
	Amount              int64  `json:"amount"`
	Description         string `json:"description"`
	AccountNumber       string `json:"accountNumber"`
	AccountName         string `json:"accountName"`
	Reference           string `json:"reference"`
	TransactionDateTime string `json:"transactionDateTime"`
	Code                string `json:"code"`
	Desc                string `json:"desc"`
}

// QuickLinkWebhookDTO is the manual bank-notification payload posted when a
// transfer against a quick-link QR is confirmed out-of-band.
type QuickLinkWebhookDTO struct {
	PaymentID     string     `json:"paymentId"`
	Status        string     `json:"status"`
	Amount        int64      `json:"amount"`
	TransactionID string     `json:"transactionId"`
	PaidAt        *time.Time `json:"paidAt,omitempty"`
	PayerName     string     `json:"payerName,omitempty"`
	PayerAccount  string     `json:"payerAccount,omitempty"`
}

// NotificationListResponse wraps the staff notification feed.
type NotificationListResponse struct {
	Notifications []*NotificationView `json:"notifications"`
	UnreadCount   int64               `json:"unread_count"`
}

type UnreadCountResponse struct {
	UnreadCount int64 `json:"unread_count"`
}
