package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/quanlynhankhau/registry-api/internal"
	paymentDatamodel "github.com/quanlynhankhau/registry-api/internal/core/datamodel/payment"
	"github.com/quanlynhankhau/registry-api/internal/core/events"
	"github.com/quanlynhankhau/registry-api/internal/signature"
)

// ReconcilerConfig carries the webhook trust settings. ProviderSecret signs
// the provider path; QuickLinkSecret signs the manual path. An unsigned
// manual delivery is accepted only when AllowUnsignedQuickLink is set.
type ReconcilerConfig struct {
	ProviderSecret         string
	QuickLinkSecret        string
	AllowUnsignedQuickLink bool
}

// Reconciler applies webhook deliveries to the payment ledger. Each payment
// leaves PENDING at most once; replays and races collapse onto the guarded
// status transition and the unique notification index underneath it.
type Reconciler struct {
	cfg        ReconcilerConfig
	repo       RepositoryAPI
	fees       FeeReader
	households HouseholdReader
	eventBus   *events.EventBus
	logger     *slog.Logger
}

func NewReconciler(
	cfg ReconcilerConfig,
	repo RepositoryAPI,
	fees FeeReader,
	households HouseholdReader,
	eventBus *events.EventBus,
	logger *slog.Logger,
) *Reconciler {
	return &Reconciler{
		cfg:        cfg,
		repo:       repo,
		fees:       fees,
		households: households,
		eventBus:   eventBus,
		logger:     logger,
	}
}

// ReconcileProviderWebhook authenticates and applies one provider delivery.
// Deliveries without a valid signature are rejected outright: the provider
// always signs, so an unsigned payload is not the provider.
func (r *Reconciler) ReconcileProviderWebhook(ctx context.Context, dto ProviderWebhookDTO, presentedSignature string) error {
	if dto.Data == nil {
		r.logger.Warn("provider webhook without data block dropped")
		return internal.NewValidationError("webhook payload has no data", internal.ErrCodeValidationFailed)
	}
	data := dto.Data

	canonical := signature.ProviderWebhookCanonical(
		data.OrderCode, data.Amount, data.Description, data.AccountNumber, data.TransactionDateTime)
	if !signature.Verify(canonical, r.cfg.ProviderSecret, presentedSignature) {
		r.logger.Warn("provider webhook signature rejected", "order_code", data.OrderCode)
		return internal.NewUnauthorizedError("invalid webhook signature", internal.ErrCodeInvalidSignature)
	}

	payment, err := r.repo.GetByOrderCode(ctx, data.OrderCode)
	if err != nil {
		// Unknown order codes are dropped without error so the provider
		// does not keep retrying a delivery we can never apply.
		r.logger.Warn("provider webhook for unknown order code dropped", "order_code", data.OrderCode)
		return nil
	}

	if IsTerminal(payment.Status) {
		r.logger.Info("duplicate webhook delivery ignored",
			"payment_id", payment.PaymentID,
			"status", payment.Status)
		return nil
	}

	if data.Amount != payment.Amount {
		r.logger.Warn("webhook amount differs from recorded payment",
			"payment_id", payment.PaymentID,
			"recorded_amount", payment.Amount,
			"webhook_amount", data.Amount)
	}

	payload, err := json.Marshal(dto)
	if err != nil {
		payload = nil
	}

	status := ClassifyProviderCode(data.Code)
	if status != StatusPaid {
		return r.applyTerminal(ctx, payment, status, payload)
	}

	paidAt := parseTransactionTime(data.TransactionDateTime)
	var payerName, payerAccount *string
	if data.AccountName != "" {
		payerName = &data.AccountName
	}
	if data.AccountNumber != "" {
		payerAccount = &data.AccountNumber
	}
	return r.applyPaid(ctx, payment, paidAt, payerName, payerAccount, payload)
}

// ReconcileQuickLinkWebhook authenticates and applies one manual
// bank-notification delivery, correlated by payment id.
func (r *Reconciler) ReconcileQuickLinkWebhook(ctx context.Context, dto QuickLinkWebhookDTO, presentedSignature string) error {
	if dto.PaymentID == "" {
		return internal.NewValidationError("paymentId is required", internal.ErrCodeValidationFailed)
	}

	if presentedSignature == "" {
		if !r.cfg.AllowUnsignedQuickLink {
			r.logger.Warn("unsigned quick-link webhook rejected", "payment_id", dto.PaymentID)
			return internal.NewUnauthorizedError("webhook signature is required", internal.ErrCodeInvalidSignature)
		}
		r.logger.Info("unsigned quick-link webhook accepted by configuration", "payment_id", dto.PaymentID)
	} else {
		canonical := signature.QuickLinkWebhookCanonical(dto.PaymentID, dto.Status, dto.Amount, dto.TransactionID)
		if !signature.Verify(canonical, r.cfg.QuickLinkSecret, presentedSignature) {
			r.logger.Warn("quick-link webhook signature rejected", "payment_id", dto.PaymentID)
			return internal.NewUnauthorizedError("invalid webhook signature", internal.ErrCodeInvalidSignature)
		}
	}

	payment, err := r.repo.GetByPaymentID(ctx, dto.PaymentID)
	if err != nil {
		r.logger.Warn("quick-link webhook for unknown payment dropped", "payment_id", dto.PaymentID)
		return nil
	}

	if IsTerminal(payment.Status) {
		r.logger.Info("duplicate webhook delivery ignored",
			"payment_id", payment.PaymentID,
			"status", payment.Status)
		return nil
	}

	if dto.Amount != 0 && dto.Amount != payment.Amount {
		r.logger.Warn("webhook amount differs from recorded payment",
			"payment_id", payment.PaymentID,
			"recorded_amount", payment.Amount,
			"webhook_amount", dto.Amount)
	}

	payload, err := json.Marshal(dto)
	if err != nil {
		payload = nil
	}

	status := ClassifyQuickLinkStatus(dto.Status)
	if status != StatusPaid {
		return r.applyTerminal(ctx, payment, status, payload)
	}

	paidAt := time.Now()
	if dto.PaidAt != nil {
		paidAt = *dto.PaidAt
	}
	var payerName, payerAccount *string
	if dto.PayerName != "" {
		payerName = &dto.PayerName
	}
	if dto.PayerAccount != "" {
		payerAccount = &dto.PayerAccount
	}
	return r.applyPaid(ctx, payment, paidAt, payerName, payerAccount, payload)
}

// applyPaid runs the guarded PENDING to PAID transition together with the
// notification insert, then bridges the result to the fee ledger. A ledger
// failure after commit is logged as a reconciliation gap and never unwinds
// the paid state.
func (r *Reconciler) applyPaid(ctx context.Context, payment *paymentDatamodel.Payment, paidAt time.Time, payerName, payerAccount *string, payload []byte) error {
	notification := r.buildNotification(ctx, payment, paidAt, payerName)

	applied, err := r.repo.TransitionToPaid(ctx, TransitionToPaidParams{
		PaymentID:    payment.PaymentID,
		PaidAt:       paidAt,
		PayerName:    payerName,
		PayerAccount: payerAccount,
		Payload:      payload,
		Notification: notification,
	})
	if err != nil {
		r.logger.Error("failed to apply paid transition", "error", err, "payment_id", payment.PaymentID)
		return internal.NewInternalError("failed to apply payment transition", err)
	}
	if !applied {
		r.logger.Info("paid transition lost the race, delivery ignored", "payment_id", payment.PaymentID)
		return nil
	}

	r.logger.Info("payment reconciled as paid",
		"payment_id", payment.PaymentID,
		"fee_obligation_id", payment.FeeObligationID,
		"amount", payment.Amount)

	displayName := ""
	if payerName != nil {
		displayName = *payerName
	}
	event := events.NewPaymentPaidEvent(
		payment.PaymentID, payment.FeeObligationID, payment.HouseholdID, payment.Amount, paidAt, displayName)
	if err := r.eventBus.PublishSync(ctx, event); err != nil {
		r.logger.Error("reconciliation gap: payment is paid but ledger bridge failed",
			"payment_id", payment.PaymentID,
			"fee_obligation_id", payment.FeeObligationID,
			"error", err)
	}
	return nil
}

func (r *Reconciler) applyTerminal(ctx context.Context, payment *paymentDatamodel.Payment, status string, payload []byte) error {
	applied, err := r.repo.TransitionToTerminal(ctx, payment.PaymentID, status, payload)
	if err != nil {
		r.logger.Error("failed to apply terminal transition",
			"error", err,
			"payment_id", payment.PaymentID,
			"status", status)
		return internal.NewInternalError("failed to apply payment transition", err)
	}
	if !applied {
		r.logger.Info("terminal transition lost the race, delivery ignored", "payment_id", payment.PaymentID)
		return nil
	}

	r.logger.Info("payment reconciled as closed",
		"payment_id", payment.PaymentID,
		"status", status)

	_ = r.eventBus.Publish(ctx, events.NewPaymentCancelledEvent(payment.PaymentID, payment.FeeObligationID, status))
	return nil
}

// buildNotification assembles the staff alert row for a paid payment. Label
// lookups are best-effort; a missing fee or household falls back to an id
// based label rather than blocking reconciliation.
func (r *Reconciler) buildNotification(ctx context.Context, payment *paymentDatamodel.Payment, paidAt time.Time, payerName *string) *paymentDatamodel.PaymentNotification {
	feeLabel := fmt.Sprintf("Khoan thu #%d", payment.FeeObligationID)
	if fee, err := r.fees.GetByID(ctx, payment.FeeObligationID); err == nil {
		feeLabel = fee.Name
	}

	householdLabel := ""
	if payment.HouseholdID != nil {
		householdLabel = fmt.Sprintf("Ho khau #%d", *payment.HouseholdID)
		if household, err := r.households.GetByID(ctx, *payment.HouseholdID); err == nil {
			householdLabel = fmt.Sprintf("%s - %s", household.Code, household.Address)
		}
	}

	displayName := ""
	if payerName != nil {
		displayName = *payerName
	}

	return &paymentDatamodel.PaymentNotification{
		NotificationID:     uuid.New().String(),
		PaymentID:          payment.PaymentID,
		FeeObligationID:    payment.FeeObligationID,
		FeeObligationLabel: feeLabel,
		HouseholdID:        payment.HouseholdID,
		HouseholdLabel:     householdLabel,
		PayerName:          displayName,
		Amount:             payment.Amount,
		PaidAt:             &paidAt,
	}
}

// parseTransactionTime reads the provider's timestamp formats, falling back
// to the receive time when none parse.
func parseTransactionTime(value string) time.Time {
	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, value); err == nil {
			return t
		}
	}
	return time.Now()
}
