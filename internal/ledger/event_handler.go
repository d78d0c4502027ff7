package ledger

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/quanlynhankhau/registry-api/internal/core/events"
)

// EventHandler bridges paid payments into the fee ledger. It runs on the
// synchronous publish path of the reconciler, so a returned error surfaces
// there as a reconciliation gap without touching the paid payment.
type EventHandler struct {
	service *Service
	logger  *slog.Logger
}

func NewEventHandler(service *Service, logger *slog.Logger) *EventHandler {
	return &EventHandler{
		service: service,
		logger:  logger,
	}
}

func (h *EventHandler) HandlePaymentPaid(ctx context.Context, event events.Event) error {
	paidEvent, ok := event.(*events.PaymentPaidEvent)
	if !ok {
		h.logger.Error("invalid event type for payment paid handler", "event_type", event.EventType())
		return fmt.Errorf("expected PaymentPaidEvent, got %T", event)
	}

	if paidEvent.HouseholdID == nil {
		// Anonymous quick-link transfers carry no household. The payment and
		// notification stand on their own; there is no ledger row to write.
		h.logger.Info("ledger entry skipped for payment without household",
			"payment_id", paidEvent.PaymentID,
			"fee_obligation_id", paidEvent.FeeObligationID)
		return nil
	}

	if err := h.service.RecordCollection(ctx,
		paidEvent.FeeObligationID,
		*paidEvent.HouseholdID,
		paidEvent.Amount,
		paidEvent.PaidAt,
		SystemCollector,
	); err != nil {
		return fmt.Errorf("ledger entry failed for payment %s: %w", paidEvent.PaymentID, err)
	}

	return nil
}

// HandlePaymentCancelled records closed-without-collection payments in the
// audit log. No ledger row is written; the trail matters when staff chase a
// resident who reports having paid.
func (h *EventHandler) HandlePaymentCancelled(_ context.Context, event events.Event) error {
	cancelledEvent, ok := event.(*events.PaymentCancelledEvent)
	if !ok {
		h.logger.Error("invalid event type for payment cancelled handler", "event_type", event.EventType())
		return fmt.Errorf("expected PaymentCancelledEvent, got %T", event)
	}

	h.logger.Info("payment closed without collection",
		"payment_id", cancelledEvent.PaymentID,
		"fee_obligation_id", cancelledEvent.FeeObligationID,
		"status", cancelledEvent.Status)
	return nil
}

func (h *EventHandler) RegisterEventHandlers(eventBus *events.EventBus) {
	eventBus.Subscribe(events.EventTypePaymentPaid, h.HandlePaymentPaid)
	eventBus.Subscribe(events.EventTypePaymentCancelled, h.HandlePaymentCancelled)

	h.logger.Info("ledger event handlers registered",
		"handlers", []string{events.EventTypePaymentPaid, events.EventTypePaymentCancelled})
}
