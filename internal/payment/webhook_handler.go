package payment

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/quanlynhankhau/registry-api/internal/transport"
)

// Signature headers accepted on webhook deliveries. The provider sends its
// own header; manual notifiers use the generic one.
const (
	HeaderProviderSignature = "X-Payos-Signature"
	HeaderSignature         = "X-Signature"
)

// WebhookHandler terminates the two webhook endpoints. Once a body parses,
// the response is always 200: signature failures, unknown correlations and
// replays are resolved internally, and a non-200 would only make the sender
// retry a delivery whose outcome will not change.
type WebhookHandler struct {
	transport.BaseHandler
	Reconciler *Reconciler
	Logger     *slog.Logger
}

func NewWebhookHandler(reconciler *Reconciler, logger *slog.Logger) *WebhookHandler {
	return &WebhookHandler{
		Reconciler: reconciler,
		Logger:     logger,
	}
}

// ProviderWebhook handles POST /api/v1/payments/webhook
func (h *WebhookHandler) ProviderWebhook(w http.ResponseWriter, r *http.Request) {
	var dto ProviderWebhookDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.Logger.Warn("provider webhook with unreadable body", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid webhook payload")
		return
	}

	sig := signatureFromRequest(r, dto.Signature)
	if err := h.Reconciler.ReconcileProviderWebhook(r.Context(), dto, sig); err != nil {
		h.Logger.Warn("provider webhook not applied", "error", err)
	}

	h.WriteJSON(w, http.StatusOK, map[string]string{"status": "received"})
}

// QuickLinkWebhook handles POST /api/v1/payments/quick-link/webhook
func (h *WebhookHandler) QuickLinkWebhook(w http.ResponseWriter, r *http.Request) {
	var dto QuickLinkWebhookDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.Logger.Warn("quick-link webhook with unreadable body", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid webhook payload")
		return
	}

	sig := signatureFromRequest(r, "")
	if err := h.Reconciler.ReconcileQuickLinkWebhook(r.Context(), dto, sig); err != nil {
		h.Logger.Warn("quick-link webhook not applied", "error", err)
	}

	h.WriteJSON(w, http.StatusOK, map[string]string{"status": "received"})
}

// signatureFromRequest checks the provider header first, then the generic
// header, then any signature embedded in the body.
func signatureFromRequest(r *http.Request, bodySignature string) string {
	if sig := r.Header.Get(HeaderProviderSignature); sig != "" {
		return sig
	}
	if sig := r.Header.Get(HeaderSignature); sig != "" {
		return sig
	}
	return bodySignature
}
