package payment

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"

	"github.com/quanlynhankhau/registry-api/internal"
	"github.com/quanlynhankhau/registry-api/internal/transport"
)

type Handler struct {
	transport.BaseHandler
	Service *PaymentService
	Logger  *slog.Logger
}

func NewHandler(service *PaymentService, logger *slog.Logger) *Handler {
	return &Handler{
		Service: service,
		Logger:  logger,
	}
}

// CreatePayment handles POST /api/v1/payments
func (h *Handler) CreatePayment(w http.ResponseWriter, r *http.Request) {
	user, ok := internal.UserFromContext(r.Context())
	if !ok || user == nil {
		h.Logger.Error("CreatePayment: user not found in context")
		h.HandleError(w, internal.NewUnauthorizedError("authentication required", internal.ErrCodeInvalidToken))
		return
	}

	var dto CreatePaymentDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.Logger.Error("CreatePayment: failed to parse request body", "error", err)
		h.HandleError(w, internal.NewValidationError("invalid request body", internal.ErrCodeValidationFailed))
		return
	}

	resp, err := h.Service.CreateProviderPayment(r.Context(), user, dto)
	if err != nil {
		h.Logger.Error("CreatePayment: service error", "error", err, "user_id", user.ID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, resp)
}

// CreateQuickLinkPayment handles POST /api/v1/payments/quick-link
func (h *Handler) CreateQuickLinkPayment(w http.ResponseWriter, r *http.Request) {
	user, ok := internal.UserFromContext(r.Context())
	if !ok || user == nil {
		h.Logger.Error("CreateQuickLinkPayment: user not found in context")
		h.HandleError(w, internal.NewUnauthorizedError("authentication required", internal.ErrCodeInvalidToken))
		return
	}

	var dto CreatePaymentDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.Logger.Error("CreateQuickLinkPayment: failed to parse request body", "error", err)
		h.HandleError(w, internal.NewValidationError("invalid request body", internal.ErrCodeValidationFailed))
		return
	}

	resp, err := h.Service.CreateQuickLinkPayment(r.Context(), user, dto)
	if err != nil {
		h.Logger.Error("CreateQuickLinkPayment: service error", "error", err, "user_id", user.ID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, resp)
}

// GetPaymentStatus handles GET /api/v1/payments/{paymentID}/status
func (h *Handler) GetPaymentStatus(w http.ResponseWriter, r *http.Request) {
	paymentID := chi.URLParam(r, "paymentID")
	if paymentID == "" {
		h.HandleError(w, internal.NewValidationError("payment id is required", internal.ErrCodeValidationFailed))
		return
	}

	view, err := h.Service.GetPaymentStatus(r.Context(), paymentID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, view)
}

// ListNotifications handles GET /api/v1/payments/notifications
func (h *Handler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	resp, err := h.Service.ListNotifications(r.Context())
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, resp)
}

// UnreadNotificationCount handles GET /api/v1/payments/notifications/unread-count
func (h *Handler) UnreadNotificationCount(w http.ResponseWriter, r *http.Request) {
	resp, err := h.Service.UnreadNotificationCount(r.Context())
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, resp)
}

// MarkNotificationRead handles POST /api/v1/payments/notifications/{notificationID}/read
func (h *Handler) MarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	notificationID := chi.URLParam(r, "notificationID")
	if notificationID == "" {
		h.HandleError(w, internal.NewValidationError("notification id is required", internal.ErrCodeValidationFailed))
		return
	}

	if err := h.Service.MarkNotificationRead(r.Context(), notificationID); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]string{"status": "read"})
}

// MarkAllNotificationsRead handles POST /api/v1/payments/notifications/read-all
func (h *Handler) MarkAllNotificationsRead(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.MarkAllNotificationsRead(r.Context()); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]string{"status": "read"})
}
