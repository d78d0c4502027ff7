package payment

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/quanlynhankhau/registry-api/internal"
	"github.com/quanlynhankhau/registry-api/internal/core/common/validation"
	feeDatamodel "github.com/quanlynhankhau/registry-api/internal/core/datamodel/fee"
	householdDatamodel "github.com/quanlynhankhau/registry-api/internal/core/datamodel/household"
	paymentDatamodel "github.com/quanlynhankhau/registry-api/internal/core/datamodel/payment"
	"github.com/quanlynhankhau/registry-api/internal/paymentgateway"
)

type RepositoryAPI interface {
	Create(ctx context.Context, payment *paymentDatamodel.Payment) error
	GetByPaymentID(ctx context.Context, paymentID string) (*paymentDatamodel.Payment, error)
	GetByOrderCode(ctx context.Context, orderCode int64) (*paymentDatamodel.Payment, error)
	TransitionToPaid(ctx context.Context, params TransitionToPaidParams) (bool, error)
	TransitionToTerminal(ctx context.Context, paymentID, status string, payload []byte) (bool, error)
}

type NotificationRepositoryAPI interface {
	List(ctx context.Context) ([]*paymentDatamodel.PaymentNotification, error)
	UnreadCount(ctx context.Context) (int64, error)
	MarkRead(ctx context.Context, notificationID string) error
	MarkAllRead(ctx context.Context) error
}

// TransitionToPaidParams carries everything the repository must apply in one
// transaction when a payment is confirmed.
type TransitionToPaidParams struct {
	PaymentID    string
	PaidAt       time.Time
	PayerName    *string
	PayerAccount *string
	Payload      []byte
	Notification *paymentDatamodel.PaymentNotification
}

type FeeReader interface {
	GetByID(ctx context.Context, id int64) (*feeDatamodel.FeeObligation, error)
}

type HouseholdReader interface {
	GetByID(ctx context.Context, id int64) (*householdDatamodel.Household, error)
}

type GatewayAPI interface {
	CreatePaymentLink(ctx context.Context, req paymentgateway.CreateLinkRequest) (*paymentgateway.PaymentLink, error)
}

type QuickLinkAPI interface {
	BuildImageURL(accountNo, accountName, description string, amount int64) string
}

// ServiceConfig carries the redirect targets sent with provider payment
// requests when the client supplies none.
type ServiceConfig struct {
	DefaultReturnURL string
	DefaultCancelURL string
}

type PaymentService struct {
	cfg              ServiceConfig
	repo             RepositoryAPI
	notificationRepo NotificationRepositoryAPI
	fees             FeeReader
	households       HouseholdReader
	gateway          GatewayAPI
	quickLink        QuickLinkAPI
	logger           *slog.Logger
}

func NewService(
	cfg ServiceConfig,
	repo RepositoryAPI,
	notificationRepo NotificationRepositoryAPI,
	fees FeeReader,
	households HouseholdReader,
	gateway GatewayAPI,
	quickLink QuickLinkAPI,
	logger *slog.Logger,
) *PaymentService {
	return &PaymentService{
		cfg:              cfg,
		repo:             repo,
		notificationRepo: notificationRepo,
		fees:             fees,
		households:       households,
		gateway:          gateway,
		quickLink:        quickLink,
		logger:           logger,
	}
}

// CreateProviderPayment issues a hosted payment link through the provider API
// and persists a PENDING payment correlated by order code. A provider failure
// leaves nothing behind.
func (s *PaymentService) CreateProviderPayment(ctx context.Context, user *internal.User, dto CreatePaymentDTO) (*CreatePaymentResponse, error) {
	fee, householdID, amount, err := s.resolveCreateInputs(ctx, user, dto)
	if err != nil {
		return nil, err
	}

	description := dto.Description
	if description == "" {
		description = fee.Name
	}
	returnURL := dto.ReturnURL
	if returnURL == "" {
		returnURL = s.cfg.DefaultReturnURL
	}
	cancelURL := dto.CancelURL
	if cancelURL == "" {
		cancelURL = s.cfg.DefaultCancelURL
	}

	orderCode := newOrderCode()
	link, err := s.gateway.CreatePaymentLink(ctx, paymentgateway.CreateLinkRequest{
		OrderCode:   orderCode,
		Amount:      amount,
		Description: description,
		ReturnURL:   returnURL,
		CancelURL:   cancelURL,
		ItemName:    fee.Name,
	})
	if err != nil {
		return nil, err
	}

	payment := &paymentDatamodel.Payment{
		PaymentID:       uuid.New().String(),
		OrderCode:       &orderCode,
		FeeObligationID: fee.ID,
		HouseholdID:     householdID,
		Amount:          amount,
		Status:          StatusPending,
		QRReference:     link.QRCode,
		CheckoutURL:     &link.CheckoutURL,
	}
	if err := s.repo.Create(ctx, payment); err != nil {
		s.logger.Error("failed to persist payment", "error", err, "order_code", orderCode)
		return nil, internal.NewInternalError("failed to persist payment", err)
	}

	s.logger.Info("provider payment created",
		"payment_id", payment.PaymentID,
		"order_code", orderCode,
		"fee_obligation_id", fee.ID,
		"amount", amount)

	return &CreatePaymentResponse{
		PaymentID:   payment.PaymentID,
		OrderCode:   payment.OrderCode,
		Amount:      amount,
		Status:      StatusPending,
		QRReference: link.QRCode,
		CheckoutURL: payment.CheckoutURL,
	}, nil
}

// CreateQuickLinkPayment builds a stateless QR image URL and persists a
// PENDING payment correlated by payment id. No upstream call is made.
func (s *PaymentService) CreateQuickLinkPayment(ctx context.Context, user *internal.User, dto CreatePaymentDTO) (*CreatePaymentResponse, error) {
	fee, householdID, amount, err := s.resolveCreateInputs(ctx, user, dto)
	if err != nil {
		return nil, err
	}

	description := dto.Description
	if description == "" {
		description = fmt.Sprintf("Thanh toan khoan thu %d", fee.ID)
	}

	imageURL := s.quickLink.BuildImageURL(dto.AccountNo, dto.AccountName, description, amount)

	payment := &paymentDatamodel.Payment{
		PaymentID:       uuid.New().String(),
		FeeObligationID: fee.ID,
		HouseholdID:     householdID,
		Amount:          amount,
		Status:          StatusPending,
		QRReference:     imageURL,
	}
	if err := s.repo.Create(ctx, payment); err != nil {
		s.logger.Error("failed to persist payment", "error", err, "payment_id", payment.PaymentID)
		return nil, internal.NewInternalError("failed to persist payment", err)
	}

	s.logger.Info("quick-link payment created",
		"payment_id", payment.PaymentID,
		"fee_obligation_id", fee.ID,
		"amount", amount)

	return &CreatePaymentResponse{
		PaymentID:   payment.PaymentID,
		Amount:      amount,
		Status:      StatusPending,
		QRReference: imageURL,
	}, nil
}

func (s *PaymentService) resolveCreateInputs(ctx context.Context, user *internal.User, dto CreatePaymentDTO) (*feeDatamodel.FeeObligation, *int64, int64, error) {
	if err := dto.Validate(); err != nil {
		return nil, nil, 0, err
	}

	fee, err := s.fees.GetByID(ctx, dto.FeeObligationID)
	if err != nil {
		return nil, nil, 0, err
	}

	amount := dto.Amount
	if amount <= 0 {
		amount = fee.Amount
	}
	if err := validation.ValidatePaymentAmount(amount); err != nil {
		return nil, nil, 0, err
	}

	householdID := dto.HouseholdID
	if householdID == nil && user != nil {
		householdID = user.HouseholdID
	}
	if householdID != nil {
		if _, err := s.households.GetByID(ctx, *householdID); err != nil {
			return nil, nil, 0, err
		}
	}

	return fee, householdID, amount, nil
}

// GetPaymentStatus returns the client-facing view of one payment. The status
// string is lower-cased for display.
func (s *PaymentService) GetPaymentStatus(ctx context.Context, paymentID string) (*StatusView, error) {
	payment, err := s.repo.GetByPaymentID(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	return ToStatusView(payment), nil
}

// ListNotifications returns the staff notification feed, newest first, with
// the current unread count.
func (s *PaymentService) ListNotifications(ctx context.Context) (*NotificationListResponse, error) {
	notifications, err := s.notificationRepo.List(ctx)
	if err != nil {
		return nil, internal.NewInternalError("failed to list notifications", err)
	}
	unread, err := s.notificationRepo.UnreadCount(ctx)
	if err != nil {
		return nil, internal.NewInternalError("failed to count unread notifications", err)
	}
	return &NotificationListResponse{
		Notifications: ToNotificationViews(notifications),
		UnreadCount:   unread,
	}, nil
}

func (s *PaymentService) UnreadNotificationCount(ctx context.Context) (*UnreadCountResponse, error) {
	unread, err := s.notificationRepo.UnreadCount(ctx)
	if err != nil {
		return nil, internal.NewInternalError("failed to count unread notifications", err)
	}
	return &UnreadCountResponse{UnreadCount: unread}, nil
}

func (s *PaymentService) MarkNotificationRead(ctx context.Context, notificationID string) error {
	if err := s.notificationRepo.MarkRead(ctx, notificationID); err != nil {
		return err
	}
	return nil
}

func (s *PaymentService) MarkAllNotificationsRead(ctx context.Context) error {
	if err := s.notificationRepo.MarkAllRead(ctx); err != nil {
		return internal.NewInternalError("failed to mark notifications read", err)
	}
	return nil
}

// newOrderCode derives a provider-facing numeric order code from the clock
// plus a small random suffix to keep concurrent creations distinct.
func newOrderCode() int64 {
	return time.Now().Unix()*1000 + rand.Int63n(1000)
}
