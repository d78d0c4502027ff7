package postgres

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	appinternal "github.com/quanlynhankhau/registry-api/internal"
	"github.com/quanlynhankhau/registry-api/internal/core/datamodel/payment"
	paymentpkg "github.com/quanlynhankhau/registry-api/internal/payment"
)

type PaymentRepository struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) paymentpkg.RepositoryAPI {
	return &PaymentRepository{
		db: db,
	}
}

func (r *PaymentRepository) Create(ctx context.Context, p *payment.Payment) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *PaymentRepository) GetByPaymentID(ctx context.Context, paymentID string) (*payment.Payment, error) {
	var p payment.Payment
	err := r.db.WithContext(ctx).Where("payment_id = ?", paymentID).First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, appinternal.ErrPaymentNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *PaymentRepository) GetByOrderCode(ctx context.Context, orderCode int64) (*payment.Payment, error) {
	var p payment.Payment
	err := r.db.WithContext(ctx).Where("order_code = ?", orderCode).First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, appinternal.ErrPaymentNotFound
		}
		return nil, err
	}
	return &p, nil
}

// TransitionToPaid applies the PENDING to PAID transition and the staff
// notification insert in one transaction. The status predicate on the update
// is the idempotency guard: a replayed or racing delivery matches zero rows
// and the whole transaction becomes a no-op.
func (r *PaymentRepository) TransitionToPaid(ctx context.Context, params paymentpkg.TransitionToPaidParams) (bool, error) {
	applied := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		updates := map[string]interface{}{
			"status":     paymentpkg.StatusPaid,
			"paid_at":    params.PaidAt,
			"updated_at": time.Now(),
		}
		if params.PayerName != nil {
			updates["payer_name"] = *params.PayerName
		}
		if params.PayerAccount != nil {
			updates["payer_account"] = *params.PayerAccount
		}
		if params.Payload != nil {
			updates["gateway_payload"] = params.Payload
		}

		result := tx.Model(&payment.Payment{}).
			Where("payment_id = ? AND status = ?", params.PaymentID, paymentpkg.StatusPending).
			Updates(updates)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return nil
		}

		if params.Notification != nil {
			if err := tx.Create(params.Notification).Error; err != nil {
				return err
			}
		}

		applied = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return applied, nil
}

// TransitionToTerminal closes a pending payment as EXPIRED or CANCELLED,
// guarded by the same status predicate.
func (r *PaymentRepository) TransitionToTerminal(ctx context.Context, paymentID, status string, payload []byte) (bool, error) {
	updates := map[string]interface{}{
		"status":     status,
		"updated_at": time.Now(),
	}
	if payload != nil {
		updates["gateway_payload"] = payload
	}

	result := r.db.WithContext(ctx).Model(&payment.Payment{}).
		Where("payment_id = ? AND status = ?", paymentID, paymentpkg.StatusPending).
		Updates(updates)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

type NotificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) paymentpkg.NotificationRepositoryAPI {
	return &NotificationRepository{
		db: db,
	}
}

func (r *NotificationRepository) List(ctx context.Context) ([]*payment.PaymentNotification, error) {
	var notifications []*payment.PaymentNotification
	err := r.db.WithContext(ctx).Order("created_at DESC").Find(&notifications).Error
	return notifications, err
}

func (r *NotificationRepository) UnreadCount(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&payment.PaymentNotification{}).
		Where("is_read = ?", false).Count(&count).Error
	return count, err
}

func (r *NotificationRepository) MarkRead(ctx context.Context, notificationID string) error {
	result := r.db.WithContext(ctx).Model(&payment.PaymentNotification{}).
		Where("notification_id = ?", notificationID).
		Update("is_read", true)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return appinternal.NewNotFoundError("Notification not found", appinternal.ErrCodePaymentNotFound)
	}
	return nil
}

func (r *NotificationRepository) MarkAllRead(ctx context.Context) error {
	return r.db.WithContext(ctx).Model(&payment.PaymentNotification{}).
		Where("is_read = ?", false).
		Update("is_read", true).Error
}
