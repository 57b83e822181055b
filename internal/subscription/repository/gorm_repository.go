package repository

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"oracle-bot-backend/internal/subscription/domain"
)

// gormSubscriptionRepository implements SubscriptionRepository using GORM
type gormSubscriptionRepository struct {
	db *gorm.DB
}

// NewGormSubscriptionRepository creates a new GORM-based SubscriptionRepository
func NewGormSubscriptionRepository(db *gorm.DB) SubscriptionRepository {
	db.AutoMigrate(&domain.Subscription{})
	return &gormSubscriptionRepository{db: db}
}

func (r *gormSubscriptionRepository) GetActive(userID string, now time.Time) (*domain.Subscription, error) {
	var sub domain.Subscription
	err := r.db.
		Where("user_id = ? AND status = ? AND ends_at > ?", userID, domain.SubscriptionActive, now).
		Order("ends_at DESC").
		First(&sub).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &sub, nil
}

func (r *gormSubscriptionRepository) Create(sub *domain.Subscription) error {
	if sub.ID == "" {
		sub.ID = uuid.New().String()
	}
	if sub.Status == "" {
		sub.Status = domain.SubscriptionActive
	}
	return r.db.Create(sub).Error
}

func (r *gormSubscriptionRepository) Extend(userID string, days int, now time.Time) error {
	return r.db.Model(&domain.Subscription{}).
		Where("user_id = ? AND status = ?", userID, domain.SubscriptionActive).
		Update("ends_at", gorm.Expr(
			"GREATEST(ends_at, ?::timestamptz) + make_interval(days => ?)", now, days)).Error
}

func (r *gormSubscriptionRepository) CountActiveAt(now time.Time) (int64, error) {
	var n int64
	err := r.db.Model(&domain.Subscription{}).
		Where("status = ? AND ends_at > ?", domain.SubscriptionActive, now).
		Count(&n).Error
	return n, err
}

func (r *gormSubscriptionRepository) CountStartedBetween(from, to time.Time) (int64, error) {
	var n int64
	err := r.db.Model(&domain.Subscription{}).
		Where("starts_at >= ? AND starts_at < ?", from, to).
		Count(&n).Error
	return n, err
}

// gormPaymentRepository implements PaymentRepository using GORM
type gormPaymentRepository struct {
	db *gorm.DB
}

// NewGormPaymentRepository creates a new GORM-based PaymentRepository
func NewGormPaymentRepository(db *gorm.DB) PaymentRepository {
	db.AutoMigrate(&domain.Payment{})
	return &gormPaymentRepository{db: db}
}

func (r *gormPaymentRepository) Create(payment *domain.Payment) error {
	if payment.ID == "" {
		payment.ID = uuid.New().String()
	}
	if payment.Status == "" {
		payment.Status = domain.PaymentPending
	}
	return r.db.Create(payment).Error
}

func (r *gormPaymentRepository) FindByInvID(invID string) (*domain.Payment, error) {
	var payment domain.Payment
	err := r.db.Where("inv_id = ?", invID).First(&payment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrPaymentNotFound
		}
		return nil, err
	}
	return &payment, nil
}

// MarkSuccess is conditional on the pending status so a replayed Robokassa
// callback cannot activate the same invoice twice.
func (r *gormPaymentRepository) MarkSuccess(invID string, paidAt time.Time, rawPayload string) (bool, error) {
	result := r.db.Model(&domain.Payment{}).
		Where("inv_id = ? AND status = ?", invID, domain.PaymentPending).
		Updates(map[string]interface{}{
			"status":      domain.PaymentSuccess,
			"paid_at":     paidAt,
			"raw_payload": rawPayload,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *gormPaymentRepository) MarkFailed(invID string) error {
	return r.db.Model(&domain.Payment{}).
		Where("inv_id = ? AND status = ?", invID, domain.PaymentPending).
		Update("status", domain.PaymentFailed).Error
}

func (r *gormPaymentRepository) SumRevenueBetween(from, to time.Time) (float64, error) {
	var total float64
	err := r.db.Model(&domain.Payment{}).
		Where("status = ? AND paid_at >= ? AND paid_at < ?", domain.PaymentSuccess, from, to).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&total).Error
	return total, err
}
