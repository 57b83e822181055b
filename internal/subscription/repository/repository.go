package repository

import (
	"time"

	"oracle-bot-backend/internal/subscription/domain"
)

// SubscriptionRepository defines subscription persistence operations
type SubscriptionRepository interface {
	// GetActive returns the subscription covering now, or nil when none.
	GetActive(userID string, now time.Time) (*domain.Subscription, error)
	Create(sub *domain.Subscription) error
	// Extend pushes the active subscription's end forward by days,
	// counting from whichever is later: the current end or now.
	Extend(userID string, days int, now time.Time) error
	CountActiveAt(now time.Time) (int64, error)
	CountStartedBetween(from, to time.Time) (int64, error)
}

// PaymentRepository defines payment persistence operations
type PaymentRepository interface {
	Create(payment *domain.Payment) error
	FindByInvID(invID string) (*domain.Payment, error)
	// MarkSuccess finalizes a pending payment. It reports false when the
	// payment was already finalized, which makes callback replays no-ops.
	MarkSuccess(invID string, paidAt time.Time, rawPayload string) (bool, error)
	MarkFailed(invID string) error
	SumRevenueBetween(from, to time.Time) (float64, error)
}
