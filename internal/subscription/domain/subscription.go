package domain

import (
	"errors"
	"time"
)

// PlanCode identifies a subscription plan
type PlanCode string

const (
	PlanDay   PlanCode = "DAY"
	PlanWeek  PlanCode = "WEEK"
	PlanMonth PlanCode = "MONTH"
)

// Valid reports whether p is a known plan
func (p PlanCode) Valid() bool {
	switch p {
	case PlanDay, PlanWeek, PlanMonth:
		return true
	}
	return false
}

// Price returns the plan price in RUB
func (p PlanCode) Price() float64 {
	switch p {
	case PlanDay:
		return 99
	case PlanWeek:
		return 299
	case PlanMonth:
		return 899
	}
	return 0
}

// Days returns the plan duration
func (p PlanCode) Days() int {
	switch p {
	case PlanDay:
		return 1
	case PlanWeek:
		return 7
	case PlanMonth:
		return 30
	}
	return 0
}

var (
	ErrPaymentNotFound    = errors.New("payment not found")
	ErrUnknownPlan        = errors.New("unknown plan")
	ErrInvalidSignature   = errors.New("invalid payment signature")
	ErrPaymentNotPending  = errors.New("payment is not pending")
)

// Subscription statuses
const (
	SubscriptionActive  = "active"
	SubscriptionExpired = "expired"
)

// Subscription grants Oracle access until EndsAt
type Subscription struct {
	ID             string    `json:"id" gorm:"primaryKey"`
	UserID         string    `json:"user_id" gorm:"index;not null"`
	PlanCode       PlanCode  `json:"plan_code" gorm:"not null"`
	Status         string    `json:"status" gorm:"index;default:active"`
	StartsAt       time.Time `json:"starts_at"`
	EndsAt         time.Time `json:"ends_at" gorm:"index"`
	RobokassaInvID string    `json:"robokassa_inv_id,omitempty"`
	Amount         float64   `json:"amount"`
}

func (Subscription) TableName() string {
	return "subscriptions"
}

// ActiveAt reports whether the subscription grants access at t
func (s *Subscription) ActiveAt(t time.Time) bool {
	return s.Status == SubscriptionActive && s.EndsAt.After(t)
}

// Payment statuses
const (
	PaymentPending = "pending"
	PaymentSuccess = "success"
	PaymentFailed  = "failed"
)

// Payment is one Robokassa invoice
type Payment struct {
	ID         string     `json:"id" gorm:"primaryKey"`
	UserID     string     `json:"user_id" gorm:"index;not null"`
	InvID      string     `json:"inv_id" gorm:"uniqueIndex;not null"`
	PlanCode   PlanCode   `json:"plan_code" gorm:"not null"`
	Amount     float64    `json:"amount"`
	Status     string     `json:"status" gorm:"index;default:pending"`
	CreatedAt  time.Time  `json:"created_at"`
	PaidAt     *time.Time `json:"paid_at,omitempty"`
	RawPayload string     `json:"raw_payload,omitempty"`
}

func (Payment) TableName() string {
	return "payments"
}
