package domain

import "time"

// Event types recorded in the append-only events log
const (
	EventStart                = "start"
	EventQuestionAsked        = "question_asked"
	EventDailySent            = "daily_sent"
	EventPaymentSuccess       = "payment_success"
	EventMessageFailedBlocked = "message_failed_blocked"
	EventSubscriptionStarted  = "subscription_started"
)

// Event is one append-only product event
type Event struct {
	ID        string    `json:"id" gorm:"primaryKey"`
	UserID    string    `json:"user_id" gorm:"index"`
	Type      string    `json:"type" gorm:"index;not null"`
	Meta      string    `json:"meta,omitempty"`
	CreatedAt time.Time `json:"created_at" gorm:"index"`
}

func (Event) TableName() string {
	return "events"
}

// DailyMetrics is one row of the daily facts table, keyed by UTC date
type DailyMetrics struct {
	Date              time.Time `json:"date" gorm:"primaryKey;type:date"`
	DAU               int64     `json:"dau"`
	NewUsers          int64     `json:"new_users"`
	BlockedTotal      int64     `json:"blocked_total"`
	DailySent         int64     `json:"daily_sent"`
	QuestionsAsked    int64     `json:"questions_asked"`
	PaidActive        int64     `json:"paid_active"`
	PaidNew           int64     `json:"paid_new"`
	Revenue           float64   `json:"revenue"`
	ProactiveSent     int64     `json:"proactive_sent"`
	ProactiveBlocked  int64     `json:"proactive_blocked"`
}

func (DailyMetrics) TableName() string {
	return "fact_daily_metrics"
}
