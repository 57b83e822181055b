package domain

import (
	"errors"
	"time"
)

var ErrNoActiveMessages = errors.New("no active daily messages")

// DailyMessage is one entry of the daily message pool
type DailyMessage struct {
	ID        string    `json:"id" gorm:"primaryKey"`
	Text      string    `json:"text" gorm:"not null"`
	IsActive  bool      `json:"is_active" gorm:"index;default:true"`
	CreatedAt time.Time `json:"created_at"`
}

func (DailyMessage) TableName() string {
	return "daily_messages"
}

// DailySent records one delivery, keyed to a UTC date so each user gets at
// most one daily message per day
type DailySent struct {
	ID        string    `json:"id" gorm:"primaryKey"`
	UserID    string    `json:"user_id" gorm:"index;not null;uniqueIndex:idx_daily_sent_user_date"`
	MessageID string    `json:"message_id"`
	SentDate  string    `json:"sent_date" gorm:"not null;uniqueIndex:idx_daily_sent_user_date"`
	SentAt    time.Time `json:"sent_at"`
}

func (DailySent) TableName() string {
	return "daily_sent"
}
