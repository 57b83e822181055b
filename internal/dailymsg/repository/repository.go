package repository

import (
	"time"

	"oracle-bot-backend/internal/dailymsg/domain"
)

// DailyMessageRepository defines daily message persistence operations
type DailyMessageRepository interface {
	// GetRandomActive picks one active message uniformly at random. It
	// returns domain.ErrNoActiveMessages when the pool is empty.
	GetRandomActive() (*domain.DailyMessage, error)
	Add(message *domain.DailyMessage) error
	ListActive() ([]*domain.DailyMessage, error)

	// MarkSent records a delivery for the UTC date of sentAt. It reports
	// false when the user already received a message that day.
	MarkSent(userID, messageID string, sentAt time.Time) (bool, error)
	IsSentOn(userID string, date time.Time) (bool, error)
	CountSentOn(date time.Time) (int64, error)
}
