package repository

import (
	"time"

	"oracle-bot-backend/internal/question/domain"
)

// QuestionRepository defines question persistence operations
type QuestionRepository interface {
	Save(question *domain.Question) error
	// CountSince counts a user's questions of one source created at or
	// after since.
	CountSince(userID, source string, since time.Time) (int64, error)
	CountBetween(from, to time.Time) (int64, error)
	ListRecent(userID string, limit int) ([]*domain.Question, error)
}
