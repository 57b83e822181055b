package repository

import (
	"time"

	"oracle-bot-backend/internal/user/domain"
)

// UserRepository defines user persistence operations
type UserRepository interface {
	// GetOrCreate returns the user for telegramID, creating it with the
	// given free-question allowance on first contact. The bool reports
	// whether a new row was created.
	GetOrCreate(telegramID int64, username string, freeQuestions int, now time.Time) (*domain.User, bool, error)
	FindByID(id string) (*domain.User, error)
	FindByTelegramID(telegramID int64) (*domain.User, error)
	ListUsers(limit, offset int) ([]*domain.User, int64, error)

	UpdateProfile(id string, age int, gender string) error
	TouchLastSeen(id string, at time.Time) error

	SetBlocked(id string, at time.Time) error
	ClearBlocked(id string) error

	// DecrementFreeQuestions atomically consumes one free question. It
	// reports false when none remain; concurrent callers never overdraw.
	DecrementFreeQuestions(id string) (bool, error)

	// ListInactiveSince returns ids of non-blocked users whose last
	// activity predates cutoff.
	ListInactiveSince(cutoff time.Time, limit int) ([]string, error)
	// ListWithUnusedFreeQuestions returns ids of non-blocked users who
	// started on the free allowance but have questions remaining.
	ListWithUnusedFreeQuestions(total int, limit int) ([]string, error)

	CountAll() (int64, error)
	CountBlocked() (int64, error)
	CountNewBetween(from, to time.Time) (int64, error)
}
