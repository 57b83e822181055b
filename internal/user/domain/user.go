package domain

import (
	"errors"
	"time"
)

// Gender values collected during onboarding
const (
	GenderMale   = "male"
	GenderFemale = "female"
)

var (
	ErrUserNotFound    = errors.New("user not found")
	ErrNoFreeQuestions = errors.New("no free questions left")
)

// User is one Telegram account known to the bot
type User struct {
	ID                string     `json:"id" gorm:"primaryKey"`
	TelegramID        int64      `json:"telegram_id" gorm:"uniqueIndex;not null"`
	Username          string     `json:"username,omitempty"`
	Age               int        `json:"age,omitempty"`
	Gender            string     `json:"gender,omitempty"`
	FreeQuestionsLeft int        `json:"free_questions_left"`
	IsBlocked         bool       `json:"is_blocked" gorm:"index"`
	BlockedAt         *time.Time `json:"blocked_at,omitempty"`
	FirstSeenAt       time.Time  `json:"first_seen_at"`
	LastSeenAt        time.Time  `json:"last_seen_at" gorm:"index"`
}

func (User) TableName() string {
	return "users"
}

// Onboarded reports whether the questionnaire was completed
func (u *User) Onboarded() bool {
	return u.Age > 0 && u.Gender != ""
}
