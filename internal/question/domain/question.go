package domain

import "time"

// Question sources
const (
	SourceFree = "FREE" // answered by the Administrator from the free allowance
	SourceSub  = "SUB"  // answered by the Oracle under a subscription
)

// Denial reasons returned to the bot layer
const (
	DeniedFreeExhausted = "free_exhausted"
	DeniedOracleLimit   = "oracle_limit"
)

// Question is one answered user question
type Question struct {
	ID        string    `json:"id" gorm:"primaryKey"`
	UserID    string    `json:"user_id" gorm:"index;not null"`
	Source    string    `json:"source" gorm:"index;not null"`
	Question  string    `json:"question"`
	Answer    string    `json:"answer"`
	Tokens    int       `json:"tokens"`
	CreatedAt time.Time `json:"created_at" gorm:"index"`
}

func (Question) TableName() string {
	return "questions"
}
