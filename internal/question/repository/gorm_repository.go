package repository

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"oracle-bot-backend/internal/question/domain"
)

// gormQuestionRepository implements QuestionRepository using GORM
type gormQuestionRepository struct {
	db *gorm.DB
}

// NewGormQuestionRepository creates a new GORM-based QuestionRepository
func NewGormQuestionRepository(db *gorm.DB) QuestionRepository {
	db.AutoMigrate(&domain.Question{})
	return &gormQuestionRepository{db: db}
}

func (r *gormQuestionRepository) Save(question *domain.Question) error {
	if question.ID == "" {
		question.ID = uuid.New().String()
	}
	if question.CreatedAt.IsZero() {
		question.CreatedAt = time.Now().UTC()
	}
	return r.db.Create(question).Error
}

func (r *gormQuestionRepository) CountSince(userID, source string, since time.Time) (int64, error) {
	var n int64
	err := r.db.Model(&domain.Question{}).
		Where("user_id = ? AND source = ? AND created_at >= ?", userID, source, since).
		Count(&n).Error
	return n, err
}

func (r *gormQuestionRepository) CountBetween(from, to time.Time) (int64, error) {
	var n int64
	err := r.db.Model(&domain.Question{}).
		Where("created_at >= ? AND created_at < ?", from, to).
		Count(&n).Error
	return n, err
}

func (r *gormQuestionRepository) ListRecent(userID string, limit int) ([]*domain.Question, error) {
	var questions []*domain.Question
	err := r.db.
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&questions).Error
	return questions, err
}
