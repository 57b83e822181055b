package repository

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"oracle-bot-backend/internal/dailymsg/domain"
)

// gormDailyMessageRepository implements DailyMessageRepository using GORM
type gormDailyMessageRepository struct {
	db *gorm.DB
}

// NewGormDailyMessageRepository creates a new GORM-based DailyMessageRepository
func NewGormDailyMessageRepository(db *gorm.DB) DailyMessageRepository {
	db.AutoMigrate(&domain.DailyMessage{}, &domain.DailySent{})
	return &gormDailyMessageRepository{db: db}
}

func (r *gormDailyMessageRepository) GetRandomActive() (*domain.DailyMessage, error) {
	var message domain.DailyMessage
	err := r.db.
		Where("is_active = ?", true).
		Order("RANDOM()").
		First(&message).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNoActiveMessages
		}
		return nil, err
	}
	return &message, nil
}

func (r *gormDailyMessageRepository) Add(message *domain.DailyMessage) error {
	if message.ID == "" {
		message.ID = uuid.New().String()
	}
	if message.CreatedAt.IsZero() {
		message.CreatedAt = time.Now().UTC()
	}
	return r.db.Create(message).Error
}

func (r *gormDailyMessageRepository) ListActive() ([]*domain.DailyMessage, error) {
	var messages []*domain.DailyMessage
	err := r.db.Where("is_active = ?", true).Find(&messages).Error
	return messages, err
}

// MarkSent leans on the (user_id, sent_date) unique index, so the
// once-per-day guarantee holds under concurrent sends.
func (r *gormDailyMessageRepository) MarkSent(userID, messageID string, sentAt time.Time) (bool, error) {
	record := &domain.DailySent{
		ID:        uuid.New().String(),
		UserID:    userID,
		MessageID: messageID,
		SentDate:  sentAt.UTC().Format("2006-01-02"),
		SentAt:    sentAt.UTC(),
	}
	err := r.db.Create(record).Error
	if err != nil {
		if isUniqueViolation(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (r *gormDailyMessageRepository) IsSentOn(userID string, date time.Time) (bool, error) {
	var n int64
	err := r.db.Model(&domain.DailySent{}).
		Where("user_id = ? AND sent_date = ?", userID, date.UTC().Format("2006-01-02")).
		Count(&n).Error
	return n > 0, err
}

func (r *gormDailyMessageRepository) CountSentOn(date time.Time) (int64, error) {
	var n int64
	err := r.db.Model(&domain.DailySent{}).
		Where("sent_date = ?", date.UTC().Format("2006-01-02")).
		Count(&n).Error
	return n, err
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLSTATE 23505") || strings.Contains(msg, "duplicate key value")
}
