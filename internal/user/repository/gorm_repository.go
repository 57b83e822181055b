package repository

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"oracle-bot-backend/internal/user/domain"
)

// gormUserRepository implements UserRepository using GORM
type gormUserRepository struct {
	db *gorm.DB
}

// NewGormUserRepository creates a new GORM-based UserRepository
func NewGormUserRepository(db *gorm.DB) UserRepository {
	db.AutoMigrate(&domain.User{})
	return &gormUserRepository{db: db}
}

func (r *gormUserRepository) GetOrCreate(telegramID int64, username string, freeQuestions int, now time.Time) (*domain.User, bool, error) {
	user, err := r.FindByTelegramID(telegramID)
	if err == nil {
		return user, false, nil
	}
	if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, false, err
	}

	user = &domain.User{
		ID:                uuid.New().String(),
		TelegramID:        telegramID,
		Username:          username,
		FreeQuestionsLeft: freeQuestions,
		FirstSeenAt:       now,
		LastSeenAt:        now,
	}
	if err := r.db.Create(user).Error; err != nil {
		// Lost a create race: the row exists now, read it back.
		existing, findErr := r.FindByTelegramID(telegramID)
		if findErr == nil {
			return existing, false, nil
		}
		return nil, false, err
	}
	return user, true, nil
}

func (r *gormUserRepository) FindByID(id string) (*domain.User, error) {
	var user domain.User
	err := r.db.Where("id = ?", id).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *gormUserRepository) FindByTelegramID(telegramID int64) (*domain.User, error) {
	var user domain.User
	err := r.db.Where("telegram_id = ?", telegramID).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *gormUserRepository) ListUsers(limit, offset int) ([]*domain.User, int64, error) {
	var total int64
	if err := r.db.Model(&domain.User{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var users []*domain.User
	err := r.db.Order("first_seen_at DESC").Limit(limit).Offset(offset).Find(&users).Error
	return users, total, err
}

func (r *gormUserRepository) UpdateProfile(id string, age int, gender string) error {
	return r.db.Model(&domain.User{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"age": age, "gender": gender}).Error
}

func (r *gormUserRepository) TouchLastSeen(id string, at time.Time) error {
	return r.db.Model(&domain.User{}).
		Where("id = ?", id).
		Update("last_seen_at", at).Error
}

func (r *gormUserRepository) SetBlocked(id string, at time.Time) error {
	return r.db.Model(&domain.User{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"is_blocked": true, "blocked_at": at}).Error
}

func (r *gormUserRepository) ClearBlocked(id string) error {
	return r.db.Model(&domain.User{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"is_blocked": false, "blocked_at": nil}).Error
}

// DecrementFreeQuestions relies on a conditional UPDATE so two concurrent
// questions cannot both consume the last free slot.
func (r *gormUserRepository) DecrementFreeQuestions(id string) (bool, error) {
	result := r.db.Model(&domain.User{}).
		Where("id = ? AND free_questions_left > 0", id).
		Update("free_questions_left", gorm.Expr("free_questions_left - 1"))
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *gormUserRepository) ListInactiveSince(cutoff time.Time, limit int) ([]string, error) {
	var ids []string
	err := r.db.Model(&domain.User{}).
		Where("is_blocked = ? AND last_seen_at < ?", false, cutoff).
		Order("last_seen_at ASC").
		Limit(limit).
		Pluck("id", &ids).Error
	return ids, err
}

func (r *gormUserRepository) ListWithUnusedFreeQuestions(total int, limit int) ([]string, error) {
	var ids []string
	err := r.db.Model(&domain.User{}).
		Where("is_blocked = ? AND free_questions_left > 0 AND free_questions_left < ?", false, total).
		Order("last_seen_at ASC").
		Limit(limit).
		Pluck("id", &ids).Error
	return ids, err
}

func (r *gormUserRepository) CountAll() (int64, error) {
	var n int64
	err := r.db.Model(&domain.User{}).Count(&n).Error
	return n, err
}

func (r *gormUserRepository) CountBlocked() (int64, error) {
	var n int64
	err := r.db.Model(&domain.User{}).Where("is_blocked = ?", true).Count(&n).Error
	return n, err
}

func (r *gormUserRepository) CountNewBetween(from, to time.Time) (int64, error) {
	var n int64
	err := r.db.Model(&domain.User{}).
		Where("first_seen_at >= ? AND first_seen_at < ?", from, to).
		Count(&n).Error
	return n, err
}
