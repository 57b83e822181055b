package repository

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"oracle-bot-backend/internal/crm/domain"
)

// gormTaskRepository implements TaskRepository using GORM
type gormTaskRepository struct {
	db *gorm.DB
}

// NewGormTaskRepository creates a new GORM-based TaskRepository
func NewGormTaskRepository(db *gorm.DB) TaskRepository {
	db.AutoMigrate(&domain.CrmTask{}, &domain.ContactCounters{})
	return &gormTaskRepository{db: db}
}

func (r *gormTaskRepository) Create(task *domain.CrmTask) error {
	if task.ID == "" {
		task.ID = uuid.New().String()
	}
	if task.Status == "" {
		task.Status = domain.TaskStatusPending
	}
	if task.CreatedAt.IsZero() {
		task.CreatedAt = time.Now().UTC()
	}
	err := r.db.Create(task).Error
	if err != nil && isUniqueViolation(err) {
		return domain.ErrDuplicateTask
	}
	return err
}

func (r *gormTaskRepository) FindByID(id string) (*domain.CrmTask, error) {
	var task domain.CrmTask
	err := r.db.Where("id = ?", id).First(&task).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrTaskNotFound
		}
		return nil, err
	}
	return &task, nil
}

func (r *gormTaskRepository) FindDue(now time.Time, limit int) ([]*domain.CrmTask, error) {
	var tasks []*domain.CrmTask
	err := r.db.
		Where("status = ? AND due_at <= ?", domain.TaskStatusPending, now).
		Order("due_at ASC, created_at ASC").
		Limit(limit).
		Find(&tasks).Error
	return tasks, err
}

func (r *gormTaskRepository) FindTasks(userID *string, status *domain.TaskStatus, limit int) ([]*domain.CrmTask, error) {
	query := r.db.Model(&domain.CrmTask{})
	if userID != nil {
		query = query.Where("user_id = ?", *userID)
	}
	if status != nil {
		query = query.Where("status = ?", *status)
	}
	var tasks []*domain.CrmTask
	err := query.Order("created_at DESC").Limit(limit).Find(&tasks).Error
	return tasks, err
}

// Claim is the dispatcher's synchronization primitive: a single conditional
// UPDATE that succeeds for exactly one caller per task.
func (r *gormTaskRepository) Claim(id string) (bool, error) {
	result := r.db.Model(&domain.CrmTask{}).
		Where("id = ? AND status = ?", id, domain.TaskStatusPending).
		Update("status", domain.TaskStatusSending)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// MarkSent commits the sending -> sent transition and the counter
// increments as one transaction, so concurrent dispatch of different tasks
// for the same user cannot lose counter updates.
func (r *gormTaskRepository) MarkSent(id string, taskType domain.TaskType, userID string, sentAt time.Time) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&domain.CrmTask{}).
			Where("id = ? AND status = ?", id, domain.TaskStatusSending).
			Updates(map[string]interface{}{
				"status":  domain.TaskStatusSent,
				"sent_at": sentAt,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return domain.ErrTaskNotFound
		}

		var counters domain.ContactCounters
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("user_id = ?", userID).
			First(&counters).Error
		if err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			counters = domain.ContactCounters{UserID: userID}
		}
		counters.RecordSent(taskType, sentAt)
		return tx.Save(&counters).Error
	})
}

func (r *gormTaskRepository) MarkFailed(id string, resultCode string) error {
	return r.finalize(id, domain.TaskStatusFailed, resultCode)
}

func (r *gormTaskRepository) MarkBlocked(id string, resultCode string) error {
	return r.finalize(id, domain.TaskStatusBlocked, resultCode)
}

// finalize records a dead terminal outcome. The idempotency key moves to a
// task-scoped value so the (user, type, window) bucket is free again for
// operator redelivery; sent tasks keep their key.
func (r *gormTaskRepository) finalize(id string, status domain.TaskStatus, resultCode string) error {
	result := r.db.Model(&domain.CrmTask{}).
		Where("id = ? AND status = ?", id, domain.TaskStatusSending).
		Updates(map[string]interface{}{
			"status":          status,
			"result_code":     resultCode,
			"idempotency_key": gorm.Expr("idempotency_key || '#' || id"),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrTaskNotFound
	}
	return nil
}

// Cancel loses gracefully against a concurrent claim: the conditional
// UPDATE simply matches no row and the task proceeds to its claimed outcome.
func (r *gormTaskRepository) Cancel(id string) (bool, error) {
	result := r.db.Model(&domain.CrmTask{}).
		Where("id = ? AND status = ?", id, domain.TaskStatusPending).
		Updates(map[string]interface{}{
			"status":          domain.TaskStatusCancelled,
			"idempotency_key": gorm.Expr("idempotency_key || '#' || id"),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *gormTaskRepository) Delete(id string) error {
	result := r.db.
		Where("id = ? AND status = ?", id, domain.TaskStatusPending).
		Delete(&domain.CrmTask{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrTaskNotPending
	}
	return nil
}

// CountByStatusBetween attributes sent tasks to their send instant and every
// other status to its creation instant.
func (r *gormTaskRepository) CountByStatusBetween(status domain.TaskStatus, from, to time.Time) (int64, error) {
	column := "created_at"
	if status == domain.TaskStatusSent {
		column = "sent_at"
	}
	var n int64
	err := r.db.Model(&domain.CrmTask{}).
		Where("status = ? AND "+column+" >= ? AND "+column+" < ?", status, from, to).
		Count(&n).Error
	return n, err
}

// isUniqueViolation matches Postgres unique-constraint errors surfaced
// through the pgx driver.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLSTATE 23505") || strings.Contains(msg, "duplicate key value")
}

// gormContactCounterRepository implements ContactCounterRepository using GORM
type gormContactCounterRepository struct {
	db *gorm.DB
}

// NewGormContactCounterRepository creates a new GORM-based ContactCounterRepository
func NewGormContactCounterRepository(db *gorm.DB) ContactCounterRepository {
	db.AutoMigrate(&domain.ContactCounters{})
	return &gormContactCounterRepository{db: db}
}

func (r *gormContactCounterRepository) Get(userID string) (domain.ContactCounters, error) {
	var counters domain.ContactCounters
	err := r.db.Where("user_id = ?", userID).First(&counters).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ContactCounters{UserID: userID}, nil
		}
		return domain.ContactCounters{}, err
	}
	return counters, nil
}
