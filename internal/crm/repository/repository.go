package repository

import (
	"time"

	"oracle-bot-backend/internal/crm/domain"
)

// TaskRepository is the persistence boundary for CRM tasks. Create and the
// status transitions are atomic conditional operations: they are the only
// synchronization the planner and dispatcher rely on, so overlapping runs
// coordinate purely through the store.
type TaskRepository interface {
	// Create inserts a new pending task. Returns domain.ErrDuplicateTask
	// when a task with the same idempotency key already exists.
	Create(task *domain.CrmTask) error

	// FindByID returns the task or domain.ErrTaskNotFound.
	FindByID(id string) (*domain.CrmTask, error)

	// FindDue lists pending tasks with due_at <= now, ordered by due_at
	// ascending, ties broken by created_at ascending.
	FindDue(now time.Time, limit int) ([]*domain.CrmTask, error)

	// FindTasks lists tasks for admin inspection, optionally filtered.
	FindTasks(userID *string, status *domain.TaskStatus, limit int) ([]*domain.CrmTask, error)

	// Claim attempts the conditional transition pending -> sending.
	// Returns false when the task was already claimed, finished or
	// cancelled by a concurrent actor.
	Claim(id string) (bool, error)

	// MarkSent finalizes a claimed task as sent and applies the contact
	// counter increments in the same transaction.
	MarkSent(id string, taskType domain.TaskType, userID string, sentAt time.Time) error

	// MarkFailed finalizes a claimed task as failed with a result code and
	// releases its idempotency bucket for redelivery.
	MarkFailed(id string, resultCode string) error

	// MarkBlocked finalizes a claimed task as blocked with a result code
	// and releases its idempotency bucket. Counters are not touched.
	MarkBlocked(id string, resultCode string) error

	// Cancel attempts the conditional transition pending -> cancelled,
	// releasing the idempotency bucket on success. Returns false when a
	// dispatcher already owns the task.
	Cancel(id string) (bool, error)

	// Delete removes a task that is still pending. Returns
	// domain.ErrTaskNotPending when the task has been claimed or finished.
	Delete(id string) error

	// CountByStatusBetween counts tasks in status over [from, to), by
	// sent_at for sent tasks and created_at for everything else.
	CountByStatusBetween(status domain.TaskStatus, from, to time.Time) (int64, error)
}

// ContactCounterRepository reads the per-user contact aggregates. Writes
// happen only through TaskRepository.MarkSent so the counter increment and
// the sent transition commit together.
type ContactCounterRepository interface {
	// Get returns the user's counters, or zero counters when the user has
	// never been contacted.
	Get(userID string) (domain.ContactCounters, error)
}
