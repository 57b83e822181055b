package domain

import (
	"fmt"
	"time"
)

// TaskType tags the kind of proactive contact a task represents
type TaskType string

const (
	TaskTypeNudge    TaskType = "nudge"    // re-engage an inactive user
	TaskTypeReminder TaskType = "reminder" // remind about remaining free questions or expiring subscription
	TaskTypeThanks   TaskType = "thanks"   // thank a user after a question
)

// Valid reports whether t is a known task type
func (t TaskType) Valid() bool {
	switch t {
	case TaskTypeNudge, TaskTypeReminder, TaskTypeThanks:
		return true
	}
	return false
}

// TaskStatus is the finite state of a CRM task:
// pending -> sending -> {sent | failed | blocked}; pending -> cancelled.
type TaskStatus string

const (
	TaskStatusPending   TaskStatus = "pending"
	TaskStatusSending   TaskStatus = "sending" // transient claimed state
	TaskStatusSent      TaskStatus = "sent"
	TaskStatusFailed    TaskStatus = "failed"
	TaskStatusBlocked   TaskStatus = "blocked"
	TaskStatusCancelled TaskStatus = "cancelled"
)

// Terminal reports whether s admits no further transitions
func (s TaskStatus) Terminal() bool {
	switch s {
	case TaskStatusSent, TaskStatusFailed, TaskStatusBlocked, TaskStatusCancelled:
		return true
	}
	return false
}

// Result codes recorded on failed/blocked tasks
const (
	ResultRecipientBlocked = "recipient_blocked"
	ResultSendError        = "send_error"
	ResultRenderError      = "render_error"
	ResultInternalError    = "internal_error"
)

// CrmTask is one planned proactive contact. It references its recipient by
// user id only; counters are a separate per-user aggregate.
type CrmTask struct {
	ID             string     `json:"id" gorm:"primaryKey"`
	UserID         string     `json:"user_id" gorm:"index;not null"`
	Type           TaskType   `json:"type" gorm:"not null"`
	Status         TaskStatus `json:"status" gorm:"index;default:pending"`
	DueAt          time.Time  `json:"due_at" gorm:"index;not null"`
	CreatedAt      time.Time  `json:"created_at"`
	SentAt         *time.Time `json:"sent_at,omitempty"`
	ResultCode     string     `json:"result_code,omitempty"`
	// Unique per (user, type, window) while the task is live or sent.
	// Failed, blocked and cancelled tasks move to a task-scoped key so the
	// bucket reopens for redelivery.
	IdempotencyKey string `json:"idempotency_key" gorm:"uniqueIndex;not null"`
	Payload        string     `json:"payload,omitempty"`
}

func (CrmTask) TableName() string {
	return "crm_tasks"
}

// IdempotencyKey derives the unique creation key for (user, type, window
// bucket). Nudges bucket by ISO week (their cap rolls over 7 days); all other
// types bucket by UTC day. Two planner runs inside the same bucket therefore
// collide on insert instead of duplicating the contact.
func IdempotencyKey(userID string, taskType TaskType, now time.Time) string {
	utc := now.UTC()
	if taskType == TaskTypeNudge {
		year, week := utc.ISOWeek()
		return fmt.Sprintf("%s:%s:%04d-W%02d", userID, taskType, year, week)
	}
	return fmt.Sprintf("%s:%s:%s", userID, taskType, utc.Format("2006-01-02"))
}
