package usecase

import (
	"errors"
	"fmt"
	"log"
	"time"

	"oracle-bot-backend/internal/crm/domain"
	"oracle-bot-backend/internal/crm/repository"
)

// MessageSender delivers one rendered message. It returns nil on success,
// domain.ErrRecipientBlocked when the recipient has blocked the bot, or any
// other error for a transient failure. It is invoked at most once per
// dispatch attempt per task.
type MessageSender interface {
	Send(userID string, content string) error
}

// MessageRenderer produces the outbound text for a task. Content is opaque
// to the dispatcher.
type MessageRenderer interface {
	Render(task *domain.CrmTask) (string, error)
}

// BlockRecorder persists an externally detected recipient block so future
// planning excludes the user.
type BlockRecorder interface {
	SetBlocked(userID string) error
}

// DispatchResult aggregates one dispatch run.
type DispatchResult struct {
	Sent    int `json:"sent"`
	Failed  int `json:"failed"`
	Blocked int `json:"blocked"`
}

// Dispatcher delivers due tasks. Concurrent runs are safe: the atomic claim
// (pending -> sending) guarantees each task is sent at most once, and each
// task is processed in isolation so one failure never aborts the batch.
type Dispatcher struct {
	tasks      repository.TaskRepository
	renderer   MessageRenderer
	sender     MessageSender
	blocks     BlockDetector
	blockSink  BlockRecorder
	batchLimit int
	clock      func() time.Time
}

// NewDispatcher creates a Dispatcher. A nil clock defaults to time.Now;
// blockSink may be nil when block persistence is handled elsewhere.
func NewDispatcher(
	tasks repository.TaskRepository,
	renderer MessageRenderer,
	sender MessageSender,
	blocks BlockDetector,
	blockSink BlockRecorder,
	batchLimit int,
	clock func() time.Time,
) *Dispatcher {
	if clock == nil {
		clock = time.Now
	}
	if batchLimit <= 0 {
		batchLimit = 100
	}
	return &Dispatcher{
		tasks:      tasks,
		renderer:   renderer,
		sender:     sender,
		blocks:     blocks,
		blockSink:  blockSink,
		batchLimit: batchLimit,
		clock:      clock,
	}
}

// Run claims and delivers tasks due at the time of invocation, earliest due
// first. Failed tasks stay terminal; redelivery is an explicit operator
// action that creates a new task.
func (d *Dispatcher) Run() (*DispatchResult, error) {
	now := d.clock().UTC()
	due, err := d.tasks.FindDue(now, d.batchLimit)
	if err != nil {
		return nil, fmt.Errorf("list due tasks: %w", err)
	}

	result := &DispatchResult{}
	for _, task := range due {
		if err := d.dispatchOne(task, result); err != nil {
			return nil, err
		}
	}

	if len(due) > 0 {
		log.Printf("[CRM Dispatcher] due=%d sent=%d failed=%d blocked=%d",
			len(due), result.Sent, result.Failed, result.Blocked)
	}
	return result, nil
}

// dispatchOne processes a single task. Only storage unavailability is
// returned as an error; every other failure is contained in the task record.
func (d *Dispatcher) dispatchOne(task *domain.CrmTask, result *DispatchResult) error {
	claimed, err := d.tasks.Claim(task.ID)
	if err != nil {
		return fmt.Errorf("claim task %s: %w", task.ID, err)
	}
	if !claimed {
		// A concurrent dispatcher owns it, or it was cancelled.
		return nil
	}

	outcome := d.attempt(task)

	switch outcome.status {
	case domain.TaskStatusSent:
		if err := d.tasks.MarkSent(task.ID, task.Type, task.UserID, outcome.sentAt); err != nil {
			return fmt.Errorf("mark task %s sent: %w", task.ID, err)
		}
		result.Sent++
	case domain.TaskStatusBlocked:
		if err := d.tasks.MarkBlocked(task.ID, outcome.resultCode); err != nil {
			return fmt.Errorf("mark task %s blocked: %w", task.ID, err)
		}
		result.Blocked++
	default:
		if err := d.tasks.MarkFailed(task.ID, outcome.resultCode); err != nil {
			return fmt.Errorf("mark task %s failed: %w", task.ID, err)
		}
		result.Failed++
	}
	return nil
}

type attemptOutcome struct {
	status     domain.TaskStatus
	resultCode string
	sentAt     time.Time
}

// attempt runs the block check, render and send for one claimed task. A
// panic anywhere inside is converted into a failed outcome so the batch
// survives.
func (d *Dispatcher) attempt(task *domain.CrmTask) (outcome attemptOutcome) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[CRM Dispatcher] panic dispatching task %s: %v", task.ID, r)
			outcome = attemptOutcome{status: domain.TaskStatusFailed, resultCode: domain.ResultInternalError}
		}
	}()

	blocked, err := d.blocks.IsBlocked(task.UserID)
	if err != nil {
		log.Printf("[CRM Dispatcher] block check failed for task %s: %v", task.ID, err)
		return attemptOutcome{status: domain.TaskStatusFailed, resultCode: domain.ResultInternalError}
	}
	if blocked {
		return attemptOutcome{status: domain.TaskStatusBlocked, resultCode: domain.ResultRecipientBlocked}
	}

	content, err := d.renderer.Render(task)
	if err != nil {
		log.Printf("[CRM Dispatcher] render failed for task %s: %v", task.ID, err)
		return attemptOutcome{status: domain.TaskStatusFailed, resultCode: domain.ResultRenderError}
	}

	err = d.sender.Send(task.UserID, content)
	if err == nil {
		return attemptOutcome{status: domain.TaskStatusSent, sentAt: d.clock().UTC()}
	}
	if errors.Is(err, domain.ErrRecipientBlocked) {
		d.recordBlock(task.UserID)
		return attemptOutcome{status: domain.TaskStatusBlocked, resultCode: domain.ResultRecipientBlocked}
	}
	log.Printf("[CRM Dispatcher] send failed for task %s: %v", task.ID, err)
	return attemptOutcome{status: domain.TaskStatusFailed, resultCode: domain.ResultSendError}
}

func (d *Dispatcher) recordBlock(userID string) {
	if d.blockSink == nil {
		return
	}
	if err := d.blockSink.SetBlocked(userID); err != nil {
		log.Printf("[CRM Dispatcher] failed to record block for user %s: %v", userID, err)
	}
}
