package usecase

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"oracle-bot-backend/internal/crm/domain"
)

// fakeTaskRepo mimics the store's atomic conditional operations in memory.
// The mutex makes every operation atomic, which is exactly the contract the
// real store provides via unique indexes and conditional UPDATEs.
type fakeTaskRepo struct {
	mu       sync.Mutex
	tasks    map[string]*domain.CrmTask
	byKey    map[string]string
	counters map[string]*domain.ContactCounters
	seq      int
	failAll  bool
}

func newFakeTaskRepo() *fakeTaskRepo {
	return &fakeTaskRepo{
		tasks:    make(map[string]*domain.CrmTask),
		byKey:    make(map[string]string),
		counters: make(map[string]*domain.ContactCounters),
	}
}

var errStoreDown = errors.New("store unavailable")

func (r *fakeTaskRepo) Create(task *domain.CrmTask) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failAll {
		return errStoreDown
	}
	if _, exists := r.byKey[task.IdempotencyKey]; exists {
		return domain.ErrDuplicateTask
	}
	if task.ID == "" {
		r.seq++
		task.ID = fmt.Sprintf("task-%d", r.seq)
	}
	clone := *task
	r.tasks[task.ID] = &clone
	r.byKey[task.IdempotencyKey] = task.ID
	return nil
}

func (r *fakeTaskRepo) FindByID(id string) (*domain.CrmTask, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	task, ok := r.tasks[id]
	if !ok {
		return nil, domain.ErrTaskNotFound
	}
	clone := *task
	return &clone, nil
}

func (r *fakeTaskRepo) FindDue(now time.Time, limit int) ([]*domain.CrmTask, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failAll {
		return nil, errStoreDown
	}
	var due []*domain.CrmTask
	for _, task := range r.tasks {
		if task.Status == domain.TaskStatusPending && !task.DueAt.After(now) {
			clone := *task
			due = append(due, &clone)
		}
	}
	// due_at asc, created_at asc
	for i := 0; i < len(due); i++ {
		for j := i + 1; j < len(due); j++ {
			a, b := due[i], due[j]
			if b.DueAt.Before(a.DueAt) || (b.DueAt.Equal(a.DueAt) && b.CreatedAt.Before(a.CreatedAt)) {
				due[i], due[j] = due[j], due[i]
			}
		}
	}
	if len(due) > limit {
		due = due[:limit]
	}
	return due, nil
}

func (r *fakeTaskRepo) FindTasks(userID *string, status *domain.TaskStatus, limit int) ([]*domain.CrmTask, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.CrmTask
	for _, task := range r.tasks {
		if userID != nil && task.UserID != *userID {
			continue
		}
		if status != nil && task.Status != *status {
			continue
		}
		clone := *task
		out = append(out, &clone)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (r *fakeTaskRepo) Claim(id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	task, ok := r.tasks[id]
	if !ok || task.Status != domain.TaskStatusPending {
		return false, nil
	}
	task.Status = domain.TaskStatusSending
	return true, nil
}

func (r *fakeTaskRepo) MarkSent(id string, taskType domain.TaskType, userID string, sentAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	task, ok := r.tasks[id]
	if !ok || task.Status != domain.TaskStatusSending {
		return domain.ErrTaskNotFound
	}
	task.Status = domain.TaskStatusSent
	ts := sentAt
	task.SentAt = &ts

	counters, ok := r.counters[userID]
	if !ok {
		counters = &domain.ContactCounters{UserID: userID}
		r.counters[userID] = counters
	}
	counters.RecordSent(taskType, sentAt)
	return nil
}

func (r *fakeTaskRepo) MarkFailed(id string, resultCode string) error {
	return r.finalize(id, domain.TaskStatusFailed, resultCode)
}

func (r *fakeTaskRepo) MarkBlocked(id string, resultCode string) error {
	return r.finalize(id, domain.TaskStatusBlocked, resultCode)
}

func (r *fakeTaskRepo) finalize(id string, status domain.TaskStatus, resultCode string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	task, ok := r.tasks[id]
	if !ok || task.Status != domain.TaskStatusSending {
		return domain.ErrTaskNotFound
	}
	task.Status = status
	task.ResultCode = resultCode
	r.releaseKey(task)
	return nil
}

// releaseKey mirrors the store: dead terminal tasks give up their
// idempotency bucket by moving to a task-scoped key.
func (r *fakeTaskRepo) releaseKey(task *domain.CrmTask) {
	delete(r.byKey, task.IdempotencyKey)
	task.IdempotencyKey = task.IdempotencyKey + "#" + task.ID
	r.byKey[task.IdempotencyKey] = task.ID
}

func (r *fakeTaskRepo) Cancel(id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	task, ok := r.tasks[id]
	if !ok || task.Status != domain.TaskStatusPending {
		return false, nil
	}
	task.Status = domain.TaskStatusCancelled
	r.releaseKey(task)
	return true, nil
}

func (r *fakeTaskRepo) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	task, ok := r.tasks[id]
	if !ok || task.Status != domain.TaskStatusPending {
		return domain.ErrTaskNotPending
	}
	delete(r.byKey, task.IdempotencyKey)
	delete(r.tasks, id)
	return nil
}

func (r *fakeTaskRepo) CountByStatusBetween(status domain.TaskStatus, from, to time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, task := range r.tasks {
		if task.Status != status {
			continue
		}
		// Sent tasks count by the day they went out, not the day they
		// were planned.
		at := task.CreatedAt
		if status == domain.TaskStatusSent && task.SentAt != nil {
			at = *task.SentAt
		}
		if !at.Before(from) && at.Before(to) {
			n++
		}
	}
	return n, nil
}

func (r *fakeTaskRepo) Get(userID string) (domain.ContactCounters, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failAll {
		return domain.ContactCounters{}, errStoreDown
	}
	if counters, ok := r.counters[userID]; ok {
		return *counters, nil
	}
	return domain.ContactCounters{UserID: userID}, nil
}

func (r *fakeTaskRepo) task(id string) *domain.CrmTask {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *r.tasks[id]
	return &clone
}

type fakeCandidates struct {
	users []string
	err   error
}

func (f *fakeCandidates) ListEligibleUsers(domain.TaskType) ([]string, error) {
	return f.users, f.err
}

type fakeBlocks struct {
	mu      sync.Mutex
	blocked map[string]bool
}

func newFakeBlocks(blocked ...string) *fakeBlocks {
	m := make(map[string]bool)
	for _, id := range blocked {
		m[id] = true
	}
	return &fakeBlocks{blocked: m}
}

func (f *fakeBlocks) IsBlocked(userID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.blocked[userID], nil
}

func (f *fakeBlocks) SetBlocked(userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.blocked[userID] = true
	return nil
}

// fakeSender counts invocations per user and scripts outcomes.
type fakeSender struct {
	mu        sync.Mutex
	sent      map[string]int
	blockFor  map[string]bool
	failFor   map[string]error
	panicOn   string
}

func newFakeSender() *fakeSender {
	return &fakeSender{
		sent:     make(map[string]int),
		blockFor: make(map[string]bool),
		failFor:  make(map[string]error),
	}
}

func (f *fakeSender) Send(userID string, content string) error {
	f.mu.Lock()
	f.sent[userID]++
	f.mu.Unlock()
	if userID == f.panicOn {
		panic("transport exploded")
	}
	if f.blockFor[userID] {
		return domain.ErrRecipientBlocked
	}
	if err := f.failFor[userID]; err != nil {
		return err
	}
	return nil
}

func (f *fakeSender) sends(userID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sent[userID]
}

type fakeRenderer struct{ err error }

func (f *fakeRenderer) Render(task *domain.CrmTask) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return "hello " + task.UserID, nil
}
