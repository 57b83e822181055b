package usecase

import (
	"errors"
	"fmt"
	"log"
	"math/rand"
	"time"

	"oracle-bot-backend/internal/crm/domain"
	"oracle-bot-backend/internal/crm/repository"
)

// CandidateSource produces the planner's candidate pool. Selection criteria
// (inactivity, subscription state) belong to the source, not the planner.
type CandidateSource interface {
	ListEligibleUsers(taskType domain.TaskType) ([]string, error)
}

// BlockDetector reports current recipient availability.
type BlockDetector interface {
	IsBlocked(userID string) (bool, error)
}

// PlanResult aggregates one planning run for observability.
type PlanResult struct {
	Created int            `json:"created"`
	Skipped map[string]int `json:"skipped_by_reason"`
	Tasks   []*domain.CrmTask
}

// Planner decides which users receive a proactive contact and creates the
// corresponding pending tasks. Overlapping runs are safe: the conditional
// create keyed by idempotency key is the only cross-run coordination.
type Planner struct {
	tasks      repository.TaskRepository
	counters   repository.ContactCounterRepository
	candidates CandidateSource
	blocks     BlockDetector
	policy     domain.RateLimitPolicy
	jitter     time.Duration
	clock      func() time.Time
}

// NewPlanner creates a Planner. A nil clock defaults to time.Now.
func NewPlanner(
	tasks repository.TaskRepository,
	counters repository.ContactCounterRepository,
	candidates CandidateSource,
	blocks BlockDetector,
	policy domain.RateLimitPolicy,
	jitter time.Duration,
	clock func() time.Time,
) *Planner {
	if clock == nil {
		clock = time.Now
	}
	return &Planner{
		tasks:      tasks,
		counters:   counters,
		candidates: candidates,
		blocks:     blocks,
		policy:     policy,
		jitter:     jitter,
		clock:      clock,
	}
}

// Run plans tasks of taskType for the current candidate pool. Each
// candidate is handled independently; denials and duplicates are normal
// outcomes counted in the result. Storage errors abort the run.
func (p *Planner) Run(taskType domain.TaskType) (*PlanResult, error) {
	if !taskType.Valid() {
		return nil, fmt.Errorf("unknown task type %q", taskType)
	}

	userIDs, err := p.candidates.ListEligibleUsers(taskType)
	if err != nil {
		return nil, fmt.Errorf("list candidates: %w", err)
	}

	result := &PlanResult{Skipped: make(map[string]int)}
	now := p.clock().UTC()

	for _, userID := range userIDs {
		blocked, err := p.blocks.IsBlocked(userID)
		if err != nil {
			return nil, fmt.Errorf("block check for user %s: %w", userID, err)
		}
		if blocked {
			result.Skipped[domain.SkipBlocked]++
			continue
		}

		counters, err := p.counters.Get(userID)
		if err != nil {
			return nil, fmt.Errorf("load counters for user %s: %w", userID, err)
		}

		decision := p.policy.Evaluate(taskType, counters, now)
		if !decision.Eligible {
			result.Skipped[string(decision.Reason)]++
			continue
		}

		task := &domain.CrmTask{
			UserID:         userID,
			Type:           taskType,
			Status:         domain.TaskStatusPending,
			DueAt:          p.dueAt(now),
			CreatedAt:      now,
			IdempotencyKey: domain.IdempotencyKey(userID, taskType, now),
		}

		err = p.tasks.Create(task)
		if errors.Is(err, domain.ErrDuplicateTask) {
			result.Skipped[domain.SkipDuplicate]++
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("create task for user %s: %w", userID, err)
		}

		result.Created++
		result.Tasks = append(result.Tasks, task)
	}

	log.Printf("[CRM Planner] type=%s candidates=%d created=%d skipped=%v",
		taskType, len(userIDs), result.Created, result.Skipped)
	return result, nil
}

// dueAt spreads due times over the jitter interval so a large candidate
// pool does not become one burst of identical timestamps.
func (p *Planner) dueAt(now time.Time) time.Time {
	if p.jitter <= 0 {
		return now
	}
	return now.Add(time.Duration(rand.Int63n(int64(p.jitter))))
}
