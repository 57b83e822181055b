package usecase

import (
	"testing"
	"time"

	"oracle-bot-backend/internal/crm/domain"
)

var plannerNow = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

func testRateLimits() domain.RateLimitPolicy {
	return domain.RateLimitPolicy{
		MaxContactsPerDay:       3,
		MinHoursBetweenContacts: 48 * time.Hour,
		MaxNudgesPerWeek:        2,
	}
}

func fixedClock(ts time.Time) func() time.Time {
	return func() time.Time { return ts }
}

func TestPlannerCreatesTasksForEligibleUsers(t *testing.T) {
	repo := newFakeTaskRepo()
	planner := NewPlanner(repo, repo,
		&fakeCandidates{users: []string{"u1", "u2"}},
		newFakeBlocks(),
		testRateLimits(), 0, fixedClock(plannerNow))

	result, err := planner.Run(domain.TaskTypeNudge)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Created != 2 {
		t.Fatalf("Created = %d, want 2", result.Created)
	}
	if len(result.Tasks) != 2 {
		t.Fatalf("len(Tasks) = %d, want 2", len(result.Tasks))
	}
	for _, task := range result.Tasks {
		if task.Status != domain.TaskStatusPending {
			t.Errorf("task %s status = %s, want pending", task.ID, task.Status)
		}
		if !task.DueAt.Equal(plannerNow) {
			t.Errorf("task %s dueAt = %v, want %v (zero jitter)", task.ID, task.DueAt, plannerNow)
		}
	}
}

func TestPlannerSkipsBlockedUsers(t *testing.T) {
	repo := newFakeTaskRepo()
	planner := NewPlanner(repo, repo,
		&fakeCandidates{users: []string{"u1", "u2"}},
		newFakeBlocks("u2"),
		testRateLimits(), 0, fixedClock(plannerNow))

	result, err := planner.Run(domain.TaskTypeNudge)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Created != 1 {
		t.Fatalf("Created = %d, want 1", result.Created)
	}
	if result.Skipped[domain.SkipBlocked] != 1 {
		t.Fatalf("Skipped[blocked] = %d, want 1", result.Skipped[domain.SkipBlocked])
	}
}

// Scenario A: the daily cap denies regardless of spacing or weekly state.
func TestPlannerDeniesDailyCap(t *testing.T) {
	repo := newFakeTaskRepo()
	old := plannerNow.Add(-100 * time.Hour)
	repo.counters["u1"] = &domain.ContactCounters{
		UserID: "u1",
		SentLog: domain.TimeLog{
			plannerNow.Add(-2 * time.Hour),
			plannerNow.Add(-5 * time.Hour),
			plannerNow.Add(-20 * time.Hour),
		},
		LastContactAt: &old,
	}
	planner := NewPlanner(repo, repo,
		&fakeCandidates{users: []string{"u1"}},
		newFakeBlocks(),
		testRateLimits(), 0, fixedClock(plannerNow))

	result, err := planner.Run(domain.TaskTypeNudge)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Created != 0 {
		t.Fatalf("Created = %d, want 0", result.Created)
	}
	if result.Skipped[string(domain.DenyDailyCap)] != 1 {
		t.Fatalf("Skipped = %v, want one daily_cap", result.Skipped)
	}
}

// Scenario B: last contact 10h ago with 48h minimum spacing.
func TestPlannerDeniesMinSpacing(t *testing.T) {
	repo := newFakeTaskRepo()
	recent := plannerNow.Add(-10 * time.Hour)
	repo.counters["u1"] = &domain.ContactCounters{UserID: "u1", LastContactAt: &recent}
	planner := NewPlanner(repo, repo,
		&fakeCandidates{users: []string{"u1"}},
		newFakeBlocks(),
		testRateLimits(), 0, fixedClock(plannerNow))

	result, err := planner.Run(domain.TaskTypeNudge)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Skipped[string(domain.DenyMinSpacing)] != 1 {
		t.Fatalf("Skipped = %v, want one min_spacing", result.Skipped)
	}
}

// Running the planner twice over the same candidates and window creates at
// most one pending task per (user, type); the rerun reports duplicates.
func TestPlannerIdempotence(t *testing.T) {
	repo := newFakeTaskRepo()
	candidates := &fakeCandidates{users: []string{"u1", "u2", "u3"}}
	planner := NewPlanner(repo, repo, candidates, newFakeBlocks(),
		testRateLimits(), 0, fixedClock(plannerNow))

	first, err := planner.Run(domain.TaskTypeNudge)
	if err != nil {
		t.Fatalf("first Run: %v", err)
	}
	if first.Created != 3 {
		t.Fatalf("first Created = %d, want 3", first.Created)
	}

	second, err := planner.Run(domain.TaskTypeNudge)
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if second.Created != 0 {
		t.Fatalf("second Created = %d, want 0", second.Created)
	}
	if second.Skipped[domain.SkipDuplicate] != 3 {
		t.Fatalf("second Skipped = %v, want 3 duplicates", second.Skipped)
	}

	pending := domain.TaskStatusPending
	tasks, err := repo.FindTasks(nil, &pending, 100)
	if err != nil {
		t.Fatalf("FindTasks: %v", err)
	}
	if len(tasks) != 3 {
		t.Fatalf("pending tasks = %d, want 3", len(tasks))
	}
}

// Cancelling a pending task frees its idempotency bucket, so the next
// planner run may create a replacement in the same window.
func TestPlannerRecreatesAfterCancel(t *testing.T) {
	repo := newFakeTaskRepo()
	planner := NewPlanner(repo, repo,
		&fakeCandidates{users: []string{"u1"}},
		newFakeBlocks(),
		testRateLimits(), 0, fixedClock(plannerNow))

	first, err := planner.Run(domain.TaskTypeNudge)
	if err != nil {
		t.Fatalf("first Run: %v", err)
	}
	if first.Created != 1 {
		t.Fatalf("first Created = %d, want 1", first.Created)
	}

	cancelled, err := repo.Cancel(first.Tasks[0].ID)
	if err != nil || !cancelled {
		t.Fatalf("Cancel = %v, %v, want true", cancelled, err)
	}

	second, err := planner.Run(domain.TaskTypeNudge)
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if second.Created != 1 {
		t.Fatalf("Created after cancel = %d, want 1 (skipped: %v)", second.Created, second.Skipped)
	}
}

func TestPlannerJitterBoundsDueAt(t *testing.T) {
	repo := newFakeTaskRepo()
	jitter := 15 * time.Minute
	planner := NewPlanner(repo, repo,
		&fakeCandidates{users: []string{"u1"}},
		newFakeBlocks(),
		testRateLimits(), jitter, fixedClock(plannerNow))

	result, err := planner.Run(domain.TaskTypeNudge)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	task := result.Tasks[0]
	if task.DueAt.Before(plannerNow) || !task.DueAt.Before(plannerNow.Add(jitter)) {
		t.Fatalf("dueAt %v outside [now, now+jitter)", task.DueAt)
	}
}

func TestPlannerRejectsUnknownType(t *testing.T) {
	repo := newFakeTaskRepo()
	planner := NewPlanner(repo, repo, &fakeCandidates{}, newFakeBlocks(),
		testRateLimits(), 0, fixedClock(plannerNow))

	if _, err := planner.Run(domain.TaskType("spam")); err == nil {
		t.Fatal("expected error for unknown task type")
	}
}

func TestPlannerFailsLoudlyOnStorageError(t *testing.T) {
	repo := newFakeTaskRepo()
	repo.failAll = true
	planner := NewPlanner(repo, repo,
		&fakeCandidates{users: []string{"u1"}},
		newFakeBlocks(),
		testRateLimits(), 0, fixedClock(plannerNow))

	if _, err := planner.Run(domain.TaskTypeNudge); err == nil {
		t.Fatal("expected storage error to abort the run")
	}
}
