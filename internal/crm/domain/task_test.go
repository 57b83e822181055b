package domain

import (
	"testing"
	"time"
)

func TestIdempotencyKey(t *testing.T) {
	morning := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)  // Monday, ISO week 11
	evening := time.Date(2025, 3, 10, 22, 0, 0, 0, time.UTC) // same day
	thursday := time.Date(2025, 3, 13, 8, 0, 0, 0, time.UTC) // same ISO week
	nextWeek := time.Date(2025, 3, 17, 8, 0, 0, 0, time.UTC) // ISO week 12

	if got, want := IdempotencyKey("42", TaskTypeReminder, morning), "42:reminder:2025-03-10"; got != want {
		t.Fatalf("reminder key = %q, want %q", got, want)
	}
	if got, want := IdempotencyKey("42", TaskTypeNudge, morning), "42:nudge:2025-W11"; got != want {
		t.Fatalf("nudge key = %q, want %q", got, want)
	}

	// Same bucket, same key: planner re-runs collide instead of duplicating.
	if IdempotencyKey("42", TaskTypeReminder, morning) != IdempotencyKey("42", TaskTypeReminder, evening) {
		t.Fatal("daily bucket changed within the same UTC day")
	}
	if IdempotencyKey("42", TaskTypeNudge, morning) != IdempotencyKey("42", TaskTypeNudge, thursday) {
		t.Fatal("weekly bucket changed within the same ISO week")
	}

	// Different bucket, different key.
	if IdempotencyKey("42", TaskTypeNudge, morning) == IdempotencyKey("42", TaskTypeNudge, nextWeek) {
		t.Fatal("weekly bucket did not advance across weeks")
	}
	if IdempotencyKey("42", TaskTypeReminder, morning) == IdempotencyKey("7", TaskTypeReminder, morning) {
		t.Fatal("keys collide across users")
	}
	if IdempotencyKey("42", TaskTypeNudge, morning) == IdempotencyKey("42", TaskTypeThanks, morning) {
		t.Fatal("keys collide across task types")
	}
}

func TestTaskStatusTerminal(t *testing.T) {
	terminal := []TaskStatus{TaskStatusSent, TaskStatusFailed, TaskStatusBlocked, TaskStatusCancelled}
	for _, s := range terminal {
		if !s.Terminal() {
			t.Errorf("%s should be terminal", s)
		}
	}
	for _, s := range []TaskStatus{TaskStatusPending, TaskStatusSending} {
		if s.Terminal() {
			t.Errorf("%s should not be terminal", s)
		}
	}
}

func TestTaskTypeValid(t *testing.T) {
	for _, tt := range []TaskType{TaskTypeNudge, TaskTypeReminder, TaskTypeThanks} {
		if !tt.Valid() {
			t.Errorf("%s should be valid", tt)
		}
	}
	if TaskType("spam").Valid() {
		t.Error("unknown type reported valid")
	}
}
