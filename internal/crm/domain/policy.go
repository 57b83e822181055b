package domain

import "time"

// DenyReason categorizes why the policy refused a contact. Denial is a
// normal planning outcome, not an error.
type DenyReason string

const (
	DenyDailyCap   DenyReason = "daily_cap"
	DenyMinSpacing DenyReason = "min_spacing"
	DenyWeeklyCap  DenyReason = "weekly_cap"

	// Planner-level skip reasons reported alongside policy denials
	SkipBlocked   = "blocked"
	SkipDuplicate = "duplicate"
)

// Decision is the outcome of a rate-limit evaluation.
type Decision struct {
	Eligible bool
	Reason   DenyReason
}

// RateLimitPolicy holds the three anti-spam constraints. Evaluate is pure:
// same counters and clock always yield the same decision.
type RateLimitPolicy struct {
	MaxContactsPerDay       int
	MinHoursBetweenContacts time.Duration
	MaxNudgesPerWeek        int
}

// Evaluate checks all three constraints against the user's counters at now.
// All must pass; the first violated constraint names the denial reason.
// Counts are trailing-window counts ending at now.
func (p RateLimitPolicy) Evaluate(taskType TaskType, counters ContactCounters, now time.Time) Decision {
	if counters.DayCount(now) >= p.MaxContactsPerDay {
		return Decision{Reason: DenyDailyCap}
	}
	if counters.LastContactAt != nil && now.Sub(*counters.LastContactAt) < p.MinHoursBetweenContacts {
		return Decision{Reason: DenyMinSpacing}
	}
	if taskType == TaskTypeNudge && counters.WeekCount(now) >= p.MaxNudgesPerWeek {
		return Decision{Reason: DenyWeeklyCap}
	}
	return Decision{Eligible: true}
}
