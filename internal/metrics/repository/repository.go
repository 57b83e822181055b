package repository

import (
	"time"

	"oracle-bot-backend/internal/metrics/domain"
)

// EventRepository appends and aggregates product events
type EventRepository interface {
	Append(event *domain.Event) error
	CountByTypeBetween(eventType string, from, to time.Time) (int64, error)
	// CountActiveUsersBetween counts distinct users with any event in
	// [from, to).
	CountActiveUsersBetween(from, to time.Time) (int64, error)
}

// DailyMetricsRepository stores the daily facts table
type DailyMetricsRepository interface {
	// Upsert writes the row for its date, replacing an existing rollup.
	Upsert(metrics *domain.DailyMetrics) error
	Range(from, to time.Time) ([]*domain.DailyMetrics, error)
}
