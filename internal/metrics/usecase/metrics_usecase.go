package usecase

import (
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	crmdomain "oracle-bot-backend/internal/crm/domain"
	"oracle-bot-backend/internal/metrics/domain"
	"oracle-bot-backend/internal/metrics/repository"
)

// UserStats supplies user aggregates for the rollup
type UserStats interface {
	CountBlocked() (int64, error)
	CountNewBetween(from, to time.Time) (int64, error)
}

// SubscriptionStats supplies subscription aggregates for the rollup
type SubscriptionStats interface {
	CountActiveAt(now time.Time) (int64, error)
	CountStartedBetween(from, to time.Time) (int64, error)
}

// RevenueStats supplies payment aggregates for the rollup
type RevenueStats interface {
	SumRevenueBetween(from, to time.Time) (float64, error)
}

// QuestionStats supplies question aggregates for the rollup
type QuestionStats interface {
	CountBetween(from, to time.Time) (int64, error)
}

// DailySendStats supplies daily-message aggregates for the rollup
type DailySendStats interface {
	CountSentOn(date time.Time) (int64, error)
}

// TaskStats supplies CRM task aggregates for the rollup
type TaskStats interface {
	CountByStatusBetween(status crmdomain.TaskStatus, from, to time.Time) (int64, error)
}

// MetricsUsecase records events and maintains the daily facts table
type MetricsUsecase interface {
	Record(userID, eventType string, meta map[string]interface{}) error
	// RollupDay recomputes and upserts the facts row for the UTC day of
	// date. Re-running a day is idempotent.
	RollupDay(date time.Time) (*domain.DailyMetrics, error)
	Range(from, to time.Time) ([]*domain.DailyMetrics, error)
	ExportCSV(from, to time.Time) (string, error)
}

type metricsUsecase struct {
	events        repository.EventRepository
	facts         repository.DailyMetricsRepository
	users         UserStats
	subscriptions SubscriptionStats
	revenue       RevenueStats
	questions     QuestionStats
	dailySends    DailySendStats
	tasks         TaskStats
	clock         func() time.Time
}

// NewMetricsUsecase creates a new MetricsUsecase. A nil clock defaults to
// time.Now.
func NewMetricsUsecase(
	events repository.EventRepository,
	facts repository.DailyMetricsRepository,
	users UserStats,
	subscriptions SubscriptionStats,
	revenue RevenueStats,
	questions QuestionStats,
	dailySends DailySendStats,
	tasks TaskStats,
	clock func() time.Time,
) MetricsUsecase {
	if clock == nil {
		clock = time.Now
	}
	return &metricsUsecase{
		events:        events,
		facts:         facts,
		users:         users,
		subscriptions: subscriptions,
		revenue:       revenue,
		questions:     questions,
		dailySends:    dailySends,
		tasks:         tasks,
		clock:         clock,
	}
}

func (u *metricsUsecase) Record(userID, eventType string, meta map[string]interface{}) error {
	event := &domain.Event{
		UserID:    userID,
		Type:      eventType,
		CreatedAt: u.clock().UTC(),
	}
	if len(meta) > 0 {
		encoded, err := json.Marshal(meta)
		if err != nil {
			return fmt.Errorf("encode event meta: %w", err)
		}
		event.Meta = string(encoded)
	}
	return u.events.Append(event)
}

func (u *metricsUsecase) RollupDay(date time.Time) (*domain.DailyMetrics, error) {
	from := time.Date(date.UTC().Year(), date.UTC().Month(), date.UTC().Day(), 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 1)

	metrics := &domain.DailyMetrics{Date: from}
	var err error

	if metrics.DAU, err = u.events.CountActiveUsersBetween(from, to); err != nil {
		return nil, fmt.Errorf("count active users: %w", err)
	}
	if metrics.NewUsers, err = u.users.CountNewBetween(from, to); err != nil {
		return nil, fmt.Errorf("count new users: %w", err)
	}
	if metrics.BlockedTotal, err = u.users.CountBlocked(); err != nil {
		return nil, fmt.Errorf("count blocked users: %w", err)
	}
	if metrics.DailySent, err = u.dailySends.CountSentOn(from); err != nil {
		return nil, fmt.Errorf("count daily sends: %w", err)
	}
	if metrics.QuestionsAsked, err = u.questions.CountBetween(from, to); err != nil {
		return nil, fmt.Errorf("count questions: %w", err)
	}
	if metrics.PaidActive, err = u.subscriptions.CountActiveAt(to); err != nil {
		return nil, fmt.Errorf("count active subscriptions: %w", err)
	}
	if metrics.PaidNew, err = u.subscriptions.CountStartedBetween(from, to); err != nil {
		return nil, fmt.Errorf("count new subscriptions: %w", err)
	}
	if metrics.Revenue, err = u.revenue.SumRevenueBetween(from, to); err != nil {
		return nil, fmt.Errorf("sum revenue: %w", err)
	}
	if metrics.ProactiveSent, err = u.tasks.CountByStatusBetween(crmdomain.TaskStatusSent, from, to); err != nil {
		return nil, fmt.Errorf("count proactive sent: %w", err)
	}
	if metrics.ProactiveBlocked, err = u.tasks.CountByStatusBetween(crmdomain.TaskStatusBlocked, from, to); err != nil {
		return nil, fmt.Errorf("count proactive blocked: %w", err)
	}

	if err := u.facts.Upsert(metrics); err != nil {
		return nil, fmt.Errorf("upsert daily metrics: %w", err)
	}
	log.Printf("[Metrics] Rolled up %s: dau=%d new=%d questions=%d revenue=%.2f",
		from.Format("2006-01-02"), metrics.DAU, metrics.NewUsers, metrics.QuestionsAsked, metrics.Revenue)
	return metrics, nil
}

func (u *metricsUsecase) Range(from, to time.Time) ([]*domain.DailyMetrics, error) {
	return u.facts.Range(from, to)
}

func (u *metricsUsecase) ExportCSV(from, to time.Time) (string, error) {
	rows, err := u.facts.Range(from, to)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString("date,dau,new_users,blocked_total,daily_sent,questions_asked,paid_active,paid_new,revenue,proactive_sent,proactive_blocked\n")
	for _, row := range rows {
		fmt.Fprintf(&b, "%s,%d,%d,%d,%d,%d,%d,%d,%.2f,%d,%d\n",
			row.Date.Format("2006-01-02"), row.DAU, row.NewUsers, row.BlockedTotal,
			row.DailySent, row.QuestionsAsked, row.PaidActive, row.PaidNew,
			row.Revenue, row.ProactiveSent, row.ProactiveBlocked)
	}
	return b.String(), nil
}
