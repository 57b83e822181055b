package usecase

import (
	"strings"
	"testing"
	"time"

	crmdomain "oracle-bot-backend/internal/crm/domain"
	"oracle-bot-backend/internal/metrics/domain"
)

var metricsNow = time.Date(2025, 3, 10, 23, 30, 0, 0, time.UTC)

type fakeEventRepo struct {
	events []*domain.Event
}

func (r *fakeEventRepo) Append(event *domain.Event) error {
	r.events = append(r.events, event)
	return nil
}

func (r *fakeEventRepo) CountByTypeBetween(eventType string, from, to time.Time) (int64, error) {
	var n int64
	for _, e := range r.events {
		if e.Type == eventType && !e.CreatedAt.Before(from) && e.CreatedAt.Before(to) {
			n++
		}
	}
	return n, nil
}

func (r *fakeEventRepo) CountActiveUsersBetween(from, to time.Time) (int64, error) {
	seen := make(map[string]bool)
	for _, e := range r.events {
		if e.UserID != "" && !e.CreatedAt.Before(from) && e.CreatedAt.Before(to) {
			seen[e.UserID] = true
		}
	}
	return int64(len(seen)), nil
}

type fakeFactsRepo struct {
	rows map[string]*domain.DailyMetrics
}

func newFakeFactsRepo() *fakeFactsRepo {
	return &fakeFactsRepo{rows: make(map[string]*domain.DailyMetrics)}
}

func (r *fakeFactsRepo) Upsert(metrics *domain.DailyMetrics) error {
	r.rows[metrics.Date.Format("2006-01-02")] = metrics
	return nil
}

func (r *fakeFactsRepo) Range(from, to time.Time) ([]*domain.DailyMetrics, error) {
	var out []*domain.DailyMetrics
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		if row, ok := r.rows[d.Format("2006-01-02")]; ok {
			out = append(out, row)
		}
	}
	return out, nil
}

type staticStats struct {
	blocked, newUsers, paidActive, paidNew, questions, dailySent int64
	sent, blockedTasks                                           int64
	revenue                                                      float64
}

func (s staticStats) CountBlocked() (int64, error)                   { return s.blocked, nil }
func (s staticStats) CountNewBetween(_, _ time.Time) (int64, error)  { return s.newUsers, nil }
func (s staticStats) CountActiveAt(time.Time) (int64, error)         { return s.paidActive, nil }
func (s staticStats) CountStartedBetween(_, _ time.Time) (int64, error) {
	return s.paidNew, nil
}
func (s staticStats) SumRevenueBetween(_, _ time.Time) (float64, error) { return s.revenue, nil }
func (s staticStats) CountBetween(_, _ time.Time) (int64, error)        { return s.questions, nil }
func (s staticStats) CountSentOn(time.Time) (int64, error)              { return s.dailySent, nil }
func (s staticStats) CountByStatusBetween(status crmdomain.TaskStatus, _, _ time.Time) (int64, error) {
	if status == crmdomain.TaskStatusSent {
		return s.sent, nil
	}
	return s.blockedTasks, nil
}

func newTestMetrics(events *fakeEventRepo, facts *fakeFactsRepo, stats staticStats) MetricsUsecase {
	return NewMetricsUsecase(events, facts, stats, stats, stats, stats, stats, stats,
		func() time.Time { return metricsNow })
}

func TestRecordEncodesMeta(t *testing.T) {
	events := &fakeEventRepo{}
	uc := newTestMetrics(events, newFakeFactsRepo(), staticStats{})

	if err := uc.Record("u1", domain.EventPaymentSuccess, map[string]interface{}{"amount": 299}); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if len(events.events) != 1 {
		t.Fatalf("events = %d, want 1", len(events.events))
	}
	event := events.events[0]
	if event.Type != "payment_success" || !strings.Contains(event.Meta, `"amount":299`) {
		t.Fatalf("event = %+v", event)
	}
	if !event.CreatedAt.Equal(metricsNow) {
		t.Errorf("CreatedAt = %v", event.CreatedAt)
	}
}

func TestRollupDayAggregates(t *testing.T) {
	events := &fakeEventRepo{}
	for _, userID := range []string{"u1", "u2", "u2"} {
		events.events = append(events.events, &domain.Event{
			UserID: userID, Type: domain.EventQuestionAsked, CreatedAt: metricsNow,
		})
	}
	facts := newFakeFactsRepo()
	stats := staticStats{
		blocked: 4, newUsers: 2, paidActive: 7, paidNew: 1,
		questions: 3, dailySent: 5, sent: 6, blockedTasks: 1, revenue: 398,
	}
	uc := newTestMetrics(events, facts, stats)

	metrics, err := uc.RollupDay(metricsNow)
	if err != nil {
		t.Fatalf("RollupDay: %v", err)
	}
	if metrics.DAU != 2 {
		t.Errorf("DAU = %d, want 2", metrics.DAU)
	}
	if metrics.ProactiveSent != 6 || metrics.ProactiveBlocked != 1 {
		t.Errorf("proactive = %d/%d", metrics.ProactiveSent, metrics.ProactiveBlocked)
	}
	if metrics.Revenue != 398 {
		t.Errorf("Revenue = %v", metrics.Revenue)
	}
	if _, ok := facts.rows["2025-03-10"]; !ok {
		t.Fatal("facts row not upserted")
	}
}

// Re-running a day replaces the row instead of duplicating it.
func TestRollupDayIsIdempotent(t *testing.T) {
	facts := newFakeFactsRepo()
	uc := newTestMetrics(&fakeEventRepo{}, facts, staticStats{questions: 1})

	if _, err := uc.RollupDay(metricsNow); err != nil {
		t.Fatal(err)
	}
	if _, err := uc.RollupDay(metricsNow); err != nil {
		t.Fatal(err)
	}
	if len(facts.rows) != 1 {
		t.Fatalf("rows = %d, want 1", len(facts.rows))
	}
}

func TestExportCSV(t *testing.T) {
	facts := newFakeFactsRepo()
	uc := newTestMetrics(&fakeEventRepo{}, facts, staticStats{questions: 3, revenue: 299})
	if _, err := uc.RollupDay(metricsNow); err != nil {
		t.Fatal(err)
	}

	csv, err := uc.ExportCSV(metricsNow.AddDate(0, 0, -1), metricsNow)
	if err != nil {
		t.Fatalf("ExportCSV: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(csv), "\n")
	if len(lines) != 2 {
		t.Fatalf("lines = %d, want header + 1 row", len(lines))
	}
	if !strings.HasPrefix(lines[0], "date,dau,") {
		t.Errorf("header = %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], "2025-03-10,") || !strings.Contains(lines[1], "299.00") {
		t.Errorf("row = %q", lines[1])
	}
}
