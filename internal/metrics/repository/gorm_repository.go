package repository

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"oracle-bot-backend/internal/metrics/domain"
)

// gormEventRepository implements EventRepository using GORM
type gormEventRepository struct {
	db *gorm.DB
}

// NewGormEventRepository creates a new GORM-based EventRepository
func NewGormEventRepository(db *gorm.DB) EventRepository {
	db.AutoMigrate(&domain.Event{})
	return &gormEventRepository{db: db}
}

func (r *gormEventRepository) Append(event *domain.Event) error {
	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}
	return r.db.Create(event).Error
}

func (r *gormEventRepository) CountByTypeBetween(eventType string, from, to time.Time) (int64, error) {
	var n int64
	err := r.db.Model(&domain.Event{}).
		Where("type = ? AND created_at >= ? AND created_at < ?", eventType, from, to).
		Count(&n).Error
	return n, err
}

func (r *gormEventRepository) CountActiveUsersBetween(from, to time.Time) (int64, error) {
	var n int64
	err := r.db.Model(&domain.Event{}).
		Where("created_at >= ? AND created_at < ? AND user_id <> ''", from, to).
		Distinct("user_id").
		Count(&n).Error
	return n, err
}

// gormDailyMetricsRepository implements DailyMetricsRepository using GORM
type gormDailyMetricsRepository struct {
	db *gorm.DB
}

// NewGormDailyMetricsRepository creates a new GORM-based DailyMetricsRepository
func NewGormDailyMetricsRepository(db *gorm.DB) DailyMetricsRepository {
	db.AutoMigrate(&domain.DailyMetrics{})
	return &gormDailyMetricsRepository{db: db}
}

// Upsert makes the rollup idempotent: re-running a day replaces its row.
func (r *gormDailyMetricsRepository) Upsert(metrics *domain.DailyMetrics) error {
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "date"}},
		UpdateAll: true,
	}).Create(metrics).Error
}

func (r *gormDailyMetricsRepository) Range(from, to time.Time) ([]*domain.DailyMetrics, error) {
	var rows []*domain.DailyMetrics
	err := r.db.
		Where("date >= ? AND date <= ?", from, to).
		Order("date ASC").
		Find(&rows).Error
	return rows, err
}
