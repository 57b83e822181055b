package delivery

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"oracle-bot-backend/internal/metrics/usecase"
)

// MetricsHandler handles admin statistics requests
type MetricsHandler struct {
	metrics usecase.MetricsUsecase
}

// NewMetricsHandler creates a new MetricsHandler
func NewMetricsHandler(metrics usecase.MetricsUsecase) *MetricsHandler {
	return &MetricsHandler{metrics: metrics}
}

func parseRange(c *gin.Context) (time.Time, time.Time, bool) {
	now := time.Now().UTC()
	from := now.AddDate(0, 0, -7)
	to := now

	if raw := c.Query("from"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "from must be YYYY-MM-DD"})
			return from, to, false
		}
		from = parsed
	}
	if raw := c.Query("to"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "to must be YYYY-MM-DD"})
			return from, to, false
		}
		to = parsed
	}
	return from, to, true
}

// GetStats returns daily facts for a date range
// GET /api/admin/stats?from=2025-03-01&to=2025-03-10
func (h *MetricsHandler) GetStats(c *gin.Context) {
	from, to, ok := parseRange(c)
	if !ok {
		return
	}

	rows, err := h.metrics.Range(from, to)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"from": from.Format("2006-01-02"),
		"to":   to.Format("2006-01-02"),
		"days": rows,
	})
}

// ExportStats returns the range as CSV
// GET /api/admin/stats/export?from=...&to=...
func (h *MetricsHandler) ExportStats(c *gin.Context) {
	from, to, ok := parseRange(c)
	if !ok {
		return
	}

	csv, err := h.metrics.ExportCSV(from, to)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.Header("Content-Disposition", "attachment; filename=metrics.csv")
	c.Data(http.StatusOK, "text/csv; charset=utf-8", []byte(csv))
}

// TriggerRollup recomputes the facts row for one day (default: today)
// POST /api/admin/metrics/rollup?date=2025-03-10
func (h *MetricsHandler) TriggerRollup(c *gin.Context) {
	date := time.Now().UTC()
	if raw := c.Query("date"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "date must be YYYY-MM-DD"})
			return
		}
		date = parsed
	}

	metrics, err := h.metrics.RollupDay(date)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, metrics)
}
