package delivery

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"oracle-bot-backend/internal/crm/domain"
	"oracle-bot-backend/internal/crm/repository"
	"oracle-bot-backend/internal/crm/usecase"
)

// CrmHandler handles CRM-related HTTP requests
type CrmHandler struct {
	tasks      repository.TaskRepository
	counters   repository.ContactCounterRepository
	planner    *usecase.Planner
	dispatcher *usecase.Dispatcher
}

// NewCrmHandler creates a new CrmHandler
func NewCrmHandler(
	tasks repository.TaskRepository,
	counters repository.ContactCounterRepository,
	planner *usecase.Planner,
	dispatcher *usecase.Dispatcher,
) *CrmHandler {
	return &CrmHandler{
		tasks:      tasks,
		counters:   counters,
		planner:    planner,
		dispatcher: dispatcher,
	}
}

// TriggerPlan runs one planning pass for the given task type
// POST /api/crm/plan?type=nudge
func (h *CrmHandler) TriggerPlan(c *gin.Context) {
	taskType := domain.TaskType(c.DefaultQuery("type", string(domain.TaskTypeNudge)))

	result, err := h.planner.Run(taskType)
	if err != nil {
		if !taskType.Valid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown task type"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}

// TriggerDispatch runs one dispatch pass over due tasks
// POST /api/crm/dispatch
func (h *CrmHandler) TriggerDispatch(c *gin.Context) {
	result, err := h.dispatcher.Run()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetTasks lists CRM tasks with optional filters
// GET /api/crm/tasks?user_id=&status=pending&limit=50
func (h *CrmHandler) GetTasks(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	var userIDPtr *string
	if userID := c.Query("user_id"); userID != "" {
		userIDPtr = &userID
	}

	var statusPtr *domain.TaskStatus
	if raw := c.Query("status"); raw != "" {
		status := domain.TaskStatus(raw)
		statusPtr = &status
	}

	tasks, err := h.tasks.FindTasks(userIDPtr, statusPtr, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if tasks == nil {
		tasks = []*domain.CrmTask{}
	}

	c.JSON(http.StatusOK, gin.H{
		"tasks": tasks,
		"total": len(tasks),
	})
}

// GetTaskByID returns a specific task
// GET /api/crm/tasks/:id
func (h *CrmHandler) GetTaskByID(c *gin.Context) {
	task, err := h.tasks.FindByID(c.Param("id"))
	if err != nil {
		if errors.Is(err, domain.ErrTaskNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, task)
}

// CreateTaskRequest represents the request body for a manual task
type CreateTaskRequest struct {
	UserID  string `json:"user_id" binding:"required"`
	Type    string `json:"type" binding:"required"`
	DueAt   string `json:"due_at"`
	Payload string `json:"payload"`
}

// CreateTask creates a task manually, outside the planner
// POST /api/crm/tasks
func (h *CrmHandler) CreateTask(c *gin.Context) {
	var req CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	taskType := domain.TaskType(req.Type)
	if !taskType.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown task type"})
		return
	}

	now := time.Now().UTC()
	dueAt := now
	if req.DueAt != "" {
		parsed, err := time.Parse(time.RFC3339, req.DueAt)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "due_at must be RFC3339"})
			return
		}
		dueAt = parsed.UTC()
	}

	task := &domain.CrmTask{
		UserID:         req.UserID,
		Type:           taskType,
		Status:         domain.TaskStatusPending,
		DueAt:          dueAt,
		CreatedAt:      now,
		IdempotencyKey: domain.IdempotencyKey(req.UserID, taskType, dueAt),
		Payload:        req.Payload,
	}

	err := h.tasks.Create(task)
	if errors.Is(err, domain.ErrDuplicateTask) {
		c.JSON(http.StatusConflict, gin.H{"error": "Task already planned for this user and window"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, task)
}

// CancelTask cancels a pending task. A task already claimed by the
// dispatcher is reported as a conflict, not an error.
// POST /api/crm/tasks/:id/cancel
func (h *CrmHandler) CancelTask(c *gin.Context) {
	taskID := c.Param("id")

	cancelled, err := h.tasks.Cancel(taskID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if !cancelled {
		if _, err := h.tasks.FindByID(taskID); errors.Is(err, domain.ErrTaskNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
			return
		}
		c.JSON(http.StatusConflict, gin.H{"error": "Task is no longer pending"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Task cancelled"})
}

// DeleteTask removes a pending task entirely
// DELETE /api/crm/tasks/:id
func (h *CrmHandler) DeleteTask(c *gin.Context) {
	err := h.tasks.Delete(c.Param("id"))
	if err != nil {
		if errors.Is(err, domain.ErrTaskNotPending) {
			c.JSON(http.StatusConflict, gin.H{"error": "Only pending tasks can be deleted"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Task deleted successfully"})
}

// GetContactCounters returns the rate-limit counters for one user
// GET /api/crm/counters/:user_id
func (h *CrmHandler) GetContactCounters(c *gin.Context) {
	counters, err := h.counters.Get(c.Param("user_id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	now := time.Now().UTC()
	c.JSON(http.StatusOK, gin.H{
		"user_id":         counters.UserID,
		"day_count":       counters.DayCount(now),
		"week_count":      counters.WeekCount(now),
		"last_contact_at": counters.LastContactAt,
	})
}
