package delivery

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"oracle-bot-backend/internal/dailymsg/domain"
	"oracle-bot-backend/internal/dailymsg/repository"
	"oracle-bot-backend/internal/dailymsg/usecase"
)

// DailyMessageHandler manages the daily message pool
type DailyMessageHandler struct {
	dailyUsecase usecase.DailyMessageUsecase
	repo         repository.DailyMessageRepository
}

// NewDailyMessageHandler creates a new DailyMessageHandler
func NewDailyMessageHandler(dailyUsecase usecase.DailyMessageUsecase, repo repository.DailyMessageRepository) *DailyMessageHandler {
	return &DailyMessageHandler{dailyUsecase: dailyUsecase, repo: repo}
}

type addMessageRequest struct {
	Text string `json:"text" binding:"required"`
}

// AddMessage adds a new message to the active pool
// POST /api/admin/daily-messages
func (h *DailyMessageHandler) AddMessage(c *gin.Context) {
	var req addMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	text := strings.TrimSpace(req.Text)
	if text == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "text must not be blank"})
		return
	}

	message, err := h.dailyUsecase.AddMessage(text)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, message)
}

// ListMessages returns the active message pool
// GET /api/admin/daily-messages
func (h *DailyMessageHandler) ListMessages(c *gin.Context) {
	messages, err := h.repo.ListActive()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if messages == nil {
		messages = []*domain.DailyMessage{}
	}

	c.JSON(http.StatusOK, gin.H{"messages": messages})
}
