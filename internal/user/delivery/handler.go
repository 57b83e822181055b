package delivery

import (
	"errors"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"oracle-bot-backend/internal/user/domain"
	"oracle-bot-backend/internal/user/usecase"
	"oracle-bot-backend/pkg/fuzzy"
)

// UserHandler serves the admin user directory
type UserHandler struct {
	userUsecase usecase.UserUsecase
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(userUsecase usecase.UserUsecase) *UserHandler {
	return &UserHandler{userUsecase: userUsecase}
}

// searchWindow caps how many users a fuzzy search scans per request
const searchWindow = 500

// ListUsers returns a page of users, optionally filtered by a fuzzy
// username search
// GET /api/admin/users?limit=50&offset=0&q=ivan
func (h *UserHandler) ListUsers(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit < 1 || limit > 500 {
		limit = 50
	}
	offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		offset = 0
	}

	if query := strings.TrimSpace(c.Query("q")); query != "" {
		h.searchUsers(c, query, limit)
		return
	}

	users, total, err := h.userUsecase.ListUsers(limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if users == nil {
		users = []*domain.User{}
	}

	c.JSON(http.StatusOK, gin.H{
		"users": users,
		"total": total,
	})
}

func (h *UserHandler) searchUsers(c *gin.Context, query string, limit int) {
	users, _, err := h.userUsecase.ListUsers(searchWindow, 0)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	matched := []*domain.User{}
	for _, user := range users {
		if user.Username != "" && fuzzy.MatchUsername(query, user.Username) {
			matched = append(matched, user)
		}
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return fuzzy.Score(query, matched[i].Username) > fuzzy.Score(query, matched[j].Username)
	})
	if len(matched) > limit {
		matched = matched[:limit]
	}

	c.JSON(http.StatusOK, gin.H{
		"users": matched,
		"total": len(matched),
	})
}

// GetUser returns a single user by ID
// GET /api/admin/users/:id
func (h *UserHandler) GetUser(c *gin.Context) {
	user, err := h.userUsecase.GetByID(c.Param("id"))
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, user)
}
