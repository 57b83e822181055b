package delivery

import (
	"errors"
	"log"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"oracle-bot-backend/internal/subscription/domain"
	"oracle-bot-backend/internal/subscription/usecase"
)

// RobokassaHandler handles Robokassa merchant callbacks
type RobokassaHandler struct {
	subscriptions usecase.SubscriptionUsecase
}

// NewRobokassaHandler creates a new RobokassaHandler
func NewRobokassaHandler(subscriptions usecase.SubscriptionUsecase) *RobokassaHandler {
	return &RobokassaHandler{subscriptions: subscriptions}
}

// Result is the server-to-server payment notification
// POST /robokassa/result
func (h *RobokassaHandler) Result(c *gin.Context) {
	outSum := c.PostForm("OutSum")
	invID := c.PostForm("InvId")
	signature := c.PostForm("SignatureValue")

	if outSum == "" || invID == "" || signature == "" {
		c.String(http.StatusBadRequest, "Missing parameters")
		return
	}

	rawPayload := url.Values{
		"OutSum": {outSum},
		"InvId":  {invID},
	}.Encode()

	err := h.subscriptions.HandleResult(outSum, invID, signature, rawPayload)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidSignature):
			log.Printf("[Robokassa] Invalid signature for invoice %s", invID)
			c.String(http.StatusBadRequest, "Invalid signature")
		case errors.Is(err, domain.ErrPaymentNotFound):
			log.Printf("[Robokassa] Unknown invoice %s", invID)
			c.String(http.StatusBadRequest, "Unknown invoice")
		default:
			log.Printf("[Robokassa] Error processing invoice %s: %v", invID, err)
			c.String(http.StatusInternalServerError, "Internal server error")
		}
		return
	}

	// Robokassa retries unless it reads OK<InvId> back.
	c.String(http.StatusOK, "OK"+invID)
}

// Success is the user-facing redirect after a successful payment
// POST /robokassa/success
func (h *RobokassaHandler) Success(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"message": "Оплата прошла успешно! Подписка активирована.",
	})
}

// Fail is the user-facing redirect after a failed payment
// POST /robokassa/fail
func (h *RobokassaHandler) Fail(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "error",
		"message": "Оплата не прошла. Попробуйте еще раз.",
	})
}
