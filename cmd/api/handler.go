package api

import (
	"github.com/gin-gonic/gin"

	authUsecasePkg "oracle-bot-backend/internal/auth/usecase"
	"oracle-bot-backend/internal/bot"
	crmDelivery "oracle-bot-backend/internal/crm/delivery"
	dailyDelivery "oracle-bot-backend/internal/dailymsg/delivery"
	metricsDelivery "oracle-bot-backend/internal/metrics/delivery"
	subDelivery "oracle-bot-backend/internal/subscription/delivery"
	userDelivery "oracle-bot-backend/internal/user/delivery"
	"oracle-bot-backend/pkg/config"
)

// Handler assembles the HTTP surface: Telegram webhook, Robokassa
// callbacks and the admin API.
type Handler struct {
	config           *config.Config
	authUsecase      authUsecasePkg.AuthUsecase
	botHandler       *bot.Handler
	robokassaHandler *subDelivery.RobokassaHandler
	crmHandler       *crmDelivery.CrmHandler
	metricsHandler   *metricsDelivery.MetricsHandler
	userHandler      *userDelivery.UserHandler
	dailyHandler     *dailyDelivery.DailyMessageHandler
}

func NewHandler(
	cfg *config.Config,
	authUsecase authUsecasePkg.AuthUsecase,
	botHandler *bot.Handler,
	robokassaHandler *subDelivery.RobokassaHandler,
	crmHandler *crmDelivery.CrmHandler,
	metricsHandler *metricsDelivery.MetricsHandler,
	userHandler *userDelivery.UserHandler,
	dailyHandler *dailyDelivery.DailyMessageHandler,
) *Handler {
	return &Handler{
		config:           cfg,
		authUsecase:      authUsecase,
		botHandler:       botHandler,
		robokassaHandler: robokassaHandler,
		crmHandler:       crmHandler,
		metricsHandler:   metricsHandler,
		userHandler:      userHandler,
		dailyHandler:     dailyHandler,
	}
}

// Engine builds the configured gin engine
func (h *Handler) Engine() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.Default()

	// CORS middleware for the admin dashboard
	r.Use(func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin != "" {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		} else {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		}

		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	SetupRoutes(r, h.config.BotToken, h.authUsecase, h.botHandler,
		h.robokassaHandler, h.crmHandler, h.metricsHandler,
		h.userHandler, h.dailyHandler)
	return r
}

func (h *Handler) Start(addr string) error {
	return h.Engine().Run(addr)
}
