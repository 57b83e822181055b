package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	authDelivery "oracle-bot-backend/internal/auth/delivery"
	authUsecasePkg "oracle-bot-backend/internal/auth/usecase"
	"oracle-bot-backend/internal/bot"
	crmDelivery "oracle-bot-backend/internal/crm/delivery"
	dailyDelivery "oracle-bot-backend/internal/dailymsg/delivery"
	metricsDelivery "oracle-bot-backend/internal/metrics/delivery"
	subDelivery "oracle-bot-backend/internal/subscription/delivery"
	userDelivery "oracle-bot-backend/internal/user/delivery"
)

func SetupRoutes(
	r *gin.Engine,
	webhookToken string,
	authUsecase authUsecasePkg.AuthUsecase,
	botHandler *bot.Handler,
	robokassaHandler *subDelivery.RobokassaHandler,
	crmHandler *crmDelivery.CrmHandler,
	metricsHandler *metricsDelivery.MetricsHandler,
	userHandler *userDelivery.UserHandler,
	dailyHandler *dailyDelivery.DailyMessageHandler,
) {
	authHandler := authDelivery.NewAuthHandler(authUsecase)

	// The webhook path embeds the bot token so only Telegram can reach it.
	r.POST("/telegram/webhook/:token", func(c *gin.Context) {
		if c.Param("token") != webhookToken {
			c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			return
		}
		botHandler.Webhook(c)
	})

	// Robokassa callbacks are authenticated by signature, not by path.
	robokassa := r.Group("/robokassa")
	{
		robokassa.POST("/result", robokassaHandler.Result)
		robokassa.GET("/success", robokassaHandler.Success)
		robokassa.GET("/fail", robokassaHandler.Fail)
	}

	api := r.Group("/api")
	{
		// Health check (no auth required)
		api.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
		})

		// Auth routes
		auth := api.Group("/auth")
		{
			auth.POST("/login", authHandler.Login)
		}

		// Admin routes (protected)
		admin := api.Group("/admin")
		admin.Use(authDelivery.AuthMiddleware(authUsecase))
		{
			admin.GET("/users", userHandler.ListUsers)
			admin.GET("/users/:id", userHandler.GetUser)

			admin.GET("/daily-messages", dailyHandler.ListMessages)
			admin.POST("/daily-messages", dailyHandler.AddMessage)

			crm := admin.Group("/crm")
			{
				crm.GET("/tasks", crmHandler.GetTasks)
				crm.POST("/tasks", crmHandler.CreateTask)
				crm.GET("/tasks/:id", crmHandler.GetTaskByID)
				crm.POST("/tasks/:id/cancel", crmHandler.CancelTask)
				crm.DELETE("/tasks/:id", crmHandler.DeleteTask)
				crm.GET("/counters/:user_id", crmHandler.GetContactCounters)
				crm.POST("/plan", crmHandler.TriggerPlan)
				crm.POST("/dispatch", crmHandler.TriggerDispatch)
			}

			metrics := admin.Group("/metrics")
			{
				metrics.GET("/stats", metricsHandler.GetStats)
				metrics.GET("/stats/export", metricsHandler.ExportStats)
				metrics.POST("/rollup", metricsHandler.TriggerRollup)
			}
		}
	}
}
