package main

import (
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	api "oracle-bot-backend/cmd/api"
	authUsecase "oracle-bot-backend/internal/auth/usecase"
	"oracle-bot-backend/internal/bot"
	crmDelivery "oracle-bot-backend/internal/crm/delivery"
	crmdomain "oracle-bot-backend/internal/crm/domain"
	crmRepo "oracle-bot-backend/internal/crm/repository"
	crmScheduler "oracle-bot-backend/internal/crm/scheduler"
	crmUsecase "oracle-bot-backend/internal/crm/usecase"
	dailyDelivery "oracle-bot-backend/internal/dailymsg/delivery"
	dailydomain "oracle-bot-backend/internal/dailymsg/domain"
	dailyRepo "oracle-bot-backend/internal/dailymsg/repository"
	dailyUsecase "oracle-bot-backend/internal/dailymsg/usecase"
	metricsDelivery "oracle-bot-backend/internal/metrics/delivery"
	metricsdomain "oracle-bot-backend/internal/metrics/domain"
	metricsRepo "oracle-bot-backend/internal/metrics/repository"
	metricsUsecase "oracle-bot-backend/internal/metrics/usecase"
	questiondomain "oracle-bot-backend/internal/question/domain"
	questionRepo "oracle-bot-backend/internal/question/repository"
	questionUsecase "oracle-bot-backend/internal/question/usecase"
	subDelivery "oracle-bot-backend/internal/subscription/delivery"
	subdomain "oracle-bot-backend/internal/subscription/domain"
	subRepo "oracle-bot-backend/internal/subscription/repository"
	subUsecase "oracle-bot-backend/internal/subscription/usecase"
	userDelivery "oracle-bot-backend/internal/user/delivery"
	userdomain "oracle-bot-backend/internal/user/domain"
	userRepo "oracle-bot-backend/internal/user/repository"
	userUsecasePkg "oracle-bot-backend/internal/user/usecase"
	"oracle-bot-backend/pkg/ai"
	"oracle-bot-backend/pkg/config"
	"oracle-bot-backend/pkg/database"
	"oracle-bot-backend/pkg/robokassa"
	"oracle-bot-backend/pkg/session"
	"oracle-bot-backend/pkg/telegram"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize database
	db, err := database.NewPostgresConnection(cfg)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	// Auto-migrate database schemas
	if err := db.AutoMigrate(
		&userdomain.User{},
		&crmdomain.CrmTask{},
		&crmdomain.ContactCounters{},
		&subdomain.Subscription{},
		&subdomain.Payment{},
		&questiondomain.Question{},
		&dailydomain.DailyMessage{},
		&dailydomain.DailySent{},
		&metricsdomain.Event{},
		&metricsdomain.DailyMetrics{},
	); err != nil {
		log.Fatal("Failed to migrate database:", err)
	}

	// Initialize session store for the onboarding FSM
	sessions, err := session.NewStore(cfg.RedisAddr, cfg.RedisDB, 24*time.Hour)
	if err != nil {
		log.Fatal("Failed to connect to redis:", err)
	}
	defer sessions.Close()

	// Initialize Telegram client
	tgClient, err := telegram.NewClient(cfg.BotToken)
	if err != nil {
		log.Fatal("Failed to initialize telegram client:", err)
	}
	if cfg.WebhookBaseURL != "" {
		if err := tgClient.SetWebhook(cfg.WebhookBaseURL + "/telegram/webhook/" + cfg.BotToken); err != nil {
			log.Fatal("Failed to set telegram webhook:", err)
		}
	}

	// Initialize repositories (dependency injection)
	users := userRepo.NewGormUserRepository(db)
	crmTasks := crmRepo.NewGormTaskRepository(db)
	crmCounters := crmRepo.NewGormContactCounterRepository(db)
	subscriptions := subRepo.NewGormSubscriptionRepository(db)
	payments := subRepo.NewGormPaymentRepository(db)
	questions := questionRepo.NewGormQuestionRepository(db)
	dailyMessages := dailyRepo.NewGormDailyMessageRepository(db)
	events := metricsRepo.NewGormEventRepository(db)
	facts := metricsRepo.NewGormDailyMetricsRepository(db)

	// Initialize use cases (dependency injection)
	userUc := userUsecasePkg.NewUserUsecase(users, cfg.FreeQuestions, cfg.InactivityThreshold, nil)
	metricsUc := metricsUsecase.NewMetricsUsecase(
		events, facts, users, subscriptions, payments, questions, dailyMessages, crmTasks, nil)

	gateway := robokassa.NewClient(
		cfg.RobokassaLogin, cfg.RobokassaPassword1, cfg.RobokassaPassword2, cfg.RobokassaTestMode)
	subUc := subUsecase.NewSubscriptionUsecase(subscriptions, payments, gateway, metricsUc, nil)

	personas := ai.NewPersonaClient(ai.Config{
		APIKey:      cfg.AIAPIKey,
		BaseURL:     cfg.AIBaseURL,
		AdminModel:  cfg.AIAdminModel,
		OracleModel: cfg.AIOracleModel,
	})
	questionUc := questionUsecase.NewQuestionUsecase(
		questions, subUc, userUc, personas, crmTasks, metricsUc, int64(cfg.OracleDailyLimit), nil)
	dailyUc := dailyUsecase.NewDailyMessageUsecase(dailyMessages, metricsUc, nil)
	authUc := authUsecase.NewAuthUsecase(cfg)

	// Initialize the proactive engagement pipeline
	policy := crmdomain.RateLimitPolicy{
		MaxContactsPerDay:       cfg.MaxContactsPerDay,
		MinHoursBetweenContacts: cfg.MinHoursBetweenContacts,
		MaxNudgesPerWeek:        cfg.MaxNudgesPerWeek,
	}
	planner := crmUsecase.NewPlanner(
		crmTasks, crmCounters, userUc, userUc, policy, cfg.PlannerJitter, nil)
	dispatcher := crmUsecase.NewDispatcher(
		crmTasks,
		bot.NewCrmRenderer(userUc),
		bot.NewCrmSender(tgClient, userUc),
		userUc, userUc, cfg.DispatchBatchLimit, nil)

	rollup := func() error {
		_, err := metricsUc.RollupDay(time.Now().UTC())
		return err
	}
	scheduler := crmScheduler.NewEngagementScheduler(
		planner, dispatcher, rollup, cfg.PlannerInterval, cfg.DispatchInterval)
	scheduler.Start()
	defer scheduler.Stop()

	// Initialize HTTP handlers
	botHandler := bot.NewHandler(
		tgClient, sessions, userUc, questionUc, subUc, dailyUc, metricsUc, cfg.AdminChatIDs)
	handler := api.NewHandler(
		cfg,
		authUc,
		botHandler,
		subDelivery.NewRobokassaHandler(subUc),
		crmDelivery.NewCrmHandler(crmTasks, crmCounters, planner, dispatcher),
		metricsDelivery.NewMetricsHandler(metricsUc),
		userDelivery.NewUserHandler(userUc),
		dailyDelivery.NewDailyMessageHandler(dailyUc, dailyMessages),
	)

	// Start server with graceful shutdown
	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: handler.Engine(),
	}
	go func() {
		log.Printf("Server starting on port %s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server:", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down...")
	if err := server.Close(); err != nil {
		log.Println("Server close error:", err)
	}
}
