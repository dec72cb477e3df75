package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"review_reminder/internal/app"
	"review_reminder/internal/domain/notification"
	"review_reminder/internal/domain/random"
	"review_reminder/internal/domain/review"
	"review_reminder/internal/infra/config"
	idb "review_reminder/internal/infra/database"
	"review_reminder/internal/infra/email"
	"review_reminder/internal/infra/httpapi"
	"review_reminder/internal/infra/logger"
	"review_reminder/internal/infra/scheduler"
	"review_reminder/internal/infra/telegram"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

func main() {
	fmt.Println("Review Reminder starting...")

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Could not load application configuration: %v\n", err)
		os.Exit(1)
	}

	logger.Init(cfg)
	mainLogger := logger.WithComponent("main")
	mainLogger.WithFields(logrus.Fields{
		"environment": cfg.Environment,
		"sweep_mode":  cfg.SweepMode,
		"cron_spec":   cfg.CronSpecDueSweep,
	}).Info("Configuration loaded")

	appCtx, cancelApp := context.WithCancel(context.Background())
	defer cancelApp()

	// Initialize Database Connection
	db, err := idb.NewPostgresConnection(appCtx, cfg.DatabaseURL)
	if err != nil {
		mainLogger.WithError(err).Fatal("Could not connect to database")
	}
	defer db.Close()
	mainLogger.Info("Database connection established successfully.")

	// Initialize Repositories
	subscriberRepo := idb.NewPostgresSubscriberRepository(db)
	notificationRepo := idb.NewPostgresNotificationRepository(db)
	reviewRepo := idb.NewPostgresReviewRepository(db)

	// Email transport
	transport, err := email.NewSESTransportFromRegion(appCtx, cfg.AWSRegion, cfg.EmailFrom)
	if err != nil {
		mainLogger.WithError(err).Fatal("Could not initialize SES transport")
	}

	// Domain engines
	scheduleCfg := notification.DefaultScheduleConfig()
	scheduleCfg.Location = cfg.ScheduleLocation
	notifScheduler := notification.NewScheduler(scheduleCfg, random.Global())
	composer := review.NewComposer(random.Global())
	if err := review.ValidateTemplates(review.DefaultTemplates()); err != nil {
		mainLogger.WithError(err).Fatal("Built-in review templates are invalid")
	}

	// Services
	reminderService := app.NewReminderService(
		notificationRepo,
		transport,
		notifScheduler,
		app.NewReminderRenderer(cfg.BaseURL),
		app.ReminderConfig{Mode: cfg.SweepMode, Concurrency: cfg.SweepConcurrency},
		logger.WithComponent("reminder_service"),
	)
	reviewService := app.NewReviewService(reviewRepo, notificationRepo, composer, review.DefaultTemplates(), logger.WithComponent("review_service"))
	subscriberService := app.NewSubscriberService(
		subscriberRepo,
		notificationRepo,
		reviewRepo,
		notifScheduler,
		notification.Preferences{IntervalDays: cfg.DefaultIntervalDays, TimeSlot: cfg.DefaultTimeSlot},
		logger.WithComponent("subscriber_service"),
	)

	// Optional operator bot
	var bot *telebot.Bot
	var operator *scheduler.OperatorNotifier
	if cfg.OperatorBotEnabled() {
		botLogger := logger.WithComponent("telegram")
		pref := telebot.Settings{
			Token:  cfg.OperatorTelegramToken,
			Poller: &telebot.LongPoller{Timeout: 10 * time.Second},
			OnError: func(err error, c telebot.Context) { // Global error handler
				entry := botLogger.WithError(err)
				if c != nil && c.Sender() != nil {
					entry = entry.WithField("sender_id", c.Sender().ID)
				}
				entry.Error("Telebot error")
			},
		}
		bot, err = telebot.NewBot(pref)
		if err != nil {
			mainLogger.WithError(err).Fatal("Could not create Telegram bot")
		}
		telegram.RegisterBotCommands(bot, cfg.OperatorTelegramID, botLogger)
		telegram.RegisterAdminHandlers(appCtx, bot, reminderService, subscriberService, cfg.OperatorTelegramID, botLogger)
		operator = &scheduler.OperatorNotifier{Client: telegram.NewTelebotAdapter(bot), ChatID: cfg.OperatorTelegramID}
		mainLogger.Info("Operator bot handlers registered.")
	}

	// Cron trigger
	reminderScheduler := scheduler.NewReminderScheduler(
		reminderService,
		operator,
		logger.WithComponent("scheduler"),
		cfg.CronSpecDueSweep,
		cfg.SweepTimeout,
		cfg.ScheduleLocation,
	)
	if err := reminderScheduler.Start(); err != nil {
		mainLogger.WithError(err).Fatal("Could not start reminder scheduler")
	}

	// HTTP API
	server := httpapi.NewServer(cfg.HTTPAddr, httpapi.Deps{
		Sweeper:     reminderService,
		Reviews:     reviewService,
		Subscribers: subscriberService,
		CronSecret:  cfg.CronSecret,
	}, logger.WithComponent("http"))
	go func() {
		if err := server.Start(); err != nil {
			mainLogger.WithError(err).Fatal("HTTP server stopped unexpectedly")
		}
	}()

	if bot != nil {
		// Start bot in a goroutine so it doesn't block graceful shutdown handling
		go bot.Start()
	}

	mainLogger.Info("Application setup complete.")

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit // Block until a signal is received

	mainLogger.Info("Shutting down application...")
	cancelApp()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		mainLogger.WithError(err).Error("HTTP server shutdown failed")
	}
	if bot != nil {
		bot.Stop()
	}
	reminderScheduler.Stop()
	mainLogger.Info("Application shut down gracefully.")
}
