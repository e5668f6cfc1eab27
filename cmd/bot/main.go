package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gopkg.in/telebot.v3"

	"github.com/EdwarHercules/bots-telegram/internal/app"
	"github.com/EdwarHercules/bots-telegram/internal/domain/request"
	"github.com/EdwarHercules/bots-telegram/internal/infra/config"
	idb "github.com/EdwarHercules/bots-telegram/internal/infra/database"
	"github.com/EdwarHercules/bots-telegram/internal/infra/excel"
	"github.com/EdwarHercules/bots-telegram/internal/infra/logger"
	"github.com/EdwarHercules/bots-telegram/internal/infra/scheduler"
	"github.com/EdwarHercules/bots-telegram/internal/infra/telegram"
	"github.com/EdwarHercules/bots-telegram/internal/report"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Log.Fatalf("FATAL: Could not load application configuration: %v", err)
	}
	logger.Init(cfg)
	log := logger.Get()
	log.WithField("environment", cfg.Environment).Info("Meter report bot starting")

	// Warehouse connection carries the catalog datasets, users and plans.
	db, err := idb.NewPostgresConnection(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("FATAL: Could not connect to database: %v", err)
	}
	defer db.Close()
	log.Info("Database connection established")

	userRepo := idb.NewPostgresUserRepository(db)
	planRepo := idb.NewPostgresPlanRepository(db)
	datasets := idb.NewPostgresDatasets(db)

	// The request queue can live in the warehouse or in a local SQLite file.
	requestRepo, closeQueue, err := buildRequestRepository(cfg, db)
	if err != nil {
		log.Fatalf("FATAL: Could not initialize request queue store: %v", err)
	}
	if closeQueue != nil {
		defer closeQueue()
	}

	requestService := app.NewRequestService(userRepo, planRepo, requestRepo, datasets, cfg.PlanWindow)
	planService := app.NewPlanService(planRepo)
	log.Info("Application services initialized")

	pref := telebot.Settings{
		Token:  cfg.TelegramToken,
		Poller: &telebot.LongPoller{Timeout: 10 * time.Second},
		OnError: func(err error, c telebot.Context) {
			entry := log.WithError(err)
			if c != nil && c.Sender() != nil {
				entry = entry.WithField("sender_id", c.Sender().ID)
			}
			entry.Error("Telegram handler error")
		},
	}
	bot, err := telebot.NewBot(pref)
	if err != nil {
		log.Fatalf("FATAL: Could not create Telegram bot: %v", err)
	}

	notifier := telegram.NewTelebotAdapter(bot)
	builder := report.NewBuilder(datasets)
	processor := app.NewProcessor(requestRepo, builder, notifier, cfg.QueueScanWindow)

	queueScheduler := scheduler.NewQueueScheduler(processor, cfg.ProcessInterval, cfg.RequeueClaimedAfter)
	if err := queueScheduler.Start(); err != nil {
		log.Fatalf("FATAL: Could not start queue scheduler: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sessions := telegram.NewSessionStore()
	telegram.RegisterConversationHandlers(
		ctx,
		bot,
		requestService,
		planService,
		excel.ParsePlanWorkbook,
		sessions,
		log.WithField("component", "telegram"),
	)
	log.Info("Conversation handlers registered")

	go bot.Start()
	log.Info("Bot polling started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down")
	bot.Stop()
	queueScheduler.Stop()
	log.Info("Shut down gracefully")
}

// buildRequestRepository picks the queue backend from configuration: the
// shared Postgres database by default, a dedicated SQLite file or a second
// Postgres instance when QUEUE_DATABASE_URL points at one.
func buildRequestRepository(cfg *config.AppConfig, warehouse *sql.DB) (request.Repository, func() error, error) {
	if cfg.QueueDatabaseURL == "" {
		return idb.NewPostgresRequestRepository(warehouse), nil, nil
	}

	if idb.IsSQLiteURL(cfg.QueueDatabaseURL) {
		queueDB, err := idb.NewSQLiteConnection(cfg.QueueDatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		repo, err := idb.NewSQLiteRequestRepository(queueDB)
		if err != nil {
			queueDB.Close()
			return nil, nil, err
		}
		return repo, queueDB.Close, nil
	}

	queueDB, err := idb.NewPostgresConnection(cfg.QueueDatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	return idb.NewPostgresRequestRepository(queueDB), queueDB.Close, nil
}
