package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"estateportal/server/config"
	"estateportal/server/internal/api"
	"estateportal/server/internal/cleanup"
	"estateportal/server/internal/database"
	"estateportal/server/internal/datasync"
	"estateportal/server/internal/llm"
	"estateportal/server/internal/queue"
	"estateportal/server/internal/scheduler"
	"estateportal/server/internal/translation"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.WithError(err).Fatal("Failed to load configuration")
	}
	if level, err := logrus.ParseLevel(cfg.Log.Level); err == nil {
		logger.SetLevel(level)
	} else {
		logger.WithField("level", cfg.Log.Level).Warn("Unknown log level, using info")
	}

	if cfg.RegionsFile != "" {
		if err := config.LoadRegions(cfg.RegionsFile); err != nil {
			logger.WithError(err).Fatal("Failed to load regions")
		}
	}

	logger.WithField("driver", cfg.Database.Driver).Info("Opening database")
	db, err := database.NewDatabase(cfg.Database.Driver, cfg.Database.DSN, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize database")
	}
	defer db.Close()

	logger.Info("Running database migrations...")
	if err := db.RunMigrations(); err != nil {
		logger.WithError(err).Fatal("Failed to run database migrations")
	}

	// Assistant replies and slug translation stay off without an API key
	var client llm.Client
	openai, err := llm.NewOpenAIClient(llm.OpenAIConfig{
		APIKey:            cfg.OpenAI.APIKey,
		BaseURL:           cfg.OpenAI.BaseURL,
		Model:             cfg.OpenAI.Model,
		RequestsPerSecond: cfg.OpenAI.RequestsPerSecond,
		Timeout:           cfg.OpenAI.Timeout,
	}, logger)
	switch {
	case err == nil:
		client = openai
	case errors.Is(err, llm.ErrNotConfigured):
		logger.Warn("OPENAI_API_KEY is not set, chatbot and slug translation are disabled")
	default:
		logger.WithError(err).Fatal("Failed to initialize LLM client")
	}

	jobs := queue.NewJobQueue(cfg.Translation.QueueSize, logger)
	handler := api.NewHandler(db, cfg, client, jobs, logger)
	jobs.Start()

	var sched *scheduler.Scheduler
	if cfg.Scheduler.Enabled {
		opts := []scheduler.Option{
			scheduler.WithCleanupHour(cfg.Scheduler.CleanupHour),
			scheduler.WithStartupSync(cfg.Scheduler.SyncOnStartup),
		}
		if client != nil && cfg.Scheduler.HourlyTranslation {
			planner := translation.NewTranslator(db, client, cfg.Translation.BatchSize, cfg.Translation.MaxBatches, logger)
			opts = append(opts, scheduler.WithTranslation(planner, db, jobs))
		}
		sched = scheduler.NewScheduler(datasync.NewSyncer(db, logger), cleanup.NewCleaner(db, logger), logger, opts...)
		sched.Start()
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	api.SetupRoutes(router, handler)

	server := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	go func() {
		logger.Infof("Starting server on port %s", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("Server failed to start")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.WithError(err).Error("Server forced to shutdown")
	}

	if sched != nil {
		sched.Stop()
	}
	handler.Shutdown()
	if err := jobs.Close(); err != nil {
		logger.WithError(err).Error("Failed to close translation queue")
	}
	logger.Info("Server exited")
}
