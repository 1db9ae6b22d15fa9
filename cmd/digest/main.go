package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"news_digest/internal/bot"
	"news_digest/internal/config"
	"news_digest/internal/openai"
	"news_digest/internal/publisher"
	"news_digest/internal/scheduler"
	"news_digest/internal/service"
	"news_digest/internal/source/dw"
	"news_digest/internal/storage/postgres"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	logger := setupLogger("info")

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger = setupLogger(cfg.LogLevel)

	db, err := sqlx.Connect("postgres", cfg.Database.DSN())
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		logger.Error("failed to ping database", "error", err)
		os.Exit(1)
	}
	logger.Info("connected to database")

	// The ingest-event publisher is optional: no broker URL, no publisher.
	var ingestPublisher service.Publisher
	if cfg.RabbitMQ.URL != "" {
		rabbitMQ, err := publisher.NewRabbitMQ(publisher.Config{
			URL:        cfg.RabbitMQ.URL,
			Exchange:   cfg.RabbitMQ.Exchange,
			RoutingKey: cfg.RabbitMQ.RoutingKey,
			QueueName:  cfg.RabbitMQ.QueueName,
		}, logger)
		if err != nil {
			logger.Error("failed to connect to rabbitmq", "error", err)
			os.Exit(1)
		}
		defer rabbitMQ.Close()
		ingestPublisher = rabbitMQ
	}

	articleStore := postgres.NewArticleStore(db)
	subscriberStore := postgres.NewSubscriberStore(db)
	ingestStateStore := postgres.NewIngestStateStore(db)
	txManager := postgres.NewTransactionManager(db)

	dwSource := dw.New(dw.Config{
		BaseURL:     cfg.Source.BaseURL,
		SectionPath: cfg.Source.SectionPath,
		Timeout:     cfg.Source.Timeout,
	}, logger)

	openaiClient := openai.NewClient(openai.Config{
		BaseURL:      cfg.OpenAI.BaseURL,
		APIKey:       cfg.OpenAI.APIKey,
		Model:        cfg.OpenAI.Model,
		TTSModel:     cfg.OpenAI.TTSModel,
		TTSVoice:     cfg.OpenAI.TTSVoice,
		SystemPrompt: cfg.OpenAI.SystemPrompt,
		MaxTokens:    cfg.OpenAI.MaxTokens,
		Temperature:  cfg.OpenAI.Temperature,
	})

	telegramClient := bot.NewClient(bot.Config{
		APIURL:      cfg.Telegram.APIURL,
		Token:       cfg.Telegram.Token,
		PollTimeout: cfg.Telegram.PollTimeout,
	})

	ingestService := service.NewIngestService(
		dwSource,
		articleStore,
		ingestStateStore,
		txManager,
		ingestPublisher,
		logger,
	)

	digestService := service.NewDigestService(
		ingestService,
		subscriberStore,
		openaiClient,
		openaiClient,
		telegramClient,
		cfg.Digest.VoiceFile,
		logger,
	)

	digestBot := bot.New(telegramClient, subscriberStore, cfg.Digest.VoiceFile, logger)

	sched := scheduler.NewScheduler(digestService, cfg.Digest.Hour, cfg.Digest.Location(), logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	go func() {
		if err := digestBot.Run(ctx); err != nil && err != context.Canceled {
			logger.Error("bot error", "error", err)
		}
	}()

	logger.Info("starting news digest",
		"source", dwSource.Name(),
		"hour", cfg.Digest.Hour,
		"timezone", cfg.Digest.Location().String(),
	)

	if err := sched.Start(ctx); err != nil && err != context.Canceled {
		logger.Error("scheduler error", "error", err)
		os.Exit(1)
	}
}

func setupLogger(level string) *slog.Logger {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: logLevel}
	handler := slog.NewJSONHandler(os.Stdout, opts)
	return slog.New(handler)
}
