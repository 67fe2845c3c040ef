package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"rssgram/internal/bot"
	"rssgram/internal/config"
	"rssgram/internal/feed"
	"rssgram/internal/history"
	"rssgram/internal/monitor"
	"rssgram/internal/scheduler"
	"rssgram/internal/summarizer"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(log)

	start := time.Now()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		log.ErrorContext(ctx, "Failed to load config",
			"error", err)

		os.Exit(1)
	}
	log.InfoContext(ctx, "Config is loaded",
		"checkIntervalSeconds", cfg.CheckIntervalSeconds,
		"includeDescription", cfg.IncludeDescription,
		"disableNotification", cfg.DisableNotification,
		"historyDriver", cfg.HistoryDriver)

	store, err := history.Open(ctx, cfg.HistoryDriver, cfg.HistoryFile, cfg.MaxHistoryItems, log)
	if err != nil {
		log.ErrorContext(ctx, "Failed to open history store",
			"error", err,
			"historyDriver", cfg.HistoryDriver,
			"historyFile", cfg.HistoryFile)

		os.Exit(1)
	}
	defer func() {
		if err = store.Close(); err != nil {
			log.ErrorContext(ctx, "Failed to close history store",
				"error", err,
				"historyFile", cfg.HistoryFile)
		}
	}()
	log.InfoContext(ctx, "History store is opened",
		"historyDriver", cfg.HistoryDriver,
		"historyFile", cfg.HistoryFile)

	botInst, err := bot.New(
		cfg.Token,
		cfg.ChatID,
		cfg.TopicID,
		cfg.DisableNotification,
		cfg.DeliveryDelay,
		log,
	)
	if err != nil {
		log.ErrorContext(ctx, "Failed to initialize bot",
			"error", err,
			"chatID", cfg.ChatID)

		os.Exit(1)
	}
	defer botInst.Stop()
	log.InfoContext(ctx, "Bot is initialized",
		"chatID", cfg.ChatID,
		"topicID", cfg.TopicID)

	fetcher := feed.NewFetcher(cfg.FetchTimeout, log)
	formatter := feed.NewFormatter(
		cfg.IncludeDescription,
		cfg.MaxDescriptionLength,
		initOpenAISummarizer(ctx, cfg, log),
		log,
	)

	mon := monitor.New(cfg.FeedsFile, store, fetcher, formatter, botInst, log)
	mon.Announce(ctx)

	sched := scheduler.New(ctx, mon, cfg.CheckInterval(), log)
	if err = sched.Start(); err != nil {
		log.ErrorContext(ctx, "Failed to start scheduler",
			"error", err,
			"spec", sched.Spec())

		os.Exit(1)
	}
	defer sched.Stop()
	log.InfoContext(ctx, "Scheduler is started",
		"spec", sched.Spec())

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	sig := <-c
	log.InfoContext(ctx, "Shutdown signal is received",
		"signal", sig.String())
	cancel()

	log.InfoContext(ctx, "Exiting...",
		"signal", sig.String(),
		"uptimeSeconds", time.Since(start).Seconds())
}

func initOpenAISummarizer(
	ctx context.Context,
	cfg config.Config,
	log *slog.Logger,
) summarizer.Summarizer {
	if cfg.OpenAIAPIKey == "" {
		return nil
	}

	s, err := summarizer.NewOpenAISummarizer(cfg.OpenAIAPIKey)
	if err != nil {
		log.ErrorContext(ctx, "Failed to create OpenAI summarizer so truncation will be used",
			"error", err,
			"envVar", "OPENAI_API_KEY")

		return nil
	}

	log.InfoContext(ctx, "OpenAI summarizer is initialized",
		"provider", "openai")

	return s
}
