package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/arslanov-m/macdscan/internal/bybit"
	"github.com/arslanov-m/macdscan/internal/config"
	"github.com/arslanov-m/macdscan/internal/logger"
	"github.com/arslanov-m/macdscan/internal/scanner"
	"github.com/arslanov-m/macdscan/internal/server"
	"github.com/arslanov-m/macdscan/internal/storage"
	"github.com/arslanov-m/macdscan/internal/telegram"
)

var configPath = flag.String("config", "configs/config.yaml", "Path to configuration file")

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger.Init(cfg.Logging.Level, cfg.Logging.Format, logger.FileConfig{
		Path:       cfg.Logging.File,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
	})
	logger.Info("Configuration loaded from %s", *configPath)

	store, err := storage.New(cfg.Storage.DBPath)
	if err != nil {
		logger.Fatal("Failed to initialize storage: %v", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("Failed to close storage: %v", err)
		}
	}()

	bybitClient := bybit.NewClient(bybit.Config{
		BaseURL:        cfg.Bybit.BaseURL,
		Category:       cfg.Bybit.Category,
		KlineLimit:     cfg.Bybit.KlineLimit,
		Timeout:        cfg.Bybit.Timeout,
		MaxRetries:     cfg.Bybit.MaxRetries,
		RetryDelayBase: cfg.Bybit.RetryDelayBase,
	})

	var notifier scanner.Notifier
	var telegramClient *telegram.Client
	if cfg.Telegram.Enabled {
		telegramClient, err = telegram.NewClient(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Telegram.MaxRetries, cfg.Telegram.RetryDelayBase)
		if err != nil {
			logger.Fatal("Failed to initialize Telegram client: %v", err)
		}
		notifier = telegramClient
		logger.Info("Telegram client initialized successfully")
	} else {
		logger.Debug("Telegram notifications disabled")
	}

	scan := scanner.New(bybitClient, bybitClient, store, notifier, store, scanner.Config{
		Workers:   cfg.Scanner.Workers,
		QuoteCoin: cfg.Bybit.QuoteCoin,
		Fast:      cfg.Indicator.Fast,
		Slow:      cfg.Indicator.Slow,
		Signal:    cfg.Indicator.Signal,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		logger.Info("Shutdown signal received, cleaning up...")
		cancel()
	}()

	if cfg.Telegram.Enabled && telegramClient != nil {
		telegramClient.ListenForCommands(ctx)
	}

	logger.Info("Starting scan service (interval: %v, workers: %d, MACD %d/%d/%d)",
		cfg.Scanner.Interval,
		cfg.Scanner.Workers,
		cfg.Indicator.Fast,
		cfg.Indicator.Slow,
		cfg.Indicator.Signal,
	)

	go runScanLoop(ctx, scan, telegramClient, cfg)
	go server.Ping(ctx, cfg.Server.SelfURL, cfg.Server.PingInterval, cfg.Server.PingTimeout)

	srv := &http.Server{Addr: cfg.Server.ListenAddr, Handler: server.Router(store)}
	go func() {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("Listening on %s", cfg.Server.ListenAddr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal("HTTP server failed: %v", err)
	}
	logger.Info("Service stopped")
}

// runScanLoop drives the scan cycles: one forced cycle at startup, then
// one per tick until ctx is cancelled. Cycle errors never stop the loop.
func runScanLoop(ctx context.Context, scan *scanner.Scanner, telegramClient *telegram.Client, cfg *config.Config) {
	consecutiveFailures := 0

	handleCycleResult := func(err error) {
		if err != nil {
			consecutiveFailures++
			logger.Error("Scan cycle failed: %v", err)
			if consecutiveFailures == 1 && cfg.Telegram.Enabled && telegramClient != nil {
				if sendErr := telegramClient.SendError(err); sendErr != nil {
					logger.Warn("Failed to send error notification to Telegram: %v", sendErr)
				}
			}
		} else {
			if consecutiveFailures > 0 && cfg.Telegram.Enabled && telegramClient != nil {
				if sendErr := telegramClient.SendRecovery(consecutiveFailures); sendErr != nil {
					logger.Warn("Failed to send recovery notification to Telegram: %v", sendErr)
				}
			}
			consecutiveFailures = 0
		}
	}

	logger.Debug("Running initial scan cycle (forced)")
	handleCycleResult(scan.RunCycle(ctx, true))

	ticker := time.NewTicker(cfg.Scanner.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("Scan loop stopped")
			return
		case <-ticker.C:
			logger.Debug("Starting scheduled scan cycle")
			handleCycleResult(scan.RunCycle(ctx, false))
		}
	}
}
