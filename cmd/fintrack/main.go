package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fintrack/internal/amqp"
	"fintrack/internal/cli"
	"fintrack/internal/device"
	apphttp "fintrack/internal/http"
	"fintrack/internal/remote"
	"fintrack/internal/remote/httpapi"
	"fintrack/internal/remote/memory"
	"fintrack/internal/services"
	"fintrack/internal/store"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger()
	cfg := cli.LoadAndValidateConfig(logger)

	// Choose the transaction gateway (default: remote HTTP feed).
	var gw remote.Gateway
	switch cfg.DataBackend {
	case "memory":
		gw = memory.NewFromFile(cfg.SeedFile)
		logger.Info("Initialized memory gateway", "seed_file", cfg.SeedFile)
	default:
		gw = httpapi.NewClient(cfg.RemoteAPIURL, cfg.RemoteTimeout)
		logger.Info("Initialized HTTP gateway", "url", cfg.RemoteAPIURL)
	}

	st := store.New(gw)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initial load is best effort: a dead remote still leaves a working
	// server with an empty collection, refreshable later.
	if err := st.FetchAll(ctx); err != nil {
		logger.Warn("Initial transaction fetch failed", "error", err)
	}

	// Calendar reminders: SQLite store, due-scan processor, AMQP publish.
	var reminderService *services.ReminderService
	if cfg.CalendarEnabled {
		repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
		defer repo.Close()

		var publisher services.DuePublisher
		if cfg.AMQPURL != "" {
			amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
			if err != nil {
				logger.Warn("AMQP unavailable, due reminders will only be logged", "error", err)
			} else {
				defer amqpClient.Close()
				publisher = amqpClient
			}
		}

		reminderService = services.NewReminderService(repo, true)
		processor := services.NewReminderProcessor(repo, publisher, services.ReminderProcessorConfig{
			PollInterval: cfg.ReminderPollEvery,
			BatchSize:    cfg.ReminderBatchSize,
		})
		if err := processor.Start(ctx); err != nil {
			logger.Error("Failed to start reminder processor", "error", err)
			os.Exit(1)
		}
		defer func() {
			stopCtx, stopCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer stopCancel()
			_ = processor.Stop(stopCtx)
		}()
	} else {
		logger.Info("Calendar capability disabled")
	}

	// Battery monitor runs even without subscribers so low-level warnings
	// reach the logs; its endpoints degrade when no battery exists.
	battery := device.NewMonitor(device.MonitorConfig{
		SysfsPath:    cfg.BatterySysfsPath,
		Name:         cfg.BatteryName,
		LowThreshold: cfg.BatteryLowThreshold,
		PollInterval: cfg.BatteryPollEvery,
		SettingsCmd:  cfg.BatterySettingsCmd,
	})
	if err := battery.Start(ctx); err != nil {
		logger.Error("Failed to start battery monitor", "error", err)
		os.Exit(1)
	}
	defer func() {
		stopCtx, stopCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer stopCancel()
		_ = battery.Stop(stopCtx)
	}()

	srv := apphttp.NewServer(":"+cfg.Port, st, reminderService, battery, cfg.PageSize)

	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		cancel()
	}()

	logger.Info("Starting fintrack server", "port", cfg.Port, "backend", cfg.DataBackend)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("Server stopped gracefully")
}
