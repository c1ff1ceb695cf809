package main

import (
	"context"
	"fmt"
	"gatekeeper/contract"
	"gatekeeper/infrastructure/telegram"
	"gatekeeper/internal"
	"gatekeeper/moderation"
	"gatekeeper/observability"
	"gatekeeper/repositories"
	"gatekeeper/runtime"
	"gatekeeper/runtime/workers"
	"gatekeeper/services"
	"gatekeeper/sink"
	"gatekeeper/verification"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run wires every component and blocks until a signal arrives.
// Deferred cleanups run before main exits.
func run() error {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	config, err := internal.LoadConfig()
	if err != nil {
		return err
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Persistence
	driver, location := config.Storage()
	repository, closeRepository, err := repositories.Open(ctx, driver, location, log)
	if err != nil {
		return fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		log.Info("Closing storage...", "driver", driver)
		_ = closeRepository()
	}()

	// 3. Content policy
	filter, err := loadFilter(config, log)
	if err != nil {
		return err
	}

	// 4. Platform
	bot, err := telegram.NewBot(telegram.Settings{
		Token:       config.TelegramToken,
		PollTimeout: config.PollTimeout,
	}, log)
	if err != nil {
		return err
	}

	// 5. Engine
	metrics := observability.NewMetrics()
	admin := config.AdminDestination()
	notifier := sink.NewAdminNotifier(bot, admin, log, metrics, config.NotifyBufferSize, config.NotifyTimeout)
	fields := verification.NewFields()
	enforcement := services.NewEnforcementService(log, repository, bot, notifier, fields, metrics)
	store := verification.NewStore(log, verification.RealScheduler(), enforcement, config.VerificationTimeout)
	defer store.Shutdown()

	collector := services.NewCollectorService(log, store, fields, repository, bot, notifier, metrics)
	dispatcher := runtime.NewEventDispatcher(
		services.NewJoinService(log, store, fields, bot, notifier),
		collector,
		services.NewRouterService(log, fields, collector, filter, repository, bot, notifier, metrics),
		services.NewOperatorService(log, store, fields, repository, bot, notifier, admin),
	)

	// 6. Supervision & Orchestration
	sup := workers.NewSupervisor(log, config.RestartInterval)
	orchestrator := runtime.NewOrchestrator(
		log, sup, dispatcher,
		config.NumberOfWorkers, config.BufferSize, config.HandlerTimeout,
	)
	background := []contract.Worker{
		notifier,
		workers.NewHeartbeatWorker(log, metrics, store, fields, config.MetricInterval),
	}
	if config.DebugAddr != "" {
		handler := internal.NewDebugHandler(metrics, store)
		background = append(background, internal.NewDebugServer(log, config.DebugAddr, handler))
	}
	orchestrator.Add(background...)

	errChan := make(chan error, 1)
	go func() {
		errChan <- orchestrator.Start(ctx)
	}()

	// 7. Platform updates
	bot.Register(orchestrator)
	go bot.Start()
	announceStartup(notifier, config.VerificationTimeout)

	// 8. Wait for Stop or Error
	select {
	case <-ctx.Done():
		log.Info("Shutting down gracefully...")
	case err = <-errChan:
		if err != nil {
			return fmt.Errorf("orchestrator stopped: %w", err)
		}
	}

	// 9. Final Cleanup
	bot.Stop()
	orchestrator.Stop()
	log.Info("Program stopped cleanly")
	return nil
}

// announceStartup tells the operator the bot is up; delivery happens once the notifier worker runs.
func announceStartup(notifier contract.Notifier, timeout time.Duration) {
	notifier.Notify(fmt.Sprintf("Security bot started. Verification timeout: %s.", timeout))
}

func loadFilter(config internal.Config, log *slog.Logger) (*moderation.Filter, error) {
	loader := runtime.DefaultPolicyLoader()
	if config.PolicyDir != "" {
		loader = runtime.NewPolicyLoader(os.DirFS(config.PolicyDir))
	}
	policy, err := loader.Load()
	if err != nil {
		return nil, fmt.Errorf("policy loading failed: %w", err)
	}
	log.Info("Content policy loaded",
		"words", len(policy.Words),
		"domains", len(policy.Domains),
		"sources", policy.Sources)

	filter, err := moderation.NewFilter(policy.Words, policy.Domains,
		moderation.WithLeetFolding(config.ModerationFoldLeet))
	if err != nil {
		return nil, fmt.Errorf("filter build failed: %w", err)
	}
	return filter, nil
}
