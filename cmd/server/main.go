package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"billvault/internal/app"
	"billvault/internal/domain/billing"
	"billvault/internal/infra/auth"
	"billvault/internal/infra/clock"
	"billvault/internal/infra/config"
	idb "billvault/internal/infra/database"
	"billvault/internal/infra/httpapi"
	"billvault/internal/infra/logger"
	"billvault/internal/infra/notify"
	"billvault/internal/infra/scheduler"
	"billvault/internal/infra/telegram"
	"billvault/internal/infra/token"

	"gopkg.in/telebot.v3"
)

const jwtExpiry = 24 * time.Hour

func main() {
	fmt.Println("BillVault escrow engine starting...")

	mainLogger := log.New(os.Stdout, "MAIN: ", log.LstdFlags|log.Lshortfile)

	cfg, err := config.Load()
	if err != nil {
		mainLogger.Fatalf("FATAL: Could not load application configuration: %v", err)
	}

	logger.Init(cfg)
	mainLogger.Printf("INFO: Configuration loaded. LogLevel: %s, Environment: %s, Admin: %s", cfg.LogLevel, cfg.Environment, cfg.AdminAddress)

	// Initialize Database Connection
	db, err := idb.NewPostgresConnection(cfg.DatabaseURL)
	if err != nil {
		mainLogger.Fatalf("FATAL: Could not connect to database: %v", err)
	}
	defer db.Close()
	mainLogger.Println("INFO: Database connection established successfully.")

	// Engine ports
	store := idb.NewPostgresStore(db)
	tokenClient := token.NewPostgresClient(db)
	authorizer := auth.NewContextAuthorizer()
	systemClock := clock.NewSystem()

	// Event publishing: always log; add Telegram when configured.
	sinks := []billing.Publisher{notify.NewLogPublisher(logger.Get())}
	if cfg.TelegramToken != "" {
		pref := telebot.Settings{Token: cfg.TelegramToken}
		bot, err := telebot.NewBot(pref)
		if err != nil {
			mainLogger.Fatalf("FATAL: Could not create Telegram bot: %v", err)
		}
		sinks = append(sinks, telegram.NewNotifier(bot, cfg.AdminChatID, logger.Get()))
		mainLogger.Println("INFO: Telegram notifier enabled.")
	}
	publisher := notify.NewMultiPublisher(sinks...)

	admin := billing.Identity(cfg.AdminAddress)
	engine := app.NewEngine(store, systemClock, authorizer, tokenClient, publisher, billing.Identity(cfg.CustodyAccount))
	mainLogger.Println("INFO: Escrow engine initialized.")

	// One-time constructor semantics: set admin, settlement asset, fee
	// defaults and counters on first boot.
	bootCtx := auth.WithActor(context.Background(), admin)
	if err := engine.Initialize(bootCtx, admin, billing.Identity(cfg.SettlementAsset)); err != nil {
		if errors.Is(err, billing.ErrAlreadyInitialized) {
			mainLogger.Println("INFO: Engine state already initialized; skipping constructor.")
		} else {
			mainLogger.Fatalf("FATAL: Could not initialize engine state: %v", err)
		}
	} else {
		mainLogger.Println("INFO: Engine state initialized (first boot).")
	}

	// Keeper automation
	schedulerLogger := log.New(os.Stdout, "KEEPER: ", log.LstdFlags|log.Lshortfile)
	keeper := scheduler.NewKeeperScheduler(engine, admin, schedulerLogger, cfg.CronSpecKeeper)
	keeper.Start()

	// HTTP API
	tokenService := auth.NewTokenService(cfg.JWTSecret, jwtExpiry)
	router := httpapi.NewRouter(engine, tokenService, logger.Get())
	server := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: router,
	}

	go func() {
		mainLogger.Printf("INFO: HTTP API listening on %s", cfg.HTTPAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			mainLogger.Fatalf("FATAL: HTTP server error: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit // Block until a signal is received

	mainLogger.Println("INFO: Shutting down application...")
	keeper.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		mainLogger.Printf("ERROR: HTTP server shutdown: %v", err)
	}
	mainLogger.Println("INFO: Application shut down gracefully.")
}
