// Package main is the entry point for ledgerd, an offline-first personal
// finance ledger daemon. It keeps the record set in memory, persists
// snapshots to a local SQLite database, and reconciles local mutations with
// the remote backend whenever connectivity allows.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/andrasnemes/ledgerd/internal/config"
	"github.com/andrasnemes/ledgerd/internal/database"
	"github.com/andrasnemes/ledgerd/internal/events"
	"github.com/andrasnemes/ledgerd/internal/modules/analytics"
	analyticshandlers "github.com/andrasnemes/ledgerd/internal/modules/analytics/handlers"
	"github.com/andrasnemes/ledgerd/internal/modules/ledger"
	ledgerhandlers "github.com/andrasnemes/ledgerd/internal/modules/ledger/handlers"
	syncmod "github.com/andrasnemes/ledgerd/internal/modules/sync"
	synchandlers "github.com/andrasnemes/ledgerd/internal/modules/sync/handlers"
	"github.com/andrasnemes/ledgerd/internal/reliability"
	"github.com/andrasnemes/ledgerd/internal/scheduler"
	"github.com/andrasnemes/ledgerd/internal/server"
	"github.com/andrasnemes/ledgerd/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fallbackLog := logger.New(logger.Config{Level: "info", Pretty: true})
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})

	log.Info().Msg("Starting ledgerd")

	// Local snapshot database
	db, err := database.New(database.Config{
		Path: filepath.Join(cfg.DataDir, "ledger.db"),
		Name: "ledger",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open database")
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		log.Fatal().Err(err).Msg("Failed to migrate database")
	}

	// Event bus, shared by all modules and the WebSocket stream
	eventBus := events.NewBus(log)
	eventMgr := events.NewManager(eventBus, log)

	// Record store. Connectivity is owned by the monitor, which is created
	// after the store; the closure resolves the dependency cycle.
	var monitor *syncmod.Monitor
	snapshots := ledger.NewSnapshotRepository(db.Conn(), log)
	store := ledger.NewStore(snapshots, eventMgr, func() bool {
		return monitor != nil && monitor.Online()
	}, log)

	if err := store.LoadFromDisk(); err != nil {
		log.Fatal().Err(err).Msg("Failed to load records from disk")
	}

	// Reconciliation pipeline. The simulated oracle stands in for the remote
	// backend; with simulation off it never reports server-side changes, so
	// passes still promote pending records.
	chance := cfg.SimulateChance
	if !cfg.SimulateRemote {
		chance = 0
	}
	oracle := syncmod.NewSimulatedOracle(chance, time.Now().UnixNano(), log)
	engine := syncmod.NewEngine(oracle, cfg.SyncMinAge, log)
	queue := syncmod.NewConflictQueue(store, eventMgr, log)
	syncService := syncmod.NewService(store, engine, queue, eventMgr, log)
	monitor = syncmod.NewMonitor(syncService, eventMgr, log)

	// Background jobs
	sched := scheduler.New(log)
	reconcileSchedule := fmt.Sprintf("@every %s", cfg.SyncInterval)
	if err := sched.AddJob(reconcileSchedule, scheduler.NewReconcileJob(monitor)); err != nil {
		log.Fatal().Err(err).Msg("Failed to register reconcile job")
	}

	if cfg.Backup != nil && cfg.Backup.Enabled {
		s3Client, err := reliability.NewS3Client(context.Background(), cfg.Backup, log)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create backup client")
		}
		backups := reliability.NewBackupService(s3Client, snapshots, log)
		if err := sched.AddJob("@daily", scheduler.NewBackupJob(backups, 30)); err != nil {
			log.Fatal().Err(err).Msg("Failed to register backup job")
		}
	} else {
		log.Info().Msg("Snapshot backups disabled (no bucket configured)")
	}

	sched.Start()
	defer sched.Stop()

	// HTTP server
	analyticsService := analytics.NewService(store, log)
	srv := server.New(server.Config{
		Log:              log,
		DB:               db,
		EventBus:         eventBus,
		LedgerHandler:    ledgerhandlers.NewHandler(store, log),
		SyncHandler:      synchandlers.NewHandler(monitor, syncService, log),
		AnalyticsHandler: analyticshandlers.NewHandler(analyticsService, log),
		Port:             cfg.Port,
		DevMode:          cfg.DevMode,
	})

	go func() {
		if err := srv.Start(); err != nil {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	log.Info().Int("port", cfg.Port).Msg("Server started successfully")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}
