package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/clearpath-sec/gatehouse/internal/config"
	dbpkg "github.com/clearpath-sec/gatehouse/internal/db"
	"github.com/clearpath-sec/gatehouse/internal/gatehouse/approval"
	"github.com/clearpath-sec/gatehouse/internal/gatehouse/service"
	"github.com/clearpath-sec/gatehouse/internal/gatehouse/store/sqlite"
	"github.com/clearpath-sec/gatehouse/internal/httpapi"
	"github.com/clearpath-sec/gatehouse/internal/metrics"
)

func main() {
	cfg := config.FromEnv()
	logger := log.New(os.Stdout, "gatehouse-server ", log.LstdFlags|log.LUTC)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	conn, err := dbpkg.Open(ctx, dbpkg.Config{Path: cfg.DBPath, Env: cfg.Env})
	if err != nil {
		logger.Fatalf("open db: %v", err)
	}
	defer conn.Close()

	if cfg.Env == "dev" {
		terminals := make([]dbpkg.SeedTerminal, 0, len(cfg.KnownTerminals))
		for _, t := range cfg.KnownTerminals {
			terminals = append(terminals, dbpkg.SeedTerminal{
				ID:       t.ID,
				Facility: t.Facility,
				Gate:     t.Gate,
			})
		}
		if err := dbpkg.SeedDev(ctx, conn, dbpkg.SeedDevOptions{KnownTerminals: terminals}); err != nil {
			logger.Fatalf("seed dev data: %v", err)
		}
	}

	writer := dbpkg.NewWorker(conn)
	defer writer.Close()

	// Stores
	terminalStore := sqlite.NewTerminalStore(conn, writer)
	heartbeatStore := sqlite.NewHeartbeatStore(conn, writer)
	requestStore := sqlite.NewRequestStore(conn)
	approvalStore := sqlite.NewApprovalStore(conn)
	accessLogStore := sqlite.NewAccessLogStore(conn, writer)

	// Services
	m := metrics.New()
	registry := service.NewTerminalRegistry(terminalStore)
	heartbeatSvc := service.NewHeartbeatService(heartbeatStore, registry)
	audit := service.NewAuditLog(accessLogStore, m)
	checkpoint := service.NewCheckpointService(
		registry,
		requestStore,
		approval.NewInspector(approvalStore),
		audit,
		m,
		service.CheckpointConfig{RequiredApprovals: cfg.RequiredApprovals},
	)

	pruner := service.NewHeartbeatPruner(heartbeatStore, service.PrunerConfig{
		RetentionDays: cfg.HeartbeatRetentionDays,
		IntervalHours: cfg.PruneIntervalHours,
	}, logger)
	pruner.Start(ctx)
	defer pruner.Stop()

	// HTTP
	srv := httpapi.NewServer(httpapi.Dependencies{
		Logger:           logger,
		Addr:             cfg.HTTPAddr,
		HeartbeatService: heartbeatSvc,
		Checkpoint:       checkpoint,
		AuditLog:         audit,
	})

	go func() {
		logger.Printf("listening on %s", cfg.HTTPAddr)
		if err := srv.Start(); err != nil {
			logger.Printf("server error: %v", err)
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}
