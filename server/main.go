package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"
)

const shutdownTimeout = 5 * time.Second

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func defaultClientDir() string {
	exe, _ := os.Executable()
	dir := filepath.Join(filepath.Dir(exe), "..", "client")
	if _, err := os.Stat(dir); err == nil {
		return dir
	}
	if _, err := os.Stat("../client"); err == nil {
		return "../client"
	}
	return ""
}

func main() {
	configPath := flag.String("config", GetEnvDefault("FPS_CONFIG", ""), "YAML tuning file")
	addr := flag.String("addr", "", "HTTP listen address (overrides config and FPS_ADDR)")
	dbPath := flag.String("db", "", "SQLite database path (overrides config and FPS_DB)")
	clientDir := flag.String("client", "", "static client directory")
	flag.Parse()

	cfg, err := LoadConfig(*configPath)
	if err != nil {
		slog.Error("load config", "path", *configPath, "err", err)
		os.Exit(1)
	}
	cfg.Server.Addr = GetEnvDefault("FPS_ADDR", cfg.Server.Addr)
	cfg.Server.DBPath = GetEnvDefault("FPS_DB", cfg.Server.DBPath)
	cfg.Server.LogLevel = GetEnvDefault("FPS_LOG_LEVEL", cfg.Server.LogLevel)
	if *addr != "" {
		cfg.Server.Addr = *addr
	}
	if *dbPath != "" {
		cfg.Server.DBPath = *dbPath
	}
	if *clientDir != "" {
		cfg.Server.ClientDir = *clientDir
	}
	if cfg.Server.ClientDir == "" {
		cfg.Server.ClientDir = defaultClientDir()
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: parseLevel(cfg.Server.LogLevel)}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := OpenDB(cfg.Server.DBPath)
	if err != nil {
		logger.Error("open database", "path", cfg.Server.DBPath, "err", err)
		os.Exit(1)
	}
	defer db.Close()

	auth, err := NewAuth(db, 0)
	if err != nil {
		logger.Error("init auth", "err", err)
		os.Exit(1)
	}
	telemetry := NewTelemetry(db, logger)
	defer telemetry.Stop()

	sessions := NewSessionManager(ctx, &cfg, telemetry, logger)
	defer sessions.StopAll()

	hub := NewHub(sessions, db, auth, telemetry, logger)
	go hub.Run(ctx)

	server := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           SetupRoutes(hub, cfg.Server),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.InfoContext(ctx, "server starting", "addr", cfg.Server.Addr, "client", cfg.Server.ClientDir, "db", cfg.Server.DBPath)
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			logger.Error("listen", "err", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.InfoContext(ctx, "shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("shutdown", "err", err)
	}
}
