// Command hexserver runs the hex empire game server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/talgya/hexempire/internal/api"
	"github.com/talgya/hexempire/internal/config"
	"github.com/talgya/hexempire/internal/engine"
	"github.com/talgya/hexempire/internal/game"
	"github.com/talgya/hexempire/internal/logger"
	"github.com/talgya/hexempire/internal/persistence"
	"github.com/talgya/hexempire/internal/session"
)

func main() {
	configPath := flag.String("config", "", "path to config.yaml (default: search ./config and .)")
	flag.Parse()

	loader, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	cfg := loader.Get()

	log, err := logger.New(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	log.Info("hexserver starting",
		zap.String("config", loader.File()),
		zap.String("addr", cfg.Server.Addr()),
		zap.String("mode", cfg.Server.Mode),
	)

	// ── Database ──────────────────────────────────────────────────────
	if dir := filepath.Dir(cfg.Database.Path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			log.Fatal("create data dir", zap.Error(err))
		}
	}
	store, err := persistence.Open(cfg.Database.Path,
		persistence.WithLogger(logger.Module(log, "store")),
		persistence.WithCompression(cfg.Database.Compress),
	)
	if err != nil {
		log.Fatal("open database", zap.Error(err))
	}
	defer store.Close()
	last, err := store.GetMeta("last_start")
	if err != nil && !errors.Is(err, persistence.ErrNotFound) {
		log.Warn("read meta", zap.Error(err))
	}
	if err := store.SaveMeta("last_start", time.Now().UTC().Format(time.RFC3339)); err != nil {
		log.Warn("write meta", zap.Error(err))
	}
	log.Info("database opened", zap.String("path", cfg.Database.Path), zap.String("last_start", last))

	// ── Games ─────────────────────────────────────────────────────────
	eng := engine.New(logger.Module(log, "engine"))
	mgr := session.NewManager(eng,
		session.WithStore(store),
		session.WithLogger(logger.Module(log, "session")),
		session.WithMaxGames(cfg.Limits.MaxGames),
	)
	resumeGames(mgr, store, log)

	// ── HTTP API ──────────────────────────────────────────────────────
	gin.SetMode(cfg.Server.Mode)
	limiter := api.NewRateLimiter(cfg.Limits.ActionsPerSecond, cfg.Limits.ActionBurst)
	defer limiter.Close()

	var origins []string
	if env := os.Getenv("CORS_ORIGINS"); env != "" {
		origins = strings.Split(env, ",")
	}
	srv := api.New(mgr,
		api.WithLogger(logger.Module(log, "api")),
		api.WithArchive(store),
		api.WithRateLimiter(limiter),
		api.WithMaxPlayers(cfg.Game.MaxPlayers),
		api.WithAllowedOrigins(origins...),
		api.WithSettings(func() game.Settings { return loader.Get().Game.Settings() }),
	)

	httpServer := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      srv.Handler(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	loader.Watch(func(next *config.Config) {
		limiter.SetLimit(next.Limits.ActionsPerSecond, next.Limits.ActionBurst)
		log.Info("config reloaded",
			zap.Float64("actions_per_second", next.Limits.ActionsPerSecond),
			zap.Duration("turn_timeout", next.Game.TurnTimeout),
		)
	}, func(err error) {
		log.Warn("config reload rejected", zap.Error(err))
	})

	serveErr := make(chan error, 1)
	go func() {
		log.Info("http api listening", zap.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	// ── Signal handling ───────────────────────────────────────────────
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-sigCh:
		log.Info("shutdown signal received", zap.String("signal", sig.String()))
	case err := <-serveErr:
		if err != nil {
			log.Error("http server error", zap.Error(err))
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		log.Warn("http shutdown", zap.Error(err))
	}
	if err := mgr.Shutdown(ctx); err != nil {
		log.Error("session shutdown", zap.Error(err))
	}
	log.Info("hexserver stopped")
}

// keepSnapshots is how many snapshots per game survive the startup prune.
const keepSnapshots = 20

// resumeGames prunes old snapshots and restarts every stored game that has
// not ended.
func resumeGames(mgr *session.Manager, store *persistence.Store, log *zap.Logger) {
	games, err := store.ListGames()
	if err != nil {
		log.Error("list stored games", zap.Error(err))
		return
	}
	resumed := 0
	for _, g := range games {
		if n, err := store.PruneSnapshots(g.ID, keepSnapshots); err != nil {
			log.Warn("prune snapshots", zap.String("game_id", g.ID), zap.Error(err))
		} else if n > 0 {
			log.Debug("snapshots pruned", zap.String("game_id", g.ID), zap.Int64("removed", n))
		}
		if g.Winner != "" || g.Phase == game.PhaseEndGame.String() {
			continue
		}
		if _, err := mgr.Restore(g.ID); err != nil {
			log.Warn("game not resumed", zap.String("game_id", g.ID), zap.Error(err))
			continue
		}
		resumed++
	}
	log.Info("stored games resumed", zap.Int("resumed", resumed), zap.Int("stored", len(games)))
}
