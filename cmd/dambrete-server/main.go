package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	appcfg "github.com/park285/dambrete/internal/config"
	"github.com/park285/dambrete/internal/httpapi"
	"github.com/park285/dambrete/internal/msgcat"
	"github.com/park285/dambrete/internal/obslog"
	"github.com/park285/dambrete/internal/results"
	"github.com/park285/dambrete/internal/room"
	"github.com/park285/dambrete/internal/wsapi"
	"go.uber.org/zap"
)

func main() {
	if err := obslog.InitFromEnv(); err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	defer obslog.Sync()

	cfg, err := appcfg.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	ctx := context.Background()

	// Room store: Redis when configured, memory otherwise
	var store room.Store = room.NewMemoryStore()
	if cfg.RedisURL != "" {
		rdb, err := room.DialRedis(ctx, cfg.RedisURL)
		if err != nil {
			log.Fatalf("redis init error: %v", err)
		}
		defer rdb.Close()
		store = room.NewRedisStore(rdb, cfg.RoomTTL)
	}

	// Results repository
	repo := results.NewMemoryRepository()
	if cfg.DatabaseURL != "" {
		pg, err := results.NewPostgresRepository(cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("results repo init error: %v", err)
		}
		sctx, cancel := context.WithTimeout(ctx, 10*time.Second)
		err = pg.EnsureSchema(sctx)
		cancel()
		if err != nil {
			log.Fatalf("results schema error: %v", err)
		}
		repo = pg
	}
	defer repo.Close()

	catalog, err := msgcat.New(cfg.MessagesDir)
	if err != nil {
		log.Fatalf("message catalog error: %v", err)
	}

	mgr := room.NewManager(store, room.Options{
		AllowSpectators:     cfg.AllowSpectators,
		SwapColorsOnRematch: cfg.RematchSwapColors,
		Results:             results.NewRecorder(repo),
	})
	grace := room.NewDisconnectPolicy(mgr, cfg.Grace())
	defer grace.Close()
	bot := room.NewBotOpponent(mgr, nil)

	// hub subscribes first so a human move is pushed before the bot reply
	hub := wsapi.NewHub(wsapi.Deps{
		Manager:        mgr,
		Bot:            bot,
		Grace:          grace,
		Results:        repo,
		Catalog:        catalog,
		AllowedOrigins: cfg.AllowedOrigins,
	})
	bot.Attach()

	mux := http.NewServeMux()
	mux.Handle("/ws", hub)
	wsSrv := &http.Server{Addr: cfg.HTTPAddr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	api := httpapi.New(httpapi.Deps{
		Manager:        mgr,
		Results:        repo,
		Catalog:        catalog,
		AllowedOrigins: cfg.AllowedOrigins,
		Online:         hub.Online,
	})

	errCh := make(chan error, 2)
	go func() {
		obslog.L().Info("ws_listen", zap.String("addr", cfg.HTTPAddr))
		if err := wsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	go func() {
		if err := api.ListenAndServe(cfg.APIAddr); err != nil {
			errCh <- err
		}
	}()
	obslog.L().Info("server_started",
		zap.Bool("redis", cfg.RedisURL != ""),
		zap.Bool("postgres", cfg.DatabaseURL != ""),
		zap.String("leave_policy", string(cfg.LeavePolicy)),
		zap.Duration("leave_grace", cfg.Grace()),
	)

	// Wait for termination signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigCh:
	case err := <-errCh:
		obslog.L().Error("server_error", zap.Error(err))
	}

	sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = wsSrv.Shutdown(sctx)
	_ = api.Shutdown(sctx)
	obslog.L().Info("server_stopped")
}
