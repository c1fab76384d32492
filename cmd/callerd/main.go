package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sebas/ridecall/internal/agent"
	"github.com/sebas/ridecall/internal/api"
	"github.com/sebas/ridecall/internal/backend"
	"github.com/sebas/ridecall/internal/call"
	"github.com/sebas/ridecall/internal/config"
	"github.com/sebas/ridecall/internal/history"
	"github.com/sebas/ridecall/internal/logger"
	"github.com/sebas/ridecall/internal/profile"
	"github.com/sebas/ridecall/internal/push"
	"github.com/sebas/ridecall/internal/room"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger.Init(os.Stdout, cfg.LogLevel)
	log := slog.Default()

	if err := run(cfg, log); err != nil {
		log.Error("callerd exited with error", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *slog.Logger) error {
	log.Info("Starting ridecall daemon",
		"backend", cfg.BackendURL,
		"api", cfg.APIAddr,
		"history_store", cfg.HistoryStore,
	)

	prof, err := profile.NewStore(filepath.Join(cfg.DataDir, "profile.json")).Load()
	if err != nil {
		return err
	}

	store, err := historyStore(cfg)
	if err != nil {
		return err
	}
	recorder := history.NewRecorder(store, log)

	client := backend.NewClient(cfg.BackendURL)

	// The loopback room stands in for the media SDK; a real transport
	// adapter implements room.Room the same way.
	transport := room.NewLoopback()

	session := call.NewSession(call.Config{
		Room:     transport,
		Recorder: recorder,
		Bridge:   client,
		Logger:   log,
	})
	defer session.Close()
	transport.OnEvent(session.OnRoomEvent)

	ag := agent.New(agent.Config{
		Backend:      client,
		Session:      session,
		Profile:      prof,
		BridgeNumber: cfg.BridgeNumber,
		Logger:       log,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.PushGatewayURL != "" {
		if err := ag.RegisterDevice(ctx); err != nil {
			log.Warn("Push registration failed, continuing without it", "error", err)
		}
		listener, err := push.NewListener(push.Config{
			URL:               cfg.PushGatewayURL,
			DeviceToken:       prof.DeviceToken,
			UserType:          prof.UserType,
			ReconnectInterval: cfg.PushReconnect,
			Handler:           ag,
			Logger:            log,
		})
		if err != nil {
			return err
		}
		go listener.Run(ctx)
		defer listener.Close()
	} else {
		log.Warn("No push gateway configured, incoming calls disabled")
	}

	server := api.NewServer(cfg.APIAddr, session, recorder, log)
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info("Received signal, shutting down", "signal", sig)
	case err := <-errCh:
		if err != nil {
			return err
		}
	}

	session.Disconnect()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	return server.Shutdown(shutdownCtx)
}

func historyStore(cfg *config.Config) (history.Store, error) {
	switch cfg.HistoryStore {
	case "redis":
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		return history.NewRedisStore(client, cfg.RedisKey), nil
	case "memory":
		return history.NewMemoryStore(), nil
	default:
		return history.NewFileStore(filepath.Join(cfg.DataDir, "history.json")), nil
	}
}
