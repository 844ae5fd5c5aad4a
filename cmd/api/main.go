package main

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"telecom-network/internal/audit"
	"telecom-network/internal/auth"
	"telecom-network/internal/config"
	"telecom-network/internal/httpapi"
	"telecom-network/internal/network"
	"telecom-network/internal/notifications"
	"telecom-network/internal/pricing"
	"telecom-network/internal/reporting"
	"telecom-network/internal/snapshot"
	"telecom-network/pkg/logger"
	"telecom-network/pkg/utils"

	"github.com/gin-gonic/gin"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
)

func main() {
	// Root context that cancels on shutdown
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// A missing .env is fine; real deployments set the environment directly.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Error(".env load failed", "err", err)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "err", err)
		os.Exit(1)
	}

	log := logger.New(cfg.App.Env)
	slog.SetDefault(log)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	authManager, err := auth.NewManager(cfg.Auth)
	if err != nil {
		log.Error("auth init failed", "err", err)
		os.Exit(1)
	}

	book, err := pricing.LoadRateBookFile(cfg.Network.RatesFile)
	if err != nil {
		log.Error("rate book load failed", "err", err, "path", cfg.Network.RatesFile)
		os.Exit(1)
	}

	publisher, err := openPublisher(cfg.Notify, log)
	if err != nil {
		log.Error("notification publisher init failed", "err", err)
		os.Exit(1)
	}
	defer publisher.Close()

	backend, err := openStore(rootCtx, cfg)
	if err != nil {
		log.Error("snapshot store init failed", "err", err, "backend", cfg.Snapshot.Backend)
		os.Exit(1)
	}
	defer backend.Close()
	store := backend.Store

	net := network.New(
		network.WithLogger(log),
		network.WithCatalog(pricing.NewCatalog(book)),
		network.WithPublisher(publisher),
	)
	if err := loadNetwork(rootCtx, net, store, cfg.Network.ImportFile, log); err != nil {
		log.Error("network load failed", "err", err)
		os.Exit(1)
	}
	svc := network.NewService(net)

	var saver *snapshot.Autosaver
	if store != nil && cfg.Snapshot.Schedule != "" {
		saver, err = snapshot.NewAutosaver(cfg.Snapshot.Schedule, svc, store, log)
		if err != nil {
			log.Error("autosave schedule invalid", "err", err, "schedule", cfg.Snapshot.Schedule)
			os.Exit(1)
		}
		saver.Start()
	}

	h := httpapi.Handlers{
		Auth:    authManager,
		Net:     svc,
		Reports: reporting.NewService(reporting.NewNetworkRepo(svc)),
		Audit:   audit.NewService(audit.NewMemoryRepo()),
		Store:   store,
	}

	// Gin router
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.Middleware(log))
	registerRoutes(r, h, auth.RequireAccessToken(authManager), backend.Health)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("api listening", "addr", srv.Addr, "env", cfg.App.Env, "snapshot_backend", cfg.Snapshot.Backend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", "err", err)
			stop()
		}
	}()

	<-rootCtx.Done()
	log.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", "err", err)
	}

	// Last save happens after the server stops taking requests.
	if saver != nil {
		if err := saver.Stop(shutdownCtx); err != nil {
			log.Error("final save failed", "err", err)
		}
	} else if store != nil {
		if _, err := snapshot.SaveIfDirty(shutdownCtx, svc, store); err != nil {
			log.Error("final save failed", "err", err)
		}
	}
}

func openPublisher(cfg config.NotifyConfig, log *slog.Logger) (notifications.Publisher, error) {
	if cfg.AMQPURL == "" {
		return notifications.LogPublisher{Log: log}, nil
	}
	p, err := notifications.NewAMQPPublisher(cfg.AMQPURL, cfg.Exchange)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// snapshotBackend is the opened snapshot store with its lifecycle hooks.
// Store and Health are nil for the none backend; Close is always safe to call.
type snapshotBackend struct {
	Store  snapshot.Store
	Close  func()
	Health healthFunc
}

func openStore(ctx context.Context, cfg config.Config) (snapshotBackend, error) {
	none := snapshotBackend{Close: func() {}}
	switch cfg.Snapshot.Backend {
	case config.BackendFile:
		none.Store = snapshot.NewFileStore(cfg.Snapshot.File)
		return none, nil
	case config.BackendPostgres:
		db, err := utils.OpenPostgres(ctx, "pgx", cfg.PostgresDSN(), utils.PostgresPoolConfig{})
		if err != nil {
			return none, err
		}
		ps := snapshot.NewPostgresStore(db, cfg.Snapshot.Keep)
		if err := ps.EnsureSchema(ctx); err != nil {
			_ = db.Close()
			return none, err
		}
		return snapshotBackend{
			Store: ps,
			Close: func() { _ = db.Close() },
			Health: func(ctx context.Context) error {
				return utils.HealthCheck(ctx, db, healthTimeout)
			},
		}, nil
	case config.BackendRedis:
		rdb, err := utils.OpenRedis(ctx, utils.RedisConfig{Addr: cfg.RedisAddr()})
		if err != nil {
			return none, err
		}
		return snapshotBackend{
			Store: snapshot.NewRedisStore(rdb, cfg.Redis.Key),
			Close: func() { _ = rdb.Close() },
			Health: func(ctx context.Context) error {
				return utils.RedisHealthCheck(ctx, rdb, healthTimeout)
			},
		}, nil
	default:
		return none, nil
	}
}

// loadNetwork restores the latest snapshot. Without one it falls back to the import file.
func loadNetwork(ctx context.Context, n *network.Network, store snapshot.Store, importFile string, log *slog.Logger) error {
	if store != nil {
		snap, err := store.Load(ctx)
		switch {
		case err == nil:
			if err := n.Restore(snap); err != nil {
				return err
			}
			log.Info("network restored", "clients", len(snap.Clients), "terminals", len(snap.Terminals), "communications", len(snap.Communications))
			return nil
		case !errors.Is(err, snapshot.ErrNoSnapshot):
			return err
		}
	}
	if importFile == "" {
		return nil
	}
	res, err := n.ImportFile(ctx, importFile)
	if err != nil {
		return err
	}
	log.Info("network imported", "file", importFile, "clients", res.Clients, "terminals", res.Terminals, "friends", res.Friends)
	return nil
}
