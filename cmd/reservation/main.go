package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/example/room-reservation/internal/application"
	"github.com/example/room-reservation/internal/config"
	httptransport "github.com/example/room-reservation/internal/http"
	"github.com/example/room-reservation/internal/logging"
	"github.com/example/room-reservation/internal/persistence/sqlstore"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger, err := logging.New(os.Stdout, logging.Options{Level: cfg.LogLevel, Format: cfg.LogFormat})
	if err != nil {
		slog.Error("failed to build logger", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server terminated", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	app, err := newApp(ctx, cfg, logger, time.Now)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := app.Close(); cerr != nil {
			logger.Error("failed to close storage", "error", cerr)
		}
	}()

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           app.Handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to shutdown server", "error", err)
		}
	}()

	logger.Info("reservation API listening", "addr", server.Addr, "driver", app.Store.Driver())
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve: %w", err)
	}
	return nil
}

// app holds the wired handler together with the storage it owns.
type app struct {
	Store   *sqlstore.Store
	Handler http.Handler
}

func (a *app) Close() error {
	return a.Store.Close()
}

func newApp(ctx context.Context, cfg config.Config, logger *slog.Logger, now func() time.Time) (*app, error) {
	store, err := sqlstore.Open(ctx, sqlstore.Config{
		Driver:          cfg.DBDriver,
		DSN:             cfg.DBDSN,
		MaxOpenConns:    10,
		ConnMaxLifetime: 30 * time.Minute,
	})
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}
	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	users := sqlstore.NewUserRepository(store)
	rooms := sqlstore.NewRoomRepository(store)
	catalog := sqlstore.NewCatalogRepository(store)
	reservations := sqlstore.NewReservationRepository(store)
	tokens := sqlstore.NewTokenRepository(store)

	reservationService := application.NewReservationService(application.ReservationServiceDeps{
		Reservations: reservations,
		Settings:     catalog,
		Periods:      catalog,
		Rooms:        rooms,
		IDGenerator:  uuid.NewString,
		Now:          now,
		Location:     cfg.Location,
		Logger:       logger,
	})
	roomService := application.NewRoomServiceWithLogger(rooms, uuid.NewString, now, logger)
	catalogService := application.NewCatalogService(catalog, uuid.NewString, now, logger)
	userService := application.NewUserService(users, nil, now, logger)
	authService := application.NewAuthService(users, tokens, application.AuthOptions{
		Secret:      []byte(cfg.SessionSecret),
		TTL:         cfg.SessionTTL,
		IDGenerator: uuid.NewString,
		Now:         now,
		Logger:      logger,
	})

	if cfg.AdminUsername != "" {
		created, err := userService.EnsureAdmin(ctx, cfg.AdminUsername, cfg.AdminPassword)
		if err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("bootstrap administrator: %w", err)
		}
		if created {
			logger.Info("bootstrap administrator created", "username", cfg.AdminUsername)
		}
	}

	limiter := httptransport.NewRateLimiter(cfg.RateLimitRPM, cfg.RateLimitBurst, now)
	handler := httptransport.NewRouter(httptransport.RouterConfig{
		Auth:         httptransport.NewAuthHandler(authService, logger, true),
		Users:        httptransport.NewUserHandler(userService, logger),
		Rooms:        httptransport.NewRoomHandler(roomService, logger),
		Catalog:      httptransport.NewCatalogHandler(catalogService, logger),
		Reservations: httptransport.NewReservationHandler(reservationService, logger),
		Sessions:     authService,
		Logger:       logger,
		Middleware: []func(http.Handler) http.Handler{
			httptransport.RequestLogger(logger),
			limiter.Middleware(logger),
		},
	})

	return &app{Store: store, Handler: handler}, nil
}
