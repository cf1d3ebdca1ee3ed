package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/ayush/card-tracker/backend/internal/admin"
	"github.com/ayush/card-tracker/backend/internal/auth"
	"github.com/ayush/card-tracker/backend/internal/cards"
	"github.com/ayush/card-tracker/backend/internal/config"
	"github.com/ayush/card-tracker/backend/internal/health"
	"github.com/ayush/card-tracker/backend/internal/logging"
	"github.com/ayush/card-tracker/backend/internal/middleware"
	"github.com/ayush/card-tracker/backend/internal/models"
	"github.com/ayush/card-tracker/backend/internal/stats"
	"github.com/ayush/card-tracker/backend/internal/store"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "card-tracker: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, level, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync() //nolint:errcheck
	zap.ReplaceGlobals(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── PostgreSQL ────────────────────────────────────────────
	pgCfg, err := pgxpool.ParseConfig(cfg.Postgres.DSN)
	if err != nil {
		return fmt.Errorf("postgres config: %w", err)
	}
	pgCfg.MaxConns = cfg.Postgres.MaxConns
	pgPool, err := pgxpool.NewWithConfig(ctx, pgCfg)
	if err != nil {
		return fmt.Errorf("postgres connect: %w", err)
	}
	defer pgPool.Close()
	if err := store.MigratePostgres(ctx, pgPool); err != nil {
		return fmt.Errorf("postgres migrate: %w", err)
	}
	users := store.NewUserStore(pgPool)

	// ── MongoDB ──────────────────────────────────────────────
	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.Mongo.URI))
	if err != nil {
		return fmt.Errorf("mongo connect: %w", err)
	}
	defer func() {
		if err := mongoClient.Disconnect(context.Background()); err != nil {
			logger.Warn("mongo disconnect", zap.Error(err))
		}
	}()
	cardStore := store.NewCardStore(mongoClient.Database(cfg.Mongo.Database), cfg.Mongo.Timeout)
	if err := cardStore.EnsureIndexes(ctx); err != nil {
		return fmt.Errorf("mongo indexes: %w", err)
	}

	// ── Redis ────────────────────────────────────────────────
	rdb, err := store.NewRedisClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		return fmt.Errorf("redis connect: %w", err)
	}
	defer rdb.Close()
	denylist := auth.NewDenylist(rdb)

	// ── MinIO ────────────────────────────────────────────────
	var objects stats.ObjectStore
	if cfg.Minio.Enabled() {
		exports, err := store.NewExportStore(
			ctx, cfg.Minio.Endpoint, cfg.Minio.AccessKey,
			cfg.Minio.SecretKey, cfg.Minio.Bucket, cfg.Minio.UseSSL,
		)
		if err != nil {
			return fmt.Errorf("minio connect: %w", err)
		}
		objects = exports
	} else {
		logger.Info("MINIO_ENDPOINT not set, stats export disabled")
	}

	// ── Services ─────────────────────────────────────────────
	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer, cfg.Auth.TokenTTL)
	authSvc := auth.NewService(users, tokens, denylist, logger)
	authSvc.Bootstrap(ctx, []auth.BootstrapAccount{
		{Username: "admin", Email: "admin@cardtracker.local", Password: cfg.Auth.BootstrapAdminPassword, Role: models.RoleAdmin},
		{Username: "owner", Email: "owner@cardtracker.local", Password: cfg.Auth.BootstrapOwnerPassword, Role: models.RoleOwner},
	})

	cardSvc := cards.NewService(cardStore, users, logger)
	agg := stats.NewAggregator(cardStore, users, cfg.Stats.Location(), logger)
	exporter := stats.NewExporter(agg, objects, cfg.Minio.PresignTTL)

	// ── Handlers ─────────────────────────────────────────────
	authHandler := auth.NewHandler(authSvc, logger)
	cardHandler := cards.NewHandler(cardSvc, logger)
	statsHandler := stats.NewHandler(agg, exporter, logger)
	adminHandler := admin.NewHandler(level, logger)
	healthHandler := health.NewHandler(health.Info{
		Environment: cfg.Env,
		Port:        cfg.Server.Port,
		Version:     cfg.Server.Version,
		APIPath:     cfg.Server.APIPath,
	}, map[string]health.Pinger{
		"mongo":    cardStore,
		"postgres": users,
		"redis":    health.PingFunc(func(ctx context.Context) error { return rdb.Ping(ctx).Err() }),
	})

	requireAuth := middleware.RequireAuth(tokens, denylist, logger)

	// ── Router ───────────────────────────────────────────────
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger(logger))
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/", healthHandler.Root)
	r.Get("/health", healthHandler.Health)
	r.Get("/debug/db", healthHandler.Databases)

	r.Route(cfg.Server.APIPath, func(r chi.Router) {
		r.Get("/", healthHandler.Index)

		// Auth routes
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
			r.With(requireAuth).Post("/logout", authHandler.Logout)
			r.With(requireAuth).Get("/profile", authHandler.Profile)
		})

		// Card routes (protected)
		r.Route("/cards", func(r chi.Router) {
			r.Use(requireAuth)
			r.Get("/", cardHandler.List)
			r.Post("/", cardHandler.Create)
			r.Get("/stat", statsHandler.Stats)
			r.Post("/stat/export", statsHandler.Export)
			r.Get("/stat/exports", statsHandler.ListExports)
			r.Get("/{id}", cardHandler.Get)
			r.Put("/{id}", cardHandler.Update)
			r.With(middleware.RequireAdmin()).Delete("/{id}", cardHandler.Delete)
		})

		// Owner-only routes
		r.Route("/admin", func(r chi.Router) {
			r.Use(requireAuth, middleware.RequireOwner())
			r.Get("/all", cardHandler.ListAll)
			r.Get("/stats", statsHandler.Global)
			r.Get("/log-level", adminHandler.GetLogLevel)
			r.Post("/log-level", adminHandler.SetLogLevel)
		})

		r.With(requireAuth, middleware.RequireAdmin()).Get("/debug/whoami", adminHandler.WhoAmI)
	})

	// ── Server ───────────────────────────────────────────────
	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("server listening",
			zap.String("addr", srv.Addr),
			zap.String("env", cfg.Env),
			zap.String("apiPath", cfg.Server.APIPath),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("server: %w", err)
		}
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
