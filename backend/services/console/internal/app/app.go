package app

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"colonnine/backend/libs/db"
	"colonnine/backend/libs/redis"
	"colonnine/backend/services/console/internal/clients"
	"colonnine/backend/services/console/internal/config"
	httpserver "colonnine/backend/services/console/internal/http"
	"colonnine/backend/services/console/internal/http/handlers"
	"colonnine/backend/services/console/internal/http/middleware"
	"colonnine/backend/services/console/internal/metrics"
	"colonnine/backend/services/console/internal/repository"
	"colonnine/backend/services/console/internal/syncer"
	"colonnine/backend/services/console/internal/view"
	"colonnine/backend/services/console/internal/workspace"
	"colonnine/backend/services/console/internal/ws"
)

// App wires console dependencies.
type App struct {
	server   *httpserver.Server
	registry *workspace.Registry
	redis    *goredis.Client
	db       *sql.DB
	logger   *zap.Logger
}

// New constructs application graph.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	a := &App{logger: logger}

	page, err := view.NewPage()
	if err != nil {
		return nil, err
	}

	recorders := clients.Recorders{metrics.BackendRecorder{}}

	var store workspace.CookieStore = workspace.NewMemoryStore()
	if cfg.Redis.Addr != "" {
		client, err := redis.NewRedisClient(ctx, redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		a.redis = client
		store = workspace.NewRedisStore(client, cfg.Redis.TTL)
		logger.Info("backend cookies persisted in redis", zap.String("addr", cfg.Redis.Addr))
	}

	if cfg.Database.DSN != "" {
		conn, err := db.NewPostgresDB(ctx, cfg.Database.DSN, db.PoolOptions{MaxOpenConns: cfg.Database.MaxOpenConns})
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		a.db = conn
		repo := repository.NewRequestLogRepository(conn, logger)
		if err := repo.EnsureSchema(ctx); err != nil {
			a.Close()
			return nil, fmt.Errorf("request log schema: %w", err)
		}
		recorders = append(recorders, repo)
	}

	var geocoder syncer.Geocoder
	if cfg.GeocoderEnabled() {
		geocoder = clients.NewGeocoderClient(
			cfg.Geocoder.URL,
			cfg.Geocoder.APIKey,
			clients.NewDefaultHTTPClient(cfg.BackendTimeout(), nil),
			recorders,
		)
	}

	manager := ws.NewManager()
	sockets := ws.NewServer(manager, cfg.WebSocket.WriteTimeout, cfg.WebSocket.PingInterval, logger)

	registry, err := workspace.NewRegistry(workspace.Options{
		BackendURL: cfg.Backend.URL,
		IdleTTL:    cfg.Session.IdleTTL,
		Store:      store,
		Logger:     logger,
		OnEvict:    manager.CloseWorkspace,
		Build: func(id string, jar http.CookieJar) *syncer.Controller {
			backend := clients.NewBackendClient(cfg.Backend.URL, clients.NewDefaultHTTPClient(cfg.BackendTimeout(), jar), recorders)
			return syncer.NewController(syncer.Deps{
				Backend:   backend,
				Geocoder:  geocoder,
				Presenter: ws.NewPresenter(manager, page, id, logger),
				Observer:  metrics.SyncObserver{},
				Logger:    logger.With(zap.String("workspace_id", id)),
			})
		},
	})
	if err != nil {
		a.Close()
		return nil, err
	}
	a.registry = registry

	tokens := workspace.NewTokenService(cfg.Session.Secret, cfg.Session.TTL)
	proxies, err := cfg.TrustedProxies()
	if err != nil {
		a.Close()
		return nil, err
	}

	router := httpserver.NewRouter(httpserver.RouterDeps{
		PageHandlers:   handlers.NewPageHandlers(page, sockets, logger),
		ActionHandlers: handlers.NewActionHandlers(page, registry, logger),
		HealthHandler:  handlers.NewHealthHandler(registry),
		Workspace: middleware.WorkspaceMiddleware(middleware.WorkspaceOptions{
			Tokens:       tokens,
			Registry:     registry,
			SecureCookie: cfg.Session.SecureCookie,
			Logger:       logger,
		}),
		AuthLimit: middleware.IPRateLimit(middleware.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst, proxies...)),
	})

	a.server = httpserver.NewServer(
		httpserver.Options{
			Addr:            cfg.HTTPAddress(),
			ReadTimeout:     cfg.HTTP.ReadTimeout,
			WriteTimeout:    cfg.HTTP.WriteTimeout,
			IdleTimeout:     cfg.HTTP.IdleTimeout,
			ShutdownTimeout: cfg.HTTP.ShutdownTimeout,
		},
		router,
		logger,
		middleware.RecoveryMiddleware(logger),
		middleware.LoggingMiddleware(logger),
	)
	return a, nil
}

// Run serves HTTP traffic and sweeps idle workspaces until ctx is done.
func (a *App) Run(ctx context.Context) error {
	go a.registry.Start(ctx)
	return a.server.Run(ctx)
}

// Close releases workspaces and connections.
func (a *App) Close() {
	if a.registry != nil {
		a.registry.Close()
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Warn("close redis failed", zap.Error(err))
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Warn("close postgres failed", zap.Error(err))
		}
	}
}
