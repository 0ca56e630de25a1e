package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Payphone-Digital/content-api/config"
	"github.com/Payphone-Digital/content-api/internal/constants"
	"github.com/Payphone-Digital/content-api/internal/handler"
	"github.com/Payphone-Digital/content-api/internal/listquery"
	"github.com/Payphone-Digital/content-api/internal/middleware"
	"github.com/Payphone-Digital/content-api/internal/repository"
	"github.com/Payphone-Digital/content-api/internal/router"
	"github.com/Payphone-Digital/content-api/internal/service"
	"github.com/Payphone-Digital/content-api/pkg/cache"
	"github.com/Payphone-Digital/content-api/pkg/circuit"
	"github.com/Payphone-Digital/content-api/pkg/database"
	"github.com/Payphone-Digital/content-api/pkg/health"
	"github.com/Payphone-Digital/content-api/pkg/logger"
	"github.com/Payphone-Digital/content-api/pkg/redis"
	"github.com/Payphone-Digital/content-api/pkg/reporting"
	"github.com/Payphone-Digital/content-api/pkg/scheduler"
)

const (
	memoryJanitorInterval = time.Minute
	cronJobTimeout        = time.Minute
)

func newServeCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), opts)
		},
	}
}

// server is everything serve builds, kept together for shutdown
type server struct {
	cfg         *config.Config
	log         *zap.Logger
	db          *gorm.DB
	redis       *redis.Client
	lists       *service.ListCache
	monitor     *health.Monitor
	rateLimiter *middleware.RateLimiter
	scheduler   *scheduler.Scheduler
	http        *http.Server
}

func runServe(ctx context.Context, opts *rootOptions) error {
	cfg := opts.config
	log := logger.GetLogger()

	log.Info("Application starting",
		zap.String("app_name", cfg.App.Name),
		zap.String("environment", cfg.App.Environment),
		zap.String("version", constants.AppVersion),
	)

	if err := reporting.Init(reporting.Config{
		DSN:         cfg.Sentry.DSN,
		Environment: cfg.App.Environment,
		Release:     cfg.App.Name + "@" + constants.AppVersion,
		SampleRate:  cfg.Sentry.SampleRate,
	}); err != nil {
		log.Warn("Error reporting disabled", zap.Error(err))
	}
	defer reporting.Flush(2 * time.Second)

	srv, err := newServer(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer srv.close()

	return srv.run(ctx)
}

func newServer(ctx context.Context, cfg *config.Config, log *zap.Logger) (*server, error) {
	s := &server{cfg: cfg, log: log}

	db, err := database.Open(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	s.db = db

	if err := database.AutoMigrate(ctx, db); err != nil {
		s.close()
		return nil, err
	}
	log.Info("Database migrated successfully")

	if cfg.Redis.Enabled {
		client, err := redis.NewClient(cfg)
		if err != nil {
			// lists are served from memory until the next restart
			log.Warn("Redis unavailable, using the in-memory list cache", zap.Error(err))
		} else {
			s.redis = client
		}
	}
	s.lists = newListCache(cfg, s.redis, log)

	engine, err := s.routes()
	if err != nil {
		s.close()
		return nil, err
	}

	s.http = &http.Server{
		Addr:              ":" + cfg.App.Port,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s, nil
}

// newListCache picks the list cache backend. Redis goes through a breaker;
// memory is used when Redis is off or unreachable.
func newListCache(cfg *config.Config, client *redis.Client, log *zap.Logger) *service.ListCache {
	opts := service.ListCacheOptions{
		Enabled: cfg.Cache.Enabled,
		TTL:     cfg.Cache.ListTTL,
	}

	var (
		pages   cache.Cache[*listquery.Envelope]
		cursors cache.Cache[*listquery.CursorEnvelope]
	)
	if cfg.Cache.Backend == "redis" && client != nil {
		breaker := circuit.NewBreaker("list-cache", circuit.DefaultConfig(), log)
		pages = cache.NewRedis[*listquery.Envelope](client, breaker)
		cursors = cache.NewRedis[*listquery.CursorEnvelope](client, breaker)
		opts.Backend = "redis"
		opts.Breaker = breaker
	} else {
		pages = cache.NewMemory[*listquery.Envelope](memoryJanitorInterval)
		cursors = cache.NewMemory[*listquery.CursorEnvelope](memoryJanitorInterval)
		opts.Backend = "memory"
	}

	log.Info("List cache initialized",
		zap.Bool("enabled", opts.Enabled),
		zap.String("backend", opts.Backend),
		zap.Duration("ttl", opts.TTL),
	)
	return service.NewListCache(pages, cursors, opts)
}

func (s *server) routes() (http.Handler, error) {
	cfg := s.cfg
	env := cfg.App.Environment

	blogRepo, err := repository.NewBlogRepository(s.db, cfg.Query.DefaultLimit, cfg.Query.MaxLimit)
	if err != nil {
		return nil, fmt.Errorf("blog list schema: %w", err)
	}
	postRepo, err := repository.NewPostRepository(s.db, cfg.Query.DefaultLimit, cfg.Query.MaxLimit)
	if err != nil {
		return nil, fmt.Errorf("post list schema: %w", err)
	}
	productRepo, err := repository.NewProductRepository(s.db, cfg.Query.DefaultLimit, cfg.Query.MaxLimit)
	if err != nil {
		return nil, fmt.Errorf("product list schema: %w", err)
	}

	blogService := service.NewBlogService(blogRepo, s.lists)
	postService := service.NewPostService(postRepo, blogRepo, s.lists)
	productService := service.NewProductService(productRepo, s.lists)
	jwtService := service.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpirationTime)

	s.monitor = health.NewMonitor(5*time.Second, s.log)
	s.monitor.Register("database", health.PingChecker{Ping: func(ctx context.Context) error {
		return database.Ping(ctx, s.db)
	}}, true)
	redisCheck := health.PingChecker{}
	if s.redis != nil {
		redisCheck.Ping = s.redis.Ping
	}
	s.monitor.Register("redis", redisCheck, false)

	s.rateLimiter = middleware.NewRateLimiter(cfg.RateLimit.Request, time.Duration(cfg.RateLimit.Duration)*time.Second)

	handlers := router.Handlers{
		Blog:    handler.NewBlogHandler(blogService, env),
		Post:    handler.NewPostHandler(postService, env),
		Product: handler.NewProductHandler(productService, env),
		Cache:   handler.NewCacheHandler(s.lists, env),
		Health:  handler.NewHealthHandler(s.monitor),
	}

	if cfg.CronEnabled() {
		if err := s.startScheduler(); err != nil {
			return nil, err
		}
		handlers.Cron = handler.NewCronHandler(s.scheduler, env)
	} else {
		s.log.Info("Cron jobs disabled")
	}

	schemas := router.Schemas{
		Blogs:    blogService.Schema(),
		Posts:    postService.Schema(),
		Products: productService.Schema(),
	}

	return router.NewRouter(
		handlers,
		schemas,
		middleware.NewValidationMiddleware(),
		middleware.NewJWTMiddleware(jwtService),
		s.rateLimiter,
		cfg,
	).SetupRoutes(), nil
}

func (s *server) startScheduler() error {
	s.scheduler = scheduler.New(s.log, cronJobTimeout)

	jobs := []scheduler.Job{
		{
			Name:     "heartbeat",
			Schedule: "* * * * *",
			Run: func(ctx context.Context) (any, error) {
				report := s.monitor.CheckAll(ctx)
				s.log.Info("Heartbeat", zap.String("status", report.Status.String()))
				if !report.Healthy() {
					return report, errors.New("critical dependency unhealthy")
				}
				return report, nil
			},
		},
		{
			Name:     "cleanup",
			Schedule: "*/5 * * * *",
			Run: func(ctx context.Context) (any, error) {
				cleaned := s.lists.Purge() + s.rateLimiter.Prune()
				return map[string]int{"itemsCleaned": cleaned}, nil
			},
		},
	}
	for _, job := range jobs {
		if err := s.scheduler.Register(job); err != nil {
			return err
		}
	}
	s.scheduler.Start()
	return nil
}

// run serves until ctx is cancelled or the listener fails, then drains
// in-flight requests for up to the shutdown timeout.
func (s *server) run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("Server starting",
			zap.String("port", s.cfg.App.Port),
			zap.String("host", "0.0.0.0"),
		)
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.log.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.App.ShutdownTimeout)
	defer cancel()

	if err := s.http.Shutdown(shutdownCtx); err != nil {
		s.log.Error("Forced shutdown", zap.Error(err))
	}
	if s.scheduler != nil {
		s.scheduler.Stop(shutdownCtx)
	}
	s.log.Info("Server stopped")
	return nil
}

func (s *server) close() {
	if s.lists != nil {
		if err := s.lists.Close(); err != nil {
			s.log.Warn("Failed to close list cache", zap.Error(err))
		}
	}
	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			s.log.Warn("Failed to close Redis", zap.Error(err))
		}
	}
	if err := database.CloseDB(s.db); err != nil {
		s.log.Warn("Failed to close database", zap.Error(err))
	}
}
