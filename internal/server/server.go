// Package server assembles the planner process: storage, store, reminder
// engine, optional job worker and the HTTP API.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/Hamza-235/Smart-study-Planner/internal/config"
	"github.com/Hamza-235/Smart-study-Planner/internal/database"
	"github.com/Hamza-235/Smart-study-Planner/internal/handlers"
	"github.com/Hamza-235/Smart-study-Planner/internal/middleware"
	"github.com/Hamza-235/Smart-study-Planner/internal/monitoring"
	"github.com/Hamza-235/Smart-study-Planner/internal/persistence"
	"github.com/Hamza-235/Smart-study-Planner/internal/planner"
	"github.com/Hamza-235/Smart-study-Planner/internal/reminder"
	"github.com/Hamza-235/Smart-study-Planner/internal/services"
	"github.com/Hamza-235/Smart-study-Planner/internal/worker"
)

const shutdownTimeout = 30 * time.Second

type Server struct {
	cfg    *config.Config
	logger logrus.FieldLogger
	clock  func() time.Time

	pool  *database.DatabasePool
	redis *redis.Client

	backend   *persistence.BreakerBackend
	store     *planner.Store
	engine    *reminder.Engine
	inbox     *reminder.LogNotifier
	scheduler *reminder.Scheduler
	worker    *worker.Worker
	limiter   *middleware.RateLimiter

	router *gin.Engine
	http   *http.Server
}

func New(cfg *config.Config, logger logrus.FieldLogger) (*Server, error) {
	s := &Server{cfg: cfg, logger: logger, clock: time.Now}
	monitoring.Reset()

	backend, err := s.openBackend()
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}
	s.backend = backend

	adapter := persistence.NewAdapter(backend, logger)
	monitoring.RegisterHealthCheck("persistence", adapter.Check)
	s.store = planner.NewStore(adapter.Load(context.Background()), planner.Options{
		Saver:  adapter,
		Logger: logger,
		Clock:  s.clock,
	})

	if err := s.setupReminders(); err != nil {
		s.Close()
		return nil, err
	}

	s.router = s.setupRouter()
	s.http = &http.Server{
		Addr:         cfg.GetServerAddr(),
		Handler:      s.router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}
	return s, nil
}

func (s *Server) setupReminders() error {
	metrics := reminder.NewMetrics()
	s.inbox = reminder.NewLogNotifier(s.logger, reminder.ChannelInApp, reminder.DefaultRecentSize)
	desktop := reminder.NewLogNotifier(s.logger, reminder.ChannelSystem, reminder.DefaultRecentSize)

	var system reminder.Notifier = desktop
	if s.cfg.Worker.Enabled {
		client, err := s.redisClient()
		if err != nil {
			return fmt.Errorf("failed to connect job queue: %w", err)
		}
		s.worker = worker.NewWorker(worker.WorkerConfig{
			RedisClient:  client,
			Concurrency:  s.cfg.Worker.Concurrency,
			PollInterval: s.cfg.Worker.PollInterval,
			Queues:       s.cfg.Worker.Queues,
			Logger:       s.logger,
		})
		s.worker.RegisterHandler(worker.JobTypeTaskReminder, reminder.NewJobHandler(desktop))
		monitoring.RegisterStats("worker", func() interface{} { return s.worker.Stats() })

		if s.cfg.Reminder.Delivery == "queue" {
			queue := worker.DefaultQueue
			if len(s.cfg.Worker.Queues) > 0 {
				queue = s.cfg.Worker.Queues[0]
			}
			system = reminder.NewQueueNotifier(worker.NewJobQueue(client), queue)
		}
	}

	notifier := reminder.NewPermissionNotifier(system, s.inbox, reminder.AllowedBySettings(s.store), metrics, s.logger)
	s.engine = reminder.NewEngine(s.store, reminder.Options{
		Notifier:  notifier,
		Tolerance: reminderTolerance(s.cfg.Reminder),
		Metrics:   metrics,
		Logger:    s.logger,
	})
	s.scheduler = reminder.NewScheduler(s.engine, s.cfg.Reminder.PollInterval, s.clock, s.logger)
	monitoring.RegisterStats("reminders", func() interface{} { return s.engine.Metrics() })
	return nil
}

// reminderTolerance never lets the fire window be shorter than the poll
// interval, so consecutive polls cover every fire time.
func reminderTolerance(cfg config.ReminderConfig) time.Duration {
	if cfg.Tolerance < cfg.PollInterval {
		return cfg.PollInterval
	}
	return cfg.Tolerance
}

func (s *Server) setupRouter() *gin.Engine {
	if s.cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(
		middleware.RecoveryWithLog(s.logger),
		middleware.RequestLogger(s.logger),
		monitoring.MetricsMiddleware(),
		middleware.CORS(s.cfg.Server.AllowOrigins),
	)

	r.GET("/health", monitoring.HealthHandler())
	r.GET("/ready", monitoring.ReadinessHandler())
	r.GET("/live", monitoring.LivenessHandler())
	r.GET("/metrics", monitoring.MetricsHandler())

	api := r.Group("/api")
	if s.cfg.RateLimit.Enabled {
		s.limiter = middleware.NewRateLimiter(middleware.RateLimitConfig{
			RequestsPerMinute: s.cfg.RateLimit.RequestsPerMin,
			Burst:             s.cfg.RateLimit.BurstSize,
			CleanupInterval:   s.cfg.RateLimit.CleanupInterval,
		})
		api.Use(s.limiter.Middleware())
	}
	if s.cfg.Auth.Enabled {
		authService := services.NewAuthService(s.cfg.Auth.JWTSecret, s.cfg.Auth.PassphraseHash, s.cfg.Auth.AccessTokenTTL)
		api.POST("/auth/token", handlers.NewAuthHandler(authService).Token)
		api.Use(middleware.AuthzMiddleware(authService))
	}

	handlers.NewPlannerHandler(s.store, s.engine, s.inbox, s.clock, s.logger).RegisterRoutes(api)
	return r
}

func (s *Server) Router() *gin.Engine {
	return s.router
}

func (s *Server) Store() *planner.Store {
	return s.store
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	s.scheduler.Start(ctx)
	if s.worker != nil {
		s.worker.Start(ctx, s.cfg.Worker.Concurrency)
	}
	if s.limiter != nil {
		go s.limiter.Run(ctx)
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.WithField("addr", s.http.Addr).Info("starting server")
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		s.stopBackground()
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	err := s.http.Shutdown(shutdownCtx)
	s.stopBackground()
	if err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	s.logger.Info("server stopped")
	return nil
}

func (s *Server) stopBackground() {
	s.scheduler.Stop()
	if s.worker != nil {
		s.worker.Stop()
	}
}

// Close releases database and Redis connections.
func (s *Server) Close() {
	if s.pool != nil {
		if err := s.pool.Close(); err != nil {
			s.logger.WithError(err).Warn("failed to close database pool")
		}
	}
	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			s.logger.WithError(err).Warn("failed to close redis client")
		}
	}
}
