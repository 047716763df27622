package server

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	gormlogger "gorm.io/gorm/logger"

	"github.com/Hamza-235/Smart-study-Planner/internal/database"
	"github.com/Hamza-235/Smart-study-Planner/internal/monitoring"
	"github.com/Hamza-235/Smart-study-Planner/internal/persistence"
)

// openBackend builds the configured storage backend behind a circuit breaker.
func (s *Server) openBackend() (*persistence.BreakerBackend, error) {
	var backend persistence.Backend

	switch driver := s.cfg.Storage.Driver; driver {
	case "file":
		backend = persistence.NewFileBackend(s.cfg.Storage.FilePath)

	case "memory":
		backend = persistence.NewMemoryBackend(nil)

	case "sqlite", "postgres":
		poolConfig := &database.PoolConfig{
			Driver:          database.DriverPostgres,
			DSN:             s.cfg.GetDatabaseDSN(),
			MaxOpenConns:    s.cfg.Database.MaxOpenConns,
			MaxIdleConns:    s.cfg.Database.MaxIdleConns,
			ConnMaxLifetime: s.cfg.Database.ConnMaxLifetime,
			ConnMaxIdleTime: s.cfg.Database.ConnMaxIdleTime,
			LogLevel:        gormlogger.Warn,
			Logger:          s.logger.WithField("component", "gorm"),
		}
		if driver == "sqlite" {
			poolConfig.Driver = database.DriverSQLite
			poolConfig.DSN = s.cfg.Database.SQLitePath
		}

		pool, err := database.NewDatabasePool(poolConfig)
		if err != nil {
			return nil, err
		}
		s.pool = pool
		monitoring.RegisterHealthCheck("database", func(ctx context.Context) error { return pool.Health() })
		monitoring.RegisterStats("database", func() interface{} { return pool.Stats() })

		sqlBackend, err := persistence.NewSQLBackend(pool.DB)
		if err != nil {
			return nil, err
		}
		backend = sqlBackend

	case "redis":
		client, err := s.redisClient()
		if err != nil {
			return nil, err
		}
		backend = persistence.NewRedisBackend(client, s.cfg.Storage.RedisKey)

	default:
		return nil, fmt.Errorf("unknown storage driver %q", driver)
	}

	breaker := persistence.NewBreakerBackend(backend, &persistence.BreakerConfig{
		MaxFailures:      s.cfg.Storage.BreakerMax,
		Timeout:          s.cfg.Storage.BreakerWait,
		HalfOpenMaxCalls: 1,
	})
	monitoring.RegisterStats("storage", func() interface{} { return breaker.Breaker().Stats() })
	monitoring.RegisterHealthCheck("storage", func(ctx context.Context) error {
		if state := breaker.Breaker().State(); state == persistence.BreakerOpen {
			return fmt.Errorf("%s backend circuit is %s", backend.Name(), state)
		}
		return nil
	})

	s.logger.WithField("driver", s.cfg.Storage.Driver).Info("storage backend ready")
	return breaker, nil
}

// redisClient lazily connects the client shared by storage and the job queue.
func (s *Server) redisClient() (*redis.Client, error) {
	if s.redis != nil {
		return s.redis, nil
	}

	client := database.NewRedisClient(&database.RedisConfig{
		Addr:         s.cfg.GetRedisAddr(),
		Password:     s.cfg.Redis.Password,
		DB:           s.cfg.Redis.DB,
		PoolSize:     s.cfg.Redis.PoolSize,
		MinIdleConns: s.cfg.Redis.MinIdleConns,
		MaxRetries:   s.cfg.Redis.MaxRetries,
		DialTimeout:  s.cfg.Redis.DialTimeout,
		ReadTimeout:  s.cfg.Redis.ReadTimeout,
		WriteTimeout: s.cfg.Redis.WriteTimeout,
	})
	if err := database.PingRedis(context.Background(), client); err != nil {
		_ = client.Close()
		return nil, err
	}

	s.redis = client
	monitoring.RegisterHealthCheck("redis", func(ctx context.Context) error { return database.PingRedis(ctx, client) })
	return client, nil
}
