package container

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/oksasatya/go-session-auth/config"
	"github.com/oksasatya/go-session-auth/internal/application"
	"github.com/oksasatya/go-session-auth/internal/domain/repository"
	"github.com/oksasatya/go-session-auth/internal/infrastructure/cache"
	pginfra "github.com/oksasatya/go-session-auth/internal/infrastructure/postgres"
	sqliteinfra "github.com/oksasatya/go-session-auth/internal/infrastructure/sqlite"
	"github.com/oksasatya/go-session-auth/pkg/helpers"
)

// Container owns the infrastructure a process needs. It is built once in
// main and passed down explicitly.
type Container struct {
	Cfg    *config.Config
	Logger *logrus.Logger
	Redis  *redis.Client // nil when disabled or unreachable

	// Store is the user store itself; Users may add the session cache in front of it.
	Store repository.UserRepository
	Users repository.UserRepository

	closers []func()
}

// New opens the configured store (running its migrations) and, when enabled,
// redis. A redis that cannot be reached is logged and left out.
func New(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (*Container, error) {
	c := &Container{Cfg: cfg, Logger: logger}

	switch cfg.StoreDriver {
	case "postgres":
		if err := pginfra.Migrate(cfg.PostgresDSN(), logger); err != nil {
			return nil, fmt.Errorf("postgres migrations: %w", err)
		}
		pool, err := pginfra.NewPool(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("connect to postgres: %w", err)
		}
		c.closers = append(c.closers, pool.Close)
		c.Store = pginfra.NewUserRepository(pool)
	case "sqlite":
		db, err := sqliteinfra.Open(ctx, cfg.SQLiteDSN())
		if err != nil {
			return nil, err
		}
		c.closers = append(c.closers, func() { _ = db.Close() })
		if err := sqliteinfra.Migrate(db); err != nil {
			c.Close()
			return nil, fmt.Errorf("sqlite migrations: %w", err)
		}
		c.Store = sqliteinfra.NewUserRepository(db)
	default:
		return nil, fmt.Errorf("unknown STORE_DRIVER %q", cfg.StoreDriver)
	}
	c.Users = c.Store

	if cfg.RedisEnabled {
		rdb := helpers.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err := helpers.PingRedis(ctx, rdb); err != nil {
			logger.WithError(err).Warn("redis unavailable; running without session cache and rate limits")
			_ = rdb.Close()
		} else {
			c.Redis = rdb
			c.closers = append(c.closers, func() { _ = rdb.Close() })
			c.Users = cache.NewSessionCachedRepository(c.Store, rdb, cfg.SessionCacheTTL, logger)
		}
	}
	logger.WithFields(logrus.Fields{"store": cfg.StoreDriver, "redis": c.Redis != nil}).Info("infrastructure ready")
	return c, nil
}

// Hasher is the password hasher every process uses.
func (c *Container) Hasher() *helpers.BcryptHasher {
	return helpers.NewBcryptHasher(bcrypt.DefaultCost)
}

// AuthService wires the service over Users.
func (c *Container) AuthService() *application.AuthService {
	return application.NewAuthService(c.Users, c.Hasher(), helpers.UUIDTokens{}, c.Logger)
}

// Close releases everything New opened, in reverse order.
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	c.closers = nil
}
