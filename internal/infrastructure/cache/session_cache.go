package cache

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-session-auth/internal/domain/entity"
	"github.com/oksasatya/go-session-auth/internal/domain/repository"
)

const sessionKeyPrefix = "auth:session:"

func sessionKey(sessionID string) string { return sessionKeyPrefix + sessionID }

// SessionCachedRepository keeps a session id -> user id index in redis in front
// of another UserRepository. The store stays authoritative: every cache hit is
// re-checked against the loaded row, and redis failures fall through to it.
type SessionCachedRepository struct {
	repository.UserRepository

	rdb    *redis.Client
	ttl    time.Duration
	logger *logrus.Logger
}

func NewSessionCachedRepository(inner repository.UserRepository, rdb *redis.Client, ttl time.Duration, logger *logrus.Logger) *SessionCachedRepository {
	if logger == nil {
		logger = logrus.New()
	}
	return &SessionCachedRepository{UserRepository: inner, rdb: rdb, ttl: ttl, logger: logger}
}

func (r *SessionCachedRepository) GetBySessionID(ctx context.Context, sessionID string) (*entity.User, error) {
	key := sessionKey(sessionID)
	raw, err := r.rdb.Get(ctx, key).Result()
	switch {
	case err == nil:
		if u := r.fromCachedID(ctx, raw, sessionID); u != nil {
			return u, nil
		}
		r.del(ctx, key)
	case !errors.Is(err, redis.Nil):
		r.logger.WithError(err).Warn("session cache read failed")
	}

	u, err := r.UserRepository.GetBySessionID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := r.rdb.Set(ctx, key, strconv.FormatInt(u.ID, 10), r.ttl).Err(); err != nil {
		r.logger.WithError(err).Warn("session cache write failed")
	}
	return u, nil
}

// fromCachedID loads the user behind a cached id and returns it only if it
// still holds sessionID.
func (r *SessionCachedRepository) fromCachedID(ctx context.Context, raw, sessionID string) *entity.User {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil
	}
	u, err := r.UserRepository.GetByID(ctx, id)
	if err != nil || u.SessionID == nil || *u.SessionID != sessionID {
		return nil
	}
	return u
}

func (r *SessionCachedRepository) UpdateSessionID(ctx context.Context, id int64, sessionID *string) error {
	var old *string
	if u, err := r.UserRepository.GetByID(ctx, id); err == nil {
		old = u.SessionID
	}
	if err := r.UserRepository.UpdateSessionID(ctx, id, sessionID); err != nil {
		return err
	}
	if old != nil {
		r.del(ctx, sessionKey(*old))
	}
	return nil
}

func (r *SessionCachedRepository) del(ctx context.Context, key string) {
	if err := r.rdb.Del(ctx, key).Err(); err != nil {
		r.logger.WithError(err).Warn("session cache delete failed")
	}
}

var _ repository.UserRepository = (*SessionCachedRepository)(nil)
