package redis

import (
	"context"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/wishbox-backend/internal/platform/logger"
)

const (
	defaultKeyPrefix      = "wishbox:slug:"
	defaultReservationTTL = 30 * time.Second
)

type Config struct {
	Addr           string
	Password       string
	DB             int
	KeyPrefix      string
	ReservationTTL time.Duration
}

// SlugReserver claims slug candidates with SET NX so two processes publishing
// similarly named wishes do not race to the same unique-index violation.
type SlugReserver struct {
	log    *logger.Logger
	rdb    goredis.UniversalClient
	prefix string
	ttl    time.Duration
}

// NewSlugReserver dials redis and verifies the connection.
func NewSlugReserver(log *logger.Logger, cfg Config) (*SlugReserver, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	addr := strings.TrimSpace(cfg.Addr)
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return NewSlugReserverWithClient(log, rdb, cfg), nil
}

func NewSlugReserverWithClient(log *logger.Logger, rdb goredis.UniversalClient, cfg Config) *SlugReserver {
	prefix := strings.TrimSpace(cfg.KeyPrefix)
	if prefix == "" {
		prefix = defaultKeyPrefix
	}
	ttl := cfg.ReservationTTL
	if ttl <= 0 {
		ttl = defaultReservationTTL
	}
	if log == nil {
		log = logger.Nop()
	}
	return &SlugReserver{
		log:    log.With("service", "RedisSlugReserver"),
		rdb:    rdb,
		prefix: prefix,
		ttl:    ttl,
	}
}

// Reserve returns false when another publisher holds the candidate.
func (r *SlugReserver) Reserve(ctx context.Context, candidate string) (bool, error) {
	if r == nil || r.rdb == nil {
		return false, fmt.Errorf("redis slug reserver not initialized")
	}
	candidate = strings.TrimSpace(candidate)
	if candidate == "" {
		return false, fmt.Errorf("empty slug candidate")
	}
	ok, err := r.rdb.SetNX(ctx, r.key(candidate), "1", r.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis setnx: %w", err)
	}
	if !ok {
		r.log.Debug("slug candidate already reserved", "slug", candidate)
	}
	return ok, nil
}

func (r *SlugReserver) key(candidate string) string {
	return r.prefix + candidate
}

func (r *SlugReserver) Ping(ctx context.Context) error {
	if r == nil || r.rdb == nil {
		return fmt.Errorf("redis slug reserver not initialized")
	}
	return r.rdb.Ping(ctx).Err()
}

func (r *SlugReserver) Close() error {
	if r == nil || r.rdb == nil {
		return nil
	}
	return r.rdb.Close()
}
