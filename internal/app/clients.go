package app

import (
	"fmt"
	"strings"

	"github.com/yungbote/wishbox-backend/internal/clients/redis"
	"github.com/yungbote/wishbox-backend/internal/platform/gcp"
	"github.com/yungbote/wishbox-backend/internal/platform/logger"
)

type Clients struct {
	ObjectStore gcp.ObjectStore
	// SlugReserver is nil when REDIS_ADDR is unset.
	SlugReserver *redis.SlugReserver
}

func wireClients(log *logger.Logger, cfg Config) (Clients, error) {
	log.Info("Wiring clients...")

	// Gcs
	store, err := resolveObjectStore(log, cfg)
	if err != nil {
		return Clients{}, err
	}

	// Redis
	var reserver *redis.SlugReserver
	if strings.TrimSpace(cfg.RedisAddr) != "" {
		r, err := redis.NewSlugReserver(log, redis.Config{
			Addr:           cfg.RedisAddr,
			Password:       cfg.RedisPassword,
			DB:             cfg.RedisDB,
			ReservationTTL: cfg.SlugReservationTTL,
		})
		if err != nil {
			_ = store.Close()
			return Clients{}, fmt.Errorf("init redis slug reserver: %w", err)
		}
		reserver = r
	}

	return Clients{
		ObjectStore:  store,
		SlugReserver: reserver,
	}, nil
}

func (c *Clients) Close() {
	if c == nil {
		return
	}
	if c.SlugReserver != nil {
		_ = c.SlugReserver.Close()
	}
	if c.ObjectStore != nil {
		_ = c.ObjectStore.Close()
	}
}
