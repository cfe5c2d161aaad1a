package app

import (
	"context"

	"gorm.io/gorm"

	"github.com/yungbote/wishbox-backend/internal/http"
	httpH "github.com/yungbote/wishbox-backend/internal/http/handlers"
	"github.com/yungbote/wishbox-backend/internal/observability"
	"github.com/yungbote/wishbox-backend/internal/platform/logger"
)

type Handlers struct {
	Health *httpH.HealthHandler
	Wish   *httpH.WishHandler
	Upload *httpH.UploadHandler
}

func wireHandlers(log *logger.Logger, db *gorm.DB, services Services, clients Clients) Handlers {
	log.Info("Wiring handlers...")
	checks := map[string]httpH.ReadinessCheck{
		"database": func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	}
	if clients.ObjectStore != nil {
		checks["object_store"] = clients.ObjectStore.Ping
	}
	if clients.SlugReserver != nil {
		checks["redis"] = clients.SlugReserver.Ping
	}
	return Handlers{
		Health: httpH.NewHealthHandler(checks),
		Wish:   httpH.NewWishHandler(log, services.Wishes),
		Upload: httpH.NewUploadHandler(log, services.Uploads),
	}
}

func wireServer(log *logger.Logger, cfg Config, metrics *observability.Metrics, handlers Handlers) *http.Server {
	tracing := ""
	if cfg.Otel.Enabled {
		tracing = cfg.Otel.ServiceName
	}
	return http.NewServer(http.RouterConfig{
		Log:            log,
		Metrics:        metrics,
		TracingService: tracing,
		CORSOrigins:    cfg.CORSAllowedOrigins,
		HealthHandler:  handlers.Health,
		WishHandler:    handlers.Wish,
		UploadHandler:  handlers.Upload,
	})
}
