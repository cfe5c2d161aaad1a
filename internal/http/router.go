package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/wishbox-backend/internal/http/handlers"
	httpMW "github.com/yungbote/wishbox-backend/internal/http/middleware"
	"github.com/yungbote/wishbox-backend/internal/observability"
	"github.com/yungbote/wishbox-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log     *logger.Logger
	Metrics *observability.Metrics

	// TracingService enables otelgin spans under this service name.
	TracingService string
	CORSOrigins    []string

	HealthHandler *httpH.HealthHandler
	WishHandler   *httpH.WishHandler
	UploadHandler *httpH.UploadHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.TracingService != "" {
		r.Use(otelgin.Middleware(cfg.TracingService))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.Metrics(cfg.Metrics))
	r.Use(httpMW.CORS(cfg.CORSOrigins))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
		r.GET("/readyz", cfg.HealthHandler.Ready)
	}
	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))
	}

	api := r.Group("/api")
	{
		if cfg.WishHandler != nil {
			api.POST("/upload-session", cfg.WishHandler.CreateUploadSession)
			api.POST("/wish/publish", cfg.WishHandler.Publish)
			api.GET("/wish/:slug", cfg.WishHandler.GetWish)
		}
		if cfg.UploadHandler != nil {
			api.POST("/uploads/authorize", cfg.UploadHandler.Authorize)
			api.POST("/uploads/authorize-batch", cfg.UploadHandler.AuthorizeBatch)
		}
	}

	return r
}
