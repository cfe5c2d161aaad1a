package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/wishbox-backend/internal/data/aggregates"
	domainagg "github.com/yungbote/wishbox-backend/internal/domain/aggregates"
	"github.com/yungbote/wishbox-backend/internal/modules/slug"
	"github.com/yungbote/wishbox-backend/internal/observability"
	"github.com/yungbote/wishbox-backend/internal/platform/logger"
	"github.com/yungbote/wishbox-backend/internal/services"
)

type Services struct {
	WishAggregate domainagg.WishAggregate
	Wishes        services.WishService
	Uploads       services.UploadAuthorizer
	Sweeper       services.Sweeper
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, metrics *observability.Metrics, repos Repos, clients Clients) Services {
	log.Info("Wiring services...")

	deps := aggregates.WishAggregateDeps{
		Base: aggregates.BaseDeps{
			DB:    db,
			Log:   log,
			Hooks: aggregates.NewObservabilityHooks(metrics),
		},
		Wishes:      repos.Wish,
		Memories:    repos.Memory,
		Slugs:       slug.NewGenerator(cfg.SlugMaxAttempts, cfg.SlugSuffixLength),
		DraftTTL:    cfg.DraftTTL,
		MaxMemories: cfg.MaxMemories,
	}
	// Assigned only when configured so the interface stays nil otherwise.
	if clients.SlugReserver != nil {
		deps.Reserver = clients.SlugReserver
	}
	wishAgg := aggregates.NewWishAggregate(deps)

	return Services{
		WishAggregate: wishAgg,
		Wishes:        services.NewWishService(log, wishAgg, repos.Wish, clients.ObjectStore, cfg.ReadURLTTL, metrics),
		Uploads:       services.NewUploadAuthorizer(log, clients.ObjectStore, cfg.UploadURLTTL, metrics),
		Sweeper:       services.NewSweeper(log, wishAgg, repos.Wish, clients.ObjectStore, metrics),
	}
}
