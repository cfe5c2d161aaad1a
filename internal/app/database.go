package app

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/yungbote/wishbox-backend/internal/data/db"
	"github.com/yungbote/wishbox-backend/internal/platform/logger"
)

type migrator interface {
	DB() *gorm.DB
	AutoMigrateAll() error
}

// OpenDatabase connects to the configured driver and, when migrate is set,
// brings the schema and its indexes up to date.
func OpenDatabase(log *logger.Logger, cfg Config, migrate bool) (*gorm.DB, error) {
	var (
		svc migrator
		err error
	)
	switch cfg.DBDriver {
	case DBDriverSQLite:
		svc, err = db.NewSQLiteService(log, cfg.SQLitePath)
	default:
		svc, err = db.NewPostgresService(log, cfg.Postgres)
	}
	if err != nil {
		return nil, fmt.Errorf("init %s: %w", cfg.DBDriver, err)
	}
	if migrate {
		if err := svc.AutoMigrateAll(); err != nil {
			return nil, fmt.Errorf("%s automigrate: %w", cfg.DBDriver, err)
		}
	}
	return svc.DB(), nil
}
