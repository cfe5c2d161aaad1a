package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/wishbox-backend/internal/data/repos"
	"github.com/yungbote/wishbox-backend/internal/platform/logger"
)

type Repos struct {
	Wish   repos.WishRepo
	Memory repos.MemoryRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		Wish:   repos.NewWishRepo(db, log),
		Memory: repos.NewMemoryRepo(db, log),
	}
}
