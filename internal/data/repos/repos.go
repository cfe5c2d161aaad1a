package repos

import (
	"github.com/yungbote/wishbox-backend/internal/data/repos/wish"
	"github.com/yungbote/wishbox-backend/internal/platform/logger"
	"gorm.io/gorm"
)

type WishRepo = wish.WishRepo
type MemoryRepo = wish.MemoryRepo

func NewWishRepo(db *gorm.DB, log *logger.Logger) WishRepo     { return wish.NewWishRepo(db, log) }
func NewMemoryRepo(db *gorm.DB, log *logger.Logger) MemoryRepo { return wish.NewMemoryRepo(db, log) }
