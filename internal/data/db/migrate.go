package db

import (
	"fmt"

	"github.com/yungbote/wishbox-backend/internal/domain/wish"
	"gorm.io/gorm"
)

func AutoMigrateAll(db *gorm.DB) error {
	return db.AutoMigrate(
		&wish.Wish{},
		&wish.Memory{},
	)
}

// EnsureWishIndexes adds the indexes AutoMigrate cannot express. The slug
// unique index is the authoritative guard against duplicate slugs; the
// application-side lookup only saves a rolled back transaction.
func EnsureWishIndexes(db *gorm.DB) error {
	if err := db.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS idx_wish_slug ON wish(slug);`).Error; err != nil {
		return fmt.Errorf("create idx_wish_slug: %w", err)
	}
	if err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_wish_status_expires_at ON wish(status, expires_at);`).Error; err != nil {
		return fmt.Errorf("create idx_wish_status_expires_at: %w", err)
	}
	if err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_memory_wish_order ON memory(wish_id, display_order);`).Error; err != nil {
		return fmt.Errorf("create idx_memory_wish_order: %w", err)
	}
	return nil
}
