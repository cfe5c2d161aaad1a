package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	types "github.com/yungbote/wishbox-backend/internal/domain/wish"
	"gorm.io/gorm"
)

func SeedDraft(tb testing.TB, ctx context.Context, tx *gorm.DB, expiresAt time.Time) *types.Wish {
	tb.Helper()
	exp := expiresAt.UTC()
	w := &types.Wish{
		ID:        uuid.New(),
		Status:    types.StatusDraft,
		ExpiresAt: &exp,
	}
	if err := tx.WithContext(ctx).Create(w).Error; err != nil {
		tb.Fatalf("seed draft: %v", err)
	}
	return w
}

func SeedPublished(tb testing.TB, ctx context.Context, tx *gorm.DB, slug string, memories ...*types.Memory) *types.Wish {
	tb.Helper()
	now := time.Now().UTC()
	w := &types.Wish{
		ID:               uuid.New(),
		SenderName:       "Arjun",
		RecipientName:    "Priya",
		Message:          "Happy birthday",
		EnvelopeImageKey: "wishes/x/envelope.jpg",
		Status:           types.StatusPublished,
		Slug:             PtrString(slug),
		PublishedAt:      &now,
	}
	if err := tx.WithContext(ctx).Create(w).Error; err != nil {
		tb.Fatalf("seed published wish: %v", err)
	}
	for _, m := range memories {
		m.WishID = w.ID
	}
	if len(memories) > 0 {
		if err := tx.WithContext(ctx).Create(&memories).Error; err != nil {
			tb.Fatalf("seed memories: %v", err)
		}
	}
	return w
}

func PtrString(v string) *string { return &v }

func PtrTime(v time.Time) *time.Time { return &v }
