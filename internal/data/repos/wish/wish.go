package wish

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/wishbox-backend/internal/domain/wish"
	"github.com/yungbote/wishbox-backend/internal/platform/dbctx"
	"github.com/yungbote/wishbox-backend/internal/platform/logger"
)

type WishRepo interface {
	Create(dbc dbctx.Context, rows []*types.Wish) ([]*types.Wish, error)

	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Wish, error)
	GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Wish, error)
	// LockByID reads the row FOR UPDATE when the dialect supports it.
	LockByID(dbc dbctx.Context, id uuid.UUID) (*types.Wish, error)
	GetPublishedBySlug(dbc dbctx.Context, slug string) (*types.Wish, error)
	SlugExists(dbc dbctx.Context, slug string) (bool, error)

	ExpireDrafts(dbc dbctx.Context, before time.Time) (int64, error)
}

type wishRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewWishRepo(db *gorm.DB, baseLog *logger.Logger) WishRepo {
	return &wishRepo{db: db, log: baseLog.With("repo", "WishRepo")}
}

func (r *wishRepo) Create(dbc dbctx.Context, rows []*types.Wish) ([]*types.Wish, error) {
	if len(rows) == 0 {
		return []*types.Wish{}, nil
	}
	if err := dbc.DB(r.db).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *wishRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Wish, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	rows, err := r.GetByIDs(dbc, []uuid.UUID{id})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (r *wishRepo) GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Wish, error) {
	var out []*types.Wish
	if len(ids) == 0 {
		return out, nil
	}
	if err := dbc.DB(r.db).Where("id IN ?", ids).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *wishRepo) LockByID(dbc dbctx.Context, id uuid.UUID) (*types.Wish, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	q := dbc.DB(r.db)
	if q.Dialector != nil && q.Dialector.Name() == "postgres" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var row types.Wish
	err := q.Where("id = ?", id).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// GetPublishedBySlug returns the published wish with its memories, or nil.
// Drafts and expired wishes are invisible here.
func (r *wishRepo) GetPublishedBySlug(dbc dbctx.Context, slug string) (*types.Wish, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return nil, nil
	}
	var row types.Wish
	err := dbc.DB(r.db).
		Preload("Memories").
		Where("slug = ? AND status = ?", slug, types.StatusPublished).
		Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *wishRepo) SlugExists(dbc dbctx.Context, slug string) (bool, error) {
	var n int64
	if err := dbc.DB(r.db).Model(&types.Wish{}).Where("slug = ?", slug).Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *wishRepo) ExpireDrafts(dbc dbctx.Context, before time.Time) (int64, error) {
	res := dbc.DB(r.db).
		Model(&types.Wish{}).
		Where("status = ? AND expires_at IS NOT NULL AND expires_at <= ?", types.StatusDraft, before).
		Updates(map[string]interface{}{
			"status":     types.StatusExpired,
			"updated_at": before,
		})
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}
