package wish

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/wishbox-backend/internal/domain/wish"
	"github.com/yungbote/wishbox-backend/internal/platform/dbctx"
	"github.com/yungbote/wishbox-backend/internal/platform/logger"
)

type MemoryRepo interface {
	Create(dbc dbctx.Context, rows []*types.Memory) ([]*types.Memory, error)
	GetByWishIDs(dbc dbctx.Context, wishIDs []uuid.UUID) ([]*types.Memory, error)
}

type memoryRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewMemoryRepo(db *gorm.DB, baseLog *logger.Logger) MemoryRepo {
	return &memoryRepo{db: db, log: baseLog.With("repo", "MemoryRepo")}
}

// Create inserts the whole batch in one statement.
func (r *memoryRepo) Create(dbc dbctx.Context, rows []*types.Memory) ([]*types.Memory, error) {
	if len(rows) == 0 {
		return []*types.Memory{}, nil
	}
	if err := dbc.DB(r.db).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *memoryRepo) GetByWishIDs(dbc dbctx.Context, wishIDs []uuid.UUID) ([]*types.Memory, error) {
	var out []*types.Memory
	if len(wishIDs) == 0 {
		return out, nil
	}
	if err := dbc.DB(r.db).Where("wish_id IN ?", wishIDs).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
