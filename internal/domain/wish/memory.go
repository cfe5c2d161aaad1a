package wish

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Memory is one captioned gallery photo. Rows are only ever written by the
// publish transition, in one batch with the status flip.
type Memory struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	WishID   uuid.UUID `gorm:"type:uuid;not null;index" json:"wishId"`
	Wish     *Wish     `gorm:"constraint:OnDelete:CASCADE;foreignKey:WishID;references:ID" json:"-"`
	ImageKey string    `gorm:"column:image_key;not null" json:"imageUrl"`
	Caption  *string   `gorm:"column:caption" json:"caption,omitempty"`
	Order    int       `gorm:"column:display_order;not null;default:0" json:"order"`

	CreatedAt time.Time `gorm:"not null" json:"createdAt"`
}

func (Memory) TableName() string { return "memory" }

func (m *Memory) BeforeCreate(_ *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

// SortByOrder orders memories for display. Equal orders keep their relative
// position so the result is deterministic for a given input.
func SortByOrder(ms []*Memory) {
	sort.SliceStable(ms, func(i, j int) bool {
		return ms[i].Order < ms[j].Order
	})
}
