package wish

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Status string

const (
	StatusDraft     Status = "draft"
	StatusPublished Status = "published"
	StatusExpired   Status = "expired"
)

// Wish is the root record of a greeting. It is created as a draft by the
// upload session and mutated exactly once more, when it is published.
type Wish struct {
	ID               uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	SenderName       string     `gorm:"column:sender_name;not null;default:''" json:"senderName"`
	RecipientName    string     `gorm:"column:recipient_name;not null;default:''" json:"recipientName"`
	Message          string     `gorm:"column:message;not null;default:''" json:"message"`
	EnvelopeImageKey string     `gorm:"column:envelope_image_key;not null;default:''" json:"envelopeImageUrl"`
	Status           Status     `gorm:"column:status;not null;default:'draft';index" json:"status"`
	Slug             *string    `gorm:"column:slug;uniqueIndex:idx_wish_slug" json:"slug,omitempty"`
	ExpiresAt        *time.Time `gorm:"column:expires_at;index" json:"expiresAt,omitempty"`
	PublishedAt      *time.Time `gorm:"column:published_at" json:"publishedAt,omitempty"`

	Memories []*Memory `gorm:"foreignKey:WishID;references:ID" json:"memories,omitempty"`

	CreatedAt time.Time `gorm:"not null" json:"createdAt"`
	UpdatedAt time.Time `gorm:"not null" json:"updatedAt"`
}

func (Wish) TableName() string { return "wish" }

func (w *Wish) BeforeCreate(_ *gorm.DB) error {
	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	return nil
}

func (w *Wish) IsDraft() bool     { return w != nil && w.Status == StatusDraft }
func (w *Wish) IsPublished() bool { return w != nil && w.Status == StatusPublished }

// IsExpiredAt reports whether the draft window has closed. Published wishes
// never expire.
func (w *Wish) IsExpiredAt(now time.Time) bool {
	if w == nil {
		return false
	}
	switch w.Status {
	case StatusExpired:
		return true
	case StatusDraft:
		return w.ExpiresAt != nil && !now.Before(*w.ExpiresAt)
	default:
		return false
	}
}

func (w *Wish) SlugValue() string {
	if w == nil || w.Slug == nil {
		return ""
	}
	return *w.Slug
}
