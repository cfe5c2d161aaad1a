package aggregates

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/yungbote/wishbox-backend/internal/data/repos"
	domainagg "github.com/yungbote/wishbox-backend/internal/domain/aggregates"
	types "github.com/yungbote/wishbox-backend/internal/domain/wish"
	"github.com/yungbote/wishbox-backend/internal/modules/slug"
	"github.com/yungbote/wishbox-backend/internal/platform/dbctx"
	"github.com/yungbote/wishbox-backend/internal/platform/logger"
)

const (
	DefaultDraftTTL    = 72 * time.Hour
	DefaultMaxMemories = 4

	MaxNameLength    = 80
	MaxMessageLength = 2000

	opCreateDraft  = "wish.create_draft"
	opPublish      = "wish.publish"
	opExpireDrafts = "wish.expire_drafts"

	// ReasonAlreadyPublished is the message carried by the precondition
	// failure returned when publish targets a wish that is no longer a draft.
	ReasonAlreadyPublished = "already_published"
)

type WishAggregateDeps struct {
	Base     BaseDeps
	Wishes   repos.WishRepo
	Memories repos.MemoryRepo
	Slugs    *slug.Generator
	// Reserver is optional; without it the lookup and the unique index are
	// the only collision guards.
	Reserver slug.Reserver

	DraftTTL    time.Duration
	MaxMemories int
	Clock       func() time.Time
}

type wishAggregate struct {
	deps WishAggregateDeps
	log  *logger.Logger
}

var _ domainagg.WishAggregate = (*wishAggregate)(nil)

func NewWishAggregate(deps WishAggregateDeps) domainagg.WishAggregate {
	deps.Base = deps.Base.withDefaults()
	if deps.Slugs == nil {
		deps.Slugs = slug.NewGenerator(slug.DefaultMaxAttempts, slug.DefaultSuffixLength)
	}
	if deps.DraftTTL <= 0 {
		deps.DraftTTL = DefaultDraftTTL
	}
	if deps.MaxMemories <= 0 {
		deps.MaxMemories = DefaultMaxMemories
	}
	if deps.Clock == nil {
		deps.Clock = time.Now
	}
	log := deps.Base.Log
	if log == nil {
		log = logger.Nop()
	}
	return &wishAggregate{deps: deps, log: log.With("aggregate", "WishAggregate")}
}

func (a *wishAggregate) Contract() domainagg.Contract {
	return domainagg.WishAggregateContract
}

func (a *wishAggregate) now(in time.Time) time.Time {
	if in.IsZero() {
		in = a.deps.Clock()
	}
	return in.UTC()
}

func (a *wishAggregate) CreateDraft(ctx context.Context, in domainagg.CreateDraftInput) (domainagg.CreateDraftResult, error) {
	now := a.now(in.Now)
	expiresAt := now.Add(a.deps.DraftTTL)
	row := &types.Wish{
		ID:        uuid.New(),
		Status:    types.StatusDraft,
		ExpiresAt: &expiresAt,
		CreatedAt: now,
		UpdatedAt: now,
	}
	err := executeWrite(ctx, a.deps.Base, opCreateDraft, func(dbc dbctx.Context) error {
		_, err := a.deps.Wishes.Create(dbc, []*types.Wish{row})
		return err
	})
	if err != nil {
		return domainagg.CreateDraftResult{}, err
	}
	a.log.Debug("draft created", "wish_id", row.ID.String(), "expires_at", expiresAt)
	return domainagg.CreateDraftResult{WishID: row.ID, ExpiresAt: expiresAt}, nil
}

func (a *wishAggregate) Publish(ctx context.Context, in domainagg.PublishInput) (domainagg.PublishResult, error) {
	in, err := normalizePublishInput(in, a.deps.MaxMemories)
	if err != nil {
		a.deps.Base.Hooks.ObserveOperation(opPublish, string(domainagg.CodeValidation), 0)
		return domainagg.PublishResult{}, domainagg.NewError(domainagg.CodeValidation, opPublish, err.Error(), err)
	}
	now := a.now(in.Now)

	var out domainagg.PublishResult
	res, err := a.deps.Slugs.Generate(ctx, in.RecipientName, func(ctx context.Context, candidate string) (bool, error) {
		taken, err := a.deps.Wishes.SlugExists(dbctx.Context{Ctx: ctx}, candidate)
		if err != nil {
			return false, MapError(opPublish, err)
		}
		if taken {
			a.deps.Base.Hooks.IncSlugCollision("lookup")
			return false, nil
		}
		if a.deps.Reserver != nil {
			ok, err := a.deps.Reserver.Reserve(ctx, candidate)
			switch {
			case err != nil:
				a.log.Warn("slug reservation unavailable, relying on unique index", "error", err)
			case !ok:
				a.deps.Base.Hooks.IncSlugCollision("reservation")
				return false, nil
			}
		}

		err = executeWrite(ctx, a.deps.Base, opPublish, func(dbc dbctx.Context) error {
			published, err := a.publishTx(dbc, in, candidate, now)
			if err != nil {
				return err
			}
			out = published
			return nil
		})
		if err != nil {
			if isSlugViolation(err) {
				a.deps.Base.Hooks.IncSlugCollision("constraint")
				return false, nil
			}
			return false, err
		}
		return true, nil
	})
	if err != nil {
		if errors.Is(err, slug.ErrExhausted) {
			a.log.Error("slug generation exhausted", "wish_id", in.WishID.String(), "attempts", res.Attempts)
			return domainagg.PublishResult{}, domainagg.NewError(domainagg.CodeSlugGenerationFailed, opPublish, "could not assign a unique slug", err)
		}
		return domainagg.PublishResult{}, MapError(opPublish, err)
	}
	out.Attempts = res.Attempts
	a.log.Info("wish published",
		"wish_id", in.WishID.String(),
		"slug", out.Slug,
		"memories", out.MemoryCount,
		"attempts", out.Attempts,
	)
	return out, nil
}

func (a *wishAggregate) publishTx(dbc dbctx.Context, in domainagg.PublishInput, candidate string, now time.Time) (domainagg.PublishResult, error) {
	row, err := a.deps.Wishes.LockByID(dbc, in.WishID)
	if err != nil {
		return domainagg.PublishResult{}, err
	}
	if row == nil {
		return domainagg.PublishResult{}, domainagg.NewError(domainagg.CodeNotFound, opPublish, "wish not found", nil)
	}
	if row.IsPublished() {
		return domainagg.PublishResult{}, domainagg.NewError(domainagg.CodePreconditionFailed, opPublish, ReasonAlreadyPublished, nil)
	}
	if !row.IsDraft() || row.IsExpiredAt(now) {
		return domainagg.PublishResult{}, domainagg.NewError(domainagg.CodeNotFound, opPublish, "draft expired", nil)
	}

	ok, err := a.deps.Base.CASGuard.UpdateByStatus(dbc, types.Wish{}.TableName(), row.ID, []string{string(types.StatusDraft)}, map[string]any{
		"sender_name":        in.SenderName,
		"recipient_name":     in.RecipientName,
		"message":            in.Message,
		"envelope_image_key": in.EnvelopeImageKey,
		"status":             types.StatusPublished,
		"slug":               candidate,
		"published_at":       now,
		"expires_at":         nil,
		"updated_at":         now,
	})
	if err != nil {
		return domainagg.PublishResult{}, err
	}
	if !ok {
		// A concurrent publish of the same draft won the status flip.
		return domainagg.PublishResult{}, domainagg.NewError(domainagg.CodePreconditionFailed, opPublish, ReasonAlreadyPublished, nil)
	}

	if len(in.Memories) > 0 {
		rows := make([]*types.Memory, 0, len(in.Memories))
		for _, m := range in.Memories {
			rows = append(rows, &types.Memory{
				ID:        uuid.New(),
				WishID:    row.ID,
				ImageKey:  m.ImageKey,
				Caption:   m.Caption,
				Order:     m.Order,
				CreatedAt: now,
			})
		}
		if _, err := a.deps.Memories.Create(dbc, rows); err != nil {
			return domainagg.PublishResult{}, err
		}
	}

	return domainagg.PublishResult{
		WishID:      row.ID,
		Slug:        candidate,
		MemoryCount: len(in.Memories),
		PublishedAt: now,
	}, nil
}

func (a *wishAggregate) ExpireDrafts(ctx context.Context, in domainagg.ExpireDraftsInput) (domainagg.ExpireDraftsResult, error) {
	now := a.now(in.Now)
	var n int64
	err := executeWrite(ctx, a.deps.Base, opExpireDrafts, func(dbc dbctx.Context) error {
		var err error
		n, err = a.deps.Wishes.ExpireDrafts(dbc, now)
		return err
	})
	if err != nil {
		return domainagg.ExpireDraftsResult{}, err
	}
	if n > 0 {
		a.log.Info("drafts expired", "count", n)
	}
	return domainagg.ExpireDraftsResult{Expired: n}, nil
}

// normalizePublishInput trims text fields and checks every boundary rule
// before any storage is touched. Image keys must sit under the wish's own
// prefix in the matching slot. Captions are stored exactly as given.
func normalizePublishInput(in domainagg.PublishInput, maxMemories int) (domainagg.PublishInput, error) {
	if in.WishID == uuid.Nil {
		return in, fmt.Errorf("wishId is required")
	}
	in.SenderName = strings.TrimSpace(in.SenderName)
	in.RecipientName = strings.TrimSpace(in.RecipientName)
	in.Message = strings.TrimSpace(in.Message)
	in.EnvelopeImageKey = strings.TrimSpace(in.EnvelopeImageKey)

	switch {
	case in.SenderName == "":
		return in, fmt.Errorf("senderName is required")
	case in.RecipientName == "":
		return in, fmt.Errorf("recipientName is required")
	case in.Message == "":
		return in, fmt.Errorf("message is required")
	case in.EnvelopeImageKey == "":
		return in, fmt.Errorf("envelopeImageUrl is required")
	}
	envelope, err := types.ParseOwnedKey(in.EnvelopeImageKey, in.WishID, true)
	if err != nil {
		return in, fmt.Errorf("envelopeImageUrl: %w", err)
	}
	in.EnvelopeImageKey = envelope.Raw
	if utf8.RuneCountInString(in.SenderName) > MaxNameLength {
		return in, fmt.Errorf("senderName exceeds %d characters", MaxNameLength)
	}
	if utf8.RuneCountInString(in.RecipientName) > MaxNameLength {
		return in, fmt.Errorf("recipientName exceeds %d characters", MaxNameLength)
	}
	if utf8.RuneCountInString(in.Message) > MaxMessageLength {
		return in, fmt.Errorf("message exceeds %d characters", MaxMessageLength)
	}
	if len(in.Memories) > maxMemories {
		return in, fmt.Errorf("at most %d memories are allowed, got %d", maxMemories, len(in.Memories))
	}

	memories := make([]domainagg.MemoryInput, 0, len(in.Memories))
	for i, m := range in.Memories {
		if strings.TrimSpace(m.ImageKey) == "" {
			return in, fmt.Errorf("memories[%d].imageUrl is required", i)
		}
		key, err := types.ParseOwnedKey(m.ImageKey, in.WishID, false)
		if err != nil {
			return in, fmt.Errorf("memories[%d].imageUrl: %w", i, err)
		}
		m.ImageKey = key.Raw
		if m.Order < 0 {
			return in, fmt.Errorf("memories[%d].order must be >= 0", i)
		}
		memories = append(memories, m)
	}
	in.Memories = memories
	return in, nil
}
