package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/yungbote/wishbox-backend/internal/data/repos"
	domainagg "github.com/yungbote/wishbox-backend/internal/domain/aggregates"
	types "github.com/yungbote/wishbox-backend/internal/domain/wish"
	"github.com/yungbote/wishbox-backend/internal/observability"
	"github.com/yungbote/wishbox-backend/internal/platform/apierr"
	"github.com/yungbote/wishbox-backend/internal/platform/dbctx"
	"github.com/yungbote/wishbox-backend/internal/platform/logger"
)

const (
	DefaultReadURLTTL = 15 * time.Minute
	signConcurrency   = 5
)

// ReadSigner mints a time-limited GET URL for one object key.
type ReadSigner interface {
	SignedGetURL(ctx context.Context, key string, ttl time.Duration) (string, error)
}

type MemoryView struct {
	ImageURL string  `json:"imageUrl"`
	Caption  *string `json:"caption,omitempty"`
	Order    int     `json:"order"`
}

// WishView is the published wish as served to readers: every object key is
// replaced with a signed URL and memories are in display order. The wish id
// is deliberately absent since it is the draft capability.
type WishView struct {
	Slug             string       `json:"slug"`
	SenderName       string       `json:"senderName"`
	RecipientName    string       `json:"recipientName"`
	Message          string       `json:"message"`
	EnvelopeImageURL string       `json:"envelopeImageUrl"`
	Memories         []MemoryView `json:"memories"`
	PublishedAt      *time.Time   `json:"publishedAt,omitempty"`
	CreatedAt        time.Time    `json:"createdAt"`
	URLExpiresAt     time.Time    `json:"urlExpiresAt"`
}

type PublishMemory struct {
	ImageKey string
	Caption  *string
	Order    int
}

type PublishRequest struct {
	WishID           uuid.UUID
	SenderName       string
	RecipientName    string
	Message          string
	EnvelopeImageKey string
	Memories         []PublishMemory
}

type WishService interface {
	CreateDraft(ctx context.Context) (domainagg.CreateDraftResult, error)
	Publish(ctx context.Context, req PublishRequest) (domainagg.PublishResult, error)
	GetWishBySlug(ctx context.Context, slug string) (*WishView, error)
	SignForRead(ctx context.Context, key string) (string, error)
}

type wishService struct {
	log       *logger.Logger
	aggregate domainagg.WishAggregate
	wishes    repos.WishRepo
	signer    ReadSigner
	readTTL   time.Duration
	metrics   *observability.Metrics
	now       func() time.Time
}

func NewWishService(
	log *logger.Logger,
	aggregate domainagg.WishAggregate,
	wishes repos.WishRepo,
	signer ReadSigner,
	readTTL time.Duration,
	metrics *observability.Metrics,
) WishService {
	if readTTL <= 0 {
		readTTL = DefaultReadURLTTL
	}
	return &wishService{
		log:       log.With("service", "WishService"),
		aggregate: aggregate,
		wishes:    wishes,
		signer:    signer,
		readTTL:   readTTL,
		metrics:   metrics,
		now:       time.Now,
	}
}

func (s *wishService) CreateDraft(ctx context.Context) (domainagg.CreateDraftResult, error) {
	res, err := s.aggregate.CreateDraft(ctx, domainagg.CreateDraftInput{Now: s.now()})
	if err != nil {
		return domainagg.CreateDraftResult{}, fmt.Errorf("create draft: %w", err)
	}
	return res, nil
}

func (s *wishService) Publish(ctx context.Context, req PublishRequest) (domainagg.PublishResult, error) {
	in := domainagg.PublishInput{
		WishID:           req.WishID,
		SenderName:       req.SenderName,
		RecipientName:    req.RecipientName,
		Message:          req.Message,
		EnvelopeImageKey: req.EnvelopeImageKey,
		Memories:         make([]domainagg.MemoryInput, 0, len(req.Memories)),
		Now:              s.now(),
	}
	for _, m := range req.Memories {
		in.Memories = append(in.Memories, domainagg.MemoryInput{
			ImageKey: m.ImageKey,
			Caption:  m.Caption,
			Order:    m.Order,
		})
	}
	res, err := s.aggregate.Publish(ctx, in)
	if err != nil {
		return domainagg.PublishResult{}, fmt.Errorf("publish wish: %w", err)
	}
	return res, nil
}

// GetWishBySlug returns only published wishes; drafts and expired wishes
// are indistinguishable from unknown slugs.
func (s *wishService) GetWishBySlug(ctx context.Context, slug string) (*WishView, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return nil, apierr.NotFound(fmt.Errorf("wish not found"))
	}
	row, err := s.wishes.GetPublishedBySlug(dbctx.Context{Ctx: ctx}, slug)
	if err != nil {
		return nil, apierr.StorageUnavailable(fmt.Errorf("load wish: %w", err))
	}
	if row == nil {
		return nil, apierr.NotFound(fmt.Errorf("wish not found"))
	}

	memories := append([]*types.Memory(nil), row.Memories...)
	types.SortByOrder(memories)

	issuedAt := s.now()
	view := &WishView{
		Slug:          row.SlugValue(),
		SenderName:    row.SenderName,
		RecipientName: row.RecipientName,
		Message:       row.Message,
		Memories:      make([]MemoryView, len(memories)),
		PublishedAt:   row.PublishedAt,
		CreatedAt:     row.CreatedAt,
		URLExpiresAt:  issuedAt.Add(s.readTTL).UTC(),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(signConcurrency)
	g.Go(func() error {
		u, err := s.SignForRead(gctx, row.EnvelopeImageKey)
		if err != nil {
			return err
		}
		view.EnvelopeImageURL = u
		return nil
	})
	for i, m := range memories {
		i, m := i, m
		g.Go(func() error {
			u, err := s.SignForRead(gctx, m.ImageKey)
			if err != nil {
				return err
			}
			view.Memories[i] = MemoryView{ImageURL: u, Caption: m.Caption, Order: m.Order}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return view, nil
}

// SignForRead signs key for GET with an expiry measured from now. An empty
// key yields an empty URL.
func (s *wishService) SignForRead(ctx context.Context, key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return "", nil
	}
	u, err := s.signer.SignedGetURL(ctx, key, s.readTTL)
	if err != nil {
		s.metrics.IncSignedURL("GET", "error")
		s.log.Error("read signing failed", "key", key, "error", err)
		return "", apierr.StorageUnavailable(fmt.Errorf("sign %q for read: %w", key, err))
	}
	s.metrics.IncSignedURL("GET", "ok")
	return u, nil
}
