package services

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	types "github.com/yungbote/wishbox-backend/internal/domain/wish"
	"github.com/yungbote/wishbox-backend/internal/observability"
	"github.com/yungbote/wishbox-backend/internal/platform/apierr"
	"github.com/yungbote/wishbox-backend/internal/platform/logger"
)

const (
	DefaultUploadURLTTL = 5 * time.Minute
	MaxBatchUploads     = 5
)

// UploadSigner mints a time-limited PUT credential for one object key.
type UploadSigner interface {
	SignedPutURL(ctx context.Context, key, contentType string, ttl time.Duration) (string, error)
}

type UploadAuthorization struct {
	Key       string            `json:"key"`
	UploadURL string            `json:"uploadUrl"`
	Method    string            `json:"method"`
	Headers   map[string]string `json:"headers"`
	ExpiresIn int               `json:"expiresIn"`
	ExpiresAt time.Time         `json:"expiresAt"`
}

type UploadAuthorizer interface {
	AuthorizeUpload(ctx context.Context, key string) (*UploadAuthorization, error)
	AuthorizeUploads(ctx context.Context, keys []string) ([]*UploadAuthorization, error)
}

type uploadAuthorizer struct {
	log     *logger.Logger
	signer  UploadSigner
	ttl     time.Duration
	metrics *observability.Metrics
	now     func() time.Time
}

// NewUploadAuthorizer returns a stateless authorizer. It never reads or
// writes wish records; re-authorizing the same key is always safe.
func NewUploadAuthorizer(log *logger.Logger, signer UploadSigner, ttl time.Duration, metrics *observability.Metrics) UploadAuthorizer {
	if ttl <= 0 {
		ttl = DefaultUploadURLTTL
	}
	return &uploadAuthorizer{
		log:     log.With("service", "UploadAuthorizer"),
		signer:  signer,
		ttl:     ttl,
		metrics: metrics,
		now:     time.Now,
	}
}

func (s *uploadAuthorizer) AuthorizeUpload(ctx context.Context, key string) (*UploadAuthorization, error) {
	parsed, err := types.ParseUploadKey(key)
	if err != nil {
		s.metrics.IncUploadAuthorization("invalid", "validation_error")
		return nil, apierr.Validation(err)
	}
	issuedAt := s.now()
	u, err := s.signer.SignedPutURL(ctx, parsed.Raw, parsed.ContentType, s.ttl)
	if err != nil {
		s.metrics.IncUploadAuthorization(parsed.Slot, "error")
		s.metrics.IncSignedURL("PUT", "error")
		s.log.Error("upload authorization failed", "key", parsed.Raw, "error", err)
		return nil, apierr.Authorization(fmt.Errorf("authorize upload: %w", err))
	}
	s.metrics.IncUploadAuthorization(parsed.Slot, "ok")
	s.metrics.IncSignedURL("PUT", "ok")
	return &UploadAuthorization{
		Key:       parsed.Raw,
		UploadURL: u,
		Method:    "PUT",
		Headers:   map[string]string{"Content-Type": parsed.ContentType},
		ExpiresIn: int(s.ttl / time.Second),
		ExpiresAt: issuedAt.Add(s.ttl).UTC(),
	}, nil
}

// AuthorizeUploads signs every key concurrently and returns results in input
// order. Any invalid key fails the batch before anything is signed.
func (s *uploadAuthorizer) AuthorizeUploads(ctx context.Context, keys []string) ([]*UploadAuthorization, error) {
	if len(keys) == 0 {
		return nil, apierr.Validation(fmt.Errorf("keys must not be empty"))
	}
	if len(keys) > MaxBatchUploads {
		return nil, apierr.Validation(fmt.Errorf("at most %d keys per batch, got %d", MaxBatchUploads, len(keys)))
	}
	seen := make(map[string]struct{}, len(keys))
	for i, k := range keys {
		parsed, err := types.ParseUploadKey(k)
		if err != nil {
			return nil, apierr.Validation(fmt.Errorf("keys[%d]: %w", i, err))
		}
		if _, dup := seen[parsed.Raw]; dup {
			return nil, apierr.Validation(fmt.Errorf("keys[%d]: duplicate key %q", i, parsed.Raw))
		}
		seen[parsed.Raw] = struct{}{}
	}

	out := make([]*UploadAuthorization, len(keys))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(MaxBatchUploads)
	for i, k := range keys {
		i, k := i, k
		g.Go(func() error {
			auth, err := s.AuthorizeUpload(gctx, k)
			if err != nil {
				return err
			}
			out[i] = auth
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
