package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/wishbox-backend/internal/data/repos"
	domainagg "github.com/yungbote/wishbox-backend/internal/domain/aggregates"
	types "github.com/yungbote/wishbox-backend/internal/domain/wish"
	"github.com/yungbote/wishbox-backend/internal/observability"
	"github.com/yungbote/wishbox-backend/internal/platform/dbctx"
	"github.com/yungbote/wishbox-backend/internal/platform/logger"
)

// ObjectSweeper is the listing/deletion slice of the object store.
type ObjectSweeper interface {
	ListKeys(ctx context.Context, prefix string) ([]string, error)
	DeletePrefix(ctx context.Context, prefix string) (int, error)
}

type SweepResult struct {
	Expired        int64
	PrefixesFound  int
	PrefixesPurged int
	ObjectsDeleted int
}

type Sweeper interface {
	ExpireDrafts(ctx context.Context, now time.Time) (int64, error)
	SweepOrphans(ctx context.Context) (SweepResult, error)
	Sweep(ctx context.Context, now time.Time) (SweepResult, error)
	Run(ctx context.Context, interval time.Duration)
}

type sweeper struct {
	log       *logger.Logger
	aggregate domainagg.WishAggregate
	wishes    repos.WishRepo
	objects   ObjectSweeper
	metrics   *observability.Metrics
}

func NewSweeper(
	log *logger.Logger,
	aggregate domainagg.WishAggregate,
	wishes repos.WishRepo,
	objects ObjectSweeper,
	metrics *observability.Metrics,
) Sweeper {
	return &sweeper{
		log:       log.With("service", "Sweeper"),
		aggregate: aggregate,
		wishes:    wishes,
		objects:   objects,
		metrics:   metrics,
	}
}

func (s *sweeper) ExpireDrafts(ctx context.Context, now time.Time) (int64, error) {
	res, err := s.aggregate.ExpireDrafts(ctx, domainagg.ExpireDraftsInput{Now: now})
	if err != nil {
		return 0, fmt.Errorf("expire drafts: %w", err)
	}
	return res.Expired, nil
}

// SweepOrphans deletes uploaded objects whose wish no longer exists or
// expired without being published. Keys outside the wish layout are left
// alone.
func (s *sweeper) SweepOrphans(ctx context.Context) (SweepResult, error) {
	var out SweepResult
	if s.objects == nil {
		return out, nil
	}
	keys, err := s.objects.ListKeys(ctx, types.KeyRoot)
	if err != nil {
		return out, fmt.Errorf("list uploads: %w", err)
	}
	ids := groupKeysByWish(keys)
	out.PrefixesFound = len(ids)
	if len(ids) == 0 {
		return out, nil
	}

	rows, err := s.wishes.GetByIDs(dbctx.Context{Ctx: ctx}, ids)
	if err != nil {
		return out, fmt.Errorf("load wishes: %w", err)
	}
	status := make(map[uuid.UUID]types.Status, len(rows))
	for _, r := range rows {
		status[r.ID] = r.Status
	}

	var errs []error
	for _, id := range ids {
		st, ok := status[id]
		if ok && st != types.StatusExpired {
			continue
		}
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		prefix := types.KeyPrefix(id)
		n, err := s.objects.DeletePrefix(ctx, prefix)
		out.ObjectsDeleted += n
		if err != nil {
			errs = append(errs, fmt.Errorf("purge %s: %w", prefix, err))
			continue
		}
		out.PrefixesPurged++
		s.log.Debug("orphan uploads purged", "wish_id", id.String(), "objects", n, "known", ok)
	}
	return out, errors.Join(errs...)
}

// Sweep expires stale drafts and then purges their uploads.
func (s *sweeper) Sweep(ctx context.Context, now time.Time) (SweepResult, error) {
	expired, err := s.ExpireDrafts(ctx, now)
	if err != nil {
		return SweepResult{}, err
	}
	res, err := s.SweepOrphans(ctx)
	res.Expired = expired
	s.metrics.ObserveSweep(res.Expired, res.PrefixesPurged, res.ObjectsDeleted)
	s.log.Info("sweep finished",
		"expired", res.Expired,
		"prefixes_found", res.PrefixesFound,
		"prefixes_purged", res.PrefixesPurged,
		"objects_deleted", res.ObjectsDeleted,
	)
	return res, err
}

// Run sweeps every interval until ctx is done.
func (s *sweeper) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case t := <-ticker.C:
			if _, err := s.Sweep(ctx, t); err != nil && ctx.Err() == nil {
				s.log.Warn("sweep failed", "error", err)
			}
		}
	}
}

// groupKeysByWish returns the distinct wish ids found in keys, sorted.
func groupKeysByWish(keys []string) []uuid.UUID {
	seen := map[uuid.UUID]struct{}{}
	for _, k := range keys {
		rest, ok := strings.CutPrefix(k, types.KeyRoot)
		if !ok {
			continue
		}
		idPart, _, ok := strings.Cut(rest, "/")
		if !ok {
			continue
		}
		id, err := uuid.Parse(idPart)
		if err != nil {
			continue
		}
		seen[id] = struct{}{}
	}
	out := make([]uuid.UUID, 0, len(seen))
	for id := range seen {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out
}
