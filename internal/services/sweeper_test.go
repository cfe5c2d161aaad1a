package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/wishbox-backend/internal/data/aggregates"
	"github.com/yungbote/wishbox-backend/internal/data/repos"
	"github.com/yungbote/wishbox-backend/internal/data/repos/testutil"
	domainagg "github.com/yungbote/wishbox-backend/internal/domain/aggregates"
	types "github.com/yungbote/wishbox-backend/internal/domain/wish"
	"github.com/yungbote/wishbox-backend/internal/observability"
)

func TestGroupKeysByWish(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	keys := []string{
		memKey(a, "envelope.jpg"),
		memKey(a, "0.jpg"),
		memKey(b, "1.png"),
		"wishes/not-an-id/0.jpg",
		"wishes/" + a.String(),
		"other/" + b.String() + "/0.jpg",
	}
	got := groupKeysByWish(keys)
	if len(got) != 2 {
		t.Fatalf("groups: want=2 got=%d (%v)", len(got), got)
	}
	seen := map[uuid.UUID]bool{got[0]: true, got[1]: true}
	if !seen[a] || !seen[b] {
		t.Fatalf("unexpected groups: %v", got)
	}
}

func TestSweepPurgesOnlyOrphans(t *testing.T) {
	ctx := context.Background()
	db := testutil.DB(t)
	log := testutil.Logger(t)
	wishes := repos.NewWishRepo(db, log)
	agg := aggregates.NewWishAggregate(aggregates.WishAggregateDeps{
		Base:     aggregates.BaseDeps{DB: db, Log: log},
		Wishes:   wishes,
		Memories: repos.NewMemoryRepo(db, log),
	})

	now := time.Now().UTC()
	live := testutil.SeedDraft(t, ctx, db, now.Add(time.Hour))
	stale := testutil.SeedDraft(t, ctx, db, now.Add(-time.Hour))
	published := testutil.SeedPublished(t, ctx, db, "priya-AAAAAA")
	missing := uuid.New()

	store := newFakeObjectStore(
		memKey(live.ID, "envelope.jpg"),
		memKey(stale.ID, "envelope.jpg"),
		memKey(stale.ID, "0.jpg"),
		memKey(published.ID, "envelope.jpg"),
		memKey(missing, "2.png"),
		"unrelated/readme.txt",
	)
	sw := NewSweeper(log, agg, wishes, store, observability.New())

	res, err := sw.Sweep(ctx, now)
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if res.Expired != 1 {
		t.Fatalf("expired: want=1 got=%d", res.Expired)
	}
	if res.PrefixesFound != 4 || res.PrefixesPurged != 2 || res.ObjectsDeleted != 3 {
		t.Fatalf("unexpected sweep result: %+v", res)
	}
	for _, keep := range []string{
		memKey(live.ID, "envelope.jpg"),
		memKey(published.ID, "envelope.jpg"),
		"unrelated/readme.txt",
	} {
		if !store.Has(keep) {
			t.Fatalf("%s was deleted", keep)
		}
	}
	for _, gone := range []string{memKey(stale.ID, "0.jpg"), memKey(missing, "2.png")} {
		if store.Has(gone) {
			t.Fatalf("%s survived the sweep", gone)
		}
	}

	var row types.Wish
	if err := db.Where("id = ?", stale.ID).Take(&row).Error; err != nil {
		t.Fatalf("reload stale draft: %v", err)
	}
	if row.Status != types.StatusExpired {
		t.Fatalf("stale draft status: want=%s got=%s", types.StatusExpired, row.Status)
	}
}

func TestSweepOrphansContinuesPastDeleteFailure(t *testing.T) {
	ctx := context.Background()
	db := testutil.DB(t)
	log := testutil.Logger(t)
	wishes := repos.NewWishRepo(db, log)

	a, b := uuid.New(), uuid.New()
	store := newFakeObjectStore(memKey(a, "0.jpg"), memKey(b, "0.jpg"))
	store.delErr["wishes/"+a.String()+"/"] = errBoom
	sw := NewSweeper(log, &fakeWishAggregate{}, wishes, store, nil)

	res, err := sw.SweepOrphans(ctx)
	if err == nil {
		t.Fatalf("expected joined delete error")
	}
	if res.PrefixesPurged != 1 || store.Has(memKey(b, "0.jpg")) {
		t.Fatalf("second prefix not purged: %+v", res)
	}
}

func TestSweepStopsWhenExpiryFails(t *testing.T) {
	store := newFakeObjectStore(memKey(uuid.New(), "0.jpg"))
	agg := &fakeWishAggregate{err: domainagg.NewError(domainagg.CodeRetryable, "wish.expire_drafts", "db down", nil)}
	sw := NewSweeper(testutil.Logger(t), agg, nil, store, nil)

	if _, err := sw.Sweep(context.Background(), time.Now()); !domainagg.IsCode(err, domainagg.CodeRetryable) {
		t.Fatalf("want retryable error, got %v", err)
	}
	if len(store.deleted) != 0 {
		t.Fatalf("nothing should be deleted, got %v", store.deleted)
	}
}

func TestSweeperRunStopsOnCancel(t *testing.T) {
	agg := &fakeWishAggregate{}
	sw := NewSweeper(testutil.Logger(t), agg, nil, nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		sw.Run(ctx, 5*time.Millisecond)
		close(done)
	}()
	time.Sleep(30 * time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("Run did not return after cancel")
	}
}

func TestSweepNeverPurgesObjectsOfPublishedWish(t *testing.T) {
	ctx := context.Background()
	db := testutil.DB(t)
	log := testutil.Logger(t)
	wishes := repos.NewWishRepo(db, log)
	agg := aggregates.NewWishAggregate(aggregates.WishAggregateDeps{
		Base:     aggregates.BaseDeps{DB: db, Log: log},
		Wishes:   wishes,
		Memories: repos.NewMemoryRepo(db, log),
	})

	now := time.Now().UTC()
	stale := testutil.SeedDraft(t, ctx, db, now.Add(-time.Hour))
	draft, err := agg.CreateDraft(ctx, domainagg.CreateDraftInput{})
	if err != nil {
		t.Fatalf("CreateDraft: %v", err)
	}

	in := domainagg.PublishInput{
		WishID:           draft.WishID,
		SenderName:       "Arjun",
		RecipientName:    "Priya",
		Message:          "Happy birthday",
		EnvelopeImageKey: memKey(stale.ID, "envelope.jpg"),
	}
	if _, err := agg.Publish(ctx, in); !domainagg.IsCode(err, domainagg.CodeValidation) {
		t.Fatalf("publish with another draft's envelope: want validation got=%v", err)
	}
	in.EnvelopeImageKey = memKey(draft.WishID, "envelope.jpg")
	in.Memories = []domainagg.MemoryInput{{ImageKey: memKey(draft.WishID, "0.png")}}
	if _, err := agg.Publish(ctx, in); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	store := newFakeObjectStore(
		memKey(stale.ID, "envelope.jpg"),
		memKey(draft.WishID, "envelope.jpg"),
		memKey(draft.WishID, "0.png"),
	)
	res, err := NewSweeper(log, agg, wishes, store, nil).Sweep(ctx, now)
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if res.PrefixesPurged != 1 || store.Has(memKey(stale.ID, "envelope.jpg")) {
		t.Fatalf("stale prefix not purged: %+v", res)
	}
	for _, keep := range []string{memKey(draft.WishID, "envelope.jpg"), memKey(draft.WishID, "0.png")} {
		if !store.Has(keep) {
			t.Fatalf("published object %s was deleted", keep)
		}
	}
}
