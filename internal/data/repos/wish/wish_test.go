package wish

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/yungbote/wishbox-backend/internal/data/repos/testutil"
	types "github.com/yungbote/wishbox-backend/internal/domain/wish"
	"github.com/yungbote/wishbox-backend/internal/platform/dbctx"
)

func TestWishRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	repo := NewWishRepo(db, testutil.Logger(t))

	exp := time.Now().UTC().Add(72 * time.Hour)
	draft := &types.Wish{Status: types.StatusDraft, ExpiresAt: &exp}
	if _, err := repo.Create(dbc, []*types.Wish{draft}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if draft.ID == uuid.Nil {
		t.Fatalf("Create: expected id to be assigned")
	}

	got, err := repo.GetByID(dbc, draft.ID)
	if err != nil || got == nil {
		t.Fatalf("GetByID: err=%v row=%v", err, got)
	}
	if got.Status != types.StatusDraft || got.SenderName != "" {
		t.Fatalf("GetByID: unexpected row %+v", got)
	}

	locked, err := repo.LockByID(dbc, draft.ID)
	if err != nil || locked == nil || locked.ID != draft.ID {
		t.Fatalf("LockByID: err=%v row=%v", err, locked)
	}
	if missing, err := repo.LockByID(dbc, uuid.New()); err != nil || missing != nil {
		t.Fatalf("LockByID missing: err=%v row=%v", err, missing)
	}

	// Drafts never resolve by slug.
	if row, err := repo.GetPublishedBySlug(dbc, "priya-abc123"); err != nil || row != nil {
		t.Fatalf("GetPublishedBySlug draft: err=%v row=%v", err, row)
	}
}

func TestWishRepoPublishedBySlug(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	repo := NewWishRepo(db, testutil.Logger(t))

	w := testutil.SeedPublished(t, ctx, tx, "priya-abc123",
		&types.Memory{ImageKey: "k2", Order: 1, Caption: testutil.PtrString("hi")},
		&types.Memory{ImageKey: "k1", Order: 0},
	)

	row, err := repo.GetPublishedBySlug(dbc, "priya-abc123")
	if err != nil || row == nil {
		t.Fatalf("GetPublishedBySlug: err=%v row=%v", err, row)
	}
	if row.ID != w.ID {
		t.Fatalf("GetPublishedBySlug: want=%s got=%s", w.ID, row.ID)
	}
	if len(row.Memories) != 2 {
		t.Fatalf("memories: want=2 got=%d", len(row.Memories))
	}

	exists, err := repo.SlugExists(dbc, "priya-abc123")
	if err != nil || !exists {
		t.Fatalf("SlugExists: err=%v exists=%v", err, exists)
	}
	exists, err = repo.SlugExists(dbc, "priya-zzzzzz")
	if err != nil || exists {
		t.Fatalf("SlugExists unknown: err=%v exists=%v", err, exists)
	}
}

func TestWishRepoSlugUniqueIndex(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	repo := NewWishRepo(db, testutil.Logger(t))
	dbc := dbctx.Context{Ctx: ctx}

	slug := "priya-dup123"
	a := &types.Wish{Status: types.StatusPublished, Slug: &slug}
	if _, err := repo.Create(dbc, []*types.Wish{a}); err != nil {
		t.Fatalf("Create first: %v", err)
	}
	b := &types.Wish{Status: types.StatusPublished, Slug: testutil.PtrString(slug)}
	if _, err := repo.Create(dbc, []*types.Wish{b}); err == nil {
		t.Fatalf("Create duplicate slug: expected unique violation")
	}

	// NULL slugs do not collide.
	d1 := &types.Wish{Status: types.StatusDraft}
	d2 := &types.Wish{Status: types.StatusDraft}
	if _, err := repo.Create(dbc, []*types.Wish{d1, d2}); err != nil {
		t.Fatalf("Create drafts: %v", err)
	}
}

func TestWishRepoExpireDrafts(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	repo := NewWishRepo(db, testutil.Logger(t))

	now := time.Now().UTC()
	stale := testutil.SeedDraft(t, ctx, tx, now.Add(-time.Hour))
	live := testutil.SeedDraft(t, ctx, tx, now.Add(time.Hour))
	pub := testutil.SeedPublished(t, ctx, tx, "priya-pub001")

	n, err := repo.ExpireDrafts(dbc, now)
	if err != nil {
		t.Fatalf("ExpireDrafts: %v", err)
	}
	if n != 1 {
		t.Fatalf("ExpireDrafts: want=1 got=%d", n)
	}

	rows, err := repo.GetByIDs(dbc, []uuid.UUID{stale.ID, live.ID, pub.ID})
	if err != nil {
		t.Fatalf("GetByIDs: %v", err)
	}
	status := map[uuid.UUID]types.Status{}
	for _, r := range rows {
		status[r.ID] = r.Status
	}
	if status[stale.ID] != types.StatusExpired {
		t.Fatalf("stale: want=expired got=%s", status[stale.ID])
	}
	if status[live.ID] != types.StatusDraft {
		t.Fatalf("live: want=draft got=%s", status[live.ID])
	}
	if status[pub.ID] != types.StatusPublished {
		t.Fatalf("published: want=published got=%s", status[pub.ID])
	}
}
