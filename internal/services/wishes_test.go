package services

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/wishbox-backend/internal/data/repos"
	"github.com/yungbote/wishbox-backend/internal/data/repos/testutil"
	domainagg "github.com/yungbote/wishbox-backend/internal/domain/aggregates"
	types "github.com/yungbote/wishbox-backend/internal/domain/wish"
	"github.com/yungbote/wishbox-backend/internal/platform/apierr"
)

func newTestWishService(t *testing.T, agg domainagg.WishAggregate, signer ReadSigner) *wishService {
	t.Helper()
	db := testutil.DB(t)
	log := testutil.Logger(t)
	svc := NewWishService(log, agg, repos.NewWishRepo(db, log), signer, 0, nil).(*wishService)
	svc.now = func() time.Time { return time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC) }
	return svc
}

func TestGetWishBySlugSignsAndSortsMemories(t *testing.T) {
	ctx := context.Background()
	signer := &fakeSigner{}
	db := testutil.DB(t)
	log := testutil.Logger(t)
	svc := NewWishService(log, &fakeWishAggregate{}, repos.NewWishRepo(db, log), signer, 0, nil).(*wishService)
	svc.now = func() time.Time { return time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC) }

	w := testutil.SeedPublished(t, ctx, db, "priya-Ab3_x9",
		&types.Memory{ImageKey: "wishes/x/2.jpg", Order: 2},
		&types.Memory{ImageKey: "wishes/x/0.jpg", Order: 0, Caption: testutil.PtrString("beach")},
		&types.Memory{ImageKey: "wishes/x/1.jpg", Order: 1},
	)

	view, err := svc.GetWishBySlug(ctx, "priya-Ab3_x9")
	if err != nil {
		t.Fatalf("GetWishBySlug: %v", err)
	}
	if view.Slug != "priya-Ab3_x9" || view.RecipientName != w.RecipientName || view.SenderName != w.SenderName {
		t.Fatalf("unexpected view: %+v", view)
	}
	if view.EnvelopeImageURL != "https://signed.test/get/"+w.EnvelopeImageKey {
		t.Fatalf("envelope url: got=%q", view.EnvelopeImageURL)
	}
	if len(view.Memories) != 3 {
		t.Fatalf("memories: want=3 got=%d", len(view.Memories))
	}
	for i, m := range view.Memories {
		if m.Order != i {
			t.Fatalf("memory %d: want order=%d got=%d", i, i, m.Order)
		}
	}
	if view.Memories[0].ImageURL != "https://signed.test/get/wishes/x/0.jpg" {
		t.Fatalf("memory 0 url: got=%q", view.Memories[0].ImageURL)
	}
	if view.Memories[0].Caption == nil || *view.Memories[0].Caption != "beach" {
		t.Fatalf("memory 0 caption: got=%v", view.Memories[0].Caption)
	}
	wantExp := time.Date(2026, 3, 1, 10, 15, 0, 0, time.UTC)
	if !view.URLExpiresAt.Equal(wantExp) {
		t.Fatalf("url expiry: want=%s got=%s", wantExp, view.URLExpiresAt)
	}
	calls := signer.Calls()
	if len(calls) != 4 {
		t.Fatalf("signer calls: want=4 got=%d", len(calls))
	}
	for _, c := range calls {
		if c.Method != "GET" || c.TTL != DefaultReadURLTTL {
			t.Fatalf("unexpected signer call: %+v", c)
		}
	}
}

func TestGetWishBySlugHidesDrafts(t *testing.T) {
	ctx := context.Background()
	db := testutil.DB(t)
	log := testutil.Logger(t)
	svc := NewWishService(log, &fakeWishAggregate{}, repos.NewWishRepo(db, log), &fakeSigner{}, 0, nil)

	draft := testutil.SeedDraft(t, ctx, db, time.Now().Add(time.Hour))
	slug := "draft-slug"
	if err := db.Model(&types.Wish{}).Where("id = ?", draft.ID).Update("slug", slug).Error; err != nil {
		t.Fatalf("set draft slug: %v", err)
	}

	for _, s := range []string{slug, "missing-AAAAAA", "  "} {
		_, err := svc.GetWishBySlug(ctx, s)
		ae, ok := apierr.As(err)
		if !ok || ae.Status != http.StatusNotFound {
			t.Fatalf("slug %q: want not found, got %v", s, err)
		}
	}
}

func TestGetWishBySlugSigningFailure(t *testing.T) {
	ctx := context.Background()
	db := testutil.DB(t)
	log := testutil.Logger(t)
	svc := NewWishService(log, &fakeWishAggregate{}, repos.NewWishRepo(db, log), &fakeSigner{err: errBoom}, 0, nil)
	testutil.SeedPublished(t, ctx, db, "sam-000000")

	_, err := svc.GetWishBySlug(ctx, "sam-000000")
	if ae, ok := apierr.As(err); !ok || ae.Code != apierr.CodeStorageUnavailable {
		t.Fatalf("want storage unavailable, got %v", err)
	}
}

func TestSignForReadEmptyKey(t *testing.T) {
	signer := &fakeSigner{}
	svc := newTestWishService(t, &fakeWishAggregate{}, signer)
	u, err := svc.SignForRead(context.Background(), " ")
	if err != nil || u != "" {
		t.Fatalf("want empty url, got %q err=%v", u, err)
	}
	if n := len(signer.Calls()); n != 0 {
		t.Fatalf("signer calls: want=0 got=%d", n)
	}
}

func TestWishServicePublishDelegatesToAggregate(t *testing.T) {
	slug := "priya-AAAAAA"
	agg := &fakeWishAggregate{publishRes: domainagg.PublishResult{Slug: slug}}
	svc := newTestWishService(t, agg, &fakeSigner{})

	req := PublishRequest{
		WishID:           uuid.New(),
		SenderName:       "Arjun",
		RecipientName:    "Priya",
		Message:          "Happy birthday",
		EnvelopeImageKey: "wishes/x/envelope.jpg",
		Memories: []PublishMemory{
			{ImageKey: "wishes/x/0.jpg", Order: 0},
			{ImageKey: "wishes/x/1.jpg", Order: 1, Caption: testutil.PtrString("hi")},
		},
	}
	res, err := svc.Publish(context.Background(), req)
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if res.Slug != slug {
		t.Fatalf("slug: want=%s got=%s", slug, res.Slug)
	}
	if agg.publishCalls != 1 {
		t.Fatalf("publish calls: want=1 got=%d", agg.publishCalls)
	}
	in := agg.lastPublish
	if in.WishID != req.WishID || in.RecipientName != "Priya" || len(in.Memories) != 2 {
		t.Fatalf("unexpected aggregate input: %+v", in)
	}
	if in.Memories[1].Caption == nil || *in.Memories[1].Caption != "hi" {
		t.Fatalf("caption not forwarded: %+v", in.Memories[1])
	}
	if in.Now.IsZero() {
		t.Fatalf("publish input time not set")
	}
}

func TestWishServicePublishKeepsAggregateCode(t *testing.T) {
	agg := &fakeWishAggregate{err: domainagg.NewError(domainagg.CodePreconditionFailed, "wish.publish", "already_published", nil)}
	svc := newTestWishService(t, agg, &fakeSigner{})
	_, err := svc.Publish(context.Background(), PublishRequest{WishID: uuid.New()})
	if !domainagg.IsCode(err, domainagg.CodePreconditionFailed) {
		t.Fatalf("want precondition code through wrapping, got %v", err)
	}
}

func TestWishServiceCreateDraft(t *testing.T) {
	id := uuid.New()
	agg := &fakeWishAggregate{createRes: domainagg.CreateDraftResult{WishID: id}}
	svc := newTestWishService(t, agg, &fakeSigner{})
	res, err := svc.CreateDraft(context.Background())
	if err != nil {
		t.Fatalf("CreateDraft: %v", err)
	}
	if res.WishID != id || agg.createCalls != 1 {
		t.Fatalf("unexpected create: res=%+v calls=%d", res, agg.createCalls)
	}
}
