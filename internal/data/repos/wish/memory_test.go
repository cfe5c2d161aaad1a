package wish

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/yungbote/wishbox-backend/internal/data/repos/testutil"
	types "github.com/yungbote/wishbox-backend/internal/domain/wish"
	"github.com/yungbote/wishbox-backend/internal/platform/dbctx"
)

func TestMemoryRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	repo := NewMemoryRepo(db, testutil.Logger(t))

	w := testutil.SeedPublished(t, ctx, tx, "priya-mem001")

	if rows, err := repo.Create(dbc, nil); err != nil || len(rows) != 0 {
		t.Fatalf("Create empty: err=%v len=%d", err, len(rows))
	}

	batch := []*types.Memory{
		{WishID: w.ID, ImageKey: "k1", Order: 0},
		{WishID: w.ID, ImageKey: "k2", Order: 1, Caption: testutil.PtrString("hi")},
	}
	if _, err := repo.Create(dbc, batch); err != nil {
		t.Fatalf("Create: %v", err)
	}

	rows, err := repo.GetByWishIDs(dbc, []uuid.UUID{w.ID})
	if err != nil {
		t.Fatalf("GetByWishIDs: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("GetByWishIDs: want=2 got=%d", len(rows))
	}
	types.SortByOrder(rows)
	if rows[1].Caption == nil || *rows[1].Caption != "hi" {
		t.Fatalf("caption: want=hi got=%v", rows[1].Caption)
	}
}
