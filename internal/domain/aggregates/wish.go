package aggregates

import (
	"context"
	"time"

	"github.com/google/uuid"
)

var WishAggregateContract = Contract{
	Name:             "Wish.WishAggregate",
	WriteTxOwnership: WriteTxOwnedByAggregate,
	ReadPolicy:       ReadPolicyInvariantScoped,
	Notes:            "Owns draft creation, the draft->published transition with slug assignment and memory batch, and draft expiry.",
}

// WishAggregate owns the wish lifecycle invariants.
//
// Write method failures return *aggregates.Error with codes:
// CodeValidation, CodeNotFound, CodePreconditionFailed (already published),
// CodeSlugGenerationFailed, CodeRetryable, CodeInternal.
type WishAggregate interface {
	Aggregate

	// CreateDraft inserts an empty draft whose window closes after the configured TTL.
	CreateDraft(ctx context.Context, in CreateDraftInput) (CreateDraftResult, error)

	// Publish flips a live draft to published, assigning a unique slug and
	// attaching every memory in the same transaction.
	Publish(ctx context.Context, in PublishInput) (PublishResult, error)

	// ExpireDrafts marks drafts whose window closed before Now as expired.
	ExpireDrafts(ctx context.Context, in ExpireDraftsInput) (ExpireDraftsResult, error)
}

type CreateDraftInput struct {
	Now time.Time
}

type CreateDraftResult struct {
	WishID    uuid.UUID
	ExpiresAt time.Time
}

type PublishInput struct {
	WishID           uuid.UUID
	SenderName       string
	RecipientName    string
	Message          string
	EnvelopeImageKey string
	Memories         []MemoryInput
	Now              time.Time
}

type MemoryInput struct {
	ImageKey string
	Caption  *string
	Order    int
}

type PublishResult struct {
	WishID      uuid.UUID
	Slug        string
	MemoryCount int
	Attempts    int
	PublishedAt time.Time
}

type ExpireDraftsInput struct {
	Now time.Time
}

type ExpireDraftsResult struct {
	Expired int64
}
