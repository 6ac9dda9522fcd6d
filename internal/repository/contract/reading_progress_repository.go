package contract

import (
	"context"

	"github.com/google/uuid"

	"katiba-reader-be/internal/model"
)

type ReadingProgressRepository interface {
	// Upsert records a read; re-reading an article refreshes its ReadAt.
	Upsert(ctx context.Context, progress *model.ReadingProgress) error
	FindByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]model.ReadingProgress, int64, error)
	// RecentReferences returns the user's article references, most recently
	// read first.
	RecentReferences(ctx context.Context, userID uuid.UUID, limit int) ([]string, error)
	// CompletedReferences returns every article the user marked completed.
	CompletedReferences(ctx context.Context, userID uuid.UUID) ([]string, error)
}
