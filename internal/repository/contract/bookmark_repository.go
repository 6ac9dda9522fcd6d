package contract

import (
	"context"

	"github.com/google/uuid"

	"katiba-reader-be/internal/model"
)

type BookmarkRepository interface {
	Create(ctx context.Context, bookmark *model.Bookmark) error
	Delete(ctx context.Context, userID uuid.UUID, reference string) error
	FindByUser(ctx context.Context, userID uuid.UUID) ([]model.Bookmark, error)
	Exists(ctx context.Context, userID uuid.UUID, reference string) (bool, error)
}
