package contract

import (
	"context"
	"time"

	"katiba-reader-be/internal/model"
)

// PopularityRow is one aggregated row of the view-count query.
type PopularityRow struct {
	Reference string `json:"reference"`
	ViewCount int64  `json:"view_count"`
}

type ContentViewRepository interface {
	Create(ctx context.Context, view *model.ContentView) error
	// PopularSince aggregates views per reference recorded after the cutoff,
	// most viewed first.
	PopularSince(ctx context.Context, contentType string, since time.Time, limit int) ([]PopularityRow, error)
	CountSince(ctx context.Context, contentType, reference string, since time.Time) (int64, error)
}
