package implementation

import (
	"context"
	"time"

	"gorm.io/gorm"

	"katiba-reader-be/internal/model"
	"katiba-reader-be/internal/repository/contract"
)

type ContentViewRepositoryImpl struct {
	db *gorm.DB
}

func NewContentViewRepository(db *gorm.DB) contract.ContentViewRepository {
	return &ContentViewRepositoryImpl{db: db}
}

func (r *ContentViewRepositoryImpl) Create(ctx context.Context, view *model.ContentView) error {
	return r.db.WithContext(ctx).Create(view).Error
}

func (r *ContentViewRepositoryImpl) PopularSince(ctx context.Context, contentType string, since time.Time, limit int) ([]contract.PopularityRow, error) {
	var rows []contract.PopularityRow
	err := r.db.WithContext(ctx).
		Model(&model.ContentView{}).
		Select("reference, COUNT(*) AS view_count").
		Where("content_type = ? AND viewed_at >= ?", contentType, since).
		Group("reference").
		Order("view_count DESC").
		Limit(limit).
		Scan(&rows).Error
	return rows, err
}

func (r *ContentViewRepositoryImpl) CountSince(ctx context.Context, contentType, reference string, since time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.ContentView{}).
		Where("content_type = ? AND reference = ? AND viewed_at >= ?", contentType, reference, since).
		Count(&count).Error
	return count, err
}
