package implementation

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"katiba-reader-be/internal/model"
	"katiba-reader-be/internal/repository/contract"
)

type ReadingProgressRepositoryImpl struct {
	db *gorm.DB
}

func NewReadingProgressRepository(db *gorm.DB) contract.ReadingProgressRepository {
	return &ReadingProgressRepositoryImpl{db: db}
}

func (r *ReadingProgressRepositoryImpl) Upsert(ctx context.Context, progress *model.ReadingProgress) error {
	progress.ReadAt = time.Now()
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "reference"}},
			DoUpdates: clause.AssignmentColumns([]string{"read_at", "is_completed"}),
		}).
		Create(progress).Error
}

func (r *ReadingProgressRepositoryImpl) FindByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]model.ReadingProgress, int64, error) {
	var progress []model.ReadingProgress
	var total int64

	db := r.db.WithContext(ctx).Model(&model.ReadingProgress{}).Where("user_id = ?", userID)
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := db.Order("read_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&progress).Error
	return progress, total, err
}

func (r *ReadingProgressRepositoryImpl) RecentReferences(ctx context.Context, userID uuid.UUID, limit int) ([]string, error) {
	var refs []string
	err := r.db.WithContext(ctx).
		Model(&model.ReadingProgress{}).
		Where("user_id = ?", userID).
		Order("read_at DESC").
		Limit(limit).
		Pluck("reference", &refs).Error
	return refs, err
}

func (r *ReadingProgressRepositoryImpl) CompletedReferences(ctx context.Context, userID uuid.UUID) ([]string, error) {
	var refs []string
	err := r.db.WithContext(ctx).
		Model(&model.ReadingProgress{}).
		Where("user_id = ? AND is_completed = ?", userID, true).
		Order("read_at DESC").
		Pluck("reference", &refs).Error
	return refs, err
}
