package implementation

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"katiba-reader-be/internal/model"
	"katiba-reader-be/internal/repository/contract"
)

type BookmarkRepositoryImpl struct {
	db *gorm.DB
}

func NewBookmarkRepository(db *gorm.DB) contract.BookmarkRepository {
	return &BookmarkRepositoryImpl{db: db}
}

func (r *BookmarkRepositoryImpl) Create(ctx context.Context, bookmark *model.Bookmark) error {
	return r.db.WithContext(ctx).Create(bookmark).Error
}

func (r *BookmarkRepositoryImpl) Delete(ctx context.Context, userID uuid.UUID, reference string) error {
	result := r.db.WithContext(ctx).
		Where("user_id = ? AND reference = ?", userID, reference).
		Delete(&model.Bookmark{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return errors.New("bookmark not found")
	}
	return nil
}

func (r *BookmarkRepositoryImpl) FindByUser(ctx context.Context, userID uuid.UUID) ([]model.Bookmark, error) {
	var bookmarks []model.Bookmark
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&bookmarks).Error
	return bookmarks, err
}

func (r *BookmarkRepositoryImpl) Exists(ctx context.Context, userID uuid.UUID, reference string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Bookmark{}).
		Where("user_id = ? AND reference = ?", userID, reference).
		Count(&count).Error
	return count > 0, err
}
