package service

import (
	"context"

	"github.com/google/uuid"

	"katiba-reader-be/internal/dto"
	"katiba-reader-be/internal/model"
	"katiba-reader-be/internal/pkg/logger"
	"katiba-reader-be/internal/repository/contract"
	"katiba-reader-be/pkg/constitution/validate"
)

type IProgressService interface {
	UpdateProgress(ctx context.Context, userID uuid.UUID, req *dto.UpdateProgressRequest) error
	History(ctx context.Context, userID uuid.UUID, limit, offset int) (*dto.ProgressResponse, error)
	// RecentlyRead, CompletedArticles, and BookmarkedArticles implement the
	// recommendation engine's user-fact port.
	RecentlyRead(ctx context.Context, userID string, limit int) ([]string, error)
	CompletedArticles(ctx context.Context, userID string) ([]string, error)
	BookmarkedArticles(ctx context.Context, userID string) ([]string, error)

	AddBookmark(ctx context.Context, userID uuid.UUID, req *dto.CreateBookmarkRequest) error
	RemoveBookmark(ctx context.Context, userID uuid.UUID, reference string) error
	Bookmarks(ctx context.Context, userID uuid.UUID) (*dto.BookmarksResponse, error)
}

type progressService struct {
	progress  contract.ReadingProgressRepository
	bookmarks contract.BookmarkRepository
	validator *validate.Validator
	log       logger.ILogger
}

func NewProgressService(
	progress contract.ReadingProgressRepository,
	bookmarks contract.BookmarkRepository,
	validator *validate.Validator,
	log logger.ILogger,
) IProgressService {
	return &progressService{
		progress:  progress,
		bookmarks: bookmarks,
		validator: validator,
		log:       log,
	}
}

func (s *progressService) UpdateProgress(ctx context.Context, userID uuid.UUID, req *dto.UpdateProgressRequest) error {
	ref, err := s.validator.ArticleReference(req.Reference)
	if err != nil {
		return err
	}
	return s.progress.Upsert(ctx, &model.ReadingProgress{
		ID:            uuid.New(),
		UserID:        userID,
		Reference:     ref.String(),
		ChapterNumber: ref.Chapter,
		ArticleNumber: ref.Article,
		IsCompleted:   req.IsCompleted,
	})
}

func (s *progressService) History(ctx context.Context, userID uuid.UUID, limit, offset int) (*dto.ProgressResponse, error) {
	limit, offset, err := s.validator.Pagination(limit, offset)
	if err != nil {
		return nil, err
	}
	entries, total, err := s.progress.FindByUser(ctx, userID, limit, offset)
	if err != nil {
		return nil, err
	}

	resp := &dto.ProgressResponse{
		Entries: make([]dto.ProgressEntry, 0, len(entries)),
		Total:   total,
	}
	for _, e := range entries {
		resp.Entries = append(resp.Entries, dto.ProgressEntry{
			Reference:     e.Reference,
			ChapterNumber: e.ChapterNumber,
			ArticleNumber: e.ArticleNumber,
			IsCompleted:   e.IsCompleted,
			ReadAt:        e.ReadAt,
		})
	}
	return resp, nil
}

func (s *progressService) RecentlyRead(ctx context.Context, userID string, limit int) ([]string, error) {
	id, err := uuid.Parse(userID)
	if err != nil {
		return nil, err
	}
	return s.progress.RecentReferences(ctx, id, limit)
}

func (s *progressService) CompletedArticles(ctx context.Context, userID string) ([]string, error) {
	id, err := uuid.Parse(userID)
	if err != nil {
		return nil, err
	}
	return s.progress.CompletedReferences(ctx, id)
}

func (s *progressService) BookmarkedArticles(ctx context.Context, userID string) ([]string, error) {
	id, err := uuid.Parse(userID)
	if err != nil {
		return nil, err
	}
	bookmarks, err := s.bookmarks.FindByUser(ctx, id)
	if err != nil {
		return nil, err
	}
	refs := make([]string, 0, len(bookmarks))
	for _, b := range bookmarks {
		refs = append(refs, b.Reference)
	}
	return refs, nil
}

func (s *progressService) AddBookmark(ctx context.Context, userID uuid.UUID, req *dto.CreateBookmarkRequest) error {
	ref, err := s.validator.ArticleReference(req.Reference)
	if err != nil {
		return err
	}
	exists, err := s.bookmarks.Exists(ctx, userID, ref.String())
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	return s.bookmarks.Create(ctx, &model.Bookmark{
		ID:        uuid.New(),
		UserID:    userID,
		Reference: ref.String(),
		Title:     req.Title,
		Note:      req.Note,
	})
}

func (s *progressService) RemoveBookmark(ctx context.Context, userID uuid.UUID, reference string) error {
	ref, err := s.validator.ArticleReference(reference)
	if err != nil {
		return err
	}
	return s.bookmarks.Delete(ctx, userID, ref.String())
}

func (s *progressService) Bookmarks(ctx context.Context, userID uuid.UUID) (*dto.BookmarksResponse, error) {
	bookmarks, err := s.bookmarks.FindByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	resp := &dto.BookmarksResponse{
		Bookmarks: make([]dto.BookmarkEntry, 0, len(bookmarks)),
		Total:     len(bookmarks),
	}
	for _, b := range bookmarks {
		resp.Bookmarks = append(resp.Bookmarks, dto.BookmarkEntry{
			Reference: b.Reference,
			Title:     b.Title,
			Note:      b.Note,
			CreatedAt: b.CreatedAt,
		})
	}
	return resp, nil
}
