package service

import (
	"context"
	"fmt"
	"time"

	"katiba-reader-be/internal/dto"
	"katiba-reader-be/internal/pkg/logger"
	"katiba-reader-be/internal/repository/contract"
	"katiba-reader-be/pkg/cache"
	"katiba-reader-be/pkg/constitution/content"
	"katiba-reader-be/pkg/constitution/entity"
	"katiba-reader-be/pkg/constitution/validate"
)

const (
	popularCacheKeyPrefix = "constitution:popular:"
	popularTTL            = cache.Hour
)

type IAnalyticsService interface {
	// TrackView publishes a view event; persistence happens asynchronously
	// on the consumer side, so tracking never slows a read down.
	TrackView(ctx context.Context, req *dto.TrackViewRequest) error
	PopularArticles(ctx context.Context, timeframe string, limit int) (*dto.PopularArticlesResponse, error)
	ViewCount(ctx context.Context, contentType, reference, timeframe string) (int64, error)
}

type analyticsService struct {
	publisher IPublisherService
	views     contract.ContentViewRepository
	content   *content.Store
	validator *validate.Validator
	store     cache.Store
	log       logger.ILogger
}

func NewAnalyticsService(
	publisher IPublisherService,
	views contract.ContentViewRepository,
	contentStore *content.Store,
	validator *validate.Validator,
	store cache.Store,
	log logger.ILogger,
) IAnalyticsService {
	return &analyticsService{
		publisher: publisher,
		views:     views,
		content:   contentStore,
		validator: validator,
		store:     store,
		log:       log,
	}
}

func (s *analyticsService) TrackView(ctx context.Context, req *dto.TrackViewRequest) error {
	if req.ContentType == "article" {
		if _, err := s.validator.ArticleReference(req.Reference); err != nil {
			return err
		}
	}
	return s.publisher.PublishViewTracked(ctx, dto.ViewTrackedMessage{
		ContentType: req.ContentType,
		Reference:   req.Reference,
		UserID:      req.UserID,
		ViewedAt:    time.Now(),
	})
}

func (s *analyticsService) PopularArticles(ctx context.Context, timeframe string, limit int) (*dto.PopularArticlesResponse, error) {
	timeframe, err := s.validator.Timeframe(timeframe)
	if err != nil {
		return nil, err
	}
	limit, _, err = s.validator.Pagination(limit, 0)
	if err != nil {
		return nil, err
	}

	cacheKey := fmt.Sprintf("%s%s:%d", popularCacheKeyPrefix, timeframe, limit)
	var cached dto.PopularArticlesResponse
	if s.store.Get(ctx, cacheKey, &cached) {
		return &cached, nil
	}

	rows, err := s.views.PopularSince(ctx, "article", timeframeCutoff(timeframe), limit)
	if err != nil {
		return nil, err
	}

	tree, err := s.content.Get(ctx)
	if err != nil {
		return nil, err
	}

	resp := &dto.PopularArticlesResponse{
		Timeframe: timeframe,
		Articles:  make([]dto.PopularArticle, 0, len(rows)),
	}
	for _, row := range rows {
		ref, err := entity.ParseReference(row.Reference)
		if err != nil {
			continue
		}
		_, article := tree.FindArticle(ref)
		if article == nil {
			continue
		}
		resp.Articles = append(resp.Articles, dto.PopularArticle{
			Reference:     row.Reference,
			ChapterNumber: ref.Chapter,
			ArticleNumber: ref.Article,
			Title:         article.Title,
			ViewCount:     row.ViewCount,
		})
	}

	s.store.SetBackground(cacheKey, resp, popularTTL)
	return resp, nil
}

func (s *analyticsService) ViewCount(ctx context.Context, contentType, reference, timeframe string) (int64, error) {
	timeframe, err := s.validator.Timeframe(timeframe)
	if err != nil {
		return 0, err
	}
	return s.views.CountSince(ctx, contentType, reference, timeframeCutoff(timeframe))
}

// PopularArticles implements the recommendation engine's popularity port.
type popularitySourceAdapter struct {
	analytics IAnalyticsService
}

func NewPopularitySource(analytics IAnalyticsService) *popularitySourceAdapter {
	return &popularitySourceAdapter{analytics: analytics}
}

func (a *popularitySourceAdapter) PopularArticles(ctx context.Context, timeframe string, limit int) ([]string, error) {
	resp, err := a.analytics.PopularArticles(ctx, timeframe, limit)
	if err != nil {
		return nil, err
	}
	refs := make([]string, 0, len(resp.Articles))
	for _, a := range resp.Articles {
		refs = append(refs, a.Reference)
	}
	return refs, nil
}

func timeframeCutoff(timeframe string) time.Time {
	now := time.Now()
	switch timeframe {
	case "daily":
		return now.Add(-24 * time.Hour)
	case "weekly":
		return now.Add(-7 * 24 * time.Hour)
	default:
		return now.Add(-30 * 24 * time.Hour)
	}
}
