package service

import (
	"context"
	"fmt"

	"katiba-reader-be/internal/dto"
	"katiba-reader-be/internal/pkg/logger"
	"katiba-reader-be/pkg/cache"
	"katiba-reader-be/pkg/constitution/content"
	"katiba-reader-be/pkg/constitution/relations"
	"katiba-reader-be/pkg/constitution/search"
	"katiba-reader-be/pkg/constitution/validate"
)

const (
	chapterCacheKeyPrefix = "constitution:chapter:"
	articleCacheKeyPrefix = "constitution:article:"

	chapterTTL = cache.Day
	articleTTL = cache.Day
)

// Cache prefixes invalidated when the document reloads. View counters are
// deliberately not on this list; they survive reloads.
var reloadClearPrefixes = []string{
	search.CacheKeyPrefix,
	relations.RelationsCacheKeyPrefix,
	relations.RecommendCacheKeyPrefix,
	chapterCacheKeyPrefix,
	articleCacheKeyPrefix,
	popularCacheKeyPrefix,
}

type IConstitutionService interface {
	Overview(ctx context.Context) (*dto.OverviewResponse, error)
	GetChapter(ctx context.Context, number int) (*dto.ChapterResponse, error)
	GetArticle(ctx context.Context, ref string) (*dto.ArticleResponse, error)

	Search(ctx context.Context, req *dto.SearchRequest) (*search.Response, error)
	Suggestions(ctx context.Context, query string) (*dto.SuggestionsResponse, error)

	RelatedArticles(ctx context.Context, ref string) (*relations.RelatedResponse, error)
	ContentNetwork(ctx context.Context) (*relations.Network, error)
	ChapterRelationships(ctx context.Context, chapter int) (*relations.ChapterRelationsResponse, error)

	Recommendations(ctx context.Context, userID string, limit int) (*relations.RecommendationsResponse, error)
	RecommendationsForArticle(ctx context.Context, ref string, limit int) (*relations.RecommendationsResponse, error)

	Reload(ctx context.Context) (*dto.ReloadResponse, error)
	FileInfo() content.FileInfo
	ValidateIntegrity(ctx context.Context) content.IntegrityReport
}

type constitutionService struct {
	content     *content.Store
	engine      *search.Engine
	graph       *relations.Graph
	recommender *relations.Recommender
	validator   *validate.Validator
	store       cache.Store
	log         logger.ILogger
}

func NewConstitutionService(
	contentStore *content.Store,
	engine *search.Engine,
	graph *relations.Graph,
	recommender *relations.Recommender,
	validator *validate.Validator,
	store cache.Store,
	log logger.ILogger,
) IConstitutionService {
	return &constitutionService{
		content:     contentStore,
		engine:      engine,
		graph:       graph,
		recommender: recommender,
		validator:   validator,
		store:       store,
		log:         log,
	}
}

func (s *constitutionService) Overview(ctx context.Context) (*dto.OverviewResponse, error) {
	tree, err := s.content.Get(ctx)
	if err != nil {
		return nil, err
	}

	resp := &dto.OverviewResponse{
		Title:    tree.Title,
		Preamble: tree.Preamble,
		Stats:    tree.Stats(),
		Chapters: make([]dto.ChapterSummary, 0, len(tree.Chapters)),
	}
	for _, ch := range tree.Chapters {
		resp.Chapters = append(resp.Chapters, dto.ChapterSummary{
			ChapterNumber: ch.Number,
			Title:         ch.Title,
			ArticleCount:  len(ch.AllArticles()),
		})
	}
	return resp, nil
}

func (s *constitutionService) GetChapter(ctx context.Context, number int) (*dto.ChapterResponse, error) {
	number, err := s.validator.ChapterNumber(number)
	if err != nil {
		return nil, err
	}

	cacheKey := fmt.Sprintf("%s%d", chapterCacheKeyPrefix, number)
	var cached dto.ChapterResponse
	if s.store.Get(ctx, cacheKey, &cached) {
		return &cached, nil
	}

	tree, err := s.content.Get(ctx)
	if err != nil {
		return nil, err
	}
	ch := tree.FindChapter(number)
	if ch == nil {
		return nil, &validate.Error{Message: fmt.Sprintf("chapter not found: %d", number)}
	}

	resp := &dto.ChapterResponse{
		Chapter:       *ch,
		TotalArticles: len(ch.AllArticles()),
	}
	s.store.SetBackground(cacheKey, resp, chapterTTL)
	return resp, nil
}

func (s *constitutionService) GetArticle(ctx context.Context, ref string) (*dto.ArticleResponse, error) {
	parsed, err := s.validator.ArticleReference(ref)
	if err != nil {
		return nil, err
	}

	cacheKey := fmt.Sprintf("%s%d:%d", articleCacheKeyPrefix, parsed.Chapter, parsed.Article)
	var cached dto.ArticleResponse
	if s.store.Get(ctx, cacheKey, &cached) {
		return &cached, nil
	}

	tree, err := s.content.Get(ctx)
	if err != nil {
		return nil, err
	}
	ch, article := tree.FindArticle(parsed)
	if article == nil {
		return nil, &validate.Error{Message: fmt.Sprintf("article not found: %s", ref)}
	}

	resp := &dto.ArticleResponse{
		Reference:     parsed.String(),
		ChapterNumber: ch.Number,
		ChapterTitle:  ch.Title,
		Article:       *article,
	}
	s.store.SetBackground(cacheKey, resp, articleTTL)
	return resp, nil
}

func (s *constitutionService) Search(ctx context.Context, req *dto.SearchRequest) (*search.Response, error) {
	var filters *validate.SearchFilters
	if req.Chapter != 0 || req.Article != 0 {
		filters = &validate.SearchFilters{Chapter: req.Chapter, Article: req.Article}
	}
	return s.engine.Search(ctx, req.Query, filters, req.Limit, req.Offset, req.Highlight, req.NoCache)
}

func (s *constitutionService) Suggestions(ctx context.Context, query string) (*dto.SuggestionsResponse, error) {
	return &dto.SuggestionsResponse{
		Query:       query,
		Suggestions: s.engine.Suggestions(ctx, query),
	}, nil
}

func (s *constitutionService) RelatedArticles(ctx context.Context, ref string) (*relations.RelatedResponse, error) {
	return s.graph.RelatedArticles(ctx, ref)
}

func (s *constitutionService) ContentNetwork(ctx context.Context) (*relations.Network, error) {
	return s.graph.ContentNetwork(ctx)
}

func (s *constitutionService) ChapterRelationships(ctx context.Context, chapter int) (*relations.ChapterRelationsResponse, error) {
	return s.graph.ChapterRelationships(ctx, chapter)
}

func (s *constitutionService) Recommendations(ctx context.Context, userID string, limit int) (*relations.RecommendationsResponse, error) {
	return s.recommender.PersonalizedRecommendations(ctx, userID, limit)
}

func (s *constitutionService) RecommendationsForArticle(ctx context.Context, ref string, limit int) (*relations.RecommendationsResponse, error) {
	return s.recommender.RecommendationsForArticle(ctx, ref, limit)
}

// Reload re-parses the document and drops every cache entry derived from
// the old tree.
func (s *constitutionService) Reload(ctx context.Context) (*dto.ReloadResponse, error) {
	tree, err := s.content.Reload(ctx)
	if err != nil {
		return nil, err
	}

	cleared := 0
	for _, prefix := range reloadClearPrefixes {
		cleared += s.store.ClearPattern(ctx, prefix)
	}

	s.log.Info("constitution_service", "document reloaded", map[string]interface{}{
		"cleared_keys": cleared,
	})
	return &dto.ReloadResponse{
		Reloaded:    true,
		ClearedKeys: cleared,
		Stats:       tree.Stats(),
	}, nil
}

func (s *constitutionService) FileInfo() content.FileInfo {
	return s.content.FileInfo()
}

func (s *constitutionService) ValidateIntegrity(ctx context.Context) content.IntegrityReport {
	return s.content.ValidateIntegrity(ctx)
}
