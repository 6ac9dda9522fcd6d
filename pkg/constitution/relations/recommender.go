package relations

import (
	"context"
	"fmt"
	"sort"

	"katiba-reader-be/internal/pkg/logger"
	"katiba-reader-be/pkg/cache"
	"katiba-reader-be/pkg/constitution/content"
	"katiba-reader-be/pkg/constitution/entity"
	"katiba-reader-be/pkg/constitution/validate"
)

const (
	// RecommendCacheKeyPrefix namespaces every recommendation page; reload
	// clears the whole namespace at once.
	RecommendCacheKeyPrefix = "constitution:recommend:"

	personalizedCacheKeyPrefix = RecommendCacheKeyPrefix + "personalized:"
	articleRecsCacheKeyPrefix  = RecommendCacheKeyPrefix + "article:"

	recommendTTL = cache.Hour

	sequentialNextWeight    = 0.90
	sequentialChapterWeight = 0.80
	contentBasedFactor      = 0.80
	collaborativeWeight     = 0.70
	popularWeight           = 0.60

	recentHistoryDepth = 5
)

// Recommendation strategy labels, in blend priority order. The per-article
// operation labels its graph-derived suggestions "related".
const (
	StrategySequential    = "sequential"
	StrategyContentBased  = "content_based"
	StrategyRelated       = "related"
	StrategyCollaborative = "collaborative"
	StrategyPopular       = "popular"
)

var strategyPriorities = map[string]int{
	StrategySequential:    0,
	StrategyContentBased:  1,
	StrategyRelated:       1,
	StrategyCollaborative: 2,
	StrategyPopular:       3,
}

// ProgressSource exposes a user's reading facts: recent history for the
// sequential strategy, completed and bookmarked articles as content-based
// seeds. Backed by the reading progress and bookmark repositories.
type ProgressSource interface {
	RecentlyRead(ctx context.Context, userID string, limit int) ([]string, error)
	CompletedArticles(ctx context.Context, userID string) ([]string, error)
	BookmarkedArticles(ctx context.Context, userID string) ([]string, error)
}

// PopularitySource exposes the most viewed article references for a
// timeframe. Backed by the view tracking repository.
type PopularitySource interface {
	PopularArticles(ctx context.Context, timeframe string, limit int) ([]string, error)
}

// Recommendation is one suggested article with the strategy that produced
// it and why.
type Recommendation struct {
	Reference     string  `json:"reference"`
	ChapterNumber int     `json:"chapter_number"`
	ArticleNumber int     `json:"article_number"`
	Title         string  `json:"title"`
	Type          string  `json:"type"`
	Score         float64 `json:"score"`
	Reason        string  `json:"reason"`
}

type RecommendationsResponse struct {
	UserID          string           `json:"user_id,omitempty"`
	Recommendations []Recommendation `json:"recommendations"`
	Total           int              `json:"total"`
}

// Recommender blends four strategies into one ranked list: sequential
// reading order, content similarity, weekly popularity, and daily
// popularity. The two popularity sources fail open: an unavailable
// backend just drops those strategies from the blend.
type Recommender struct {
	content    *content.Store
	graph      *Graph
	progress   ProgressSource
	popularity PopularitySource
	validator  *validate.Validator
	store      cache.Store
	log        logger.ILogger
}

func NewRecommender(
	contentStore *content.Store,
	graph *Graph,
	progress ProgressSource,
	popularity PopularitySource,
	validator *validate.Validator,
	store cache.Store,
	log logger.ILogger,
) *Recommender {
	return &Recommender{
		content:    contentStore,
		graph:      graph,
		progress:   progress,
		popularity: popularity,
		validator:  validator,
		store:      store,
		log:        log,
	}
}

// PersonalizedRecommendations blends all four strategies for a user. A
// user with no history still gets popularity-driven suggestions; articles
// the user already read are never recommended.
func (r *Recommender) PersonalizedRecommendations(ctx context.Context, userID string, limit int) (*RecommendationsResponse, error) {
	limit, _, err := r.validator.Pagination(limit, 0)
	if err != nil {
		return nil, err
	}

	cacheKey := fmt.Sprintf("%s%s:%d", personalizedCacheKeyPrefix, userID, limit)
	var cached RecommendationsResponse
	if r.store.Get(ctx, cacheKey, &cached) {
		return &cached, nil
	}

	tree, err := r.content.Get(ctx)
	if err != nil {
		return nil, err
	}

	recent := r.recentHistory(ctx, userID)
	completed := r.sourceRefs(ctx, userID, "completed articles", ProgressSource.CompletedArticles)
	bookmarked := r.sourceRefs(ctx, userID, "bookmarked articles", ProgressSource.BookmarkedArticles)

	// Completed and read articles are never recommended; bookmarks still
	// can be, they only seed similarity.
	read := make(map[string]bool, len(recent)+len(completed))
	for _, ref := range recent {
		read[ref] = true
	}
	for _, ref := range completed {
		read[ref] = true
	}

	var candidates []Recommendation
	if len(recent) > 0 {
		candidates = append(candidates, r.sequential(tree, recent[0], perStrategy(limit, 4))...)
	}
	if seeds := unionRefs(completed, bookmarked); len(seeds) > 0 {
		candidates = append(candidates, r.contentBased(ctx, seeds, perStrategy(limit, 3), StrategyContentBased)...)
	}
	candidates = append(candidates, r.fromPopularity(ctx, tree, "weekly", StrategyCollaborative, collaborativeWeight, perStrategy(limit, 3))...)
	candidates = append(candidates, r.fromPopularity(ctx, tree, "daily", StrategyPopular, popularWeight, perStrategy(limit, 3))...)

	recommendations := blend(candidates, read, limit)

	resp := &RecommendationsResponse{
		UserID:          userID,
		Recommendations: recommendations,
		Total:           len(recommendations),
	}
	r.store.SetBackground(cacheKey, resp, recommendTTL)
	return resp, nil
}

// RecommendationsForArticle suggests what to read after a given article:
// the next article in reading order plus the most similar ones.
func (r *Recommender) RecommendationsForArticle(ctx context.Context, ref string, limit int) (*RecommendationsResponse, error) {
	parsed, err := r.validator.ArticleReference(ref)
	if err != nil {
		return nil, err
	}
	limit, _, err = r.validator.Pagination(limit, 0)
	if err != nil {
		return nil, err
	}

	cacheKey := fmt.Sprintf("%s%s:%d", articleRecsCacheKeyPrefix, parsed.String(), limit)
	var cached RecommendationsResponse
	if r.store.Get(ctx, cacheKey, &cached) {
		return &cached, nil
	}

	tree, err := r.content.Get(ctx)
	if err != nil {
		return nil, err
	}
	if _, a := tree.FindArticle(parsed); a == nil {
		return nil, &validate.Error{Message: fmt.Sprintf("article not found: %s", ref)}
	}

	exclude := map[string]bool{parsed.String(): true}
	candidates := r.sequential(tree, parsed.String(), perStrategy(limit, 4))
	candidates = append(candidates, r.contentBased(ctx, []string{parsed.String()}, limit, StrategyRelated)...)

	recommendations := blend(candidates, exclude, limit)
	resp := &RecommendationsResponse{
		Recommendations: recommendations,
		Total:           len(recommendations),
	}
	r.store.SetBackground(cacheKey, resp, recommendTTL)
	return resp, nil
}

func (r *Recommender) recentHistory(ctx context.Context, userID string) []string {
	if r.progress == nil || userID == "" {
		return nil
	}
	recent, err := r.progress.RecentlyRead(ctx, userID, recentHistoryDepth)
	if err != nil {
		r.log.Warn("recommender", "reading history unavailable, skipping personalized strategies", map[string]interface{}{
			"user_id": userID,
			"error":   err.Error(),
		})
		return nil
	}
	return recent
}

// sourceRefs fetches one user-fact list fail-open.
func (r *Recommender) sourceRefs(ctx context.Context, userID, what string, fetch func(ProgressSource, context.Context, string) ([]string, error)) []string {
	if r.progress == nil || userID == "" {
		return nil
	}
	refs, err := fetch(r.progress, ctx, userID)
	if err != nil {
		r.log.Warn("recommender", what+" unavailable, degrading blend", map[string]interface{}{
			"user_id": userID,
			"error":   err.Error(),
		})
		return nil
	}
	return refs
}

func unionRefs(lists ...[]string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, list := range lists {
		for _, ref := range list {
			if !seen[ref] {
				seen[ref] = true
				out = append(out, ref)
			}
		}
	}
	return out
}

// sequential follows document order from the given article: the next
// article in its chapter, then the first article of the next chapter.
func (r *Recommender) sequential(tree *entity.Constitution, fromRef string, limit int) []Recommendation {
	parsed, err := entity.ParseReference(fromRef)
	if err != nil {
		return nil
	}
	ch := tree.FindChapter(parsed.Chapter)
	if ch == nil {
		return nil
	}

	var out []Recommendation
	articles := ch.AllArticles()
	for i, a := range articles {
		if a.Number != parsed.Article {
			continue
		}
		if i+1 < len(articles) {
			next := articles[i+1]
			out = append(out, Recommendation{
				Reference:     entity.Reference{Chapter: ch.Number, Article: next.Number}.String(),
				ChapterNumber: ch.Number,
				ArticleNumber: next.Number,
				Title:         next.Title,
				Type:          StrategySequential,
				Score:         sequentialNextWeight,
				Reason:        fmt.Sprintf("next article after %s", fromRef),
			})
		}
		break
	}

	for ci := range tree.Chapters {
		if tree.Chapters[ci].Number != ch.Number || ci+1 >= len(tree.Chapters) {
			continue
		}
		next := &tree.Chapters[ci+1]
		if first := next.AllArticles(); len(first) > 0 {
			out = append(out, Recommendation{
				Reference:     entity.Reference{Chapter: next.Number, Article: first[0].Number}.String(),
				ChapterNumber: next.Number,
				ArticleNumber: first[0].Number,
				Title:         first[0].Title,
				Type:          StrategySequential,
				Score:         sequentialChapterWeight,
				Reason:        fmt.Sprintf("continues into chapter %d", next.Number),
			})
		}
		break
	}

	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

func (r *Recommender) contentBased(ctx context.Context, seeds []string, limit int, strategy string) []Recommendation {
	var out []Recommendation
	for _, ref := range seeds {
		related, err := r.graph.RelatedArticles(ctx, ref)
		if err != nil {
			continue
		}
		for _, rel := range related.RelatedArticles {
			out = append(out, Recommendation{
				Reference:     rel.Reference,
				ChapterNumber: rel.ChapterNumber,
				ArticleNumber: rel.ArticleNumber,
				Title:         rel.Title,
				Type:          strategy,
				Score:         round2(rel.Weight * contentBasedFactor),
				Reason:        fmt.Sprintf("related to %s", ref),
			})
			if len(out) >= limit {
				return out
			}
		}
	}
	return out
}

func (r *Recommender) fromPopularity(ctx context.Context, tree *entity.Constitution, timeframe, strategy string, weight float64, limit int) []Recommendation {
	if r.popularity == nil {
		return nil
	}
	refs, err := r.popularity.PopularArticles(ctx, timeframe, limit)
	if err != nil {
		r.log.Warn("recommender", "popularity data unavailable, skipping strategy", map[string]interface{}{
			"strategy": strategy,
			"error":    err.Error(),
		})
		return nil
	}

	var out []Recommendation
	for _, ref := range refs {
		parsed, err := entity.ParseReference(ref)
		if err != nil {
			continue
		}
		_, a := tree.FindArticle(parsed)
		if a == nil {
			continue
		}
		out = append(out, Recommendation{
			Reference:     parsed.String(),
			ChapterNumber: parsed.Chapter,
			ArticleNumber: parsed.Article,
			Title:         a.Title,
			Type:          strategy,
			Score:         weight,
			Reason:        fmt.Sprintf("%s popular article", timeframe),
		})
		if len(out) >= limit {
			break
		}
	}
	return out
}

// blend dedupes candidates (first strategy to claim a reference keeps it),
// drops excluded references, and ranks by strategy priority then score.
func blend(candidates []Recommendation, exclude map[string]bool, limit int) []Recommendation {
	seen := make(map[string]bool, len(candidates))
	out := make([]Recommendation, 0, limit)
	for _, c := range candidates {
		if exclude[c.Reference] || seen[c.Reference] {
			continue
		}
		seen[c.Reference] = true
		out = append(out, c)
	}

	sort.SliceStable(out, func(i, j int) bool {
		pi, pj := strategyPriorities[out[i].Type], strategyPriorities[out[j].Type]
		if pi != pj {
			return pi < pj
		}
		return out[i].Score > out[j].Score
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

func perStrategy(limit, divisor int) int {
	n := limit / divisor
	if n < 1 {
		n = 1
	}
	return n
}
