package relations

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"katiba-reader-be/internal/pkg/logger"
	"katiba-reader-be/pkg/cache"
	"katiba-reader-be/pkg/constitution/content"
	"katiba-reader-be/pkg/constitution/validate"
)

type fakeProgress struct {
	recent     []string
	completed  []string
	bookmarked []string
	err        error
}

func (f *fakeProgress) RecentlyRead(_ context.Context, _ string, limit int) ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	if len(f.recent) > limit {
		return f.recent[:limit], nil
	}
	return f.recent, nil
}

func (f *fakeProgress) CompletedArticles(_ context.Context, _ string) ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.completed, nil
}

func (f *fakeProgress) BookmarkedArticles(_ context.Context, _ string) ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.bookmarked, nil
}

type fakePopularity struct {
	byTimeframe map[string][]string
	err         error
}

func (f *fakePopularity) PopularArticles(_ context.Context, timeframe string, _ int) ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.byTimeframe[timeframe], nil
}

func newTestRecommender(t *testing.T, progress ProgressSource, popularity PopularitySource) *Recommender {
	t.Helper()
	log := logger.NewNop()
	store := cache.NewMemoryStore(log)

	path := filepath.Join(t.TempDir(), "constitution.json")
	require.NoError(t, os.WriteFile(path, []byte(testConstitution), 0644))

	contentStore := content.NewStore(path, store, log)
	validator := validate.New()
	graph := NewGraph(contentStore, validator, store, log)
	return NewRecommender(contentStore, graph, progress, popularity, validator, store, log)
}

func TestPersonalizedRecommendations(t *testing.T) {
	progress := &fakeProgress{
		recent:     []string{"4.20", "4.19"},
		bookmarked: []string{"1.1"},
	}
	popularity := &fakePopularity{byTimeframe: map[string][]string{
		"daily":  {"4.19"},
		"weekly": {"1.1"},
	}}
	r := newTestRecommender(t, progress, popularity)

	resp, err := r.PersonalizedRecommendations(context.Background(), "user-1", 10)
	require.NoError(t, err)
	require.NotEmpty(t, resp.Recommendations)
	assert.Equal(t, "user-1", resp.UserID)

	byRef := make(map[string]Recommendation)
	for _, rec := range resp.Recommendations {
		assert.NotContains(t, []string{"4.20", "4.19"}, rec.Reference,
			"already-read articles are never recommended")
		byRef[rec.Reference] = rec
	}

	// Reading order from the most recent article comes first.
	first := resp.Recommendations[0]
	assert.Equal(t, StrategySequential, first.Type)
	assert.Equal(t, "4.21", first.Reference)
	assert.InDelta(t, sequentialNextWeight, first.Score, 0.001)

	// The bookmarked 1.1 seeds similarity (its neighbour 1.2 shows up as
	// content_based) and stays recommendable itself.
	require.Contains(t, byRef, "1.2")
	require.Contains(t, byRef, "1.1")
	assert.Equal(t, StrategyContentBased, byRef["1.2"].Type)
	assert.Equal(t, StrategyCollaborative, byRef["1.1"].Type)
}

func TestPersonalizedRecommendationsBookmarkSeeds(t *testing.T) {
	// No reading history at all: bookmarks alone drive the content-based
	// strategy.
	progress := &fakeProgress{bookmarked: []string{"4.19"}}
	r := newTestRecommender(t, progress, &fakePopularity{})

	resp, err := r.PersonalizedRecommendations(context.Background(), "user-1", 10)
	require.NoError(t, err)
	require.NotEmpty(t, resp.Recommendations)

	refs := make(map[string]Recommendation)
	for _, rec := range resp.Recommendations {
		assert.Equal(t, StrategyContentBased, rec.Type)
		refs[rec.Reference] = rec
	}
	assert.Contains(t, refs, "4.20")
}

func TestPersonalizedRecommendationsExcludesCompleted(t *testing.T) {
	progress := &fakeProgress{completed: []string{"4.20"}}
	// The completed article is also the most popular one.
	popularity := &fakePopularity{byTimeframe: map[string][]string{
		"daily":  {"4.20"},
		"weekly": {"4.20"},
	}}
	r := newTestRecommender(t, progress, popularity)

	resp, err := r.PersonalizedRecommendations(context.Background(), "user-1", 10)
	require.NoError(t, err)
	require.NotEmpty(t, resp.Recommendations)

	refs := make(map[string]Recommendation)
	for _, rec := range resp.Recommendations {
		assert.NotEqual(t, "4.20", rec.Reference, "completed articles are never recommended")
		refs[rec.Reference] = rec
	}
	// The completed article still seeds similarity.
	require.Contains(t, refs, "4.19")
	assert.Equal(t, StrategyContentBased, refs["4.19"].Type)
}

func TestPersonalizedRecommendationsStrategyOrder(t *testing.T) {
	progress := &fakeProgress{recent: []string{"4.20"}}
	popularity := &fakePopularity{byTimeframe: map[string][]string{
		"daily":  {"1.1"},
		"weekly": {"1.2"},
	}}
	r := newTestRecommender(t, progress, popularity)

	resp, err := r.PersonalizedRecommendations(context.Background(), "user-1", 10)
	require.NoError(t, err)

	lastPriority := -1
	for _, rec := range resp.Recommendations {
		p := strategyPriorities[rec.Type]
		assert.GreaterOrEqual(t, p, lastPriority, "strategies must stay grouped in priority order")
		lastPriority = p
	}
}

func TestPersonalizedRecommendationsWithoutHistory(t *testing.T) {
	popularity := &fakePopularity{byTimeframe: map[string][]string{
		"daily":  {"1.1"},
		"weekly": {"4.19"},
	}}
	r := newTestRecommender(t, &fakeProgress{}, popularity)

	resp, err := r.PersonalizedRecommendations(context.Background(), "new-user", 10)
	require.NoError(t, err)
	require.NotEmpty(t, resp.Recommendations)
	for _, rec := range resp.Recommendations {
		assert.Contains(t, []string{StrategyCollaborative, StrategyPopular}, rec.Type)
	}
}

func TestPersonalizedRecommendationsFailOpen(t *testing.T) {
	progress := &fakeProgress{err: errors.New("database unavailable")}
	popularity := &fakePopularity{err: errors.New("redis unavailable")}
	r := newTestRecommender(t, progress, popularity)

	resp, err := r.PersonalizedRecommendations(context.Background(), "user-1", 10)
	require.NoError(t, err, "unavailable sources degrade the blend, never fail it")
	assert.Empty(t, resp.Recommendations)
}

func TestPersonalizedRecommendationsDedupes(t *testing.T) {
	progress := &fakeProgress{recent: []string{"4.19"}}
	// Both popularity timeframes return the same article the sequential
	// strategy will also produce.
	popularity := &fakePopularity{byTimeframe: map[string][]string{
		"daily":  {"4.20"},
		"weekly": {"4.20"},
	}}
	r := newTestRecommender(t, progress, popularity)

	resp, err := r.PersonalizedRecommendations(context.Background(), "user-1", 10)
	require.NoError(t, err)

	count := 0
	for _, rec := range resp.Recommendations {
		if rec.Reference == "4.20" {
			count++
			assert.Equal(t, StrategySequential, rec.Type, "the first strategy to claim a reference keeps it")
		}
	}
	assert.Equal(t, 1, count)
}

func TestPersonalizedRecommendationsLimit(t *testing.T) {
	progress := &fakeProgress{recent: []string{"4.19"}}
	popularity := &fakePopularity{byTimeframe: map[string][]string{
		"daily":  {"1.1", "1.2"},
		"weekly": {"4.21"},
	}}
	r := newTestRecommender(t, progress, popularity)
	ctx := context.Background()

	resp, err := r.PersonalizedRecommendations(ctx, "user-1", 2)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(resp.Recommendations), 2)

	_, err = r.PersonalizedRecommendations(ctx, "user-1", -1)
	require.Error(t, err)
	assert.True(t, validate.IsValidationError(err))
}

func TestRecommendationsForArticle(t *testing.T) {
	r := newTestRecommender(t, nil, nil)
	ctx := context.Background()

	resp, err := r.RecommendationsForArticle(ctx, "4.19", 10)
	require.NoError(t, err)
	require.NotEmpty(t, resp.Recommendations)

	refs := make(map[string]Recommendation)
	for _, rec := range resp.Recommendations {
		assert.NotEqual(t, "4.19", rec.Reference, "the article itself is never suggested")
		refs[rec.Reference] = rec
	}
	require.Contains(t, refs, "4.20")
	assert.Equal(t, StrategySequential, refs["4.20"].Type)

	// Graph-derived suggestions are labelled "related" here, not with the
	// personalized content_based strategy.
	require.Contains(t, refs, "4.21")
	assert.Equal(t, StrategyRelated, refs["4.21"].Type)
	require.Contains(t, refs, "1.2")
	assert.Equal(t, StrategyRelated, refs["1.2"].Type)

	_, err = r.RecommendationsForArticle(ctx, "not-a-ref", 10)
	require.Error(t, err)
	assert.True(t, validate.IsValidationError(err))
}
