package search

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"katiba-reader-be/internal/pkg/logger"
	"katiba-reader-be/pkg/cache"
	"katiba-reader-be/pkg/constitution/content"
	"katiba-reader-be/pkg/constitution/validate"
)

const testConstitution = `{
  "title": "Constitution of Kenya",
  "preamble": "We, the people of Kenya, adopt and enact this Constitution.",
  "chapters": [
    {
      "chapter_number": 1,
      "chapter_title": "Sovereignty of the People and Supremacy of this Constitution",
      "articles": [
        {
          "article_number": 1,
          "article_title": "Sovereignty of the people",
          "clauses": [
            {"clause_number": 1, "content": "All sovereign power belongs to the people of Kenya."}
          ]
        },
        {
          "article_number": 2,
          "article_title": "Supremacy of this Constitution",
          "clauses": [
            {"clause_number": 1, "content": "This Constitution is the supreme law of the Republic."}
          ]
        }
      ]
    },
    {
      "chapter_number": 4,
      "chapter_title": "The Bill of Rights",
      "parts": [
        {
          "part_number": 1,
          "part_title": "General Provisions Relating to the Bill of Rights",
          "articles": [
            {
              "article_number": 19,
              "article_title": "Rights and fundamental freedoms",
              "clauses": [
                {
                  "clause_number": 1,
                  "content": "The Bill of Rights is an integral part of the democratic state.",
                  "sub_clauses": [
                    {"letter": "a", "content": "to preserve the dignity of individuals and communities"}
                  ]
                }
              ]
            },
            {
              "article_number": 20,
              "article_title": "Application of Bill of Rights",
              "clauses": [
                {"clause_number": 1, "content": "The Bill of Rights applies to all law and binds all State organs."}
              ]
            }
          ]
        }
      ]
    }
  ]
}`

func newTestEngine(t *testing.T) (*Engine, cache.Store) {
	t.Helper()
	log := logger.NewNop()
	store := cache.NewMemoryStore(log)

	path := filepath.Join(t.TempDir(), "constitution.json")
	require.NoError(t, os.WriteFile(path, []byte(testConstitution), 0644))

	contentStore := content.NewStore(path, store, log)
	validator := validate.New()
	engine := NewEngine(
		contentStore,
		NewQueryProcessor(validator, log),
		NewHighlighter(log),
		validator,
		store,
		log,
	)
	return engine, store
}

func TestSearchFindsBillOfRights(t *testing.T) {
	engine, _ := newTestEngine(t)

	resp, err := engine.Search(context.Background(), "bill of rights", nil, 10, 0, false, false)
	require.NoError(t, err)
	require.NotEmpty(t, resp.Results)

	top := resp.Results[0]
	assert.Equal(t, 4, top.ChapterNumber)
	assert.Equal(t, "article_title", top.Type)
	assert.Greater(t, top.RelevanceScore, 0.5)

	for i := 1; i < len(resp.Results); i++ {
		assert.GreaterOrEqual(t, resp.Results[i-1].RelevanceScore, resp.Results[i].RelevanceScore,
			"results must be ordered by descending score")
	}
	assert.Equal(t, QueryTypePhrase, resp.QueryInfo.Type)
	assert.Contains(t, resp.QueryInfo.LegalTerms, "bill of rights")
}

func TestSearchEmptyQuery(t *testing.T) {
	engine, _ := newTestEngine(t)

	resp, err := engine.Search(context.Background(), "   ", nil, 10, 0, false, false)
	require.NoError(t, err)
	assert.Empty(t, resp.Results)
	assert.Equal(t, QueryTypeEmpty, resp.QueryInfo.Type)
}

func TestSearchRejectsInvalidInput(t *testing.T) {
	engine, _ := newTestEngine(t)
	ctx := context.Background()

	_, err := engine.Search(ctx, "x", nil, 10, 0, false, false)
	require.Error(t, err)
	assert.True(t, validate.IsValidationError(err))

	_, err = engine.Search(ctx, "rights", &validate.SearchFilters{Chapter: 99}, 10, 0, false, false)
	require.Error(t, err)
	assert.True(t, validate.IsValidationError(err))

	_, err = engine.Search(ctx, "rights", nil, -1, 0, false, false)
	require.Error(t, err)
	assert.True(t, validate.IsValidationError(err))
}

func TestSearchChapterFilter(t *testing.T) {
	engine, _ := newTestEngine(t)

	resp, err := engine.Search(context.Background(), "rights", &validate.SearchFilters{Chapter: 4}, 10, 0, false, false)
	require.NoError(t, err)
	require.NotEmpty(t, resp.Results)
	for _, r := range resp.Results {
		assert.Equal(t, 4, r.ChapterNumber)
		assert.NotEqual(t, "preamble", r.Type)
	}
}

func TestSearchArticleFilter(t *testing.T) {
	engine, _ := newTestEngine(t)

	resp, err := engine.Search(context.Background(), "rights", &validate.SearchFilters{Chapter: 4, Article: 20}, 10, 0, false, false)
	require.NoError(t, err)
	require.NotEmpty(t, resp.Results)
	for _, r := range resp.Results {
		assert.Equal(t, 20, r.ArticleNumber)
	}
}

func TestSearchPagination(t *testing.T) {
	engine, _ := newTestEngine(t)
	ctx := context.Background()

	first, err := engine.Search(ctx, "rights", nil, 2, 0, false, false)
	require.NoError(t, err)
	require.Len(t, first.Results, 2)
	assert.True(t, first.Pagination.HasNext)
	assert.False(t, first.Pagination.HasPrevious)
	require.NotNil(t, first.Pagination.NextOffset)
	assert.Equal(t, 2, *first.Pagination.NextOffset)

	second, err := engine.Search(ctx, "rights", nil, 2, 2, false, false)
	require.NoError(t, err)
	assert.True(t, second.Pagination.HasPrevious)
	require.NotNil(t, second.Pagination.PreviousOffset)
	assert.Equal(t, 0, *second.Pagination.PreviousOffset)
	assert.Equal(t, first.Pagination.TotalResults, second.Pagination.TotalResults)

	beyond, err := engine.Search(ctx, "rights", nil, 10, 1000, false, false)
	require.NoError(t, err)
	assert.Empty(t, beyond.Results)
}

func TestSearchHighlighting(t *testing.T) {
	engine, _ := newTestEngine(t)

	resp, err := engine.Search(context.Background(), "sovereign", nil, 10, 0, true, false)
	require.NoError(t, err)
	require.NotEmpty(t, resp.Results)

	found := false
	for _, r := range resp.Results {
		if r.Type == "clause" {
			assert.Contains(t, r.Content, "**sovereign**")
			found = true
		}
	}
	assert.True(t, found, "expected a highlighted clause result")
}

func TestSearchExactQuery(t *testing.T) {
	engine, _ := newTestEngine(t)
	ctx := context.Background()

	resp, err := engine.Search(ctx, `"supreme law"`, nil, 10, 0, false, false)
	require.NoError(t, err)
	require.NotEmpty(t, resp.Results)
	assert.Equal(t, QueryTypeExact, resp.QueryInfo.Type)

	miss, err := engine.Search(ctx, `"law supreme"`, nil, 10, 0, false, false)
	require.NoError(t, err)
	assert.Empty(t, miss.Results, "exact queries require the verbatim phrase")
}

func TestSearchBooleanQuery(t *testing.T) {
	engine, _ := newTestEngine(t)

	resp, err := engine.Search(context.Background(), "rights NOT sovereign", nil, 20, 0, false, false)
	require.NoError(t, err)
	require.NotEmpty(t, resp.Results)
	assert.Equal(t, QueryTypeBoolean, resp.QueryInfo.Type)
	for _, r := range resp.Results {
		assert.NotContains(t, r.Content, "sovereign power")
	}
}

func TestSearchCachesResults(t *testing.T) {
	engine, _ := newTestEngine(t)
	ctx := context.Background()

	first, err := engine.Search(ctx, "bill of rights", nil, 10, 0, false, false)
	require.NoError(t, err)
	assert.False(t, first.Cached)

	// The cache write happens on a background goroutine.
	assert.Eventually(t, func() bool {
		resp, err := engine.Search(ctx, "bill of rights", nil, 10, 0, false, false)
		return err == nil && resp.Cached
	}, 2*time.Second, 10*time.Millisecond)
}

func TestSearchNoCacheBypass(t *testing.T) {
	engine, _ := newTestEngine(t)
	ctx := context.Background()

	// A bypassed search neither reads nor writes the cache.
	resp, err := engine.Search(ctx, "bill of rights", nil, 10, 0, false, true)
	require.NoError(t, err)
	assert.False(t, resp.Cached)

	time.Sleep(100 * time.Millisecond)
	cold, err := engine.Search(ctx, "bill of rights", nil, 10, 0, false, false)
	require.NoError(t, err)
	assert.False(t, cold.Cached, "a bypassed search must not populate the cache")

	// Once a normal search has warmed the cache, bypass still recomputes.
	assert.Eventually(t, func() bool {
		warm, err := engine.Search(ctx, "bill of rights", nil, 10, 0, false, false)
		return err == nil && warm.Cached
	}, 2*time.Second, 10*time.Millisecond)

	fresh, err := engine.Search(ctx, "bill of rights", nil, 10, 0, false, true)
	require.NoError(t, err)
	assert.False(t, fresh.Cached)
}

func TestSuggestions(t *testing.T) {
	engine, _ := newTestEngine(t)
	ctx := context.Background()

	corrections := engine.Suggestions(ctx, "goverment powers")
	assert.Contains(t, corrections, "government powers")

	completions := engine.Suggestions(ctx, "bill of")
	assert.Contains(t, completions, "bill of rights")

	assert.Empty(t, engine.Suggestions(ctx, ""))
}
