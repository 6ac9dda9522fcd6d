package relations

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
      "chapter_title": "Sovereignty of the People",
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
            {"clause_number": 1, "content": "This Constitution is the supreme law, as set out in Article 1."}
          ]
        }
      ]
    },
    {
      "chapter_number": 4,
      "chapter_title": "The Bill of Rights",
      "articles": [
        {
          "article_number": 19,
          "article_title": "Rights and fundamental freedoms",
          "clauses": [
            {"clause_number": 1, "content": "The rights in this part are subject to Article 20 and the principles set out in 1.2."}
          ]
        },
        {
          "article_number": 20,
          "article_title": "Application of Bill of Rights",
          "clauses": [
            {"clause_number": 1, "content": "The Bill of Rights applies to all law and binds all State organs."}
          ]
        },
        {
          "article_number": 21,
          "article_title": "Implementation of rights and fundamental freedoms",
          "clauses": [
            {"clause_number": 1, "content": "The State shall enact legislation to give effect to rights and freedoms."}
          ]
        }
      ]
    }
  ]
}`

func newTestGraphWithDoc(t *testing.T, doc string) (*Graph, cache.Store) {
	t.Helper()
	log := logger.NewNop()
	store := cache.NewMemoryStore(log)

	path := filepath.Join(t.TempDir(), "constitution.json")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0644))

	contentStore := content.NewStore(path, store, log)
	return NewGraph(contentStore, validate.New(), store, log), store
}

func newTestGraph(t *testing.T) (*Graph, cache.Store) {
	t.Helper()
	return newTestGraphWithDoc(t, testConstitution)
}

func TestRelatedArticlesCrossReference(t *testing.T) {
	graph, _ := newTestGraph(t)

	resp, err := graph.RelatedArticles(context.Background(), "4.19")
	require.NoError(t, err)
	assert.Equal(t, "4.19", resp.Reference)
	require.NotEmpty(t, resp.RelatedArticles)

	byRef := make(map[string]Related)
	for _, rel := range resp.RelatedArticles {
		assert.NotEqual(t, "4.19", rel.Reference, "an article never relates to itself")
		_, dup := byRef[rel.Reference]
		assert.False(t, dup, "references must be unique: %s", rel.Reference)
		byRef[rel.Reference] = rel
	}

	// 4.19 and 4.20 carry the same theme set, so the full-overlap theme
	// edge outweighs both the "Article 20" mention and the chapter edge.
	require.Contains(t, byRef, "4.20")
	assert.Equal(t, "theme_similarity", byRef["4.20"].Relationship)
	assert.InDelta(t, 1.0, byRef["4.20"].Weight, 0.001)

	// The explicit "1.2" mention is the strongest written signal.
	require.Contains(t, byRef, "1.2")
	assert.Equal(t, "cross_reference", byRef["1.2"].Relationship)
	assert.InDelta(t, 0.95, byRef["1.2"].Weight, 0.001)
}

func TestRelatedArticlesOrderedByWeight(t *testing.T) {
	graph, _ := newTestGraph(t)

	resp, err := graph.RelatedArticles(context.Background(), "4.19")
	require.NoError(t, err)
	require.NotEmpty(t, resp.RelatedArticles)

	assert.LessOrEqual(t, len(resp.RelatedArticles), 10)
	for i := 1; i < len(resp.RelatedArticles); i++ {
		assert.GreaterOrEqual(t, resp.RelatedArticles[i-1].Weight, resp.RelatedArticles[i].Weight)
	}
}

func TestRelatedArticlesSameChapter(t *testing.T) {
	graph, _ := newTestGraph(t)

	resp, err := graph.RelatedArticles(context.Background(), "4.20")
	require.NoError(t, err)

	refs := make(map[string]Related)
	for _, rel := range resp.RelatedArticles {
		refs[rel.Reference] = rel
	}
	require.Contains(t, refs, "4.19")
	require.Contains(t, refs, "4.21")
	assert.GreaterOrEqual(t, refs["4.19"].Weight, sameChapterWeight)
	assert.GreaterOrEqual(t, refs["4.21"].Weight, sameChapterWeight)
}

func TestRelatedArticlesThemeWeightIsJaccard(t *testing.T) {
	// Articles in different chapters connected only by theme words. The
	// edge weight is the plain Jaccard similarity of the two theme sets.
	doc := `{
	  "title": "Test Constitution",
	  "preamble": "",
	  "chapters": [
	    {
	      "chapter_number": 2,
	      "chapter_title": "Leadership",
	      "articles": [
	        {
	          "article_number": 6,
	          "article_title": "Leadership and integrity",
	          "clauses": [
	            {"clause_number": 1, "content": "Leadership requires integrity, ethics and accountability in conduct."}
	          ]
	        }
	      ]
	    },
	    {
	      "chapter_number": 3,
	      "chapter_title": "State Officers",
	      "articles": [
	        {
	          "article_number": 9,
	          "article_title": "Conduct of State officers",
	          "clauses": [
	            {"clause_number": 1, "content": "State officers shall show integrity and accountability."}
	          ]
	        }
	      ]
	    },
	    {
	      "chapter_number": 5,
	      "chapter_title": "Public Finance",
	      "articles": [
	        {
	          "article_number": 12,
	          "article_title": "Principles of public finance",
	          "clauses": [
	            {"clause_number": 1, "content": "Accountability for public money and the budget."}
	          ]
	        }
	      ]
	    }
	  ]
	}`
	graph, _ := newTestGraphWithDoc(t, doc)

	resp, err := graph.RelatedArticles(context.Background(), "2.6")
	require.NoError(t, err)

	byRef := make(map[string]Related)
	for _, rel := range resp.RelatedArticles {
		byRef[rel.Reference] = rel
	}

	// Identical theme sets: weight is exactly 1.0, not a fixed band.
	require.Contains(t, byRef, "3.9")
	assert.Equal(t, "theme_similarity", byRef["3.9"].Relationship)
	assert.InDelta(t, 1.0, byRef["3.9"].Weight, 0.001)

	// One theme shared out of two: weight 0.5.
	require.Contains(t, byRef, "5.12")
	assert.Equal(t, "theme_similarity", byRef["5.12"].Relationship)
	assert.InDelta(t, 0.5, byRef["5.12"].Weight, 0.001)
}

func TestRelatedArticlesKeywordWeightIsJaccard(t *testing.T) {
	// No shared themes, no cross-references, different chapters: only the
	// keyword overlap connects these two, weighted by raw Jaccard.
	doc := `{
	  "title": "Test Constitution",
	  "preamble": "",
	  "chapters": [
	    {
	      "chapter_number": 2,
	      "chapter_title": "Communications",
	      "articles": [
	        {
	          "article_number": 6,
	          "article_title": "Official communications",
	          "clauses": [
	            {"clause_number": 1, "content": "Gazette notice publication procedure timeline."}
	          ]
	        }
	      ]
	    },
	    {
	      "chapter_number": 3,
	      "chapter_title": "Publications",
	      "articles": [
	        {
	          "article_number": 9,
	          "article_title": "Publication rules",
	          "clauses": [
	            {"clause_number": 1, "content": "Gazette notice publication procedure requirements."}
	          ]
	        }
	      ]
	    }
	  ]
	}`
	graph, _ := newTestGraphWithDoc(t, doc)

	resp, err := graph.RelatedArticles(context.Background(), "2.6")
	require.NoError(t, err)
	require.Len(t, resp.RelatedArticles, 1)

	rel := resp.RelatedArticles[0]
	assert.Equal(t, "3.9", rel.Reference)
	assert.Equal(t, "keyword_similarity", rel.Relationship)
	// 4 shared words out of a 9-word union, rounded to two decimals.
	assert.InDelta(t, 0.44, rel.Weight, 0.001)
}

func TestRelatedArticlesValidation(t *testing.T) {
	graph, _ := newTestGraph(t)
	ctx := context.Background()

	for _, ref := range []string{"", "4", "four.nineteen", "0.5", "4.999"} {
		_, err := graph.RelatedArticles(ctx, ref)
		require.Error(t, err, "ref: %q", ref)
		assert.True(t, validate.IsValidationError(err))
	}

	// Structurally valid but absent from the document.
	_, err := graph.RelatedArticles(ctx, "9.99")
	require.Error(t, err)
}

func TestRelatedArticlesCached(t *testing.T) {
	graph, store := newTestGraph(t)
	ctx := context.Background()

	_, err := graph.RelatedArticles(ctx, "4.19")
	require.NoError(t, err)

	// The cache write happens on a background goroutine.
	assert.Eventually(t, func() bool {
		var cached RelatedResponse
		return store.Get(ctx, RelatedCacheKeyPrefix+"4.19", &cached)
	}, 2*time.Second, 10*time.Millisecond)
}

func TestContentNetwork(t *testing.T) {
	graph, _ := newTestGraph(t)

	network, err := graph.ContentNetwork(context.Background())
	require.NoError(t, err)
	assert.Len(t, network.Nodes, 5)
	require.NotEmpty(t, network.Edges)

	seen := make(map[string]bool)
	for _, e := range network.Edges {
		assert.NotEqual(t, e.Source, e.Target, "no self loops")
		key := e.Source + ">" + e.Target
		assert.False(t, seen[key], "duplicate edge: %s", key)
		seen[key] = true
		assert.Greater(t, e.Weight, 0.0)
		assert.LessOrEqual(t, e.Weight, 1.0)
	}
}

func TestChapterRelationships(t *testing.T) {
	graph, _ := newTestGraph(t)
	ctx := context.Background()

	resp, err := graph.ChapterRelationships(ctx, 4)
	require.NoError(t, err)
	assert.Equal(t, 4, resp.ChapterNumber)
	for _, rel := range resp.RelatedChapters {
		assert.NotEqual(t, 4, rel.ChapterNumber)
		assert.LessOrEqual(t, rel.Strength, 1.0)
	}

	_, err = graph.ChapterRelationships(ctx, 0)
	require.Error(t, err)
	assert.True(t, validate.IsValidationError(err))

	_, err = graph.ChapterRelationships(ctx, 15)
	require.Error(t, err, "chapter 15 is valid but not in the document")
}

func TestChapterRelationshipsCached(t *testing.T) {
	graph, store := newTestGraph(t)
	ctx := context.Background()

	_, err := graph.ChapterRelationships(ctx, 4)
	require.NoError(t, err)

	// The cache write happens on a background goroutine.
	assert.Eventually(t, func() bool {
		var cached ChapterRelationsResponse
		return store.Get(ctx, chapterRelationsCacheKeyPrefix+"4", &cached)
	}, 2*time.Second, 10*time.Millisecond)
}
