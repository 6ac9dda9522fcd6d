package validate

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"katiba-reader-be/pkg/constitution/entity"
)

func TestChapterNumber(t *testing.T) {
	v := New()

	tests := []struct {
		name    string
		input   int
		wantErr bool
	}{
		{"first chapter", 1, false},
		{"last chapter", MaxChapterNumber, false},
		{"zero", 0, true},
		{"negative", -1, true},
		{"above range", MaxChapterNumber + 1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, err := v.ChapterNumber(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, IsValidationError(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.input, n)
		})
	}
}

func TestArticleNumber(t *testing.T) {
	v := New()

	_, err := v.ArticleNumber(0)
	assert.Error(t, err)
	_, err = v.ArticleNumber(MaxArticleNumber + 1)
	assert.Error(t, err)

	n, err := v.ArticleNumber(19)
	require.NoError(t, err)
	assert.Equal(t, 19, n)
}

func TestArticleReference(t *testing.T) {
	v := New()

	tests := []struct {
		name    string
		input   string
		want    entity.Reference
		wantErr bool
	}{
		{"valid", "4.19", entity.Reference{Chapter: 4, Article: 19}, false},
		{"single digit", "1.1", entity.Reference{Chapter: 1, Article: 1}, false},
		{"missing article", "4", entity.Reference{}, true},
		{"too many parts", "4.19.2", entity.Reference{}, true},
		{"non-numeric chapter", "four.19", entity.Reference{}, true},
		{"non-numeric article", "4.nineteen", entity.Reference{}, true},
		{"chapter out of range", "0.5", entity.Reference{}, true},
		{"article out of range", "4.999", entity.Reference{}, true},
		{"empty", "", entity.Reference{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ref, err := v.ArticleReference(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, IsValidationError(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, ref)
		})
	}
}

func TestSearchQuery(t *testing.T) {
	v := New()

	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"valid", "bill of rights", "bill of rights", false},
		{"trims whitespace", "  freedom  ", "freedom", false},
		{"minimum length", "ab", "ab", false},
		{"too short", "a", "", true},
		{"whitespace only", "    ", "", true},
		{"too long", strings.Repeat("a", MaxQueryLength+1), "", true},
		{"script tag", "<script>alert(1)</script>", "", true},
		{"javascript scheme", "javascript:alert(1)", "", true},
		{"event handler", "onload=steal()", "", true},
		{"eval call", "eval (payload)", "", true},
		{"document access", "document.cookie", "", true},
		{"window access", "window.location", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := v.SearchQuery(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, IsValidationError(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPagination(t *testing.T) {
	v := New()

	tests := []struct {
		name       string
		limit      int
		offset     int
		wantLimit  int
		wantOffset int
		wantErr    bool
	}{
		{"defaults limit when zero", 0, 0, 10, 0, false},
		{"passes explicit values", 25, 50, 25, 50, false},
		{"maximum limit", MaxLimit, 0, MaxLimit, 0, false},
		{"negative limit", -1, 0, 0, 0, true},
		{"limit too large", MaxLimit + 1, 0, 0, 0, true},
		{"negative offset", 10, -1, 0, 0, true},
		{"offset too large", 10, MaxOffset + 1, 0, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			limit, offset, err := v.Pagination(tt.limit, tt.offset)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantLimit, limit)
			assert.Equal(t, tt.wantOffset, offset)
		})
	}
}

func TestTimeframe(t *testing.T) {
	v := New()

	for _, tf := range []string{"daily", "weekly", "monthly"} {
		got, err := v.Timeframe(tf)
		require.NoError(t, err)
		assert.Equal(t, tf, got)
	}

	_, err := v.Timeframe("hourly")
	require.Error(t, err)
	assert.True(t, IsValidationError(err))

	_, err = v.Timeframe("")
	assert.Error(t, err)
}

func TestFilters(t *testing.T) {
	v := New()

	t.Run("empty filters collapse to nil", func(t *testing.T) {
		out, err := v.Filters(&SearchFilters{})
		require.NoError(t, err)
		assert.Nil(t, out)
	})

	t.Run("valid chapter and article", func(t *testing.T) {
		out, err := v.Filters(&SearchFilters{Chapter: 4, Article: 19})
		require.NoError(t, err)
		require.NotNil(t, out)
		assert.Equal(t, 4, out.Chapter)
		assert.Equal(t, 19, out.Article)
	})

	t.Run("invalid chapter", func(t *testing.T) {
		_, err := v.Filters(&SearchFilters{Chapter: 99})
		require.Error(t, err)
		assert.True(t, IsValidationError(err))
	})

	t.Run("invalid article", func(t *testing.T) {
		_, err := v.Filters(&SearchFilters{Article: 999})
		assert.Error(t, err)
	})
}

func TestIsValidationError(t *testing.T) {
	assert.True(t, IsValidationError(newError("bad input")))
	assert.False(t, IsValidationError(assert.AnError))
	assert.False(t, IsValidationError(nil))
}
