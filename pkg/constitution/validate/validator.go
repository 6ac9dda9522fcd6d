package validate

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"katiba-reader-be/pkg/constitution/entity"
)

// Error marks an input validation failure. Callers map it to a 400-class
// response; it never reaches the scan or scoring logic.
type Error struct {
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func newError(format string, args ...interface{}) *Error {
	return &Error{Message: fmt.Sprintf(format, args...)}
}

// IsValidationError reports whether err is an input validation failure.
func IsValidationError(err error) bool {
	_, ok := err.(*Error)
	return ok
}

const (
	MaxChapterNumber = 20
	MaxArticleNumber = 300

	MinQueryLength = 2
	MaxQueryLength = 500

	MaxLimit  = 1000
	MaxOffset = 100000
)

// Patterns that indicate script/markup injection attempts in a query.
var suspiciousPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?is)<script[^>]*>.*?</script>`),
	regexp.MustCompile(`(?i)javascript:`),
	regexp.MustCompile(`(?i)on\w+\s*=`),
	regexp.MustCompile(`(?i)eval\s*\(`),
	regexp.MustCompile(`(?i)document\.`),
	regexp.MustCompile(`(?i)window\.`),
}

// Validator checks constitution service inputs. It is stateless and safe
// for concurrent use.
type Validator struct{}

func New() *Validator {
	return &Validator{}
}

func (v *Validator) ChapterNumber(n int) (int, error) {
	if n < 1 || n > MaxChapterNumber {
		return 0, newError("chapter number must be between 1 and %d, got: %d", MaxChapterNumber, n)
	}
	return n, nil
}

func (v *Validator) ArticleNumber(n int) (int, error) {
	if n < 1 || n > MaxArticleNumber {
		return 0, newError("article number must be between 1 and %d, got: %d", MaxArticleNumber, n)
	}
	return n, nil
}

// ArticleReference validates a "chapter.article" string and returns the
// parsed reference.
func (v *Validator) ArticleReference(ref string) (entity.Reference, error) {
	parts := strings.Split(ref, ".")
	if len(parts) != 2 {
		return entity.Reference{}, newError("invalid article reference format, expected \"chapter.article\", got: %s", ref)
	}
	ch, err := strconv.Atoi(parts[0])
	if err != nil {
		return entity.Reference{}, newError("invalid article reference: %s", ref)
	}
	art, err := strconv.Atoi(parts[1])
	if err != nil {
		return entity.Reference{}, newError("invalid article reference: %s", ref)
	}
	if _, err := v.ChapterNumber(ch); err != nil {
		return entity.Reference{}, newError("invalid article reference: %s", ref)
	}
	if _, err := v.ArticleNumber(art); err != nil {
		return entity.Reference{}, newError("invalid article reference: %s", ref)
	}
	return entity.Reference{Chapter: ch, Article: art}, nil
}

// SearchQuery trims, bounds-checks, and screens a raw query for injection
// patterns. Returns the trimmed query.
func (v *Validator) SearchQuery(query string) (string, error) {
	query = strings.TrimSpace(query)
	if len(query) < MinQueryLength {
		return "", newError("search query must be at least %d characters long", MinQueryLength)
	}
	if len(query) > MaxQueryLength {
		return "", newError("search query cannot exceed %d characters", MaxQueryLength)
	}
	for _, p := range suspiciousPatterns {
		if p.MatchString(query) {
			return "", newError("search query contains potentially malicious content")
		}
	}
	return query, nil
}

// Pagination validates limit/offset, substituting the default limit when
// zero is passed.
func (v *Validator) Pagination(limit, offset int) (int, int, error) {
	if limit < 0 || limit > MaxLimit {
		return 0, 0, newError("limit must be between 0 and %d", MaxLimit)
	}
	if offset < 0 || offset > MaxOffset {
		return 0, 0, newError("offset must be between 0 and %d", MaxOffset)
	}
	if limit == 0 {
		limit = 10
	}
	return limit, offset, nil
}

func (v *Validator) Timeframe(timeframe string) (string, error) {
	switch timeframe {
	case "daily", "weekly", "monthly":
		return timeframe, nil
	}
	return "", newError("invalid timeframe %q, must be one of: daily, weekly, monthly", timeframe)
}

// SearchFilters holds the hard exclusion predicates applied during the
// tree scan. Zero values mean "no filter".
type SearchFilters struct {
	Chapter int `json:"chapter,omitempty"`
	Article int `json:"article,omitempty"`
}

func (f *SearchFilters) IsZero() bool {
	return f == nil || (f.Chapter == 0 && f.Article == 0)
}

// Filters validates a filter set; nil filters pass through.
func (v *Validator) Filters(f *SearchFilters) (*SearchFilters, error) {
	if f.IsZero() {
		return nil, nil
	}
	out := &SearchFilters{}
	if f.Chapter != 0 {
		n, err := v.ChapterNumber(f.Chapter)
		if err != nil {
			return nil, err
		}
		out.Chapter = n
	}
	if f.Article != 0 {
		n, err := v.ArticleNumber(f.Article)
		if err != nil {
			return nil, err
		}
		out.Article = n
	}
	return out, nil
}
