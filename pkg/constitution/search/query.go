package search

import (
	"crypto/md5"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"katiba-reader-be/internal/pkg/logger"
	"katiba-reader-be/pkg/constitution/entity"
	"katiba-reader-be/pkg/constitution/validate"
)

// QueryType classifies a raw query before scanning.
type QueryType string

const (
	QueryTypeExact   QueryType = "exact"
	QueryTypeBoolean QueryType = "boolean"
	QueryTypePhrase  QueryType = "phrase"
	QueryTypeKeyword QueryType = "keyword"
	QueryTypeEmpty   QueryType = "empty"
)

var (
	whitespaceRe  = regexp.MustCompile(`\s+`)
	punctuationRe = regexp.MustCompile(`[^\w\s\-']`)

	articleRefRe        = regexp.MustCompile(`(?i)\barticle\s+(\d+)\b`)
	chapterRefRe        = regexp.MustCompile(`(?i)\bchapter\s+(\d+)\b`)
	chapterArticleRefRe = regexp.MustCompile(`\b(\d+)\.(\d+)\b`)
)

// Canonical spelling variants and Swahili synonyms folded into one form so
// "katiba" and "constitution" hit the same cache entry and content.
var queryVariants = map[string]string{
	"katiba":    "constitution",
	"serikali":  "government",
	"bunge":     "parliament",
	"rais":      "president",
	"haki":      "rights",
	"uhuru":     "freedom",
	"mwananchi": "citizen",
	"sheria":    "law",
	"mahakama":  "court",
	"uchaguzi":  "election",
}

var misspellings = map[string]string{
	"constution":  "constitution",
	"constituton": "constitution",
	"goverment":   "government",
	"govenment":   "government",
	"parliment":   "parliament",
	"parlimant":   "parliament",
	"presedent":   "president",
	"presidente":  "president",
	"rigths":      "rights",
	"rihts":       "rights",
	"citezen":     "citizen",
	"citicen":     "citizen",
	"electon":     "election",
	"elecction":   "election",
	"judical":     "judicial",
	"judicary":    "judiciary",
}

// Multi-word legal phrases recognized for query analysis.
var legalTerms = []string{
	"fundamental rights", "bill of rights", "human rights",
	"due process", "equal protection", "rule of law",
	"separation of powers", "checks and balances",
	"judicial review", "constitutional amendment",
	"devolution", "county government", "national government",
	"parliament", "national assembly", "senate",
	"executive", "president", "deputy president",
	"cabinet", "attorney general", "director of public prosecutions",
	"judiciary", "chief justice", "supreme court",
	"high court", "court of appeal", "subordinate courts",
	"commission", "independent office", "constitutional commission",
	"elections", "electoral commission", "constituency",
	"referendum", "constitutional convention",
	"citizenship", "naturalization", "statelessness",
	"land tenure", "compulsory acquisition", "compensation",
	"environment", "natural resources", "sustainable development",
	"public finance", "consolidated fund", "taxation",
	"public debt", "equitable sharing", "revenue allocation",
}

// QueryProcessor normalizes, classifies, and extracts structure from raw
// search queries, and derives the deterministic cache key suffix.
type QueryProcessor struct {
	validator *validate.Validator
	log       logger.ILogger
}

func NewQueryProcessor(validator *validate.Validator, log logger.ILogger) *QueryProcessor {
	return &QueryProcessor{
		validator: validator,
		log:       log,
	}
}

// Normalize validates the raw query, lowercases it, collapses whitespace,
// strips punctuation (word chars, hyphen, and apostrophe survive), and
// folds known variants into canonical forms.
func (p *QueryProcessor) Normalize(query string) (string, error) {
	query, err := p.validator.SearchQuery(query)
	if err != nil {
		return "", err
	}

	normalized := strings.ToLower(strings.TrimSpace(query))
	normalized = whitespaceRe.ReplaceAllString(normalized, " ")
	normalized = punctuationRe.ReplaceAllString(normalized, " ")
	normalized = whitespaceRe.ReplaceAllString(normalized, " ")

	for variant, canonical := range queryVariants {
		if strings.Contains(normalized, variant) {
			normalized = strings.ReplaceAll(normalized, variant, canonical)
		}
	}

	return strings.TrimSpace(normalized), nil
}

// ExtractTerms splits a normalized query on whitespace and drops terms
// shorter than two characters.
func (p *QueryProcessor) ExtractTerms(normalized string) []string {
	return extractTerms(normalized)
}

func extractTerms(normalized string) []string {
	fields := strings.Fields(normalized)
	terms := make([]string, 0, len(fields))
	for _, f := range fields {
		if len(f) >= 2 {
			terms = append(terms, f)
		}
	}
	return terms
}

// Classify determines the query type from the RAW query: exact when fully
// quoted, boolean when it carries operators, phrase when multi-word,
// keyword otherwise.
func (p *QueryProcessor) Classify(query string) QueryType {
	query = strings.TrimSpace(query)
	if query == "" {
		return QueryTypeEmpty
	}
	if len(query) >= 2 {
		if (strings.HasPrefix(query, `"`) && strings.HasSuffix(query, `"`)) ||
			(strings.HasPrefix(query, "'") && strings.HasSuffix(query, "'")) {
			return QueryTypeExact
		}
	}
	upper := strings.ToUpper(query)
	for _, op := range []string{" AND ", " OR ", " NOT "} {
		if strings.Contains(upper, op) {
			return QueryTypeBoolean
		}
	}
	fields := strings.Fields(query)
	if len(fields) > 1 {
		for _, f := range fields {
			if len(f) > 1 && (f[0] == '+' || f[0] == '-') {
				return QueryTypeBoolean
			}
		}
	}
	if len(fields) > 1 {
		return QueryTypePhrase
	}
	return QueryTypeKeyword
}

// ExtractReferences pulls article/chapter mentions out of a query. A zero
// chapter or article is the "any" sentinel for bare mentions; resolution
// against the tree is best-effort and must not over-trust these.
func (p *QueryProcessor) ExtractReferences(query string) []entity.Reference {
	var refs []entity.Reference

	for _, m := range articleRefRe.FindAllStringSubmatch(query, -1) {
		if n, err := strconv.Atoi(m[1]); err == nil {
			refs = append(refs, entity.Reference{Chapter: 0, Article: n})
		}
	}
	for _, m := range chapterArticleRefRe.FindAllStringSubmatch(query, -1) {
		ch, err1 := strconv.Atoi(m[1])
		art, err2 := strconv.Atoi(m[2])
		if err1 == nil && err2 == nil {
			refs = append(refs, entity.Reference{Chapter: ch, Article: art})
		}
	}
	for _, m := range chapterRefRe.FindAllStringSubmatch(query, -1) {
		if n, err := strconv.Atoi(m[1]); err == nil {
			refs = append(refs, entity.Reference{Chapter: n, Article: 0})
		}
	}

	return refs
}

// ExtractLegalTerms returns the known legal phrases present in the query.
func (p *QueryProcessor) ExtractLegalTerms(query string) []string {
	lower := strings.ToLower(query)
	var found []string
	for _, term := range legalTerms {
		if strings.Contains(lower, term) {
			found = append(found, term)
		}
	}
	return found
}

// SuggestCorrections returns the query with known misspellings fixed, or
// nothing when no word matched the correction table.
func (p *QueryProcessor) SuggestCorrections(query string) []string {
	words := strings.Fields(strings.ToLower(query))
	corrected := make([]string, len(words))
	changed := false
	for i, w := range words {
		if fix, ok := misspellings[w]; ok {
			corrected[i] = fix
			changed = true
		} else {
			corrected[i] = w
		}
	}
	if !changed {
		return nil
	}
	return []string{strings.Join(corrected, " ")}
}

// CacheHash derives the deterministic cache key suffix for a search. The
// same normalized query + parameters always map to the same entry.
func (p *QueryProcessor) CacheHash(normalized string, filters *validate.SearchFilters, limit, offset int, highlight bool) string {
	filtersStr := "none"
	if !filters.IsZero() {
		if data, err := json.Marshal(filters); err == nil {
			filtersStr = string(data)
		}
	}
	params := fmt.Sprintf("%s:%s:%d:%d:%t", normalized, filtersStr, limit, offset, highlight)
	return fmt.Sprintf("%x", md5.Sum([]byte(params)))
}

// ComplexityAnalysis describes a query for the query_info response block.
type ComplexityAnalysis struct {
	Length          int       `json:"length"`
	WordCount       int       `json:"word_count"`
	QueryType       QueryType `json:"query_type"`
	HasArticleRefs  bool      `json:"has_article_references"`
	HasLegalTerms   bool      `json:"has_legal_terms"`
	ComplexityScore int       `json:"complexity_score"`
}

// AnalyzeComplexity scores a query's structure; higher means the query
// carries more searchable signal.
func (p *QueryProcessor) AnalyzeComplexity(query string) ComplexityAnalysis {
	a := ComplexityAnalysis{
		Length:         len(query),
		WordCount:      len(strings.Fields(query)),
		QueryType:      p.Classify(query),
		HasArticleRefs: len(p.ExtractReferences(query)) > 0,
		HasLegalTerms:  len(p.ExtractLegalTerms(query)) > 0,
	}

	score := 0
	switch {
	case a.Length > 100:
		score += 2
	case a.Length > 50:
		score++
	}
	switch {
	case a.WordCount > 10:
		score += 2
	case a.WordCount > 5:
		score++
	}
	switch a.QueryType {
	case QueryTypeBoolean:
		score += 3
	case QueryTypePhrase:
		score += 2
	case QueryTypeExact:
		score++
	}
	if a.HasArticleRefs {
		score++
	}
	if a.HasLegalTerms {
		score++
	}
	a.ComplexityScore = score
	return a
}
