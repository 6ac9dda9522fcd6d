package search

import (
	"context"
	"sort"
	"strings"

	"katiba-reader-be/internal/pkg/logger"
	"katiba-reader-be/pkg/cache"
	"katiba-reader-be/pkg/constitution/content"
	"katiba-reader-be/pkg/constitution/entity"
	"katiba-reader-be/pkg/constitution/validate"
)

const (
	// CacheKeyPrefix namespaces search result pages in the cache.
	CacheKeyPrefix = "constitution:search:"

	searchTTL = cache.Hour

	// substringBonus rewards the whole normalized query appearing verbatim.
	substringBonus = 0.5
	// termRatioWeight scales the matched-terms/total-terms ratio.
	termRatioWeight = 0.3
	// longTextPenalty dampens matches buried in very long passages.
	longTextPenalty   = 0.9
	longTextThreshold = 1000
)

// Per-type score multipliers: a hit on an article title is worth more
// than the same hit inside a sub-clause.
var typeWeights = map[string]float64{
	"article_title": 0.95,
	"chapter":       0.90,
	"part":          0.85,
	"preamble":      0.80,
	"clause":        0.70,
	"sub_clause":    0.60,
}

// Tie-break order when relevance scores are equal.
var typePriorities = map[string]int{
	"article_title": 0,
	"chapter":       1,
	"part":          2,
	"preamble":      3,
	"clause":        4,
	"sub_clause":    5,
}

// Result is a single scored match from the tree scan.
type Result struct {
	Type            string  `json:"type"`
	ChapterNumber   int     `json:"chapter_number,omitempty"`
	ChapterTitle    string  `json:"chapter_title,omitempty"`
	PartNumber      int     `json:"part_number,omitempty"`
	PartTitle       string  `json:"part_title,omitempty"`
	ArticleNumber   int     `json:"article_number,omitempty"`
	ClauseNumber    int     `json:"clause_number,omitempty"`
	SubClauseLetter string  `json:"sub_clause_letter,omitempty"`
	Reference       string  `json:"reference,omitempty"`
	Title           string  `json:"title,omitempty"`
	Content         string  `json:"content"`
	RelevanceScore  float64 `json:"relevance_score"`
	MatchContext    string  `json:"match_context,omitempty"`
}

// Pagination describes the returned page relative to the full result set.
type Pagination struct {
	TotalResults   int  `json:"total_results"`
	Limit          int  `json:"limit"`
	Offset         int  `json:"offset"`
	HasNext        bool `json:"has_next"`
	HasPrevious    bool `json:"has_previous"`
	NextOffset     *int `json:"next_offset,omitempty"`
	PreviousOffset *int `json:"previous_offset,omitempty"`
}

// QueryInfo echoes how the engine interpreted the query.
type QueryInfo struct {
	Original   string    `json:"original"`
	Normalized string    `json:"normalized"`
	Terms      []string  `json:"terms"`
	Type       QueryType `json:"type"`
	LegalTerms []string  `json:"legal_terms,omitempty"`
}

// Response is a full search page, the unit that gets cached.
type Response struct {
	Query      string     `json:"query"`
	Results    []Result   `json:"results"`
	Pagination Pagination `json:"pagination"`
	QueryInfo  QueryInfo  `json:"query_info"`
	Cached     bool       `json:"cached,omitempty"`
}

// Engine scans the constitution tree and ranks matches by relevance. The
// cache sits in front of the scan: identical query + parameters within the
// TTL never rescan.
type Engine struct {
	content     *content.Store
	processor   *QueryProcessor
	highlighter *Highlighter
	validator   *validate.Validator
	store       cache.Store
	log         logger.ILogger
}

func NewEngine(
	contentStore *content.Store,
	processor *QueryProcessor,
	highlighter *Highlighter,
	validator *validate.Validator,
	store cache.Store,
	log logger.ILogger,
) *Engine {
	return &Engine{
		content:     contentStore,
		processor:   processor,
		highlighter: highlighter,
		validator:   validator,
		store:       store,
		log:         log,
	}
}

// Search runs the full pipeline: normalize, cache check, tree scan, rank,
// paginate, highlight. An empty query yields an empty page, not an error.
// noCache bypasses both the read and the write, forcing a fresh scan.
func (e *Engine) Search(ctx context.Context, query string, filters *validate.SearchFilters, limit, offset int, highlight, noCache bool) (*Response, error) {
	if strings.TrimSpace(query) == "" {
		return emptyResponse(query), nil
	}

	normalized, err := e.processor.Normalize(query)
	if err != nil {
		return nil, err
	}
	filters, err = e.validator.Filters(filters)
	if err != nil {
		return nil, err
	}
	limit, offset, err = e.validator.Pagination(limit, offset)
	if err != nil {
		return nil, err
	}

	cacheKey := CacheKeyPrefix + e.processor.CacheHash(normalized, filters, limit, offset, highlight)
	if !noCache {
		var cached Response
		if e.store.Get(ctx, cacheKey, &cached) {
			cached.Cached = true
			return &cached, nil
		}
	}

	tree, err := e.content.Get(ctx)
	if err != nil {
		return nil, err
	}

	queryType := e.processor.Classify(query)
	spec := buildMatchSpec(query, normalized, queryType)
	results := e.scan(tree, spec, filters)

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].RelevanceScore != results[j].RelevanceScore {
			return results[i].RelevanceScore > results[j].RelevanceScore
		}
		return typePriorities[results[i].Type] < typePriorities[results[j].Type]
	})

	total := len(results)
	page := paginate(results, limit, offset)
	if highlight {
		e.highlighter.HighlightResults(page, spec.terms)
	} else {
		for i := range page {
			if page[i].MatchContext == "" {
				page[i].MatchContext = e.highlighter.ExtractContext(page[i].Content, spec.terms)
			}
		}
	}

	resp := &Response{
		Query:      query,
		Results:    page,
		Pagination: buildPagination(total, limit, offset),
		QueryInfo: QueryInfo{
			Original:   query,
			Normalized: normalized,
			Terms:      spec.terms,
			Type:       queryType,
			LegalTerms: e.processor.ExtractLegalTerms(query),
		},
	}

	e.log.Debug("search_engine", "search completed", map[string]interface{}{
		"query":   normalized,
		"type":    string(queryType),
		"results": total,
	})

	if !noCache {
		e.store.SetBackground(cacheKey, resp, searchTTL)
	}
	return resp, nil
}

// Suggestions offers spelling corrections and known legal phrases that
// complete the query. Returns at most ten entries.
func (e *Engine) Suggestions(ctx context.Context, query string) []string {
	query = strings.TrimSpace(query)
	if query == "" {
		return []string{}
	}

	suggestions := e.processor.SuggestCorrections(query)
	lower := strings.ToLower(query)
	for _, term := range legalTerms {
		if term != lower && strings.Contains(term, lower) {
			suggestions = append(suggestions, term)
		}
		if len(suggestions) >= 10 {
			break
		}
	}
	if suggestions == nil {
		return []string{}
	}
	return suggestions
}

// matchSpec is the compiled form of a query used during the scan.
type matchSpec struct {
	phrase    string
	terms     []string
	required  []string
	excluded  []string
	exactOnly bool
}

// buildMatchSpec derives the scan predicates. Boolean queries split into
// scored, required (+ or AND-adjacent), and excluded (- or NOT) terms;
// exact queries demand the full phrase verbatim.
func buildMatchSpec(raw, normalized string, queryType QueryType) matchSpec {
	spec := matchSpec{phrase: normalized}

	if queryType == QueryTypeBoolean {
		not := false
		for _, f := range strings.Fields(strings.ToLower(raw)) {
			switch f {
			case "and", "or":
				not = false
				continue
			case "not":
				not = true
				continue
			}
			term := strings.Trim(f, `"'.,;:!?`)
			switch {
			case strings.HasPrefix(term, "-"):
				term = strings.TrimPrefix(term, "-")
				if len(term) >= 2 {
					spec.excluded = append(spec.excluded, term)
				}
			case strings.HasPrefix(term, "+"):
				term = strings.TrimPrefix(term, "+")
				if len(term) >= 2 {
					spec.required = append(spec.required, term)
					spec.terms = append(spec.terms, term)
				}
			case not:
				if len(term) >= 2 {
					spec.excluded = append(spec.excluded, term)
				}
				not = false
			default:
				if len(term) >= 2 {
					spec.terms = append(spec.terms, term)
				}
			}
		}
		// Operators never contribute to the substring bonus.
		spec.phrase = ""
		return spec
	}

	spec.terms = extractTerms(normalized)
	if queryType == QueryTypeExact {
		spec.exactOnly = true
	}
	return spec
}

// score computes relevance for one text unit in [0, 1]. Zero means no
// match (or an excluded/missing-required term) and the unit is dropped.
func score(text string, spec matchSpec, resultType string) float64 {
	lower := strings.ToLower(text)

	for _, t := range spec.excluded {
		if strings.Contains(lower, t) {
			return 0
		}
	}
	for _, t := range spec.required {
		if !strings.Contains(lower, t) {
			return 0
		}
	}
	if spec.exactOnly && !strings.Contains(lower, spec.phrase) {
		return 0
	}

	s := 0.0
	if spec.phrase != "" && strings.Contains(lower, spec.phrase) {
		s += substringBonus
	}
	if len(spec.terms) > 0 {
		matched := 0
		for _, t := range spec.terms {
			if strings.Contains(lower, t) {
				matched++
			}
		}
		s += float64(matched) / float64(len(spec.terms)) * termRatioWeight
	}
	if s == 0 {
		return 0
	}

	s *= typeWeights[resultType]
	if len(text) > longTextThreshold {
		s *= longTextPenalty
	}
	if s > 1 {
		s = 1
	}
	return s
}

// scan walks the whole tree and scores every searchable unit. Filters are
// hard exclusions applied during the walk, before scoring.
func (e *Engine) scan(tree *entity.Constitution, spec matchSpec, filters *validate.SearchFilters) []Result {
	var results []Result
	chapterFilter, articleFilter := 0, 0
	if filters != nil {
		chapterFilter, articleFilter = filters.Chapter, filters.Article
	}

	if chapterFilter == 0 && articleFilter == 0 && tree.Preamble != "" {
		if s := score(tree.Preamble, spec, "preamble"); s > 0 {
			results = append(results, Result{
				Type:           "preamble",
				Title:          "Preamble",
				Content:        tree.Preamble,
				RelevanceScore: s,
			})
		}
	}

	for ci := range tree.Chapters {
		ch := &tree.Chapters[ci]
		if chapterFilter != 0 && ch.Number != chapterFilter {
			continue
		}

		if articleFilter == 0 {
			if s := score(ch.Title, spec, "chapter"); s > 0 {
				results = append(results, Result{
					Type:           "chapter",
					ChapterNumber:  ch.Number,
					Title:          ch.Title,
					Content:        ch.Title,
					RelevanceScore: s,
				})
			}
		}

		results = append(results, e.scanArticles(ch, 0, "", ch.Articles, spec, articleFilter)...)
		for pi := range ch.Parts {
			p := &ch.Parts[pi]
			if articleFilter == 0 {
				if s := score(p.Title, spec, "part"); s > 0 {
					results = append(results, Result{
						Type:           "part",
						ChapterNumber:  ch.Number,
						PartNumber:     p.Number,
						Title:          p.Title,
						Content:        p.Title,
						RelevanceScore: s,
					})
				}
			}
			results = append(results, e.scanArticles(ch, p.Number, p.Title, p.Articles, spec, articleFilter)...)
		}
	}

	return results
}

func (e *Engine) scanArticles(ch *entity.Chapter, partNumber int, partTitle string, articles []entity.Article, spec matchSpec, articleFilter int) []Result {
	var results []Result
	for ai := range articles {
		a := &articles[ai]
		if articleFilter != 0 && a.Number != articleFilter {
			continue
		}
		ref := entity.Reference{Chapter: ch.Number, Article: a.Number}.String()

		if s := score(a.Title, spec, "article_title"); s > 0 {
			results = append(results, Result{
				Type:           "article_title",
				ChapterNumber:  ch.Number,
				ChapterTitle:   ch.Title,
				PartNumber:     partNumber,
				PartTitle:      partTitle,
				ArticleNumber:  a.Number,
				Reference:      ref,
				Title:          a.Title,
				Content:        a.Title,
				RelevanceScore: s,
			})
		}

		for _, cl := range a.Clauses {
			if s := score(cl.Content, spec, "clause"); s > 0 {
				results = append(results, Result{
					Type:           "clause",
					ChapterNumber:  ch.Number,
					ChapterTitle:   ch.Title,
					PartNumber:     partNumber,
					ArticleNumber:  a.Number,
					ClauseNumber:   cl.Number,
					Reference:      ref,
					Title:          a.Title,
					Content:        cl.Content,
					RelevanceScore: s,
				})
			}
			for _, sc := range cl.SubClauses {
				if s := score(sc.Content, spec, "sub_clause"); s > 0 {
					results = append(results, Result{
						Type:            "sub_clause",
						ChapterNumber:   ch.Number,
						ChapterTitle:    ch.Title,
						PartNumber:      partNumber,
						ArticleNumber:   a.Number,
						ClauseNumber:    cl.Number,
						SubClauseLetter: sc.Letter,
						Reference:       ref,
						Title:           a.Title,
						Content:         sc.Content,
						RelevanceScore:  s,
					})
				}
			}
		}
	}
	return results
}

func paginate(results []Result, limit, offset int) []Result {
	if offset >= len(results) {
		return []Result{}
	}
	end := offset + limit
	if end > len(results) {
		end = len(results)
	}
	page := make([]Result, end-offset)
	copy(page, results[offset:end])
	return page
}

func buildPagination(total, limit, offset int) Pagination {
	p := Pagination{
		TotalResults: total,
		Limit:        limit,
		Offset:       offset,
		HasNext:      offset+limit < total,
		HasPrevious:  offset > 0,
	}
	if p.HasNext {
		next := offset + limit
		p.NextOffset = &next
	}
	if p.HasPrevious {
		prev := offset - limit
		if prev < 0 {
			prev = 0
		}
		p.PreviousOffset = &prev
	}
	return p
}

func emptyResponse(query string) *Response {
	return &Response{
		Query:   query,
		Results: []Result{},
		QueryInfo: QueryInfo{
			Original: query,
			Terms:    []string{},
			Type:     QueryTypeEmpty,
		},
	}
}
