package search

import (
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"katiba-reader-be/internal/pkg/logger"
)

// highlightTag wraps matched terms in result text. Markdown bold renders
// directly in the reader clients.
const highlightTag = "**"

// contextWindow is the size of the match_context snippet in characters.
const contextWindow = 200

var highlightStopwords = map[string]bool{
	"the": true, "and": true, "for": true, "are": true, "but": true,
	"not": true, "you": true, "all": true, "can": true, "had": true,
	"her": true, "was": true, "one": true, "our": true, "out": true,
	"has": true, "him": true, "his": true, "how": true, "its": true,
	"may": true, "who": true, "any": true, "this": true, "that": true,
	"with": true, "from": true, "they": true, "been": true, "have": true,
	"were": true, "will": true, "each": true, "such": true, "than": true,
	"them": true, "then": true, "when": true, "where": true, "which": true,
	"shall": true, "under": true, "upon": true, "into": true, "other": true,
}

// Highlighter wraps query terms in result text and extracts context
// snippets around the first match.
type Highlighter struct {
	log logger.ILogger
}

func NewHighlighter(log logger.ILogger) *Highlighter {
	return &Highlighter{log: log}
}

// Highlight wraps every occurrence of each term in highlight tags. Longer
// terms are applied first so a short term never splits a longer phrase
// that was already wrapped; occurrences inside an existing tag are left
// alone. Stopwords and single characters are never highlighted.
func (h *Highlighter) Highlight(text string, terms []string) string {
	if text == "" || len(terms) == 0 {
		return text
	}

	sorted := append([]string(nil), terms...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return len(sorted[i]) > len(sorted[j])
	})

	for _, term := range sorted {
		if len(term) < 2 || highlightStopwords[strings.ToLower(term)] {
			continue
		}
		re, err := regexp.Compile(`(?i)` + regexp.QuoteMeta(term))
		if err != nil {
			continue
		}
		text = wrapMatches(text, re)
	}
	return text
}

func wrapMatches(text string, re *regexp.Regexp) string {
	locs := re.FindAllStringIndex(text, -1)
	if len(locs) == 0 {
		return text
	}

	var b strings.Builder
	b.Grow(len(text) + len(locs)*2*len(highlightTag))
	last := 0
	for _, loc := range locs {
		if loc[0] < last || insideTag(text, loc[0]) {
			continue
		}
		b.WriteString(text[last:loc[0]])
		b.WriteString(highlightTag)
		b.WriteString(text[loc[0]:loc[1]])
		b.WriteString(highlightTag)
		last = loc[1]
	}
	b.WriteString(text[last:])
	return b.String()
}

// insideTag reports whether pos falls between an opening and closing
// highlight tag. An odd number of tags before pos means we are inside one.
func insideTag(text string, pos int) bool {
	return strings.Count(text[:pos], highlightTag)%2 == 1
}

// ExtractContext returns a window of text centered on the first term
// match, with ellipses marking truncated ends. When no term matches, the
// head of the text is returned instead.
func (h *Highlighter) ExtractContext(text string, terms []string) string {
	if text == "" {
		return ""
	}

	lower := strings.ToLower(text)
	matchPos := -1
	for _, term := range terms {
		if len(term) < 2 {
			continue
		}
		if pos := strings.Index(lower, strings.ToLower(term)); pos >= 0 {
			if matchPos < 0 || pos < matchPos {
				matchPos = pos
			}
		}
	}

	if matchPos < 0 {
		if len(text) <= contextWindow {
			return text
		}
		return text[:runeBoundary(text, contextWindow)] + "..."
	}

	start := matchPos - contextWindow/2
	if start < 0 {
		start = 0
	}
	end := start + contextWindow
	if end > len(text) {
		end = len(text)
		if start = end - contextWindow; start < 0 {
			start = 0
		}
	}
	start = runeBoundary(text, start)
	end = runeBoundary(text, end)

	snippet := text[start:end]
	if start > 0 {
		snippet = "..." + snippet
	}
	if end < len(text) {
		snippet = snippet + "..."
	}
	return snippet
}

// runeBoundary walks i back to the nearest rune start so window edges
// never split a multi-byte character.
func runeBoundary(text string, i int) int {
	for i > 0 && i < len(text) && !utf8.RuneStart(text[i]) {
		i--
	}
	return i
}

// HighlightResults decorates a page of results in place: titles and
// content get highlight tags, and match_context is backfilled from the
// original (untagged) content when the scanner left it empty.
func (h *Highlighter) HighlightResults(results []Result, terms []string) {
	for i := range results {
		if results[i].MatchContext == "" {
			results[i].MatchContext = h.ExtractContext(results[i].Content, terms)
		}
		results[i].MatchContext = h.Highlight(results[i].MatchContext, terms)
		results[i].Title = h.Highlight(results[i].Title, terms)
		results[i].Content = h.Highlight(results[i].Content, terms)
	}
}
