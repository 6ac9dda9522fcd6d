package relations

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"katiba-reader-be/internal/pkg/logger"
	"katiba-reader-be/pkg/cache"
	"katiba-reader-be/pkg/constitution/content"
	"katiba-reader-be/pkg/constitution/entity"
	"katiba-reader-be/pkg/constitution/validate"
)

const (
	// RelationsCacheKeyPrefix namespaces every relationship result; reload
	// clears the whole namespace at once.
	RelationsCacheKeyPrefix = "constitution:relations:"

	// RelatedCacheKeyPrefix namespaces per-article relationship results.
	RelatedCacheKeyPrefix = RelationsCacheKeyPrefix + "related_articles:"
	// NetworkCacheKey holds the full article graph for visualizations.
	NetworkCacheKey = RelationsCacheKeyPrefix + "content_network"

	chapterRelationsCacheKeyPrefix = RelationsCacheKeyPrefix + "chapter_relationships:"

	relatedTTL          = 6 * cache.Hour
	networkTTL          = cache.Day
	chapterRelationsTTL = 6 * cache.Hour

	// maxRelated bounds how many relationships one article reports.
	maxRelated = 10

	sameChapterWeight   = 0.80
	explicitXrefWeight  = 0.95
	impliedXrefWeight   = 0.90
	themeThreshold      = 0.3
	keywordThreshold    = 0.2
	chapterXrefArticles = 3
)

var (
	xrefChapterArticleRe = regexp.MustCompile(`\b(\d+)\.(\d+)\b`)
	xrefArticleRe        = regexp.MustCompile(`(?i)\barticle\s+(\d+)\b`)
	xrefSectionRe        = regexp.MustCompile(`(?i)\bsection\s+(\d+)\b`)
	xrefChapterRe        = regexp.MustCompile(`(?i)\bchapter\s+(\d+)\b`)

	wordRe = regexp.MustCompile(`[a-z]+`)
)

// Constitutional themes and the keywords that signal them. Two articles
// sharing enough themes are related even without an explicit reference.
var themes = map[string][]string{
	"sovereignty":    {"sovereign", "sovereignty", "power", "authority", "republic", "national"},
	"rights":         {"rights", "freedom", "freedoms", "dignity", "equality", "discrimination"},
	"citizenship":    {"citizen", "citizenship", "birth", "registration", "passport"},
	"leadership":     {"leadership", "integrity", "ethics", "conduct", "accountability"},
	"representation": {"representation", "electoral", "election", "vote", "constituency", "referendum"},
	"legislature":    {"parliament", "assembly", "senate", "legislation", "speaker"},
	"executive":      {"president", "deputy", "cabinet", "executive", "minister"},
	"judiciary":      {"court", "courts", "judge", "judicial", "justice", "tribunal"},
	"devolution":     {"county", "counties", "devolution", "devolved", "governor"},
	"finance":        {"finance", "revenue", "taxation", "fund", "budget", "money"},
	"security":       {"security", "defence", "police", "military", "forces"},
	"land":           {"land", "property", "tenure", "environment", "resources"},
}

var keywordStopwords = map[string]bool{
	"this": true, "that": true, "with": true, "from": true, "shall": true,
	"have": true, "been": true, "were": true, "will": true, "their": true,
	"there": true, "which": true, "under": true, "upon": true, "into": true,
	"other": true, "such": true, "than": true, "them": true, "then": true,
	"when": true, "where": true, "every": true, "each": true, "must": true,
	"may": true, "any": true, "all": true, "the": true, "and": true,
	"for": true, "not": true, "including": true, "accordance": true,
	"provided": true, "subject": true, "person": true, "persons": true,
}

// Related is one edge out of an article, labelled with how the two
// articles connect and how strong the connection is.
type Related struct {
	Reference     string  `json:"reference"`
	ChapterNumber int     `json:"chapter_number"`
	ArticleNumber int     `json:"article_number"`
	Title         string  `json:"title"`
	Relationship  string  `json:"relationship"`
	Weight        float64 `json:"weight"`
}

// RelatedResponse is the cached unit for the related-articles operation.
type RelatedResponse struct {
	Reference       string    `json:"reference"`
	Title           string    `json:"title"`
	RelatedArticles []Related `json:"related_articles"`
	Total           int       `json:"total"`
}

// NetworkNode and NetworkEdge form the whole-document graph.
type NetworkNode struct {
	Reference     string `json:"reference"`
	ChapterNumber int    `json:"chapter_number"`
	ArticleNumber int    `json:"article_number"`
	Title         string `json:"title"`
}

type NetworkEdge struct {
	Source       string  `json:"source"`
	Target       string  `json:"target"`
	Relationship string  `json:"relationship"`
	Weight       float64 `json:"weight"`
}

type Network struct {
	Nodes []NetworkNode `json:"nodes"`
	Edges []NetworkEdge `json:"edges"`
}

// ChapterRelation summarizes how strongly two chapters connect.
type ChapterRelation struct {
	ChapterNumber   int      `json:"chapter_number"`
	Title           string   `json:"title"`
	SharedThemes    []string `json:"shared_themes"`
	CrossReferences int      `json:"cross_references"`
	Strength        float64  `json:"strength"`
}

type ChapterRelationsResponse struct {
	ChapterNumber   int               `json:"chapter_number"`
	Title           string            `json:"title"`
	RelatedChapters []ChapterRelation `json:"related_chapters"`
}

// Graph derives article relationships from the document tree on demand.
// Four strategies feed it: chapter co-location, thematic overlap, explicit
// cross-references in the text, and keyword overlap. Results are cached;
// the tree itself is never mutated.
type Graph struct {
	content   *content.Store
	validator *validate.Validator
	store     cache.Store
	log       logger.ILogger
}

func NewGraph(contentStore *content.Store, validator *validate.Validator, store cache.Store, log logger.ILogger) *Graph {
	return &Graph{
		content:   contentStore,
		validator: validator,
		store:     store,
		log:       log,
	}
}

// articleNode is the flattened scan unit: one article with its chapter
// context and precomputed lowercase text.
type articleNode struct {
	ref     entity.Reference
	chapter *entity.Chapter
	article *entity.Article
	text    string
}

func flatten(tree *entity.Constitution) []articleNode {
	var nodes []articleNode
	for ci := range tree.Chapters {
		ch := &tree.Chapters[ci]
		for _, a := range ch.AllArticles() {
			a := a
			nodes = append(nodes, articleNode{
				ref:     entity.Reference{Chapter: ch.Number, Article: a.Number},
				chapter: ch,
				article: &a,
				text:    strings.ToLower(a.Text()),
			})
		}
	}
	return nodes
}

// RelatedArticles returns up to ten articles related to ref, strongest
// first. When two strategies link the same pair, the stronger edge wins.
func (g *Graph) RelatedArticles(ctx context.Context, ref string) (*RelatedResponse, error) {
	parsed, err := g.validator.ArticleReference(ref)
	if err != nil {
		return nil, err
	}

	cacheKey := RelatedCacheKeyPrefix + parsed.String()
	var cached RelatedResponse
	if g.store.Get(ctx, cacheKey, &cached) {
		return &cached, nil
	}

	tree, err := g.content.Get(ctx)
	if err != nil {
		return nil, err
	}
	ch, article := tree.FindArticle(parsed)
	if article == nil {
		return nil, &validate.Error{Message: fmt.Sprintf("article not found: %s", ref)}
	}

	nodes := flatten(tree)
	source := articleNode{ref: parsed, chapter: ch, article: article, text: strings.ToLower(article.Text())}
	related := g.relate(source, nodes)

	resp := &RelatedResponse{
		Reference:       parsed.String(),
		Title:           article.Title,
		RelatedArticles: related,
		Total:           len(related),
	}
	g.store.SetBackground(cacheKey, resp, relatedTTL)
	return resp, nil
}

func (g *Graph) relate(source articleNode, nodes []articleNode) []Related {
	// Strategies run in fixed order; the dedupe below keeps the highest
	// weight when strategies disagree about the same pair.
	candidates := g.sameChapter(source, nodes)
	candidates = append(candidates, g.thematic(source, nodes)...)
	candidates = append(candidates, g.crossReferences(source, nodes)...)
	candidates = append(candidates, g.keywordSimilar(source, nodes)...)

	best := make(map[string]Related, len(candidates))
	for _, c := range candidates {
		if prev, ok := best[c.Reference]; !ok || c.Weight > prev.Weight {
			best[c.Reference] = c
		}
	}

	out := make([]Related, 0, len(best))
	for _, c := range best {
		out = append(out, c)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Weight != out[j].Weight {
			return out[i].Weight > out[j].Weight
		}
		return out[i].Reference < out[j].Reference
	})
	if len(out) > maxRelated {
		out = out[:maxRelated]
	}
	return out
}

func (g *Graph) sameChapter(source articleNode, nodes []articleNode) []Related {
	var out []Related
	for _, n := range nodes {
		if n.ref.Chapter != source.ref.Chapter || n.ref == source.ref {
			continue
		}
		out = append(out, toRelated(n, "same_chapter", sameChapterWeight))
	}
	return out
}

func (g *Graph) thematic(source articleNode, nodes []articleNode) []Related {
	sourceThemes := articleThemes(source.text)
	if len(sourceThemes) == 0 {
		return nil
	}
	var out []Related
	for _, n := range nodes {
		if n.ref == source.ref {
			continue
		}
		sim := jaccard(sourceThemes, articleThemes(n.text))
		if sim > themeThreshold {
			out = append(out, toRelated(n, "theme_similarity", round2(sim)))
		}
	}
	return out
}

// crossReferences parses explicit mentions out of the article's own text.
// A "chapter.article" mention is the strongest signal; a bare article or
// section number is resolved against the whole document; a bare chapter
// mention fans out to that chapter's first few articles.
func (g *Graph) crossReferences(source articleNode, nodes []articleNode) []Related {
	byNumber := make(map[int]articleNode)
	byRef := make(map[entity.Reference]articleNode)
	byChapter := make(map[int][]articleNode)
	for _, n := range nodes {
		if _, ok := byNumber[n.ref.Article]; !ok {
			byNumber[n.ref.Article] = n
		}
		byRef[n.ref] = n
		byChapter[n.ref.Chapter] = append(byChapter[n.ref.Chapter], n)
	}

	var out []Related
	add := func(n articleNode, weight float64) {
		if n.ref != source.ref {
			out = append(out, toRelated(n, "cross_reference", weight))
		}
	}

	for _, m := range xrefChapterArticleRe.FindAllStringSubmatch(source.text, -1) {
		ch, _ := strconv.Atoi(m[1])
		art, _ := strconv.Atoi(m[2])
		if n, ok := byRef[entity.Reference{Chapter: ch, Article: art}]; ok {
			add(n, explicitXrefWeight)
		}
	}
	for _, re := range []*regexp.Regexp{xrefArticleRe, xrefSectionRe} {
		for _, m := range re.FindAllStringSubmatch(source.text, -1) {
			num, _ := strconv.Atoi(m[1])
			if n, ok := byNumber[num]; ok {
				add(n, impliedXrefWeight)
			}
		}
	}
	for _, m := range xrefChapterRe.FindAllStringSubmatch(source.text, -1) {
		num, _ := strconv.Atoi(m[1])
		if num == source.ref.Chapter {
			continue
		}
		chapterNodes := byChapter[num]
		if len(chapterNodes) > chapterXrefArticles {
			chapterNodes = chapterNodes[:chapterXrefArticles]
		}
		for _, n := range chapterNodes {
			add(n, impliedXrefWeight)
		}
	}
	return out
}

func (g *Graph) keywordSimilar(source articleNode, nodes []articleNode) []Related {
	sourceWords := keywords(source.text)
	if len(sourceWords) == 0 {
		return nil
	}
	var out []Related
	for _, n := range nodes {
		if n.ref == source.ref {
			continue
		}
		sim := jaccard(sourceWords, keywords(n.text))
		if sim > keywordThreshold {
			out = append(out, toRelated(n, "keyword_similarity", round2(sim)))
		}
	}
	return out
}

// ContentNetwork builds the whole-document relationship graph. Expensive,
// so it caches for a day and the reload path clears it.
func (g *Graph) ContentNetwork(ctx context.Context) (*Network, error) {
	var cached Network
	if g.store.Get(ctx, NetworkCacheKey, &cached) {
		return &cached, nil
	}

	tree, err := g.content.Get(ctx)
	if err != nil {
		return nil, err
	}

	nodes := flatten(tree)
	network := &Network{
		Nodes: make([]NetworkNode, 0, len(nodes)),
		Edges: []NetworkEdge{},
	}
	for _, n := range nodes {
		network.Nodes = append(network.Nodes, NetworkNode{
			Reference:     n.ref.String(),
			ChapterNumber: n.ref.Chapter,
			ArticleNumber: n.ref.Article,
			Title:         n.article.Title,
		})
	}

	// One directed edge per (source, target) pair, highest weight wins.
	seen := make(map[string]int)
	for _, n := range nodes {
		for _, rel := range g.relate(n, nodes) {
			key := n.ref.String() + ">" + rel.Reference
			if idx, ok := seen[key]; ok {
				if rel.Weight > network.Edges[idx].Weight {
					network.Edges[idx].Relationship = rel.Relationship
					network.Edges[idx].Weight = rel.Weight
				}
				continue
			}
			seen[key] = len(network.Edges)
			network.Edges = append(network.Edges, NetworkEdge{
				Source:       n.ref.String(),
				Target:       rel.Reference,
				Relationship: rel.Relationship,
				Weight:       rel.Weight,
			})
		}
	}

	g.log.Info("relations_graph", "content network built", map[string]interface{}{
		"nodes": len(network.Nodes),
		"edges": len(network.Edges),
	})
	g.store.SetBackground(NetworkCacheKey, network, networkTTL)
	return network, nil
}

// ChapterRelationships reports which other chapters a chapter connects to,
// through shared themes and cross-references in its article text.
func (g *Graph) ChapterRelationships(ctx context.Context, chapterNumber int) (*ChapterRelationsResponse, error) {
	chapterNumber, err := g.validator.ChapterNumber(chapterNumber)
	if err != nil {
		return nil, err
	}

	cacheKey := fmt.Sprintf("%s%d", chapterRelationsCacheKeyPrefix, chapterNumber)
	var cached ChapterRelationsResponse
	if g.store.Get(ctx, cacheKey, &cached) {
		return &cached, nil
	}

	tree, err := g.content.Get(ctx)
	if err != nil {
		return nil, err
	}
	ch := tree.FindChapter(chapterNumber)
	if ch == nil {
		return nil, &validate.Error{Message: fmt.Sprintf("chapter not found: %d", chapterNumber)}
	}

	chapterText := func(c *entity.Chapter) string {
		var b strings.Builder
		b.WriteString(strings.ToLower(c.Title))
		for _, a := range c.AllArticles() {
			b.WriteString(" ")
			b.WriteString(strings.ToLower(a.Text()))
		}
		return b.String()
	}

	sourceText := chapterText(ch)
	sourceThemes := articleThemes(sourceText)

	resp := &ChapterRelationsResponse{
		ChapterNumber:   ch.Number,
		Title:           ch.Title,
		RelatedChapters: []ChapterRelation{},
	}

	for oi := range tree.Chapters {
		other := &tree.Chapters[oi]
		if other.Number == ch.Number {
			continue
		}

		otherThemes := articleThemes(chapterText(other))
		var shared []string
		for theme := range sourceThemes {
			if otherThemes[theme] {
				shared = append(shared, theme)
			}
		}
		sort.Strings(shared)

		xrefs := strings.Count(sourceText, fmt.Sprintf("chapter %d", other.Number))
		for _, a := range other.AllArticles() {
			xrefs += strings.Count(sourceText, fmt.Sprintf("%d.%d", other.Number, a.Number))
		}

		if len(shared) == 0 && xrefs == 0 {
			continue
		}
		strength := round2(jaccard(sourceThemes, otherThemes) + 0.1*float64(xrefs))
		if strength > 1 {
			strength = 1
		}
		resp.RelatedChapters = append(resp.RelatedChapters, ChapterRelation{
			ChapterNumber:   other.Number,
			Title:           other.Title,
			SharedThemes:    shared,
			CrossReferences: xrefs,
			Strength:        strength,
		})
	}

	sort.SliceStable(resp.RelatedChapters, func(i, j int) bool {
		return resp.RelatedChapters[i].Strength > resp.RelatedChapters[j].Strength
	})
	g.store.SetBackground(cacheKey, resp, chapterRelationsTTL)
	return resp, nil
}

func toRelated(n articleNode, relationship string, weight float64) Related {
	return Related{
		Reference:     n.ref.String(),
		ChapterNumber: n.ref.Chapter,
		ArticleNumber: n.ref.Article,
		Title:         n.article.Title,
		Relationship:  relationship,
		Weight:        weight,
	}
}

func articleThemes(text string) map[string]bool {
	found := make(map[string]bool)
	for theme, words := range themes {
		for _, w := range words {
			if strings.Contains(text, w) {
				found[theme] = true
				break
			}
		}
	}
	return found
}

func keywords(text string) map[string]bool {
	out := make(map[string]bool)
	for _, w := range wordRe.FindAllString(text, -1) {
		if len(w) > 3 && !keywordStopwords[w] {
			out[w] = true
		}
	}
	return out
}

func jaccard(a, b map[string]bool) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	intersection := 0
	for k := range a {
		if b[k] {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

func round2(f float64) float64 {
	return float64(int(f*100+0.5)) / 100
}
