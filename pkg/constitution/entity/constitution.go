package entity

import (
	"fmt"
	"strconv"
	"strings"
)

// Constitution is the in-memory document tree. It is parsed and validated
// once per load and treated as immutable afterwards; readers must never
// mutate it (see content.Store for the reload discipline).
type Constitution struct {
	Title    string    `json:"title"`
	Preamble string    `json:"preamble"`
	Chapters []Chapter `json:"chapters"`
}

type Chapter struct {
	Number   int       `json:"chapter_number"`
	Title    string    `json:"chapter_title"`
	Parts    []Part    `json:"parts,omitempty"`
	Articles []Article `json:"articles,omitempty"`
}

type Part struct {
	Number   int       `json:"part_number"`
	Title    string    `json:"part_title"`
	Articles []Article `json:"articles"`
}

type Article struct {
	Number  int      `json:"article_number"`
	Title   string   `json:"article_title"`
	Clauses []Clause `json:"clauses"`
}

type Clause struct {
	Number     int         `json:"clause_number"`
	Content    string      `json:"content"`
	SubClauses []SubClause `json:"sub_clauses,omitempty"`
}

type SubClause struct {
	Letter  string `json:"letter"`
	Content string `json:"content"`
}

// Reference is the canonical address of an article, "<chapter>.<article>".
// A zero chapter or article acts as an "any" sentinel produced by the
// best-effort regex extractors; resolvers must treat those as fuzzy.
type Reference struct {
	Chapter int
	Article int
}

func (r Reference) String() string {
	return fmt.Sprintf("%d.%d", r.Chapter, r.Article)
}

// ParseReference parses a "<chapter>.<article>" string.
func ParseReference(s string) (Reference, error) {
	parts := strings.Split(s, ".")
	if len(parts) != 2 {
		return Reference{}, fmt.Errorf("invalid article reference %q: expected \"chapter.article\"", s)
	}
	ch, err := strconv.Atoi(parts[0])
	if err != nil {
		return Reference{}, fmt.Errorf("invalid chapter in reference %q", s)
	}
	art, err := strconv.Atoi(parts[1])
	if err != nil {
		return Reference{}, fmt.Errorf("invalid article in reference %q", s)
	}
	return Reference{Chapter: ch, Article: art}, nil
}

// FindChapter returns the chapter with the given number, or nil.
func (c *Constitution) FindChapter(number int) *Chapter {
	for i := range c.Chapters {
		if c.Chapters[i].Number == number {
			return &c.Chapters[i]
		}
	}
	return nil
}

// FindArticle resolves a reference to its chapter and article, or (nil, nil).
func (c *Constitution) FindArticle(ref Reference) (*Chapter, *Article) {
	ch := c.FindChapter(ref.Chapter)
	if ch == nil {
		return nil, nil
	}
	if a := ch.FindArticle(ref.Article); a != nil {
		return ch, a
	}
	return nil, nil
}

// AllArticles returns the chapter's articles in document order, flattening
// parts when the chapter uses the parts structure.
func (ch *Chapter) AllArticles() []Article {
	if len(ch.Parts) == 0 {
		return ch.Articles
	}
	out := make([]Article, 0, len(ch.Articles))
	out = append(out, ch.Articles...)
	for _, p := range ch.Parts {
		out = append(out, p.Articles...)
	}
	return out
}

func (ch *Chapter) FindArticle(number int) *Article {
	for i := range ch.Articles {
		if ch.Articles[i].Number == number {
			return &ch.Articles[i]
		}
	}
	for pi := range ch.Parts {
		for i := range ch.Parts[pi].Articles {
			if ch.Parts[pi].Articles[i].Number == number {
				return &ch.Parts[pi].Articles[i]
			}
		}
	}
	return nil
}

// Text concatenates the article title, clause and sub-clause content.
// Relationship scoring treats this as the article's full text.
func (a *Article) Text() string {
	var b strings.Builder
	b.WriteString(a.Title)
	for _, cl := range a.Clauses {
		b.WriteString(" ")
		b.WriteString(cl.Content)
		for _, sc := range cl.SubClauses {
			b.WriteString(" ")
			b.WriteString(sc.Content)
		}
	}
	return b.String()
}

// Statistics summarizes the tree. Used by the content endpoints and logs.
type Statistics struct {
	TotalChapters   int    `json:"total_chapters"`
	TotalArticles   int    `json:"total_articles"`
	TotalClauses    int    `json:"total_clauses"`
	TotalSubClauses int    `json:"total_sub_clauses"`
	HasPreamble     bool   `json:"has_preamble"`
	PreambleLength  int    `json:"preamble_length"`
	Title           string `json:"title"`
}

func (c *Constitution) Stats() Statistics {
	s := Statistics{
		TotalChapters:  len(c.Chapters),
		HasPreamble:    c.Preamble != "",
		PreambleLength: len(c.Preamble),
		Title:          c.Title,
	}
	for _, ch := range c.Chapters {
		for _, a := range ch.AllArticles() {
			s.TotalArticles++
			s.TotalClauses += len(a.Clauses)
			for _, cl := range a.Clauses {
				s.TotalSubClauses += len(cl.SubClauses)
			}
		}
	}
	return s
}
