package dto

import "time"

type SearchRequest struct {
	Query     string `query:"q" validate:"required"`
	Chapter   int    `query:"chapter" validate:"omitempty,min=1"`
	Article   int    `query:"article" validate:"omitempty,min=1"`
	Limit     int    `query:"limit" validate:"omitempty,min=1,max=1000"`
	Offset    int    `query:"offset" validate:"omitempty,min=0"`
	Highlight bool   `query:"highlight"`
	NoCache   bool   `query:"no_cache"`
}

type SuggestionsResponse struct {
	Query       string   `json:"query"`
	Suggestions []string `json:"suggestions"`
}

type TrackViewRequest struct {
	ContentType string `json:"content_type" validate:"required,oneof=chapter article search overview"`
	Reference   string `json:"reference" validate:"required,max=20"`
	UserID      string `json:"user_id" validate:"omitempty,uuid"`
}

// ViewTrackedMessage is the event payload carried on the view topic.
type ViewTrackedMessage struct {
	ContentType string    `json:"content_type"`
	Reference   string    `json:"reference"`
	UserID      string    `json:"user_id,omitempty"`
	ViewedAt    time.Time `json:"viewed_at"`
}

type PopularArticle struct {
	Reference     string `json:"reference"`
	ChapterNumber int    `json:"chapter_number"`
	ArticleNumber int    `json:"article_number"`
	Title         string `json:"title"`
	ViewCount     int64  `json:"view_count"`
}

type PopularArticlesResponse struct {
	Timeframe string           `json:"timeframe"`
	Articles  []PopularArticle `json:"articles"`
}

type UpdateProgressRequest struct {
	Reference   string `json:"reference" validate:"required,max=20"`
	IsCompleted bool   `json:"is_completed"`
}

type ProgressEntry struct {
	Reference     string    `json:"reference"`
	ChapterNumber int       `json:"chapter_number"`
	ArticleNumber int       `json:"article_number"`
	IsCompleted   bool      `json:"is_completed"`
	ReadAt        time.Time `json:"read_at"`
}

type ProgressResponse struct {
	Entries []ProgressEntry `json:"entries"`
	Total   int64           `json:"total"`
}

type CreateBookmarkRequest struct {
	Reference string `json:"reference" validate:"required,max=20"`
	Title     string `json:"title" validate:"omitempty,max=200"`
	Note      string `json:"note" validate:"omitempty,max=2000"`
}

type BookmarkEntry struct {
	Reference string    `json:"reference"`
	Title     string    `json:"title,omitempty"`
	Note      string    `json:"note,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type BookmarksResponse struct {
	Bookmarks []BookmarkEntry `json:"bookmarks"`
	Total     int             `json:"total"`
}
