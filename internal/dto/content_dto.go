package dto

import "katiba-reader-be/pkg/constitution/entity"

type ChapterSummary struct {
	ChapterNumber int    `json:"chapter_number"`
	Title         string `json:"title"`
	ArticleCount  int    `json:"article_count"`
}

type OverviewResponse struct {
	Title    string            `json:"title"`
	Preamble string            `json:"preamble,omitempty"`
	Stats    entity.Statistics `json:"stats"`
	Chapters []ChapterSummary  `json:"chapters"`
}

type ChapterResponse struct {
	Chapter       entity.Chapter `json:"chapter"`
	TotalArticles int            `json:"total_articles"`
}

type ArticleResponse struct {
	Reference     string         `json:"reference"`
	ChapterNumber int            `json:"chapter_number"`
	ChapterTitle  string         `json:"chapter_title"`
	Article       entity.Article `json:"article"`
}

type ReloadResponse struct {
	Reloaded    bool              `json:"reloaded"`
	ClearedKeys int               `json:"cleared_keys"`
	Stats       entity.Statistics `json:"stats"`
}
