package content

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"katiba-reader-be/internal/pkg/logger"
	"katiba-reader-be/pkg/cache"
	"katiba-reader-be/pkg/constitution/entity"
	"katiba-reader-be/pkg/constitution/validate"
)

const (
	// OverviewCacheKey is deleted explicitly on reload; everything else
	// expires by TTL.
	OverviewCacheKey = "constitution:overview"

	overviewTTL = 6 * cache.Hour
)

// MalformedDocumentError reports a structurally invalid constitution file:
// missing required fields, duplicate chapter numbers, or a chapter
// collection that is not a list.
type MalformedDocumentError struct {
	Reason string
}

func (e *MalformedDocumentError) Error() string {
	return "malformed constitution document: " + e.Reason
}

func malformed(format string, args ...interface{}) error {
	return &MalformedDocumentError{Reason: fmt.Sprintf(format, args...)}
}

// Store loads, validates, and hot-reloads the constitution tree from its
// backing JSON file. The tree is immutable per load generation: Reload
// parses a whole new tree and swaps the pointer atomically, so concurrent
// readers only ever see a complete generation (possibly one reload behind).
type Store struct {
	filePath string
	store    cache.Store
	log      logger.ILogger

	tree         atomic.Pointer[entity.Constitution]
	reloadMu     sync.Mutex // serializes load-and-swap; readers never take it
	fileModified atomic.Int64
	lastLoadedAt atomic.Int64
}

func NewStore(filePath string, store cache.Store, log logger.ILogger) *Store {
	return &Store{
		filePath: filePath,
		store:    store,
		log:      log,
	}
}

// Get returns the current tree, loading from disk first if nothing is
// loaded yet or the backing file changed since the last load.
func (s *Store) Get(ctx context.Context) (*entity.Constitution, error) {
	if tree := s.tree.Load(); tree != nil && !s.IsStale() {
		return tree, nil
	}
	return s.load()
}

// IsStale reports whether the backing file has been modified since the
// last successful load.
func (s *Store) IsStale() bool {
	return s.fileMTime() > s.fileModified.Load()
}

// Reload clears the cached overview, re-parses the file, and swaps the
// tree. A previously loaded tree keeps serving requests if reload fails.
func (s *Store) Reload(ctx context.Context) (*entity.Constitution, error) {
	s.store.Delete(ctx, OverviewCacheKey)
	return s.load()
}

// LastLoadedAt returns when the tree was last loaded from disk, or the
// zero time if nothing has been loaded.
func (s *Store) LastLoadedAt() time.Time {
	n := s.lastLoadedAt.Load()
	if n == 0 {
		return time.Time{}
	}
	return time.Unix(0, n)
}

func (s *Store) load() (*entity.Constitution, error) {
	s.reloadMu.Lock()
	defer s.reloadMu.Unlock()

	// Another request may have finished the same reload while we waited.
	if tree := s.tree.Load(); tree != nil && !s.IsStale() {
		return tree, nil
	}

	tree, err := s.parseFile()
	if err != nil {
		s.log.Error("content_store", "failed to load constitution data", map[string]interface{}{
			"file":  s.filePath,
			"error": err.Error(),
		})
		// A stale-but-valid tree keeps serving until the file is fixed.
		if prev := s.tree.Load(); prev != nil {
			return prev, err
		}
		return nil, err
	}

	s.tree.Store(tree)
	s.fileModified.Store(s.fileMTime())
	s.lastLoadedAt.Store(time.Now().UnixNano())

	stats := tree.Stats()
	s.log.Info("content_store", "constitution data loaded", map[string]interface{}{
		"file":     s.filePath,
		"chapters": stats.TotalChapters,
		"articles": stats.TotalArticles,
	})

	s.store.SetBackground(OverviewCacheKey, tree, overviewTTL)
	return tree, nil
}

func (s *Store) parseFile() (*entity.Constitution, error) {
	data, err := os.ReadFile(s.filePath)
	if err != nil {
		return nil, fmt.Errorf("constitution data file not readable at %s: %w", s.filePath, err)
	}

	var tree entity.Constitution
	if err := json.Unmarshal(data, &tree); err != nil {
		return nil, malformed("invalid JSON: %v", err)
	}
	if err := validateTree(&tree); err != nil {
		return nil, err
	}
	return &tree, nil
}

func validateTree(tree *entity.Constitution) error {
	if tree.Title == "" {
		return malformed("missing required field: title")
	}
	if tree.Chapters == nil {
		return malformed("missing required field: chapters")
	}
	seen := make(map[int]bool, len(tree.Chapters))
	for i, ch := range tree.Chapters {
		if ch.Number == 0 {
			return malformed("chapter %d missing chapter_number", i+1)
		}
		if ch.Number < 1 || ch.Number > validate.MaxChapterNumber {
			return malformed("chapter_number %d out of range 1..%d", ch.Number, validate.MaxChapterNumber)
		}
		if ch.Title == "" {
			return malformed("chapter %d missing chapter_title", ch.Number)
		}
		if seen[ch.Number] {
			return malformed("duplicate chapter number: %d", ch.Number)
		}
		seen[ch.Number] = true
	}
	return nil
}

// FileInfo describes the backing file for diagnostics endpoints.
type FileInfo struct {
	FilePath     string `json:"file_path"`
	FileSize     int64  `json:"file_size,omitempty"`
	FileModified string `json:"file_modified,omitempty"`
	FileExists   bool   `json:"file_exists"`
	LastLoaded   string `json:"last_loaded,omitempty"`
}

func (s *Store) FileInfo() FileInfo {
	info := FileInfo{FilePath: s.filePath}
	st, err := os.Stat(s.filePath)
	if err != nil {
		return info
	}
	info.FileExists = true
	info.FileSize = st.Size()
	info.FileModified = st.ModTime().Format(time.RFC3339)
	if t := s.LastLoadedAt(); !t.IsZero() {
		info.LastLoaded = t.Format(time.RFC3339)
	}
	return info
}

// IntegrityReport is the result of a full structural validation pass.
type IntegrityReport struct {
	Valid    bool              `json:"valid"`
	Errors   []string          `json:"errors"`
	Warnings []string          `json:"warnings"`
	Stats    entity.Statistics `json:"stats"`
}

// ValidateIntegrity re-checks the currently loaded tree and reports every
// problem instead of stopping at the first.
func (s *Store) ValidateIntegrity(ctx context.Context) IntegrityReport {
	report := IntegrityReport{Errors: []string{}, Warnings: []string{}}
	tree, err := s.Get(ctx)
	if err != nil {
		report.Errors = append(report.Errors, err.Error())
		return report
	}

	if tree.Title == "" {
		report.Errors = append(report.Errors, "missing required field: title")
	}
	seen := make(map[int]bool)
	for _, ch := range tree.Chapters {
		if seen[ch.Number] {
			report.Errors = append(report.Errors, fmt.Sprintf("duplicate chapter number: %d", ch.Number))
		}
		seen[ch.Number] = true
		if len(ch.AllArticles()) == 0 {
			report.Warnings = append(report.Warnings, fmt.Sprintf("chapter %d has no articles", ch.Number))
		}
	}

	report.Stats = tree.Stats()
	report.Valid = len(report.Errors) == 0
	return report
}

func (s *Store) fileMTime() int64 {
	st, err := os.Stat(s.filePath)
	if err != nil {
		return 0
	}
	return st.ModTime().UnixNano()
}
