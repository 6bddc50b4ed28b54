// Package static provides an in-memory versification module source. It
// backs tests and programmatic setups where no module files are installed;
// production deployments usually load the same data from module description
// XML instead.
package static

import (
	"context"
	"sort"

	"github.com/FocuswithJustin/CedarBible/core/errors"
	"github.com/FocuswithJustin/CedarBible/core/versification"
)

// Source is a versification.ModuleSource built from literal data.
type Source struct {
	translations []versification.Translation
	counts       map[string]map[string][]int // translation id -> book -> verse counts
	bookOrder    map[string][]string         // translation id -> insertion order
}

// New returns an empty source. Populate it with AddTranslation and
// SetBookCounts before handing it to versification.Build.
func New() *Source {
	return &Source{
		counts:    make(map[string]map[string][]int),
		bookOrder: make(map[string][]string),
	}
}

// AddTranslation registers one translation and the scheme name it reports.
func (s *Source) AddTranslation(id, name, language, schemeName string) *Source {
	s.translations = append(s.translations, versification.Translation{
		ID:         id,
		Name:       name,
		Language:   language,
		SchemeName: schemeName,
	})
	return s
}

// SetBookCounts records per-chapter verse counts for one book of one
// translation. Books keep their insertion order.
func (s *Source) SetBookCounts(translationID, book string, verseCounts []int) *Source {
	byBook, ok := s.counts[translationID]
	if !ok {
		byBook = make(map[string][]int)
		s.counts[translationID] = byBook
	}
	if _, exists := byBook[book]; !exists {
		s.bookOrder[translationID] = append(s.bookOrder[translationID], book)
	}
	copied := make([]int, len(verseCounts))
	copy(copied, verseCounts)
	byBook[book] = copied
	return s
}

// Translations implements versification.ModuleSource.
func (s *Source) Translations(ctx context.Context) ([]versification.Translation, error) {
	out := make([]versification.Translation, len(s.translations))
	copy(out, s.translations)
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// BookCodes implements versification.ModuleSource.
func (s *Source) BookCodes(ctx context.Context, translationID string) ([]string, error) {
	order, ok := s.bookOrder[translationID]
	if !ok {
		return nil, errors.NewNotFound("translation", translationID)
	}
	out := make([]string, len(order))
	copy(out, order)
	return out, nil
}

// ChapterCount implements versification.ModuleSource.
func (s *Source) ChapterCount(ctx context.Context, translationID, book string) (int, error) {
	counts, err := s.bookCounts(translationID, book)
	if err != nil {
		return 0, err
	}
	return len(counts), nil
}

// VerseCount implements versification.ModuleSource.
func (s *Source) VerseCount(ctx context.Context, translationID, book string, chapter int) (int, error) {
	counts, err := s.bookCounts(translationID, book)
	if err != nil {
		return 0, err
	}
	if chapter < 1 || chapter > len(counts) {
		return 0, errors.NewUnknownChapter("", book, chapter, len(counts))
	}
	return counts[chapter-1], nil
}

func (s *Source) bookCounts(translationID, book string) ([]int, error) {
	byBook, ok := s.counts[translationID]
	if !ok {
		return nil, errors.NewNotFound("translation", translationID)
	}
	counts, ok := byBook[book]
	if !ok {
		return nil, errors.NewUnknownBook(book)
	}
	return counts, nil
}
