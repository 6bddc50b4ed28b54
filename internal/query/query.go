// Package query answers projection questions over the annotation index:
// which books carry which tags, and which books or stored verse references
// are touched by a set of cross-reference keys or search hits. Book-level
// answers come back deduplicated and in canonical book order.
package query

import (
	"context"
	"sort"

	"github.com/FocuswithJustin/CedarBible/core/books"
	"github.com/FocuswithJustin/CedarBible/core/errors"
	"github.com/FocuswithJustin/CedarBible/core/refparse"
	"github.com/FocuswithJustin/CedarBible/core/versification"
	"github.com/FocuswithJustin/CedarBible/internal/store"
)

// Resolver runs read-only projections against the store.
type Resolver struct {
	store     *store.Store
	registry  *versification.Registry
	converter *versification.Converter
	dir       *books.Directory
}

// NewResolver builds a resolver over one store and versification registry.
func NewResolver(st *store.Store, reg *versification.Registry, dir *books.Directory) *Resolver {
	return &Resolver{
		store:     st,
		registry:  reg,
		converter: versification.NewConverter(dir, reg.Canonical()),
		dir:       dir,
	}
}

// TagsInBook lists every tag assigned to at least one verse of the book,
// ordered by title.
func (r *Resolver) TagsInBook(ctx context.Context, book string) ([]store.Tag, error) {
	if _, err := r.dir.OrdinalOf(book); err != nil {
		return nil, err
	}
	return r.store.AllTags(ctx, book, false)
}

// BooksWithAnyTag returns the books containing at least one verse tagged
// with any of the given tags, in canonical book order.
func (r *Resolver) BooksWithAnyTag(ctx context.Context, tagIDs []string) ([]string, error) {
	titles, err := r.store.BooksWithTags(ctx, tagIDs)
	if err != nil {
		return nil, err
	}
	return r.canonicalOrder(titles), nil
}

// BooksWithCrossReferences resolves scripture reference keys (as they appear
// in cross-reference lists, e.g. "Gen 1:1" or "Ps 23:1-3") against the named
// scheme and returns the books whose referenced verses carry annotations, in
// canonical book order. Keys that fail to parse or fall outside the scheme
// reject the whole query.
func (r *Resolver) BooksWithCrossReferences(ctx context.Context, schemeName string, keys []string) ([]string, error) {
	refs, err := r.VerseReferencesByCrossReferences(ctx, schemeName, keys)
	if err != nil {
		return nil, err
	}
	titles := make([]string, 0, len(refs))
	for _, ref := range refs {
		titles = append(titles, ref.BookShortTitle)
	}
	return r.canonicalOrder(titles), nil
}

// VerseReferencesByCrossReferences resolves scripture reference keys against
// the named scheme and returns the stored rows their verses map to, ordered
// by ascending absolute verse number. Positions nothing has annotated are
// skipped; keys that fail to parse or fall outside the scheme reject the
// whole query.
func (r *Resolver) VerseReferencesByCrossReferences(ctx context.Context, schemeName string, keys []string) ([]store.VerseReference, error) {
	scheme, err := r.schemeFor(schemeName)
	if err != nil {
		return nil, err
	}

	var positions []store.BookAbsolute
	for _, key := range keys {
		expanded, err := r.expandKey(scheme, key)
		if err != nil {
			return nil, errors.Wrapf(err, "cross-reference %q", key)
		}
		positions = append(positions, expanded...)
	}
	if len(positions) == 0 {
		return nil, nil
	}
	return r.store.FindVerseReferencesByPositions(ctx, positions)
}

// BooksFromSearchResults maps search hit addresses (in the named scheme)
// onto the distinct books they fall in, in canonical book order.
func (r *Resolver) BooksFromSearchResults(ctx context.Context, schemeName string, addrs []versification.Address) ([]string, error) {
	scheme, err := r.schemeFor(schemeName)
	if err != nil {
		return nil, err
	}

	titles := make([]string, 0, len(addrs))
	for _, addr := range addrs {
		canonical, _, err := r.converter.Normalize(scheme, addr)
		if err != nil {
			return nil, err
		}
		titles = append(titles, canonical.Book)
	}
	return r.canonicalOrder(titles), nil
}

func (r *Resolver) schemeFor(name string) (*versification.Scheme, error) {
	if name == "" {
		return r.registry.Canonical(), nil
	}
	scheme, ok := r.registry.Scheme(name)
	if !ok {
		return nil, errors.NewNotFound("versification scheme", name)
	}
	return scheme, nil
}

// expandKey turns one reference key into the canonical positions it covers.
// Verse ranges within one chapter expand verse by verse; chapter-only and
// book-only keys are rejected since a cross-reference always points at
// verses.
func (r *Resolver) expandKey(scheme *versification.Scheme, key string) ([]store.BookAbsolute, error) {
	parsed, err := refparse.ParseRange(key)
	if err != nil {
		return nil, err
	}
	if parsed.IsBookOnly() || parsed.IsChapterOnly() {
		return nil, errors.NewValidation("reference", "cross-references must address verses")
	}

	book, ok := r.dir.FindByTitle(parsed.Book)
	if !ok {
		return nil, errors.NewUnknownBook(parsed.Book)
	}

	chapter := *parsed.ChapterStart
	verseStart := *parsed.VerseStart
	verseEnd := verseStart
	if parsed.VerseEnd != nil {
		verseEnd = *parsed.VerseEnd
	}
	if parsed.ChapterEnd != nil && *parsed.ChapterEnd != chapter {
		return nil, errors.NewValidation("reference", "cross-chapter ranges are not supported")
	}
	if verseEnd < verseStart {
		return nil, errors.NewValidation("reference", "descending verse range")
	}

	positions := make([]store.BookAbsolute, 0, verseEnd-verseStart+1)
	for v := verseStart; v <= verseEnd; v++ {
		abs, err := r.converter.ToAbsolute(scheme, book.ShortTitle, chapter, v)
		if err != nil {
			return nil, err
		}
		positions = append(positions, store.BookAbsolute{Book: book.ShortTitle, AbsoluteVerseNr: abs})
	}
	return positions, nil
}

// canonicalOrder deduplicates book titles and sorts them by canonical
// ordinal. Unknown titles sort last in title order; they can only come from
// rows seeded by other catalogs.
func (r *Resolver) canonicalOrder(titles []string) []string {
	seen := make(map[string]bool, len(titles))
	out := make([]string, 0, len(titles))
	for _, title := range titles {
		if seen[title] {
			continue
		}
		seen[title] = true
		out = append(out, title)
	}
	sort.Slice(out, func(i, j int) bool {
		oi, erri := r.dir.OrdinalOf(out[i])
		oj, errj := r.dir.OrdinalOf(out[j])
		if erri != nil || errj != nil {
			if (erri == nil) != (errj == nil) {
				return erri == nil
			}
			return out[i] < out[j]
		}
		return oi < oj
	})
	return out
}
