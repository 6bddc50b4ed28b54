// Package annotations is the service layer for tags and notes. It accepts
// addresses in any registered versification scheme, normalizes them through
// the canonical converter, and talks to the store exclusively in canonical
// coordinates. Callers never see raw rows; every operation is
// request/response.
package annotations

import (
	"context"
	"log/slog"

	"github.com/FocuswithJustin/CedarBible/core/books"
	"github.com/FocuswithJustin/CedarBible/core/errors"
	"github.com/FocuswithJustin/CedarBible/core/versification"
	"github.com/FocuswithJustin/CedarBible/internal/logging"
	"github.com/FocuswithJustin/CedarBible/internal/store"
)

// Index ties the annotation store to the versification registry. All
// addresses passed in are interpreted against the named scheme (or the
// canonical scheme when the name is empty) and normalized before touching
// the database.
type Index struct {
	store     *store.Store
	registry  *versification.Registry
	converter *versification.Converter
	dir       *books.Directory
	logger    *slog.Logger
}

// NewIndex builds the annotation service. The converter is derived from the
// registry's canonical scheme.
func NewIndex(st *store.Store, reg *versification.Registry, dir *books.Directory) *Index {
	return &Index{
		store:     st,
		registry:  reg,
		converter: versification.NewConverter(dir, reg.Canonical()),
		dir:       dir,
		logger:    logging.GetLogger(),
	}
}

// Scheme returns the named versification scheme. The empty name selects the
// canonical scheme.
func (ix *Index) Scheme(name string) (*versification.Scheme, error) {
	return ix.schemeFor(name)
}

// Converter exposes the canonical converter for read-only address math.
func (ix *Index) Converter() *versification.Converter {
	return ix.converter
}

// Store exposes the underlying store for maintenance operations.
func (ix *Index) Store() *store.Store {
	return ix.store
}

func (ix *Index) schemeFor(name string) (*versification.Scheme, error) {
	if name == "" {
		return ix.registry.Canonical(), nil
	}
	scheme, ok := ix.registry.Scheme(name)
	if !ok {
		return nil, errors.NewNotFound("versification scheme", name)
	}
	return scheme, nil
}

// resolve normalizes one scheme-local address into the canonical verse
// reference shape the store persists.
func (ix *Index) resolve(schemeName string, addr versification.Address) (store.VerseReference, error) {
	scheme, err := ix.schemeFor(schemeName)
	if err != nil {
		return store.VerseReference{}, err
	}
	canonical, abs, err := ix.converter.Normalize(scheme, addr)
	if err != nil {
		return store.VerseReference{}, err
	}
	return store.VerseReference{
		BookShortTitle:  canonical.Book,
		AbsoluteVerseNr: abs,
		Chapter:         canonical.Chapter,
		VerseNr:         canonical.Verse,
	}, nil
}

// CreateTag creates a new tag with the given title.
func (ix *Index) CreateTag(ctx context.Context, title string) (*store.Tag, error) {
	return ix.store.CreateTag(ctx, title, "")
}

// RenameTag changes a tag's title.
func (ix *Index) RenameTag(ctx context.Context, tagID, newTitle string) (*store.Tag, error) {
	return ix.store.RenameTag(ctx, tagID, newTitle)
}

// DeleteTag removes a tag and all its assignments.
func (ix *Index) DeleteTag(ctx context.Context, tagID string) error {
	return ix.store.DeleteTag(ctx, tagID)
}

// GetTag returns one tag by id.
func (ix *Index) GetTag(ctx context.Context, tagID string) (*store.Tag, error) {
	return ix.store.GetTag(ctx, tagID)
}

// Tags lists tags, optionally restricted to those used in one book and
// optionally ordered by most recent use instead of title.
func (ix *Index) Tags(ctx context.Context, bookFilter string, orderByLastUsed bool) ([]store.Tag, error) {
	return ix.store.AllTags(ctx, bookFilter, orderByLastUsed)
}

// AssignTag attaches a tag to the verse addressed by addr in the named
// scheme, creating the canonical verse reference row on first use. Returns
// the number of newly created assignments (0 when already assigned).
func (ix *Index) AssignTag(ctx context.Context, tagID, schemeName string, addr versification.Address) (int64, error) {
	resolved, err := ix.resolve(schemeName, addr)
	if err != nil {
		return 0, err
	}
	ref, err := ix.store.GetOrCreateVerseReference(ctx,
		resolved.BookShortTitle, resolved.AbsoluteVerseNr, resolved.Chapter, resolved.VerseNr)
	if err != nil {
		return 0, err
	}
	return ix.store.AssignTag(ctx, tagID, ref.ID)
}

// UnassignTag removes a tag from the verse addressed by addr. Unassigning a
// tag that was never assigned (or a verse never annotated) affects zero rows
// and is not an error.
func (ix *Index) UnassignTag(ctx context.Context, tagID, schemeName string, addr versification.Address) (int64, error) {
	resolved, err := ix.resolve(schemeName, addr)
	if err != nil {
		return 0, err
	}
	ref, err := ix.store.FindVerseReference(ctx, resolved.BookShortTitle, resolved.AbsoluteVerseNr)
	if errors.Is(err, errors.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return ix.store.UnassignTag(ctx, tagID, ref.ID)
}

// BulkUpdateTagsOnVerses applies one tag action to many addresses as a unit.
// Every address is normalized before any write; a single conversion failure
// rejects the whole batch and the database is left untouched. The store then
// applies the surviving batch in one transaction.
func (ix *Index) BulkUpdateTagsOnVerses(ctx context.Context, tagID, schemeName string, addrs []versification.Address, action store.TagAction) (int64, error) {
	if len(addrs) == 0 {
		return 0, nil
	}
	refs := make([]store.VerseReference, 0, len(addrs))
	for _, addr := range addrs {
		resolved, err := ix.resolve(schemeName, addr)
		if err != nil {
			return 0, errors.Wrapf(err, "resolving %s %d:%d", addr.Book, addr.Chapter, addr.Verse)
		}
		refs = append(refs, resolved)
	}
	affected, err := ix.store.BulkUpdateTag(ctx, tagID, refs, action)
	if err != nil {
		return 0, err
	}
	ix.logger.Debug("bulk tag update",
		"tag_id", tagID, "action", string(action),
		"verses", len(addrs), "affected", affected)
	return affected, nil
}

// PersistNote stores the note text for the verse addressed by addr. Empty
// (or whitespace-only) text deletes any existing note. The verse reference
// row is created on demand so a note can precede any tag.
func (ix *Index) PersistNote(ctx context.Context, schemeName string, addr versification.Address, text string) (*store.Note, error) {
	resolved, err := ix.resolve(schemeName, addr)
	if err != nil {
		return nil, err
	}
	ref, err := ix.store.GetOrCreateVerseReference(ctx,
		resolved.BookShortTitle, resolved.AbsoluteVerseNr, resolved.Chapter, resolved.VerseNr)
	if err != nil {
		return nil, err
	}
	return ix.store.PersistNote(ctx, ref.ID, text)
}

// PersistBookNote stores a note attached to a whole book rather than a
// verse. Book notes live on a zero-position verse reference row.
func (ix *Index) PersistBookNote(ctx context.Context, book, text string) (*store.Note, error) {
	if _, err := ix.dir.OrdinalOf(book); err != nil {
		return nil, err
	}
	ref, err := ix.store.GetOrCreateBookReference(ctx, book)
	if err != nil {
		return nil, err
	}
	return ix.store.PersistNote(ctx, ref.ID, text)
}

// Note returns the note for one verse address, or ErrNotFound.
func (ix *Index) Note(ctx context.Context, schemeName string, addr versification.Address) (*store.Note, error) {
	resolved, err := ix.resolve(schemeName, addr)
	if err != nil {
		return nil, err
	}
	ref, err := ix.store.FindVerseReference(ctx, resolved.BookShortTitle, resolved.AbsoluteVerseNr)
	if err != nil {
		return nil, err
	}
	return ix.store.FindNote(ctx, ref.ID)
}

// BookNote returns the book-level note for one book, or ErrNotFound.
func (ix *Index) BookNote(ctx context.Context, book string) (*store.Note, error) {
	notes, err := ix.store.FindNotesByBook(ctx, book)
	if err != nil {
		return nil, err
	}
	for _, n := range notes {
		if n.AbsoluteVerseNr == 0 {
			note := store.Note{VerseReferenceID: n.VerseReferenceID, Text: n.Text, UpdatedAt: n.UpdatedAt}
			return &note, nil
		}
	}
	return nil, errors.NewNotFound("book note", book)
}

// VerseTagsByBook returns all tag assignments in one book, ordered by
// ascending absolute verse number.
func (ix *Index) VerseTagsByBook(ctx context.Context, book string) ([]store.TaggedVerse, error) {
	return ix.store.FindVerseTagsByBook(ctx, book)
}

// VerseTagsByReferenceIDs returns the tag assignments for the given verse
// reference ids.
func (ix *Index) VerseTagsByReferenceIDs(ctx context.Context, ids []string) ([]store.TaggedVerse, error) {
	return ix.store.FindVerseTagsByReferenceIDs(ctx, ids)
}

// NotesByBook returns all notes in one book. The book-level note, when
// present, comes first.
func (ix *Index) NotesByBook(ctx context.Context, book string) ([]store.NotedVerse, error) {
	return ix.store.FindNotesByBook(ctx, book)
}

// NotesByReferenceIDs returns the notes for the given verse reference ids.
func (ix *Index) NotesByReferenceIDs(ctx context.Context, ids []string) ([]store.NotedVerse, error) {
	return ix.store.FindNotesByReferenceIDs(ctx, ids)
}
