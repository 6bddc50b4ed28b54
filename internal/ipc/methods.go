package ipc

import (
	"context"
	"encoding/json"
	"time"

	"github.com/FocuswithJustin/CedarBible/core/errors"
	"github.com/FocuswithJustin/CedarBible/core/versification"
	"github.com/FocuswithJustin/CedarBible/internal/annotations"
	"github.com/FocuswithJustin/CedarBible/internal/store"
)

// verseParam is the wire shape of one scheme-local verse position.
type verseParam struct {
	Book    string `json:"book"`
	Chapter int    `json:"chapter"`
	Verse   int    `json:"verse"`
}

func (v verseParam) address() versification.Address {
	return versification.Address{Book: v.Book, Chapter: v.Chapter, Verse: v.Verse}
}

// methodTable wires every IPC method name to its handler. The names mirror
// the operation catalog the UI already speaks.
func (s *Server) methodTable() map[string]handlerFunc {
	return map[string]handlerFunc{
		"createNewTag":       s.createNewTag,
		"removeTag":          s.removeTag,
		"updateTag":          s.updateTag,
		"updateTagsOnVerses": s.updateTagsOnVerses,
		"getTagCount":        s.getTagCount,
		"getAllTags":         s.getAllTags,

		"getBookVerseTags":                s.getBookVerseTags,
		"getVerseTagsByVerseReferenceIds": s.getVerseTagsByVerseReferenceIDs,

		"persistNote":                 s.persistNote,
		"getVerseNotesByBook":         s.getVerseNotesByBook,
		"getBookNotes":                s.getBookNotes,
		"getNotesByVerseReferenceIds": s.getNotesByVerseReferenceIDs,

		"getBibleBook":                   s.getBibleBook,
		"getBookLongTitle":               s.getBookLongTitle,
		"getBookTitleTranslation":        s.getBookTitleTranslation,
		"findBookTitle":                  s.findBookTitle,
		"isNtBook":                       s.isNtBook,
		"isOtBook":                       s.isOtBook,
		"getBibleBooksFromTagIds":        s.getBibleBooksFromTagIDs,
		"getBibleBooksFromXrefs":         s.getBibleBooksFromXrefs,
		"getBibleBooksFromSearchResults": s.getBibleBooksFromSearchResults,

		"getVerseReferencesByBookAndAbsoluteVerseNumber": s.getVerseReferencesByPosition,
		"getVerseReferencesByTagIds":                     s.getVerseReferencesByTagIDs,
		"getVerseReferencesByBooks":                      s.getVerseReferencesByBooks,
		"getVerseReferencesByXrefs":                      s.getVerseReferencesByXrefs,
		"getAbsoluteVerseNumbersFromReference":           s.getAbsoluteVerseNumbers,

		"getLastMetaRecordUpdate": s.getLastMetaRecordUpdate,
	}
}

func (s *Server) createNewTag(ctx context.Context, params json.RawMessage) (interface{}, error) {
	var p struct {
		Title string `json:"title"`
	}
	if err := decode(params, &p); err != nil {
		return nil, err
	}
	return s.index.CreateTag(ctx, p.Title)
}

func (s *Server) removeTag(ctx context.Context, params json.RawMessage) (interface{}, error) {
	var p struct {
		ID string `json:"id"`
	}
	if err := decode(params, &p); err != nil {
		return nil, err
	}
	if err := s.index.DeleteTag(ctx, p.ID); err != nil {
		return nil, err
	}
	return map[string]bool{"deleted": true}, nil
}

func (s *Server) updateTag(ctx context.Context, params json.RawMessage) (interface{}, error) {
	var p struct {
		ID       string `json:"id"`
		NewTitle string `json:"new_title"`
	}
	if err := decode(params, &p); err != nil {
		return nil, err
	}
	return s.index.RenameTag(ctx, p.ID, p.NewTitle)
}

func (s *Server) updateTagsOnVerses(ctx context.Context, params json.RawMessage) (interface{}, error) {
	var p struct {
		TagID         string       `json:"tag_id"`
		Verses        []verseParam `json:"verses"`
		Versification string       `json:"versification"`
		Action        string       `json:"action"`
	}
	if err := decode(params, &p); err != nil {
		return nil, err
	}

	var action store.TagAction
	switch p.Action {
	case string(store.TagActionAdd):
		action = store.TagActionAdd
	case string(store.TagActionRemove):
		action = store.TagActionRemove
	default:
		return nil, errors.NewValidation("action", "action must be add or remove")
	}

	addrs := make([]versification.Address, len(p.Verses))
	for i, v := range p.Verses {
		addrs[i] = v.address()
	}
	affected, err := s.index.BulkUpdateTagsOnVerses(ctx, p.TagID, p.Versification, addrs, action)
	if err != nil {
		return nil, err
	}
	return map[string]int64{"affected": affected}, nil
}

func (s *Server) getTagCount(ctx context.Context, params json.RawMessage) (interface{}, error) {
	return s.index.Store().TagCount(ctx)
}

func (s *Server) getAllTags(ctx context.Context, params json.RawMessage) (interface{}, error) {
	var p struct {
		Book     string `json:"book,omitempty"`
		LastUsed bool   `json:"last_used,omitempty"`
	}
	if len(params) > 0 {
		if err := decode(params, &p); err != nil {
			return nil, err
		}
	}
	return s.index.Tags(ctx, p.Book, p.LastUsed)
}

func (s *Server) getBookVerseTags(ctx context.Context, params json.RawMessage) (interface{}, error) {
	var p struct {
		Book string `json:"book"`
	}
	if err := decode(params, &p); err != nil {
		return nil, err
	}
	tagged, err := s.index.VerseTagsByBook(ctx, p.Book)
	if err != nil {
		return nil, err
	}
	return annotations.GroupByVerse(tagged, nil), nil
}

func (s *Server) getVerseTagsByVerseReferenceIDs(ctx context.Context, params json.RawMessage) (interface{}, error) {
	var p struct {
		VerseReferenceIDs []string `json:"verse_reference_ids"`
	}
	if err := decode(params, &p); err != nil {
		return nil, err
	}
	tagged, err := s.index.VerseTagsByReferenceIDs(ctx, p.VerseReferenceIDs)
	if err != nil {
		return nil, err
	}
	return annotations.GroupByVerse(tagged, nil), nil
}

func (s *Server) persistNote(ctx context.Context, params json.RawMessage) (interface{}, error) {
	var p struct {
		Text          string      `json:"text"`
		Verse         *verseParam `json:"verse,omitempty"`
		Book          string      `json:"book,omitempty"`
		Versification string      `json:"versification,omitempty"`
	}
	if err := decode(params, &p); err != nil {
		return nil, err
	}
	if p.Verse != nil {
		return s.index.PersistNote(ctx, p.Versification, p.Verse.address(), p.Text)
	}
	if p.Book != "" {
		return s.index.PersistBookNote(ctx, p.Book, p.Text)
	}
	return nil, errors.NewValidation("params", "persistNote needs a verse or a book")
}

func (s *Server) getVerseNotesByBook(ctx context.Context, params json.RawMessage) (interface{}, error) {
	var p struct {
		Book string `json:"book"`
	}
	if err := decode(params, &p); err != nil {
		return nil, err
	}
	noted, err := s.index.NotesByBook(ctx, p.Book)
	if err != nil {
		return nil, err
	}
	return annotations.GroupByVerse(nil, noted), nil
}

func (s *Server) getBookNotes(ctx context.Context, params json.RawMessage) (interface{}, error) {
	var p struct {
		Book string `json:"book"`
	}
	if err := decode(params, &p); err != nil {
		return nil, err
	}
	return s.index.BookNote(ctx, p.Book)
}

func (s *Server) getNotesByVerseReferenceIDs(ctx context.Context, params json.RawMessage) (interface{}, error) {
	var p struct {
		VerseReferenceIDs []string `json:"verse_reference_ids"`
	}
	if err := decode(params, &p); err != nil {
		return nil, err
	}
	noted, err := s.index.NotesByReferenceIDs(ctx, p.VerseReferenceIDs)
	if err != nil {
		return nil, err
	}
	return annotations.GroupByVerse(nil, noted), nil
}

func (s *Server) getBibleBook(ctx context.Context, params json.RawMessage) (interface{}, error) {
	var p struct {
		ShortTitle string `json:"short_title"`
	}
	if err := decode(params, &p); err != nil {
		return nil, err
	}
	return s.dir.Book(p.ShortTitle)
}

func (s *Server) getBookLongTitle(ctx context.Context, params json.RawMessage) (interface{}, error) {
	var p struct {
		ShortTitle string `json:"short_title"`
	}
	if err := decode(params, &p); err != nil {
		return nil, err
	}
	return s.dir.LongTitleOf(p.ShortTitle)
}

func (s *Server) getBookTitleTranslation(ctx context.Context, params json.RawMessage) (interface{}, error) {
	var p struct {
		ShortTitle string `json:"short_title"`
		Language   string `json:"language"`
	}
	if err := decode(params, &p); err != nil {
		return nil, err
	}
	return s.dir.TitleTranslation(p.ShortTitle, p.Language)
}

func (s *Server) findBookTitle(ctx context.Context, params json.RawMessage) (interface{}, error) {
	var p struct {
		Title string `json:"title"`
	}
	if err := decode(params, &p); err != nil {
		return nil, err
	}
	book, ok := s.dir.FindByTitle(p.Title)
	if !ok {
		return nil, errors.NewUnknownBook(p.Title)
	}
	return book, nil
}

func (s *Server) isNtBook(ctx context.Context, params json.RawMessage) (interface{}, error) {
	var p struct {
		ShortTitle string `json:"short_title"`
	}
	if err := decode(params, &p); err != nil {
		return nil, err
	}
	return s.dir.IsNewTestament(p.ShortTitle), nil
}

func (s *Server) isOtBook(ctx context.Context, params json.RawMessage) (interface{}, error) {
	var p struct {
		ShortTitle string `json:"short_title"`
	}
	if err := decode(params, &p); err != nil {
		return nil, err
	}
	return s.dir.IsOldTestament(p.ShortTitle), nil
}

func (s *Server) getBibleBooksFromTagIDs(ctx context.Context, params json.RawMessage) (interface{}, error) {
	var p struct {
		TagIDs []string `json:"tag_ids"`
	}
	if err := decode(params, &p); err != nil {
		return nil, err
	}
	return s.resolver.BooksWithAnyTag(ctx, p.TagIDs)
}

func (s *Server) getBibleBooksFromXrefs(ctx context.Context, params json.RawMessage) (interface{}, error) {
	var p struct {
		Xrefs         []string `json:"xrefs"`
		Versification string   `json:"versification,omitempty"`
	}
	if err := decode(params, &p); err != nil {
		return nil, err
	}
	return s.resolver.BooksWithCrossReferences(ctx, p.Versification, p.Xrefs)
}

func (s *Server) getBibleBooksFromSearchResults(ctx context.Context, params json.RawMessage) (interface{}, error) {
	var p struct {
		Results       []verseParam `json:"results"`
		Versification string       `json:"versification,omitempty"`
	}
	if err := decode(params, &p); err != nil {
		return nil, err
	}
	addrs := make([]versification.Address, len(p.Results))
	for i, v := range p.Results {
		addrs[i] = v.address()
	}
	return s.resolver.BooksFromSearchResults(ctx, p.Versification, addrs)
}

func (s *Server) getVerseReferencesByPosition(ctx context.Context, params json.RawMessage) (interface{}, error) {
	var p struct {
		Book            string `json:"book"`
		AbsoluteVerseNr int    `json:"absolute_verse_nr"`
	}
	if err := decode(params, &p); err != nil {
		return nil, err
	}
	ref, err := s.index.Store().FindVerseReference(ctx, p.Book, p.AbsoluteVerseNr)
	if err != nil {
		return nil, err
	}
	return ref, nil
}

func (s *Server) getVerseReferencesByTagIDs(ctx context.Context, params json.RawMessage) (interface{}, error) {
	var p struct {
		TagIDs []string `json:"tag_ids"`
	}
	if err := decode(params, &p); err != nil {
		return nil, err
	}
	return s.index.Store().FindVerseReferencesByTagIDs(ctx, p.TagIDs)
}

func (s *Server) getVerseReferencesByXrefs(ctx context.Context, params json.RawMessage) (interface{}, error) {
	var p struct {
		Xrefs         []string `json:"xrefs"`
		Versification string   `json:"versification,omitempty"`
	}
	if err := decode(params, &p); err != nil {
		return nil, err
	}
	return s.resolver.VerseReferencesByCrossReferences(ctx, p.Versification, p.Xrefs)
}

func (s *Server) getVerseReferencesByBooks(ctx context.Context, params json.RawMessage) (interface{}, error) {
	var p struct {
		Books []string `json:"books"`
	}
	if err := decode(params, &p); err != nil {
		return nil, err
	}
	return s.index.Store().FindVerseReferencesByBooks(ctx, p.Books)
}

func (s *Server) getAbsoluteVerseNumbers(ctx context.Context, params json.RawMessage) (interface{}, error) {
	var p struct {
		Versification string `json:"versification"`
		Book          string `json:"book"`
		Chapter       int    `json:"chapter"`
		Verse         int    `json:"verse"`
	}
	if err := decode(params, &p); err != nil {
		return nil, err
	}

	scheme, err := s.index.Scheme(p.Versification)
	if err != nil {
		return nil, err
	}
	canonical, abs, err := s.index.Converter().Normalize(
		scheme, versification.Address{Book: p.Book, Chapter: p.Chapter, Verse: p.Verse})
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"book":              canonical.Book,
		"chapter":           canonical.Chapter,
		"verse":             canonical.Verse,
		"absolute_verse_nr": abs,
	}, nil
}

func (s *Server) getLastMetaRecordUpdate(ctx context.Context, params json.RawMessage) (interface{}, error) {
	last, err := s.index.Store().LastMetaUpdate(ctx)
	if err != nil {
		return nil, err
	}
	if last.IsZero() {
		return nil, nil
	}
	return last.UTC().Format(time.RFC3339), nil
}
