package store

import (
	"context"
	"database/sql"
	"strings"

	"github.com/google/uuid"

	"github.com/FocuswithJustin/CedarBible/core/errors"
)

// VerseReference is the stable, translation-independent row annotations
// attach to. Chapter and verse are expressed in the canonical scheme.
// Rows are never mutated after creation and never deleted while any
// annotation references them.
type VerseReference struct {
	ID              string `json:"id"`
	BookShortTitle  string `json:"book_short_title"`
	AbsoluteVerseNr int    `json:"absolute_verse_nr"`
	Chapter         int    `json:"chapter"`
	VerseNr         int    `json:"verse_nr"`
}

// BookAbsolute identifies a canonical verse position as stored.
type BookAbsolute struct {
	Book            string `json:"book"`
	AbsoluteVerseNr int    `json:"absolute_verse_nr"`
}

// verseReferenceColumns is the ordered column list for verse reference
// queries. Must match the scan order in scanVerseReference.
const verseReferenceColumns = `id, book_short_title, abs_verse_nr, chapter, verse_nr`

func scanVerseReference(scanner interface{ Scan(dest ...any) error }) (*VerseReference, error) {
	var vr VerseReference
	err := scanner.Scan(&vr.ID, &vr.BookShortTitle, &vr.AbsoluteVerseNr, &vr.Chapter, &vr.VerseNr)
	if err != nil {
		return nil, err
	}
	return &vr, nil
}

func collectVerseReferences(rows *sql.Rows) ([]VerseReference, error) {
	defer rows.Close()
	var out []VerseReference
	for rows.Next() {
		vr, err := scanVerseReference(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *vr)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// GetOrCreateVerseReference resolves the stored row for a canonical verse
// position, creating it on first use. Idempotent: concurrent calls for the
// same (book, absolute) pair resolve to the same row through the uniqueness
// constraint, not client-side locking.
func (s *Store) GetOrCreateVerseReference(ctx context.Context, book string, absoluteVerseNr, chapter, verseNr int) (*VerseReference, error) {
	var result *VerseReference
	err := s.withTx(ctx, "get or create verse reference", func(tx *sql.Tx) error {
		vr, err := getOrCreateVerseReferenceTx(tx, book, absoluteVerseNr, chapter, verseNr)
		if err != nil {
			return err
		}
		result = vr
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func getOrCreateVerseReferenceTx(tx *sql.Tx, book string, absoluteVerseNr, chapter, verseNr int) (*VerseReference, error) {
	_, err := tx.Exec(`
		INSERT INTO verse_references (id, book_short_title, abs_verse_nr, chapter, verse_nr)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (book_short_title, abs_verse_nr) DO NOTHING`,
		uuid.NewString(), book, absoluteVerseNr, chapter, verseNr)
	if err != nil {
		return nil, err
	}

	row := tx.QueryRow(`
		SELECT `+verseReferenceColumns+` FROM verse_references
		WHERE book_short_title = ? AND abs_verse_nr = ?`,
		book, absoluteVerseNr)
	return scanVerseReference(row)
}

// GetOrCreateBookReference resolves the book-level reference row used by
// book introduction notes (absolute verse number 0).
func (s *Store) GetOrCreateBookReference(ctx context.Context, book string) (*VerseReference, error) {
	return s.GetOrCreateVerseReference(ctx, book, 0, 0, 0)
}

// FindVerseReference returns the stored row for a canonical position, or
// ErrNotFound when no annotation has targeted it yet.
func (s *Store) FindVerseReference(ctx context.Context, book string, absoluteVerseNr int) (*VerseReference, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+verseReferenceColumns+` FROM verse_references
		WHERE book_short_title = ? AND abs_verse_nr = ?`,
		book, absoluteVerseNr)
	vr, err := scanVerseReference(row)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound("verse reference", "")
	}
	if err != nil {
		return nil, errors.NewStorage("find verse reference", err)
	}
	return vr, nil
}

// FindVerseReferencesByIDs returns the rows for the given ids, ordered by
// ascending absolute verse number.
func (s *Store) FindVerseReferencesByIDs(ctx context.Context, ids []string) ([]VerseReference, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query := `
		SELECT ` + verseReferenceColumns + ` FROM verse_references
		WHERE id IN (` + placeholders(len(ids)) + `)
		ORDER BY abs_verse_nr ASC`
	rows, err := s.db.QueryContext(ctx, query, toAnySlice(ids)...)
	if err != nil {
		return nil, errors.NewStorage("find verse references by ids", err)
	}
	return collectVerseReferences(rows)
}

// FindByAbsoluteRange returns the stored references of a book whose absolute
// verse numbers fall within [fromNr, toNr], ordered ascending.
func (s *Store) FindByAbsoluteRange(ctx context.Context, book string, fromNr, toNr int) ([]VerseReference, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+verseReferenceColumns+` FROM verse_references
		WHERE book_short_title = ? AND abs_verse_nr BETWEEN ? AND ? AND abs_verse_nr > 0
		ORDER BY abs_verse_nr ASC`,
		book, fromNr, toNr)
	if err != nil {
		return nil, errors.NewStorage("find verse references by range", err)
	}
	return collectVerseReferences(rows)
}

// FindVerseReferencesByTagIDs returns every reference carrying at least one
// of the tags, ordered by ascending absolute verse number.
func (s *Store) FindVerseReferencesByTagIDs(ctx context.Context, tagIDs []string) ([]VerseReference, error) {
	if len(tagIDs) == 0 {
		return nil, nil
	}
	query := `
		SELECT DISTINCT vr.id, vr.book_short_title, vr.abs_verse_nr, vr.chapter, vr.verse_nr
		FROM verse_references vr
		JOIN verse_tags vt ON vt.verse_reference_id = vr.id
		WHERE vt.tag_id IN (` + placeholders(len(tagIDs)) + `)
		ORDER BY vr.abs_verse_nr ASC`
	rows, err := s.db.QueryContext(ctx, query, toAnySlice(tagIDs)...)
	if err != nil {
		return nil, errors.NewStorage("find verse references by tags", err)
	}
	return collectVerseReferences(rows)
}

// FindVerseReferencesByBooks returns every stored reference in the given
// books, ordered by ascending absolute verse number.
func (s *Store) FindVerseReferencesByBooks(ctx context.Context, bookTitles []string) ([]VerseReference, error) {
	if len(bookTitles) == 0 {
		return nil, nil
	}
	query := `
		SELECT ` + verseReferenceColumns + ` FROM verse_references
		WHERE book_short_title IN (` + placeholders(len(bookTitles)) + `) AND abs_verse_nr > 0
		ORDER BY abs_verse_nr ASC`
	rows, err := s.db.QueryContext(ctx, query, toAnySlice(bookTitles)...)
	if err != nil {
		return nil, errors.NewStorage("find verse references by books", err)
	}
	return collectVerseReferences(rows)
}

// FindVerseReferencesByPositions returns the stored rows matching any of the
// canonical positions, ordered by ascending absolute verse number. Positions
// with no stored row are skipped; they carry no annotations.
func (s *Store) FindVerseReferencesByPositions(ctx context.Context, positions []BookAbsolute) ([]VerseReference, error) {
	if len(positions) == 0 {
		return nil, nil
	}
	var sb strings.Builder
	args := make([]any, 0, len(positions)*2)
	for i, p := range positions {
		if i > 0 {
			sb.WriteString(" OR ")
		}
		sb.WriteString("(book_short_title = ? AND abs_verse_nr = ?)")
		args = append(args, p.Book, p.AbsoluteVerseNr)
	}
	query := `
		SELECT ` + verseReferenceColumns + ` FROM verse_references
		WHERE ` + sb.String() + `
		ORDER BY abs_verse_nr ASC`
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.NewStorage("find verse references by positions", err)
	}
	return collectVerseReferences(rows)
}

// BooksWithTags returns the distinct short titles of books containing at
// least one reference with any of the tags. Ordering is the caller's
// concern (canonical ordering needs the book directory).
func (s *Store) BooksWithTags(ctx context.Context, tagIDs []string) ([]string, error) {
	if len(tagIDs) == 0 {
		return nil, nil
	}
	query := `
		SELECT DISTINCT vr.book_short_title
		FROM verse_references vr
		JOIN verse_tags vt ON vt.verse_reference_id = vr.id
		WHERE vt.tag_id IN (` + placeholders(len(tagIDs)) + `)`
	rows, err := s.db.QueryContext(ctx, query, toAnySlice(tagIDs)...)
	if err != nil {
		return nil, errors.NewStorage("find books by tags", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var title string
		if err := rows.Scan(&title); err != nil {
			return nil, errors.NewStorage("find books by tags", err)
		}
		out = append(out, title)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewStorage("find books by tags", err)
	}
	return out, nil
}

// placeholders returns "?, ?, ..., ?" with n placeholders.
func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func toAnySlice(in []string) []any {
	out := make([]any, len(in))
	for i, v := range in {
		out[i] = v
	}
	return out
}
