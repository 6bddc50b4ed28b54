package store

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/FocuswithJustin/CedarBible/core/errors"
)

// Note is the single note attached to a verse reference (or to a book-level
// reference for book introductions). Empty notes are never stored.
type Note struct {
	VerseReferenceID string    `json:"verse_reference_id"`
	Text             string    `json:"text"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// NotedVerse is a note joined with its verse reference, the shape
// verse-indexed groupings are built from.
type NotedVerse struct {
	VerseReferenceID string    `json:"verse_reference_id"`
	BookShortTitle   string    `json:"book_short_title"`
	AbsoluteVerseNr  int       `json:"absolute_verse_nr"`
	Chapter          int       `json:"chapter"`
	VerseNr          int       `json:"verse_nr"`
	Text             string    `json:"text"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// PersistNote upserts the note for a verse reference. Empty or
// whitespace-only text deletes any existing note instead; no empty rows are
// stored. Returns the stored note, or nil after a delete.
func (s *Store) PersistNote(ctx context.Context, verseReferenceID, text string) (*Note, error) {
	if strings.TrimSpace(text) == "" {
		err := s.withTx(ctx, "delete note", func(tx *sql.Tx) error {
			_, err := tx.Exec(`DELETE FROM notes WHERE verse_reference_id = ?`, verseReferenceID)
			return err
		})
		if err != nil {
			return nil, err
		}
		return nil, nil
	}

	note := &Note{
		VerseReferenceID: verseReferenceID,
		Text:             text,
		UpdatedAt:        time.Now().UTC(),
	}
	err := s.withTx(ctx, "persist note", func(tx *sql.Tx) error {
		_, err := tx.Exec(`
			INSERT INTO notes (verse_reference_id, text, updated_at) VALUES (?, ?, ?)
			ON CONFLICT (verse_reference_id) DO UPDATE SET
				text = excluded.text,
				updated_at = excluded.updated_at`,
			note.VerseReferenceID, note.Text, formatTime(note.UpdatedAt))
		return err
	})
	if err != nil {
		return nil, err
	}
	return note, nil
}

// FindNote returns the note for a verse reference, or ErrNotFound.
func (s *Store) FindNote(ctx context.Context, verseReferenceID string) (*Note, error) {
	var note Note
	var updatedAt string
	err := s.db.QueryRowContext(ctx, `
		SELECT verse_reference_id, text, updated_at FROM notes
		WHERE verse_reference_id = ?`, verseReferenceID).
		Scan(&note.VerseReferenceID, &note.Text, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound("note", verseReferenceID)
	}
	if err != nil {
		return nil, errors.NewStorage("find note", err)
	}
	note.UpdatedAt, err = parseTime(updatedAt)
	if err != nil {
		return nil, err
	}
	return &note, nil
}

// FindNotesByBook returns every note in a book joined with its verse
// reference, ordered by ascending absolute verse number. Book-level notes
// (absolute verse number 0) come first.
func (s *Store) FindNotesByBook(ctx context.Context, book string) ([]NotedVerse, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT vr.id, vr.book_short_title, vr.abs_verse_nr, vr.chapter, vr.verse_nr,
		       n.text, n.updated_at
		FROM notes n
		JOIN verse_references vr ON vr.id = n.verse_reference_id
		WHERE vr.book_short_title = ?
		ORDER BY vr.abs_verse_nr ASC`,
		book)
	if err != nil {
		return nil, errors.NewStorage("find notes by book", err)
	}
	return collectNotedVerses(rows)
}

// FindNotesByReferenceIDs returns the notes of the given verse references,
// ordered by ascending absolute verse number.
func (s *Store) FindNotesByReferenceIDs(ctx context.Context, ids []string) ([]NotedVerse, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query := `
		SELECT vr.id, vr.book_short_title, vr.abs_verse_nr, vr.chapter, vr.verse_nr,
		       n.text, n.updated_at
		FROM notes n
		JOIN verse_references vr ON vr.id = n.verse_reference_id
		WHERE n.verse_reference_id IN (` + placeholders(len(ids)) + `)
		ORDER BY vr.abs_verse_nr ASC`
	rows, err := s.db.QueryContext(ctx, query, toAnySlice(ids)...)
	if err != nil {
		return nil, errors.NewStorage("find notes by references", err)
	}
	return collectNotedVerses(rows)
}

func collectNotedVerses(rows *sql.Rows) ([]NotedVerse, error) {
	defer rows.Close()
	var out []NotedVerse
	for rows.Next() {
		var nv NotedVerse
		var updatedAt string
		err := rows.Scan(&nv.VerseReferenceID, &nv.BookShortTitle, &nv.AbsoluteVerseNr,
			&nv.Chapter, &nv.VerseNr, &nv.Text, &updatedAt)
		if err != nil {
			return nil, errors.NewStorage("scan note", err)
		}
		nv.UpdatedAt, err = parseTime(updatedAt)
		if err != nil {
			return nil, err
		}
		out = append(out, nv)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewStorage("scan notes", err)
	}
	return out, nil
}
