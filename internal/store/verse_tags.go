package store

import (
	"context"
	"database/sql"

	"github.com/FocuswithJustin/CedarBible/core/errors"
)

// TagAction selects the direction of a bulk tag update.
type TagAction string

// Bulk update actions.
const (
	TagActionAdd    TagAction = "add"
	TagActionRemove TagAction = "remove"
)

// TaggedVerse is one tag assignment joined with its verse reference, the
// shape verse-indexed groupings are built from.
type TaggedVerse struct {
	VerseReferenceID string `json:"verse_reference_id"`
	BookShortTitle   string `json:"book_short_title"`
	AbsoluteVerseNr  int    `json:"absolute_verse_nr"`
	Chapter          int    `json:"chapter"`
	VerseNr          int    `json:"verse_nr"`
	TagID            string `json:"tag_id"`
	TagTitle         string `json:"tag_title"`
}

// AssignTag associates a tag with a verse reference. Idempotent: assigning
// an already-assigned tag affects zero rows and is not an error. The tag's
// assignment count is recomputed in the same transaction.
func (s *Store) AssignTag(ctx context.Context, tagID, verseReferenceID string) (int64, error) {
	var affected int64
	err := s.withTx(ctx, "assign tag", func(tx *sql.Tx) error {
		res, err := tx.Exec(`
			INSERT INTO verse_tags (tag_id, verse_reference_id) VALUES (?, ?)
			ON CONFLICT (tag_id, verse_reference_id) DO NOTHING`,
			tagID, verseReferenceID)
		if err != nil {
			return err
		}
		affected, err = res.RowsAffected()
		if err != nil {
			return err
		}
		if affected > 0 {
			if err := markTagUsed(tx, tagID); err != nil {
				return err
			}
		}
		return recomputeAssignmentCount(tx, tagID)
	})
	if err != nil {
		return 0, err
	}
	return affected, nil
}

// UnassignTag removes a tag association. Removing a pair that does not
// exist affects zero rows and is not an error.
func (s *Store) UnassignTag(ctx context.Context, tagID, verseReferenceID string) (int64, error) {
	var affected int64
	err := s.withTx(ctx, "unassign tag", func(tx *sql.Tx) error {
		res, err := tx.Exec(`
			DELETE FROM verse_tags WHERE tag_id = ? AND verse_reference_id = ?`,
			tagID, verseReferenceID)
		if err != nil {
			return err
		}
		affected, err = res.RowsAffected()
		if err != nil {
			return err
		}
		return recomputeAssignmentCount(tx, tagID)
	})
	if err != nil {
		return 0, err
	}
	return affected, nil
}

// BulkUpdateTag applies one action to a set of canonical verse positions in
// a single transaction: adding creates reference rows as needed, the
// association changes all land together or not at all, and the assignment
// count is recomputed once. Returns the number of associations changed.
func (s *Store) BulkUpdateTag(ctx context.Context, tagID string, refs []VerseReference, action TagAction) (int64, error) {
	if action != TagActionAdd && action != TagActionRemove {
		return 0, errors.NewValidation("action", "must be add or remove")
	}

	var affected int64
	err := s.withTx(ctx, "bulk update tag", func(tx *sql.Tx) error {
		affected = 0

		var exists int
		if err := tx.QueryRow(`SELECT COUNT(*) FROM tags WHERE id = ?`, tagID).Scan(&exists); err != nil {
			return err
		}
		if exists == 0 {
			return errors.NewNotFound("tag", tagID)
		}

		for _, ref := range refs {
			var res sql.Result
			if action == TagActionAdd {
				vr, err := getOrCreateVerseReferenceTx(tx, ref.BookShortTitle, ref.AbsoluteVerseNr, ref.Chapter, ref.VerseNr)
				if err != nil {
					return err
				}
				res, err = tx.Exec(`
					INSERT INTO verse_tags (tag_id, verse_reference_id) VALUES (?, ?)
					ON CONFLICT (tag_id, verse_reference_id) DO NOTHING`,
					tagID, vr.ID)
				if err != nil {
					return err
				}
			} else {
				// Removal never creates reference rows; unannotated
				// positions have nothing to delete.
				var refID string
				err := tx.QueryRow(`
					SELECT id FROM verse_references
					WHERE book_short_title = ? AND abs_verse_nr = ?`,
					ref.BookShortTitle, ref.AbsoluteVerseNr).Scan(&refID)
				if err == sql.ErrNoRows {
					continue
				}
				if err != nil {
					return err
				}
				res, err = tx.Exec(`
					DELETE FROM verse_tags WHERE tag_id = ? AND verse_reference_id = ?`,
					tagID, refID)
				if err != nil {
					return err
				}
			}
			n, err := res.RowsAffected()
			if err != nil {
				return err
			}
			affected += n
		}

		if action == TagActionAdd && affected > 0 {
			if err := markTagUsed(tx, tagID); err != nil {
				return err
			}
		}
		return recomputeAssignmentCount(tx, tagID)
	})
	if err != nil {
		return 0, err
	}
	return affected, nil
}

// FindVerseTagsByBook returns every tag assignment in a book joined with its
// verse reference, ordered by ascending absolute verse number.
func (s *Store) FindVerseTagsByBook(ctx context.Context, book string) ([]TaggedVerse, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT vr.id, vr.book_short_title, vr.abs_verse_nr, vr.chapter, vr.verse_nr,
		       t.id, t.title
		FROM verse_tags vt
		JOIN verse_references vr ON vr.id = vt.verse_reference_id
		JOIN tags t ON t.id = vt.tag_id
		WHERE vr.book_short_title = ?
		ORDER BY vr.abs_verse_nr ASC, t.title COLLATE NOCASE ASC`,
		book)
	if err != nil {
		return nil, errors.NewStorage("find verse tags by book", err)
	}
	return collectTaggedVerses(rows)
}

// FindVerseTagsByReferenceIDs returns the tag assignments of the given verse
// references, ordered by ascending absolute verse number.
func (s *Store) FindVerseTagsByReferenceIDs(ctx context.Context, ids []string) ([]TaggedVerse, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query := `
		SELECT vr.id, vr.book_short_title, vr.abs_verse_nr, vr.chapter, vr.verse_nr,
		       t.id, t.title
		FROM verse_tags vt
		JOIN verse_references vr ON vr.id = vt.verse_reference_id
		JOIN tags t ON t.id = vt.tag_id
		WHERE vt.verse_reference_id IN (` + placeholders(len(ids)) + `)
		ORDER BY vr.abs_verse_nr ASC, t.title COLLATE NOCASE ASC`
	rows, err := s.db.QueryContext(ctx, query, toAnySlice(ids)...)
	if err != nil {
		return nil, errors.NewStorage("find verse tags by references", err)
	}
	return collectTaggedVerses(rows)
}

func collectTaggedVerses(rows *sql.Rows) ([]TaggedVerse, error) {
	defer rows.Close()
	var out []TaggedVerse
	for rows.Next() {
		var tv TaggedVerse
		err := rows.Scan(&tv.VerseReferenceID, &tv.BookShortTitle, &tv.AbsoluteVerseNr,
			&tv.Chapter, &tv.VerseNr, &tv.TagID, &tv.TagTitle)
		if err != nil {
			return nil, errors.NewStorage("scan verse tag", err)
		}
		out = append(out, tv)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewStorage("scan verse tags", err)
	}
	return out, nil
}
