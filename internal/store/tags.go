package store

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/FocuswithJustin/CedarBible/core/errors"
)

// Tag is a user-defined label attachable to any number of verse references.
// AssignmentCount is a cached aggregate over verse_tags, recomputed inside
// every mutating transaction rather than incremented ad hoc.
type Tag struct {
	ID              string     `json:"id"`
	Title           string     `json:"title"`
	Type            string     `json:"type"`
	CreatedAt       time.Time  `json:"created_at"`
	LastUsedAt      *time.Time `json:"last_used_at,omitempty"`
	AssignmentCount int        `json:"assignment_count"`
}

// tagColumns is the ordered column list for tag queries.
// Must match the scan order in scanTag.
const tagColumns = `id, title, type, created_at, last_used_at, assignment_count`

func scanTag(scanner interface{ Scan(dest ...any) error }) (*Tag, error) {
	var t Tag
	var createdAt string
	var lastUsedAt sql.NullString

	err := scanner.Scan(&t.ID, &t.Title, &t.Type, &createdAt, &lastUsedAt, &t.AssignmentCount)
	if err != nil {
		return nil, err
	}

	t.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, err
	}
	if lastUsedAt.Valid {
		used, err := parseTime(lastUsedAt.String)
		if err != nil {
			return nil, err
		}
		t.LastUsedAt = &used
	}
	return &t, nil
}

// CreateTag creates a new tag. Titles are unique case-insensitively; a
// collision fails with DuplicateTag.
func (s *Store) CreateTag(ctx context.Context, title, tagType string) (*Tag, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, errors.NewValidation("title", "tag title must not be empty")
	}
	if tagType == "" {
		tagType = "standard"
	}

	tag := &Tag{
		ID:        uuid.NewString(),
		Title:     title,
		Type:      tagType,
		CreatedAt: time.Now().UTC(),
	}

	err := s.withTx(ctx, "create tag", func(tx *sql.Tx) error {
		var exists int
		err := tx.QueryRow(`SELECT COUNT(*) FROM tags WHERE title = ? COLLATE NOCASE`, title).Scan(&exists)
		if err != nil {
			return err
		}
		if exists > 0 {
			return errors.NewDuplicateTag(title)
		}
		_, err = tx.Exec(`
			INSERT INTO tags (id, title, type, created_at) VALUES (?, ?, ?, ?)`,
			tag.ID, tag.Title, tag.Type, formatTime(tag.CreatedAt))
		return err
	})
	if err != nil {
		// A losing racer hits the NOCASE uniqueness constraint on its first
		// attempt; the retry re-runs the existence check and reports the
		// duplicate. Anything else surfaces as-is.
		if strings.Contains(err.Error(), "UNIQUE constraint failed: tags.title") {
			return nil, errors.NewDuplicateTag(title)
		}
		return nil, err
	}
	return tag, nil
}

// RenameTag changes a tag's title, enforcing case-insensitive uniqueness.
func (s *Store) RenameTag(ctx context.Context, id, newTitle string) (*Tag, error) {
	newTitle = strings.TrimSpace(newTitle)
	if newTitle == "" {
		return nil, errors.NewValidation("title", "tag title must not be empty")
	}

	var renamed *Tag
	err := s.withTx(ctx, "rename tag", func(tx *sql.Tx) error {
		var exists int
		err := tx.QueryRow(
			`SELECT COUNT(*) FROM tags WHERE title = ? COLLATE NOCASE AND id != ?`,
			newTitle, id).Scan(&exists)
		if err != nil {
			return err
		}
		if exists > 0 {
			return errors.NewDuplicateTag(newTitle)
		}

		res, err := tx.Exec(`UPDATE tags SET title = ? WHERE id = ?`, newTitle, id)
		if err != nil {
			return err
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if affected == 0 {
			return errors.NewNotFound("tag", id)
		}

		row := tx.QueryRow(`SELECT `+tagColumns+` FROM tags WHERE id = ?`, id)
		renamed, err = scanTag(row)
		return err
	})
	if err != nil {
		return nil, err
	}
	return renamed, nil
}

// DeleteTag removes a tag and all its verse associations in one transaction.
// Verse reference rows stay behind; they may be reused by other annotations.
func (s *Store) DeleteTag(ctx context.Context, id string) error {
	return s.withTx(ctx, "delete tag", func(tx *sql.Tx) error {
		if _, err := tx.Exec(`DELETE FROM verse_tags WHERE tag_id = ?`, id); err != nil {
			return err
		}
		res, err := tx.Exec(`DELETE FROM tags WHERE id = ?`, id)
		if err != nil {
			return err
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if affected == 0 {
			return errors.NewNotFound("tag", id)
		}
		return nil
	})
}

// GetTag returns a tag by id.
func (s *Store) GetTag(ctx context.Context, id string) (*Tag, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+tagColumns+` FROM tags WHERE id = ?`, id)
	t, err := scanTag(row)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound("tag", id)
	}
	if err != nil {
		return nil, errors.NewStorage("get tag", err)
	}
	return t, nil
}

// TagCount returns the total number of tags.
func (s *Store) TagCount(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM tags`).Scan(&count); err != nil {
		return 0, errors.NewStorage("count tags", err)
	}
	return count, nil
}

// AllTags lists tags with their assignment counts in one bounded query.
// bookFilter, when non-empty, restricts the list to tags assigned somewhere
// in that book. orderByLastUsed sorts most recently used first instead of
// by title.
func (s *Store) AllTags(ctx context.Context, bookFilter string, orderByLastUsed bool) ([]Tag, error) {
	var sb strings.Builder
	var args []any

	sb.WriteString(`SELECT ` + tagColumns + ` FROM tags t`)
	if bookFilter != "" {
		sb.WriteString(`
			WHERE EXISTS (
				SELECT 1 FROM verse_tags vt
				JOIN verse_references vr ON vr.id = vt.verse_reference_id
				WHERE vt.tag_id = t.id AND vr.book_short_title = ?
			)`)
		args = append(args, bookFilter)
	}
	if orderByLastUsed {
		sb.WriteString(` ORDER BY last_used_at IS NULL, last_used_at DESC, title COLLATE NOCASE ASC`)
	} else {
		sb.WriteString(` ORDER BY title COLLATE NOCASE ASC`)
	}

	rows, err := s.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, errors.NewStorage("list tags", err)
	}
	defer rows.Close()

	var out []Tag
	for rows.Next() {
		t, err := scanTag(rows)
		if err != nil {
			return nil, errors.NewStorage("list tags", err)
		}
		out = append(out, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewStorage("list tags", err)
	}
	return out, nil
}

// recomputeAssignmentCount refreshes the cached aggregate for a tag from the
// association table inside the caller's transaction.
func recomputeAssignmentCount(tx *sql.Tx, tagID string) error {
	_, err := tx.Exec(`
		UPDATE tags SET assignment_count =
			(SELECT COUNT(*) FROM verse_tags WHERE tag_id = ?)
		WHERE id = ?`, tagID, tagID)
	return err
}

// markTagUsed stamps the tag's last_used_at inside the caller's transaction.
func markTagUsed(tx *sql.Tx, tagID string) error {
	_, err := tx.Exec(`UPDATE tags SET last_used_at = ? WHERE id = ?`,
		formatTime(time.Now().UTC()), tagID)
	return err
}
