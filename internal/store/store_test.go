package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/FocuswithJustin/CedarBible/core/books"
	"github.com/FocuswithJustin/CedarBible/core/errors"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "annotations.db"), books.NewDirectory(), nil)
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpenIsIdempotent(t *testing.T) {
	dir := books.NewDirectory()
	path := filepath.Join(t.TempDir(), "annotations.db")

	s, err := Open(path, dir, nil)
	if err != nil {
		t.Fatalf("first Open error: %v", err)
	}
	s.Close()

	// Reopening runs schema + book seeding again over existing data.
	s, err = Open(path, dir, nil)
	if err != nil {
		t.Fatalf("second Open error: %v", err)
	}
	s.Close()
}

func TestGetOrCreateVerseReferenceIdempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first, err := s.GetOrCreateVerseReference(ctx, "Gen", 32, 2, 1)
	if err != nil {
		t.Fatalf("GetOrCreateVerseReference error: %v", err)
	}
	second, err := s.GetOrCreateVerseReference(ctx, "Gen", 32, 2, 1)
	if err != nil {
		t.Fatalf("second GetOrCreateVerseReference error: %v", err)
	}

	if first.ID != second.ID {
		t.Errorf("repeated getOrCreate returned different rows: %s vs %s", first.ID, second.ID)
	}
	if first.BookShortTitle != "Gen" || first.AbsoluteVerseNr != 32 ||
		first.Chapter != 2 || first.VerseNr != 1 {
		t.Errorf("stored row = %+v; want Gen abs 32 ch 2 v 1", first)
	}
}

func TestFindVerseReferenceNotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.FindVerseReference(context.Background(), "Gen", 999)
	if !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("FindVerseReference = %v; want ErrNotFound", err)
	}
}

func TestCreateTagDuplicateCaseInsensitive(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, err := s.CreateTag(ctx, "Faith", ""); err != nil {
		t.Fatalf("CreateTag(Faith) error: %v", err)
	}
	_, err := s.CreateTag(ctx, "faith", "")
	if !errors.Is(err, errors.ErrDuplicateTag) {
		t.Errorf("CreateTag(faith) = %v; want ErrDuplicateTag", err)
	}
}

func TestCreateTagEmptyTitle(t *testing.T) {
	s := newTestStore(t)
	_, err := s.CreateTag(context.Background(), "   ", "")
	if !errors.Is(err, errors.ErrInvalidInput) {
		t.Errorf("CreateTag with blank title = %v; want ErrInvalidInput", err)
	}
}

func TestAssignTagIdempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	tag, err := s.CreateTag(ctx, "Faith", "")
	if err != nil {
		t.Fatalf("CreateTag error: %v", err)
	}
	ref, err := s.GetOrCreateVerseReference(ctx, "Gen", 1, 1, 1)
	if err != nil {
		t.Fatalf("GetOrCreateVerseReference error: %v", err)
	}

	affected, err := s.AssignTag(ctx, tag.ID, ref.ID)
	if err != nil {
		t.Fatalf("AssignTag error: %v", err)
	}
	if affected != 1 {
		t.Errorf("first AssignTag affected = %d; want 1", affected)
	}

	affected, err = s.AssignTag(ctx, tag.ID, ref.ID)
	if err != nil {
		t.Fatalf("second AssignTag error: %v", err)
	}
	if affected != 0 {
		t.Errorf("second AssignTag affected = %d; want 0", affected)
	}

	stored, err := s.GetTag(ctx, tag.ID)
	if err != nil {
		t.Fatalf("GetTag error: %v", err)
	}
	if stored.AssignmentCount != 1 {
		t.Errorf("AssignmentCount = %d; want 1 after duplicate assign", stored.AssignmentCount)
	}
	if stored.LastUsedAt == nil {
		t.Error("LastUsedAt should be set after an assignment")
	}
}

func TestUnassignTagMissingPair(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	tag, _ := s.CreateTag(ctx, "Faith", "")
	ref, _ := s.GetOrCreateVerseReference(ctx, "Gen", 1, 1, 1)

	affected, err := s.UnassignTag(ctx, tag.ID, ref.ID)
	if err != nil {
		t.Fatalf("UnassignTag error: %v", err)
	}
	if affected != 0 {
		t.Errorf("UnassignTag of absent pair affected = %d; want 0", affected)
	}

	stored, _ := s.GetTag(ctx, tag.ID)
	if stored.AssignmentCount != 0 {
		t.Errorf("AssignmentCount = %d; want 0", stored.AssignmentCount)
	}
}

func TestBulkUpdateTag(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	tag, _ := s.CreateTag(ctx, "Creation", "")
	refs := []VerseReference{
		{BookShortTitle: "Gen", AbsoluteVerseNr: 1, Chapter: 1, VerseNr: 1},
		{BookShortTitle: "Gen", AbsoluteVerseNr: 2, Chapter: 1, VerseNr: 2},
		{BookShortTitle: "Gen", AbsoluteVerseNr: 3, Chapter: 1, VerseNr: 3},
	}

	affected, err := s.BulkUpdateTag(ctx, tag.ID, refs, TagActionAdd)
	if err != nil {
		t.Fatalf("BulkUpdateTag add error: %v", err)
	}
	if affected != 3 {
		t.Errorf("bulk add affected = %d; want 3", affected)
	}

	stored, _ := s.GetTag(ctx, tag.ID)
	if stored.AssignmentCount != 3 {
		t.Errorf("AssignmentCount = %d; want 3", stored.AssignmentCount)
	}

	// Re-adding the same set is a no-op.
	affected, err = s.BulkUpdateTag(ctx, tag.ID, refs, TagActionAdd)
	if err != nil {
		t.Fatalf("repeat bulk add error: %v", err)
	}
	if affected != 0 {
		t.Errorf("repeat bulk add affected = %d; want 0", affected)
	}

	affected, err = s.BulkUpdateTag(ctx, tag.ID, refs[:2], TagActionRemove)
	if err != nil {
		t.Fatalf("BulkUpdateTag remove error: %v", err)
	}
	if affected != 2 {
		t.Errorf("bulk remove affected = %d; want 2", affected)
	}
	stored, _ = s.GetTag(ctx, tag.ID)
	if stored.AssignmentCount != 1 {
		t.Errorf("AssignmentCount after remove = %d; want 1", stored.AssignmentCount)
	}
}

func TestBulkUpdateTagRemoveSkipsUnannotated(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	tag, _ := s.CreateTag(ctx, "Creation", "")
	refs := []VerseReference{
		{BookShortTitle: "Gen", AbsoluteVerseNr: 7, Chapter: 1, VerseNr: 7},
		{BookShortTitle: "Gen", AbsoluteVerseNr: 8, Chapter: 1, VerseNr: 8},
	}

	affected, err := s.BulkUpdateTag(ctx, tag.ID, refs, TagActionRemove)
	if err != nil {
		t.Fatalf("BulkUpdateTag remove error: %v", err)
	}
	if affected != 0 {
		t.Errorf("remove over unannotated positions affected = %d; want 0", affected)
	}

	// Removal must not seed reference rows.
	for _, ref := range refs {
		_, err := s.FindVerseReference(ctx, ref.BookShortTitle, ref.AbsoluteVerseNr)
		if !errors.Is(err, errors.ErrNotFound) {
			t.Errorf("FindVerseReference(Gen, %d) = %v; want ErrNotFound", ref.AbsoluteVerseNr, err)
		}
	}
}

func TestBulkUpdateTagUnknownTag(t *testing.T) {
	s := newTestStore(t)
	refs := []VerseReference{{BookShortTitle: "Gen", AbsoluteVerseNr: 1, Chapter: 1, VerseNr: 1}}
	_, err := s.BulkUpdateTag(context.Background(), "missing", refs, TagActionAdd)
	if !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("BulkUpdateTag with unknown tag = %v; want ErrNotFound", err)
	}
}

func TestFindVerseReferencesByTagIDsOrdered(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	t1, _ := s.CreateTag(ctx, "Alpha", "")
	t2, _ := s.CreateTag(ctx, "Beta", "")

	// Insert out of canonical order.
	for _, ins := range []struct {
		tagID string
		abs   int
	}{
		{t1.ID, 500},
		{t2.ID, 3},
		{t1.ID, 120},
		{t2.ID, 501},
	} {
		ref, err := s.GetOrCreateVerseReference(ctx, "Gen", ins.abs, 1, ins.abs)
		if err != nil {
			t.Fatalf("GetOrCreateVerseReference error: %v", err)
		}
		if _, err := s.AssignTag(ctx, ins.tagID, ref.ID); err != nil {
			t.Fatalf("AssignTag error: %v", err)
		}
	}

	refs, err := s.FindVerseReferencesByTagIDs(ctx, []string{t1.ID, t2.ID})
	if err != nil {
		t.Fatalf("FindVerseReferencesByTagIDs error: %v", err)
	}
	want := []int{3, 120, 500, 501}
	if len(refs) != len(want) {
		t.Fatalf("got %d references; want %d", len(refs), len(want))
	}
	for i, ref := range refs {
		if ref.AbsoluteVerseNr != want[i] {
			t.Errorf("refs[%d].AbsoluteVerseNr = %d; want %d", i, ref.AbsoluteVerseNr, want[i])
		}
	}
}

func TestFindByAbsoluteRange(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, abs := range []int{10, 5, 20} {
		if _, err := s.GetOrCreateVerseReference(ctx, "Gen", abs, 1, abs); err != nil {
			t.Fatalf("GetOrCreateVerseReference error: %v", err)
		}
	}

	refs, err := s.FindByAbsoluteRange(ctx, "Gen", 5, 15)
	if err != nil {
		t.Fatalf("FindByAbsoluteRange error: %v", err)
	}
	if len(refs) != 2 || refs[0].AbsoluteVerseNr != 5 || refs[1].AbsoluteVerseNr != 10 {
		t.Errorf("FindByAbsoluteRange = %+v; want abs 5 then 10", refs)
	}
}

func TestPersistNote(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	ref, _ := s.GetOrCreateVerseReference(ctx, "Gen", 1, 1, 1)

	note, err := s.PersistNote(ctx, ref.ID, "In the beginning")
	if err != nil {
		t.Fatalf("PersistNote error: %v", err)
	}
	if note == nil || note.Text != "In the beginning" {
		t.Fatalf("PersistNote = %+v; want stored note", note)
	}

	// Overwrite in place.
	note, err = s.PersistNote(ctx, ref.ID, "Revised")
	if err != nil {
		t.Fatalf("PersistNote update error: %v", err)
	}
	stored, err := s.FindNote(ctx, ref.ID)
	if err != nil {
		t.Fatalf("FindNote error: %v", err)
	}
	if stored.Text != "Revised" {
		t.Errorf("stored note text = %q; want %q", stored.Text, "Revised")
	}

	// Empty text deletes the row.
	note, err = s.PersistNote(ctx, ref.ID, "   ")
	if err != nil {
		t.Fatalf("PersistNote delete error: %v", err)
	}
	if note != nil {
		t.Errorf("PersistNote with blank text = %+v; want nil", note)
	}
	if _, err := s.FindNote(ctx, ref.ID); !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("FindNote after delete = %v; want ErrNotFound", err)
	}
}

func TestBookLevelNote(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	ref, err := s.GetOrCreateBookReference(ctx, "Gen")
	if err != nil {
		t.Fatalf("GetOrCreateBookReference error: %v", err)
	}
	if ref.AbsoluteVerseNr != 0 || ref.Chapter != 0 || ref.VerseNr != 0 {
		t.Errorf("book reference = %+v; want zero position", ref)
	}

	if _, err := s.PersistNote(ctx, ref.ID, "Introduction to Genesis"); err != nil {
		t.Fatalf("PersistNote error: %v", err)
	}

	notes, err := s.FindNotesByBook(ctx, "Gen")
	if err != nil {
		t.Fatalf("FindNotesByBook error: %v", err)
	}
	if len(notes) != 1 || notes[0].Text != "Introduction to Genesis" {
		t.Errorf("FindNotesByBook = %+v; want the introduction note", notes)
	}
}

func TestRenameTag(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	tag, _ := s.CreateTag(ctx, "Faith", "")
	s.CreateTag(ctx, "Hope", "")

	renamed, err := s.RenameTag(ctx, tag.ID, "Trust")
	if err != nil {
		t.Fatalf("RenameTag error: %v", err)
	}
	if renamed.Title != "Trust" {
		t.Errorf("renamed title = %q; want Trust", renamed.Title)
	}

	if _, err := s.RenameTag(ctx, tag.ID, "hope"); !errors.Is(err, errors.ErrDuplicateTag) {
		t.Errorf("RenameTag onto existing title = %v; want ErrDuplicateTag", err)
	}
	if _, err := s.RenameTag(ctx, "missing", "Other"); !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("RenameTag of unknown tag = %v; want ErrNotFound", err)
	}

	// Renaming only the letter case of the same tag is allowed.
	if _, err := s.RenameTag(ctx, tag.ID, "trust"); err != nil {
		t.Errorf("case-only rename of own title failed: %v", err)
	}
}

func TestDeleteTagRemovesAssociations(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	tag, _ := s.CreateTag(ctx, "Faith", "")
	ref, _ := s.GetOrCreateVerseReference(ctx, "Gen", 1, 1, 1)
	s.AssignTag(ctx, tag.ID, ref.ID)

	if err := s.DeleteTag(ctx, tag.ID); err != nil {
		t.Fatalf("DeleteTag error: %v", err)
	}
	if _, err := s.GetTag(ctx, tag.ID); !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("GetTag after delete = %v; want ErrNotFound", err)
	}

	// The verse reference row survives for reuse.
	if _, err := s.FindVerseReference(ctx, "Gen", 1); err != nil {
		t.Errorf("verse reference should survive tag deletion: %v", err)
	}

	tags, err := s.FindVerseTagsByReferenceIDs(ctx, []string{ref.ID})
	if err != nil {
		t.Fatalf("FindVerseTagsByReferenceIDs error: %v", err)
	}
	if len(tags) != 0 {
		t.Errorf("associations after delete = %d; want 0", len(tags))
	}

	if err := s.DeleteTag(ctx, "missing"); !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("DeleteTag of unknown tag = %v; want ErrNotFound", err)
	}
}

func TestAllTags(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	faith, _ := s.CreateTag(ctx, "faith", "")
	s.CreateTag(ctx, "Creation", "")

	genRef, _ := s.GetOrCreateVerseReference(ctx, "Gen", 1, 1, 1)
	s.AssignTag(ctx, faith.ID, genRef.ID)

	all, err := s.AllTags(ctx, "", false)
	if err != nil {
		t.Fatalf("AllTags error: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("AllTags returned %d tags; want 2", len(all))
	}
	// Title ordering is case-insensitive.
	if all[0].Title != "Creation" || all[1].Title != "faith" {
		t.Errorf("AllTags order = [%s %s]; want [Creation faith]", all[0].Title, all[1].Title)
	}

	genTags, err := s.AllTags(ctx, "Gen", false)
	if err != nil {
		t.Fatalf("AllTags(Gen) error: %v", err)
	}
	if len(genTags) != 1 || genTags[0].Title != "faith" {
		t.Errorf("AllTags(Gen) = %+v; want only faith", genTags)
	}
	if genTags[0].AssignmentCount != 1 {
		t.Errorf("AssignmentCount = %d; want 1", genTags[0].AssignmentCount)
	}

	recent, err := s.AllTags(ctx, "", true)
	if err != nil {
		t.Fatalf("AllTags ordered by use error: %v", err)
	}
	if recent[0].Title != "faith" {
		t.Errorf("most recently used first = %s; want faith", recent[0].Title)
	}
}

func TestTagCount(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	count, err := s.TagCount(ctx)
	if err != nil {
		t.Fatalf("TagCount error: %v", err)
	}
	if count != 0 {
		t.Errorf("TagCount = %d; want 0", count)
	}

	s.CreateTag(ctx, "Faith", "")
	count, _ = s.TagCount(ctx)
	if count != 1 {
		t.Errorf("TagCount = %d; want 1", count)
	}
}

func TestLastMetaUpdate(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	last, err := s.LastMetaUpdate(ctx)
	if err != nil {
		t.Fatalf("LastMetaUpdate error: %v", err)
	}
	if !last.IsZero() {
		t.Errorf("LastMetaUpdate before any write = %v; want zero time", last)
	}

	before := time.Now().UTC().Add(-2 * time.Second)
	s.CreateTag(ctx, "Faith", "")

	last, err = s.LastMetaUpdate(ctx)
	if err != nil {
		t.Fatalf("LastMetaUpdate error: %v", err)
	}
	if last.Before(before) {
		t.Errorf("LastMetaUpdate = %v; want after %v", last, before)
	}
}

func TestFindVerseReferencesByPositions(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	s.GetOrCreateVerseReference(ctx, "Gen", 5, 1, 5)
	s.GetOrCreateVerseReference(ctx, "Exo", 1600, 1, 1)

	refs, err := s.FindVerseReferencesByPositions(ctx, []BookAbsolute{
		{Book: "Exo", AbsoluteVerseNr: 1600},
		{Book: "Gen", AbsoluteVerseNr: 5},
		{Book: "Gen", AbsoluteVerseNr: 99}, // never annotated
	})
	if err != nil {
		t.Fatalf("FindVerseReferencesByPositions error: %v", err)
	}
	if len(refs) != 2 {
		t.Fatalf("got %d references; want 2", len(refs))
	}
	if refs[0].AbsoluteVerseNr != 5 || refs[1].AbsoluteVerseNr != 1600 {
		t.Errorf("positions not ordered by absolute number: %+v", refs)
	}
}

func TestFindVerseReferencesByBooks(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	s.GetOrCreateVerseReference(ctx, "Exo", 1600, 1, 1)
	s.GetOrCreateVerseReference(ctx, "Gen", 5, 1, 5)
	s.GetOrCreateVerseReference(ctx, "Psa", 14000, 3, 1)
	s.GetOrCreateBookReference(ctx, "Gen")

	refs, err := s.FindVerseReferencesByBooks(ctx, []string{"Gen", "Exo"})
	if err != nil {
		t.Fatalf("FindVerseReferencesByBooks error: %v", err)
	}
	if len(refs) != 2 {
		t.Fatalf("got %d references; want 2", len(refs))
	}
	if refs[0].AbsoluteVerseNr != 5 || refs[1].AbsoluteVerseNr != 1600 {
		t.Errorf("books projection not ordered by absolute number: %+v", refs)
	}

	refs, err = s.FindVerseReferencesByBooks(ctx, nil)
	if err != nil {
		t.Fatalf("FindVerseReferencesByBooks with no books error: %v", err)
	}
	if len(refs) != 0 {
		t.Errorf("got %d references for empty book list; want 0", len(refs))
	}
}
