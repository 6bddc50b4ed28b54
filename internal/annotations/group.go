package annotations

import (
	"sort"
	"strings"

	"github.com/FocuswithJustin/CedarBible/internal/store"
)

// TagRef is one tag as it appears attached to a verse group.
type TagRef struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// VerseGroup collects everything annotated on one verse reference: the tag
// set and the note, keyed by the canonical position. A group with
// AbsoluteVerseNr 0 is a book-level entry.
type VerseGroup struct {
	VerseReferenceID string   `json:"verse_reference_id"`
	BookShortTitle   string   `json:"book_short_title"`
	AbsoluteVerseNr  int      `json:"absolute_verse_nr"`
	Chapter          int      `json:"chapter"`
	VerseNr          int      `json:"verse_nr"`
	Tags             []TagRef `json:"tags"`
	NoteText         string   `json:"note_text,omitempty"`
}

// GroupByVerse folds flat tag assignments and notes into one entry per verse
// reference. Groups come back ordered by ascending absolute verse number
// (book-level entries first) and each group's tags are ordered by title,
// case-insensitively.
func GroupByVerse(tagged []store.TaggedVerse, noted []store.NotedVerse) []VerseGroup {
	byRef := make(map[string]*VerseGroup)

	group := func(id, book string, abs, chapter, verse int) *VerseGroup {
		g, ok := byRef[id]
		if !ok {
			g = &VerseGroup{
				VerseReferenceID: id,
				BookShortTitle:   book,
				AbsoluteVerseNr:  abs,
				Chapter:          chapter,
				VerseNr:          verse,
			}
			byRef[id] = g
		}
		return g
	}

	for _, tv := range tagged {
		g := group(tv.VerseReferenceID, tv.BookShortTitle, tv.AbsoluteVerseNr, tv.Chapter, tv.VerseNr)
		g.Tags = append(g.Tags, TagRef{ID: tv.TagID, Title: tv.TagTitle})
	}
	for _, nv := range noted {
		g := group(nv.VerseReferenceID, nv.BookShortTitle, nv.AbsoluteVerseNr, nv.Chapter, nv.VerseNr)
		g.NoteText = nv.Text
	}

	groups := make([]VerseGroup, 0, len(byRef))
	for _, g := range byRef {
		sort.Slice(g.Tags, func(i, j int) bool {
			return strings.ToLower(g.Tags[i].Title) < strings.ToLower(g.Tags[j].Title)
		})
		groups = append(groups, *g)
	}
	sort.Slice(groups, func(i, j int) bool {
		if groups[i].AbsoluteVerseNr != groups[j].AbsoluteVerseNr {
			return groups[i].AbsoluteVerseNr < groups[j].AbsoluteVerseNr
		}
		return groups[i].BookShortTitle < groups[j].BookShortTitle
	})
	return groups
}
