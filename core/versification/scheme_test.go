package versification

import (
	"testing"

	"github.com/FocuswithJustin/CedarBible/core/errors"
)

func TestSchemeCounts(t *testing.T) {
	s := NewScheme("KJV")
	s.SetBookCounts("Gen", []int{31, 25, 24})

	chapters, err := s.ChapterCount("Gen")
	if err != nil {
		t.Fatalf("ChapterCount error: %v", err)
	}
	if chapters != 3 {
		t.Errorf("ChapterCount(Gen) = %d; want 3", chapters)
	}

	verses, err := s.VerseCount("Gen", 2)
	if err != nil {
		t.Fatalf("VerseCount error: %v", err)
	}
	if verses != 25 {
		t.Errorf("VerseCount(Gen, 2) = %d; want 25", verses)
	}

	if got := s.BookTotal("Gen"); got != 80 {
		t.Errorf("BookTotal(Gen) = %d; want 80", got)
	}
}

func TestSchemeUnknownBook(t *testing.T) {
	s := NewScheme("KJV")
	if _, err := s.ChapterCount("Gen"); !errors.Is(err, errors.ErrUnknownBook) {
		t.Errorf("ChapterCount on missing book = %v; want ErrUnknownBook", err)
	}
	if _, err := s.VerseCount("Gen", 1); !errors.Is(err, errors.ErrUnknownBook) {
		t.Errorf("VerseCount on missing book = %v; want ErrUnknownBook", err)
	}
}

func TestSchemeUnknownChapter(t *testing.T) {
	s := NewScheme("KJV")
	s.SetBookCounts("Gen", []int{31, 25})

	for _, chapter := range []int{0, 3, -1} {
		_, err := s.VerseCount("Gen", chapter)
		if !errors.Is(err, errors.ErrUnknownChapter) {
			t.Errorf("VerseCount(Gen, %d) = %v; want ErrUnknownChapter", chapter, err)
		}
	}
}

func TestSchemeFingerprintStructuralEquality(t *testing.T) {
	a := NewScheme("KJV")
	a.SetBookCounts("Gen", []int{31, 25})
	a.SetBookCounts("Exo", []int{22})

	// Same structure, different name and insertion order.
	b := NewScheme("WEB")
	b.SetBookCounts("Exo", []int{22})
	b.SetBookCounts("Gen", []int{31, 25})

	if a.Fingerprint() != b.Fingerprint() {
		t.Error("structurally identical schemes should share a fingerprint")
	}
	if !a.SameStructure(b) {
		t.Error("SameStructure should report true for identical tables")
	}

	c := NewScheme("Synodal")
	c.SetBookCounts("Gen", []int{31, 26})
	c.SetBookCounts("Exo", []int{22})
	if a.Fingerprint() == c.Fingerprint() {
		t.Error("schemes with different verse counts must not share a fingerprint")
	}
	if a.SameStructure(c) {
		t.Error("SameStructure should report false for different tables")
	}
}

func TestSchemeFingerprintInvalidatedBySetBookCounts(t *testing.T) {
	s := NewScheme("KJV")
	s.SetBookCounts("Gen", []int{31})
	before := s.Fingerprint()

	s.SetBookCounts("Gen", []int{31, 25})
	if s.Fingerprint() == before {
		t.Error("Fingerprint should change after SetBookCounts")
	}
}
