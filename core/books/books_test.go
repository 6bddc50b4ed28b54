package books

import (
	"testing"

	"github.com/FocuswithJustin/CedarBible/core/errors"
)

func TestOrdinalOf(t *testing.T) {
	d := NewDirectory()

	tests := []struct {
		short string
		want  int
	}{
		{"Gen", 1},
		{"Psa", 19},
		{"Mal", 39},
		{"Mat", 40},
		{"Rev", 66},
		{"Tob", 67},
	}
	for _, tt := range tests {
		got, err := d.OrdinalOf(tt.short)
		if err != nil {
			t.Errorf("OrdinalOf(%s) error: %v", tt.short, err)
			continue
		}
		if got != tt.want {
			t.Errorf("OrdinalOf(%s) = %d; want %d", tt.short, got, tt.want)
		}
	}
}

func TestOrdinalOfUnknownBook(t *testing.T) {
	d := NewDirectory()
	_, err := d.OrdinalOf("Xyz")
	if err == nil {
		t.Fatal("OrdinalOf(Xyz) should fail")
	}
	if !errors.Is(err, errors.ErrUnknownBook) {
		t.Errorf("error = %v; want ErrUnknownBook", err)
	}
}

func TestTestamentChecks(t *testing.T) {
	d := NewDirectory()

	if !d.IsOldTestament("Gen") {
		t.Error("Gen should be Old Testament")
	}
	if d.IsNewTestament("Gen") {
		t.Error("Gen should not be New Testament")
	}
	if !d.IsNewTestament("Mat") {
		t.Error("Mat should be New Testament")
	}
	if d.IsOldTestament("Tob") || d.IsNewTestament("Tob") {
		t.Error("Tob is deuterocanonical, neither OT nor NT")
	}
	if d.IsOldTestament("Xyz") || d.IsNewTestament("Xyz") {
		t.Error("unknown books should report false for both testaments")
	}
}

func TestTitleTranslationFallback(t *testing.T) {
	d := NewDirectory()

	// No localization registered: falls back to the default long title.
	got, err := d.TitleTranslation("Gen", "de")
	if err != nil {
		t.Fatalf("TitleTranslation error: %v", err)
	}
	if got != "Genesis" {
		t.Errorf("TitleTranslation(Gen, de) = %q; want %q", got, "Genesis")
	}

	if err := d.SetTitleTranslation("de", "Gen", "1. Mose"); err != nil {
		t.Fatalf("SetTitleTranslation error: %v", err)
	}
	got, err = d.TitleTranslation("Gen", "de")
	if err != nil {
		t.Fatalf("TitleTranslation error: %v", err)
	}
	if got != "1. Mose" {
		t.Errorf("TitleTranslation(Gen, de) = %q; want %q", got, "1. Mose")
	}

	// Other books in the same language still fall back.
	got, _ = d.TitleTranslation("Exo", "de")
	if got != "Exodus" {
		t.Errorf("TitleTranslation(Exo, de) = %q; want fallback %q", got, "Exodus")
	}
}

func TestSetTitleTranslationUnknownBook(t *testing.T) {
	d := NewDirectory()
	if err := d.SetTitleTranslation("de", "Xyz", "Nope"); err == nil {
		t.Error("SetTitleTranslation for unknown book should fail")
	}
}

func TestFindByTitle(t *testing.T) {
	d := NewDirectory()
	d.SetTitleTranslation("de", "Gen", "1. Mose")

	tests := []struct {
		title string
		want  string
		ok    bool
	}{
		{"Gen", "Gen", true},
		{"genesis", "Gen", true},
		{"Song of Solomon", "Sol", true},
		{"1. mose", "Gen", true},
		{"", "", false},
		{"Atlantis", "", false},
	}
	for _, tt := range tests {
		b, ok := d.FindByTitle(tt.title)
		if ok != tt.ok {
			t.Errorf("FindByTitle(%q) ok = %v; want %v", tt.title, ok, tt.ok)
			continue
		}
		if ok && b.ShortTitle != tt.want {
			t.Errorf("FindByTitle(%q) = %s; want %s", tt.title, b.ShortTitle, tt.want)
		}
	}
}

func TestBooksOrdered(t *testing.T) {
	d := NewDirectory()
	all := d.Books()
	if len(all) != d.Len() {
		t.Fatalf("Books() returned %d entries; want %d", len(all), d.Len())
	}
	for i := 1; i < len(all); i++ {
		if all[i].Ordinal <= all[i-1].Ordinal {
			t.Fatalf("Books() not in canonical order at index %d: %d after %d",
				i, all[i].Ordinal, all[i-1].Ordinal)
		}
	}
	if all[0].ShortTitle != "Gen" {
		t.Errorf("first book = %s; want Gen", all[0].ShortTitle)
	}
}
