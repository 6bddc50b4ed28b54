// Package books provides the canonical, ordered catalog of scripture books.
//
// The directory is loaded once at startup and treated as immutable afterwards.
// Book short titles are the foreign key every other entity uses; the canonical
// ordinal defines total book order (Genesis=1 through Revelation=66, with
// deuterocanonical books placed after Revelation in a fixed order).
package books

import (
	"strings"

	"github.com/FocuswithJustin/CedarBible/core/errors"
)

// Testament identifies the canon division a book belongs to.
type Testament string

// Testament constants.
const (
	TestamentOld     Testament = "OT"
	TestamentNew     Testament = "NT"
	TestamentDeutero Testament = "DC"
)

// Book is one entry of the canonical catalog.
type Book struct {
	// Ordinal is the canonical position (Genesis=1 ... Revelation=66, DC 67+).
	Ordinal int `json:"ordinal"`

	// ShortTitle is the unique book code (e.g., "Gen", "Psa", "Rev").
	ShortTitle string `json:"short_title"`

	// LongTitle is the library-default full title.
	LongTitle string `json:"long_title"`

	// Testament is the canon division.
	Testament Testament `json:"testament"`
}

// Directory is the canonical book catalog with optional localized titles.
// All lookups are pure; no I/O happens after construction.
type Directory struct {
	byShort map[string]*Book
	ordered []*Book

	// localized maps language code -> short title -> localized long title.
	localized map[string]map[string]string
}

// NewDirectory builds the directory from the built-in canonical catalog.
func NewDirectory() *Directory {
	d := &Directory{
		byShort:   make(map[string]*Book, len(canonicalBooks)),
		ordered:   make([]*Book, 0, len(canonicalBooks)),
		localized: make(map[string]map[string]string),
	}
	for i := range canonicalBooks {
		b := canonicalBooks[i]
		d.byShort[b.ShortTitle] = &b
		d.ordered = append(d.ordered, &b)
	}
	return d
}

// Book returns the catalog entry for a short title.
func (d *Directory) Book(shortTitle string) (*Book, error) {
	b, ok := d.byShort[shortTitle]
	if !ok {
		return nil, errors.NewUnknownBook(shortTitle)
	}
	return b, nil
}

// OrdinalOf returns the canonical ordinal for a short title.
func (d *Directory) OrdinalOf(shortTitle string) (int, error) {
	b, err := d.Book(shortTitle)
	if err != nil {
		return 0, err
	}
	return b.Ordinal, nil
}

// IsOldTestament reports whether the book belongs to the Old Testament.
// Unknown books report false.
func (d *Directory) IsOldTestament(shortTitle string) bool {
	b, ok := d.byShort[shortTitle]
	return ok && b.Testament == TestamentOld
}

// IsNewTestament reports whether the book belongs to the New Testament.
// Unknown books report false.
func (d *Directory) IsNewTestament(shortTitle string) bool {
	b, ok := d.byShort[shortTitle]
	return ok && b.Testament == TestamentNew
}

// LongTitleOf returns the library-default long title for a short title.
func (d *Directory) LongTitleOf(shortTitle string) (string, error) {
	b, err := d.Book(shortTitle)
	if err != nil {
		return "", err
	}
	return b.LongTitle, nil
}

// SetTitleTranslation registers a localized long title for a book.
// This is part of directory construction and must not be called once the
// directory is shared across goroutines.
func (d *Directory) SetTitleTranslation(languageCode, shortTitle, title string) error {
	if _, err := d.Book(shortTitle); err != nil {
		return err
	}
	lang := d.localized[languageCode]
	if lang == nil {
		lang = make(map[string]string)
		d.localized[languageCode] = lang
	}
	lang[shortTitle] = title
	return nil
}

// TitleTranslation returns the localized long title for a book, falling back
// to the library-default title when no localization exists for the language.
func (d *Directory) TitleTranslation(shortTitle, languageCode string) (string, error) {
	b, err := d.Book(shortTitle)
	if err != nil {
		return "", err
	}
	if lang, ok := d.localized[languageCode]; ok {
		if title, ok := lang[shortTitle]; ok {
			return title, nil
		}
	}
	return b.LongTitle, nil
}

// FindByTitle resolves a short title, default long title, or any registered
// localized title (case-insensitive) to the catalog entry.
func (d *Directory) FindByTitle(title string) (*Book, bool) {
	needle := strings.ToLower(strings.TrimSpace(title))
	if needle == "" {
		return nil, false
	}
	for _, b := range d.ordered {
		if strings.ToLower(b.ShortTitle) == needle || strings.ToLower(b.LongTitle) == needle {
			return b, true
		}
	}
	for _, lang := range d.localized {
		for short, localized := range lang {
			if strings.ToLower(localized) == needle {
				return d.byShort[short], true
			}
		}
	}
	return nil, false
}

// Books returns the catalog in canonical order.
func (d *Directory) Books() []Book {
	out := make([]Book, len(d.ordered))
	for i, b := range d.ordered {
		out[i] = *b
	}
	return out
}

// Len returns the number of books in the catalog.
func (d *Directory) Len() int {
	return len(d.ordered)
}
