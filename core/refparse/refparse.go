// Package refparse parses textual scripture references into addresses.
//
// It accepts the common user-facing forms ("Gen 1:1", "Genesis 1:1-5",
// "Psa 3") as well as the OSIS-style dotted keys cross-reference lists use
// ("Gen.1.1"). Book tokens are resolved against the canonical book
// directory after parsing.
package refparse

import (
	"fmt"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"

	"github.com/FocuswithJustin/CedarBible/core/books"
	"github.com/FocuswithJustin/CedarBible/core/errors"
	"github.com/FocuswithJustin/CedarBible/core/versification"
)

// Range is a parsed scripture reference that may span verses or chapters.
type Range struct {
	Book         string `@Book`
	ChapterStart *int   `( @Number`
	VerseStart   *int   `( ":" @Number )?`
	ChapterEnd   *int   `( "-" ( @Number`
	VerseEnd     *int   `    ( ":" @Number )? )? )? )?`
}

// referenceLexer tokenizes scripture references.
var referenceLexer = lexer.MustSimple([]lexer.SimpleRule{
	// Book names: optional leading ordinal, letters, optional connective
	// words, optional trailing period.
	// Examples: Genesis, Gen, Gen., 1John, 1 John, Song of Solomon
	{Name: "Book", Pattern: `(?:\d\s*)?[A-Za-z]+(?:\s+(?:of\s+)?[A-Za-z]+)*\.?`},
	{Name: "Number", Pattern: `\d+`},
	{Name: "Colon", Pattern: `:`},
	{Name: "Dash", Pattern: `-`},
	{Name: "Whitespace", Pattern: `\s+`},
})

var referenceParser = participle.MustBuild[Range](
	participle.Lexer(referenceLexer),
	participle.Elide("Whitespace"),
)

// ParseRange parses a scripture reference string.
// Supported formats:
//   - "Genesis 1:1" (book chapter:verse)
//   - "Gen 1:1" (abbreviated book)
//   - "Gen.1.1" (OSIS-style dotted key)
//   - "Genesis 1:1-5" (verse range within chapter)
//   - "Genesis 1:1-2:5" (range across chapters)
//   - "Genesis 1-2" (chapter range)
//   - "Genesis 1" (full chapter)
//   - "Genesis" (full book)
func ParseRange(input string) (*Range, error) {
	normalized := normalizeSeparators(strings.TrimSpace(input))

	ref, err := referenceParser.ParseString("", normalized)
	if err != nil {
		return nil, errors.Wrapf(err, "parsing reference %q", input)
	}
	ref.Book = strings.TrimSpace(strings.TrimSuffix(ref.Book, "."))

	// "Genesis 1:1-5" parses the 5 as ChapterEnd; with a VerseStart present
	// the number after the dash is a verse end.
	if ref.VerseStart != nil && ref.ChapterEnd != nil && ref.VerseEnd == nil {
		ref.VerseEnd = ref.ChapterEnd
		ref.ChapterEnd = nil
	}

	return ref, nil
}

// ParseAddress parses a single-verse reference (no range) and resolves the
// book token against the directory.
func ParseAddress(dir *books.Directory, input string) (versification.Address, error) {
	r, err := ParseRange(input)
	if err != nil {
		return versification.Address{}, err
	}
	if r.IsRange() {
		return versification.Address{}, errors.NewValidation("reference",
			fmt.Sprintf("%q is a range, expected a single verse", input))
	}
	if r.ChapterStart == nil || r.VerseStart == nil {
		return versification.Address{}, errors.NewValidation("reference",
			fmt.Sprintf("%q does not address a single verse", input))
	}

	book, ok := dir.FindByTitle(r.Book)
	if !ok {
		return versification.Address{}, errors.NewUnknownBook(r.Book)
	}
	return versification.Address{
		Book:    book.ShortTitle,
		Chapter: *r.ChapterStart,
		Verse:   *r.VerseStart,
	}, nil
}

// normalizeSeparators converts dot separators to the colon format:
// "Gen.1.1" -> "Gen 1:1", "Gen 1.1" -> "Gen 1:1".
func normalizeSeparators(input string) string {
	parts := strings.Split(input, ".")
	if len(parts) < 2 {
		return input
	}

	book := parts[0]
	rest := parts[1:]
	for _, p := range rest {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		for _, c := range p {
			if c < '0' || c > '9' {
				return input
			}
		}
	}

	if len(rest) == 1 {
		return book + " " + rest[0]
	}
	return book + " " + rest[0] + ":" + strings.Join(rest[1:], ":")
}

// String returns the canonical string representation of the reference.
func (r *Range) String() string {
	if r.ChapterStart == nil {
		return r.Book
	}

	var sb strings.Builder
	sb.WriteString(r.Book)
	sb.WriteString(" ")
	fmt.Fprintf(&sb, "%d", *r.ChapterStart)

	if r.VerseStart != nil {
		fmt.Fprintf(&sb, ":%d", *r.VerseStart)
	}

	if r.ChapterEnd != nil {
		fmt.Fprintf(&sb, "-%d", *r.ChapterEnd)
		if r.VerseEnd != nil {
			fmt.Fprintf(&sb, ":%d", *r.VerseEnd)
		}
	} else if r.VerseEnd != nil {
		fmt.Fprintf(&sb, "-%d", *r.VerseEnd)
	}

	return sb.String()
}

// IsRange reports whether the reference spans multiple verses or chapters.
func (r *Range) IsRange() bool {
	return r.ChapterEnd != nil || r.VerseEnd != nil
}

// IsChapterOnly reports whether the reference addresses full chapter(s).
func (r *Range) IsChapterOnly() bool {
	return r.ChapterStart != nil && r.VerseStart == nil
}

// IsBookOnly reports whether the reference addresses the entire book.
func (r *Range) IsBookOnly() bool {
	return r.ChapterStart == nil
}
