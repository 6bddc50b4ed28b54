// Package versification models versification schemes, the scheme registry,
// and the conversion between scheme-relative verse addresses and canonical
// absolute verse numbers.
//
// A versification scheme is a per-book table of chapter and verse counts.
// One scheme is designated canonical; every annotation is keyed to the
// canonical numbering so it stays attached to the same verse regardless of
// which translation is displayed.
package versification

import (
	"encoding/binary"
	"encoding/hex"
	"sort"

	"github.com/zeebo/blake3"

	"github.com/FocuswithJustin/CedarBible/core/errors"
)

// Scheme holds the chapter/verse-count tables of one versification scheme.
// Schemes are built once (by the registry or by tests) and must not be
// modified after they are shared.
type Scheme struct {
	name   string
	counts map[string][]int // book short title -> per-chapter verse counts

	fingerprint string // memoized structural hash
}

// NewScheme creates an empty scheme with the given name.
func NewScheme(name string) *Scheme {
	return &Scheme{
		name:   name,
		counts: make(map[string][]int),
	}
}

// Name returns the scheme name (e.g., "KJV", "Synodal").
func (s *Scheme) Name() string {
	return s.name
}

// SetBookCounts sets the per-chapter verse counts for a book.
// Chapter N has verseCounts[N-1] verses. Calling this after the scheme has
// been fingerprinted or shared is a caller bug.
func (s *Scheme) SetBookCounts(book string, verseCounts []int) {
	counts := make([]int, len(verseCounts))
	copy(counts, verseCounts)
	s.counts[book] = counts
	s.fingerprint = ""
}

// HasBook reports whether the scheme has a table for the book.
func (s *Scheme) HasBook(book string) bool {
	_, ok := s.counts[book]
	return ok
}

// Books returns the book short titles covered by the scheme, sorted
// lexicographically (canonical ordering is the directory's concern).
func (s *Scheme) Books() []string {
	out := make([]string, 0, len(s.counts))
	for book := range s.counts {
		out = append(out, book)
	}
	sort.Strings(out)
	return out
}

// ChapterCount returns the number of chapters the book has in this scheme.
func (s *Scheme) ChapterCount(book string) (int, error) {
	counts, ok := s.counts[book]
	if !ok {
		return 0, errors.NewUnknownBook(book)
	}
	return len(counts), nil
}

// VerseCount returns the number of verses in the given chapter.
func (s *Scheme) VerseCount(book string, chapter int) (int, error) {
	counts, ok := s.counts[book]
	if !ok {
		return 0, errors.NewUnknownBook(book)
	}
	if chapter < 1 || chapter > len(counts) {
		return 0, errors.NewUnknownChapter(s.name, book, chapter, len(counts))
	}
	return counts[chapter-1], nil
}

// BookTotal returns the total verse count of the book in this scheme.
// Unknown books total zero.
func (s *Scheme) BookTotal(book string) int {
	total := 0
	for _, n := range s.counts[book] {
		total += n
	}
	return total
}

// Fingerprint returns a hex digest of the scheme's structure.
//
// Two schemes with identical chapter/verse-count tables produce the same
// fingerprint regardless of their names; the registry uses this to collapse
// translations that share one versification into a single scheme instance.
func (s *Scheme) Fingerprint() string {
	if s.fingerprint != "" {
		return s.fingerprint
	}

	h := blake3.New()
	var buf [4]byte
	for _, book := range s.Books() {
		h.Write([]byte(book))
		h.Write([]byte{0})
		counts := s.counts[book]
		binary.LittleEndian.PutUint32(buf[:], uint32(len(counts)))
		h.Write(buf[:])
		for _, n := range counts {
			binary.LittleEndian.PutUint32(buf[:], uint32(n))
			h.Write(buf[:])
		}
	}
	s.fingerprint = hex.EncodeToString(h.Sum(nil))
	return s.fingerprint
}

// SameStructure reports whether two schemes have identical tables.
func (s *Scheme) SameStructure(other *Scheme) bool {
	if s == other {
		return true
	}
	if other == nil {
		return false
	}
	return s.Fingerprint() == other.Fingerprint()
}
