package versification

import (
	"sort"

	"github.com/FocuswithJustin/CedarBible/core/books"
	"github.com/FocuswithJustin/CedarBible/core/errors"
)

// Address is a scheme-relative verse position.
type Address struct {
	Book    string `json:"book"`
	Chapter int    `json:"chapter"`
	Verse   int    `json:"verse"`
}

// Converter maps bidirectionally between scheme-relative addresses and
// canonical absolute verse numbers.
//
// Absolute numbering is 1-based and monotonically increasing across
// canonical book order: the absolute number of (book, chapter, verse) is the
// total verse count of every preceding book plus the verse count of every
// preceding chapter in the book plus the verse number, all expressed in the
// canonical scheme.
type Converter struct {
	dir       *books.Directory
	canonical *Scheme

	order        []string         // canonical book order, restricted to books the scheme covers
	bookStart    map[string]int   // verses before the book starts
	chapterStart map[string][]int // per book: verses before chapter N starts, index N-1
	starts       []int            // bookStart in order, for binary search
	total        int
}

// NewConverter precomputes the canonical prefix sums.
func NewConverter(dir *books.Directory, canonical *Scheme) *Converter {
	c := &Converter{
		dir:          dir,
		canonical:    canonical,
		bookStart:    make(map[string]int),
		chapterStart: make(map[string][]int),
	}

	running := 0
	for _, b := range dir.Books() {
		if !canonical.HasBook(b.ShortTitle) {
			continue
		}
		c.order = append(c.order, b.ShortTitle)
		c.bookStart[b.ShortTitle] = running
		c.starts = append(c.starts, running)

		chapters, _ := canonical.ChapterCount(b.ShortTitle)
		prefix := make([]int, chapters)
		sum := 0
		for ch := 1; ch <= chapters; ch++ {
			prefix[ch-1] = sum
			n, _ := canonical.VerseCount(b.ShortTitle, ch)
			sum += n
		}
		c.chapterStart[b.ShortTitle] = prefix
		running += sum
	}
	c.total = running
	return c
}

// CanonicalScheme returns the scheme the converter projects onto.
func (c *Converter) CanonicalScheme() *Scheme {
	return c.canonical
}

// TotalVerses returns the canonical total verse count.
func (c *Converter) TotalVerses() int {
	return c.total
}

// ToAbsolute converts a scheme-relative address to the canonical absolute
// verse number.
//
// When the input scheme's chapter boundaries differ from canonical, the verse
// number is shifted by the per-chapter offset derived from diffing the two
// schemes' chapter-length sequences. Fails with VersificationMismatch when
// the schemes disagree on the book's chapter count, since that cannot be
// resolved by offsetting.
func (c *Converter) ToAbsolute(scheme *Scheme, book string, chapter, verse int) (int, error) {
	if _, err := c.dir.OrdinalOf(book); err != nil {
		return 0, err
	}
	start, ok := c.bookStart[book]
	if !ok {
		return 0, errors.NewUnknownBook(book)
	}
	if scheme == nil {
		scheme = c.canonical
	}

	schemeChapters, err := scheme.ChapterCount(book)
	if err != nil {
		return 0, err
	}
	if chapter < 1 || chapter > schemeChapters {
		return 0, errors.NewUnknownChapter(scheme.Name(), book, chapter, schemeChapters)
	}
	schemeVerses, err := scheme.VerseCount(book, chapter)
	if err != nil {
		return 0, err
	}
	if verse < 1 || verse > schemeVerses {
		return 0, errors.NewOutOfRange("verse", verse, schemeVerses)
	}

	canonVerse := verse
	if !scheme.SameStructure(c.canonical) {
		canonChapters, _ := c.canonical.ChapterCount(book)
		if schemeChapters != canonChapters {
			return 0, errors.NewVersificationMismatch(scheme.Name(), c.canonical.Name(), book,
				"chapter counts differ")
		}
		canonVerses, err := c.canonical.VerseCount(book, chapter)
		if err != nil {
			return 0, err
		}
		// A scheme that folds a superscription into verse 1 carries one
		// extra verse in the chapter; the delta shifts the remaining verse
		// numbers back onto the canonical numbering.
		canonVerse = verse + (canonVerses - schemeVerses)
		if canonVerse < 1 {
			canonVerse = 1
		}
	}

	return start + c.chapterStart[book][chapter-1] + canonVerse, nil
}

// FromAbsolute converts a canonical absolute verse number back to the
// canonical-scheme address. It is the exact inverse of ToAbsolute over the
// canonical scheme.
func (c *Converter) FromAbsolute(absoluteVerseNr int) (Address, error) {
	if absoluteVerseNr < 1 || absoluteVerseNr > c.total {
		return Address{}, errors.NewOutOfRange("absolute verse number", absoluteVerseNr, c.total)
	}

	// Last book whose start is below the target.
	i := sort.Search(len(c.starts), func(i int) bool {
		return c.starts[i] >= absoluteVerseNr
	}) - 1
	book := c.order[i]
	within := absoluteVerseNr - c.bookStart[book]

	prefix := c.chapterStart[book]
	j := sort.Search(len(prefix), func(j int) bool {
		return prefix[j] >= within
	}) - 1
	chapter := j + 1

	return Address{
		Book:    book,
		Chapter: chapter,
		Verse:   within - prefix[j],
	}, nil
}

// Normalize projects a scheme-relative address onto the canonical scheme,
// returning both the canonical address and its absolute verse number.
func (c *Converter) Normalize(scheme *Scheme, addr Address) (Address, int, error) {
	abs, err := c.ToAbsolute(scheme, addr.Book, addr.Chapter, addr.Verse)
	if err != nil {
		return Address{}, 0, err
	}
	canonical, err := c.FromAbsolute(abs)
	if err != nil {
		return Address{}, 0, err
	}
	return canonical, abs, nil
}
