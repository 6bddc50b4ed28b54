package versification

import (
	"context"
	"sort"

	"github.com/FocuswithJustin/CedarBible/core/errors"
	"github.com/FocuswithJustin/CedarBible/internal/logging"
)

// Translation describes one installed translation as reported by the module
// library collaborator.
type Translation struct {
	// ID is the module identifier (e.g., "KJV", "GerSch").
	ID string `json:"id"`

	// Name is the human-readable translation name.
	Name string `json:"name"`

	// Language is the ISO language code of the translation.
	Language string `json:"language"`

	// SchemeName is the versification name the module metadata declares.
	SchemeName string `json:"scheme_name"`
}

// ModuleSource supplies per-translation chapter/verse metadata. It is the
// boundary to the external module/text-retrieval library; the registry calls
// it once at build time and again only on explicit rebuild.
type ModuleSource interface {
	// Translations lists the installed translations.
	Translations(ctx context.Context) ([]Translation, error)

	// BookCodes lists the book short titles the translation contains.
	BookCodes(ctx context.Context, translationID string) ([]string, error)

	// ChapterCount returns the number of chapters of a book in a translation.
	ChapterCount(ctx context.Context, translationID, book string) (int, error)

	// VerseCount returns the number of verses of a chapter in a translation.
	VerseCount(ctx context.Context, translationID, book string, chapter int) (int, error)
}

// Registry is the process-wide catalog of versification schemes.
//
// It is immutable after Build returns; concurrent readers need no locking.
// Module installs are picked up by building a fresh registry and swapping it
// in at the composition root.
type Registry struct {
	byName        map[string]*Scheme
	byFingerprint map[string]*Scheme
	byTranslation map[string]*Scheme
	canonical     *Scheme
}

// Build folds every translation's metadata into scheme buckets.
//
// Translations with structurally identical tables share one scheme instance,
// deduplicated by fingerprint rather than by declared name. canonicalName
// selects the canonical scheme and must match a declared scheme name.
func Build(ctx context.Context, src ModuleSource, canonicalName string) (*Registry, error) {
	translations, err := src.Translations(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "listing translations")
	}

	r := &Registry{
		byName:        make(map[string]*Scheme),
		byFingerprint: make(map[string]*Scheme),
		byTranslation: make(map[string]*Scheme),
	}

	for _, tr := range translations {
		scheme, err := buildScheme(ctx, src, tr)
		if err != nil {
			return nil, errors.Wrapf(err, "building scheme for translation %s", tr.ID)
		}

		fp := scheme.Fingerprint()
		if existing, ok := r.byFingerprint[fp]; ok {
			scheme = existing
		} else {
			r.byFingerprint[fp] = scheme
		}

		r.byTranslation[tr.ID] = scheme
		if existing, ok := r.byName[tr.SchemeName]; !ok {
			r.byName[tr.SchemeName] = scheme
		} else if existing.Fingerprint() != fp {
			logging.Debug("versification name collision",
				"scheme", tr.SchemeName,
				"translation", tr.ID,
				"kept_fingerprint", existing.Fingerprint(),
				"dropped_fingerprint", fp)
		}
	}

	canonical, ok := r.byName[canonicalName]
	if !ok {
		return nil, errors.NewValidation("canonical scheme",
			"no installed translation declares versification "+canonicalName)
	}
	r.canonical = canonical

	return r, nil
}

func buildScheme(ctx context.Context, src ModuleSource, tr Translation) (*Scheme, error) {
	scheme := NewScheme(tr.SchemeName)

	bookCodes, err := src.BookCodes(ctx, tr.ID)
	if err != nil {
		return nil, err
	}
	for _, book := range bookCodes {
		chapters, err := src.ChapterCount(ctx, tr.ID, book)
		if err != nil {
			return nil, err
		}
		counts := make([]int, chapters)
		for ch := 1; ch <= chapters; ch++ {
			counts[ch-1], err = src.VerseCount(ctx, tr.ID, book, ch)
			if err != nil {
				return nil, err
			}
		}
		scheme.SetBookCounts(book, counts)
	}
	return scheme, nil
}

// Canonical returns the canonical scheme.
func (r *Registry) Canonical() *Scheme {
	return r.canonical
}

// Scheme returns a scheme by declared name.
func (r *Registry) Scheme(name string) (*Scheme, bool) {
	s, ok := r.byName[name]
	return s, ok
}

// SchemeForTranslation returns the scheme a translation uses.
func (r *Registry) SchemeForTranslation(translationID string) (*Scheme, bool) {
	s, ok := r.byTranslation[translationID]
	return s, ok
}

// SchemeNames returns all declared scheme names, sorted.
func (r *Registry) SchemeNames() []string {
	names := make([]string, 0, len(r.byName))
	for name := range r.byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// TranslationCount returns the number of registered translations.
func (r *Registry) TranslationCount() int {
	return len(r.byTranslation)
}

// SchemeCount returns the number of distinct scheme structures.
func (r *Registry) SchemeCount() int {
	return len(r.byFingerprint)
}
