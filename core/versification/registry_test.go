package versification

import (
	"context"
	"testing"
)

// fakeSource is an in-memory ModuleSource for registry tests.
type fakeSource struct {
	translations []Translation
	tables       map[string]map[string][]int // translation ID -> book -> verse counts
}

func (f *fakeSource) Translations(ctx context.Context) ([]Translation, error) {
	return f.translations, nil
}

func (f *fakeSource) BookCodes(ctx context.Context, translationID string) ([]string, error) {
	var out []string
	for book := range f.tables[translationID] {
		out = append(out, book)
	}
	return out, nil
}

func (f *fakeSource) ChapterCount(ctx context.Context, translationID, book string) (int, error) {
	return len(f.tables[translationID][book]), nil
}

func (f *fakeSource) VerseCount(ctx context.Context, translationID, book string, chapter int) (int, error) {
	return f.tables[translationID][book][chapter-1], nil
}

func newFakeSource() *fakeSource {
	kjvTable := map[string][]int{
		"Gen": {31, 25},
		"Psa": {6, 12, 8},
	}
	// WEB shares the KJV tables exactly; Synodal counts the Psalm 3
	// superscription as a verse.
	synodalTable := map[string][]int{
		"Gen": {31, 25},
		"Psa": {6, 12, 9},
	}
	return &fakeSource{
		translations: []Translation{
			{ID: "KJV", Name: "King James Version", Language: "en", SchemeName: "KJV"},
			{ID: "WEB", Name: "World English Bible", Language: "en", SchemeName: "KJV"},
			{ID: "RST", Name: "Russian Synodal", Language: "ru", SchemeName: "Synodal"},
		},
		tables: map[string]map[string][]int{
			"KJV": kjvTable,
			"WEB": kjvTable,
			"RST": synodalTable,
		},
	}
}

func TestBuildRegistryDeduplicatesByStructure(t *testing.T) {
	r, err := Build(context.Background(), newFakeSource(), "KJV")
	if err != nil {
		t.Fatalf("Build error: %v", err)
	}

	if got := r.SchemeCount(); got != 2 {
		t.Errorf("SchemeCount() = %d; want 2 (KJV/WEB collapse)", got)
	}

	kjv, ok := r.SchemeForTranslation("KJV")
	if !ok {
		t.Fatal("SchemeForTranslation(KJV) missing")
	}
	web, ok := r.SchemeForTranslation("WEB")
	if !ok {
		t.Fatal("SchemeForTranslation(WEB) missing")
	}
	if kjv != web {
		t.Error("KJV and WEB share tables and must share one scheme instance")
	}

	rst, ok := r.SchemeForTranslation("RST")
	if !ok {
		t.Fatal("SchemeForTranslation(RST) missing")
	}
	if rst == kjv {
		t.Error("Synodal tables differ and must not collapse into KJV")
	}
}

func TestBuildRegistryNameCollisionKeepsFirst(t *testing.T) {
	src := newFakeSource()
	// A stale module declares the KJV name over Synodal-shaped tables.
	src.translations = append(src.translations,
		Translation{ID: "STALE", Name: "Stale Module", Language: "en", SchemeName: "KJV"})
	src.tables["STALE"] = src.tables["RST"]

	r, err := Build(context.Background(), src, "KJV")
	if err != nil {
		t.Fatalf("Build error: %v", err)
	}

	kjv, _ := r.Scheme("KJV")
	first, _ := r.SchemeForTranslation("KJV")
	if kjv != first {
		t.Error("first declared KJV structure must stay bound to the name")
	}

	stale, ok := r.SchemeForTranslation("STALE")
	if !ok {
		t.Fatal("SchemeForTranslation(STALE) missing")
	}
	if stale == kjv {
		t.Error("stale module keeps its own structure despite the name clash")
	}
}

func TestBuildRegistryCanonical(t *testing.T) {
	r, err := Build(context.Background(), newFakeSource(), "KJV")
	if err != nil {
		t.Fatalf("Build error: %v", err)
	}

	canonical := r.Canonical()
	if canonical == nil {
		t.Fatal("Canonical() returned nil")
	}
	if canonical.Name() != "KJV" {
		t.Errorf("canonical scheme = %s; want KJV", canonical.Name())
	}

	if _, ok := r.Scheme("Synodal"); !ok {
		t.Error("Scheme(Synodal) should resolve")
	}
	names := r.SchemeNames()
	if len(names) != 2 || names[0] != "KJV" || names[1] != "Synodal" {
		t.Errorf("SchemeNames() = %v; want [KJV Synodal]", names)
	}
}

func TestBuildRegistryUnknownCanonical(t *testing.T) {
	_, err := Build(context.Background(), newFakeSource(), "Vulgate")
	if err == nil {
		t.Fatal("Build with undeclared canonical scheme should fail")
	}
}
