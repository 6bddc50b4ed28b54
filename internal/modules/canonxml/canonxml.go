// Package canonxml loads versification module descriptions from XML files.
// One file describes one installed translation: its identity, the scheme
// name it reports, and the per-chapter verse counts of every book it
// carries. The loader folds any number of files into a single in-memory
// module source.
//
// Expected document shape:
//
//	<module id="KJV" name="King James Version" language="en" versification="KJV">
//	  <book code="Gen">
//	    <chapter number="1" verses="31"/>
//	    ...
//	  </book>
//	</module>
package canonxml

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/antchfx/xmlquery"
	"github.com/antchfx/xpath"

	"github.com/FocuswithJustin/CedarBible/core/errors"
	"github.com/FocuswithJustin/CedarBible/internal/modules/static"
)

var (
	moduleExpr  = xpath.MustCompile("//module")
	bookExpr    = xpath.MustCompile("book")
	chapterExpr = xpath.MustCompile("chapter")
)

// LoadDir parses every .xml file in dir into one source. Files are loaded
// in lexical order so repeated runs see the same translation set.
func LoadDir(dir string) (*static.Source, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "reading module directory %s", dir)
	}

	src := static.New()
	loaded := 0
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".xml") {
			continue
		}
		if err := loadFileInto(src, filepath.Join(dir, entry.Name())); err != nil {
			return nil, err
		}
		loaded++
	}
	if loaded == 0 {
		return nil, errors.Wrapf(errors.ErrInvalidInput, "no module files in %s", dir)
	}
	return src, nil
}

// LoadFile parses a single module description file.
func LoadFile(path string) (*static.Source, error) {
	src := static.New()
	if err := loadFileInto(src, path); err != nil {
		return nil, err
	}
	return src, nil
}

func loadFileInto(src *static.Source, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(err, "opening module file %s", path)
	}
	defer f.Close()

	doc, err := xmlquery.Parse(f)
	if err != nil {
		return errors.Wrapf(err, "parsing module file %s", path)
	}

	modules := xmlquery.QuerySelectorAll(doc, moduleExpr)
	if len(modules) == 0 {
		return errors.Wrapf(errors.ErrInvalidInput, "%s: no <module> element", path)
	}
	for _, module := range modules {
		if err := loadModule(src, module, path); err != nil {
			return err
		}
	}
	return nil
}

func loadModule(src *static.Source, module *xmlquery.Node, path string) error {
	id := module.SelectAttr("id")
	if id == "" {
		return errors.Wrapf(errors.ErrInvalidInput, "%s: <module> without id", path)
	}
	scheme := module.SelectAttr("versification")
	if scheme == "" {
		return errors.Wrapf(errors.ErrInvalidInput, "%s: module %s without versification", path, id)
	}
	src.AddTranslation(id, module.SelectAttr("name"), module.SelectAttr("language"), scheme)

	books := xmlquery.QuerySelectorAll(module, bookExpr)
	if len(books) == 0 {
		return errors.Wrapf(errors.ErrInvalidInput, "%s: module %s has no books", path, id)
	}
	for _, book := range books {
		code := book.SelectAttr("code")
		if code == "" {
			return errors.Wrapf(errors.ErrInvalidInput, "%s: module %s has a <book> without code", path, id)
		}
		counts, err := chapterCounts(book)
		if err != nil {
			return errors.Wrapf(err, "%s: module %s book %s", path, id, code)
		}
		src.SetBookCounts(id, code, counts)
	}
	return nil
}

// chapterCounts reads the verses attribute of each chapter, honoring an
// explicit number attribute when present so sparse documents stay valid.
func chapterCounts(book *xmlquery.Node) ([]int, error) {
	chapters := xmlquery.QuerySelectorAll(book, chapterExpr)
	if len(chapters) == 0 {
		return nil, errors.Wrap(errors.ErrInvalidInput, "no chapters")
	}

	counts := make([]int, len(chapters))
	for i, chapter := range chapters {
		number := i + 1
		if raw := chapter.SelectAttr("number"); raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil {
				return nil, errors.Wrapf(errors.ErrInvalidInput, "chapter number %q", raw)
			}
			number = parsed
		}
		if number < 1 || number > len(chapters) {
			return nil, errors.Wrapf(errors.ErrInvalidInput, "chapter number %d out of sequence", number)
		}

		raw := chapter.SelectAttr("verses")
		verses, err := strconv.Atoi(raw)
		if err != nil || verses < 1 {
			return nil, errors.Wrapf(errors.ErrInvalidInput, "chapter %d verse count %q", number, raw)
		}
		counts[number-1] = verses
	}
	for i, c := range counts {
		if c == 0 {
			return nil, errors.Wrapf(errors.ErrInvalidInput, "chapter %d missing", i+1)
		}
	}
	return counts, nil
}
