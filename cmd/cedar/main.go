// Command cedar manages a versification-normalized annotation index:
// tags, notes, and reference math over canonical verse numbering.
package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/alecthomas/kong"

	"github.com/FocuswithJustin/CedarBible/core/books"
	"github.com/FocuswithJustin/CedarBible/core/refparse"
	"github.com/FocuswithJustin/CedarBible/core/versification"
	"github.com/FocuswithJustin/CedarBible/internal/annotations"
	"github.com/FocuswithJustin/CedarBible/internal/backup"
	"github.com/FocuswithJustin/CedarBible/internal/ipc"
	"github.com/FocuswithJustin/CedarBible/internal/logging"
	"github.com/FocuswithJustin/CedarBible/internal/modules/canonxml"
	"github.com/FocuswithJustin/CedarBible/internal/query"
	"github.com/FocuswithJustin/CedarBible/internal/store"
)

const version = "0.1.0"

// CLI defines the command-line interface for cedar.
var CLI struct {
	// Global flags
	DB        string `help:"Path to the annotation database" default:"cedar.db" type:"path"`
	Modules   string `help:"Directory of versification module XML files" type:"path"`
	Canonical string `help:"Canonical versification scheme name" default:"KJV"`
	Scheme    string `help:"Versification scheme for reference input (defaults to canonical)"`
	LogLevel  string `help:"Log level" enum:"debug,info,warn,error" default:"info"`
	LogFormat string `help:"Log format" enum:"json,text" default:"text"`

	// Command groups (noun-first organization)
	Tag     TagGroup    `cmd:"" help:"Tag operations (create, rename, delete, list, assign, unassign, bulk)"`
	Note    NoteGroup   `cmd:"" help:"Note operations (set, get, book)"`
	Ref     RefGroup    `cmd:"" help:"Reference math (to-abs, from-abs, parse)"`
	Books   BooksGroup  `cmd:"" help:"Book catalog queries"`
	Serve   ServeCmd    `cmd:"" help:"Serve the IPC endpoint for UI clients"`
	Backup  BackupGroup `cmd:"" help:"Database snapshot and restore"`
	Version VersionCmd  `cmd:"" help:"Print version information"`
}

// app bundles the opened subsystems a command needs. Commands that only
// touch the store leave the registry nil.
type app struct {
	dir      *books.Directory
	store    *store.Store
	registry *versification.Registry
	index    *annotations.Index
	resolver *query.Resolver
}

func (a *app) Close() {
	if a.store != nil {
		a.store.Close()
	}
}

// openStore opens the database without versification support.
func openStore() (*app, error) {
	dir := books.NewDirectory()
	st, err := store.Open(CLI.DB, dir, nil)
	if err != nil {
		return nil, err
	}
	return &app{dir: dir, store: st}, nil
}

// openIndex opens the database plus the versification registry. It needs
// --modules to know the installed translations.
func openIndex(ctx context.Context) (*app, error) {
	if CLI.Modules == "" {
		return nil, fmt.Errorf("this command needs versification data: pass --modules")
	}
	src, err := canonxml.LoadDir(CLI.Modules)
	if err != nil {
		return nil, err
	}
	reg, err := versification.Build(ctx, src, CLI.Canonical)
	if err != nil {
		return nil, err
	}
	logging.RegistryEvent("registry_built", reg.SchemeCount(), reg.TranslationCount())

	a, err := openStore()
	if err != nil {
		return nil, err
	}
	a.registry = reg
	a.index = annotations.NewIndex(a.store, reg, a.dir)
	a.resolver = query.NewResolver(a.store, reg, a.dir)
	return a, nil
}

func parseAddress(dir *books.Directory, input string) (versification.Address, error) {
	return refparse.ParseAddress(dir, input)
}

// TagGroup contains tag lifecycle and assignment operations.
type TagGroup struct {
	Create   TagCreateCmd   `cmd:"" help:"Create a new tag"`
	Rename   TagRenameCmd   `cmd:"" help:"Rename a tag"`
	Delete   TagDeleteCmd   `cmd:"" help:"Delete a tag and all its assignments"`
	List     TagListCmd     `cmd:"" help:"List tags"`
	Assign   TagAssignCmd   `cmd:"" help:"Assign a tag to a verse"`
	Unassign TagUnassignCmd `cmd:"" help:"Remove a tag from a verse"`
	Bulk     TagBulkCmd     `cmd:"" help:"Add or remove a tag on many verses at once"`
}

// TagCreateCmd creates a new tag.
type TagCreateCmd struct {
	Title string `arg:"" help:"Tag title (unique, case-insensitive)"`
}

func (c *TagCreateCmd) Run() error {
	a, err := openStore()
	if err != nil {
		return err
	}
	defer a.Close()

	tag, err := a.store.CreateTag(context.Background(), c.Title, "")
	if err != nil {
		return err
	}
	fmt.Printf("created tag %s (%s)\n", tag.Title, tag.ID)
	return nil
}

// TagRenameCmd renames a tag.
type TagRenameCmd struct {
	ID    string `arg:"" help:"Tag id"`
	Title string `arg:"" help:"New title"`
}

func (c *TagRenameCmd) Run() error {
	a, err := openStore()
	if err != nil {
		return err
	}
	defer a.Close()

	tag, err := a.store.RenameTag(context.Background(), c.ID, c.Title)
	if err != nil {
		return err
	}
	fmt.Printf("renamed tag %s to %s\n", tag.ID, tag.Title)
	return nil
}

// TagDeleteCmd deletes a tag.
type TagDeleteCmd struct {
	ID string `arg:"" help:"Tag id"`
}

func (c *TagDeleteCmd) Run() error {
	a, err := openStore()
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.store.DeleteTag(context.Background(), c.ID); err != nil {
		return err
	}
	fmt.Printf("deleted tag %s\n", c.ID)
	return nil
}

// TagListCmd lists tags.
type TagListCmd struct {
	Book     string `help:"Only tags used in this book (short title)"`
	LastUsed bool   `help:"Order by most recent use instead of title"`
}

func (c *TagListCmd) Run() error {
	a, err := openStore()
	if err != nil {
		return err
	}
	defer a.Close()

	tags, err := a.store.AllTags(context.Background(), c.Book, c.LastUsed)
	if err != nil {
		return err
	}
	if len(tags) == 0 {
		fmt.Println("no tags")
		return nil
	}
	for _, tag := range tags {
		fmt.Printf("%s  %-30s  %d verses\n", tag.ID, tag.Title, tag.AssignmentCount)
	}
	return nil
}

// TagAssignCmd assigns a tag to one verse.
type TagAssignCmd struct {
	TagID     string `arg:"" help:"Tag id"`
	Reference string `arg:"" help:"Verse reference, e.g. 'Gen 1:1'"`
}

func (c *TagAssignCmd) Run() error {
	ctx := context.Background()
	a, err := openIndex(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	addr, err := parseAddress(a.dir, c.Reference)
	if err != nil {
		return err
	}
	affected, err := a.index.AssignTag(ctx, c.TagID, CLI.Scheme, addr)
	if err != nil {
		return err
	}
	if affected == 0 {
		fmt.Println("already assigned")
		return nil
	}
	fmt.Printf("tagged %s\n", c.Reference)
	return nil
}

// TagUnassignCmd removes a tag from one verse.
type TagUnassignCmd struct {
	TagID     string `arg:"" help:"Tag id"`
	Reference string `arg:"" help:"Verse reference, e.g. 'Gen 1:1'"`
}

func (c *TagUnassignCmd) Run() error {
	ctx := context.Background()
	a, err := openIndex(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	addr, err := parseAddress(a.dir, c.Reference)
	if err != nil {
		return err
	}
	affected, err := a.index.UnassignTag(ctx, c.TagID, CLI.Scheme, addr)
	if err != nil {
		return err
	}
	if affected == 0 {
		fmt.Println("was not assigned")
		return nil
	}
	fmt.Printf("untagged %s\n", c.Reference)
	return nil
}

// TagBulkCmd applies one tag to many verses in a single transaction.
type TagBulkCmd struct {
	TagID      string   `arg:"" help:"Tag id"`
	References []string `arg:"" help:"Verse references"`
	Action     string   `help:"add or remove" enum:"add,remove" default:"add"`
}

func (c *TagBulkCmd) Run() error {
	ctx := context.Background()
	a, err := openIndex(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	addrs := make([]versification.Address, 0, len(c.References))
	for _, ref := range c.References {
		addr, err := parseAddress(a.dir, ref)
		if err != nil {
			return fmt.Errorf("reference %q: %w", ref, err)
		}
		addrs = append(addrs, addr)
	}

	affected, err := a.index.BulkUpdateTagsOnVerses(ctx, c.TagID, CLI.Scheme, addrs, store.TagAction(c.Action))
	if err != nil {
		return err
	}
	fmt.Printf("%s: %d assignments changed\n", c.Action, affected)
	return nil
}

// NoteGroup contains note operations.
type NoteGroup struct {
	Set  NoteSetCmd  `cmd:"" help:"Set (or with empty text, delete) the note on a verse"`
	Get  NoteGetCmd  `cmd:"" help:"Print the note on a verse"`
	Book NoteBookCmd `cmd:"" help:"Set or print the book-level note"`
}

// NoteSetCmd sets or deletes a verse note.
type NoteSetCmd struct {
	Reference string `arg:"" help:"Verse reference, e.g. 'Gen 1:1'"`
	Text      string `arg:"" optional:"" help:"Note text; empty deletes the note"`
}

func (c *NoteSetCmd) Run() error {
	ctx := context.Background()
	a, err := openIndex(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	addr, err := parseAddress(a.dir, c.Reference)
	if err != nil {
		return err
	}
	note, err := a.index.PersistNote(ctx, CLI.Scheme, addr, c.Text)
	if err != nil {
		return err
	}
	if note == nil {
		fmt.Printf("deleted note on %s\n", c.Reference)
		return nil
	}
	fmt.Printf("saved note on %s\n", c.Reference)
	return nil
}

// NoteGetCmd prints a verse note.
type NoteGetCmd struct {
	Reference string `arg:"" help:"Verse reference, e.g. 'Gen 1:1'"`
}

func (c *NoteGetCmd) Run() error {
	ctx := context.Background()
	a, err := openIndex(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	addr, err := parseAddress(a.dir, c.Reference)
	if err != nil {
		return err
	}
	note, err := a.index.Note(ctx, CLI.Scheme, addr)
	if err != nil {
		return err
	}
	fmt.Println(note.Text)
	return nil
}

// NoteBookCmd sets or prints a book-level note.
type NoteBookCmd struct {
	Book string `arg:"" help:"Book short title, e.g. Gen"`
	Text string `arg:"" optional:"" help:"Note text; omit to print the current note"`
}

func (c *NoteBookCmd) Run() error {
	ctx := context.Background()
	a, err := openStore()
	if err != nil {
		return err
	}
	defer a.Close()

	// Book notes need no versification; build a store-only index view.
	if c.Text == "" {
		notes, err := a.store.FindNotesByBook(ctx, c.Book)
		if err != nil {
			return err
		}
		for _, n := range notes {
			if n.AbsoluteVerseNr == 0 {
				fmt.Println(n.Text)
				return nil
			}
		}
		return fmt.Errorf("no book note on %s", c.Book)
	}

	if _, err := a.dir.OrdinalOf(c.Book); err != nil {
		return err
	}
	ref, err := a.store.GetOrCreateBookReference(ctx, c.Book)
	if err != nil {
		return err
	}
	if _, err := a.store.PersistNote(ctx, ref.ID, c.Text); err != nil {
		return err
	}
	fmt.Printf("saved book note on %s\n", c.Book)
	return nil
}

// RefGroup contains reference math operations.
type RefGroup struct {
	ToAbs   RefToAbsCmd   `cmd:"" name:"to-abs" help:"Map a reference to its canonical absolute verse number"`
	FromAbs RefFromAbsCmd `cmd:"" name:"from-abs" help:"Map an absolute verse number back to a canonical reference"`
	Parse   RefParseCmd   `cmd:"" help:"Parse a scripture reference"`
}

// RefToAbsCmd maps a reference to its absolute verse number.
type RefToAbsCmd struct {
	Reference string `arg:"" help:"Verse reference, e.g. 'Ps 23:1'"`
}

func (c *RefToAbsCmd) Run() error {
	ctx := context.Background()
	a, err := openIndex(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	addr, err := parseAddress(a.dir, c.Reference)
	if err != nil {
		return err
	}
	scheme, err := a.index.Scheme(CLI.Scheme)
	if err != nil {
		return err
	}
	canonical, abs, err := a.index.Converter().Normalize(scheme, addr)
	if err != nil {
		return err
	}
	fmt.Printf("%s %d:%d = absolute %d\n", canonical.Book, canonical.Chapter, canonical.Verse, abs)
	return nil
}

// RefFromAbsCmd maps an absolute verse number to a canonical address.
type RefFromAbsCmd struct {
	Number int `arg:"" help:"Absolute verse number"`
}

func (c *RefFromAbsCmd) Run() error {
	ctx := context.Background()
	a, err := openIndex(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	addr, err := a.index.Converter().FromAbsolute(c.Number)
	if err != nil {
		return err
	}
	fmt.Printf("absolute %d = %s %d:%d\n", c.Number, addr.Book, addr.Chapter, addr.Verse)
	return nil
}

// RefParseCmd parses a reference without touching the database.
type RefParseCmd struct {
	Reference string `arg:"" help:"Scripture reference, e.g. 'Gen 1:1-3'"`
}

func (c *RefParseCmd) Run() error {
	r, err := refparse.ParseRange(c.Reference)
	if err != nil {
		return err
	}
	fmt.Println(r.String())
	return nil
}

// BooksGroup contains book catalog queries.
type BooksGroup struct {
	List     BooksListCmd     `cmd:"" help:"List the canonical book catalog"`
	WithTags BooksWithTagsCmd `cmd:"" name:"with-tags" help:"List books containing any of the given tags"`
}

// BooksListCmd lists the canonical book catalog.
type BooksListCmd struct{}

func (c *BooksListCmd) Run() error {
	dir := books.NewDirectory()
	for _, b := range dir.Books() {
		fmt.Printf("%3d  %-6s  %-25s  %s\n", b.Ordinal, b.ShortTitle, b.LongTitle, b.Testament)
	}
	return nil
}

// BooksWithTagsCmd lists books carrying any of the given tags.
type BooksWithTagsCmd struct {
	TagIDs []string `arg:"" help:"Tag ids"`
}

func (c *BooksWithTagsCmd) Run() error {
	ctx := context.Background()
	a, err := openIndex(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	titles, err := a.resolver.BooksWithAnyTag(ctx, c.TagIDs)
	if err != nil {
		return err
	}
	for _, title := range titles {
		fmt.Println(title)
	}
	return nil
}

// ServeCmd runs the IPC endpoint.
type ServeCmd struct {
	Addr string `help:"Listen address" default:"127.0.0.1:8790"`
	Path string `help:"WebSocket path" default:"/ipc"`
}

func (c *ServeCmd) Run() error {
	ctx := context.Background()
	a, err := openIndex(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	mux := http.NewServeMux()
	mux.Handle(c.Path, ipc.NewServer(a.index, a.resolver, a.dir))

	server := &http.Server{
		Addr:              c.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	logging.Info("ipc endpoint listening", "addr", c.Addr, "path", c.Path)
	return server.ListenAndServe()
}

// BackupGroup contains database snapshot operations.
type BackupGroup struct {
	Snapshot BackupSnapshotCmd `cmd:"" help:"Write a compressed snapshot of the database"`
	Restore  BackupRestoreCmd  `cmd:"" help:"Restore a snapshot into a new database file"`
}

// BackupSnapshotCmd writes a snapshot artifact.
type BackupSnapshotCmd struct {
	Out string `help:"Snapshot output path" type:"path"`
}

func (c *BackupSnapshotCmd) Run() error {
	ctx := context.Background()
	a, err := openStore()
	if err != nil {
		return err
	}
	defer a.Close()

	out := c.Out
	if out == "" {
		out = CLI.DB + "-" + time.Now().UTC().Format("20060102T150405Z") + backup.Suffix
	}
	if err := backup.Snapshot(ctx, a.store.DB(), out); err != nil {
		return err
	}
	fmt.Printf("snapshot written to %s\n", out)
	return nil
}

// BackupRestoreCmd restores a snapshot artifact.
type BackupRestoreCmd struct {
	Snapshot string `arg:"" help:"Snapshot file" type:"existingfile"`
	To       string `required:"" help:"Destination database path (must not exist)" type:"path"`
}

func (c *BackupRestoreCmd) Run() error {
	if err := backup.Restore(c.Snapshot, c.To); err != nil {
		return err
	}
	fmt.Printf("restored %s to %s\n", c.Snapshot, c.To)
	return nil
}

// VersionCmd prints version information.
type VersionCmd struct{}

func (c *VersionCmd) Run() error {
	fmt.Printf("cedar %s\n", version)
	return nil
}

func initLogging() {
	level := logging.LevelInfo
	switch CLI.LogLevel {
	case "debug":
		level = logging.LevelDebug
	case "warn":
		level = logging.LevelWarn
	case "error":
		level = logging.LevelError
	}
	format := logging.FormatText
	if CLI.LogFormat == "json" {
		format = logging.FormatJSON
	}
	logging.InitLogger(level, format)
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("cedar"),
		kong.Description("CedarBible - versification-normalized verse annotation index"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
	)
	initLogging()
	err := ctx.Run(ctx)
	ctx.FatalIfErrorf(err)
}
