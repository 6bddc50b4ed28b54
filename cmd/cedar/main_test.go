package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alecthomas/kong"
)

// parseCLI parses args against a fresh copy of the CLI grammar.
func parseCLI(t *testing.T, args ...string) (*kong.Context, error) {
	t.Helper()
	cli := CLI
	parser, err := kong.New(&cli, kong.Name("cedar"))
	if err != nil {
		t.Fatalf("building parser: %v", err)
	}
	return parser.Parse(args)
}

func TestCLIGrammar(t *testing.T) {
	cases := []struct {
		args []string
		want string
	}{
		{[]string{"tag", "create", "Faith"}, "tag create <title>"},
		{[]string{"tag", "list"}, "tag list"},
		{[]string{"tag", "assign", "id1", "Gen 1:1"}, "tag assign <tag-id> <reference>"},
		{[]string{"tag", "bulk", "id1", "Gen 1:1", "Gen 1:2", "--action=remove"}, "tag bulk <tag-id> <references>"},
		{[]string{"note", "set", "Gen 1:1", "text"}, "note set <reference> <text>"},
		{[]string{"ref", "to-abs", "Ps 23:1"}, "ref to-abs <reference>"},
		{[]string{"ref", "from-abs", "1533"}, "ref from-abs <number>"},
		{[]string{"books", "list"}, "books list"},
		{[]string{"backup", "restore", "snap", "--to=out.db"}, "backup restore <snapshot>"},
		{[]string{"version"}, "version"},
	}

	for _, tc := range cases {
		t.Run(strings.Join(tc.args, " "), func(t *testing.T) {
			if tc.args[0] == "backup" && tc.args[1] == "restore" {
				// existingfile validation needs a real path
				snap := filepath.Join(t.TempDir(), "snap")
				if err := os.WriteFile(snap, []byte("x"), 0644); err != nil {
					t.Fatalf("creating snapshot stub: %v", err)
				}
				tc.args[2] = snap
			}
			ctx, err := parseCLI(t, tc.args...)
			if err != nil {
				t.Fatalf("parse %v: %v", tc.args, err)
			}
			if got := ctx.Command(); got != tc.want {
				t.Errorf("command = %q; want %q", got, tc.want)
			}
		})
	}
}

func TestCLIGrammarRejectsBadAction(t *testing.T) {
	if _, err := parseCLI(t, "tag", "bulk", "id1", "Gen 1:1", "--action=purge"); err == nil {
		t.Error("parse with invalid --action succeeded; want error")
	}
}

func TestRefParseCommand(t *testing.T) {
	cmd := RefParseCmd{Reference: "Gen 1:1-3"}
	if err := cmd.Run(); err != nil {
		t.Errorf("parsing valid reference: %v", err)
	}
	cmd = RefParseCmd{Reference: "::"}
	if err := cmd.Run(); err == nil {
		t.Error("parsing garbage reference succeeded; want error")
	}
}
