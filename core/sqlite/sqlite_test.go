package sqlite

import (
	"path/filepath"
	"testing"
)

func TestDriverInfo(t *testing.T) {
	info := GetInfo()
	if info.DriverName != DriverName() {
		t.Errorf("Info.DriverName = %q; want %q", info.DriverName, DriverName())
	}
	if info.IsCGO != IsCGO() {
		t.Errorf("Info.IsCGO = %v; want %v", info.IsCGO, IsCGO())
	}
	switch info.DriverType {
	case "purego", "cgo":
	default:
		t.Errorf("DriverType() = %q; want purego or cgo", info.DriverType)
	}
}

func TestOpenCreatesDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	db, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	defer db.Close()

	if _, err := db.Exec("CREATE TABLE t (id INTEGER PRIMARY KEY, name TEXT)"); err != nil {
		t.Fatalf("CREATE TABLE failed: %v", err)
	}
	if _, err := db.Exec("INSERT INTO t (name) VALUES (?)", "hello"); err != nil {
		t.Fatalf("INSERT failed: %v", err)
	}

	var name string
	if err := db.QueryRow("SELECT name FROM t WHERE id = 1").Scan(&name); err != nil {
		t.Fatalf("SELECT failed: %v", err)
	}
	if name != "hello" {
		t.Errorf("name = %q; want %q", name, "hello")
	}
}

func TestOpenReadOnly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ro.db")

	db := MustOpen(path)
	if _, err := db.Exec("CREATE TABLE t (id INTEGER)"); err != nil {
		t.Fatalf("CREATE TABLE failed: %v", err)
	}
	db.Close()

	ro, err := OpenReadOnly(path)
	if err != nil {
		t.Fatalf("OpenReadOnly() error: %v", err)
	}
	defer ro.Close()

	if _, err := ro.Exec("INSERT INTO t (id) VALUES (1)"); err == nil {
		t.Error("INSERT on read-only database should fail")
	}
}
