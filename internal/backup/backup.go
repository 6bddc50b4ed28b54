// Package backup produces and restores compressed snapshots of the
// annotation database. A snapshot is a consistent copy taken with VACUUM
// INTO, then xz-compressed into a single artifact file. Restore is the
// inverse; it never touches a live database file.
package backup

import (
	"context"
	"database/sql"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/ulikunitz/xz"

	"github.com/FocuswithJustin/CedarBible/core/errors"
	"github.com/FocuswithJustin/CedarBible/internal/logging"
)

// Suffix is the file extension snapshot artifacts carry.
const Suffix = ".db.xz"

// Snapshot writes a compressed, transaction-consistent copy of db to
// destPath. The copy is taken with VACUUM INTO so readers and writers on db
// are not blocked beyond SQLite's usual locking.
func Snapshot(ctx context.Context, db *sql.DB, destPath string) error {
	started := time.Now()

	tmp, err := os.CreateTemp(filepath.Dir(destPath), "snapshot-*.db")
	if err != nil {
		return errors.Wrap(err, "creating snapshot temp file")
	}
	tmpPath := tmp.Name()
	tmp.Close()
	// VACUUM INTO refuses to overwrite an existing file.
	os.Remove(tmpPath)
	defer os.Remove(tmpPath)

	if _, err := db.ExecContext(ctx, `VACUUM INTO ?`, tmpPath); err != nil {
		return errors.NewStorage("vacuum into snapshot", err)
	}

	if err := compressFile(tmpPath, destPath); err != nil {
		return err
	}

	logging.Info("snapshot written",
		"path", destPath, "duration", time.Since(started).String())
	return nil
}

// Restore decompresses the snapshot at srcPath into dbPath. It refuses to
// overwrite an existing database; the caller decides when replacing a live
// file is safe.
func Restore(srcPath, dbPath string) error {
	if _, err := os.Stat(dbPath); err == nil {
		return errors.Wrapf(errors.ErrInvalidInput, "database %s already exists", dbPath)
	}

	src, err := os.Open(srcPath)
	if err != nil {
		return errors.Wrapf(err, "opening snapshot %s", srcPath)
	}
	defer src.Close()

	reader, err := xz.NewReader(src)
	if err != nil {
		return errors.Wrapf(err, "reading snapshot %s", srcPath)
	}

	// Write to a sibling temp file first so a truncated restore never
	// leaves a half-written database behind.
	tmp, err := os.CreateTemp(filepath.Dir(dbPath), "restore-*.db")
	if err != nil {
		return errors.Wrap(err, "creating restore temp file")
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := io.Copy(tmp, reader); err != nil {
		tmp.Close()
		return errors.Wrapf(err, "decompressing snapshot %s", srcPath)
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "closing restore temp file")
	}

	if err := os.Rename(tmpPath, dbPath); err != nil {
		return errors.Wrapf(err, "moving restored database to %s", dbPath)
	}
	logging.Info("snapshot restored", "from", srcPath, "to", dbPath)
	return nil
}

func compressFile(srcPath, destPath string) error {
	src, err := os.Open(srcPath)
	if err != nil {
		return errors.Wrapf(err, "opening %s", srcPath)
	}
	defer src.Close()

	dest, err := os.Create(destPath)
	if err != nil {
		return errors.Wrapf(err, "creating %s", destPath)
	}

	writer, err := xz.NewWriter(dest)
	if err != nil {
		dest.Close()
		return errors.Wrap(err, "initializing xz writer")
	}

	if _, err := io.Copy(writer, src); err != nil {
		writer.Close()
		dest.Close()
		return errors.Wrapf(err, "compressing %s", srcPath)
	}
	if err := writer.Close(); err != nil {
		dest.Close()
		return errors.Wrap(err, "finishing xz stream")
	}
	return dest.Close()
}
