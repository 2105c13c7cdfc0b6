package colmap

import (
	"context"
	"database/sql"
	"os"
	"unicode/utf8"

	"github.com/pkg/errors"
	// sqlite driver.
	_ "modernc.org/sqlite"
)

// Database inspects an engine database. It never writes to it.
type Database struct {
	db *sql.DB
}

// OpenDatabase opens an existing engine database.
func OpenDatabase(path string) (*Database, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, errors.Wrapf(err, "cannot open engine database %q", path)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot open engine database %q", path)
	}
	db.SetMaxOpenConns(1)
	return &Database{db: db}, nil
}

// Close closes the database.
func (d *Database) Close() error {
	return d.db.Close()
}

// NumImages returns the number of extracted images.
func (d *Database) NumImages(ctx context.Context) (int, error) {
	return d.count(ctx, "SELECT COUNT(*) FROM images")
}

// NumCameras returns the number of camera records.
func (d *Database) NumCameras(ctx context.Context) (int, error) {
	return d.count(ctx, "SELECT COUNT(*) FROM cameras")
}

// NumRigs returns the number of rigs, or zero for databases without rig support.
func (d *Database) NumRigs(ctx context.Context) (int, error) {
	var name string
	err := d.db.QueryRowContext(ctx,
		"SELECT name FROM sqlite_master WHERE type = 'table' AND name = 'rigs'").Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return d.count(ctx, "SELECT COUNT(*) FROM rigs")
}

// CountImagesWithPrefix returns how many image names start with prefix.
func (d *Database) CountImagesWithPrefix(ctx context.Context, prefix string) (int, error) {
	// case sensitive, unlike LIKE.
	return d.count(ctx, "SELECT COUNT(*) FROM images WHERE substr(name, 1, ?) = ?",
		utf8.RuneCountInString(prefix), prefix)
}

func (d *Database) count(ctx context.Context, query string, args ...interface{}) (int, error) {
	var n int
	if err := d.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, errors.Wrap(err, "failed to query engine database")
	}
	return n, nil
}
