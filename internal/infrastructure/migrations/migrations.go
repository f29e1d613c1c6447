// Package migrations applies the tracker store schema.
//
// It carries a custom golang-migrate driver compatible with
// ncruces/go-sqlite3 (CGO-free). The stock golang-migrate/v4/database/sqlite3
// driver cannot be used because it imports github.com/mattn/go-sqlite3 and
// both drivers register under the "sqlite3" name.
package migrations

import (
	"database/sql"
	"embed"
	"errors"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed *.sql
var embeddedFS embed.FS

// FS returns the embedded filesystem with the migration SQL files.
func FS() fs.FS {
	return embeddedFS
}

// Run applies all pending migrations to the database. The connection must be
// opened with the ncruces driver. migrate.ErrNoChange is not an error: an
// up-to-date schema is the common case.
func Run(db *sql.DB) error {
	source, err := iofs.New(embeddedFS, ".")
	if err != nil {
		return err
	}
	driver, err := WithInstance(db, &Config{})
	if err != nil {
		return err
	}
	m, err := migrate.NewWithInstance("iofs", source, "sqlite3", driver)
	if err != nil {
		return err
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}
