package migrations

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed files/*.sql
var migrationFiles embed.FS

// ErrNotInitialized is returned when the ledger schema has never been applied.
var ErrNotInitialized = errors.New("ledger schema not initialized (run `realvora ledger init`)")

// Status describes where a database stands relative to the embedded schema.
type Status struct {
	Current uint
	Latest  uint
	Dirty   bool
}

// Current reports the schema version of db. The migrate instance is not
// closed because that would close db, which the caller owns.
func Current(db *sql.DB) (Status, error) {
	m, err := newMigrate(db)
	if err != nil {
		return Status{}, err
	}
	latest, err := latestVersion()
	if err != nil {
		return Status{}, err
	}
	version, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return Status{Latest: latest}, nil
	}
	if err != nil {
		return Status{}, fmt.Errorf("reading schema version: %w", err)
	}
	return Status{Current: version, Latest: latest, Dirty: dirty}, nil
}

// CheckDBMigrationStatus returns nil only when db is at the latest schema.
func CheckDBMigrationStatus(db *sql.DB) error {
	st, err := Current(db)
	if err != nil {
		return err
	}
	switch {
	case st.Current == 0:
		return ErrNotInitialized
	case st.Dirty:
		return fmt.Errorf("schema version %d is dirty (a migration failed part way)", st.Current)
	case st.Current < st.Latest:
		return fmt.Errorf("schema version %d is behind %d", st.Current, st.Latest)
	case st.Current > st.Latest:
		return fmt.Errorf("schema version %d is newer than this binary (%d)", st.Current, st.Latest)
	}
	return nil
}

// MigrateUp applies every pending migration. An up-to-date db is not an error.
func MigrateUp(db *sql.DB) error {
	m, err := newMigrate(db)
	if err != nil {
		return err
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("applying migrations: %w", err)
	}
	return nil
}

func newMigrate(db *sql.DB) (*migrate.Migrate, error) {
	src, err := iofs.New(migrationFiles, "files")
	if err != nil {
		return nil, fmt.Errorf("opening embedded migrations: %w", err)
	}
	driver, err := sqlite3.WithInstance(db, &sqlite3.Config{})
	if err != nil {
		src.Close()
		return nil, fmt.Errorf("wrapping database for migrations: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite3", driver)
	if err != nil {
		src.Close()
		return nil, fmt.Errorf("creating migrator: %w", err)
	}
	return m, nil
}

func latestVersion() (uint, error) {
	src, err := iofs.New(migrationFiles, "files")
	if err != nil {
		return 0, fmt.Errorf("opening embedded migrations: %w", err)
	}
	defer src.Close()
	return lastIn(src)
}

// lastIn walks the source to its final version; Next fails past the end.
func lastIn(src source.Driver) (uint, error) {
	v, err := src.First()
	if err != nil {
		return 0, fmt.Errorf("reading first migration: %w", err)
	}
	for {
		next, err := src.Next(v)
		if err != nil {
			return v, nil
		}
		v = next
	}
}
