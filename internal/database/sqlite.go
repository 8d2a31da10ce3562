package database

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"realvora-go/internal/database/migrations"
	"realvora-go/internal/ledger"
	"realvora-go/internal/model"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// SQLiteDatabase implements ledger.Database on SQLite.
// It holds a single connection so operations are applied one at a time,
// the way a chain applies calls within a block.
type SQLiteDatabase struct {
	db    *sqlx.DB
	path  string
	clock ledger.Clock
}

var (
	_ ledger.Database    = (*SQLiteDatabase)(nil)
	_ ledger.BlockSource = (*SQLiteDatabase)(nil)
)

// NewSQLiteDatabase opens the database at path (or ":memory:").
// The schema is not migrated; call Migrate or CheckMigrations.
func NewSQLiteDatabase(path string, clock ledger.Clock) (*SQLiteDatabase, error) {
	db, err := OpenConnection(path)
	if err != nil {
		return nil, err
	}
	return NewSQLiteDatabaseFromDB(db, path, clock), nil
}

// NewSQLiteDatabaseFromDB wraps a connection opened with OpenConnection.
func NewSQLiteDatabaseFromDB(db *sql.DB, path string, clock ledger.Clock) *SQLiteDatabase {
	if clock == nil {
		clock = ledger.RealClock{}
	}
	return &SQLiteDatabase{
		db:    sqlx.NewDb(db, "sqlite3"),
		path:  path,
		clock: clock,
	}
}

// OpenConnection opens a single-connection SQLite handle with foreign keys
// enforced. A single connection also keeps a ":memory:" database alive for
// the lifetime of the handle.
func OpenConnection(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}
	return db, nil
}

// Atomic runs fn in a transaction, committing only if fn returns nil.
func (s *SQLiteDatabase) Atomic(fn func(tx ledger.Tx) error) error {
	tx, err := s.db.Beginx()
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(&sqliteTx{tx: tx}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// View runs fn in a transaction that is always rolled back.
func (s *SQLiteDatabase) View(fn func(tx ledger.Tx) error) error {
	tx, err := s.db.Beginx()
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()
	return fn(&sqliteTx{tx: tx})
}

// Height returns the current block height.
func (s *SQLiteDatabase) Height() (uint64, error) {
	var h uint64
	if err := s.db.Get(&h, "SELECT height FROM chain_state WHERE id = 1"); err != nil {
		return 0, fmt.Errorf("reading block height: %w", err)
	}
	return h, nil
}

// AdvanceHeight moves the chain forward by n blocks and returns the new height.
func (s *SQLiteDatabase) AdvanceHeight(n uint64) (uint64, error) {
	if n == 0 {
		return s.Height()
	}
	var h uint64
	err := s.db.Get(&h, "UPDATE chain_state SET height = height + ? WHERE id = 1 RETURNING height", n)
	if err != nil {
		return 0, fmt.Errorf("advancing block height: %w", err)
	}
	return h, nil
}

// Operation journal

const insertOperation = `INSERT INTO operations
	(call_id, operation, caller, parameters, status, result, block, started_at, finished_at)
	VALUES (NULLIF(:call_id, ''), :operation, :caller, :parameters, :status, :result, :block, :started_at, :finished_at)`

const operationColumns = `id, COALESCE(call_id, '') AS call_id, operation, caller, parameters, status, result,
	block, started_at, finished_at`

// RecordOperation journals op outside any ledger transaction. It is used for
// calls that changed nothing.
func (s *SQLiteDatabase) RecordOperation(op *model.Operation) error {
	if op.StartedAt.IsZero() {
		op.StartedAt = s.clock.Now()
	}
	res, err := s.db.NamedExec(insertOperation, op)
	if err != nil {
		return fmt.Errorf("recording operation: %w", err)
	}
	if op.ID, err = res.LastInsertId(); err != nil {
		return fmt.Errorf("reading operation id: %w", err)
	}
	return nil
}

func (s *SQLiteDatabase) FinishOperation(id int64, status, result string) error {
	_, err := s.db.Exec("UPDATE operations SET status = ?, result = ?, finished_at = ? WHERE id = ?",
		status, result, s.clock.Now(), id)
	if err != nil {
		return fmt.Errorf("finishing operation: %w", err)
	}
	return nil
}

// OperationByCallID returns the journal entry for callID, or nil if the
// call was never journaled.
func (s *SQLiteDatabase) OperationByCallID(callID string) (*model.Operation, error) {
	var op model.Operation
	err := s.db.Get(&op, "SELECT "+operationColumns+" FROM operations WHERE call_id = ?", callID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("looking up call %s: %w", callID, err)
	}
	return &op, nil
}

func (s *SQLiteDatabase) ListOperations(limit int) ([]*model.Operation, error) {
	var ops []*model.Operation
	err := s.db.Select(&ops, "SELECT "+operationColumns+" FROM operations ORDER BY id DESC LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("listing operations: %w", err)
	}
	return ops, nil
}

// LastOperationID returns the highest journal id, or 0 for an empty journal.
// Snapshots use it as their version.
func (s *SQLiteDatabase) LastOperationID() (int64, error) {
	var id sql.NullInt64
	if err := s.db.Get(&id, "SELECT MAX(id) FROM operations"); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("reading last operation id: %w", err)
	}
	return id.Int64, nil
}

// Path returns the file the database was opened from.
func (s *SQLiteDatabase) Path() string {
	return s.path
}

// Migrate brings the schema up to date.
func (s *SQLiteDatabase) Migrate() error {
	return migrations.MigrateUp(s.db.DB)
}

// CheckMigrations verifies the schema is up to date.
func (s *SQLiteDatabase) CheckMigrations() error {
	return migrations.CheckDBMigrationStatus(s.db.DB)
}

// BackupTo writes a consistent copy of the database to destPath.
func (s *SQLiteDatabase) BackupTo(destPath string) error {
	if _, err := s.db.Exec("VACUUM INTO ?", destPath); err != nil {
		return fmt.Errorf("copying database to %s: %w", destPath, err)
	}
	return nil
}

func (s *SQLiteDatabase) Close() error {
	return s.db.Close()
}
