package store

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"github.com/conduitplatform/conduit-cli/internal/core/catalog"
	"github.com/conduitplatform/conduit-cli/internal/core/deployment"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// timeLayout has fixed-width fractions so stored timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// HistoryFileName is the default history database inside the config directory.
const HistoryFileName = "history.db"

// =============================================================================
// SQLiteHistory
// =============================================================================

// SQLiteHistory implements HistoryStore using SQLite.
type SQLiteHistory struct {
	db *sqlx.DB
}

// NewSQLiteHistory opens the history database and runs migrations.
// dsn is a file path or ":memory:".
func NewSQLiteHistory(dsn string) (*SQLiteHistory, error) {
	if dsn != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dsn), 0o755); err != nil {
			return nil, NewStoreError("NewSQLiteHistory", "", "", err.Error(), ErrConnectionFailed)
		}
	}

	db, err := sqlx.Open("sqlite3", dsn)
	if err != nil {
		return nil, NewStoreError("NewSQLiteHistory", "", "", "failed to open database", ErrConnectionFailed)
	}
	// Every connection to ":memory:" is a separate database.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, NewStoreError("NewSQLiteHistory", "", "", "failed to ping database", ErrConnectionFailed)
	}

	if err := runMigrations(db.DB); err != nil {
		db.Close()
		return nil, NewStoreError("NewSQLiteHistory", "", "", err.Error(), ErrMigrationFailed)
	}

	return &SQLiteHistory{db: db}, nil
}

// runMigrations runs database migrations using embedded SQL files.
func runMigrations(db *sql.DB) error {
	driver, err := sqlite3.WithInstance(db, &sqlite3.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to create migration source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "sqlite3", driver)
	if err != nil {
		return fmt.Errorf("failed to create migrator: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// Close closes the database connection.
func (s *SQLiteHistory) Close() error {
	return s.db.Close()
}

// =============================================================================
// Setup Operations
// =============================================================================

// setupRow represents a setup row in the database.
type setupRow struct {
	ID         string `db:"id"`
	CreatedAt  string `db:"created_at"`
	Engine     string `db:"engine"`
	ConduitTag string `db:"conduit_tag"`
	UITag      string `db:"ui_tag"`
	Packages   string `db:"packages"`
	Plan       string `db:"plan"`
}

// RecordSetup stores a completed setup. A missing ID or timestamp is filled in.
func (s *SQLiteHistory) RecordSetup(ctx context.Context, record *SetupRecord) error {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}

	packagesJSON, err := json.Marshal(record.Packages)
	if err != nil {
		return NewStoreError("RecordSetup", "setup", record.ID, "failed to serialize packages", ErrInvalidData)
	}
	planJSON, err := json.Marshal(record.Plan)
	if err != nil {
		return NewStoreError("RecordSetup", "setup", record.ID, "failed to serialize plan", ErrInvalidData)
	}

	query := `
		INSERT INTO setups (id, created_at, engine, conduit_tag, ui_tag, packages, plan)
		VALUES (:id, :created_at, :engine, :conduit_tag, :ui_tag, :packages, :plan)`

	row := setupRow{
		ID:         record.ID,
		CreatedAt:  record.CreatedAt.UTC().Format(timeLayout),
		Engine:     string(record.Engine),
		ConduitTag: record.ConduitTag,
		UITag:      record.UITag,
		Packages:   string(packagesJSON),
		Plan:       string(planJSON),
	}

	if _, err := s.db.NamedExecContext(ctx, query, row); err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed: setups.id") {
			return NewStoreError("RecordSetup", "setup", record.ID, "setup with this ID already exists", ErrDuplicateID)
		}
		return NewStoreError("RecordSetup", "setup", record.ID, err.Error(), err)
	}
	return nil
}

// GetSetup returns one setup by ID.
func (s *SQLiteHistory) GetSetup(ctx context.Context, id string) (*SetupRecord, error) {
	var row setupRow
	err := s.db.GetContext(ctx, &row, `SELECT * FROM setups WHERE id = ?`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, NewStoreError("GetSetup", "setup", id, "setup not found", ErrNotFound)
		}
		return nil, NewStoreError("GetSetup", "setup", id, err.Error(), err)
	}
	return rowToSetup(&row)
}

// ListSetups returns setups, newest first.
func (s *SQLiteHistory) ListSetups(ctx context.Context, opts ListOptions) ([]SetupRecord, error) {
	opts = opts.Normalize()

	var rows []setupRow
	query := `SELECT * FROM setups ORDER BY created_at DESC, id LIMIT ? OFFSET ?`
	if err := s.db.SelectContext(ctx, &rows, query, opts.Limit, opts.Offset); err != nil {
		return nil, NewStoreError("ListSetups", "setup", "", err.Error(), err)
	}

	records := make([]SetupRecord, 0, len(rows))
	for i := range rows {
		r, err := rowToSetup(&rows[i])
		if err != nil {
			return nil, err
		}
		records = append(records, *r)
	}
	return records, nil
}

func rowToSetup(row *setupRow) (*SetupRecord, error) {
	createdAt, err := time.Parse(timeLayout, row.CreatedAt)
	if err != nil {
		return nil, NewStoreError("rowToSetup", "setup", row.ID, "invalid created_at", ErrInvalidData)
	}

	var packages []catalog.PackageID
	if err := json.Unmarshal([]byte(row.Packages), &packages); err != nil {
		return nil, NewStoreError("rowToSetup", "setup", row.ID, "failed to deserialize packages", ErrInvalidData)
	}
	var plan deployment.Plan
	if err := json.Unmarshal([]byte(row.Plan), &plan); err != nil {
		return nil, NewStoreError("rowToSetup", "setup", row.ID, "failed to deserialize plan", ErrInvalidData)
	}

	return &SetupRecord{
		ID:         row.ID,
		CreatedAt:  createdAt,
		Engine:     deployment.Engine(row.Engine),
		ConduitTag: row.ConduitTag,
		UITag:      row.UITag,
		Packages:   packages,
		Plan:       plan,
	}, nil
}

var _ HistoryStore = (*SQLiteHistory)(nil)
