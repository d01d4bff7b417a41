package persist

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/mattn/go-sqlite3"
	"pkt.systems/pslog"
	"pkt.systems/tabstack/schema"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// SQLiteBackend stores snapshots in a sqlite database.
type SQLiteBackend struct {
	db  *sql.DB
	log pslog.Logger
}

// NewSQLiteBackend opens (and migrates) the database at path.
func NewSQLiteBackend(path string, logger pslog.Logger) (*SQLiteBackend, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("sqlite path is required")
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return nil, err
		}
	}
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1) // sqlite
	db.SetConnMaxLifetime(0)
	if err := runMigrations(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate sqlite state: %w", err)
	}
	if logger != nil {
		logger = logger.With("state_db", path)
		logger.Debug("state sqlite ready")
	}
	return &SQLiteBackend{db: db, log: logger}, nil
}

func runMigrations(db *sql.DB) error {
	source, err := iofs.New(migrationFS, "migrations")
	if err != nil {
		return err
	}
	driver, err := sqlite3.WithInstance(db, &sqlite3.Config{})
	if err != nil {
		return err
	}
	m, err := migrate.NewWithInstance("iofs", source, "sqlite3", driver)
	if err != nil {
		return err
	}
	err = m.Up()
	if errors.Is(err, migrate.ErrNoChange) {
		return nil
	}
	return err
}

func (b *SQLiteBackend) Load(ctx context.Context, userID schema.UserID) (schema.NavSnapshot, bool, error) {
	var payload string
	err := b.db.QueryRowContext(ctx, `SELECT snapshot FROM nav_snapshots WHERE user_key = ?`, userKey(userID)).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return schema.NavSnapshot{}, false, nil
	}
	if err != nil {
		return schema.NavSnapshot{}, false, err
	}
	snapshot, err := decodeSnapshot([]byte(payload))
	if err != nil {
		if b.log != nil {
			b.log.Warn("state load failed", "user", userID, "err", err)
		}
		return schema.NavSnapshot{}, false, err
	}
	return snapshot, true, nil
}

func (b *SQLiteBackend) Save(ctx context.Context, userID schema.UserID, snapshot schema.NavSnapshot) error {
	payload, err := encodeSnapshot(snapshot)
	if err != nil {
		return err
	}
	_, err = b.db.ExecContext(ctx, `
		INSERT INTO nav_snapshots (user_key, snapshot, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT (user_key)
		DO UPDATE SET snapshot = excluded.snapshot, updated_at = CURRENT_TIMESTAMP`, userKey(userID), string(payload))
	if err != nil && b.log != nil {
		b.log.Warn("state save failed", "user", userID, "err", err)
	}
	return err
}

func (b *SQLiteBackend) Close() error {
	if b == nil || b.db == nil {
		return nil
	}
	return b.db.Close()
}
