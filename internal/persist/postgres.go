package persist

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/lib/pq"
	"pkt.systems/pslog"
	"pkt.systems/tabstack/schema"
)

const (
	postgresTableName        = "tabstack_nav_snapshots"
	postgresOperationTimeout = 5 * time.Second
)

type sqlOpenFunc func(driverName, dsn string) (*sql.DB, error)

// PostgresBackend stores snapshots in postgres. The connection and table
// are set up lazily on first use.
type PostgresBackend struct {
	dsn       string
	tableName string
	openDB    sqlOpenFunc
	log       pslog.Logger

	initOnce sync.Once
	initErr  error
	db       *sql.DB
}

// NewPostgresBackend constructs a backend for dsn without connecting.
func NewPostgresBackend(dsn string, logger pslog.Logger) (*PostgresBackend, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return nil, errors.New("postgres dsn is required")
	}
	return &PostgresBackend{
		dsn:       dsn,
		tableName: postgresTableName,
		openDB:    sql.Open,
		log:       logger,
	}, nil
}

func (b *PostgresBackend) Load(ctx context.Context, userID schema.UserID) (schema.NavSnapshot, bool, error) {
	if err := b.ensureReady(ctx); err != nil {
		return schema.NavSnapshot{}, false, err
	}
	ctx, cancel := context.WithTimeout(ctx, postgresOperationTimeout)
	defer cancel()

	query := fmt.Sprintf("SELECT snapshot FROM %s WHERE user_key = $1", postgresQuoteIdentifier(b.tableName))
	var payload string
	err := b.db.QueryRowContext(ctx, query, userKey(userID)).Scan(&payload)
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

func (b *PostgresBackend) Save(ctx context.Context, userID schema.UserID, snapshot schema.NavSnapshot) error {
	if err := b.ensureReady(ctx); err != nil {
		return err
	}
	payload, err := encodeSnapshot(snapshot)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, postgresOperationTimeout)
	defer cancel()

	query := fmt.Sprintf(`
		INSERT INTO %s (user_key, snapshot, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (user_key)
		DO UPDATE SET snapshot = EXCLUDED.snapshot, updated_at = NOW()`, postgresQuoteIdentifier(b.tableName))
	_, err = b.db.ExecContext(ctx, query, userKey(userID), string(payload))
	return err
}

func (b *PostgresBackend) Close() error {
	if b == nil || b.db == nil {
		return nil
	}
	return b.db.Close()
}

func (b *PostgresBackend) ensureReady(ctx context.Context) error {
	b.initOnce.Do(func() {
		db, err := b.openDB("postgres", b.dsn)
		if err != nil {
			b.initErr = err
			return
		}
		ctx, cancel := context.WithTimeout(ctx, postgresOperationTimeout)
		defer cancel()

		query := fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				user_key TEXT PRIMARY KEY,
				snapshot TEXT NOT NULL,
				updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			)`, postgresQuoteIdentifier(b.tableName))
		if _, err := db.ExecContext(ctx, query); err != nil {
			_ = db.Close()
			b.initErr = err
			return
		}
		b.db = db
		if b.log != nil {
			b.log.Debug("state postgres ready", "table", b.tableName)
		}
	})
	return b.initErr
}

func postgresQuoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
