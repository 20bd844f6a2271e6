package persist

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"sync"
	"time"

	_ "github.com/lib/pq" // postgres driver
	"go.trai.ch/stashsync/internal/core/domain"
	"go.trai.ch/zerr"
)

const (
	// DefaultTable holds one row per snapshot key.
	DefaultTable = "stashsync_snapshots"

	snapshotKey      = "default"
	operationTimeout = 5 * time.Second
)

// PostgresStore keeps the snapshot in a single row of a Postgres table.
// The table is created on first use.
type PostgresStore struct {
	dsn   string
	table string
	open  func(driverName, dsn string) (*sql.DB, error)

	initOnce sync.Once
	initErr  error
	db       *sql.DB
}

// PostgresOption configures a PostgresStore.
type PostgresOption func(*PostgresStore)

// WithTable overrides the table name.
func WithTable(name string) PostgresOption {
	return func(s *PostgresStore) { s.table = name }
}

// NewPostgresStore creates a PostgresStore. No connection is made until the
// first Load or Save.
func NewPostgresStore(dsn string, opts ...PostgresOption) (*PostgresStore, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return nil, zerr.New("postgres dsn is empty")
	}
	s := &PostgresStore{dsn: dsn, table: DefaultTable, open: sql.Open}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Load returns the stored snapshot, or nil when the row does not exist.
func (s *PostgresStore) Load(ctx context.Context) (*domain.CacheSnapshot, error) {
	if err := s.ensureReady(ctx); err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, operationTimeout)
	defer cancel()

	var payload string
	//nolint:gosec // table name is quoted
	err := s.db.QueryRowContext(ctx,
		"SELECT snapshot FROM "+quoteIdentifier(s.table)+" WHERE snapshot_key = $1",
		snapshotKey,
	).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrSnapshotReadFailed.Error()), "table", s.table)
	}
	return decode([]byte(payload))
}

// Save upserts the snapshot row.
func (s *PostgresStore) Save(ctx context.Context, snap *domain.CacheSnapshot) error {
	data, err := encode(snap)
	if err != nil {
		return err
	}
	if err := s.ensureReady(ctx); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, operationTimeout)
	defer cancel()

	//nolint:gosec // table name is quoted
	query := `INSERT INTO ` + quoteIdentifier(s.table) + ` (snapshot_key, snapshot, saved_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (snapshot_key)
		DO UPDATE SET snapshot = EXCLUDED.snapshot, saved_at = NOW()`
	if _, err := s.db.ExecContext(ctx, query, snapshotKey, string(data)); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrSnapshotWriteFailed.Error()), "table", s.table)
	}
	return nil
}

// DropTable removes the snapshot table.
func (s *PostgresStore) DropTable(ctx context.Context) error {
	if err := s.ensureReady(ctx); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, operationTimeout)
	defer cancel()

	if _, err := s.db.ExecContext(ctx, "DROP TABLE IF EXISTS "+quoteIdentifier(s.table)); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to drop snapshot table"), "table", s.table)
	}
	return nil
}

// Close closes the connection pool.
func (s *PostgresStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *PostgresStore) ensureReady(ctx context.Context) error {
	s.initOnce.Do(func() {
		db, err := s.open("postgres", s.dsn)
		if err != nil {
			s.initErr = zerr.Wrap(err, "failed to open postgres")
			return
		}
		ctx, cancel := context.WithTimeout(ctx, operationTimeout)
		defer cancel()

		//nolint:gosec // table name is quoted
		query := `CREATE TABLE IF NOT EXISTS ` + quoteIdentifier(s.table) + ` (
			snapshot_key TEXT PRIMARY KEY,
			snapshot TEXT NOT NULL,
			saved_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`
		if _, err := db.ExecContext(ctx, query); err != nil {
			_ = db.Close()
			s.initErr = zerr.With(zerr.Wrap(err, "failed to prepare snapshot table"), "table", s.table)
			return
		}
		s.db = db
	})
	return s.initErr
}

func quoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
