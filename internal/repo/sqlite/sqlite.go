// Package sqlite is a single-node signal store on the pure Go SQLite driver.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/hamed0406/statuspage/internal/domain"
	"github.com/hamed0406/statuspage/internal/repo"
)

var _ repo.SignalStore = (*Store)(nil)

// receivedLayout matches strftime('%Y-%m-%dT%H:%M:%fZ').
const receivedLayout = "2006-01-02T15:04:05.000Z"

const schema = `
CREATE TABLE IF NOT EXISTS signals (
	received    TEXT    NOT NULL,
	url         TEXT    NOT NULL,
	http_status INTEGER NOT NULL,
	available   INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_signals_url_received ON signals (url, received DESC);
`

type Store struct {
	db  *sql.DB
	log *zap.Logger
}

// IsDSN reports whether a database URL selects this adapter.
func IsDSN(databaseURL string) bool {
	return strings.HasPrefix(databaseURL, "sqlite:") || strings.HasPrefix(databaseURL, "file:")
}

// dataSource turns "sqlite:///var/lib/x.db" or "sqlite:x.db" into a driver
// path; file: URIs are passed through.
func dataSource(databaseURL string) string {
	if strings.HasPrefix(databaseURL, "file:") {
		return databaseURL
	}
	p := strings.TrimPrefix(databaseURL, "sqlite:")
	p = strings.TrimPrefix(p, "//")
	if p == "" {
		p = "statuspage.db"
	}
	return p + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
}

// New opens the database and migrates the schema.
func New(ctx context.Context, databaseURL string, poolSize int, log *zap.Logger) (*Store, error) {
	db, err := sql.Open("sqlite", dataSource(databaseURL))
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if poolSize > 0 {
		db.SetMaxOpenConns(poolSize)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w: %w", domain.ErrStoreUnavailable, err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate sqlite: %w", err)
	}
	log.Info("sqlite_opened", zap.String("dsn", databaseURL), zap.Int("max_open_conns", poolSize))
	return &Store{db: db, log: log}, nil
}

func (s *Store) Close() { _ = s.db.Close() }

func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return classify("ping", err)
	}
	return nil
}

func (s *Store) Insert(ctx context.Context, sig domain.Signal) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO signals (received, url, http_status, available)
		 VALUES (strftime('%Y-%m-%dT%H:%M:%fZ', 'now'), ?, ?, ?)`,
		sig.URL, sig.HTTPStatus, sig.Available,
	)
	if err != nil {
		return classify("insert signal", err)
	}
	return nil
}

func (s *Store) QueryRecent(ctx context.Context, url string, limit int) ([]domain.Signal, error) {
	out := make([]domain.Signal, 0)
	if limit <= 0 {
		return out, nil
	}
	// rowid breaks ties between rows written within the same millisecond.
	rows, err := s.db.QueryContext(ctx,
		`SELECT received, url, http_status, available
		   FROM signals
		  WHERE url = ?
		  ORDER BY received DESC, rowid DESC
		  LIMIT ?`,
		url, limit,
	)
	if err != nil {
		return nil, classify("query signals", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			sig      domain.Signal
			received string
		)
		if err := rows.Scan(&received, &sig.URL, &sig.HTTPStatus, &sig.Available); err != nil {
			return nil, fmt.Errorf("scan signal: %w: %w", domain.ErrQuery, err)
		}
		ts, err := time.Parse(receivedLayout, received)
		if err != nil {
			return nil, fmt.Errorf("parse received %q: %w: %w", received, domain.ErrQuery, err)
		}
		sig.Received = ts
		out = append(out, sig)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("iterate signals", err)
	}
	return out, nil
}

// classify treats the generic SQLITE_ERROR (bad SQL, missing table) as a
// query error; busy, locked, I/O and closed-database failures mean the store
// is unavailable.
func classify(op string, err error) error {
	var se *sqlite.Error
	if errors.As(err, &se) && se.Code()&0xff == sqlite3.SQLITE_ERROR {
		return fmt.Errorf("%s: %w: %w", op, domain.ErrQuery, err)
	}
	return fmt.Errorf("%s: %w: %w", op, domain.ErrStoreUnavailable, err)
}
