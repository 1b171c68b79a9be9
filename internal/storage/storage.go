// Package storage picks the signal store named by the database URL.
package storage

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/hamed0406/statuspage/internal/repo"
	"github.com/hamed0406/statuspage/internal/repo/memory"
	"github.com/hamed0406/statuspage/internal/repo/postgres"
	"github.com/hamed0406/statuspage/internal/repo/sqlite"
)

// Kind names the backend Open chooses for a database URL.
func Kind(databaseURL string) string {
	switch {
	case strings.TrimSpace(databaseURL) == "":
		return "memory"
	case sqlite.IsDSN(databaseURL):
		return "sqlite"
	default:
		return "postgres"
	}
}

// Open returns an in-memory store for an empty URL, SQLite for sqlite:/file:
// URLs and Postgres otherwise. dialect picks PostgreSQL or QuestDB DDL on the
// PG wire path ("" detects it from the URL). migrate creates the Postgres
// schema; SQLite always migrates since the file may be new.
func Open(ctx context.Context, databaseURL string, poolSize int, dialect string, migrate bool, log *zap.Logger) (repo.SignalStore, error) {
	kind := Kind(databaseURL)
	log.Info("store_open", zap.String("kind", kind), zap.Int("pool_size", poolSize))

	switch kind {
	case "memory":
		log.Warn("store_in_memory", zap.String("hint", "signals are lost on restart; set STATUSPAGE_DATABASE_URL"))
		return memory.New(), nil
	case "sqlite":
		return sqlite.New(ctx, databaseURL, poolSize, log)
	}

	d, err := postgres.ParseDialect(dialect)
	if err != nil {
		return nil, err
	}
	pg, err := postgres.New(ctx, databaseURL, poolSize, d, log)
	if err != nil {
		return nil, err
	}
	if migrate {
		if err := pg.EnsureSchema(ctx); err != nil {
			pg.Close()
			return nil, err
		}
	}
	return pg, nil
}
