package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hamed0406/statuspage/internal/domain"
	"github.com/hamed0406/statuspage/internal/repo/memory"
	"github.com/hamed0406/statuspage/internal/repo/sqlite"
)

func TestKind(t *testing.T) {
	cases := map[string]string{
		"":                                   "memory",
		"   ":                                "memory",
		"sqlite:signals.db":                  "sqlite",
		"file:signals.db?cache=shared":       "sqlite",
		"postgres://u:p@localhost:5432/db":   "postgres",
		"postgresql://admin:quest@db:8812/q": "postgres",
	}
	for in, want := range cases {
		assert.Equal(t, want, Kind(in), in)
	}
}

func TestOpen_Memory(t *testing.T) {
	st, err := Open(context.Background(), "", 3, "", true, zap.NewNop())
	require.NoError(t, err)
	defer st.Close()
	assert.IsType(t, &memory.Store{}, st)
}

func TestOpen_SQLite(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "signals.db")

	st, err := Open(ctx, "sqlite:"+path, 2, "", false, zap.NewNop())
	require.NoError(t, err)
	defer st.Close()
	assert.IsType(t, &sqlite.Store{}, st)

	require.NoError(t, st.Insert(ctx, domain.NewSignal("https://example.com", 200)))
	got, err := st.QueryRecent(ctx, "https://example.com", 10)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestOpen_PostgresUnreachable(t *testing.T) {
	_, err := Open(context.Background(), "postgres://u:p@127.0.0.1:1/db?connect_timeout=1", 1, "", true, zap.NewNop())
	require.Error(t, err)
	assert.True(t, domain.IsStoreUnavailable(err))
}

func TestOpen_RejectsUnknownDialect(t *testing.T) {
	_, err := Open(context.Background(), "postgres://u:p@127.0.0.1:1/db", 1, "oracle", true, zap.NewNop())
	assert.ErrorContains(t, err, "unknown database dialect")
}
