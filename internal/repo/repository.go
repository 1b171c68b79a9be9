package repo

import (
	"context"

	"github.com/hamed0406/statuspage/internal/domain"
)

// SignalStore is the append-only signal relation. Adapters never update or
// delete rows.
type SignalStore interface {
	// Insert appends one row; the store assigns Received.
	Insert(ctx context.Context, s domain.Signal) error
	// QueryRecent returns at most limit rows for url, newest first.
	// limit <= 0 yields an empty result without touching the backend.
	QueryRecent(ctx context.Context, url string, limit int) ([]domain.Signal, error)
	Ping(ctx context.Context) error
	Close()
}
