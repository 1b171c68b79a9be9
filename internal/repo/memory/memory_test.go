package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hamed0406/statuspage/internal/domain"
)

func fixedClock(ts ...time.Time) func() time.Time {
	i := 0
	return func() time.Time {
		t := ts[i]
		if i < len(ts)-1 {
			i++
		}
		return t
	}
}

func TestMemoryStore_InsertAssignsReceived(t *testing.T) {
	ctx := context.Background()
	s := New()
	base := time.Date(2025, 8, 18, 12, 0, 0, 0, time.UTC)
	s.Now = fixedClock(base)

	require.NoError(t, s.Insert(ctx, domain.NewSignal("https://example.com", 200)))

	got, err := s.QueryRecent(ctx, "https://example.com", 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.True(t, got[0].Received.Equal(base))
	assert.True(t, got[0].Available)
}

func TestMemoryStore_QueryRecent_FiltersOrdersLimits(t *testing.T) {
	ctx := context.Background()
	s := New()
	base := time.Date(2025, 8, 18, 12, 0, 0, 0, time.UTC)
	s.Now = fixedClock(base, base.Add(time.Minute), base.Add(2*time.Minute), base.Add(3*time.Minute), base.Add(4*time.Minute))

	require.NoError(t, s.Insert(ctx, domain.NewSignal("https://a", 200)))
	require.NoError(t, s.Insert(ctx, domain.NewSignal("https://b", 200)))
	require.NoError(t, s.Insert(ctx, domain.NewSignal("https://a", 404)))
	require.NoError(t, s.Insert(ctx, domain.FailedSignal("https://a")))
	require.NoError(t, s.Insert(ctx, domain.NewSignal("https://b", 500)))

	got, err := s.QueryRecent(ctx, "https://a", 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, domain.StatusProbeFailed, got[0].HTTPStatus)
	assert.Equal(t, 404, got[1].HTTPStatus)
	for i := range got {
		assert.Equal(t, "https://a", got[i].URL)
		if i > 0 {
			assert.False(t, got[i].Received.After(got[i-1].Received), "received must be non-increasing")
		}
	}
	assert.Equal(t, 5, s.Len())
}

func TestMemoryStore_NonPositiveLimit(t *testing.T) {
	ctx := context.Background()
	s := New()
	require.NoError(t, s.Insert(ctx, domain.NewSignal("https://a", 200)))

	for _, limit := range []int{0, -1} {
		got, err := s.QueryRecent(ctx, "https://a", limit)
		require.NoError(t, err)
		assert.NotNil(t, got)
		assert.Empty(t, got)
	}
}

func TestMemoryStore_ClockNeverGoesBackwards(t *testing.T) {
	ctx := context.Background()
	s := New()
	base := time.Date(2025, 8, 18, 12, 0, 0, 0, time.UTC)
	s.Now = fixedClock(base, base.Add(-time.Hour))

	require.NoError(t, s.Insert(ctx, domain.NewSignal("https://a", 200)))
	require.NoError(t, s.Insert(ctx, domain.NewSignal("https://a", 200)))

	got, err := s.QueryRecent(ctx, "https://a", 2)
	require.NoError(t, err)
	assert.True(t, got[0].Received.Equal(got[1].Received))
}
