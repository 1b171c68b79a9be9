package service

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hamed0406/statuspage/internal/domain"
	"github.com/hamed0406/statuspage/internal/probe"
	"github.com/hamed0406/statuspage/internal/repo/memory"
)

// ---- fakes ----

type fakeReader struct {
	rows      []domain.Signal
	err       error
	calls     int
	lastLimit int
}

func (f *fakeReader) QueryRecent(ctx context.Context, url string, limit int) ([]domain.Signal, error) {
	f.calls++
	f.lastLimit = limit
	if f.err != nil {
		return nil, f.err
	}
	return f.rows, nil
}

func at(minute int) time.Time {
	return time.Date(2025, 8, 18, 12, minute, 0, 0, time.UTC)
}

// ---- tests ----

func TestGetSignals_ReversesToChronological(t *testing.T) {
	r := &fakeReader{rows: []domain.Signal{
		{URL: "https://a", HTTPStatus: -1, Received: at(3)},
		{URL: "https://a", HTTPStatus: 404, Received: at(2)},
		{URL: "https://a", HTTPStatus: 200, Available: true, Received: at(1)},
	}}
	svc := NewSignalService("https://a", r, zap.NewNop())

	got, err := svc.GetSignals(context.Background(), 3)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "https://a", got[0].URL)
	require.Len(t, got[0].Records, 3)
	for i := 1; i < len(got[0].Records); i++ {
		assert.False(t, got[0].Records[i].Received.Before(got[0].Records[i-1].Received))
	}
	assert.Equal(t, 200, got[0].Records[0].HTTPStatus)
	assert.Equal(t, 3, r.lastLimit)
}

func TestGetSignals_NonPositiveLimitSkipsStore(t *testing.T) {
	r := &fakeReader{err: errors.New("must not be called")}
	svc := NewSignalService("https://a", r, zap.NewNop())

	for _, limit := range []int{0, -5} {
		got, err := svc.GetSignals(context.Background(), limit)
		require.NoError(t, err)
		assert.NotNil(t, got)
		assert.Empty(t, got)
	}
	assert.Zero(t, r.calls)
}

func TestGetSignals_ClampsLargeLimit(t *testing.T) {
	r := &fakeReader{}
	svc := NewSignalService("https://a", r, zap.NewNop())

	_, err := svc.GetSignals(context.Background(), MaxLimit*10)
	require.NoError(t, err)
	assert.Equal(t, MaxLimit, r.lastLimit)
}

func TestGetSignals_EmptyStore(t *testing.T) {
	svc := NewSignalService("https://a", &fakeReader{}, zap.NewNop())
	got, err := svc.GetSignals(context.Background(), DefaultLimit)
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestGetSignals_PropagatesStoreError(t *testing.T) {
	r := &fakeReader{err: domain.ErrStoreUnavailable}
	svc := NewSignalService("https://a", r, zap.NewNop())

	_, err := svc.GetSignals(context.Background(), 10)
	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
}

func TestGroupChronologically_MultipleURLsKeepFirstSeenOrder(t *testing.T) {
	rows := []domain.Signal{
		{URL: "https://b", HTTPStatus: 500, Received: at(4)},
		{URL: "https://a", HTTPStatus: 200, Received: at(3)},
		{URL: "https://b", HTTPStatus: 200, Received: at(2)},
		{URL: "https://a", HTTPStatus: 404, Received: at(1)},
	}
	got := GroupChronologically(rows)
	require.Len(t, got, 2)
	assert.Equal(t, "https://b", got[0].URL)
	assert.Equal(t, "https://a", got[1].URL)
	assert.Equal(t, []int{200, 500}, []int{got[0].Records[0].HTTPStatus, got[0].Records[1].HTTPStatus})
	assert.Equal(t, []int{404, 200}, []int{got[1].Records[0].HTTPStatus, got[1].Records[1].HTTPStatus})
}

func TestGetSignals_Idempotent(t *testing.T) {
	store := memory.New()
	ctx := context.Background()
	for _, code := range []int{200, 503, 200} {
		require.NoError(t, store.Insert(ctx, domain.NewSignal("https://a", code)))
	}
	svc := NewSignalService("https://a", store, zap.NewNop())

	first, err := svc.GetSignals(ctx, 10)
	require.NoError(t, err)
	second, err := svc.GetSignals(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

// Probes 200, 404 and a refused connection, then reads them back.
func TestScenario_ProbeThenRead(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	base := at(0)
	n := 0
	store.Now = func() time.Time {
		n++
		return base.Add(time.Duration(n) * time.Minute)
	}

	var code atomic.Int32
	code.Store(200)
	target := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(int(code.Load()))
	}))
	url := target.URL

	mon := probe.NewMonitor(url, probe.NewHTTPChecker(time.Second), store, zap.NewNop(), nil)
	mon.Diagnose = nil
	svc := NewSignalService(url, store, zap.NewNop())

	require.NoError(t, mon.Run(ctx))

	one, err := svc.GetSignals(ctx, 1)
	require.NoError(t, err)
	require.Len(t, one, 1)
	require.Len(t, one[0].Records, 1)
	assert.Equal(t, 200, one[0].Records[0].HTTPStatus)
	assert.True(t, one[0].Records[0].Available)

	code.Store(404)
	require.NoError(t, mon.Run(ctx))

	target.Close()
	var pte *domain.ProbeTransportError
	require.ErrorAs(t, mon.Run(ctx), &pte)

	got, err := svc.GetSignals(ctx, 3)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Len(t, got[0].Records, 3)
	statuses := []int{got[0].Records[0].HTTPStatus, got[0].Records[1].HTTPStatus, got[0].Records[2].HTTPStatus}
	assert.Equal(t, []int{200, 404, domain.StatusProbeFailed}, statuses)
	assert.Equal(t, []bool{true, false, false},
		[]bool{got[0].Records[0].Available, got[0].Records[1].Available, got[0].Records[2].Available})
}
