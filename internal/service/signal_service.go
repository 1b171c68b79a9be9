package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/hamed0406/statuspage/internal/domain"
)

const (
	DefaultLimit = 60
	// MaxLimit caps a single read; one week of one-minute probes.
	MaxLimit = 10080
)

// SignalReader is the read half of repo.SignalStore.
type SignalReader interface {
	QueryRecent(ctx context.Context, url string, limit int) ([]domain.Signal, error)
}

// SignalService serves the recent history of the configured URL.
type SignalService struct {
	url    string
	store  SignalReader
	logger *zap.Logger
}

func NewSignalService(url string, store SignalReader, logger *zap.Logger) *SignalService {
	return &SignalService{
		url:    url,
		store:  store,
		logger: logger.With(zap.String("component", "signal_service")),
	}
}

// GetSignals returns the latest limit signals grouped by URL, each group in
// ascending received order. limit <= 0 yields an empty result without a
// store round trip; limit above MaxLimit is clamped.
func (s *SignalService) GetSignals(ctx context.Context, limit int) ([]domain.SignalGroup, error) {
	if limit <= 0 {
		return []domain.SignalGroup{}, nil
	}
	if limit > MaxLimit {
		s.logger.Debug("signals_limit_clamped", zap.Int("requested", limit), zap.Int("max", MaxLimit))
		limit = MaxLimit
	}

	recent, err := s.store.QueryRecent(ctx, s.url, limit)
	if err != nil {
		return nil, err
	}
	return GroupChronologically(recent), nil
}

// GroupChronologically partitions newest-first rows by URL in one pass and
// reverses each group. Groups appear in the order their URL is first seen.
func GroupChronologically(newestFirst []domain.Signal) []domain.SignalGroup {
	order := make([]string, 0, 1)
	byURL := make(map[string][]domain.Signal)
	for _, sig := range newestFirst {
		if _, seen := byURL[sig.URL]; !seen {
			order = append(order, sig.URL)
		}
		byURL[sig.URL] = append(byURL[sig.URL], sig)
	}

	out := make([]domain.SignalGroup, 0, len(order))
	for _, url := range order {
		records := byURL[url]
		for i, j := 0, len(records)-1; i < j; i, j = i+1, j-1 {
			records[i], records[j] = records[j], records[i]
		}
		out = append(out, domain.SignalGroup{URL: url, Records: records})
	}
	return out
}
