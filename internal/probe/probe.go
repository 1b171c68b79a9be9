package probe

import (
	"context"
	"errors"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/hamed0406/statuspage/internal/domain"
	"github.com/hamed0406/statuspage/internal/metrics"
)

// persistTimeout bounds the signal write independently of the probe deadline,
// so a timed-out probe still gets its failure row.
const persistTimeout = 5 * time.Second

// Header performs the HEAD request. *HTTPChecker implements it.
type Header interface {
	Head(ctx context.Context, target string) (int, error)
}

// SignalWriter is the write half of repo.SignalStore.
type SignalWriter interface {
	Insert(ctx context.Context, s domain.Signal) error
}

// Monitor probes one URL and records exactly one signal per Run.
type Monitor struct {
	URL     string
	Checker Header
	Store   SignalWriter
	Logger  *zap.Logger
	Metrics *metrics.Metrics

	// Diagnose runs after a transport failure has been recorded. Nil disables it.
	Diagnose func(ctx context.Context, target string) DNSStatus
}

func NewMonitor(url string, checker Header, store SignalWriter, logger *zap.Logger, m *metrics.Metrics) *Monitor {
	return &Monitor{
		URL:      url,
		Checker:  checker,
		Store:    store,
		Logger:   logger,
		Metrics:  m,
		Diagnose: DiagnoseDNS,
	}
}

// Run issues the HEAD request and persists the outcome. A transport failure
// is recorded as a -1 signal and then returned as *domain.ProbeTransportError;
// a store failure is returned as is (combined with the transport error when
// both happen). When ctx itself is cancelled (shutdown) nothing about the
// target was observed, so no signal is written and ctx.Err() is returned.
// Deadlines still count as failures.
func (m *Monitor) Run(ctx context.Context) error {
	if err := ctx.Err(); errors.Is(err, context.Canceled) {
		return err
	}

	start := time.Now()
	status, err := m.Checker.Head(ctx, m.URL)
	elapsed := time.Since(start)

	if err != nil && errors.Is(err, context.Canceled) && errors.Is(ctx.Err(), context.Canceled) {
		m.Logger.Info("probe_cancelled", zap.String("url", m.URL), zap.Duration("elapsed", elapsed))
		return ctx.Err()
	}
	if err != nil {
		perr := &domain.ProbeTransportError{URL: m.URL, Err: err}
		m.Metrics.ObserveProbe(metrics.OutcomeFailed, elapsed)
		m.Logger.Warn("probe_failed",
			zap.String("url", m.URL),
			zap.Duration("elapsed", elapsed),
			zap.Error(err),
		)

		if serr := m.persist(ctx, domain.FailedSignal(m.URL)); serr != nil {
			return multierr.Append(perr, serr)
		}
		m.diagnose(ctx)
		return perr
	}

	sig := domain.NewSignal(m.URL, status)
	outcome := metrics.OutcomeUnavailable
	if sig.Available {
		outcome = metrics.OutcomeAvailable
	}
	m.Metrics.ObserveProbe(outcome, elapsed)

	if err := m.persist(ctx, sig); err != nil {
		return err
	}
	m.Logger.Debug("probe_recorded",
		zap.String("url", m.URL),
		zap.Int("http_status", status),
		zap.Bool("available", sig.Available),
		zap.Duration("elapsed", elapsed),
	)
	return nil
}

func (m *Monitor) persist(ctx context.Context, sig domain.Signal) error {
	wctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), persistTimeout)
	defer cancel()
	return m.Store.Insert(wctx, sig)
}

func (m *Monitor) diagnose(ctx context.Context) {
	if m.Diagnose == nil {
		return
	}
	dns := m.Diagnose(context.WithoutCancel(ctx), m.URL)
	m.Logger.Warn("probe_dns_diagnosis",
		zap.String("domain", dns.Domain),
		zap.String("class", dns.Class),
		zap.Bool("has_a_or_aaaa", dns.HasAOrAAAA),
		zap.Strings("nameservers", dns.Nameservers),
		zap.String("cname", dns.CNAME),
		zap.String("resolver_error", dns.ResolverError),
	)
}
