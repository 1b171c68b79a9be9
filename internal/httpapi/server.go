package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/hamed0406/statuspage/internal/domain"
	apimw "github.com/hamed0406/statuspage/internal/httpapi/middleware"
	"github.com/hamed0406/statuspage/internal/metrics"
	"github.com/hamed0406/statuspage/internal/service"
)

const readyTimeout = 2 * time.Second

// SignalGetter is implemented by *service.SignalService.
type SignalGetter interface {
	GetSignals(ctx context.Context, limit int) ([]domain.SignalGroup, error)
}

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Options struct {
	AllowedOrigins []string
	RateLimitRPM   int
	RateLimitBurst int
	// TrustProxy keys the rate limit on X-Forwarded-For. Only set it when a
	// reverse proxy overwrites that header.
	TrustProxy     bool
	RequestTimeout time.Duration
}

type Server struct {
	Logger   *zap.Logger
	Signals  SignalGetter
	Store    Pinger
	Metrics  *metrics.Metrics
	Gatherer prometheus.Gatherer
	Opts     Options
}

func NewServer(l *zap.Logger, signals SignalGetter, store Pinger, m *metrics.Metrics, g prometheus.Gatherer, opts Options) *Server {
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 30 * time.Second
	}
	return &Server{Logger: l, Signals: signals, Store: store, Metrics: m, Gatherer: g, Opts: opts}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(apimw.Metrics(s.Metrics))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.Opts.AllowedOrigins,
		AllowedMethods:   []string{"GET", "HEAD", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/readyz", s.handleReady)
	if s.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Group(func(r chi.Router) {
		r.Use(chimw.Timeout(s.Opts.RequestTimeout))
		r.Use(apimw.RateLimit(s.Opts.RateLimitRPM, s.Opts.RateLimitBurst, s.Opts.TrustProxy, s.Logger))
		r.Get("/signals", s.handleSignals)
	})

	return r
}

func (s *Server) handleSignals(w http.ResponseWriter, r *http.Request) {
	limit := service.DefaultLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	groups, err := s.Signals.GetSignals(r.Context(), limit)
	if err != nil {
		s.Logger.Error("get_signals_failed",
			zap.Int("limit", limit),
			zap.String("request_id", chimw.GetReqID(r.Context())),
			zap.Bool("store_unavailable", domain.IsStoreUnavailable(err)),
			zap.Error(err),
		)
		writeError(w, http.StatusInternalServerError, "could not read signals")
		return
	}
	writeJSON(w, http.StatusOK, groups)
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()

	if err := s.Store.Ping(ctx); err != nil {
		s.Logger.Warn("not_ready", zap.Error(err))
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("store unavailable"))
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
