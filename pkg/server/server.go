// Package server exposes the scheduler over HTTP. It is a thin adapter:
// every scheduling decision happens in pkg/scheduling, this package only
// decodes requests, applies throttling and caching, and maps errors onto
// status codes.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/handlers"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	v1 "github.com/taskalign/taskalign/pkg/apis/v1"
	"github.com/taskalign/taskalign/pkg/metrics"
	"github.com/taskalign/taskalign/pkg/scheduling"
)

type Server struct {
	cfg     *Config
	log     *zap.Logger
	limiter *rate.Limiter
	solves  *semaphore.Weighted
	cache   *responseCache
	httpSrv *http.Server
}

func New(cfg *Config, log *zap.Logger) *Server {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if log == nil {
		log = zap.NewNop()
	}
	s := &Server{
		cfg:     cfg,
		log:     log,
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.RequestBurst),
		solves:  semaphore.NewWeighted(cfg.MaxConcurrentSolves),
		cache:   newResponseCache(time.Duration(cfg.CacheTTLSeconds) * time.Second),
	}
	s.httpSrv = &http.Server{
		Addr:              cfg.ListenAddress,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler builds the full middleware stack around the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /schedule", s.handleSchedule)
	mux.HandleFunc("GET /healthz", s.handleHealthz)
	mux.Handle("GET /metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	var h http.Handler = mux
	h = promhttp.InstrumentHandlerDuration(requestDuration, h)
	h = handlers.CORS(
		handlers.AllowedOrigins(s.cfg.AllowedOrigins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Content-Type"}),
	)(h)
	h = handlers.RecoveryHandler(handlers.RecoveryLogger(recoveryLogger{s.log}))(h)
	h = s.logRequests(h)
	return h
}

// Start serves until ctx is cancelled, then drains in-flight requests
// within the configured grace period.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("listening", zap.String("address", s.cfg.ListenAddress))
		if err := s.httpSrv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	grace := time.Duration(s.cfg.ShutdownGraceSeconds) * time.Second
	shutdownCtx, cancel := context.WithTimeout(context.Background(), grace)
	defer cancel()

	var err error
	err = multierr.Append(err, s.httpSrv.Shutdown(shutdownCtx))
	err = multierr.Append(err, <-errCh)
	return err
}

func (s *Server) handleSchedule(w http.ResponseWriter, r *http.Request) {
	if !s.limiter.Allow() {
		writeError(w, http.StatusTooManyRequests, "rate limit exceeded, retry later")
		return
	}

	req := &v1.ScheduleRequest{}
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body: "+err.Error())
		return
	}

	key, cacheable := s.cache.key(req)
	if cacheable {
		if resp, ok := s.cache.get(key); ok {
			cacheHits.Inc()
			writeJSON(w, http.StatusOK, resp)
			return
		}
	}

	if err := s.solves.Acquire(r.Context(), 1); err != nil {
		writeError(w, http.StatusServiceUnavailable, "request cancelled while waiting for a solve slot")
		return
	}
	defer s.solves.Release(1)

	stop := metrics.Measure(solveDuration)
	resp, err := scheduling.Plan(r.Context(), req, s.log)
	stop()
	if err != nil {
		if scheduling.IsUserError(err) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.log.Error("scheduling failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if cacheable && !resp.Partial {
		s.cache.set(key, resp)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, v1.ErrorResponse{Detail: detail})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.log.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

type recoveryLogger struct {
	log *zap.Logger
}

func (l recoveryLogger) Println(args ...any) {
	l.log.Sugar().Error(args...)
}
