// Package api is the HTTP presentation adapter. Handlers only read controller
// state through accessors and dispatch intents; they never touch the store.
package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"privlib/internal/health"
	"privlib/internal/lifecycle"
	"privlib/internal/logging"
	"privlib/internal/metrics"
	"privlib/internal/ratelimit"
	"privlib/internal/wallet"
)

// Deps are the collaborators of the HTTP adapter.
type Deps struct {
	Controller *lifecycle.Controller
	Wallet     *wallet.Session
	Limiter    *ratelimit.AddressLimiter
	Health     *health.HealthChecker
	Metrics    *metrics.Metrics
	Gatherer   prometheus.Gatherer
	Logger     *logging.Logger
	// Now is used for relative times in views. Defaults to time.Now.
	Now func() time.Time
}

// Server serves the library intents over HTTP.
type Server struct {
	ctrl    *lifecycle.Controller
	wallet  *wallet.Session
	limiter *ratelimit.AddressLimiter
	health  *health.HealthChecker
	metrics *metrics.Metrics
	log     *logging.Logger
	now     func() time.Time
	router  chi.Router
}

// New builds the router.
func New(d Deps) *Server {
	s := &Server{
		ctrl:    d.Controller,
		wallet:  d.Wallet,
		limiter: d.Limiter,
		health:  d.Health,
		metrics: d.Metrics,
		log:     d.Logger,
		now:     d.Now,
	}
	if s.log == nil {
		s.log = logging.Nop()
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.limiter == nil {
		s.limiter = ratelimit.New(0, 0)
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(requestLogger(s.log.Logger))

	r.Get("/records", s.listRecords)
	r.Get("/records/{id}", s.getRecord)
	r.Get("/stats", s.getStats)
	r.Get("/status", s.getStatus)
	r.Get("/status/stream", s.streamStatus)
	r.Get("/history", s.getHistory)
	r.Get("/availability", s.checkAvailability)
	r.Get("/form", s.getForm)
	r.Put("/form", s.updateForm)

	r.Group(func(r chi.Router) {
		r.Use(s.rateLimit)
		r.Post("/records", s.publish)
		r.Post("/records/{id}/disclose", s.disclose)
		r.Post("/form/submit", s.submitForm)
		r.Post("/refresh", s.refresh)
	})

	r.Post("/wallet/connect", s.connect)
	r.Post("/wallet/disconnect", s.disconnect)
	r.Get("/wallet", s.getWallet)

	r.Get("/healthz", s.healthz)
	if d.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{}))
	}

	s.router = r
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string, shutdownTimeout time.Duration) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("http server listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	s.log.Info("shutting down http server")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	return nil
}

// rateLimit refuses mutating intents once the caller's bucket is empty. The
// caller is the connected wallet, or the remote host without one. The
// remaining tokens are reported in X-RateLimit-Remaining.
func (s *Server) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key, ok := s.wallet.Account()
		if !ok {
			key = remoteHost(r.RemoteAddr)
		}
		allowed := s.limiter.Allow(key)
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(int(s.limiter.Tokens(key))))
		if !allowed {
			s.metrics.RecordRateLimited()
			writeError(w, http.StatusTooManyRequests, "RateLimited", "Too many requests, slow down")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func remoteHost(addr string) string {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}
	return host
}

// requestLogger logs every request with its status and duration. The level
// follows the status class.
func requestLogger(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			fields := []zap.Field{
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("duration", time.Since(start)),
				zap.Int("bytes", ww.BytesWritten()),
				zap.String("request_id", chimw.GetReqID(r.Context())),
			}
			switch {
			case ww.Status() >= 500:
				log.Error("http request", fields...)
			case ww.Status() >= 400:
				log.Warn("http request", fields...)
			default:
				log.Debug("http request", fields...)
			}
		})
	}
}
