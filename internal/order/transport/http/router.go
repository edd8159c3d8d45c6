package http

import (
	"context"
	stdhttp "net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/time/rate"

	"github.com/speedsneakers/order-service/internal/platform/log"
	"github.com/speedsneakers/order-service/internal/platform/observability"
)

type RouterOpt func(*routerConfig)

type routerConfig struct {
	rps   float64
	burst int
	pool  *pgxpool.Pool
}

// WithRateLimit overrides the default protective limiter.
func WithRateLimit(rps float64, burst int) RouterOpt {
	return func(c *routerConfig) { c.rps, c.burst = rps, burst }
}

// WithReadinessPool wires the db pool behind /readyz.
func WithReadinessPool(pool *pgxpool.Pool) RouterOpt {
	return func(c *routerConfig) { c.pool = pool }
}

func NewRouter(h *Handler, logger *log.Logger, opts ...RouterOpt) stdhttp.Handler {
	cfg := &routerConfig{rps: 50, burst: 100}
	for _, o := range opts {
		o(cfg)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(mwCorrelation)
	r.Use(middleware.Timeout(15 * time.Second))
	r.Use(mwZap(logger))
	r.Use(rateLimit(cfg.rps, cfg.burst))

	r.Get("/healthz", func(w stdhttp.ResponseWriter, r *stdhttp.Request) { w.WriteHeader(200) })
	r.Get("/readyz", func(w stdhttp.ResponseWriter, r *stdhttp.Request) {
		if err := dbPing(r.Context(), cfg.pool); err != nil {
			w.WriteHeader(503)
			return
		}
		w.WriteHeader(200)
	})
	r.Handle("/metrics", observability.Handler())

	r.Route("/orders", func(r chi.Router) {
		r.Post("/", h.Create)
		r.Route("/{id}", func(r chi.Router) {
			r.Use(bindIDParam("id"))
			r.Get("/", h.Get)
		})
	})

	return r
}

// --- helpers ---

func bindIDParam(name string) func(next stdhttp.Handler) stdhttp.Handler {
	return func(next stdhttp.Handler) stdhttp.Handler {
		return stdhttp.HandlerFunc(func(w stdhttp.ResponseWriter, r *stdhttp.Request) {
			id := chi.URLParam(r, name)
			next.ServeHTTP(w, WithURLParam(r, name, id))
		})
	}
}

func rateLimit(rps float64, burst int) func(stdhttp.Handler) stdhttp.Handler {
	lim := rate.NewLimiter(rate.Limit(rps), burst)
	return func(next stdhttp.Handler) stdhttp.Handler {
		return stdhttp.HandlerFunc(func(w stdhttp.ResponseWriter, r *stdhttp.Request) {
			if !lim.Allow() {
				w.WriteHeader(429)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func dbPing(ctx context.Context, pool *pgxpool.Pool) error {
	if pool == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 1*time.Second)
	defer cancel()

	return pool.Ping(ctx)
}
