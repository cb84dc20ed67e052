// ABOUTME: Router assembly for the BFF
// ABOUTME: Mounts the route table on chi with the global and per-route middleware stack

package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/oganilir/drive-bff/middleware"
)

// RouterOptions configures the middleware stack.
type RouterOptions struct {
	CORSOrigins    []string
	CSRFEnabled    bool
	AuthLimiter    *middleware.RateLimiter // nil disables rate limiting for credential routes
	DefaultLimiter *middleware.RateLimiter // nil disables rate limiting for everything else
	Metrics        http.Handler            // served at /metrics when set
}

// NewRouter builds the HTTP handler. Request logging, CORS, session
// resolution and CSRF run before route matching; rate limits and the
// access gate are attached per route.
func NewRouter(h *Handler, opts RouterOptions) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Adapt(middleware.LogRequest),
		middleware.Adapt(middleware.CORS(opts.CORSOrigins)),
		middleware.Adapt(middleware.Session(h.sessions)),
	)
	if opts.CSRFEnabled {
		r.Use(middleware.Adapt(middleware.CSRF("/api/auth/login")))
	}

	for _, route := range h.Routes() {
		limiter, key := opts.DefaultLimiter, middleware.UserOrIP
		if route.Auth {
			limiter, key = opts.AuthLimiter, middleware.ClientIP
		}

		mws := []middleware.Middleware{middleware.RateLimit(limiter, key)}
		if route.Gated {
			mws = append(mws, middleware.RequireAccess)
		}
		r.Method(route.Method, route.Path, middleware.Chain(route.Handler, mws...))
	}

	if opts.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", opts.Metrics)
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		h.writeError(w, "Not found", http.StatusNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
	})

	return r
}
