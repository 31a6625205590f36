package api

import (
	"context"
	"crypto/subtle"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dmitrymomot/notifykit/handler"
	"github.com/dmitrymomot/notifykit/pkg/clientip"
	"github.com/dmitrymomot/notifykit/pkg/httpserver"
	"github.com/dmitrymomot/notifykit/pkg/logger"
	"github.com/dmitrymomot/notifykit/pkg/requestid"
	"github.com/dmitrymomot/notifykit/svc/dispatch"
)

// Dispatcher is the part of *dispatch.Dispatcher served by the API.
type Dispatcher interface {
	Dispatch(ctx context.Context, ev dispatch.Event) dispatch.Result
	TestSend(ctx context.Context, req dispatch.TestRequest) (dispatch.TestResult, error)
}

type config struct {
	logger        *slog.Logger
	token         string
	history       dispatch.DeliveryHistory
	checks        map[string]httpserver.Check
	healthTimeout time.Duration
	ipHeaders     []string
}

type Option func(*config)

func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithAPIToken requires "Authorization: Bearer <token>" on /v1 routes.
func WithAPIToken(token string) Option {
	return func(c *config) {
		c.token = token
	}
}

// WithDeliveryHistory enables GET /v1/deliveries.
func WithDeliveryHistory(h dispatch.DeliveryHistory) Option {
	return func(c *config) {
		c.history = h
	}
}

// WithHealthCheck adds a named dependency check to /healthz.
func WithHealthCheck(name string, check httpserver.Check) Option {
	return func(c *config) {
		if check != nil {
			c.checks[name] = check
		}
	}
}

func WithHealthTimeout(d time.Duration) Option {
	return func(c *config) {
		if d > 0 {
			c.healthTimeout = d
		}
	}
}

// WithClientIPHeaders sets the proxy headers trusted for the client
// address in request logs. Default is clientip.DefaultHeaders.
func WithClientIPHeaders(headers ...string) Option {
	return func(c *config) {
		if len(headers) > 0 {
			c.ipHeaders = headers
		}
	}
}

// NewRouter builds the HTTP handler.
func NewRouter(d Dispatcher, opts ...Option) http.Handler {
	cfg := &config{
		logger:        slog.Default(),
		checks:        make(map[string]httpserver.Check),
		healthTimeout: 5 * time.Second,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	log := cfg.logger.With(logger.Component("api"))
	errHandler := handler.NewErrorHandler(log)

	h := &handlers{dispatcher: d, history: cfg.history}

	r := chi.NewRouter()
	r.Use(requestid.Middleware)
	r.Use(clientip.Middleware(cfg.ipHeaders...))
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(log))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		errHandler(handler.NewContext(w, r), handler.ErrNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		errHandler(handler.NewContext(w, r), handler.ErrMethodNotAllowed)
	})

	r.Get("/healthz", httpserver.HealthHandler(log, cfg.healthTimeout, cfg.checks))

	r.Route("/v1", func(r chi.Router) {
		if cfg.token != "" {
			r.Use(bearerAuth(cfg.token, errHandler))
		}
		r.Post("/dispatch", handler.Wrap(h.dispatch,
			handler.WithBinders[dispatch.Event](handler.BindJSON),
			handler.WithErrorHandler[dispatch.Event](errHandler),
		))
		r.Post("/templates/test", handler.Wrap(h.testSend,
			handler.WithBinders[dispatch.TestRequest](handler.BindJSON),
			handler.WithErrorHandler[dispatch.TestRequest](errHandler),
		))
		if cfg.history != nil {
			r.Get("/deliveries", handler.Wrap(h.deliveries,
				handler.WithBinders[deliveriesQuery](bindDeliveriesQuery),
				handler.WithErrorHandler[deliveriesQuery](errHandler),
			))
		}
	})

	return r
}

var errUnauthorized = handler.NewHTTPError(http.StatusUnauthorized, "unauthorized")

func bearerAuth(token string, errHandler handler.ErrorHandler) func(http.Handler) http.Handler {
	want := []byte(token)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || subtle.ConstantTimeCompare([]byte(got), want) != 1 {
				w.Header().Set("WWW-Authenticate", `Bearer realm="notifykit"`)
				errHandler(handler.NewContext(w, r), errUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func requestLogger(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			log.LogAttrs(r.Context(), slog.LevelDebug, "http request",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.String("client_ip", clientip.FromContext(r.Context())),
				slog.Int("status", ww.Status()),
				slog.Int("bytes", ww.BytesWritten()),
				logger.Duration(time.Since(start)),
			)
		})
	}
}
