package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/yegors/infotavla/internal/metrics"
	"github.com/yegors/infotavla/pkg/logger"
)

// Router wires the HTTP surface
type Router struct {
	handler   *Handler
	static    http.Handler
	websocket http.HandlerFunc
	gatherer  prometheus.Gatherer // nil disables /metrics
	metrics   *metrics.Collector
	logger    *logger.Logger
}

// NewRouter creates a new router
func NewRouter(handler *Handler, static http.Handler, websocket http.HandlerFunc, gatherer prometheus.Gatherer, collector *metrics.Collector, log *logger.Logger) *Router {
	return &Router{
		handler:   handler,
		static:    static,
		websocket: websocket,
		gatherer:  gatherer,
		metrics:   collector,
		logger:    log.Named("router"),
	}
}

// Routes returns the configured handler
func (rt *Router) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(rt.requestLogger)

	r.Get("/health", rt.handler.GetHealth)

	r.Route("/api", func(r chi.Router) {
		r.Get("/display", rt.handler.GetDisplay)
		r.Get("/display/{id}", rt.handler.GetRegion)
		r.Get("/status", rt.handler.GetStatus)
		r.Post("/refresh/{source}", rt.handler.Refresh)
	})

	if rt.websocket != nil {
		r.Get("/ws", rt.websocket)
	}
	if rt.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(rt.gatherer, promhttp.HandlerOpts{}))
	}
	if rt.static != nil {
		r.Handle("/*", rt.static)
	}

	return r
}

// requestLogger logs each request and counts it by route pattern
func (rt *Router) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		if rt.metrics != nil {
			rt.metrics.RecordAPIRequest(route, r.Method, strconv.Itoa(ww.Status()))
		}
		rt.logger.Debug("HTTP request",
			logger.String("method", r.Method),
			logger.String("route", route),
			logger.Int("status", ww.Status()),
			logger.Duration("duration", time.Since(start)))
	})
}
