package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"factorypulse-gateway/internal/logger"
	"factorypulse-gateway/internal/metrics"
)

// RequestLogger logs every request with zerolog and records HTTP metrics
// labelled by route pattern. The raw path is only logged.
func RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		// unknown paths share one label so scanners cannot grow series
		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		duration := time.Since(start)

		log := logger.WithRequestID(middleware.GetReqID(r.Context()))
		log.Info().
			Str("method", r.Method).
			Str("route", route).
			Str("path", r.URL.Path).
			Str("remote_addr", r.RemoteAddr).
			Int("status", status).
			Int("response_size", ww.BytesWritten()).
			Dur("duration", duration).
			Msg("request completed")

		metrics.HTTPRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(r.Method, route).Observe(duration.Seconds())
	})
}
