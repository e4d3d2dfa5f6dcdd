package monitoring

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/aniemarie21/maes-laboratory-system/pkg/logger"
)

// MonitoringMiddleware combines request ids, metrics and request logging
type MonitoringMiddleware struct {
	metrics *MetricsCollector
	logger  *logger.Logger
}

// NewMonitoringMiddleware creates a new monitoring middleware
func NewMonitoringMiddleware(metrics *MetricsCollector, log *logger.Logger) *MonitoringMiddleware {
	return &MonitoringMiddleware{
		metrics: metrics,
		logger:  log,
	}
}

// HTTPMiddleware assigns a request id, then records metrics and a log line per request
func (mm *MonitoringMiddleware) HTTPMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}
		ctx := logger.ContextWithRequestID(r.Context(), requestID)

		wrapper := &monitoringResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		wrapper.Header().Set("X-Request-ID", requestID)

		r = r.WithContext(ctx)
		next.ServeHTTP(wrapper, r)

		duration := time.Since(start)
		mm.metrics.RecordHTTPRequest(r.Method, routeTemplate(r), wrapper.statusCode, duration)
		mm.logger.HTTPRequest(ctx, r.Method, r.URL.Path, r.UserAgent(), r.RemoteAddr, wrapper.statusCode, duration.Milliseconds())
	})
}

// routeTemplate returns the matched mux template so ids do not explode label cardinality
func routeTemplate(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tpl, err := route.GetPathTemplate(); err == nil {
			return tpl
		}
	}
	return "unmatched"
}

type monitoringResponseWriter struct {
	http.ResponseWriter
	statusCode  int
	wroteHeader bool
}

func (mrw *monitoringResponseWriter) WriteHeader(code int) {
	if !mrw.wroteHeader {
		mrw.statusCode = code
		mrw.wroteHeader = true
	}
	mrw.ResponseWriter.WriteHeader(code)
}

func (mrw *monitoringResponseWriter) Write(b []byte) (int, error) {
	mrw.wroteHeader = true
	return mrw.ResponseWriter.Write(b)
}
