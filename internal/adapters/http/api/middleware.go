package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/okian/juryrank/pkg/logger"
	"github.com/okian/juryrank/pkg/metrics"
)

// RequestIDHeader is echoed back on every response; a client supplied value is kept.
const RequestIDHeader = "X-Request-ID"

var errPanic = errors.New("handler panic")

// Instrument wraps h with request id propagation, panic recovery, access
// logging and per-route Prometheus metrics labelled by route.
func Instrument(h http.HandlerFunc, route string) http.HandlerFunc {
	log := logger.Get().Named("http")
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)

		rec := &statusRecorder{ResponseWriter: w}
		defer func() {
			if p := recover(); p != nil {
				if p == http.ErrAbortHandler {
					panic(p)
				}
				log.Error(r.Context(), "handler panicked",
					logger.String("route", route),
					logger.String("request_id", id),
					logger.Any("panic", p),
				)
				if !rec.wroteHeader {
					writeError(rec, r, WrapKind(route, nil, fmt.Errorf("%w: %v", errPanic, p)))
				}
			}
			observe(r, route, rec.status(), time.Since(start))
			log.Debug(r.Context(), "request",
				logger.String("request_id", id),
				logger.String("method", r.Method),
				logger.String("path", r.URL.Path),
				logger.Int("status", rec.status()),
				logger.Duration("elapsed", time.Since(start)),
			)
		}()
		h(rec, r)
	}
}

func observe(r *http.Request, route string, status int, elapsed time.Duration) {
	ms := float64(elapsed.Microseconds()) / 1000
	code := strconv.Itoa(status)
	metrics.RecordHTTPRequest(route, r.Method, code)
	metrics.RecordHTTPRequestDuration(route, r.Method, code, ms)
	if status < http.StatusBadRequest {
		return
	}
	kind := errorCode(status)
	metrics.RecordErrorByEndpoint(route, r.Method, kind)
	metrics.RecordErrorByType(kind, severity(status))
	metrics.RecordErrorLatency("http", kind, ms)
}

// errorCode names status the same way the JSON error envelope does.
func errorCode(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "bad_request"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusMethodNotAllowed:
		return "method_not_allowed"
	case http.StatusConflict:
		return "conflict"
	case http.StatusTooManyRequests:
		return "backpressure"
	case http.StatusServiceUnavailable:
		return "unavailable"
	}
	if status >= http.StatusInternalServerError {
		return "internal_error"
	}
	return "client_error"
}

// severity is high for failures the operator must look at.
func severity(status int) string {
	switch {
	case status == http.StatusServiceUnavailable:
		return "medium"
	case status >= http.StatusInternalServerError:
		return "high"
	case status == http.StatusTooManyRequests:
		return "medium"
	default:
		return "low"
	}
}

type statusRecorder struct {
	http.ResponseWriter
	code        int
	wroteHeader bool
}

func (rw *statusRecorder) WriteHeader(code int) {
	if rw.wroteHeader {
		return
	}
	rw.code = code
	rw.wroteHeader = true
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *statusRecorder) Write(b []byte) (int, error) {
	if !rw.wroteHeader {
		rw.WriteHeader(http.StatusOK)
	}
	n, err := rw.ResponseWriter.Write(b)
	if err != nil {
		return n, fmt.Errorf("write response: %w", err)
	}
	return n, nil
}

func (rw *statusRecorder) status() int {
	if !rw.wroteHeader {
		return http.StatusOK
	}
	return rw.code
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (rw *statusRecorder) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}
