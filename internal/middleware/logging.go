package middleware

import (
	"context"
	"log"
	"net/http"
	"time"
)

const accessLogKey contextKey = "access_log"

// accessLogEntry collects what inner middleware learns about a request.
type accessLogEntry struct {
	caller string
}

// Logging logs one line per request with its request id and the
// authenticated caller ("-" when anonymous).
func Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		wrapped := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}
		ctx := context.WithValue(r.Context(), accessLogKey, &accessLogEntry{})

		next.ServeHTTP(wrapped, r.WithContext(ctx))

		caller := GetCaller(ctx)
		if caller == "" {
			caller = "-"
		}
		log.Printf(
			"[HTTP] %s %s %d %s rid=%s caller=%s",
			r.Method,
			r.URL.Path,
			wrapped.statusCode,
			time.Since(start),
			GetRequestID(ctx),
			caller,
		)
	})
}

// statusRecorder captures the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	statusCode  int
	wroteHeader bool
}

func (rw *statusRecorder) WriteHeader(code int) {
	if !rw.wroteHeader {
		rw.statusCode = code
		rw.wroteHeader = true
	}
	rw.ResponseWriter.WriteHeader(code)
}
