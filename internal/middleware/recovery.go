package middleware

import (
	"log"
	"net/http"
	"runtime/debug"

	"pricemind-sync-api/pkg/apierror"
	"pricemind-sync-api/pkg/response"
)

// Recovery turns handler panics into a 500 error envelope.
func Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				log.Printf("[Recovery] panic rid=%s: %v\n%s", GetRequestID(r.Context()), err, debug.Stack())
				response.Error(w, apierror.InternalError("internal server error"))
			}
		}()

		next.ServeHTTP(w, r)
	})
}
