package middleware

import (
	"context"
	"crypto/rsa"
	"crypto/subtle"
	"net/http"
	"strings"

	"pricemind-sync-api/internal/auth"
	"pricemind-sync-api/pkg/apierror"
	"pricemind-sync-api/pkg/response"
)

// CallerKey is the context key for the authenticated caller.
const CallerKey contextKey = "caller"

// AuthConfig holds configuration for the auth middleware.
type AuthConfig struct {
	APIKeys   []string
	PublicKey *rsa.PublicKey
}

// NewAuthMiddleware accepts either a configured X-API-Key or an RS256
// bearer token. A bearer value that is not a valid JWT is also tried as an
// API key.
func NewAuthMiddleware(cfg AuthConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if apiKey := r.Header.Get("X-API-Key"); apiKey != "" {
				if !isValidKey(apiKey, cfg.APIKeys) {
					response.Error(w, apierror.Unauthorized("Invalid API key"))
					return
				}
				next.ServeHTTP(w, withCaller(r, "api-key"))
				return
			}

			authz := strings.TrimSpace(r.Header.Get("Authorization"))
			token := strings.TrimSpace(strings.TrimPrefix(authz, "Bearer "))
			if !strings.HasPrefix(authz, "Bearer ") || token == "" {
				response.Error(w, apierror.Unauthorized("Authentication required. Use X-API-Key or a Bearer token."))
				return
			}

			if cfg.PublicKey != nil {
				if claims, err := auth.ParseAndValidateRS256(token, cfg.PublicKey); err == nil {
					next.ServeHTTP(w, withCaller(r, claims.Subject))
					return
				}
			}
			if isValidKey(token, cfg.APIKeys) {
				next.ServeHTTP(w, withCaller(r, "api-key"))
				return
			}

			response.Error(w, apierror.Unauthorized("Invalid token"))
		})
	}
}

// isValidKey compares in constant time against every configured key.
func isValidKey(key string, validKeys []string) bool {
	ok := false
	for _, valid := range validKeys {
		if subtle.ConstantTimeCompare([]byte(key), []byte(valid)) == 1 {
			ok = true
		}
	}
	return ok
}

// withCaller stores caller on the request and reports it to the access log.
func withCaller(r *http.Request, caller string) *http.Request {
	if entry, ok := r.Context().Value(accessLogKey).(*accessLogEntry); ok {
		entry.caller = caller
	}
	return r.WithContext(context.WithValue(r.Context(), CallerKey, caller))
}

// GetCaller returns the authenticated caller: a JWT subject or "api-key".
// Outside the auth middleware it returns the caller recorded for the access
// log, if any.
func GetCaller(ctx context.Context) string {
	if c, ok := ctx.Value(CallerKey).(string); ok {
		return c
	}
	if entry, ok := ctx.Value(accessLogKey).(*accessLogEntry); ok {
		return entry.caller
	}
	return ""
}
