// Package auth extracts per-request account credentials from transport
// headers. Credentials are supplied fresh on every request and never
// persisted; only the derived cache key (the username) outlives a request.
package auth

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/seatsync/seatsync/internal/logger"
)

// Header names for the transport-bound authentication context.
const (
	HeaderUsername   = "X-Auth-Username"
	HeaderPassword   = "X-Auth-Password"
	HeaderRestaurant = "X-Restaurant-ID"
)

// CodeMissingCredentials is the JSON-RPC error code emitted when the
// username or password header is absent. It must stay stable for clients.
const CodeMissingCredentials = -32001

// Credentials identify an upstream reservation account for one request.
type Credentials struct {
	Username string
	Password string
	// RestaurantID is the optional restaurant scope pinned at the
	// transport level. It takes precedence over any tool-argument scope.
	RestaurantID string
}

// CacheKey derives the token-cache key for these credentials. The key is
// the username alone: upstream tokens are account-level, not
// restaurant-level, so the restaurant scope does not partition the cache.
func (c Credentials) CacheKey() string {
	return c.Username
}

type contextKey string

const credentialsContextKey contextKey = "credentials"

// WithContext adds Credentials to the context
func WithContext(ctx context.Context, creds Credentials) context.Context {
	return context.WithValue(ctx, credentialsContextKey, creds)
}

// FromContext retrieves the Credentials from the context
func FromContext(ctx context.Context) (Credentials, bool) {
	creds, ok := ctx.Value(credentialsContextKey).(Credentials)
	return creds, ok
}

// Middleware creates HTTP middleware that requires credential headers.
// Requests missing a username or password are rejected with HTTP 401 and a
// JSON-RPC shaped error body before the request body is ever parsed.
func Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			creds := Credentials{
				Username:     r.Header.Get(HeaderUsername),
				Password:     r.Header.Get(HeaderPassword),
				RestaurantID: r.Header.Get(HeaderRestaurant),
			}

			if creds.Username == "" || creds.Password == "" {
				logger.Info("Rejected request from %s: missing credential headers", r.RemoteAddr)
				jsonError(w, "Missing authentication headers ("+HeaderUsername+", "+HeaderPassword+")", http.StatusUnauthorized)
				return
			}

			ctx := WithContext(r.Context(), creds)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func jsonError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"jsonrpc": "2.0",
		"error": map[string]interface{}{
			"code":    CodeMissingCredentials,
			"message": message,
		},
		"id": nil,
	})
}

// MaskUsername shortens an account identity for logs and audit events.
func MaskUsername(username string) string {
	if len(username) <= 4 {
		return "***"
	}
	return username[:2] + "..." + username[len(username)-2:]
}
