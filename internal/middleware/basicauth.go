// Package middleware provides HTTP middlewares for authentication and logging.
package middleware

import (
	"context"
	"encoding/json"
	"net/http"
)

type ctxKey string

const userKey ctxKey = "user"

// BasicCookieAuth enforces the companion server's authentication scheme:
// HTTP basic auth whose username is the site account name and whose
// password is the JSON-serialized site cookie map. The cookie blob is
// treated as an opaque bearer token; it must parse as a string map but
// is never forwarded anywhere.
//
// On success the username is stored in the request context as the
// authenticated user id.
func BasicCookieAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		username, cookieBlob, ok := r.BasicAuth()
		if !ok || username == "" {
			http.Error(w, "authentication required", http.StatusUnauthorized)
			return
		}
		var cookies map[string]string
		if err := json.Unmarshal([]byte(cookieBlob), &cookies); err != nil || len(cookies) == 0 {
			http.Error(w, "invalid session token", http.StatusUnauthorized)
			return
		}
		ctx := context.WithValue(r.Context(), userKey, username)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetUserIDFromContext extracts the authenticated username from the
// request context. Returns an empty string if not found.
func GetUserIDFromContext(ctx context.Context) string {
	val := ctx.Value(userKey)
	if s, ok := val.(string); ok {
		return s
	}
	return ""
}
