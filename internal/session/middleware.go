package session

import (
	"net/http"
	"strings"
)

// Middleware returns an HTTP middleware that authenticates bearer tokens.
// Requests without an Authorization header pass through as guests; requests
// with a malformed or invalid token are rejected with 401 so a stale login
// never silently degrades to a guest cart.
func Middleware(secret []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				next.ServeHTTP(w, r)
				return
			}

			raw, ok := strings.CutPrefix(header, "Bearer ")
			if !ok {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			ident, err := ParseToken(secret, raw)
			if err != nil {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			ctx := WithIdentity(r.Context(), ident)
			ctx = WithToken(ctx, raw)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
