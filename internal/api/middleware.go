// Package api implements the vaultgate REST API using chi.
package api

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/starford/vaultgate/internal/apperr"
)

// Auth configures the bearer-token gate.
type Auth struct {
	Enabled bool
	Token   string
}

// Authenticated reports whether r carries the configured bearer token.
// In disabled mode every request is authenticated.
func (a Auth) Authenticated(r *http.Request) bool {
	if !a.Enabled {
		return true
	}
	header := r.Header.Get("Authorization")
	presented, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || a.Token == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(presented), []byte(a.Token)) == 1
}

// AuthMiddleware rejects unauthenticated requests with
// ApiKeyAuthorizationRequired. GET requests for the exempt paths pass.
func AuthMiddleware(auth Auth, exempt ...string) func(http.Handler) http.Handler {
	open := make(map[string]struct{}, len(exempt))
	for _, p := range exempt {
		open[p] = struct{}{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := open[r.URL.Path]; ok && r.Method == http.MethodGet {
				next.ServeHTTP(w, r)
				return
			}
			if !auth.Authenticated(r) {
				writeCanned(w, 0, apperr.ApiKeyAuthorizationRequired, "")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
