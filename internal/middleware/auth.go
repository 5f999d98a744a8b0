package middleware

import (
	"crypto/sha256"
	"crypto/subtle"
	"net/http"
	"strings"
	"sync"

	"photo-library/internal/logging"
	"photo-library/internal/metrics"

	"golang.org/x/crypto/bcrypt"
)

// AuthConfig holds configuration for the bearer-token auth middleware
type AuthConfig struct {
	// Enabled turns authentication on. When false every request passes
	// through untouched.
	Enabled bool
	// PasswordHash is the bcrypt hash presented tokens are compared to.
	PasswordHash string
	// OpenPaths are exact paths served without credentials
	OpenPaths []string
}

// DefaultAuthConfig returns an auth configuration that keeps the health
// probes and version endpoint reachable without credentials.
func DefaultAuthConfig(enabled bool, passwordHash string) AuthConfig {
	return AuthConfig{
		Enabled:      enabled,
		PasswordHash: passwordHash,
		OpenPaths:    []string{"/health", "/healthz", "/livez", "/readyz", "/version"},
	}
}

// Auth returns middleware that guards requests with a shared API password
// sent as a bearer token. The digest of the last accepted token is cached
// so repeated requests skip the bcrypt comparison, which is deliberately
// slow.
func Auth(config AuthConfig) func(http.Handler) http.Handler {
	openPaths := make(map[string]bool, len(config.OpenPaths))
	for _, path := range config.OpenPaths {
		openPaths[path] = true
	}

	var (
		mu       sync.RWMutex
		accepted [sha256.Size]byte
		cached   bool
	)

	checkToken := func(token string) bool {
		digest := sha256.Sum256([]byte(token))

		mu.RLock()
		hit := cached && subtle.ConstantTimeCompare(accepted[:], digest[:]) == 1
		mu.RUnlock()
		if hit {
			return true
		}

		if bcrypt.CompareHashAndPassword([]byte(config.PasswordHash), []byte(token)) != nil {
			return false
		}

		mu.Lock()
		accepted = digest
		cached = true
		mu.Unlock()
		return true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !config.Enabled || openPaths[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			token, ok := bearerToken(r)
			if !ok {
				unauthorized(w)
				return
			}

			if !checkToken(token) {
				logging.Warn("Rejected request to %s from %s: invalid API password", r.URL.Path, getClientIP(r))
				metrics.AuthAttemptsTotal.WithLabelValues("failure").Inc()
				unauthorized(w)
				return
			}

			metrics.AuthAttemptsTotal.WithLabelValues("success").Inc()
			next.ServeHTTP(w, r)
		})
	}
}

// bearerToken extracts the token from the Authorization header. The
// scheme name is case-insensitive per RFC 7235.
func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	return header[len(prefix):], true
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", `Bearer realm="photo-library"`)
	http.Error(w, "Unauthorized", http.StatusUnauthorized)
}
