package server

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"log/slog"
	"net/http"
	"strings"

	"github.com/me/mesas/pkg/model"
)

// AdminKeys holds the bearer tokens accepted on administrative endpoints.
type AdminKeys struct {
	hashes [][32]byte
}

// NewAdminKeys builds the key set. Blank tokens are ignored.
func NewAdminKeys(tokens []string) *AdminKeys {
	k := &AdminKeys{}
	for _, t := range tokens {
		if t = strings.TrimSpace(t); t != "" {
			k.hashes = append(k.hashes, sha256.Sum256([]byte(t)))
		}
	}
	return k
}

// IsEnabled returns true if any admin token is configured.
func (k *AdminKeys) IsEnabled() bool {
	return k != nil && len(k.hashes) > 0
}

// Valid reports whether token matches a configured key.
func (k *AdminKeys) Valid(token string) bool {
	h := sha256.Sum256([]byte(token))
	ok := 0
	for _, want := range k.hashes {
		ok |= subtle.ConstantTimeCompare(h[:], want[:])
	}
	return ok == 1
}

// hashKey creates a short hash of the key for logging purposes.
func hashKey(key string) string {
	h := sha256.Sum256([]byte(key))
	return hex.EncodeToString(h[:8])
}

// adminMiddleware requires "Authorization: Bearer <token>" on the wrapped
// routes. If no tokens are configured, access is open.
func adminMiddleware(keys *AdminKeys, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !keys.IsEnabled() {
				next.ServeHTTP(w, r)
				return
			}
			reqID := RequestIDFromContext(r.Context())

			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || token == "" {
				respondError(w, reqID, http.StatusUnauthorized, &model.APIError{
					Code:    model.ErrUnauthorized,
					Message: "administrative token required (Authorization: Bearer header missing)",
				})
				return
			}
			if !keys.Valid(token) {
				logger.Warn("invalid admin token", "key_hash", hashKey(token), "path", r.URL.Path)
				respondError(w, reqID, http.StatusUnauthorized, &model.APIError{
					Code:    model.ErrUnauthorized,
					Message: "invalid administrative token",
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
