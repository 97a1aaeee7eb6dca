package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

// RequireEditToken guards catalog mutation endpoints with a static bearer
// token, the HTTP equivalent of the in-game edit permission. Read endpoints
// stay open. With no token configured, all mutations are rejected.
func RequireEditToken(editToken string, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if editToken == "" {
				logger.Warn("Mutation rejected, no edit token configured")
				RespondWithError(w, http.StatusForbidden, "catalog editing is disabled")
				return
			}

			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				RespondWithError(w, http.StatusUnauthorized, "missing authorization header")
				return
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				RespondWithError(w, http.StatusUnauthorized, "invalid authorization header format")
				return
			}

			if subtle.ConstantTimeCompare([]byte(parts[1]), []byte(editToken)) != 1 {
				logger.Debug("Edit token mismatch", zap.String("remote_addr", r.RemoteAddr))
				RespondWithError(w, http.StatusForbidden, "insufficient permissions")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
