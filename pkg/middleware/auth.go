package middleware

import (
	"net/http"
	"strings"

	"github.com/mosaicpim/mosaic/pkg/auth"
	"github.com/mosaicpim/mosaic/pkg/response"
)

// Auth rejects requests without a valid bearer token and injects the tenant
// code from the claims into the request context.
func Auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := strings.Replace(r.Header.Get("Authorization"), "Bearer ", "", 1)

		if token == "" {
			response.Unauthorized(w, "missing bearer token")
			return
		}

		claims, err := auth.ValidateToken(token)
		if err != nil {
			response.Unauthorized(w, "invalid token")
			return
		}

		if claims.Tenant == "" {
			response.Unauthorized(w, "token has no tenant")
			return
		}

		next.ServeHTTP(w, r.WithContext(auth.WithTenant(r.Context(), claims.Tenant)))
	})
}
