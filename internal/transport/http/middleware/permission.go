package middleware

import (
	"net/http"

	"zenpayroll/internal/domain/auth"
	"zenpayroll/internal/transport/http/api"
)

// RequirePermission rejects requests whose role lacks permission before the
// handler runs. Services check again with the same authorizer.
func RequirePermission(authz *auth.Authorizer, permission string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session, ok := GetSession(r.Context())
			if !ok {
				api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", GetRequestID(r.Context()))
				return
			}
			if err := authz.Require(session, permission); err != nil {
				api.Fail(w, http.StatusForbidden, "forbidden", "insufficient permissions", GetRequestID(r.Context()))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
