package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"zenpayroll/internal/domain/auth"
	"zenpayroll/internal/requestctx"
	"zenpayroll/internal/transport/http/api"
)

// SessionRestorer resolves a bearer token into the session it was issued for.
type SessionRestorer interface {
	Restore(ctx context.Context, token string) (auth.Session, error)
}

// Auth attaches the session behind a valid bearer token. Requests without one
// pass through anonymously; RequireSession rejects them where needed.
func Auth(sessions SessionRestorer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}
			session, err := sessions.Restore(r.Context(), token)
			if err != nil {
				if !errors.Is(err, auth.ErrUnauthenticated) && !errors.Is(err, auth.ErrSessionEnded) {
					slog.Warn("session restore failed", "requestId", GetRequestID(r.Context()), "err", err)
				}
				next.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(requestctx.WithSession(r.Context(), session)))
		})
	}
}

func RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := GetSession(r.Context()); !ok {
			api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", GetRequestID(r.Context()))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func GetSession(ctx context.Context) (auth.Session, bool) {
	return requestctx.GetSession(ctx)
}

// BearerToken returns the token of the Authorization header, if any.
func BearerToken(r *http.Request) string {
	return bearerToken(r)
}

func bearerToken(r *http.Request) string {
	parts := strings.Fields(r.Header.Get("Authorization"))
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return ""
	}
	return parts[1]
}
