package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"zenpayroll/internal/domain/auth"
)

type stubSessions map[string]auth.Session

func (s stubSessions) Restore(ctx context.Context, token string) (auth.Session, error) {
	session, ok := s[token]
	if !ok {
		return auth.Session{}, auth.ErrSessionEnded
	}
	return session, nil
}

func TestAuthMiddlewareSetsSession(t *testing.T) {
	sessions := stubSessions{"tok": {ID: "s1", Profile: auth.Profile{Email: "hr@zenpayroll.ai", Role: auth.RoleHR, IsLoggedIn: true}}}

	called := false
	handler := Auth(sessions)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		session, ok := GetSession(r.Context())
		if !ok {
			t.Fatal("expected session in context")
		}
		if session.ID != "s1" || session.Role() != auth.RoleHR {
			t.Fatalf("unexpected session: %+v", session)
		}
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer tok")
	handler.ServeHTTP(httptest.NewRecorder(), req)
	if !called {
		t.Fatal("handler not called")
	}
}

func TestAuthMiddlewareIgnoresUnknownToken(t *testing.T) {
	handler := Auth(stubSessions{})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := GetSession(r.Context()); ok {
			t.Fatal("did not expect session in context")
		}
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer revoked")
	handler.ServeHTTP(httptest.NewRecorder(), req)
}

func TestRequireSessionRejectsAnonymous(t *testing.T) {
	handler := RequireSession(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestRequirePermissionUsesRolePolicy(t *testing.T) {
	authz, err := auth.NewAuthorizer(auth.ModeEnforce)
	if err != nil {
		t.Fatalf("authorizer: %v", err)
	}
	sessions := stubSessions{
		"hr":  {ID: "s1", Profile: auth.Profile{Role: auth.RoleHR, IsLoggedIn: true}},
		"acc": {ID: "s2", Profile: auth.Profile{Role: auth.RoleAccountant, IsLoggedIn: true}},
	}
	handler := Auth(sessions)(RequirePermission(authz, auth.PermPayrollRead)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})))

	for token, want := range map[string]int{"hr": http.StatusForbidden, "acc": http.StatusNoContent, "": http.StatusUnauthorized} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != want {
			t.Fatalf("token %q: expected %d, got %d", token, want, rec.Code)
		}
	}
}

func TestRequestIDMiddleware(t *testing.T) {
	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if GetRequestID(r.Context()) == "" {
			t.Fatal("expected request id in context")
		}
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Header().Get("X-Request-ID") == "" {
		t.Fatal("expected request id header")
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "given")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Header().Get("X-Request-ID") != "given" {
		t.Fatal("incoming request id should be kept")
	}
}

func TestRequestIDReplacesMalformedIncomingID(t *testing.T) {
	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "bad id\nwith newline")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if got := rec.Header().Get("X-Request-ID"); got == "" || strings.Contains(got, " ") {
		t.Fatalf("expected generated id, got %q", got)
	}
}
