package authhandler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"zenpayroll/internal/domain/auth"
	"zenpayroll/internal/transport/http/api"
	"zenpayroll/internal/transport/http/middleware"
	"zenpayroll/internal/transport/http/shared"
)

type Handler struct {
	Sessions *auth.Sessions
	Accounts *auth.Accounts
}

func NewHandler(sessions *auth.Sessions, accounts *auth.Accounts) *Handler {
	return &Handler{Sessions: sessions, Accounts: accounts}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterRoutes mounts the public sign-in routes; me and logout need a
// session.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/auth", func(r chi.Router) {
		r.Post("/login", h.handleLogin)
		r.Post("/register", h.handleRegister)
		r.With(middleware.RequireSession).Post("/logout", h.handleLogout)
		r.With(middleware.RequireSession).Get("/me", h.handleMe)
	})
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	var payload loginRequest
	if !shared.Decode(w, r, reqID, &payload) {
		return
	}
	session, token, err := h.Sessions.SignIn(r.Context(), payload.Email, payload.Password)
	if err != nil {
		shared.FailError(w, reqID, err)
		return
	}
	slog.Info("signed in", "actor", session.Actor(), "role", session.Role(), "requestId", reqID)
	api.Success(w, map[string]any{
		"token":     token,
		"expiresAt": session.ExpiresAt,
		"user":      session.Profile,
		"tabs":      auth.VisibleTabs(session.Role()),
	}, reqID)
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	var payload auth.RegisterInput
	if !shared.Decode(w, r, reqID, &payload) {
		return
	}
	// Self sign-up never grants more than the Employee role.
	payload.Role = auth.RoleEmployee
	payload.EmployeeID = ""
	account, err := h.Accounts.Register(r.Context(), payload)
	if err != nil {
		shared.FailError(w, reqID, err)
		return
	}
	api.Created(w, map[string]any{"email": account.Email, "name": account.Name, "role": account.Role}, reqID)
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	session, _ := middleware.GetSession(r.Context())
	if err := h.Sessions.SignOut(r.Context(), session); err != nil {
		slog.Warn("sign out failed", "sessionId", session.ID, "err", err)
	}
	api.Success(w, map[string]string{"status": "logged_out"}, reqID)
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	session, _ := middleware.GetSession(r.Context())
	api.Success(w, map[string]any{
		"user": session.Profile,
		"tabs": auth.VisibleTabs(session.Role()),
	}, middleware.GetRequestID(r.Context()))
}
