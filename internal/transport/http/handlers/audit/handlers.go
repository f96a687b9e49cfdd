package audithandler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"zenpayroll/internal/domain/audit"
	"zenpayroll/internal/domain/auth"
	"zenpayroll/internal/platform/jobs"
	"zenpayroll/internal/transport/http/api"
	"zenpayroll/internal/transport/http/middleware"
	"zenpayroll/internal/transport/http/shared"
)

type Handler struct {
	Audit *audit.Service
	Jobs  *jobs.Service
	Authz *auth.Authorizer
}

func NewHandler(audit *audit.Service, jobs *jobs.Service, authz *auth.Authorizer) *Handler {
	return &Handler{Audit: audit, Jobs: jobs, Authz: authz}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequirePermission(h.Authz, auth.PermAuditRead))
		r.Get("/audit", h.handleList)
		r.Get("/jobs", h.handleJobs)
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	page, ok := shared.ParsePagination(w, r, reqID, 50, 200)
	if !ok {
		return
	}
	q := r.URL.Query()
	filter := audit.Filter{
		Action:     q.Get("action"),
		EntityType: q.Get("entityType"),
		Actor:      q.Get("actor"),
	}
	events, total, err := h.Audit.List(r.Context(), filter, page.Limit, page.Offset)
	if err != nil {
		shared.FailError(w, reqID, err)
		return
	}
	api.Success(w, api.Page[audit.Event]{Items: events, Total: total, Limit: page.Limit, Offset: page.Offset}, reqID)
}

func (h *Handler) handleJobs(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	page, ok := shared.ParsePagination(w, r, reqID, 20, 200)
	if !ok {
		return
	}
	runs, err := h.Jobs.Recent(r.Context())
	if err != nil {
		shared.FailError(w, reqID, err)
		return
	}
	api.Success(w, shared.Paginate(runs, page), reqID)
}
