package leavehandler

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"zenpayroll/internal/domain/leave"
	"zenpayroll/internal/transport/http/api"
	"zenpayroll/internal/transport/http/middleware"
	"zenpayroll/internal/transport/http/shared"
)

type Handler struct {
	Leave *leave.Service
}

func NewHandler(leave *leave.Service) *Handler {
	return &Handler{Leave: leave}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/leave/requests", func(r chi.Router) {
		r.Get("/", h.handleListAll)
		r.Post("/", h.handleSubmit)
		r.Get("/mine", h.handleListMine)
		r.Post("/{requestID}/decision", h.handleDecide)
	})
}

// handleListAll accepts an optional comma separated employeeIds filter.
func (h *Handler) handleListAll(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	session, _ := middleware.GetSession(r.Context())
	var ids []string
	for _, id := range strings.Split(r.URL.Query().Get("employeeIds"), ",") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	requests, err := h.Leave.ListAll(r.Context(), session, ids...)
	if err != nil {
		shared.FailError(w, reqID, err)
		return
	}
	api.Success(w, requests, reqID)
}

func (h *Handler) handleListMine(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	session, _ := middleware.GetSession(r.Context())
	if session.Profile.EmployeeID == "" {
		shared.FailError(w, reqID, leave.ErrNotLinked)
		return
	}
	requests, err := h.Leave.ListForEmployee(r.Context(), session, session.Profile.EmployeeID)
	if err != nil {
		shared.FailError(w, reqID, err)
		return
	}
	api.Success(w, requests, reqID)
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	session, _ := middleware.GetSession(r.Context())
	var payload leave.SubmitInput
	if !shared.Decode(w, r, reqID, &payload) {
		return
	}
	created, err := h.Leave.Submit(r.Context(), session, payload)
	if err != nil {
		shared.FailError(w, reqID, err)
		return
	}
	api.Created(w, created, reqID)
}

func (h *Handler) handleDecide(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	session, _ := middleware.GetSession(r.Context())
	var payload leave.Decision
	if !shared.Decode(w, r, reqID, &payload) {
		return
	}
	updated, err := h.Leave.Decide(r.Context(), session, chi.URLParam(r, "requestID"), payload)
	if err != nil {
		shared.FailError(w, reqID, err)
		return
	}
	api.Success(w, updated, reqID)
}
