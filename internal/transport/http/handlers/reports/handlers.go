package reportshandler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"zenpayroll/internal/domain/reports"
	"zenpayroll/internal/transport/http/api"
	"zenpayroll/internal/transport/http/middleware"
	"zenpayroll/internal/transport/http/shared"
)

type Handler struct {
	Reports *reports.Service
}

func NewHandler(reports *reports.Service) *Handler {
	return &Handler{Reports: reports}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/companies/{companyID}/dashboard", h.handleDashboard)
	r.Post("/companies/{companyID}/insights", h.handleInsights)
}

func (h *Handler) handleDashboard(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	session, _ := middleware.GetSession(r.Context())
	dashboard, err := h.Reports.Dashboard(r.Context(), session, chi.URLParam(r, "companyID"))
	if err != nil {
		shared.FailError(w, reqID, err)
		return
	}
	api.Success(w, dashboard, reqID)
}

func (h *Handler) handleInsights(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	session, _ := middleware.GetSession(r.Context())
	insights, err := h.Reports.Insights(r.Context(), session, chi.URLParam(r, "companyID"))
	if err != nil {
		shared.FailError(w, reqID, err)
		return
	}
	api.Success(w, insights, reqID)
}
