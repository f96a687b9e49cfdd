package corehandler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"zenpayroll/internal/domain/auth"
	"zenpayroll/internal/domain/company"
	"zenpayroll/internal/domain/core"
	"zenpayroll/internal/transport/http/api"
	"zenpayroll/internal/transport/http/middleware"
	"zenpayroll/internal/transport/http/shared"
)

type Handler struct {
	Companies *company.Service
	Core      *core.Service
}

func NewHandler(companies *company.Service, core *core.Service) *Handler {
	return &Handler{Companies: companies, Core: core}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/companies", h.handleListCompanies)
	r.Post("/companies", h.handleCreateCompany)
	r.Delete("/companies/{companyID}", h.handleDeleteCompany)
	r.Get("/companies/{companyID}/employees", h.handleListEmployees)
	r.Post("/companies/{companyID}/employees", h.handleCreateEmployee)

	r.Get("/employees/{employeeID}", h.handleGetEmployee)
	r.Put("/employees/{employeeID}", h.handleUpdateEmployee)
	r.Delete("/employees/{employeeID}", h.handleDeleteEmployee)
	r.Put("/employees/{employeeID}/role", h.handleUpdateRole)
	r.Put("/employees/{employeeID}/status", h.handleUpdateStatus)

	r.Get("/departments", h.handleListDepartments)
	r.Post("/departments", h.handleCreateDepartment)
	r.Delete("/departments/{name}", h.handleDeleteDepartment)
}

func (h *Handler) handleListCompanies(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	session, _ := middleware.GetSession(r.Context())
	companies, err := h.Companies.List(r.Context(), session)
	if err != nil {
		shared.FailError(w, reqID, err)
		return
	}
	api.Success(w, companies, reqID)
}

func (h *Handler) handleCreateCompany(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	session, _ := middleware.GetSession(r.Context())
	var payload company.CreateInput
	if !shared.Decode(w, r, reqID, &payload) {
		return
	}
	created, err := h.Companies.Add(r.Context(), session, payload)
	if err != nil {
		shared.FailError(w, reqID, err)
		return
	}
	api.Created(w, created, reqID)
}

func (h *Handler) handleDeleteCompany(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	session, _ := middleware.GetSession(r.Context())
	id := chi.URLParam(r, "companyID")
	if err := h.Companies.Delete(r.Context(), session, id); err != nil {
		shared.FailError(w, reqID, err)
		return
	}
	api.Success(w, map[string]string{"id": id, "policy": string(h.Companies.Policy())}, reqID)
}

func (h *Handler) handleListEmployees(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	session, _ := middleware.GetSession(r.Context())
	employees, err := h.Core.ListEmployees(r.Context(), session, chi.URLParam(r, "companyID"))
	if err != nil {
		shared.FailError(w, reqID, err)
		return
	}
	api.Success(w, employees, reqID)
}

func (h *Handler) handleCreateEmployee(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	session, _ := middleware.GetSession(r.Context())
	var payload core.EmployeeInput
	if !shared.Decode(w, r, reqID, &payload) {
		return
	}
	created, err := h.Core.AddEmployee(r.Context(), session, chi.URLParam(r, "companyID"), payload)
	if err != nil {
		shared.FailError(w, reqID, err)
		return
	}
	api.Created(w, created, reqID)
}

func (h *Handler) handleGetEmployee(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	session, _ := middleware.GetSession(r.Context())
	emp, err := h.Core.GetEmployee(r.Context(), session, chi.URLParam(r, "employeeID"))
	if err != nil {
		shared.FailError(w, reqID, err)
		return
	}
	api.Success(w, emp, reqID)
}

func (h *Handler) handleUpdateEmployee(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	session, _ := middleware.GetSession(r.Context())
	var payload core.EmployeeInput
	if !shared.Decode(w, r, reqID, &payload) {
		return
	}
	updated, err := h.Core.UpdateEmployee(r.Context(), session, chi.URLParam(r, "employeeID"), payload)
	if err != nil {
		shared.FailError(w, reqID, err)
		return
	}
	api.Success(w, updated, reqID)
}

func (h *Handler) handleDeleteEmployee(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	session, _ := middleware.GetSession(r.Context())
	id := chi.URLParam(r, "employeeID")
	if err := h.Core.RemoveEmployee(r.Context(), session, id); err != nil {
		shared.FailError(w, reqID, err)
		return
	}
	api.Success(w, map[string]string{"id": id}, reqID)
}

type roleRequest struct {
	Role auth.Role `json:"role"`
}

func (h *Handler) handleUpdateRole(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	session, _ := middleware.GetSession(r.Context())
	var payload roleRequest
	if !shared.Decode(w, r, reqID, &payload) {
		return
	}
	updated, err := h.Core.UpdateRole(r.Context(), session, chi.URLParam(r, "employeeID"), payload.Role)
	if err != nil {
		shared.FailError(w, reqID, err)
		return
	}
	api.Success(w, updated, reqID)
}

type statusRequest struct {
	Status core.Status `json:"status"`
}

func (h *Handler) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	session, _ := middleware.GetSession(r.Context())
	var payload statusRequest
	if !shared.Decode(w, r, reqID, &payload) {
		return
	}
	updated, err := h.Core.SetStatus(r.Context(), session, chi.URLParam(r, "employeeID"), payload.Status)
	if err != nil {
		shared.FailError(w, reqID, err)
		return
	}
	api.Success(w, updated, reqID)
}

func (h *Handler) handleListDepartments(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	session, _ := middleware.GetSession(r.Context())
	departments, err := h.Core.ListDepartments(r.Context(), session)
	if err != nil {
		shared.FailError(w, reqID, err)
		return
	}
	api.Success(w, departments, reqID)
}

type departmentRequest struct {
	Name string `json:"name"`
}

func (h *Handler) handleCreateDepartment(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	session, _ := middleware.GetSession(r.Context())
	var payload departmentRequest
	if !shared.Decode(w, r, reqID, &payload) {
		return
	}
	departments, err := h.Core.AddDepartment(r.Context(), session, payload.Name)
	if err != nil {
		shared.FailError(w, reqID, err)
		return
	}
	api.Created(w, departments, reqID)
}

func (h *Handler) handleDeleteDepartment(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	session, _ := middleware.GetSession(r.Context())
	departments, err := h.Core.DeleteDepartment(r.Context(), session, chi.URLParam(r, "name"))
	if err != nil {
		shared.FailError(w, reqID, err)
		return
	}
	api.Success(w, departments, reqID)
}
