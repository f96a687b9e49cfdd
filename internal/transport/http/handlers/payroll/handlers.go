package payrollhandler

import (
	"bytes"
	"net/http"

	"github.com/go-chi/chi/v5"

	"zenpayroll/internal/domain/core"
	"zenpayroll/internal/domain/leave"
	"zenpayroll/internal/domain/payroll"
	"zenpayroll/internal/transport/http/api"
	"zenpayroll/internal/transport/http/middleware"
	"zenpayroll/internal/transport/http/shared"
)

type Handler struct {
	Payroll *payroll.Service
	Core    *core.Service
	Leave   *leave.Service
}

func NewHandler(payroll *payroll.Service, core *core.Service, leave *leave.Service) *Handler {
	return &Handler{Payroll: payroll, Core: core, Leave: leave}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/payroll/preview", h.handlePreview)
	r.Post("/payroll/disburse", h.handleDisburse)
	r.Get("/payroll/sync/{employeeID}", h.handleSync)
	r.Get("/payroll/{recordID}", h.handleGetRecord)
	r.Get("/payroll/{recordID}/payslip", h.handlePayslip)
	r.Get("/companies/{companyID}/payroll", h.handleListRecords)
	r.Get("/companies/{companyID}/payroll/export", h.handleExport)
}

type previewRequest struct {
	EmployeeID string `json:"employeeId"`
	payroll.Adjustments
}

func (h *Handler) handlePreview(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	session, _ := middleware.GetSession(r.Context())
	var payload previewRequest
	if !shared.Decode(w, r, reqID, &payload) {
		return
	}
	quote, err := h.Payroll.Preview(r.Context(), session, payload.EmployeeID, payload.Adjustments)
	if err != nil {
		shared.FailError(w, reqID, err)
		return
	}
	api.Success(w, quote, reqID)
}

func (h *Handler) handleDisburse(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	session, _ := middleware.GetSession(r.Context())
	var payload payroll.DisburseInput
	if !shared.Decode(w, r, reqID, &payload) {
		return
	}
	record, err := h.Payroll.Disburse(r.Context(), session, payload)
	if err != nil {
		shared.FailError(w, reqID, err)
		return
	}
	api.Created(w, record, reqID)
}

func (h *Handler) handleSync(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	session, _ := middleware.GetSession(r.Context())
	sync, err := h.Leave.SyncForEmployee(r.Context(), session, chi.URLParam(r, "employeeID"))
	if err != nil {
		shared.FailError(w, reqID, err)
		return
	}
	api.Success(w, sync, reqID)
}

func (h *Handler) handleListRecords(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	session, _ := middleware.GetSession(r.Context())
	records, err := h.Payroll.ListRecords(r.Context(), session, chi.URLParam(r, "companyID"))
	if err != nil {
		shared.FailError(w, reqID, err)
		return
	}
	api.Success(w, records, reqID)
}

func (h *Handler) handleGetRecord(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	session, _ := middleware.GetSession(r.Context())
	record, err := h.Payroll.GetRecord(r.Context(), session, chi.URLParam(r, "recordID"))
	if err != nil {
		shared.FailError(w, reqID, err)
		return
	}
	api.Success(w, record, reqID)
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	session, _ := middleware.GetSession(r.Context())
	companyID := chi.URLParam(r, "companyID")
	records, err := h.Payroll.ListRecords(r.Context(), session, companyID)
	if err != nil {
		shared.FailError(w, reqID, err)
		return
	}
	employees, err := h.Core.ListEmployees(r.Context(), session, companyID)
	if err != nil {
		shared.FailError(w, reqID, err)
		return
	}
	names := make(map[string]string, len(employees))
	for _, e := range employees {
		names[e.ID] = e.Name
	}

	var buf bytes.Buffer
	if err := payroll.WriteLedgerCSV(&buf, records, names); err != nil {
		shared.FailError(w, reqID, err)
		return
	}
	api.Attachment(w, "text/csv; charset=utf-8", "ledger-"+companyID+".csv", false, buf.Bytes(), reqID)
}

func (h *Handler) handlePayslip(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	session, _ := middleware.GetSession(r.Context())
	slip, err := h.Payroll.Payslip(r.Context(), session, chi.URLParam(r, "recordID"))
	if err != nil {
		shared.FailError(w, reqID, err)
		return
	}
	var buf bytes.Buffer
	if err := payroll.WritePayslipPDF(&buf, slip); err != nil {
		shared.FailError(w, reqID, err)
		return
	}
	api.Attachment(w, "application/pdf", "payslip-"+slip.Record.ID+".pdf", true, buf.Bytes(), reqID)
}
