package shared

import (
	"errors"
	"log/slog"
	"net/http"

	"zenpayroll/internal/domain/auth"
	"zenpayroll/internal/domain/company"
	"zenpayroll/internal/domain/core"
	"zenpayroll/internal/domain/leave"
	"zenpayroll/internal/domain/payroll"
	"zenpayroll/internal/domain/validation"
	"zenpayroll/internal/platform/kv"
	"zenpayroll/internal/transport/http/api"
)

type failure struct {
	status int
	code   string
}

var failures = []struct {
	target error
	failure
}{
	{auth.ErrUnauthenticated, failure{http.StatusUnauthorized, "unauthorized"}},
	{auth.ErrSessionEnded, failure{http.StatusUnauthorized, "session_ended"}},
	{auth.ErrInvalidCredentials, failure{http.StatusUnauthorized, "invalid_credentials"}},
	{auth.ErrForbidden, failure{http.StatusForbidden, "forbidden"}},
	{auth.ErrSignupDisabled, failure{http.StatusForbidden, "signup_disabled"}},
	{auth.ErrAccountExists, failure{http.StatusConflict, "account_exists"}},
	{company.ErrNotFound, failure{http.StatusNotFound, "company_not_found"}},
	{company.ErrCompanyInUse, failure{http.StatusConflict, "company_in_use"}},
	{core.ErrNotFound, failure{http.StatusNotFound, "employee_not_found"}},
	{core.ErrDepartmentMissing, failure{http.StatusNotFound, "department_not_found"}},
	{core.ErrUnknownCompany, failure{http.StatusBadRequest, "unknown_company"}},
	{leave.ErrNotFound, failure{http.StatusNotFound, "leave_request_not_found"}},
	{leave.ErrTerminalState, failure{http.StatusConflict, "leave_request_decided"}},
	{leave.ErrNotLinked, failure{http.StatusBadRequest, "not_linked"}},
	{payroll.ErrRecordNotFound, failure{http.StatusNotFound, "payroll_record_not_found"}},
	{payroll.ErrInvalidPeriod, failure{http.StatusBadRequest, "invalid_period"}},
	{kv.ErrNotFound, failure{http.StatusNotFound, "not_found"}},
	{kv.ErrAlreadyExists, failure{http.StatusConflict, "already_exists"}},
	{kv.ErrVersionConflict, failure{http.StatusConflict, "version_conflict"}},
	{kv.ErrStorageUnavailable, failure{http.StatusServiceUnavailable, "storage_unavailable"}},
}

// FailError maps a service error onto the response envelope.
func FailError(w http.ResponseWriter, requestID string, err error) {
	if issues := validation.IssuesOf(err); len(issues) > 0 {
		FailValidation(w, requestID, issues)
		return
	}
	for _, f := range failures {
		if errors.Is(err, f.target) {
			api.Fail(w, f.status, f.code, err.Error(), requestID)
			return
		}
	}
	slog.Error("request failed", "requestId", requestID, "err", err)
	api.Fail(w, http.StatusInternalServerError, "internal_error", "internal server error", requestID)
}
