package shared

import (
	"net/http"

	"zenpayroll/internal/domain/validation"
	"zenpayroll/internal/transport/http/api"
)

// Reject writes the issues collected by v, if any, and reports whether it did.
func Reject(w http.ResponseWriter, requestID string, v *validation.Validator) bool {
	if !v.HasIssues() {
		return false
	}
	FailValidation(w, requestID, v.Issues())
	return true
}

func FailValidation(w http.ResponseWriter, requestID string, issues []validation.Issue) {
	api.FailWithDetails(
		w,
		http.StatusBadRequest,
		"validation_error",
		"payload validation failed",
		map[string]any{"fields": issues},
		requestID,
	)
}
