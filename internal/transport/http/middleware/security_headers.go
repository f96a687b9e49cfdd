package middleware

import (
	"net/http"
	"strings"
)

const (
	apiCSP     = "default-src 'none'; frame-ancestors 'none'"
	payslipCSP = "default-src 'none'; object-src 'self'; frame-ancestors 'self'"
)

// SecureHeaders sets the response hardening headers. Payslip PDFs may be
// framed by the same origin so the dashboard can preview them inline.
func SecureHeaders(production bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			headers := w.Header()
			headers.Set("X-Content-Type-Options", "nosniff")
			headers.Set("Referrer-Policy", "no-referrer")
			headers.Set("Cross-Origin-Resource-Policy", "same-origin")
			headers.Set("Permissions-Policy", "camera=(), microphone=(), geolocation=()")
			headers.Set("Cache-Control", "no-store")
			if strings.HasSuffix(r.URL.Path, "/payslip") {
				headers.Set("X-Frame-Options", "SAMEORIGIN")
				headers.Set("Content-Security-Policy", payslipCSP)
			} else {
				headers.Set("X-Frame-Options", "DENY")
				headers.Set("Content-Security-Policy", apiCSP)
			}
			if production {
				headers.Set("Strict-Transport-Security", "max-age=63072000; includeSubDomains")
			}
			next.ServeHTTP(w, r)
		})
	}
}
