package kv

// Namespaces used by the application.
const (
	NSCompanies   = "companies"
	NSDepartments = "departments"
	NSEmployees   = "employees"
	NSPayroll     = "payroll-records"
	NSLeaves      = "leave-requests"
	NSSession     = "session"
	NSAccounts    = "accounts"
	NSAudit       = "audit-log"
	NSJobRuns     = "job-runs"

	// nsMeta records which namespaces have had their seed materialized.
	nsMeta = "_meta"
)
