package workspace

import (
	"slices"

	"zenpayroll/internal/domain/auth"
	"zenpayroll/internal/domain/company"
	"zenpayroll/internal/domain/core"
	"zenpayroll/internal/domain/leave"
	"zenpayroll/internal/domain/payroll"
	"zenpayroll/internal/domain/reports"
)

func (w *Workspace) Session() auth.Session {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.session
}

func (w *Workspace) Token() string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.token
}

func (w *Workspace) Tabs() []string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if !w.session.Profile.IsLoggedIn {
		return nil
	}
	return auth.VisibleTabs(w.session.Role())
}

func (w *Workspace) Companies() []company.Company {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return slices.Clone(w.companies)
}

func (w *Workspace) Departments() []string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return slices.Clone(w.departments)
}

func (w *Workspace) CurrentCompany() (company.Company, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.current == nil {
		return company.Company{}, false
	}
	return *w.current, true
}

// VisibleEmployees narrows the mirror to the signed-in employee for the
// Employee role.
func (w *Workspace) VisibleEmployees() []core.Employee {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if !w.session.SelfScoped() {
		return slices.Clone(w.employees)
	}
	self := w.session.Profile.EmployeeID
	out := []core.Employee{}
	for _, e := range w.employees {
		if e.ID == self {
			out = append(out, e)
		}
	}
	return out
}

func (w *Workspace) VisibleRecords() []payroll.Record {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if !w.session.SelfScoped() {
		return slices.Clone(w.records)
	}
	self := w.session.Profile.EmployeeID
	out := []payroll.Record{}
	for _, r := range w.records {
		if r.EmployeeID == self {
			out = append(out, r)
		}
	}
	return out
}

func (w *Workspace) LeaveHistory() []leave.Request {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return slices.Clone(w.leaveHistory)
}

func (w *Workspace) AllLeaveRequests() []leave.Request {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return slices.Clone(w.allLeave)
}

// Dashboard is computed from the visible mirrors.
func (w *Workspace) Dashboard() reports.Dashboard {
	role := w.Session().Role()
	return reports.Build(role, w.VisibleEmployees(), w.VisibleRecords(), w.now())
}
