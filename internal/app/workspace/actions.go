package workspace

import (
	"context"
	"slices"

	"zenpayroll/internal/domain/auth"
	"zenpayroll/internal/domain/company"
	"zenpayroll/internal/domain/core"
	"zenpayroll/internal/domain/leave"
	"zenpayroll/internal/domain/payroll"
)

func (w *Workspace) AddCompany(ctx context.Context, input company.CreateInput) (company.Company, error) {
	done, err := w.begin("add-company")
	if err != nil {
		return company.Company{}, err
	}
	defer done()
	session, err := w.signedIn()
	if err != nil {
		return company.Company{}, err
	}
	created, err := w.svc.Companies.Add(ctx, session, input)
	if err != nil {
		return company.Company{}, err
	}
	w.mu.Lock()
	w.companies = append(w.companies, created)
	w.mu.Unlock()
	return created, nil
}

// DeleteCompany removes id. When it was selected, the first remaining company
// is loaded.
func (w *Workspace) DeleteCompany(ctx context.Context, id string) error {
	done, err := w.begin("delete-company")
	if err != nil {
		return err
	}
	defer done()
	session, err := w.signedIn()
	if err != nil {
		return err
	}
	if err := w.svc.Companies.Delete(ctx, session, id); err != nil {
		return err
	}

	w.mu.Lock()
	w.companies = slices.DeleteFunc(w.companies, func(c company.Company) bool { return c.ID == id })
	wasCurrent := w.current != nil && w.current.ID == id
	var next string
	if wasCurrent {
		w.current = nil
		w.employees, w.records, w.leaveHistory, w.allLeave = nil, nil, nil, nil
		if len(w.companies) > 0 {
			next = w.companies[0].ID
		}
	}
	w.mu.Unlock()

	if next != "" {
		return w.load(ctx, next)
	}
	return nil
}

func (w *Workspace) AddEmployee(ctx context.Context, input core.EmployeeInput) (core.Employee, error) {
	done, err := w.begin("add-employee")
	if err != nil {
		return core.Employee{}, err
	}
	defer done()
	session, companyID, err := w.companyID()
	if err != nil {
		return core.Employee{}, err
	}
	created, err := w.svc.Core.AddEmployee(ctx, session, companyID, input)
	if err != nil {
		return core.Employee{}, err
	}
	w.mu.Lock()
	w.employees = append(w.employees, created)
	w.mu.Unlock()
	return created, nil
}

func (w *Workspace) UpdateEmployee(ctx context.Context, id string, input core.EmployeeInput) (core.Employee, error) {
	return w.patchEmployee(ctx, "update-employee", func(session auth.Session) (core.Employee, error) {
		return w.svc.Core.UpdateEmployee(ctx, session, id, input)
	})
}

func (w *Workspace) UpdateRole(ctx context.Context, id string, role auth.Role) (core.Employee, error) {
	return w.patchEmployee(ctx, "update-role", func(session auth.Session) (core.Employee, error) {
		return w.svc.Core.UpdateRole(ctx, session, id, role)
	})
}

func (w *Workspace) SetStatus(ctx context.Context, id string, status core.Status) (core.Employee, error) {
	return w.patchEmployee(ctx, "set-status", func(session auth.Session) (core.Employee, error) {
		return w.svc.Core.SetStatus(ctx, session, id, status)
	})
}

func (w *Workspace) patchEmployee(ctx context.Context, action string, call func(auth.Session) (core.Employee, error)) (core.Employee, error) {
	done, err := w.begin(action)
	if err != nil {
		return core.Employee{}, err
	}
	defer done()
	session, err := w.signedIn()
	if err != nil {
		return core.Employee{}, err
	}
	updated, err := call(session)
	if err != nil {
		return core.Employee{}, err
	}
	w.mu.Lock()
	if i := slices.IndexFunc(w.employees, func(e core.Employee) bool { return e.ID == updated.ID }); i >= 0 {
		w.employees[i] = updated
	}
	w.mu.Unlock()
	return updated, nil
}

func (w *Workspace) RemoveEmployee(ctx context.Context, id string) error {
	done, err := w.begin("remove-employee")
	if err != nil {
		return err
	}
	defer done()
	session, err := w.signedIn()
	if err != nil {
		return err
	}
	if err := w.svc.Core.RemoveEmployee(ctx, session, id); err != nil {
		return err
	}
	w.mu.Lock()
	w.employees = slices.DeleteFunc(w.employees, func(e core.Employee) bool { return e.ID == id })
	w.mu.Unlock()
	return nil
}

func (w *Workspace) AddDepartment(ctx context.Context, name string) ([]string, error) {
	return w.setDepartments(ctx, "add-department", func(session auth.Session) ([]string, error) {
		return w.svc.Core.AddDepartment(ctx, session, name)
	})
}

func (w *Workspace) DeleteDepartment(ctx context.Context, name string) ([]string, error) {
	return w.setDepartments(ctx, "delete-department", func(session auth.Session) ([]string, error) {
		return w.svc.Core.DeleteDepartment(ctx, session, name)
	})
}

func (w *Workspace) setDepartments(ctx context.Context, action string, call func(auth.Session) ([]string, error)) ([]string, error) {
	done, err := w.begin(action)
	if err != nil {
		return nil, err
	}
	defer done()
	session, err := w.signedIn()
	if err != nil {
		return nil, err
	}
	list, err := call(session)
	if err != nil {
		return nil, err
	}
	w.mu.Lock()
	w.departments = list
	w.mu.Unlock()
	return slices.Clone(list), nil
}

// SubmitLeave files a request for the signed-in employee. The new request
// leads whichever leave list the session loaded.
func (w *Workspace) SubmitLeave(ctx context.Context, input leave.SubmitInput) (leave.Request, error) {
	done, err := w.begin("submit-leave")
	if err != nil {
		return leave.Request{}, err
	}
	defer done()
	session, err := w.signedIn()
	if err != nil {
		return leave.Request{}, err
	}
	created, err := w.svc.Leave.Submit(ctx, session, input)
	if err != nil {
		return leave.Request{}, err
	}
	w.mu.Lock()
	w.mirrorNewLeave(session, created)
	w.mu.Unlock()
	return created, nil
}

// mirrorNewLeave must be called with w.mu held.
func (w *Workspace) mirrorNewLeave(session auth.Session, created leave.Request) {
	switch session.Role() {
	case auth.RoleEmployee:
		if created.EmployeeID == session.Profile.EmployeeID {
			w.leaveHistory = append([]leave.Request{created}, w.leaveHistory...)
		}
	case auth.RoleAdmin, auth.RoleHR:
		if slices.ContainsFunc(w.employees, func(e core.Employee) bool { return e.ID == created.EmployeeID }) {
			w.allLeave = append([]leave.Request{created}, w.allLeave...)
		}
	}
}

func (w *Workspace) DecideLeave(ctx context.Context, id string, decision leave.Decision) (leave.Request, error) {
	done, err := w.begin("decide-leave")
	if err != nil {
		return leave.Request{}, err
	}
	defer done()
	session, err := w.signedIn()
	if err != nil {
		return leave.Request{}, err
	}
	updated, err := w.svc.Leave.Decide(ctx, session, id, decision)
	if err != nil {
		return leave.Request{}, err
	}
	w.mu.Lock()
	replace := func(items []leave.Request) {
		if i := slices.IndexFunc(items, func(r leave.Request) bool { return r.ID == id }); i >= 0 {
			items[i] = updated
		}
	}
	replace(w.allLeave)
	replace(w.leaveHistory)
	w.mu.Unlock()
	return updated, nil
}

// SyncLeave proposes unpaid leave adjustments for employeeID.
func (w *Workspace) SyncLeave(ctx context.Context, employeeID string) (leave.Sync, error) {
	session, err := w.signedIn()
	if err != nil {
		return leave.Sync{}, err
	}
	return w.svc.Leave.SyncForEmployee(ctx, session, employeeID)
}

func (w *Workspace) Preview(ctx context.Context, employeeID string, adj payroll.Adjustments) (payroll.Quote, error) {
	done, err := w.begin("preview")
	if err != nil {
		return payroll.Quote{}, err
	}
	defer done()
	session, err := w.signedIn()
	if err != nil {
		return payroll.Quote{}, err
	}
	return w.svc.Payroll.Preview(ctx, session, employeeID, adj)
}

func (w *Workspace) Disburse(ctx context.Context, input payroll.DisburseInput) (payroll.Record, error) {
	done, err := w.begin("disburse")
	if err != nil {
		return payroll.Record{}, err
	}
	defer done()
	session, companyID, err := w.companyID()
	if err != nil {
		return payroll.Record{}, err
	}
	record, err := w.svc.Payroll.Disburse(ctx, session, input)
	if err != nil {
		return payroll.Record{}, err
	}
	if record.CompanyID == companyID {
		w.mu.Lock()
		w.records = append(w.records, record)
		w.mu.Unlock()
	}
	return record, nil
}
