// Package workspace keeps the in-memory view one signed-in operator works
// against: the company list, the selected company's employees and ledger, and
// leave requests. Every mutation goes through the domain services first and
// then patches the mirrors.
package workspace

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"zenpayroll/internal/domain/auth"
	"zenpayroll/internal/domain/company"
	"zenpayroll/internal/domain/core"
	"zenpayroll/internal/domain/leave"
	"zenpayroll/internal/domain/payroll"
)

var (
	ErrBusy        = errors.New("action already in progress")
	ErrNotSignedIn = errors.New("not signed in")
	ErrNoCompany   = errors.New("no company selected")
)

type Services struct {
	Sessions  *auth.Sessions
	Companies *company.Service
	Core      *core.Service
	Payroll   *payroll.Service
	Leave     *leave.Service
}

type Workspace struct {
	svc Services
	now func() time.Time

	mu       sync.RWMutex
	inflight map[string]bool

	session      auth.Session
	token        string
	companies    []company.Company
	departments  []string
	current      *company.Company
	employees    []core.Employee
	records      []payroll.Record
	leaveHistory []leave.Request
	allLeave     []leave.Request
}

func New(svc Services) *Workspace {
	return &Workspace{svc: svc, now: time.Now, inflight: map[string]bool{}}
}

// begin marks action as running. A second call of the same action while the
// first is pending fails with ErrBusy.
func (w *Workspace) begin(action string) (func(), error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.inflight[action] {
		return nil, ErrBusy
	}
	w.inflight[action] = true
	return func() {
		w.mu.Lock()
		delete(w.inflight, action)
		w.mu.Unlock()
	}, nil
}

func (w *Workspace) signedIn() (auth.Session, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if !w.session.Profile.IsLoggedIn {
		return auth.Session{}, ErrNotSignedIn
	}
	return w.session, nil
}

func (w *Workspace) companyID() (auth.Session, string, error) {
	session, err := w.signedIn()
	if err != nil {
		return auth.Session{}, "", err
	}
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.current == nil {
		return auth.Session{}, "", ErrNoCompany
	}
	return session, w.current.ID, nil
}

// SignIn opens a session, loads companies and departments, and selects the
// first company.
func (w *Workspace) SignIn(ctx context.Context, email, password string) error {
	done, err := w.begin("sign-in")
	if err != nil {
		return err
	}
	defer done()

	session, token, err := w.svc.Sessions.SignIn(ctx, email, password)
	if err != nil {
		return err
	}
	return w.open(ctx, session, token)
}

// Resume restores a session from a previously issued token.
func (w *Workspace) Resume(ctx context.Context, token string) error {
	done, err := w.begin("sign-in")
	if err != nil {
		return err
	}
	defer done()

	session, err := w.svc.Sessions.Restore(ctx, token)
	if err != nil {
		return err
	}
	return w.open(ctx, session, token)
}

func (w *Workspace) open(ctx context.Context, session auth.Session, token string) error {
	companies, err := w.svc.Companies.List(ctx, session)
	if err != nil {
		return err
	}
	departments, err := w.svc.Core.ListDepartments(ctx, session)
	if err != nil {
		return err
	}

	w.mu.Lock()
	w.reset()
	w.session = session
	w.token = token
	w.companies = companies
	w.departments = departments
	w.mu.Unlock()

	if len(companies) == 0 {
		return nil
	}
	return w.load(ctx, companies[0].ID)
}

// SwitchCompany selects id and reloads its employees, ledger and leave.
func (w *Workspace) SwitchCompany(ctx context.Context, id string) error {
	done, err := w.begin("switch-company")
	if err != nil {
		return err
	}
	defer done()
	if _, err := w.signedIn(); err != nil {
		return err
	}
	return w.load(ctx, id)
}

func (w *Workspace) load(ctx context.Context, id string) error {
	session, err := w.signedIn()
	if err != nil {
		return err
	}
	w.mu.RLock()
	known := slices.ContainsFunc(w.companies, func(c company.Company) bool { return c.ID == id })
	w.mu.RUnlock()
	if !known {
		return company.ErrNotFound
	}

	employees, err := w.svc.Core.ListEmployees(ctx, session, id)
	if err != nil {
		return err
	}
	records, err := w.svc.Payroll.ListRecords(ctx, session, id)
	if errors.Is(err, auth.ErrForbidden) {
		records, err = []payroll.Record{}, nil
	}
	if err != nil {
		return err
	}

	var history, all []leave.Request
	switch session.Role() {
	case auth.RoleEmployee:
		if session.Profile.EmployeeID != "" {
			if history, err = w.svc.Leave.ListForEmployee(ctx, session, session.Profile.EmployeeID); err != nil {
				return err
			}
		}
	case auth.RoleAdmin, auth.RoleHR:
		ids := make([]string, 0, len(employees))
		for _, e := range employees {
			ids = append(ids, e.ID)
		}
		if len(ids) > 0 {
			if all, err = w.svc.Leave.ListAll(ctx, session, ids...); err != nil {
				return err
			}
		}
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	// The company list may have changed while the mirrors were fetched.
	idx := slices.IndexFunc(w.companies, func(c company.Company) bool { return c.ID == id })
	if idx < 0 {
		return company.ErrNotFound
	}
	selected := w.companies[idx]
	w.current = &selected
	w.employees = employees
	w.records = records
	w.leaveHistory = orEmpty(history)
	w.allLeave = orEmpty(all)
	return nil
}

// SignOut ends the session and drops every mirror.
func (w *Workspace) SignOut(ctx context.Context) error {
	done, err := w.begin("sign-out")
	if err != nil {
		return err
	}
	defer done()
	session, err := w.signedIn()
	if err != nil {
		return err
	}
	if err := w.svc.Sessions.SignOut(ctx, session); err != nil {
		return err
	}
	w.mu.Lock()
	w.reset()
	w.mu.Unlock()
	return nil
}

func (w *Workspace) reset() {
	w.session = auth.Session{}
	w.token = ""
	w.companies = nil
	w.departments = nil
	w.current = nil
	w.employees = nil
	w.records = nil
	w.leaveHistory = nil
	w.allLeave = nil
}

func orEmpty[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
