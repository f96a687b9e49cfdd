package workspace

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"zenpayroll/internal/domain/audit"
	"zenpayroll/internal/domain/auth"
	"zenpayroll/internal/domain/company"
	"zenpayroll/internal/domain/core"
	"zenpayroll/internal/domain/leave"
	"zenpayroll/internal/domain/payroll"
	"zenpayroll/internal/platform/advisory"
	"zenpayroll/internal/platform/kv"
	"zenpayroll/internal/platform/seed"
)

func newWorkspace(t *testing.T) (*Workspace, Services) {
	t.Helper()
	return newWorkspaceOn(t, kv.NewMemory())
}

func newWorkspaceOn(t *testing.T, store kv.Store) (*Workspace, Services) {
	t.Helper()
	ctx := context.Background()
	data, err := seed.Load("")
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	authz, err := auth.NewAuthorizer(auth.ModeEnforce)
	if err != nil {
		t.Fatalf("authorizer: %v", err)
	}
	recorder := audit.New(store)

	accounts := auth.NewAccounts(store, false)
	if _, err := accounts.SeedDemo(ctx); err != nil {
		t.Fatalf("seed accounts: %v", err)
	}
	if _, err := accounts.Create(ctx, auth.RegisterInput{Name: "Arif Rahman", Email: "arif@techflow.com", Password: "arif123", Role: auth.RoleEmployee}); err != nil {
		t.Fatalf("employee account: %v", err)
	}
	if _, err := accounts.Create(ctx, auth.RegisterInput{Name: "Ahmed Al-Farsi", Email: "ahmed@oasis.com", Password: "ahmed123", Role: auth.RoleAdmin}); err != nil {
		t.Fatalf("admin employee account: %v", err)
	}

	companies := company.NewService(store, authz, recorder, company.DeleteOrphan, data.CompaniesFunc())
	employees := core.NewService(store, authz, recorder, companies, accounts, data.EmployeesFunc(), data.DepartmentsFunc())
	ledger := payroll.NewService(store, authz, recorder, employees, companies, advisory.Disabled{})
	leaves := leave.NewService(store, authz, recorder, employees, leave.AmendForbid)
	companies.SetDependents(employees, ledger)

	svc := Services{
		Sessions:  auth.NewSessions(store, accounts, employees, "test-secret", time.Hour),
		Companies: companies,
		Core:      employees,
		Payroll:   ledger,
		Leave:     leaves,
	}
	return New(svc), svc
}

func TestSignInSelectsFirstCompany(t *testing.T) {
	w, _ := newWorkspace(t)
	ctx := context.Background()

	if _, err := w.AddEmployee(ctx, core.EmployeeInput{Name: "x"}); !errors.Is(err, ErrNotSignedIn) {
		t.Fatalf("expected ErrNotSignedIn, got %v", err)
	}
	if err := w.SignIn(ctx, "admin@zenpayroll.ai", "admin123"); err != nil {
		t.Fatalf("sign in: %v", err)
	}
	current, ok := w.CurrentCompany()
	if !ok || current.ID != "C001" {
		t.Fatalf("current=%+v ok=%v", current, ok)
	}
	if len(w.Companies()) != 2 || len(w.Departments()) == 0 {
		t.Fatalf("companies=%v departments=%v", w.Companies(), w.Departments())
	}
	if got := w.VisibleEmployees(); len(got) != 1 || got[0].ID != "EMP001" {
		t.Fatalf("employees=%v", got)
	}
	if w.Token() == "" || len(w.Tabs()) == 0 {
		t.Fatal("session not populated")
	}

	if err := w.SwitchCompany(ctx, "C002"); err != nil {
		t.Fatalf("switch: %v", err)
	}
	if got := w.VisibleEmployees(); len(got) != 1 || got[0].ID != "EMP002" {
		t.Fatalf("employees after switch=%v", got)
	}
	if err := w.SwitchCompany(ctx, "C404"); !errors.Is(err, company.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestBadCredentialsLeaveWorkspaceEmpty(t *testing.T) {
	w, _ := newWorkspace(t)
	err := w.SignIn(context.Background(), "admin@zenpayroll.ai", "wrong")
	if !errors.Is(err, auth.ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials, got %v", err)
	}
	if w.Session().Profile.IsLoggedIn || w.Companies() != nil {
		t.Fatal("workspace should stay signed out")
	}
}

func TestBusyGuardRejectsSameAction(t *testing.T) {
	w, _ := newWorkspace(t)
	done, err := w.begin("disburse")
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	if _, err := w.begin("disburse"); !errors.Is(err, ErrBusy) {
		t.Fatalf("expected ErrBusy, got %v", err)
	}
	other, err := w.begin("add-employee")
	if err != nil {
		t.Fatalf("different action should run: %v", err)
	}
	other()
	done()
	if again, err := w.begin("disburse"); err != nil {
		t.Fatalf("released action should run: %v", err)
	} else {
		again()
	}
}

func TestMutationsPatchMirrors(t *testing.T) {
	w, _ := newWorkspace(t)
	ctx := context.Background()
	if err := w.SignIn(ctx, "admin@zenpayroll.ai", "admin123"); err != nil {
		t.Fatalf("sign in: %v", err)
	}

	created, err := w.AddEmployee(ctx, core.EmployeeInput{
		Name:            "Nadia Islam",
		Email:           "nadia@techflow.com",
		Department:      "Engineering",
		SalaryStructure: core.SalaryStructure{Basic: 40000},
	})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if len(w.VisibleEmployees()) != 2 {
		t.Fatalf("mirror not patched: %v", w.VisibleEmployees())
	}

	if _, err := w.SetStatus(ctx, created.ID, core.StatusInactive); err != nil {
		t.Fatalf("status: %v", err)
	}
	for _, e := range w.VisibleEmployees() {
		if e.ID == created.ID && e.Status != core.StatusInactive {
			t.Fatalf("status not mirrored: %+v", e)
		}
	}

	depts, err := w.AddDepartment(ctx, "Legal")
	if err != nil || depts[len(depts)-1] != "Legal" {
		t.Fatalf("departments=%v err=%v", depts, err)
	}

	record, err := w.Disburse(ctx, payroll.DisburseInput{
		EmployeeID:  "EMP001",
		Adjustments: payroll.Adjustments{TaxPercent: 10},
		Period:      payroll.Period{Month: "March", Year: 2024},
	})
	if err != nil {
		t.Fatalf("disburse: %v", err)
	}
	if got := w.VisibleRecords(); len(got) != 1 || got[0].ID != record.ID {
		t.Fatalf("records=%v", got)
	}
	if dash := w.Dashboard(); dash.TotalPayroll == 0 {
		t.Fatalf("dashboard should include the disbursement: %+v", dash)
	}

	if err := w.RemoveEmployee(ctx, created.ID); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if len(w.VisibleEmployees()) != 1 {
		t.Fatalf("remove not mirrored: %v", w.VisibleEmployees())
	}
}

func TestDeleteCurrentCompanyMovesSelection(t *testing.T) {
	w, _ := newWorkspace(t)
	ctx := context.Background()
	if err := w.SignIn(ctx, "admin@zenpayroll.ai", "admin123"); err != nil {
		t.Fatalf("sign in: %v", err)
	}
	added, err := w.AddCompany(ctx, company.CreateInput{Name: "Gulf Traders", Country: company.CountryUAE})
	if err != nil {
		t.Fatalf("add company: %v", err)
	}
	if added.Currency != "AED" || len(w.Companies()) != 3 {
		t.Fatalf("added=%+v companies=%v", added, w.Companies())
	}
	if err := w.DeleteCompany(ctx, "C001"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	current, ok := w.CurrentCompany()
	if !ok || current.ID != "C002" {
		t.Fatalf("selection should move to C002, got %+v", current)
	}
}

// gatedStore parks the next employee listing after arm until release closes.
type gatedStore struct {
	kv.Store
	armed   atomic.Bool
	entered chan struct{}
	release chan struct{}
}

func (g *gatedStore) arm() {
	g.entered = make(chan struct{})
	g.release = make(chan struct{})
	g.armed.Store(true)
}

func (g *gatedStore) List(ctx context.Context, namespace string) ([]kv.Entry, error) {
	if namespace == kv.NSEmployees && g.armed.CompareAndSwap(true, false) {
		close(g.entered)
		<-g.release
	}
	return g.Store.List(ctx, namespace)
}

func TestSwitchToCompanyDeletedMidLoad(t *testing.T) {
	store := &gatedStore{Store: kv.NewMemory()}
	w, _ := newWorkspaceOn(t, store)
	ctx := context.Background()
	if err := w.SignIn(ctx, "admin@zenpayroll.ai", "admin123"); err != nil {
		t.Fatalf("sign in: %v", err)
	}
	added, err := w.AddCompany(ctx, company.CreateInput{Name: "Gulf Traders", Country: company.CountryUAE})
	if err != nil {
		t.Fatalf("add company: %v", err)
	}

	store.arm()
	switched := make(chan error, 1)
	go func() { switched <- w.SwitchCompany(ctx, added.ID) }()
	<-store.entered
	if err := w.DeleteCompany(ctx, added.ID); err != nil {
		close(store.release)
		t.Fatalf("delete: %v", err)
	}
	close(store.release)

	if err := <-switched; !errors.Is(err, company.ErrNotFound) {
		t.Fatalf("switch err = %v, want company.ErrNotFound", err)
	}
	current, ok := w.CurrentCompany()
	if !ok || current.ID != "C001" {
		t.Fatalf("selection should stay on C001, got %+v", current)
	}
}

func TestEmployeeSeesOwnLeaveHistory(t *testing.T) {
	w, _ := newWorkspace(t)
	ctx := context.Background()
	if err := w.SignIn(ctx, "arif@techflow.com", "arif123"); err != nil {
		t.Fatalf("sign in: %v", err)
	}
	if w.Session().Profile.EmployeeID != "EMP001" {
		t.Fatalf("login not linked: %+v", w.Session().Profile)
	}

	req, err := w.SubmitLeave(ctx, leave.SubmitInput{Type: leave.TypeUnpaid, StartDate: "2024-03-10", EndDate: "2024-03-11", Reason: "family"})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	history := w.LeaveHistory()
	if len(history) != 1 || history[0].ID != req.ID {
		t.Fatalf("history=%v", history)
	}
	if _, err := w.DecideLeave(ctx, req.ID, leave.Decision{Status: leave.StatusApproved}); !errors.Is(err, auth.ErrForbidden) {
		t.Fatalf("employee must not decide, got %v", err)
	}
	if _, err := w.AddEmployee(ctx, core.EmployeeInput{Name: "x"}); !errors.Is(err, auth.ErrForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}

	if err := w.SignOut(ctx); err != nil {
		t.Fatalf("sign out: %v", err)
	}
	if w.LeaveHistory() != nil || w.Tabs() != nil {
		t.Fatal("mirrors should be cleared")
	}

	if err := w.SignIn(ctx, "hr@zenpayroll.ai", "hr123"); err != nil {
		t.Fatalf("hr sign in: %v", err)
	}
	all := w.AllLeaveRequests()
	if len(all) != 1 || all[0].ID != req.ID {
		t.Fatalf("hr should see the pending request, got %v", all)
	}
	decided, err := w.DecideLeave(ctx, req.ID, leave.Decision{Status: leave.StatusApproved, PaymentStatus: leave.PaymentUnpaid})
	if err != nil || decided.Status != leave.StatusApproved {
		t.Fatalf("decided=%+v err=%v", decided, err)
	}
	if w.AllLeaveRequests()[0].Status != leave.StatusApproved {
		t.Fatal("decision not mirrored")
	}
}

func TestSubmitLeaveOnlyTouchesLoadedMirrors(t *testing.T) {
	w, _ := newWorkspace(t)
	ctx := context.Background()
	if err := w.SignIn(ctx, "ahmed@oasis.com", "ahmed123"); err != nil {
		t.Fatalf("sign in: %v", err)
	}
	if current, _ := w.CurrentCompany(); current.ID != "C001" || w.Session().Profile.EmployeeID != "EMP002" {
		t.Fatalf("current=%s profile=%+v", current.ID, w.Session().Profile)
	}

	req, err := w.SubmitLeave(ctx, leave.SubmitInput{Type: leave.TypeAnnual, StartDate: "2024-05-01", EndDate: "2024-05-02", Reason: "trip"})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if len(w.AllLeaveRequests()) != 0 {
		t.Fatalf("another company's request leaked into the list: %v", w.AllLeaveRequests())
	}
	if len(w.LeaveHistory()) != 0 {
		t.Fatalf("admin history is not loaded, got %v", w.LeaveHistory())
	}

	if err := w.SwitchCompany(ctx, "C002"); err != nil {
		t.Fatalf("switch: %v", err)
	}
	if all := w.AllLeaveRequests(); len(all) != 1 || all[0].ID != req.ID {
		t.Fatalf("C002 should list the request, got %v", all)
	}
}
