package auth

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestParseMode(t *testing.T) {
	m, err := ParseMode("", false)
	if err != nil || m != ModeEnforce {
		t.Fatalf("mode=%q err=%v", m, err)
	}
	m, err = ParseMode("Shadow", false)
	if err != nil || m != ModeShadow {
		t.Fatalf("mode=%q err=%v", m, err)
	}
	if _, err := ParseMode("disabled", false); err == nil {
		t.Fatal("expected error without unsafe flag")
	}
	if m, err := ParseMode("disabled", true); err != nil || m != ModeDisabled {
		t.Fatalf("mode=%q err=%v", m, err)
	}
	if _, err := ParseMode("nope", true); err == nil {
		t.Fatal("expected error for invalid mode")
	}
}

func signedIn(role Role) Session {
	return Session{ID: "s", Profile: Profile{Email: string(role) + "@example.com", Role: role, IsLoggedIn: true}}
}

func TestBuiltInPolicy(t *testing.T) {
	a, err := NewAuthorizer(ModeEnforce)
	if err != nil {
		t.Fatalf("err=%v", err)
	}

	cases := []struct {
		role    Role
		perm    string
		allowed bool
	}{
		{RoleAdmin, PermCompaniesWrite, true},
		{RoleHR, PermCompaniesWrite, false},
		{RoleHR, PermLeaveApprove, true},
		{RoleHR, PermPayrollRun, false},
		{RoleAccountant, PermPayrollRun, true},
		{RoleAccountant, PermLeaveApprove, false},
		{RoleEmployee, PermLeaveSubmit, true},
		{RoleEmployee, PermEmployeesWrite, false},
		{RoleEmployee, PermLeaveRead, false},
	}
	for _, tc := range cases {
		err := a.Require(signedIn(tc.role), tc.perm)
		if tc.allowed && err != nil {
			t.Fatalf("%s %s: unexpected %v", tc.role, tc.perm, err)
		}
		if !tc.allowed && !errors.Is(err, ErrForbidden) {
			t.Fatalf("%s %s: expected forbidden, got %v", tc.role, tc.perm, err)
		}
	}
}

func TestRequireNeedsSignedInSession(t *testing.T) {
	a, err := NewAuthorizer(ModeEnforce)
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if err := a.Require(Session{}, PermCompaniesRead); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("expected unauthenticated, got %v", err)
	}
}

func TestShadowAndDisabledModes(t *testing.T) {
	shadow, err := NewAuthorizer(ModeShadow)
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	allowed, enforced, err := shadow.Authorize(RoleEmployee, PermCompaniesWrite)
	if err != nil || allowed || enforced {
		t.Fatalf("allowed=%v enforced=%v err=%v", allowed, enforced, err)
	}
	if err := shadow.Require(signedIn(RoleEmployee), PermCompaniesWrite); err != nil {
		t.Fatalf("shadow mode must not block: %v", err)
	}

	disabled, err := NewAuthorizer(ModeDisabled)
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	allowed, enforced, err = disabled.Authorize(RoleEmployee, PermAuditRead)
	if err != nil || !allowed || enforced {
		t.Fatalf("allowed=%v enforced=%v err=%v", allowed, enforced, err)
	}
}

func TestAuthorizerFromFiles(t *testing.T) {
	dir := t.TempDir()
	modelPath := filepath.Join(dir, "model.conf")
	policyPath := filepath.Join(dir, "policy.csv")
	if err := os.WriteFile(modelPath, []byte(defaultModel), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(policyPath, []byte("p, role:accountant, payroll, read\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	a, err := NewAuthorizerFromFiles(modelPath, policyPath, ModeEnforce)
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if !a.Can(RoleAccountant, PermPayrollRead) {
		t.Fatal("expected file policy to allow payroll.read")
	}
	if a.Can(RoleAccountant, PermPayrollRun) {
		t.Fatal("file policy replaces the built-in one")
	}
}

func TestVisibleTabs(t *testing.T) {
	cases := map[Role][]string{
		RoleAdmin:      {TabDashboard, TabEmployees, TabPayroll, TabLedger, TabReports, TabLeaveManagement, TabRoleManagement, TabProfile},
		RoleHR:         {TabDashboard, TabEmployees, TabReports, TabLeaveManagement, TabRoleManagement, TabProfile},
		RoleAccountant: {TabDashboard, TabPayroll, TabLedger, TabProfile},
		RoleEmployee:   {TabLeaveRequest, TabLeaveHistory, TabProfile},
	}
	for role, want := range cases {
		if got := VisibleTabs(role); !reflect.DeepEqual(got, want) {
			t.Fatalf("%s: got %v want %v", role, got, want)
		}
	}
}
