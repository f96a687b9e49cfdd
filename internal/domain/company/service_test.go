package company

import (
	"context"
	"errors"
	"testing"
	"time"

	"zenpayroll/internal/domain/audit"
	"zenpayroll/internal/domain/auth"
	"zenpayroll/internal/domain/validation"
	"zenpayroll/internal/platform/kv"
)

type fakeDependents struct {
	kind   string
	counts map[string]int
}

func (f *fakeDependents) Kind() string { return f.kind }

func (f *fakeDependents) CountByCompany(ctx context.Context, companyID string) (int, error) {
	return f.counts[companyID], nil
}

func (f *fakeDependents) RemoveByCompany(ctx context.Context, companyID string) (int, error) {
	n := f.counts[companyID]
	delete(f.counts, companyID)
	return n, nil
}

func seedCompanies() []Company {
	return []Company{
		{ID: "C001", Name: "TechFlow Solutions Ltd.", Logo: "🏢", Currency: "BDT", Symbol: "৳", DefaultCountry: CountryBD},
		{ID: "C002", Name: "Oasis Trading Co.", Logo: "🏢", Currency: "SAR", Symbol: "﷼", DefaultCountry: CountryKSA},
	}
}

func as(role auth.Role) auth.Session {
	return auth.Session{ID: "s-" + string(role), Profile: auth.Profile{Name: string(role), Email: string(role) + "@zenpayroll.ai", Role: role, IsLoggedIn: true}}
}

func newService(t *testing.T, policy DeletePolicy) (*Service, *audit.Service, *fakeDependents) {
	t.Helper()
	store := kv.NewMemory()
	authz, err := auth.NewAuthorizer(auth.ModeEnforce)
	if err != nil {
		t.Fatalf("authorizer: %v", err)
	}
	recorder := audit.New(store)
	svc := NewService(store, authz, recorder, policy, seedCompanies)
	deps := &fakeDependents{kind: "employees", counts: map[string]int{"C001": 2}}
	svc.SetDependents(deps)
	return svc, recorder, deps
}

func TestAddDerivesCurrencyFromCountry(t *testing.T) {
	ctx := context.Background()
	svc, recorder, _ := newService(t, DeleteOrphan)
	svc.now = func() time.Time { return time.UnixMilli(1710000000000) }

	created, err := svc.Add(ctx, as(auth.RoleAdmin), CreateInput{Name: "  Desert Labs  ", Country: CountryUAE})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if created.ID != "C1710000000000" || created.Name != "Desert Labs" {
		t.Fatalf("unexpected company %+v", created)
	}
	if created.Currency != "AED" || created.Symbol != "د.إ" || created.Logo != DefaultLogo {
		t.Fatalf("unexpected currency %+v", created)
	}

	second, err := svc.Add(ctx, as(auth.RoleAdmin), CreateInput{Name: "Same Millisecond"})
	if err != nil {
		t.Fatalf("add second: %v", err)
	}
	if second.ID == created.ID || second.DefaultCountry != CountryBD {
		t.Fatalf("expected a distinct BD company, got %+v", second)
	}

	all, err := svc.List(ctx, as(auth.RoleEmployee))
	if err != nil || len(all) != 4 || all[2].ID != created.ID {
		t.Fatalf("list=%v err=%v", all, err)
	}

	_, total, err := recorder.List(ctx, audit.Filter{Action: "company.create"}, 10, 0)
	if err != nil || total != 2 {
		t.Fatalf("audit total=%d err=%v", total, err)
	}
}

func TestAddValidatesInput(t *testing.T) {
	svc, _, _ := newService(t, DeleteOrphan)
	_, err := svc.Add(context.Background(), as(auth.RoleAdmin), CreateInput{Name: " ", Country: "FR"})
	issues := validation.IssuesOf(err)
	if len(issues) != 2 {
		t.Fatalf("expected two issues, got %v (%v)", issues, err)
	}
}

func TestAddRequiresCompaniesWrite(t *testing.T) {
	svc, _, _ := newService(t, DeleteOrphan)
	for _, role := range []auth.Role{auth.RoleHR, auth.RoleAccountant, auth.RoleEmployee} {
		if _, err := svc.Add(context.Background(), as(role), CreateInput{Name: "X"}); !errors.Is(err, auth.ErrForbidden) {
			t.Fatalf("%s: expected ErrForbidden, got %v", role, err)
		}
	}
}

func TestDeletePolicies(t *testing.T) {
	ctx := context.Background()

	t.Run("orphan", func(t *testing.T) {
		svc, _, deps := newService(t, DeleteOrphan)
		if err := svc.Delete(ctx, as(auth.RoleAdmin), "C001"); err != nil {
			t.Fatalf("delete: %v", err)
		}
		if deps.counts["C001"] != 2 {
			t.Fatalf("orphan must leave dependents, got %v", deps.counts)
		}
		if _, err := svc.Lookup(ctx, "C001"); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("block", func(t *testing.T) {
		svc, _, _ := newService(t, DeleteBlock)
		if err := svc.Delete(ctx, as(auth.RoleAdmin), "C001"); !errors.Is(err, ErrCompanyInUse) {
			t.Fatalf("expected ErrCompanyInUse, got %v", err)
		}
		if err := svc.Delete(ctx, as(auth.RoleAdmin), "C002"); err != nil {
			t.Fatalf("empty company should delete: %v", err)
		}
	})

	t.Run("cascade", func(t *testing.T) {
		svc, recorder, deps := newService(t, DeleteCascade)
		if err := svc.Delete(ctx, as(auth.RoleAdmin), "C001"); err != nil {
			t.Fatalf("delete: %v", err)
		}
		if _, ok := deps.counts["C001"]; ok {
			t.Fatalf("cascade must remove dependents, got %v", deps.counts)
		}
		_, total, err := recorder.List(ctx, audit.Filter{Action: "company.cascade"}, 10, 0)
		if err != nil || total != 1 {
			t.Fatalf("cascade audit total=%d err=%v", total, err)
		}
	})

	t.Run("missing", func(t *testing.T) {
		svc, _, _ := newService(t, DeleteOrphan)
		if err := svc.Delete(ctx, as(auth.RoleAdmin), "C404"); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestParseDeletePolicy(t *testing.T) {
	if p, err := ParseDeletePolicy(""); err != nil || p != DeleteOrphan {
		t.Fatalf("default policy=%q err=%v", p, err)
	}
	if _, err := ParseDeletePolicy("nuke"); !errors.Is(err, ErrInvalidPolicy) {
		t.Fatalf("expected ErrInvalidPolicy, got %v", err)
	}
}
