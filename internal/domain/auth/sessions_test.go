package auth

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"zenpayroll/internal/domain/validation"
	"zenpayroll/internal/platform/kv"
)

type stubDirectory map[string]string

func (d stubDirectory) EmployeeIDByEmail(ctx context.Context, email string) (string, error) {
	return d[email], nil
}

func TestDemoAccountsSignIn(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemory()
	accounts := NewAccounts(store, false)
	created, err := accounts.SeedDemo(ctx)
	if err != nil || created != 3 {
		t.Fatalf("created=%d err=%v", created, err)
	}
	if again, err := accounts.SeedDemo(ctx); err != nil || again != 0 {
		t.Fatalf("reseed created=%d err=%v", again, err)
	}

	sessions := NewSessions(store, accounts, nil, "secret", time.Hour)
	session, token, err := sessions.SignIn(ctx, "HR@zenpayroll.ai", "hr123")
	if err != nil {
		t.Fatalf("sign in: %v", err)
	}
	if session.Profile.Role != RoleHR || session.Profile.Name != "HR Manager" || !session.Profile.IsLoggedIn {
		t.Fatalf("unexpected profile %+v", session.Profile)
	}
	if !strings.HasPrefix(session.Profile.Avatar, "https://api.dicebear.com/7.x/avataaars/svg?seed=") {
		t.Fatalf("avatar %q", session.Profile.Avatar)
	}

	restored, err := sessions.Restore(ctx, token)
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	if restored.ID != session.ID || restored.Profile != session.Profile {
		t.Fatalf("restored %+v want %+v", restored, session)
	}

	if err := sessions.SignOut(ctx, session); err != nil {
		t.Fatalf("sign out: %v", err)
	}
	if _, err := sessions.Restore(ctx, token); !errors.Is(err, ErrSessionEnded) {
		t.Fatalf("expected ended session, got %v", err)
	}
}

func TestSignInRejectsBadPassword(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemory()
	accounts := NewAccounts(store, false)
	if _, err := accounts.SeedDemo(ctx); err != nil {
		t.Fatal(err)
	}
	sessions := NewSessions(store, accounts, nil, "secret", time.Hour)
	if _, _, err := sessions.SignIn(ctx, "admin@zenpayroll.ai", "nope"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials, got %v", err)
	}
	if _, _, err := sessions.SignIn(ctx, "ghost@zenpayroll.ai", "admin123"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials, got %v", err)
	}
}

func TestRegisterHonoursSignupFlag(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemory()
	closed := NewAccounts(store, false)
	if _, err := closed.Register(ctx, RegisterInput{Email: "a@b.c", Password: "secret1", Role: RoleEmployee}); !errors.Is(err, ErrSignupDisabled) {
		t.Fatalf("expected signup disabled, got %v", err)
	}

	open := NewAccounts(store, true)
	account, err := open.Register(ctx, RegisterInput{Name: "Arif Rahman", Email: "arif@techflow.com", Password: "secret1", Role: RoleEmployee})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if account.PasswordHash == "secret1" {
		t.Fatal("password stored in clear")
	}
	if _, err := open.Register(ctx, RegisterInput{Email: "ARIF@techflow.com", Password: "secret1", Role: RoleEmployee}); !errors.Is(err, ErrAccountExists) {
		t.Fatalf("expected duplicate, got %v", err)
	}

	sessions := NewSessions(store, open, stubDirectory{"arif@techflow.com": "EMP001"}, "secret", time.Hour)
	session, _, err := sessions.SignIn(ctx, "arif@techflow.com", "secret1")
	if err != nil {
		t.Fatalf("sign in: %v", err)
	}
	if session.Profile.EmployeeID != "EMP001" || !session.SelfScoped() {
		t.Fatalf("expected employee link, got %+v", session.Profile)
	}
}

func TestPurgeExpiredSessions(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemory()
	accounts := NewAccounts(store, false)
	if _, err := accounts.SeedDemo(ctx); err != nil {
		t.Fatalf("seed: %v", err)
	}
	sessions := NewSessions(store, accounts, nil, "secret", time.Hour)
	if _, _, err := sessions.SignIn(ctx, "acc@zenpayroll.ai", "acc123"); err != nil {
		t.Fatalf("sign in: %v", err)
	}

	if purged, err := sessions.PurgeExpired(ctx); err != nil || purged != 0 {
		t.Fatalf("fresh session purged=%d err=%v", purged, err)
	}

	sessions.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	purged, err := sessions.PurgeExpired(ctx)
	if err != nil || purged != 1 {
		t.Fatalf("purged=%d err=%v", purged, err)
	}
	left, err := store.List(ctx, kv.NSSession)
	if err != nil || len(left) != 0 {
		t.Fatalf("left=%d err=%v", len(left), err)
	}
}

func TestShortPasswordsOnlyRejectedForNewAccounts(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemory()
	accounts := NewAccounts(store, true)
	if created, err := accounts.SeedDemo(ctx); err != nil || created != len(DemoAccounts) {
		t.Fatalf("seed created=%d err=%v", created, err)
	}
	if _, err := accounts.Authenticate(ctx, "hr@zenpayroll.ai", "hr123"); err != nil {
		t.Fatalf("demo hr login: %v", err)
	}

	_, err := accounts.Register(ctx, RegisterInput{Email: "new@techflow.com", Password: "hr123", Role: RoleEmployee})
	issues := validation.IssuesOf(err)
	if len(issues) != 1 || issues[0].Field != "password" {
		t.Fatalf("expected password issue, got %v (%v)", issues, err)
	}
	if _, err := accounts.Create(ctx, RegisterInput{Email: "new@techflow.com", Password: "", Role: RoleEmployee}); validation.IssuesOf(err) == nil {
		t.Fatalf("expected empty password to be rejected, got %v", err)
	}
}
