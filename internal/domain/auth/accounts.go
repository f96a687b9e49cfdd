package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"zenpayroll/internal/domain/validation"
	"zenpayroll/internal/platform/kv"
)

// Account is a login identity. Keyed by lower-cased email.
type Account struct {
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	Role         Role      `json:"role"`
	PasswordHash string    `json:"passwordHash"`
	EmployeeID   string    `json:"employeeId,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

type RegisterInput struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Password   string `json:"password"`
	Role       Role   `json:"role"`
	EmployeeID string `json:"employeeId,omitempty"`
}

type DemoAccount struct {
	Email    string
	Password string
	Name     string
	Role     Role
}

var DemoAccounts = []DemoAccount{
	{Email: "admin@zenpayroll.ai", Password: "admin123", Name: "Master Admin", Role: RoleAdmin},
	{Email: "hr@zenpayroll.ai", Password: "hr123", Name: "HR Manager", Role: RoleHR},
	{Email: "acc@zenpayroll.ai", Password: "acc123", Name: "Senior Accountant", Role: RoleAccountant},
}

const minPasswordLength = 6

type Accounts struct {
	accounts    *kv.Collection[Account]
	allowSignup bool
	now         func() time.Time
}

func NewAccounts(store kv.Store, allowSignup bool) *Accounts {
	return &Accounts{
		accounts:    kv.NewCollection(store, kv.NSAccounts, func(a Account) string { return normalizeEmail(a.Email) }, nil),
		allowSignup: allowSignup,
		now:         time.Now,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// SeedDemo creates the demo logins that are missing and returns how many were
// added.
func (a *Accounts) SeedDemo(ctx context.Context) (int, error) {
	created := 0
	for _, demo := range DemoAccounts {
		_, err := a.create(ctx, RegisterInput{Name: demo.Name, Email: demo.Email, Password: demo.Password, Role: demo.Role}, false)
		if errors.Is(err, ErrAccountExists) {
			continue
		}
		if err != nil {
			return created, err
		}
		created++
	}
	return created, nil
}

// Register is the public sign-up path, available only when enabled.
func (a *Accounts) Register(ctx context.Context, input RegisterInput) (Account, error) {
	if !a.allowSignup {
		return Account{}, ErrSignupDisabled
	}
	return a.create(ctx, input, true)
}

// Create adds an account on behalf of an administrator.
func (a *Accounts) Create(ctx context.Context, input RegisterInput) (Account, error) {
	return a.create(ctx, input, true)
}

// create stores a new account. The password length rule applies to user
// supplied passwords only; the fixed demo logins predate it.
func (a *Accounts) create(ctx context.Context, input RegisterInput, checkLength bool) (Account, error) {
	email := normalizeEmail(input.Email)
	v := validation.New()
	v.Required("email", email, "is required")
	v.Email("email", email)
	if input.Password == "" || (checkLength && len(input.Password) < minPasswordLength) {
		v.Add("password", fmt.Sprintf("must be at least %d characters", minPasswordLength))
	}
	if !input.Role.Valid() {
		v.Add("role", "must be one of Admin, HR, Accountant, Employee")
	}
	if err := v.Err(); err != nil {
		return Account{}, err
	}
	hash, err := HashPassword(input.Password)
	if err != nil {
		return Account{}, err
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		name = strings.Split(email, "@")[0]
	}
	account := Account{
		Email:        email,
		Name:         name,
		Role:         input.Role,
		PasswordHash: hash,
		EmployeeID:   input.EmployeeID,
		CreatedAt:    a.now().UTC(),
	}
	if _, err := a.accounts.Add(ctx, account); err != nil {
		if errors.Is(err, kv.ErrAlreadyExists) {
			return Account{}, ErrAccountExists
		}
		return Account{}, err
	}
	return account, nil
}

func (a *Accounts) Authenticate(ctx context.Context, email, password string) (Account, error) {
	account, _, err := a.accounts.Get(ctx, normalizeEmail(email))
	if errors.Is(err, kv.ErrNotFound) {
		return Account{}, ErrInvalidCredentials
	}
	if err != nil {
		return Account{}, err
	}
	if err := CheckPassword(account.PasswordHash, password); err != nil {
		return Account{}, ErrInvalidCredentials
	}
	return account, nil
}

// SetRole mirrors a role change made in role management onto the login
// linked to the employee, if any.
func (a *Accounts) SetRole(ctx context.Context, email string, role Role) error {
	account, version, err := a.accounts.Get(ctx, normalizeEmail(email))
	if errors.Is(err, kv.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if account.Role == role {
		return nil
	}
	account.Role = role
	_, err = a.accounts.Replace(ctx, account, version)
	return err
}
