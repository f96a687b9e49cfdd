package auth

import (
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	fileadapter "github.com/casbin/casbin/v2/persist/file-adapter"
)

//go:embed model.conf
var defaultModel string

type Mode string

const (
	ModeEnforce  Mode = "enforce"
	ModeShadow   Mode = "shadow"
	ModeDisabled Mode = "disabled"
)

func ParseMode(raw string, unsafeAllowDisabled bool) (Mode, error) {
	raw = strings.TrimSpace(strings.ToLower(raw))
	if raw == "" {
		return ModeEnforce, nil
	}
	switch Mode(raw) {
	case ModeEnforce, ModeShadow:
		return Mode(raw), nil
	case ModeDisabled:
		if !unsafeAllowDisabled {
			return "", errors.New("authz: AUTHZ_MODE=disabled requires AUTHZ_UNSAFE_ALLOW_DISABLED=1")
		}
		return ModeDisabled, nil
	default:
		return "", errors.New("authz: invalid AUTHZ_MODE (expected enforce|shadow|disabled)")
	}
}

// Authorizer decides whether a role may perform a permission. In shadow mode
// denials are logged but not enforced.
type Authorizer struct {
	enforcer *casbin.Enforcer
	mode     Mode
}

// NewAuthorizer loads the built-in model and RolePermissions.
func NewAuthorizer(mode Mode) (*Authorizer, error) {
	m, err := model.NewModelFromString(defaultModel)
	if err != nil {
		return nil, err
	}
	enforcer, err := casbin.NewEnforcer(m)
	if err != nil {
		return nil, err
	}
	for role, perms := range RolePermissions {
		for _, perm := range perms {
			obj, act := splitPermission(perm)
			if _, err := enforcer.AddPolicy(SubjectFromRole(role), obj, act); err != nil {
				return nil, fmt.Errorf("authz: add policy %s %s: %w", role, perm, err)
			}
		}
	}
	return &Authorizer{enforcer: enforcer, mode: mode}, nil
}

// NewAuthorizerFromFiles replaces the built-in policy with a casbin model and
// CSV policy on disk.
func NewAuthorizerFromFiles(modelPath, policyPath string, mode Mode) (*Authorizer, error) {
	enforcer, err := casbin.NewEnforcer(modelPath)
	if err != nil {
		return nil, err
	}
	enforcer.SetAdapter(fileadapter.NewAdapter(policyPath))
	if err := enforcer.LoadPolicy(); err != nil {
		return nil, err
	}
	return &Authorizer{enforcer: enforcer, mode: mode}, nil
}

func SubjectFromRole(role Role) string {
	slug := strings.TrimSpace(strings.ToLower(string(role)))
	if slug == "" {
		slug = "anonymous"
	}
	return "role:" + slug
}

func splitPermission(perm string) (string, string) {
	idx := strings.LastIndex(perm, ".")
	if idx < 0 {
		return perm, ""
	}
	return perm[:idx], perm[idx+1:]
}

func (a *Authorizer) Mode() Mode {
	return a.mode
}

func (a *Authorizer) Authorize(role Role, perm string) (allowed bool, enforced bool, err error) {
	obj, act := splitPermission(perm)
	switch a.mode {
	case ModeDisabled:
		return true, false, nil
	case ModeShadow:
		ok, err := a.enforcer.Enforce(SubjectFromRole(role), obj, act)
		if err != nil {
			return false, false, err
		}
		return ok, false, nil
	case ModeEnforce:
		ok, err := a.enforcer.Enforce(SubjectFromRole(role), obj, act)
		if err != nil {
			return false, true, err
		}
		return ok, true, nil
	default:
		return false, false, errors.New("authz: unknown mode")
	}
}

// Require returns nil when the session may perform perm.
func (a *Authorizer) Require(session Session, perm string) error {
	if !session.Profile.IsLoggedIn {
		return ErrUnauthenticated
	}
	allowed, enforced, err := a.Authorize(session.Profile.Role, perm)
	if err != nil {
		return fmt.Errorf("authz: %w", err)
	}
	if allowed {
		return nil
	}
	if !enforced {
		slog.Warn("authz shadow deny", "role", session.Profile.Role, "permission", perm, "actor", session.Profile.Email)
		return nil
	}
	return fmt.Errorf("%w: %s may not %s", ErrForbidden, session.Profile.Role, perm)
}

// Can reports the decision without logging; used for navigation hints.
func (a *Authorizer) Can(role Role, perm string) bool {
	allowed, enforced, err := a.Authorize(role, perm)
	return err == nil && (allowed || !enforced)
}
