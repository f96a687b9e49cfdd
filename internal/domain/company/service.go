package company

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"zenpayroll/internal/domain/audit"
	"zenpayroll/internal/domain/auth"
	"zenpayroll/internal/domain/validation"
	"zenpayroll/internal/platform/kv"
)

type Service struct {
	companies  *kv.Collection[Company]
	authz      *auth.Authorizer
	audit      audit.Recorder
	policy     DeletePolicy
	dependents []Dependents
	now        func() time.Time
}

func NewService(store kv.Store, authz *auth.Authorizer, recorder audit.Recorder, policy DeletePolicy, seed func() []Company) *Service {
	return &Service{
		companies: kv.NewCollection(store, kv.NSCompanies, func(c Company) string { return c.ID }, seed),
		authz:     authz,
		audit:     recorder,
		policy:    policy,
		now:       time.Now,
	}
}

// SetDependents registers the collections consulted by the delete policy.
func (s *Service) SetDependents(deps ...Dependents) {
	s.dependents = deps
}

func (s *Service) Policy() DeletePolicy {
	return s.policy
}

func (s *Service) List(ctx context.Context, session auth.Session) ([]Company, error) {
	if err := s.authz.Require(session, auth.PermCompaniesRead); err != nil {
		return nil, err
	}
	return s.companies.List(ctx)
}

func (s *Service) Get(ctx context.Context, session auth.Session, id string) (Company, error) {
	if err := s.authz.Require(session, auth.PermCompaniesRead); err != nil {
		return Company{}, err
	}
	return s.Lookup(ctx, id)
}

// Lookup reads a company without an authorization check; used by other
// services that already authorized the caller.
func (s *Service) Lookup(ctx context.Context, id string) (Company, error) {
	c, _, err := s.companies.Get(ctx, id)
	if errors.Is(err, kv.ErrNotFound) {
		return Company{}, ErrNotFound
	}
	return c, err
}

func (s *Service) Add(ctx context.Context, session auth.Session, input CreateInput) (Company, error) {
	if err := s.authz.Require(session, auth.PermCompaniesWrite); err != nil {
		return Company{}, err
	}
	name := strings.TrimSpace(input.Name)
	country := input.Country
	if country == "" {
		country = CountryBD
	}
	v := validation.New()
	v.Required("name", name, "is required")
	if !country.Valid() {
		v.Add("country", "must be one of BD, KSA, UAE, USA")
	}
	if err := v.Err(); err != nil {
		return Company{}, err
	}
	info := Countries[country]
	logo := strings.TrimSpace(input.Logo)
	if logo == "" {
		logo = DefaultLogo
	}

	now := s.now()
	created, err := s.companies.AddUnique(ctx, func(attempt int) Company {
		return Company{
			ID:             fmt.Sprintf("C%d", now.UnixMilli()+int64(attempt)),
			Name:           name,
			Logo:           logo,
			Currency:       info.Currency,
			Symbol:         info.Symbol,
			DefaultCountry: country,
		}
	})
	if err != nil {
		return Company{}, err
	}
	audit.Log(ctx, s.audit, session.Actor(), "company.create", "company", created.ID, nil, created)
	return created, nil
}

// Delete removes the company according to the configured DeletePolicy.
func (s *Service) Delete(ctx context.Context, session auth.Session, id string) error {
	if err := s.authz.Require(session, auth.PermCompaniesWrite); err != nil {
		return err
	}
	existing, version, err := s.companies.Get(ctx, id)
	if errors.Is(err, kv.ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}

	switch s.policy {
	case DeleteBlock:
		for _, dep := range s.dependents {
			count, err := dep.CountByCompany(ctx, id)
			if err != nil {
				return err
			}
			if count > 0 {
				return fmt.Errorf("%w: %d %s", ErrCompanyInUse, count, dep.Kind())
			}
		}
	case DeleteCascade:
		for _, dep := range s.dependents {
			removed, err := dep.RemoveByCompany(ctx, id)
			if err != nil {
				return fmt.Errorf("cascade %s: %w", dep.Kind(), err)
			}
			slog.Info("company cascade", "companyId", id, "kind", dep.Kind(), "removed", removed)
			audit.Log(ctx, s.audit, session.Actor(), "company.cascade", dep.Kind(), id, nil, map[string]int{"removed": removed})
		}
	}

	if err := s.companies.Delete(ctx, id, version); err != nil {
		if errors.Is(err, kv.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	audit.Log(ctx, s.audit, session.Actor(), "company.delete", "company", id, existing, nil)
	return nil
}
