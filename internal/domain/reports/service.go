package reports

import (
	"context"
	"time"

	"zenpayroll/internal/domain/auth"
	"zenpayroll/internal/domain/core"
	"zenpayroll/internal/domain/payroll"
	"zenpayroll/internal/platform/advisory"
)

type EmployeeSource interface {
	ListEmployees(ctx context.Context, session auth.Session, companyID string) ([]core.Employee, error)
}

type RecordSource interface {
	ListRecords(ctx context.Context, session auth.Session, companyID string) ([]payroll.Record, error)
}

type Service struct {
	employees EmployeeSource
	records   RecordSource
	advisor   advisory.Advisor
	authz     *auth.Authorizer
	now       func() time.Time
}

func NewService(authz *auth.Authorizer, employees EmployeeSource, records RecordSource, advisor advisory.Advisor) *Service {
	return &Service{employees: employees, records: records, advisor: advisor, authz: authz, now: time.Now}
}

func (s *Service) Dashboard(ctx context.Context, session auth.Session, companyID string) (Dashboard, error) {
	if err := s.authz.Require(session, auth.PermReportsRead); err != nil {
		return Dashboard{}, err
	}
	employees, records, err := s.load(ctx, session, companyID)
	if err != nil {
		return Dashboard{}, err
	}
	return Build(session.Role(), employees, records, s.now()), nil
}

// Insights asks the advisor for commentary on the company's payroll. An
// unavailable advisor yields an empty list.
func (s *Service) Insights(ctx context.Context, session auth.Session, companyID string) ([]advisory.Insight, error) {
	if err := s.authz.Require(session, auth.PermReportsInsights); err != nil {
		return nil, err
	}
	employees, records, err := s.load(ctx, session, companyID)
	if err != nil {
		return nil, err
	}
	return advisory.ResolveInsights(ctx, s.advisor, Summarize(employees, records)), nil
}

func (s *Service) load(ctx context.Context, session auth.Session, companyID string) ([]core.Employee, []payroll.Record, error) {
	employees, err := s.employees.ListEmployees(ctx, session, companyID)
	if err != nil {
		return nil, nil, err
	}
	// HR may see reports without payroll.read; their dashboard simply has no
	// ledger figures.
	if !s.authz.Can(session.Role(), auth.PermPayrollRead) {
		return employees, nil, nil
	}
	records, err := s.records.ListRecords(ctx, session, companyID)
	if err != nil {
		return nil, nil, err
	}
	return employees, records, nil
}

// costEstimateFactor approximates employer cost from basic salary.
const costEstimateFactor = 1.5

// Summarize builds the anonymous figures sent to the advisor.
func Summarize(employees []core.Employee, records []payroll.Record) advisory.Summary {
	summary := advisory.Summary{TotalEmployees: len(employees), DepartmentCost: map[string]float64{}}
	for _, r := range records {
		summary.TotalMonthlyCost += r.GrossSalary
	}
	for _, e := range employees {
		summary.DepartmentCost[e.Department] += e.SalaryStructure.Basic * costEstimateFactor
	}
	return summary
}
