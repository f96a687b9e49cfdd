package payroll

import (
	"context"
	"errors"
	"fmt"
	"time"

	"zenpayroll/internal/domain/audit"
	"zenpayroll/internal/domain/auth"
	"zenpayroll/internal/domain/company"
	"zenpayroll/internal/domain/core"
	"zenpayroll/internal/platform/advisory"
	"zenpayroll/internal/platform/kv"
)

type EmployeeLookup interface {
	Lookup(ctx context.Context, id string) (core.Employee, error)
}

type CompanyLookup interface {
	Lookup(ctx context.Context, id string) (company.Company, error)
}

type Service struct {
	records   *kv.Collection[Record]
	employees EmployeeLookup
	companies CompanyLookup
	advisor   advisory.Advisor
	authz     *auth.Authorizer
	audit     audit.Recorder
	now       func() time.Time
}

func NewService(store kv.Store, authz *auth.Authorizer, recorder audit.Recorder, employees EmployeeLookup, companies CompanyLookup, advisor advisory.Advisor) *Service {
	return &Service{
		records:   kv.NewCollection(store, kv.NSPayroll, func(r Record) string { return r.ID }, nil),
		employees: employees,
		companies: companies,
		advisor:   advisor,
		authz:     authz,
		audit:     recorder,
		now:       time.Now,
	}
}

// Quote is a preview together with the advisory text shown next to it.
type Quote struct {
	EmployeeID string          `json:"employeeId"`
	Preview    Preview         `json:"preview"`
	Advice     advisory.Advice `json:"advice"`
	Advised    bool            `json:"advised"`
}

// Preview computes the payslip locally and asks the advisor for an
// explanation. Advisor failures never fail the preview.
func (s *Service) Preview(ctx context.Context, session auth.Session, employeeID string, adj Adjustments) (Quote, error) {
	if err := s.authz.Require(session, auth.PermPayrollRun); err != nil {
		return Quote{}, err
	}
	emp, err := s.employees.Lookup(ctx, employeeID)
	if err != nil {
		return Quote{}, err
	}
	preview := Calculate(emp.SalaryStructure, adj)
	advice, advised := advisory.Resolve(ctx, s.advisor, advisoryRequest(emp, adj))
	return Quote{EmployeeID: emp.ID, Preview: preview, Advice: advice, Advised: advised}, nil
}

type DisburseInput struct {
	EmployeeID  string           `json:"employeeId"`
	Adjustments Adjustments      `json:"adjustments"`
	Period      Period           `json:"period"`
	Advice      *advisory.Advice `json:"advice,omitempty"`
}

// Disburse computes the payslip, files it as a paid record and returns it.
// When input.Advice is nil the advisor is asked again.
func (s *Service) Disburse(ctx context.Context, session auth.Session, input DisburseInput) (Record, error) {
	if err := s.authz.Require(session, auth.PermPayrollRun); err != nil {
		return Record{}, err
	}
	emp, err := s.employees.Lookup(ctx, input.EmployeeID)
	if err != nil {
		return Record{}, err
	}
	now := s.now()
	period, err := resolvePeriod(input.Period, now)
	if err != nil {
		return Record{}, err
	}

	adj := input.Adjustments
	preview := Calculate(emp.SalaryStructure, adj)
	var advice advisory.Advice
	if input.Advice != nil && input.Advice.TaxExplanation != "" {
		advice = *input.Advice
	} else {
		advice, _ = advisory.Resolve(ctx, s.advisor, advisoryRequest(emp, adj))
	}

	breakdown := map[string]any{
		BreakdownBaseTotal:      preview.BasePay,
		BreakdownOvertimePay:    preview.OvertimeTotal,
		BreakdownBonusAmount:    preview.Bonus,
		BreakdownLeaveDeduction: preview.LeaveDeduction,
		BreakdownTaxExplanation: advice.TaxExplanation,
		BreakdownCustomItems:    preview.CustomItems,
	}
	if advice.Warning != "" {
		breakdown[BreakdownComplianceNote] = advice.Warning
	}

	record, err := s.records.AddUnique(ctx, func(attempt int) Record {
		return Record{
			ID:              fmt.Sprintf("PAY%d", now.UnixMilli()+int64(attempt)),
			EmployeeID:      emp.ID,
			CompanyID:       emp.CompanyID,
			Month:           period.Month,
			Year:            period.Year,
			GrossSalary:     preview.Gross,
			NetSalary:       preview.Net,
			Tax:             preview.Tax,
			VAT:             preview.VAT,
			OtherDeductions: preview.LeaveDeduction,
			Bonuses:         adj.Bonus,
			OvertimeHours:   adj.OvertimeHours,
			OvertimeRate:    adj.OvertimeRate,
			UnpaidLeaves:    adj.UnpaidLeaveDays,
			UnpaidLeaveRate: adj.UnpaidLeaveRate,
			TaxPercent:      adj.TaxPercent,
			VATPercent:      adj.VATPercent,
			Status:          StatusPaid,
			Breakdown:       breakdown,
			GeneratedAt:     now.UTC(),
		}
	})
	if err != nil {
		return Record{}, err
	}
	audit.Log(ctx, s.audit, session.Actor(), "payroll.disburse", "payroll-record", record.ID, nil, record)
	return record, nil
}

// ListRecords returns the ledger of companyID, or of every company when it is
// empty. Employee-role sessions only see their own records.
func (s *Service) ListRecords(ctx context.Context, session auth.Session, companyID string) ([]Record, error) {
	if err := s.authz.Require(session, auth.PermPayrollRead); err != nil {
		return nil, err
	}
	filters := []func(Record) bool{}
	if companyID != "" {
		filters = append(filters, func(r Record) bool { return r.CompanyID == companyID })
	}
	if session.SelfScoped() {
		self := session.Profile.EmployeeID
		filters = append(filters, func(r Record) bool { return self != "" && r.EmployeeID == self })
	}
	return s.records.List(ctx, filters...)
}

func (s *Service) GetRecord(ctx context.Context, session auth.Session, id string) (Record, error) {
	if err := s.authz.Require(session, auth.PermPayrollRead); err != nil {
		return Record{}, err
	}
	record, _, err := s.records.Get(ctx, id)
	if errors.Is(err, kv.ErrNotFound) {
		return Record{}, ErrRecordNotFound
	}
	if err != nil {
		return Record{}, err
	}
	if session.SelfScoped() && record.EmployeeID != session.Profile.EmployeeID {
		return Record{}, ErrRecordNotFound
	}
	return record, nil
}

// Payslip gathers what WritePayslipPDF needs. Records whose employee or
// company has since been removed still render with the ids alone.
func (s *Service) Payslip(ctx context.Context, session auth.Session, id string) (Payslip, error) {
	record, err := s.GetRecord(ctx, session, id)
	if err != nil {
		return Payslip{}, err
	}
	slip := Payslip{
		Record:   record,
		Employee: core.Employee{ID: record.EmployeeID, Name: record.EmployeeID},
		Company:  company.Company{ID: record.CompanyID, Name: record.CompanyID},
	}
	if emp, err := s.employees.Lookup(ctx, record.EmployeeID); err == nil {
		slip.Employee = emp
	} else if !errors.Is(err, core.ErrNotFound) {
		return Payslip{}, err
	}
	if c, err := s.companies.Lookup(ctx, record.CompanyID); err == nil {
		slip.Company = c
	} else if !errors.Is(err, company.ErrNotFound) {
		return Payslip{}, err
	}
	return slip, nil
}

func (s *Service) Kind() string {
	return "payroll records"
}

func (s *Service) CountByCompany(ctx context.Context, companyID string) (int, error) {
	items, err := s.records.List(ctx, func(r Record) bool { return r.CompanyID == companyID })
	return len(items), err
}

func (s *Service) RemoveByCompany(ctx context.Context, companyID string) (int, error) {
	items, err := s.records.List(ctx, func(r Record) bool { return r.CompanyID == companyID })
	if err != nil {
		return 0, err
	}
	for _, item := range items {
		if err := s.records.Remove(ctx, item.ID); err != nil {
			return 0, err
		}
	}
	return len(items), nil
}

func advisoryRequest(emp core.Employee, adj Adjustments) advisory.Request {
	return advisory.Request{
		Employee:        emp,
		OvertimeHours:   adj.OvertimeHours,
		OvertimeRate:    adj.OvertimeRate,
		Bonus:           adj.Bonus,
		UnpaidLeaveDays: adj.UnpaidLeaveDays,
		UnpaidLeaveRate: adj.UnpaidLeaveRate,
		TaxPercent:      adj.TaxPercent,
		VATPercent:      adj.VATPercent,
	}
}

// resolvePeriod defaults to the month of now and normalizes the month to its
// short English name.
func resolvePeriod(p Period, now time.Time) (Period, error) {
	if p.Month == "" && p.Year == 0 {
		return Period{Month: now.Format("Jan"), Year: now.Year()}, nil
	}
	if p.Year == 0 {
		p.Year = now.Year()
	}
	if p.Year < 1900 || p.Year > 9999 {
		return Period{}, fmt.Errorf("%w: year %d", ErrInvalidPeriod, p.Year)
	}
	if p.Month == "" {
		p.Month = now.Format("Jan")
		return p, nil
	}
	for _, layout := range []string{"Jan", "January", "1", "01"} {
		if parsed, err := time.Parse(layout, p.Month); err == nil {
			p.Month = parsed.Format("Jan")
			return p, nil
		}
	}
	return Period{}, fmt.Errorf("%w: month %q", ErrInvalidPeriod, p.Month)
}
