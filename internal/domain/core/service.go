package core

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"zenpayroll/internal/domain/audit"
	"zenpayroll/internal/domain/auth"
	"zenpayroll/internal/domain/company"
	"zenpayroll/internal/domain/validation"
	"zenpayroll/internal/platform/kv"
)

// CompanyLookup resolves a tenant without an authorization check.
type CompanyLookup interface {
	Lookup(ctx context.Context, id string) (company.Company, error)
}

// RoleSync moves the login linked to an employee email to a new role.
type RoleSync interface {
	SetRole(ctx context.Context, email string, role auth.Role) error
}

type Service struct {
	employees   *kv.Collection[Employee]
	departments *kv.Collection[string]
	companies   CompanyLookup
	accounts    RoleSync
	authz       *auth.Authorizer
	audit       audit.Recorder
	now         func() time.Time
	intn        func(n int) int
}

func NewService(store kv.Store, authz *auth.Authorizer, recorder audit.Recorder, companies CompanyLookup, accounts RoleSync, seedEmployees func() []Employee, seedDepartments func() []string) *Service {
	return &Service{
		employees:   kv.NewCollection(store, kv.NSEmployees, func(e Employee) string { return e.ID }, seedEmployees),
		departments: kv.NewCollection(store, kv.NSDepartments, func(name string) string { return name }, seedDepartments),
		companies:   companies,
		accounts:    accounts,
		authz:       authz,
		audit:       recorder,
		now:         time.Now,
		intn:        rand.IntN,
	}
}

// ListEmployees returns the employees of companyID, or of every company when
// companyID is empty. Employee-role sessions only see their own record.
func (s *Service) ListEmployees(ctx context.Context, session auth.Session, companyID string) ([]Employee, error) {
	if err := s.authz.Require(session, auth.PermEmployeesRead); err != nil {
		return nil, err
	}
	filters := []func(Employee) bool{}
	if companyID != "" {
		filters = append(filters, func(e Employee) bool { return e.CompanyID == companyID })
	}
	if session.SelfScoped() {
		self := session.Profile.EmployeeID
		filters = append(filters, func(e Employee) bool { return self != "" && e.ID == self })
	}
	return s.employees.List(ctx, filters...)
}

func (s *Service) GetEmployee(ctx context.Context, session auth.Session, id string) (Employee, error) {
	if err := s.authz.Require(session, auth.PermEmployeesRead); err != nil {
		return Employee{}, err
	}
	emp, err := s.Lookup(ctx, id)
	if err != nil {
		return Employee{}, err
	}
	FilterEmployeeFields(&emp, session)
	return emp, nil
}

// Lookup reads an employee without an authorization check.
func (s *Service) Lookup(ctx context.Context, id string) (Employee, error) {
	emp, _, err := s.employees.Get(ctx, id)
	if errors.Is(err, kv.ErrNotFound) {
		return Employee{}, ErrNotFound
	}
	return emp, err
}

func (s *Service) AddEmployee(ctx context.Context, session auth.Session, companyID string, input EmployeeInput) (Employee, error) {
	if err := s.authz.Require(session, auth.PermEmployeesWrite); err != nil {
		return Employee{}, err
	}
	input = normalizeInput(input)
	if err := validateInput(input); err != nil {
		return Employee{}, err
	}
	owner, err := s.companies.Lookup(ctx, companyID)
	if errors.Is(err, company.ErrNotFound) {
		return Employee{}, fmt.Errorf("%w: %s", ErrUnknownCompany, companyID)
	}
	if err != nil {
		return Employee{}, err
	}
	if input.Country == "" {
		input.Country = string(owner.DefaultCountry)
	}
	if input.JoinDate == "" {
		input.JoinDate = s.now().Format("2006-01-02")
	}
	if input.Status == "" {
		input.Status = StatusActive
	}
	if input.SystemRole == "" {
		input.SystemRole = auth.RoleEmployee
	}

	created, err := s.employees.AddUnique(ctx, func(int) Employee {
		emp := fromInput(input)
		emp.ID = fmt.Sprintf("EMP%d", 1000+s.intn(9000))
		emp.CompanyID = owner.ID
		return emp
	})
	if err != nil {
		return Employee{}, err
	}
	audit.Log(ctx, s.audit, session.Actor(), "employee.create", "employee", created.ID, nil, created)
	return created, nil
}

// UpdateEmployee replaces the editable fields of an employee. The company and
// system role are kept; role changes go through UpdateRole.
func (s *Service) UpdateEmployee(ctx context.Context, session auth.Session, id string, input EmployeeInput) (Employee, error) {
	if err := s.authz.Require(session, auth.PermEmployeesWrite); err != nil {
		return Employee{}, err
	}
	input = normalizeInput(input)
	if err := validateInput(input); err != nil {
		return Employee{}, err
	}
	return s.modify(ctx, session, id, "employee.update", func(current Employee) Employee {
		next := fromInput(input)
		next.ID = current.ID
		next.CompanyID = current.CompanyID
		next.SystemRole = current.SystemRole
		if next.Status == "" {
			next.Status = current.Status
		}
		if next.Country == "" {
			next.Country = current.Country
		}
		if next.JoinDate == "" {
			next.JoinDate = current.JoinDate
		}
		return next
	})
}

func (s *Service) UpdateRole(ctx context.Context, session auth.Session, id string, role auth.Role) (Employee, error) {
	if err := s.authz.Require(session, auth.PermEmployeesRoles); err != nil {
		return Employee{}, err
	}
	if !role.Valid() {
		v := validation.New()
		v.Add("systemRole", "must be one of Admin, HR, Accountant, Employee")
		return Employee{}, v.Err()
	}
	updated, err := s.modify(ctx, session, id, "employee.role", func(current Employee) Employee {
		current.SystemRole = role
		return current
	})
	if err != nil {
		return Employee{}, err
	}
	if s.accounts != nil && updated.Email != "" {
		if err := s.accounts.SetRole(ctx, updated.Email, role); err != nil {
			return updated, fmt.Errorf("sync account role: %w", err)
		}
	}
	return updated, nil
}

// SetStatus activates or deactivates an employee.
func (s *Service) SetStatus(ctx context.Context, session auth.Session, id string, status Status) (Employee, error) {
	if err := s.authz.Require(session, auth.PermEmployeesRoles); err != nil {
		return Employee{}, err
	}
	if !status.Valid() {
		v := validation.New()
		v.Add("status", "must be Active or Inactive")
		return Employee{}, v.Err()
	}
	return s.modify(ctx, session, id, "employee.status", func(current Employee) Employee {
		current.Status = status
		return current
	})
}

// RemoveEmployee revokes access by deleting the employee record. Payroll
// records and leave requests referencing it are kept.
func (s *Service) RemoveEmployee(ctx context.Context, session auth.Session, id string) error {
	if err := s.authz.Require(session, auth.PermEmployeesRoles); err != nil {
		return err
	}
	current, version, err := s.employees.Get(ctx, id)
	if errors.Is(err, kv.ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	if err := s.employees.Delete(ctx, id, version); err != nil {
		if errors.Is(err, kv.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	audit.Log(ctx, s.audit, session.Actor(), "employee.delete", "employee", id, current, nil)
	return nil
}

func (s *Service) modify(ctx context.Context, session auth.Session, id, action string, change func(Employee) Employee) (Employee, error) {
	current, version, err := s.employees.Get(ctx, id)
	if errors.Is(err, kv.ErrNotFound) {
		return Employee{}, ErrNotFound
	}
	if err != nil {
		return Employee{}, err
	}
	next := change(current)
	if _, err := s.employees.Replace(ctx, next, version); err != nil {
		if errors.Is(err, kv.ErrNotFound) {
			return Employee{}, ErrNotFound
		}
		return Employee{}, err
	}
	audit.Log(ctx, s.audit, session.Actor(), action, "employee", id, current, next)
	return next, nil
}

func (s *Service) ListDepartments(ctx context.Context, session auth.Session) ([]string, error) {
	if err := s.authz.Require(session, auth.PermDepartmentsRead); err != nil {
		return nil, err
	}
	return s.departments.List(ctx)
}

// AddDepartment adds name if it is not already present and returns the full
// list.
func (s *Service) AddDepartment(ctx context.Context, session auth.Session, name string) ([]string, error) {
	if err := s.authz.Require(session, auth.PermDepartmentsWrite); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		v := validation.New()
		v.Add("name", "is required")
		return nil, v.Err()
	}
	_, err := s.departments.Add(ctx, name)
	switch {
	case err == nil:
		audit.Log(ctx, s.audit, session.Actor(), "department.create", "department", name, nil, name)
	case errors.Is(err, kv.ErrAlreadyExists):
	default:
		return nil, err
	}
	return s.departments.List(ctx)
}

// DeleteDepartment removes name and returns the remaining list. Employees
// keep the department name they were filed under.
func (s *Service) DeleteDepartment(ctx context.Context, session auth.Session, name string) ([]string, error) {
	if err := s.authz.Require(session, auth.PermDepartmentsWrite); err != nil {
		return nil, err
	}
	if err := s.departments.Remove(ctx, name); err != nil {
		return nil, err
	}
	audit.Log(ctx, s.audit, session.Actor(), "department.delete", "department", name, name, nil)
	return s.departments.List(ctx)
}

// EmployeeIDByEmail links a login to its employee record. An unknown email
// yields an empty id.
func (s *Service) EmployeeIDByEmail(ctx context.Context, email string) (string, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return "", nil
	}
	matches, err := s.employees.List(ctx, func(e Employee) bool {
		return strings.EqualFold(e.Email, email)
	})
	if err != nil || len(matches) == 0 {
		return "", err
	}
	return matches[0].ID, nil
}

func (s *Service) Kind() string {
	return "employees"
}

func (s *Service) CountByCompany(ctx context.Context, companyID string) (int, error) {
	items, err := s.employees.List(ctx, func(e Employee) bool { return e.CompanyID == companyID })
	return len(items), err
}

func (s *Service) RemoveByCompany(ctx context.Context, companyID string) (int, error) {
	items, err := s.employees.List(ctx, func(e Employee) bool { return e.CompanyID == companyID })
	if err != nil {
		return 0, err
	}
	for _, item := range items {
		if err := s.employees.Remove(ctx, item.ID); err != nil {
			return 0, err
		}
	}
	return len(items), nil
}

func normalizeInput(input EmployeeInput) EmployeeInput {
	input.Name = strings.TrimSpace(input.Name)
	input.Email = strings.TrimSpace(input.Email)
	input.Role = strings.TrimSpace(input.Role)
	input.Department = strings.TrimSpace(input.Department)
	if input.SalaryStructure.CustomItems == nil {
		input.SalaryStructure.CustomItems = []CustomSalaryItem{}
	}
	return input
}

func validateInput(input EmployeeInput) error {
	v := validation.New()
	v.Required("name", input.Name, "is required")
	v.Required("email", input.Email, "is required")
	v.Email("email", input.Email)
	v.Enum("status", string(input.Status), []string{string(StatusActive), string(StatusInactive)}, "must be Active or Inactive")
	if input.SystemRole != "" && !input.SystemRole.Valid() {
		v.Add("systemRole", "must be one of Admin, HR, Accountant, Employee")
	}
	if input.Country != "" && !company.Country(input.Country).Valid() {
		v.Add("country", "must be one of BD, KSA, UAE, USA")
	}
	if input.JoinDate != "" {
		v.Date("joinDate", input.JoinDate)
	}
	salary := input.SalaryStructure
	v.NonNegative("salaryStructure.basic", salary.Basic)
	v.NonNegative("salaryStructure.hra", salary.HRA)
	v.NonNegative("salaryStructure.transport", salary.Transport)
	v.NonNegative("salaryStructure.medical", salary.Medical)
	for i, item := range salary.CustomItems {
		if item.Type != ItemAllowance && item.Type != ItemDeduction {
			v.Add(fmt.Sprintf("salaryStructure.customItems[%d].type", i), "must be allowance or deduction")
		}
	}
	return v.Err()
}

func fromInput(input EmployeeInput) Employee {
	return Employee{
		Name:            input.Name,
		Role:            input.Role,
		Department:      input.Department,
		Status:          input.Status,
		Email:           input.Email,
		SalaryStructure: input.SalaryStructure,
		Country:         input.Country,
		JoinDate:        input.JoinDate,
		SystemRole:      input.SystemRole,
	}
}
