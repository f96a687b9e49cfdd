package core

import "zenpayroll/internal/domain/auth"

type Status string

const (
	StatusActive   Status = "Active"
	StatusInactive Status = "Inactive"
)

func (s Status) Valid() bool {
	return s == StatusActive || s == StatusInactive
}

type ItemType string

const (
	ItemAllowance ItemType = "allowance"
	ItemDeduction ItemType = "deduction"
)

// CustomSalaryItem is informational; it never enters payroll totals.
type CustomSalaryItem struct {
	ID     string   `json:"id"`
	Name   string   `json:"name"`
	Amount float64  `json:"amount"`
	Type   ItemType `json:"type"`
}

type SalaryStructure struct {
	Basic       float64            `json:"basic"`
	HRA         float64            `json:"hra"`
	Transport   float64            `json:"transport"`
	Medical     float64            `json:"medical"`
	CustomItems []CustomSalaryItem `json:"customItems"`
}

type Employee struct {
	ID              string          `json:"id"`
	Name            string          `json:"name"`
	Role            string          `json:"role"`
	Department      string          `json:"department"`
	Status          Status          `json:"status"`
	Email           string          `json:"email"`
	SalaryStructure SalaryStructure `json:"salaryStructure"`
	Country         string          `json:"country"`
	JoinDate        string          `json:"joinDate"`
	CompanyID       string          `json:"companyId"`
	SystemRole      auth.Role       `json:"systemRole,omitempty"`
}

// EffectiveRole treats records without a system role as plain employees.
func (e Employee) EffectiveRole() auth.Role {
	if e.SystemRole == "" {
		return auth.RoleEmployee
	}
	return e.SystemRole
}

// EmployeeInput is the writable part of an employee record.
type EmployeeInput struct {
	Name            string          `json:"name"`
	Role            string          `json:"role"`
	Department      string          `json:"department"`
	Status          Status          `json:"status"`
	Email           string          `json:"email"`
	SalaryStructure SalaryStructure `json:"salaryStructure"`
	Country         string          `json:"country"`
	JoinDate        string          `json:"joinDate"`
	SystemRole      auth.Role       `json:"systemRole,omitempty"`
}
