package payroll

import (
	"time"

	"zenpayroll/internal/domain/core"
)

// Adjustments are the period-specific inputs of a payroll run.
type Adjustments struct {
	OvertimeHours   float64 `json:"overtimeHours"`
	OvertimeRate    float64 `json:"overtimeRate"`
	Bonus           float64 `json:"bonus"`
	UnpaidLeaveDays float64 `json:"unpaidLeaveDays"`
	UnpaidLeaveRate float64 `json:"unpaidLeaveRate"`
	TaxPercent      float64 `json:"taxPercent"`
	VATPercent      float64 `json:"vatPercent"`
}

// Preview is the locally computed payslip. CustomItems are shown but never
// enter the totals.
type Preview struct {
	BasePay        float64                 `json:"basePay"`
	OvertimeTotal  float64                 `json:"overtimeTotal"`
	Bonus          float64                 `json:"bonus"`
	LeaveDeduction float64                 `json:"leaveDeduction"`
	Gross          float64                 `json:"grossSalary"`
	Tax            float64                 `json:"tax"`
	VAT            float64                 `json:"vat"`
	Net            float64                 `json:"netSalary"`
	CustomItems    []core.CustomSalaryItem `json:"customItems"`
}

// Record is a disbursed payslip. Records are append-only.
type Record struct {
	ID              string         `json:"id"`
	EmployeeID      string         `json:"employeeId"`
	CompanyID       string         `json:"companyId"`
	Month           string         `json:"month"`
	Year            int            `json:"year"`
	GrossSalary     float64        `json:"grossSalary"`
	NetSalary       float64        `json:"netSalary"`
	Tax             float64        `json:"tax"`
	VAT             float64        `json:"vat"`
	OtherDeductions float64        `json:"otherDeductions"`
	Bonuses         float64        `json:"bonuses"`
	OvertimeHours   float64        `json:"overtimeHours"`
	OvertimeRate    float64        `json:"overtimeRate"`
	UnpaidLeaves    float64        `json:"unpaidLeaves"`
	UnpaidLeaveRate float64        `json:"unpaidLeaveRate"`
	TaxPercent      float64        `json:"taxPercent"`
	VATPercent      float64        `json:"vatPercent"`
	Status          Status         `json:"status"`
	Breakdown       map[string]any `json:"breakdown"`
	GeneratedAt     time.Time      `json:"generatedAt"`
}

// Period names the month a record is filed under. A zero Period means the
// current month.
type Period struct {
	Month string `json:"month"`
	Year  int    `json:"year"`
}
