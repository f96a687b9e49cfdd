package payroll

import "errors"

var (
	ErrRecordNotFound = errors.New("payroll record not found")
	ErrNetMismatch    = errors.New("net salary does not equal gross minus deductions")
	ErrInvalidPeriod  = errors.New("invalid payroll period")
)
