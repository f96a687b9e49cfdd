package company

import "errors"

var (
	ErrNotFound      = errors.New("company not found")
	ErrCompanyInUse  = errors.New("company still has employees or payroll records")
	ErrInvalidPolicy = errors.New("invalid company delete policy")
)
