package core

import "errors"

var (
	ErrNotFound          = errors.New("employee not found")
	ErrUnknownCompany    = errors.New("company does not exist")
	ErrDepartmentMissing = errors.New("department not found")
)
