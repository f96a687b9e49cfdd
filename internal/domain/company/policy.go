package company

import (
	"context"
	"fmt"
)

// DeletePolicy decides what happens to a company's employees and payroll
// records when the company is deleted.
type DeletePolicy string

const (
	// DeleteOrphan leaves dependents in place.
	DeleteOrphan DeletePolicy = "orphan"
	// DeleteBlock refuses while dependents exist.
	DeleteBlock DeletePolicy = "block"
	// DeleteCascade removes dependents first. Not atomic.
	DeleteCascade DeletePolicy = "cascade"
)

func ParseDeletePolicy(raw string) (DeletePolicy, error) {
	switch DeletePolicy(raw) {
	case "":
		return DeleteOrphan, nil
	case DeleteOrphan, DeleteBlock, DeleteCascade:
		return DeletePolicy(raw), nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidPolicy, raw)
}

// Dependents is implemented by the registries that hold per-company data.
type Dependents interface {
	// CountByCompany reports how many items reference the company.
	CountByCompany(ctx context.Context, companyID string) (int, error)
	// RemoveByCompany deletes every item referencing the company.
	RemoveByCompany(ctx context.Context, companyID string) (int, error)
	// Kind names the dependent collection in logs and errors.
	Kind() string
}
