// Package advisory talks to the remote generative model that explains payroll
// figures. Its output is never used for amounts.
package advisory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"zenpayroll/internal/domain/core"
)

var (
	ErrUnavailable = errors.New("payroll advisory unavailable")
	ErrMalformed   = errors.New("payroll advisory returned a malformed response")

	// ErrDisabled is returned when no credential is configured. It is the only
	// failure the fallbacks do not log.
	ErrDisabled = fmt.Errorf("%w: no credential configured", ErrUnavailable)
)

const FallbackExplanation = "Tax and VAT were calculated locally from the configured percentages of gross salary. A detailed explanation is not available right now."

type Request struct {
	Employee        core.Employee `json:"employee"`
	OvertimeHours   float64       `json:"overtimeHours"`
	OvertimeRate    float64       `json:"overtimeRate"`
	Bonus           float64       `json:"bonus"`
	UnpaidLeaveDays float64       `json:"unpaidLeaveDays"`
	UnpaidLeaveRate float64       `json:"unpaidLeaveRate"`
	TaxPercent      float64       `json:"taxPercent"`
	VATPercent      float64       `json:"vatPercent"`
}

// Advice is the only shape the rest of the system sees.
type Advice struct {
	TaxExplanation string `json:"taxExplanation"`
	Warning        string `json:"warning,omitempty"`
}

type Summary struct {
	TotalEmployees   int                `json:"totalEmployees"`
	TotalMonthlyCost float64            `json:"totalMonthlyCost"`
	DepartmentCost   map[string]float64 `json:"departmentCost"`
}

type InsightType string

const (
	InsightSaving  InsightType = "saving"
	InsightWarning InsightType = "warning"
	InsightInfo    InsightType = "info"
)

type Insight struct {
	Type    InsightType `json:"type"`
	Message string      `json:"message"`
	Action  string      `json:"action,omitempty"`
}

type Advisor interface {
	Advise(ctx context.Context, req Request) (Advice, error)
	Insights(ctx context.Context, summary Summary) ([]Insight, error)
}

// Disabled is used when no credential is configured.
type Disabled struct{}

func (Disabled) Advise(context.Context, Request) (Advice, error) {
	return Advice{}, ErrDisabled
}

func (Disabled) Insights(context.Context, Summary) ([]Insight, error) {
	return nil, ErrDisabled
}

// Resolve asks the advisor and falls back to the generic explanation on any
// failure. The second result reports whether the advisor answered.
func Resolve(ctx context.Context, advisor Advisor, req Request) (Advice, bool) {
	if advisor == nil {
		return Advice{TaxExplanation: FallbackExplanation}, false
	}
	advice, err := advisor.Advise(ctx, req)
	if err != nil {
		if !errors.Is(err, ErrDisabled) {
			slog.Warn("payroll advisory failed", "employeeId", req.Employee.ID, "error", err)
		}
		return Advice{TaxExplanation: FallbackExplanation}, false
	}
	if advice.TaxExplanation == "" {
		advice.TaxExplanation = FallbackExplanation
	}
	return advice, true
}

// ResolveInsights returns an empty list when the advisor fails.
func ResolveInsights(ctx context.Context, advisor Advisor, summary Summary) []Insight {
	if advisor == nil {
		return []Insight{}
	}
	insights, err := advisor.Insights(ctx, summary)
	if err != nil {
		if !errors.Is(err, ErrDisabled) {
			slog.Warn("payroll insights failed", "error", err)
		}
		return []Insight{}
	}
	return insights
}
