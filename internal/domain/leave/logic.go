package leave

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// DaysPerMonth divides basic salary into the default daily deduction rate.
const DaysPerMonth = 30

var ErrInvalidRange = errors.New("end date before start date")

// CalculateDays returns inclusive day count between start and end.
func CalculateDays(start, end time.Time) (float64, error) {
	if end.Before(start) {
		return 0, ErrInvalidRange
	}
	return end.Sub(start).Hours()/24 + 1, nil
}

// Sync is the unpaid-leave suggestion used to pre-fill a payroll run.
type Sync struct {
	EmployeeID string   `json:"employeeId"`
	Days       float64  `json:"days"`
	Rate       float64  `json:"rate"`
	Synced     bool     `json:"synced"`
	RequestIDs []string `json:"requestIds"`
}

// SyncUnpaid sums the inclusive spans of approved unpaid requests and proposes
// basic/30 as the per-day rate. Requests with unreadable dates are skipped.
func SyncUnpaid(requests []Request, basic float64) Sync {
	out := Sync{
		Rate:       decimal.NewFromFloat(basic).Div(decimal.NewFromInt(DaysPerMonth)).Round(2).InexactFloat64(),
		RequestIDs: []string{},
	}
	for _, r := range requests {
		if r.Status != StatusApproved || r.PaymentStatus != PaymentUnpaid {
			continue
		}
		start, err := parseDay(r.StartDate)
		if err != nil {
			continue
		}
		end, err := parseDay(r.EndDate)
		if err != nil {
			continue
		}
		days, err := CalculateDays(start, end)
		if err != nil {
			continue
		}
		out.Days += days
		out.RequestIDs = append(out.RequestIDs, r.ID)
	}
	out.Synced = out.Days > 0
	return out
}

func parseDay(value string) (time.Time, error) {
	if len(value) > len("2006-01-02") {
		value = value[:len("2006-01-02")]
	}
	return time.Parse("2006-01-02", value)
}
