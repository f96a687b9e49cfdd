package reports

import (
	"math"
	"sort"
	"time"

	"zenpayroll/internal/domain/auth"
	"zenpayroll/internal/domain/core"
	"zenpayroll/internal/domain/payroll"
)

const (
	chartMonths    = 6
	topDepartments = 5
)

type MonthTotal struct {
	Name  string  `json:"name"`
	Total float64 `json:"total"`
}

// Share is a whole-number percentage of a total.
type Share struct {
	Label string `json:"label"`
	Value int    `json:"value"`
}

type Payout struct {
	Amount float64 `json:"amount"`
	Month  string  `json:"month"`
	Year   int     `json:"year"`
}

type Dashboard struct {
	TotalPayroll    float64      `json:"totalPayroll"`
	ActiveEmployees int          `json:"activeEmployees"`
	AverageSalary   float64      `json:"averageSalary"`
	LastPayout      *Payout      `json:"lastPayout,omitempty"`
	Monthly         []MonthTotal `json:"monthly"`
	Breakdown       []Share      `json:"breakdown"`
}

// Build computes the dashboard figures. Employee-role dashboards sum net pay
// and break down their own salary; other roles sum gross pay and break down
// cost by department.
func Build(role auth.Role, employees []core.Employee, records []payroll.Record, now time.Time) Dashboard {
	self := role == auth.RoleEmployee
	amount := func(r payroll.Record) float64 {
		if self {
			return r.NetSalary
		}
		return r.GrossSalary
	}

	d := Dashboard{Monthly: make([]MonthTotal, 0, chartMonths), Breakdown: []Share{}}
	for _, r := range records {
		d.TotalPayroll += amount(r)
	}
	for _, e := range employees {
		if e.Status == core.StatusActive {
			d.ActiveEmployees++
		}
	}
	if len(records) > 0 {
		d.AverageSalary = d.TotalPayroll / float64(len(records))
		last := records[len(records)-1]
		d.LastPayout = &Payout{Amount: last.NetSalary, Month: last.Month, Year: last.Year}
	}

	// Records carry a month name only, so every year of that month counts.
	for i := chartMonths - 1; i >= 0; i-- {
		month := time.Month((int(now.Month())-1-i+12)%12 + 1)
		name := month.String()[:3]
		total := 0.0
		for _, r := range records {
			if r.Month == name {
				total += amount(r)
			}
		}
		d.Monthly = append(d.Monthly, MonthTotal{Name: name, Total: total})
	}

	if self {
		d.Breakdown = salaryShares(employees, records)
	} else {
		d.Breakdown = departmentShares(employees)
	}
	return d
}

func departmentShares(employees []core.Employee) []Share {
	totals := map[string]float64{}
	order := []string{}
	for _, e := range employees {
		if _, seen := totals[e.Department]; !seen {
			order = append(order, e.Department)
		}
		totals[e.Department] += e.SalaryStructure.Basic + e.SalaryStructure.HRA
	}
	sum := 0.0
	for _, v := range totals {
		sum += v
	}
	shares := make([]Share, 0, len(order))
	for _, dept := range order {
		shares = append(shares, Share{Label: dept, Value: percent(totals[dept], sum)})
	}
	sort.SliceStable(shares, func(i, j int) bool { return shares[i].Value > shares[j].Value })
	if len(shares) > topDepartments {
		shares = shares[:topDepartments]
	}
	return shares
}

func salaryShares(employees []core.Employee, records []payroll.Record) []Share {
	if len(employees) == 0 || len(records) == 0 {
		return []Share{}
	}
	s := employees[0].SalaryStructure
	allowances := s.HRA + s.Transport + s.Medical
	bonuses := records[len(records)-1].Bonuses
	sum := s.Basic + allowances + bonuses
	return []Share{
		{Label: "Basic", Value: percent(s.Basic, sum)},
		{Label: "Allowances", Value: percent(allowances, sum)},
		{Label: "Bonuses", Value: percent(bonuses, sum)},
	}
}

func percent(part, total float64) int {
	if total <= 0 {
		return 0
	}
	return int(math.Floor(part/total*100 + 0.5))
}
