package leave

import "time"

type Type string

const (
	TypeAnnual    Type = "Annual"
	TypeSick      Type = "Sick"
	TypeUnpaid    Type = "Unpaid"
	TypeEmergency Type = "Emergency"
)

var Types = []string{string(TypeAnnual), string(TypeSick), string(TypeUnpaid), string(TypeEmergency)}

type Status string

const (
	StatusPending  Status = "Pending"
	StatusApproved Status = "Approved"
	StatusRejected Status = "Rejected"
)

func (s Status) Terminal() bool {
	return s == StatusApproved || s == StatusRejected
}

type PaymentStatus string

const (
	PaymentPaid   PaymentStatus = "Paid"
	PaymentUnpaid PaymentStatus = "Unpaid"
)

// Request dates are calendar days in YYYY-MM-DD form.
type Request struct {
	ID            string        `json:"id"`
	EmployeeID    string        `json:"employeeId"`
	Type          Type          `json:"type"`
	StartDate     string        `json:"startDate"`
	EndDate       string        `json:"endDate"`
	Reason        string        `json:"reason"`
	Status        Status        `json:"status"`
	PaymentStatus PaymentStatus `json:"paymentStatus,omitempty"`
	AppliedAt     time.Time     `json:"appliedAt"`
}

type SubmitInput struct {
	Type      Type   `json:"type"`
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
	Reason    string `json:"reason"`
}

type Decision struct {
	Status        Status        `json:"status"`
	PaymentStatus PaymentStatus `json:"paymentStatus,omitempty"`
}
