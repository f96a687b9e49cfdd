package payroll

type Status string

const (
	StatusPending Status = "Pending"
	StatusPaid    Status = "Paid"
)

// Breakdown keys written on every disbursed record.
const (
	BreakdownBaseTotal      = "baseTotal"
	BreakdownOvertimePay    = "overtimePay"
	BreakdownBonusAmount    = "bonusAmount"
	BreakdownLeaveDeduction = "leaveDeduction"
	BreakdownTaxExplanation = "taxExplanation"
	BreakdownComplianceNote = "complianceNote"
	BreakdownCustomItems    = "customItems"
)
