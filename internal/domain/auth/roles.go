package auth

import "fmt"

type Role string

const (
	RoleAdmin      Role = "Admin"
	RoleHR         Role = "HR"
	RoleAccountant Role = "Accountant"
	RoleEmployee   Role = "Employee"
)

var Roles = []Role{RoleAdmin, RoleHR, RoleAccountant, RoleEmployee}

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleHR, RoleAccountant, RoleEmployee:
		return true
	}
	return false
}

func ParseRole(raw string) (Role, error) {
	role := Role(raw)
	if !role.Valid() {
		return "", fmt.Errorf("unknown role %q", raw)
	}
	return role, nil
}

// Navigation sections of the dashboard.
const (
	TabDashboard       = "dashboard"
	TabEmployees       = "employees"
	TabPayroll         = "payroll"
	TabLedger          = "ledger"
	TabReports         = "reports"
	TabLeaveManagement = "leave-management"
	TabRoleManagement  = "role-management"
	TabLeaveRequest    = "leave-request"
	TabLeaveHistory    = "leave-history"
	TabProfile         = "profile"
)

var tabRoles = []struct {
	tab   string
	roles []Role
}{
	{TabDashboard, []Role{RoleAdmin, RoleHR, RoleAccountant}},
	{TabEmployees, []Role{RoleAdmin, RoleHR}},
	{TabPayroll, []Role{RoleAdmin, RoleAccountant}},
	{TabLedger, []Role{RoleAdmin, RoleAccountant}},
	{TabReports, []Role{RoleAdmin, RoleHR}},
	{TabLeaveManagement, []Role{RoleAdmin, RoleHR}},
	{TabRoleManagement, []Role{RoleAdmin, RoleHR}},
	{TabLeaveRequest, []Role{RoleEmployee}},
	{TabLeaveHistory, []Role{RoleEmployee}},
	{TabProfile, Roles},
}

// VisibleTabs lists the sections shown to role, in menu order.
func VisibleTabs(role Role) []string {
	var tabs []string
	for _, entry := range tabRoles {
		for _, allowed := range entry.roles {
			if allowed == role {
				tabs = append(tabs, entry.tab)
				break
			}
		}
	}
	return tabs
}
