package core

import (
	"strings"

	"zenpayroll/internal/domain/auth"
)

// FilterEmployeeFields strips what an employee-role caller may not see about
// a colleague. Other roles and the caller's own record pass through.
func FilterEmployeeFields(emp *Employee, session auth.Session) {
	if !session.SelfScoped() {
		return
	}
	if emp.ID == session.Profile.EmployeeID {
		return
	}
	if strings.EqualFold(emp.Email, session.Profile.Email) && emp.Email != "" {
		return
	}
	emp.Email = ""
	emp.SalaryStructure = SalaryStructure{CustomItems: []CustomSalaryItem{}}
}
