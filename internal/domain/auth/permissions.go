package auth

// Permissions are "<object>.<action>" pairs checked by the Authorizer.
const (
	PermCompaniesRead    = "companies.read"
	PermCompaniesWrite   = "companies.write"
	PermDepartmentsRead  = "departments.read"
	PermDepartmentsWrite = "departments.write"
	PermEmployeesRead    = "employees.read"
	PermEmployeesWrite   = "employees.write"
	PermEmployeesRoles   = "employees.roles"
	PermPayrollRead      = "payroll.read"
	PermPayrollRun       = "payroll.run"
	PermLeaveSubmit      = "leave.submit"
	PermLeaveReadOwn     = "leave.read_own"
	PermLeaveRead        = "leave.read"
	PermLeaveApprove     = "leave.approve"
	PermReportsRead      = "reports.read"
	PermReportsInsights  = "reports.insights"
	PermAuditRead        = "audit.read"
)

var DefaultPermissions = []string{
	PermCompaniesRead,
	PermCompaniesWrite,
	PermDepartmentsRead,
	PermDepartmentsWrite,
	PermEmployeesRead,
	PermEmployeesWrite,
	PermEmployeesRoles,
	PermPayrollRead,
	PermPayrollRun,
	PermLeaveSubmit,
	PermLeaveReadOwn,
	PermLeaveRead,
	PermLeaveApprove,
	PermReportsRead,
	PermReportsInsights,
	PermAuditRead,
}

// RolePermissions is the built-in policy. Employee reads are narrowed to the
// caller's own records by the services.
var RolePermissions = map[Role][]string{
	RoleAdmin: DefaultPermissions,
	RoleHR: {
		PermCompaniesRead,
		PermDepartmentsRead,
		PermDepartmentsWrite,
		PermEmployeesRead,
		PermEmployeesWrite,
		PermEmployeesRoles,
		PermLeaveRead,
		PermLeaveApprove,
		PermReportsRead,
		PermReportsInsights,
	},
	RoleAccountant: {
		PermCompaniesRead,
		PermDepartmentsRead,
		PermEmployeesRead,
		PermPayrollRead,
		PermPayrollRun,
		PermReportsRead,
	},
	RoleEmployee: {
		PermCompaniesRead,
		PermDepartmentsRead,
		PermEmployeesRead,
		PermPayrollRead,
		PermLeaveSubmit,
		PermLeaveReadOwn,
		PermReportsRead,
	},
}
