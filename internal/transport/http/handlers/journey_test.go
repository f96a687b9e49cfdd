package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"zenpayroll/internal/app/server"
	"zenpayroll/internal/platform/config"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string         `json:"code"`
		Message string         `json:"message"`
		Details map[string]any `json:"details"`
	} `json:"error"`
}

func testConfig() config.Config {
	return config.Config{
		Environment:         "test",
		StorageDriver:       "memory",
		JWTSecret:           "test-secret",
		JWTTTL:              time.Hour,
		AuthzMode:           "enforce",
		CompanyDeletePolicy: "block",
		LeaveAmendPolicy:    "forbid",
		AllowSelfSignup:     true,
		SeedDemoAccounts:    true,
		MaxBodyBytes:        1 << 20,
		RateLimit:           "1000-M",
		MetricsEnabled:      true,
	}
}

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	app, err := server.New(context.Background(), testConfig())
	if err != nil {
		t.Fatalf("failed to start app: %v", err)
	}
	t.Cleanup(func() { app.Close() })
	ts := httptest.NewServer(app.Router)
	t.Cleanup(ts.Close)
	return ts
}

func TestPayrollJourney(t *testing.T) {
	ts := newServer(t)
	client := ts.Client()

	admin := login(t, client, ts.URL, "admin@zenpayroll.ai", "admin123")
	hr := login(t, client, ts.URL, "hr@zenpayroll.ai", "hr123")
	acc := login(t, client, ts.URL, "acc@zenpayroll.ai", "acc123")

	var companies []map[string]any
	decode(t, call(t, client, http.MethodGet, ts.URL+"/api/v1/companies", admin, nil, http.StatusOK), &companies)
	if len(companies) != 2 || companies[0]["id"] != "C001" {
		t.Fatalf("unexpected companies %v", companies)
	}

	var employee map[string]any
	decode(t, call(t, client, http.MethodPost, ts.URL+"/api/v1/companies/C001/employees", hr, map[string]any{
		"name":       "Nadia Islam",
		"email":      "nadia@techflow.com",
		"role":       "QA Engineer",
		"department": "Engineering",
		"salaryStructure": map[string]any{
			"basic": 30000, "hra": 10000, "transport": 2000, "medical": 1000,
		},
	}, http.StatusCreated), &employee)
	employeeID, _ := employee["id"].(string)
	if !strings.HasPrefix(employeeID, "EMP") || employee["country"] != "BD" {
		t.Fatalf("unexpected employee %v", employee)
	}

	call(t, client, http.MethodPost, ts.URL+"/api/v1/auth/register", "", map[string]any{
		"name": "Nadia Islam", "email": "nadia@techflow.com", "password": "nadia123", "role": "Admin",
	}, http.StatusCreated)
	staff := login(t, client, ts.URL, "nadia@techflow.com", "nadia123")

	var me map[string]any
	decode(t, call(t, client, http.MethodGet, ts.URL+"/api/v1/auth/me", staff, nil, http.StatusOK), &me)
	user, _ := me["user"].(map[string]any)
	if user["role"] != "Employee" || user["employeeId"] != employeeID {
		t.Fatalf("self sign-up must yield a linked Employee login, got %v", user)
	}

	var request map[string]any
	decode(t, call(t, client, http.MethodPost, ts.URL+"/api/v1/leave/requests", staff, map[string]any{
		"type": "Unpaid", "startDate": "2024-03-10", "endDate": "2024-03-12", "reason": "family",
	}, http.StatusCreated), &request)
	requestID, _ := request["id"].(string)
	if request["status"] != "Pending" {
		t.Fatalf("unexpected request %v", request)
	}

	call(t, client, http.MethodPost, ts.URL+"/api/v1/leave/requests/"+requestID+"/decision", acc, map[string]any{"status": "Approved"}, http.StatusForbidden)
	call(t, client, http.MethodPost, ts.URL+"/api/v1/leave/requests/"+requestID+"/decision", hr, map[string]any{
		"status": "Approved", "paymentStatus": "Unpaid",
	}, http.StatusOK)
	call(t, client, http.MethodPost, ts.URL+"/api/v1/leave/requests/"+requestID+"/decision", hr, map[string]any{"status": "Rejected"}, http.StatusConflict)

	var sync map[string]any
	decode(t, call(t, client, http.MethodGet, ts.URL+"/api/v1/payroll/sync/"+employeeID, acc, nil, http.StatusOK), &sync)
	if sync["days"] != float64(3) || sync["rate"] != float64(1000) {
		t.Fatalf("unexpected sync %v", sync)
	}

	adjustments := map[string]any{
		"overtimeHours": 10, "overtimeRate": 200, "bonus": 5000,
		"unpaidLeaveDays": 3, "unpaidLeaveRate": 1000, "taxPercent": 10,
	}
	var quote map[string]any
	decode(t, call(t, client, http.MethodPost, ts.URL+"/api/v1/payroll/preview", acc,
		map[string]any{"employeeId": employeeID, "overtimeHours": 10, "overtimeRate": 200, "bonus": 5000, "unpaidLeaveDays": 3, "unpaidLeaveRate": 1000, "taxPercent": 10},
		http.StatusOK), &quote)
	preview, _ := quote["preview"].(map[string]any)
	if preview["grossSalary"] != float64(50000) || preview["netSalary"] != float64(42000) {
		t.Fatalf("unexpected preview %v", preview)
	}

	var record map[string]any
	decode(t, call(t, client, http.MethodPost, ts.URL+"/api/v1/payroll/disburse", acc, map[string]any{
		"employeeId": employeeID, "adjustments": adjustments, "period": map[string]any{"month": "March", "year": 2024},
	}, http.StatusCreated), &record)
	recordID, _ := record["id"].(string)
	if record["month"] != "Mar" || record["status"] != "Paid" || record["otherDeductions"] != float64(3000) {
		t.Fatalf("unexpected record %v", record)
	}
	call(t, client, http.MethodPost, ts.URL+"/api/v1/payroll/disburse", hr, map[string]any{"employeeId": employeeID}, http.StatusForbidden)

	var own []map[string]any
	decode(t, call(t, client, http.MethodGet, ts.URL+"/api/v1/companies/C001/payroll", staff, nil, http.StatusOK), &own)
	if len(own) != 1 || own[0]["id"] != recordID {
		t.Fatalf("employee should see only their record, got %v", own)
	}
	call(t, client, http.MethodGet, ts.URL+"/api/v1/companies/C001/payroll", hr, nil, http.StatusForbidden)

	csv := raw(t, client, ts.URL+"/api/v1/companies/C001/payroll/export", acc, http.StatusOK)
	if !strings.HasPrefix(csv, "ID,Employee,Month,Year,Gross,Net,Status") || !strings.Contains(csv, "Nadia Islam") {
		t.Fatalf("unexpected csv %q", csv)
	}
	pdf := raw(t, client, ts.URL+"/api/v1/payroll/"+recordID+"/payslip", staff, http.StatusOK)
	if !strings.HasPrefix(pdf, "%PDF") {
		t.Fatal("payslip should be a PDF document")
	}

	var dash map[string]any
	decode(t, call(t, client, http.MethodGet, ts.URL+"/api/v1/companies/C001/dashboard", acc, nil, http.StatusOK), &dash)
	if dash["totalPayroll"] != float64(50000) {
		t.Fatalf("unexpected dashboard %v", dash)
	}
	var insights []any
	decode(t, call(t, client, http.MethodPost, ts.URL+"/api/v1/companies/C001/insights", admin, nil, http.StatusOK), &insights)
	if len(insights) != 0 {
		t.Fatalf("disabled advisor should yield no insights, got %v", insights)
	}

	var events map[string]any
	decode(t, call(t, client, http.MethodGet, ts.URL+"/api/v1/audit?action=payroll.disburse", admin, nil, http.StatusOK), &events)
	if events["total"] != float64(1) {
		t.Fatalf("expected one disbursement event, got %v", events)
	}
	call(t, client, http.MethodGet, ts.URL+"/api/v1/audit", staff, nil, http.StatusForbidden)
	call(t, client, http.MethodGet, ts.URL+"/api/v1/audit?limit=abc", admin, nil, http.StatusBadRequest)
	var runs struct {
		Items []map[string]any `json:"items"`
		Total int              `json:"total"`
	}
	decode(t, call(t, client, http.MethodGet, ts.URL+"/api/v1/jobs", admin, nil, http.StatusOK), &runs)
	if runs.Total != 0 || len(runs.Items) != 0 {
		t.Fatalf("no jobs ran yet, got %+v", runs)
	}

	call(t, client, http.MethodDelete, ts.URL+"/api/v1/companies/C001", admin, nil, http.StatusConflict)

	call(t, client, http.MethodPost, ts.URL+"/api/v1/auth/logout", staff, nil, http.StatusOK)
	call(t, client, http.MethodGet, ts.URL+"/api/v1/auth/me", staff, nil, http.StatusUnauthorized)
}

func TestErrorEnvelopes(t *testing.T) {
	ts := newServer(t)
	client := ts.Client()

	call(t, client, http.MethodGet, ts.URL+"/api/v1/companies", "", nil, http.StatusUnauthorized)
	call(t, client, http.MethodPost, ts.URL+"/api/v1/auth/login", "", map[string]any{"email": "admin@zenpayroll.ai", "password": "nope"}, http.StatusUnauthorized)

	admin := login(t, client, ts.URL, "admin@zenpayroll.ai", "admin123")
	env := call(t, client, http.MethodPost, ts.URL+"/api/v1/companies/C001/employees", admin, map[string]any{
		"name": "", "email": "not-an-email",
	}, http.StatusBadRequest)
	if env.Error == nil || env.Error.Code != "validation_error" || env.Error.Details["fields"] == nil {
		t.Fatalf("expected field details, got %+v", env.Error)
	}
	call(t, client, http.MethodPost, ts.URL+"/api/v1/companies/C404/employees", admin, map[string]any{
		"name": "Ghost", "email": "ghost@example.com",
	}, http.StatusBadRequest)
	call(t, client, http.MethodPut, ts.URL+"/api/v1/employees/EMP404/status", admin, map[string]any{"status": "Inactive"}, http.StatusNotFound)
	call(t, client, http.MethodPost, ts.URL+"/api/v1/companies", admin, map[string]any{"name": "X", "unknown": true}, http.StatusBadRequest)
	call(t, client, http.MethodGet, ts.URL+"/api/v1/nowhere", admin, nil, http.StatusNotFound)

	resp, err := client.Get(ts.URL + "/readyz")
	if err != nil {
		t.Fatalf("readyz: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("readyz status %d", resp.StatusCode)
	}
}

func TestDepartmentsAndRoles(t *testing.T) {
	ts := newServer(t)
	client := ts.Client()
	hr := login(t, client, ts.URL, "hr@zenpayroll.ai", "hr123")
	acc := login(t, client, ts.URL, "acc@zenpayroll.ai", "acc123")

	var departments []string
	decode(t, call(t, client, http.MethodPost, ts.URL+"/api/v1/departments", hr, map[string]any{"name": " Legal "}, http.StatusCreated), &departments)
	if departments[len(departments)-1] != "Legal" {
		t.Fatalf("unexpected departments %v", departments)
	}
	decode(t, call(t, client, http.MethodDelete, ts.URL+"/api/v1/departments/Legal", hr, nil, http.StatusOK), &departments)
	for _, d := range departments {
		if d == "Legal" {
			t.Fatal("department should be removed")
		}
	}

	call(t, client, http.MethodPut, ts.URL+"/api/v1/employees/EMP001/role", acc, map[string]any{"role": "Admin"}, http.StatusForbidden)
	var updated map[string]any
	decode(t, call(t, client, http.MethodPut, ts.URL+"/api/v1/employees/EMP001/role", hr, map[string]any{"role": "HR"}, http.StatusOK), &updated)
	if updated["systemRole"] != "HR" {
		t.Fatalf("unexpected employee %v", updated)
	}
}

func login(t *testing.T, client *http.Client, baseURL, email, password string) string {
	t.Helper()
	resp := call(t, client, http.MethodPost, baseURL+"/api/v1/auth/login", "", map[string]any{
		"email":    email,
		"password": password,
	}, http.StatusOK)
	var payload map[string]any
	if err := json.Unmarshal(resp.Data, &payload); err != nil {
		t.Fatalf("failed to decode login response: %v", err)
	}
	token, _ := payload["token"].(string)
	if token == "" {
		t.Fatal("expected token")
	}
	return token
}

func call(t *testing.T, client *http.Client, method, url, token string, body any, want int) envelope {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal body: %v", err)
		}
		reader = bytes.NewBuffer(raw)
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("failed to create request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read response: %v", err)
	}
	if resp.StatusCode != want {
		t.Fatalf("%s %s: expected status %d, got %d: %s", method, url, want, resp.StatusCode, string(raw))
	}
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return env
}

func decode(t *testing.T, env envelope, dst any) {
	t.Helper()
	if err := json.Unmarshal(env.Data, dst); err != nil {
		t.Fatalf("failed to decode data: %v (%s)", err, string(env.Data))
	}
}

func raw(t *testing.T, client *http.Client, url, token string, want int) string {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		t.Fatalf("failed to create request: %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read response: %v", err)
	}
	if resp.StatusCode != want {
		t.Fatalf("GET %s: expected %d, got %d: %s", url, want, resp.StatusCode, string(body))
	}
	return string(body)
}
