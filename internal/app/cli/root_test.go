package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zenpayroll/internal/platform/config"
)

func testOptions(t *testing.T) *RootOptions {
	t.Helper()
	path := filepath.Join(t.TempDir(), "zp.db")
	return &RootOptions{loadConfig: func() config.Config {
		return config.Config{
			Addr:                ":0",
			Environment:         "test",
			StorageDriver:       "sqlite",
			StoragePath:         path,
			JWTSecret:           "test-secret",
			JWTTTL:              time.Hour,
			AuthzMode:           "enforce",
			CompanyDeletePolicy: "orphan",
			LeaveAmendPolicy:    "forbid",
			SeedDemoAccounts:    true,
			MaxBodyBytes:        1 << 20,
			RateLimit:           "100-M",
		}
	}}
}

func run(t *testing.T, opts *RootOptions, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand(opts)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "zenpayroll", cmd.Use)

	for _, name := range []string{"serve", "seed", "export", "import", "calc", "dashboard"} {
		t.Run(name, func(t *testing.T) {
			sub, _, err := cmd.Find([]string{name})
			require.NoError(t, err)
			assert.Equal(t, name, sub.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()
	verbose := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verbose)
	assert.Equal(t, "v", verbose.Shorthand)
	format := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, format)
	assert.Equal(t, "text", format.DefValue)
}

func TestInvalidFormatRejected(t *testing.T) {
	_, err := run(t, testOptions(t), "calc", "--format", "yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
}

func TestCalcJSON(t *testing.T) {
	out, err := run(t, testOptions(t), "calc", "--format", "json",
		"--basic", "30000", "--hra", "10000", "--transport", "2000", "--medical", "1000",
		"--overtime-hours", "10", "--overtime-rate", "200", "--bonus", "5000",
		"--unpaid-days", "2", "--unpaid-rate", "1000", "--tax", "10", "--vat", "5")
	require.NoError(t, err)

	var resp struct {
		Status string `json:"status"`
		Data   struct {
			Gross float64 `json:"grossSalary"`
			Tax   float64 `json:"tax"`
			VAT   float64 `json:"vat"`
			Net   float64 `json:"netSalary"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 50000.0, resp.Data.Gross)
	assert.Equal(t, 5000.0, resp.Data.Tax)
	assert.Equal(t, 2500.0, resp.Data.VAT)
	assert.Equal(t, 40500.0, resp.Data.Net)
}

func TestCalcText(t *testing.T) {
	out, err := run(t, testOptions(t), "calc", "--basic", "1000", "--tax", "12.5")
	require.NoError(t, err)
	assert.Contains(t, out, "Gross")
	assert.Contains(t, out, "125.00")
}

func TestSeedExportImport(t *testing.T) {
	opts := testOptions(t)
	out, err := run(t, opts, "seed")
	require.NoError(t, err)
	assert.Contains(t, out, "store ready")

	snapPath := filepath.Join(t.TempDir(), "snap.json")
	_, err = run(t, opts, "export", "--out", snapPath)
	require.NoError(t, err)
	raw, err := os.ReadFile(snapPath)
	require.NoError(t, err)
	var snap map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw, &snap))
	assert.Contains(t, snap, "zp_companies")
	assert.Contains(t, snap, "zp_employees")

	target := testOptions(t)
	out, err = run(t, target, "import", "--in", snapPath, "--replace", "--format", "json")
	require.NoError(t, err)
	assert.Contains(t, out, `"status":"ok"`)

	out, err = run(t, target, "seed", "--format", "json")
	require.NoError(t, err)
	var resp struct {
		Data seedResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	var companies []json.RawMessage
	require.NoError(t, json.Unmarshal(snap["zp_companies"], &companies))
	assert.Equal(t, len(companies), resp.Data.Companies)
}

func TestImportRequiresFile(t *testing.T) {
	_, err := run(t, testOptions(t), "import", "--in", filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestDashboardForDemoAdmin(t *testing.T) {
	out, err := run(t, testOptions(t), "dashboard", "--email", "admin@zenpayroll.ai", "--password", "admin123", "--format", "json")
	require.NoError(t, err)
	var resp struct {
		Data dashboardResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "Admin", resp.Data.Role)
	assert.NotEmpty(t, resp.Data.Company)
	assert.Positive(t, resp.Data.Dashboard.ActiveEmployees)

	_, err = run(t, testOptions(t), "dashboard", "--email", "admin@zenpayroll.ai", "--password", "wrong")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
}
