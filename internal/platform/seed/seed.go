// Package seed loads the reference dataset written into empty namespaces.
package seed

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"zenpayroll/internal/domain/company"
	"zenpayroll/internal/domain/core"
)

//go:embed seed.yaml
var builtin []byte

type Data struct {
	Companies   []company.Company `json:"companies"`
	Departments []string          `json:"departments"`
	Employees   []core.Employee   `json:"employees"`
}

// Load reads path, or the built-in dataset when path is empty.
func Load(path string) (Data, error) {
	if path == "" {
		return Parse(builtin)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return Data{}, fmt.Errorf("read seed file: %w", err)
	}
	return Parse(raw)
}

// Parse decodes a YAML document. Field names follow the JSON shape of the
// stored records, so the document is bridged through JSON.
func Parse(raw []byte) (Data, error) {
	var doc any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return Data{}, fmt.Errorf("parse seed: %w", err)
	}
	bridged, err := json.Marshal(doc)
	if err != nil {
		return Data{}, fmt.Errorf("parse seed: %w", err)
	}
	var data Data
	if err := json.Unmarshal(bridged, &data); err != nil {
		return Data{}, fmt.Errorf("parse seed: %w", err)
	}
	for i := range data.Employees {
		if data.Employees[i].SalaryStructure.CustomItems == nil {
			data.Employees[i].SalaryStructure.CustomItems = []core.CustomSalaryItem{}
		}
	}
	return data, nil
}

// The accessors return fresh copies so callers can mutate what they get.

func (d Data) CompaniesFunc() func() []company.Company {
	return func() []company.Company {
		return append([]company.Company(nil), d.Companies...)
	}
}

func (d Data) DepartmentsFunc() func() []string {
	return func() []string {
		return append([]string(nil), d.Departments...)
	}
}

func (d Data) EmployeesFunc() func() []core.Employee {
	return func() []core.Employee {
		out := make([]core.Employee, len(d.Employees))
		for i, emp := range d.Employees {
			emp.SalaryStructure.CustomItems = append([]core.CustomSalaryItem{}, emp.SalaryStructure.CustomItems...)
			out[i] = emp
		}
		return out
	}
}
