package kv

import (
	"context"
	"encoding/json"
	"fmt"
)

// Legacy keys of the single-key-per-collection layout.
const (
	LegacyCompanies   = "zp_companies"
	LegacyDepartments = "zp_departments"
	LegacyEmployees   = "zp_employees"
	LegacyPayroll     = "zp_payroll"
	LegacyLeaves      = "zp_leaves"
	LegacySession     = "zp_session"
)

var legacyCollections = []struct {
	key       string
	namespace string
}{
	{LegacyCompanies, NSCompanies},
	{LegacyDepartments, NSDepartments},
	{LegacyEmployees, NSEmployees},
	{LegacyPayroll, NSPayroll},
	{LegacyLeaves, NSLeaves},
}

// Snapshot is the whole dataset in the legacy layout: one JSON array per
// collection plus the session profile object (null when signed out).
type Snapshot map[string]json.RawMessage

// ExportSnapshot reads every collection in insertion order.
func ExportSnapshot(ctx context.Context, store Store) (Snapshot, error) {
	snap := Snapshot{}
	for _, c := range legacyCollections {
		raw, err := ExportNamespace(ctx, store, c.namespace)
		if err != nil {
			return nil, err
		}
		snap[c.key] = raw
	}

	sessions, err := store.List(ctx, NSSession)
	if err != nil {
		return nil, err
	}
	snap[LegacySession] = json.RawMessage("null")
	var latest *Entry
	for i := range sessions {
		if latest == nil || sessions[i].UpdatedAt.After(latest.UpdatedAt) {
			latest = &sessions[i]
		}
	}
	if latest != nil {
		snap[LegacySession] = json.RawMessage(latest.Value)
	}
	return snap, nil
}

// ExportNamespace renders one namespace as a JSON array in insertion order.
func ExportNamespace(ctx context.Context, store Store, namespace string) ([]byte, error) {
	entries, err := store.List(ctx, namespace)
	if err != nil {
		return nil, err
	}
	values := make([]json.RawMessage, 0, len(entries))
	for _, entry := range entries {
		values = append(values, json.RawMessage(entry.Value))
	}
	raw, err := json.Marshal(values)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", namespace, err)
	}
	return raw, nil
}

// ImportSnapshot writes every item of snap. With replace set, entries missing
// from the snapshot are deleted first. Imported namespaces count as seeded.
func ImportSnapshot(ctx context.Context, store Store, snap Snapshot, replace bool) error {
	for _, c := range legacyCollections {
		raw, ok := snap[c.key]
		if !ok {
			continue
		}
		var values []json.RawMessage
		if err := json.Unmarshal(raw, &values); err != nil {
			return fmt.Errorf("decode %s: %w", c.key, err)
		}

		keep := map[string]bool{}
		for _, value := range values {
			key, err := legacyKey(c.namespace, value)
			if err != nil {
				return fmt.Errorf("%s: %w", c.key, err)
			}
			keep[key] = true
			if _, err := store.Put(ctx, c.namespace, key, value, Any); err != nil {
				return err
			}
		}
		if replace {
			existing, err := store.List(ctx, c.namespace)
			if err != nil {
				return err
			}
			for _, entry := range existing {
				if keep[entry.Key] {
					continue
				}
				if err := store.Delete(ctx, c.namespace, entry.Key, Any); err != nil {
					return err
				}
			}
		}
		if _, err := store.Put(ctx, nsMeta, c.namespace, []byte(`{"seeded":true}`), Any); err != nil {
			return err
		}
	}

	if raw, ok := snap[LegacySession]; ok && string(raw) != "null" {
		if _, err := store.Put(ctx, NSSession, "imported", raw, Any); err != nil {
			return err
		}
	}
	return nil
}

// legacyKey extracts the storage key: departments are bare strings, every
// other collection holds objects with an id field.
func legacyKey(namespace string, value json.RawMessage) (string, error) {
	if namespace == NSDepartments {
		var name string
		if err := json.Unmarshal(value, &name); err != nil {
			return "", err
		}
		return name, nil
	}
	var item struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(value, &item); err != nil {
		return "", err
	}
	if item.ID == "" {
		return "", fmt.Errorf("item without id: %s", value)
	}
	return item.ID, nil
}
