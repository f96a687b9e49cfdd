package leave

import (
	"errors"
	"testing"
	"time"
)

func TestCalculateDays(t *testing.T) {
	start := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)

	days, err := CalculateDays(start, end)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if days != 1 {
		t.Fatalf("expected 1 day, got %v", days)
	}

	end = time.Date(2025, 1, 12, 0, 0, 0, 0, time.UTC)
	days, err = CalculateDays(start, end)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if days != 3 {
		t.Fatalf("expected 3 days, got %v", days)
	}
}

func TestCalculateDaysInvalid(t *testing.T) {
	start := time.Date(2025, 2, 10, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 2, 9, 0, 0, 0, 0, time.UTC)

	if _, err := CalculateDays(start, end); !errors.Is(err, ErrInvalidRange) {
		t.Fatalf("expected ErrInvalidRange, got %v", err)
	}
}

func TestSyncUnpaid(t *testing.T) {
	requests := []Request{
		{ID: "LR1", Status: StatusApproved, PaymentStatus: PaymentUnpaid, StartDate: "2024-01-01", EndDate: "2024-01-03"},
		{ID: "LR2", Status: StatusApproved, PaymentStatus: PaymentUnpaid, StartDate: "2024-01-10", EndDate: "2024-01-10"},
		{ID: "LR3", Status: StatusApproved, PaymentStatus: PaymentPaid, StartDate: "2024-02-01", EndDate: "2024-02-05"},
		{ID: "LR4", Status: StatusPending, StartDate: "2024-03-01", EndDate: "2024-03-02"},
		{ID: "LR5", Status: StatusRejected, StartDate: "2024-04-01", EndDate: "2024-04-02"},
	}

	sync := SyncUnpaid(requests, 60000)
	if sync.Days != 4 {
		t.Fatalf("expected 4 days, got %v", sync.Days)
	}
	if sync.Rate != 2000 || !sync.Synced {
		t.Fatalf("unexpected sync %+v", sync)
	}
	if len(sync.RequestIDs) != 2 || sync.RequestIDs[0] != "LR1" || sync.RequestIDs[1] != "LR2" {
		t.Fatalf("unexpected request ids %v", sync.RequestIDs)
	}
}

func TestSyncUnpaidNothingToSync(t *testing.T) {
	sync := SyncUnpaid(nil, 12000)
	if sync.Days != 0 || sync.Synced || sync.Rate != 400 {
		t.Fatalf("unexpected sync %+v", sync)
	}
}

func TestParseAmendPolicy(t *testing.T) {
	if p, err := ParseAmendPolicy(""); err != nil || p != AmendForbid {
		t.Fatalf("default policy %q err=%v", p, err)
	}
	if p, err := ParseAmendPolicy("ALLOW"); err != nil || p != AmendAllow {
		t.Fatalf("allow policy %q err=%v", p, err)
	}
	if _, err := ParseAmendPolicy("sometimes"); !errors.Is(err, ErrInvalidPolicy) {
		t.Fatalf("expected ErrInvalidPolicy, got %v", err)
	}
}
