package leave

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"zenpayroll/internal/domain/audit"
	"zenpayroll/internal/domain/auth"
	"zenpayroll/internal/domain/core"
	"zenpayroll/internal/domain/validation"
	"zenpayroll/internal/platform/kv"
)

type EmployeeLookup interface {
	Lookup(ctx context.Context, id string) (core.Employee, error)
}

type Service struct {
	requests  *kv.Collection[Request]
	employees EmployeeLookup
	authz     *auth.Authorizer
	audit     audit.Recorder
	policy    AmendPolicy
	now       func() time.Time
}

func NewService(store kv.Store, authz *auth.Authorizer, recorder audit.Recorder, employees EmployeeLookup, policy AmendPolicy) *Service {
	return &Service{
		requests:  kv.NewCollection(store, kv.NSLeaves, func(r Request) string { return r.ID }, nil),
		employees: employees,
		authz:     authz,
		audit:     recorder,
		policy:    policy,
		now:       time.Now,
	}
}

func (s *Service) Policy() AmendPolicy {
	return s.policy
}

// Submit files a pending request for the session's own employee record.
func (s *Service) Submit(ctx context.Context, session auth.Session, input SubmitInput) (Request, error) {
	if err := s.authz.Require(session, auth.PermLeaveSubmit); err != nil {
		return Request{}, err
	}
	employeeID := session.Profile.EmployeeID
	if employeeID == "" {
		return Request{}, ErrNotLinked
	}

	v := validation.New()
	v.Required("type", string(input.Type), "is required")
	v.Enum("type", string(input.Type), Types, "must be one of Annual, Sick, Unpaid, Emergency")
	start, okStart := v.Date("startDate", input.StartDate)
	end, okEnd := v.Date("endDate", input.EndDate)
	if okStart && okEnd {
		v.DateOrder("startDate", start, "endDate", end)
	}
	if err := v.Err(); err != nil {
		return Request{}, err
	}

	now := s.now()
	created, err := s.requests.AddUnique(ctx, func(attempt int) Request {
		return Request{
			ID:         fmt.Sprintf("LR%d", now.UnixMilli()+int64(attempt)),
			EmployeeID: employeeID,
			Type:       input.Type,
			StartDate:  start.Format("2006-01-02"),
			EndDate:    end.Format("2006-01-02"),
			Reason:     strings.TrimSpace(input.Reason),
			Status:     StatusPending,
			AppliedAt:  now.UTC(),
		}
	})
	if err != nil {
		return Request{}, err
	}
	audit.Log(ctx, s.audit, session.Actor(), "leave.submit", "leave-request", created.ID, nil, created)
	return created, nil
}

// Decide moves a pending request to Approved or Rejected. Approval needs a
// payment status; rejection must not carry one. Decided requests can only be
// changed under AmendAllow.
func (s *Service) Decide(ctx context.Context, session auth.Session, id string, decision Decision) (Request, error) {
	if err := s.authz.Require(session, auth.PermLeaveApprove); err != nil {
		return Request{}, err
	}
	v := validation.New()
	switch decision.Status {
	case StatusApproved:
		if decision.PaymentStatus != PaymentPaid && decision.PaymentStatus != PaymentUnpaid {
			v.Add("paymentStatus", "must be Paid or Unpaid when approving")
		}
	case StatusRejected:
		if decision.PaymentStatus != "" {
			v.Add("paymentStatus", "must be empty when rejecting")
		}
	default:
		v.Add("status", "must be Approved or Rejected")
	}
	if err := v.Err(); err != nil {
		return Request{}, err
	}

	current, version, err := s.requests.Get(ctx, id)
	if errors.Is(err, kv.ErrNotFound) {
		return Request{}, ErrNotFound
	}
	if err != nil {
		return Request{}, err
	}
	action := "leave.decide"
	if current.Status.Terminal() {
		if s.policy != AmendAllow {
			return Request{}, fmt.Errorf("%w: %s is %s", ErrTerminalState, id, current.Status)
		}
		action = "leave.amend"
	}

	next := current
	next.Status = decision.Status
	next.PaymentStatus = decision.PaymentStatus
	if _, err := s.requests.Replace(ctx, next, version); err != nil {
		if errors.Is(err, kv.ErrNotFound) {
			return Request{}, ErrNotFound
		}
		return Request{}, err
	}
	audit.Log(ctx, s.audit, session.Actor(), action, "leave-request", id, current, next)
	return next, nil
}

// ListForEmployee returns one employee's history, newest first. Callers
// without leave.read may only ask for themselves.
func (s *Service) ListForEmployee(ctx context.Context, session auth.Session, employeeID string) ([]Request, error) {
	if employeeID == "" || employeeID != session.Profile.EmployeeID {
		if err := s.authz.Require(session, auth.PermLeaveRead); err != nil {
			return nil, err
		}
	} else if err := s.authz.Require(session, auth.PermLeaveReadOwn); err != nil {
		return nil, err
	}
	return s.newestFirst(ctx, func(r Request) bool { return r.EmployeeID == employeeID })
}

// ListAll returns every request, newest first, optionally narrowed to a set
// of employees.
func (s *Service) ListAll(ctx context.Context, session auth.Session, employeeIDs ...string) ([]Request, error) {
	if err := s.authz.Require(session, auth.PermLeaveRead); err != nil {
		return nil, err
	}
	if len(employeeIDs) == 0 {
		return s.newestFirst(ctx)
	}
	return s.newestFirst(ctx, func(r Request) bool { return slices.Contains(employeeIDs, r.EmployeeID) })
}

// SyncForEmployee proposes unpaid leave days and rate for a payroll run.
func (s *Service) SyncForEmployee(ctx context.Context, session auth.Session, employeeID string) (Sync, error) {
	if err := s.authz.Require(session, auth.PermPayrollRun); err != nil {
		return Sync{}, err
	}
	emp, err := s.employees.Lookup(ctx, employeeID)
	if err != nil {
		return Sync{}, err
	}
	requests, err := s.requests.List(ctx, func(r Request) bool { return r.EmployeeID == employeeID })
	if err != nil {
		return Sync{}, err
	}
	sync := SyncUnpaid(requests, emp.SalaryStructure.Basic)
	sync.EmployeeID = employeeID
	return sync, nil
}

func (s *Service) newestFirst(ctx context.Context, filters ...func(Request) bool) ([]Request, error) {
	items, err := s.requests.List(ctx, filters...)
	if err != nil {
		return nil, err
	}
	slices.Reverse(items)
	return items, nil
}
