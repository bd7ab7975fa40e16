package shortleave

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/warp/attendance-engine/attendance"
	"github.com/warp/attendance-engine/generic"
)

// RequestStore persists short-leave requests.
type RequestStore interface {
	SaveRequest(ctx context.Context, r Request) error
	// GetRequest returns generic.ErrRequestNotFound for unknown IDs.
	GetRequest(ctx context.Context, id string) (*Request, error)
	ListRequests(ctx context.Context, filter RequestFilter) ([]Request, error)
}

// =============================================================================
// REQUEST SERVICE - Handles the request lifecycle
// =============================================================================

type RequestService struct {
	Requests RequestStore
	Ledger   *Ledger
	Policies attendance.PolicyProvider
	Logger   *slog.Logger

	now func() time.Time
}

func NewRequestService(requests RequestStore, ledger *Ledger, policies attendance.PolicyProvider, logger *slog.Logger) *RequestService {
	if logger == nil {
		logger = slog.Default()
	}
	return &RequestService{
		Requests: requests,
		Ledger:   ledger,
		Policies: policies,
		Logger:   logger,
		now:      time.Now,
	}
}

// SubmitInput is what an employee asks for.
type SubmitInput struct {
	EmployeeID generic.EmployeeID
	Group      attendance.Group
	Date       generic.TimePoint
	Type       Type
	StartTime  generic.ClockTime
	EndTime    generic.ClockTime
	Reason     string
}

// Submit validates the window and the remaining allowance, then stores the
// request as pending. Pending requests do not consume allowance.
func (rs *RequestService) Submit(ctx context.Context, in SubmitInput) (Request, error) {
	policy, err := rs.policyFor(ctx, in.Group)
	if err != nil {
		return Request{}, err
	}
	if err := ValidateWindow(in.Type, in.StartTime, in.EndTime, policy); err != nil {
		return Request{}, err
	}

	usage, err := rs.Ledger.Usage(ctx, in.EmployeeID, in.Group, in.Date.Year(), in.Date.Month())
	if err != nil {
		return Request{}, err
	}
	if usage.Remaining <= 0 {
		return Request{}, &generic.CapExceededError{
			EmployeeID: in.EmployeeID,
			Year:       in.Date.Year(),
			Month:      in.Date.Month(),
			Used:       usage.TotalUsed,
			Max:        usage.Max,
		}
	}

	now := rs.now().UTC()
	req := Request{
		ID:         uuid.NewString(),
		EmployeeID: in.EmployeeID,
		Group:      in.Group,
		Date:       in.Date,
		Type:       in.Type,
		StartTime:  in.StartTime,
		EndTime:    in.EndTime,
		Reason:     in.Reason,
		Status:     StatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := rs.Requests.SaveRequest(ctx, req); err != nil {
		return Request{}, fmt.Errorf("save short leave request: %w", err)
	}

	rs.Logger.Info("short leave submitted",
		"request_id", req.ID, "employee_id", req.EmployeeID, "date", req.Date.String(), "type", req.Type)
	return req, nil
}

// Approve moves a pending request to approved and records the usage.
// The cap is re-checked under the month lock, so a request submitted while
// allowance remained can still be refused here.
func (rs *RequestService) Approve(ctx context.Context, id, approverID string) (Request, error) {
	req, err := rs.pending(ctx, id)
	if err != nil {
		return Request{}, err
	}

	if err := rs.Ledger.RecordUsage(ctx, req.EmployeeID, req.Group, req.Date, req.ID); err != nil {
		if errors.Is(err, generic.ErrDuplicateIdempotencyKey) {
			return Request{}, fmt.Errorf("%w: %s already approved", generic.ErrRequestNotPending, id)
		}
		return Request{}, err
	}

	rs.decide(req, StatusApproved, approverID, "")
	if err := rs.Requests.SaveRequest(ctx, *req); err != nil {
		// Undo the usage so the ledger matches the stored status.
		if revErr := rs.Ledger.Reverse(ctx, req.EmployeeID, req.Date, req.ID, "approval rolled back"); revErr != nil {
			rs.Logger.Error("short leave approval rollback failed",
				"request_id", req.ID, "employee_id", req.EmployeeID, "error", revErr)
		}
		return Request{}, fmt.Errorf("save short leave request: %w", err)
	}

	rs.Logger.Info("short leave approved", "request_id", req.ID, "employee_id", req.EmployeeID, "approver", approverID)
	return *req, nil
}

// Reject moves a pending request to rejected. The ledger is untouched.
func (rs *RequestService) Reject(ctx context.Context, id, approverID, reason string) (Request, error) {
	req, err := rs.pending(ctx, id)
	if err != nil {
		return Request{}, err
	}

	rs.decide(req, StatusRejected, approverID, reason)
	if err := rs.Requests.SaveRequest(ctx, *req); err != nil {
		return Request{}, fmt.Errorf("save short leave request: %w", err)
	}

	rs.Logger.Info("short leave rejected", "request_id", req.ID, "employee_id", req.EmployeeID, "approver", approverID)
	return *req, nil
}

// Cancel withdraws a pending or approved request. Cancelling an approved
// request appends a reversal, which gives the month's slot back.
func (rs *RequestService) Cancel(ctx context.Context, id, actorID, reason string) (Request, error) {
	req, err := rs.Requests.GetRequest(ctx, id)
	if err != nil {
		return Request{}, err
	}

	switch req.Status {
	case StatusPending:
	case StatusApproved:
		if err := rs.Ledger.Reverse(ctx, req.EmployeeID, req.Date, req.ID, "short leave cancelled"); err != nil {
			return Request{}, fmt.Errorf("reverse short leave usage: %w", err)
		}
	default:
		return Request{}, fmt.Errorf("%w: %s is %s", generic.ErrRequestNotApproved, id, req.Status)
	}

	rs.decide(req, StatusCancelled, actorID, reason)
	if err := rs.Requests.SaveRequest(ctx, *req); err != nil {
		return Request{}, fmt.Errorf("save short leave request: %w", err)
	}

	rs.Logger.Info("short leave cancelled", "request_id", req.ID, "employee_id", req.EmployeeID)
	return *req, nil
}

// Pending lists requests awaiting a decision.
func (rs *RequestService) Pending(ctx context.Context) ([]Request, error) {
	return rs.Requests.ListRequests(ctx, RequestFilter{Status: StatusPending})
}

func (rs *RequestService) pending(ctx context.Context, id string) (*Request, error) {
	req, err := rs.Requests.GetRequest(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Status != StatusPending {
		return nil, fmt.Errorf("%w: %s is %s", generic.ErrRequestNotPending, id, req.Status)
	}
	return req, nil
}

func (rs *RequestService) decide(req *Request, status RequestStatus, actorID, reason string) {
	now := rs.now().UTC()
	req.Status = status
	req.DecidedBy = actorID
	req.DecidedAt = &now
	req.UpdatedAt = now
	if status == StatusRejected || status == StatusCancelled {
		req.RejectionReason = reason
	}
}

func (rs *RequestService) policyFor(ctx context.Context, group attendance.Group) (attendance.PolicyConfig, error) {
	set, err := rs.Policies.Policies(ctx)
	if err != nil {
		return attendance.PolicyConfig{}, err
	}
	return set.For(group)
}
