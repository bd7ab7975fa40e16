package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/warp/attendance-engine/attendance"
	"github.com/warp/attendance-engine/generic"
	"github.com/warp/attendance-engine/shortleave"
)

// =============================================================================
// REQUEST STORE (shortleave.RequestStore)
// =============================================================================

// SaveRequest inserts a request, or updates its decision fields.
func (s *Store) SaveRequest(ctx context.Context, r shortleave.Request) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO short_leave_requests (id, employee_id, group_name, leave_date, leave_type,
			start_time, end_time, reason, status, decided_by, decided_at, rejection_reason,
			created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			status = excluded.status,
			decided_by = excluded.decided_by,
			decided_at = excluded.decided_at,
			rejection_reason = excluded.rejection_reason,
			updated_at = excluded.updated_at
	`
	_, err := s.db.ExecContext(ctx, query,
		r.ID, r.EmployeeID, string(r.Group), r.Date.String(), string(r.Type),
		r.StartTime.String(), r.EndTime.String(), r.Reason, string(r.Status),
		nullString(r.DecidedBy), formatTime(r.DecidedAt), nullString(r.RejectionReason),
		r.CreatedAt.UTC().Format(time.RFC3339), r.UpdatedAt.UTC().Format(time.RFC3339),
	)
	return err
}

const requestColumns = `id, employee_id, group_name, leave_date, leave_type, start_time, end_time,
	reason, status, decided_by, decided_at, rejection_reason, created_at, updated_at`

// GetRequest retrieves a request by ID.
func (s *Store) GetRequest(ctx context.Context, id string) (*shortleave.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.queryRequests(ctx, "SELECT "+requestColumns+" FROM short_leave_requests WHERE id = ?", id)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: %s", generic.ErrRequestNotFound, id)
	}
	return &rows[0], nil
}

// ListRequests returns requests matching filter, oldest leave date first.
func (s *Store) ListRequests(ctx context.Context, filter shortleave.RequestFilter) ([]shortleave.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var where []string
	var args []any
	if filter.EmployeeID != "" {
		where = append(where, "employee_id = ?")
		args = append(args, filter.EmployeeID)
	}
	if filter.Status != "" {
		where = append(where, "status = ?")
		args = append(args, string(filter.Status))
	}
	if filter.From != nil {
		where = append(where, "leave_date >= ?")
		args = append(args, filter.From.String())
	}
	if filter.To != nil {
		where = append(where, "leave_date <= ?")
		args = append(args, filter.To.String())
	}

	query := "SELECT " + requestColumns + " FROM short_leave_requests"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY leave_date, created_at"
	return s.queryRequests(ctx, query, args...)
}

func (s *Store) queryRequests(ctx context.Context, query string, args ...any) ([]shortleave.Request, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var requests []shortleave.Request
	for rows.Next() {
		var r shortleave.Request
		var group, date, leaveType, start, end, status, createdAt, updatedAt string
		var reason, decidedBy, decidedAt, rejection sql.NullString

		if err := rows.Scan(&r.ID, &r.EmployeeID, &group, &date, &leaveType, &start, &end,
			&reason, &status, &decidedBy, &decidedAt, &rejection, &createdAt, &updatedAt); err != nil {
			return nil, err
		}

		if r.Date, err = generic.ParseDate(date); err != nil {
			return nil, err
		}
		if r.StartTime, err = generic.ParseClock(start); err != nil {
			return nil, err
		}
		if r.EndTime, err = generic.ParseClock(end); err != nil {
			return nil, err
		}
		r.Group = attendance.Group(group)
		r.Type = shortleave.Type(leaveType)
		r.Status = shortleave.RequestStatus(status)
		r.Reason = reason.String
		r.DecidedBy = decidedBy.String
		if r.DecidedAt, err = parseTime(decidedAt); err != nil {
			return nil, fmt.Errorf("request %s decided_at: %w", r.ID, err)
		}
		r.RejectionReason = rejection.String
		if r.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
			return nil, fmt.Errorf("request %s created_at: %w", r.ID, err)
		}
		if r.UpdatedAt, err = time.Parse(time.RFC3339, updatedAt); err != nil {
			return nil, fmt.Errorf("request %s updated_at: %w", r.ID, err)
		}
		requests = append(requests, r)
	}
	return requests, rows.Err()
}

// isNoRows is shared by the single-row lookups.
func isNoRows(err error) bool { return errors.Is(err, sql.ErrNoRows) }
