package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/warp/attendance-engine/attendance"
	"github.com/warp/attendance-engine/generic"
	"github.com/warp/attendance-engine/report"
)

// =============================================================================
// EMPLOYEES
// =============================================================================

// SaveEmployee upserts an employee.
func (s *Store) SaveEmployee(ctx context.Context, emp report.Employee) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO employees (id, code, name, department, group_name, active, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			code = excluded.code,
			name = excluded.name,
			department = excluded.department,
			group_name = excluded.group_name,
			active = excluded.active
	`
	_, err := s.db.ExecContext(ctx, query,
		emp.ID, emp.Code, emp.Name, emp.Department, string(emp.Group), emp.Active,
		time.Now().UTC().Format(time.RFC3339),
	)
	return err
}

// GetEmployee retrieves an employee by ID.
func (s *Store) GetEmployee(ctx context.Context, id generic.EmployeeID) (*report.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var emp report.Employee
	var code, department sql.NullString
	var group string
	err := s.db.QueryRowContext(ctx,
		"SELECT id, code, name, department, group_name, active FROM employees WHERE id = ?", id,
	).Scan(&emp.ID, &code, &emp.Name, &department, &group, &emp.Active)
	if isNoRows(err) {
		return nil, fmt.Errorf("%w: %s", generic.ErrEmployeeNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	emp.Code = code.String
	emp.Department = department.String
	emp.Group = attendance.Group(group)
	return &emp, nil
}

// ListEmployees returns active employees matching filter, ordered by name.
func (s *Store) ListEmployees(ctx context.Context, filter report.EmployeeFilter) ([]report.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	where := []string{"active = 1"}
	var args []any
	if filter.EmployeeID != "" {
		where = append(where, "id = ?")
		args = append(args, filter.EmployeeID)
	}
	if filter.Group != "" {
		where = append(where, "group_name = ?")
		args = append(args, string(filter.Group))
	}
	if filter.Department != "" {
		where = append(where, "department = ?")
		args = append(args, filter.Department)
	}

	query := "SELECT id, code, name, department, group_name, active FROM employees WHERE " +
		strings.Join(where, " AND ") + " ORDER BY name, id"
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	employees := []report.Employee{}
	for rows.Next() {
		var emp report.Employee
		var code, department sql.NullString
		var group string
		if err := rows.Scan(&emp.ID, &code, &emp.Name, &department, &group, &emp.Active); err != nil {
			return nil, err
		}
		emp.Code = code.String
		emp.Department = department.String
		emp.Group = attendance.Group(group)
		employees = append(employees, emp)
	}
	return employees, rows.Err()
}

// =============================================================================
// PUNCHES
// =============================================================================

// SavePunch upserts the raw record of one employee-day.
func (s *Store) SavePunch(ctx context.Context, p report.Punch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO attendance_records (employee_id, date, check_in, check_out, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(employee_id, date) DO UPDATE SET
			check_in = excluded.check_in,
			check_out = excluded.check_out,
			updated_at = excluded.updated_at
	`
	_, err := s.db.ExecContext(ctx, query,
		p.EmployeeID, p.Date.String(), formatTime(p.CheckIn), formatTime(p.CheckOut),
		time.Now().UTC().Format(time.RFC3339),
	)
	return err
}

// Punches returns the employee's records in period.
func (s *Store) Punches(ctx context.Context, employeeID generic.EmployeeID, period generic.Period) ([]report.Punch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT employee_id, date, check_in, check_out FROM attendance_records
		WHERE employee_id = ? AND date >= ? AND date <= ?
		ORDER BY date
	`, employeeID, period.Start.String(), period.End.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var punches []report.Punch
	for rows.Next() {
		var p report.Punch
		var date string
		var checkIn, checkOut sql.NullString
		if err := rows.Scan(&p.EmployeeID, &date, &checkIn, &checkOut); err != nil {
			return nil, err
		}
		if p.Date, err = generic.ParseDate(date); err != nil {
			return nil, err
		}
		if p.CheckIn, err = parseTime(checkIn); err != nil {
			return nil, fmt.Errorf("check-in of %s on %s: %w", p.EmployeeID, date, err)
		}
		if p.CheckOut, err = parseTime(checkOut); err != nil {
			return nil, fmt.Errorf("check-out of %s on %s: %w", p.EmployeeID, date, err)
		}
		punches = append(punches, p)
	}
	return punches, rows.Err()
}

// =============================================================================
// LEAVES
// =============================================================================

// SaveLeave stores an approved leave interval.
func (s *Store) SaveLeave(ctx context.Context, l report.LeaveInterval) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO leaves (id, employee_id, start_date, end_date, leave_type, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, l.ID, l.EmployeeID, l.Start.String(), l.End.String(), l.Type, time.Now().UTC().Format(time.RFC3339))
	return err
}

// Leaves returns leave intervals overlapping period.
func (s *Store) Leaves(ctx context.Context, employeeID generic.EmployeeID, period generic.Period) ([]report.LeaveInterval, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, employee_id, start_date, end_date, leave_type FROM leaves
		WHERE employee_id = ? AND start_date <= ? AND end_date >= ?
		ORDER BY start_date
	`, employeeID, period.End.String(), period.Start.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var leaves []report.LeaveInterval
	for rows.Next() {
		var l report.LeaveInterval
		var start, end string
		var leaveType sql.NullString
		if err := rows.Scan(&l.ID, &l.EmployeeID, &start, &end, &leaveType); err != nil {
			return nil, err
		}
		if l.Start, err = generic.ParseDate(start); err != nil {
			return nil, err
		}
		if l.End, err = generic.ParseDate(end); err != nil {
			return nil, err
		}
		l.Type = leaveType.String
		leaves = append(leaves, l)
	}
	return leaves, rows.Err()
}
