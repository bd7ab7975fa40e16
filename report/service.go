package report

import (
	"context"
	"fmt"
	"time"

	"github.com/warp/attendance-engine/attendance"
	"github.com/warp/attendance-engine/generic"
	"github.com/warp/attendance-engine/shortleave"
	"golang.org/x/sync/errgroup"
)

// maxParallelEmployees bounds the evaluation fan-out.
const maxParallelEmployees = 8

// ShortLeaveReader is the slice of shortleave.Ledger the reports need.
type ShortLeaveReader interface {
	Usage(ctx context.Context, employeeID generic.EmployeeID, group attendance.Group, year int, month time.Month) (shortleave.MonthlyUsage, error)
	UsedOn(ctx context.Context, employeeID generic.EmployeeID, date generic.TimePoint) (bool, error)
}

// Service runs reports end to end: load, evaluate, reduce.
type Service struct {
	Source     Source
	Evaluator  *Evaluator
	ShortLeave ShortLeaveReader
}

func NewService(source Source, evaluator *Evaluator, shortLeave ShortLeaveReader) *Service {
	return &Service{Source: source, Evaluator: evaluator, ShortLeave: shortLeave}
}

// Evaluate loads and evaluates every matching employee over period.
// Results keep the employee order of the source.
func (s *Service) Evaluate(ctx context.Context, filter EmployeeFilter, period generic.Period) ([]EmployeeDays, error) {
	if period.End.Before(period.Start) {
		return nil, generic.ErrInvalidPeriod
	}
	employees, err := s.Source.ListEmployees(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list employees: %w", err)
	}

	results := make([]EmployeeDays, len(employees))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelEmployees)
	for i, emp := range employees {
		i, emp := i, emp
		g.Go(func() error {
			punches, err := s.Source.Punches(gctx, emp.ID, period)
			if err != nil {
				return fmt.Errorf("load punches for %s: %w", emp.ID, err)
			}
			leaves, err := s.Source.Leaves(gctx, emp.ID, period)
			if err != nil {
				return fmt.Errorf("load leaves for %s: %w", emp.ID, err)
			}
			ed, err := s.Evaluator.Evaluate(gctx, emp, period, punches, leaves)
			if err != nil {
				return err
			}
			results[i] = ed
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (s *Service) MonthlySheet(ctx context.Context, filter EmployeeFilter, period generic.Period) ([]MonthlySheetRow, error) {
	all, err := s.Evaluate(ctx, filter, period)
	if err != nil {
		return nil, err
	}
	rows := make([]MonthlySheetRow, 0, len(all))
	for _, ed := range all {
		rows = append(rows, ReduceMonthlySheet(ed))
	}
	return rows, nil
}

func (s *Service) OfferAttendance(ctx context.Context, filter EmployeeFilter, period generic.Period) ([]OfferAttendanceRow, error) {
	all, err := s.Evaluate(ctx, filter, period)
	if err != nil {
		return nil, err
	}
	rows := make([]OfferAttendanceRow, 0, len(all))
	for _, ed := range all {
		rows = append(rows, ReduceOfferAttendance(ed))
	}
	return rows, nil
}

// MonthlyAbsence returns only employees with absences, most absent first.
func (s *Service) MonthlyAbsence(ctx context.Context, filter EmployeeFilter, period generic.Period) ([]AbsenceRow, error) {
	all, err := s.Evaluate(ctx, filter, period)
	if err != nil {
		return nil, err
	}
	rows := make([]AbsenceRow, 0, len(all))
	for _, ed := range all {
		rows = append(rows, ReduceAbsence(ed))
	}
	return AbsenteesOnly(rows), nil
}

func (s *Service) LateArrivals(ctx context.Context, filter EmployeeFilter, period generic.Period) ([]LateArrivalRow, error) {
	all, err := s.Evaluate(ctx, filter, period)
	if err != nil {
		return nil, err
	}
	rows := []LateArrivalRow{}
	for _, ed := range all {
		rows = append(rows, FilterLateArrivals(ed)...)
	}
	return rows, nil
}

func (s *Service) HalfDays(ctx context.Context, filter EmployeeFilter, period generic.Period) ([]HalfDayRow, error) {
	all, err := s.Evaluate(ctx, filter, period)
	if err != nil {
		return nil, err
	}
	rows := []HalfDayRow{}
	for _, ed := range all {
		rows = append(rows, FilterHalfDays(ed)...)
	}
	return rows, nil
}

func (s *Service) DailyAttendance(ctx context.Context, filter EmployeeFilter, day generic.TimePoint) ([]DailyAttendanceRow, error) {
	all, err := s.Evaluate(ctx, filter, generic.DayPeriod(day))
	if err != nil {
		return nil, err
	}
	rows := make([]DailyAttendanceRow, 0, len(all))
	for _, ed := range all {
		used, err := s.ShortLeave.UsedOn(ctx, ed.Employee.ID, day)
		if err != nil {
			return nil, err
		}
		rows = append(rows, DailyAttendance(ed, ed.Days[0], used))
	}
	return rows, nil
}

func (s *Service) DailyOvertime(ctx context.Context, filter EmployeeFilter, day generic.TimePoint) ([]DailyOvertimeRow, error) {
	all, err := s.Evaluate(ctx, filter, generic.DayPeriod(day))
	if err != nil {
		return nil, err
	}
	rows := []DailyOvertimeRow{}
	for _, ed := range all {
		rows = append(rows, FilterOvertime(ed)...)
	}
	return rows, nil
}

// =============================================================================
// SHORT-LEAVE USAGE
// =============================================================================

type ShortLeaveUsageRow struct {
	Employee        Employee
	Year            int
	Month           time.Month
	Used            int
	Max             int
	Remaining       int
	UsagePercentage int
	LastUsed        *generic.TimePoint
}

// ShortLeaveUsage reads each employee's month straight from the ledger.
func (s *Service) ShortLeaveUsage(ctx context.Context, filter EmployeeFilter, year int, month time.Month) ([]ShortLeaveUsageRow, error) {
	employees, err := s.Source.ListEmployees(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list employees: %w", err)
	}

	rows := make([]ShortLeaveUsageRow, 0, len(employees))
	for _, emp := range employees {
		usage, err := s.ShortLeave.Usage(ctx, emp.ID, emp.Group, year, month)
		if err != nil {
			return nil, fmt.Errorf("short leave usage for %s: %w", emp.ID, err)
		}
		rows = append(rows, ShortLeaveUsageRow{
			Employee:        emp,
			Year:            year,
			Month:           month,
			Used:            usage.TotalUsed,
			Max:             usage.Max,
			Remaining:       usage.Remaining,
			UsagePercentage: generic.Percentage(usage.TotalUsed, usage.Max),
			LastUsed:        usage.LastUsed,
		})
	}
	return rows, nil
}
