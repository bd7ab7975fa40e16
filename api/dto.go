/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types keep the
  domain model (decimal hours, TimePoint, ClockTime) out of the wire
  contract: hours leave as 2-decimal numbers, dates as YYYY-MM-DD and
  clock times as HH:MM.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

VALIDATION:
  Request bodies carry go-playground/validator tags and are checked by
  decodeAndValidate before any domain call. Domain rules (windows, caps,
  policy invariants) stay in the domain packages.

SEE ALSO:
  - handlers.go: Uses these types
  - factory/policy.go: PolicySetJSON, the group-working-hours document
*/
package api

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/attendance-engine/attendance"
	"github.com/warp/attendance-engine/generic"
	"github.com/warp/attendance-engine/report"
	"github.com/warp/attendance-engine/shortleave"
)

// =============================================================================
// EVALUATION
// =============================================================================

// ClassifyRequest asks for the classification of one day. Times are HH:MM
// or HH:MM:SS on Date.
type ClassifyRequest struct {
	EmployeeID            string `json:"employee_id"`
	Date                  string `json:"date" validate:"required,datetime=2006-01-02"`
	Group                 string `json:"group" validate:"required"`
	CheckIn               string `json:"check_in"`
	CheckOut              string `json:"check_out"`
	ShortLeaveUsedThisDay bool   `json:"short_leave_used_this_day"`
}

type ClassificationDTO struct {
	Date                   string              `json:"date"`
	Status                 attendance.Status   `json:"status"`
	WorkingHours           float64             `json:"working_hours"`
	OvertimeHours          float64             `json:"overtime_hours"`
	IsShortLeaveApplicable bool                `json:"is_short_leave_applicable"`
	LateArrivalPenalty     *string             `json:"late_arrival_penalty"`
	Notes                  []string            `json:"notes"`
	Holiday                generic.HolidayInfo `json:"holiday"`
}

// OfferHoursRequest asks for the quarter-offer hours of one day.
type OfferHoursRequest struct {
	Date     string `json:"date" validate:"required,datetime=2006-01-02"`
	Group    string `json:"group" validate:"required"`
	CheckIn  string `json:"check_in" validate:"required"`
	CheckOut string `json:"check_out" validate:"required"`
}

type OfferHoursDTO struct {
	Date       string  `json:"date"`
	Group      string  `json:"group"`
	OfferHours float64 `json:"offer_hours"`
}

// =============================================================================
// INPUT FEEDS
// =============================================================================

type EmployeeDTO struct {
	ID         string `json:"id"`
	Code       string `json:"code,omitempty"`
	Name       string `json:"name"`
	Department string `json:"department,omitempty"`
	Group      string `json:"group"`
}

type CreateEmployeeRequest struct {
	ID         string `json:"id" validate:"required"`
	Code       string `json:"code"`
	Name       string `json:"name" validate:"required"`
	Department string `json:"department"`
	Group      string `json:"group" validate:"required"`
}

// PunchRequest records one employee-day. Empty times mean no punch.
type PunchRequest struct {
	EmployeeID string `json:"employee_id" validate:"required"`
	Date       string `json:"date" validate:"required,datetime=2006-01-02"`
	CheckIn    string `json:"check_in"`
	CheckOut   string `json:"check_out"`
}

type LeaveRequest struct {
	EmployeeID string `json:"employee_id" validate:"required"`
	StartDate  string `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate    string `json:"end_date" validate:"required,datetime=2006-01-02"`
	LeaveType  string `json:"leave_type"`
}

type LeaveDTO struct {
	ID         string `json:"id"`
	EmployeeID string `json:"employee_id"`
	StartDate  string `json:"start_date"`
	EndDate    string `json:"end_date"`
	LeaveType  string `json:"leave_type,omitempty"`
}

type HolidayDTO struct {
	ID        string `json:"id"`
	Date      string `json:"date"`
	Name      string `json:"name"`
	Kind      string `json:"kind"`
	Recurring bool   `json:"recurring"`
}

type CreateHolidayRequest struct {
	Date      string `json:"date" validate:"required,datetime=2006-01-02"`
	Name      string `json:"name" validate:"required"`
	Kind      string `json:"kind" validate:"required,oneof=government mercantile special"`
	Recurring bool   `json:"recurring"`
}

// =============================================================================
// SHORT LEAVE
// =============================================================================

type SubmitShortLeaveRequest struct {
	EmployeeID string `json:"employee_id" validate:"required"`
	Date       string `json:"date" validate:"required,datetime=2006-01-02"`
	Type       string `json:"type" validate:"required,oneof=morning evening"`
	StartTime  string `json:"start_time" validate:"required"`
	EndTime    string `json:"end_time" validate:"required"`
	Reason     string `json:"reason"`
}

// DecisionRequest approves, rejects or cancels a request.
type DecisionRequest struct {
	ActorID string `json:"actor_id" validate:"required"`
	Reason  string `json:"reason"`
}

type ShortLeaveRequestDTO struct {
	ID              string  `json:"id"`
	EmployeeID      string  `json:"employee_id"`
	Group           string  `json:"group"`
	Date            string  `json:"date"`
	Type            string  `json:"type"`
	StartTime       string  `json:"start_time"`
	EndTime         string  `json:"end_time"`
	Reason          string  `json:"reason,omitempty"`
	Status          string  `json:"status"`
	DecidedBy       string  `json:"decided_by,omitempty"`
	DecidedAt       *string `json:"decided_at,omitempty"`
	RejectionReason string  `json:"rejection_reason,omitempty"`
	CreatedAt       string  `json:"created_at"`
}

type ShortLeaveUsageDTO struct {
	EmployeeID string  `json:"employee_id"`
	Year       int     `json:"year"`
	Month      int     `json:"month"`
	TotalUsed  int     `json:"total_used"`
	Max        int     `json:"max"`
	Remaining  int     `json:"remaining"`
	LastUsed   *string `json:"last_used"`
}

// =============================================================================
// REPORTS
// =============================================================================

// EmployeeRef is the employee header every report row carries.
type EmployeeRef struct {
	EmployeeID   string `json:"employee_id"`
	EmployeeCode string `json:"employee_code,omitempty"`
	EmployeeName string `json:"employee_name"`
	Department   string `json:"department,omitempty"`
	Group        string `json:"group"`
}

type SheetDayDTO struct {
	Date     string  `json:"date"`
	Letter   string  `json:"letter"`
	Status   string  `json:"status"`
	InTime   string  `json:"in_time,omitempty"`
	OutTime  string  `json:"out_time,omitempty"`
	Worked   string  `json:"worked"`
	Overtime float64 `json:"overtime"`
	OnLeave  bool    `json:"on_leave"`
}

type MonthlySheetRowDTO struct {
	EmployeeRef
	Days          []SheetDayDTO `json:"days"`
	TotalHours    float64       `json:"total_hours"`
	TotalOvertime float64       `json:"total_overtime"`
	PresentDays   int           `json:"present_days"`
}

type OfferAttendanceRowDTO struct {
	EmployeeRef
	TotalOfferHours float64            `json:"total_offer_hours"`
	WorkingDays     int                `json:"working_days"`
	Weekly          map[string]float64 `json:"weekly"`
	SaturdayHours   float64            `json:"saturday_hours"`
	HolidayHours    float64            `json:"holiday_hours"`
	AveragePerDay   float64            `json:"average_per_day"`
}

type AbsenceRowDTO struct {
	EmployeeRef
	WorkingDays          int `json:"working_days"`
	PresentDays          int `json:"present_days"`
	LeaveDays            int `json:"leave_days"`
	AbsentDays           int `json:"absent_days"`
	AttendancePercentage int `json:"attendance_percentage"`
}

type LateArrivalRowDTO struct {
	EmployeeRef
	Date        string `json:"date"`
	CheckIn     string `json:"check_in"`
	Status      string `json:"status"`
	MinutesLate int    `json:"minutes_late"`
}

type HalfDayRowDTO struct {
	EmployeeRef
	Date         string  `json:"date"`
	CheckIn      string  `json:"check_in"`
	CheckOut     string  `json:"check_out"`
	WorkingHours float64 `json:"working_hours"`
	MinutesLate  int     `json:"minutes_late"`
	Reason       string  `json:"reason"`
}

type ShortLeaveUsageRowDTO struct {
	EmployeeRef
	Year            int     `json:"year"`
	Month           int     `json:"month"`
	Used            int     `json:"used"`
	Max             int     `json:"max"`
	Remaining       int     `json:"remaining"`
	UsagePercentage int     `json:"usage_percentage"`
	LastUsed        *string `json:"last_used"`
}

type DailyAttendanceRowDTO struct {
	EmployeeRef
	Date          string   `json:"date"`
	Status        string   `json:"status"`
	CheckIn       string   `json:"check_in"`
	CheckOut      string   `json:"check_out"`
	WorkingHours  float64  `json:"working_hours"`
	OvertimeHours float64  `json:"overtime_hours"`
	IsLate        bool     `json:"is_late"`
	IsHalfDay     bool     `json:"is_half_day"`
	IsAbsent      bool     `json:"is_absent"`
	OnShortLeave  bool     `json:"on_short_leave"`
	OnLeave       bool     `json:"on_leave"`
	Notes         []string `json:"notes"`
}

type DailyOvertimeRowDTO struct {
	EmployeeRef
	Date          string  `json:"date"`
	CheckIn       string  `json:"check_in"`
	CheckOut      string  `json:"check_out"`
	WorkingHours  float64 `json:"working_hours"`
	OvertimeHours float64 `json:"overtime_hours"`
	OfferHours    float64 `json:"offer_hours"`
}

// PolicyRefreshStatusDTO is the state of the periodic policy refresh.
type PolicyRefreshStatusDTO struct {
	Enabled   bool    `json:"enabled"`
	Interval  string  `json:"interval,omitempty"`
	Runs      int     `json:"runs"`
	Failures  int     `json:"failures"`
	LastRun   *string `json:"last_run,omitempty"`
	LastError string  `json:"last_error,omitempty"`
	NextRun   *string `json:"next_run,omitempty"`
}

func toPolicyRefreshStatusDTO(ps *PolicyRefreshScheduler) PolicyRefreshStatusDTO {
	status := ps.Status()
	dto := PolicyRefreshStatusDTO{
		Enabled:   true,
		Interval:  ps.CheckInterval.String(),
		Runs:      status.Runs,
		Failures:  status.Failures,
		LastError: status.LastError,
	}
	if !status.LastRun.IsZero() {
		last := status.LastRun.UTC().Format(time.RFC3339)
		dto.LastRun = &last
	}
	if next, ok := ps.NextRunTime(); ok {
		n := next.UTC().Format(time.RFC3339)
		dto.NextRun = &n
	}
	return dto
}

// ScenarioDTO represents a demo scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category,omitempty"`
}

// LoadScenarioRequest selects a scenario and, optionally, the month to fill.
type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id" validate:"required"`
	Month      string `json:"month" validate:"omitempty,datetime=2006-01"`
}

// ErrorResponse is the standard error format.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

// =============================================================================
// CONVERSIONS
// =============================================================================

func hours(d decimal.Decimal) float64 {
	return generic.Round2(d).InexactFloat64()
}

func datePtr(tp *generic.TimePoint) *string {
	if tp == nil {
		return nil
	}
	s := tp.String()
	return &s
}

func toEmployeeRef(e report.Employee) EmployeeRef {
	return EmployeeRef{
		EmployeeID:   string(e.ID),
		EmployeeCode: e.Code,
		EmployeeName: e.Name,
		Department:   e.Department,
		Group:        string(e.Group),
	}
}

func toEmployeeDTO(e report.Employee) EmployeeDTO {
	return EmployeeDTO{
		ID:         string(e.ID),
		Code:       e.Code,
		Name:       e.Name,
		Department: e.Department,
		Group:      string(e.Group),
	}
}

func toClassificationDTO(date generic.TimePoint, r attendance.DayClassificationResult, holiday generic.HolidayInfo) ClassificationDTO {
	notes := r.Notes
	if notes == nil {
		notes = []string{}
	}
	return ClassificationDTO{
		Date:                   date.String(),
		Status:                 r.Status,
		WorkingHours:           hours(r.WorkingHours),
		OvertimeHours:          hours(r.OvertimeHours),
		IsShortLeaveApplicable: r.IsShortLeaveApplicable,
		LateArrivalPenalty:     r.LateArrivalPenalty,
		Notes:                  notes,
		Holiday:                holiday,
	}
}

func toHolidayDTO(h generic.Holiday) HolidayDTO {
	return HolidayDTO{
		ID:        h.ID,
		Date:      h.Date.String(),
		Name:      h.Name,
		Kind:      string(h.Kind),
		Recurring: h.Recurring,
	}
}

func toLeaveDTO(l report.LeaveInterval) LeaveDTO {
	return LeaveDTO{
		ID:         l.ID,
		EmployeeID: string(l.EmployeeID),
		StartDate:  l.Start.String(),
		EndDate:    l.End.String(),
		LeaveType:  l.Type,
	}
}

func toShortLeaveRequestDTO(r shortleave.Request) ShortLeaveRequestDTO {
	dto := ShortLeaveRequestDTO{
		ID:              r.ID,
		EmployeeID:      string(r.EmployeeID),
		Group:           string(r.Group),
		Date:            r.Date.String(),
		Type:            string(r.Type),
		StartTime:       r.StartTime.String(),
		EndTime:         r.EndTime.String(),
		Reason:          r.Reason,
		Status:          string(r.Status),
		DecidedBy:       r.DecidedBy,
		RejectionReason: r.RejectionReason,
		CreatedAt:       r.CreatedAt.Format(time.RFC3339),
	}
	if r.DecidedAt != nil {
		s := r.DecidedAt.Format(time.RFC3339)
		dto.DecidedAt = &s
	}
	return dto
}

func toShortLeaveUsageDTO(u shortleave.MonthlyUsage) ShortLeaveUsageDTO {
	return ShortLeaveUsageDTO{
		EmployeeID: string(u.EmployeeID),
		Year:       u.Year,
		Month:      int(u.Month),
		TotalUsed:  u.TotalUsed,
		Max:        u.Max,
		Remaining:  u.Remaining,
		LastUsed:   datePtr(u.LastUsed),
	}
}

func toMonthlySheetRowDTO(r report.MonthlySheetRow) MonthlySheetRowDTO {
	days := make([]SheetDayDTO, len(r.Days))
	for i, d := range r.Days {
		days[i] = SheetDayDTO{
			Date:     d.Date.String(),
			Letter:   d.Letter,
			Status:   string(d.Status),
			InTime:   d.InTime,
			OutTime:  d.OutTime,
			Worked:   d.Worked,
			Overtime: hours(d.Overtime),
			OnLeave:  d.OnLeave,
		}
	}
	return MonthlySheetRowDTO{
		EmployeeRef:   toEmployeeRef(r.Employee),
		Days:          days,
		TotalHours:    hours(r.TotalHours),
		TotalOvertime: hours(r.TotalOvertime),
		PresentDays:   r.PresentDays,
	}
}

func toOfferAttendanceRowDTO(r report.OfferAttendanceRow) OfferAttendanceRowDTO {
	weekly := make(map[string]float64, len(r.Weekly))
	for wd, h := range r.Weekly {
		weekly[time.Weekday(wd).String()] = hours(h)
	}
	return OfferAttendanceRowDTO{
		EmployeeRef:     toEmployeeRef(r.Employee),
		TotalOfferHours: hours(r.TotalOfferHours),
		WorkingDays:     r.WorkingDays,
		Weekly:          weekly,
		SaturdayHours:   hours(r.SaturdayHours),
		HolidayHours:    hours(r.HolidayHours),
		AveragePerDay:   hours(r.AveragePerDay),
	}
}

func toAbsenceRowDTO(r report.AbsenceRow) AbsenceRowDTO {
	return AbsenceRowDTO{
		EmployeeRef:          toEmployeeRef(r.Employee),
		WorkingDays:          r.WorkingDays,
		PresentDays:          r.PresentDays,
		LeaveDays:            r.LeaveDays,
		AbsentDays:           r.AbsentDays,
		AttendancePercentage: r.AttendancePercentage,
	}
}

func toLateArrivalRowDTO(r report.LateArrivalRow) LateArrivalRowDTO {
	return LateArrivalRowDTO{
		EmployeeRef: toEmployeeRef(r.Employee),
		Date:        r.Date.String(),
		CheckIn:     r.CheckIn,
		Status:      string(r.Status),
		MinutesLate: r.MinutesLate,
	}
}

func toHalfDayRowDTO(r report.HalfDayRow) HalfDayRowDTO {
	return HalfDayRowDTO{
		EmployeeRef:  toEmployeeRef(r.Employee),
		Date:         r.Date.String(),
		CheckIn:      r.CheckIn,
		CheckOut:     r.CheckOut,
		WorkingHours: hours(r.WorkingHours),
		MinutesLate:  r.MinutesLate,
		Reason:       r.Reason,
	}
}

func toShortLeaveUsageRowDTO(r report.ShortLeaveUsageRow) ShortLeaveUsageRowDTO {
	return ShortLeaveUsageRowDTO{
		EmployeeRef:     toEmployeeRef(r.Employee),
		Year:            r.Year,
		Month:           int(r.Month),
		Used:            r.Used,
		Max:             r.Max,
		Remaining:       r.Remaining,
		UsagePercentage: r.UsagePercentage,
		LastUsed:        datePtr(r.LastUsed),
	}
}

func toDailyAttendanceRowDTO(r report.DailyAttendanceRow) DailyAttendanceRowDTO {
	notes := r.Notes
	if notes == nil {
		notes = []string{}
	}
	return DailyAttendanceRowDTO{
		EmployeeRef:   toEmployeeRef(r.Employee),
		Date:          r.Date.String(),
		Status:        string(r.Status),
		CheckIn:       r.CheckIn,
		CheckOut:      r.CheckOut,
		WorkingHours:  hours(r.WorkingHours),
		OvertimeHours: hours(r.OvertimeHours),
		IsLate:        r.IsLate,
		IsHalfDay:     r.IsHalfDay,
		IsAbsent:      r.IsAbsent,
		OnShortLeave:  r.OnShortLeave,
		OnLeave:       r.OnLeave,
		Notes:         notes,
	}
}

func toDailyOvertimeRowDTO(r report.DailyOvertimeRow) DailyOvertimeRowDTO {
	return DailyOvertimeRowDTO{
		EmployeeRef:   toEmployeeRef(r.Employee),
		Date:          r.Date.String(),
		CheckIn:       r.CheckIn,
		CheckOut:      r.CheckOut,
		WorkingHours:  hours(r.WorkingHours),
		OvertimeHours: hours(r.OvertimeHours),
		OfferHours:    hours(r.OfferHours),
	}
}

// mapSlice converts a report slice to DTOs, never returning nil.
func mapSlice[T, U any](in []T, f func(T) U) []U {
	out := make([]U, len(in))
	for i, v := range in {
		out[i] = f(v)
	}
	return out
}
