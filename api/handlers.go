/*
handlers.go - HTTP API handlers for the attendance engine

PURPOSE:
  Exposes the attendance engine via REST API. Handles HTTP
  request/response, JSON serialization, and delegates to the domain
  packages (attendance, shortleave, report, factory).

ENDPOINTS:
  Evaluation:
    POST   /api/attendance/classify       Classify one day
    POST   /api/attendance/offer-hours    Quarter-offer hours of one day

  Policy:
    GET    /api/group-working-hours       Current group policies
    PUT    /api/group-working-hours       Replace group policies (validated)
    GET    /api/group-working-hours/refresh  Periodic refresh state

  Input feeds:
    GET    /api/employees                 List active employees
    POST   /api/employees                 Create or update employee
    GET    /api/employees/{id}            Get employee
    POST   /api/attendance/punches        Record a day's punches
    POST   /api/leaves                    Record an approved leave
    GET    /api/employees/{id}/leaves     Leaves in a month
    GET    /api/holidays                  List holidays of a year
    POST   /api/holidays                  Create holiday
    DELETE /api/holidays/{id}             Delete holiday

  Short leave:
    POST   /api/short-leaves              Submit request
    GET    /api/short-leaves/pending      Requests awaiting a decision
    POST   /api/short-leaves/{id}/approve Approve
    POST   /api/short-leaves/{id}/reject  Reject
    POST   /api/short-leaves/{id}/cancel  Cancel
    GET    /api/employees/{id}/short-leave-usage  Monthly allowance state

  Scenarios (not mounted in production):
    GET    /api/scenarios                 List demo scenarios
    GET    /api/scenarios/current         Currently loaded scenario
    POST   /api/scenarios/load            Reset and load a scenario

  Reports (?year=&month= or ?date=, plus group/department/employee_id):
    GET    /api/reports/monthly-attendance
    GET    /api/reports/offer-attendance
    GET    /api/reports/monthly-absence
    GET    /api/reports/late-arrival
    GET    /api/reports/half-day
    GET    /api/reports/short-leave-usage
    GET    /api/reports/daily-attendance
    GET    /api/reports/daily-ot

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid policy, window rejections
  - 404: Unknown employee, request or holiday
  - 409: Cap exceeded, request already decided, duplicates
  - 500: Internal errors (logged)

SECURITY NOTE:
  No authentication or authorization. Put the service behind a gateway
  that does both.

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/warp/attendance-engine/attendance"
	"github.com/warp/attendance-engine/factory"
	"github.com/warp/attendance-engine/generic"
	"github.com/warp/attendance-engine/report"
	"github.com/warp/attendance-engine/shortleave"
	"github.com/warp/attendance-engine/store/sqlite"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store         *sqlite.Store
	Policies      *factory.Registry
	PolicyFactory *factory.PolicyFactory
	Classifier    *attendance.Classifier
	Ledger        *shortleave.Ledger
	ShortLeaves   *shortleave.RequestService
	Reports       *report.Service
	Logger        *slog.Logger

	// Scheduler reports the policy refresh state. Nil reads as disabled.
	Scheduler *PolicyRefreshScheduler

	validate *validator.Validate

	scenarioMu      sync.Mutex
	currentScenario string
}

// NewHandler wires the domain services on top of store and registry.
func NewHandler(store *sqlite.Store, registry *factory.Registry, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	ledger := shortleave.NewLedger(generic.NewLedger(store), registry)
	classifier := attendance.NewClassifier(ledger)
	evaluator := &report.Evaluator{Policies: registry, Calendar: store, Classifier: classifier}

	return &Handler{
		Store:         store,
		Policies:      registry,
		PolicyFactory: factory.NewPolicyFactory(),
		Classifier:    classifier,
		Ledger:        ledger,
		ShortLeaves:   shortleave.NewRequestService(store, ledger, registry, logger),
		Reports:       report.NewService(store, evaluator, ledger),
		Logger:        logger,
		validate:      validator.New(),
	}
}

// =============================================================================
// EVALUATION HANDLERS
// =============================================================================

// Classify runs the day classifier on ad-hoc input. The holiday info comes
// from the stored calendar; short-leave usage from the ledger when an
// employee_id is given.
// POST /api/attendance/classify
func (h *Handler) Classify(w http.ResponseWriter, r *http.Request) {
	var req ClassifyRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}
	ctx := r.Context()

	date, group, ok := parseDateAndGroup(w, req.Date, req.Group)
	if !ok {
		return
	}
	checkIn, err := parsePunch(date, req.CheckIn)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid check_in", err)
		return
	}
	checkOut, err := parsePunch(date, req.CheckOut)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid check_out", err)
		return
	}

	policy, err := h.policyFor(r, group)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	holiday, err := h.Store.HolidayInfo(ctx, date)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	input := attendance.DayAttendanceInput{
		EmployeeID:            generic.EmployeeID(req.EmployeeID),
		Date:                  date,
		CheckIn:               checkIn,
		CheckOut:              checkOut,
		Group:                 group,
		ShortLeaveUsedThisDay: req.ShortLeaveUsedThisDay,
	}

	var result attendance.DayClassificationResult
	if req.EmployeeID != "" {
		result, err = h.Classifier.Evaluate(ctx, input, policy, holiday)
		if err != nil {
			h.fail(w, r, err)
			return
		}
	} else {
		result = attendance.Classify(input, policy, holiday)
	}

	writeJSON(w, http.StatusOK, toClassificationDTO(date, result, holiday))
}

// OfferHours computes quarter-offer hours for one day.
// POST /api/attendance/offer-hours
func (h *Handler) OfferHours(w http.ResponseWriter, r *http.Request) {
	var req OfferHoursRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	date, group, ok := parseDateAndGroup(w, req.Date, req.Group)
	if !ok {
		return
	}
	checkIn, err := parsePunch(date, req.CheckIn)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid check_in", err)
		return
	}
	checkOut, err := parsePunch(date, req.CheckOut)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid check_out", err)
		return
	}

	policy, err := h.policyFor(r, group)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	holiday, err := h.Store.HolidayInfo(r.Context(), date)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, OfferHoursDTO{
		Date:       date.String(),
		Group:      string(group),
		OfferHours: hours(attendance.OfferHours(checkIn, checkOut, policy, holiday)),
	})
}

// =============================================================================
// POLICY HANDLERS
// =============================================================================

// GetGroupWorkingHours returns the policy document currently in force.
// GET /api/group-working-hours
func (h *Handler) GetGroupWorkingHours(w http.ResponseWriter, r *http.Request) {
	set, err := h.Policies.Policies(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h.PolicyFactory.ToJSON(set))
}

// UpdateGroupWorkingHours replaces both group policies. Nothing changes
// unless the whole document is valid.
// PUT /api/group-working-hours
func (h *Handler) UpdateGroupWorkingHours(w http.ResponseWriter, r *http.Request) {
	var doc factory.PolicySetJSON
	if err := json.NewDecoder(r.Body).Decode(&doc); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON", err)
		return
	}

	set, err := h.PolicyFactory.FromJSON(doc)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.Policies.Update(r.Context(), set); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h.PolicyFactory.ToJSON(set))
}

// GetPolicyRefreshStatus reports the periodic policy refresh: how often it
// has run, the last failure and when it runs next.
// GET /api/group-working-hours/refresh
func (h *Handler) GetPolicyRefreshStatus(w http.ResponseWriter, r *http.Request) {
	if h.Scheduler == nil || !h.Scheduler.Enabled {
		writeJSON(w, http.StatusOK, PolicyRefreshStatusDTO{Enabled: false})
		return
	}
	writeJSON(w, http.StatusOK, toPolicyRefreshStatusDTO(h.Scheduler))
}

// =============================================================================
// EMPLOYEE HANDLERS
// =============================================================================

// ListEmployees returns active employees, optionally by group or department.
// GET /api/employees
func (h *Handler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	filter, err := parseEmployeeFilter(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid filter", err)
		return
	}
	employees, err := h.Store.ListEmployees(r.Context(), filter)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapSlice(employees, toEmployeeDTO))
}

// CreateEmployee creates or updates an employee.
// POST /api/employees
func (h *Handler) CreateEmployee(w http.ResponseWriter, r *http.Request) {
	var req CreateEmployeeRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}
	group, err := attendance.ParseGroup(req.Group)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid group", err)
		return
	}

	emp := report.Employee{
		ID:         generic.EmployeeID(req.ID),
		Code:       req.Code,
		Name:       req.Name,
		Department: req.Department,
		Group:      group,
		Active:     true,
	}
	if err := h.Store.SaveEmployee(r.Context(), emp); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toEmployeeDTO(emp))
}

// GetEmployee returns one employee.
// GET /api/employees/{id}
func (h *Handler) GetEmployee(w http.ResponseWriter, r *http.Request) {
	emp, err := h.Store.GetEmployee(r.Context(), generic.EmployeeID(chi.URLParam(r, "id")))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toEmployeeDTO(*emp))
}

// =============================================================================
// PUNCH / LEAVE HANDLERS
// =============================================================================

// RecordPunch stores the raw in/out times of one employee-day.
// POST /api/attendance/punches
func (h *Handler) RecordPunch(w http.ResponseWriter, r *http.Request) {
	var req PunchRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}
	ctx := r.Context()

	date, err := generic.ParseDate(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date", err)
		return
	}
	if _, err := h.Store.GetEmployee(ctx, generic.EmployeeID(req.EmployeeID)); err != nil {
		h.fail(w, r, err)
		return
	}
	checkIn, err := parsePunch(date, req.CheckIn)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid check_in", err)
		return
	}
	checkOut, err := parsePunch(date, req.CheckOut)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid check_out", err)
		return
	}

	punch := report.Punch{
		EmployeeID: generic.EmployeeID(req.EmployeeID),
		Date:       date,
		CheckIn:    checkIn,
		CheckOut:   checkOut,
	}
	if err := h.Store.SavePunch(ctx, punch); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"status": "recorded"})
}

// RecordLeave stores an approved leave interval.
// POST /api/leaves
func (h *Handler) RecordLeave(w http.ResponseWriter, r *http.Request) {
	var req LeaveRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}
	ctx := r.Context()

	start, err := generic.ParseDate(req.StartDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid start_date", err)
		return
	}
	end, err := generic.ParseDate(req.EndDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid end_date", err)
		return
	}
	if _, err := generic.NewPeriod(start, end); err != nil {
		h.fail(w, r, err)
		return
	}
	if _, err := h.Store.GetEmployee(ctx, generic.EmployeeID(req.EmployeeID)); err != nil {
		h.fail(w, r, err)
		return
	}

	leave := report.LeaveInterval{
		ID:         uuid.NewString(),
		EmployeeID: generic.EmployeeID(req.EmployeeID),
		Start:      start,
		End:        end,
		Type:       req.LeaveType,
	}
	if err := h.Store.SaveLeave(ctx, leave); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toLeaveDTO(leave))
}

// ListLeaves returns an employee's leaves overlapping a month.
// GET /api/employees/{id}/leaves?year=&month=
func (h *Handler) ListLeaves(w http.ResponseWriter, r *http.Request) {
	year, month, err := parseYearMonth(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid month", err)
		return
	}
	leaves, err := h.Store.Leaves(r.Context(), generic.EmployeeID(chi.URLParam(r, "id")), generic.MonthPeriod(year, month))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapSlice(leaves, toLeaveDTO))
}

// =============================================================================
// HOLIDAY HANDLERS
// =============================================================================

// ListHolidays returns the holidays of a year (default: current year).
// GET /api/holidays?year=
func (h *Handler) ListHolidays(w http.ResponseWriter, r *http.Request) {
	year := time.Now().Year()
	if s := r.URL.Query().Get("year"); s != "" {
		y, err := strconv.Atoi(s)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid year", err)
			return
		}
		year = y
	}

	holidays, err := h.Store.ListHolidays(r.Context(), year)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapSlice(holidays, toHolidayDTO))
}

// CreateHoliday adds a calendar entry.
// POST /api/holidays
func (h *Handler) CreateHoliday(w http.ResponseWriter, r *http.Request) {
	var req CreateHolidayRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}
	date, err := generic.ParseDate(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date", err)
		return
	}

	holiday := generic.Holiday{
		ID:        uuid.NewString(),
		Date:      date,
		Name:      req.Name,
		Kind:      generic.HolidayKind(req.Kind),
		Recurring: req.Recurring,
	}
	id, err := h.Store.SaveHoliday(r.Context(), holiday)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	holiday.ID = id
	writeJSON(w, http.StatusCreated, toHolidayDTO(holiday))
}

// DeleteHoliday removes a calendar entry.
// DELETE /api/holidays/{id}
func (h *Handler) DeleteHoliday(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.DeleteHoliday(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// SHORT LEAVE HANDLERS
// =============================================================================

// SubmitShortLeave files a short-leave request for the employee's group.
// POST /api/short-leaves
func (h *Handler) SubmitShortLeave(w http.ResponseWriter, r *http.Request) {
	var req SubmitShortLeaveRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}
	ctx := r.Context()

	date, err := generic.ParseDate(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date", err)
		return
	}
	typ, err := shortleave.ParseType(req.Type)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid type", err)
		return
	}
	start, err := generic.ParseClock(req.StartTime)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid start_time", err)
		return
	}
	end, err := generic.ParseClock(req.EndTime)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid end_time", err)
		return
	}

	emp, err := h.Store.GetEmployee(ctx, generic.EmployeeID(req.EmployeeID))
	if err != nil {
		h.fail(w, r, err)
		return
	}

	created, err := h.ShortLeaves.Submit(ctx, shortleave.SubmitInput{
		EmployeeID: emp.ID,
		Group:      emp.Group,
		Date:       date,
		Type:       typ,
		StartTime:  start,
		EndTime:    end,
		Reason:     req.Reason,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toShortLeaveRequestDTO(created))
}

// ListPendingShortLeaves returns requests awaiting a decision.
// GET /api/short-leaves/pending
func (h *Handler) ListPendingShortLeaves(w http.ResponseWriter, r *http.Request) {
	pending, err := h.ShortLeaves.Pending(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapSlice(pending, toShortLeaveRequestDTO))
}

// ApproveShortLeave approves a pending request and records the usage.
// POST /api/short-leaves/{id}/approve
func (h *Handler) ApproveShortLeave(w http.ResponseWriter, r *http.Request) {
	var req DecisionRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}
	decided, err := h.ShortLeaves.Approve(r.Context(), chi.URLParam(r, "id"), req.ActorID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toShortLeaveRequestDTO(decided))
}

// RejectShortLeave rejects a pending request.
// POST /api/short-leaves/{id}/reject
func (h *Handler) RejectShortLeave(w http.ResponseWriter, r *http.Request) {
	var req DecisionRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}
	decided, err := h.ShortLeaves.Reject(r.Context(), chi.URLParam(r, "id"), req.ActorID, req.Reason)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toShortLeaveRequestDTO(decided))
}

// CancelShortLeave withdraws a pending or approved request.
// POST /api/short-leaves/{id}/cancel
func (h *Handler) CancelShortLeave(w http.ResponseWriter, r *http.Request) {
	var req DecisionRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}
	cancelled, err := h.ShortLeaves.Cancel(r.Context(), chi.URLParam(r, "id"), req.ActorID, req.Reason)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toShortLeaveRequestDTO(cancelled))
}

// GetShortLeaveUsage returns one employee's allowance for a month.
// GET /api/employees/{id}/short-leave-usage?year=&month=
func (h *Handler) GetShortLeaveUsage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	year, month, err := parseYearMonth(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid month", err)
		return
	}
	emp, err := h.Store.GetEmployee(ctx, generic.EmployeeID(chi.URLParam(r, "id")))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	usage, err := h.Ledger.Usage(ctx, emp.ID, emp.Group, year, month)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toShortLeaveUsageDTO(usage))
}

// =============================================================================
// REPORT HANDLERS
// =============================================================================

// GET /api/reports/monthly-attendance
func (h *Handler) MonthlyAttendanceReport(w http.ResponseWriter, r *http.Request) {
	filter, period, ok := monthParams(w, r)
	if !ok {
		return
	}
	rows, err := h.Reports.MonthlySheet(r.Context(), filter, period)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapSlice(rows, toMonthlySheetRowDTO))
}

// GET /api/reports/offer-attendance
func (h *Handler) OfferAttendanceReport(w http.ResponseWriter, r *http.Request) {
	filter, period, ok := monthParams(w, r)
	if !ok {
		return
	}
	rows, err := h.Reports.OfferAttendance(r.Context(), filter, period)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapSlice(rows, toOfferAttendanceRowDTO))
}

// GET /api/reports/monthly-absence
func (h *Handler) MonthlyAbsenceReport(w http.ResponseWriter, r *http.Request) {
	filter, period, ok := monthParams(w, r)
	if !ok {
		return
	}
	rows, err := h.Reports.MonthlyAbsence(r.Context(), filter, period)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapSlice(rows, toAbsenceRowDTO))
}

// GET /api/reports/late-arrival
func (h *Handler) LateArrivalReport(w http.ResponseWriter, r *http.Request) {
	filter, period, ok := monthParams(w, r)
	if !ok {
		return
	}
	rows, err := h.Reports.LateArrivals(r.Context(), filter, period)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapSlice(rows, toLateArrivalRowDTO))
}

// GET /api/reports/half-day
func (h *Handler) HalfDayReport(w http.ResponseWriter, r *http.Request) {
	filter, period, ok := monthParams(w, r)
	if !ok {
		return
	}
	rows, err := h.Reports.HalfDays(r.Context(), filter, period)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapSlice(rows, toHalfDayRowDTO))
}

// GET /api/reports/short-leave-usage
func (h *Handler) ShortLeaveUsageReport(w http.ResponseWriter, r *http.Request) {
	filter, period, ok := monthParams(w, r)
	if !ok {
		return
	}
	rows, err := h.Reports.ShortLeaveUsage(r.Context(), filter, period.Start.Year(), period.Start.Month())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapSlice(rows, toShortLeaveUsageRowDTO))
}

// GET /api/reports/daily-attendance?date=
func (h *Handler) DailyAttendanceReport(w http.ResponseWriter, r *http.Request) {
	filter, day, ok := dayParams(w, r)
	if !ok {
		return
	}
	rows, err := h.Reports.DailyAttendance(r.Context(), filter, day)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapSlice(rows, toDailyAttendanceRowDTO))
}

// GET /api/reports/daily-ot?date=
func (h *Handler) DailyOvertimeReport(w http.ResponseWriter, r *http.Request) {
	filter, day, ok := dayParams(w, r)
	if !ok {
		return
	}
	rows, err := h.Reports.DailyOvertime(r.Context(), filter, day)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapSlice(rows, toDailyOvertimeRowDTO))
}

// =============================================================================
// HELPERS
// =============================================================================

func (h *Handler) policyFor(r *http.Request, group attendance.Group) (attendance.PolicyConfig, error) {
	set, err := h.Policies.Policies(r.Context())
	if err != nil {
		return attendance.PolicyConfig{}, err
	}
	return set.For(group)
}

// decodeAndValidate decodes the JSON body into dst and runs the validator.
// It writes the 400 itself and reports whether the handler should go on.
func (h *Handler) decodeAndValidate(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON", err)
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			fields := make([]string, 0, len(ve))
			for _, fe := range ve {
				fields = append(fields, fmt.Sprintf("%s: %s", fe.Field(), fe.Tag()))
			}
			writeJSON(w, http.StatusBadRequest, ErrorResponse{
				Error:   "Validation failed",
				Code:    "validation_failed",
				Details: strings.Join(fields, ", "),
			})
			return false
		}
		writeError(w, http.StatusBadRequest, "Validation failed", err)
		return false
	}
	return true
}

// fail maps domain errors to HTTP statuses. Unexpected errors are logged.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case generic.IsClientError(err):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Invalid request", Code: errorCode(err), Details: err.Error()})
	case generic.IsNotFound(err):
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "Not found", Code: errorCode(err), Details: err.Error()})
	case generic.IsConflict(err):
		writeJSON(w, http.StatusConflict, ErrorResponse{Error: "Conflict", Code: errorCode(err), Details: err.Error()})
	default:
		h.Logger.Error("request failed",
			"method", r.Method, "path", r.URL.Path,
			"request_id", middleware.GetReqID(r.Context()), "error", err)
		writeError(w, http.StatusInternalServerError, "Internal error", nil)
	}
}

func errorCode(err error) string {
	switch {
	case errors.Is(err, generic.ErrInvalidPolicy):
		return "invalid_policy"
	case errors.Is(err, generic.ErrWindowRejected):
		return "window_rejected"
	case errors.Is(err, generic.ErrInvalidPeriod):
		return "invalid_period"
	case errors.Is(err, generic.ErrShortLeaveCapExceeded):
		return "short_leave_cap_exceeded"
	case errors.Is(err, generic.ErrRequestNotPending):
		return "request_not_pending"
	case errors.Is(err, generic.ErrRequestNotApproved):
		return "request_not_approved"
	case errors.Is(err, generic.ErrDuplicateIdempotencyKey):
		return "duplicate"
	case errors.Is(err, generic.ErrEmployeeNotFound):
		return "employee_not_found"
	case errors.Is(err, generic.ErrRequestNotFound):
		return "request_not_found"
	case errors.Is(err, generic.ErrHolidayNotFound):
		return "holiday_not_found"
	case errors.Is(err, generic.ErrPolicyNotFound):
		return "policy_not_found"
	}
	return ""
}

func parseDateAndGroup(w http.ResponseWriter, rawDate, rawGroup string) (generic.TimePoint, attendance.Group, bool) {
	date, err := generic.ParseDate(rawDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date", err)
		return generic.TimePoint{}, "", false
	}
	group, err := attendance.ParseGroup(rawGroup)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid group", err)
		return generic.TimePoint{}, "", false
	}
	return date, group, true
}

// parsePunch reads a punch time. A bare clock (HH:MM[:SS]) is placed on
// date; RFC 3339 timestamps are taken as they are. Empty means no punch.
func parsePunch(date generic.TimePoint, raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	if strings.Contains(raw, "T") {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return nil, err
		}
		return &t, nil
	}
	c, err := generic.ParseClock(raw)
	if err != nil {
		return nil, err
	}
	t := date.At(c, time.UTC)
	if sec := secondsOf(raw); sec > 0 {
		t = t.Add(time.Duration(sec) * time.Second)
	}
	return &t, nil
}

// secondsOf keeps the seconds of HH:MM:SS so worked hours stay exact;
// classification thresholds only ever look at whole minutes.
func secondsOf(raw string) int {
	parts := strings.Split(raw, ":")
	if len(parts) != 3 {
		return 0
	}
	s, err := strconv.Atoi(parts[2])
	if err != nil || s < 0 || s > 59 {
		return 0
	}
	return s
}

func parseEmployeeFilter(r *http.Request) (report.EmployeeFilter, error) {
	q := r.URL.Query()
	filter := report.EmployeeFilter{
		EmployeeID: generic.EmployeeID(q.Get("employee_id")),
		Department: q.Get("department"),
	}
	if g := q.Get("group"); g != "" {
		group, err := attendance.ParseGroup(g)
		if err != nil {
			return filter, err
		}
		filter.Group = group
	}
	return filter, nil
}

// parseYearMonth reads ?year=&month=, defaulting to the current month.
func parseYearMonth(r *http.Request) (int, time.Month, error) {
	now := time.Now()
	year, month := now.Year(), now.Month()
	q := r.URL.Query()
	if s := q.Get("year"); s != "" {
		y, err := strconv.Atoi(s)
		if err != nil || y < 1900 || y > 9999 {
			return 0, 0, fmt.Errorf("invalid year %q", s)
		}
		year = y
	}
	if s := q.Get("month"); s != "" {
		m, err := strconv.Atoi(s)
		if err != nil || m < 1 || m > 12 {
			return 0, 0, fmt.Errorf("invalid month %q", s)
		}
		month = time.Month(m)
	}
	return year, month, nil
}

func monthParams(w http.ResponseWriter, r *http.Request) (report.EmployeeFilter, generic.Period, bool) {
	filter, err := parseEmployeeFilter(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid filter", err)
		return filter, generic.Period{}, false
	}
	year, month, err := parseYearMonth(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid month", err)
		return filter, generic.Period{}, false
	}
	return filter, generic.MonthPeriod(year, month), true
}

func dayParams(w http.ResponseWriter, r *http.Request) (report.EmployeeFilter, generic.TimePoint, bool) {
	filter, err := parseEmployeeFilter(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid filter", err)
		return filter, generic.TimePoint{}, false
	}
	day := generic.Today()
	if s := r.URL.Query().Get("date"); s != "" {
		d, err := generic.ParseDate(s)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid date", err)
			return filter, generic.TimePoint{}, false
		}
		day = d
	}
	return filter, day, true
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
