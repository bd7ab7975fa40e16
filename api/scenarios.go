/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:

	Provides pre-built scenarios that populate the database with a month
	of realistic attendance data. Each scenario creates employees, punches,
	holidays and short-leave requests that show one part of the engine.

AVAILABLE SCENARIOS:

	late-arrivals:    Both groups, on time / late / half day / absent mix
	holiday-overtime: Mercantile holiday and Saturday worked as full OT
	short-leave-cap:  Two approved short leaves, a third left pending

HOW SCENARIOS WORK:
 1. Reset database (clear all data)
 2. Re-store the default group working hours
 3. Create employees
 4. Record punches, holidays and leaves for the month
 5. Optionally submit and decide short-leave requests

USAGE VIA API:

	POST /api/scenarios/load
	{"scenario_id": "late-arrivals", "month": "2025-03"}

	month defaults to the current month.

NOTE:

	Scenarios reset the database. The routes are not mounted when APP_ENV
	is production, and loading is refused while the policies come from
	POLICY_FILE.

SEE ALSO:
  - handlers.go: Handler and error mapping
  - shortleave/request.go: Request lifecycle used by short-leave-cap
*/
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/warp/attendance-engine/attendance"
	"github.com/warp/attendance-engine/generic"
	"github.com/warp/attendance-engine/report"
	"github.com/warp/attendance-engine/shortleave"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

var scenarios = []ScenarioDTO{
	{
		ID:          "late-arrivals",
		Name:        "Late Arrivals",
		Description: "Group A and Group B staff with on-time, late, half-day and absent days",
		Category:    "attendance",
	},
	{
		ID:          "holiday-overtime",
		Name:        "Holiday Overtime",
		Description: "Work on a mercantile holiday and a Saturday counted as full OT",
		Category:    "overtime",
	},
	{
		ID:          "short-leave-cap",
		Name:        "Short Leave Cap",
		Description: "Two approved short leaves use the monthly allowance; a third waits",
		Category:    "short-leave",
	},
}

type scenarioLoader func(h *Handler, ctx context.Context, month generic.Period) error

var scenarioLoaders = map[string]scenarioLoader{
	"late-arrivals":    (*Handler).loadLateArrivalsScenario,
	"holiday-overtime": (*Handler).loadHolidayOvertimeScenario,
	"short-leave-cap":  (*Handler).loadShortLeaveCapScenario,
}

// ListScenarios returns available scenarios.
// GET /api/scenarios
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// GetCurrentScenario returns the currently loaded scenario, if any.
// GET /api/scenarios/current
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	h.scenarioMu.Lock()
	current := h.currentScenario
	h.scenarioMu.Unlock()

	for _, s := range scenarios {
		if s.ID == current {
			writeJSON(w, http.StatusOK, s)
			return
		}
	}
	writeJSON(w, http.StatusOK, nil)
}

// LoadScenario resets the database and loads a predefined scenario.
// POST /api/scenarios/load
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}
	load, ok := scenarioLoaders[req.ScenarioID]
	if !ok {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Unknown scenario", Code: "unknown_scenario", Details: req.ScenarioID})
		return
	}
	// Scenarios restore the default policies, which would overwrite the
	// operator's file.
	if h.Policies.FileBacked() {
		writeJSON(w, http.StatusConflict, ErrorResponse{
			Error:   "Scenarios need database-backed policies",
			Code:    "policy_file_in_use",
			Details: "unset POLICY_FILE to load demo scenarios",
		})
		return
	}

	now := time.Now()
	year, month := now.Year(), now.Month()
	if req.Month != "" {
		t, _ := time.Parse("2006-01", req.Month) // format checked by the validator
		year, month = t.Year(), t.Month()
	}

	h.scenarioMu.Lock()
	defer h.scenarioMu.Unlock()

	ctx := r.Context()
	h.currentScenario = ""
	if err := h.Store.Reset(ctx); err != nil {
		h.fail(w, r, fmt.Errorf("reset database: %w", err))
		return
	}
	if err := h.Policies.Update(ctx, attendance.DefaultPolicySet()); err != nil {
		h.fail(w, r, fmt.Errorf("restore default policies: %w", err))
		return
	}
	if err := load(h, ctx, generic.MonthPeriod(year, month)); err != nil {
		h.fail(w, r, fmt.Errorf("load scenario %s: %w", req.ScenarioID, err))
		return
	}

	h.currentScenario = req.ScenarioID
	h.Logger.Info("scenario loaded", "scenario", req.ScenarioID, "year", year, "month", int(month))
	writeJSON(w, http.StatusOK, map[string]string{
		"status":   "loaded",
		"scenario": req.ScenarioID,
		"month":    fmt.Sprintf("%04d-%02d", year, int(month)),
	})
}

// =============================================================================
// SCENARIO LOADERS
// =============================================================================

// loadLateArrivalsScenario cycles each employee through a fixed pattern of
// arrivals over the weekdays of the month.
func (h *Handler) loadLateArrivalsScenario(ctx context.Context, month generic.Period) error {
	staff := []report.Employee{
		{ID: "emp-001", Code: "A-001", Name: "Nimal Perera", Department: "Finance", Group: attendance.GroupA, Active: true},
		{ID: "emp-002", Code: "B-001", Name: "Kumari Silva", Department: "Operations", Group: attendance.GroupB, Active: true},
	}
	patterns := map[attendance.Group][][2]string{
		attendance.GroupA: {
			{"08:25", "16:20"}, // present
			{"09:20", "16:30"}, // late
			{"10:40", "16:15"}, // half day
			{"", ""},           // absent
			{"08:30", "18:00"}, // present with OT
		},
		attendance.GroupB: {
			{"08:05", "16:50"},
			{"08:40", "17:00"},
			{"10:15", "16:45"},
			{"08:00", "17:45"},
			{"", ""},
		},
	}

	// One approved leave week for the Group A employee, who does not punch
	// during it.
	days := weekdays(month)
	leave := report.LeaveInterval{
		ID:         "leave-001",
		EmployeeID: "emp-001",
		Start:      days[len(days)-5],
		End:        days[len(days)-1],
		Type:       "annual",
	}

	for _, emp := range staff {
		if err := h.Store.SaveEmployee(ctx, emp); err != nil {
			return err
		}
		pattern := patterns[emp.Group]
		for i, day := range days {
			p := pattern[i%len(pattern)]
			if p[0] == "" || (emp.ID == leave.EmployeeID && leave.Period().Contains(day)) {
				continue
			}
			if err := h.Store.SavePunch(ctx, punchAt(emp.ID, day, p[0], p[1])); err != nil {
				return err
			}
		}
	}
	return h.Store.SaveLeave(ctx, leave)
}

// loadHolidayOvertimeScenario puts a mercantile holiday on the first
// Wednesday and has the employee work it, the first Saturday, and late
// evenings on ordinary days.
func (h *Handler) loadHolidayOvertimeScenario(ctx context.Context, month generic.Period) error {
	emp := report.Employee{ID: "emp-010", Code: "B-010", Name: "Ruwan Fernando", Department: "Warehouse", Group: attendance.GroupB, Active: true}
	if err := h.Store.SaveEmployee(ctx, emp); err != nil {
		return err
	}

	holiday := firstWeekday(month, time.Wednesday)
	if _, err := h.Store.SaveHoliday(ctx, generic.Holiday{
		ID:   "hol-001",
		Date: holiday,
		Name: "Full Moon Poya Day",
		Kind: generic.HolidayMercantile,
	}); err != nil {
		return err
	}

	punches := []report.Punch{
		punchAt(emp.ID, holiday, "08:00", "13:30"),
		punchAt(emp.ID, firstWeekday(month, time.Saturday), "08:30", "12:30"),
	}
	for _, day := range weekdays(month) {
		if day.Equal(holiday) {
			continue
		}
		out := "16:45"
		if day.Weekday() == time.Tuesday || day.Weekday() == time.Thursday {
			out = "19:15"
		}
		punches = append(punches, punchAt(emp.ID, day, "07:55", out))
	}
	for _, p := range punches {
		if err := h.Store.SavePunch(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

// loadShortLeaveCapScenario arrives late on three mornings, each covered
// by a morning short leave request. Two are approved; the third cannot be
// and stays pending.
func (h *Handler) loadShortLeaveCapScenario(ctx context.Context, month generic.Period) error {
	emp := report.Employee{ID: "emp-020", Code: "A-020", Name: "Dilani Jayasuriya", Department: "HR", Group: attendance.GroupA, Active: true}
	if err := h.Store.SaveEmployee(ctx, emp); err != nil {
		return err
	}

	days := weekdays(month)
	for i, day := range days {
		in := "08:28"
		if i < 3 {
			in = "10:20"
		}
		if err := h.Store.SavePunch(ctx, punchAt(emp.ID, day, in, "16:20")); err != nil {
			return err
		}
	}

	var ids []string
	for _, day := range days[:3] {
		req, err := h.ShortLeaves.Submit(ctx, shortleave.SubmitInput{
			EmployeeID: emp.ID,
			Group:      emp.Group,
			Date:       day,
			Type:       shortleave.TypeMorning,
			StartTime:  generic.MustParseClock("08:30"),
			EndTime:    generic.MustParseClock("10:00"),
			Reason:     "medical appointment",
		})
		if err != nil {
			return err
		}
		ids = append(ids, req.ID)
	}
	for _, id := range ids[:2] {
		if _, err := h.ShortLeaves.Approve(ctx, id, "hr-admin"); err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// HELPERS
// =============================================================================

func weekdays(month generic.Period) []generic.TimePoint {
	var out []generic.TimePoint
	for _, d := range month.Days() {
		if !d.IsWeekend() {
			out = append(out, d)
		}
	}
	return out
}

func firstWeekday(month generic.Period, wd time.Weekday) generic.TimePoint {
	d := month.Start
	for d.Weekday() != wd {
		d = d.AddDays(1)
	}
	return d
}

func punchAt(id generic.EmployeeID, day generic.TimePoint, in, out string) report.Punch {
	checkIn := day.At(generic.MustParseClock(in), time.UTC)
	checkOut := day.At(generic.MustParseClock(out), time.UTC)
	return report.Punch{EmployeeID: id, Date: day, CheckIn: &checkIn, CheckOut: &checkOut}
}
