/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:  Unique ID per request for tracing
  2. httplog:    Structured request logging (ECS schema, slog)
  3. Recoverer:  Panic recovery (500 instead of crash)
  4. Heartbeat:  /ping liveness check
  5. CORS:       Cross-origin requests for the HR frontend

ROUTE GROUPS:
  /api/attendance/*       Ad-hoc evaluation and punch feed
  /api/group-working-hours  Policy document and refresh status
  /api/employees/*        Employees, leaves, short-leave usage
  /api/holidays/*         Holiday calendar
  /api/short-leaves/*     Short-leave workflow
  /api/scenarios/*        Demo data (not mounted in production)
  /api/reports/*          Reports

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
)

// RouterOptions controls the parts of the route table that depend on the
// deployment.
type RouterOptions struct {
	// AllowedOrigins feeds CORS.
	AllowedOrigins []string
	// DemoScenarios mounts /api/scenarios. Loading a scenario wipes the
	// database, so production never mounts it.
	DemoScenarios bool
}

// NewRouter creates a new router with all routes configured. logger is the
// request logger.
func NewRouter(h *Handler, logger *slog.Logger, opts RouterOptions) *chi.Mux {
	r := chi.NewRouter()

	if logger == nil {
		logger = h.Logger
	}

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(httplog.RequestLogger(logger, &httplog.Options{
		Level:  slog.LevelInfo,
		Schema: httplog.SchemaECS,
	}))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/ping"))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		AllowCredentials: true,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Route("/attendance", func(r chi.Router) {
			r.Post("/classify", h.Classify)
			r.Post("/offer-hours", h.OfferHours)
			r.Post("/punches", h.RecordPunch)
		})

		r.Get("/group-working-hours", h.GetGroupWorkingHours)
		r.Put("/group-working-hours", h.UpdateGroupWorkingHours)
		r.Get("/group-working-hours/refresh", h.GetPolicyRefreshStatus)

		r.Route("/employees", func(r chi.Router) {
			r.Get("/", h.ListEmployees)
			r.Post("/", h.CreateEmployee)
			r.Get("/{id}", h.GetEmployee)
			r.Get("/{id}/leaves", h.ListLeaves)
			r.Get("/{id}/short-leave-usage", h.GetShortLeaveUsage)
		})

		r.Post("/leaves", h.RecordLeave)

		r.Route("/holidays", func(r chi.Router) {
			r.Get("/", h.ListHolidays)
			r.Post("/", h.CreateHoliday)
			r.Delete("/{id}", h.DeleteHoliday)
		})

		r.Route("/short-leaves", func(r chi.Router) {
			r.Post("/", h.SubmitShortLeave)
			r.Get("/pending", h.ListPendingShortLeaves)
			r.Post("/{id}/approve", h.ApproveShortLeave)
			r.Post("/{id}/reject", h.RejectShortLeave)
			r.Post("/{id}/cancel", h.CancelShortLeave)
		})

		if opts.DemoScenarios {
			r.Route("/scenarios", func(r chi.Router) {
				r.Get("/", h.ListScenarios)
				r.Get("/current", h.GetCurrentScenario)
				r.Post("/load", h.LoadScenario)
			})
		}

		r.Route("/reports", func(r chi.Router) {
			r.Get("/monthly-attendance", h.MonthlyAttendanceReport)
			r.Get("/offer-attendance", h.OfferAttendanceReport)
			r.Get("/monthly-absence", h.MonthlyAbsenceReport)
			r.Get("/late-arrival", h.LateArrivalReport)
			r.Get("/half-day", h.HalfDayReport)
			r.Get("/short-leave-usage", h.ShortLeaveUsageReport)
			r.Get("/daily-attendance", h.DailyAttendanceReport)
			r.Get("/daily-ot", h.DailyOvertimeReport)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "Route not found", nil)
	})

	return r
}

// NewLogger builds the JSON slog logger used for both application and
// request logs. Field names follow ECS so request and app lines line up.
func NewLogger(out io.Writer, level slog.Level, app string) *slog.Logger {
	logFormat := httplog.SchemaECS.Concise(false)
	return slog.New(slog.NewJSONHandler(out, &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(slog.String("app", app))
}
