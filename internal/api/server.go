// Package api wires the module services to REST routes. Handlers decode
// JSON, call a service, and encode the result; error codes map to HTTP
// statuses through errs.
package api

import (
	"encoding/json"
	"net/http"

	"github.com/hayatos/hayatos/internal/auth"
	"github.com/hayatos/hayatos/internal/calendar"
	"github.com/hayatos/hayatos/internal/errs"
	"github.com/hayatos/hayatos/internal/finance"
	"github.com/hayatos/hayatos/internal/habits"
	"github.com/hayatos/hayatos/internal/health"
	"github.com/hayatos/hayatos/internal/islamic"
	"github.com/hayatos/hayatos/internal/notes"
	"github.com/hayatos/hayatos/internal/obs"
	"github.com/hayatos/hayatos/internal/reminders"
	"github.com/hayatos/hayatos/internal/settings"
)

// Server holds the services behind the REST API.
type Server struct {
	Users     *auth.UserService
	Sessions  *auth.SessionService
	Notes     *notes.Service
	Reminders *reminders.Service
	Habits    *habits.Service
	Health    *health.Service
	Calendar  *calendar.Service
	Finance   *finance.Service
	Islamic   *islamic.Service
	Settings  *settings.Service

	// AudioBaseURL is surfaced to clients alongside prayer times so they
	// can resolve recitation audio assets. Optional.
	AudioBaseURL string
}

// RegisterRoutes mounts all API routes on the mux. Everything except the
// auth endpoints goes through the auth middleware.
func (s *Server) RegisterRoutes(mux *http.ServeMux, mw *auth.Middleware) {
	mux.HandleFunc("POST /api/auth/register", s.handleRegister)
	mux.HandleFunc("POST /api/auth/login", s.handleLogin)
	mux.HandleFunc("POST /api/auth/logout", s.handleLogout)
	mux.HandleFunc("POST /api/auth/forgot-password", s.handleForgotPassword)
	mux.HandleFunc("POST /api/auth/reset-password", s.handleResetPassword)
	mux.Handle("GET /api/auth/me", mw.RequireAuth(http.HandlerFunc(s.handleMe)))

	authed := func(pattern string, h http.HandlerFunc) {
		mux.Handle(pattern, mw.RequireAuth(h))
	}

	authed("GET /api/notes", s.handleListNotes)
	authed("POST /api/notes", s.handleCreateNote)
	authed("GET /api/notes/{id}", s.handleGetNote)
	authed("PUT /api/notes/{id}", s.handleUpdateNote)
	authed("DELETE /api/notes/{id}", s.handleDeleteNote)

	authed("GET /api/reminders", s.handleListReminders)
	authed("POST /api/reminders", s.handleCreateReminder)
	authed("PUT /api/reminders/{id}", s.handleUpdateReminder)
	authed("POST /api/reminders/{id}/complete", s.handleCompleteReminder)
	authed("DELETE /api/reminders/{id}", s.handleDeleteReminder)

	authed("GET /api/habits", s.handleListHabits)
	authed("POST /api/habits", s.handleCreateHabit)
	authed("PUT /api/habits/{id}", s.handleUpdateHabit)
	authed("DELETE /api/habits/{id}", s.handleDeleteHabit)
	authed("POST /api/habits/{id}/logStatus", s.handleLogHabitStatus)
	authed("POST /api/habits/{id}/toggle", s.handleToggleHabitToday)

	authed("GET /api/health/logs", s.handleListHealthLogs)
	authed("POST /api/health/logs", s.handleAddHealthLog)
	authed("DELETE /api/health/logs/{id}", s.handleDeleteHealthLog)

	authed("GET /api/calendar/events", s.handleListEvents)
	authed("POST /api/calendar/events", s.handleCreateEvent)
	authed("PUT /api/calendar/events/{id}", s.handleUpdateEvent)
	authed("DELETE /api/calendar/events/{id}", s.handleDeleteEvent)

	s.registerFinanceRoutes(authed)

	authed("GET /api/islamic/prayer-times", s.handleGetPrayerTimes)
	authed("PUT /api/islamic/prayer-times", s.handleSetPrayerTimes)
	authed("GET /api/islamic/next-prayer", s.handleNextPrayer)
	authed("GET /api/islamic/logs", s.handleListIslamicLogs)
	authed("POST /api/islamic/logs", s.handleLogIslamicPractice)

	authed("GET /api/settings", s.handleGetAllSettings)
	authed("GET /api/settings/{section}", s.handleGetSettings)
	authed("PUT /api/settings/{section}", s.handlePutSettings)
	authed("DELETE /api/settings/{section}", s.handleDeleteSettings)
}

// writeJSON encodes v with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		obs.Pkg("api").Error("write_json_failed", "error", err)
	}
}

// writeError maps an error to its HTTP status and a {"error": ...} body.
// Uncoded errors become 500s with a generic message; the cause is logged,
// never leaked.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := errs.CodeOf(err)
	status := errs.HTTPStatus(code)
	msg := errs.MessageOf(err)
	if status >= 500 {
		obs.From(r.Context()).Error("request_failed", "error", err, "path", r.URL.Path)
		msg = "internal server error"
	}
	writeJSON(w, status, map[string]string{"error": msg})
}

// decodeJSON decodes the request body into v with unknown fields allowed.
func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return errs.Wrap(errs.InvalidArgument, "invalid JSON body", err)
	}
	return nil
}
