package api

import (
	"io"
	"net/http"
	"time"

	"github.com/hayatos/hayatos/internal/auth"
	"github.com/hayatos/hayatos/internal/calendar"
	"github.com/hayatos/hayatos/internal/errs"
	"github.com/hayatos/hayatos/internal/habits"
	"github.com/hayatos/hayatos/internal/health"
	"github.com/hayatos/hayatos/internal/islamic"
	"github.com/hayatos/hayatos/internal/notes"
	"github.com/hayatos/hayatos/internal/reminders"
)

// Notes

func (s *Server) handleListNotes(w http.ResponseWriter, r *http.Request) {
	udb := auth.GetUserDB(r.Context())
	q := r.URL.Query()
	list, err := s.Notes.List(r.Context(), udb, q.Get("folder"), q.Get("search"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleGetNote(w http.ResponseWriter, r *http.Request) {
	udb := auth.GetUserDB(r.Context())
	n, err := s.Notes.Get(r.Context(), udb, r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, n)
}

func (s *Server) handleCreateNote(w http.ResponseWriter, r *http.Request) {
	udb := auth.GetUserDB(r.Context())
	var in notes.CreateInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	n, err := s.Notes.Create(r.Context(), udb, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, n)
}

func (s *Server) handleUpdateNote(w http.ResponseWriter, r *http.Request) {
	udb := auth.GetUserDB(r.Context())
	var in notes.UpdateInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	n, err := s.Notes.Update(r.Context(), udb, r.PathValue("id"), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, n)
}

func (s *Server) handleDeleteNote(w http.ResponseWriter, r *http.Request) {
	udb := auth.GetUserDB(r.Context())
	if err := s.Notes.Delete(r.Context(), udb, r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// Reminders

func (s *Server) handleListReminders(w http.ResponseWriter, r *http.Request) {
	udb := auth.GetUserDB(r.Context())
	q := r.URL.Query()
	list, err := s.Reminders.List(r.Context(), udb, reminders.Filter{
		View:     q.Get("view"),
		Search:   q.Get("search"),
		Category: q.Get("category"),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleCreateReminder(w http.ResponseWriter, r *http.Request) {
	udb := auth.GetUserDB(r.Context())
	var in reminders.CreateInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	rem, err := s.Reminders.Create(r.Context(), udb, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, rem)
}

func (s *Server) handleUpdateReminder(w http.ResponseWriter, r *http.Request) {
	udb := auth.GetUserDB(r.Context())
	var in reminders.UpdateInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	rem, err := s.Reminders.Update(r.Context(), udb, r.PathValue("id"), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rem)
}

func (s *Server) handleCompleteReminder(w http.ResponseWriter, r *http.Request) {
	udb := auth.GetUserDB(r.Context())
	rem, err := s.Reminders.Complete(r.Context(), udb, r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rem)
}

func (s *Server) handleDeleteReminder(w http.ResponseWriter, r *http.Request) {
	udb := auth.GetUserDB(r.Context())
	if err := s.Reminders.Delete(r.Context(), udb, r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// Habits

func (s *Server) handleListHabits(w http.ResponseWriter, r *http.Request) {
	udb := auth.GetUserDB(r.Context())
	list, err := s.Habits.List(r.Context(), udb)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleCreateHabit(w http.ResponseWriter, r *http.Request) {
	udb := auth.GetUserDB(r.Context())
	var in habits.CreateInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	h, err := s.Habits.Create(r.Context(), udb, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, h)
}

func (s *Server) handleUpdateHabit(w http.ResponseWriter, r *http.Request) {
	udb := auth.GetUserDB(r.Context())
	var in habits.UpdateInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	h, err := s.Habits.Update(r.Context(), udb, r.PathValue("id"), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h)
}

func (s *Server) handleDeleteHabit(w http.ResponseWriter, r *http.Request) {
	udb := auth.GetUserDB(r.Context())
	if err := s.Habits.Delete(r.Context(), udb, r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) handleLogHabitStatus(w http.ResponseWriter, r *http.Request) {
	udb := auth.GetUserDB(r.Context())
	var req struct {
		Date string `json:"date"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	h, err := s.Habits.LogStatus(r.Context(), udb, r.PathValue("id"), req.Date)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h)
}

func (s *Server) handleToggleHabitToday(w http.ResponseWriter, r *http.Request) {
	udb := auth.GetUserDB(r.Context())
	h, err := s.Habits.ToggleToday(r.Context(), udb, r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h)
}

// Health

func (s *Server) handleListHealthLogs(w http.ResponseWriter, r *http.Request) {
	udb := auth.GetUserDB(r.Context())
	q := r.URL.Query()
	list, err := s.Health.List(r.Context(), udb, q.Get("metric"), q.Get("from"), q.Get("to"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleAddHealthLog(w http.ResponseWriter, r *http.Request) {
	udb := auth.GetUserDB(r.Context())
	var in health.CreateInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	l, err := s.Health.Add(r.Context(), udb, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, l)
}

func (s *Server) handleDeleteHealthLog(w http.ResponseWriter, r *http.Request) {
	udb := auth.GetUserDB(r.Context())
	if err := s.Health.Delete(r.Context(), udb, r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// Calendar

func (s *Server) handleListEvents(w http.ResponseWriter, r *http.Request) {
	udb := auth.GetUserDB(r.Context())
	q := r.URL.Query()
	list, err := s.Calendar.List(r.Context(), udb, q.Get("from"), q.Get("to"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleCreateEvent(w http.ResponseWriter, r *http.Request) {
	udb := auth.GetUserDB(r.Context())
	var in calendar.CreateInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	e, err := s.Calendar.Create(r.Context(), udb, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, e)
}

func (s *Server) handleUpdateEvent(w http.ResponseWriter, r *http.Request) {
	udb := auth.GetUserDB(r.Context())
	var in calendar.UpdateInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	e, err := s.Calendar.Update(r.Context(), udb, r.PathValue("id"), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (s *Server) handleDeleteEvent(w http.ResponseWriter, r *http.Request) {
	udb := auth.GetUserDB(r.Context())
	if err := s.Calendar.Delete(r.Context(), udb, r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// Islamic

func (s *Server) handleGetPrayerTimes(w http.ResponseWriter, r *http.Request) {
	udb := auth.GetUserDB(r.Context())
	times, err := s.Islamic.GetPrayerTimes(r.Context(), udb)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		PrayerTimes  []islamic.PrayerTime `json:"prayerTimes"`
		AudioBaseURL string               `json:"audioBaseURL,omitempty"`
	}{times, s.AudioBaseURL})
}

func (s *Server) handleSetPrayerTimes(w http.ResponseWriter, r *http.Request) {
	udb := auth.GetUserDB(r.Context())
	var times []islamic.PrayerTime
	if err := decodeJSON(r, &times); err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.Islamic.SetPrayerTimes(r.Context(), udb, times); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, times)
}

func (s *Server) handleNextPrayer(w http.ResponseWriter, r *http.Request) {
	udb := auth.GetUserDB(r.Context())
	np, err := s.Islamic.Next(r.Context(), udb)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, np)
}

func (s *Server) handleListIslamicLogs(w http.ResponseWriter, r *http.Request) {
	udb := auth.GetUserDB(r.Context())
	q := r.URL.Query()
	list, err := s.Islamic.ListLogs(r.Context(), udb, q.Get("from"), q.Get("to"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleLogIslamicPractice(w http.ResponseWriter, r *http.Request) {
	udb := auth.GetUserDB(r.Context())
	var log islamic.PracticeLog
	if err := decodeJSON(r, &log); err != nil {
		writeError(w, r, err)
		return
	}
	if log.Date == "" {
		log.Date = time.Now().UTC().Format(islamic.DateLayout)
	}
	if err := s.Islamic.LogPractice(r.Context(), udb, log); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, log)
}

// Settings

func (s *Server) handleGetAllSettings(w http.ResponseWriter, r *http.Request) {
	udb := auth.GetUserDB(r.Context())
	all, err := s.Settings.GetAll(r.Context(), udb)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, all)
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	udb := auth.GetUserDB(r.Context())
	raw, err := s.Settings.Get(r.Context(), udb, r.PathValue("section"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(raw); err != nil {
		writeError(w, r, errs.Wrap(errs.Internal, "write settings", err))
	}
}

func (s *Server) handlePutSettings(w http.ResponseWriter, r *http.Request) {
	udb := auth.GetUserDB(r.Context())
	// Sections are arbitrary JSON documents (objects or arrays), so the
	// body passes through unparsed. Put validates it.
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		writeError(w, r, errs.Wrap(errs.InvalidArgument, "read body", err))
		return
	}
	section := r.PathValue("section")
	if err := s.Settings.Put(r.Context(), udb, section, body); err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}

func (s *Server) handleDeleteSettings(w http.ResponseWriter, r *http.Request) {
	udb := auth.GetUserDB(r.Context())
	if err := s.Settings.Delete(r.Context(), udb, r.PathValue("section")); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}
