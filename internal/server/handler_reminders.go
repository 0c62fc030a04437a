package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/me/mesas/pkg/model"
)

func (s *Server) handleListReminders(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := s.service.GetBoard(r.Context(), id); err != nil {
		s.respondErr(w, r, err)
		return
	}
	reminders, err := s.reminders.List(r.Context(), id)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	if reminders == nil {
		reminders = []*model.Reminder{}
	}
	respondOK(w, RequestIDFromContext(r.Context()), reminders)
}

func (s *Server) handleScheduleReminder(w http.ResponseWriter, r *http.Request) {
	var req struct {
		HoursBefore int `json:"hours_before"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	rem, err := s.reminders.Schedule(r.Context(), chi.URLParam(r, "id"), req.HoursBefore)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	respondCreated(w, RequestIDFromContext(r.Context()), rem)
}

// handleRunReminders is the external trigger for one reminder pass.
func (s *Server) handleRunReminders(w http.ResponseWriter, r *http.Request) {
	report, err := s.reminders.Process(r.Context())
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	respondOK(w, RequestIDFromContext(r.Context()), report)
}
