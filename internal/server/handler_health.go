package server

import (
	"net/http"
	"runtime"
	"time"
)

type healthResponse struct {
	Status    string `json:"status"`
	Version   string `json:"version"`
	GoVersion string `json:"go_version"`
	Uptime    string `json:"uptime"`
	Store     string `json:"store"`
	Notifier  string `json:"notifier"`
	Reminders string `json:"reminders"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	reminders := "manual"
	if s.loop != nil {
		reminders = "every " + s.config.Reminders.Interval.String()
	}
	respondOK(w, reqID, healthResponse{
		Status:    "healthy",
		Version:   Version,
		GoVersion: runtime.Version(),
		Uptime:    time.Since(s.startTime).Round(time.Second).String(),
		Store:     s.config.Store.Driver,
		Notifier:  s.dispatcher.Current().Name(),
		Reminders: reminders,
	})
}
