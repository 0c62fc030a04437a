package server

import "net/http"

type endpointInfo struct {
	Path        string   `json:"path"`
	Methods     []string `json:"methods"`
	Description string   `json:"description"`
}

type discoveryResponse struct {
	Name        string         `json:"name"`
	Version     string         `json:"version"`
	Description string         `json:"description"`
	Endpoints   []endpointInfo `json:"endpoints"`
}

func (s *Server) handleDiscovery(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	respondOK(w, reqID, discoveryResponse{
		Name:        "mesas API",
		Version:     "v1",
		Description: "Exam board scheduling, examiner confirmation, and notifications",
		Endpoints: []endpointInfo{
			{"/api/v1/boards", []string{"GET", "POST"}, "List boards (?status, ?date, ?limit, ?offset) or schedule a new one"},
			{"/api/v1/boards/{id}", []string{"GET", "PATCH", "DELETE"}, "Single board; PATCH and DELETE are administrative"},
			{"/api/v1/boards/{id}/confirmations", []string{"POST"}, "Record an examiner's accept or reject"},
			{"/api/v1/boards/{id}/confirm", []string{"POST"}, "Administrative confirmation"},
			{"/api/v1/boards/{id}/cancel", []string{"POST"}, "Cancel a pending board or roll back a confirmed one"},
			{"/api/v1/boards/{id}/reopen", []string{"POST"}, "Reopen a cancelled board"},
			{"/api/v1/boards/{id}/reminders", []string{"GET", "POST"}, "Reminders attached to a board"},
			{"/api/v1/boards/{id}/events", []string{"GET"}, "Server-sent events for one board"},
			{"/api/v1/examiners/{id}/boards", []string{"GET"}, "Boards an examiner sits on"},
			{"/api/v1/reminders/run", []string{"POST"}, "Run one reminder pass now"},
			{"/api/v1/notifier", []string{"GET", "PUT"}, "Show or switch the notification strategy"},
			{"/api/v1/subscriptions/{recipient}", []string{"GET", "POST", "DELETE"}, "Web push subscriptions of a recipient"},
			{"/api/v1/ws", []string{"GET"}, "Websocket broadcast channel"},
			{"/api/v1/health", []string{"GET"}, "Server health and version"},
		},
	})
}
