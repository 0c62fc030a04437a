package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/me/mesas/pkg/model"
)

type notifierResponse struct {
	Strategy   string   `json:"strategy"`
	Available  []string `json:"available"`
	Listeners  int      `json:"listeners"`
	Recipients int      `json:"recipients"`
}

func (s *Server) notifierState() notifierResponse {
	resp := notifierResponse{
		Strategy:  s.dispatcher.Current().Name(),
		Available: s.dispatcher.Strategies(),
	}
	if s.hub != nil {
		resp.Listeners = s.hub.Listeners()
	}
	if s.push != nil {
		resp.Recipients = len(s.push.Recipients())
	}
	return resp
}

func (s *Server) handleGetNotifier(w http.ResponseWriter, r *http.Request) {
	respondOK(w, RequestIDFromContext(r.Context()), s.notifierState())
}

// handleSetNotifier swaps the active delivery strategy. Sends already in
// flight finish on the previous one.
func (s *Server) handleSetNotifier(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	var req struct {
		Strategy string `json:"strategy"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if err := s.dispatcher.Use(req.Strategy); err != nil {
		respondError(w, reqID, http.StatusBadRequest,
			model.NewValidationError(err.Error(), model.FieldError{Field: "strategy", Message: err.Error()}))
		return
	}
	s.logger.Info("notifier strategy changed", "strategy", req.Strategy, "request_id", reqID)
	respondOK(w, reqID, s.notifierState())
}

func (s *Server) pushEnabled(w http.ResponseWriter, r *http.Request) bool {
	if s.push != nil {
		return true
	}
	respondError(w, RequestIDFromContext(r.Context()), http.StatusNotFound,
		&model.APIError{Code: model.ErrNotFound, Message: "push notifications are not configured"})
	return false
}

func (s *Server) handleListSubscriptions(w http.ResponseWriter, r *http.Request) {
	if !s.pushEnabled(w, r) {
		return
	}
	eps := s.push.Subscriptions(chi.URLParam(r, "recipient"))
	if eps == nil {
		eps = []model.Endpoint{}
	}
	respondOK(w, RequestIDFromContext(r.Context()), eps)
}

func (s *Server) handleSubscribe(w http.ResponseWriter, r *http.Request) {
	if !s.pushEnabled(w, r) {
		return
	}
	reqID := RequestIDFromContext(r.Context())
	var ep model.Endpoint
	if !decodeBody(w, r, &ep) {
		return
	}
	if ep.URL == "" || ep.Keys.P256dh == "" || ep.Keys.Auth == "" {
		respondError(w, reqID, http.StatusBadRequest, model.NewValidationError("endpoint and keys are required",
			model.FieldError{Field: "endpoint", Message: "endpoint, keys.p256dh and keys.auth are required"}))
		return
	}
	recipient := chi.URLParam(r, "recipient")
	added := s.push.Subscribe(recipient, ep)
	respondCreated(w, reqID, map[string]any{"recipient": recipient, "endpoint": ep.URL, "added": added})
}

func (s *Server) handleUnsubscribe(w http.ResponseWriter, r *http.Request) {
	if !s.pushEnabled(w, r) {
		return
	}
	reqID := RequestIDFromContext(r.Context())
	var req struct {
		Endpoint string `json:"endpoint"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	recipient := chi.URLParam(r, "recipient")
	removed := s.push.Unsubscribe(recipient, req.Endpoint)
	respondOK(w, reqID, map[string]any{"recipient": recipient, "endpoint": req.Endpoint, "removed": removed})
}
