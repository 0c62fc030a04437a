package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/me/mesas/pkg/model"
)

// handleWatchBoard streams a board's state via Server-Sent Events until the
// client disconnects or the board is deleted.
// GET /api/v1/boards/{id}/events
func (s *Server) handleWatchBoard(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	b, err := s.service.GetBoard(r.Context(), id)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "SSE not supported", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // Disable nginx buffering

	if err := sendSSEEvent(w, flusher, "init", b); err != nil {
		s.logger.Debug("sse client disconnected", "board_id", id, "error", err)
		return
	}

	ticker := time.NewTicker(s.watchEvery)
	defer ticker.Stop()
	last := fingerprint(b)

	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
			b, err = s.service.GetBoard(r.Context(), id)
			if err != nil {
				// Deleted boards end the stream; store errors are retried.
				if _, apiErr := toAPIError(err); apiErr.Code == model.ErrNotFound {
					sendSSEEvent(w, flusher, "deleted", map[string]string{"id": id})
					return
				}
				s.logger.Error("sse fetch error", "board_id", id, "error", err)
				continue
			}
			if fp := fingerprint(b); fp != last {
				if err := sendSSEEvent(w, flusher, "update", b); err != nil {
					return
				}
				last = fp
			} else {
				fmt.Fprintf(w, ": heartbeat\n\n")
				flusher.Flush()
			}
		}
	}
}

// fingerprint changes whenever the board's observable state changes.
func fingerprint(b *model.Board) string {
	return b.UpdatedAt.Format(time.RFC3339Nano) + "|" + string(b.Status)
}

func sendSSEEvent(w http.ResponseWriter, flusher http.Flusher, event string, data any) error {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, jsonData)
	if err != nil {
		return err
	}

	flusher.Flush()
	return nil
}
