package server

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/me/mesas/pkg/model"
)

func (s *Server) handleListBoards(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	opts := listOptions(r)

	boards, total, err := s.service.ListBoards(r.Context(), opts)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	opts.Clamp()
	respondList(w, reqID, boards, &model.Pagination{
		Total:   total,
		Limit:   opts.Limit,
		Offset:  opts.Offset,
		HasMore: opts.Offset+opts.Limit < total,
	})
}

// listOptions reads limit, offset, status and date from the query string.
func listOptions(r *http.Request) model.ListOptions {
	q := r.URL.Query()
	opts := model.DefaultListOptions()
	if v, err := strconv.Atoi(q.Get("limit")); err == nil {
		opts.Limit = v
	}
	if v, err := strconv.Atoi(q.Get("offset")); err == nil {
		opts.Offset = v
	}
	opts.Status = q.Get("status")
	opts.Date = q.Get("date")
	return opts
}

func (s *Server) handleCreateBoard(w http.ResponseWriter, r *http.Request) {
	var in model.NewBoard
	if !decodeBody(w, r, &in) {
		return
	}
	b, err := s.service.CreateBoard(r.Context(), in)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	respondCreated(w, RequestIDFromContext(r.Context()), b)
}

func (s *Server) handleGetBoard(w http.ResponseWriter, r *http.Request) {
	b, err := s.service.GetBoard(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	respondOK(w, RequestIDFromContext(r.Context()), b)
}

func (s *Server) handleUpdateBoard(w http.ResponseWriter, r *http.Request) {
	var patch model.BoardPatch
	if !decodeBody(w, r, &patch) {
		return
	}
	b, err := s.service.UpdateBoard(r.Context(), chi.URLParam(r, "id"), patch)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	respondOK(w, RequestIDFromContext(r.Context()), b)
}

func (s *Server) handleDeleteBoard(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.service.DeleteBoard(r.Context(), id); err != nil {
		s.respondErr(w, r, err)
		return
	}
	respondOK(w, RequestIDFromContext(r.Context()), map[string]string{"id": id, "deleted": "true"})
}

type confirmationRequest struct {
	ExaminerID string             `json:"examiner_id"`
	Value      model.Confirmation `json:"value"`
}

func (s *Server) handleRecordConfirmation(w http.ResponseWriter, r *http.Request) {
	var req confirmationRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.ExaminerID == "" {
		respondError(w, RequestIDFromContext(r.Context()), http.StatusBadRequest,
			model.NewValidationError("examiner_id is required", model.FieldError{Field: "examiner_id", Message: "required"}))
		return
	}
	b, err := s.service.RecordConfirmation(r.Context(), chi.URLParam(r, "id"), req.ExaminerID, req.Value)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	respondOK(w, RequestIDFromContext(r.Context()), b)
}

func (s *Server) handleConfirmBoard(w http.ResponseWriter, r *http.Request) {
	b, err := s.service.ConfirmBoardDirect(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	respondOK(w, RequestIDFromContext(r.Context()), b)
}

func (s *Server) handleCancelBoard(w http.ResponseWriter, r *http.Request) {
	b, err := s.service.CancelBoard(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	respondOK(w, RequestIDFromContext(r.Context()), b)
}

func (s *Server) handleReopenBoard(w http.ResponseWriter, r *http.Request) {
	b, err := s.service.ReopenBoard(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	respondOK(w, RequestIDFromContext(r.Context()), b)
}

func (s *Server) handleListExaminerBoards(w http.ResponseWriter, r *http.Request) {
	boards, err := s.service.ListExaminerBoards(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	if boards == nil {
		boards = []*model.Board{}
	}
	respondOK(w, RequestIDFromContext(r.Context()), boards)
}
