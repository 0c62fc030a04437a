package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"

	"github.com/me/mesas/pkg/model"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// requestID generates a unique request identifier.
func requestID() string {
	return "req_" + uuid.New().String()[:8]
}

// respondOK writes a success response with the standard envelope.
func respondOK(w http.ResponseWriter, reqID string, data any) {
	respondJSON(w, http.StatusOK, reqID, data, nil, nil)
}

// respondCreated writes a 201 response with the standard envelope.
func respondCreated(w http.ResponseWriter, reqID string, data any) {
	respondJSON(w, http.StatusCreated, reqID, data, nil, nil)
}

// respondList writes a success response with pagination.
func respondList(w http.ResponseWriter, reqID string, data any, pg *model.Pagination) {
	respondJSON(w, http.StatusOK, reqID, data, pg, nil)
}

// respondError writes an error response with the standard envelope.
func respondError(w http.ResponseWriter, reqID string, status int, apiErr *model.APIError) {
	respondJSON(w, status, reqID, nil, nil, apiErr)
}

// respondErr maps a service error onto its HTTP status.
func (s *Server) respondErr(w http.ResponseWriter, r *http.Request, err error) {
	status, apiErr := toAPIError(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "path", r.URL.Path, "error", err,
			"request_id", RequestIDFromContext(r.Context()))
	}
	respondError(w, RequestIDFromContext(r.Context()), status, apiErr)
}

// toAPIError classifies err: validation 400, not found 404, invalid
// transition 409, anything else 500.
func toAPIError(err error) (int, *model.APIError) {
	var (
		verr *model.ValidationError
		nerr *model.NotFoundError
		terr *model.InvalidTransitionError
	)
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest, model.NewValidationError(verr.Reason.Error(), model.FieldError{
			Field:   verr.Field,
			Message: verr.Error(),
		})
	case errors.As(err, &nerr):
		return http.StatusNotFound, model.NewNotFoundError(nerr.Resource, nerr.ID)
	case errors.As(err, &terr):
		return http.StatusConflict, &model.APIError{Code: model.ErrConflict, Message: terr.Error()}
	case errors.Is(err, model.ErrStore):
		return http.StatusInternalServerError, model.NewInternalError("storage failure")
	default:
		return http.StatusInternalServerError, model.NewInternalError(err.Error())
	}
}

// decodeBody parses the JSON request body into v.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		respondError(w, RequestIDFromContext(r.Context()), http.StatusBadRequest, &model.APIError{
			Code:    model.ErrValidation,
			Message: "Invalid JSON body: " + err.Error(),
		})
		return false
	}
	return true
}

func respondJSON(w http.ResponseWriter, status int, reqID string, data any, pg *model.Pagination, apiErr *model.APIError) {
	resp := model.Response{
		RequestID:  reqID,
		Timestamp:  time.Now().UTC(),
		Data:       data,
		Pagination: pg,
		Error:      apiErr,
	}
	if apiErr != nil {
		resp.Status = "error"
	} else {
		resp.Status = "ok"
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(resp)
}
