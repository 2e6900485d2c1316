package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"vridhashram/pkg/types"
)

const maxJSONBytes = 1 << 20

type errorResponse struct {
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

type messageResponse struct {
	Message string `json:"message"`
}

func (s *Service) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.WithError(err).Error("failed to encode response")
	}
}

// writeError maps domain errors onto status codes. Unknown errors are logged
// and reported without detail.
func (s *Service) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var validation *types.ValidationError
	switch {
	case errors.As(err, &validation):
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Message: validation.Message, Field: validation.Field})
	case errors.Is(err, types.ErrNotFound):
		s.writeJSON(w, http.StatusNotFound, errorResponse{Message: err.Error()})
	case errors.Is(err, types.ErrInvalidState):
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Message: types.ErrInvalidState.Error()})
	case errors.Is(err, types.ErrUnauthorized):
		s.writeJSON(w, http.StatusUnauthorized, errorResponse{Message: types.ErrUnauthorized.Error()})
	case errors.Is(err, types.ErrForbidden):
		s.writeJSON(w, http.StatusForbidden, errorResponse{Message: types.ErrForbidden.Error()})
	case types.IsDependency(err, types.DependencyMail):
		s.logger.WithError(err).WithField("path", r.URL.Path).Warn("mail delivery failed")
		s.writeJSON(w, http.StatusBadGateway, errorResponse{Message: "failed to send email"})
	default:
		s.logger.WithError(err).WithField("path", r.URL.Path).Error("request failed")
		s.writeJSON(w, http.StatusInternalServerError, errorResponse{Message: "internal server error"})
	}
}

func (s *Service) decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxJSONBytes))
	if err := dec.Decode(dst); err != nil {
		return types.NewValidationError("", fmt.Sprintf("invalid request body: %v", err))
	}
	return nil
}
