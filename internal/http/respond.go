package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"takatrack/internal/core"
)

const maxBodyBytes = 64 << 10

type errorResponse struct {
	Error string `json:"error"`
}

// writeJSON serializes v with the given status. Encoding errors after the
// header has gone out can only be logged.
func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Error("encode response", "error", err)
	}
}

// writeError maps domain sentinel errors onto HTTP status codes. Validation
// failures are 422, missing entities 404, everything else 500.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError

	switch {
	case errors.Is(err, core.ErrInvalidAmount),
		errors.Is(err, core.ErrUnknownCategory),
		errors.Is(err, core.ErrInvalidDate),
		errors.Is(err, core.ErrEmptyName),
		errors.Is(err, core.ErrInsufficientFunds),
		errors.Is(err, core.ErrNegativeSavings),
		errors.Is(err, core.ErrInvalidSource),
		errors.Is(err, core.ErrInvalidTheme):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, errBadRequest):
		status = http.StatusBadRequest
	case errors.Is(err, core.ErrNoSuchMonth),
		errors.Is(err, core.ErrNoSuchGoal),
		errors.Is(err, core.ErrNoSuchTransaction),
		errors.Is(err, core.ErrNoSuchTemplate):
		status = http.StatusNotFound
	}

	if status == http.StatusInternalServerError {
		s.log.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "error", err)
	}
	s.writeJSON(w, status, errorResponse{Error: err.Error()})
}

var errBadRequest = errors.New("bad request")

// decodeJSON reads a bounded request body into dst, rejecting unknown fields.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("decode body: %w (%s)", errBadRequest, err)
	}
	return nil
}
