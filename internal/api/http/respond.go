package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/mind-engage/prepost/internal/assessment"
	"github.com/mind-engage/prepost/internal/storage"
)

const maxJSONBody = 1 << 20

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

type errorBody struct {
	Error string `json:"error"`
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, assessment.ErrPrerequisiteMissing):
		return http.StatusPreconditionFailed
	case errors.Is(err, assessment.ErrAlreadyCompleted),
		errors.Is(err, assessment.ErrAttemptConflict),
		errors.Is(err, assessment.ErrConflict),
		errors.Is(err, assessment.ErrDuplicateUsername):
		return http.StatusConflict
	case errors.Is(err, assessment.ErrNotFound), errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, assessment.ErrInvalid), errors.Is(err, storage.ErrInvalidKey):
		return http.StatusBadRequest
	case errors.Is(err, assessment.ErrForbidden):
		return http.StatusForbidden
	}
	return http.StatusInternalServerError
}

func respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		log.Printf("[HTTP] %s %s (req %s): %v", r.Method, r.URL.Path, middleware.GetReqID(r.Context()), err)
		msg = "internal error"
	}
	respondJSON(w, status, errorBody{Error: msg})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: empty body", assessment.ErrInvalid)
		}
		return fmt.Errorf("%w: bad json: %v", assessment.ErrInvalid, err)
	}
	return nil
}

func phaseParam(r *http.Request) (assessment.Phase, error) {
	return assessment.ParsePhase(chi.URLParam(r, "phase"))
}
