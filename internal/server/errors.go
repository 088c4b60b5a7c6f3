package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"github.com/jonathan/sop-question-agent/internal/types"
)

// ErrInvalidCredentials indicates an unknown client or a wrong secret
type ErrInvalidCredentials struct{}

func (e *ErrInvalidCredentials) Error() string {
	return "invalid client credentials"
}

// ErrRunNotFound indicates no stored run has the requested ID
type ErrRunNotFound struct {
	RunID uuid.UUID
}

func (e *ErrRunNotFound) Error() string {
	return fmt.Sprintf("run not found: %s", e.RunID)
}

// ErrValidation indicates request validation failure
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// HTTPStatus returns the appropriate HTTP status code for an error
func HTTPStatus(err error) int {
	var (
		credErr     *ErrInvalidCredentials
		notFoundErr *ErrRunNotFound
		valErr      *ErrValidation
		profileErr  *types.ProfileError
	)
	switch {
	case errors.As(err, &credErr):
		return http.StatusUnauthorized
	case errors.As(err, &notFoundErr):
		return http.StatusNotFound
	case errors.As(err, &valErr), errors.As(err, &profileErr):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// validationBody is the 400 payload for rejected input.
type validationBody struct {
	Error     string             `json:"error"`
	ErrorType string             `json:"error_type"`
	Details   []types.FieldError `json:"details"`
}

func newValidationBody(details []types.FieldError) validationBody {
	if details == nil {
		details = []types.FieldError{}
	}
	return validationBody{
		Error:     "Invalid input",
		ErrorType: "validation_error",
		Details:   details,
	}
}

func (s *Server) validationError(w http.ResponseWriter, details []types.FieldError) {
	s.jsonResponse(w, http.StatusBadRequest, newValidationBody(details))
}
