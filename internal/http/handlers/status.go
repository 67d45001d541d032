package handlers

import (
	"errors"
	"net/http"

	pkgerr "github.com/templategenius/revenue-intel-backend/internal/pkg/errors"
)

// statusFor maps service sentinels onto HTTP statuses so every handler
// rejects the same failure the same way.
func statusFor(err error) int {
	switch {
	case errors.Is(err, pkgerr.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, pkgerr.ErrValidation), errors.Is(err, pkgerr.ErrInvalidSignature):
		return http.StatusBadRequest
	case errors.Is(err, pkgerr.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, pkgerr.ErrDegradedDependency):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
