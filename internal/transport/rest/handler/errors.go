package handler

import (
	"errors"
	"net/http"

	"formpilot/internal/formdata"
	"formpilot/internal/repository"
	"formpilot/internal/service"
)

// writeServiceError maps service errors to status codes
func writeServiceError(w http.ResponseWriter, err error) {
	writeError(w, statusFor(err), err.Error())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrInvalidCredentials), errors.Is(err, service.ErrInvalidToken):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrAccountInactive):
		return http.StatusForbidden
	case errors.Is(err, service.ErrUserNotFound), errors.Is(err, service.ErrRunNotFound),
		errors.Is(err, service.ErrNoSelection):
		return http.StatusNotFound
	case errors.Is(err, service.ErrUserExists), errors.Is(err, service.ErrRunInProgress):
		return http.StatusConflict
	case errors.Is(err, service.ErrCreditExceeded), errors.Is(err, service.ErrInsufficientCredits):
		return http.StatusPaymentRequired
	case errors.Is(err, service.ErrInvalidFormURL), errors.Is(err, service.ErrInvalidCount),
		errors.Is(err, service.ErrUnknownField):
		return http.StatusBadRequest
	case errors.Is(err, formdata.ErrExtraction), errors.Is(err, service.ErrEmptyForm):
		return http.StatusUnprocessableEntity
	case errors.Is(err, service.ErrTransport):
		return http.StatusBadGateway
	case errors.Is(err, repository.ErrInsufficientBalance):
		return http.StatusPaymentRequired
	}
	return http.StatusInternalServerError
}
