package server

import (
	"errors"
	"net/http"
	"os"

	"github.com/drakos74/impulse/internal/model"
	"github.com/drakos74/impulse/internal/provider"
)

// Code is the machine readable code of an error response.
type Code string

const (
	ValidationError Code = "VALIDATION_ERROR"
	NotFound        Code = "NOT_FOUND"
	NotReady        Code = "NOT_READY"
	ServerError     Code = "SERVER_ERROR"
)

var (
	// ErrValidation is returned for malformed requests.
	ErrValidation = errors.New("invalid request")
	// ErrNotConfigured is returned for features that are missing their configuration.
	ErrNotConfigured = errors.New("not configured")
)

// Envelope wraps every successful response.
type Envelope struct {
	Data interface{} `json:"data"`
}

// ErrorEnvelope wraps every error response.
type ErrorEnvelope struct {
	Error ErrorBody `json:"error"`
}

// ErrorBody describes an error.
type ErrorBody struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
}

// classify maps an error to its response code and http status.
// Unexpected errors are not exposed to the caller.
func classify(err error) (Code, int, string) {
	switch {
	case errors.Is(err, ErrValidation),
		errors.Is(err, provider.ErrMissingColumn),
		errors.Is(err, provider.ErrNoRows):
		return ValidationError, http.StatusBadRequest, err.Error()
	case errors.Is(err, model.ErrUnknownDataset),
		errors.Is(err, model.ErrUnknownCard),
		errors.Is(err, os.ErrNotExist):
		return NotFound, http.StatusNotFound, err.Error()
	case errors.Is(err, model.ErrDatasetNotReady):
		return NotReady, http.StatusConflict, err.Error()
	case errors.Is(err, ErrNotConfigured):
		return ServerError, http.StatusInternalServerError, err.Error()
	default:
		return ServerError, http.StatusInternalServerError, "an unexpected error occurred"
	}
}
