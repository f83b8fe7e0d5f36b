package httpx

import (
	"errors"
	"net/http"
)

// Sentinel errors for domain layer.
var (
	ErrNotFound   = errors.New("resource not found")
	ErrValidation = errors.New("validation failed")
	ErrBadRequest = errors.New("bad request")
)

// PayloadCarrier is implemented by errors that attach a payload to the
// failure envelope.
type PayloadCarrier interface {
	ErrorPayload() any
}

// RespondError maps domain errors to failure envelopes. The error text
// becomes the errorTrace for client errors; server errors are not echoed.
func RespondError(w http.ResponseWriter, err error) {
	var payload any
	var carrier PayloadCarrier
	if errors.As(err, &carrier) {
		payload = carrier.ErrorPayload()
	}
	switch {
	case errors.Is(err, ErrNotFound):
		PayloadError(w, http.StatusNotFound, err.Error(), payload)
	case errors.Is(err, ErrValidation):
		PayloadError(w, http.StatusBadRequest, err.Error(), payload)
	case errors.Is(err, ErrBadRequest):
		PayloadError(w, http.StatusBadRequest, err.Error(), payload)
	default:
		Error(w, http.StatusInternalServerError, "Something went wrong while processing the request.")
	}
}
