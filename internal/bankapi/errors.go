package bankapi

import (
	"fmt"

	"github.com/bankdash/bankdash/internal/bank"
	"github.com/bankdash/bankdash/internal/platform/httpx"
)

const (
	msgNoBanks       = "No Bank entities currently exist, please create Banks entity."
	msgValidation    = "Bank validation failed."
	msgMissingID     = "Query parameter bankId must be a positive integer."
	msgMissingName   = "Query parameter bankName is required."
	msgMalformedBody = "Request body is not a valid bank."
	msgEmptyPatch    = "Request body does not contain any bank fields."
)

// NotFoundError reports a lookup that matched nothing.
type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string { return e.Message }

func (e *NotFoundError) Unwrap() error { return httpx.ErrNotFound }

func bankIDNotFound(id int64) error {
	return &NotFoundError{Message: fmt.Sprintf("Bank with the provided id %d is not found.", id)}
}

func bankNameNotFound(name string) error {
	return &NotFoundError{Message: fmt.Sprintf("Bank with the provided name %s is not found.", name)}
}

// ValidationError carries the field errors of a rejected bank.
type ValidationError struct {
	Fields bank.FieldErrors
}

func (e *ValidationError) Error() string { return msgValidation }

func (e *ValidationError) Unwrap() error { return httpx.ErrValidation }

// ErrorPayload exposes the field list in the failure envelope.
func (e *ValidationError) ErrorPayload() any { return e.Fields }

// BadRequestError reports unusable request input.
type BadRequestError struct {
	Message string
}

func (e *BadRequestError) Error() string { return e.Message }

func (e *BadRequestError) Unwrap() error { return httpx.ErrBadRequest }
