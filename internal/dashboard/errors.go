package dashboard

import (
	"errors"

	"github.com/bankdash/bankdash/internal/bank"
)

// ErrNoSelection is wrapped by PreconditionError when an operation needs a
// selected bank and none is set.
var ErrNoSelection = errors.New("no bank selected")

// errNoEntities marks a successful list call that returned nothing.
var errNoEntities = errors.New("no bank entities returned")

// ValidationError is returned when a draft fails the local schema. It never
// reaches the gateway.
type ValidationError struct {
	Fields bank.FieldErrors
}

func (e *ValidationError) Error() string {
	return "dashboard: " + e.Fields.Error()
}

func (e *ValidationError) Unwrap() error { return e.Fields }

// PreconditionError is returned when an operation is attempted without the
// state it needs.
type PreconditionError struct {
	Op  string
	Err error
}

func (e *PreconditionError) Error() string {
	return "dashboard: " + e.Op + ": " + e.Err.Error()
}

func (e *PreconditionError) Unwrap() error { return e.Err }

// IsValidation reports whether err is a local validation failure.
func IsValidation(err error) bool {
	var vErr *ValidationError
	return errors.As(err, &vErr)
}
