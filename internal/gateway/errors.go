package gateway

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/bankdash/bankdash/internal/bank"
)

// MsgUnreachable is shown to users for transport failures; the underlying
// error, which names the bank API URL, only goes to the logs.
const MsgUnreachable = "Could not reach the bank service."

// TransportError reports a failure to complete the HTTP exchange: the request
// could not be built or sent, or the response was not a bank API envelope.
// Status holds the HTTP status line in the latter case.
type TransportError struct {
	Op     string
	Status string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("gateway: %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ApplicationError reports an envelope that signals failure.
type ApplicationError struct {
	Op         string
	HTTPStatus int
	Status     string
	Message    string
	Fields     bank.FieldErrors
}

func (e *ApplicationError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = "request was not successful"
	}
	return fmt.Sprintf("gateway: %s: %s (%d %s)", e.Op, msg, e.HTTPStatus, e.Status)
}

// Message resolves the text shown to the user for err: the server's envelope
// message first, then a fixed transport failure text, then fallback.
func Message(err error, fallback string) string {
	if err == nil {
		return fallback
	}
	var appErr *ApplicationError
	if errors.As(err, &appErr) {
		if appErr.Message != "" {
			return appErr.Message
		}
		return fallback
	}
	var transportErr *TransportError
	if errors.As(err, &transportErr) {
		if transportErr.Status != "" {
			return "The bank service answered with an unexpected response (" + transportErr.Status + ")."
		}
		return MsgUnreachable
	}
	return fallback
}

func applicationError(op string, env Envelope) *ApplicationError {
	return &ApplicationError{
		Op:         op,
		HTTPStatus: env.HTTPStatus,
		Status:     env.Status,
		Message:    env.Message,
		Fields:     fieldErrors(env.Payload),
	}
}

// fieldErrors extracts a server-side validation list from a payload.
func fieldErrors(payload json.RawMessage) bank.FieldErrors {
	p := bytes.TrimSpace(payload)
	if len(p) == 0 || p[0] != '[' {
		return nil
	}
	var list []bank.FieldError
	if err := json.Unmarshal(p, &list); err != nil {
		return nil
	}
	out := make(bank.FieldErrors, 0, len(list))
	for _, fe := range list {
		if fe.Field != "" && fe.Message != "" {
			out = append(out, fe)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
