// Package httpx writes the bank API response envelope.
package httpx

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"
)

// SuccessMessage is the message attached to every successful response.
const SuccessMessage = "The Operation was completed successfully"

// Envelope is the body of every bank API response.
type Envelope struct {
	Message    string    `json:"message,omitempty"`
	Status     string    `json:"status"`
	Payload    any       `json:"payload,omitempty"`
	ErrorTrace string    `json:"errorTrace,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// Now is the clock used for envelope timestamps.
var Now = func() time.Time { return time.Now().UTC() }

// StatusName returns the symbolic name of an HTTP status, e.g. NOT_FOUND.
func StatusName(code int) string {
	text := http.StatusText(code)
	if text == "" {
		return "UNKNOWN"
	}
	text = strings.NewReplacer(" ", "_", "-", "_", "'", "").Replace(text)
	return strings.ToUpper(text)
}

// JSON sends a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// Success sends a 200 envelope carrying payload.
func Success(w http.ResponseWriter, payload any) {
	JSON(w, http.StatusOK, Envelope{
		Message:   SuccessMessage,
		Status:    StatusName(http.StatusOK),
		Payload:   payload,
		Timestamp: Now(),
	})
}

// Error sends a failure envelope with the message in errorTrace.
func Error(w http.ResponseWriter, status int, message string) {
	PayloadError(w, status, message, nil)
}

// PayloadError is Error with a payload, used for field-level validation output.
func PayloadError(w http.ResponseWriter, status int, message string, payload any) {
	JSON(w, status, Envelope{
		Status:     StatusName(status),
		Payload:    payload,
		ErrorTrace: message,
		Timestamp:  Now(),
	})
}

// DecodeJSON decodes JSON request body into the target struct.
func DecodeJSON(r *http.Request, target any) error {
	return json.NewDecoder(r.Body).Decode(target)
}
