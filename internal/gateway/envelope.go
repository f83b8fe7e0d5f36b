package gateway

import (
	"bytes"
	"encoding/json"
	"time"
)

// StatusOK is the envelope status of a successful operation.
const StatusOK = "OK"

// Envelope is the normalized response wrapper returned by the bank API.
type Envelope struct {
	HTTPStatus int
	Status     string
	Payload    json.RawMessage
	Message    string
	Timestamp  time.Time
}

// OK reports whether both the HTTP layer and the envelope signal success.
func (e Envelope) OK() bool {
	return e.HTTPStatus >= 200 && e.HTTPStatus < 300 && e.Status == StatusOK
}

// HasPayload reports whether the envelope carried a non-null payload.
func (e Envelope) HasPayload() bool {
	p := bytes.TrimSpace(e.Payload)
	return len(p) > 0 && !bytes.Equal(p, []byte("null"))
}

// wireEnvelope accepts both field spellings seen on the wire.
type wireEnvelope struct {
	Status     *string         `json:"status"`
	Payload    json.RawMessage `json:"payload"`
	Data       json.RawMessage `json:"data"`
	Message    *string         `json:"message"`
	ErrorTrace *string         `json:"errorTrace"`
	Timestamp  *time.Time      `json:"timestamp"`
}

func (w wireEnvelope) recognised() bool {
	return w.Status != nil || w.Payload != nil || w.Data != nil || w.Message != nil || w.ErrorTrace != nil
}

// decodeEnvelope normalizes body into an Envelope. ok is false when the body is
// not a JSON object carrying any envelope field.
func decodeEnvelope(httpStatus int, body []byte) (Envelope, bool) {
	var w wireEnvelope
	if err := json.Unmarshal(body, &w); err != nil || !w.recognised() {
		return Envelope{HTTPStatus: httpStatus}, false
	}

	env := Envelope{HTTPStatus: httpStatus, Payload: w.Payload}
	if len(env.Payload) == 0 {
		env.Payload = w.Data
	}
	if w.Status != nil {
		env.Status = *w.Status
	}
	switch {
	case w.ErrorTrace != nil && *w.ErrorTrace != "":
		env.Message = *w.ErrorTrace
	case w.Message != nil:
		env.Message = *w.Message
	}
	if w.Timestamp != nil {
		env.Timestamp = *w.Timestamp
	}
	return env, true
}
