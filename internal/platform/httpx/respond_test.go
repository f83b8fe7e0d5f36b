package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixClock(t *testing.T) time.Time {
	t.Helper()
	at := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	prev := Now
	Now = func() time.Time { return at }
	t.Cleanup(func() { Now = prev })
	return at
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestStatusName(t *testing.T) {
	assert.Equal(t, "OK", StatusName(http.StatusOK))
	assert.Equal(t, "NOT_FOUND", StatusName(http.StatusNotFound))
	assert.Equal(t, "BAD_REQUEST", StatusName(http.StatusBadRequest))
	assert.Equal(t, "INTERNAL_SERVER_ERROR", StatusName(http.StatusInternalServerError))
	assert.Equal(t, "UNKNOWN", StatusName(799))
}

func TestSuccess(t *testing.T) {
	fixClock(t)
	rec := httptest.NewRecorder()
	Success(rec, true)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	body := decode(t, rec)
	assert.Equal(t, SuccessMessage, body["message"])
	assert.Equal(t, "OK", body["status"])
	assert.Equal(t, true, body["payload"])
	assert.Equal(t, "2024-01-02T03:04:05Z", body["timestamp"])
	assert.NotContains(t, body, "errorTrace")
}

func TestError(t *testing.T) {
	fixClock(t)
	rec := httptest.NewRecorder()
	Error(rec, http.StatusNotFound, "Bank with the provided id 9 is not found.")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "NOT_FOUND", body["status"])
	assert.Equal(t, "Bank with the provided id 9 is not found.", body["errorTrace"])
	assert.NotContains(t, body, "payload")
	assert.NotContains(t, body, "message")
}

type fieldsErr struct{ fields []string }

func (e fieldsErr) Error() string     { return "Bank validation failed." }
func (e fieldsErr) Unwrap() error     { return ErrValidation }
func (e fieldsErr) ErrorPayload() any { return e.fields }

func TestRespondError(t *testing.T) {
	cases := []struct {
		name    string
		err     error
		status  int
		trace   string
		payload any
	}{
		{"not found", fmt.Errorf("Bank gone: %w", ErrNotFound), http.StatusNotFound, "Bank gone: resource not found", nil},
		{"bad request", ErrBadRequest, http.StatusBadRequest, "bad request", nil},
		{"validation payload", fieldsErr{fields: []string{"bankName"}}, http.StatusBadRequest, "Bank validation failed.", []any{"bankName"}},
		{"internal", errors.New("db exploded"), http.StatusInternalServerError, "Something went wrong while processing the request.", nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			RespondError(rec, tc.err)
			assert.Equal(t, tc.status, rec.Code)
			body := decode(t, rec)
			assert.Equal(t, tc.trace, body["errorTrace"])
			assert.Equal(t, tc.payload, body["payload"])
		})
	}
}
