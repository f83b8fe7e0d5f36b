package view

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bankdash/bankdash/internal/shared"
)

func TestNewEngine(t *testing.T) {
	engine, err := NewEngine()
	assert.NoError(t, err, "Templates should parse without error")
	assert.NotNil(t, engine)
}

func TestFormatHelpers(t *testing.T) {
	funcs := FuncMap()

	formatCount := funcs["formatCount"].(func(int64) string)
	assert.Equal(t, "1,234,567", formatCount(1234567))
	assert.Equal(t, "5", formatCount(5))

	formatDate := funcs["formatDate"].(func(time.Time) string)
	assert.Equal(t, "01 Jan 2000", formatDate(time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "", formatDate(time.Time{}))
}

func TestRenderFlashes(t *testing.T) {
	engine, err := NewEngine()
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	err = engine.Render(rec, "pages/bank_delete.html", TemplateData{
		Title:   "Bank Dashboard",
		Flashes: []shared.FlashMessage{{Kind: "error", Message: "Error: boom"}},
		Data:    map[string]any{"Bank": nil},
	})
	require.NoError(t, err)
	assert.True(t, strings.Contains(rec.Body.String(), "Error: boom"))
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
}

func TestRenderNilEngine(t *testing.T) {
	var engine *Engine
	assert.Error(t, engine.Render(httptest.NewRecorder(), "pages/banks.html", TemplateData{}))
}
