package shared

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingExecer struct {
	sql  string
	args []any
}

func (r *recordingExecer) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	r.sql = sql
	r.args = args
	return pgconn.NewCommandTag("INSERT 0 1"), nil
}

func TestAuditLoggerRecord(t *testing.T) {
	db := &recordingExecer{}
	logger := NewAuditLogger(db)
	at := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	err := logger.Record(context.Background(), AuditLog{
		Action:   "bank.created",
		Entity:   "bank",
		EntityID: "7",
		Meta:     map[string]any{"name": "Test Bank"},
		At:       at,
	})
	require.NoError(t, err)
	assert.Contains(t, db.sql, "INSERT INTO audit_logs")
	require.Len(t, db.args, 5)
	assert.Equal(t, "bank.created", db.args[0])

	var meta map[string]any
	require.NoError(t, json.Unmarshal(db.args[3].([]byte), &meta))
	assert.Equal(t, "Test Bank", meta["name"])
	assert.Equal(t, &at, db.args[4])
}

func TestAuditLoggerRejectsIncompleteEntries(t *testing.T) {
	logger := NewAuditLogger(&recordingExecer{})
	assert.Error(t, logger.Record(context.Background(), AuditLog{Action: "bank.created"}))

	var nilLogger *AuditLogger
	assert.Error(t, nilLogger.Record(context.Background(), AuditLog{Action: "a", Entity: "b", EntityID: "c"}))
}
