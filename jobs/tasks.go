package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/hibiken/asynq"

	"github.com/bankdash/bankdash/internal/shared"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskBankAudit is the task type recording a bank mutation.
	TaskBankAudit = "bank:audit"
)

// Bank audit actions.
const (
	ActionBankCreated  = "bank.created"
	ActionBankReplaced = "bank.replaced"
	ActionBankPatched  = "bank.patched"
	ActionBankDeleted  = "bank.deleted"
)

// BankAuditPayload describes one bank mutation.
type BankAuditPayload struct {
	Action   string    `json:"action"`
	BankID   int64     `json:"bank_id"`
	BankName string    `json:"bank_name"`
	At       time.Time `json:"at"`
}

// NewBankAuditTask constructs an Asynq task.
func NewBankAuditTask(payload BankAuditPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskBankAudit, data), nil
}

// AuditRecorder persists audit entries.
type AuditRecorder interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// BankAuditJob writes bank audit tasks into the audit log.
type BankAuditJob struct {
	recorder AuditRecorder
	logger   *slog.Logger
}

// NewBankAuditJob constructs the job handler.
func NewBankAuditJob(recorder AuditRecorder, logger *slog.Logger) *BankAuditJob {
	if logger == nil {
		logger = slog.Default()
	}
	return &BankAuditJob{recorder: recorder, logger: logger}
}

// Handle processes TaskBankAudit tasks.
func (j *BankAuditJob) Handle(ctx context.Context, t *asynq.Task) error {
	var payload BankAuditPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		j.logger.Warn("bank audit: malformed payload", slog.Any("error", err))
		return fmt.Errorf("decode bank audit payload: %w", errors.Join(err, asynq.SkipRetry))
	}
	if payload.Action == "" || payload.BankID <= 0 {
		j.logger.Warn("bank audit: incomplete payload", slog.String("action", payload.Action), slog.Int64("bank_id", payload.BankID))
		return fmt.Errorf("bank audit payload missing action or id: %w", asynq.SkipRetry)
	}
	err := j.recorder.Record(ctx, shared.AuditLog{
		Action:   payload.Action,
		Entity:   "bank",
		EntityID: strconv.FormatInt(payload.BankID, 10),
		Meta:     map[string]any{"bank_name": payload.BankName},
		At:       payload.At,
	})
	if err != nil {
		return fmt.Errorf("record bank audit: %w", err)
	}
	j.logger.Debug("bank audit recorded", slog.String("action", payload.Action), slog.Int64("bank_id", payload.BankID))
	return nil
}
