package bankapi

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/bankdash/bankdash/internal/bank"
	"github.com/bankdash/bankdash/internal/shared"
	"github.com/bankdash/bankdash/jobs"
)

// EventPublisher receives an event for every committed mutation.
type EventPublisher interface {
	PublishBankEvent(ctx context.Context, payload jobs.BankAuditPayload) error
}

// Service implements the bank API operations on top of a Repository.
type Service struct {
	repo      Repository
	validator *bank.Validator
	events    EventPublisher
	logger    *slog.Logger
	now       func() time.Time
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithEvents publishes mutation events to p.
func WithEvents(p EventPublisher) ServiceOption {
	return func(s *Service) { s.events = p }
}

// WithServiceClock overrides the clock used for timestamps.
func WithServiceClock(now func() time.Time) ServiceOption {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewService constructs a Service.
func NewService(repo Repository, validator *bank.Validator, logger *slog.Logger, opts ...ServiceOption) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if validator == nil {
		validator = bank.NewValidator()
	}
	s := &Service{repo: repo, validator: validator, logger: logger, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// List returns every bank ordered by id. An empty store is reported as not found.
func (s *Service) List(ctx context.Context) ([]bank.Bank, error) {
	banks, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	if len(banks) == 0 {
		return nil, &NotFoundError{Message: msgNoBanks}
	}
	return banks, nil
}

// FindByID returns the bank with id.
func (s *Service) FindByID(ctx context.Context, id int64) (bank.Bank, error) {
	b, err := s.repo.Get(ctx, id)
	if errors.Is(err, shared.ErrNotFound) {
		return bank.Bank{}, bankIDNotFound(id)
	}
	return b, err
}

// FindByName returns the lowest-id bank called name.
func (s *Service) FindByName(ctx context.Context, name string) (bank.Bank, error) {
	b, err := s.repo.GetByName(ctx, name)
	if errors.Is(err, shared.ErrNotFound) {
		return bank.Bank{}, bankNameNotFound(name)
	}
	return b, err
}

// Create validates and stores a new bank. Client supplied ids and timestamps
// are ignored.
func (s *Service) Create(ctx context.Context, in bank.Bank) (bank.Bank, error) {
	b := in.Mutable()
	if errs := s.validator.ValidateRecord(b); len(errs) > 0 {
		return bank.Bank{}, &ValidationError{Fields: errs}
	}
	now := s.timestamp()
	b.CreatedAt = now
	b.UpdatedAt = now
	created, err := s.repo.Create(ctx, b)
	if err != nil {
		return bank.Bank{}, err
	}
	s.publish(ctx, jobs.ActionBankCreated, created)
	return created, nil
}

// ReplaceByID overwrites every mutable field of the bank with id.
func (s *Service) ReplaceByID(ctx context.Context, id int64, in bank.Bank) error {
	return s.replace(ctx, id, bankIDNotFound(id), in)
}

// ReplaceByName overwrites every mutable field of the bank called name.
func (s *Service) ReplaceByName(ctx context.Context, name string, in bank.Bank) error {
	id, err := s.resolveName(ctx, name)
	if err != nil {
		return err
	}
	return s.replace(ctx, id, bankNameNotFound(name), in)
}

// PatchByID merges the provided fields onto the bank with id.
func (s *Service) PatchByID(ctx context.Context, id int64, p bank.Patch) error {
	return s.patch(ctx, id, bankIDNotFound(id), p)
}

// PatchByName merges the provided fields onto the bank called name.
func (s *Service) PatchByName(ctx context.Context, name string, p bank.Patch) error {
	id, err := s.resolveName(ctx, name)
	if err != nil {
		return err
	}
	return s.patch(ctx, id, bankNameNotFound(name), p)
}

// DeleteByID removes the bank with id.
func (s *Service) DeleteByID(ctx context.Context, id int64) error {
	b, err := s.FindByID(ctx, id)
	if err != nil {
		return err
	}
	return s.delete(ctx, b, bankIDNotFound(id))
}

// DeleteByName removes the lowest-id bank called name.
func (s *Service) DeleteByName(ctx context.Context, name string) error {
	b, err := s.FindByName(ctx, name)
	if err != nil {
		return err
	}
	return s.delete(ctx, b, bankNameNotFound(name))
}

func (s *Service) replace(ctx context.Context, id int64, missing error, in bank.Bank) error {
	next := in.Mutable()
	if errs := s.validator.ValidateRecord(next); len(errs) > 0 {
		return &ValidationError{Fields: errs}
	}
	return s.update(ctx, id, missing, jobs.ActionBankReplaced, func(bank.Bank) (bank.Bank, error) {
		return next, nil
	})
}

func (s *Service) patch(ctx context.Context, id int64, missing error, p bank.Patch) error {
	if p.Empty() {
		return &BadRequestError{Message: msgEmptyPatch}
	}
	return s.update(ctx, id, missing, jobs.ActionBankPatched, func(current bank.Bank) (bank.Bank, error) {
		merged := p.Apply(current)
		if errs := s.validator.ValidateRecord(merged); len(errs) > 0 {
			return bank.Bank{}, &ValidationError{Fields: errs}
		}
		return merged, nil
	})
}

func (s *Service) update(ctx context.Context, id int64, missing error, action string, mutate func(bank.Bank) (bank.Bank, error)) error {
	updated, err := s.repo.Update(ctx, id, func(current bank.Bank) (bank.Bank, error) {
		next, err := mutate(current)
		if err != nil {
			return bank.Bank{}, err
		}
		next.UpdatedAt = s.timestamp()
		return next, nil
	})
	if errors.Is(err, shared.ErrNotFound) {
		return missing
	}
	if err != nil {
		return err
	}
	s.publish(ctx, action, updated)
	return nil
}

func (s *Service) delete(ctx context.Context, b bank.Bank, missing error) error {
	err := s.repo.Delete(ctx, b.ID)
	if errors.Is(err, shared.ErrNotFound) {
		return missing
	}
	if err != nil {
		return err
	}
	s.publish(ctx, jobs.ActionBankDeleted, b)
	return nil
}

func (s *Service) resolveName(ctx context.Context, name string) (int64, error) {
	b, err := s.FindByName(ctx, name)
	if err != nil {
		return 0, err
	}
	return b.ID, nil
}

// timestamp is truncated to what PostgreSQL stores so both drivers round-trip.
func (s *Service) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Microsecond)
}

func (s *Service) publish(ctx context.Context, action string, b bank.Bank) {
	if s.events == nil {
		return
	}
	payload := jobs.BankAuditPayload{Action: action, BankID: b.ID, BankName: b.Name, At: s.timestamp()}
	if err := s.events.PublishBankEvent(context.WithoutCancel(ctx), payload); err != nil {
		s.logger.Warn("bank event not published",
			slog.String("action", action),
			slog.Int64("bank_id", b.ID),
			slog.Any("error", err))
	}
}
