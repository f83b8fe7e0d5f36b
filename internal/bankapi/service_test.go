package bankapi

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bankdash/bankdash/internal/bank"
	"github.com/bankdash/bankdash/internal/platform/httpx"
	"github.com/bankdash/bankdash/jobs"
)

var serviceNow = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

type eventRecorder struct {
	mu     sync.Mutex
	events []jobs.BankAuditPayload
	err    error
}

func (r *eventRecorder) PublishBankEvent(_ context.Context, p jobs.BankAuditPayload) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, p)
	return r.err
}

func (r *eventRecorder) actions() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Action)
	}
	return out
}

func newTestService(t *testing.T) (*Service, *eventRecorder) {
	t.Helper()
	events := &eventRecorder{}
	clock := func() time.Time { return serviceNow }
	svc := NewService(
		newSQLiteRepository(t),
		bank.NewValidator(bank.WithClock(clock)),
		nil,
		WithEvents(events),
		WithServiceClock(clock),
	)
	return svc, events
}

func validBank(name string) bank.Bank {
	return bank.Bank{
		Name:      name,
		Year:      time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC),
		Address:   "123 Main Street, Springfield",
		ATMs:      5,
		Branches:  3,
		Employees: 50,
	}
}

func TestServiceListEmpty(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.List(context.Background())

	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "No Bank entities currently exist, please create Banks entity.", nf.Message)
	assert.ErrorIs(t, err, httpx.ErrNotFound)
}

func TestServiceCreateAssignsIDAndTimestamps(t *testing.T) {
	svc, events := newTestService(t)
	ctx := context.Background()

	in := validBank("Test Bank")
	in.ID = 77
	in.CreatedAt = time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC)
	created, err := svc.Create(ctx, in)
	require.NoError(t, err)

	assert.Positive(t, created.ID)
	assert.NotEqual(t, int64(77), created.ID)
	assert.True(t, serviceNow.Equal(created.CreatedAt))
	assert.True(t, serviceNow.Equal(created.UpdatedAt))
	assert.Equal(t, []string{jobs.ActionBankCreated}, events.actions())

	banks, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, banks, 1)
	assert.Equal(t, created.ID, banks[0].ID)
}

func TestServiceCreateRejectsInvalidBank(t *testing.T) {
	svc, events := newTestService(t)
	in := validBank("Test Bank")
	in.Year = serviceNow.AddDate(1, 0, 0)
	in.ATMs = 0

	_, err := svc.Create(context.Background(), in)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []string{bank.FieldEstablishedYear, bank.FieldATMCount}, []string{verr.Fields[0].Field, verr.Fields[1].Field})
	assert.Empty(t, events.actions())
}

func TestServiceFindMisses(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.FindByID(ctx, 42)
	assert.EqualError(t, err, "Bank with the provided id 42 is not found.")
	_, err = svc.FindByName(ctx, "Ghost")
	assert.EqualError(t, err, "Bank with the provided name Ghost is not found.")
}

func TestServiceReplaceOverwritesAllFields(t *testing.T) {
	svc, events := newTestService(t)
	ctx := context.Background()
	created, err := svc.Create(ctx, validBank("Before"))
	require.NoError(t, err)

	next := validBank("After")
	next.Address = "500 Replacement Avenue, Metropolis"
	next.Employees = 9
	require.NoError(t, svc.ReplaceByID(ctx, created.ID, next))

	got, err := svc.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "After", got.Name)
	assert.Equal(t, int64(9), got.Employees)
	assert.Equal(t, next.Address, got.Address)

	require.NoError(t, svc.ReplaceByName(ctx, "After", validBank("Again")))
	_, err = svc.FindByName(ctx, "Again")
	require.NoError(t, err)

	bad := validBank("")
	err = svc.ReplaceByID(ctx, created.ID, bad)
	assert.True(t, errors.Is(err, httpx.ErrValidation))

	assert.ErrorIs(t, svc.ReplaceByID(ctx, 999, validBank("X")), httpx.ErrNotFound)
	assert.EqualError(t, svc.ReplaceByName(ctx, "Nope", validBank("X")), "Bank with the provided name Nope is not found.")
	assert.Equal(t, []string{jobs.ActionBankCreated, jobs.ActionBankReplaced, jobs.ActionBankReplaced}, events.actions())
}

func TestServicePatchMergesAndValidates(t *testing.T) {
	svc, events := newTestService(t)
	ctx := context.Background()
	created, err := svc.Create(ctx, validBank("Patchable"))
	require.NoError(t, err)

	atms := int64(11)
	require.NoError(t, svc.PatchByID(ctx, created.ID, bank.Patch{ATMs: &atms}))
	got, err := svc.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(11), got.ATMs)
	assert.Equal(t, "Patchable", got.Name)

	short := "short"
	err = svc.PatchByName(ctx, "Patchable", bank.Patch{Address: &short})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, bank.FieldAddress, verr.Fields[0].Field)

	got, err = svc.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, validBank("").Address, got.Address, "rejected patch leaves the record untouched")

	assert.ErrorIs(t, svc.PatchByID(ctx, created.ID, bank.Patch{}), httpx.ErrBadRequest)
	assert.Equal(t, []string{jobs.ActionBankCreated, jobs.ActionBankPatched}, events.actions())
}

func TestServiceDelete(t *testing.T) {
	svc, events := newTestService(t)
	ctx := context.Background()
	a, err := svc.Create(ctx, validBank("Alpha"))
	require.NoError(t, err)
	_, err = svc.Create(ctx, validBank("Beta"))
	require.NoError(t, err)

	require.NoError(t, svc.DeleteByID(ctx, a.ID))
	assert.EqualError(t, svc.DeleteByID(ctx, a.ID), "Bank with the provided id 1 is not found.")
	require.NoError(t, svc.DeleteByName(ctx, "Beta"))

	_, err = svc.List(ctx)
	assert.ErrorIs(t, err, httpx.ErrNotFound)
	assert.Equal(t, []string{
		jobs.ActionBankCreated, jobs.ActionBankCreated,
		jobs.ActionBankDeleted, jobs.ActionBankDeleted,
	}, events.actions())
}

func TestServicePublishFailureIsNotFatal(t *testing.T) {
	svc, events := newTestService(t)
	events.err = errors.New("redis unavailable")

	_, err := svc.Create(context.Background(), validBank("Resilient"))
	require.NoError(t, err)
	assert.Len(t, events.actions(), 1)
}
