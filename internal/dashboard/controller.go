// Package dashboard holds the bank dashboard state and its HTML shell.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/bankdash/bankdash/internal/bank"
	"github.com/bankdash/bankdash/internal/gateway"
)

// View is the active tab of the dashboard.
type View string

const (
	ViewList   View = "list"
	ViewCreate View = "create"
	ViewUpdate View = "update"
)

// ParseView maps a tab name to a View.
func ParseView(raw string) (View, bool) {
	switch v := View(strings.ToLower(strings.TrimSpace(raw))); v {
	case ViewList, ViewCreate, ViewUpdate:
		return v, true
	}
	return "", false
}

const (
	msgFetched      = "All bank entities were successfully fetched."
	msgNoEntities   = "No Bank entities currently exist, please create Banks entity."
	msgCreated      = "Bank entity was successfully added with id: "
	msgCreateFailed = "Failed to add bank entity, something went wrong."
	msgNoSelection  = "No bank was selected to update, please select a bank."
	msgUpdateFailed = "Failed to update bank entity."
	msgDeleted      = "Bank entity was successfully deleted."
	msgDeleteFailed = "Failed to delete the bank entity, something went wrong."
	errorPrefix     = "Error: "
)

// singleflight keys
const (
	keyRefresh        = "refresh"
	keyCreatePrefix   = "create:"
	keyUpdatePrefix   = "update:"
	keyDeletePrefix   = "delete:"
	draftKeySeparator = "\x1f"
)

// Gateway is the subset of the bank API the dashboard uses.
type Gateway interface {
	ListAll(ctx context.Context) ([]bank.Bank, error)
	Create(ctx context.Context, b bank.Bank) (bank.Bank, error)
	PatchByID(ctx context.Context, id int64, p bank.Patch) error
	DeleteByID(ctx context.Context, id int64) error
}

// State is a point-in-time copy of the dashboard.
type State struct {
	Entities   []bank.Bank
	Selected   *bank.Bank
	View       View
	CreateForm bank.Form
	UpdateForm bank.Form
}

// Controller owns the dashboard state. Network calls run outside the lock and
// are not cancelled with the request that issued them; identical overlapping
// operations share one round trip.
type Controller struct {
	gateway   Gateway
	notifier  Notifier
	validator *bank.Validator
	logger    *slog.Logger
	group     singleflight.Group

	mu    sync.Mutex
	state State
	// list call generations: issued counts started calls, applied is the
	// newest one whose result is in state.
	issued  uint64
	applied uint64
	loaded  bool
}

// NewController constructs a Controller in the list view with empty forms.
func NewController(gw Gateway, notifier Notifier, validator *bank.Validator, logger *slog.Logger) *Controller {
	if notifier == nil {
		notifier = NotifierFunc(func(context.Context, Notification) {})
	}
	if validator == nil {
		validator = bank.NewValidator()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		gateway:   gw,
		notifier:  notifier,
		validator: validator,
		logger:    logger,
		state:     State{View: ViewList},
	}
}

// Snapshot returns a deep copy of the current state.
func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := State{
		Entities:   cloneBanks(c.state.Entities),
		View:       c.state.View,
		CreateForm: c.state.CreateForm.Clone(),
		UpdateForm: c.state.UpdateForm.Clone(),
	}
	if c.state.Selected != nil {
		sel := *c.state.Selected
		out.Selected = &sel
	}
	return out
}

// Entity looks up a bank in the cached list.
func (c *Controller) Entity(id int64) (bank.Bank, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, b := range c.state.Entities {
		if b.ID == id {
			return b, true
		}
	}
	return bank.Bank{}, false
}

// Navigate switches the active view.
func (c *Controller) Navigate(v View) {
	c.mu.Lock()
	c.state.View = v
	c.mu.Unlock()
}

// Refresh reloads the list. An empty or failed result clears it. Overlapping
// refreshes share one ListAll call.
func (c *Controller) Refresh(ctx context.Context) error {
	return c.refresh(ctx, false)
}

// Loaded reports whether the bank API has answered a list call, even with an
// empty list. It stays false while the API is unreachable.
func (c *Controller) Loaded() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loaded
}

type listResult struct {
	generation uint64
	banks      []bank.Bank
}

// refresh lists the banks. After a mutation fresh is set so the call does not
// join a list request issued before the write landed.
func (c *Controller) refresh(ctx context.Context, fresh bool) error {
	callCtx := context.WithoutCancel(ctx)
	if fresh {
		c.group.Forget(keyRefresh)
	}
	v, err, _ := c.group.Do(keyRefresh, func() (any, error) {
		c.mu.Lock()
		c.issued++
		gen := c.issued
		c.mu.Unlock()
		banks, err := c.gateway.ListAll(callCtx)
		return listResult{generation: gen, banks: banks}, err
	})
	res, _ := v.(listResult)
	if err == nil && len(res.banks) == 0 {
		err = errNoEntities
	}

	c.mu.Lock()
	if res.generation < c.applied {
		c.mu.Unlock()
		c.logger.DebugContext(ctx, "dropped superseded bank list", slog.Uint64("generation", res.generation))
		return nil
	}
	c.applied = res.generation
	c.loaded = err == nil || errors.Is(err, errNoEntities) || gateway.IsNotFound(err)
	if err != nil {
		c.state.Entities = nil
	} else {
		c.state.Entities = cloneBanks(res.banks)
	}
	c.mu.Unlock()

	if err != nil {
		c.logger.WarnContext(ctx, "refresh banks failed", slog.Any("error", err))
		c.notify(ctx, SeverityError, errorPrefix+gateway.Message(err, msgNoEntities))
		return fmt.Errorf("dashboard: refresh: %w", err)
	}
	c.notify(ctx, SeveritySuccess, msgFetched)
	return nil
}

// SubmitCreate validates draft and creates the bank it describes.
func (c *Controller) SubmitCreate(ctx context.Context, draft bank.Draft) error {
	valid, fieldErrs := c.validator.Validate(draft)
	if len(fieldErrs) > 0 {
		c.mu.Lock()
		c.state.CreateForm = bank.Form{Draft: draft, Errors: fieldErrs}
		c.mu.Unlock()
		return &ValidationError{Fields: fieldErrs}
	}

	v, err, _ := c.group.Do(keyCreatePrefix+draftKey(draft), func() (any, error) {
		return c.gateway.Create(context.WithoutCancel(ctx), valid)
	})
	if err != nil {
		c.mu.Lock()
		c.state.CreateForm = bank.Form{Draft: draft, Errors: serverFieldErrors(err)}
		c.mu.Unlock()
		c.logger.WarnContext(ctx, "create bank failed", slog.Any("error", err))
		c.notify(ctx, SeverityError, errorPrefix+gateway.Message(err, msgCreateFailed))
		return fmt.Errorf("dashboard: create: %w", err)
	}
	created, _ := v.(bank.Bank)

	c.mu.Lock()
	c.state.CreateForm.Reset()
	c.mu.Unlock()

	c.notify(ctx, SeveritySuccess, msgCreated+strconv.FormatInt(created.ID, 10))
	_ = c.refresh(ctx, true)
	return nil
}

// SelectForUpdate selects b and pre-populates the update form from it.
func (c *Controller) SelectForUpdate(b bank.Bank) {
	c.mu.Lock()
	defer c.mu.Unlock()
	sel := b
	c.state.Selected = &sel
	c.state.UpdateForm = bank.Form{Draft: bank.DraftFrom(b)}
	c.state.View = ViewUpdate
}

// SubmitUpdate validates draft and patches the selected bank with it.
func (c *Controller) SubmitUpdate(ctx context.Context, draft bank.Draft) error {
	c.mu.Lock()
	selected := c.state.Selected
	c.mu.Unlock()
	if selected == nil || !selected.Persisted() {
		c.notify(ctx, SeverityError, msgNoSelection)
		return &PreconditionError{Op: "update", Err: ErrNoSelection}
	}
	id := selected.ID

	valid, fieldErrs := c.validator.Validate(draft)
	if len(fieldErrs) > 0 {
		c.mu.Lock()
		c.state.UpdateForm = bank.Form{Draft: draft, Errors: fieldErrs}
		c.mu.Unlock()
		return &ValidationError{Fields: fieldErrs}
	}

	key := keyUpdatePrefix + strconv.FormatInt(id, 10) + draftKeySeparator + draftKey(draft)
	_, err, _ := c.group.Do(key, func() (any, error) {
		return nil, c.gateway.PatchByID(context.WithoutCancel(ctx), id, bank.PatchFrom(valid))
	})
	if err != nil {
		c.mu.Lock()
		c.state.UpdateForm = bank.Form{Draft: draft, Errors: serverFieldErrors(err)}
		c.mu.Unlock()
		c.logger.WarnContext(ctx, "update bank failed", slog.Int64("bank_id", id), slog.Any("error", err))
		c.notify(ctx, SeverityError, errorPrefix+gateway.Message(err, msgUpdateFailed))
		return fmt.Errorf("dashboard: update %d: %w", id, err)
	}

	c.mu.Lock()
	c.state.UpdateForm.Reset()
	if c.state.Selected != nil && c.state.Selected.ID == id {
		c.state.Selected = nil
	}
	c.mu.Unlock()

	c.notify(ctx, SeveritySuccess, fmt.Sprintf("Bank with ID: %d was successfully updated.", id))
	_ = c.refresh(ctx, true)
	return nil
}

// SelectForDelete marks b as the target of a pending delete confirmation.
func (c *Controller) SelectForDelete(b bank.Bank) {
	c.mu.Lock()
	defer c.mu.Unlock()
	sel := b
	c.state.Selected = &sel
}

// ConfirmDelete deletes the selected bank. Without a selection it does nothing.
func (c *Controller) ConfirmDelete(ctx context.Context) error {
	c.mu.Lock()
	selected := c.state.Selected
	c.mu.Unlock()
	if selected == nil || !selected.Persisted() {
		return nil
	}
	id := selected.ID

	_, err, _ := c.group.Do(keyDeletePrefix+strconv.FormatInt(id, 10), func() (any, error) {
		return nil, c.gateway.DeleteByID(context.WithoutCancel(ctx), id)
	})
	if err != nil {
		c.logger.WarnContext(ctx, "delete bank failed", slog.Int64("bank_id", id), slog.Any("error", err))
		c.notify(ctx, SeverityError, errorPrefix+gateway.Message(err, msgDeleteFailed))
		return fmt.Errorf("dashboard: delete %d: %w", id, err)
	}

	c.mu.Lock()
	if c.state.Selected != nil && c.state.Selected.ID == id {
		c.state.Selected = nil
	}
	c.mu.Unlock()

	c.notify(ctx, SeveritySuccess, msgDeleted)
	_ = c.refresh(ctx, true)
	return nil
}

func (c *Controller) notify(ctx context.Context, severity Severity, message string) {
	c.notifier.Notify(ctx, Notification{Severity: severity, Message: message})
}

func serverFieldErrors(err error) bank.FieldErrors {
	var appErr *gateway.ApplicationError
	if errors.As(err, &appErr) && len(appErr.Fields) > 0 {
		return append(bank.FieldErrors(nil), appErr.Fields...)
	}
	return nil
}

func draftKey(d bank.Draft) string {
	return strings.Join([]string{
		d.Name, d.EstablishedYear, d.Address, d.ATMCount, d.BranchCount, d.EmployeeCount,
	}, draftKeySeparator)
}

func cloneBanks(in []bank.Bank) []bank.Bank {
	if in == nil {
		return nil
	}
	return append([]bank.Bank(nil), in...)
}
