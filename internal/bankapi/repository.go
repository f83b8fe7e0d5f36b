package bankapi

import (
	"context"

	"github.com/bankdash/bankdash/internal/bank"
)

// Repository persists banks. Lookups that miss return shared.ErrNotFound.
type Repository interface {
	List(ctx context.Context) ([]bank.Bank, error)
	Get(ctx context.Context, id int64) (bank.Bank, error)
	// GetByName returns the lowest-id bank with exactly this name.
	GetByName(ctx context.Context, name string) (bank.Bank, error)
	// Create stores b and returns it with id and timestamps assigned.
	Create(ctx context.Context, b bank.Bank) (bank.Bank, error)
	// Update loads the bank with id, passes it to mutate and stores the result,
	// all in one transaction. An error from mutate aborts the update.
	Update(ctx context.Context, id int64, mutate func(bank.Bank) (bank.Bank, error)) (bank.Bank, error)
	Delete(ctx context.Context, id int64) error
}

const bankColumns = `id, name, established_at, address, atm_count, branch_count, employee_count, created_at, updated_at`
