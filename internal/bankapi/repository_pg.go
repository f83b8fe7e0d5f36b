package bankapi

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bankdash/bankdash/internal/bank"
	"github.com/bankdash/bankdash/internal/platform/db"
	"github.com/bankdash/bankdash/internal/shared"
)

type pgRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository returns a Repository backed by PostgreSQL.
func NewPostgresRepository(pool *pgxpool.Pool) Repository {
	return &pgRepository{pool: pool}
}

func (r *pgRepository) List(ctx context.Context) ([]bank.Bank, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+bankColumns+` FROM banks ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("bankapi: list banks: %w", err)
	}
	defer rows.Close()

	var banks []bank.Bank
	for rows.Next() {
		b, err := scanPG(rows)
		if err != nil {
			return nil, fmt.Errorf("bankapi: scan bank: %w", err)
		}
		banks = append(banks, b)
	}
	return banks, rows.Err()
}

func (r *pgRepository) Get(ctx context.Context, id int64) (bank.Bank, error) {
	return r.getOne(ctx, r.pool, `SELECT `+bankColumns+` FROM banks WHERE id = $1`, id)
}

func (r *pgRepository) GetByName(ctx context.Context, name string) (bank.Bank, error) {
	return r.getOne(ctx, r.pool, `SELECT `+bankColumns+` FROM banks WHERE name = $1 ORDER BY id LIMIT 1`, name)
}

func (r *pgRepository) Create(ctx context.Context, b bank.Bank) (bank.Bank, error) {
	query := `INSERT INTO banks (name, established_at, address, atm_count, branch_count, employee_count, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`
	err := r.pool.QueryRow(ctx, query, b.Name, b.Year, b.Address, b.ATMs, b.Branches, b.Employees, b.CreatedAt, b.UpdatedAt).Scan(&b.ID)
	if err != nil {
		return bank.Bank{}, fmt.Errorf("bankapi: insert bank: %w", err)
	}
	return b, nil
}

func (r *pgRepository) Update(ctx context.Context, id int64, mutate func(bank.Bank) (bank.Bank, error)) (bank.Bank, error) {
	var out bank.Bank
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		current, err := r.getOne(ctx, tx, `SELECT `+bankColumns+` FROM banks WHERE id = $1 FOR UPDATE`, id)
		if err != nil {
			return err
		}
		next, err := mutate(current)
		if err != nil {
			return err
		}
		next.ID = current.ID
		next.CreatedAt = current.CreatedAt
		_, err = tx.Exec(ctx, `UPDATE banks SET name = $1, established_at = $2, address = $3, atm_count = $4,
			branch_count = $5, employee_count = $6, updated_at = $7 WHERE id = $8`,
			next.Name, next.Year, next.Address, next.ATMs, next.Branches, next.Employees, next.UpdatedAt, id)
		if err != nil {
			return fmt.Errorf("bankapi: update bank %d: %w", id, err)
		}
		out = next
		return nil
	})
	return out, err
}

func (r *pgRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM banks WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("bankapi: delete bank %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

type pgQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func (r *pgRepository) getOne(ctx context.Context, q pgQuerier, query string, arg any) (bank.Bank, error) {
	b, err := scanPG(q.QueryRow(ctx, query, arg))
	if errors.Is(err, pgx.ErrNoRows) {
		return bank.Bank{}, shared.ErrNotFound
	}
	if err != nil {
		return bank.Bank{}, fmt.Errorf("bankapi: get bank: %w", err)
	}
	return b, nil
}

func scanPG(row pgx.Row) (bank.Bank, error) {
	var b bank.Bank
	err := row.Scan(&b.ID, &b.Name, &b.Year, &b.Address, &b.ATMs, &b.Branches, &b.Employees, &b.CreatedAt, &b.UpdatedAt)
	return b, err
}
