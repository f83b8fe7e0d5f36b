package bankapi

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/bankdash/bankdash/internal/bank"
	"github.com/bankdash/bankdash/internal/platform/db"
	"github.com/bankdash/bankdash/internal/shared"
)

// SQLite stores timestamps as RFC 3339 text.
const sqliteTimeLayout = time.RFC3339Nano

type sqliteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository returns a Repository backed by SQLite.
func NewSQLiteRepository(sqlDB *sql.DB) Repository {
	return &sqliteRepository{db: sqlDB}
}

type sqlQuerier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (r *sqliteRepository) List(ctx context.Context) ([]bank.Bank, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+bankColumns+` FROM banks ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("bankapi: list banks: %w", err)
	}
	defer rows.Close()

	var banks []bank.Bank
	for rows.Next() {
		b, err := scanSQLite(rows)
		if err != nil {
			return nil, fmt.Errorf("bankapi: scan bank: %w", err)
		}
		banks = append(banks, b)
	}
	return banks, rows.Err()
}

func (r *sqliteRepository) Get(ctx context.Context, id int64) (bank.Bank, error) {
	return getOneSQLite(ctx, r.db, `SELECT `+bankColumns+` FROM banks WHERE id = ?`, id)
}

func (r *sqliteRepository) GetByName(ctx context.Context, name string) (bank.Bank, error) {
	return getOneSQLite(ctx, r.db, `SELECT `+bankColumns+` FROM banks WHERE name = ? ORDER BY id LIMIT 1`, name)
}

func (r *sqliteRepository) Create(ctx context.Context, b bank.Bank) (bank.Bank, error) {
	res, err := r.db.ExecContext(ctx, `INSERT INTO banks (name, established_at, address, atm_count, branch_count, employee_count, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		b.Name, formatTime(b.Year), b.Address, b.ATMs, b.Branches, b.Employees, formatTime(b.CreatedAt), formatTime(b.UpdatedAt))
	if err != nil {
		return bank.Bank{}, fmt.Errorf("bankapi: insert bank: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return bank.Bank{}, fmt.Errorf("bankapi: insert bank id: %w", err)
	}
	b.ID = id
	return b, nil
}

func (r *sqliteRepository) Update(ctx context.Context, id int64, mutate func(bank.Bank) (bank.Bank, error)) (bank.Bank, error) {
	var out bank.Bank
	err := db.WithSQLTx(ctx, r.db, func(tx *sql.Tx) error {
		current, err := getOneSQLite(ctx, tx, `SELECT `+bankColumns+` FROM banks WHERE id = ?`, id)
		if err != nil {
			return err
		}
		next, err := mutate(current)
		if err != nil {
			return err
		}
		next.ID = current.ID
		next.CreatedAt = current.CreatedAt
		_, err = tx.ExecContext(ctx, `UPDATE banks SET name = ?, established_at = ?, address = ?, atm_count = ?,
			branch_count = ?, employee_count = ?, updated_at = ? WHERE id = ?`,
			next.Name, formatTime(next.Year), next.Address, next.ATMs, next.Branches, next.Employees, formatTime(next.UpdatedAt), id)
		if err != nil {
			return fmt.Errorf("bankapi: update bank %d: %w", id, err)
		}
		out = next
		return nil
	})
	return out, err
}

func (r *sqliteRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM banks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("bankapi: delete bank %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("bankapi: delete bank %d: %w", id, err)
	}
	if n == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func getOneSQLite(ctx context.Context, q sqlQuerier, query string, arg any) (bank.Bank, error) {
	b, err := scanSQLite(q.QueryRowContext(ctx, query, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return bank.Bank{}, shared.ErrNotFound
	}
	if err != nil {
		return bank.Bank{}, fmt.Errorf("bankapi: get bank: %w", err)
	}
	return b, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSQLite(row rowScanner) (bank.Bank, error) {
	var (
		b                       bank.Bank
		year, created, modified string
	)
	if err := row.Scan(&b.ID, &b.Name, &year, &b.Address, &b.ATMs, &b.Branches, &b.Employees, &created, &modified); err != nil {
		return bank.Bank{}, err
	}
	var err error
	if b.Year, err = parseTime(year); err != nil {
		return bank.Bank{}, err
	}
	if b.CreatedAt, err = parseTime(created); err != nil {
		return bank.Bank{}, err
	}
	if b.UpdatedAt, err = parseTime(modified); err != nil {
		return bank.Bank{}, err
	}
	return b, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(sqliteTimeLayout)
}

func parseTime(raw string) (time.Time, error) {
	t, err := time.Parse(sqliteTimeLayout, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("bankapi: parse stored time %q: %w", raw, err)
	}
	return t, nil
}
