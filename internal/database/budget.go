package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

const entryColumns = "id, owner_id, year, month, kind, description, amount, currency, created_by, created_at, updated_at"

const ensureMonthQuery = "INSERT INTO budget_months (owner_id, year, month, created_at) VALUES (?, ?, ?, ?) " +
	"ON CONFLICT (owner_id, year, month) DO NOTHING"

func (r *SQLRepository) CreateMonth(ctx context.Context, ownerId, year, month int) (Month, error) {
	res, err := r.db.ExecContext(ctx, r.rebind(ensureMonthQuery), ownerId, year, month, time.Now().UTC())
	if err != nil {
		return Month{}, err
	}

	if rowsAffected(res) == 0 {
		return Month{}, ErrDuplicate
	}

	var m Month
	err = r.db.GetContext(ctx, &m, r.rebind(
		"SELECT owner_id, year, month, created_at FROM budget_months WHERE owner_id = ? AND year = ? AND month = ?"),
		ownerId, year, month,
	)
	return m, err
}

func (r *SQLRepository) ListMonths(ctx context.Context, ownerId int) ([]Month, error) {
	months := make([]Month, 0)
	err := r.db.SelectContext(ctx, &months, r.rebind(
		"SELECT owner_id, year, month, created_at FROM budget_months WHERE owner_id = ? ORDER BY year DESC, month DESC"),
		ownerId,
	)
	return months, err
}

// DeleteMonth removes a month and all of its entries, returning the number of
// entries removed. It returns sql.ErrNoRows if the month did not exist.
func (r *SQLRepository) DeleteMonth(ctx context.Context, ownerId, year, month int) (int64, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	entries, err := tx.ExecContext(ctx, tx.Rebind(
		"DELETE FROM budget_entries WHERE owner_id = ? AND year = ? AND month = ?"), ownerId, year, month)
	if err != nil {
		return 0, fmt.Errorf("delete entries: %w", err)
	}

	months, err := tx.ExecContext(ctx, tx.Rebind(
		"DELETE FROM budget_months WHERE owner_id = ? AND year = ? AND month = ?"), ownerId, year, month)
	if err != nil {
		return 0, fmt.Errorf("delete month: %w", err)
	}

	if rowsAffected(months) == 0 {
		return 0, sql.ErrNoRows
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}

	return rowsAffected(entries), nil
}

func insertEntry(ctx context.Context, tx *sqlx.Tx, e Entry) (Entry, bool, error) {
	res, err := tx.ExecContext(ctx, tx.Rebind(ensureMonthQuery), e.OwnerId, e.Year, e.Month, e.CreatedAt)
	if err != nil {
		return Entry{}, false, fmt.Errorf("ensure month: %w", err)
	}

	var created Entry
	err = tx.GetContext(ctx, &created, tx.Rebind(
		"INSERT INTO budget_entries ("+entryColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?) RETURNING "+entryColumns),
		e.Id, e.OwnerId, e.Year, e.Month, e.Kind, e.Description, e.Amount, e.Currency, e.CreatedBy, e.CreatedAt, e.UpdatedAt,
	)
	if err != nil {
		return Entry{}, false, fmt.Errorf("insert entry: %w", err)
	}

	return created, rowsAffected(res) > 0, nil
}

// CreateEntry stores a new entry, creating its month if needed.
func (r *SQLRepository) CreateEntry(ctx context.Context, e Entry) (Entry, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return Entry{}, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	e.CreatedAt, e.UpdatedAt = now, now

	created, _, err := insertEntry(ctx, tx, e)
	if err != nil {
		return Entry{}, err
	}

	return created, tx.Commit()
}

// ImportEntries inserts all entries in one transaction.
func (r *SQLRepository) ImportEntries(ctx context.Context, entries []Entry) (ImportResult, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return ImportResult{}, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	var result ImportResult
	now := time.Now().UTC()
	for _, e := range entries {
		e.CreatedAt, e.UpdatedAt = now, now
		_, newMonth, err := insertEntry(ctx, tx, e)
		if err != nil {
			return ImportResult{}, err
		}

		result.Entries++
		if newMonth {
			result.Months++
		}
	}

	if err := tx.Commit(); err != nil {
		return ImportResult{}, err
	}

	return result, nil
}

func (r *SQLRepository) GetEntry(ctx context.Context, ownerId int, id string) (Entry, error) {
	var e Entry
	err := r.db.GetContext(ctx, &e, r.rebind("SELECT "+entryColumns+" FROM budget_entries WHERE owner_id = ? AND id = ?"), ownerId, id)
	return e, err
}

func (r *SQLRepository) UpdateEntry(ctx context.Context, params UpdateEntryParams) (Entry, error) {
	var e Entry
	err := r.db.GetContext(ctx, &e, r.rebind(
		"UPDATE budget_entries SET kind = ?, description = ?, amount = ?, currency = ?, updated_at = ? "+
			"WHERE owner_id = ? AND id = ? RETURNING "+entryColumns),
		params.Kind,
		params.Description,
		params.Amount,
		params.Currency,
		time.Now().UTC(),
		params.OwnerId,
		params.Id,
	)
	return e, err
}

// DeleteEntry removes an entry and returns what was removed.
func (r *SQLRepository) DeleteEntry(ctx context.Context, ownerId int, id string) (Entry, error) {
	var e Entry
	err := r.db.GetContext(ctx, &e, r.rebind(
		"DELETE FROM budget_entries WHERE owner_id = ? AND id = ? RETURNING "+entryColumns), ownerId, id)
	return e, err
}

func (r *SQLRepository) ListEntries(ctx context.Context, ownerId, year, month int) ([]Entry, error) {
	entries := make([]Entry, 0)
	err := r.db.SelectContext(ctx, &entries, r.rebind(
		"SELECT "+entryColumns+" FROM budget_entries WHERE owner_id = ? AND year = ? AND month = ? ORDER BY created_at, id"),
		ownerId, year, month,
	)
	return entries, err
}
