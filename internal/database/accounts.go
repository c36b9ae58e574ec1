package database

import (
	"context"
	"time"
)

const accountColumns = "id, username, email, password_hash, currency, created_at, updated_at"

func (r *SQLRepository) CreateAccount(ctx context.Context, params CreateAccountParams) (User, error) {
	currency := params.Currency
	if currency == "" {
		currency = "USD"
	}

	now := time.Now().UTC()
	var u User
	err := r.db.GetContext(ctx, &u, r.rebind(
		"INSERT INTO accounts (username, email, password_hash, currency, created_at, updated_at) "+
			"VALUES (?, ?, ?, ?, ?, ?) RETURNING "+accountColumns),
		params.Username,
		params.EmailAddress,
		params.PasswordHash,
		currency,
		now,
		now,
	)
	if uniqueViolation(err) {
		return User{}, ErrDuplicate
	}

	return u, err
}

func (r *SQLRepository) GetAccountById(ctx context.Context, id int) (User, error) {
	var u User
	err := r.db.GetContext(ctx, &u, r.rebind("SELECT "+accountColumns+" FROM accounts WHERE id = ? LIMIT 1"), id)
	return u, err
}

func (r *SQLRepository) GetAccountByEmail(ctx context.Context, email string) (User, error) {
	var u User
	err := r.db.GetContext(ctx, &u, r.rebind("SELECT "+accountColumns+" FROM accounts WHERE email = ? LIMIT 1"), email)
	return u, err
}

func (r *SQLRepository) GetAccountByUsername(ctx context.Context, username string) (User, error) {
	var u User
	err := r.db.GetContext(ctx, &u, r.rebind("SELECT "+accountColumns+" FROM accounts WHERE username = ? LIMIT 1"), username)
	return u, err
}

func (r *SQLRepository) UpdateAccountCurrency(ctx context.Context, userId int, currency string) (User, error) {
	var u User
	err := r.db.GetContext(ctx, &u, r.rebind(
		"UPDATE accounts SET currency = ?, updated_at = ? WHERE id = ? RETURNING "+accountColumns),
		currency,
		time.Now().UTC(),
		userId,
	)
	return u, err
}
