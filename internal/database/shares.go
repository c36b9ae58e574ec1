package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const shareSelect = "SELECT s.owner_id, o.username AS owner_username, s.user_id, a.username, " +
	"s.permission, s.created_at, s.updated_at FROM shares s " +
	"JOIN accounts o ON o.id = s.owner_id JOIN accounts a ON a.id = s.user_id "

// UpsertShare grants or changes userId's access to ownerId's budget. The returned
// bool reports whether a new share was created.
func (r *SQLRepository) UpsertShare(ctx context.Context, ownerId, userId int, perm Permission) (Share, bool, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return Share{}, false, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	var exists int
	err = tx.GetContext(ctx, &exists, tx.Rebind("SELECT COUNT(*) FROM shares WHERE owner_id = ? AND user_id = ?"), ownerId, userId)
	if err != nil {
		return Share{}, false, fmt.Errorf("check share: %w", err)
	}

	now := time.Now().UTC()
	if exists == 0 {
		_, err = tx.ExecContext(ctx, tx.Rebind(
			"INSERT INTO shares (owner_id, user_id, permission, created_at, updated_at) VALUES (?, ?, ?, ?, ?)"),
			ownerId, userId, perm, now, now,
		)
	} else {
		_, err = tx.ExecContext(ctx, tx.Rebind(
			"UPDATE shares SET permission = ?, updated_at = ? WHERE owner_id = ? AND user_id = ?"),
			perm, now, ownerId, userId,
		)
	}
	if err != nil {
		return Share{}, false, fmt.Errorf("write share: %w", err)
	}

	var share Share
	if err := tx.GetContext(ctx, &share, tx.Rebind(shareSelect+"WHERE s.owner_id = ? AND s.user_id = ?"), ownerId, userId); err != nil {
		return Share{}, false, fmt.Errorf("read share: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return Share{}, false, err
	}

	return share, exists == 0, nil
}

func (r *SQLRepository) GetShare(ctx context.Context, ownerId, userId int) (Share, error) {
	var share Share
	err := r.db.GetContext(ctx, &share, r.rebind(shareSelect+"WHERE s.owner_id = ? AND s.user_id = ?"), ownerId, userId)
	return share, err
}

// DeleteShare revokes access. It returns sql.ErrNoRows if there was nothing to revoke.
func (r *SQLRepository) DeleteShare(ctx context.Context, ownerId, userId int) error {
	res, err := r.db.ExecContext(ctx, r.rebind("DELETE FROM shares WHERE owner_id = ? AND user_id = ?"), ownerId, userId)
	if err != nil {
		return err
	}

	if rowsAffected(res) == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *SQLRepository) ListSharesByOwner(ctx context.Context, ownerId int) ([]Share, error) {
	shares := make([]Share, 0)
	err := r.db.SelectContext(ctx, &shares, r.rebind(shareSelect+"WHERE s.owner_id = ? ORDER BY a.username"), ownerId)
	return shares, err
}

func (r *SQLRepository) ListSharesForUser(ctx context.Context, userId int) ([]Share, error) {
	shares := make([]Share, 0)
	err := r.db.SelectContext(ctx, &shares, r.rebind(shareSelect+"WHERE s.user_id = ? ORDER BY o.username"), userId)
	return shares, err
}

// ListShareUserIds returns every user holding any access to ownerId's budget.
func (r *SQLRepository) ListShareUserIds(ctx context.Context, ownerId int) ([]int, error) {
	ids := make([]int, 0)
	err := r.db.SelectContext(ctx, &ids, r.rebind("SELECT user_id FROM shares WHERE owner_id = ? ORDER BY user_id"), ownerId)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	return ids, nil
}
