package database

import (
	"context"
	"fmt"
	"time"
)

const DefaultNotificationLimit = 100

// CreateNotifications inserts all rows with a single multi-row statement.
func (r *SQLRepository) CreateNotifications(ctx context.Context, notifications []Notification) error {
	if len(notifications) == 0 {
		return nil
	}

	_, err := r.db.NamedExecContext(ctx,
		"INSERT INTO notification_events "+
			"(id, type, params, target_user_id, source_user_id, budget_owner_id, read, created_at) "+
			"VALUES (:id, :type, :params, :target_user_id, :source_user_id, :budget_owner_id, :read, :created_at)",
		notifications,
	)
	if err != nil {
		return fmt.Errorf("insert notifications: %w", err)
	}

	return nil
}

// ListNotifications returns userId's notifications, newest first.
func (r *SQLRepository) ListNotifications(ctx context.Context, userId, limit int) ([]Notification, error) {
	if limit <= 0 {
		limit = DefaultNotificationLimit
	}

	notifications := make([]Notification, 0)
	err := r.db.SelectContext(ctx, &notifications, r.rebind(
		"SELECT n.id, n.type, n.params, n.target_user_id, n.source_user_id, n.budget_owner_id, n.read, n.created_at, "+
			"s.username AS source_username, o.username AS budget_owner_username "+
			"FROM notification_events n "+
			"JOIN accounts s ON s.id = n.source_user_id "+
			"JOIN accounts o ON o.id = n.budget_owner_id "+
			"WHERE n.target_user_id = ? ORDER BY n.created_at DESC, n.id DESC LIMIT ?"),
		userId, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}

	return notifications, nil
}

// MarkNotificationRead marks one notification read if it belongs to userId and
// reports whether a row matched.
func (r *SQLRepository) MarkNotificationRead(ctx context.Context, id string, userId int) (bool, error) {
	res, err := r.db.ExecContext(ctx, r.rebind(
		"UPDATE notification_events SET read = ? WHERE id = ? AND target_user_id = ?"), true, id, userId)
	if err != nil {
		return false, err
	}

	return rowsAffected(res) > 0, nil
}

func (r *SQLRepository) MarkAllNotificationsRead(ctx context.Context, userId int) (int64, error) {
	res, err := r.db.ExecContext(ctx, r.rebind(
		"UPDATE notification_events SET read = ? WHERE target_user_id = ? AND read = ?"), true, userId, false)
	if err != nil {
		return 0, err
	}

	return rowsAffected(res), nil
}

func (r *SQLRepository) DeleteNotificationsOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, r.rebind("DELETE FROM notification_events WHERE created_at < ?"), cutoff.UTC())
	if err != nil {
		return 0, err
	}

	return rowsAffected(res), nil
}
