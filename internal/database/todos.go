package database

import (
	"context"
	"time"
)

const (
	todoColumns = "id, owner_id, content, completed, created_at, updated_at"
	memoColumns = "id, owner_id, content, created_at, updated_at"
)

func (r *SQLRepository) CreateTodo(ctx context.Context, t Todo) (Todo, error) {
	now := time.Now().UTC()
	var created Todo
	err := r.db.GetContext(ctx, &created, r.rebind(
		"INSERT INTO todos ("+todoColumns+") VALUES (?, ?, ?, ?, ?, ?) RETURNING "+todoColumns),
		t.Id, t.OwnerId, t.Content, false, now, now,
	)
	return created, err
}

func (r *SQLRepository) UpdateTodo(ctx context.Context, ownerId int, id, content string) (Todo, error) {
	var t Todo
	err := r.db.GetContext(ctx, &t, r.rebind(
		"UPDATE todos SET content = ?, updated_at = ? WHERE owner_id = ? AND id = ? RETURNING "+todoColumns),
		content, time.Now().UTC(), ownerId, id,
	)
	return t, err
}

func (r *SQLRepository) ToggleTodo(ctx context.Context, ownerId int, id string) (Todo, error) {
	var t Todo
	err := r.db.GetContext(ctx, &t, r.rebind(
		"UPDATE todos SET completed = NOT completed, updated_at = ? WHERE owner_id = ? AND id = ? RETURNING "+todoColumns),
		time.Now().UTC(), ownerId, id,
	)
	return t, err
}

func (r *SQLRepository) DeleteTodo(ctx context.Context, ownerId int, id string) (Todo, error) {
	var t Todo
	err := r.db.GetContext(ctx, &t, r.rebind(
		"DELETE FROM todos WHERE owner_id = ? AND id = ? RETURNING "+todoColumns), ownerId, id)
	return t, err
}

func (r *SQLRepository) ListTodos(ctx context.Context, ownerId int) ([]Todo, error) {
	todos := make([]Todo, 0)
	err := r.db.SelectContext(ctx, &todos, r.rebind(
		"SELECT "+todoColumns+" FROM todos WHERE owner_id = ? ORDER BY created_at, id"), ownerId)
	return todos, err
}

func (r *SQLRepository) CreateMemo(ctx context.Context, m Memo) (Memo, error) {
	now := time.Now().UTC()
	var created Memo
	err := r.db.GetContext(ctx, &created, r.rebind(
		"INSERT INTO memos ("+memoColumns+") VALUES (?, ?, ?, ?, ?) RETURNING "+memoColumns),
		m.Id, m.OwnerId, m.Content, now, now,
	)
	return created, err
}

func (r *SQLRepository) UpdateMemo(ctx context.Context, ownerId int, id, content string) (Memo, error) {
	var m Memo
	err := r.db.GetContext(ctx, &m, r.rebind(
		"UPDATE memos SET content = ?, updated_at = ? WHERE owner_id = ? AND id = ? RETURNING "+memoColumns),
		content, time.Now().UTC(), ownerId, id,
	)
	return m, err
}

func (r *SQLRepository) DeleteMemo(ctx context.Context, ownerId int, id string) (Memo, error) {
	var m Memo
	err := r.db.GetContext(ctx, &m, r.rebind(
		"DELETE FROM memos WHERE owner_id = ? AND id = ? RETURNING "+memoColumns), ownerId, id)
	return m, err
}

func (r *SQLRepository) ListMemos(ctx context.Context, ownerId int) ([]Memo, error) {
	memos := make([]Memo, 0)
	err := r.db.SelectContext(ctx, &memos, r.rebind(
		"SELECT "+memoColumns+" FROM memos WHERE owner_id = ? ORDER BY created_at DESC, id"), ownerId)
	return memos, err
}
