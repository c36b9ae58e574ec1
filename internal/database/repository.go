package database

import (
	"context"
	"time"
)

type Repository interface {
	Ping() error
	CreateAccount(ctx context.Context, params CreateAccountParams) (User, error)
	GetAccountById(ctx context.Context, id int) (User, error)
	GetAccountByEmail(ctx context.Context, email string) (User, error)
	GetAccountByUsername(ctx context.Context, username string) (User, error)
	UpdateAccountCurrency(ctx context.Context, userId int, currency string) (User, error)
	UpsertShare(ctx context.Context, ownerId, userId int, perm Permission) (Share, bool, error)
	GetShare(ctx context.Context, ownerId, userId int) (Share, error)
	DeleteShare(ctx context.Context, ownerId, userId int) error
	ListSharesByOwner(ctx context.Context, ownerId int) ([]Share, error)
	ListSharesForUser(ctx context.Context, userId int) ([]Share, error)
	ListShareUserIds(ctx context.Context, ownerId int) ([]int, error)
	CreateMonth(ctx context.Context, ownerId, year, month int) (Month, error)
	ListMonths(ctx context.Context, ownerId int) ([]Month, error)
	DeleteMonth(ctx context.Context, ownerId, year, month int) (int64, error)
	CreateEntry(ctx context.Context, e Entry) (Entry, error)
	ImportEntries(ctx context.Context, entries []Entry) (ImportResult, error)
	GetEntry(ctx context.Context, ownerId int, id string) (Entry, error)
	UpdateEntry(ctx context.Context, params UpdateEntryParams) (Entry, error)
	DeleteEntry(ctx context.Context, ownerId int, id string) (Entry, error)
	ListEntries(ctx context.Context, ownerId, year, month int) ([]Entry, error)
	CreateTodo(ctx context.Context, t Todo) (Todo, error)
	UpdateTodo(ctx context.Context, ownerId int, id, content string) (Todo, error)
	ToggleTodo(ctx context.Context, ownerId int, id string) (Todo, error)
	DeleteTodo(ctx context.Context, ownerId int, id string) (Todo, error)
	ListTodos(ctx context.Context, ownerId int) ([]Todo, error)
	CreateMemo(ctx context.Context, m Memo) (Memo, error)
	UpdateMemo(ctx context.Context, ownerId int, id, content string) (Memo, error)
	DeleteMemo(ctx context.Context, ownerId int, id string) (Memo, error)
	ListMemos(ctx context.Context, ownerId int) ([]Memo, error)
	CreateNotifications(ctx context.Context, notifications []Notification) error
	ListNotifications(ctx context.Context, userId, limit int) ([]Notification, error)
	MarkNotificationRead(ctx context.Context, id string, userId int) (bool, error)
	MarkAllNotificationsRead(ctx context.Context, userId int) (int64, error)
	DeleteNotificationsOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

var _ Repository = (*SQLRepository)(nil)
