package database

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Ping() error {
	args := m.Called()
	return args.Error(0)
}
func (m *MockRepository) CreateAccount(ctx context.Context, params CreateAccountParams) (User, error) {
	args := m.Called(ctx, params)
	return args.Get(0).(User), args.Error(1)
}
func (m *MockRepository) GetAccountById(ctx context.Context, id int) (User, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(User), args.Error(1)
}
func (m *MockRepository) GetAccountByEmail(ctx context.Context, email string) (User, error) {
	args := m.Called(ctx, email)
	return args.Get(0).(User), args.Error(1)
}
func (m *MockRepository) GetAccountByUsername(ctx context.Context, username string) (User, error) {
	args := m.Called(ctx, username)
	return args.Get(0).(User), args.Error(1)
}
func (m *MockRepository) UpdateAccountCurrency(ctx context.Context, userId int, currency string) (User, error) {
	args := m.Called(ctx, userId, currency)
	return args.Get(0).(User), args.Error(1)
}
func (m *MockRepository) UpsertShare(ctx context.Context, ownerId, userId int, perm Permission) (Share, bool, error) {
	args := m.Called(ctx, ownerId, userId, perm)
	return args.Get(0).(Share), args.Bool(1), args.Error(2)
}
func (m *MockRepository) GetShare(ctx context.Context, ownerId, userId int) (Share, error) {
	args := m.Called(ctx, ownerId, userId)
	return args.Get(0).(Share), args.Error(1)
}
func (m *MockRepository) DeleteShare(ctx context.Context, ownerId, userId int) error {
	args := m.Called(ctx, ownerId, userId)
	return args.Error(0)
}
func (m *MockRepository) ListSharesByOwner(ctx context.Context, ownerId int) ([]Share, error) {
	args := m.Called(ctx, ownerId)
	return args.Get(0).([]Share), args.Error(1)
}
func (m *MockRepository) ListSharesForUser(ctx context.Context, userId int) ([]Share, error) {
	args := m.Called(ctx, userId)
	return args.Get(0).([]Share), args.Error(1)
}
func (m *MockRepository) ListShareUserIds(ctx context.Context, ownerId int) ([]int, error) {
	args := m.Called(ctx, ownerId)
	return args.Get(0).([]int), args.Error(1)
}
func (m *MockRepository) CreateMonth(ctx context.Context, ownerId, year, month int) (Month, error) {
	args := m.Called(ctx, ownerId, year, month)
	return args.Get(0).(Month), args.Error(1)
}
func (m *MockRepository) ListMonths(ctx context.Context, ownerId int) ([]Month, error) {
	args := m.Called(ctx, ownerId)
	return args.Get(0).([]Month), args.Error(1)
}
func (m *MockRepository) DeleteMonth(ctx context.Context, ownerId, year, month int) (int64, error) {
	args := m.Called(ctx, ownerId, year, month)
	return args.Get(0).(int64), args.Error(1)
}
func (m *MockRepository) CreateEntry(ctx context.Context, e Entry) (Entry, error) {
	args := m.Called(ctx, e)
	return args.Get(0).(Entry), args.Error(1)
}
func (m *MockRepository) ImportEntries(ctx context.Context, entries []Entry) (ImportResult, error) {
	args := m.Called(ctx, entries)
	return args.Get(0).(ImportResult), args.Error(1)
}
func (m *MockRepository) GetEntry(ctx context.Context, ownerId int, id string) (Entry, error) {
	args := m.Called(ctx, ownerId, id)
	return args.Get(0).(Entry), args.Error(1)
}
func (m *MockRepository) UpdateEntry(ctx context.Context, params UpdateEntryParams) (Entry, error) {
	args := m.Called(ctx, params)
	return args.Get(0).(Entry), args.Error(1)
}
func (m *MockRepository) DeleteEntry(ctx context.Context, ownerId int, id string) (Entry, error) {
	args := m.Called(ctx, ownerId, id)
	return args.Get(0).(Entry), args.Error(1)
}
func (m *MockRepository) ListEntries(ctx context.Context, ownerId, year, month int) ([]Entry, error) {
	args := m.Called(ctx, ownerId, year, month)
	return args.Get(0).([]Entry), args.Error(1)
}
func (m *MockRepository) CreateTodo(ctx context.Context, t Todo) (Todo, error) {
	args := m.Called(ctx, t)
	return args.Get(0).(Todo), args.Error(1)
}
func (m *MockRepository) UpdateTodo(ctx context.Context, ownerId int, id, content string) (Todo, error) {
	args := m.Called(ctx, ownerId, id, content)
	return args.Get(0).(Todo), args.Error(1)
}
func (m *MockRepository) ToggleTodo(ctx context.Context, ownerId int, id string) (Todo, error) {
	args := m.Called(ctx, ownerId, id)
	return args.Get(0).(Todo), args.Error(1)
}
func (m *MockRepository) DeleteTodo(ctx context.Context, ownerId int, id string) (Todo, error) {
	args := m.Called(ctx, ownerId, id)
	return args.Get(0).(Todo), args.Error(1)
}
func (m *MockRepository) ListTodos(ctx context.Context, ownerId int) ([]Todo, error) {
	args := m.Called(ctx, ownerId)
	return args.Get(0).([]Todo), args.Error(1)
}
func (m *MockRepository) CreateMemo(ctx context.Context, memo Memo) (Memo, error) {
	args := m.Called(ctx, memo)
	return args.Get(0).(Memo), args.Error(1)
}
func (m *MockRepository) UpdateMemo(ctx context.Context, ownerId int, id, content string) (Memo, error) {
	args := m.Called(ctx, ownerId, id, content)
	return args.Get(0).(Memo), args.Error(1)
}
func (m *MockRepository) DeleteMemo(ctx context.Context, ownerId int, id string) (Memo, error) {
	args := m.Called(ctx, ownerId, id)
	return args.Get(0).(Memo), args.Error(1)
}
func (m *MockRepository) ListMemos(ctx context.Context, ownerId int) ([]Memo, error) {
	args := m.Called(ctx, ownerId)
	return args.Get(0).([]Memo), args.Error(1)
}
func (m *MockRepository) CreateNotifications(ctx context.Context, notifications []Notification) error {
	args := m.Called(ctx, notifications)
	return args.Error(0)
}
func (m *MockRepository) ListNotifications(ctx context.Context, userId, limit int) ([]Notification, error) {
	args := m.Called(ctx, userId, limit)
	return args.Get(0).([]Notification), args.Error(1)
}
func (m *MockRepository) MarkNotificationRead(ctx context.Context, id string, userId int) (bool, error) {
	args := m.Called(ctx, id, userId)
	return args.Bool(0), args.Error(1)
}
func (m *MockRepository) MarkAllNotificationsRead(ctx context.Context, userId int) (int64, error) {
	args := m.Called(ctx, userId)
	return args.Get(0).(int64), args.Error(1)
}
func (m *MockRepository) DeleteNotificationsOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).(int64), args.Error(1)
}
