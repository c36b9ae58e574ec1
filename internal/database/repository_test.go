package database

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepository(t *testing.T) *SQLRepository {
	t.Helper()

	repo, err := NewSQLRepository("sqlite", ":memory:")
	require.NoError(t, err, "failed to open test repository")
	t.Cleanup(func() {
		if err := repo.Close(); err != nil {
			t.Errorf("closing test repository: %v", err)
		}
	})

	return repo
}

func createTestAccount(t *testing.T, repo *SQLRepository, username string) User {
	t.Helper()

	u, err := repo.CreateAccount(context.Background(), CreateAccountParams{
		Username:     username,
		EmailAddress: username + "@example.com",
		PasswordHash: "hash",
	})
	require.NoError(t, err, "failed to create account %s", username)
	return u
}

func TestAccounts(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	alice := createTestAccount(t, repo, "alice")
	assert.NotZero(t, alice.Id, "expected generated id")
	assert.Equal(t, "USD", alice.Currency, "expected default currency")

	byName, err := repo.GetAccountByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, alice.Id, byName.Id)

	byEmail, err := repo.GetAccountByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, "hash", byEmail.PasswordHash)

	updated, err := repo.UpdateAccountCurrency(ctx, alice.Id, "EUR")
	require.NoError(t, err)
	assert.Equal(t, "EUR", updated.Currency)

	_, err = repo.GetAccountById(ctx, 9999)
	assert.ErrorIs(t, err, sql.ErrNoRows)

	_, err = repo.CreateAccount(ctx, CreateAccountParams{
		Username:     "alice",
		EmailAddress: "other@example.com",
		PasswordHash: "hash",
	})
	assert.ErrorIs(t, err, ErrDuplicate, "expected duplicate username to be rejected")
}

func TestShares(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	alice := createTestAccount(t, repo, "alice")
	bob := createTestAccount(t, repo, "bob")
	carol := createTestAccount(t, repo, "carol")

	share, created, err := repo.UpsertShare(ctx, alice.Id, bob.Id, PermissionRead)
	require.NoError(t, err)
	assert.True(t, created, "expected first grant to create a share")
	assert.Equal(t, "alice", share.OwnerUsername)
	assert.Equal(t, "bob", share.Username)
	assert.Equal(t, PermissionRead, share.Permission)

	share, created, err = repo.UpsertShare(ctx, alice.Id, bob.Id, PermissionWrite)
	require.NoError(t, err)
	assert.False(t, created, "expected second grant to update")
	assert.Equal(t, PermissionWrite, share.Permission)

	_, _, err = repo.UpsertShare(ctx, alice.Id, carol.Id, PermissionRead)
	require.NoError(t, err)

	ids, err := repo.ListShareUserIds(ctx, alice.Id)
	require.NoError(t, err)
	assert.Equal(t, []int{bob.Id, carol.Id}, ids)

	byOwner, err := repo.ListSharesByOwner(ctx, alice.Id)
	require.NoError(t, err)
	assert.Len(t, byOwner, 2)

	forBob, err := repo.ListSharesForUser(ctx, bob.Id)
	require.NoError(t, err)
	require.Len(t, forBob, 1)
	assert.Equal(t, alice.Id, forBob[0].OwnerId)

	require.NoError(t, repo.DeleteShare(ctx, alice.Id, bob.Id))
	assert.ErrorIs(t, repo.DeleteShare(ctx, alice.Id, bob.Id), sql.ErrNoRows, "expected second revoke to find nothing")

	_, err = repo.GetShare(ctx, alice.Id, bob.Id)
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestMonthsAndEntries(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	alice := createTestAccount(t, repo, "alice")

	_, err := repo.CreateMonth(ctx, alice.Id, 2024, 3)
	require.NoError(t, err)
	_, err = repo.CreateMonth(ctx, alice.Id, 2024, 3)
	assert.ErrorIs(t, err, ErrDuplicate)

	entry, err := repo.CreateEntry(ctx, Entry{
		Id:          "e1",
		OwnerId:     alice.Id,
		Year:        2024,
		Month:       4,
		Kind:        EntryExpense,
		Description: "Groceries",
		Amount:      decimal.RequireFromString("42.50"),
		Currency:    "USD",
		CreatedBy:   alice.Id,
	})
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("42.5").Equal(entry.Amount), "expected amount to round-trip")

	months, err := repo.ListMonths(ctx, alice.Id)
	require.NoError(t, err)
	require.Len(t, months, 2, "expected entry creation to add its month")
	assert.Equal(t, 4, months[0].Month, "expected newest month first")

	updated, err := repo.UpdateEntry(ctx, UpdateEntryParams{
		OwnerId:     alice.Id,
		Id:          "e1",
		Kind:        EntryExpense,
		Description: "Groceries and wine",
		Amount:      decimal.NewFromInt(60),
		Currency:    "EUR",
	})
	require.NoError(t, err)
	assert.Equal(t, "Groceries and wine", updated.Description)
	assert.Equal(t, "EUR", updated.Currency)

	_, err = repo.UpdateEntry(ctx, UpdateEntryParams{OwnerId: alice.Id, Id: "missing", Kind: EntryIncome, Amount: decimal.Zero, Currency: "USD"})
	assert.ErrorIs(t, err, sql.ErrNoRows)

	entries, err := repo.ListEntries(ctx, alice.Id, 2024, 4)
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	deleted, err := repo.DeleteEntry(ctx, alice.Id, "e1")
	require.NoError(t, err)
	assert.Equal(t, "Groceries and wine", deleted.Description)

	_, err = repo.DeleteEntry(ctx, alice.Id, "e1")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestDeleteMonth(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	alice := createTestAccount(t, repo, "alice")

	for i := range 3 {
		_, err := repo.CreateEntry(ctx, Entry{
			Id:        fmt.Sprintf("e%d", i),
			OwnerId:   alice.Id,
			Year:      2024,
			Month:     5,
			Kind:      EntryIncome,
			Amount:    decimal.NewFromInt(10),
			Currency:  "USD",
			CreatedBy: alice.Id,
		})
		require.NoError(t, err)
	}

	removed, err := repo.DeleteMonth(ctx, alice.Id, 2024, 5)
	require.NoError(t, err)
	assert.Equal(t, int64(3), removed)

	_, err = repo.DeleteMonth(ctx, alice.Id, 2024, 5)
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestImportEntries(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	alice := createTestAccount(t, repo, "alice")

	_, err := repo.CreateMonth(ctx, alice.Id, 2024, 1)
	require.NoError(t, err)

	result, err := repo.ImportEntries(ctx, []Entry{
		{Id: "i1", OwnerId: alice.Id, Year: 2024, Month: 1, Kind: EntryIncome, Amount: decimal.NewFromInt(1), Currency: "USD", CreatedBy: alice.Id},
		{Id: "i2", OwnerId: alice.Id, Year: 2024, Month: 2, Kind: EntryIncome, Amount: decimal.NewFromInt(2), Currency: "USD", CreatedBy: alice.Id},
		{Id: "i3", OwnerId: alice.Id, Year: 2024, Month: 2, Kind: EntryExpense, Amount: decimal.NewFromInt(3), Currency: "USD", CreatedBy: alice.Id},
	})
	require.NoError(t, err)
	assert.Equal(t, ImportResult{Entries: 3, Months: 1}, result, "expected only February to be a new month")

	t.Run("rolls back on duplicate id", func(t *testing.T) {
		_, err := repo.ImportEntries(ctx, []Entry{
			{Id: "i4", OwnerId: alice.Id, Year: 2024, Month: 6, Kind: EntryIncome, Amount: decimal.NewFromInt(1), Currency: "USD", CreatedBy: alice.Id},
			{Id: "i1", OwnerId: alice.Id, Year: 2024, Month: 6, Kind: EntryIncome, Amount: decimal.NewFromInt(1), Currency: "USD", CreatedBy: alice.Id},
		})
		assert.Error(t, err)

		entries, err := repo.ListEntries(ctx, alice.Id, 2024, 6)
		require.NoError(t, err)
		assert.Empty(t, entries, "expected failed import to leave nothing behind")
	})
}

func TestTodosAndMemos(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	alice := createTestAccount(t, repo, "alice")

	todo, err := repo.CreateTodo(ctx, Todo{Id: "t1", OwnerId: alice.Id, Content: "pay rent"})
	require.NoError(t, err)
	assert.False(t, todo.Completed)

	toggled, err := repo.ToggleTodo(ctx, alice.Id, "t1")
	require.NoError(t, err)
	assert.True(t, toggled.Completed)

	toggled, err = repo.ToggleTodo(ctx, alice.Id, "t1")
	require.NoError(t, err)
	assert.False(t, toggled.Completed)

	updated, err := repo.UpdateTodo(ctx, alice.Id, "t1", "pay rent today")
	require.NoError(t, err)
	assert.Equal(t, "pay rent today", updated.Content)

	todos, err := repo.ListTodos(ctx, alice.Id)
	require.NoError(t, err)
	assert.Len(t, todos, 1)

	_, err = repo.DeleteTodo(ctx, alice.Id, "t1")
	require.NoError(t, err)
	_, err = repo.ToggleTodo(ctx, alice.Id, "t1")
	assert.ErrorIs(t, err, sql.ErrNoRows)

	memo, err := repo.CreateMemo(ctx, Memo{Id: "m1", OwnerId: alice.Id, Content: "insurance renews in May"})
	require.NoError(t, err)
	assert.Equal(t, "m1", memo.Id)

	memo, err = repo.UpdateMemo(ctx, alice.Id, "m1", "insurance renews in June")
	require.NoError(t, err)
	assert.Equal(t, "insurance renews in June", memo.Content)

	memos, err := repo.ListMemos(ctx, alice.Id)
	require.NoError(t, err)
	assert.Len(t, memos, 1)

	_, err = repo.DeleteMemo(ctx, alice.Id, "m1")
	require.NoError(t, err)
}

func TestNotifications(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	alice := createTestAccount(t, repo, "alice")
	bob := createTestAccount(t, repo, "bob")
	carol := createTestAccount(t, repo, "carol")

	base := time.Now().UTC().Truncate(time.Millisecond)
	rows := []Notification{
		{Id: "n1", Type: "budget_entry_created", Params: `{"description":"Groceries"}`, TargetUserId: bob.Id, SourceUserId: alice.Id, BudgetOwnerId: alice.Id, CreatedAt: base.Add(-2 * time.Minute)},
		{Id: "n2", Type: "budget_entry_deleted", Params: `{}`, TargetUserId: bob.Id, SourceUserId: alice.Id, BudgetOwnerId: alice.Id, CreatedAt: base},
		{Id: "n3", Type: "budget_entry_created", Params: `{}`, TargetUserId: carol.Id, SourceUserId: alice.Id, BudgetOwnerId: alice.Id, CreatedAt: base},
		{Id: "old", Type: "memo_created", Params: `{}`, TargetUserId: bob.Id, SourceUserId: alice.Id, BudgetOwnerId: alice.Id, CreatedAt: base.Add(-40 * 24 * time.Hour)},
	}
	require.NoError(t, repo.CreateNotifications(ctx, rows))

	list, err := repo.ListNotifications(ctx, bob.Id, 0)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, []string{"n2", "n1", "old"}, []string{list[0].Id, list[1].Id, list[2].Id}, "expected newest first")
	assert.Equal(t, "alice", list[0].SourceUsername)
	assert.Equal(t, "alice", list[0].BudgetOwnerUsername)
	assert.Equal(t, `{"description":"Groceries"}`, list[1].Params)
	assert.False(t, list[0].Read)

	t.Run("mark read is scoped to the target", func(t *testing.T) {
		ok, err := repo.MarkNotificationRead(ctx, "n3", bob.Id)
		require.NoError(t, err)
		assert.False(t, ok, "expected no match for another user's notification")

		carols, err := repo.ListNotifications(ctx, carol.Id, 0)
		require.NoError(t, err)
		require.Len(t, carols, 1)
		assert.False(t, carols[0].Read, "expected carol's notification to stay unread")

		ok, err = repo.MarkNotificationRead(ctx, "n1", bob.Id)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("mark all read", func(t *testing.T) {
		n, err := repo.MarkAllNotificationsRead(ctx, bob.Id)
		require.NoError(t, err)
		assert.Equal(t, int64(2), n, "expected only the remaining unread rows to change")

		list, err := repo.ListNotifications(ctx, bob.Id, 0)
		require.NoError(t, err)
		for _, n := range list {
			assert.True(t, n.Read, "expected %s to be read", n.Id)
		}
	})

	t.Run("retention sweep", func(t *testing.T) {
		n, err := repo.DeleteNotificationsOlderThan(ctx, base.Add(-30*24*time.Hour))
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)

		list, err := repo.ListNotifications(ctx, bob.Id, 0)
		require.NoError(t, err)
		assert.Len(t, list, 2)
	})

	t.Run("limit", func(t *testing.T) {
		list, err := repo.ListNotifications(ctx, bob.Id, 1)
		require.NoError(t, err)
		assert.Len(t, list, 1)
	})
}
