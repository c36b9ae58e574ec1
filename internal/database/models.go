package database

import (
	"time"

	"github.com/shopspring/decimal"
)

type Permission string

const (
	PermissionRead  Permission = "read"
	PermissionWrite Permission = "write"
)

func (p Permission) Valid() bool {
	return p == PermissionRead || p == PermissionWrite
}

type EntryKind string

const (
	EntryIncome  EntryKind = "income"
	EntryExpense EntryKind = "expense"
	EntryBalance EntryKind = "balance"
)

func (k EntryKind) Valid() bool {
	return k == EntryIncome || k == EntryExpense || k == EntryBalance
}

type User struct {
	Id           int       `db:"id"`
	Username     string    `db:"username"`
	EmailAddress string    `db:"email"`
	PasswordHash string    `db:"password_hash"`
	Currency     string    `db:"currency"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

type Share struct {
	OwnerId       int        `db:"owner_id"`
	OwnerUsername string     `db:"owner_username"`
	UserId        int        `db:"user_id"`
	Username      string     `db:"username"`
	Permission    Permission `db:"permission"`
	CreatedAt     time.Time  `db:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at"`
}

type Month struct {
	OwnerId   int       `db:"owner_id"`
	Year      int       `db:"year"`
	Month     int       `db:"month"`
	CreatedAt time.Time `db:"created_at"`
}

type Entry struct {
	Id          string          `db:"id"`
	OwnerId     int             `db:"owner_id"`
	Year        int             `db:"year"`
	Month       int             `db:"month"`
	Kind        EntryKind       `db:"kind"`
	Description string          `db:"description"`
	Amount      decimal.Decimal `db:"amount"`
	Currency    string          `db:"currency"`
	CreatedBy   int             `db:"created_by"`
	CreatedAt   time.Time       `db:"created_at"`
	UpdatedAt   time.Time       `db:"updated_at"`
}

type Todo struct {
	Id        string    `db:"id"`
	OwnerId   int       `db:"owner_id"`
	Content   string    `db:"content"`
	Completed bool      `db:"completed"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

type Memo struct {
	Id        string    `db:"id"`
	OwnerId   int       `db:"owner_id"`
	Content   string    `db:"content"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// Notification is one persisted notification row. Params holds the JSON encoded
// structured payload for Type.
type Notification struct {
	Id                  string    `db:"id"`
	Type                string    `db:"type"`
	Params              string    `db:"params"`
	TargetUserId        int       `db:"target_user_id"`
	SourceUserId        int       `db:"source_user_id"`
	BudgetOwnerId       int       `db:"budget_owner_id"`
	Read                bool      `db:"read"`
	CreatedAt           time.Time `db:"created_at"`
	SourceUsername      string    `db:"source_username"`
	BudgetOwnerUsername string    `db:"budget_owner_username"`
}

type CreateAccountParams struct {
	Username     string
	EmailAddress string
	PasswordHash string
	Currency     string
}

type UpdateEntryParams struct {
	OwnerId     int
	Id          string
	Kind        EntryKind
	Description string
	Amount      decimal.Decimal
	Currency    string
}

type ImportResult struct {
	Entries int
	Months  int
}
