package types

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

type User struct {
	Id           int       `json:"id"`
	Username     string    `json:"username"`
	EmailAddress string    `json:"email_address,omitempty"`
	Currency     string    `json:"currency,omitempty"`
	Password     string    `json:"-"`
	CreatedAt    time.Time `json:"created_at,omitempty"`
	UpdatedAt    time.Time `json:"updated_at,omitempty"`
}

type Share struct {
	OwnerId       int       `json:"owner_id"`
	OwnerUsername string    `json:"owner_username"`
	UserId        int       `json:"user_id"`
	Username      string    `json:"username"`
	Permission    string    `json:"permission"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type Shares struct {
	Granted  []Share `json:"granted"`
	Received []Share `json:"received"`
}

type Month struct {
	Year      int       `json:"year"`
	Month     int       `json:"month"`
	CreatedAt time.Time `json:"created_at"`
}

type Entry struct {
	Id          string          `json:"id"`
	Year        int             `json:"year"`
	Month       int             `json:"month"`
	Kind        string          `json:"kind"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency"`
	CreatedBy   int             `json:"created_by"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

type Todo struct {
	Id        string    `json:"id"`
	Content   string    `json:"content"`
	Completed bool      `json:"completed"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Memo struct {
	Id        string    `json:"id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Notification struct {
	Id                  string          `json:"id"`
	Type                string          `json:"type"`
	Params              json.RawMessage `json:"params"`
	SourceUsername      string          `json:"source_username"`
	BudgetOwnerUsername string          `json:"budget_owner_username"`
	Read                bool            `json:"read"`
	CreatedAt           time.Time       `json:"created_at"`
}

type ImportResult struct {
	Entries int `json:"entries"`
	Months  int `json:"months"`
}
