package notify

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// Type identifies what happened to a budget owner's data.
type Type string

const (
	TypeEntryCreated Type = "budget_entry_created"
	TypeEntryUpdated Type = "budget_entry_updated"
	TypeEntryDeleted Type = "budget_entry_deleted"
	TypeMonthAdded   Type = "budget_month_added"
	TypeMonthDeleted Type = "budget_month_deleted"
	TypeShareGranted Type = "budget_share_granted"
	TypeShareRevoked Type = "budget_share_revoked"
	TypeShareUpdated Type = "budget_share_updated"
	TypeCurrency     Type = "currency_changed"
	TypeMemoCreated  Type = "memo_created"
	TypeMemoUpdated  Type = "memo_updated"
	TypeMemoDeleted  Type = "memo_deleted"
	TypeTodoCreated  Type = "todo_created"
	TypeTodoUpdated  Type = "todo_updated"
	TypeTodoDeleted  Type = "todo_deleted"
	TypeTodoToggled  Type = "todo_toggled"
	TypeBudgetImport Type = "budget_imported"
)

const maxContentLength = 50

// Params is the structured payload of a notification. Each Type has exactly one
// implementation; the set is closed to this package.
type Params interface {
	Type() Type
	// bounded returns a copy with free text cut to maxContentLength runes.
	bounded() Params
}

func truncate(s string) string {
	r := []rune(s)
	if len(r) <= maxContentLength {
		return s
	}
	return string(r[:maxContentLength])
}

// Amount is a decimal that encodes as a bare JSON number. Decoding accepts
// numbers and quoted strings.
type Amount struct {
	decimal.Decimal
}

func NewAmount(d decimal.Decimal) Amount {
	return Amount{d}
}

func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(a.Decimal.String()), nil
}

type Entry struct {
	Kind        string `json:"kind"`
	Description string `json:"description"`
	Amount      Amount `json:"amount"`
	Currency    string `json:"currency"`
	Month       int    `json:"month"`
	Year        int    `json:"year"`
}

func (e Entry) bounded() Entry {
	e.Description = truncate(e.Description)
	return e
}

type EntryCreated struct{ Entry }
type EntryUpdated struct{ Entry }
type EntryDeleted struct{ Entry }

func (EntryCreated) Type() Type { return TypeEntryCreated }
func (EntryUpdated) Type() Type { return TypeEntryUpdated }
func (EntryDeleted) Type() Type { return TypeEntryDeleted }

func (p EntryCreated) bounded() Params { return EntryCreated{p.Entry.bounded()} }
func (p EntryUpdated) bounded() Params { return EntryUpdated{p.Entry.bounded()} }
func (p EntryDeleted) bounded() Params { return EntryDeleted{p.Entry.bounded()} }

type Month struct {
	Month int `json:"month"`
	Year  int `json:"year"`
}

type MonthAdded struct{ Month }
type MonthDeleted struct {
	Month
	EntriesDeleted int64 `json:"entries_deleted"`
}

func (MonthAdded) Type() Type   { return TypeMonthAdded }
func (MonthDeleted) Type() Type { return TypeMonthDeleted }

func (p MonthAdded) bounded() Params   { return p }
func (p MonthDeleted) bounded() Params { return p }

type ShareGranted struct {
	Username   string `json:"username"`
	Permission string `json:"permission"`
}

type ShareUpdated struct {
	Username   string `json:"username"`
	Permission string `json:"permission"`
}

type ShareRevoked struct {
	Username string `json:"username"`
}

func (ShareGranted) Type() Type { return TypeShareGranted }
func (ShareUpdated) Type() Type { return TypeShareUpdated }
func (ShareRevoked) Type() Type { return TypeShareRevoked }

func (p ShareGranted) bounded() Params { return p }
func (p ShareUpdated) bounded() Params { return p }
func (p ShareRevoked) bounded() Params { return p }

type CurrencyChanged struct {
	From string `json:"from"`
	To   string `json:"to"`
}

func (CurrencyChanged) Type() Type        { return TypeCurrency }
func (p CurrencyChanged) bounded() Params { return p }

type Memo struct {
	Content string `json:"content"`
}

type MemoCreated struct{ Memo }
type MemoUpdated struct{ Memo }
type MemoDeleted struct{ Memo }

func (MemoCreated) Type() Type { return TypeMemoCreated }
func (MemoUpdated) Type() Type { return TypeMemoUpdated }
func (MemoDeleted) Type() Type { return TypeMemoDeleted }

func (p MemoCreated) bounded() Params { return MemoCreated{Memo{truncate(p.Content)}} }
func (p MemoUpdated) bounded() Params { return MemoUpdated{Memo{truncate(p.Content)}} }
func (p MemoDeleted) bounded() Params { return MemoDeleted{Memo{truncate(p.Content)}} }

type Todo struct {
	Content   string `json:"content"`
	Completed bool   `json:"completed"`
}

type TodoCreated struct{ Todo }
type TodoUpdated struct{ Todo }
type TodoDeleted struct{ Todo }
type TodoToggled struct{ Todo }

func (TodoCreated) Type() Type { return TypeTodoCreated }
func (TodoUpdated) Type() Type { return TypeTodoUpdated }
func (TodoDeleted) Type() Type { return TypeTodoDeleted }
func (TodoToggled) Type() Type { return TypeTodoToggled }

func (p TodoCreated) bounded() Params { return TodoCreated{Todo{truncate(p.Content), p.Completed}} }
func (p TodoUpdated) bounded() Params { return TodoUpdated{Todo{truncate(p.Content), p.Completed}} }
func (p TodoDeleted) bounded() Params { return TodoDeleted{Todo{truncate(p.Content), p.Completed}} }
func (p TodoToggled) bounded() Params { return TodoToggled{Todo{truncate(p.Content), p.Completed}} }

type BudgetImported struct {
	Entries int `json:"entries"`
	Months  int `json:"months"`
}

func (BudgetImported) Type() Type        { return TypeBudgetImport }
func (p BudgetImported) bounded() Params { return p }

// DecodeParams rebuilds the Params variant for t from its stored JSON.
func DecodeParams(t Type, raw []byte) (Params, error) {
	var p Params
	switch t {
	case TypeEntryCreated:
		p = &EntryCreated{}
	case TypeEntryUpdated:
		p = &EntryUpdated{}
	case TypeEntryDeleted:
		p = &EntryDeleted{}
	case TypeMonthAdded:
		p = &MonthAdded{}
	case TypeMonthDeleted:
		p = &MonthDeleted{}
	case TypeShareGranted:
		p = &ShareGranted{}
	case TypeShareUpdated:
		p = &ShareUpdated{}
	case TypeShareRevoked:
		p = &ShareRevoked{}
	case TypeCurrency:
		p = &CurrencyChanged{}
	case TypeMemoCreated:
		p = &MemoCreated{}
	case TypeMemoUpdated:
		p = &MemoUpdated{}
	case TypeMemoDeleted:
		p = &MemoDeleted{}
	case TypeTodoCreated:
		p = &TodoCreated{}
	case TypeTodoUpdated:
		p = &TodoUpdated{}
	case TypeTodoDeleted:
		p = &TodoDeleted{}
	case TypeTodoToggled:
		p = &TodoToggled{}
	case TypeBudgetImport:
		p = &BudgetImported{}
	default:
		return nil, fmt.Errorf("unknown notification type %q", t)
	}

	if err := json.Unmarshal(raw, p); err != nil {
		return nil, fmt.Errorf("decode %s params: %w", t, err)
	}

	return deref(p), nil
}

func deref(p Params) Params {
	switch v := p.(type) {
	case *EntryCreated:
		return *v
	case *EntryUpdated:
		return *v
	case *EntryDeleted:
		return *v
	case *MonthAdded:
		return *v
	case *MonthDeleted:
		return *v
	case *ShareGranted:
		return *v
	case *ShareUpdated:
		return *v
	case *ShareRevoked:
		return *v
	case *CurrencyChanged:
		return *v
	case *MemoCreated:
		return *v
	case *MemoUpdated:
		return *v
	case *MemoDeleted:
		return *v
	case *TodoCreated:
		return *v
	case *TodoUpdated:
		return *v
	case *TodoDeleted:
		return *v
	case *TodoToggled:
		return *v
	case *BudgetImported:
		return *v
	}
	return p
}
