package money

import (
	"strings"

	"github.com/shopspring/decimal"
)

type Money struct {
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
}

func New(amount decimal.Decimal, currency string) Money {
	return Money{Amount: amount, Currency: strings.ToUpper(currency)}
}

func Zero(currency string) Money {
	return New(decimal.Zero, currency)
}

// Add assumes both values share a currency.
func (m Money) Add(other Money) Money {
	return Money{Amount: m.Amount.Add(other.Amount), Currency: m.Currency}
}

func (m Money) Sub(other Money) Money {
	return Money{Amount: m.Amount.Sub(other.Amount), Currency: m.Currency}
}

// Converter converts between currencies through a base currency. A rate is
// the value of one unit of the currency expressed in the base currency.
type Converter struct {
	base  string
	rates map[string]decimal.Decimal
}

func NewConverter(base string, rates map[string]decimal.Decimal) *Converter {
	c := &Converter{
		base:  strings.ToUpper(base),
		rates: make(map[string]decimal.Decimal, len(rates)+1),
	}
	for code, rate := range rates {
		c.rates[strings.ToUpper(code)] = rate
	}
	c.rates[c.base] = decimal.NewFromInt(1)

	return c
}

func (c *Converter) Base() string {
	return c.base
}

// Convert expresses m in currency to. It reports false when either currency
// has no rate.
func (c *Converter) Convert(m Money, to string) (Money, bool) {
	to = strings.ToUpper(to)
	if m.Currency == to {
		return m, true
	}

	from, ok := c.rates[m.Currency]
	if !ok {
		return Money{}, false
	}
	target, ok := c.rates[to]
	if !ok || target.IsZero() {
		return Money{}, false
	}

	return Money{Amount: m.Amount.Mul(from).Div(target).Round(2), Currency: to}, true
}

// Item is one amount to summarize, tagged with its entry kind.
type Item struct {
	Kind  string
	Money Money
}

type Summary struct {
	Currency    string          `json:"currency"`
	Income      decimal.Decimal `json:"income"`
	Expense     decimal.Decimal `json:"expense"`
	Balance     decimal.Decimal `json:"balance"`
	Net         decimal.Decimal `json:"net"`
	Unconverted []Money         `json:"unconverted"`
}

// Summarize totals items by kind in currency. Items that cannot be converted
// are listed in Unconverted and left out of the totals.
func (c *Converter) Summarize(currency string, items []Item) Summary {
	s := Summary{
		Currency:    strings.ToUpper(currency),
		Income:      decimal.Zero,
		Expense:     decimal.Zero,
		Balance:     decimal.Zero,
		Unconverted: []Money{},
	}

	for _, it := range items {
		m, ok := c.Convert(it.Money, s.Currency)
		if !ok {
			s.Unconverted = append(s.Unconverted, it.Money)
			continue
		}

		switch it.Kind {
		case "income":
			s.Income = s.Income.Add(m.Amount)
		case "expense":
			s.Expense = s.Expense.Add(m.Amount)
		case "balance":
			s.Balance = s.Balance.Add(m.Amount)
		}
	}
	s.Net = s.Income.Sub(s.Expense)

	return s
}
