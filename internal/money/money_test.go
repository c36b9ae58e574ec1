package money

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestConvert(t *testing.T) {
	c := NewConverter("usd", map[string]decimal.Decimal{
		"eur": d("1.10"),
		"JPY": d("0.0067"),
	})

	tcs := []struct {
		name     string
		in       Money
		to       string
		expected string
		ok       bool
	}{
		{"same currency", New(d("42"), "USD"), "USD", "42", true},
		{"to base", New(d("10"), "EUR"), "USD", "11", true},
		{"from base", New(d("11"), "USD"), "EUR", "10", true},
		{"cross rate", New(d("1000"), "JPY"), "EUR", "6.09", true},
		{"unknown source", New(d("1"), "GBP"), "USD", "", false},
		{"unknown target", New(d("1"), "USD"), "GBP", "", false},
	}

	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			out, ok := c.Convert(tc.in, tc.to)
			assert.Equal(t, tc.ok, ok)
			if tc.ok {
				assert.True(t, d(tc.expected).Equal(out.Amount), "expected %s, got %s", tc.expected, out.Amount)
			}
		})
	}
}

func TestSummarize(t *testing.T) {
	c := NewConverter("USD", map[string]decimal.Decimal{"EUR": d("2")})

	s := c.Summarize("usd", []Item{
		{Kind: "income", Money: New(d("100"), "USD")},
		{Kind: "income", Money: New(d("10"), "EUR")},
		{Kind: "expense", Money: New(d("42.50"), "USD")},
		{Kind: "balance", Money: New(d("500"), "USD")},
		{Kind: "expense", Money: New(d("7"), "GBP")},
	})

	assert.Equal(t, "USD", s.Currency)
	assert.True(t, d("120").Equal(s.Income))
	assert.True(t, d("42.5").Equal(s.Expense))
	assert.True(t, d("500").Equal(s.Balance))
	assert.True(t, d("77.5").Equal(s.Net))
	assert.Equal(t, []Money{New(d("7"), "GBP")}, s.Unconverted)
}

func TestMoneyArithmetic(t *testing.T) {
	a := New(d("10.25"), "usd")
	b := New(d("0.75"), "USD")

	assert.Equal(t, "USD", a.Currency)
	assert.True(t, d("11").Equal(a.Add(b).Amount))
	assert.True(t, d("9.5").Equal(a.Sub(b).Amount))
	assert.True(t, Zero("EUR").Amount.IsZero())
}
