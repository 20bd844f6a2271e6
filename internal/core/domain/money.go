package domain

import (
	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// DefaultCurrency is used when a record does not carry a currency.
const DefaultCurrency = "USD"

// Money is an exact amount in major units of a currency.
type Money struct {
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency,omitempty"`
}

// M creates a Money value from a number of major units.
func M[T float64 | int | int64 | decimal.Decimal](value T, currency string) Money {
	var d decimal.Decimal
	switch v := any(value).(type) {
	case float64:
		d = decimal.NewFromFloat(v)
	case int:
		d = decimal.NewFromInt(int64(v))
	case int64:
		d = decimal.NewFromInt(v)
	case decimal.Decimal:
		d = v
	}
	return Money{Amount: d, Currency: currency}
}

// MustParseMoney parses a decimal string. It panics on malformed input and is meant
// for literals in declarations and tests.
func MustParseMoney(s, currency string) Money {
	return Money{Amount: decimal.RequireFromString(s), Currency: currency}
}

// currency returns a never-nil go-money currency for m.
func (m Money) currency() money.Currency {
	code := m.Currency
	if code == "" {
		code = DefaultCurrency
	}
	return *money.New(0, code).Currency()
}

// String formats the amount with the currency's grapheme and fraction digits.
func (m Money) String() string {
	cur := m.currency()
	minor := m.Amount.Shift(int32(cur.Fraction)).Round(0)
	return cur.Formatter().Format(minor.IntPart())
}

func (m Money) IsZero() bool          { return m.Amount.IsZero() }
func (m Money) IsNegative() bool      { return m.Amount.IsNegative() }
func (m Money) Equal(n Money) bool    { return m.Amount.Equal(n.Amount) && m.code() == n.code() }
func (m Money) LessThan(n Money) bool { return m.Amount.LessThan(n.Amount) }
func (m Money) Cmp(n Money) int       { return m.Amount.Cmp(n.Amount) }
func (m Money) Neg() Money            { return Money{Amount: m.Amount.Neg(), Currency: m.Currency} }

// Add returns m + n. An empty currency adopts the other operand's currency.
func (m Money) Add(n Money) Money {
	return Money{Amount: m.Amount.Add(n.Amount), Currency: mergeCurrency(m, n)}
}

// Sub returns m - n.
func (m Money) Sub(n Money) Money {
	return Money{Amount: m.Amount.Sub(n.Amount), Currency: mergeCurrency(m, n)}
}

// ZeroOf returns a zero amount in m's currency.
func (m Money) ZeroOf() Money { return Money{Amount: decimal.Zero, Currency: m.Currency} }

func (m Money) code() string {
	if m.Currency == "" {
		return DefaultCurrency
	}
	return m.Currency
}

func mergeCurrency(a, b Money) string {
	if a.Currency == "" {
		return b.Currency
	}
	return a.Currency
}
