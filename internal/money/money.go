// Package money provides a fixed-precision monetary value tagged with a
// currency code. All balance arithmetic in the ledger goes through this type;
// amounts are decimals with two fractional digits and are never represented
// as binary floating point.
package money

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	// ErrCurrencyMismatch indicates arithmetic or comparison between two
	// values of different currencies.
	ErrCurrencyMismatch = errors.New("currency mismatch")
	// ErrInvalidCurrency indicates a currency code that is not a 3-letter
	// uppercase ISO code.
	ErrInvalidCurrency = errors.New("invalid currency code")
	// ErrInvalidAmount indicates an amount that could not be parsed as an
	// exact decimal.
	ErrInvalidAmount = errors.New("invalid amount")
)

// Scale is the number of fractional digits every amount is held at.
const Scale = 2

// Money is an exact decimal amount in a single currency.
type Money struct {
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
}

// New builds a Money from a decimal amount, rounding to the fixed scale.
func New(amount decimal.Decimal, currency string) (Money, error) {
	if err := ValidateCurrency(currency); err != nil {
		return Money{}, err
	}
	return Money{Amount: amount.Round(Scale), Currency: currency}, nil
}

// Parse builds a Money from an exact decimal string such as "100.00".
func Parse(amount, currency string) (Money, error) {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return Money{}, fmt.Errorf("%w: %q", ErrInvalidAmount, amount)
	}
	return New(d, currency)
}

// MustParse is Parse for test fixtures and constants; it panics on error.
func MustParse(amount, currency string) Money {
	m, err := Parse(amount, currency)
	if err != nil {
		panic(err)
	}
	return m
}

// Zero returns a zero amount in the given currency.
func Zero(currency string) Money {
	return Money{Amount: decimal.Zero, Currency: currency}
}

// ValidateCurrency checks for a 3-letter uppercase code.
func ValidateCurrency(code string) error {
	if len(code) != 3 {
		return fmt.Errorf("%w: %q", ErrInvalidCurrency, code)
	}
	for _, r := range code {
		if r < 'A' || r > 'Z' {
			return fmt.Errorf("%w: %q", ErrInvalidCurrency, code)
		}
	}
	return nil
}

// SameCurrency reports whether both values carry the same currency code.
func (m Money) SameCurrency(other Money) bool {
	return m.Currency == other.Currency
}

// Add returns m + other. The currencies must match.
func (m Money) Add(other Money) (Money, error) {
	if !m.SameCurrency(other) {
		return Money{}, fmt.Errorf("%w: %s vs %s", ErrCurrencyMismatch, m.Currency, other.Currency)
	}
	return Money{Amount: m.Amount.Add(other.Amount), Currency: m.Currency}, nil
}

// Sub returns m - other. The currencies must match.
func (m Money) Sub(other Money) (Money, error) {
	if !m.SameCurrency(other) {
		return Money{}, fmt.Errorf("%w: %s vs %s", ErrCurrencyMismatch, m.Currency, other.Currency)
	}
	return Money{Amount: m.Amount.Sub(other.Amount), Currency: m.Currency}, nil
}

// Cmp compares m against other: -1 if m < other, 0 if equal, +1 if m > other.
// The currencies must match.
func (m Money) Cmp(other Money) (int, error) {
	if !m.SameCurrency(other) {
		return 0, fmt.Errorf("%w: %s vs %s", ErrCurrencyMismatch, m.Currency, other.Currency)
	}
	return m.Amount.Cmp(other.Amount), nil
}

// Neg returns the amount with its sign flipped.
func (m Money) Neg() Money {
	return Money{Amount: m.Amount.Neg(), Currency: m.Currency}
}

// IsPositive reports amount > 0.
func (m Money) IsPositive() bool { return m.Amount.IsPositive() }

// IsNegative reports amount < 0.
func (m Money) IsNegative() bool { return m.Amount.IsNegative() }

// IsZero reports amount == 0.
func (m Money) IsZero() bool { return m.Amount.IsZero() }

// Equal reports whether both amount and currency match.
func (m Money) Equal(other Money) bool {
	return m.SameCurrency(other) && m.Amount.Equal(other.Amount)
}

// MulRate multiplies the amount by a bare decimal rate (e.g. an interest
// rate), rounding the result back to the fixed scale.
func (m Money) MulRate(rate decimal.Decimal) Money {
	return Money{Amount: m.Amount.Mul(rate).Round(Scale), Currency: m.Currency}
}

func (m Money) String() string {
	return m.Amount.StringFixed(Scale) + " " + m.Currency
}
