package money_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bankledger/internal/money"
)

func TestParse(t *testing.T) {
	m, err := money.Parse("100.00", "USD")
	require.NoError(t, err)
	assert.Equal(t, "100.00 USD", m.String())

	m, err = money.Parse("0.005", "USD")
	require.NoError(t, err)
	assert.Equal(t, "0.01 USD", m.String(), "amounts are rounded to two digits")
}

func TestParseRejectsBadInput(t *testing.T) {
	tests := []struct {
		name     string
		amount   string
		currency string
		wantErr  error
	}{
		{"not a number", "abc", "USD", money.ErrInvalidAmount},
		{"empty amount", "", "USD", money.ErrInvalidAmount},
		{"lowercase currency", "10.00", "usd", money.ErrInvalidCurrency},
		{"short currency", "10.00", "US", money.ErrInvalidCurrency},
		{"long currency", "10.00", "USDT", money.ErrInvalidCurrency},
		{"digit in currency", "10.00", "US1", money.ErrInvalidCurrency},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := money.Parse(tt.amount, tt.currency)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestArithmeticRequiresSameCurrency(t *testing.T) {
	usd := money.MustParse("10.00", "USD")
	eur := money.MustParse("10.00", "EUR")

	_, err := usd.Add(eur)
	assert.ErrorIs(t, err, money.ErrCurrencyMismatch)

	_, err = usd.Sub(eur)
	assert.ErrorIs(t, err, money.ErrCurrencyMismatch)

	_, err = usd.Cmp(eur)
	assert.ErrorIs(t, err, money.ErrCurrencyMismatch)
}

func TestArithmetic(t *testing.T) {
	a := money.MustParse("10.50", "USD")
	b := money.MustParse("2.25", "USD")

	sum, err := a.Add(b)
	require.NoError(t, err)
	assert.True(t, sum.Equal(money.MustParse("12.75", "USD")))

	diff, err := a.Sub(b)
	require.NoError(t, err)
	assert.True(t, diff.Equal(money.MustParse("8.25", "USD")))

	cmp, err := a.Cmp(b)
	require.NoError(t, err)
	assert.Equal(t, 1, cmp)

	assert.True(t, a.Neg().IsNegative())
	assert.True(t, money.Zero("USD").IsZero())
}

func TestMulRateRounds(t *testing.T) {
	balance := money.MustParse("1234.56", "USD")
	rate := decimal.RequireFromString("0.002")

	interest := balance.MulRate(rate)
	// 1234.56 * 0.002 = 2.46912, rounded to 2.47.
	assert.True(t, interest.Equal(money.MustParse("2.47", "USD")), "got %s", interest)
}
