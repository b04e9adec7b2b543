package money

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShare(t *testing.T) {
	tests := []struct {
		name    string
		amount  string
		percent string
		want    string
	}{
		{"thirty percent of 1000", "1000", "30", "300"},
		{"twenty percent of 1000", "1000", "20", "200"},
		{"rounds half up", "10.05", "50", "5.03"},
		{"rounds down", "33.33", "33.33", "11.11"},
		{"zero percent", "1000", "0", "0"},
		{"tiny amount rounds to zero", "0.01", "10", "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Share(decimal.RequireFromString(tt.amount), decimal.RequireFromString(tt.percent))
			assert.True(t, decimal.RequireFromString(tt.want).Equal(got), "got %s", got)
		})
	}
}

func TestParseCode(t *testing.T) {
	code, err := ParseCode(" gbp ")
	require.NoError(t, err)
	assert.Equal(t, GBP, code)

	_, err = ParseCode("GB")
	assert.ErrorIs(t, err, ErrInvalidCurrency)

	_, err = ParseCode("12A")
	assert.ErrorIs(t, err, ErrInvalidCurrency)
}

func TestMoney_AddSub(t *testing.T) {
	a, err := New(10.5, "usd")
	require.NoError(t, err)
	b, err := New(0.25, "USD")
	require.NoError(t, err)

	sum, err := a.Add(b)
	require.NoError(t, err)
	assert.Equal(t, "10.75 USD", sum.String())

	diff, err := a.Sub(b)
	require.NoError(t, err)
	assert.Equal(t, "10.25 USD", diff.String())

	_, err = b.Sub(a)
	assert.ErrorIs(t, err, ErrNegativeAmount)

	eur, err := New(1, "EUR")
	require.NoError(t, err)
	_, err = a.Add(eur)
	assert.ErrorIs(t, err, ErrMismatchedCurrencies)
}

func TestFloatRoundTrip(t *testing.T) {
	d := FromFloat(19.999)
	assert.Equal(t, "20", d.String())
	assert.InDelta(t, 20.0, Float(d), 0.0001)
	assert.True(t, Sum(FromFloat(1.1), FromFloat(2.2)).Equal(decimal.RequireFromString("3.3")))
}
