package money_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/catshef/storefront/internal/money"
)

func TestRoundHalfUp(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"15.455", "15.46"},
		{"15.454", "15.45"},
		{"0.005", "0.01"},
		{"98.6067", "98.61"},
		{"10", "10"},
		{"0", "0"},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			got := money.Round(money.MustParse(tc.in))
			require.True(t, got.Equal(money.MustParse(tc.want)),
				"round(%s) = %s, want %s", tc.in, got, tc.want)
		})
	}
}

func TestRoundTo(t *testing.T) {
	got := money.RoundTo(money.MustParse("1.2345"), 3)
	require.Equal(t, "1.235", got.String())

	got = money.RoundTo(money.MustParse("1.2345"), 0)
	require.Equal(t, "1", got.String())
}

func TestParse(t *testing.T) {
	d, err := money.Parse(" 12.31 ")
	require.NoError(t, err)
	require.Equal(t, "12.31", d.String())

	_, err = money.Parse("")
	require.Error(t, err)

	_, err = money.Parse("not-a-number")
	require.Error(t, err)
}

func TestSum(t *testing.T) {
	total := money.Sum(money.MustParse("12.31"), money.MustParse("3.14"))
	require.True(t, total.Equal(decimal.RequireFromString("15.45")))
	require.True(t, money.Sum().IsZero())
}
