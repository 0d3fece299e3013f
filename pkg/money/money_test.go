package money

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestToMinor(t *testing.T) {
	cases := map[string]int64{
		"1038":   103800,
		"0.1":    10,
		"19.995": 2000,
		"0.005":  1,
		"0":      0,
		"12.345": 1235,
	}
	for in, want := range cases {
		require.Equal(t, want, ToMinor(decimal.RequireFromString(in)), in)
	}
}

func TestFromMinor(t *testing.T) {
	require.True(t, FromMinor(103800).Equal(decimal.NewFromInt(1038)))
	require.Equal(t, "0.99", FromMinor(99).StringFixed(2))
}

func TestLineTotalAvoidsFloatDrift(t *testing.T) {
	total := LineTotal(decimal.RequireFromString("0.1"), 3)
	require.Equal(t, int64(30), ToMinor(total))
	require.True(t, total.Equal(decimal.RequireFromString("0.3")))
}

func TestValidatePrice(t *testing.T) {
	require.NoError(t, ValidatePrice(decimal.Zero))
	require.Error(t, ValidatePrice(decimal.NewFromInt(-1)))
}
