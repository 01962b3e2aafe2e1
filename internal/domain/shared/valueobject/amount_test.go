package valueobject

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAmount(t *testing.T) {
	t.Run("rounds half away from zero to two places", func(t *testing.T) {
		assert.Equal(t, "10.13", NewAmount(decimal.RequireFromString("10.125")).String())
		assert.Equal(t, "-10.13", NewAmount(decimal.RequireFromString("-10.125")).String())
	})

	t.Run("from minor units", func(t *testing.T) {
		a := NewAmountFromMinor(1050)
		assert.Equal(t, "10.50", a.String())
		assert.Equal(t, int64(1050), a.MinorUnits())
	})

	t.Run("from string", func(t *testing.T) {
		a, err := NewAmountFromString("99.9")
		require.NoError(t, err)
		assert.Equal(t, "99.90", a.String())

		_, err = NewAmountFromString("ninety")
		assert.Error(t, err)
	})

	t.Run("from float does not drift", func(t *testing.T) {
		assert.Equal(t, "0.30", NewAmountFromFloat(0.1+0.2).String())
	})
}

func TestAmount_Arithmetic(t *testing.T) {
	a := MustAmount("0.10")
	b := MustAmount("0.20")

	assert.True(t, a.Add(b).Equals(MustAmount("0.30")))
	assert.True(t, b.Sub(a).Equals(MustAmount("0.10")))
	assert.True(t, MustAmount("12.35").MulInt(3).Equals(MustAmount("37.05")))
	assert.True(t, SumAmounts(a, b, a).Equals(MustAmount("0.40")))
	assert.True(t, SumAmounts().IsZero())
}

func TestAmount_Comparisons(t *testing.T) {
	small := MustAmount("20.00")
	big := MustAmount("25.00")

	assert.True(t, small.LessThan(big))
	assert.True(t, small.LessThanOrEqual(small))
	assert.True(t, big.GreaterThan(small))
	assert.True(t, big.GreaterThanOrEqual(big))
	assert.Equal(t, -1, small.Cmp(big))
	assert.Equal(t, 0, small.Cmp(MustAmount("20")))
	assert.True(t, small.Max(big).Equals(big))
	assert.True(t, small.Sub(big).ClampZero().IsZero())
	assert.True(t, small.Sub(big).IsNegative())
	assert.True(t, big.IsPositive())
}

func TestAmount_JSON(t *testing.T) {
	t.Run("marshals as number with two places", func(t *testing.T) {
		data, err := json.Marshal(struct {
			Total Amount `json:"total"`
		}{Total: MustAmount("12.5")})
		require.NoError(t, err)
		assert.JSONEq(t, `{"total": 12.50}`, string(data))
	})

	t.Run("unmarshals numbers and quoted strings", func(t *testing.T) {
		var v struct {
			A Amount `json:"a"`
			B Amount `json:"b"`
		}
		require.NoError(t, json.Unmarshal([]byte(`{"a": 12.5, "b": "7.255"}`), &v))
		assert.Equal(t, "12.50", v.A.String())
		assert.Equal(t, "7.26", v.B.String())
	})

	t.Run("rejects garbage", func(t *testing.T) {
		var a Amount
		assert.Error(t, json.Unmarshal([]byte(`"abc"`), &a))
	})
}

func TestAmount_SQL(t *testing.T) {
	v, err := MustAmount("3.1").Value()
	require.NoError(t, err)
	assert.Equal(t, "3.10", v)

	tests := []struct {
		name  string
		input any
		want  string
	}{
		{"nil", nil, "0.00"},
		{"string", "45.67", "45.67"},
		{"bytes", []byte("8.90"), "8.90"},
		{"int64", int64(12), "12.00"},
		{"float64", 19.99, "19.99"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var a Amount
			require.NoError(t, a.Scan(tt.input))
			assert.Equal(t, tt.want, a.String())
		})
	}

	var a Amount
	assert.Error(t, a.Scan(true))
	assert.Error(t, a.Scan("not-a-number"))
}
