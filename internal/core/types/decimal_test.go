package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuantity_Parse(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Quantity
		wantErr bool
	}{
		{name: "integer", input: "100", want: 100_0000},
		{name: "decimal", input: "12.5", want: 12_5000},
		{name: "four digits", input: "0.0001", want: 1},
		{name: "extra digits truncated", input: "1.00019", want: 1_0001},
		{name: "negative", input: "-3.25", want: -3_2500},
		{name: "leading plus", input: "+7", want: 7_0000},
		{name: "bare fraction", input: ".5", want: 5000},
		{name: "empty", input: "", wantErr: true},
		{name: "garbage", input: "abc", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseQuantityString(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestQuantity_String(t *testing.T) {
	assert.Equal(t, "100.0000", Quantity(100_0000).String())
	assert.Equal(t, "0.0001", Quantity(1).String())
	assert.Equal(t, "-12.5000", Quantity(-12_5000).String())
	assert.Equal(t, "0.0000", Quantity(0).String())
}

func TestQuantity_JSON(t *testing.T) {
	type doc struct {
		Kg Quantity `json:"kg"`
	}

	// Number form
	var d doc
	require.NoError(t, json.Unmarshal([]byte(`{"kg": 12.5}`), &d))
	assert.Equal(t, Quantity(12_5000), d.Kg)

	// String form
	require.NoError(t, json.Unmarshal([]byte(`{"kg": "80.0001"}`), &d))
	assert.Equal(t, Quantity(80_0001), d.Kg)

	// Null resets to zero
	require.NoError(t, json.Unmarshal([]byte(`{"kg": null}`), &d))
	assert.Equal(t, Quantity(0), d.Kg)

	// Marshal emits a plain number with 4 digits
	out, err := json.Marshal(doc{Kg: 3_2500})
	require.NoError(t, err)
	assert.JSONEq(t, `{"kg": 0.3250}`, string(out))
}

func TestQuantity_Arithmetic(t *testing.T) {
	q := NewQuantityFromFloat64(100)
	assert.True(t, q.IsPositive())
	assert.False(t, q.IsZero())
	assert.Equal(t, float64(100), q.Float64())

	assert.Equal(t, Quantity(-100_0000), q.Neg())
	assert.Equal(t, q, q.Neg().Abs())
	assert.True(t, q.Neg().IsNegative())
}

func TestMoney_FromString(t *testing.T) {
	m, err := NewMoneyFromString("1500.50")
	require.NoError(t, err)
	assert.Equal(t, "1500.5", m.String())

	_, err = NewMoneyFromString("not-a-number")
	require.Error(t, err)

	assert.True(t, Zero().IsZero())
}
