package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuantity_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		set       bool
		expected  float64
		expectErr bool
	}{
		{"number", `2.5`, true, 2.5, false},
		{"numeric string", `"0.0123"`, true, 0.0123, false},
		{"padded string", `" 42 "`, true, 42, false},
		{"exponent", `1e3`, true, 1000, false},
		{"null", `null`, false, 0, true},
		{"text", `"fast"`, true, 0, true},
		{"infinity string", `"+Inf"`, true, 0, true},
		{"boolean", `true`, true, 0, true},
		{"object", `{"a":1}`, true, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var q Quantity
			require.NoError(t, json.Unmarshal([]byte(tt.body), &q))
			assert.Equal(t, tt.set, q.IsSet())

			v, err := q.Float64()
			if tt.expectErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, v)
		})
	}
}

func TestQuantity_PreservesText(t *testing.T) {
	type doc struct {
		A Quantity `json:"a"`
		B Quantity `json:"b"`
		C Quantity `json:"c"`
	}

	var d doc
	require.NoError(t, json.Unmarshal([]byte(`{"a":"0.04999999999999999","b":7.10,"c":null}`), &d))

	out, err := json.Marshal(d)
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":"0.04999999999999999","b":7.10,"c":null}`, string(out))

	raw, ok := d.A.Raw()
	assert.True(t, ok)
	assert.Equal(t, "0.04999999999999999", raw)
}

func TestQuantity_Helpers(t *testing.T) {
	assert.Equal(t, "12.5", QuantityOf(12.5).String())
	assert.Equal(t, 3.0, ParseQuantity("bad").Float64Or(3))
	assert.Equal(t, 7.0, ParseQuantity("7").Float64Or(3))

	_, err := Quantity{}.Float64()
	assert.ErrorIs(t, err, ErrMissingQuantity)
}
