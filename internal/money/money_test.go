package money

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBR(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"1.234,56", 1234.56},
		{"1234,56", 1234.56},
		{"R$ 1.234,56", 1234.56},
		{"R$1.234,56", 1234.56},
		{"1234.56", 1234.56},
		{"1.000.000,00", 1000000},
		{"0,50", 0.5},
		{"1500", 1500},
	}
	for _, tt := range tests {
		got, err := ParseBR(tt.in)
		require.NoError(t, err, "input %q", tt.in)
		assert.Equal(t, tt.want, got, "input %q", tt.in)
	}
}

func TestParseBRInvalid(t *testing.T) {
	for _, in := range []string{"", "   ", "abc", "R$", "12,34,56"} {
		_, err := ParseBR(in)
		assert.Error(t, err, "input %q", in)
	}
}

func TestRound2(t *testing.T) {
	assert.Equal(t, 211.91, Round2(211.9053))
	assert.Equal(t, 211.91, Round2(211.905))
	assert.Equal(t, 0.0, Round2(0))
	assert.Equal(t, -1.24, Round2(-1.235))
}

func TestFormatBRL(t *testing.T) {
	assert.Equal(t, "R$ 1.234,56", FormatBRL(1234.56))
	assert.Equal(t, "R$ 0,50", FormatBRL(0.5))
	assert.Equal(t, "R$ 1.000.000,00", FormatBRL(1000000))
	assert.Equal(t, "R$ 999,00", FormatBRL(999))
	assert.Equal(t, "-R$ 12,30", FormatBRL(-12.3))
}

func TestAmountUnmarshal(t *testing.T) {
	var payload struct {
		Valor   Amount `json:"valor"`
		Salario Amount `json:"salario"`
	}

	require.NoError(t, json.Unmarshal([]byte(`{"valor": 10000, "salario": "5.000,00"}`), &payload))
	assert.Equal(t, 10000.0, payload.Valor.Float64())
	assert.Equal(t, 5000.0, payload.Salario.Float64())

	assert.Error(t, json.Unmarshal([]byte(`{"valor": "abc"}`), &payload))
	assert.Error(t, json.Unmarshal([]byte(`{"valor": true}`), &payload))
}
