// Package money handles Brazilian currency values: parsing the comma-decimal
// strings produced by the site's masked inputs ("1.234,56"), rounding to
// centavos, and formatting amounts for notifications.
package money

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ParseBR converts a Brazilian-formatted currency string to a float64.
// Accepts "1.234,56", "1234,56", "R$ 1.234,56" and plain dot-decimal
// numbers ("1234.56"). Returns an error for anything non-numeric.
func ParseBR(s string) (float64, error) {
	cleaned := strings.TrimSpace(s)
	cleaned = strings.TrimPrefix(cleaned, "R$")
	cleaned = strings.TrimSpace(cleaned)
	if cleaned == "" {
		return 0, fmt.Errorf("empty currency value")
	}

	if strings.Contains(cleaned, ",") {
		// Comma-decimal format: dots are thousands separators
		cleaned = strings.ReplaceAll(cleaned, ".", "")
		cleaned = strings.Replace(cleaned, ",", ".", 1)
	}

	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return 0, fmt.Errorf("invalid currency value %q: %w", s, err)
	}

	f, _ := d.Float64()
	return f, nil
}

// Round2 rounds a value to centavos (two decimal places, half away from zero)
func Round2(v float64) float64 {
	f, _ := decimal.NewFromFloat(v).Round(2).Float64()
	return f
}

// FormatBRL renders a value as Brazilian currency, e.g. "R$ 1.234,56"
func FormatBRL(v float64) string {
	d := decimal.NewFromFloat(v).Round(2)
	s := d.StringFixed(2) // "-1234.56"

	negative := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")

	parts := strings.SplitN(s, ".", 2)
	intPart, fracPart := parts[0], parts[1]

	// Insert dot thousands separators
	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}

	sign := ""
	if negative {
		sign = "-"
	}
	return fmt.Sprintf("%sR$ %s,%s", sign, b.String(), fracPart)
}

// Amount is a float64 that unmarshals from either a JSON number or a
// Brazilian-formatted currency string. Form payloads send either depending
// on whether the input mask ran client-side.
type Amount float64

// UnmarshalJSON implements json.Unmarshaler
func (a *Amount) UnmarshalJSON(data []byte) error {
	var num float64
	if err := json.Unmarshal(data, &num); err == nil {
		*a = Amount(num)
		return nil
	}

	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return fmt.Errorf("amount must be a number or string: %s", string(data))
	}

	parsed, err := ParseBR(str)
	if err != nil {
		return err
	}
	*a = Amount(parsed)
	return nil
}

// Float64 returns the underlying value
func (a Amount) Float64() float64 {
	return float64(a)
}
