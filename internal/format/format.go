// Package format holds the small value formatters used when building output
// rows: EFD dates and comma-decimal money.
package format

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// MissingValue marks a value that could not be produced. It is the same
// representation used for any absent column.
const MissingValue = ""

// ErrNotDecimal is returned when a field is not a comma-decimal number.
var ErrNotDecimal = errors.New("not a decimal value")

// Date turns an EFD DDMMYYYY date into DD/MM/YYYY. Anything that is not
// exactly eight digits yields MissingValue.
func Date(value string) string {
	value = strings.TrimSpace(value)
	if len(value) != 8 {
		return MissingValue
	}
	for i := 0; i < len(value); i++ {
		if value[i] < '0' || value[i] > '9' {
			return MissingValue
		}
	}
	return value[:2] + "/" + value[2:4] + "/" + value[4:]
}

// Year returns the YYYY part of a DDMMYYYY date, or MissingValue.
func Year(value string) string {
	if Date(value) == MissingValue {
		return MissingValue
	}
	return strings.TrimSpace(value)[4:8]
}

// ParseDecimal reads an EFD number, which uses a comma as decimal separator.
func ParseDecimal(value string) (decimal.Decimal, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return decimal.Zero, fmt.Errorf("%w: empty", ErrNotDecimal)
	}
	d, err := decimal.NewFromString(strings.Replace(value, ",", ".", 1))
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrNotDecimal, value)
	}
	return d, nil
}

// Decimal renders d with a comma separator and at least two places.
func Decimal(d decimal.Decimal, places int32) string {
	if places < 2 {
		places = 2
	}
	return strings.Replace(d.StringFixed(places), ".", ",", 1)
}

// SumDecimal adds two EFD numbers and renders the result the same way,
// keeping the larger number of decimal places of the operands (minimum two).
//
//	SumDecimal("10,50", "5,25") == "15,75"
func SumDecimal(a, b string) (string, error) {
	x, err := ParseDecimal(a)
	if err != nil {
		return MissingValue, err
	}
	y, err := ParseDecimal(b)
	if err != nil {
		return MissingValue, err
	}
	places := -x.Exponent()
	if p := -y.Exponent(); p > places {
		places = p
	}
	return Decimal(x.Add(y), places), nil
}
