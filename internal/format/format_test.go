package format

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDate(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"01012024", "01/01/2024"},
		{"31122023", "31/12/2023"},
		{" 15062024 ", "15/06/2024"},
		{"0101202", MissingValue},
		{"", MissingValue},
		{"1", MissingValue},
		{"01-01-2024", MissingValue},
		{"0101202A", MissingValue},
		{"010120245", MissingValue},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Date(tt.in))
		})
	}
}

func TestYear(t *testing.T) {
	assert.Equal(t, "2024", Year("01012024"))
	assert.Equal(t, MissingValue, Year("012024"))
}

func TestSumDecimal(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want string
	}{
		{name: "pis plus cofins", a: "10,50", b: "5,25", want: "15,75"},
		{name: "integers keep two places", a: "10", b: "5", want: "15,00"},
		{name: "zero values", a: "0", b: "0,00", want: "0,00"},
		{name: "more places are kept", a: "0,1234", b: "1,5", want: "1,6234"},
		{name: "dot decimal is accepted", a: "1.5", b: "1,5", want: "3,00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SumDecimal(tt.a, tt.b)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSumDecimalRejectsNonNumbers(t *testing.T) {
	for _, pair := range [][2]string{{"", "1"}, {"1", "abc"}, {"1,2,3", "1"}} {
		got, err := SumDecimal(pair[0], pair[1])
		assert.ErrorIs(t, err, ErrNotDecimal)
		assert.Equal(t, MissingValue, got)
	}
}
