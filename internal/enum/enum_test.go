package enum

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name     string
		category Category
		code     string
		want     string
	}{
		{name: "inbound", category: OperationType, code: "0", want: "0 - Entrada"},
		{name: "outbound", category: OperationType, code: "1", want: "1 - Saída"},
		{name: "unknown operation", category: OperationType, code: "7", want: Invalid},
		{name: "regular document", category: DocumentStatus, code: "00", want: "00 - Documento regular"},
		{name: "index one is cancelled", category: DocumentStatus, code: "01", want: "02 - Documento cancelado"},
		{name: "layout code 02 is not indexed", category: DocumentStatus, code: "02", want: Invalid},
		{name: "sao paulo", category: FederalState, code: "35", want: "SP"},
		{name: "distrito federal", category: FederalState, code: "53", want: "DF"},
		{name: "no state 99", category: FederalState, code: "99", want: Invalid},
		{name: "empty code", category: FederalState, code: "", want: Invalid},
		{name: "non numeric", category: OperationType, code: "X", want: Invalid},
		{name: "unknown category", category: Category(42), code: "0", want: Invalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Resolve(tt.category, tt.code))
		})
	}
}

func TestFederalStateTableIsComplete(t *testing.T) {
	assert.Len(t, federalStates, 27)
}

func TestStatePair(t *testing.T) {
	assert.Equal(t, "SP/SP", StatePair("3550308"))
	assert.Equal(t, "RS/RS", StatePair("43"))
	assert.Equal(t, Invalid+"/"+Invalid, StatePair(""))
	assert.Equal(t, Invalid+"/"+Invalid, StatePair("9999999"))
}
