// Package enum translates coded EFD values into the labels shown in the
// output table.
package enum

import (
	"strconv"
	"strings"
)

// Category selects a translation table.
type Category int

const (
	// OperationType is the IND_OPER indicator (inbound/outbound).
	OperationType Category = iota

	// DocumentStatus is the COD_SIT document situation.
	//
	// The table is keyed by sequential position (0, 1) and not by the
	// two-digit codes the layout actually uses ("00", "02"). Code "02"
	// therefore resolves to Invalid. This matches the labels users already
	// rely on and is kept until the full COD_SIT table is agreed.
	DocumentStatus

	// FederalState maps the two-digit IBGE state prefix to a UF.
	FederalState
)

// Invalid is returned for any code outside a table's domain.
const Invalid = "Opção inválida"

var operationTypes = map[int]string{
	0: "0 - Entrada",
	1: "1 - Saída",
}

var documentStatuses = map[int]string{
	0: "00 - Documento regular",
	1: "02 - Documento cancelado",
}

var federalStates = map[int]string{
	11: "RO",
	12: "AC",
	13: "AM",
	14: "RR",
	15: "PA",
	16: "AP",
	17: "TO",
	21: "MA",
	22: "PI",
	23: "CE",
	24: "RN",
	25: "PB",
	26: "PE",
	27: "AL",
	28: "SE",
	29: "BA",
	31: "MG",
	32: "ES",
	33: "RJ",
	35: "SP",
	41: "PR",
	42: "SC",
	43: "RS",
	50: "MS",
	51: "MT",
	52: "GO",
	53: "DF",
}

func table(category Category) map[int]string {
	switch category {
	case OperationType:
		return operationTypes
	case DocumentStatus:
		return documentStatuses
	case FederalState:
		return federalStates
	default:
		return nil
	}
}

// Resolve returns the label for code in category. Codes are parsed as
// integers, so "0" and "00" are the same key. Non-numeric or unknown codes
// return Invalid.
func Resolve(category Category, code string) string {
	n, err := strconv.Atoi(strings.TrimSpace(code))
	if err != nil {
		return Invalid
	}
	return ResolveInt(category, n)
}

// ResolveInt is Resolve for an already numeric code.
func ResolveInt(category Category, code int) string {
	if label, ok := table(category)[code]; ok {
		return label
	}
	return Invalid
}

// StatePair decodes the state prefix of an IBGE municipality code and
// returns it as "UF/UF". Origin and destination come from the same
// participant, so both halves are always equal.
func StatePair(municipalityCode string) string {
	prefix := municipalityCode
	if len(prefix) > 2 {
		prefix = prefix[:2]
	}
	uf := Resolve(FederalState, prefix)
	return uf + "/" + uf
}
