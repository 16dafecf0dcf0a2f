package resolver

import (
	"strings"
	"sync"
	"testing"

	"github.com/ginjaninja78/EFD-to-XLSX-conversion/internal/types"
	"github.com/ginjaninja78/EFD-to-XLSX-conversion/internal/validation"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
)

// line builds an EFD line for tag whose split form has at least size+1
// positions, with values placed at the given positions.
func line(tag string, size int, values map[int]string) string {
	parts := make([]string, size+2)
	parts[1] = tag
	for i, v := range values {
		parts[i] = v
	}
	return strings.Join(parts, "|")
}

var (
	header      = "|0000|006|0|||01012024|31012024|EMPRESA TESTE|11222333000144|SP|"
	participant = line("0150", 8, map[int]string{2: "002", 3: "ACME", 5: "12345678000190", 8: "3550308"})
	product     = line("0200", 12, map[int]string{2: "010", 3: "SERVICO DE TESTE", 4: "789", 6: "UN", 7: "09", 8: "00000000", 11: "01.07", 12: "0"})

	a100 = line("A100", 21, map[int]string{2: "0", 4: "002", 5: "00", 6: "1", 8: "123", 9: "KEYA", 10: "15012024", 11: "16012024", 12: "100,00", 14: "0", 21: "5,00"})
	a170 = line("A170", 17, map[int]string{2: "1", 3: "010", 4: "DESC", 5: "100,00", 6: "0", 7: "03", 9: "50", 10: "100,00", 11: "1,65", 12: "1,65", 13: "50", 14: "100,00", 15: "7,60", 16: "7,60", 17: "3.1.01"})

	c100 = line("C100", 18, map[int]string{2: "0", 4: "002", 6: "00", 7: "1", 8: "9001", 9: "KEYC", 10: "10012024", 11: "11012024", 12: "1000,00", 14: "0", 16: "1000,00", 18: "50,00"})
	c170 = line("C170", 37, map[int]string{
		2: "1", 3: "010", 4: "COMPL;X", 5: "10", 6: "CX", 7: "1000,00", 8: "0",
		10: "000", 11: "1102", 12: "01", 13: "1000,00", 14: "18,00", 15: "180,00",
		20: "49", 25: "50", 26: "1000,00", 27: "1,65", 30: "10,50",
		31: "50", 32: "1000,00", 33: "7,60", 36: "5,25", 37: "1.1.3",
	})

	c500 = line("C500", 10, map[int]string{2: "002", 4: "00", 5: "1", 7: "777", 8: "05012024", 9: "06012024", 10: "150,00"})
	c501 = line("C501", 7, map[int]string{2: "50", 3: "150,00", 4: "04", 5: "150,00", 6: "1,65", 7: "2,48"})
	c505 = line("C505", 8, map[int]string{2: "50", 5: "150,00", 6: "7,60", 7: "11,40", 8: "3.1.02"})

	d100 = line("D100", 20, map[int]string{2: "0", 4: "002", 6: "00", 7: "1", 9: "555", 10: "KEYD", 11: "01012024", 12: "02012024", 15: "300,00", 16: "0", 18: "300,00", 19: "200,00", 20: "24,00"})
	d101 = line("D101", 8, map[int]string{2: "0", 3: "300,00", 4: "50", 5: "03", 6: "300,00", 7: "0,65", 8: "1,95"})
	d105 = line("D105", 9, map[int]string{2: "0", 4: "50", 6: "300,00", 7: "3,00", 8: "9,00", 9: "3.1.03"})

	d200 = line("D200", 11, map[int]string{2: "07", 4: "1", 6: "100", 8: "5353", 9: "10012024", 10: "500,00", 11: "0"})
	d201 = line("D201", 6, map[int]string{2: "01", 3: "500,00", 4: "500,00", 5: "1,65", 6: "8,25"})
	d205 = line("D205", 7, map[int]string{2: "01", 4: "500,00", 5: "7,60", 6: "38,00", 7: "4.1.01"})

	d500 = line("D500", 14, map[int]string{2: "0", 4: "002", 6: "00", 7: "1", 9: "42", 10: "03012024", 11: "04012024", 12: "80,00", 13: "0", 14: "80,00"})
	d501 = line("D501", 7, map[int]string{2: "50", 3: "80,00", 4: "03", 5: "80,00", 6: "1,65", 7: "1,32"})
	d505 = line("D505", 8, map[int]string{2: "50", 5: "80,00", 6: "7,60", 7: "6,08", 8: "3.1.04"})

	f100 = line("F100", 17, map[int]string{5: "20012024", 6: "1000,00", 7: "01", 8: "1000,00", 9: "1,65", 10: "16,50", 11: "01", 12: "1000,00", 13: "7,60", 14: "76,00", 15: "13", 17: "4.2"})
)

func resolve(t *testing.T, lines ...string) *Result {
	t.Helper()
	return New(zaptest.NewLogger(t)).Resolve(append([]string{header, participant, product}, lines...))
}

func issueKinds(result *Result) []validation.Kind {
	var kinds []validation.Kind
	for _, issue := range result.Issues {
		kinds = append(kinds, issue.Kind)
	}
	return kinds
}

func TestEndToEndServiceInvoice(t *testing.T) {
	result := resolve(t, a100, a170, "|9999|6|")

	require.Len(t, result.Rows, 1)
	assert.Empty(t, result.Issues)

	row := result.Rows[0]
	assert.Equal(t, "A100/A170 - Nota Fiscal de Serviço", row.Get(types.ColRegistros))
	assert.Equal(t, "ACME", row.Get(types.ColNomeParticipante))
	assert.Equal(t, "12345678000190", row.Get(types.ColCNPJParticipante))
	assert.Equal(t, "SP/SP", row.Get(types.ColUFOrigemDestino))
	assert.Equal(t, "UN", row.Get(types.ColUnidadeMedida))
	assert.Equal(t, "SERVICO DE TESTE", row.Get(types.ColDescricaoItem))
	assert.Equal(t, "01/01/2024", row.Get(types.ColPeriodo))
	assert.Equal(t, "2024", row.Get(types.ColAno))
	assert.Equal(t, "11222333000144", row.Get(types.ColCNPJ))
	assert.Equal(t, "0 - Entrada", row.Get(types.ColTipoOperacao))
	assert.Equal(t, "00 - Documento regular", row.Get(types.ColSituacao))
	assert.Equal(t, "15/01/2024", row.Get(types.ColDataDocumento))
	assert.Equal(t, "9,25", row.Get(types.ColPISCofins))
	assert.Equal(t, "5,00", row.Get(types.ColVlrISSQN))
}

func TestGoodsInvoiceRow(t *testing.T) {
	result := resolve(t, c100, c170)
	require.Len(t, result.Rows, 1)

	want := types.WithHeader(types.HeaderContext{
		CompanyTaxID: "11222333000144",
		PeriodLabel:  "01/01/2024",
		PeriodYear:   "2024",
	})
	for col, v := range map[types.Column]string{
		types.ColRegistros:             "C100/C170 - Documento - Nota Fiscal",
		types.ColTipoOperacao:          "0 - Entrada",
		types.ColSituacao:              "00 - Documento regular",
		types.ColCodigoParticipante:    "002",
		types.ColCNPJParticipante:      "12345678000190",
		types.ColNomeParticipante:      "ACME",
		types.ColUFOrigemDestino:       "SP/SP",
		types.ColNumeroDocumento:       "9001",
		types.ColSerie:                 "1",
		types.ColChaveNFe:              "KEYC",
		types.ColDataDocumento:         "10/01/2024",
		types.ColDataEntradaSaida:      "11/01/2024",
		types.ColVlrDocumento:          "1000,00",
		types.ColVlrDescontoNF:         "0",
		types.ColVlrMercadoria:         "1000,00",
		types.ColVlrFrete:              "50,00",
		types.ColNumeroItem:            "1",
		types.ColCodigoItem:            "010",
		types.ColDescricaoComplementar: "COMPLX",
		types.ColDescricaoItem:         "SERVICO DE TESTE",
		types.ColNCM:                   "00000000",
		types.ColCodigoServico:         "01.07",
		types.ColCodigoBarra:           "789",
		types.ColTipoItem:              "09",
		types.ColVlrItem:               "1000,00",
		types.ColQtde:                  "10",
		types.ColUnidadeMedida:         "CX",
		types.ColVlrDescontoItem:       "0",
		types.ColNaturezaCredito:       "01",
		types.ColCFOP:                  "1102",
		types.ColCSTICMS:               "000",
		types.ColBaseICMS:              "1000,00",
		types.ColAliquotaICMS:          "18,00",
		types.ColVlrICMS:               "180,00",
		types.ColCSTIPI:                "49",
		types.ColPISCofins:             "15,75",
		types.ColCSTPIS:                "50",
		types.ColBasePIS:               "1000,00",
		types.ColAliquotaPIS:           "1,65",
		types.ColVlrPIS:                "10,50",
		types.ColCSTCofins:             "50",
		types.ColBaseCofins:            "1000,00",
		types.ColAliquotaCofins:        "7,60",
		types.ColVlrCofins:             "5,25",
		types.ColContaContabil:         "1.1.3",
	} {
		want.Set(col, v)
	}

	if diff := cmp.Diff(want.Map(), result.Rows[0].Map()); diff != "" {
		t.Errorf("row mismatch (-want +got):\n%s", diff)
	}
}

func TestTransportAcquisitionCarriesICMS(t *testing.T) {
	result := resolve(t, d100, d101, d105)
	require.Len(t, result.Rows, 1)
	assert.Empty(t, result.Issues)

	row := result.Rows[0]
	assert.Equal(t, "D100/D105 - Aquisição de Serviços de Transporte", row.Get(types.ColRegistros))
	assert.Equal(t, "200,00", row.Get(types.ColBaseICMS))
	assert.Equal(t, "24,00", row.Get(types.ColVlrICMS))
	assert.Equal(t, "300,00", row.Get(types.ColVlrItem))
	assert.Equal(t, "50", row.Get(types.ColCSTPIS))
	assert.Equal(t, "1,95", row.Get(types.ColVlrPIS))
	assert.Equal(t, "9,00", row.Get(types.ColVlrCofins))
	assert.Equal(t, "10,95", row.Get(types.ColPISCofins))
	assert.Equal(t, "3.1.03", row.Get(types.ColContaContabil))
	assert.Equal(t, "555", row.Get(types.ColNumeroDocumento))
}

func TestDailySummaryCarriesCFOPAndPIS(t *testing.T) {
	result := resolve(t, d200, d201, d205)
	require.Len(t, result.Rows, 1)
	assert.Empty(t, result.Issues)

	row := result.Rows[0]
	assert.Equal(t, "1 - Saída", row.Get(types.ColTipoOperacao))
	assert.Empty(t, row.Get(types.ColNomeParticipante))
	assert.Equal(t, "5353", row.Get(types.ColCFOP))
	assert.Equal(t, "Faturamento", row.Get(types.ColCFOPFaturamento))
	assert.Equal(t, "01", row.Get(types.ColCSTPIS))
	assert.Equal(t, "500,00", row.Get(types.ColBasePIS))
	assert.Equal(t, "1,65", row.Get(types.ColAliquotaPIS))
	assert.Equal(t, "8,25", row.Get(types.ColVlrPIS))
	assert.Equal(t, "38,00", row.Get(types.ColVlrCofins))
	assert.Equal(t, "46,25", row.Get(types.ColPISCofins))
	assert.Equal(t, "10/01/2024", row.Get(types.ColDataDocumento))
}

func TestUtilityAndCommunicationBills(t *testing.T) {
	result := resolve(t, c500, c501, c505, c505, d500, d501, d505)
	require.Len(t, result.Rows, 3)
	assert.Empty(t, result.Issues)

	utility := result.Rows[0]
	assert.Equal(t, "0 - Entrada", utility.Get(types.ColTipoOperacao))
	assert.Equal(t, "2,48", utility.Get(types.ColVlrPIS))
	assert.Equal(t, "11,40", utility.Get(types.ColVlrCofins))
	assert.Equal(t, "13,88", utility.Get(types.ColPISCofins))
	assert.Equal(t, result.Rows[0], result.Rows[1], "two leaves under one mid")

	comm := result.Rows[2]
	assert.Equal(t, "D500/D505 - Nota Fiscal de Serviço de Comunicação", comm.Get(types.ColRegistros))
	assert.Equal(t, "7,40", comm.Get(types.ColPISCofins))
	assert.Equal(t, "80,00", comm.Get(types.ColVlrMercadoria))

	assert.Equal(t, map[string]int{"C500": 2, "D500": 1}, result.Stats.RowsByFamily)
}

func TestOtherOperationsStandAlone(t *testing.T) {
	result := resolve(t, f100)
	require.Len(t, result.Rows, 1)

	row := result.Rows[0]
	assert.Equal(t, "F100 - Demais Documentos e Operações", row.Get(types.ColRegistros))
	assert.Equal(t, "1 - Saída", row.Get(types.ColTipoOperacao))
	assert.Equal(t, "1000,00", row.Get(types.ColVlrDocumento))
	assert.Equal(t, "1000,00", row.Get(types.ColVlrItem))
	assert.Equal(t, "92,50", row.Get(types.ColPISCofins))
	assert.Equal(t, "13", row.Get(types.ColNaturezaCredito))
	assert.Equal(t, "20/01/2024", row.Get(types.ColDataDocumento))
}

func TestOrphanDescendants(t *testing.T) {
	tests := map[string][]string{
		"two-level leaf":          {a170},
		"three-level mid":         {c501},
		"three-level leaf":        {d505},
		"leaf with parent no mid": {c500, c505},
	}
	for name, lines := range tests {
		t.Run(name, func(t *testing.T) {
			result := resolve(t, lines...)
			assert.Empty(t, result.Rows)
			assert.Equal(t, []validation.Kind{validation.KindOrphanDescendant}, issueKinds(result))
			assert.True(t, result.NoData())
		})
	}
}

func TestRowCountMatchesOpenChains(t *testing.T) {
	// Leaves count only when their whole ancestor chain is open.
	result := resolve(t,
		a170,
		a100, a170, a170,
		c505,
		c500, c505,
		c501, c505,
		c100, c170,
		d205, d200, d201, d205,
		f100,
	)

	// Orphans: the first A170, both early C505s and the first D205.
	assert.Len(t, result.Rows, 6)
	assert.Equal(t, 4, countKind(result, validation.KindOrphanDescendant))
}

func TestNewParentResetsMid(t *testing.T) {
	result := resolve(t, c500, c501, c500, c505)
	assert.Empty(t, result.Rows)
	assert.Equal(t, []validation.Kind{validation.KindOrphanDescendant}, issueKinds(result))
}

func TestParticipantMissClearsParent(t *testing.T) {
	unknown := line("A100", 21, map[int]string{2: "0", 4: "999", 5: "00"})

	result := resolve(t, a100, a170, unknown, a170)

	require.Len(t, result.Rows, 1, "the leaf after the failed parent must not reuse the old one")
	assert.Equal(t, []validation.Kind{
		validation.KindLookupMiss,
		validation.KindOrphanDescendant,
	}, issueKinds(result))
	assert.Contains(t, result.Issues[0].Message, `"999"`)
}

func TestEmptyParticipantCodeIsAlwaysAMiss(t *testing.T) {
	blank := line("C100", 18, map[int]string{2: "1", 6: "02", 8: "9002"})

	tests := map[string][]string{
		"clean tables":            {blank, c170},
		"after a broken 0150":     {"|0150|broken|", blank, c170},
		"after a broken 0200 too": {"|0150|broken|", "|0200|broken|", blank, c170},
	}
	for name, lines := range tests {
		t.Run(name, func(t *testing.T) {
			result := resolve(t, lines...)
			assert.Empty(t, result.Rows)
			assert.Equal(t, 1, countKind(result, validation.KindLookupMiss))
			assert.Equal(t, 1, countKind(result, validation.KindOrphanDescendant))
		})
	}
}

func TestShortParentLeavesNoSnapshot(t *testing.T) {
	tests := []struct {
		name   string
		parent string
		leaf   string
	}{
		{"A100", "|A100|0|", a170},
		{"C100", "|C100|0|", c170},
		{"C500", "|C500|002|", c505},
		{"D100", "|D100|0|", d105},
		{"D200", "|D200|07|", d205},
		{"D500", "|D500|0|", d505},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := resolve(t, tt.parent, tt.leaf)
			assert.Empty(t, result.Rows)
			assert.Equal(t, []validation.Kind{
				validation.KindMalformedLine,
				validation.KindOrphanDescendant,
			}, issueKinds(result))
		})
	}
}

func TestShortParentDropsPreviousParent(t *testing.T) {
	result := resolve(t, a100, a170, "|A100|0|", a170)

	require.Len(t, result.Rows, 1)
	assert.Equal(t, []validation.Kind{
		validation.KindMalformedLine,
		validation.KindOrphanDescendant,
	}, issueKinds(result))
}

func TestSiblingParentReplacesPrevious(t *testing.T) {
	second := line("A100", 21, map[int]string{2: "1", 4: "002", 5: "00", 8: "456", 10: "20012024", 12: "50,00"})

	result := resolve(t, a100, a170, second, a170)

	require.Len(t, result.Rows, 2)
	assert.Empty(t, result.Issues)
	assert.Equal(t, "123", result.Rows[0].Get(types.ColNumeroDocumento))
	assert.Equal(t, "456", result.Rows[1].Get(types.ColNumeroDocumento))
	assert.Equal(t, "1 - Saída", result.Rows[1].Get(types.ColTipoOperacao))
	assert.Equal(t, "20/01/2024", result.Rows[1].Get(types.ColDataDocumento))
}

func TestShortStandAloneEmitsNothing(t *testing.T) {
	result := resolve(t, "|F100|0|", f100)

	require.Len(t, result.Rows, 1)
	assert.Equal(t, "1000,00", result.Rows[0].Get(types.ColVlrDocumento))
	assert.Equal(t, []validation.Kind{validation.KindMalformedLine}, issueKinds(result))
	assert.Equal(t, 4, result.Issues[0].Line)
}

func TestIssuesInLineOrder(t *testing.T) {
	result := resolve(t, a170, "|0150|late|", a170)

	var lines []int
	for _, issue := range result.Issues {
		lines = append(lines, issue.Line)
	}
	assert.Equal(t, []int{4, 5, 6}, lines)
	assert.Equal(t, []validation.Kind{
		validation.KindOrphanDescendant,
		validation.KindMalformedLine,
		validation.KindOrphanDescendant,
	}, issueKinds(result))
}

func TestMalformedLeafKeepsParentColumns(t *testing.T) {
	result := resolve(t, c100, "|C170|1|010|")

	require.Len(t, result.Rows, 1)
	row := result.Rows[0]
	assert.Equal(t, "ACME", row.Get(types.ColNomeParticipante))
	assert.Equal(t, "9001", row.Get(types.ColNumeroDocumento))
	assert.Empty(t, row.Get(types.ColNumeroItem))
	assert.Empty(t, row.Get(types.ColCodigoItem))
	assert.Empty(t, row.Get(types.ColPISCofins))
	assert.Equal(t, []validation.Kind{validation.KindMalformedLine}, issueKinds(result))
}

func TestProductMissKeepsParentColumns(t *testing.T) {
	missing := strings.Replace(a170, "|010|", "|404|", 1)

	result := resolve(t, a100, missing)

	require.Len(t, result.Rows, 1)
	assert.Equal(t, "ACME", result.Rows[0].Get(types.ColNomeParticipante))
	assert.Empty(t, result.Rows[0].Get(types.ColCodigoItem))
	assert.Equal(t, []validation.Kind{validation.KindLookupMiss}, issueKinds(result))
}

func TestMalformedMidUsesParentSnapshot(t *testing.T) {
	result := resolve(t, d100, "|D101|0|", d105)

	require.Len(t, result.Rows, 1)
	row := result.Rows[0]
	assert.Equal(t, "555", row.Get(types.ColNumeroDocumento))
	assert.Empty(t, row.Get(types.ColVlrItem))
	assert.Empty(t, row.Get(types.ColVlrPIS))
	assert.Equal(t, "24,00", row.Get(types.ColVlrICMS), "parent carry survives")
	assert.Equal(t, "9,00", row.Get(types.ColVlrCofins))
	assert.Empty(t, row.Get(types.ColPISCofins), "no PIS value to add")
	assert.Equal(t, []validation.Kind{
		validation.KindMalformedLine,
		validation.KindInvalidValue,
	}, issueKinds(result))
}

func TestMalformedThreeLevelLeafKeepsCarry(t *testing.T) {
	result := resolve(t, d200, d201, "|D205|01|")

	require.Len(t, result.Rows, 1)
	row := result.Rows[0]
	assert.Equal(t, "5353", row.Get(types.ColCFOP))
	assert.Equal(t, "8,25", row.Get(types.ColVlrPIS))
	assert.Empty(t, row.Get(types.ColVlrCofins))
	assert.Empty(t, row.Get(types.ColPISCofins))
	assert.Equal(t, []validation.Kind{validation.KindMalformedLine}, issueKinds(result))
}

func TestNonNumericPISLeavesCombinedBlank(t *testing.T) {
	bad := strings.Replace(a170, "|1,65|50|", "|N/A|50|", 1)

	result := resolve(t, a100, bad)

	require.Len(t, result.Rows, 1)
	assert.Equal(t, "N/A", result.Rows[0].Get(types.ColVlrPIS))
	assert.Empty(t, result.Rows[0].Get(types.ColPISCofins))
	assert.Equal(t, []validation.Kind{validation.KindInvalidValue}, issueKinds(result))
}

func TestColumnSetInvariant(t *testing.T) {
	result := resolve(t, a100, a170, c100, c170, c500, c501, c505, d100, d101, d105, d200, d201, d205, d500, d501, d505, f100)
	require.Len(t, result.Rows, 7)

	for _, row := range result.Rows {
		m := row.Map()
		assert.Len(t, m, types.ColumnCount)
		for _, name := range types.Columns() {
			_, ok := m[name]
			assert.True(t, ok, name)
		}
	}
}

func TestResolveIsIdempotent(t *testing.T) {
	lines := []string{header, participant, product, a100, a170, c100, c170, d200, d201, d205}
	r := New(zap.NewNop())

	first := r.Resolve(lines)
	second := r.Resolve(lines)

	if diff := cmp.Diff(first.Rows, second.Rows); diff != "" {
		t.Errorf("second run differs (-first +second):\n%s", diff)
	}
}

func TestResolveConcurrently(t *testing.T) {
	defer goleak.VerifyNone(t)

	lines := []string{header, participant, product, d100, d101, d105, c500, c501, c505}
	r := New(zap.NewNop())
	want := r.Resolve(lines).Rows

	var wg sync.WaitGroup
	results := make([][]types.Row, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = r.Resolve(lines).Rows
		}(i)
	}
	wg.Wait()

	for _, got := range results {
		assert.True(t, cmp.Equal(want, got))
	}
}

func TestSkippedAndReferenceLines(t *testing.T) {
	result := resolve(t, "|C190|000|", "|9900|0000|1|", "", "|9999|")

	assert.True(t, result.NoData())
	assert.Equal(t, 4, result.Stats.Skipped)
	assert.Equal(t, 1, result.Stats.Participants)
	assert.Equal(t, 1, result.Stats.Products)
	assert.Equal(t, "11222333000144", result.Header.CompanyTaxID)
}

func TestIssuesAreLogged(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	r := New(zap.New(core))

	result := r.Resolve([]string{"|0150|short|", a170})

	assert.Equal(t, 2, len(result.Issues))
	entries := logs.FilterMessage("line absorbed").All()
	require.Len(t, entries, 2)
	assert.Equal(t, string(validation.KindMalformedLine), entries[0].ContextMap()["kind"])
	assert.Equal(t, string(validation.KindOrphanDescendant), entries[1].ContextMap()["kind"])
}

func TestTags(t *testing.T) {
	tags := Tags()
	assert.Equal(t, []string{"A100", "A170"}, tags["A100"])
	assert.Equal(t, []string{"D200", "D201", "D205"}, tags["D200"])
	assert.Equal(t, []string{"F100"}, tags["F100"])
}

func countKind(result *Result, kind validation.Kind) int {
	n := 0
	for _, issue := range result.Issues {
		if issue.Kind == kind {
			n++
		}
	}
	return n
}
