package validation

import (
	"strings"
	"testing"

	"github.com/ginjaninja78/EFD-to-XLSX-conversion/internal/format"
	"github.com/ginjaninja78/EFD-to-XLSX-conversion/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validRow() types.Row {
	var r types.Row
	r.Set(types.ColRegistros, "C100/C170 - Documento - Nota Fiscal")
	r.Set(types.ColPeriodo, "01/01/2024")
	r.Set(types.ColDataDocumento, "15/01/2024")
	r.Set(types.ColVlrDocumento, "1000,00")
	r.Set(types.ColPISCofins, "15,75")
	return r
}

func TestValidateRowsAcceptsWellFormedRows(t *testing.T) {
	result := ValidateRows([]types.Row{validRow(), validRow()})

	assert.True(t, result.IsValid)
	assert.Empty(t, result.Issues)
	assert.Equal(t, 2, result.RowsValidated)
}

func TestValidateRowsFlagsBadCells(t *testing.T) {
	bad := validRow()
	bad.Set(types.ColDataDocumento, "32/13/2024")
	bad.Set(types.ColVlrPIS, "1.234,56")

	result := ValidateRows([]types.Row{validRow(), bad})

	assert.True(t, result.IsValid, "format findings are warnings")
	require.Len(t, result.Issues, 2)
	assert.Equal(t, 2, result.WarningCount)
	assert.Equal(t, "Data Documento", result.Issues[0].Column)
	assert.Equal(t, "Vlr PIS", result.Issues[1].Column)
	assert.Contains(t, result.Issues[1].Message, "row 2")
}

func TestValidateRowsMissingFamilyIsAnError(t *testing.T) {
	result := ValidateRows([]types.Row{{}})

	assert.False(t, result.IsValid)
	assert.Equal(t, 1, result.ErrorCount)
}

func TestMaxIssues(t *testing.T) {
	v := NewValidatorWithOptions(ValidationOptions{
		MaxIssues:      1,
		DecimalColumns: []types.Column{types.ColVlrPIS, types.ColVlrCofins},
	})
	row := validRow()
	row.Set(types.ColVlrPIS, "x")
	row.Set(types.ColVlrCofins, "y")

	result := v.ValidateAll([]types.Row{row})
	assert.Len(t, result.Issues, 1)
}

func TestValidateDecimal(t *testing.T) {
	for _, ok := range []string{"", "0", "10,50", "-3,2", "100", "1.5"} {
		assert.Empty(t, validateDecimal(ok), ok)
	}
	for _, bad := range []string{"-", ",", "1,2,3", "abc", "1 000", "١٢", "１２,５"} {
		assert.NotEmpty(t, validateDecimal(bad), bad)
	}
}

func TestValidateDecimalAgreesWithSum(t *testing.T) {
	for _, value := range []string{"10,50", "1.5", "-3,2", "abc", "١٢", "1,2,3"} {
		_, err := format.SumDecimal(value, "0")
		assert.Equal(t, err == nil, validateDecimal(value) == "", value)
	}
}

func TestIssueError(t *testing.T) {
	issue := &Issue{
		Severity: SeverityWarning,
		Kind:     KindLookupMiss,
		Tag:      "A100",
		Line:     12,
		Value:    "999",
		Message:  "participant not found",
	}
	assert.Equal(t, "[WARNING] lookup_miss A100 line 12: participant not found (value: '999')", issue.Error())

	out := FormatIssues([]*Issue{issue})
	assert.True(t, strings.HasPrefix(out, "Completed with 1 issue(s)"))
	assert.Equal(t, "No issues.", FormatIssues(nil))
}

func TestReportCount(t *testing.T) {
	var r Report
	r.Add(&Issue{Kind: KindLookupMiss})
	r.Add(&Issue{Kind: KindOrphanDescendant})
	r.Add(&Issue{Kind: KindLookupMiss})

	assert.Equal(t, 3, r.Len())
	assert.Equal(t, 2, r.Count(KindLookupMiss))
	assert.Equal(t, 0, r.Count(KindMalformedLine))
}
