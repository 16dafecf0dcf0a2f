package xlsxwriter

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/EFD-to-XLSX-conversion/internal/types"
)

func sampleRows() []types.Row {
	var a, b types.Row
	a.Set(types.ColCNPJ, "11222333000181")
	a.Set(types.ColRegistros, "A170")
	a.Set(types.ColVlrPIS, "1,65")
	b.Set(types.ColCNPJ, "11222333000181")
	b.Set(types.ColRegistros, "F100")
	b.Set(types.ColDebitoCredito, "D")
	return []types.Row{a, b}
}

func TestWriteReadBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.xlsx")
	require.NoError(t, Write(sampleRows(), path, Options{SheetName: "Janeiro"}))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Janeiro"}, f.GetSheetList())

	rows, err := f.GetRows("Janeiro")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, types.Columns(), rows[0])
	assert.Equal(t, "A170", rows[1][types.ColRegistros])
	assert.Equal(t, "1,65", rows[1][types.ColVlrPIS])
	assert.Equal(t, "D", rows[2][types.ColDebitoCredito])

	panes, err := f.GetPanes("Janeiro")
	require.NoError(t, err)
	assert.True(t, panes.Freeze)
	assert.Equal(t, 1, panes.YSplit)
}

func TestWriteToEmptyRows(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteTo(&buf, nil, Options{}))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(defaultSheetName)
	require.NoError(t, err)
	assert.Len(t, rows, 1, "header only")
}

func TestWriteRejectsBadSheetName(t *testing.T) {
	err := Write(sampleRows(), filepath.Join(t.TempDir(), "x.xlsx"), Options{SheetName: "a/b"})
	assert.Error(t, err)
}
