// =============================================================================
// EFD Converter - XLSX Writer Module
// =============================================================================
//
// This module writes resolved rows to a single-sheet workbook:
//
//   | CNPJ | Período | ANO | Registros | ... | Débito/Crédito |   <- bold, frozen
//   | ...  | ...     | ... | A170      | ... |                |   <- one line per row
//
// Rows are streamed through excelize's StreamWriter, so memory stays flat
// for large EFD files.
//
// =============================================================================

package xlsxwriter

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/EFD-to-XLSX-conversion/internal/types"
)

// defaultSheetName names the worksheet when Options.SheetName is empty.
const defaultSheetName = "EFD"

// Options controls workbook layout.
type Options struct {
	// SheetName is the worksheet name (31 characters at most).
	SheetName string

	// ColumnWidth is applied to every column. Zero keeps the default width.
	ColumnWidth float64
}

// DefaultOptions returns the default workbook options.
func DefaultOptions() Options {
	return Options{
		SheetName:   defaultSheetName,
		ColumnWidth: 18,
	}
}

// Write saves rows as an XLSX workbook at path.
//
// PARAMETERS:
//   - rows: The rows to write, in order.
//   - path: The destination file; it is overwritten.
//   - opts: Sheet name and column width.
//
// RETURNS:
//   - An error if the workbook cannot be built or saved.
func Write(rows []types.Row, path string, opts Options) error {
	f, err := build(rows, opts)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook %s: %w", path, err)
	}
	return nil
}

// WriteTo streams the workbook to w.
func WriteTo(w io.Writer, rows []types.Row, opts Options) error {
	f, err := build(rows, opts)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// build assembles the workbook in memory.
func build(rows []types.Row, opts Options) (*excelize.File, error) {
	if opts.SheetName == "" {
		opts.SheetName = defaultSheetName
	}

	f := excelize.NewFile()
	fail := func(err error) (*excelize.File, error) {
		f.Close()
		return nil, err
	}

	if err := f.SetSheetName(f.GetSheetName(0), opts.SheetName); err != nil {
		return fail(fmt.Errorf("invalid sheet name %q: %w", opts.SheetName, err))
	}

	sw, err := f.NewStreamWriter(opts.SheetName)
	if err != nil {
		return fail(fmt.Errorf("failed to create stream writer: %w", err))
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"D9E1F2"}},
	})
	if err != nil {
		return fail(fmt.Errorf("failed to create header style: %w", err))
	}

	// Column widths and panes must be set before the first row.
	if opts.ColumnWidth > 0 {
		if err := sw.SetColWidth(1, types.ColumnCount, opts.ColumnWidth); err != nil {
			return fail(fmt.Errorf("failed to set column width: %w", err))
		}
	}
	if err := sw.SetPanes(&excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fail(fmt.Errorf("failed to freeze header: %w", err))
	}

	header := make([]interface{}, types.ColumnCount)
	for i, name := range types.Columns() {
		header[i] = excelize.Cell{StyleID: headerStyle, Value: name}
	}
	if err := sw.SetRow("A1", header); err != nil {
		return fail(fmt.Errorf("failed to write header: %w", err))
	}

	values := make([]interface{}, types.ColumnCount)
	for i, row := range rows {
		for c := range row {
			values[c] = row[c]
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fail(err)
		}
		if err := sw.SetRow(cell, values); err != nil {
			return fail(fmt.Errorf("failed to write row %d: %w", i+1, err))
		}
	}

	if err := sw.Flush(); err != nil {
		return fail(fmt.Errorf("failed to flush sheet: %w", err))
	}

	return f, nil
}
