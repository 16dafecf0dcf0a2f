// =============================================================================
// EFD Converter - CSV Writer Module
// =============================================================================
//
// This module writes resolved rows as delimited text. The default layout is
// the one Brazilian spreadsheet tools expect: ';' separators, a header line
// with the column names and decimal commas left as they are.
//
// CUSTOMIZATION:
//   - Set Encoding to "ISO-8859-1" or "Windows-1252" for legacy consumers
//   - Set Delimiter to ',' or '\t' for other tools
//
// =============================================================================

package csvwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/transform"

	"github.com/ginjaninja78/EFD-to-XLSX-conversion/internal/efdparser"
	"github.com/ginjaninja78/EFD-to-XLSX-conversion/internal/types"
)

// Options controls the CSV layout.
type Options struct {
	// Delimiter separates fields. Zero means ';'.
	Delimiter rune

	// Encoding is the output character encoding. Empty means UTF-8.
	Encoding string

	// OmitHeader skips the column-name line.
	OmitHeader bool
}

// Write encodes rows to w.
//
// RETURNS:
//   - An error for an unsupported encoding or a failed write.
func Write(rows []types.Row, w io.Writer, opts Options) error {
	if opts.Delimiter == 0 {
		opts.Delimiter = ';'
	}

	out := w
	var encoder io.WriteCloser
	if name := strings.TrimSpace(opts.Encoding); name != "" {
		enc, err := efdparser.Lookup(name)
		if err != nil {
			return err
		}
		// Runes the charmap cannot hold become its replacement byte.
		encoder = transform.NewWriter(w, encoding.ReplaceUnsupported(enc.NewEncoder()))
		out = encoder
	}

	writer := csv.NewWriter(out)
	writer.Comma = opts.Delimiter

	if !opts.OmitHeader {
		if err := writer.Write(types.Columns()); err != nil {
			return fmt.Errorf("failed to write header: %w", err)
		}
	}

	for i, row := range rows {
		if err := writer.Write(row[:]); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+1, err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("failed to flush csv: %w", err)
	}
	if encoder != nil {
		if err := encoder.Close(); err != nil {
			return fmt.Errorf("failed to encode csv: %w", err)
		}
	}
	return nil
}

// WriteFile writes rows to a new file at path.
func WriteFile(rows []types.Row, path string, opts Options) (err error) {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer func() {
		if cerr := file.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("failed to close %s: %w", path, cerr)
		}
	}()

	return Write(rows, file, opts)
}
