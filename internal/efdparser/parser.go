// =============================================================================
// EFD Converter - EFD File Reader
// =============================================================================
//
// This module reads SPED EFD text files and hands the decoded lines to the
// resolver. It handles:
//   - Byte decoding (EFD files are ISO-8859-1 by default)
//   - Windows and Unix line endings
//   - Lines of any length (no scanner token limit)
//
// The resolver never decodes bytes itself; everything it sees comes from here.
//
// =============================================================================

package efdparser

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ginjaninja78/EFD-to-XLSX-conversion/internal/config"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// ErrUnsupportedEncoding is returned for encodings the reader does not know.
var ErrUnsupportedEncoding = errors.New("unsupported encoding")

// =============================================================================
// EFD DATA STRUCTURE
// =============================================================================

// EFDData represents a decoded EFD file.
type EFDData struct {
	// Lines contains every line of the file, in order, without line endings.
	Lines []string

	// SourceFile is the path to the source file (empty for readers).
	SourceFile string

	// LineCount is len(Lines).
	LineCount int

	// TagCounts counts lines per record tag. Lines without a tag are
	// counted under "".
	TagCounts map[string]int
}

// =============================================================================
// PARSER FUNCTIONS
// =============================================================================

// Parse reads an EFD file and returns its decoded lines.
//
// PARAMETERS:
//   - filePath: The path to the EFD .txt file.
//   - settings: The input settings from the main configuration.
//
// RETURNS:
//   - A pointer to the EFDData struct.
//   - An error if the file cannot be opened or decoded.
func Parse(filePath string, settings config.InputSettings) (*EFDData, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	data, err := ParseReader(file, settings.Encoding)
	if err != nil {
		return nil, err
	}
	data.SourceFile = filePath
	return data, nil
}

// ParseReader decodes r with the named encoding and splits it into lines.
func ParseReader(r io.Reader, encodingName string) (*EFDData, error) {
	enc, err := Lookup(encodingName)
	if err != nil {
		return nil, err
	}

	reader := bufio.NewReader(transform.NewReader(r, enc.NewDecoder()))

	data := &EFDData{TagCounts: make(map[string]int)}
	for {
		line, err := reader.ReadString('\n')
		if len(line) > 0 {
			line = strings.TrimRight(line, "\r\n")
			data.Lines = append(data.Lines, line)
			data.TagCounts[Tag(line)]++
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read line %d: %w", len(data.Lines)+1, err)
		}
	}

	data.LineCount = len(data.Lines)
	return data, nil
}

// Lookup returns the text encoding for a configured name. An empty name
// means ISO-8859-1, the encoding the EFD layout mandates.
//
// CUSTOMIZATION: Add further charmaps here if other sources appear.
func Lookup(name string) (encoding.Encoding, error) {
	switch strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(name), "_", "-")) {
	case "", "ISO-8859-1", "ISO8859-1", "LATIN1", "LATIN-1":
		return charmap.ISO8859_1, nil
	case "WINDOWS-1252", "CP1252":
		return charmap.Windows1252, nil
	case "UTF-8", "UTF8":
		return unicode.UTF8, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedEncoding, name)
	}
}
