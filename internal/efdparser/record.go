package efdparser

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMalformedLine is returned when a record has fewer fields than a
// handler needs.
var ErrMalformedLine = errors.New("malformed line")

// Tag returns the record type of an EFD line: the text between the first
// and second "|". Lines that do not start with "|" have no tag.
func Tag(line string) string {
	if !strings.HasPrefix(line, "|") {
		return ""
	}
	rest := line[1:]
	end := strings.IndexByte(rest, '|')
	if end < 0 {
		return ""
	}
	return rest[:end]
}

// Record is one classified EFD line.
//
// Fields is strings.Split(raw, "|"), so Fields[0] is the empty segment
// before the leading delimiter and Fields[1] is the tag. Positions used by
// the handlers follow this numbering.
type Record struct {
	Tag    string
	Fields []string
	Line   int
	Raw    string
}

// NewRecord splits raw. line is the 1-based position in the file.
func NewRecord(line int, raw string) Record {
	return Record{
		Tag:    Tag(raw),
		Fields: strings.Split(raw, "|"),
		Line:   line,
		Raw:    raw,
	}
}

// Require checks that index maxIndex exists.
func (r Record) Require(maxIndex int) error {
	if len(r.Fields) <= maxIndex {
		return fmt.Errorf("%w: %s at line %d has %d fields, need %d",
			ErrMalformedLine, r.Tag, r.Line, len(r.Fields), maxIndex+1)
	}
	return nil
}

// Field returns Fields[i], or "" past the end.
func (r Record) Field(i int) string {
	if i < 0 || i >= len(r.Fields) {
		return ""
	}
	return r.Fields[i]
}

// Text returns Fields[i] with ";" removed, for free-text columns that would
// otherwise break semicolon-separated exports.
func (r Record) Text(i int) string {
	return strings.ReplaceAll(r.Field(i), ";", "")
}
