// =============================================================================
// EFD Converter - XML Writer Module
// =============================================================================
//
// This module renders resolved rows as a flat XML document, one element per
// row and one child per output column:
//
//   <efd>                                   <!-- Root element -->
//     <linha n="1">                         <!-- Row element with index -->
//       <CNPJ>11222333000181</CNPJ>
//       <Periodo>01/01/2024</Periodo>       <!-- Column names folded to ASCII -->
//       <Registros>A170</Registros>
//       <Vlr_Mercadoria_Operacao/>          <!-- Empty cells self-close -->
//       ...
//     </linha>
//   </efd>
//
// Every row carries every column, so the document always validates against
// GenerateXSD.
//
// CUSTOMIZATION:
//   - Change element names via Options
//   - Add XML namespaces through RootAttributes
//
// =============================================================================

package xmlwriter

import (
	"bytes"
	"fmt"
	"os"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/ginjaninja78/EFD-to-XLSX-conversion/internal/types"
)

// =============================================================================
// XML GENERATION OPTIONS
// =============================================================================

// Options contains options for XML generation.
type Options struct {
	// Indent is the string used for indentation.
	// Default: "  " (two spaces)
	Indent string

	// IncludeXMLDeclaration determines whether to include the XML declaration.
	IncludeXMLDeclaration bool

	// RootElement is the document element name.
	// Default: "efd"
	RootElement string

	// RowElement is the element name for each row.
	// Default: "linha"
	RowElement string

	// IndexAttribute is the attribute carrying the 1-based row number.
	// Default: "n"
	IndexAttribute string

	// RootAttributes are additional attributes for the root element.
	// Example: {"xmlns": "http://example.com/efd"}
	RootAttributes map[string]string
}

// DefaultOptions returns the default generation options.
func DefaultOptions() Options {
	return Options{
		Indent:                "  ",
		IncludeXMLDeclaration: true,
		RootElement:           "efd",
		RowElement:            "linha",
		IndexAttribute:        "n",
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.Indent == "" {
		o.Indent = d.Indent
	}
	if o.RootElement == "" {
		o.RootElement = d.RootElement
	}
	if o.RowElement == "" {
		o.RowElement = d.RowElement
	}
	if o.IndexAttribute == "" {
		o.IndexAttribute = d.IndexAttribute
	}
	return o
}

// =============================================================================
// XML GENERATION FUNCTIONS
// =============================================================================

// Generate creates an XML document from rows.
//
// PARAMETERS:
//   - rows: The resolved rows, in output order.
//   - options: Element names and formatting.
//
// RETURNS:
//   - The XML document as a byte slice.
func Generate(rows []types.Row, options Options) []byte {
	options = options.withDefaults()
	tags := ColumnTags()

	var buffer bytes.Buffer

	if options.IncludeXMLDeclaration {
		buffer.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	}

	// Root element, attributes in a stable order.
	buffer.WriteString("<" + options.RootElement)
	keys := make([]string, 0, len(options.RootAttributes))
	for key := range options.RootAttributes {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		fmt.Fprintf(&buffer, ` %s="%s"`, key, escapeXML(options.RootAttributes[key]))
	}
	if len(rows) == 0 {
		buffer.WriteString("/>\n")
		return buffer.Bytes()
	}
	buffer.WriteString(">\n")

	for i, row := range rows {
		writeRow(&buffer, row, i+1, tags, options)
	}

	buffer.WriteString("</" + options.RootElement + ">\n")
	return buffer.Bytes()
}

// WriteFile generates the document and writes it to path.
func WriteFile(rows []types.Row, path string, options Options) error {
	if err := os.WriteFile(path, Generate(rows, options), 0644); err != nil {
		return fmt.Errorf("failed to write XML file %s: %w", path, err)
	}
	return nil
}

// writeRow writes one row element with a child per column.
//
// STRUCTURE:
//   <linha n="1">
//     <CNPJ>...</CNPJ>
//     ...
//   </linha>
func writeRow(buffer *bytes.Buffer, row types.Row, index int, tags []string, options Options) {
	fmt.Fprintf(buffer, "%s<%s %s=\"%d\">\n", options.Indent, options.RowElement, options.IndexAttribute, index)

	childIndent := strings.Repeat(options.Indent, 2)
	for c, value := range row {
		buffer.WriteString(childIndent)
		if value == "" {
			buffer.WriteString("<" + tags[c] + "/>\n")
			continue
		}
		buffer.WriteString("<" + tags[c] + ">")
		buffer.WriteString(escapeXML(value))
		buffer.WriteString("</" + tags[c] + ">\n")
	}

	fmt.Fprintf(buffer, "%s</%s>\n", options.Indent, options.RowElement)
}

// =============================================================================
// TAG NAMES
// =============================================================================

// ColumnTags returns the XML element name of every column, in column order.
func ColumnTags() []string {
	names := types.Columns()
	tags := make([]string, len(names))
	for i, name := range names {
		tags[i] = TagName(name)
	}
	return tags
}

// TagName folds a column display name into a valid XML element name:
// accents are stripped and runs of other non-alphanumerics become '_'.
//
// EXAMPLE:
//   "Vlr Mercadoria/Operação" -> "Vlr_Mercadoria_Operacao"
func TagName(name string) string {
	folder := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(folder, name)
	if err != nil {
		folded = name
	}

	var b strings.Builder
	pending := false
	for _, r := range folded {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			if pending && b.Len() > 0 {
				b.WriteByte('_')
			}
			pending = false
			b.WriteRune(r)
			continue
		}
		pending = true
	}

	tag := b.String()
	if tag == "" || unicode.IsDigit(rune(tag[0])) {
		tag = "_" + tag
	}
	return tag
}

// escapeXML escapes special characters for XML.
func escapeXML(s string) string {
	var buffer bytes.Buffer

	for _, r := range s {
		switch r {
		case '&':
			buffer.WriteString("&amp;")
		case '<':
			buffer.WriteString("&lt;")
		case '>':
			buffer.WriteString("&gt;")
		case '"':
			buffer.WriteString("&quot;")
		case '\'':
			buffer.WriteString("&apos;")
		default:
			buffer.WriteRune(r)
		}
	}

	return buffer.String()
}

// =============================================================================
// XSD GENERATION
// =============================================================================

// GenerateXSD creates an XSD schema describing the documents Generate
// produces for the same options. Every column is a required xs:string;
// values keep their Brazilian formatting (dd/mm/yyyy, decimal comma).
func GenerateXSD(options Options) []byte {
	options = options.withDefaults()

	var buffer bytes.Buffer

	buffer.WriteString(`<?xml version="1.0" encoding="UTF-8"?>
<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema">
`)

	fmt.Fprintf(&buffer, `  <xs:element name="%s">
    <xs:complexType>
      <xs:sequence>
        <xs:element ref="%s" minOccurs="0" maxOccurs="unbounded"/>
      </xs:sequence>
    </xs:complexType>
  </xs:element>

`, options.RootElement, options.RowElement)

	fmt.Fprintf(&buffer, `  <xs:element name="%s">
    <xs:complexType>
      <xs:sequence>
`, options.RowElement)

	for _, tag := range ColumnTags() {
		fmt.Fprintf(&buffer, "        <xs:element name=\"%s\" type=\"xs:string\"/>\n", tag)
	}

	fmt.Fprintf(&buffer, `      </xs:sequence>
      <xs:attribute name="%s" type="xs:positiveInteger" use="required"/>
    </xs:complexType>
  </xs:element>

</xs:schema>
`, options.IndexAttribute)

	return buffer.Bytes()
}
