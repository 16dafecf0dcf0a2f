// =============================================================================
// EFD Converter - Reference Tables
// =============================================================================
//
// This module performs the first pass over an EFD file. It collects:
//   - The header context from |0000| (company CNPJ and period)
//   - The participant table from |0150|
//   - The product/service table from |0200|
//
// The result is built completely before resolution starts and is never
// modified afterwards.
//
// =============================================================================

package reference

import (
	"strings"

	"github.com/ginjaninja78/EFD-to-XLSX-conversion/internal/efdparser"
	"github.com/ginjaninja78/EFD-to-XLSX-conversion/internal/format"
	"github.com/ginjaninja78/EFD-to-XLSX-conversion/internal/types"
	"github.com/ginjaninja78/EFD-to-XLSX-conversion/internal/validation"
)

// Record tags read by Build.
const (
	TagHeader      = "0000"
	TagParticipant = "0150"
	TagProduct     = "0200"
)

// Highest field index each record needs.
const (
	headerFields      = 9
	participantFields = 8
	productFields     = 12
)

// Context is the read-only data shared by every row of one file.
type Context struct {
	// Header is the last well-formed |0000| seen. Zero if none.
	Header types.HeaderContext

	// HasHeader reports whether a header was found.
	HasHeader bool

	// Participants and Products are in file order, placeholders included.
	// Placeholders are never returned by a lookup.
	Participants []types.Participant
	Products     []types.Product

	participantIndex map[string]int
	productIndex     map[string]int
}

// Build scans lines once and returns the reference context. Malformed
// reference lines are added to report; they never stop the scan.
func Build(lines []string, report *validation.Report) *Context {
	ctx := &Context{
		participantIndex: make(map[string]int),
		productIndex:     make(map[string]int),
	}

	for i, line := range lines {
		switch efdparser.Tag(line) {
		case TagHeader:
			rec := efdparser.NewRecord(i+1, line)
			if err := rec.Require(headerFields); err != nil {
				report.Add(malformed(rec, err))
				continue
			}
			ctx.Header = parseHeader(rec)
			ctx.HasHeader = true

		case TagParticipant:
			rec := efdparser.NewRecord(i+1, line)
			if err := rec.Require(participantFields); err != nil {
				report.Add(malformed(rec, err))
				ctx.Participants = append(ctx.Participants, types.Participant{})
				continue
			}
			ctx.addParticipant(parseParticipant(rec))

		case TagProduct:
			rec := efdparser.NewRecord(i+1, line)
			if err := rec.Require(productFields); err != nil {
				report.Add(malformed(rec, err))
				ctx.Products = append(ctx.Products, types.Product{})
				continue
			}
			ctx.addProduct(parseProduct(rec))
		}
	}

	return ctx
}

// Participant returns the first participant registered under code.
func (c *Context) Participant(code string) (types.Participant, bool) {
	i, ok := c.participantIndex[code]
	if !ok {
		return types.Participant{}, false
	}
	return c.Participants[i], true
}

// Product returns the first product registered under code.
func (c *Context) Product(code string) (types.Product, bool) {
	i, ok := c.productIndex[code]
	if !ok {
		return types.Product{}, false
	}
	return c.Products[i], true
}

func (c *Context) addParticipant(p types.Participant) {
	c.Participants = append(c.Participants, p)
	if _, exists := c.participantIndex[p.Code]; !exists {
		c.participantIndex[p.Code] = len(c.Participants) - 1
	}
}

func (c *Context) addProduct(p types.Product) {
	c.Products = append(c.Products, p)
	if _, exists := c.productIndex[p.Code]; !exists {
		c.productIndex[p.Code] = len(c.Products) - 1
	}
}

// =============================================================================
// RECORD PARSERS
// =============================================================================

// |0000|COD_VER|COD_FIN|IND_SIT_ESP|NUM_REC_ANT|DT_INI|DT_FIN|NOME|CNPJ|...
func parseHeader(rec efdparser.Record) types.HeaderContext {
	return types.HeaderContext{
		CompanyTaxID: strings.TrimSpace(rec.Field(9)),
		PeriodLabel:  format.Date(rec.Field(6)),
		PeriodYear:   format.Year(rec.Field(6)),
	}
}

// |0150|COD_PART|NOME|COD_PAIS|CNPJ|CPF|IE|COD_MUN|...
func parseParticipant(rec efdparser.Record) types.Participant {
	return types.Participant{
		Code:             rec.Field(2),
		Name:             rec.Text(3),
		CNPJ:             rec.Field(5),
		CPF:              rec.Field(6),
		MunicipalityCode: rec.Field(8),
	}
}

// |0200|COD_ITEM|DESCR_ITEM|COD_BARRA|COD_ANT_ITEM|UNID_INV|TIPO_ITEM|COD_NCM|EX_IPI|COD_GEN|COD_LST|ALIQ_ICMS|
func parseProduct(rec efdparser.Record) types.Product {
	return types.Product{
		Code:        rec.Field(2),
		Description: rec.Text(3),
		Barcode:     rec.Field(4),
		Unit:        rec.Field(6),
		Kind:        rec.Field(7),
		NCM:         rec.Field(8),
		ServiceCode: rec.Field(11),
		ICMSRate:    rec.Field(12),
	}
}

func malformed(rec efdparser.Record, err error) *validation.Issue {
	return &validation.Issue{
		Severity: validation.SeverityWarning,
		Kind:     validation.KindMalformedLine,
		Tag:      rec.Tag,
		Line:     rec.Line,
		Raw:      rec.Raw,
		Message:  err.Error(),
	}
}
