package resolver

import (
	"fmt"

	"github.com/ginjaninja78/EFD-to-XLSX-conversion/internal/efdparser"
	"github.com/ginjaninja78/EFD-to-XLSX-conversion/internal/enum"
	"github.com/ginjaninja78/EFD-to-XLSX-conversion/internal/format"
	"github.com/ginjaninja78/EFD-to-XLSX-conversion/internal/types"
)

// Field positions below index strings.Split(line, "|"): position 1 is the
// record tag, position 2 the first field of the layout.

// =============================================================================
// SHARED HELPERS
// =============================================================================

// newRow starts a row with the header columns filled in.
func (r *run) newRow() types.Row {
	return types.WithHeader(r.ref.Header)
}

// setParticipant copies the participant registered under code into row.
func (r *run) setParticipant(row *types.Row, code string) error {
	p, ok := r.ref.Participant(code)
	if !ok {
		return fmt.Errorf("%w: participant %q is not in 0150", ErrLookupMiss, code)
	}
	row.Set(types.ColCodigoParticipante, code)
	row.Set(types.ColCNPJParticipante, p.CNPJ)
	row.Set(types.ColCPFParticipante, p.CPF)
	row.Set(types.ColNomeParticipante, p.Name)
	row.Set(types.ColUFOrigemDestino, enum.StatePair(p.MunicipalityCode))
	return nil
}

// setProduct copies the product registered under code into row.
func (r *run) setProduct(row *types.Row, code string) error {
	p, ok := r.ref.Product(code)
	if !ok {
		return fmt.Errorf("%w: product %q is not in 0200", ErrLookupMiss, code)
	}
	row.Set(types.ColCodigoItem, code)
	row.Set(types.ColDescricaoItem, p.Description)
	row.Set(types.ColNCM, p.NCM)
	row.Set(types.ColCodigoServico, p.ServiceCode)
	row.Set(types.ColCodigoBarra, p.Barcode)
	row.Set(types.ColTipoItem, p.Kind)
	row.Set(types.ColUnidadeMedida, p.Unit)
	return nil
}

// set copies record fields into columns.
func set(row *types.Row, rec efdparser.Record, fields map[types.Column]int) {
	for col, i := range fields {
		row.Set(col, rec.Field(i))
	}
}

// =============================================================================
// A100 / A170 - services
// =============================================================================

func buildA100(r *run, rec efdparser.Record) (types.Row, overlay, error) {
	if err := rec.Require(21); err != nil {
		return types.Row{}, nil, err
	}
	row := r.newRow()
	if err := r.setParticipant(&row, rec.Field(4)); err != nil {
		return types.Row{}, nil, err
	}
	row.Set(types.ColTipoOperacao, enum.Resolve(enum.OperationType, rec.Field(2)))
	row.Set(types.ColSituacao, enum.Resolve(enum.DocumentStatus, rec.Field(5)))
	row.Set(types.ColDataDocumento, format.Date(rec.Field(10)))
	row.Set(types.ColDataEntradaSaida, format.Date(rec.Field(11)))
	set(&row, rec, map[types.Column]int{
		types.ColSerie:           6,
		types.ColNumeroDocumento: 8,
		types.ColChaveNFe:        9,
		types.ColVlrDocumento:    12,
		types.ColVlrDescontoNF:   14,
		types.ColVlrISSQN:        21,
	})
	return row, nil, nil
}

func buildA170(r *run, rec efdparser.Record, row *types.Row) error {
	if err := rec.Require(17); err != nil {
		return err
	}
	if err := r.setProduct(row, rec.Field(3)); err != nil {
		return err
	}
	row.Set(types.ColDescricaoComplementar, rec.Text(4))
	set(row, rec, map[types.Column]int{
		types.ColNumeroItem:      2,
		types.ColVlrItem:         5,
		types.ColVlrDescontoItem: 6,
		types.ColNaturezaCredito: 7,
		types.ColCSTPIS:          9,
		types.ColBasePIS:         10,
		types.ColAliquotaPIS:     11,
		types.ColVlrPIS:          12,
		types.ColCSTCofins:       13,
		types.ColBaseCofins:      14,
		types.ColAliquotaCofins:  15,
		types.ColVlrCofins:       16,
		types.ColContaContabil:   17,
	})
	return nil
}

// =============================================================================
// C100 / C170 - goods invoices
// =============================================================================

func buildC100(r *run, rec efdparser.Record) (types.Row, overlay, error) {
	if err := rec.Require(18); err != nil {
		return types.Row{}, nil, err
	}
	row := r.newRow()
	if err := r.setParticipant(&row, rec.Field(4)); err != nil {
		return types.Row{}, nil, err
	}
	row.Set(types.ColTipoOperacao, enum.Resolve(enum.OperationType, rec.Field(2)))
	row.Set(types.ColSituacao, enum.Resolve(enum.DocumentStatus, rec.Field(6)))
	row.Set(types.ColDataDocumento, format.Date(rec.Field(10)))
	row.Set(types.ColDataEntradaSaida, format.Date(rec.Field(11)))
	set(&row, rec, map[types.Column]int{
		types.ColSerie:           7,
		types.ColNumeroDocumento: 8,
		types.ColChaveNFe:        9,
		types.ColVlrDocumento:    12,
		types.ColVlrDescontoNF:   14,
		types.ColVlrMercadoria:   16,
		types.ColVlrFrete:        18,
	})
	return row, nil, nil
}

func buildC170(r *run, rec efdparser.Record, row *types.Row) error {
	if err := rec.Require(37); err != nil {
		return err
	}
	if err := r.setProduct(row, rec.Field(3)); err != nil {
		return err
	}
	row.Set(types.ColDescricaoComplementar, rec.Text(4))
	set(row, rec, map[types.Column]int{
		types.ColNumeroItem:         2,
		types.ColQtde:               5,
		types.ColUnidadeMedida:      6,
		types.ColVlrItem:            7,
		types.ColVlrDescontoItem:    8,
		types.ColCSTICMS:            10,
		types.ColCFOP:               11,
		types.ColNaturezaCredito:    12,
		types.ColBaseICMS:           13,
		types.ColAliquotaICMS:       14,
		types.ColVlrICMS:            15,
		types.ColBaseICMSST:         16,
		types.ColAliquotaICMSST:     17,
		types.ColVlrICMSST:          18,
		types.ColCSTIPI:             20,
		types.ColBaseIPI:            22,
		types.ColAliquotaIPI:        23,
		types.ColVlrIPI:             24,
		types.ColCSTPIS:             25,
		types.ColBasePIS:            26,
		types.ColAliquotaPIS:        27,
		types.ColQtdeBasePIS:        28,
		types.ColQtdeAliquotaPIS:    29,
		types.ColVlrPIS:             30,
		types.ColCSTCofins:          31,
		types.ColBaseCofins:         32,
		types.ColAliquotaCofins:     33,
		types.ColQtdeBaseCofins:     34,
		types.ColQtdeAliquotaCofins: 35,
		types.ColVlrCofins:          36,
		types.ColContaContabil:      37,
	})
	return nil
}

// =============================================================================
// C500 / C501 / C505 - utility bills
// D500 / D501 / D505 - communication services
// =============================================================================

func buildC500(r *run, rec efdparser.Record) (types.Row, overlay, error) {
	if err := rec.Require(10); err != nil {
		return types.Row{}, nil, err
	}
	row := r.newRow()
	if err := r.setParticipant(&row, rec.Field(2)); err != nil {
		return types.Row{}, nil, err
	}
	// Utility bills are always inbound.
	row.Set(types.ColTipoOperacao, enum.ResolveInt(enum.OperationType, 0))
	row.Set(types.ColSituacao, enum.Resolve(enum.DocumentStatus, rec.Field(4)))
	row.Set(types.ColDataDocumento, format.Date(rec.Field(8)))
	row.Set(types.ColDataEntradaSaida, format.Date(rec.Field(9)))
	set(&row, rec, map[types.Column]int{
		types.ColSerie:           5,
		types.ColNumeroDocumento: 7,
		types.ColVlrDocumento:    10,
	})
	return row, nil, nil
}

func buildD500(r *run, rec efdparser.Record) (types.Row, overlay, error) {
	if err := rec.Require(14); err != nil {
		return types.Row{}, nil, err
	}
	row := r.newRow()
	if err := r.setParticipant(&row, rec.Field(4)); err != nil {
		return types.Row{}, nil, err
	}
	row.Set(types.ColTipoOperacao, enum.Resolve(enum.OperationType, rec.Field(2)))
	row.Set(types.ColSituacao, enum.Resolve(enum.DocumentStatus, rec.Field(6)))
	row.Set(types.ColDataDocumento, format.Date(rec.Field(10)))
	row.Set(types.ColDataEntradaSaida, format.Date(rec.Field(11)))
	set(&row, rec, map[types.Column]int{
		types.ColSerie:           7,
		types.ColNumeroDocumento: 9,
		types.ColVlrDocumento:    12,
		types.ColVlrDescontoNF:   13,
		types.ColVlrMercadoria:   14,
	})
	return row, nil, nil
}

// buildPISDetail reads C501 and D501, which share a layout.
func buildPISDetail(rec efdparser.Record, row *types.Row, _ overlay) error {
	if err := rec.Require(7); err != nil {
		return err
	}
	set(row, rec, map[types.Column]int{
		types.ColCSTPIS:          2,
		types.ColVlrItem:         3,
		types.ColNaturezaCredito: 4,
		types.ColBasePIS:         5,
		types.ColAliquotaPIS:     6,
		types.ColVlrPIS:          7,
	})
	return nil
}

// buildCofinsDetail reads C505 and D505, which share a layout.
func buildCofinsDetail(_ *run, rec efdparser.Record, row *types.Row) error {
	if err := rec.Require(8); err != nil {
		return err
	}
	set(row, rec, map[types.Column]int{
		types.ColCSTCofins:      2,
		types.ColBaseCofins:     5,
		types.ColAliquotaCofins: 6,
		types.ColVlrCofins:      7,
		types.ColContaContabil:  8,
	})
	return nil
}

// =============================================================================
// D100 / D101 / D105 - transport services acquired
// =============================================================================

// buildD100 carries the document's ICMS base and value to its D105 rows.
func buildD100(r *run, rec efdparser.Record) (types.Row, overlay, error) {
	if err := rec.Require(20); err != nil {
		return types.Row{}, nil, err
	}
	row := r.newRow()
	if err := r.setParticipant(&row, rec.Field(4)); err != nil {
		return types.Row{}, nil, err
	}
	row.Set(types.ColTipoOperacao, enum.Resolve(enum.OperationType, rec.Field(2)))
	row.Set(types.ColSituacao, enum.Resolve(enum.DocumentStatus, rec.Field(6)))
	row.Set(types.ColDataDocumento, format.Date(rec.Field(11)))
	row.Set(types.ColDataEntradaSaida, format.Date(rec.Field(12)))
	set(&row, rec, map[types.Column]int{
		types.ColSerie:           7,
		types.ColNumeroDocumento: 9,
		types.ColChaveNFe:        10,
		types.ColVlrDocumento:    15,
		types.ColVlrDescontoNF:   16,
		types.ColVlrMercadoria:   18,
	})
	carry := overlay{
		types.ColBaseICMS: rec.Field(19),
		types.ColVlrICMS:  rec.Field(20),
	}
	return row, carry, nil
}

func buildD101(rec efdparser.Record, row *types.Row, _ overlay) error {
	if err := rec.Require(8); err != nil {
		return err
	}
	set(row, rec, map[types.Column]int{
		types.ColVlrItem:         3,
		types.ColCSTPIS:          4,
		types.ColNaturezaCredito: 5,
		types.ColBasePIS:         6,
		types.ColAliquotaPIS:     7,
		types.ColVlrPIS:          8,
	})
	return nil
}

func buildD105(_ *run, rec efdparser.Record, row *types.Row) error {
	if err := rec.Require(9); err != nil {
		return err
	}
	set(row, rec, map[types.Column]int{
		types.ColCSTCofins:      4,
		types.ColBaseCofins:     6,
		types.ColAliquotaCofins: 7,
		types.ColVlrCofins:      8,
		types.ColContaContabil:  9,
	})
	return nil
}

// =============================================================================
// D200 / D201 / D205 - daily transport summary
// =============================================================================

// buildD200 has no participant. Its CFOP only appears on D205 rows.
func buildD200(r *run, rec efdparser.Record) (types.Row, overlay, error) {
	if err := rec.Require(11); err != nil {
		return types.Row{}, nil, err
	}
	row := r.newRow()
	// Daily summaries are always outbound.
	row.Set(types.ColTipoOperacao, enum.ResolveInt(enum.OperationType, 1))
	row.Set(types.ColDataDocumento, format.Date(rec.Field(9)))
	set(&row, rec, map[types.Column]int{
		types.ColSerie:           4,
		types.ColNumeroDocumento: 6,
		types.ColVlrDocumento:    10,
		types.ColVlrDescontoNF:   11,
	})
	return row, overlay{types.ColCFOP: rec.Field(8)}, nil
}

// buildD201 keeps its PIS columns off the mid row and hands them to D205.
func buildD201(rec efdparser.Record, row *types.Row, carry overlay) error {
	if err := rec.Require(6); err != nil {
		return err
	}
	row.Set(types.ColVlrItem, rec.Field(3))
	row.Set(types.ColCFOPFaturamento, "Faturamento")
	carry[types.ColCSTPIS] = rec.Field(2)
	carry[types.ColBasePIS] = rec.Field(4)
	carry[types.ColAliquotaPIS] = rec.Field(5)
	carry[types.ColVlrPIS] = rec.Field(6)
	return nil
}

func buildD205(_ *run, rec efdparser.Record, row *types.Row) error {
	if err := rec.Require(7); err != nil {
		return err
	}
	set(row, rec, map[types.Column]int{
		types.ColCSTCofins:      2,
		types.ColBaseCofins:     4,
		types.ColAliquotaCofins: 5,
		types.ColVlrCofins:      6,
		types.ColContaContabil:  7,
	})
	return nil
}

// =============================================================================
// F100 - other operations
// =============================================================================

// baseF100 is the row an F100 line starts from: it has no parent record.
func baseF100(r *run) types.Row {
	row := r.newRow()
	row.Set(types.ColTipoOperacao, enum.ResolveInt(enum.OperationType, 1))
	return row
}

func buildF100(_ *run, rec efdparser.Record, row *types.Row) error {
	if err := rec.Require(17); err != nil {
		return err
	}
	row.Set(types.ColDataDocumento, format.Date(rec.Field(5)))
	set(row, rec, map[types.Column]int{
		types.ColVlrDocumento:    6,
		types.ColVlrItem:         6,
		types.ColCSTPIS:          7,
		types.ColBasePIS:         8,
		types.ColAliquotaPIS:     9,
		types.ColVlrPIS:          10,
		types.ColCSTCofins:       11,
		types.ColBaseCofins:      12,
		types.ColAliquotaCofins:  13,
		types.ColVlrCofins:       14,
		types.ColNaturezaCredito: 15,
		types.ColContaContabil:   17,
	})
	return nil
}
