// =============================================================================
// EFD Converter - Shared Types
// =============================================================================
//
// This package contains shared types used across multiple modules to avoid
// import cycles. Types defined here are used by:
//   - reference   (participant and product tables, header context)
//   - resolver    (output rows)
//   - validation, xlsxwriter, xmlwriter, csvwriter (row consumers)
//
// =============================================================================

package types

// =============================================================================
// REFERENCE DATA
// =============================================================================

// HeaderContext holds the company and period read from the |0000| record.
// It is created once per file and copied into every emitted row.
type HeaderContext struct {
	// CompanyTaxID is the CNPJ of the bookkeeping company.
	CompanyTaxID string

	// PeriodLabel is the period start formatted as dd/mm/yyyy.
	PeriodLabel string

	// PeriodYear is the four-digit year of the period start.
	PeriodYear string
}

// Participant is one |0150| record.
type Participant struct {
	Code             string
	Name             string
	CNPJ             string
	CPF              string
	MunicipalityCode string
}

// Product is one |0200| record (goods or services).
type Product struct {
	Code        string
	Description string
	Barcode     string
	Kind        string
	NCM         string
	ServiceCode string
	ICMSRate    string
	Unit        string
}

// =============================================================================
// OUTPUT ROW
// =============================================================================

// Column addresses one cell of a Row.
type Column int

// Output columns, in display order.
const (
	ColCNPJ Column = iota
	ColPeriodo
	ColAno
	ColRegistros
	ColTipoOperacao
	ColSituacao
	ColCodigoParticipante
	ColCNPJParticipante
	ColCPFParticipante
	ColNomeParticipante
	ColUFOrigemDestino
	ColNumeroDocumento
	ColSerie
	ColChaveNFe
	ColDataDocumento
	ColDataEntradaSaida
	ColVlrDocumento
	ColVlrDescontoNF
	ColVlrMercadoria
	ColVlrFrete
	ColVlrISSQN
	ColNumeroItem
	ColCodigoItem
	ColDescricaoComplementar
	ColDescricaoItem
	ColNCM
	ColCodigoServico
	ColCodigoBarra
	ColTipoItem
	ColVlrItem
	ColQtde
	ColUnidadeMedida
	ColVlrDescontoItem
	ColNaturezaCredito
	ColCFOP
	ColCFOPFaturamento
	ColCSTICMS
	ColBaseICMS
	ColAliquotaICMS
	ColVlrICMS
	ColBaseICMSST
	ColAliquotaICMSST
	ColVlrICMSST
	ColCSTIPI
	ColBaseIPI
	ColAliquotaIPI
	ColVlrIPI
	ColPISCofins
	ColCSTPIS
	ColBasePIS
	ColQtdeBasePIS
	ColAliquotaPIS
	ColQtdeAliquotaPIS
	ColVlrPIS
	ColCSTCofins
	ColBaseCofins
	ColQtdeBaseCofins
	ColAliquotaCofins
	ColQtdeAliquotaCofins
	ColVlrCofins
	ColContaContabil
	ColDebitoCredito

	columnEnd
)

// ColumnCount is the number of columns every Row carries.
const ColumnCount = int(columnEnd)

var columnNames = [ColumnCount]string{
	ColCNPJ:                  "CNPJ",
	ColPeriodo:               "Período",
	ColAno:                   "ANO",
	ColRegistros:             "Registros",
	ColTipoOperacao:          "Tipo Operação",
	ColSituacao:              "Situação",
	ColCodigoParticipante:    "Código Participante",
	ColCNPJParticipante:      "CNPJ Participante",
	ColCPFParticipante:       "CPF Participante",
	ColNomeParticipante:      "Nome Participante",
	ColUFOrigemDestino:       "UF Origem/Destino",
	ColNumeroDocumento:       "Número Documento",
	ColSerie:                 "Série",
	ColChaveNFe:              "Chave NF-e",
	ColDataDocumento:         "Data Documento",
	ColDataEntradaSaida:      "Data Entrada/Saída",
	ColVlrDocumento:          "Vlr Documento",
	ColVlrDescontoNF:         "Vlr Desconto NF",
	ColVlrMercadoria:         "Vlr Mercadoria/Operação",
	ColVlrFrete:              "Vlr Frete",
	ColVlrISSQN:              "Vlr ISSQN",
	ColNumeroItem:            "Número Item",
	ColCodigoItem:            "Código Item",
	ColDescricaoComplementar: "Descrição Complementar",
	ColDescricaoItem:         "Descrição Item",
	ColNCM:                   "NCM",
	ColCodigoServico:         "Código Serviço",
	ColCodigoBarra:           "Código Barra",
	ColTipoItem:              "Tipo Item",
	ColVlrItem:               "Vlr Item",
	ColQtde:                  "Qtde",
	ColUnidadeMedida:         "Unidade Medida",
	ColVlrDescontoItem:       "Vlr Desconto Item",
	ColNaturezaCredito:       "Natureza Crédito",
	ColCFOP:                  "CFOP",
	ColCFOPFaturamento:       "CFOP Faturamento",
	ColCSTICMS:               "CST ICMS",
	ColBaseICMS:              "Vlr Base Cálculo ICMS",
	ColAliquotaICMS:          "Alíquota ICMS",
	ColVlrICMS:               "Vlr ICMS",
	ColBaseICMSST:            "Vlr Base Cálculo ICMS ST",
	ColAliquotaICMSST:        "Alíquota ICMS ST",
	ColVlrICMSST:             "Vlr ICMS ST",
	ColCSTIPI:                "CST IPI",
	ColBaseIPI:               "Vlr Base Cálculo IPI",
	ColAliquotaIPI:           "Alíquota IPI",
	ColVlrIPI:                "Vlr IPI",
	ColPISCofins:             "pis/cofins",
	ColCSTPIS:                "CST PIS",
	ColBasePIS:               "Vlr Base Cálculo PIS",
	ColQtdeBasePIS:           "Qtde Base Cálculo PIS",
	ColAliquotaPIS:           "Alíquota PIS",
	ColQtdeAliquotaPIS:       "Qtde Alíquota PIS",
	ColVlrPIS:                "Vlr PIS",
	ColCSTCofins:             "CST Cofins",
	ColBaseCofins:            "Vlr Base Cálculo Cofins",
	ColQtdeBaseCofins:        "Qtde Base Cálculo Cofins",
	ColAliquotaCofins:        "Alíquota Cofins",
	ColQtdeAliquotaCofins:    "Qtde Alíquota Cofins",
	ColVlrCofins:             "Vlr Cofins",
	ColContaContabil:         "Conta Contábil",
	ColDebitoCredito:         "Débito/Crédito",
}

var columnIndex = func() map[string]Column {
	m := make(map[string]Column, ColumnCount)
	for i, name := range columnNames {
		m[name] = Column(i)
	}
	return m
}()

// String returns the display name of the column.
func (c Column) String() string {
	if c < 0 || c >= columnEnd {
		return ""
	}
	return columnNames[c]
}

// Columns returns the ordered column names shared by every Row.
func Columns() []string {
	names := make([]string, ColumnCount)
	copy(names, columnNames[:])
	return names
}

// ColumnByName looks up a column by its display name.
func ColumnByName(name string) (Column, bool) {
	c, ok := columnIndex[name]
	return c, ok
}

// Row is one flat output record. It is a value type: assigning a Row copies
// all of its cells, which is how ancestor snapshots are merged into
// descendants without ever mutating the stored ancestor.
type Row [ColumnCount]string

// Get returns the cell for c.
func (r Row) Get(c Column) string {
	return r[c]
}

// Set assigns the cell for c.
func (r *Row) Set(c Column, value string) {
	r[c] = value
}

// Value returns the cell for a column display name.
func (r Row) Value(name string) (string, bool) {
	c, ok := columnIndex[name]
	if !ok {
		return "", false
	}
	return r[c], true
}

// Values returns the cells in column order.
func (r Row) Values() []string {
	values := make([]string, ColumnCount)
	copy(values, r[:])
	return values
}

// Map returns the row as a name -> value map with every column present.
func (r Row) Map() map[string]string {
	m := make(map[string]string, ColumnCount)
	for i, name := range columnNames {
		m[name] = r[i]
	}
	return m
}

// WithHeader returns a new row with the header columns filled in.
func WithHeader(h HeaderContext) Row {
	var r Row
	r[ColCNPJ] = h.CompanyTaxID
	r[ColPeriodo] = h.PeriodLabel
	r[ColAno] = h.PeriodYear
	return r
}
