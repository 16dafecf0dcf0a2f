package resolver

import (
	"github.com/ginjaninja78/EFD-to-XLSX-conversion/internal/efdparser"
	"github.com/ginjaninja78/EFD-to-XLSX-conversion/internal/types"
)

// =============================================================================
// FAMILY DEFINITIONS
// =============================================================================

type (
	// parentFunc builds a parent snapshot and the values it carries to its
	// leaves without showing them on mid rows.
	parentFunc func(r *run, rec efdparser.Record) (types.Row, overlay, error)

	// midFunc writes mid columns into row, which starts as the parent
	// snapshot. Values for the leaf go into carry.
	midFunc func(rec efdparser.Record, row *types.Row, carry overlay) error

	// leafFunc writes leaf columns into row, which starts as the ancestor
	// snapshot.
	leafFunc func(r *run, rec efdparser.Record, row *types.Row) error
)

// family describes one record hierarchy.
type family struct {
	name  string
	label string

	parent string
	mid    string
	leaf   string

	buildParent parentFunc
	buildMid    midFunc
	buildLeaf   leafFunc

	// base is set only for families without a parent record.
	base func(r *run) types.Row
}

func (f *family) standalone() bool { return f.parent == "" }
func (f *family) threeLevel() bool { return f.mid != "" }

const (
	famA100 = iota
	famC100
	famC500
	famD100
	famD200
	famD500
	famF100
	familyCount
)

var families = [familyCount]family{
	famA100: {
		name:        "A100",
		label:       "A100/A170 - Nota Fiscal de Serviço",
		parent:      "A100",
		leaf:        "A170",
		buildParent: buildA100,
		buildLeaf:   buildA170,
	},
	famC100: {
		name:        "C100",
		label:       "C100/C170 - Documento - Nota Fiscal",
		parent:      "C100",
		leaf:        "C170",
		buildParent: buildC100,
		buildLeaf:   buildC170,
	},
	famC500: {
		name:        "C500",
		label:       "C500/C505 - Nota Fiscal/Conta de Energia Elétrica/Água/Gás",
		parent:      "C500",
		mid:         "C501",
		leaf:        "C505",
		buildParent: buildC500,
		buildMid:    buildPISDetail,
		buildLeaf:   buildCofinsDetail,
	},
	famD100: {
		name:        "D100",
		label:       "D100/D105 - Aquisição de Serviços de Transporte",
		parent:      "D100",
		mid:         "D101",
		leaf:        "D105",
		buildParent: buildD100,
		buildMid:    buildD101,
		buildLeaf:   buildD105,
	},
	famD200: {
		name:        "D200",
		label:       "D200/D205 - Resumo Diário - Nota Fiscal de Serviço de Transporte",
		parent:      "D200",
		mid:         "D201",
		leaf:        "D205",
		buildParent: buildD200,
		buildMid:    buildD201,
		buildLeaf:   buildD205,
	},
	famD500: {
		name:        "D500",
		label:       "D500/D505 - Nota Fiscal de Serviço de Comunicação",
		parent:      "D500",
		mid:         "D501",
		leaf:        "D505",
		buildParent: buildD500,
		buildMid:    buildPISDetail,
		buildLeaf:   buildCofinsDetail,
	},
	famF100: {
		name:      "F100",
		label:     "F100 - Demais Documentos e Operações",
		leaf:      "F100",
		base:      baseF100,
		buildLeaf: buildF100,
	},
}

// =============================================================================
// ROUTING
// =============================================================================

type role int

const (
	roleParent role = iota + 1
	roleMid
	roleLeaf
)

type route struct {
	family int
	role   role
}

// routes maps each handled tag to its family and level.
var routes = func() map[string]route {
	m := make(map[string]route)
	for i := range families {
		f := &families[i]
		if f.parent != "" {
			m[f.parent] = route{family: i, role: roleParent}
		}
		if f.mid != "" {
			m[f.mid] = route{family: i, role: roleMid}
		}
		m[f.leaf] = route{family: i, role: roleLeaf}
	}
	return m
}()

// Tags returns the record tags the resolver handles, grouped by family.
func Tags() map[string][]string {
	out := make(map[string][]string, familyCount)
	for i := range families {
		f := &families[i]
		var tags []string
		for _, t := range []string{f.parent, f.mid, f.leaf} {
			if t != "" {
				tags = append(tags, t)
			}
		}
		out[f.name] = tags
	}
	return out
}

// =============================================================================
// FAMILY STATE
// =============================================================================

// familyState is the open record slot of one family.
type familyState struct {
	parent      *types.Row
	parentCarry overlay

	mid   *types.Row
	carry overlay
}

func (s *familyState) reset() {
	*s = familyState{}
}

// overlay holds column values that are applied to a row later than the
// record that produced them. A missing key means "not available".
type overlay map[types.Column]string

func (o overlay) clone() overlay {
	out := make(overlay, len(o))
	for k, v := range o {
		out[k] = v
	}
	return out
}

func (o overlay) merge(other overlay) {
	for k, v := range other {
		o[k] = v
	}
}

func (o overlay) apply(row *types.Row) {
	for k, v := range o {
		row.Set(k, v)
	}
}
