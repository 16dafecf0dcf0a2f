// =============================================================================
// EFD Converter - Hierarchical Record Resolver
// =============================================================================
//
// This module turns the nested EFD record stream into flat rows. It runs two
// passes over the same lines:
//   1. reference.Build collects the header and the 0150/0200 tables
//   2. a forward scan feeds each line to its family's state machine
//
// Each family (A100, C100, C500, D100, D200, D500, F100) keeps a single open
// parent and, for three-level families, a single open mid. A leaf line merges
// its ancestors into a new row and emits it.
//
// PROBLEM HANDLING:
//   Nothing in a file stops the scan. Short lines, unknown participant or
//   product codes, children without parents and non-numeric PIS/COFINS values
//   are absorbed, logged at warn level and returned as issues.
//
// =============================================================================

package resolver

import (
	"errors"
	"fmt"
	"sort"

	"github.com/ginjaninja78/EFD-to-XLSX-conversion/internal/efdparser"
	"github.com/ginjaninja78/EFD-to-XLSX-conversion/internal/format"
	"github.com/ginjaninja78/EFD-to-XLSX-conversion/internal/reference"
	"github.com/ginjaninja78/EFD-to-XLSX-conversion/internal/types"
	"github.com/ginjaninja78/EFD-to-XLSX-conversion/internal/validation"
	"go.uber.org/zap"
)

var (
	// ErrMalformedLine: a line has fewer fields than its handler reads.
	ErrMalformedLine = efdparser.ErrMalformedLine

	// ErrLookupMiss: a participant or product code is not registered.
	ErrLookupMiss = errors.New("lookup miss")

	// ErrOrphanDescendant: a mid or leaf line arrived with no open ancestor.
	ErrOrphanDescendant = errors.New("orphan descendant")
)

// =============================================================================
// RESULT STRUCTURES
// =============================================================================

// Result is the outcome of resolving one file.
type Result struct {
	// Rows are the emitted rows, in source-line order.
	Rows []types.Row

	// Issues are the absorbed problems, in source-line order.
	Issues []*validation.Issue

	// Header is the file's header context (zero if the file has none).
	Header types.HeaderContext

	// Stats summarizes the scan.
	Stats Stats
}

// NoData reports whether the file produced no rows. This is a normal
// outcome ("no data processed"), not an error.
func (r *Result) NoData() bool {
	return len(r.Rows) == 0
}

// Stats contains counters collected during a scan.
type Stats struct {
	// Lines is the number of input lines.
	Lines int

	// Rows is the number of emitted rows.
	Rows int

	// RowsByFamily counts emitted rows per family name ("C100", ...).
	RowsByFamily map[string]int

	// Participants and Products are the reference table sizes.
	Participants int
	Products     int

	// Skipped counts lines whose tag no family handles.
	Skipped int

	// Issues counts absorbed problems.
	Issues int
}

// =============================================================================
// RESOLVER
// =============================================================================

// Resolver converts EFD lines into rows. It holds no per-file state and may
// be used from several goroutines at once.
type Resolver struct {
	logger *zap.Logger
}

// New creates a resolver. A nil logger disables logging.
func New(logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{logger: logger}
}

// Resolve runs both passes over lines and returns the rows.
func (r *Resolver) Resolve(lines []string) *Result {
	report := &validation.Report{}
	ref := reference.Build(lines, report)

	run := &run{
		logger:  r.logger,
		ref:     ref,
		report:  report,
		emitter: NewEmitter(),
	}
	for _, issue := range report.Issues {
		run.logIssue(issue)
	}

	for i, line := range lines {
		run.consume(i+1, line)
	}

	// Reference issues come from the first pass.
	sort.SliceStable(report.Issues, func(i, j int) bool {
		return report.Issues[i].Line < report.Issues[j].Line
	})

	result := &Result{
		Rows:   run.emitter.Rows(),
		Issues: report.Issues,
		Header: ref.Header,
		Stats: Stats{
			Lines:        len(lines),
			Rows:         run.emitter.Len(),
			RowsByFamily: run.emitter.Counts(),
			Participants: len(ref.Participants),
			Products:     len(ref.Products),
			Skipped:      run.skipped,
			Issues:       report.Len(),
		},
	}

	r.logger.Debug("resolved lines",
		zap.Int("lines", result.Stats.Lines),
		zap.Int("rows", result.Stats.Rows),
		zap.Int("skipped", result.Stats.Skipped),
		zap.Int("issues", result.Stats.Issues),
	)

	return result
}

// =============================================================================
// RUN STATE
// =============================================================================

// run is the state of one Resolve call.
type run struct {
	logger  *zap.Logger
	ref     *reference.Context
	report  *validation.Report
	emitter *Emitter
	states  [familyCount]familyState
	skipped int
}

// consume routes one line to its family.
func (r *run) consume(lineNumber int, line string) {
	tag := efdparser.Tag(line)
	rt, ok := routes[tag]
	if !ok {
		if !isReferenceTag(tag) {
			r.skipped++
		}
		return
	}

	rec := efdparser.NewRecord(lineNumber, line)
	f := &families[rt.family]
	st := &r.states[rt.family]

	switch rt.role {
	case roleParent:
		r.openParent(f, st, rec)
	case roleMid:
		r.openMid(f, st, rec)
	case roleLeaf:
		r.closeLeaf(f, st, rec)
	}
}

// openParent replaces the family's open parent. Any open mid and carried
// values go with the old parent, even when the new one fails to build.
func (r *run) openParent(f *family, st *familyState, rec efdparser.Record) {
	st.reset()

	row, carry, err := f.buildParent(r, rec)
	if err != nil {
		r.absorb(rec, err)
		return
	}
	row.Set(types.ColRegistros, f.label)
	st.parent = &row
	st.parentCarry = carry
}

// openMid stores a mid snapshot under the open parent. A malformed mid keeps
// the parent snapshot as the mid so its leaves still emit.
func (r *run) openMid(f *family, st *familyState, rec efdparser.Record) {
	if st.parent == nil {
		r.absorb(rec, fmt.Errorf("%w: %s at line %d has no open %s",
			ErrOrphanDescendant, rec.Tag, rec.Line, f.parent))
		return
	}

	carry := st.parentCarry.clone()
	added := overlay{}
	row := *st.parent
	if err := f.buildMid(rec, &row, added); err != nil {
		r.absorb(rec, err)
		row = *st.parent
	} else {
		carry.merge(added)
	}

	st.mid = &row
	st.carry = carry
}

// closeLeaf merges the open ancestors with the leaf and emits the row. A leaf
// that cannot be read still emits its ancestors' columns; a stand-alone
// record has none, so it emits nothing.
func (r *run) closeLeaf(f *family, st *familyState, rec efdparser.Record) {
	var base types.Row
	switch {
	case f.standalone():
		base = f.base(r)
		base.Set(types.ColRegistros, f.label)
	case !f.threeLevel():
		if st.parent == nil {
			r.absorb(rec, fmt.Errorf("%w: %s at line %d has no open %s",
				ErrOrphanDescendant, rec.Tag, rec.Line, f.parent))
			return
		}
		base = *st.parent
	default:
		if st.mid == nil {
			r.absorb(rec, fmt.Errorf("%w: %s at line %d has no open %s",
				ErrOrphanDescendant, rec.Tag, rec.Line, f.mid))
			return
		}
		base = *st.mid
		st.carry.apply(&base)
	}

	row := base
	if err := f.buildLeaf(r, rec, &row); err != nil {
		r.absorb(rec, err)
		if !f.standalone() {
			r.emitter.Emit(f.name, base)
		}
		return
	}

	r.combinePISCofins(rec, &row)
	r.emitter.Emit(f.name, row)
}

// combinePISCofins fills the pis/cofins column with Vlr PIS + Vlr Cofins.
func (r *run) combinePISCofins(rec efdparser.Record, row *types.Row) {
	sum, err := format.SumDecimal(row.Get(types.ColVlrPIS), row.Get(types.ColVlrCofins))
	if err != nil {
		row.Set(types.ColPISCofins, format.MissingValue)
		r.absorb(rec, fmt.Errorf("pis/cofins left blank: %w", err))
		return
	}
	row.Set(types.ColPISCofins, sum)
}

// =============================================================================
// ISSUE REPORTING
// =============================================================================

// absorb records err as an issue for rec and logs it.
func (r *run) absorb(rec efdparser.Record, err error) {
	issue := &validation.Issue{
		Severity: validation.SeverityWarning,
		Kind:     kindOf(err),
		Tag:      rec.Tag,
		Line:     rec.Line,
		Raw:      rec.Raw,
		Message:  err.Error(),
	}
	r.report.Add(issue)
	r.logIssue(issue)
}

func (r *run) logIssue(issue *validation.Issue) {
	r.logger.Warn("line absorbed",
		zap.String("kind", string(issue.Kind)),
		zap.String("tag", issue.Tag),
		zap.Int("line", issue.Line),
		zap.String("reason", issue.Message),
	)
}

func kindOf(err error) validation.Kind {
	switch {
	case errors.Is(err, ErrMalformedLine):
		return validation.KindMalformedLine
	case errors.Is(err, ErrLookupMiss):
		return validation.KindLookupMiss
	case errors.Is(err, ErrOrphanDescendant):
		return validation.KindOrphanDescendant
	default:
		return validation.KindInvalidValue
	}
}

func isReferenceTag(tag string) bool {
	return tag == reference.TagHeader || tag == reference.TagParticipant || tag == reference.TagProduct
}
