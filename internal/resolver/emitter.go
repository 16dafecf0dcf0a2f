package resolver

import "github.com/ginjaninja78/EFD-to-XLSX-conversion/internal/types"

// Emitter collects rows in the order they are produced.
type Emitter struct {
	rows   []types.Row
	counts map[string]int
}

// NewEmitter returns an empty emitter.
func NewEmitter() *Emitter {
	return &Emitter{counts: make(map[string]int)}
}

// Emit appends row under the given family name. The row is stored by value
// and never changed afterwards.
func (e *Emitter) Emit(family string, row types.Row) {
	e.rows = append(e.rows, row)
	e.counts[family]++
}

// Rows returns the emitted rows.
func (e *Emitter) Rows() []types.Row {
	return e.rows
}

// Len returns the number of emitted rows.
func (e *Emitter) Len() int {
	return len(e.rows)
}

// Counts returns a copy of the per-family row counts.
func (e *Emitter) Counts() map[string]int {
	out := make(map[string]int, len(e.counts))
	for k, v := range e.counts {
		out[k] = v
	}
	return out
}
