// =============================================================================
// EFD Converter - Issues
// =============================================================================
//
// An Issue records one absorbed problem: a line the resolver could not use
// in full, or an output cell that does not look the way it should. Issues
// never stop a scan; they are logged, counted and written to the error log.
//
// =============================================================================

package validation

import (
	"fmt"
	"strings"
)

// Severity of an issue.
const (
	SeverityWarning = "warning"
	SeverityError   = "error"
)

// Kind classifies an issue.
type Kind string

const (
	// KindMalformedLine: a line has fewer fields than its handler needs.
	KindMalformedLine Kind = "malformed_line"

	// KindLookupMiss: a participant or product code is not in its table.
	KindLookupMiss Kind = "lookup_miss"

	// KindOrphanDescendant: a child record arrived with no open ancestor.
	KindOrphanDescendant Kind = "orphan_descendant"

	// KindInvalidValue: a field could not be converted (e.g. a non-numeric
	// PIS value) or an output cell failed a format check.
	KindInvalidValue Kind = "invalid_value"
)

// Issue is a single problem found while reading or checking a file.
type Issue struct {
	// Severity is SeverityWarning or SeverityError.
	Severity string

	// Kind classifies the problem.
	Kind Kind

	// Tag is the EFD record type of the offending line, when known.
	Tag string

	// Line is the 1-based line number in the source file (0 if unknown).
	Line int

	// Column is the output column a value check refers to.
	Column string

	// Value is the offending value, if any.
	Value string

	// Raw is the full offending line.
	Raw string

	// Message is a human-readable description.
	Message string
}

// Error implements the error interface.
func (i *Issue) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s", strings.ToUpper(i.Severity), i.Kind)
	if i.Tag != "" {
		fmt.Fprintf(&b, " %s", i.Tag)
	}
	if i.Line > 0 {
		fmt.Fprintf(&b, " line %d", i.Line)
	}
	if i.Column != "" {
		fmt.Fprintf(&b, ", column '%s'", i.Column)
	}
	fmt.Fprintf(&b, ": %s", i.Message)
	if i.Value != "" {
		fmt.Fprintf(&b, " (value: '%s')", i.Value)
	}
	return b.String()
}

// Report collects issues in the order they were found.
type Report struct {
	Issues []*Issue
}

// Add appends an issue.
func (r *Report) Add(issue *Issue) {
	r.Issues = append(r.Issues, issue)
}

// Count returns the number of issues of the given kind.
func (r *Report) Count(kind Kind) int {
	n := 0
	for _, issue := range r.Issues {
		if issue.Kind == kind {
			n++
		}
	}
	return n
}

// Len returns the number of issues.
func (r *Report) Len() int {
	return len(r.Issues)
}

// FormatIssues formats issues for display or logging.
func FormatIssues(issues []*Issue) string {
	if len(issues) == 0 {
		return "No issues."
	}

	var builder strings.Builder
	fmt.Fprintf(&builder, "Completed with %d issue(s):\n\n", len(issues))
	for i, issue := range issues {
		fmt.Fprintf(&builder, "%d. %s\n", i+1, issue.Error())
	}
	return builder.String()
}
