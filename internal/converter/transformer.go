// =============================================================================
// EFD Converter - Transformation Engine
// =============================================================================
//
// This module applies the configured transformation rules to resolved rows
// before they are exported. Rules address output columns by their display
// name ("Conta Contábil", "Código Item", ...).
//
// TRANSFORMATION TYPES:
//   - String manipulations (prepend, append, trim, case conversion, replace)
//   - Numeric formatting (zero padding, leading zero removal)
//   - Date conversions
//   - Lookup table replacements
//
// CUSTOMIZATION:
//   - Add new transformation types by adding cases to ApplyTransformation
//   - Chain multiple actions on one column for complex conversions
//
// =============================================================================

package converter

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/ginjaninja78/EFD-to-XLSX-conversion/internal/config"
	"github.com/ginjaninja78/EFD-to-XLSX-conversion/internal/types"
)

// =============================================================================
// TRANSFORMER
// =============================================================================

// Transformer applies column transformations to rows.
type Transformer struct {
	rules []columnRule
}

type columnRule struct {
	column  types.Column
	actions []compiledAction
}

// compiledAction is an action with its regular expression, if any, compiled.
type compiledAction struct {
	action  config.TransformationAction
	pattern *regexp.Regexp
}

func (a compiledAction) apply(value string) (string, error) {
	if a.pattern != nil {
		return a.pattern.ReplaceAllString(value, a.action.Value), nil
	}
	return ApplyTransformation(value, a.action)
}

// NewTransformer creates a Transformer for the given rules. Regular
// expressions are compiled here, once.
//
// RETURNS:
//   - The transformer.
//   - An error if a rule names an unknown column, uses an unknown action
//     type or carries an invalid regular expression.
func NewTransformer(rules []config.TransformationRule) (*Transformer, error) {
	t := &Transformer{}

	for _, rule := range rules {
		column, ok := types.ColumnByName(rule.Field)
		if !ok {
			return nil, fmt.Errorf("transformation rule: unknown column %q", rule.Field)
		}

		compiled := columnRule{column: column}
		for _, action := range rule.Actions {
			c := compiledAction{action: action}
			if action.Type == "regex_replace" && action.Find != "" {
				re, err := regexp.Compile(action.Find)
				if err != nil {
					return nil, fmt.Errorf("transformation rule for %q: invalid regex pattern: %w", rule.Field, err)
				}
				c.pattern = re
			} else if _, err := ApplyTransformation("", action); err != nil {
				// A dry run on an empty value surfaces unknown types.
				return nil, fmt.Errorf("transformation rule for %q: %w", rule.Field, err)
			}
			compiled.actions = append(compiled.actions, c)
		}
		t.rules = append(t.rules, compiled)
	}

	return t, nil
}

// Len returns the number of column rules.
func (t *Transformer) Len() int {
	return len(t.rules)
}

// Transform applies every rule to a copy of row and returns the copy.
func (t *Transformer) Transform(row types.Row) (types.Row, error) {
	for _, rule := range t.rules {
		result := row.Get(rule.column)
		for _, action := range rule.actions {
			var err error
			result, err = action.apply(result)
			if err != nil {
				return types.Row{}, fmt.Errorf("transformation '%s' on %q failed: %w", action.action.Type, rule.column, err)
			}
		}
		row.Set(rule.column, result)
	}
	return row, nil
}

// TransformRows returns transformed copies of rows. The input slice is
// left untouched.
func (t *Transformer) TransformRows(rows []types.Row) ([]types.Row, error) {
	out := make([]types.Row, len(rows))
	for i, row := range rows {
		transformed, err := t.Transform(row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		out[i] = transformed
	}
	return out, nil
}

// =============================================================================
// TRANSFORMATION FUNCTIONS
// =============================================================================

// ApplyTransformation applies a single transformation action.
//
// PARAMETERS:
//   - value: The current cell value.
//   - action: The transformation action to apply.
//
// RETURNS:
//   - The transformed value.
//   - An error for an unknown action type or an invalid pattern.
//
// CUSTOMIZATION:
//   Add new transformation types by adding cases to this switch statement.
func ApplyTransformation(value string, action config.TransformationAction) (string, error) {
	switch action.Type {

	// =========================================================================
	// STRING MANIPULATIONS
	// =========================================================================

	case "prepend_string":
		// EXAMPLE:
		//   Input: "1.01.02"
		//   Action: prepend_string with value "C"
		//   Output: "C1.01.02"
		return action.Value + value, nil

	case "append_string":
		return value + action.Value, nil

	case "trim":
		return strings.TrimSpace(value), nil

	case "uppercase":
		return strings.ToUpper(value), nil

	case "lowercase":
		return strings.ToLower(value), nil

	case "replace":
		// EXAMPLE:
		//   Input: "1.01.02"
		//   Action: replace with find "." and value ""
		//   Output: "10102"
		if action.Find == "" {
			return value, nil
		}
		return strings.ReplaceAll(value, action.Find, action.Value), nil

	case "regex_replace":
		if action.Find == "" {
			return value, nil
		}
		re, err := regexp.Compile(action.Find)
		if err != nil {
			return "", fmt.Errorf("invalid regex pattern: %w", err)
		}
		return re.ReplaceAllString(value, action.Value), nil

	// =========================================================================
	// NUMERIC FORMATTING
	// =========================================================================

	case "pad_zeros_to_length":
		// EXAMPLE:
		//   Input: "123"
		//   Action: pad_zeros_to_length with value "8"
		//   Output: "00000123"
		targetLength, err := strconv.Atoi(action.Value)
		if err != nil || targetLength <= 0 {
			return value, nil
		}
		return PadLeft(value, targetLength, '0'), nil

	case "remove_leading_zeros":
		if value == "" {
			return value, nil
		}
		result := strings.TrimLeft(value, "0")
		if result == "" {
			return "0", nil
		}
		return result, nil

	// =========================================================================
	// DATE CONVERSIONS
	// =========================================================================

	case "format_date":
		// Dates leave the resolver as dd/mm/yyyy.
		//
		// VALUE: the Go layout to convert to, e.g. "2006-01-02".
		if value == "" || action.Value == "" {
			return value, nil
		}
		t, err := time.Parse("02/01/2006", value)
		if err != nil {
			return value, nil
		}
		return t.Format(action.Value), nil

	// =========================================================================
	// LOOKUP TABLE REPLACEMENTS
	// =========================================================================

	case "lookup":
		// EXAMPLE:
		//   Input: "0 - Entrada"
		//   Action: lookup with lookup_table {"0 - Entrada": "E"}
		//   Output: "E"
		if replacement, exists := action.LookupTable[value]; exists {
			return replacement, nil
		}
		return value, nil

	case "lookup_with_default":
		if replacement, exists := action.LookupTable[value]; exists {
			return replacement, nil
		}
		return action.Value, nil

	case "if_empty_use_default":
		if strings.TrimSpace(value) == "" {
			return action.Value, nil
		}
		return value, nil

	default:
		return "", fmt.Errorf("unknown transformation type: %s", action.Type)
	}
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// PadLeft pads a string with a character on the left to reach the target
// length in runes.
func PadLeft(s string, length int, padChar rune) string {
	n := utf8.RuneCountInString(s)
	if n >= length {
		return s
	}
	return strings.Repeat(string(padChar), length-n) + s
}
