// =============================================================================
// EFD Converter - Validation Module
// =============================================================================
//
// This module checks resolved rows before they are exported. It does not
// judge fiscal correctness; it only flags cells whose shape is wrong:
//   - Date columns must be empty or dd/mm/yyyy
//   - Money and rate columns must be empty or comma-decimal numbers
//   - Every row must name the record family it came from
//
// All findings are warnings except a missing family, which is an error.
//
// =============================================================================

package validation

import (
	"fmt"
	"time"

	"github.com/ginjaninja78/EFD-to-XLSX-conversion/internal/format"
	"github.com/ginjaninja78/EFD-to-XLSX-conversion/internal/types"
)

// =============================================================================
// VALIDATION RESULT
// =============================================================================

// ValidationResult contains the results of validation.
type ValidationResult struct {
	// IsValid is true if there are no error-severity issues.
	IsValid bool

	// Issues contains all findings (including warnings).
	Issues []*Issue

	// ErrorCount is the number of error-severity issues.
	ErrorCount int

	// WarningCount is the number of warnings.
	WarningCount int

	// RowsValidated is the number of rows checked.
	RowsValidated int
}

// =============================================================================
// VALIDATOR
// =============================================================================

// Validator checks output rows.
type Validator struct {
	options ValidationOptions
}

// ValidationOptions contains options for validation.
type ValidationOptions struct {
	// MaxIssues stops collecting after this many issues (0 = no limit).
	MaxIssues int

	// DateColumns are checked with validateDate.
	DateColumns []types.Column

	// DecimalColumns are checked with validateDecimal.
	DecimalColumns []types.Column
}

// DefaultValidationOptions returns the checks applied by the converter.
func DefaultValidationOptions() ValidationOptions {
	return ValidationOptions{
		MaxIssues: 1000,
		DateColumns: []types.Column{
			types.ColPeriodo,
			types.ColDataDocumento,
			types.ColDataEntradaSaida,
		},
		DecimalColumns: []types.Column{
			types.ColVlrDocumento,
			types.ColVlrDescontoNF,
			types.ColVlrMercadoria,
			types.ColVlrFrete,
			types.ColVlrISSQN,
			types.ColVlrItem,
			types.ColVlrDescontoItem,
			types.ColBaseICMS,
			types.ColAliquotaICMS,
			types.ColVlrICMS,
			types.ColBaseICMSST,
			types.ColAliquotaICMSST,
			types.ColVlrICMSST,
			types.ColBaseIPI,
			types.ColAliquotaIPI,
			types.ColVlrIPI,
			types.ColPISCofins,
			types.ColBasePIS,
			types.ColAliquotaPIS,
			types.ColVlrPIS,
			types.ColBaseCofins,
			types.ColAliquotaCofins,
			types.ColVlrCofins,
		},
	}
}

// NewValidator creates a validator with the default options.
func NewValidator() *Validator {
	return NewValidatorWithOptions(DefaultValidationOptions())
}

// NewValidatorWithOptions creates a validator with custom options.
func NewValidatorWithOptions(options ValidationOptions) *Validator {
	return &Validator{options: options}
}

// ValidateRows is a convenience wrapper around NewValidator().ValidateAll.
func ValidateRows(rows []types.Row) *ValidationResult {
	return NewValidator().ValidateAll(rows)
}

// ValidateAll checks every row.
func (v *Validator) ValidateAll(rows []types.Row) *ValidationResult {
	result := &ValidationResult{IsValid: true}

	for i := range rows {
		for _, issue := range v.ValidateRow(i+1, rows[i]) {
			if v.options.MaxIssues > 0 && len(result.Issues) >= v.options.MaxIssues {
				break
			}
			result.Issues = append(result.Issues, issue)
			if issue.Severity == SeverityError {
				result.ErrorCount++
				result.IsValid = false
			} else {
				result.WarningCount++
			}
		}
		result.RowsValidated++
	}

	return result
}

// ValidateRow checks a single row. rowNumber is the 1-based output position.
func (v *Validator) ValidateRow(rowNumber int, row types.Row) []*Issue {
	var issues []*Issue

	if row.Get(types.ColRegistros) == "" {
		issues = append(issues, &Issue{
			Severity: SeverityError,
			Kind:     KindInvalidValue,
			Column:   types.ColRegistros.String(),
			Message:  fmt.Sprintf("row %d has no record family", rowNumber),
		})
	}

	for _, col := range v.options.DateColumns {
		if msg := validateDate(row.Get(col)); msg != "" {
			issues = append(issues, rowIssue(rowNumber, col, row.Get(col), msg))
		}
	}
	for _, col := range v.options.DecimalColumns {
		if msg := validateDecimal(row.Get(col)); msg != "" {
			issues = append(issues, rowIssue(rowNumber, col, row.Get(col), msg))
		}
	}

	return issues
}

func rowIssue(rowNumber int, col types.Column, value, msg string) *Issue {
	return &Issue{
		Severity: SeverityWarning,
		Kind:     KindInvalidValue,
		Column:   col.String(),
		Value:    value,
		Message:  fmt.Sprintf("row %d: %s", rowNumber, msg),
	}
}

// =============================================================================
// DATA TYPE VALIDATORS
// =============================================================================

// validateDate returns "" for an empty value or a real dd/mm/yyyy date.
func validateDate(value string) string {
	if value == "" {
		return ""
	}
	if _, err := time.Parse("02/01/2006", value); err != nil {
		return "value is not a valid dd/mm/yyyy date"
	}
	return ""
}

// validateDecimal returns "" for an empty value or a number format.ParseDecimal
// accepts, so the check agrees with the pis/cofins sum.
func validateDecimal(value string) string {
	if value == "" {
		return ""
	}
	if _, err := format.ParseDecimal(value); err != nil {
		return "value must be a comma-decimal number"
	}
	return ""
}
