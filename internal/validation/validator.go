// =============================================================================
// Subledger Mapper - Rule Table Validation
// =============================================================================
//
// This module checks rule tables before the mapping repository is built.
// Nothing here looks at transaction records: a table that fails validation
// stops the run before any record is resolved.
//
// CHECKS:
//   1. Required columns per category (fatal)
//   2. Empty tables (warning)
//   3. Rows with a blank lookup key (warning, the row can never match)
//
// =============================================================================

package validation

import (
	"fmt"
	"strings"

	"github.com/ginjaninja78/subledger-mapper/internal/types"
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// Severity levels.
const (
	SeverityError   = "error"
	SeverityWarning = "warning"
)

// MissingColumnError reports required columns absent from a rule table.
type MissingColumnError struct {
	Category types.Category
	Source   string
	Missing  []string
	Found    []string
}

// Error implements the error interface.
func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("%s table %q is missing required column(s) %s; found: %s",
		e.Category.Description(),
		e.Source,
		strings.Join(e.Missing, ", "),
		strings.Join(e.Found, ", "),
	)
}

// ValidationError is a single finding against a rule table.
type ValidationError struct {
	// Severity is "error" for fatal findings, "warning" otherwise.
	Severity string

	Category types.Category
	Source   string

	// RowNumber is the 1-based data row, or 0 for table-level findings.
	RowNumber int

	Column  string
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.RowNumber > 0 {
		return fmt.Sprintf("[%s] %s (%s) row %d, column '%s': %s",
			strings.ToUpper(e.Severity), e.Category.Description(), e.Source, e.RowNumber, e.Column, e.Message)
	}
	return fmt.Sprintf("[%s] %s (%s): %s",
		strings.ToUpper(e.Severity), e.Category.Description(), e.Source, e.Message)
}

// =============================================================================
// VALIDATION RESULT
// =============================================================================

// ValidationResult collects every finding across the validated tables.
type ValidationResult struct {
	IsValid      bool
	Errors       []*ValidationError
	ErrorCount   int
	WarningCount int
	RowsChecked  int
}

func (r *ValidationResult) add(e *ValidationError) {
	r.Errors = append(r.Errors, e)
	if e.Severity == SeverityError {
		r.ErrorCount++
		r.IsValid = false
	} else {
		r.WarningCount++
	}
}

// =============================================================================
// VALIDATION FUNCTIONS
// =============================================================================

// RequireColumns returns a *MissingColumnError when the table lacks any of
// the category's required columns.
func RequireColumns(category types.Category, table *types.Table) error {
	present := make(map[string]bool, len(table.Columns))
	for _, column := range table.Columns {
		present[column] = true
	}

	var missing []string
	for _, column := range category.RequiredColumns() {
		if !present[column] {
			missing = append(missing, column)
		}
	}

	if len(missing) == 0 {
		return nil
	}

	return &MissingColumnError{
		Category: category,
		Source:   table.Source,
		Missing:  missing,
		Found:    append([]string(nil), table.Columns...),
	}
}

// ValidateTable runs every check against one table.
func ValidateTable(category types.Category, table *types.Table) *ValidationResult {
	result := &ValidationResult{IsValid: true}
	validateInto(result, category, table)
	return result
}

// ValidateTables runs every check against each present table, in
// types.RequiredCategories order.
func ValidateTables(tables map[types.Category]*types.Table) *ValidationResult {
	result := &ValidationResult{IsValid: true}
	for _, category := range types.RequiredCategories {
		if table, ok := tables[category]; ok && table != nil {
			validateInto(result, category, table)
		}
	}
	return result
}

func validateInto(result *ValidationResult, category types.Category, table *types.Table) {
	if err := RequireColumns(category, table); err != nil {
		result.add(&ValidationError{
			Severity: SeverityError,
			Category: category,
			Source:   table.Source,
			Message:  err.Error(),
		})
		return
	}

	if len(table.Rows) == 0 {
		result.add(&ValidationError{
			Severity: SeverityWarning,
			Category: category,
			Source:   table.Source,
			Message:  "table has no data rows",
		})
		return
	}

	keyColumn := category.RequiredColumns()[0]
	for i, row := range table.Rows {
		result.RowsChecked++
		if strings.TrimSpace(row[keyColumn]) == "" {
			result.add(&ValidationError{
				Severity:  SeverityWarning,
				Category:  category,
				Source:    table.Source,
				RowNumber: i + 1,
				Column:    keyColumn,
				Message:   "blank lookup key",
			})
		}
	}
}

// =============================================================================
// FORMATTING
// =============================================================================

// FormatErrors formats findings for display or logging.
func FormatErrors(errors []*ValidationError) string {
	if len(errors) == 0 {
		return "No validation errors."
	}

	var builder strings.Builder
	fmt.Fprintf(&builder, "Validation completed with %d finding(s):\n\n", len(errors))
	for i, err := range errors {
		fmt.Fprintf(&builder, "%d. %s\n", i+1, err.Error())
	}

	return builder.String()
}
