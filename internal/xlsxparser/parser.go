// =============================================================================
// Subledger Mapper - XLSX Parser
// =============================================================================
//
// This module reads worksheet tables from XLSX workbooks. The product
// cross-reference is delivered as one sheet of a workbook:
//
//   | ATT_SLS_PRD_ID | FIN_PRD_CD | ...        |
//   |----------------|------------|------------|
//   | P1             | FIN1       |            |
//
// Row 1 is the header row. Headers and values are trimmed. Columns other
// than the two the product rules need are kept and ignored downstream.
//
// =============================================================================

package xlsxparser

import (
	"fmt"
	"strings"

	"github.com/ginjaninja78/subledger-mapper/internal/types"
	"github.com/ginjaninja78/subledger-mapper/internal/validation"
	"github.com/xuri/excelize/v2"
)

// ParseProductMapping reads the product cross-reference sheet and checks
// that its rule columns are present.
//
// RETURNS:
//   - The product table.
//   - An error if the workbook or sheet cannot be read, or a
//     *validation.MissingColumnError listing the columns that were found.
func ParseProductMapping(workbookPath, sheet string) (*types.Table, error) {
	table, err := ParseSheet(workbookPath, sheet)
	if err != nil {
		return nil, err
	}

	if err := validation.RequireColumns(types.CategoryProduct, table); err != nil {
		return nil, err
	}

	return table, nil
}

// ParseSheet reads one worksheet as a table with a header row.
func ParseSheet(workbookPath, sheet string) (*types.Table, error) {
	f, err := excelize.OpenFile(workbookPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	if index, err := f.GetSheetIndex(sheet); err != nil || index < 0 {
		return nil, fmt.Errorf("sheet %q not found in %s (sheets: %s)",
			sheet, workbookPath, strings.Join(f.GetSheetList(), ", "))
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read rows of sheet %q: %w", sheet, err)
	}

	table := &types.Table{Source: fmt.Sprintf("%s[%s]", workbookPath, sheet)}
	if len(rows) == 0 {
		return table, nil
	}

	table.Columns = make([]string, len(rows[0]))
	for i, header := range rows[0] {
		table.Columns[i] = strings.TrimSpace(header)
	}

	for _, row := range rows[1:] {
		if isRowEmpty(row) {
			continue
		}

		values := make(map[string]string, len(table.Columns))
		for col, header := range table.Columns {
			if header == "" {
				continue
			}
			// GetRows trims trailing empty cells, so rows may be short.
			if col < len(row) {
				values[header] = strings.TrimSpace(row[col])
			} else {
				values[header] = ""
			}
		}
		table.Rows = append(table.Rows, values)
	}

	return table, nil
}

// isRowEmpty checks if a row contains only empty values.
func isRowEmpty(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
