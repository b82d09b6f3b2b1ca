// =============================================================================
// Subledger Mapper - CSV Parser Module
// =============================================================================
//
// This module reads the delimited inputs of a run:
//   - The transaction extract (positional, see ParseTransactions)
//   - The five rule tables (pipe-delimited, see ParseMappingFile)
//
// FEATURES:
//   - Configurable delimiter with an optional fallback delimiter
//   - Multi-line headers (merged column by column)
//   - Non-UTF-8 encodings via golang.org/x/text (see encoding.go)
//   - Every value trimmed; fully empty rows skipped
//
// =============================================================================

package csvparser

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/ginjaninja78/subledger-mapper/internal/config"
)

// =============================================================================
// CSV DATA STRUCTURE
// =============================================================================

// CSVData represents a parsed delimited file.
type CSVData struct {
	// Headers contains the column headers. For multi-line headers these are
	// the merged headers.
	Headers []string

	// Rows contains the data rows as maps of header -> trimmed value.
	Rows []map[string]string

	// SourceFile is the path to the source file.
	SourceFile string

	// Delimiter is the delimiter the file was finally parsed with.
	Delimiter rune

	// RowCount is the number of data rows (excluding headers and empty rows).
	RowCount int

	// ColumnCount is the number of columns.
	ColumnCount int
}

// =============================================================================
// PARSER FUNCTIONS
// =============================================================================

// Parse reads a delimited file with named headers.
//
// PARSING PROCESS:
//   1. Read and decode the file with the configured encoding
//   2. Parse with the configured delimiter
//   3. Retry with the fallback delimiter if the first pass produced a single
//      column that contains it
//   4. Merge header rows and convert each data row to a map
func Parse(filePath string, settings config.CSVSettings) (*CSVData, error) {
	content, err := readDecoded(filePath, settings.Encoding)
	if err != nil {
		return nil, err
	}

	delimiter := delimiterRune(settings.Delimiter)
	allRows, parseErr := parseRows(content, delimiter)

	if fallback := delimiterRune(settings.FallbackDelimiter); settings.FallbackDelimiter != "" &&
		fallback != delimiter && needsFallback(allRows, parseErr, fallback) {
		delimiter = fallback
		allRows, parseErr = parseRows(content, delimiter)
	}

	if parseErr != nil {
		return nil, fmt.Errorf("failed to read CSV %s: %w", filePath, parseErr)
	}

	if len(allRows) == 0 {
		return nil, fmt.Errorf("CSV file is empty: %s", filePath)
	}

	headers, err := extractHeaders(allRows, settings.HeaderRows)
	if err != nil {
		return nil, fmt.Errorf("failed to extract headers from %s: %w", filePath, err)
	}

	dataRows := extractDataRows(allRows[settings.HeaderRows:], headers)

	return &CSVData{
		Headers:     headers,
		Rows:        dataRows,
		SourceFile:  filePath,
		Delimiter:   delimiter,
		RowCount:    len(dataRows),
		ColumnCount: len(headers),
	}, nil
}

// parseRows parses decoded content with the given delimiter.
func parseRows(content []byte, delimiter rune) ([][]string, error) {
	csvReader := csv.NewReader(bytes.NewReader(content))
	configureReader(csvReader, delimiter)
	return csvReader.ReadAll()
}

// needsFallback reports whether a first pass looks like the wrong delimiter
// was used: it failed, or its header is one column still containing the
// fallback delimiter.
func needsFallback(rows [][]string, err error, fallback rune) bool {
	if err != nil {
		return true
	}
	if len(rows) == 0 {
		return false
	}
	return len(rows[0]) == 1 && strings.ContainsRune(rows[0][0], fallback)
}

// delimiterRune resolves a configured delimiter name to a rune.
func delimiterRune(delimiter string) rune {
	switch delimiter {
	case "\\t", "\t", "tab", "TAB":
		return '\t'
	case "|", "pipe", "PIPE":
		return '|'
	case ";", "semicolon":
		return ';'
	default:
		if len(delimiter) > 0 {
			return []rune(delimiter)[0]
		}
		return ','
	}
}

// configureReader configures the CSV reader.
func configureReader(reader *csv.Reader, delimiter rune) {
	reader.Comma = delimiter

	// Rows may be ragged; short rows are padded later.
	reader.FieldsPerRecord = -1

	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
}

// extractHeaders merges the first headerRows rows into one header row.
//
//   Row 1: "DTV", "", "ATT"
//   Row 2: "Main", "Sub", "Company"
//   Result: "DTV Main", "Sub", "ATT Company"
func extractHeaders(allRows [][]string, headerRows int) ([]string, error) {
	if headerRows <= 0 {
		return nil, fmt.Errorf("header_rows must be at least 1")
	}

	if len(allRows) < headerRows {
		return nil, fmt.Errorf("file has fewer rows than header_rows setting")
	}

	if headerRows == 1 {
		return cleanHeaders(allRows[0]), nil
	}

	maxCols := 0
	for i := 0; i < headerRows; i++ {
		if len(allRows[i]) > maxCols {
			maxCols = len(allRows[i])
		}
	}

	headers := make([]string, maxCols)
	for col := 0; col < maxCols; col++ {
		var parts []string
		for row := 0; row < headerRows; row++ {
			if col < len(allRows[row]) {
				if value := strings.TrimSpace(allRows[row][col]); value != "" {
					parts = append(parts, value)
				}
			}
		}
		headers[col] = strings.Join(parts, " ")
	}

	return cleanHeaders(headers), nil
}

// cleanHeaders trims header values and names empty ones by position.
func cleanHeaders(headers []string) []string {
	cleaned := make([]string, len(headers))

	for i, header := range headers {
		header = strings.TrimSpace(header)
		if header == "" {
			header = fmt.Sprintf("Column_%d", i+1)
		}
		cleaned[i] = header
	}

	return cleaned
}

// extractDataRows converts raw rows to maps keyed by headers. Missing cells
// become empty strings and empty rows are skipped.
func extractDataRows(rows [][]string, headers []string) []map[string]string {
	dataRows := make([]map[string]string, 0, len(rows))

	for _, row := range rows {
		if isRowEmpty(row) {
			continue
		}
		dataRows = append(dataRows, rowMap(row, headers))
	}

	return dataRows
}

func rowMap(row, headers []string) map[string]string {
	m := make(map[string]string, len(headers))
	for colIndex, header := range headers {
		if colIndex < len(row) {
			m[header] = strings.TrimSpace(row[colIndex])
		} else {
			m[header] = ""
		}
	}
	return m
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

// readAllFrom is io.ReadAll with a wrapped error.
func readAllFrom(r io.Reader, filePath string) ([]byte, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", filePath, err)
	}
	return content, nil
}
