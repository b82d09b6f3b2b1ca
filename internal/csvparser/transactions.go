package csvparser

import (
	"fmt"

	"github.com/ginjaninja78/subledger-mapper/internal/config"
	"github.com/ginjaninja78/subledger-mapper/internal/types"
)

// ParseTransactions reads the transaction extract. Header text is ignored:
// the first len(types.TransactionFields) columns are mapped by position onto
// the fixed field names, short rows are padded with empty strings and extra
// columns are dropped.
//
// Record Type filtering is not done here; see types.DetailRecords.
func ParseTransactions(filePath string, settings config.CSVSettings) (*CSVData, error) {
	content, err := readDecoded(filePath, settings.Encoding)
	if err != nil {
		return nil, err
	}

	delimiter := delimiterRune(settings.Delimiter)
	allRows, err := parseRows(content, delimiter)
	if err != nil {
		return nil, fmt.Errorf("failed to read transactions %s: %w", filePath, err)
	}

	if len(allRows) == 0 {
		return nil, fmt.Errorf("transaction file is empty: %s", filePath)
	}

	headerRows := settings.HeaderRows
	if headerRows < 0 {
		headerRows = 0
	}
	if headerRows > len(allRows) {
		headerRows = len(allRows)
	}

	rows := extractDataRows(allRows[headerRows:], types.TransactionFields)

	return &CSVData{
		Headers:     append([]string(nil), types.TransactionFields...),
		Rows:        rows,
		SourceFile:  filePath,
		Delimiter:   delimiter,
		RowCount:    len(rows),
		ColumnCount: len(types.TransactionFields),
	}, nil
}
