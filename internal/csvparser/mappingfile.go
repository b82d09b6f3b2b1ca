package csvparser

import (
	"github.com/ginjaninja78/subledger-mapper/internal/config"
	"github.com/ginjaninja78/subledger-mapper/internal/mapping"
	"github.com/ginjaninja78/subledger-mapper/internal/types"
)

// ParseMappingFile reads one rule table. Headers are canonicalised with
// mapping.CanonicalColumns so spelling variants in the source files resolve
// to the fixed column names; unrecognised headers are kept as read.
func ParseMappingFile(filePath string, settings config.CSVSettings) (*types.Table, error) {
	data, err := Parse(filePath, settings)
	if err != nil {
		return nil, err
	}

	columns := mapping.CanonicalColumns(data.Headers)

	table := &types.Table{
		Source:  filePath,
		Columns: columns,
		Rows:    make([]map[string]string, 0, len(data.Rows)),
	}

	for _, row := range data.Rows {
		canonical := make(map[string]string, len(columns))
		for i, header := range data.Headers {
			column := columns[i]
			// First column wins when two headers canonicalise alike.
			if _, exists := canonical[column]; exists {
				continue
			}
			canonical[column] = row[header]
		}
		table.Rows = append(table.Rows, canonical)
	}

	return table, nil
}
