package converter

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/ginjaninja78/subledger-mapper/internal/config"
	"github.com/ginjaninja78/subledger-mapper/internal/csvparser"
	"github.com/ginjaninja78/subledger-mapper/internal/mapping"
	"github.com/ginjaninja78/subledger-mapper/internal/types"
	"github.com/ginjaninja78/subledger-mapper/internal/xlsxparser"
	"github.com/ginjaninja78/subledger-mapper/pkg/utils"
	"go.uber.org/zap"
)

// ErrNoTransactionsFile is returned when no transaction file is configured.
var ErrNoTransactionsFile = errors.New("no transactions file configured")

// LoadedTables is the outcome of loading the rule tables.
type LoadedTables struct {
	// Tables holds one table per category found.
	Tables map[types.Category]*types.Table

	// Files names the source of each loaded table.
	Files map[types.Category]string

	// Skipped lists mapping files whose names matched no category.
	Skipped []string
}

// SourceFiles returns the loaded source paths in category order.
func (l *LoadedTables) SourceFiles() []string {
	var files []string
	for _, category := range types.RequiredCategories {
		if file, ok := l.Files[category]; ok {
			files = append(files, file)
		}
	}
	return files
}

// LoadTransactions reads the configured transaction file and returns its
// DTL records and the number of data rows read.
func LoadTransactions(cfg *config.MainConfig) ([]types.TransactionRecord, int, error) {
	if cfg.TransactionsFile == "" {
		return nil, 0, ErrNoTransactionsFile
	}

	data, err := csvparser.ParseTransactions(cfg.TransactionsFile, cfg.TransactionCSV)
	if err != nil {
		return nil, 0, err
	}

	return types.DetailRecords(data.Rows), data.RowCount, nil
}

// LoadTables discovers and parses the rule tables. Mapping files are
// classified by name; a later file for the same category replaces an earlier
// one. The product table comes from the configured workbook. Absent
// categories are left out and reported when the repository is built.
func LoadTables(cfg *config.MainConfig, logger *zap.Logger) (*LoadedTables, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	loaded := &LoadedTables{
		Tables: make(map[types.Category]*types.Table),
		Files:  make(map[types.Category]string),
	}

	files, err := utils.DiscoverFiles(cfg.MappingDir, cfg.MappingPattern)
	if err != nil {
		return nil, fmt.Errorf("failed to discover mapping files: %w", err)
	}

	for _, file := range files {
		category, ok := mapping.ClassifyFile(file)
		if !ok {
			logger.Info("skipped mapping file (unrecognized name)", zap.String("file", filepath.Base(file)))
			loaded.Skipped = append(loaded.Skipped, file)
			continue
		}

		table, err := csvparser.ParseMappingFile(file, cfg.MappingCSV)
		if err != nil {
			return nil, fmt.Errorf("failed to load %s mapping: %w", category, err)
		}

		if previous, ok := loaded.Files[category]; ok {
			logger.Info("mapping file replaces earlier file",
				zap.String("category", string(category)),
				zap.String("file", filepath.Base(file)),
				zap.String("replaced", filepath.Base(previous)),
			)
		}

		loaded.Tables[category] = table
		loaded.Files[category] = file

		logger.Debug("loaded mapping file",
			zap.String("category", string(category)),
			zap.String("file", filepath.Base(file)),
			zap.Int("rows", len(table.Rows)),
		)
	}

	if cfg.ProductFile != "" {
		table, err := xlsxparser.ParseProductMapping(cfg.ProductFile, cfg.ProductSheet)
		if err != nil {
			return nil, fmt.Errorf("failed to load product mapping: %w", err)
		}
		loaded.Tables[types.CategoryProduct] = table
		loaded.Files[types.CategoryProduct] = table.Source

		logger.Debug("loaded product mapping",
			zap.String("file", filepath.Base(cfg.ProductFile)),
			zap.String("sheet", cfg.ProductSheet),
			zap.Int("rows", len(table.Rows)),
		)
	}

	return loaded, nil
}
