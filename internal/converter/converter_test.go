package converter

import (
	"context"
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ginjaninja78/subledger-mapper/internal/config"
	"github.com/ginjaninja78/subledger-mapper/internal/history"
	"github.com/ginjaninja78/subledger-mapper/internal/mapping"
	"github.com/ginjaninja78/subledger-mapper/internal/report"
	"github.com/ginjaninja78/subledger-mapper/internal/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

var fixedTime = time.Date(2024, 1, 15, 14, 30, 22, 0, time.UTC)

const transactionsCSV = `Record Type,Company Code,Source,Type,Date,Period,Location,RCO,RCC,GL Account,Reference,Activity,EXTC,Journal,Amount,Product Code,Currency,Stat,Comment
HDR,,,,,,,,,,,,,,,,,,
DTL,ATT1,SRC,T1,2024-01-10,202401,LOC1,RCO1,RC1,4000,REF1,ACT,10,JC,150.00,P1,USD,,first
DTL,att1,SRC,T1,2024-01-11,202401,LOC1,RCO1,RC1,4000,REF2,ACT,10,JC,-50.00,p1,USD,,second
DTL,ATT9,SRC,T1,2024-01-12,202401,LOC1,RCO1,,9999,REF3,ACT,,JC,7,P9,USD,,third
`

// writeFixture lays out a complete set of inputs under a temp dir and
// returns a config pointing at them.
func writeFixture(t *testing.T) *config.MainConfig {
	t.Helper()
	root := t.TempDir()

	write := func(path, content string) {
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}

	write(filepath.Join(root, "in", "transactions.csv"), transactionsCSV)

	mappings := filepath.Join(root, "mappings")
	write(filepath.Join(mappings, "mam.txt"), "GL Account|EXTC|DTV_Main_Account\n4000|10|100100\n4000|*|100999\n")
	write(filepath.Join(mappings, "sam.txt"), "GL Account|EXTC|DTV_Sub_Account\n4000|*|200200\n")
	write(filepath.Join(mappings, "ma.txt"), "MainAccount|AccountType\n100100|R\n")
	write(filepath.Join(mappings, "company.txt"), "ATT_Company|DTV_Company\nATT1|DTV1\n")
	write(filepath.Join(mappings, "ccm.txt"), "RCC|AccountType|DTV_Cost_Center\nRC1|R|CC100\n")
	write(filepath.Join(mappings, "notes.txt"), "not a rule table\n")

	productFile := filepath.Join(root, "products.xlsx")
	f := excelize.NewFile()
	require.NoError(t, f.SetSheetName("Sheet1", config.DefaultProductSheet))
	require.NoError(t, f.SetSheetRow(config.DefaultProductSheet, "A1", &[]interface{}{"ATT_SLS_PRD_ID", "FIN_PRD_CD"}))
	require.NoError(t, f.SetSheetRow(config.DefaultProductSheet, "A2", &[]interface{}{"P1", "FIN1"}))
	require.NoError(t, f.SaveAs(productFile))
	require.NoError(t, f.Close())

	cfg := config.Default()
	cfg.TransactionsFile = filepath.Join(root, "in", "transactions.csv")
	cfg.MappingDir = mappings
	cfg.ProductFile = productFile
	cfg.OutputDir = filepath.Join(root, "out")
	cfg.InputArchiveDir = filepath.Join(root, "archive")
	cfg.OutputNameFormat = "{name}_{uuid}.csv"
	require.NoError(t, cfg.Validate())
	return cfg
}

func newTestConverter(cfg *config.MainConfig, logger *zap.Logger, opts ...Option) *Converter {
	opts = append([]Option{
		WithClock(func() time.Time { return fixedTime }),
		WithRunID(func() string { return "run-1" }),
	}, opts...)
	return New(cfg, logger, opts...)
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	file, err := os.Open(path)
	require.NoError(t, err)
	defer file.Close()

	rows, err := csv.NewReader(file).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestRunEndToEnd(t *testing.T) {
	cfg := writeFixture(t)
	cfg.WriteXLSX = true
	cfg.ArchiveInputs = true
	cfg.HistoryDB = filepath.Join(filepath.Dir(cfg.OutputDir), "history", "runs.db")

	core, logs := observer.New(zapcore.InfoLevel)
	result := newTestConverter(cfg, zap.New(core)).Run(context.Background())
	require.NoError(t, result.Error)
	require.True(t, result.Success)

	assert.Equal(t, "run-1", result.RunID)
	assert.Equal(t, 4, result.Stats.RowsRead)
	assert.Equal(t, 3, result.Stats.DetailRecords)
	assert.Equal(t, 6, result.Stats.MappingFiles)
	assert.Equal(t, 1, result.Stats.SkippedFiles)
	assert.Equal(t, 2, result.Stats.Groups)
	assert.Equal(t, 1, result.Stats.Unmatched)
	assert.Equal(t, "157.00", result.TotalDebit.StringFixed(2))
	assert.Equal(t, "50.00", result.TotalCredit.StringFixed(2))

	t.Run("summary csv", func(t *testing.T) {
		path := result.OutputFiles[report.SummaryName]
		assert.Equal(t, filepath.Join(cfg.OutputDir, "Grouped_Summary_run-1.csv"), path)

		rows := readCSV(t, path)
		require.Len(t, rows, 5)
		assert.Equal(t, report.SummaryHeader, rows[0])
		assert.Equal(t, []string{"DTV1", "100100", "Revenue", "200200", "CC100", "FIN1", "150.00", "", "DTV1*100100*200200*CC100*0000*FIN1*000*00000*00000"}, rows[1])
		assert.Equal(t, []string{"DTV1", "100100", "Revenue", "200200", "CC100", "FIN1", "", "50.00", "DTV1*100100*200200*CC100*0000*FIN1*000*00000*00000"}, rows[2])
		assert.Equal(t, "NULL", rows[3][0])
		assert.Equal(t, []string{"TOTAL", "", "", "", "", "", "157.00", "50.00", ""}, rows[4])
	})

	t.Run("detail and unmatched csv", func(t *testing.T) {
		detail := readCSV(t, result.OutputFiles[report.DetailName])
		assert.Len(t, detail, 4)

		unmatched := readCSV(t, result.OutputFiles[report.UnmatchedName])
		require.Len(t, unmatched, 2)
		assert.Equal(t, "P9", unmatched[1][0])
		assert.Equal(t, "main_account,sub_account,company,product", unmatched[1][len(unmatched[1])-1])
	})

	t.Run("workbook", func(t *testing.T) {
		assert.Equal(t, filepath.Join(cfg.OutputDir, "Subledger_Report_run-1.xlsx"), result.WorkbookFile)

		f, err := excelize.OpenFile(result.WorkbookFile)
		require.NoError(t, err)
		defer f.Close()
		assert.Equal(t, []string{report.SummaryName, report.DetailName, report.UnmatchedName}, f.GetSheetList())
	})

	t.Run("archive and summary log", func(t *testing.T) {
		assert.Equal(t, filepath.Join(cfg.InputArchiveDir, "transactions.csv"), result.ArchivePath)
		assert.FileExists(t, result.ArchivePath)
		assert.FileExists(t, cfg.TransactionsFile)

		content, err := os.ReadFile(result.SummaryLog)
		require.NoError(t, err)
		assert.Contains(t, string(content), "Total Debit:    157.00")
	})

	t.Run("history", func(t *testing.T) {
		store, err := history.Open(cfg.HistoryDB)
		require.NoError(t, err)
		defer store.Close()

		run, err := store.GetRun(context.Background(), "run-1")
		require.NoError(t, err)
		assert.Equal(t, 3, run.Records)
		assert.Equal(t, 1, run.Unmatched)
		assert.True(t, run.TotalDebit.Equal(decimal.RequireFromString("157")))
		assert.Equal(t, result.OutputFiles[report.DetailName], run.DetailFile)

		entries, err := store.UnmatchedForRun(context.Background(), "run-1")
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, 4, entries[0].RowNumber)
	})

	t.Run("logs", func(t *testing.T) {
		skipped := logs.FilterMessage("skipped mapping file (unrecognized name)").All()
		require.Len(t, skipped, 1)
		assert.Equal(t, "notes.txt", skipped[0].ContextMap()["file"])
		assert.Equal(t, 1, logs.FilterMessage("run complete").Len())
		assert.Equal(t, "run-1", logs.FilterMessage("run complete").All()[0].ContextMap()["run_id"])
	})
}

func TestRunDryRunWritesNothing(t *testing.T) {
	cfg := writeFixture(t)
	cfg.WriteXLSX = true
	cfg.ArchiveInputs = true
	cfg.HistoryDB = filepath.Join(cfg.OutputDir, "runs.db")

	result := newTestConverter(cfg, nil, WithDryRun(true)).Run(context.Background())
	require.NoError(t, result.Error)

	assert.True(t, result.Success)
	assert.True(t, result.DryRun)
	assert.Empty(t, result.OutputFiles)
	assert.Empty(t, result.ArchivePath)
	assert.Equal(t, "157.00", result.TotalDebit.StringFixed(2))
	require.NotNil(t, result.Output)
	assert.Len(t, result.Output.Unmatched, 1)

	assert.NoDirExists(t, cfg.OutputDir)
	assert.NoDirExists(t, cfg.InputArchiveDir)
}

func TestRunShardedMatchesSequential(t *testing.T) {
	cfg := writeFixture(t)

	sequential := newTestConverter(cfg, nil, WithDryRun(true)).Run(context.Background())
	require.NoError(t, sequential.Error)

	cfg.Workers = 3
	sharded := newTestConverter(cfg, nil, WithDryRun(true)).Run(context.Background())
	require.NoError(t, sharded.Error)

	assert.Equal(t, flattenOutput(sequential.Output), flattenOutput(sharded.Output))
}

func TestRunMissingProductTable(t *testing.T) {
	cfg := writeFixture(t)
	cfg.ProductFile = ""

	result := newTestConverter(cfg, nil).Run(context.Background())
	require.Error(t, result.Error)
	assert.False(t, result.Success)
	assert.Nil(t, result.Output)

	var missing *mapping.MissingMappingTableError
	require.True(t, errors.As(result.Error, &missing))
	assert.Equal(t, []types.Category{types.CategoryProduct}, missing.Categories)

	assert.NoDirExists(t, cfg.OutputDir)
}

func TestRunMissingMappingFile(t *testing.T) {
	cfg := writeFixture(t)
	require.NoError(t, os.Remove(filepath.Join(cfg.MappingDir, "ccm.txt")))

	result := newTestConverter(cfg, nil).Run(context.Background())
	assert.True(t, errors.Is(result.Error, mapping.ErrMissingMappingTable))
	assert.Contains(t, result.Error.Error(), "ccm")
}

func TestRunErrors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(cfg *config.MainConfig)
		wantErr string
	}{
		{
			name:    "no transactions file",
			mutate:  func(cfg *config.MainConfig) { cfg.TransactionsFile = "" },
			wantErr: ErrNoTransactionsFile.Error(),
		},
		{
			name:    "transactions file missing",
			mutate:  func(cfg *config.MainConfig) { cfg.TransactionsFile += ".missing" },
			wantErr: "failed to load transactions",
		},
		{
			name:    "mapping dir missing",
			mutate:  func(cfg *config.MainConfig) { cfg.MappingDir += "-missing" },
			wantErr: "failed to discover mapping files",
		},
		{
			name:    "product sheet missing",
			mutate:  func(cfg *config.MainConfig) { cfg.ProductSheet = "Nope" },
			wantErr: "failed to load product mapping",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := writeFixture(t)
			tt.mutate(cfg)

			result := newTestConverter(cfg, nil).Run(context.Background())
			require.Error(t, result.Error)
			assert.True(t, strings.Contains(result.Error.Error(), tt.wantErr), result.Error.Error())
		})
	}
}

func TestLoadTablesLaterFileReplaces(t *testing.T) {
	cfg := writeFixture(t)
	replacement := filepath.Join(cfg.MappingDir, "company_v2.txt")
	require.NoError(t, os.WriteFile(replacement, []byte("ATT_Company|DTV_Company\nATT1|DTV7\n"), 0644))

	core, logs := observer.New(zapcore.InfoLevel)
	loaded, err := LoadTables(cfg, zap.New(core))
	require.NoError(t, err)

	assert.Equal(t, replacement, loaded.Files[types.CategoryCompany])
	assert.Equal(t, "DTV7", loaded.Tables[types.CategoryCompany].Rows[0][types.ColumnDTVCompany])
	assert.Equal(t, 1, logs.FilterMessage("mapping file replaces earlier file").Len())
	assert.Len(t, loaded.SourceFiles(), 6)
}
