package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"
)

// =============================================================================
// CSV OUTPUT
// =============================================================================

// WriteCSV writes a table as comma-separated values with a header row.
func WriteCSV(w io.Writer, table Table) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(table.Header); err != nil {
		return fmt.Errorf("failed to write %s header: %w", table.Name, err)
	}
	if err := writer.WriteAll(table.Rows); err != nil {
		return fmt.Errorf("failed to write %s rows: %w", table.Name, err)
	}

	return nil
}

// WriteCSVFile writes a table to path, creating parent directories.
func WriteCSVFile(path string, table Table) (err error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer func() {
		if closeErr := file.Close(); err == nil && closeErr != nil {
			err = fmt.Errorf("failed to close %s: %w", path, closeErr)
		}
	}()

	return WriteCSV(file, table)
}

// =============================================================================
// XLSX OUTPUT
// =============================================================================

// WriteWorkbook writes the tables as sheets of one workbook, in order, with
// a bold frozen header row on each sheet.
func WriteWorkbook(path string, tables []Table) error {
	if len(tables) == 0 {
		return fmt.Errorf("no tables to write")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	for i, table := range tables {
		if i == 0 {
			if err := f.SetSheetName(f.GetSheetName(0), table.Name); err != nil {
				return fmt.Errorf("failed to name sheet %s: %w", table.Name, err)
			}
		} else if _, err := f.NewSheet(table.Name); err != nil {
			return fmt.Errorf("failed to add sheet %s: %w", table.Name, err)
		}

		if err := writeSheet(f, table, headerStyle); err != nil {
			return err
		}
	}

	f.SetActiveSheet(0)

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook %s: %w", path, err)
	}
	return nil
}

func writeSheet(f *excelize.File, table Table, headerStyle int) error {
	if err := setRow(f, table.Name, 1, table.Header); err != nil {
		return err
	}

	if len(table.Header) > 0 {
		last, err := excelize.CoordinatesToCellName(len(table.Header), 1)
		if err != nil {
			return fmt.Errorf("failed to address header of %s: %w", table.Name, err)
		}
		if err := f.SetCellStyle(table.Name, "A1", last, headerStyle); err != nil {
			return fmt.Errorf("failed to style header of %s: %w", table.Name, err)
		}
		if err := f.SetPanes(table.Name, &excelize.Panes{
			Freeze:      true,
			YSplit:      1,
			TopLeftCell: "A2",
			ActivePane:  "bottomLeft",
		}); err != nil {
			return fmt.Errorf("failed to freeze header of %s: %w", table.Name, err)
		}
	}

	for i, row := range table.Rows {
		if err := setRow(f, table.Name, i+2, row); err != nil {
			return err
		}
	}

	return nil
}

// setRow writes values as text cells so account codes keep leading zeros.
func setRow(f *excelize.File, sheet string, rowNumber int, values []string) error {
	cell, err := excelize.CoordinatesToCellName(1, rowNumber)
	if err != nil {
		return fmt.Errorf("failed to address row %d of %s: %w", rowNumber, sheet, err)
	}

	cells := make([]interface{}, len(values))
	for i, value := range values {
		cells[i] = value
	}

	if err := f.SetSheetRow(sheet, cell, &cells); err != nil {
		return fmt.Errorf("failed to write row %d of %s: %w", rowNumber, sheet, err)
	}
	return nil
}
