// =============================================================================
// Subledger Mapper - Report Tables
// =============================================================================
//
// Turns pipeline output into the three report tables:
//
//   Grouped_Summary    one debit and/or credit line per group, then TOTAL
//   Detailed_DTL       every resolved DTL record with its resolved fields
//   Unmatched_Records  diagnostic subset of flagged records
//
// Tables are plain header + string rows; writer.go writes them as CSV
// files and as one workbook.
//
// =============================================================================

package report

import (
	"github.com/ginjaninja78/subledger-mapper/internal/aggregate"
	"github.com/ginjaninja78/subledger-mapper/internal/mapping"
	"github.com/ginjaninja78/subledger-mapper/internal/types"
)

// Report table names. They double as CSV base names and sheet names.
const (
	SummaryName   = "Grouped_Summary"
	DetailName    = "Detailed_DTL"
	UnmatchedName = "Unmatched_Records"

	// WorkbookName is the base name of the optional XLSX workbook.
	WorkbookName = "Subledger_Report"
)

// Table is one named report table.
type Table struct {
	Name   string
	Header []string
	Rows   [][]string
}

// Report holds the three report tables of a run.
type Report struct {
	Summary   Table
	Detail    Table
	Unmatched Table
}

// New builds the report tables.
func New(records []types.ResolvedRecord, lines []types.SummaryLine, unmatched []types.UnmatchedRecord) *Report {
	return &Report{
		Summary:   SummaryTable(lines),
		Detail:    DetailTable(records),
		Unmatched: UnmatchedTable(unmatched),
	}
}

// Tables returns the tables in the order they are written.
func (r *Report) Tables() []Table {
	return []Table{r.Summary, r.Detail, r.Unmatched}
}

// =============================================================================
// SUMMARY
// =============================================================================

// SummaryHeader is the header of the grouped summary.
var SummaryHeader = []string{
	"DTV_Company",
	"DTV_Main_Account",
	"AccountType",
	"DTV_Sub_Account",
	"DTV_Cost_Center",
	"FIN_PRD_CD",
	"Debit",
	"Credit",
	"Account",
}

// SummaryTable renders summary lines. The total line carries only the TOTAL
// label and the grand totals.
func SummaryTable(lines []types.SummaryLine) Table {
	table := Table{Name: SummaryName, Header: SummaryHeader, Rows: make([][]string, 0, len(lines))}

	for _, line := range lines {
		if line.Total {
			table.Rows = append(table.Rows, []string{
				aggregate.TotalLabel, "", "", "", "", "", line.Debit, line.Credit, "",
			})
			continue
		}

		row := line.Row
		table.Rows = append(table.Rows, []string{
			row.Company,
			row.MainAccount,
			row.AccountType,
			row.SubAccount,
			row.CostCenter,
			row.FinancialProduct,
			line.Debit,
			line.Credit,
			row.Account,
		})
	}

	return table
}

// =============================================================================
// DETAIL
// =============================================================================

// Resolved columns appended after the input fields of the detail table.
var detailResolvedColumns = []string{
	"FIN_PRD_CD",
	"Product",
	"DTV_Main_Account",
	"DTV_Sub_Account",
	"AccountType_Code",
	"AccountType",
	"DTV_Company",
	"DTV_Cost_Center",
	"Debit",
	"Credit",
	"Intercompany",
	"TaxJurisdiction",
	"Reserved1",
	"Reserved2",
	"Account",
	"Product Code (Mapped)",
}

// DetailHeader returns the header of the detail table.
func DetailHeader() []string {
	header := make([]string, 0, len(types.TransactionFields)+len(detailResolvedColumns))
	header = append(header, types.TransactionFields...)
	return append(header, detailResolvedColumns...)
}

// DetailTable renders every resolved record in input order. Amount, Debit
// and Credit are shown with two decimals.
func DetailTable(records []types.ResolvedRecord) Table {
	table := Table{Name: DetailName, Header: DetailHeader(), Rows: make([][]string, 0, len(records))}

	for _, r := range records {
		row := make([]string, 0, len(table.Header))
		for _, field := range types.TransactionFields {
			switch field {
			case types.FieldAmount:
				row = append(row, aggregate.FormatAmount(r.Record.Amount))
				continue
			case types.FieldProductCode:
				row = append(row, mapping.Normalize(r.Record.ProductCode))
				continue
			}
			row = append(row, r.Record.Field(field))
		}

		product := r.DisplayProduct()
		row = append(row,
			r.FinancialProduct,
			product,
			r.MainAccount,
			r.SubAccount,
			r.AccountTypeCode,
			r.AccountType,
			r.Company,
			r.CostCenter,
			aggregate.FormatAmount(r.Debit),
			aggregate.FormatAmount(r.Credit),
			r.Account.Intercompany,
			r.Account.TaxJurisdiction,
			r.Account.Reserved1,
			r.Account.Reserved2,
			r.Account.String(),
			product,
		)
		table.Rows = append(table.Rows, row)
	}

	return table
}

// =============================================================================
// UNMATCHED
// =============================================================================

// UnmatchedHeader is the header of the unmatched table.
var UnmatchedHeader = []string{
	"Product Code",
	"FIN_PRD_CD",
	"Product",
	"DTV_Company",
	"DTV_Main_Account",
	"DTV_Sub_Account",
	"Amount",
	"Reasons",
}

// UnmatchedTable renders flagged records in input order.
func UnmatchedTable(records []types.UnmatchedRecord) Table {
	table := Table{Name: UnmatchedName, Header: UnmatchedHeader, Rows: make([][]string, 0, len(records))}

	for _, u := range records {
		r := u.Resolved
		table.Rows = append(table.Rows, []string{
			mapping.Normalize(r.Record.ProductCode),
			r.FinancialProduct,
			r.DisplayProduct(),
			r.Company,
			r.MainAccount,
			r.SubAccount,
			aggregate.FormatAmount(r.Record.Amount),
			u.ReasonList(),
		})
	}

	return table
}
