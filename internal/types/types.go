// =============================================================================
// Subledger Mapper - Shared Types
// =============================================================================
//
// This package contains the data model shared by every stage of the mapping
// pipeline. Keeping it in one leaf package avoids import cycles between:
//   - mapping    (rule tables and the repository)
//   - resolver   (per-record lookup chain)
//   - aggregate  (summary folding)
//   - converter  (orchestration)
//   - report     (output tables)
//
// LIFECYCLE:
//   TransactionRecord  built once per DTL input row, never mutated afterwards
//   ResolvedRecord     built once per TransactionRecord after all lookups
//   SummaryRow         folded from every ResolvedRecord sharing a key
//   UnmatchedRecord    read-only view over a flagged ResolvedRecord
//
// =============================================================================

package types

import (
	"strings"

	"github.com/shopspring/decimal"
)

// =============================================================================
// TRANSACTION FIELD NAMES
// =============================================================================

// Field names of the fixed 19-column transaction layout, in positional order.
const (
	FieldRecordType         = "Record Type"
	FieldCompanyCode        = "Company Code"
	FieldTransactionSource  = "Transaction Source"
	FieldTransactionType    = "Transaction Type"
	FieldTransactionDate    = "Transaction Date"
	FieldAccountingPeriod   = "Accounting Period"
	FieldLocationCode       = "Location Code"
	FieldRCO                = "RCO"
	FieldRCC                = "RCC"
	FieldGLAccount          = "GL Account"
	FieldReferenceNumber    = "Reference Number"
	FieldActivityCode       = "Activity Code"
	FieldEXTC               = "EXTC"
	FieldJournalCategories  = "Journal Categories"
	FieldAmount             = "Amount"
	FieldProductCode        = "Product Code"
	FieldCurrency           = "Currency"
	FieldStat               = "Stat"
	FieldExpenditureComment = "Expenditure Comment"
)

// TransactionFields lists the transaction fields by column position.
var TransactionFields = []string{
	FieldRecordType,
	FieldCompanyCode,
	FieldTransactionSource,
	FieldTransactionType,
	FieldTransactionDate,
	FieldAccountingPeriod,
	FieldLocationCode,
	FieldRCO,
	FieldRCC,
	FieldGLAccount,
	FieldReferenceNumber,
	FieldActivityCode,
	FieldEXTC,
	FieldJournalCategories,
	FieldAmount,
	FieldProductCode,
	FieldCurrency,
	FieldStat,
	FieldExpenditureComment,
}

// DetailRecordType is the only record type that takes part in resolution.
const DetailRecordType = "DTL"

// =============================================================================
// TRANSACTION RECORD
// =============================================================================

// TransactionRecord is one DTL row of the transaction input.
type TransactionRecord struct {
	// RowNumber is the 1-based position of the row in the input sequence,
	// counted before DTL filtering.
	RowNumber int

	RecordType  string
	CompanyCode string
	GLAccount   string
	EXTC        string
	RCC         string
	RCO         string
	ProductCode string

	// Amount is the signed amount. Empty or non-numeric input becomes zero.
	Amount decimal.Decimal

	// Fields holds every input field (trimmed), including the passthrough
	// fields that resolution never reads.
	Fields map[string]string
}

// NewTransactionRecord builds a record from one field-value row.
// Values are trimmed; missing fields read as empty strings.
func NewTransactionRecord(rowNumber int, row map[string]string) TransactionRecord {
	fields := make(map[string]string, len(TransactionFields))
	for _, name := range TransactionFields {
		fields[name] = strings.TrimSpace(row[name])
	}

	return TransactionRecord{
		RowNumber:   rowNumber,
		RecordType:  fields[FieldRecordType],
		CompanyCode: fields[FieldCompanyCode],
		GLAccount:   fields[FieldGLAccount],
		EXTC:        fields[FieldEXTC],
		RCC:         fields[FieldRCC],
		RCO:         fields[FieldRCO],
		ProductCode: fields[FieldProductCode],
		Amount:      ParseAmount(fields[FieldAmount]),
		Fields:      fields,
	}
}

// Field returns the named input field, or "" when absent.
func (r TransactionRecord) Field(name string) string {
	return r.Fields[name]
}

// ParseAmount coerces a raw amount to a decimal. Empty and non-coercible
// values become zero.
func ParseAmount(raw string) decimal.Decimal {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero
	}

	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero
	}

	return amount
}

// DetailRecords converts raw rows into TransactionRecords, keeping only DTL
// rows. When no row carries a Record Type field at all, every row is
// treated as DTL.
func DetailRecords(rows []map[string]string) []TransactionRecord {
	hasRecordType := false
	for _, row := range rows {
		if _, ok := row[FieldRecordType]; ok {
			hasRecordType = true
			break
		}
	}

	records := make([]TransactionRecord, 0, len(rows))
	for i, row := range rows {
		record := NewTransactionRecord(i+1, row)

		if !hasRecordType {
			record.RecordType = DetailRecordType
			record.Fields[FieldRecordType] = DetailRecordType
		} else if record.RecordType != DetailRecordType {
			continue
		}

		records = append(records, record)
	}

	return records
}
