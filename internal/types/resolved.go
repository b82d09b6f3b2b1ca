package types

import (
	"strings"

	"github.com/shopspring/decimal"
)

// =============================================================================
// DEFAULTS AND CONSTANT SEGMENTS
// =============================================================================

// Stage defaults substituted when a lookup misses.
const (
	DefaultMainAccount     = "000000"
	DefaultSubAccount      = "000000"
	DefaultAccountTypeCode = "UNKNOWN"
	DefaultCompany         = "NULL"
	DefaultCostCenter      = "000000"
	DefaultProduct         = "0000"
)

// Record-invariant account segments.
const (
	Intercompany    = "0000"
	TaxJurisdiction = "000"
	Reserved1       = "00000"
	Reserved2       = "00000"
)

// SegmentSeparator joins the nine account segments.
const SegmentSeparator = "*"

// SegmentCount is the number of segments in a composite account.
const SegmentCount = 9

// =============================================================================
// RESOLVED ACCOUNT
// =============================================================================

// ResolvedAccount is the nine-segment target account of one record.
type ResolvedAccount struct {
	Company         string
	MainAccount     string
	SubAccount      string
	CostCenter      string
	Intercompany    string
	Product         string
	TaxJurisdiction string
	Reserved1       string
	Reserved2       string
}

// Segments returns the nine segments in ledger order.
func (a ResolvedAccount) Segments() []string {
	return []string{
		a.Company,
		a.MainAccount,
		a.SubAccount,
		a.CostCenter,
		a.Intercompany,
		a.Product,
		a.TaxJurisdiction,
		a.Reserved1,
		a.Reserved2,
	}
}

// String returns the composite account identifier.
func (a ResolvedAccount) String() string {
	return strings.Join(a.Segments(), SegmentSeparator)
}

// =============================================================================
// RESOLVED RECORD
// =============================================================================

// ResolvedRecord is a TransactionRecord plus every resolved field.
type ResolvedRecord struct {
	Record TransactionRecord

	MainAccount     string
	SubAccount      string
	AccountTypeCode string
	AccountType     string
	Company         string
	CostCenter      string

	// FinancialProduct is the product lookup result. It is meaningful only
	// when ProductResolved is true.
	FinancialProduct string
	ProductResolved  bool

	// Debit and Credit split the signed amount; at most one is non-zero and
	// Record.Amount == Debit - Credit holds exactly.
	Debit  decimal.Decimal
	Credit decimal.Decimal

	Account ResolvedAccount
}

// DisplayProduct is the product segment used in the composite account.
func (r ResolvedRecord) DisplayProduct() string {
	return DisplayProduct(r.FinancialProduct, r.ProductResolved)
}

// DisplayProduct maps a product lookup outcome to its displayed segment.
// Unresolved, empty and placeholder codes display as DefaultProduct.
func DisplayProduct(code string, resolved bool) string {
	if !resolved {
		return DefaultProduct
	}

	switch code {
	case "", "UNMATCHED", "MISSING":
		return DefaultProduct
	}

	return code
}

// =============================================================================
// SUMMARY
// =============================================================================

// SummaryRow is one aggregation group.
type SummaryRow struct {
	Company          string
	MainAccount      string
	AccountType      string
	SubAccount       string
	CostCenter       string
	FinancialProduct string
	ProductResolved  bool

	// Debit and Credit are group sums rounded once to two decimals.
	Debit  decimal.Decimal
	Credit decimal.Decimal

	// Records is the number of resolved records folded into the group.
	Records int

	// Account is the composite account of the group.
	Account string
}

// SummaryLine is one line of the reporting view of the summary: a debit
// line, a credit line, or the terminal total line. Empty strings are blank
// cells.
type SummaryLine struct {
	Row    SummaryRow
	Debit  string
	Credit string
	Total  bool
}

// =============================================================================
// UNMATCHED
// =============================================================================

// Reason names a resolution stage that fell back to its default.
type Reason string

const (
	ReasonMainAccount Reason = "main_account"
	ReasonSubAccount  Reason = "sub_account"
	ReasonCompany     Reason = "company"
	ReasonProduct     Reason = "product"
)

// UnmatchedRecord is a flagged record plus the stages that defaulted.
type UnmatchedRecord struct {
	Resolved ResolvedRecord
	Reasons  []Reason
}

// ReasonList joins the reasons for display.
func (u UnmatchedRecord) ReasonList() string {
	parts := make([]string, len(u.Reasons))
	for i, reason := range u.Reasons {
		parts[i] = string(reason)
	}
	return strings.Join(parts, ",")
}
