// =============================================================================
// Subledger Mapper - Account Resolver
// =============================================================================
//
// The resolver runs the lookup chain for one transaction record:
//
//   1. Main account   (GL, EXTC) exact -> (GL, *) wildcard -> "000000"
//   2. Sub account    (GL, EXTC) exact -> (GL, *) wildcard -> "000000"
//   3. Account type   main account -> code (default "UNKNOWN") -> label
//   4. Company        company code -> DTV company (default "NULL")
//   5. Cost center    (RCC trimmed, account-type code) -> "000000"
//   6. Product        product code -> FIN_PRD_CD, left unresolved on a miss
//
// No stage returns an error. A miss substitutes the stage default and the
// record becomes a candidate for the unmatched report.
//
// =============================================================================

package resolver

import (
	"strings"

	"github.com/ginjaninja78/subledger-mapper/internal/mapping"
	"github.com/ginjaninja78/subledger-mapper/internal/types"
	"github.com/shopspring/decimal"
)

// Lookup is the read-only view of the mapping repository the resolver needs.
// *mapping.Repository implements it.
type Lookup interface {
	MainAccountExact(glAccount, extc string) (string, bool)
	MainAccountWildcard(glAccount string) (string, bool)
	SubAccountExact(glAccount, extc string) (string, bool)
	SubAccountWildcard(glAccount string) (string, bool)
	AccountType(mainAccount string) (string, bool)
	Company(attCompany string) (string, bool)
	CostCenter(rcc, accountTypeCode string) (string, bool)
	Product(sourceProductID string) (string, bool)
}

var _ Lookup = (*mapping.Repository)(nil)

// AccountTypeLabels maps account-type codes to display labels.
type AccountTypeLabels map[string]string

// DefaultAccountTypeLabels returns the ledger's account-type label table.
func DefaultAccountTypeLabels() AccountTypeLabels {
	return AccountTypeLabels{
		"L": "Liability",
		"R": "Revenue",
		"O": "Other",
		"A": "Asset",
		"E": "Expense",
	}
}

// Label returns the label for code, or the code itself when unknown.
func (l AccountTypeLabels) Label(code string) string {
	if label, ok := l[code]; ok {
		return label
	}
	return code
}

// Resolver resolves transaction records against a rule repository. It is
// safe for concurrent use as long as the Lookup is.
type Resolver struct {
	lookup Lookup
	labels AccountTypeLabels
}

// New creates a Resolver with the default account-type labels.
func New(lookup Lookup) *Resolver {
	return NewWithLabels(lookup, DefaultAccountTypeLabels())
}

// NewWithLabels creates a Resolver with a custom label table. The table is
// copied.
func NewWithLabels(lookup Lookup, labels AccountTypeLabels) *Resolver {
	owned := make(AccountTypeLabels, len(labels))
	for code, label := range labels {
		owned[code] = label
	}
	return &Resolver{lookup: lookup, labels: owned}
}

// Resolve runs the full lookup chain for one record and composes its
// account.
func (r *Resolver) Resolve(record types.TransactionRecord) types.ResolvedRecord {
	gl := mapping.Normalize(record.GLAccount)
	extc := mapping.Normalize(record.EXTC)

	resolved := types.ResolvedRecord{Record: record}

	resolved.MainAccount = resolveWildcard(
		r.lookup.MainAccountExact, r.lookup.MainAccountWildcard, gl, extc, types.DefaultMainAccount)

	resolved.SubAccount = resolveWildcard(
		r.lookup.SubAccountExact, r.lookup.SubAccountWildcard, gl, extc, types.DefaultSubAccount)

	resolved.AccountTypeCode = types.DefaultAccountTypeCode
	if code, ok := r.lookup.AccountType(mapping.Normalize(resolved.MainAccount)); ok {
		resolved.AccountTypeCode = code
	}
	resolved.AccountType = r.labels.Label(resolved.AccountTypeCode)

	resolved.Company = types.DefaultCompany
	if company, ok := r.lookup.Company(mapping.Normalize(record.CompanyCode)); ok {
		resolved.Company = company
	}

	resolved.CostCenter = types.DefaultCostCenter
	if costCenter, ok := r.lookup.CostCenter(strings.TrimSpace(record.RCC), resolved.AccountTypeCode); ok {
		resolved.CostCenter = costCenter
	}

	if code, ok := r.lookup.Product(mapping.Normalize(record.ProductCode)); ok {
		resolved.FinancialProduct = code
		resolved.ProductResolved = true
	}

	resolved.Debit, resolved.Credit = SplitAmount(record.Amount)

	resolved.Account = Compose(
		resolved.Company,
		resolved.MainAccount,
		resolved.SubAccount,
		resolved.CostCenter,
		resolved.DisplayProduct(),
	)

	return resolved
}

// ResolveAll resolves records in order.
func (r *Resolver) ResolveAll(records []types.TransactionRecord) []types.ResolvedRecord {
	out := make([]types.ResolvedRecord, len(records))
	for i, record := range records {
		out[i] = r.Resolve(record)
	}
	return out
}

// resolveWildcard applies exact-then-wildcard precedence.
func resolveWildcard(
	exact func(gl, extc string) (string, bool),
	wildcard func(gl string) (string, bool),
	gl, extc, fallback string,
) string {
	if target, ok := exact(gl, extc); ok {
		return target
	}
	if target, ok := wildcard(gl); ok {
		return target
	}
	return fallback
}

// SplitAmount splits a signed amount into non-negative debit and credit
// parts. No rounding is applied, so amount == debit - credit exactly.
func SplitAmount(amount decimal.Decimal) (debit, credit decimal.Decimal) {
	switch amount.Sign() {
	case 1:
		return amount, decimal.Zero
	case -1:
		return decimal.Zero, amount.Neg()
	default:
		return decimal.Zero, decimal.Zero
	}
}
