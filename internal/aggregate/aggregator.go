// =============================================================================
// Subledger Mapper - Aggregator
// =============================================================================
//
// Groups resolved records by
//
//   (company, main account, account-type label, sub account, cost center,
//    financial product | unresolved)
//
// and sums debit and credit independently. Sums stay exact while folding;
// rounding to two decimals (half to even) happens once per group when rows
// are read out.
//
// Add and Merge are a commutative, associative fold, so partial aggregators
// built over shards of the input can be merged in any order.
//
// =============================================================================

package aggregate

import (
	"sort"

	"github.com/ginjaninja78/subledger-mapper/internal/resolver"
	"github.com/ginjaninja78/subledger-mapper/internal/types"
	"github.com/shopspring/decimal"
)

// Places is the number of decimals summary amounts are rounded to.
const Places = 2

// TotalLabel marks the grand-total line of the summary view.
const TotalLabel = "TOTAL"

// Key is the six-field grouping key.
type Key struct {
	Company          string
	MainAccount      string
	AccountType      string
	SubAccount       string
	CostCenter       string
	FinancialProduct string
	ProductResolved  bool
}

// KeyOf returns the grouping key of a resolved record.
func KeyOf(record types.ResolvedRecord) Key {
	key := Key{
		Company:         record.Company,
		MainAccount:     record.MainAccount,
		AccountType:     record.AccountType,
		SubAccount:      record.SubAccount,
		CostCenter:      record.CostCenter,
		ProductResolved: record.ProductResolved,
	}
	if record.ProductResolved {
		key.FinancialProduct = record.FinancialProduct
	}
	return key
}

// less orders keys field by field; an unresolved product sorts after every
// resolved one.
func (k Key) less(other Key) bool {
	if k.Company != other.Company {
		return k.Company < other.Company
	}
	if k.MainAccount != other.MainAccount {
		return k.MainAccount < other.MainAccount
	}
	if k.AccountType != other.AccountType {
		return k.AccountType < other.AccountType
	}
	if k.SubAccount != other.SubAccount {
		return k.SubAccount < other.SubAccount
	}
	if k.CostCenter != other.CostCenter {
		return k.CostCenter < other.CostCenter
	}
	if k.ProductResolved != other.ProductResolved {
		return k.ProductResolved
	}
	return k.FinancialProduct < other.FinancialProduct
}

type group struct {
	debit   decimal.Decimal
	credit  decimal.Decimal
	records int
}

// Aggregator accumulates summary groups. It is not safe for concurrent use;
// give each worker its own and Merge them afterwards.
type Aggregator struct {
	groups      map[Key]*group
	totalDebit  decimal.Decimal
	totalCredit decimal.Decimal
	records     int
}

// New creates an empty Aggregator.
func New() *Aggregator {
	return &Aggregator{groups: make(map[Key]*group)}
}

// Add folds one resolved record into its group.
func (a *Aggregator) Add(record types.ResolvedRecord) {
	key := KeyOf(record)
	g, ok := a.groups[key]
	if !ok {
		g = &group{}
		a.groups[key] = g
	}

	g.debit = g.debit.Add(record.Debit)
	g.credit = g.credit.Add(record.Credit)
	g.records++

	a.totalDebit = a.totalDebit.Add(record.Debit)
	a.totalCredit = a.totalCredit.Add(record.Credit)
	a.records++
}

// AddAll folds records in order.
func (a *Aggregator) AddAll(records []types.ResolvedRecord) {
	for _, record := range records {
		a.Add(record)
	}
}

// Merge folds another aggregator's partial sums into a. other is left
// unchanged.
func (a *Aggregator) Merge(other *Aggregator) {
	if other == nil {
		return
	}
	for key, og := range other.groups {
		g, ok := a.groups[key]
		if !ok {
			g = &group{}
			a.groups[key] = g
		}
		g.debit = g.debit.Add(og.debit)
		g.credit = g.credit.Add(og.credit)
		g.records += og.records
	}
	a.totalDebit = a.totalDebit.Add(other.totalDebit)
	a.totalCredit = a.totalCredit.Add(other.totalCredit)
	a.records += other.records
}

// Len returns the number of groups.
func (a *Aggregator) Len() int {
	return len(a.groups)
}

// Records returns the number of records folded in.
func (a *Aggregator) Records() int {
	return a.records
}

// Totals returns the exact grand totals over every folded record.
func (a *Aggregator) Totals() (debit, credit decimal.Decimal) {
	return a.totalDebit, a.totalCredit
}

// Rows returns one SummaryRow per group in key order, with debit and credit
// rounded once.
func (a *Aggregator) Rows() []types.SummaryRow {
	keys := make([]Key, 0, len(a.groups))
	for key := range a.groups {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].less(keys[j]) })

	rows := make([]types.SummaryRow, 0, len(keys))
	for _, key := range keys {
		g := a.groups[key]
		account := resolver.Compose(
			key.Company,
			key.MainAccount,
			key.SubAccount,
			key.CostCenter,
			types.DisplayProduct(key.FinancialProduct, key.ProductResolved),
		)
		rows = append(rows, types.SummaryRow{
			Company:          key.Company,
			MainAccount:      key.MainAccount,
			AccountType:      key.AccountType,
			SubAccount:       key.SubAccount,
			CostCenter:       key.CostCenter,
			FinancialProduct: key.FinancialProduct,
			ProductResolved:  key.ProductResolved,
			Debit:            g.debit.RoundBank(Places),
			Credit:           g.credit.RoundBank(Places),
			Records:          g.records,
			Account:          account.String(),
		})
	}
	return rows
}

// =============================================================================
// REPORTING VIEW
// =============================================================================

// Lines expands summary rows into the debit/credit reporting view: a debit
// line when the rounded debit is non-zero, a credit line when the rounded
// credit is non-zero, then one total line. All-zero groups emit nothing.
func Lines(rows []types.SummaryRow, totalDebit, totalCredit decimal.Decimal) []types.SummaryLine {
	lines := make([]types.SummaryLine, 0, len(rows)*2+1)
	for _, row := range rows {
		if !row.Debit.IsZero() {
			lines = append(lines, types.SummaryLine{Row: row, Debit: FormatAmount(row.Debit)})
		}
		if !row.Credit.IsZero() {
			lines = append(lines, types.SummaryLine{Row: row, Credit: FormatAmount(row.Credit)})
		}
	}

	lines = append(lines, types.SummaryLine{
		Row:    types.SummaryRow{Company: TotalLabel, Debit: totalDebit, Credit: totalCredit},
		Debit:  FormatAmount(totalDebit),
		Credit: FormatAmount(totalCredit),
		Total:  true,
	})
	return lines
}

// Lines is the reporting view of the aggregator's current state.
func (a *Aggregator) Lines() []types.SummaryLine {
	debit, credit := a.Totals()
	return Lines(a.Rows(), debit, credit)
}

// FormatAmount renders an amount with exactly two decimals.
func FormatAmount(amount decimal.Decimal) string {
	return amount.StringFixedBank(Places)
}
