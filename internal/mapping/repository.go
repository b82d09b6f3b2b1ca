// =============================================================================
// Subledger Mapper - Mapping Repository
// =============================================================================
//
// The repository holds the six rule tables as hash maps, built once before
// any record is resolved and read-only afterwards. It is safe for concurrent
// readers.
//
// INDEXING:
//   main-account, sub-account  (GL, EXTC) exact map + GL -> wildcard map
//   account-type               MainAccount -> AccountType code
//   company                    ATT_Company -> DTV_Company
//   cost-center                (RCC, AccountType) -> DTV_Cost_Center   [trim only]
//   product                    ATT_SLS_PRD_ID -> FIN_PRD_CD            [trim + upper]
//
// DUPLICATES:
//   The first row seen for a key wins. Later rows with the same key are
//   counted as shadowed and otherwise ignored.
//
// BLANK KEYS:
//   Rows whose lookup key is blank are counted and not indexed, so a record
//   with a blank field never resolves. For (GL, EXTC) tables only the GL
//   part must be non-blank; a blank EXTC is a real key.
//
// =============================================================================

package mapping

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ginjaninja78/subledger-mapper/internal/types"
	"github.com/ginjaninja78/subledger-mapper/internal/validation"
)

// =============================================================================
// ERRORS
// =============================================================================

// ErrMissingMappingTable is matched by every *MissingMappingTableError.
var ErrMissingMappingTable = errors.New("missing mapping table")

// MissingMappingTableError names the rule-table categories that were not
// supplied.
type MissingMappingTableError struct {
	Categories []types.Category
}

// Error implements the error interface.
func (e *MissingMappingTableError) Error() string {
	names := make([]string, len(e.Categories))
	for i, category := range e.Categories {
		names[i] = string(category)
	}
	return fmt.Sprintf("%s: %s", ErrMissingMappingTable, strings.Join(names, ", "))
}

// Is reports whether target is ErrMissingMappingTable.
func (e *MissingMappingTableError) Is(target error) bool {
	return target == ErrMissingMappingTable
}

// =============================================================================
// REPOSITORY
// =============================================================================

type glExtcKey struct {
	gl   string
	extc string
}

type costCenterKey struct {
	rcc             string
	accountTypeCode string
}

// wildcardTable indexes a (GL, EXTC) rule table.
type wildcardTable struct {
	exact    map[glExtcKey]string
	wildcard map[string]string
}

func newWildcardTable(size int) wildcardTable {
	return wildcardTable{
		exact:    make(map[glExtcKey]string, size),
		wildcard: make(map[string]string),
	}
}

// put inserts a rule into the table and updates stats.
func (t wildcardTable) put(gl, extc, target string, stats *TableStats) {
	key := glExtcKey{gl: Normalize(gl), extc: normalizeEXTC(extc)}
	if key.gl == "" {
		stats.Blank++
		return
	}
	if _, exists := t.exact[key]; exists {
		stats.Shadowed++
		return
	}
	t.exact[key] = target

	if key.extc == types.WildcardEXTC {
		t.wildcard[key.gl] = target
	}
}

func (t wildcardTable) lookupExact(gl, extc string) (string, bool) {
	target, ok := t.exact[glExtcKey{gl: Normalize(gl), extc: normalizeEXTC(extc)}]
	return target, ok
}

func (t wildcardTable) lookupWildcard(gl string) (string, bool) {
	target, ok := t.wildcard[Normalize(gl)]
	return target, ok
}

// TableStats describes one indexed table.
type TableStats struct {
	Rows     int
	Keys     int
	Shadowed int
	Blank    int
}

// Repository is the immutable, indexed set of rule tables.
type Repository struct {
	mainAccounts wildcardTable
	subAccounts  wildcardTable
	accountTypes map[string]string
	companies    map[string]string
	costCenters  map[costCenterKey]string
	products     map[string]string

	stats map[types.Category]TableStats
}

// Build validates the raw tables and indexes them. Every category in
// types.RequiredCategories must be present; otherwise a
// *MissingMappingTableError listing the absent categories is returned.
// Column problems surface as *validation.MissingColumnError.
func Build(tables map[types.Category]*types.Table) (*Repository, error) {
	var missing []types.Category
	for _, category := range types.RequiredCategories {
		if table, ok := tables[category]; !ok || table == nil {
			missing = append(missing, category)
		}
	}
	if len(missing) > 0 {
		return nil, &MissingMappingTableError{Categories: missing}
	}

	for _, category := range types.RequiredCategories {
		if err := validation.RequireColumns(category, tables[category]); err != nil {
			return nil, err
		}
	}

	return NewRepository(DecodeRules(tables)), nil
}

// DecodeRules converts validated raw tables into typed rules. Values are
// trimmed; product values are also upper-cased.
func DecodeRules(tables map[types.Category]*types.Table) types.RuleSet {
	var rules types.RuleSet

	if table := tables[types.CategoryMainAccount]; table != nil {
		for _, row := range table.Rows {
			rules.MainAccounts = append(rules.MainAccounts, types.MainAccountRule{
				GLAccount: cell(row, types.ColumnGLAccount),
				EXTC:      cell(row, types.ColumnEXTC),
				Target:    cell(row, types.ColumnDTVMainAccount),
			})
		}
	}

	if table := tables[types.CategorySubAccount]; table != nil {
		for _, row := range table.Rows {
			rules.SubAccounts = append(rules.SubAccounts, types.SubAccountRule{
				GLAccount: cell(row, types.ColumnGLAccount),
				EXTC:      cell(row, types.ColumnEXTC),
				Target:    cell(row, types.ColumnDTVSubAccount),
			})
		}
	}

	if table := tables[types.CategoryAccountType]; table != nil {
		for _, row := range table.Rows {
			rules.AccountTypes = append(rules.AccountTypes, types.AccountTypeRule{
				MainAccount:     cell(row, types.ColumnMainAccount),
				AccountTypeCode: cell(row, types.ColumnAccountType),
			})
		}
	}

	if table := tables[types.CategoryCompany]; table != nil {
		for _, row := range table.Rows {
			rules.Companies = append(rules.Companies, types.CompanyRule{
				ATTCompanyCode: cell(row, types.ColumnATTCompany),
				DTVCompanyCode: cell(row, types.ColumnDTVCompany),
			})
		}
	}

	if table := tables[types.CategoryCostCenter]; table != nil {
		for _, row := range table.Rows {
			rules.CostCenters = append(rules.CostCenters, types.CostCenterRule{
				RCC:             cell(row, types.ColumnRCC),
				AccountTypeCode: cell(row, types.ColumnAccountType),
				DTVCostCenter:   cell(row, types.ColumnDTVCostCenter),
			})
		}
	}

	if table := tables[types.CategoryProduct]; table != nil {
		for _, row := range table.Rows {
			rules.Products = append(rules.Products, types.ProductRule{
				SourceProductID:      Normalize(row[types.ColumnATTProductID]),
				FinancialProductCode: Normalize(row[types.ColumnFINProductCode]),
			})
		}
	}

	return rules
}

func cell(row map[string]string, column string) string {
	return strings.TrimSpace(row[column])
}

// NewRepository indexes typed rules. It performs no presence checks; use
// Build for raw loader output.
func NewRepository(rules types.RuleSet) *Repository {
	r := &Repository{
		mainAccounts: newWildcardTable(len(rules.MainAccounts)),
		subAccounts:  newWildcardTable(len(rules.SubAccounts)),
		accountTypes: make(map[string]string, len(rules.AccountTypes)),
		companies:    make(map[string]string, len(rules.Companies)),
		costCenters:  make(map[costCenterKey]string, len(rules.CostCenters)),
		products:     make(map[string]string, len(rules.Products)),
		stats:        make(map[types.Category]TableStats, len(types.RequiredCategories)),
	}

	var stats TableStats

	stats = TableStats{Rows: len(rules.MainAccounts)}
	for _, rule := range rules.MainAccounts {
		r.mainAccounts.put(rule.GLAccount, rule.EXTC, rule.Target, &stats)
	}
	stats.Keys = len(r.mainAccounts.exact)
	r.stats[types.CategoryMainAccount] = stats

	stats = TableStats{Rows: len(rules.SubAccounts)}
	for _, rule := range rules.SubAccounts {
		r.subAccounts.put(rule.GLAccount, rule.EXTC, rule.Target, &stats)
	}
	stats.Keys = len(r.subAccounts.exact)
	r.stats[types.CategorySubAccount] = stats

	stats = TableStats{Rows: len(rules.AccountTypes)}
	for _, rule := range rules.AccountTypes {
		putFirst(r.accountTypes, Normalize(rule.MainAccount), "", rule.AccountTypeCode, &stats)
	}
	stats.Keys = len(r.accountTypes)
	r.stats[types.CategoryAccountType] = stats

	stats = TableStats{Rows: len(rules.Companies)}
	for _, rule := range rules.Companies {
		putFirst(r.companies, Normalize(rule.ATTCompanyCode), "", rule.DTVCompanyCode, &stats)
	}
	stats.Keys = len(r.companies)
	r.stats[types.CategoryCompany] = stats

	stats = TableStats{Rows: len(rules.CostCenters)}
	for _, rule := range rules.CostCenters {
		key := costCenterKey{
			rcc:             strings.TrimSpace(rule.RCC),
			accountTypeCode: strings.TrimSpace(rule.AccountTypeCode),
		}
		if key.rcc == "" {
			stats.Blank++
			continue
		}
		putFirst(r.costCenters, key, costCenterKey{}, rule.DTVCostCenter, &stats)
	}
	stats.Keys = len(r.costCenters)
	r.stats[types.CategoryCostCenter] = stats

	stats = TableStats{Rows: len(rules.Products)}
	for _, rule := range rules.Products {
		putFirst(r.products, Normalize(rule.SourceProductID), "", Normalize(rule.FinancialProductCode), &stats)
	}
	stats.Keys = len(r.products)
	r.stats[types.CategoryProduct] = stats

	return r
}

// putFirst stores value under key unless the key equals blank or is already
// present, counting the skipped row in stats.
func putFirst[K comparable](m map[K]string, key, blank K, value string, stats *TableStats) {
	if key == blank {
		stats.Blank++
		return
	}
	if _, exists := m[key]; exists {
		stats.Shadowed++
		return
	}
	m[key] = value
}

// =============================================================================
// LOOKUPS
// =============================================================================

// MainAccountExact looks up the main account for an exact (GL, EXTC) key.
func (r *Repository) MainAccountExact(glAccount, extc string) (string, bool) {
	return r.mainAccounts.lookupExact(glAccount, extc)
}

// MainAccountWildcard looks up the main account for (GL, "*").
func (r *Repository) MainAccountWildcard(glAccount string) (string, bool) {
	return r.mainAccounts.lookupWildcard(glAccount)
}

// SubAccountExact looks up the sub account for an exact (GL, EXTC) key.
func (r *Repository) SubAccountExact(glAccount, extc string) (string, bool) {
	return r.subAccounts.lookupExact(glAccount, extc)
}

// SubAccountWildcard looks up the sub account for (GL, "*").
func (r *Repository) SubAccountWildcard(glAccount string) (string, bool) {
	return r.subAccounts.lookupWildcard(glAccount)
}

// AccountType looks up the account-type code of a main account.
func (r *Repository) AccountType(mainAccount string) (string, bool) {
	code, ok := r.accountTypes[Normalize(mainAccount)]
	return code, ok
}

// Company looks up the target company of a source company code.
func (r *Repository) Company(attCompany string) (string, bool) {
	company, ok := r.companies[Normalize(attCompany)]
	return company, ok
}

// CostCenter looks up the target cost center. Both key parts are trimmed
// but keep their case.
func (r *Repository) CostCenter(rcc, accountTypeCode string) (string, bool) {
	costCenter, ok := r.costCenters[costCenterKey{
		rcc:             strings.TrimSpace(rcc),
		accountTypeCode: strings.TrimSpace(accountTypeCode),
	}]
	return costCenter, ok
}

// Product looks up the financial product code of a source product id.
func (r *Repository) Product(sourceProductID string) (string, bool) {
	code, ok := r.products[Normalize(sourceProductID)]
	return code, ok
}

// Stats returns per-category row, key and shadowed-duplicate counts.
func (r *Repository) Stats() map[types.Category]TableStats {
	out := make(map[types.Category]TableStats, len(r.stats))
	for category, stats := range r.stats {
		out[category] = stats
	}
	return out
}
