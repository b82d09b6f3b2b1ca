// =============================================================================
// Subledger Mapper - Key Normalization and Header Canonicalization
// =============================================================================
//
// Every lookup key in the pipeline goes through Normalize so comparisons are
// case- and whitespace-insensitive. The one exception is the cost-center key,
// which is trimmed only (see Repository.CostCenter).
//
// Rule files arrive with free-form headers ("GL Account", "gl_account ",
// "ETC CODE"...). CanonicalColumn maps raw header text onto the fixed column
// set in types once, at load time.
//
// =============================================================================

package mapping

import (
	"path/filepath"
	"strings"

	"github.com/ginjaninja78/subledger-mapper/internal/types"
)

// Normalize trims and upper-cases a key. Empty input stays empty.
// Normalize(Normalize(x)) == Normalize(x).
func Normalize(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	return strings.ToUpper(value)
}

// normalizeEXTC keeps the wildcard marker intact and normalizes anything else.
func normalizeEXTC(value string) string {
	if strings.TrimSpace(value) == types.WildcardEXTC {
		return types.WildcardEXTC
	}
	return Normalize(value)
}

// =============================================================================
// HEADER CANONICALIZATION
// =============================================================================

// headerRule maps a substring of the squashed header onto a canonical column.
type headerRule struct {
	contains []string
	column   string
}

// headerRules are evaluated in order; the first rule with a matching
// substring wins.
var headerRules = []headerRule{
	{contains: []string{"glaccount"}, column: types.ColumnGLAccount},
	{contains: []string{"etc", "extc"}, column: types.ColumnEXTC},
	{contains: []string{"mainaccount"}, column: types.ColumnMainAccount},
	{contains: []string{"accounttype"}, column: types.ColumnAccountType},
	{contains: []string{"dtv_main_account"}, column: types.ColumnDTVMainAccount},
	{contains: []string{"dtv_sub_account"}, column: types.ColumnDTVSubAccount},
	{contains: []string{"att_company"}, column: types.ColumnATTCompany},
	{contains: []string{"dtv_company"}, column: types.ColumnDTVCompany},
	{contains: []string{"dtv_cost_center"}, column: types.ColumnDTVCostCenter},
	{contains: []string{"rcc"}, column: types.ColumnRCC},
	{contains: []string{"rco"}, column: types.ColumnRCO},
}

// CanonicalColumn maps raw header text to a canonical column name. The
// second return value is false when no rule matches; the trimmed raw text is
// returned in that case.
func CanonicalColumn(raw string) (string, bool) {
	trimmed := strings.TrimSpace(raw)
	squashed := strings.ReplaceAll(strings.ToLower(trimmed), " ", "")

	for _, rule := range headerRules {
		for _, needle := range rule.contains {
			if strings.Contains(squashed, needle) {
				return rule.column, true
			}
		}
	}

	return trimmed, false
}

// CanonicalColumns canonicalizes a whole header row.
func CanonicalColumns(raw []string) []string {
	columns := make([]string, len(raw))
	for i, header := range raw {
		columns[i], _ = CanonicalColumn(header)
	}
	return columns
}

// =============================================================================
// MAPPING FILE CLASSIFICATION
// =============================================================================

// ClassifyFile identifies the rule-table category of a mapping file from its
// base name. Checks run in a fixed order because the markers overlap
// ("sam" and "mam" both contain "am", "mam" contains "ma").
func ClassifyFile(path string) (types.Category, bool) {
	name := strings.ToLower(filepath.Base(path))

	switch {
	case strings.Contains(name, "sam"):
		return types.CategorySubAccount, true
	case strings.Contains(name, "mam"):
		return types.CategoryMainAccount, true
	case strings.Contains(name, "ma"):
		return types.CategoryAccountType, true
	case strings.Contains(name, "company"):
		return types.CategoryCompany, true
	case strings.Contains(name, "ccm"):
		return types.CategoryCostCenter, true
	default:
		return "", false
	}
}
