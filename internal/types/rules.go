package types

// =============================================================================
// RULE TABLE CATEGORIES
// =============================================================================

// Category identifies one of the six rule tables.
type Category string

const (
	CategoryMainAccount Category = "mam"
	CategorySubAccount  Category = "sam"
	CategoryAccountType Category = "ma"
	CategoryCompany     Category = "company"
	CategoryCostCenter  Category = "ccm"
	CategoryProduct     Category = "product"
)

// RequiredCategories lists every table the repository needs, in the order
// missing tables are reported.
var RequiredCategories = []Category{
	CategorySubAccount,
	CategoryMainAccount,
	CategoryAccountType,
	CategoryCompany,
	CategoryCostCenter,
	CategoryProduct,
}

// Description returns a human-readable name for the category.
func (c Category) Description() string {
	switch c {
	case CategoryMainAccount:
		return "main-account"
	case CategorySubAccount:
		return "sub-account"
	case CategoryAccountType:
		return "account-type"
	case CategoryCompany:
		return "company"
	case CategoryCostCenter:
		return "cost-center"
	case CategoryProduct:
		return "product"
	default:
		return string(c)
	}
}

// =============================================================================
// CANONICAL COLUMN NAMES
// =============================================================================

// Canonical rule-table column names, after header normalization.
const (
	ColumnGLAccount      = "GL Account"
	ColumnEXTC           = "EXTC"
	ColumnMainAccount    = "MainAccount"
	ColumnAccountType    = "AccountType"
	ColumnDTVMainAccount = "DTV_Main_Account"
	ColumnDTVSubAccount  = "DTV_Sub_Account"
	ColumnATTCompany     = "ATT_Company"
	ColumnDTVCompany     = "DTV_Company"
	ColumnDTVCostCenter  = "DTV_Cost_Center"
	ColumnRCC            = "RCC"
	ColumnRCO            = "RCO"
	ColumnATTProductID   = "ATT_SLS_PRD_ID"
	ColumnFINProductCode = "FIN_PRD_CD"
)

// RequiredColumns returns the columns a table of this category must carry.
func (c Category) RequiredColumns() []string {
	switch c {
	case CategoryMainAccount:
		return []string{ColumnGLAccount, ColumnEXTC, ColumnDTVMainAccount}
	case CategorySubAccount:
		return []string{ColumnGLAccount, ColumnEXTC, ColumnDTVSubAccount}
	case CategoryAccountType:
		return []string{ColumnMainAccount, ColumnAccountType}
	case CategoryCompany:
		return []string{ColumnATTCompany, ColumnDTVCompany}
	case CategoryCostCenter:
		return []string{ColumnRCC, ColumnAccountType, ColumnDTVCostCenter}
	case CategoryProduct:
		return []string{ColumnATTProductID, ColumnFINProductCode}
	default:
		return nil
	}
}

// =============================================================================
// RAW TABLES
// =============================================================================

// Table is a rule table as delivered by a loader: canonical column names
// plus rows of column -> value.
type Table struct {
	// Source names where the table came from (file name, sheet name).
	Source string

	// Columns are the canonical column names in file order.
	Columns []string

	// Rows are the data rows, keyed by canonical column name.
	Rows []map[string]string
}

// =============================================================================
// TYPED RULES
// =============================================================================

// WildcardEXTC is the EXTC value that matches any record EXTC.
const WildcardEXTC = "*"

// MainAccountRule maps (GL Account, EXTC) to a target main account.
type MainAccountRule struct {
	GLAccount string
	EXTC      string
	Target    string
}

// SubAccountRule maps (GL Account, EXTC) to a target sub account.
type SubAccountRule struct {
	GLAccount string
	EXTC      string
	Target    string
}

// AccountTypeRule maps a main account to an account-type code.
type AccountTypeRule struct {
	MainAccount     string
	AccountTypeCode string
}

// CompanyRule maps a source company code to a target company.
type CompanyRule struct {
	ATTCompanyCode string
	DTVCompanyCode string
}

// CostCenterRule maps (RCC, account-type code) to a target cost center.
type CostCenterRule struct {
	RCC             string
	AccountTypeCode string
	DTVCostCenter   string
}

// ProductRule maps a source product id to a financial product code.
type ProductRule struct {
	SourceProductID      string
	FinancialProductCode string
}

// RuleSet is the typed form of all six rule tables.
type RuleSet struct {
	MainAccounts []MainAccountRule
	SubAccounts  []SubAccountRule
	AccountTypes []AccountTypeRule
	Companies    []CompanyRule
	CostCenters  []CostCenterRule
	Products     []ProductRule
}
