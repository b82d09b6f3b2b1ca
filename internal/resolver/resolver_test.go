package resolver

import (
	"strings"
	"testing"

	"github.com/ginjaninja78/subledger-mapper/internal/mapping"
	"github.com/ginjaninja78/subledger-mapper/internal/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixtureRepository() *mapping.Repository {
	return mapping.NewRepository(types.RuleSet{
		MainAccounts: []types.MainAccountRule{
			{GLAccount: "4000", EXTC: "10", Target: "100100"},
			{GLAccount: "4000", EXTC: "*", Target: "100999"},
			{GLAccount: "4000", EXTC: "*", Target: "100888"},
			{GLAccount: "6000", EXTC: "*", Target: "600100"},
			{GLAccount: " ", EXTC: "*", Target: "BLANKGL"},
		},
		SubAccounts: []types.SubAccountRule{
			{GLAccount: "4000", EXTC: "*", Target: "S4000"},
			{GLAccount: "6000", EXTC: "1", Target: "S6001"},
			{GLAccount: "6000", EXTC: "*", Target: "S6000"},
		},
		AccountTypes: []types.AccountTypeRule{
			{MainAccount: "100100", AccountTypeCode: "R"},
			{MainAccount: "100999", AccountTypeCode: "X"},
		},
		Companies: []types.CompanyRule{
			{ATTCompanyCode: "ATT1", DTVCompanyCode: "DTV1"},
			{ATTCompanyCode: "", DTVCompanyCode: "DTVBLANK"},
		},
		CostCenters: []types.CostCenterRule{
			{RCC: "RC1", AccountTypeCode: "R", DTVCostCenter: "CC100"},
			{RCC: "RC1", AccountTypeCode: "UNKNOWN", DTVCostCenter: "CCUNK"},
			{RCC: "", AccountTypeCode: "R", DTVCostCenter: "CCBLANK"},
		},
		Products: []types.ProductRule{
			{SourceProductID: "P1", FinancialProductCode: "FIN1"},
			{SourceProductID: "PBLANK", FinancialProductCode: ""},
			{SourceProductID: "", FinancialProductCode: "ORPHAN"},
		},
	})
}

func record(gl, extc, company, rcc, product, amount string) types.TransactionRecord {
	return types.NewTransactionRecord(1, map[string]string{
		types.FieldRecordType:  "DTL",
		types.FieldGLAccount:   gl,
		types.FieldEXTC:        extc,
		types.FieldCompanyCode: company,
		types.FieldRCC:         rcc,
		types.FieldProductCode: product,
		types.FieldAmount:      amount,
	})
}

func TestResolveMainAccountPrecedence(t *testing.T) {
	r := New(fixtureRepository())

	tests := []struct {
		name string
		gl   string
		extc string
		want string
	}{
		{name: "exact match", gl: "4000", extc: "10", want: "100100"},
		{name: "wildcard fallback", gl: "4000", extc: "99", want: "100999"},
		{name: "wildcard with blank extc", gl: "4000", extc: "", want: "100999"},
		{name: "no rule", gl: "9999", extc: "10", want: types.DefaultMainAccount},
		{name: "normalized key", gl: " 4000 ", extc: " 10 ", want: "100100"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := r.Resolve(record(tt.gl, tt.extc, "ATT1", "RC1", "P1", "1"))
			assert.Equal(t, tt.want, got.MainAccount)
		})
	}
}

func TestResolveSubAccount(t *testing.T) {
	r := New(fixtureRepository())

	assert.Equal(t, "S6001", r.Resolve(record("6000", "1", "ATT1", "", "P1", "1")).SubAccount)
	assert.Equal(t, "S6000", r.Resolve(record("6000", "2", "ATT1", "", "P1", "1")).SubAccount)
	assert.Equal(t, types.DefaultSubAccount, r.Resolve(record("7000", "", "ATT1", "", "P1", "1")).SubAccount)
}

func TestResolveAccountTypeAndCostCenter(t *testing.T) {
	r := New(fixtureRepository())

	t.Run("known code gets label", func(t *testing.T) {
		got := r.Resolve(record("4000", "10", "ATT1", " RC1 ", "P1", "1"))
		assert.Equal(t, "R", got.AccountTypeCode)
		assert.Equal(t, "Revenue", got.AccountType)
		assert.Equal(t, "CC100", got.CostCenter)
	})

	t.Run("unknown code passes through", func(t *testing.T) {
		got := r.Resolve(record("4000", "99", "ATT1", "RC1", "P1", "1"))
		assert.Equal(t, "X", got.AccountTypeCode)
		assert.Equal(t, "X", got.AccountType)
		assert.Equal(t, types.DefaultCostCenter, got.CostCenter)
	})

	t.Run("missing main account type defaults to UNKNOWN", func(t *testing.T) {
		got := r.Resolve(record("6000", "1", "ATT1", "RC1", "P1", "1"))
		assert.Equal(t, types.DefaultAccountTypeCode, got.AccountTypeCode)
		assert.Equal(t, types.DefaultAccountTypeCode, got.AccountType)
		assert.Equal(t, "CCUNK", got.CostCenter)
	})

	t.Run("cost center rcc keeps case", func(t *testing.T) {
		got := r.Resolve(record("4000", "10", "ATT1", "rc1", "P1", "1"))
		assert.Equal(t, types.DefaultCostCenter, got.CostCenter)
	})
}

func TestResolveCompanyAndProduct(t *testing.T) {
	r := New(fixtureRepository())

	got := r.Resolve(record("4000", "10", " att1 ", "RC1", " p1 ", "1"))
	assert.Equal(t, "DTV1", got.Company)
	assert.True(t, got.ProductResolved)
	assert.Equal(t, "FIN1", got.FinancialProduct)
	assert.Equal(t, "FIN1", got.Account.Product)

	missing := r.Resolve(record("4000", "10", "ATT9", "RC1", "P9", "1"))
	assert.Equal(t, types.DefaultCompany, missing.Company)
	assert.False(t, missing.ProductResolved)
	assert.Equal(t, "", missing.FinancialProduct)
	assert.Equal(t, types.DefaultProduct, missing.Account.Product)

	blank := r.Resolve(record("4000", "10", "ATT1", "RC1", "PBLANK", "1"))
	assert.True(t, blank.ProductResolved)
	assert.Equal(t, types.DefaultProduct, blank.Account.Product)
}

func TestResolveBlankFieldsNeverMatchBlankRows(t *testing.T) {
	r := New(fixtureRepository())

	got := r.Resolve(record("4000", "10", "", "", "", "1"))
	assert.Equal(t, "100100", got.MainAccount)
	assert.Equal(t, types.DefaultCompany, got.Company)
	assert.Equal(t, types.DefaultCostCenter, got.CostCenter)
	assert.False(t, got.ProductResolved)
	assert.Equal(t, "", got.FinancialProduct)
	assert.Equal(t, types.DefaultProduct, got.Account.Product)

	unmatched, flagged := Detect(got)
	require.True(t, flagged)
	assert.Equal(t, []types.Reason{types.ReasonCompany, types.ReasonProduct}, unmatched.Reasons)

	blankGL := r.Resolve(record("", "", "ATT1", "RC1", "P1", "1"))
	assert.Equal(t, types.DefaultMainAccount, blankGL.MainAccount)
}

func TestResolveAccountString(t *testing.T) {
	r := New(fixtureRepository())

	got := r.Resolve(record("4000", "10", "ATT1", "RC1", "P1", "1"))
	assert.Equal(t, "DTV1*100100*S4000*CC100*0000*FIN1*000*00000*00000", got.Account.String())

	unresolved := r.Resolve(record("", "", "", "", "", ""))
	segments := strings.Split(unresolved.Account.String(), types.SegmentSeparator)
	require.Len(t, segments, types.SegmentCount)
	assert.Equal(t, "NULL*000000*000000*000000*0000*0000*000*00000*00000", unresolved.Account.String())
}

func TestSplitAmount(t *testing.T) {
	tests := []struct {
		amount string
		debit  string
		credit string
	}{
		{amount: "150.00", debit: "150", credit: "0"},
		{amount: "-50.125", debit: "0", credit: "50.125"},
		{amount: "0", debit: "0", credit: "0"},
	}

	for _, tt := range tests {
		t.Run(tt.amount, func(t *testing.T) {
			amount := decimal.RequireFromString(tt.amount)
			debit, credit := SplitAmount(amount)

			assert.True(t, decimal.RequireFromString(tt.debit).Equal(debit))
			assert.True(t, decimal.RequireFromString(tt.credit).Equal(credit))
			assert.True(t, amount.Equal(debit.Sub(credit)))
			assert.False(t, debit.IsPositive() && credit.IsPositive())
			assert.False(t, debit.IsNegative() || credit.IsNegative())
		})
	}
}

func TestResolveAllKeepsOrder(t *testing.T) {
	r := New(fixtureRepository())
	records := []types.TransactionRecord{
		record("4000", "10", "ATT1", "", "P1", "1"),
		record("9999", "", "ATT1", "", "P1", "2"),
	}

	resolved := r.ResolveAll(records)
	require.Len(t, resolved, 2)
	assert.Equal(t, "100100", resolved[0].MainAccount)
	assert.Equal(t, types.DefaultMainAccount, resolved[1].MainAccount)
}

func TestNewWithLabelsCopiesTable(t *testing.T) {
	labels := AccountTypeLabels{"R": "Income"}
	r := NewWithLabels(fixtureRepository(), labels)
	labels["R"] = "Changed"

	got := r.Resolve(record("4000", "10", "ATT1", "RC1", "P1", "1"))
	assert.Equal(t, "Income", got.AccountType)
}

func TestDetect(t *testing.T) {
	r := New(fixtureRepository())

	tests := []struct {
		name    string
		record  types.TransactionRecord
		reasons []types.Reason
	}{
		{
			name:   "fully matched",
			record: record("4000", "10", "ATT1", "RC1", "P1", "1"),
		},
		{
			name:   "account type and cost center defaults alone do not flag",
			record: record("6000", "1", "ATT1", "NOPE", "P1", "1"),
		},
		{
			name:    "main account default",
			record:  record("7000", "1", "ATT1", "RC1", "P1", "1"),
			reasons: []types.Reason{types.ReasonMainAccount, types.ReasonSubAccount},
		},
		{
			name:    "company default",
			record:  record("4000", "10", "ATT9", "RC1", "P1", "1"),
			reasons: []types.Reason{types.ReasonCompany},
		},
		{
			name:    "product unresolved",
			record:  record("4000", "10", "ATT1", "RC1", "P9", "1"),
			reasons: []types.Reason{types.ReasonProduct},
		},
		{
			name:   "blank resolved product is still resolved",
			record: record("4000", "10", "ATT1", "RC1", "PBLANK", "1"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resolved := r.Resolve(tt.record)
			unmatched, flagged := Detect(resolved)

			assert.Equal(t, len(tt.reasons) > 0, flagged)
			assert.Equal(t, tt.reasons, unmatched.Reasons)
		})
	}
}

func TestDetectAll(t *testing.T) {
	r := New(fixtureRepository())
	resolved := r.ResolveAll([]types.TransactionRecord{
		record("4000", "10", "ATT1", "RC1", "P1", "1"),
		record("9999", "", "ATT1", "RC1", "P1", "2"),
	})

	unmatched := DetectAll(resolved)
	require.Len(t, unmatched, 1)
	assert.Equal(t, "main_account,sub_account", unmatched[0].ReasonList())
}
