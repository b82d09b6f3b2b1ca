package converter

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/ginjaninja78/subledger-mapper/internal/mapping"
	"github.com/ginjaninja78/subledger-mapper/internal/types"
	"github.com/ginjaninja78/subledger-mapper/internal/validation"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func table(columns []string, rows ...[]string) *types.Table {
	t := &types.Table{Source: "test", Columns: columns}
	for _, row := range rows {
		m := make(map[string]string, len(columns))
		for i, column := range columns {
			m[column] = row[i]
		}
		t.Rows = append(t.Rows, m)
	}
	return t
}

func fixtureTables() map[types.Category]*types.Table {
	return map[types.Category]*types.Table{
		types.CategoryMainAccount: table(
			[]string{types.ColumnGLAccount, types.ColumnEXTC, types.ColumnDTVMainAccount},
			[]string{"4000", "10", "100100"},
			[]string{"4000", "*", "100999"},
			[]string{"6000", "*", "600100"},
		),
		types.CategorySubAccount: table(
			[]string{types.ColumnGLAccount, types.ColumnEXTC, types.ColumnDTVSubAccount},
			[]string{"4000", "*", "200200"},
			[]string{"6000", "*", "200600"},
		),
		types.CategoryAccountType: table(
			[]string{types.ColumnMainAccount, types.ColumnAccountType},
			[]string{"100100", "R"},
			[]string{"600100", "E"},
		),
		types.CategoryCompany: table(
			[]string{types.ColumnATTCompany, types.ColumnDTVCompany},
			[]string{"ATT1", "DTV1"},
			[]string{"ATT2", "DTV2"},
		),
		types.CategoryCostCenter: table(
			[]string{types.ColumnRCC, types.ColumnAccountType, types.ColumnDTVCostCenter},
			[]string{"RC1", "R", "CC100"},
			[]string{"RC2", "E", "CC200"},
		),
		types.CategoryProduct: table(
			[]string{types.ColumnATTProductID, types.ColumnFINProductCode},
			[]string{"P1", "FIN1"},
			[]string{"P2", "FIN2"},
		),
	}
}

// fixtureRecords cycles through matched and unmatched variants.
func fixtureRecords(n int) []types.TransactionRecord {
	variants := []map[string]string{
		{types.FieldGLAccount: "4000", types.FieldEXTC: "10", types.FieldCompanyCode: "ATT1", types.FieldRCC: "RC1", types.FieldProductCode: "P1"},
		{types.FieldGLAccount: "4000", types.FieldEXTC: "20", types.FieldCompanyCode: "ATT1", types.FieldRCC: "RC1", types.FieldProductCode: "P2"},
		{types.FieldGLAccount: "6000", types.FieldEXTC: "", types.FieldCompanyCode: "ATT2", types.FieldRCC: "RC2", types.FieldProductCode: "P1"},
		{types.FieldGLAccount: "9999", types.FieldEXTC: "1", types.FieldCompanyCode: "ATT9", types.FieldRCC: "", types.FieldProductCode: "P9"},
	}

	records := make([]types.TransactionRecord, n)
	for i := range records {
		row := map[string]string{types.FieldRecordType: types.DetailRecordType}
		for k, v := range variants[i%len(variants)] {
			row[k] = v
		}
		// Alternating signs with three decimals exercise rounding per group.
		amount := fmt.Sprintf("%d.%03d", i%17+1, (i*37)%1000)
		if i%3 == 0 {
			amount = "-" + amount
		}
		row[types.FieldAmount] = amount
		records[i] = types.NewTransactionRecord(i+1, row)
	}
	return records
}

func flattenOutput(out *Output) []string {
	var lines []string
	for _, row := range out.Rows {
		lines = append(lines, strings.Join([]string{
			row.Company, row.MainAccount, row.AccountType, row.SubAccount, row.CostCenter,
			row.FinancialProduct, row.Debit.String(), row.Credit.String(), fmt.Sprint(row.Records), row.Account,
		}, "|"))
	}
	for _, line := range out.Lines {
		lines = append(lines, "line|"+line.Row.Company+"|"+line.Debit+"|"+line.Credit)
	}
	for _, u := range out.Unmatched {
		lines = append(lines, fmt.Sprintf("unmatched|%d|%s", u.Resolved.Record.RowNumber, u.ReasonList()))
	}
	for _, r := range out.Records {
		lines = append(lines, fmt.Sprintf("record|%d|%s|%s|%s", r.Record.RowNumber, r.Account.String(), r.Debit, r.Credit))
	}
	lines = append(lines, "totals|"+out.TotalDebit.String()+"|"+out.TotalCredit.String())
	return lines
}

func TestPipelineShardedMatchesSequential(t *testing.T) {
	records := fixtureRecords(103)

	single, err := NewPipeline(1, nil).Run(Inputs{Records: records, Tables: fixtureTables()})
	require.NoError(t, err)
	want := flattenOutput(single)

	for _, workers := range []int{2, 4, 7, 500} {
		t.Run(fmt.Sprintf("workers=%d", workers), func(t *testing.T) {
			got, err := NewPipeline(workers, nil).Run(Inputs{Records: records, Tables: fixtureTables()})
			require.NoError(t, err)
			assert.Equal(t, want, flattenOutput(got))
		})
	}
}

func TestPipelineOutput(t *testing.T) {
	out, err := NewPipeline(1, zap.NewNop()).Run(Inputs{Records: fixtureRecords(4), Tables: fixtureTables()})
	require.NoError(t, err)

	require.Len(t, out.Records, 4)
	assert.Equal(t, "DTV1*100100*200200*CC100*0000*FIN1*000*00000*00000", out.Records[0].Account.String())
	assert.Equal(t, "DTV1*100999*200200*000000*0000*FIN2*000*00000*00000", out.Records[1].Account.String())
	assert.Equal(t, "DTV2*600100*200600*CC200*0000*FIN1*000*00000*00000", out.Records[2].Account.String())

	require.Len(t, out.Unmatched, 1)
	assert.Equal(t, 4, out.Unmatched[0].Resolved.Record.RowNumber)
	assert.Equal(t, "main_account,sub_account,company,product", out.Unmatched[0].ReasonList())

	assert.Len(t, out.Rows, 4)
	last := out.Lines[len(out.Lines)-1]
	assert.True(t, last.Total)
	assert.True(t, out.TotalDebit.Sub(out.TotalCredit).Equal(sumAmounts(out.Records)))

	assert.Equal(t, 3, out.Tables[types.CategoryMainAccount].Rows)
}

func sumAmounts(records []types.ResolvedRecord) decimal.Decimal {
	total := decimal.Zero
	for _, r := range records {
		total = total.Add(r.Record.Amount)
	}
	return total
}

func TestPipelineEmptyRecords(t *testing.T) {
	out, err := NewPipeline(4, nil).Run(Inputs{Tables: fixtureTables()})
	require.NoError(t, err)

	assert.Empty(t, out.Records)
	assert.Empty(t, out.Rows)
	assert.Empty(t, out.Unmatched)
	require.Len(t, out.Lines, 1)
	assert.Equal(t, "0.00", out.Lines[0].Debit)
}

func TestPipelineMissingTablesIsFatal(t *testing.T) {
	tables := fixtureTables()
	delete(tables, types.CategoryCostCenter)
	delete(tables, types.CategoryProduct)

	out, err := NewPipeline(1, nil).Run(Inputs{Records: fixtureRecords(3), Tables: tables})
	require.Error(t, err)
	assert.Nil(t, out)

	assert.True(t, errors.Is(err, mapping.ErrMissingMappingTable))

	var missing *mapping.MissingMappingTableError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, []types.Category{types.CategoryCostCenter, types.CategoryProduct}, missing.Categories)
}

func TestPipelineMissingColumnIsFatal(t *testing.T) {
	tables := fixtureTables()
	tables[types.CategoryCompany] = table([]string{types.ColumnATTCompany, "Company"}, []string{"ATT1", "DTV1"})

	_, err := NewPipeline(1, nil).Run(Inputs{Records: fixtureRecords(1), Tables: tables})

	var missing *validation.MissingColumnError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, types.CategoryCompany, missing.Category)
	assert.Equal(t, []string{types.ColumnDTVCompany}, missing.Missing)
}

func TestPipelineLogsShadowedKeys(t *testing.T) {
	tables := fixtureTables()
	tables[types.CategoryCompany] = table(
		[]string{types.ColumnATTCompany, types.ColumnDTVCompany},
		[]string{"ATT1", "DTV1"},
		[]string{"att1", "DTV9"},
	)

	core, logs := observer.New(zapcore.DebugLevel)
	out, err := NewPipeline(1, zap.New(core)).Run(Inputs{Records: fixtureRecords(1), Tables: tables})
	require.NoError(t, err)

	assert.Equal(t, "DTV1", out.Records[0].Company)

	warnings := logs.FilterMessage("duplicate mapping keys ignored").All()
	require.Len(t, warnings, 1)
	assert.Equal(t, zapcore.WarnLevel, warnings[0].Level)
	assert.Equal(t, "company", warnings[0].ContextMap()["category"])
	assert.EqualValues(t, 1, warnings[0].ContextMap()["shadowed"])

	resolved := logs.FilterMessage("resolved records").All()
	require.Len(t, resolved, 1)
	assert.EqualValues(t, 1, resolved[0].ContextMap()["records"])
}

func TestPipelineBlankProductRowDoesNotHideUnmatched(t *testing.T) {
	tables := fixtureTables()
	tables[types.CategoryProduct].Rows = append(tables[types.CategoryProduct].Rows,
		map[string]string{types.ColumnATTProductID: "", types.ColumnFINProductCode: "ORPHAN"},
	)

	records := fixtureRecords(1)
	records[0].ProductCode = ""

	core, logs := observer.New(zapcore.DebugLevel)
	out, err := NewPipeline(1, zap.New(core)).Run(Inputs{Records: records, Tables: tables})
	require.NoError(t, err)

	assert.False(t, out.Records[0].ProductResolved)
	require.Len(t, out.Unmatched, 1)
	assert.Equal(t, []types.Reason{types.ReasonProduct}, out.Unmatched[0].Reasons)
	assert.Equal(t, 1, out.Tables[types.CategoryProduct].Blank)

	warnings := logs.FilterMessage("mapping rows with blank key ignored").All()
	require.Len(t, warnings, 1)
	assert.Equal(t, "product", warnings[0].ContextMap()["category"])
	assert.EqualValues(t, 1, warnings[0].ContextMap()["blank"])
}
