package resolver

import "github.com/ginjaninja78/subledger-mapper/internal/types"

// Compose builds the nine-segment account from a record's five resolved
// codes. product is the display product ("0000" when unresolved); the other
// four segments are ledger constants.
func Compose(company, mainAccount, subAccount, costCenter, product string) types.ResolvedAccount {
	return types.ResolvedAccount{
		Company:         company,
		MainAccount:     mainAccount,
		SubAccount:      subAccount,
		CostCenter:      costCenter,
		Intercompany:    types.Intercompany,
		Product:         product,
		TaxJurisdiction: types.TaxJurisdiction,
		Reserved1:       types.Reserved1,
		Reserved2:       types.Reserved2,
	}
}
