package resolver

import "github.com/ginjaninja78/subledger-mapper/internal/types"

// Detect reports whether a resolved record is unmatched and which stages
// defaulted. Only the main-account, sub-account, company and product stages
// count; account-type and cost-center defaults are accepted outcomes.
func Detect(record types.ResolvedRecord) (types.UnmatchedRecord, bool) {
	var reasons []types.Reason

	if record.MainAccount == types.DefaultMainAccount {
		reasons = append(reasons, types.ReasonMainAccount)
	}
	if record.SubAccount == types.DefaultSubAccount {
		reasons = append(reasons, types.ReasonSubAccount)
	}
	if record.Company == types.DefaultCompany {
		reasons = append(reasons, types.ReasonCompany)
	}
	if !record.ProductResolved {
		reasons = append(reasons, types.ReasonProduct)
	}

	if len(reasons) == 0 {
		return types.UnmatchedRecord{}, false
	}

	return types.UnmatchedRecord{Resolved: record, Reasons: reasons}, true
}

// DetectAll returns the unmatched view of records, in input order.
func DetectAll(records []types.ResolvedRecord) []types.UnmatchedRecord {
	var unmatched []types.UnmatchedRecord
	for _, record := range records {
		if u, ok := Detect(record); ok {
			unmatched = append(unmatched, u)
		}
	}
	return unmatched
}
