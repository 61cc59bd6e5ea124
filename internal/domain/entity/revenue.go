package entity

// RevenueFact holds a security's most recently disclosed monthly revenue
// figures. Figures are kept as reported by the disclosure source (thousand-TWD
// strings); the report renders them verbatim.
//
// A fact with Missing set carries a human-readable MissingReason instead of
// figures. Facts are fetched fresh each run and never cached.
type RevenueFact struct {
	Code              string
	Month             string
	MonthRevenue      string
	MonthOverMonthPct string
	YearOverYearPct   string
	CumulativeRevenue string
	CumulativeYoYPct  string
	Missing           bool
	MissingReason     string
}

// MissingRevenue returns an absent-marker fact for the given security code.
func MissingRevenue(code, reason string) RevenueFact {
	return RevenueFact{Code: code, Missing: true, MissingReason: reason}
}
