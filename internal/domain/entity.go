package domain

// Entity is the shape shared by districts and municipalities.
type Entity struct {
	Name           string  `json:"name"`
	Population     int64   `json:"population"`
	CasesPerWeek   []int64 `json:"cases_per_week"`
	Last7DaysCases int64   `json:"last_7_days_cases"`
}

// Municipality is one feed row after name disambiguation.
type Municipality struct {
	Entity

	// UniqueName identifies the municipality across the whole country:
	// "Name (District)", or "Name (Region, District)" for known duplicates.
	UniqueName      string `json:"unique_name"`
	District        string `json:"district"`
	AuthorityRegion string `json:"authority_region"`
}

// District sums its municipalities. Population, CasesPerWeek and
// Last7DaysCases always equal the totals over Municipalities.
type District struct {
	Entity

	Municipalities []Municipality `json:"municipalities"`
}
