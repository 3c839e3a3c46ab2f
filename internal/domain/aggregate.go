package domain

import "fmt"

// RowError describes a feed row skipped during aggregation.
type RowError struct {
	Index int
	Err   error
}

func (e RowError) Error() string {
	return fmt.Sprintf("row %d: %v", e.Index, e.Err)
}

func (e RowError) Unwrap() error {
	return e.Err
}

// AggregateResult is the output of one aggregation pass.
type AggregateResult struct {
	// Districts in the order their names were first seen.
	Districts []District
	// Skipped lists every row that was left out, in input order.
	Skipped []RowError
	// Weeks is the number of week buckets shared by every entity.
	Weeks int
}

// Aggregator groups feed rows into districts.
type Aggregator struct {
	layout     Layout
	duplicates DuplicateNames
}

// NewAggregator creates an Aggregator reading rows with the given layout.
// A nil duplicates table disables name disambiguation.
func NewAggregator(layout Layout, duplicates DuplicateNames) *Aggregator {
	return &Aggregator{layout: layout, duplicates: duplicates}
}

// Layout returns the column layout rows are read with.
func (a *Aggregator) Layout() Layout {
	return a.layout
}

// Aggregate sums municipality rows into districts. Malformed rows are
// reported in the result and otherwise ignored. The payload week count is the
// one most valid rows agree on (the larger count wins a tie); rows disagreeing
// with it are malformed. The choice does not depend on row order.
func (a *Aggregator) Aggregate(rows []RawRow) AggregateResult {
	parsed := make([]ParsedRow, len(rows))
	parseErrs := make([]error, len(rows))
	weekCounts := make(map[int]int)
	for i, raw := range rows {
		row, err := a.layout.Parse(raw)
		if err != nil {
			parseErrs[i] = err
			continue
		}
		parsed[i] = row
		weekCounts[len(row.CasesPerWeek)]++
	}
	weeks := payloadWeeks(weekCounts)

	var (
		districts []District
		index     = make(map[string]int)
		skipped   []RowError
	)

	for i, row := range parsed {
		if parseErrs[i] != nil {
			skipped = append(skipped, RowError{Index: i, Err: parseErrs[i]})
			continue
		}
		if len(row.CasesPerWeek) != weeks {
			skipped = append(skipped, RowError{
				Index: i,
				Err:   malformed("row has %d weeks, payload has %d", len(row.CasesPerWeek), weeks),
			})
			continue
		}

		name, unique := a.duplicates.municipalityNames(row)

		di, ok := index[row.District]
		if !ok {
			di = len(districts)
			index[row.District] = di
			districts = append(districts, District{
				Entity: Entity{
					Name:         row.District,
					CasesPerWeek: make([]int64, weeks),
				},
			})
		}

		d := &districts[di]
		d.Population += row.Population
		for w, cases := range row.CasesPerWeek {
			d.CasesPerWeek[w] += cases
		}
		d.Last7DaysCases += row.Last7DaysCases
		d.Municipalities = append(d.Municipalities, Municipality{
			Entity: Entity{
				Name:           name,
				Population:     row.Population,
				CasesPerWeek:   row.CasesPerWeek,
				Last7DaysCases: row.Last7DaysCases,
			},
			UniqueName:      unique,
			District:        row.District,
			AuthorityRegion: row.AuthorityRegion,
		})
	}

	return AggregateResult{Districts: districts, Skipped: skipped, Weeks: weeks}
}

// payloadWeeks picks the most frequent week count, preferring the larger count
// on a tie. Zero when no row was valid.
func payloadWeeks(counts map[int]int) int {
	weeks, best := 0, 0
	for w, n := range counts {
		if n > best || (n == best && w > weeks) {
			weeks, best = w, n
		}
	}
	return weeks
}
