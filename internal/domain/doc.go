// Package domain turns the municipal COVID-19 case feed into district and
// municipality records with per-capita statistics and severity levels.
//
// # Data Source
//
// The feed is a JSON array published at https://data.irozhlas.cz/covid-uzis/obce.json.
// Every element is a positional row describing one municipality:
//
//	[district, authorityRegion, municipality, population, last7DaysCases, week0, week1, ..., weekN]
//
// Week columns are ordered oldest first. Their count varies between payloads
// but is the same for every row of one payload.
//
// # Feed Layouts
//
// The position of the last-7-days column and the span of the week columns
// changed between feed versions, so a row is always read through a [Layout]:
//
//	current         weeks 5..end     last 7 days in column 4
//	partial-week    weeks 5..end-1   last 7 days in column 4 (trailing unfinished week dropped)
//	last7-trailing  weeks 4..end-1   last 7 days in the last column
//	no-last7        weeks 4..end     last 7 days taken from the second-to-last week
//
// # Duplicate Names
//
// Two municipalities share a name inside the same district (Březina in
// Brno-venkov, Mezholezy in Domažlice). Rows matching a [DuplicateNames] entry
// get the authority region appended, e.g. "Březina (<authority region>)".
//
// # Per-capita Figures
//
// All per-capita values are cases per 100 000 inhabitants rounded half away
// from zero, computed per week (never derived from the cumulative total).
// A municipality with zero population has all per-capita values zero.
//
// # Severity Levels
//
// Each weekly per-capita value is classified against a [Thresholds] table.
// Production uses fixed quartiles of the non-zero weekly values:
//
//	0              no cases
//	1              some cases, below level 2
//	2  >= 76       3  >= 216       4  >= 474
//
// # Week-over-week Change
//
// The percentage change of the weekly per-capita value against the previous
// week: 0 for the first week, 100 when the previous week was zero and the
// current is not. See [ClassifyChange] for the five colour buckets.
package domain
