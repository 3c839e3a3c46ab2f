package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
)

var (
	// ErrMalformedRow marks a row that cannot be read with the configured layout.
	ErrMalformedRow = errors.New("malformed row")

	// ErrUnknownLayout is returned by LayoutByName for unregistered names.
	ErrUnknownLayout = errors.New("unknown feed layout")

	// ErrEmptyPayload means the feed delivered no rows at all.
	ErrEmptyPayload = errors.New("empty payload")

	// ErrInvalidLayout is returned by Layout.Validate.
	ErrInvalidLayout = errors.New("invalid feed layout")
)

// RawRow is one positional row of the feed as decoded from JSON: strings for
// names, numbers for counts.
type RawRow []any

// Payload is a complete feed delivery.
type Payload struct {
	Rows []RawRow

	// NotModified is set when the upstream confirmed the rows are unchanged
	// since the previous delivery.
	NotModified bool
}

// Fixed leading columns shared by every layout.
const (
	colDistrict = iota
	colAuthorityRegion
	colMunicipality
	colPopulation
)

// Last7DaysSource tells where a layout reads the last-7-days count from.
type Last7DaysSource int

const (
	// Last7DaysFromColumn reads a dedicated column of the row.
	Last7DaysFromColumn Last7DaysSource = iota
	// Last7DaysFromWeek substitutes one of the week buckets.
	Last7DaysFromWeek
)

// ParseLast7DaysSource reads "column" or "week".
func ParseLast7DaysSource(s string) (Last7DaysSource, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "column":
		return Last7DaysFromColumn, nil
	case "week":
		return Last7DaysFromWeek, nil
	default:
		return 0, fmt.Errorf("%w: last 7 days source %q, want column or week", ErrInvalidLayout, s)
	}
}

// Layout maps feed columns to row fields.
type Layout struct {
	Name string `json:"name"`

	// WeeksStart is the first week column (inclusive).
	WeeksStart int `json:"weeks_start"`
	// WeeksEnd is the end of the week columns (exclusive). Zero or negative
	// values count from the end of the row, so 0 means "through the last column".
	WeeksEnd int `json:"weeks_end"`

	Last7DaysSource Last7DaysSource `json:"last_7_days_source"`
	// Last7DaysIndex is a row column for Last7DaysFromColumn or a week index for
	// Last7DaysFromWeek. Negative values count from the end.
	Last7DaysIndex int `json:"last_7_days_index"`
}

// Named feed layouts.
const (
	LayoutCurrent       = "current"
	LayoutPartialWeek   = "partial-week"
	LayoutLast7Trailing = "last7-trailing"
	LayoutNoLast7       = "no-last7"

	// LayoutCustom names a preset whose columns were overridden by configuration.
	LayoutCustom = "custom"
)

var layouts = map[string]Layout{
	LayoutCurrent: {
		Name:            LayoutCurrent,
		WeeksStart:      5,
		WeeksEnd:        0,
		Last7DaysSource: Last7DaysFromColumn,
		Last7DaysIndex:  4,
	},
	LayoutPartialWeek: {
		Name:            LayoutPartialWeek,
		WeeksStart:      5,
		WeeksEnd:        -1,
		Last7DaysSource: Last7DaysFromColumn,
		Last7DaysIndex:  4,
	},
	LayoutLast7Trailing: {
		Name:            LayoutLast7Trailing,
		WeeksStart:      4,
		WeeksEnd:        -1,
		Last7DaysSource: Last7DaysFromColumn,
		Last7DaysIndex:  -1,
	},
	LayoutNoLast7: {
		Name:            LayoutNoLast7,
		WeeksStart:      4,
		WeeksEnd:        0,
		Last7DaysSource: Last7DaysFromWeek,
		Last7DaysIndex:  -2,
	},
}

// LayoutByName returns a registered layout.
func LayoutByName(name string) (Layout, error) {
	l, ok := layouts[name]
	if !ok {
		return Layout{}, fmt.Errorf("%w: %q", ErrUnknownLayout, name)
	}
	return l, nil
}

// LayoutNames lists the registered layout names in lexical order.
func LayoutNames() []string {
	names := make([]string, 0, len(layouts))
	for name := range layouts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Validate checks the column mapping before any row is read: the week columns
// must start after the population column and not be empty, and a last-7-days
// column must not point at a name or population column.
func (l Layout) Validate() error {
	if l.WeeksStart <= colPopulation {
		return fmt.Errorf("%w: weeks start at column %d, must be after column %d", ErrInvalidLayout, l.WeeksStart, colPopulation)
	}
	if l.WeeksEnd > 0 && l.WeeksEnd <= l.WeeksStart {
		return fmt.Errorf("%w: weeks end %d is not after weeks start %d", ErrInvalidLayout, l.WeeksEnd, l.WeeksStart)
	}
	switch l.Last7DaysSource {
	case Last7DaysFromColumn:
		if l.Last7DaysIndex >= 0 && l.Last7DaysIndex <= colPopulation {
			return fmt.Errorf("%w: last 7 days column %d overlaps names or population", ErrInvalidLayout, l.Last7DaysIndex)
		}
	case Last7DaysFromWeek:
	default:
		return fmt.Errorf("%w: unknown last 7 days source %d", ErrInvalidLayout, l.Last7DaysSource)
	}
	return nil
}

// ParsedRow holds the fields of one row after applying a layout.
type ParsedRow struct {
	District        string
	AuthorityRegion string
	Municipality    string
	Population      int64
	Last7DaysCases  int64
	CasesPerWeek    []int64
}

// Parse extracts the row fields. Any error wraps ErrMalformedRow.
func (l Layout) Parse(row RawRow) (ParsedRow, error) {
	if len(row) <= colPopulation {
		return ParsedRow{}, malformed("row has %d columns, need at least %d", len(row), colPopulation+1)
	}

	district := cellString(row[colDistrict])
	if district == "" {
		return ParsedRow{}, malformed("missing district name")
	}
	municipality := cellString(row[colMunicipality])
	if municipality == "" {
		return ParsedRow{}, malformed("missing municipality name")
	}

	population, err := cellCount(row[colPopulation])
	if err != nil {
		return ParsedRow{}, malformed("population: %v", err)
	}

	end := l.WeeksEnd
	if end <= 0 {
		end += len(row)
	}
	if l.WeeksStart <= colPopulation || end < l.WeeksStart || end > len(row) {
		return ParsedRow{}, malformed("row has %d columns, layout %q needs weeks %d..%d", len(row), l.Name, l.WeeksStart, end)
	}

	weeks := make([]int64, 0, end-l.WeeksStart)
	for i := l.WeeksStart; i < end; i++ {
		v, err := cellCount(row[i])
		if err != nil {
			return ParsedRow{}, malformed("week column %d: %v", i, err)
		}
		weeks = append(weeks, v)
	}

	last7, err := l.last7Days(row, weeks)
	if err != nil {
		return ParsedRow{}, err
	}

	return ParsedRow{
		District:        district,
		AuthorityRegion: cellString(row[colAuthorityRegion]),
		Municipality:    municipality,
		Population:      population,
		Last7DaysCases:  last7,
		CasesPerWeek:    weeks,
	}, nil
}

func (l Layout) last7Days(row RawRow, weeks []int64) (int64, error) {
	switch l.Last7DaysSource {
	case Last7DaysFromWeek:
		i := l.Last7DaysIndex
		if i < 0 {
			i += len(weeks)
		}
		if i < 0 || i >= len(weeks) {
			return 0, malformed("row has %d weeks, cannot take last 7 days from week %d", len(weeks), l.Last7DaysIndex)
		}
		return weeks[i], nil
	default:
		i := l.Last7DaysIndex
		if i < 0 {
			i += len(row)
		}
		if i < 0 || i >= len(row) {
			return 0, malformed("row has %d columns, no last 7 days column %d", len(row), l.Last7DaysIndex)
		}
		v, err := cellCount(row[i])
		if err != nil {
			return 0, malformed("last 7 days column %d: %v", i, err)
		}
		return v, nil
	}
}

func malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrMalformedRow, fmt.Sprintf(format, args...))
}

// cellString returns the trimmed string value of a cell, or "" for anything
// that is not a string.
func cellString(v any) string {
	s, ok := v.(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(s)
}

// maxExactCount is the largest integer a float64 holds exactly.
const maxExactCount = 1 << 53

// cellCount reads a non-negative integer count. JSON decoders hand numbers
// over as float64 or json.Number depending on their configuration.
func cellCount(v any) (int64, error) {
	switch n := v.(type) {
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) || n != math.Trunc(n) {
			return 0, fmt.Errorf("not an integer: %v", n)
		}
		if n < 0 || n > maxExactCount {
			return 0, fmt.Errorf("out of range: %v", n)
		}
		return int64(n), nil
	case int64:
		if n < 0 {
			return 0, fmt.Errorf("negative: %d", n)
		}
		return n, nil
	case int:
		if n < 0 {
			return 0, fmt.Errorf("negative: %d", n)
		}
		return int64(n), nil
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, fmt.Errorf("not an integer: %s", n)
		}
		if i < 0 {
			return 0, fmt.Errorf("negative: %d", i)
		}
		return i, nil
	case nil:
		return 0, errors.New("missing value")
	default:
		return 0, fmt.Errorf("unexpected type %T", v)
	}
}
