package domain

import (
	"errors"
	"fmt"
	"sort"
)

// ErrInvalidQuery is returned for unknown sort keys or orders.
var ErrInvalidQuery = errors.New("invalid list query")

// SortKey names a sortable statistic.
type SortKey string

const (
	SortTotalCases              SortKey = "total_cases"
	SortTotalCasesPer100000     SortKey = "total_cases_per_100000"
	SortLast7DaysCases          SortKey = "last_7_days_cases"
	SortLast7DaysCasesPer100000 SortKey = "last_7_days_cases_per_100000"
)

// SortOrder is "asc" or "desc".
type SortOrder string

const (
	OrderAsc  SortOrder = "asc"
	OrderDesc SortOrder = "desc"
)

const (
	// DefaultPageSize is the number of rows shown before "show more".
	DefaultPageSize = 15

	// LargeMunicipalityPopulation is the population a municipality must
	// exceed to pass the OnlyLarger filter.
	LargeMunicipalityPopulation = 1000
)

// ParseSortKey validates a sort key; "" selects the default.
func ParseSortKey(s string) (SortKey, error) {
	switch k := SortKey(s); k {
	case "":
		return SortLast7DaysCasesPer100000, nil
	case SortTotalCases, SortTotalCasesPer100000, SortLast7DaysCases, SortLast7DaysCasesPer100000:
		return k, nil
	default:
		return "", fmt.Errorf("%w: sort key %q", ErrInvalidQuery, s)
	}
}

// ParseSortOrder validates a sort order; "" selects descending.
func ParseSortOrder(s string) (SortOrder, error) {
	switch o := SortOrder(s); o {
	case "":
		return OrderDesc, nil
	case OrderAsc, OrderDesc:
		return o, nil
	default:
		return "", fmt.Errorf("%w: sort order %q", ErrInvalidQuery, s)
	}
}

// ListQuery describes the view a table widget asks for.
type ListQuery struct {
	Sort   SortKey
	Order  SortOrder
	Search string

	Offset int
	// Limit is the page size; zero selects DefaultPageSize.
	Limit int

	// All disables paging in the district view.
	All bool
	// OnlyLarger keeps municipalities above LargeMunicipalityPopulation when
	// no search is active (municipality view only).
	OnlyLarger bool
}

// Page is one page of a filtered, sorted list.
type Page[T any] struct {
	// Total counts the filtered items before paging.
	Total int
	Items []T
}

// QueryDistricts sorts, filters and pages districts. Municipalities inside
// each district are sorted by the same key. During a search only matching
// municipalities are kept, and a district is kept when its own name or any of
// its municipalities matches. The input is never modified.
func QueryDistricts(districts []EnrichedDistrict, q ListQuery) (Page[EnrichedDistrict], error) {
	key, order, err := q.sorting()
	if err != nil {
		return Page[EnrichedDistrict]{}, err
	}
	folded := Fold(q.Search)
	searching := searchActive(folded)

	out := make([]EnrichedDistrict, 0, len(districts))
	for _, d := range districts {
		municipalities := make([]EnrichedMunicipality, 0, len(d.Municipalities))
		for _, m := range d.Municipalities {
			if searching && !matches(m.nameSearchKey(), folded) {
				continue
			}
			municipalities = append(municipalities, m)
		}
		if searching && len(municipalities) == 0 && !matches(d.nameSearchKey(), folded) {
			continue
		}
		sortBy(municipalities, order, func(m EnrichedMunicipality) int64 { return sortValue(key, m.Entity, m.Stats) })
		d.Municipalities = municipalities
		out = append(out, d)
	}
	sortBy(out, order, func(d EnrichedDistrict) int64 { return sortValue(key, d.Entity, d.Stats) })

	if q.All || searching {
		return Page[EnrichedDistrict]{Total: len(out), Items: out}, nil
	}
	return paginate(out, q.Offset, q.Limit), nil
}

// QueryMunicipalities sorts, filters and pages the flat municipality list.
// Search matches the unique name; OnlyLarger applies only without a search.
func QueryMunicipalities(municipalities []EnrichedMunicipality, q ListQuery) (Page[EnrichedMunicipality], error) {
	key, order, err := q.sorting()
	if err != nil {
		return Page[EnrichedMunicipality]{}, err
	}
	folded := Fold(q.Search)
	searching := searchActive(folded)

	out := make([]EnrichedMunicipality, 0, len(municipalities))
	for _, m := range municipalities {
		switch {
		case searching:
			if !matches(m.uniqueSearchKey(), folded) {
				continue
			}
		case q.OnlyLarger:
			if m.Population <= LargeMunicipalityPopulation {
				continue
			}
		}
		out = append(out, m)
	}
	sortBy(out, order, func(m EnrichedMunicipality) int64 { return sortValue(key, m.Entity, m.Stats) })

	return paginate(out, q.Offset, q.Limit), nil
}

func (q ListQuery) sorting() (SortKey, SortOrder, error) {
	key, err := ParseSortKey(string(q.Sort))
	if err != nil {
		return "", "", err
	}
	order, err := ParseSortOrder(string(q.Order))
	if err != nil {
		return "", "", err
	}
	return key, order, nil
}

func sortValue(key SortKey, e Entity, s Stats) int64 {
	switch key {
	case SortTotalCases:
		return s.TotalCases
	case SortTotalCasesPer100000:
		return s.TotalCasesPer100000
	case SortLast7DaysCases:
		return e.Last7DaysCases
	default:
		return s.Last7DaysCasesPer100000
	}
}

// sortBy sorts in place and keeps the input order of ties.
func sortBy[T any](items []T, order SortOrder, value func(T) int64) {
	sort.SliceStable(items, func(i, j int) bool {
		vi, vj := value(items[i]), value(items[j])
		if order == OrderAsc {
			return vi < vj
		}
		return vi > vj
	})
}

func paginate[T any](items []T, offset, limit int) Page[T] {
	if limit <= 0 {
		limit = DefaultPageSize
	}
	total := len(items)
	if offset < 0 {
		offset = 0
	}
	if offset > total {
		offset = total
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return Page[T]{Total: total, Items: items[offset:end]}
}
