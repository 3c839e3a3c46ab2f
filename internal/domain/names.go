package domain

import (
	"fmt"
	"strings"
)

// NamePair identifies a municipality inside its district.
type NamePair struct {
	Municipality string
	District     string
}

// DuplicateNames lists municipality/district pairs that occur more than once
// in the feed and must be told apart by their authority region.
type DuplicateNames map[NamePair]struct{}

// NewDuplicateNames builds a lookup table from pairs.
func NewDuplicateNames(pairs ...NamePair) DuplicateNames {
	d := make(DuplicateNames, len(pairs))
	for _, p := range pairs {
		d[p] = struct{}{}
	}
	return d
}

// DefaultDuplicateNames returns the pairs known to collide in the current feed.
func DefaultDuplicateNames() DuplicateNames {
	return NewDuplicateNames(
		NamePair{Municipality: "Březina", District: "Brno-venkov"},
		NamePair{Municipality: "Mezholezy", District: "Domažlice"},
	)
}

// ParseDuplicateNames reads "municipality|district" entries.
func ParseDuplicateNames(entries []string) (DuplicateNames, error) {
	d := make(DuplicateNames, len(entries))
	for _, entry := range entries {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		municipality, district, ok := strings.Cut(entry, "|")
		municipality = strings.TrimSpace(municipality)
		district = strings.TrimSpace(district)
		if !ok || municipality == "" || district == "" {
			return nil, fmt.Errorf("invalid duplicate name entry %q, want municipality|district", entry)
		}
		d[NamePair{Municipality: municipality, District: district}] = struct{}{}
	}
	return d, nil
}

// Contains reports whether the pair needs disambiguation.
func (d DuplicateNames) Contains(municipality, district string) bool {
	_, ok := d[NamePair{Municipality: municipality, District: district}]
	return ok
}

// Pairs returns the table entries; order is unspecified.
func (d DuplicateNames) Pairs() []NamePair {
	pairs := make([]NamePair, 0, len(d))
	for p := range d {
		pairs = append(pairs, p)
	}
	return pairs
}

// municipalityNames returns the display name used inside a district and the
// country-wide unique name for a parsed row.
func (d DuplicateNames) municipalityNames(row ParsedRow) (name, unique string) {
	if d.Contains(row.Municipality, row.District) {
		name = fmt.Sprintf("%s (%s)", row.Municipality, row.AuthorityRegion)
		unique = fmt.Sprintf("%s (%s, %s)", row.Municipality, row.AuthorityRegion, row.District)
		return name, unique
	}
	return row.Municipality, fmt.Sprintf("%s (%s)", row.Municipality, row.District)
}
