package domain

// EnrichedMunicipality is a municipality with its derived statistics.
type EnrichedMunicipality struct {
	Municipality
	Stats

	nameKey   string
	uniqueKey string
}

// EnrichedDistrict is a district with its derived statistics and enriched
// municipalities.
type EnrichedDistrict struct {
	Entity
	Stats

	Municipalities []EnrichedMunicipality `json:"municipalities"`

	nameKey string
}

// EnrichMunicipality computes the statistics of one municipality.
func EnrichMunicipality(m Municipality, t Thresholds) EnrichedMunicipality {
	return EnrichedMunicipality{
		Municipality: m,
		Stats:        ComputeStats(m.Entity, t),
		nameKey:      Fold(m.Name),
		uniqueKey:    Fold(m.UniqueName),
	}
}

// EnrichDistrict computes the statistics of a district and all of its
// municipalities.
func EnrichDistrict(d District, t Thresholds) EnrichedDistrict {
	municipalities := make([]EnrichedMunicipality, len(d.Municipalities))
	for i, m := range d.Municipalities {
		municipalities[i] = EnrichMunicipality(m, t)
	}
	return EnrichedDistrict{
		Entity:         d.Entity,
		Stats:          ComputeStats(d.Entity, t),
		Municipalities: municipalities,
		nameKey:        Fold(d.Name),
	}
}

// Enrich computes statistics for every district, keeping their order.
func Enrich(districts []District, t Thresholds) []EnrichedDistrict {
	out := make([]EnrichedDistrict, len(districts))
	for i, d := range districts {
		out[i] = EnrichDistrict(d, t)
	}
	return out
}

// Flatten lists all municipalities of all districts, district by district.
func Flatten(districts []EnrichedDistrict) []EnrichedMunicipality {
	n := 0
	for _, d := range districts {
		n += len(d.Municipalities)
	}
	out := make([]EnrichedMunicipality, 0, n)
	for _, d := range districts {
		out = append(out, d.Municipalities...)
	}
	return out
}

func (m EnrichedMunicipality) nameSearchKey() string {
	if m.nameKey != "" {
		return m.nameKey
	}
	return Fold(m.Name)
}

func (m EnrichedMunicipality) uniqueSearchKey() string {
	if m.uniqueKey != "" {
		return m.uniqueKey
	}
	return Fold(m.UniqueName)
}

func (d EnrichedDistrict) nameSearchKey() string {
	if d.nameKey != "" {
		return d.nameKey
	}
	return Fold(d.Name)
}
