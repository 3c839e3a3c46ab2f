package http

import "github.com/DataRozhlas/covid-obce/internal/domain"

type pageResponse[T any] struct {
	Total int `json:"total"`
	Items []T `json:"items"`
}

// statsView adds the display buckets of the week-over-week changes.
type statsView struct {
	domain.Stats
	ChangeClassesPerWeek []domain.ChangeClass `json:"change_classes_per_week"`
}

type municipalityView struct {
	domain.Municipality
	statsView
}

type districtView struct {
	domain.Entity
	statsView
	Municipalities []municipalityView `json:"municipalities"`
}

func newStatsView(s domain.Stats) statsView {
	return statsView{Stats: s, ChangeClassesPerWeek: domain.ClassifyChanges(s.PercentageChangePerWeek)}
}

func newMunicipalityView(m domain.EnrichedMunicipality) municipalityView {
	return municipalityView{Municipality: m.Municipality, statsView: newStatsView(m.Stats)}
}

func newDistrictView(d domain.EnrichedDistrict) districtView {
	ms := make([]municipalityView, len(d.Municipalities))
	for i, m := range d.Municipalities {
		ms[i] = newMunicipalityView(m)
	}
	return districtView{Entity: d.Entity, statsView: newStatsView(d.Stats), Municipalities: ms}
}
