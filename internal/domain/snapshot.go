package domain

import (
	"errors"
	"time"
)

// ErrNoSnapshot means no feed delivery has been processed yet. It is a
// distinct "no data yet" state, not a failure.
var ErrNoSnapshot = errors.New("no data yet")

// Snapshot is the enriched result of one feed delivery. It is never modified
// after it has been built.
type Snapshot struct {
	ID          string     `json:"id"`
	GeneratedAt time.Time  `json:"generated_at"`
	Layout      string     `json:"layout"`
	Thresholds  Thresholds `json:"thresholds"`
	Weeks       int        `json:"weeks"`

	Districts      []EnrichedDistrict     `json:"districts"`
	Municipalities []EnrichedMunicipality `json:"municipalities"`

	RowsConsumed int `json:"rows_consumed"`
	RowsSkipped  int `json:"rows_skipped"`
}

// District looks up a district by its exact name.
func (s *Snapshot) District(name string) (EnrichedDistrict, bool) {
	for _, d := range s.Districts {
		if d.Name == name {
			return d, true
		}
	}
	return EnrichedDistrict{}, false
}
