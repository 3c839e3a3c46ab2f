package pipeline

import (
	"log/slog"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/DataRozhlas/covid-obce/internal/domain"
)

// maxLoggedRowErrors limits per-row warnings for one payload.
const maxLoggedRowErrors = 20

// Builder turns feed rows into an enriched snapshot.
type Builder struct {
	aggregator *domain.Aggregator
	thresholds domain.Thresholds
	clock      clockwork.Clock
	newID      func() string
	logger     *slog.Logger
}

// NewBuilder creates a Builder. The thresholds are expected to be validated
// already.
func NewBuilder(layout domain.Layout, duplicates domain.DuplicateNames, thresholds domain.Thresholds, clock clockwork.Clock, logger *slog.Logger) *Builder {
	return &Builder{
		aggregator: domain.NewAggregator(layout, duplicates),
		thresholds: thresholds,
		clock:      clock,
		newID:      uuid.NewString,
		logger:     logger,
	}
}

// Build aggregates and enriches rows. Malformed rows are logged and counted in
// the snapshot, never fatal.
func (b *Builder) Build(rows []domain.RawRow) *domain.Snapshot {
	res := b.aggregator.Aggregate(rows)

	for i, rowErr := range res.Skipped {
		if i == maxLoggedRowErrors {
			b.logger.Warn("more rows skipped", "count", len(res.Skipped)-maxLoggedRowErrors)
			break
		}
		b.logger.Warn("malformed row, skipping", "row", rowErr.Index, "error", rowErr.Err)
	}

	districts := domain.Enrich(res.Districts, b.thresholds)
	return &domain.Snapshot{
		ID:             b.newID(),
		GeneratedAt:    b.clock.Now().UTC(),
		Layout:         b.aggregator.Layout().Name,
		Thresholds:     b.thresholds,
		Weeks:          res.Weeks,
		Districts:      districts,
		Municipalities: domain.Flatten(districts),
		RowsConsumed:   len(rows) - len(res.Skipped),
		RowsSkipped:    len(res.Skipped),
	}
}
