package feed

import (
	"fmt"
	"io"

	"github.com/bytedance/sonic"

	"github.com/DataRozhlas/covid-obce/internal/domain"
)

// DecodeRows reads the feed document: a JSON array of positional rows.
// An empty array yields domain.ErrEmptyPayload.
func DecodeRows(r io.Reader) ([]domain.RawRow, error) {
	var rows []domain.RawRow
	if err := sonic.ConfigStd.NewDecoder(r).Decode(&rows); err != nil {
		return nil, fmt.Errorf("decode feed: %w", err)
	}
	if len(rows) == 0 {
		return nil, domain.ErrEmptyPayload
	}
	return rows, nil
}
