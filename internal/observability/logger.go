package observability

import (
	"log/slog"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"

	"github.com/DataRozhlas/covid-obce/internal/config"
)

// NewLogger builds the process logger from LOG_LEVEL and LOG_FORMAT and
// installs it as the slog default.
func NewLogger(cfg *config.Config) *slog.Logger {
	logger := sharedobs.NewLogger(cfg.LogLevel, cfg.LogFormat).With("service", "covid-obce")
	slog.SetDefault(logger)
	return logger
}
