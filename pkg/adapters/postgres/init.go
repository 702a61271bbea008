package postgres

import (
	"log/slog"

	"github.com/leapstack-labs/ldmgen/pkg/adapter"
)

func init() {
	adapter.Register("postgres", func(logger *slog.Logger) adapter.Adapter { return New(logger) })
}
