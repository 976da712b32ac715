package observability

import (
	"fmt"

	"go.uber.org/zap"
)

// NewLogger builds a JSON production logger at the given level
// ("debug", "info", "warn", "error"). "dev" selects a console logger.
func NewLogger(level string) (*zap.Logger, error) {
	if level == "dev" {
		return zap.NewDevelopment()
	}

	cfg := zap.NewProductionConfig()
	if level != "" {
		lvl, err := zap.ParseAtomicLevel(level)
		if err != nil {
			return nil, fmt.Errorf("parse log level %q: %w", level, err)
		}
		cfg.Level = lvl
	}
	return cfg.Build()
}
