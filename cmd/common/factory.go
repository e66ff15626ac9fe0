package common

import (
	"fmt"

	"github.com/jonesrussell/goread/internal/config"
	"github.com/jonesrussell/goread/internal/logger"
)

// NewCommandDeps creates CommandDeps by loading config and creating logger.
// This consolidates the common initialization code across commands.
func NewCommandDeps() (CommandDeps, error) {
	// Load config
	cfg, err := config.Load()
	if err != nil {
		return CommandDeps{}, fmt.Errorf("load config: %w", err)
	}
	if validateErr := cfg.Validate(); validateErr != nil {
		return CommandDeps{}, fmt.Errorf("validate config: %w", validateErr)
	}

	// Create logger
	log, err := logger.New(cfg.GetLoggerConfig())
	if err != nil {
		return CommandDeps{}, fmt.Errorf("create logger: %w", err)
	}

	deps := CommandDeps{
		Logger: log,
		Config: cfg,
	}

	if validateErr := deps.Validate(); validateErr != nil {
		return CommandDeps{}, fmt.Errorf("validate deps: %w", validateErr)
	}

	return deps, nil
}
