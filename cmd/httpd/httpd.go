// Package httpd implements the HTTP server for the content pipeline.
package httpd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonesrussell/goread/cmd/common"
	"github.com/jonesrussell/goread/internal/scheduler"
)

// Cmd is the httpd command.
var Cmd = &cobra.Command{
	Use:   "httpd",
	Short: "Start the pipeline daemon and HTTP API",
	Long: `Start the scheduler and the HTTP API and run until interrupted.
The scheduler refreshes the article listings once a day, processes one
queued article at a time on an interval, and triggers an immediate refresh
on startup.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return Start()
	},
}

// Command returns the httpd command for use in the root command.
func Command() *cobra.Command {
	return Cmd
}

// Start starts the scheduler and the HTTP server and runs until interrupted.
// It handles graceful shutdown on SIGINT or SIGTERM signals.
func Start() error {
	// Phase 1: Initialize dependencies
	deps, err := common.NewCommandDeps()
	if err != nil {
		return fmt.Errorf("failed to initialize dependencies: %w", err)
	}

	// Phase 2: Build the content pipeline
	result, err := common.CreateService(deps.Config, deps.Logger)
	if err != nil {
		return fmt.Errorf("failed to create pipeline: %w", err)
	}

	// Phase 3: Start the scheduler
	sched, err := startScheduler(deps, result)
	if err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}

	// Phase 4: Start HTTP server
	server, errChan := startHTTPServer(deps, result, sched)

	// Phase 5: Run server until interrupted
	return runServerUntilInterrupt(deps, server, sched, errChan)
}

// startScheduler creates and starts the pipeline scheduler.
func startScheduler(deps common.CommandDeps, result *common.ServiceResult) (*scheduler.Scheduler, error) {
	schedCfg := deps.Config.GetSchedulerConfig()
	sched := scheduler.New(result.Service, scheduler.Config{
		FetchHour:              schedCfg.FetchHour,
		FetchMinute:            schedCfg.FetchMinute,
		ProcessIntervalMinutes: schedCfg.ProcessIntervalMinutes,
	}, deps.Logger)

	if err := sched.Start(); err != nil {
		return nil, err
	}

	deps.Logger.Info("Scheduler started",
		"fetch_hour", schedCfg.FetchHour,
		"fetch_minute", schedCfg.FetchMinute,
		"process_interval_minutes", schedCfg.ProcessIntervalMinutes)

	return sched, nil
}
