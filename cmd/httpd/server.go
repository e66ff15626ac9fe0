package httpd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jonesrussell/goread/cmd/common"
	"github.com/jonesrussell/goread/internal/api"
	"github.com/jonesrussell/goread/internal/constants"
	"github.com/jonesrussell/goread/internal/scheduler"
)

// startHTTPServer creates the HTTP server and starts serving in the
// background. Returns the server and an error channel for serve failures.
func startHTTPServer(
	deps common.CommandDeps,
	result *common.ServiceResult,
	sched *scheduler.Scheduler,
) (*http.Server, chan error) {
	router := api.SetupRouter(deps.Logger, result.Service, sched, result.Store)

	serverCfg := deps.Config.GetServerConfig()
	server := &http.Server{
		Addr:              serverCfg.Address,
		Handler:           router,
		ReadTimeout:       serverCfg.ReadTimeout,
		ReadHeaderTimeout: constants.DefaultReadHeaderTimeout,
		WriteTimeout:      serverCfg.WriteTimeout,
		IdleTimeout:       serverCfg.IdleTimeout,
	}

	// Start server in goroutine
	deps.Logger.Info("Starting HTTP server", "addr", serverCfg.Address)
	errChan := make(chan error, constants.ErrorChannelBufferSize)
	go func() {
		if serveErr := server.ListenAndServe(); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			errChan <- serveErr
		}
	}()

	return server, errChan
}

// runServerUntilInterrupt runs the server until interrupted by signal or error.
func runServerUntilInterrupt(
	deps common.CommandDeps,
	server *http.Server,
	sched *scheduler.Scheduler,
	errChan chan error,
) error {
	// Set up signal handling for graceful shutdown
	sigChan := make(chan os.Signal, constants.SignalChannelBufferSize)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	// Wait for interrupt signal or error
	select {
	case serverErr := <-errChan:
		deps.Logger.Error("Server error", "error", serverErr)
		return fmt.Errorf("server error: %w", serverErr)
	case sig := <-sigChan:
		return shutdownServer(deps, server, sched, sig)
	}
}

// shutdownServer performs graceful shutdown. The scheduler stops first so no
// new pipeline work starts while the server drains in-flight requests.
func shutdownServer(
	deps common.CommandDeps,
	server *http.Server,
	sched *scheduler.Scheduler,
	sig os.Signal,
) error {
	deps.Logger.Info("Shutdown signal received", "signal", sig.String())

	timeout := deps.Config.GetServerConfig().ShutdownTimeout
	if timeout <= 0 {
		timeout = constants.DefaultShutdownTimeout
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	// Stop scheduler first
	deps.Logger.Info("Stopping scheduler")
	sched.Stop()

	// Stop HTTP server
	deps.Logger.Info("Stopping HTTP server")
	if err := server.Shutdown(shutdownCtx); err != nil {
		deps.Logger.Error("Failed to stop server", "error", err)
		return fmt.Errorf("failed to stop server: %w", err)
	}

	deps.Logger.Info("Server stopped successfully")
	return nil
}
