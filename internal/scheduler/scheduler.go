// Package scheduler arms the pipeline timers: a daily listing refresh, an
// interval process step, and an immediate refresh on every start.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/jonesrussell/goread/internal/constants"
	"github.com/jonesrussell/goread/internal/logger"
	"github.com/jonesrussell/goread/internal/monitor"
)

// Pipeline is the surface the timers drive.
type Pipeline interface {
	FetchArticleList(ctx context.Context) int
	ProcessNextArticle(ctx context.Context) *monitor.ProcessResult
	Reset()
	Stats() monitor.Stats
}

// Config holds the timer settings.
type Config struct {
	// FetchHour and FetchMinute place the daily listing refresh.
	FetchHour   int
	FetchMinute int
	// ProcessIntervalMinutes spaces the queue process steps.
	ProcessIntervalMinutes int
}

// Status is the scheduler state surface exposed over the API.
type Status struct {
	Running        bool      `json:"running"`
	QueueSize      int       `json:"queue_size"`
	ProcessedCount int       `json:"processed_count"`
	CursorPosition int       `json:"cursor_position"`
	NextFetchRun   time.Time `json:"next_fetch_run"`
	NextProcessRun time.Time `json:"next_process_run"`
}

// Scheduler owns the cron instance driving the pipeline. Start is
// idempotent: starting while running tears down the existing timers and
// rearms them, never double-arming. Stop waits for in-flight jobs, then
// clears the pipeline queue.
type Scheduler struct {
	pipeline Pipeline
	cfg      Config
	logger   logger.Interface

	mu           sync.Mutex
	cron         *cron.Cron
	fetchEntry   cron.EntryID
	processEntry cron.EntryID
	running      bool
	ctx          context.Context
	cancel       context.CancelFunc
	wg           sync.WaitGroup
}

// New creates a stopped scheduler. Out-of-range timer settings fall back to
// the defaults.
func New(pipeline Pipeline, cfg Config, log logger.Interface) *Scheduler {
	if cfg.FetchHour < 0 || cfg.FetchHour > 23 {
		cfg.FetchHour = constants.DefaultFetchHour
	}
	if cfg.FetchMinute < 0 || cfg.FetchMinute > 59 {
		cfg.FetchMinute = constants.DefaultFetchMinute
	}
	if cfg.ProcessIntervalMinutes <= 0 {
		cfg.ProcessIntervalMinutes = constants.DefaultProcessIntervalMinutes
	}
	if log == nil {
		log = logger.NewNoOp()
	}
	log = log.WithComponent("scheduler")

	parser := cron.NewParser(
		cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
	)
	return &Scheduler{
		pipeline: pipeline,
		cfg:      cfg,
		logger:   log,
		cron: cron.New(
			cron.WithParser(parser),
			cron.WithChain(cron.Recover(&cronLogger{log})),
		),
	}
}

// Start arms the daily refresh and the interval process timers and fires one
// immediate refresh in the background. Calling Start on a running scheduler
// removes the existing timers first and rearms with the current
// configuration.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		s.logger.Info("Scheduler already running, rearming timers")
		s.cron.Remove(s.fetchEntry)
		s.cron.Remove(s.processEntry)
	} else {
		s.ctx, s.cancel = context.WithCancel(context.Background())
	}

	fetchSpec := fmt.Sprintf("%d %d * * *", s.cfg.FetchMinute, s.cfg.FetchHour)
	fetchEntry, err := s.cron.AddFunc(fetchSpec, func() {
		s.logger.Info("Daily refresh triggered")
		s.pipeline.FetchArticleList(s.ctx)
	})
	if err != nil {
		return fmt.Errorf("arm fetch timer %q: %w", fetchSpec, err)
	}

	processSpec := fmt.Sprintf("@every %dm", s.cfg.ProcessIntervalMinutes)
	processEntry, err := s.cron.AddFunc(processSpec, func() {
		s.pipeline.ProcessNextArticle(s.ctx)
	})
	if err != nil {
		s.cron.Remove(fetchEntry)
		return fmt.Errorf("arm process timer %q: %w", processSpec, err)
	}

	s.fetchEntry = fetchEntry
	s.processEntry = processEntry

	if !s.running {
		s.cron.Start()
		s.running = true
	}

	// First refresh happens right away rather than at the next cron tick.
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.pipeline.FetchArticleList(s.ctx)
	}()

	s.logger.Info("Scheduler started",
		"fetch_spec", fetchSpec,
		"process_spec", processSpec)
	return nil
}

// Stop disarms the timers, waits for in-flight jobs to return, and clears
// the pipeline queue. Stopping a stopped scheduler is a no-op.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		s.logger.Debug("Scheduler already stopped")
		return
	}

	s.cron.Remove(s.fetchEntry)
	s.cron.Remove(s.processEntry)
	s.cancel()

	cronCtx := s.cron.Stop()
	<-cronCtx.Done()
	s.wg.Wait()

	s.running = false
	s.pipeline.Reset()
	s.logger.Info("Scheduler stopped, queue cleared")
}

// Status reports the scheduler and queue state. Next-run times are zero when
// the scheduler is stopped.
func (s *Scheduler) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := s.pipeline.Stats()
	status := Status{
		Running:        s.running,
		QueueSize:      stats.QueueSize,
		ProcessedCount: stats.ProcessedCount,
		CursorPosition: stats.CursorPosition,
	}
	if s.running {
		status.NextFetchRun = s.cron.Entry(s.fetchEntry).Next
		status.NextProcessRun = s.cron.Entry(s.processEntry).Next
	}
	return status
}

// cronLogger adapts the application logger to the cron logging interface so
// recovered job panics land in the structured log.
type cronLogger struct {
	log logger.Interface
}

func (l *cronLogger) Info(msg string, keysAndValues ...any) {
	l.log.Debug(msg, keysAndValues...)
}

func (l *cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.log.Error(msg, append([]any{"error", err.Error()}, keysAndValues...)...)
}
