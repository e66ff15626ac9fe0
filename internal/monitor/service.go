// Package monitor owns the content pipeline state: it refreshes the pending
// queue from the configured listing pages and processes queued articles one
// at a time through extraction and storage. All scheduler and API triggers
// land here.
package monitor

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"

	"github.com/google/uuid"

	"github.com/jonesrussell/goread/internal/constants"
	"github.com/jonesrussell/goread/internal/domain"
	"github.com/jonesrussell/goread/internal/fetcher"
	"github.com/jonesrussell/goread/internal/listing"
	"github.com/jonesrussell/goread/internal/logger"
	"github.com/jonesrussell/goread/internal/queue"
	"github.com/jonesrussell/goread/internal/sources"
)

// Fetcher downloads a URL and returns the structured result.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string, opts *fetcher.Options) (*domain.FetchResult, error)
}

// Extractor turns one article stub into a rendered document.
type Extractor interface {
	Extract(ctx context.Context, stub domain.ArticleStub) *domain.ExtractionResult
}

// Storage persists one rendered article document.
type Storage interface {
	Save(articleURL, title, content string) bool
}

// Outcome classifies the result of one process step.
type Outcome string

const (
	// OutcomeProcessed means one article was extracted and stored.
	OutcomeProcessed Outcome = "processed"
	// OutcomeFailed means extraction or storage failed; the article stays
	// queued and is retried on a later pass.
	OutcomeFailed Outcome = "failed"
	// OutcomeQueueEmpty means there was nothing to process; a refresh was
	// triggered in the background.
	OutcomeQueueEmpty Outcome = "queue_empty"
	// OutcomeAllProcessed means every queued article is already stored.
	OutcomeAllProcessed Outcome = "all_processed"
)

// ProcessResult reports what one process step did.
type ProcessResult struct {
	Outcome Outcome `json:"outcome"`
	URL     string  `json:"url,omitempty"`
	Title   string  `json:"title,omitempty"`
	Error   string  `json:"error,omitempty"`
}

// Stats is the queue portion of the status surface.
type Stats struct {
	QueueSize      int `json:"queue_size"`
	ProcessedCount int `json:"processed_count"`
	CursorPosition int `json:"cursor_position"`
}

// Config configures a Service.
type Config struct {
	// MaxFetchCount bounds how many stubs each section contributes per
	// refresh.
	MaxFetchCount int
	// Rand drives the per-section sampling. Nil seeds a fresh generator.
	Rand *rand.Rand
}

// Deps bundles the collaborators a Service needs.
type Deps struct {
	Fetcher   Fetcher
	Extractor Extractor
	Storage   Storage
	Registry  *sources.Registry
	Queue     *queue.PendingQueue
	Logger    logger.Interface
}

// Service coordinates the refresh and process actions over a shared pending
// queue. Refreshes are mutually exclusive: a trigger that finds one already
// running returns immediately instead of waiting.
type Service struct {
	fetcher   Fetcher
	extractor Extractor
	storage   Storage
	registry  *sources.Registry
	queue     *queue.PendingQueue
	logger    logger.Interface
	// baseLog is the unscoped logger handed to per-section parsers.
	baseLog logger.Interface

	maxFetchCount int

	// refreshMu serializes refreshes; rng is only touched while holding it.
	refreshMu sync.Mutex
	rng       *rand.Rand
}

// NewService creates the pipeline service.
func NewService(deps Deps, cfg Config) *Service {
	if cfg.MaxFetchCount <= 0 {
		cfg.MaxFetchCount = constants.DefaultMaxFetchCount
	}
	if cfg.Rand == nil {
		cfg.Rand = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	log := deps.Logger
	if log == nil {
		log = logger.NewNoOp()
	}
	return &Service{
		fetcher:       deps.Fetcher,
		extractor:     deps.Extractor,
		storage:       deps.Storage,
		registry:      deps.Registry,
		queue:         deps.Queue,
		logger:        log.WithComponent("monitor"),
		baseLog:       log,
		maxFetchCount: cfg.MaxFetchCount,
		rng:           cfg.Rand,
	}
}

// FetchArticleList refreshes the pending queue from every configured section
// and returns how many new stubs were queued. Only one refresh runs at a
// time; a call that finds one in flight returns immediately without queueing
// anything. A failing section is logged and skipped, never aborting the
// others.
func (s *Service) FetchArticleList(ctx context.Context) int {
	if !s.refreshMu.TryLock() {
		s.logger.Debug("Refresh already in progress, skipping")
		return 0
	}
	defer s.refreshMu.Unlock()

	runID := uuid.New().String()
	refs := s.registry.All()
	s.logger.Info("Refreshing article listings",
		"run_id", runID,
		"sections", len(refs))

	added := 0
	for _, ref := range refs {
		added += s.refreshSection(ctx, ref, runID)
	}

	s.logger.Info("Listing refresh finished",
		"run_id", runID,
		"added", added,
		"queue_size", s.queue.Size())
	return added
}

// refreshSection fetches and parses one section listing and queues a bounded
// random sample of its stubs.
func (s *Service) refreshSection(ctx context.Context, ref *sources.SectionRef, runID string) int {
	page, err := s.fetcher.Fetch(ctx, ref.Section.URL, &fetcher.Options{
		Headers: ref.Section.Headers,
		Cookies: ref.Section.Cookies,
	})
	if err != nil {
		s.logger.Warn("Section listing fetch failed",
			"run_id", runID,
			"site", ref.Site.Name,
			"section", ref.Section.Name,
			"error", err.Error())
		return 0
	}
	if !page.IsHTML() {
		s.logger.Warn("Section listing is not HTML",
			"run_id", runID,
			"site", ref.Site.Name,
			"section", ref.Section.Name,
			"content_type", page.ContentType)
		return 0
	}

	parser := listing.NewParser(ref.Site.Selectors.Listing, s.baseLog)
	stubs, err := parser.Parse(string(page.Body), page.URL)
	if err != nil {
		s.logger.Warn("Section listing parse failed",
			"run_id", runID,
			"site", ref.Site.Name,
			"section", ref.Section.Name,
			"error", err.Error())
		return 0
	}

	added := 0
	for _, stub := range s.sample(stubs) {
		if s.queue.Append(stub) {
			added++
		}
	}

	s.logger.Info("Section refreshed",
		"run_id", runID,
		"site", ref.Site.Name,
		"section", ref.Section.Name,
		"parsed", len(stubs),
		"added", added)
	return added
}

// sample picks up to maxFetchCount stubs uniformly without replacement.
func (s *Service) sample(stubs []domain.ArticleStub) []domain.ArticleStub {
	if len(stubs) <= s.maxFetchCount {
		return stubs
	}
	picked := make([]domain.ArticleStub, 0, s.maxFetchCount)
	for _, idx := range s.rng.Perm(len(stubs))[:s.maxFetchCount] {
		picked = append(picked, stubs[idx])
	}
	return picked
}

// ProcessNextArticle takes one step through the queue: pop the stub at the
// cursor, skipping already-processed entries, extract it, store it, and mark
// it processed only when storage succeeded. An empty queue triggers a
// background refresh instead. Failures leave the stub queued for a retry on
// a later cursor wrap.
func (s *Service) ProcessNextArticle(ctx context.Context) *ProcessResult {
	if s.queue.Size() == 0 {
		s.logger.Info("Queue empty, triggering refresh")
		go s.FetchArticleList(context.WithoutCancel(ctx))
		return &ProcessResult{Outcome: OutcomeQueueEmpty}
	}

	stub, ok := s.nextUnprocessed()
	if !ok {
		s.logger.Info("All queued articles already processed",
			"queue_size", s.queue.Size())
		return &ProcessResult{Outcome: OutcomeAllProcessed}
	}

	result := s.extractor.Extract(ctx, stub)
	if !result.Success {
		s.logger.Warn("Article processing failed, will retry",
			"url", stub.URL,
			"error", result.Error)
		return &ProcessResult{
			Outcome: OutcomeFailed,
			URL:     stub.URL,
			Title:   result.Title,
			Error:   result.Error,
		}
	}

	if !s.storage.Save(stub.URL, result.Title, result.Content) {
		s.logger.Warn("Article storage failed, will retry", "url", stub.URL)
		return &ProcessResult{
			Outcome: OutcomeFailed,
			URL:     stub.URL,
			Title:   result.Title,
			Error:   "storage failed",
		}
	}

	s.queue.MarkProcessed(stub.URL)
	s.logger.Info("Article processed",
		"url", stub.URL,
		"title", result.Title)
	return &ProcessResult{
		Outcome: OutcomeProcessed,
		URL:     stub.URL,
		Title:   result.Title,
	}
}

// nextUnprocessed advances through the queue until it finds a stub that has
// not been processed yet, giving up after one full pass.
func (s *Service) nextUnprocessed() (domain.ArticleStub, bool) {
	for range s.queue.Size() {
		stub, ok := s.queue.Next()
		if !ok {
			return domain.ArticleStub{}, false
		}
		if !s.queue.IsProcessed(stub.URL) {
			return stub, true
		}
	}
	return domain.ArticleStub{}, false
}

// FetchAndParse fetches one section listing and returns its parsed stubs
// without queueing them.
func (s *Service) FetchAndParse(ctx context.Context, site, section string) ([]domain.ArticleStub, error) {
	ref, err := s.registry.Section(site, section)
	if err != nil {
		return nil, err
	}

	page, err := s.fetcher.Fetch(ctx, ref.Section.URL, &fetcher.Options{
		Headers: ref.Section.Headers,
		Cookies: ref.Section.Cookies,
	})
	if err != nil {
		return nil, fmt.Errorf("fetch section listing: %w", err)
	}
	if !page.IsHTML() {
		return nil, fmt.Errorf("section listing is not HTML: content type %q", page.ContentType)
	}

	parser := listing.NewParser(ref.Site.Selectors.Listing, s.baseLog)
	return parser.Parse(string(page.Body), page.URL)
}

// Reset drops the queue, cursor, and processed set.
func (s *Service) Reset() {
	s.queue.Clear()
	s.logger.Info("Queue cleared")
}

// Stats reports the queue counters for the status surface.
func (s *Service) Stats() Stats {
	return Stats{
		QueueSize:      s.queue.Size(),
		ProcessedCount: s.queue.ProcessedCount(),
		CursorPosition: s.queue.Cursor(),
	}
}
