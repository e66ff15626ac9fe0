package monitor_test

import (
	"context"
	"fmt"
	"math/rand/v2"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/goread/internal/domain"
	"github.com/jonesrussell/goread/internal/fetcher"
	"github.com/jonesrussell/goread/internal/logger"
	"github.com/jonesrussell/goread/internal/monitor"
	"github.com/jonesrussell/goread/internal/queue"
	"github.com/jonesrussell/goread/internal/sources"
)

// listingPage builds a section listing with n article items in the default
// listing markup.
func listingPage(n int) string {
	var b strings.Builder
	b.WriteString("<html><body><ul>")
	for i := range n {
		fmt.Fprintf(&b,
			`<li data-type="csm_article"><a href="/Business/2025/0812/story-%d">`+
				`<span data-field="title">Story %d</span></a>`+
				`<div data-field="summary">Summary %d</div></li>`,
			i, i, i)
	}
	b.WriteString("</ul></body></html>")
	return b.String()
}

func storyURL(baseURL string, i int) string {
	return fmt.Sprintf("%s/Business/2025/0812/story-%d", baseURL, i)
}

type fakeExtractor struct {
	mu      sync.Mutex
	results map[string]*domain.ExtractionResult
	calls   []string
}

func (f *fakeExtractor) Extract(_ context.Context, stub domain.ArticleStub) *domain.ExtractionResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, stub.URL)

	if f.results != nil {
		if result, ok := f.results[stub.URL]; ok {
			return result
		}
	}
	return &domain.ExtractionResult{
		URL:     stub.URL,
		Title:   stub.Title,
		Content: "<html>rendered</html>",
		Success: true,
	}
}

func (f *fakeExtractor) failWith(articleURL, msg string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.results == nil {
		f.results = make(map[string]*domain.ExtractionResult)
	}
	f.results[articleURL] = &domain.ExtractionResult{
		URL:     articleURL,
		Content: "<html>error</html>",
		Success: false,
		Error:   msg,
	}
}

func (f *fakeExtractor) succeed(articleURL string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.results, articleURL)
}

func (f *fakeExtractor) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type fakeStorage struct {
	mu    sync.Mutex
	fail  bool
	saved []string
}

func (f *fakeStorage) Save(articleURL, _, _ string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return false
	}
	f.saved = append(f.saved, articleURL)
	return true
}

func (f *fakeStorage) savedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.saved)
}

// testRegistry maps the given base URL to one site; extra names become
// additional sections reachable under their own path.
func testRegistry(t *testing.T, baseURL string, extraSections ...string) *sources.Registry {
	t.Helper()
	u, err := url.Parse(baseURL)
	require.NoError(t, err)

	site := &sources.Site{
		Name:           "testsite",
		BaseURL:        baseURL,
		Hosts:          []string{u.Hostname()},
		DefaultSection: "business",
		Sections: map[string]*sources.Section{
			"business": {
				Site: "testsite", Name: "business",
				URL:     baseURL + "/Business",
				Headers: map[string]string{"x-test": "on"},
			},
		},
		Selectors: sources.DefaultSelectors(),
	}
	for _, name := range extraSections {
		site.Sections[name] = &sources.Section{
			Site: "testsite", Name: name,
			URL: baseURL + "/" + strings.ToUpper(name[:1]) + name[1:],
		}
	}
	return sources.NewRegistry([]*sources.Site{site})
}

type harness struct {
	service   *monitor.Service
	queue     *queue.PendingQueue
	extractor *fakeExtractor
	storage   *fakeStorage
	server    *httptest.Server
}

func newHarness(t *testing.T, handler http.Handler, maxFetch int, extraSections ...string) *harness {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	h := &harness{
		queue:     queue.NewPendingQueue(),
		extractor: &fakeExtractor{},
		storage:   &fakeStorage{},
		server:    server,
	}
	h.service = monitor.NewService(monitor.Deps{
		Fetcher:   fetcher.NewClient(fetcher.Config{}, logger.NewNoOp()),
		Extractor: h.extractor,
		Storage:   h.storage,
		Registry:  testRegistry(t, server.URL, extraSections...),
		Queue:     h.queue,
		Logger:    logger.NewNoOp(),
	}, monitor.Config{
		MaxFetchCount: maxFetch,
		Rand:          rand.New(rand.NewPCG(1, 2)),
	})
	return h
}

func serveListing(n int) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(listingPage(n)))
	})
}

func TestService_FetchArticleList_QueuesAllWhenUnderCap(t *testing.T) {
	t.Parallel()

	h := newHarness(t, serveListing(5), 10)
	added := h.service.FetchArticleList(context.Background())

	require.Equal(t, 5, added)
	require.Equal(t, 5, h.queue.Size())

	want := make(map[string]bool)
	for i := range 5 {
		want[storyURL(h.server.URL, i)] = true
	}
	for range 5 {
		stub, ok := h.queue.Next()
		require.True(t, ok)
		require.True(t, want[stub.URL], "unexpected stub %q", stub.URL)
		delete(want, stub.URL)
		require.NotEmpty(t, stub.Title)
		require.NotEmpty(t, stub.Summary)
	}
	require.Empty(t, want)
}

func TestService_FetchArticleList_SamplesUpToCap(t *testing.T) {
	t.Parallel()

	h := newHarness(t, serveListing(8), 3)
	added := h.service.FetchArticleList(context.Background())

	require.Equal(t, 3, added)
	require.Equal(t, 3, h.queue.Size())

	valid := make(map[string]bool)
	for i := range 8 {
		valid[storyURL(h.server.URL, i)] = true
	}
	seen := make(map[string]bool)
	for range 3 {
		stub, ok := h.queue.Next()
		require.True(t, ok)
		require.True(t, valid[stub.URL], "sampled stub %q not from the listing", stub.URL)
		require.False(t, seen[stub.URL], "stub %q sampled twice", stub.URL)
		seen[stub.URL] = true
	}
}

func TestService_FetchArticleList_SkipsProcessedURLs(t *testing.T) {
	t.Parallel()

	h := newHarness(t, serveListing(5), 10)
	h.queue.MarkProcessed(storyURL(h.server.URL, 2))

	added := h.service.FetchArticleList(context.Background())
	require.Equal(t, 4, added)
	require.Equal(t, 4, h.queue.Size())
}

func TestService_FetchArticleList_SectionFailureIsIsolated(t *testing.T) {
	t.Parallel()

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/World") {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(listingPage(5)))
	})

	h := newHarness(t, handler, 10, "world")
	added := h.service.FetchArticleList(context.Background())

	// The failing world section contributes nothing; business still queues.
	require.Equal(t, 5, added)
	require.Equal(t, 5, h.queue.Size())
}

func TestService_FetchArticleList_SingleFlight(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	var once sync.Once
	started := make(chan struct{})
	release := make(chan struct{})
	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		once.Do(func() { close(started) })
		<-release
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(listingPage(5)))
	})

	h := newHarness(t, handler, 10)

	done := make(chan int, 1)
	go func() { done <- h.service.FetchArticleList(context.Background()) }()
	<-started

	// A second trigger while the first is in flight returns without fetching.
	require.Zero(t, h.service.FetchArticleList(context.Background()))
	require.EqualValues(t, 1, hits.Load())

	close(release)
	require.Equal(t, 5, <-done)
	require.Equal(t, 5, h.queue.Size())
}

func TestService_ProcessNextArticle_Success(t *testing.T) {
	t.Parallel()

	h := newHarness(t, serveListing(0), 10)
	h.queue.Append(domain.ArticleStub{URL: "https://test.example/a", Title: "A"})

	result := h.service.ProcessNextArticle(context.Background())

	require.Equal(t, monitor.OutcomeProcessed, result.Outcome)
	require.Equal(t, "https://test.example/a", result.URL)
	require.Equal(t, "A", result.Title)
	require.True(t, h.queue.IsProcessed("https://test.example/a"))
	require.Equal(t, 1, h.storage.savedCount())

	stats := h.service.Stats()
	require.Equal(t, 1, stats.QueueSize)
	require.Equal(t, 1, stats.ProcessedCount)
}

func TestService_ProcessNextArticle_SkipsProcessedEntries(t *testing.T) {
	t.Parallel()

	h := newHarness(t, serveListing(0), 10)
	h.queue.Append(domain.ArticleStub{URL: "https://test.example/a", Title: "A"})
	h.queue.Append(domain.ArticleStub{URL: "https://test.example/b", Title: "B"})
	h.queue.MarkProcessed("https://test.example/a")

	result := h.service.ProcessNextArticle(context.Background())

	require.Equal(t, monitor.OutcomeProcessed, result.Outcome)
	require.Equal(t, "https://test.example/b", result.URL)
}

func TestService_ProcessNextArticle_AllProcessed(t *testing.T) {
	t.Parallel()

	h := newHarness(t, serveListing(0), 10)
	h.queue.Append(domain.ArticleStub{URL: "https://test.example/a", Title: "A"})
	h.queue.Append(domain.ArticleStub{URL: "https://test.example/b", Title: "B"})

	require.Equal(t, monitor.OutcomeProcessed, h.service.ProcessNextArticle(context.Background()).Outcome)
	require.Equal(t, monitor.OutcomeProcessed, h.service.ProcessNextArticle(context.Background()).Outcome)

	result := h.service.ProcessNextArticle(context.Background())
	require.Equal(t, monitor.OutcomeAllProcessed, result.Outcome)
	require.Equal(t, 2, h.extractor.callCount())
}

func TestService_ProcessNextArticle_ExtractionFailureRetriesLater(t *testing.T) {
	t.Parallel()

	h := newHarness(t, serveListing(0), 10)
	h.queue.Append(domain.ArticleStub{URL: "https://test.example/a", Title: "A"})
	h.extractor.failWith("https://test.example/a", "container not found")

	result := h.service.ProcessNextArticle(context.Background())
	require.Equal(t, monitor.OutcomeFailed, result.Outcome)
	require.Equal(t, "container not found", result.Error)
	require.False(t, h.queue.IsProcessed("https://test.example/a"))
	require.Zero(t, h.storage.savedCount())

	// The stub stays queued; the next pass retries and succeeds.
	h.extractor.succeed("https://test.example/a")
	result = h.service.ProcessNextArticle(context.Background())
	require.Equal(t, monitor.OutcomeProcessed, result.Outcome)
	require.True(t, h.queue.IsProcessed("https://test.example/a"))
	require.Equal(t, 2, h.extractor.callCount())
}

func TestService_ProcessNextArticle_StorageFailureRetriesLater(t *testing.T) {
	t.Parallel()

	h := newHarness(t, serveListing(0), 10)
	h.queue.Append(domain.ArticleStub{URL: "https://test.example/a", Title: "A"})
	h.storage.fail = true

	result := h.service.ProcessNextArticle(context.Background())
	require.Equal(t, monitor.OutcomeFailed, result.Outcome)
	require.False(t, h.queue.IsProcessed("https://test.example/a"))

	h.storage.fail = false
	result = h.service.ProcessNextArticle(context.Background())
	require.Equal(t, monitor.OutcomeProcessed, result.Outcome)
}

func TestService_ProcessNextArticle_EmptyQueueTriggersRefresh(t *testing.T) {
	t.Parallel()

	h := newHarness(t, serveListing(3), 10)

	result := h.service.ProcessNextArticle(context.Background())
	require.Equal(t, monitor.OutcomeQueueEmpty, result.Outcome)

	require.Eventually(t, func() bool {
		return h.queue.Size() == 3
	}, 2*time.Second, 10*time.Millisecond)
}

func TestService_FetchAndParse(t *testing.T) {
	t.Parallel()

	h := newHarness(t, serveListing(4), 10)

	stubs, err := h.service.FetchAndParse(context.Background(), "testsite", "business")
	require.NoError(t, err)
	require.Len(t, stubs, 4)
	require.Zero(t, h.queue.Size())

	_, err = h.service.FetchAndParse(context.Background(), "testsite", "nope")
	require.ErrorIs(t, err, sources.ErrSectionNotFound)

	_, err = h.service.FetchAndParse(context.Background(), "nosite", "business")
	require.ErrorIs(t, err, sources.ErrSiteNotFound)
}

func TestService_Reset(t *testing.T) {
	t.Parallel()

	h := newHarness(t, serveListing(0), 10)
	h.queue.Append(domain.ArticleStub{URL: "https://test.example/a", Title: "A"})
	require.Equal(t, monitor.OutcomeProcessed, h.service.ProcessNextArticle(context.Background()).Outcome)

	h.service.Reset()

	stats := h.service.Stats()
	require.Zero(t, stats.QueueSize)
	require.Zero(t, stats.ProcessedCount)
	require.Zero(t, stats.CursorPosition)
}
