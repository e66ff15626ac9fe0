package extractor_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/goread/internal/domain"
	"github.com/jonesrussell/goread/internal/extractor"
	"github.com/jonesrussell/goread/internal/fetcher"
	"github.com/jonesrussell/goread/internal/logger"
	"github.com/jonesrussell/goread/internal/render"
	"github.com/jonesrussell/goread/internal/sources"
)

const articleHTML = `<!DOCTYPE html>
<html>
<head>
<title>Markets rally on rate hopes - The Monitor</title>
<meta property="og:title" content="Markets rally on rate hopes">
<meta name="description" content="Investors bet big on a soft landing.">
<meta property="article:section" content="Business">
<meta property="article:published_time" content="2025-08-12T09:00:00Z">
<meta property="og:image" content="/images/lead.jpg">
</head>
<body>
<header><nav>site navigation junk</nav></header>
<div class="article-body">
  <span itemprop="author">Jane Smith</span>
  <p>Short.</p>
  <p>The first substantial paragraph of the story, long enough to keep around.</p>
  <div class="sharing"><p>Share this story with everyone you have ever met online!</p></div>
  <h2>A turning point</h2>
  <div class="wrapper">
    <p>Another solid paragraph wrapped in a div, with plenty of characters to survive.</p>
  </div>
  <blockquote>We are optimistic about the quarters ahead.</blockquote>
  <ul><li>first point</li><li>second point</li></ul>
  <figure><img src="/images/chart.png"><figcaption>Quarterly results</figcaption></figure>
  <figure><img src="/images/chart.png"><figcaption>The same chart again</figcaption></figure>
  <p>© 2025 The Monitor. All rights reserved, reproduction prohibited without permission.</p>
  <script>var tracking = true;</script>
</div>
</body>
</html>`

const emptyBodyHTML = `<!DOCTYPE html>
<html><head><title>Hollow page</title></head>
<body>
<div class="article-body">
  <p>Tiny.</p>
  <figure><img src="/images/only.jpg"></figure>
</div>
</body>
</html>`

// fakeLocalizer returns deterministic relative locations and records calls.
type fakeLocalizer struct {
	mu    sync.Mutex
	fail  bool
	calls []string
}

func (f *fakeLocalizer) Localize(_ context.Context, imageURL string) (*domain.LocalizeResult, error) {
	f.mu.Lock()
	f.calls = append(f.calls, imageURL)
	f.mu.Unlock()

	if f.fail {
		return nil, errors.New("connection refused")
	}
	u, err := url.Parse(imageURL)
	if err != nil {
		return nil, err
	}
	return &domain.LocalizeResult{Location: "images/" + path.Base(u.Path), Localized: true}, nil
}

func (f *fakeLocalizer) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func testRegistry(t *testing.T, baseURL string) *sources.Registry {
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
				Site:    "testsite",
				Name:    "business",
				URL:     baseURL + "/Business",
				Headers: map[string]string{"x-test": "on"},
				Cookies: map[string]string{"session": "s1"},
			},
		},
		Selectors: sources.DefaultSelectors(),
	}
	return sources.NewRegistry([]*sources.Site{site})
}

func newRenderer(t *testing.T) *render.Renderer {
	t.Helper()
	r, err := render.New()
	require.NoError(t, err)
	return r
}

func newServerExtractor(t *testing.T, handler http.Handler, loc extractor.Localizer) (*extractor.Extractor, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := fetcher.NewClient(fetcher.Config{}, logger.NewNoOp())
	ext := extractor.New(
		client,
		testRegistry(t, server.URL),
		loc,
		newRenderer(t),
		extractor.Config{},
		logger.NewNoOp(),
	)
	return ext, server
}

func TestExtractor_Extract_Success(t *testing.T) {
	t.Parallel()

	var gotHeader, gotCookie string
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHeader = r.Header.Get("x-test")
		if c, err := r.Cookie("session"); err == nil {
			gotCookie = c.Value
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(articleHTML))
	})

	loc := &fakeLocalizer{}
	ext, server := newServerExtractor(t, handler, loc)

	result := ext.Extract(context.Background(), domain.ArticleStub{
		URL:   server.URL + "/Business/2025/0812/markets-rally",
		Title: "listing title",
	})

	require.True(t, result.Success)
	require.Empty(t, result.Error)
	require.Equal(t, "Markets rally on rate hopes", result.Title)

	// Section request settings flow through to the article fetch.
	require.Equal(t, "on", gotHeader)
	require.Equal(t, "s1", gotCookie)

	content := result.Content
	require.Contains(t, content, "<h1>Markets rally on rate hopes</h1>")
	require.Contains(t, content, "Investors bet big on a soft landing.")
	require.Contains(t, content, "Jane Smith")
	require.Contains(t, content, "2025-08-12T09:00:00Z")
	require.Contains(t, content, `<div class="category">Business</div>`)
	require.Contains(t, content, "The first substantial paragraph of the story")
	require.Contains(t, content, "<h2>A turning point</h2>")
	require.Contains(t, content, "Another solid paragraph wrapped in a div")
	require.Contains(t, content, "<blockquote>We are optimistic about the quarters ahead.</blockquote>")
	require.Contains(t, content, "<li>first point</li>")
	require.Contains(t, content, `src="images/chart.png"`)
	require.Contains(t, content, `src="images/lead.jpg"`)
	require.Contains(t, content, "<figcaption>Quarterly results</figcaption>")

	// Noise never reaches the document.
	require.NotContains(t, content, "Short.")
	require.NotContains(t, content, "Share this story")
	require.NotContains(t, content, "All rights reserved")
	require.NotContains(t, content, "site navigation junk")
	require.NotContains(t, content, "var tracking")

	// The duplicated chart and the lead image are localized once each.
	require.Equal(t, 2, loc.callCount())
}

func TestExtractor_Extract_ContainerNotFound(t *testing.T) {
	t.Parallel()

	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<html><body><div class='unrelated'><p>nothing</p></div></body></html>"))
	})
	ext, server := newServerExtractor(t, handler, &fakeLocalizer{})

	result := ext.Extract(context.Background(), domain.ArticleStub{
		URL:   server.URL + "/Business/2025/0812/hollow",
		Title: "Hollow",
	})

	require.False(t, result.Success)
	require.Contains(t, result.Error, "container not found")
	require.NotEmpty(t, result.Content)
	require.Contains(t, result.Content, "container not found")
	require.True(t, strings.HasPrefix(result.Content, "<!DOCTYPE html>"))
}

func TestExtractor_Extract_NoExtractableContent(t *testing.T) {
	t.Parallel()

	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(emptyBodyHTML))
	})
	ext, server := newServerExtractor(t, handler, &fakeLocalizer{})

	result := ext.Extract(context.Background(), domain.ArticleStub{
		URL: server.URL + "/Business/2025/0812/empty",
	})

	require.False(t, result.Success)
	require.Contains(t, result.Error, "no extractable content")
	require.NotEmpty(t, result.Content)
}

func TestExtractor_Extract_FetchFailure(t *testing.T) {
	t.Parallel()

	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	})
	ext, server := newServerExtractor(t, handler, &fakeLocalizer{})

	result := ext.Extract(context.Background(), domain.ArticleStub{
		URL:   server.URL + "/Business/2025/0812/missing",
		Title: "Missing article",
	})

	require.False(t, result.Success)
	require.Contains(t, result.Error, "404")
	require.Contains(t, result.Content, "404")
	require.Equal(t, "Missing article", result.Title)
}

func TestExtractor_Extract_UnsupportedContentType(t *testing.T) {
	t.Parallel()

	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"not": "html"}`))
	})
	ext, server := newServerExtractor(t, handler, &fakeLocalizer{})

	result := ext.Extract(context.Background(), domain.ArticleStub{
		URL: server.URL + "/Business/2025/0812/json",
	})

	require.False(t, result.Success)
	require.Contains(t, result.Error, "unsupported content type")
}

func TestExtractor_Extract_UnknownSite(t *testing.T) {
	t.Parallel()

	client := fetcher.NewClient(fetcher.Config{}, logger.NewNoOp())
	ext := extractor.New(
		client,
		sources.DefaultRegistry(),
		&fakeLocalizer{},
		newRenderer(t),
		extractor.Config{},
		logger.NewNoOp(),
	)

	result := ext.Extract(context.Background(), domain.ArticleStub{
		URL: "https://unknown.example.com/some/article",
	})

	require.False(t, result.Success)
	require.Contains(t, result.Error, "no configured site")
	require.NotEmpty(t, result.Content)
}

func TestExtractor_Extract_ImageFallbackKeepsSuccess(t *testing.T) {
	t.Parallel()

	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(articleHTML))
	})
	ext, server := newServerExtractor(t, handler, &fakeLocalizer{fail: true})

	result := ext.Extract(context.Background(), domain.ArticleStub{
		URL: server.URL + "/Business/2025/0812/markets-rally",
	})

	// Localization failures never fail the article; remote URLs are kept.
	require.True(t, result.Success)
	require.Contains(t, result.Content, server.URL+"/images/chart.png")
	require.Contains(t, result.Content, server.URL+"/images/lead.jpg")
}

// fakeFetcher serves canned HTML without a network and tracks concurrency.
type fakeFetcher struct {
	mu           sync.Mutex
	inFlight     int
	maxInFlight  int
	delay        time.Duration
	statusByPath map[string]int
	panicPath    string
}

func (f *fakeFetcher) Fetch(_ context.Context, rawURL string, _ *fetcher.Options) (*domain.FetchResult, error) {
	f.mu.Lock()
	f.inFlight++
	if f.inFlight > f.maxInFlight {
		f.maxInFlight = f.inFlight
	}
	f.mu.Unlock()

	if f.delay > 0 {
		time.Sleep(f.delay)
	}

	defer func() {
		f.mu.Lock()
		f.inFlight--
		f.mu.Unlock()
	}()

	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, err
	}
	if u.Path == f.panicPath && f.panicPath != "" {
		panic("fetcher exploded")
	}
	if status, ok := f.statusByPath[u.Path]; ok && status != http.StatusOK {
		return &domain.FetchResult{StatusCode: status, URL: rawURL},
			&fetcher.StatusError{URL: rawURL, StatusCode: status}
	}

	return &domain.FetchResult{
		StatusCode:  http.StatusOK,
		ContentType: "text/html; charset=utf-8",
		URL:         rawURL,
		Body:        []byte(articleHTML),
	}, nil
}

func newFakeExtractor(t *testing.T, f *fakeFetcher, maxConcurrent int) *extractor.Extractor {
	t.Helper()
	return extractor.New(
		f,
		testRegistry(t, "https://test.example"),
		&fakeLocalizer{},
		newRenderer(t),
		extractor.Config{MaxConcurrent: maxConcurrent},
		logger.NewNoOp(),
	)
}

func batchStubs(n int) []domain.ArticleStub {
	stubs := make([]domain.ArticleStub, 0, n)
	for i := range n {
		stubs = append(stubs, domain.ArticleStub{
			URL:   fmt.Sprintf("https://test.example/Business/2025/0812/article-%d", i),
			Title: fmt.Sprintf("Article %d", i),
		})
	}
	return stubs
}

func TestExtractor_ExtractBatch_OneResultPerInputInOrder(t *testing.T) {
	t.Parallel()

	fake := &fakeFetcher{
		statusByPath: map[string]int{"/Business/2025/0812/article-2": http.StatusNotFound},
	}
	ext := newFakeExtractor(t, fake, 3)

	stubs := batchStubs(5)
	results := ext.ExtractBatch(context.Background(), stubs)

	require.Len(t, results, len(stubs))
	for i, result := range results {
		require.NotNil(t, result)
		require.Equal(t, stubs[i].URL, result.URL)
		require.NotEmpty(t, result.Content)
	}

	require.False(t, results[2].Success)
	require.Contains(t, results[2].Error, "404")
	for _, i := range []int{0, 1, 3, 4} {
		require.True(t, results[i].Success)
	}
}

func TestExtractor_ExtractBatch_BoundsConcurrency(t *testing.T) {
	t.Parallel()

	const limit = 2
	fake := &fakeFetcher{delay: 15 * time.Millisecond}
	ext := newFakeExtractor(t, fake, limit)

	results := ext.ExtractBatch(context.Background(), batchStubs(8))
	require.Len(t, results, 8)
	require.LessOrEqual(t, fake.maxInFlight, limit)
}

func TestExtractor_ExtractBatch_RecoversPanickingItem(t *testing.T) {
	t.Parallel()

	fake := &fakeFetcher{panicPath: "/Business/2025/0812/article-1"}
	ext := newFakeExtractor(t, fake, 2)

	results := ext.ExtractBatch(context.Background(), batchStubs(3))
	require.Len(t, results, 3)

	require.True(t, results[0].Success)
	require.False(t, results[1].Success)
	require.Contains(t, results[1].Error, "panicked")
	require.NotEmpty(t, results[1].Content)
	require.True(t, results[2].Success)
}

func TestExtractor_ExtractByURL(t *testing.T) {
	t.Parallel()

	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(articleHTML))
	})
	ext, server := newServerExtractor(t, handler, &fakeLocalizer{})

	result := ext.ExtractByURL(context.Background(), server.URL+"/Business/2025/0812/markets-rally")
	require.True(t, result.Success)
	require.Equal(t, "Markets rally on rate hopes", result.Title)
}
