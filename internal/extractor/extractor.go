// Package extractor turns article URLs into self-contained rendered
// documents: it fetches the page, isolates the main content region, strips
// junk, classifies content blocks, localizes embedded images, and assembles
// the final document. Every failure mode produces a well-formed error
// document rather than an empty result.
package extractor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/sync/errgroup"

	"github.com/jonesrussell/goread/internal/constants"
	"github.com/jonesrussell/goread/internal/domain"
	"github.com/jonesrussell/goread/internal/fetcher"
	"github.com/jonesrussell/goread/internal/logger"
	"github.com/jonesrussell/goread/internal/sources"
)

var (
	// ErrContainerNotFound indicates none of the content selectors matched.
	ErrContainerNotFound = errors.New("main content container not found")
	// ErrNoContent indicates the container matched but nothing extractable
	// survived the noise filters.
	ErrNoContent = errors.New("no extractable content found in article body")
)

// minParagraphLength is the noise filter threshold for paragraph blocks.
const minParagraphLength = 20

// boilerplatePatterns match paragraphs that are site furniture rather than
// article content.
var boilerplatePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^\s*©`),
	regexp.MustCompile(`(?i)^\s*copyright\b`),
	regexp.MustCompile(`(?i)^\s*all rights reserved`),
	regexp.MustCompile(`(?i)^\s*this story was reported by`),
	regexp.MustCompile(`(?i)^\s*follow us on`),
	regexp.MustCompile(`(?i)^\s*sign up for our`),
}

// Fetcher downloads a URL and returns the structured result.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string, opts *fetcher.Options) (*domain.FetchResult, error)
}

// Localizer resolves a remote image URL to a local copy.
type Localizer interface {
	Localize(ctx context.Context, imageURL string) (*domain.LocalizeResult, error)
}

// Renderer assembles article and error documents.
type Renderer interface {
	Article(data *domain.ArticleData) (string, error)
	ErrorDocument(title, message string) string
}

// Config configures an Extractor.
type Config struct {
	MaxConcurrent int
}

// Extractor extracts readable article content. A channel semaphore bounds
// how many batch extractions run simultaneously.
type Extractor struct {
	fetcher   Fetcher
	registry  *sources.Registry
	localizer Localizer
	renderer  Renderer
	sem       chan struct{}
	logger    logger.Interface
}

// New creates an extractor. A non-positive MaxConcurrent falls back to the
// default bound.
func New(
	f Fetcher,
	registry *sources.Registry,
	localizer Localizer,
	renderer Renderer,
	cfg Config,
	log logger.Interface,
) *Extractor {
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = constants.DefaultMaxConcurrentExtractions
	}
	if log == nil {
		log = logger.NewNoOp()
	}
	return &Extractor{
		fetcher:   f,
		registry:  registry,
		localizer: localizer,
		renderer:  renderer,
		sem:       make(chan struct{}, cfg.MaxConcurrent),
		logger:    log.WithComponent("extractor"),
	}
}

// ExtractByURL extracts a single article known only by its URL.
func (e *Extractor) ExtractByURL(ctx context.Context, articleURL string) *domain.ExtractionResult {
	return e.Extract(ctx, domain.ArticleStub{URL: articleURL})
}

// Extract runs the full pipeline for one stub. The result always carries a
// complete document: the rendered article on success, a descriptive error
// document on failure. It never returns nil.
func (e *Extractor) Extract(ctx context.Context, stub domain.ArticleStub) *domain.ExtractionResult {
	ref, err := e.registry.Resolve(stub.URL)
	if err != nil {
		return e.failure(stub, stub.Title, fmt.Errorf("resolve article site: %w", err))
	}

	page, err := e.fetcher.Fetch(ctx, stub.URL, &fetcher.Options{
		Headers: ref.Section.Headers,
		Cookies: ref.Section.Cookies,
	})
	if err != nil {
		return e.failure(stub, stub.Title, fmt.Errorf("fetch article: %w", err))
	}
	if !page.IsHTML() {
		return e.failure(stub, stub.Title, fmt.Errorf("unsupported content type %q", page.ContentType))
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page.Body))
	if err != nil {
		return e.failure(stub, stub.Title, fmt.Errorf("parse article html: %w", err))
	}

	base, err := url.Parse(page.URL)
	if err != nil {
		base = &url.URL{}
	}
	data := e.extractMetadata(doc, stub, base)

	container := findContainer(doc, ref.Site.Selectors.Article.Containers)
	if container == nil {
		return e.failure(stub, data.Title, ErrContainerNotFound)
	}
	if exclude := ref.Site.Selectors.Article.Exclude; len(exclude) > 0 {
		container.Find(strings.Join(exclude, ", ")).Remove()
	}

	data.Blocks = walkBlocks(container, base)
	if !hasTextContent(data.Blocks) {
		return e.failure(stub, data.Title, ErrNoContent)
	}

	e.localizeImages(ctx, &data)

	content, err := e.renderer.Article(&data)
	if err != nil {
		return e.failure(stub, data.Title, fmt.Errorf("render article: %w", err))
	}

	e.logger.Info("Article extracted",
		"url", stub.URL,
		"title", data.Title,
		"blocks", len(data.Blocks))
	return &domain.ExtractionResult{
		URL:     stub.URL,
		Title:   data.Title,
		Content: content,
		Success: true,
	}
}

// ExtractBatch extracts every stub with bounded concurrency, returning
// exactly one result per input in input order. A panic in one extraction is
// converted to a failure result for that item only.
func (e *Extractor) ExtractBatch(ctx context.Context, stubs []domain.ArticleStub) []*domain.ExtractionResult {
	results := make([]*domain.ExtractionResult, len(stubs))

	var wg sync.WaitGroup
	for i := range stubs {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					err := fmt.Errorf("extraction panicked: %v", r)
					e.logger.Error("Recovered panicking extraction",
						"url", stubs[idx].URL,
						"error", err.Error())
					results[idx] = e.failure(stubs[idx], stubs[idx].Title, err)
				}
			}()

			select {
			case e.sem <- struct{}{}:
			case <-ctx.Done():
				results[idx] = e.failure(stubs[idx], stubs[idx].Title, ctx.Err())
				return
			}
			defer func() { <-e.sem }()

			results[idx] = e.Extract(ctx, stubs[idx])
		}(i)
	}
	wg.Wait()

	return results
}

// failure builds a failed result whose content is a rendered error document.
func (e *Extractor) failure(stub domain.ArticleStub, title string, err error) *domain.ExtractionResult {
	if title == "" {
		title = stub.URL
	}
	msg := err.Error()
	e.logger.Warn("Article extraction failed",
		"url", stub.URL,
		"error", msg)
	return &domain.ExtractionResult{
		URL:     stub.URL,
		Title:   title,
		Content: e.renderer.ErrorDocument(title, msg),
		Success: false,
		Error:   msg,
	}
}

// extractMetadata fills the article header fields from a fixed, ordered set
// of candidate locations. Every field is optional; listing stub values serve
// as fallbacks.
func (e *Extractor) extractMetadata(doc *goquery.Document, stub domain.ArticleStub, base *url.URL) domain.ArticleData {
	data := domain.ArticleData{
		URL:       stub.URL,
		Title:     stub.Title,
		Summary:   stub.Summary,
		MainImage: stub.ImageSrc,
		FetchedAt: time.Now(),
	}

	if title := firstNonEmpty(
		metaContent(doc, "meta[property='og:title']"),
		collapseWhitespace(doc.Find("title").First().Text()),
		collapseWhitespace(doc.Find("h1").First().Text()),
	); title != "" {
		data.Title = title
	}

	if summary := firstNonEmpty(
		metaContent(doc, "meta[name='description']"),
		metaContent(doc, "meta[property='og:description']"),
	); summary != "" {
		data.Summary = summary
	}

	data.Byline = firstNonEmpty(
		collapseWhitespace(doc.Find("[itemprop='author']").First().Text()),
		collapseWhitespace(doc.Find(".byline").First().Text()),
		metaContent(doc, "meta[name='author']"),
	)

	published := doc.Find("time[datetime]").First()
	data.Published = firstNonEmpty(
		strings.TrimSpace(published.AttrOr("datetime", "")),
		metaContent(doc, "meta[property='article:published_time']"),
		collapseWhitespace(doc.Find("time").First().Text()),
	)

	data.Category = firstNonEmpty(
		metaContent(doc, "meta[property='article:section']"),
		collapseWhitespace(doc.Find("[itemprop='articleSection']").First().Text()),
	)

	if image := metaContent(doc, "meta[property='og:image']"); image != "" {
		data.MainImage = resolveURL(base, image)
	}

	return data
}

// findContainer tries the content selectors in order and returns the first
// match.
func findContainer(doc *goquery.Document, selectors []string) *goquery.Selection {
	for _, selector := range selectors {
		if sel := doc.Find(selector).First(); sel.Length() > 0 {
			return sel
		}
	}
	return nil
}

// walkBlocks visits the container's block-level elements in document order
// and classifies each into a content block, descending into wrapper
// elements. Noise paragraphs are dropped.
func walkBlocks(container *goquery.Selection, base *url.URL) []domain.Block {
	var blocks []domain.Block
	walk(container, base, &blocks)
	return blocks
}

func walk(sel *goquery.Selection, base *url.URL, blocks *[]domain.Block) {
	sel.Children().Each(func(_ int, child *goquery.Selection) {
		switch goquery.NodeName(child) {
		case "p":
			if text := collapseWhitespace(child.Text()); keepParagraph(text) {
				*blocks = append(*blocks, domain.Block{Kind: domain.BlockParagraph, Text: text})
			}
		case "h2", "h3", "h4":
			if text := collapseWhitespace(child.Text()); text != "" {
				level := int(goquery.NodeName(child)[1] - '0')
				*blocks = append(*blocks, domain.Block{Kind: domain.BlockHeading, Level: level, Text: text})
			}
		case "blockquote":
			if text := collapseWhitespace(child.Text()); text != "" {
				*blocks = append(*blocks, domain.Block{Kind: domain.BlockBlockquote, Text: text})
			}
		case "ul", "ol":
			var items []string
			child.Find("li").Each(func(_ int, li *goquery.Selection) {
				if item := collapseWhitespace(li.Text()); item != "" {
					items = append(items, item)
				}
			})
			if len(items) > 0 {
				*blocks = append(*blocks, domain.Block{Kind: domain.BlockList, Items: items})
			}
		case "figure", "picture":
			appendFigure(child, base, blocks)
		case "img":
			if src := strings.TrimSpace(child.AttrOr("src", "")); src != "" {
				*blocks = append(*blocks, domain.Block{
					Kind:     domain.BlockFigure,
					ImageSrc: resolveURL(base, src),
				})
			}
		case "div", "section", "article", "main":
			walk(child, base, blocks)
		}
	})
}

// appendFigure adds a figure block for an explicit figure element, keeping
// its caption when present.
func appendFigure(sel *goquery.Selection, base *url.URL, blocks *[]domain.Block) {
	src := strings.TrimSpace(sel.Find("img").First().AttrOr("src", ""))
	caption := collapseWhitespace(sel.Find("figcaption").First().Text())
	if src == "" && caption == "" {
		return
	}
	block := domain.Block{Kind: domain.BlockFigure, Text: caption}
	if src != "" {
		block.ImageSrc = resolveURL(base, src)
	}
	*blocks = append(*blocks, block)
}

// localizeImages resolves the main image and every figure to local copies,
// downloading each unique URL once. Localizations run concurrently and are
// awaited together; failures keep the remote URL so the article still
// renders.
func (e *Extractor) localizeImages(ctx context.Context, data *domain.ArticleData) {
	locations := make(map[string]string)
	if data.MainImage != "" {
		locations[data.MainImage] = data.MainImage
	}
	for i := range data.Blocks {
		block := &data.Blocks[i]
		if block.Kind == domain.BlockFigure && block.ImageSrc != "" {
			locations[block.ImageSrc] = block.ImageSrc
		}
	}
	if len(locations) == 0 {
		return
	}

	remotes := make([]string, 0, len(locations))
	for remote := range locations {
		remotes = append(remotes, remote)
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	for _, remote := range remotes {
		g.Go(func() error {
			result, err := e.localizer.Localize(gctx, remote)
			if err != nil {
				e.logger.Warn("Image localization failed, keeping remote URL",
					"url", remote,
					"error", err.Error())
				return nil
			}
			mu.Lock()
			locations[remote] = result.Location
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	if data.MainImage != "" {
		data.MainImage = locations[data.MainImage]
	}
	for i := range data.Blocks {
		block := &data.Blocks[i]
		if block.Kind == domain.BlockFigure && block.ImageSrc != "" {
			block.ImageSrc = locations[block.ImageSrc]
		}
	}
}

// keepParagraph applies the noise filter: minimum length and boilerplate
// pattern checks.
func keepParagraph(text string) bool {
	if len(text) < minParagraphLength {
		return false
	}
	for _, pattern := range boilerplatePatterns {
		if pattern.MatchString(text) {
			return false
		}
	}
	return true
}

// hasTextContent reports whether any block carries text content; figures
// alone do not make an article.
func hasTextContent(blocks []domain.Block) bool {
	for _, block := range blocks {
		if block.Kind != domain.BlockFigure {
			return true
		}
	}
	return false
}

func metaContent(doc *goquery.Document, selector string) string {
	return strings.TrimSpace(doc.Find(selector).First().AttrOr("content", ""))
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func resolveURL(base *url.URL, ref string) string {
	parsed, err := url.Parse(strings.TrimSpace(ref))
	if err != nil {
		return ref
	}
	return base.ResolveReference(parsed).String()
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
