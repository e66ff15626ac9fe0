// Package listing parses article stubs out of a section's listing page.
package listing

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/jonesrussell/goread/internal/domain"
	"github.com/jonesrussell/goread/internal/logger"
	"github.com/jonesrussell/goread/internal/sources"
)

// Parser extracts article stubs from listing page markup using a site's
// listing selectors. Stubs missing a URL or title are dropped; duplicates are
// passed through for the queue to resolve.
type Parser struct {
	selectors sources.ListingSelectors
	logger    logger.Interface
}

// NewParser creates a parser for the given listing selectors.
func NewParser(selectors sources.ListingSelectors, log logger.Interface) *Parser {
	if log == nil {
		log = logger.NewNoOp()
	}
	return &Parser{
		selectors: selectors,
		logger:    log.WithComponent("listing"),
	}
}

// Parse extracts stubs from the page HTML. Relative links and image sources
// are resolved against the listing page's own URL so every stub URL is
// absolute. Malformed markup yields whatever stubs are recoverable.
func (p *Parser) Parse(html, pageURL string) ([]domain.ArticleStub, error) {
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("invalid listing page url %q: %w", pageURL, err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse listing html: %w", err)
	}

	var stubs []domain.ArticleStub
	doc.Find(p.selectors.Item).Each(func(_ int, item *goquery.Selection) {
		href, ok := item.Find(p.selectors.Link).First().Attr("href")
		if !ok || strings.TrimSpace(href) == "" {
			return
		}

		title := strings.TrimSpace(item.Find(p.selectors.Title).First().Text())
		if title == "" {
			return
		}

		stub := domain.ArticleStub{
			URL:     resolveURL(base, href),
			Title:   title,
			Summary: collapseWhitespace(item.Find(p.selectors.Summary).First().Text()),
		}
		if src, found := item.Find(p.selectors.Image).First().Attr("src"); found {
			stub.ImageSrc = resolveURL(base, src)
		}
		stubs = append(stubs, stub)
	})

	p.logger.Debug("Parsed listing page",
		"url", pageURL,
		"stubs", len(stubs))
	return stubs, nil
}

// resolveURL makes ref absolute against base, leaving already-absolute URLs
// untouched.
func resolveURL(base *url.URL, ref string) string {
	parsed, err := url.Parse(strings.TrimSpace(ref))
	if err != nil {
		return ref
	}
	return base.ResolveReference(parsed).String()
}

// collapseWhitespace trims and squeezes all runs of whitespace to one space.
func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
