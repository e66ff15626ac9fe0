// Package sources manages the registry of monitored websites: the listing
// sections to fetch per site and the CSS selectors used to pull articles out
// of each site's markup.
package sources

import (
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/jonesrussell/goread/internal/constants"
)

var (
	// ErrNoSites indicates no usable sites were found in the configuration
	ErrNoSites = errors.New("no sites found in configuration")
	// ErrSiteNotFound indicates the requested site is not configured
	ErrSiteNotFound = errors.New("site not found")
	// ErrSectionNotFound indicates the requested section is not configured
	ErrSectionNotFound = errors.New("section not found")
	// ErrMissingRequiredField indicates a required field is missing
	ErrMissingRequiredField = errors.New("missing required field")
)

// ListingSelectors defines the CSS selectors used to extract article stubs
// from a section's listing page.
type ListingSelectors struct {
	Item    string `yaml:"item" mapstructure:"item"`
	Link    string `yaml:"link" mapstructure:"link"`
	Title   string `yaml:"title" mapstructure:"title"`
	Summary string `yaml:"summary" mapstructure:"summary"`
	Image   string `yaml:"image" mapstructure:"image"`
}

// ArticleSelectors defines the CSS selectors used to isolate and clean the
// main content region of an article page. Containers are tried in order and
// the first match wins; Exclude lists substructures removed before walking.
type ArticleSelectors struct {
	Containers []string `yaml:"containers" mapstructure:"containers"`
	Exclude    []string `yaml:"exclude" mapstructure:"exclude"`
}

// Selectors groups the listing and article selector sets for one site.
type Selectors struct {
	Listing ListingSelectors `yaml:"listing" mapstructure:"listing"`
	Article ArticleSelectors `yaml:"article" mapstructure:"article"`
}

// DefaultListingSelectors returns the selector set for the default monitored
// site's listing markup.
func DefaultListingSelectors() ListingSelectors {
	return ListingSelectors{
		Item:    "li[data-type='csm_article']",
		Link:    "a[href]",
		Title:   "span[data-field='title']",
		Summary: "div[data-field='summary']",
		Image:   "img[src]",
	}
}

// DefaultArticleSelectors returns the content-isolation selector set for the
// default monitored site's article markup.
func DefaultArticleSelectors() ArticleSelectors {
	return ArticleSelectors{
		Containers: []string{
			"div.article-body",
			"section[itemprop='articleBody']",
			"div#content",
		},
		Exclude: []string{
			"script",
			"style",
			"noscript",
			"iframe",
			"form",
			".ad",
			".advertisement",
			".sharing",
			".social-share",
			".related-stories",
			".newsletter-signup",
			".paywall",
			".premium-teaser",
		},
	}
}

// DefaultSelectors returns the combined default selector sets.
func DefaultSelectors() Selectors {
	return Selectors{
		Listing: DefaultListingSelectors(),
		Article: DefaultArticleSelectors(),
	}
}

// DefaultSectionHeaders returns the request headers sent with listing and
// article fetches when a section does not override them.
func DefaultSectionHeaders() map[string]string {
	return map[string]string{
		"accept": "text/html,application/xhtml+xml,application/xml;q=0.9," +
			"image/avif,image/webp,image/apng,*/*;q=0.8,application/signed-exchange;v=b3;q=0.7",
		"accept-language": "en-US,en;q=0.9",
		"user-agent":      constants.DefaultUserAgent,
	}
}

// Section is one fetchable listing target within a site.
type Section struct {
	Site    string
	Name    string
	URL     string
	Headers map[string]string
	Cookies map[string]string
}

// Site groups the sections and selector sets for one monitored website.
type Site struct {
	Name           string
	BaseURL        string
	Hosts          []string
	DefaultSection string
	Sections       map[string]*Section
	Selectors      Selectors
}

// SectionNames returns the site's section names in sorted order.
func (s *Site) SectionNames() []string {
	names := make([]string, 0, len(s.Sections))
	for name := range s.Sections {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SectionRef pairs a section with the site that owns it.
type SectionRef struct {
	Site    *Site
	Section *Section
}

// Registry is an immutable lookup of configured sites. It is built once at
// startup and safe for concurrent readers.
type Registry struct {
	sites map[string]*Site
}

// NewRegistry builds a registry from the given sites, keyed by site name.
func NewRegistry(sites []*Site) *Registry {
	byName := make(map[string]*Site, len(sites))
	for _, site := range sites {
		byName[strings.ToLower(site.Name)] = site
	}
	return &Registry{sites: byName}
}

// Sites returns the configured site names in sorted order.
func (r *Registry) Sites() []string {
	names := make([]string, 0, len(r.sites))
	for name := range r.sites {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Site returns the named site.
func (r *Registry) Site(name string) (*Site, error) {
	site, ok := r.sites[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrSiteNotFound, name)
	}
	return site, nil
}

// Section returns the named section of the named site.
func (r *Registry) Section(site, section string) (*SectionRef, error) {
	s, err := r.Site(site)
	if err != nil {
		return nil, err
	}
	sec, ok := s.Sections[strings.ToLower(section)]
	if !ok {
		return nil, fmt.Errorf("%w: %s/%s", ErrSectionNotFound, site, section)
	}
	return &SectionRef{Site: s, Section: sec}, nil
}

// All returns every configured site/section pair, ordered by site name then
// section name so refresh runs visit sections in a stable order.
func (r *Registry) All() []*SectionRef {
	refs := make([]*SectionRef, 0, len(r.sites))
	for _, siteName := range r.Sites() {
		site := r.sites[siteName]
		for _, sectionName := range site.SectionNames() {
			refs = append(refs, &SectionRef{Site: site, Section: site.Sections[sectionName]})
		}
	}
	return refs
}

// Resolve maps an absolute article URL back to the site and section whose
// request headers and selectors apply to it. The section is inferred from the
// URL path segments, falling back to the site's default section.
func (r *Registry) Resolve(rawURL string) (*SectionRef, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid article url %q: %w", rawURL, err)
	}

	host := strings.ToLower(u.Hostname())
	site := r.siteForHost(host)
	if site == nil {
		return nil, fmt.Errorf("%w: no configured site for host %q", ErrSiteNotFound, host)
	}

	for _, segment := range strings.Split(u.Path, "/") {
		if segment == "" {
			continue
		}
		if sec, ok := site.Sections[strings.ToLower(segment)]; ok {
			return &SectionRef{Site: site, Section: sec}, nil
		}
	}

	if sec, ok := site.Sections[site.DefaultSection]; ok {
		return &SectionRef{Site: site, Section: sec}, nil
	}

	// No default configured; fall back to the first section by name.
	names := site.SectionNames()
	if len(names) == 0 {
		return nil, fmt.Errorf("%w: site %q has no sections", ErrSectionNotFound, site.Name)
	}
	return &SectionRef{Site: site, Section: site.Sections[names[0]]}, nil
}

func (r *Registry) siteForHost(host string) *Site {
	for _, name := range r.Sites() {
		site := r.sites[name]
		for _, h := range site.Hosts {
			h = strings.ToLower(h)
			if host == h || strings.HasSuffix(host, "."+h) {
				return site
			}
		}
	}
	return nil
}

// DefaultRegistry returns the built-in registry used when no sources file is
// present: the monitored news site with its business, world, and usa sections.
func DefaultRegistry() *Registry {
	const siteName = "csmonitor"
	site := &Site{
		Name:           siteName,
		BaseURL:        "https://www.csmonitor.com",
		Hosts:          []string{"csmonitor.com"},
		DefaultSection: "business",
		Sections:       make(map[string]*Section),
		Selectors:      DefaultSelectors(),
	}
	for name, sectionURL := range map[string]string{
		"business": "https://www.csmonitor.com/Business",
		"world":    "https://www.csmonitor.com/World",
		"usa":      "https://www.csmonitor.com/USA",
	} {
		site.Sections[name] = &Section{
			Site:    siteName,
			Name:    name,
			URL:     sectionURL,
			Headers: DefaultSectionHeaders(),
			Cookies: map[string]string{},
		}
	}
	return NewRegistry([]*Site{site})
}
