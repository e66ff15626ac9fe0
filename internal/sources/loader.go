package sources

import (
	"fmt"
	"net/url"
	"os"
	"sort"
	"strings"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// sourcesFile is the raw shape of a sources configuration file.
type sourcesFile struct {
	Sites map[string]map[string]any `yaml:"sites"`
}

// siteConfig is the decoded per-site entry of a sources file.
type siteConfig struct {
	BaseURL        string                   `mapstructure:"base_url"`
	Hosts          []string                 `mapstructure:"hosts"`
	DefaultSection string                   `mapstructure:"default_section"`
	Sections       map[string]sectionConfig `mapstructure:"sections"`
	Selectors      selectorsConfig          `mapstructure:"selectors"`
}

type sectionConfig struct {
	URL     string            `mapstructure:"url"`
	Headers map[string]string `mapstructure:"headers"`
	Cookies map[string]string `mapstructure:"cookies"`
}

type selectorsConfig struct {
	Listing ListingSelectors `mapstructure:"listing"`
	Article ArticleSelectors `mapstructure:"article"`
}

// Loader reads site configurations from a YAML file.
type Loader struct {
	path string
}

// NewLoader creates a loader for the given sources file path.
func NewLoader(path string) *Loader {
	return &Loader{path: path}
}

// Load reads and validates the sources file. A missing file is not an error;
// the built-in default registry is returned so the service works out of the
// box. An unreadable or empty file is an error.
func (l *Loader) Load() (*Registry, error) {
	raw, err := l.loadRawSites()
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return DefaultRegistry(), nil
	}

	names := make([]string, 0, len(raw))
	for name := range raw {
		names = append(names, name)
	}
	sort.Strings(names)

	sites := make([]*Site, 0, len(raw))
	for _, name := range names {
		site, convertErr := l.convertToSite(name, raw[name])
		if convertErr != nil {
			continue
		}
		sites = append(sites, site)
	}

	if len(sites) == 0 {
		return nil, ErrNoSites
	}

	return NewRegistry(sites), nil
}

// loadRawSites reads the file and returns the raw site maps, or nil when the
// file does not exist.
func (l *Loader) loadRawSites() (map[string]map[string]any, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read sources file: %w", err)
	}

	var file sourcesFile
	if unmarshalErr := yaml.Unmarshal(data, &file); unmarshalErr != nil {
		return nil, fmt.Errorf("failed to parse sources file: %w", unmarshalErr)
	}
	if len(file.Sites) == 0 {
		return nil, ErrNoSites
	}

	return file.Sites, nil
}

// convertToSite decodes one raw site map into a validated Site.
func (l *Loader) convertToSite(name string, src map[string]any) (*Site, error) {
	var cfg siteConfig
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &cfg,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create decoder: %w", err)
	}
	if decodeErr := decoder.Decode(src); decodeErr != nil {
		return nil, fmt.Errorf("failed to decode site %q: %w", name, decodeErr)
	}

	site := &Site{
		Name:           strings.ToLower(name),
		BaseURL:        cfg.BaseURL,
		Hosts:          cfg.Hosts,
		DefaultSection: strings.ToLower(cfg.DefaultSection),
		Sections:       make(map[string]*Section, len(cfg.Sections)),
		Selectors:      cfg.Selectors.withDefaults(),
	}

	for sectionName, sectionCfg := range cfg.Sections {
		section, sectionErr := l.convertToSection(site.Name, sectionName, sectionCfg)
		if sectionErr != nil {
			continue
		}
		site.Sections[section.Name] = section
	}
	if len(site.Sections) == 0 {
		return nil, fmt.Errorf("%w: site %q has no valid sections", ErrMissingRequiredField, name)
	}

	if err = l.fillSiteOrigin(site); err != nil {
		return nil, err
	}
	return site, nil
}

// convertToSection validates one section entry.
func (l *Loader) convertToSection(site, name string, cfg sectionConfig) (*Section, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("%w: url", ErrMissingRequiredField)
	}
	if err := validateHTTPURL(cfg.URL); err != nil {
		return nil, fmt.Errorf("invalid url for %s/%s: %w", site, name, err)
	}

	headers := cfg.Headers
	if len(headers) == 0 {
		headers = DefaultSectionHeaders()
	}
	cookies := cfg.Cookies
	if cookies == nil {
		cookies = map[string]string{}
	}

	return &Section{
		Site:    site,
		Name:    strings.ToLower(name),
		URL:     cfg.URL,
		Headers: headers,
		Cookies: cookies,
	}, nil
}

// fillSiteOrigin derives the base URL and host list from the section URLs
// when the file leaves them out.
func (l *Loader) fillSiteOrigin(site *Site) error {
	if site.BaseURL == "" {
		for _, name := range site.SectionNames() {
			u, err := url.Parse(site.Sections[name].URL)
			if err != nil {
				continue
			}
			site.BaseURL = u.Scheme + "://" + u.Host
			break
		}
	}
	if len(site.Hosts) == 0 && site.BaseURL != "" {
		u, err := url.Parse(site.BaseURL)
		if err != nil {
			return fmt.Errorf("invalid base url for site %q: %w", site.Name, err)
		}
		site.Hosts = []string{strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")}
	}
	return nil
}

// withDefaults fills any selector the file leaves blank from the defaults.
func (c selectorsConfig) withDefaults() Selectors {
	s := Selectors{Listing: c.Listing, Article: c.Article}
	defaults := DefaultSelectors()

	if s.Listing.Item == "" {
		s.Listing.Item = defaults.Listing.Item
	}
	if s.Listing.Link == "" {
		s.Listing.Link = defaults.Listing.Link
	}
	if s.Listing.Title == "" {
		s.Listing.Title = defaults.Listing.Title
	}
	if s.Listing.Summary == "" {
		s.Listing.Summary = defaults.Listing.Summary
	}
	if s.Listing.Image == "" {
		s.Listing.Image = defaults.Listing.Image
	}
	if len(s.Article.Containers) == 0 {
		s.Article.Containers = defaults.Article.Containers
	}
	if len(s.Article.Exclude) == 0 {
		s.Article.Exclude = defaults.Article.Exclude
	}
	return s
}

func validateHTTPURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("must be a valid HTTP(S) URL, got %q", raw)
	}
	return nil
}
