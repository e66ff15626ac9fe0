// Package storage persists rendered article documents as standalone HTML
// files, one file per article, named after the article title. Saving is
// idempotent: a document that already exists on disk counts as stored.
package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/jonesrussell/goread/internal/constants"
	"github.com/jonesrussell/goread/internal/domain"
	"github.com/jonesrussell/goread/internal/logger"
)

var (
	// ErrNotFound indicates no stored document has the requested name.
	ErrNotFound = errors.New("article not found")
	// ErrInvalidName indicates the requested name is not a plain document
	// filename.
	ErrInvalidName = errors.New("invalid article name")
)

const htmlExtension = ".html"

// unsafeFilenameChars are characters stripped from titles before they become
// filenames.
var unsafeFilenameChars = regexp.MustCompile(`[\\/*?:"<>|]`)

var titleCaser = cases.Title(language.English)

// Config configures a FileStore.
type Config struct {
	// Dir is the directory article documents are written to.
	Dir string
}

// FileStore reads and writes article documents under a single directory.
type FileStore struct {
	dir    string
	logger logger.Interface
}

// NewFileStore creates a file-backed article store rooted at cfg.Dir.
func NewFileStore(cfg Config, log logger.Interface) *FileStore {
	if cfg.Dir == "" {
		cfg.Dir = constants.DefaultArticleDir
	}
	if log == nil {
		log = logger.NewNoOp()
	}
	return &FileStore{
		dir:    cfg.Dir,
		logger: log.WithComponent("storage"),
	}
}

// Dir returns the directory documents are stored in.
func (s *FileStore) Dir() string {
	return s.dir
}

// Save writes one article document and reports whether the article is now
// stored. A document that already exists is left untouched and counts as
// success. Failures are logged, never returned; the caller only needs the
// outcome.
func (s *FileStore) Save(articleURL, title, content string) bool {
	name := s.filenameFor(articleURL, title, content)
	path := filepath.Join(s.dir, name)

	if _, err := os.Stat(path); err == nil {
		s.logger.Debug("Article already stored", "name", name)
		return true
	}

	if err := os.MkdirAll(s.dir, 0755); err != nil {
		s.logger.Error("Failed to create article directory",
			"dir", s.dir,
			"error", err.Error())
		return false
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		s.logger.Error("Failed to write article document",
			"name", name,
			"error", err.Error())
		return false
	}

	s.logger.Info("Article stored",
		"name", name,
		"url", articleURL,
		"bytes", len(content))
	return true
}

// List returns every stored document, newest first.
func (s *FileStore) List() ([]domain.StoredArticle, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []domain.StoredArticle{}, nil
		}
		return nil, fmt.Errorf("read article directory: %w", err)
	}

	articles := make([]domain.StoredArticle, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), htmlExtension) {
			continue
		}
		info, infoErr := entry.Info()
		if infoErr != nil {
			continue
		}
		articles = append(articles, domain.StoredArticle{
			Name:     entry.Name(),
			Size:     info.Size(),
			Modified: info.ModTime(),
		})
	}

	sort.Slice(articles, func(i, j int) bool {
		if !articles[i].Modified.Equal(articles[j].Modified) {
			return articles[i].Modified.After(articles[j].Modified)
		}
		return articles[i].Name < articles[j].Name
	})
	return articles, nil
}

// Read returns the content of one stored document.
func (s *FileStore) Read(name string) ([]byte, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}
	content, err := os.ReadFile(filepath.Join(s.dir, name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %q", ErrNotFound, name)
		}
		return nil, fmt.Errorf("read article %q: %w", name, err)
	}
	return content, nil
}

// Exists reports whether a stored document has the given name.
func (s *FileStore) Exists(name string) bool {
	if err := validateName(name); err != nil {
		return false
	}
	_, err := os.Stat(filepath.Join(s.dir, name))
	return err == nil
}

// Count returns the number of stored documents.
func (s *FileStore) Count() int {
	articles, err := s.List()
	if err != nil {
		return 0
	}
	return len(articles)
}

// validateName rejects names that could escape the storage directory.
func validateName(name string) error {
	if name == "" ||
		name != filepath.Base(name) ||
		strings.Contains(name, "..") ||
		!strings.HasSuffix(name, htmlExtension) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}

// filenameFor derives the document filename from the title, falling back to
// the document's own <title>, then a readable form of the URL slug, then a
// timestamped name.
func (s *FileStore) filenameFor(articleURL, title, content string) string {
	title = strings.TrimSpace(title)
	if title == "" {
		title = titleFromContent(content)
	}
	if title == "" {
		title = titleFromSlug(articleURL)
	}
	if title == "" {
		title = fmt.Sprintf("article_%d", time.Now().Unix())
	}

	name := unsafeFilenameChars.ReplaceAllString(title, "_")
	name = strings.TrimSpace(name)
	if runes := []rune(name); len(runes) > constants.MaxArticleFilenameLength {
		name = strings.TrimSpace(string(runes[:constants.MaxArticleFilenameLength]))
	}
	if name == "" {
		name = fmt.Sprintf("article_%d", time.Now().Unix())
	}
	return name + htmlExtension
}

// titleFromContent pulls the <title> text out of a rendered document.
func titleFromContent(content string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return ""
	}
	return strings.Join(strings.Fields(doc.Find("title").First().Text()), " ")
}

// titleFromSlug turns the last URL path segment into a readable title.
func titleFromSlug(articleURL string) string {
	trimmed := strings.TrimRight(articleURL, "/")
	slug := trimmed[strings.LastIndex(trimmed, "/")+1:]
	slug = strings.TrimSuffix(slug, filepath.Ext(slug))
	slug = strings.ReplaceAll(slug, "-", " ")
	slug = strings.ReplaceAll(slug, "_", " ")
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return ""
	}
	return titleCaser.String(slug)
}
