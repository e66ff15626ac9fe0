// Package images localizes remote article images: each unique URL is
// downloaded once, recompressed under a byte budget, and persisted under a
// deterministic hash-derived filename so repeat URLs across articles and runs
// are cache hits.
package images

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/gif"
	"image/jpeg"
	"image/png"
	"math"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // register webp decoding

	"github.com/jonesrussell/goread/internal/constants"
	"github.com/jonesrussell/goread/internal/domain"
	"github.com/jonesrussell/goread/internal/fetcher"
	"github.com/jonesrussell/goread/internal/logger"
)

var (
	// ErrEmptyURL is returned when localization is requested without a URL.
	ErrEmptyURL = errors.New("image url cannot be empty")
	// ErrEmptyBody is returned when the image download yields no bytes.
	ErrEmptyBody = errors.New("image response body is empty")

	errNoEncoder = errors.New("no encoder for image format")
)

// hashLength is the number of hex characters of the URL hash used in
// filenames.
const hashLength = 10

// allowedExtensions are the image extensions kept from the source URL path;
// anything else falls back to .jpg.
var allowedExtensions = map[string]struct{}{
	".jpg":  {},
	".jpeg": {},
	".png":  {},
	".gif":  {},
	".webp": {},
}

// Fetcher downloads a URL and returns the structured result.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string, opts *fetcher.Options) (*domain.FetchResult, error)
}

// Config configures a Localizer.
type Config struct {
	DownloadDir   string
	ResizeEnabled bool
	MaxWidth      int
	MaxHeight     int
	Quality       int
	MaxFileSize   int
	Timeout       time.Duration
	MaxConcurrent int
}

// Localizer downloads and recompresses images. A channel semaphore bounds
// simultaneous downloads across every extraction using this instance.
type Localizer struct {
	fetcher Fetcher
	cfg     Config
	sem     chan struct{}
	logger  logger.Interface
}

// NewLocalizer creates a localizer. Zero config fields fall back to defaults.
func NewLocalizer(f Fetcher, cfg Config, log logger.Interface) *Localizer {
	if cfg.Quality <= 0 || cfg.Quality > 100 {
		cfg.Quality = constants.DefaultImageQuality
	}
	if cfg.MaxFileSize <= 0 {
		cfg.MaxFileSize = constants.DefaultMaxImageFileSize
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = constants.DefaultImageTimeout
	}
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = constants.DefaultMaxImageDownloads
	}
	if log == nil {
		log = logger.NewNoOp()
	}
	return &Localizer{
		fetcher: f,
		cfg:     cfg,
		sem:     make(chan struct{}, cfg.MaxConcurrent),
		logger:  log.WithComponent("images"),
	}
}

// Localize downloads one image and persists a recompressed copy, returning
// its local path. A file already present for the URL's hash is reused without
// downloading. Failures return an error; callers are expected to fall back to
// the remote URL rather than failing the article.
func (l *Localizer) Localize(ctx context.Context, imageURL string) (*domain.LocalizeResult, error) {
	if strings.TrimSpace(imageURL) == "" {
		return nil, ErrEmptyURL
	}

	location := filepath.Join(l.cfg.DownloadDir, Filename(imageURL))
	if info, err := os.Stat(location); err == nil {
		l.logger.Debug("Image already cached",
			"url", imageURL,
			"location", location)
		return &domain.LocalizeResult{Location: location, Localized: true, Size: info.Size()}, nil
	}

	if err := l.acquire(ctx); err != nil {
		return nil, err
	}
	defer l.release()

	result, err := l.fetcher.Fetch(ctx, imageURL, &fetcher.Options{
		Timeout: l.cfg.Timeout,
		Headers: map[string]string{"accept": "image/avif,image/webp,image/apng,image/*,*/*;q=0.8"},
	})
	if err != nil {
		return nil, fmt.Errorf("download image: %w", err)
	}
	if len(result.Body) == 0 {
		return nil, ErrEmptyBody
	}

	originalSize := int64(len(result.Body))
	processed, procErr := l.process(result.Body, filepath.Ext(location))
	if procErr != nil {
		// Persist the original bytes untouched rather than losing the image.
		l.logger.Warn("Image processing failed, storing original bytes",
			"url", imageURL,
			"error", procErr.Error())
		processed = result.Body
	}

	if err = os.MkdirAll(l.cfg.DownloadDir, 0755); err != nil {
		return nil, fmt.Errorf("create image directory: %w", err)
	}
	if err = os.WriteFile(location, processed, 0644); err != nil {
		return nil, fmt.Errorf("write image file: %w", err)
	}

	l.logger.Info("Image localized",
		"url", imageURL,
		"location", location,
		"original_bytes", originalSize,
		"stored_bytes", len(processed))
	return &domain.LocalizeResult{
		Location:     location,
		Localized:    true,
		Size:         int64(len(processed)),
		OriginalSize: originalSize,
	}, nil
}

// Filename derives the deterministic local filename for an image URL: the
// first hashLength hex characters of the URL's MD5 plus the URL path's
// extension when it is a recognized image type, .jpg otherwise.
func Filename(imageURL string) string {
	sum := md5.Sum([]byte(imageURL))
	name := hex.EncodeToString(sum[:])[:hashLength]

	ext := ""
	if u, err := url.Parse(imageURL); err == nil {
		ext = strings.ToLower(path.Ext(u.Path))
	}
	if _, ok := allowedExtensions[ext]; !ok || len(ext) > 5 {
		ext = ".jpg"
	}
	return name + ext
}

func (l *Localizer) acquire(ctx context.Context) error {
	select {
	case l.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (l *Localizer) release() {
	<-l.sem
}

// process decodes, optionally resizes, flattens transparency for formats
// without an alpha channel, and re-encodes under the size budget.
func (l *Localizer) process(data []byte, ext string) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	if l.cfg.ResizeEnabled {
		img = fitWithin(img, l.cfg.MaxWidth, l.cfg.MaxHeight)
	}
	// JPEG is the only target without an alpha channel.
	if ext == ".jpg" || ext == ".jpeg" {
		img = flattenAlpha(img)
	}
	return l.encode(img, ext)
}

func (l *Localizer) encode(img image.Image, ext string) ([]byte, error) {
	switch ext {
	case ".jpg", ".jpeg":
		return l.encodeJPEG(img)
	case ".png":
		var buf bytes.Buffer
		enc := png.Encoder{CompressionLevel: png.BestCompression}
		if err := enc.Encode(&buf, img); err != nil {
			return nil, fmt.Errorf("encode png: %w", err)
		}
		return buf.Bytes(), nil
	case ".gif":
		var buf bytes.Buffer
		if err := gif.Encode(&buf, img, nil); err != nil {
			return nil, fmt.Errorf("encode gif: %w", err)
		}
		return buf.Bytes(), nil
	default:
		// webp has no encoder; the caller stores the original bytes.
		return nil, fmt.Errorf("%w: %s", errNoEncoder, ext)
	}
}

// encodeJPEG encodes at the configured quality, then steps the quality down
// in fixed decrements until the result fits the byte budget or the quality
// floor is reached, whichever comes first.
func (l *Localizer) encodeJPEG(img image.Image) ([]byte, error) {
	quality := l.cfg.Quality
	data, err := encodeJPEGAt(img, quality)
	if err != nil {
		return nil, err
	}
	for len(data) > l.cfg.MaxFileSize && quality > constants.MinImageQuality {
		quality -= constants.ImageQualityStep
		if quality < constants.MinImageQuality {
			quality = constants.MinImageQuality
		}
		data, err = encodeJPEGAt(img, quality)
		if err != nil {
			return nil, err
		}
		l.logger.Debug("Reduced image quality to fit size budget",
			"quality", quality,
			"bytes", len(data))
	}
	return data, nil
}

func encodeJPEGAt(img image.Image, quality int) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

// fitWithin scales the image down to fit the given bounds, preserving aspect
// ratio. Images already inside the bounds are returned unchanged.
func fitWithin(img image.Image, maxWidth, maxHeight int) image.Image {
	if maxWidth <= 0 || maxHeight <= 0 {
		return img
	}
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width <= maxWidth && height <= maxHeight {
		return img
	}

	ratio := math.Min(float64(maxWidth)/float64(width), float64(maxHeight)/float64(height))
	newWidth := max(int(float64(width)*ratio), 1)
	newHeight := max(int(float64(height)*ratio), 1)

	dst := image.NewRGBA(image.Rect(0, 0, newWidth, newHeight))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, xdraw.Over, nil)
	return dst
}

// flattenAlpha composites the image onto a white background so transparency
// survives encoding to formats without an alpha channel.
func flattenAlpha(img image.Image) image.Image {
	if opaque, ok := img.(interface{ Opaque() bool }); ok && opaque.Opaque() {
		return img
	}
	bounds := img.Bounds()
	dst := image.NewRGBA(bounds)
	draw.Draw(dst, bounds, image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.Draw(dst, bounds, img, bounds.Min, draw.Over)
	return dst
}
