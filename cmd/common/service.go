package common

import (
	"fmt"

	"github.com/jonesrussell/goread/internal/config"
	"github.com/jonesrussell/goread/internal/extractor"
	"github.com/jonesrussell/goread/internal/fetcher"
	"github.com/jonesrussell/goread/internal/images"
	"github.com/jonesrussell/goread/internal/logger"
	"github.com/jonesrussell/goread/internal/monitor"
	"github.com/jonesrussell/goread/internal/queue"
	"github.com/jonesrussell/goread/internal/render"
	"github.com/jonesrussell/goread/internal/sources"
	"github.com/jonesrussell/goread/internal/storage"
)

// ServiceResult holds the pipeline service and the parts commands address
// directly. This consolidates the common pattern used across commands.
type ServiceResult struct {
	Service  *monitor.Service
	Store    *storage.FileStore
	Registry *sources.Registry
}

// CreateService builds the full content pipeline from configuration:
// source registry, fetch client, image localizer, renderer, extractor,
// article store, pending queue, and the monitor service on top of them.
func CreateService(cfg config.Interface, log logger.Interface) (*ServiceResult, error) {
	registry, err := sources.NewLoader(cfg.GetSourcesConfig().File).Load()
	if err != nil {
		return nil, fmt.Errorf("load sources: %w", err)
	}

	fetchCfg := cfg.GetFetcherConfig()
	client := fetcher.NewClient(fetcher.Config{
		Timeout:     fetchCfg.Timeout,
		MaxBodySize: fetchCfg.MaxBodySize,
		UserAgent:   fetchCfg.UserAgent,
	}, log)

	imgCfg := cfg.GetImageConfig()
	localizer := images.NewLocalizer(client, images.Config{
		DownloadDir:   imgCfg.DownloadDir,
		ResizeEnabled: imgCfg.ResizeEnabled,
		MaxWidth:      imgCfg.MaxWidth,
		MaxHeight:     imgCfg.MaxHeight,
		Quality:       imgCfg.Quality,
		MaxFileSize:   imgCfg.MaxFileSize,
		Timeout:       imgCfg.Timeout,
		MaxConcurrent: imgCfg.MaxConcurrent,
	}, log)

	renderer, err := render.New()
	if err != nil {
		return nil, fmt.Errorf("load templates: %w", err)
	}

	schedCfg := cfg.GetSchedulerConfig()
	ext := extractor.New(client, registry, localizer, renderer, extractor.Config{
		MaxConcurrent: schedCfg.MaxConcurrent,
	}, log)

	store := storage.NewFileStore(storage.Config{
		Dir: cfg.GetStorageConfig().ArticleDir,
	}, log)

	svc := monitor.NewService(monitor.Deps{
		Fetcher:   client,
		Extractor: ext,
		Storage:   store,
		Registry:  registry,
		Queue:     queue.NewPendingQueue(),
		Logger:    log,
	}, monitor.Config{
		MaxFetchCount: schedCfg.MaxFetchCount,
	})

	return &ServiceResult{
		Service:  svc,
		Store:    store,
		Registry: registry,
	}, nil
}
