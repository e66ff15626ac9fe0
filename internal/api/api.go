// Package api exposes the content pipeline over HTTP: scheduler triggers and
// status, the stored article corpus, and a listing debug endpoint.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jonesrussell/goread/internal/domain"
	"github.com/jonesrussell/goread/internal/logger"
	"github.com/jonesrussell/goread/internal/monitor"
	"github.com/jonesrussell/goread/internal/scheduler"
)

// Pipeline is the monitor surface the handlers trigger.
type Pipeline interface {
	FetchArticleList(ctx context.Context) int
	ProcessNextArticle(ctx context.Context) *monitor.ProcessResult
	FetchAndParse(ctx context.Context, site, section string) ([]domain.ArticleStub, error)
}

// Timers is the scheduler surface the handlers control.
type Timers interface {
	Start() error
	Stop()
	Status() scheduler.Status
}

// Articles is the stored-document surface the browse routes serve from.
type Articles interface {
	List() ([]domain.StoredArticle, error)
	Read(name string) ([]byte, error)
	Exists(name string) bool
}

// SetupRouter creates and configures the Gin router with all routes.
func SetupRouter(
	log logger.Interface,
	pipeline Pipeline,
	timers Timers,
	articles Articles,
) *gin.Engine {
	// Disable Gin's default logging
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(loggingMiddleware(log))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	sched := newSchedulerHandler(pipeline, timers, log)
	group := router.Group("/scheduler")
	group.POST("/fetch-now", sched.FetchNow)
	group.POST("/process-next", sched.ProcessNext)
	group.POST("/start", sched.Start)
	group.POST("/stop", sched.Stop)
	group.GET("/status", sched.Status)

	browse := newArticlesHandler(articles, log)
	router.GET("/articles", browse.List)
	router.GET("/articles/view/:name", browse.View)
	router.GET("/articles/exists/:name", browse.Exists)

	listings := newListingHandler(pipeline, log)
	router.GET("/fetch-and-parse/:site/:section", listings.FetchAndParse)

	return router
}

// loggingMiddleware logs every request with latency and status.
func loggingMiddleware(log logger.Interface) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)
		statusCode := c.Writer.Status()

		log.Info("HTTP Request",
			"method", c.Request.Method,
			"path", path,
			"query", query,
			"status", statusCode,
			"latency", latency,
		)
	}
}
