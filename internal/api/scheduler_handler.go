package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jonesrussell/goread/internal/logger"
)

// SchedulerHandler handles scheduler trigger and status requests.
type SchedulerHandler struct {
	pipeline Pipeline
	timers   Timers
	log      logger.Interface
}

func newSchedulerHandler(pipeline Pipeline, timers Timers, log logger.Interface) *SchedulerHandler {
	return &SchedulerHandler{
		pipeline: pipeline,
		timers:   timers,
		log:      log,
	}
}

// FetchNow handles POST /scheduler/fetch-now. The refresh runs in the
// background; the response only acknowledges the trigger.
func (h *SchedulerHandler) FetchNow(c *gin.Context) {
	go h.pipeline.FetchArticleList(context.Background())
	c.JSON(http.StatusOK, gin.H{"message": "article list refresh triggered"})
}

// ProcessNext handles POST /scheduler/process-next. The step runs in the
// background; its outcome lands in the log and the status counters.
func (h *SchedulerHandler) ProcessNext(c *gin.Context) {
	go h.pipeline.ProcessNextArticle(context.Background())
	c.JSON(http.StatusOK, gin.H{"message": "process step triggered"})
}

// Start handles POST /scheduler/start.
func (h *SchedulerHandler) Start(c *gin.Context) {
	if err := h.timers.Start(); err != nil {
		h.log.Error("Failed to start scheduler", "error", err.Error())
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "scheduler started"})
}

// Stop handles POST /scheduler/stop.
func (h *SchedulerHandler) Stop(c *gin.Context) {
	h.timers.Stop()
	c.JSON(http.StatusOK, gin.H{"message": "scheduler stopped"})
}

// Status handles GET /scheduler/status.
func (h *SchedulerHandler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, h.timers.Status())
}
