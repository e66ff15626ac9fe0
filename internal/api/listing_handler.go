package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jonesrussell/goread/internal/logger"
	"github.com/jonesrussell/goread/internal/sources"
)

// ListingHandler exposes the fetch-and-parse debug endpoint.
type ListingHandler struct {
	pipeline Pipeline
	log      logger.Interface
}

func newListingHandler(pipeline Pipeline, log logger.Interface) *ListingHandler {
	return &ListingHandler{
		pipeline: pipeline,
		log:      log,
	}
}

// FetchAndParse handles GET /fetch-and-parse/:site/:section. It fetches and
// parses one section listing and returns the stubs without queueing them.
func (h *ListingHandler) FetchAndParse(c *gin.Context) {
	site := c.Param("site")
	section := c.Param("section")

	stubs, err := h.pipeline.FetchAndParse(c.Request.Context(), site, section)
	if err != nil {
		if errors.Is(err, sources.ErrSiteNotFound) || errors.Is(err, sources.ErrSectionNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		h.log.Error("Fetch-and-parse failed",
			"site", site,
			"section", section,
			"error", err.Error())
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"site":     site,
		"section":  section,
		"count":    len(stubs),
		"articles": stubs,
	})
}
