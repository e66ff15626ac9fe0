package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jonesrussell/goread/internal/logger"
	"github.com/jonesrussell/goread/internal/storage"
)

// ArticlesHandler serves the stored article corpus.
type ArticlesHandler struct {
	articles Articles
	log      logger.Interface
}

func newArticlesHandler(articles Articles, log logger.Interface) *ArticlesHandler {
	return &ArticlesHandler{
		articles: articles,
		log:      log,
	}
}

// List handles GET /articles.
func (h *ArticlesHandler) List(c *gin.Context) {
	stored, err := h.articles.List()
	if err != nil {
		h.log.Error("Failed to list stored articles", "error", err.Error())
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list articles"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"articles": stored,
		"count":    len(stored),
	})
}

// View handles GET /articles/view/:name, serving one stored document as HTML.
func (h *ArticlesHandler) View(c *gin.Context) {
	name := c.Param("name")
	content, err := h.articles.Read(name)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrInvalidName):
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid article name"})
		case errors.Is(err, storage.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "article not found"})
		default:
			h.log.Error("Failed to read stored article",
				"name", name,
				"error", err.Error())
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read article"})
		}
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", content)
}

// Exists handles GET /articles/exists/:name.
func (h *ArticlesHandler) Exists(c *gin.Context) {
	name := c.Param("name")
	c.JSON(http.StatusOK, gin.H{
		"exists":   h.articles.Exists(name),
		"filename": name,
	})
}
