// Package api exposes scraping and question answering over HTTP.
package api

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"newsrag/internal/domain"
	"newsrag/internal/logger"
	"newsrag/internal/service"
)

// Ingester is the write path used by the scraper endpoints.
type Ingester interface {
	IngestURL(ctx context.Context, url string) (service.IngestReport, error)
	RunBatch(ctx context.Context) service.BatchReport
}

// Asker is the read path used by the RAG endpoints.
type Asker interface {
	Ask(ctx context.Context, question string) (domain.Answer, error)
}

type AskRequest struct {
	Question string `json:"question" binding:"required"`
}

type handler struct {
	ingester Ingester
	asker    Asker
	log      *logger.Logger
}

// NewRouter wires the routes. An empty origins list, or "*", allows any origin.
func NewRouter(ing Ingester, asker Asker, origins []string, log *logger.Logger) *gin.Engine {
	if log == nil {
		log = logger.Discard()
	}
	h := &handler{ingester: ing, asker: asker, log: log.Component("api")}

	r := gin.New()
	r.Use(gin.Recovery(), h.requestLog())
	r.Use(cors.New(corsConfig(origins)))

	r.GET("/", h.health)
	r.GET("/healthz", h.health)

	scraper := r.Group("/scraper")
	scraper.GET("/scrape", h.scrape)
	scraper.GET("/cron", h.cron)

	rag := r.Group("/rag")
	rag.POST("/ask", h.askJSON)
	rag.GET("/ask", h.askQuery)
	return r
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept"},
		MaxAge:       12 * time.Hour,
	}
	for _, o := range origins {
		if o == "*" {
			origins = nil
			break
		}
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}

func (h *handler) requestLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		h.log.Debug("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}

func (h *handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "News RAG service running"})
}

func (h *handler) scrape(c *gin.Context) {
	url := strings.TrimSpace(c.Query("url"))
	if url == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing required query parameter: url"})
		return
	}
	rep, err := h.ingester.IngestURL(c.Request.Context(), url)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, rep)
	case service.IsFetchError(err):
		c.JSON(http.StatusBadGateway, rep)
	default:
		c.JSON(http.StatusInternalServerError, rep)
	}
}

func (h *handler) cron(c *gin.Context) {
	c.JSON(http.StatusOK, h.ingester.RunBatch(c.Request.Context()))
}

func (h *handler) askJSON(c *gin.Context) {
	var req AskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.ask(c, req.Question)
}

func (h *handler) askQuery(c *gin.Context) {
	h.ask(c, c.Query("q"))
}

func (h *handler) ask(c *gin.Context, question string) {
	ans, err := h.asker.Ask(c.Request.Context(), question)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, ans.View())
	case errors.Is(err, domain.ErrInvalidArgument):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		h.log.Error("ask failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
