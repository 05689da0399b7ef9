package chapters

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	Repo *Repo
}

func NewHandler(repo *Repo) *Handler {
	return &Handler{Repo: repo}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.list)                  // GET /chapters
	rg.GET("/:series", h.bySeries)      // GET /chapters/:series
	rg.GET("/:series/dates", h.byDates) // GET /chapters/:series/dates
}

func (h *Handler) RegisterBatchRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.batches) // GET /batches
}

func (h *Handler) list(c *gin.Context) {
	q := ListQuery{
		Series: c.Query("series"),
		Type:   c.Query("type"),
		From:   c.Query("from"),
		To:     c.Query("to"),
		Limit:  parseInt(c.Query("limit"), 50),
		Offset: parseInt(c.Query("offset"), 0),
	}

	items, err := h.Repo.List(c.Request.Context(), q)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"limit":  q.Limit,
		"offset": q.Offset,
		"items":  items,
	})
}

func (h *Handler) bySeries(c *gin.Context) {
	series := c.Param("series")
	items, err := h.Repo.BySeries(c.Request.Context(), series)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "get failed"})
		return
	}
	if len(items) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "no records for series"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"series": series, "items": items})
}

func (h *Handler) byDates(c *gin.Context) {
	series := c.Param("series")
	dates, err := h.Repo.RecordDates(c.Request.Context(), series)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "get failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"series": series, "dates": dates})
}

func (h *Handler) batches(c *gin.Context) {
	items, err := h.Repo.ListBatches(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

func parseInt(s string, def int) int {
	if strings.TrimSpace(s) == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}
