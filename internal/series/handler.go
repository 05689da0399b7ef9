package series

import (
	"net/http"
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
	rg.GET("", h.list) // GET /series
}

// RegisterProtectedRoutes mounts the mutating endpoints behind auth.
func (h *Handler) RegisterProtectedRoutes(rg *gin.RouterGroup) {
	rg.POST("/series", h.add) // POST /series
}

func (h *Handler) list(c *gin.Context) {
	items, err := h.Repo.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

type addReq struct {
	Title     string  `json:"title"`
	DebutDate *string `json:"debut_date,omitempty"`
	EndDate   *string `json:"end_date,omitempty"`
}

func (h *Handler) add(c *gin.Context) {
	var req addReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "title is required"})
		return
	}

	if err := h.Repo.Add(c.Request.Context(), req.Title, req.DebutDate, req.EndDate); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "add failed"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"title": strings.TrimSpace(req.Title)})
}
