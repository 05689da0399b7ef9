package week

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"jumptoc/internal/live"
)

// Broadcaster pushes the week.added event to live subscribers.
type Broadcaster interface {
	BroadcastJSON(v any)
}

type Handler struct {
	Store Store
	Hub   Broadcaster
}

func NewHandler(store Store, hub Broadcaster) *Handler {
	return &Handler{Store: store, Hub: hub}
}

// RegisterRoutes mounts the manual entry endpoint; the caller wraps the
// group in auth middleware.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("", h.addWeek) // POST /weeks
}

type addWeekReq struct {
	ReleaseDate string  `json:"release_date"`
	Recency     string  `json:"recency,omitempty"`
	Entries     []Entry `json:"entries"`
}

func (h *Handler) addWeek(c *gin.Context) {
	var req addWeekReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	inserted, warnings, err := Apply(c.Request.Context(), h.Store, req.ReleaseDate, req.Entries, req.Recency)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if h.Hub != nil {
		h.Hub.BroadcastJSON(live.WeekAdded{
			Type:        live.EventWeekAdded,
			ReleaseDate: req.ReleaseDate,
			Records:     inserted,
			At:          time.Now(),
		})
	}

	c.JSON(http.StatusCreated, gin.H{
		"release_date": req.ReleaseDate,
		"inserted":     inserted,
		"warnings":     warnings,
	})
}
