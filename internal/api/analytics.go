package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"trade-journal-go/internal/analytics"
	"trade-journal-go/internal/filter"
)

// AnalyticsHandler serves summary and breakdown statistics.
type AnalyticsHandler struct {
	Engine *analytics.Engine
	Log    *zap.Logger
}

// Register mounts the analytics routes under /api/analytics.
func (h *AnalyticsHandler) Register(r *gin.Engine) {
	group := r.Group("/api/analytics")
	group.GET("/summary", h.summary)
	group.GET("/breakdown", h.breakdown)
}

func (h *AnalyticsHandler) summary(c *gin.Context) {
	f, err := filter.ParseQuery(c.Request.URL.Query())
	if err != nil {
		fail(c, h.Log, err)
		return
	}
	s, err := h.Engine.Summary(c.Request.Context(), f)
	if err != nil {
		fail(c, h.Log, err)
		return
	}
	Ok(c, s, nil)
}

func (h *AnalyticsHandler) breakdown(c *gin.Context) {
	dimension := strings.TrimSpace(c.Query("dimension"))
	if dimension == "" {
		Error(c, http.StatusBadRequest, "dimension required", nil)
		return
	}
	f, err := filter.ParseQuery(c.Request.URL.Query())
	if err != nil {
		fail(c, h.Log, err)
		return
	}
	groups, err := h.Engine.GroupBy(c.Request.Context(), f, dimension)
	if err != nil {
		fail(c, h.Log, err)
		return
	}
	Ok(c, groups, map[string]any{"dimension": dimension})
}
