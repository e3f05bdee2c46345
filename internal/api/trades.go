package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"trade-journal-go/internal/filter"
	"trade-journal-go/internal/journal"
)

// TradeHandler maps the trade routes onto the repository.
type TradeHandler struct {
	Trades *journal.TradeRepository
	Log    *zap.Logger
}

// Register mounts the trade routes under /api/trades.
func (h *TradeHandler) Register(r *gin.Engine) {
	group := r.Group("/api/trades")
	group.GET("", h.list)
	group.POST("", h.create)
	group.POST("/bulk-delete", h.bulkDelete)
	group.POST("/bulk-tags", h.bulkTags)
	group.GET("/:id", h.get)
	group.PATCH("/:id", h.update)
	group.DELETE("/:id", h.delete)
}

func (h *TradeHandler) list(c *gin.Context) {
	f, err := filter.ParseQuery(c.Request.URL.Query())
	if err != nil {
		fail(c, h.Log, err)
		return
	}
	page, err := h.Trades.List(c.Request.Context(), f)
	if err != nil {
		fail(c, h.Log, err)
		return
	}
	Ok(c, page.Items, paginationMeta(page.Page, page.PageSize, page.Total))
}

func (h *TradeHandler) get(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	trade, err := h.Trades.GetByID(c.Request.Context(), id)
	if err != nil {
		fail(c, h.Log, err)
		return
	}
	if trade == nil {
		Error(c, http.StatusNotFound, "trade not found", nil)
		return
	}
	Ok(c, trade, nil)
}

func (h *TradeHandler) create(c *gin.Context) {
	var req journal.TradeInput
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid body", nil)
		return
	}
	trade, err := h.Trades.Create(c.Request.Context(), req)
	if err != nil {
		fail(c, h.Log, err)
		return
	}
	Ok(c, trade, nil)
}

func (h *TradeHandler) update(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var req journal.TradePatch
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid body", nil)
		return
	}
	trade, err := h.Trades.Update(c.Request.Context(), id, req)
	if err != nil {
		fail(c, h.Log, err)
		return
	}
	Ok(c, trade, nil)
}

func (h *TradeHandler) delete(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	if err := h.Trades.Delete(c.Request.Context(), id); err != nil {
		fail(c, h.Log, err)
		return
	}
	Ok(c, map[string]any{"id": id}, nil)
}

type bulkDeleteRequest struct {
	IDs []uint `json:"ids"`
}

func (h *TradeHandler) bulkDelete(c *gin.Context) {
	var req bulkDeleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid body", nil)
		return
	}
	deleted, err := h.Trades.BulkDelete(c.Request.Context(), req.IDs)
	if err != nil {
		fail(c, h.Log, err)
		return
	}
	Ok(c, map[string]any{"deleted": deleted}, nil)
}

type bulkTagsRequest struct {
	IDs    []uint `json:"ids"`
	TagIDs []uint `json:"tagIds"`
}

func (h *TradeHandler) bulkTags(c *gin.Context) {
	var req bulkTagsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid body", nil)
		return
	}
	if err := h.Trades.BulkUpdateTags(c.Request.Context(), req.IDs, req.TagIDs); err != nil {
		fail(c, h.Log, err)
		return
	}
	Ok(c, map[string]any{"updated": len(req.IDs)}, nil)
}
