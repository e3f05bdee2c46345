package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"trade-journal-go/internal/journal"
)

// TagHandler manages tag definitions.
type TagHandler struct {
	Tags *journal.TagRepository
	Log  *zap.Logger
}

// Register mounts the tag routes under /api/tags.
func (h *TagHandler) Register(r *gin.Engine) {
	group := r.Group("/api/tags")
	group.GET("", h.list)
	group.POST("", h.create)
	group.PUT("/:id", h.update)
	group.DELETE("/:id", h.delete)
}

func (h *TagHandler) list(c *gin.Context) {
	tags, err := h.Tags.List(c.Request.Context())
	if err != nil {
		fail(c, h.Log, err)
		return
	}
	Ok(c, tags, nil)
}

func (h *TagHandler) create(c *gin.Context) {
	var req journal.TagInput
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid body", nil)
		return
	}
	tag, err := h.Tags.Create(c.Request.Context(), req)
	if err != nil {
		fail(c, h.Log, err)
		return
	}
	Ok(c, tag, nil)
}

func (h *TagHandler) update(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var req journal.TagInput
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid body", nil)
		return
	}
	tag, err := h.Tags.Update(c.Request.Context(), id, req)
	if err != nil {
		fail(c, h.Log, err)
		return
	}
	Ok(c, tag, nil)
}

func (h *TagHandler) delete(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	if err := h.Tags.Delete(c.Request.Context(), id); err != nil {
		fail(c, h.Log, err)
		return
	}
	Ok(c, map[string]any{"id": id}, nil)
}

// FieldHandler manages custom field definitions.
type FieldHandler struct {
	Fields *journal.CustomFieldRepository
	Log    *zap.Logger
}

// Register mounts the custom field routes under /api/custom-fields.
func (h *FieldHandler) Register(r *gin.Engine) {
	group := r.Group("/api/custom-fields")
	group.GET("", h.list)
	group.POST("", h.create)
	group.GET("/:id", h.get)
	group.PUT("/:id", h.update)
	group.DELETE("/:id", h.delete)
}

func (h *FieldHandler) list(c *gin.Context) {
	fields, err := h.Fields.List(c.Request.Context())
	if err != nil {
		fail(c, h.Log, err)
		return
	}
	Ok(c, fields, nil)
}

func (h *FieldHandler) get(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	field, err := h.Fields.Get(c.Request.Context(), id)
	if err != nil {
		fail(c, h.Log, err)
		return
	}
	if field == nil {
		Error(c, http.StatusNotFound, "custom field not found", nil)
		return
	}
	Ok(c, field, nil)
}

func (h *FieldHandler) create(c *gin.Context) {
	var req journal.FieldInput
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid body", nil)
		return
	}
	field, err := h.Fields.Create(c.Request.Context(), req)
	if err != nil {
		fail(c, h.Log, err)
		return
	}
	Ok(c, field, nil)
}

func (h *FieldHandler) update(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var req journal.FieldPatch
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid body", nil)
		return
	}
	field, err := h.Fields.Update(c.Request.Context(), id, req)
	if err != nil {
		fail(c, h.Log, err)
		return
	}
	Ok(c, field, nil)
}

func (h *FieldHandler) delete(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	if err := h.Fields.Delete(c.Request.Context(), id); err != nil {
		fail(c, h.Log, err)
		return
	}
	Ok(c, map[string]any{"id": id}, nil)
}
