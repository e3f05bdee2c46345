package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"trade-journal-go/internal/journal"
	"trade-journal-go/internal/storage"
)

// AttachmentHandler stores uploaded files and serves their metadata.
type AttachmentHandler struct {
	Attachments *journal.AttachmentRepository
	Files       *storage.FileStore
	MaxBytes    int64
	Log         *zap.Logger
}

// Register mounts the attachment routes.
func (h *AttachmentHandler) Register(r *gin.Engine) {
	r.POST("/api/attachments", h.upload)
	r.GET("/api/attachments/:id", h.get)
}

// upload stores the multipart "file" part and registers it as an unlinked
// attachment. Trades claim it through their attachmentIds.
func (h *AttachmentHandler) upload(c *gin.Context) {
	if h.MaxBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.MaxBytes)
	}
	header, err := c.FormFile("file")
	if err != nil {
		Error(c, http.StatusBadRequest, "file part required", nil)
		return
	}
	src, err := header.Open()
	if err != nil {
		Error(c, http.StatusBadRequest, "unreadable file", nil)
		return
	}
	defer src.Close()

	path, size, err := h.Files.Save(header.Filename, src)
	if err != nil {
		fail(c, h.Log, err)
		return
	}
	mimeType := header.Header.Get("Content-Type")
	attachment, err := h.Attachments.Create(c.Request.Context(), path, mimeType, size)
	if err != nil {
		if rmErr := h.Files.Delete(path); rmErr != nil {
			h.Log.Warn("Failed to remove orphaned upload", zap.String("path", path), zap.Error(rmErr))
		}
		fail(c, h.Log, err)
		return
	}
	h.Log.Info("Attachment stored", zap.Uint("id", attachment.ID), zap.Int64("size", size))
	Ok(c, attachment, nil)
}

func (h *AttachmentHandler) get(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	attachment, err := h.Attachments.Get(c.Request.Context(), id)
	if err != nil {
		fail(c, h.Log, err)
		return
	}
	if attachment == nil {
		Error(c, http.StatusNotFound, "attachment not found", nil)
		return
	}
	Ok(c, attachment, nil)
}
