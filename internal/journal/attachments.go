package journal

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"trade-journal-go/internal/models"
)

// AttachmentRepository records metadata of uploaded files. New attachments
// are unlinked until a trade write claims them.
type AttachmentRepository struct {
	db *gorm.DB
}

// NewAttachmentRepository creates an AttachmentRepository.
func NewAttachmentRepository(db *gorm.DB) *AttachmentRepository {
	return &AttachmentRepository{db: db}
}

// Create registers a stored file.
func (r *AttachmentRepository) Create(ctx context.Context, path, mimeType string, size int64) (*models.Attachment, error) {
	a := models.Attachment{Path: strings.TrimSpace(path), MimeType: mimeType, Size: size}
	if a.Path == "" {
		return nil, validationf("attachment path is required")
	}
	if a.MimeType == "" {
		a.MimeType = "application/octet-stream"
	}
	if err := r.db.WithContext(ctx).Create(&a).Error; err != nil {
		return nil, translate(err)
	}
	return &a, nil
}

// Get returns the attachment with the given id, or nil when there is none.
func (r *AttachmentRepository) Get(ctx context.Context, id uint) (*models.Attachment, error) {
	var rows []models.Attachment
	if err := r.db.WithContext(ctx).Where("id = ?", id).Limit(1).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to get attachment %d: %w", id, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}
