package journal

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"trade-journal-go/internal/models"
)

// TagInput is the editable part of a tag.
type TagInput struct {
	Name  string  `json:"name"`
	Color *string `json:"color"`
}

// TagRepository manages tag definitions.
type TagRepository struct {
	db  *gorm.DB
	log *zap.Logger
}

// NewTagRepository creates a TagRepository.
func NewTagRepository(db *gorm.DB, log *zap.Logger) *TagRepository {
	return &TagRepository{db: db, log: log.Named("tags")}
}

// List returns every tag ordered by name.
func (r *TagRepository) List(ctx context.Context) ([]models.Tag, error) {
	tags := []models.Tag{}
	if err := r.db.WithContext(ctx).Order("name ASC, id ASC").Find(&tags).Error; err != nil {
		return nil, fmt.Errorf("failed to list tags: %w", err)
	}
	return tags, nil
}

// Create stores a new tag. Names are unique.
func (r *TagRepository) Create(ctx context.Context, in TagInput) (*models.Tag, error) {
	tag := models.Tag{Name: strings.TrimSpace(in.Name), Color: in.Color}
	if tag.Name == "" {
		return nil, validationf("tag name is required")
	}
	if err := r.db.WithContext(ctx).Create(&tag).Error; err != nil {
		return nil, translate(err)
	}
	r.log.Debug("Tag created", zap.Uint("id", tag.ID), zap.String("name", tag.Name))
	return &tag, nil
}

// Update replaces name and color of a tag.
func (r *TagRepository) Update(ctx context.Context, id uint, in TagInput) (*models.Tag, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, validationf("tag name is required")
	}
	res := r.db.WithContext(ctx).Model(&models.Tag{}).Where("id = ?", id).
		Updates(map[string]any{"name": name, "color": in.Color})
	if res.Error != nil {
		return nil, translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, fmt.Errorf("%w: tag %d", ErrNotFound, id)
	}

	var tag models.Tag
	if err := r.db.WithContext(ctx).First(&tag, id).Error; err != nil {
		return nil, translate(err)
	}
	return &tag, nil
}

// Delete removes a tag and its links to trades.
func (r *TagRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Tag{})
	if res.Error != nil {
		return fmt.Errorf("failed to delete tag %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: tag %d", ErrNotFound, id)
	}
	return nil
}
