package journal

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"trade-journal-go/internal/database"
	"trade-journal-go/internal/models"
)

// Field is a custom field definition with its options.
type Field struct {
	ID       uint             `json:"id"`
	Key      string           `json:"key"`
	Label    string           `json:"label"`
	Type     models.FieldType `json:"type"`
	Required bool             `json:"required"`
	Options  []Option         `json:"options"`
}

// Option is one choice of a select field.
type Option struct {
	Value     string `json:"value"`
	Label     string `json:"label"`
	SortOrder int    `json:"sortOrder"`
}

// FieldInput defines a new custom field.
type FieldInput struct {
	Key      string           `json:"key"`
	Label    string           `json:"label"`
	Type     models.FieldType `json:"type"`
	Required bool             `json:"required"`
	Options  []Option         `json:"options"`
}

// FieldPatch changes a field definition. Key and type are fixed once
// values exist, so they cannot be patched.
type FieldPatch struct {
	Label    *string   `json:"label"`
	Required *bool     `json:"required"`
	Options  *[]Option `json:"options"`
}

// EnsureFields returns ErrNotFound unless every id names a custom field.
func EnsureFields(ctx context.Context, db *gorm.DB, ids []uint) error {
	ids = uniqueIDs(ids)
	if len(ids) == 0 {
		return nil
	}
	var found []uint
	if err := db.WithContext(ctx).Model(&models.CustomField{}).Where("id IN ?", ids).Pluck("id", &found).Error; err != nil {
		return fmt.Errorf("failed to look up custom fields: %w", err)
	}
	if len(found) == len(ids) {
		return nil
	}
	known := make(map[uint]struct{}, len(found))
	for _, id := range found {
		known[id] = struct{}{}
	}
	for _, id := range ids {
		if _, ok := known[id]; !ok {
			return fmt.Errorf("%w: custom field %d", ErrNotFound, id)
		}
	}
	return nil
}

// CustomFieldRepository manages custom field definitions.
type CustomFieldRepository struct {
	db  *gorm.DB
	log *zap.Logger
}

// NewCustomFieldRepository creates a CustomFieldRepository.
func NewCustomFieldRepository(db *gorm.DB, log *zap.Logger) *CustomFieldRepository {
	return &CustomFieldRepository{db: db, log: log.Named("custom-fields")}
}

// List returns every field ordered by id, options ordered by sort order.
func (r *CustomFieldRepository) List(ctx context.Context) ([]Field, error) {
	var rows []models.CustomField
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list custom fields: %w", err)
	}
	return r.withOptions(ctx, rows)
}

// Get returns the field with the given id, or nil when there is none.
func (r *CustomFieldRepository) Get(ctx context.Context, id uint) (*Field, error) {
	var rows []models.CustomField
	if err := r.db.WithContext(ctx).Where("id = ?", id).Limit(1).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to get custom field %d: %w", id, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	fields, err := r.withOptions(ctx, rows)
	if err != nil {
		return nil, err
	}
	return &fields[0], nil
}

// Create stores a new field definition with its options.
func (r *CustomFieldRepository) Create(ctx context.Context, in FieldInput) (*Field, error) {
	row := models.CustomField{
		Key:      strings.TrimSpace(in.Key),
		Label:    strings.TrimSpace(in.Label),
		Type:     in.Type,
		Required: in.Required,
	}
	if row.Key == "" {
		return nil, validationf("key is required")
	}
	if row.Label == "" {
		row.Label = row.Key
	}
	if !row.Type.Valid() {
		return nil, validationf("unknown field type %q", row.Type)
	}
	if len(in.Options) > 0 && !row.Type.HasOptions() {
		return nil, validationf("%s fields take no options", row.Type)
	}

	err := database.Run(ctx, r.db, func(tx *gorm.DB) error {
		if err := tx.Create(&row).Error; err != nil {
			return translate(err)
		}
		return setOptions(tx, row.ID, in.Options)
	})
	if err != nil {
		return nil, err
	}
	r.log.Info("Custom field created", zap.Uint("id", row.ID), zap.String("key", row.Key))
	return r.Get(ctx, row.ID)
}

// Update applies p to the field with the given id.
func (r *CustomFieldRepository) Update(ctx context.Context, id uint, p FieldPatch) (*Field, error) {
	err := database.Run(ctx, r.db, func(tx *gorm.DB) error {
		var rows []models.CustomField
		if err := tx.Where("id = ?", id).Limit(1).Find(&rows).Error; err != nil {
			return err
		}
		if len(rows) == 0 {
			return fmt.Errorf("%w: custom field %d", ErrNotFound, id)
		}
		row := rows[0]
		if p.Label != nil {
			if row.Label = strings.TrimSpace(*p.Label); row.Label == "" {
				return validationf("label must not be empty")
			}
		}
		if p.Required != nil {
			row.Required = *p.Required
		}
		if err := tx.Save(&row).Error; err != nil {
			return translate(err)
		}
		if p.Options == nil {
			return nil
		}
		if len(*p.Options) > 0 && !row.Type.HasOptions() {
			return validationf("%s fields take no options", row.Type)
		}
		if err := tx.Where("field_id = ?", id).Delete(&models.CustomFieldOption{}).Error; err != nil {
			return err
		}
		return setOptions(tx, id, *p.Options)
	})
	if err != nil {
		return nil, err
	}
	return r.Get(ctx, id)
}

// Delete removes a field definition. Its options and every stored value
// cascade.
func (r *CustomFieldRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.CustomField{})
	if res.Error != nil {
		return fmt.Errorf("failed to delete custom field %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: custom field %d", ErrNotFound, id)
	}
	r.log.Info("Custom field deleted", zap.Uint("id", id))
	return nil
}

func (r *CustomFieldRepository) withOptions(ctx context.Context, rows []models.CustomField) ([]Field, error) {
	out := make([]Field, len(rows))
	index := make(map[uint]int, len(rows))
	ids := make([]uint, len(rows))
	for i, row := range rows {
		out[i] = Field{
			ID:       row.ID,
			Key:      row.Key,
			Label:    row.Label,
			Type:     row.Type,
			Required: row.Required,
			Options:  []Option{},
		}
		index[row.ID] = i
		ids[i] = row.ID
	}
	if len(ids) == 0 {
		return out, nil
	}

	var options []models.CustomFieldOption
	if err := r.db.WithContext(ctx).
		Where("field_id IN ?", ids).
		Order("sort_order ASC, id ASC").
		Find(&options).Error; err != nil {
		return nil, fmt.Errorf("failed to load field options: %w", err)
	}
	for _, o := range options {
		i := index[o.FieldID]
		out[i].Options = append(out[i].Options, Option{Value: o.Value, Label: o.Label, SortOrder: o.SortOrder})
	}
	return out, nil
}

func setOptions(tx *gorm.DB, fieldID uint, options []Option) error {
	if len(options) == 0 {
		return nil
	}
	rows := make([]models.CustomFieldOption, 0, len(options))
	seen := make(map[string]struct{}, len(options))
	for _, o := range options {
		value := strings.TrimSpace(o.Value)
		if value == "" {
			return validationf("option value must not be empty")
		}
		if _, dup := seen[value]; dup {
			return validationf("duplicate option %q", value)
		}
		seen[value] = struct{}{}
		label := strings.TrimSpace(o.Label)
		if label == "" {
			label = value
		}
		rows = append(rows, models.CustomFieldOption{FieldID: fieldID, Value: value, Label: label, SortOrder: o.SortOrder})
	}
	return translate(tx.Create(&rows).Error)
}
