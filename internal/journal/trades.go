package journal

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"trade-journal-go/internal/database"
	"trade-journal-go/internal/filter"
	"trade-journal-go/internal/models"
)

// FileStore checks for and removes stored attachment files.
type FileStore interface {
	Exists(path string) (bool, error)
	Delete(path string) error
}

// TradeRepository reads and writes trades together with their tags,
// attachments and custom values.
type TradeRepository struct {
	db    *gorm.DB
	files FileStore
	log   *zap.Logger
}

// NewTradeRepository creates a TradeRepository.
func NewTradeRepository(db *gorm.DB, files FileStore, log *zap.Logger) *TradeRepository {
	return &TradeRepository{db: db, files: files, log: log.Named("trades")}
}

// List returns one page of trades matching f, newest first.
func (r *TradeRepository) List(ctx context.Context, f filter.Filter) (Page, error) {
	f = filter.Normalize(f)
	if err := EnsureFields(ctx, r.db, f.FieldIDs()); err != nil {
		return Page{}, err
	}
	pred := filter.Compile(f)

	var total int64
	if err := r.db.WithContext(ctx).
		Table("trades AS " + filter.TradeAlias).
		Where(pred.Where(), pred.Args...).
		Count(&total).Error; err != nil {
		return Page{}, fmt.Errorf("failed to count trades: %w", err)
	}

	var rows []models.Trade
	if err := r.db.WithContext(ctx).
		Table("trades AS " + filter.TradeAlias).
		Select("t.*").
		Where(pred.Where(), pred.Args...).
		Order("t.datetime DESC, t.id DESC").
		Limit(f.PageSize).
		Offset(f.Offset()).
		Find(&rows).Error; err != nil {
		return Page{}, fmt.Errorf("failed to list trades: %w", err)
	}

	rel, err := loadRelations(ctx, r.db, tradeIDs(rows))
	if err != nil {
		return Page{}, fmt.Errorf("failed to load trade relations: %w", err)
	}

	return Page{Items: assemble(rows, rel), Total: total, Page: f.Page, PageSize: f.PageSize}, nil
}

// GetByID returns the trade with the given id, or nil when there is none.
func (r *TradeRepository) GetByID(ctx context.Context, id uint) (*Trade, error) {
	var rows []models.Trade
	if err := r.db.WithContext(ctx).Where("id = ?", id).Limit(1).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to get trade %d: %w", id, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	rel, err := loadRelations(ctx, r.db, tradeIDs(rows))
	if err != nil {
		return nil, fmt.Errorf("failed to load trade relations: %w", err)
	}
	return &assemble(rows, rel)[0], nil
}

// Create stores a new trade and its relations in one unit of work.
func (r *TradeRepository) Create(ctx context.Context, in TradeInput) (*Trade, error) {
	row, err := in.toRow()
	if err != nil {
		return nil, err
	}

	err = database.Run(ctx, r.db, func(tx *gorm.DB) error {
		if err := tx.Create(&row).Error; err != nil {
			return translate(err)
		}
		if err := setTags(tx, row.ID, in.TagIDs); err != nil {
			return err
		}
		if err := setCustomValues(tx, row.ID, in.CustomValues); err != nil {
			return err
		}
		return setAttachments(tx, row.ID, in.AttachmentIDs)
	})
	if err != nil {
		return nil, err
	}

	r.log.Debug("Trade created", zap.Uint("id", row.ID), zap.String("symbol", row.Symbol))
	return r.mustGet(ctx, row.ID)
}

// Update merges p onto the trade with the given id.
func (r *TradeRepository) Update(ctx context.Context, id uint, p TradePatch) (*Trade, error) {
	err := database.Run(ctx, r.db, func(tx *gorm.DB) error {
		var rows []models.Trade
		if err := tx.Where("id = ?", id).Limit(1).Find(&rows).Error; err != nil {
			return err
		}
		if len(rows) == 0 {
			return fmt.Errorf("%w: trade %d", ErrNotFound, id)
		}
		row := rows[0]
		if err := p.apply(&row); err != nil {
			return err
		}
		if err := tx.Save(&row).Error; err != nil {
			return translate(err)
		}

		if p.TagIDs != nil {
			if err := setTags(tx, id, *p.TagIDs); err != nil {
				return err
			}
		}
		if p.CustomValues != nil {
			if err := setCustomValues(tx, id, *p.CustomValues); err != nil {
				return err
			}
		}
		if p.AttachmentIDs != nil {
			return setAttachments(tx, id, *p.AttachmentIDs)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return r.mustGet(ctx, id)
}

// Delete removes one trade and its attachment files.
func (r *TradeRepository) Delete(ctx context.Context, id uint) error {
	n, err := r.BulkDelete(ctx, []uint{id})
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: trade %d", ErrNotFound, id)
	}
	return nil
}

// BulkDelete removes the given trades and returns how many existed. Related
// rows cascade in the store; attachment files are removed after commit and
// a failed file removal is only logged.
func (r *TradeRepository) BulkDelete(ctx context.Context, ids []uint) (int64, error) {
	ids = uniqueIDs(ids)
	if len(ids) == 0 {
		return 0, nil
	}

	var paths []string
	var deleted int64
	err := database.Run(ctx, r.db, func(tx *gorm.DB) error {
		if err := tx.Model(&models.Attachment{}).Where("trade_id IN ?", ids).Pluck("path", &paths).Error; err != nil {
			return err
		}
		res := tx.Where("id IN ?", ids).Delete(&models.Trade{})
		if res.Error != nil {
			return res.Error
		}
		deleted = res.RowsAffected
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to delete trades: %w", err)
	}

	r.removeFiles(paths)
	r.log.Info("Trades deleted", zap.Int64("count", deleted), zap.Int("files", len(paths)))
	return deleted, nil
}

// BulkUpdateTags replaces the tags of every given trade. Each trade is
// updated in its own unit of work; the first missing trade stops the run
// and earlier trades keep their new tags.
func (r *TradeRepository) BulkUpdateTags(ctx context.Context, ids []uint, tagIDs []uint) error {
	for _, id := range uniqueIDs(ids) {
		err := database.Run(ctx, r.db, func(tx *gorm.DB) error {
			var count int64
			if err := tx.Model(&models.Trade{}).Where("id = ?", id).Count(&count).Error; err != nil {
				return err
			}
			if count == 0 {
				return fmt.Errorf("%w: trade %d", ErrNotFound, id)
			}
			return setTags(tx, id, tagIDs)
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *TradeRepository) mustGet(ctx context.Context, id uint) (*Trade, error) {
	trade, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if trade == nil {
		return nil, fmt.Errorf("%w: trade %d", ErrNotFound, id)
	}
	return trade, nil
}

func (r *TradeRepository) removeFiles(paths []string) {
	if r.files == nil {
		return
	}
	for _, path := range paths {
		exists, err := r.files.Exists(path)
		if err != nil {
			r.log.Warn("Failed to check attachment file", zap.String("path", path), zap.Error(err))
			continue
		}
		if !exists {
			r.log.Debug("Attachment file already gone", zap.String("path", path))
			continue
		}
		if err := r.files.Delete(path); err != nil {
			r.log.Warn("Failed to remove attachment file", zap.String("path", path), zap.Error(err))
		}
	}
}

// setTags replaces the tag links of a trade.
func setTags(tx *gorm.DB, tradeID uint, tagIDs []uint) error {
	if err := tx.Where("trade_id = ?", tradeID).Delete(&models.TradeTag{}).Error; err != nil {
		return err
	}
	tagIDs = uniqueIDs(tagIDs)
	if len(tagIDs) == 0 {
		return nil
	}
	links := make([]models.TradeTag, len(tagIDs))
	for i, tagID := range tagIDs {
		links[i] = models.TradeTag{TradeID: tradeID, TagID: tagID}
	}
	if err := tx.Create(&links).Error; err != nil {
		return translate(err)
	}
	return nil
}

// setCustomValues replaces every custom value of a trade. Later inputs for
// the same field win. Required fields must end up with a value.
func setCustomValues(tx *gorm.DB, tradeID uint, inputs []CustomValueInput) error {
	fieldIDs := make([]uint, 0, len(inputs))
	for _, in := range inputs {
		fieldIDs = append(fieldIDs, in.FieldID)
	}

	var fields []models.CustomField
	query := tx.Where("required = ?", true)
	if len(fieldIDs) > 0 {
		query = tx.Where("id IN ? OR required = ?", fieldIDs, true)
	}
	if err := query.Order("id ASC").Find(&fields).Error; err != nil {
		return err
	}
	byID := make(map[uint]models.CustomField, len(fields))
	for _, f := range fields {
		byID[f.ID] = f
	}

	values := make(map[uint]Value, len(inputs))
	for _, in := range inputs {
		field, ok := byID[in.FieldID]
		if !ok {
			return fmt.Errorf("%w: unknown custom field %d", ErrIntegrity, in.FieldID)
		}
		v, err := decodeValue(field, in.Value)
		if err != nil {
			return err
		}
		values[in.FieldID] = v
	}
	for _, f := range fields {
		if f.Required && values[f.ID] == nil {
			return validationf("custom field %q is required", f.Key)
		}
	}

	if err := tx.Where("trade_id = ?", tradeID).Delete(&models.CustomFieldValue{}).Error; err != nil {
		return err
	}
	var rows []models.CustomFieldValue
	for _, f := range fields {
		if v := values[f.ID]; v != nil {
			rows = append(rows, toRows(tradeID, f.ID, v)...)
		}
	}
	if len(rows) == 0 {
		return nil
	}
	if err := tx.Create(&rows).Error; err != nil {
		return translate(err)
	}
	return nil
}

// setAttachments makes ids the exact attachment set of a trade: links not
// in ids are released and every id in ids is linked.
func setAttachments(tx *gorm.DB, tradeID uint, ids []uint) error {
	ids = uniqueIDs(ids)

	release := tx.Model(&models.Attachment{}).Where("trade_id = ?", tradeID)
	if len(ids) > 0 {
		release = release.Where("id NOT IN ?", ids)
	}
	if err := release.Update("trade_id", nil).Error; err != nil {
		return err
	}
	if len(ids) == 0 {
		return nil
	}

	res := tx.Model(&models.Attachment{}).Where("id IN ?", ids).Update("trade_id", tradeID)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected != int64(len(ids)) {
		return fmt.Errorf("%w: unknown attachment in %v", ErrIntegrity, ids)
	}
	return nil
}

func uniqueIDs(ids []uint) []uint {
	if len(ids) == 0 {
		return nil
	}
	seen := make(map[uint]struct{}, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if id == 0 {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
