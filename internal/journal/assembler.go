package journal

import (
	"context"
	"time"

	"gorm.io/gorm"

	"trade-journal-go/internal/models"
)

type tagRow struct {
	TradeID   uint
	ID        uint
	Name      string
	Color     *string
	CreatedAt time.Time
}

type valueRow struct {
	TradeID       uint
	FieldID       uint
	FieldKey      string
	FieldLabel    string
	FieldType     models.FieldType
	ValueText     *string
	ValueNumber   *float64
	ValueBool     *bool
	ValueDate     *string
	ValueDatetime *string
}

// relations holds the side rows of one page of trades.
type relations struct {
	tags        []tagRow
	attachments []models.Attachment
	values      []valueRow
}

// loadRelations fetches tags, attachments and custom values of the given
// trades with one query each. An empty page costs no queries.
func loadRelations(ctx context.Context, db *gorm.DB, tradeIDs []uint) (relations, error) {
	var rel relations
	if len(tradeIDs) == 0 {
		return rel, nil
	}

	if err := db.WithContext(ctx).
		Table("trade_tags AS tt").
		Select("tt.trade_id AS trade_id, tg.id AS id, tg.name AS name, tg.color AS color, tg.created_at AS created_at").
		Joins("JOIN tags AS tg ON tg.id = tt.tag_id").
		Where("tt.trade_id IN ?", tradeIDs).
		Order("tg.name ASC, tg.id ASC").
		Find(&rel.tags).Error; err != nil {
		return relations{}, err
	}

	if err := db.WithContext(ctx).
		Where("trade_id IN ?", tradeIDs).
		Order("id ASC").
		Find(&rel.attachments).Error; err != nil {
		return relations{}, err
	}

	if err := db.WithContext(ctx).
		Table("custom_field_values AS v").
		Select(`v.trade_id AS trade_id, v.field_id AS field_id, f."key" AS field_key, f.label AS field_label, f."type" AS field_type, ` +
			"v.value_text AS value_text, v.value_number AS value_number, v.value_bool AS value_bool, " +
			"v.value_date AS value_date, v.value_datetime AS value_datetime").
		Joins("JOIN custom_fields AS f ON f.id = v.field_id").
		Where("v.trade_id IN ?", tradeIDs).
		Order("v.field_id ASC, v.id ASC").
		Find(&rel.values).Error; err != nil {
		return relations{}, err
	}

	return rel, nil
}

// assemble nests the side rows under their trades, keeping the order of
// rows and of each relation. Every side row is visited once.
func assemble(rows []models.Trade, rel relations) []Trade {
	out := make([]Trade, len(rows))
	index := make(map[uint]int, len(rows))
	for i, row := range rows {
		out[i] = Trade{
			Trade:        row,
			Tags:         []models.Tag{},
			Attachments:  []models.Attachment{},
			CustomValues: []CustomValue{},
		}
		index[row.ID] = i
	}

	for _, tr := range rel.tags {
		i, ok := index[tr.TradeID]
		if !ok {
			continue
		}
		out[i].Tags = append(out[i].Tags, models.Tag{ID: tr.ID, Name: tr.Name, Color: tr.Color, CreatedAt: tr.CreatedAt})
	}

	for _, a := range rel.attachments {
		if a.TradeID == nil {
			continue
		}
		if i, ok := index[*a.TradeID]; ok {
			out[i].Attachments = append(out[i].Attachments, a)
		}
	}

	// position of a field inside a trade's CustomValues
	type slot struct{ trade, field uint }
	positions := make(map[slot]int)
	for _, vr := range rel.values {
		i, ok := index[vr.TradeID]
		if !ok {
			continue
		}
		v, ok := fromRow(vr.FieldType, models.CustomFieldValue{
			ValueText:     vr.ValueText,
			ValueNumber:   vr.ValueNumber,
			ValueBool:     vr.ValueBool,
			ValueDate:     vr.ValueDate,
			ValueDatetime: vr.ValueDatetime,
		})
		if !ok {
			continue
		}

		key := slot{trade: vr.TradeID, field: vr.FieldID}
		pos, seen := positions[key]
		if !seen {
			positions[key] = len(out[i].CustomValues)
			out[i].CustomValues = append(out[i].CustomValues, CustomValue{
				FieldID: vr.FieldID,
				Key:     vr.FieldKey,
				Label:   vr.FieldLabel,
				Type:    vr.FieldType,
				Value:   v,
			})
			continue
		}

		existing := &out[i].CustomValues[pos]
		if multi, ok := existing.Value.(MultiSelectValue); ok && vr.FieldType == models.FieldMultiSelect {
			existing.Value = append(multi, v.(MultiSelectValue)...)
			continue
		}
		existing.Value = v
	}

	return out
}

func tradeIDs(rows []models.Trade) []uint {
	ids := make([]uint, len(rows))
	for i, row := range rows {
		ids[i] = row.ID
	}
	return ids
}
