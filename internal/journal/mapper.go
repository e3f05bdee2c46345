package journal

import (
	"encoding/json"
	"math"
	"strings"
	"time"

	"trade-journal-go/internal/models"
)

const dateLayout = "2006-01-02"

// decodeValue converts raw input for field into a Value of the field's
// type. A nil result with a nil error means "no value".
func decodeValue(field models.CustomField, raw any) (Value, error) {
	if raw == nil {
		return nil, nil
	}
	if v, ok := raw.(Value); ok {
		if v.Type() != field.Type {
			return nil, validationf("field %q expects %s, got %s", field.Key, field.Type, v.Type())
		}
		return normalizeValue(field, v)
	}

	switch field.Type {
	case models.FieldText:
		if s, ok := raw.(string); ok {
			return TextValue(s), nil
		}
	case models.FieldNumber:
		if n, ok := toNumber(raw); ok {
			return NumberValue(n), nil
		}
	case models.FieldBoolean:
		if b, ok := raw.(bool); ok {
			return BoolValue(b), nil
		}
	case models.FieldSingleSelect:
		if s, ok := raw.(string); ok {
			return normalizeValue(field, SelectValue(s))
		}
	case models.FieldMultiSelect:
		if items, ok := toStrings(raw); ok {
			return normalizeValue(field, MultiSelectValue(items))
		}
	case models.FieldDate:
		if s, ok := raw.(string); ok {
			return normalizeValue(field, DateValue(s))
		}
	case models.FieldDatetime:
		if s, ok := raw.(string); ok {
			return normalizeValue(field, DatetimeValue(s))
		}
	default:
		return nil, validationf("field %q has unknown type %q", field.Key, field.Type)
	}
	return nil, validationf("field %q expects a %s value", field.Key, field.Type)
}

func normalizeValue(field models.CustomField, v Value) (Value, error) {
	switch val := v.(type) {
	case NumberValue:
		if math.IsNaN(float64(val)) || math.IsInf(float64(val), 0) {
			return nil, validationf("field %q must be a finite number", field.Key)
		}
	case SelectValue:
		s := strings.TrimSpace(string(val))
		if s == "" {
			return nil, nil
		}
		return SelectValue(s), nil
	case MultiSelectValue:
		seen := make(map[string]struct{}, len(val))
		out := MultiSelectValue{}
		for _, raw := range val {
			s := strings.TrimSpace(raw)
			if s == "" {
				continue
			}
			if _, dup := seen[s]; dup {
				continue
			}
			seen[s] = struct{}{}
			out = append(out, s)
		}
		if len(out) == 0 {
			return nil, nil
		}
		return out, nil
	case DateValue:
		if _, err := time.Parse(dateLayout, string(val)); err != nil {
			return nil, validationf("field %q expects a YYYY-MM-DD date", field.Key)
		}
	case DatetimeValue:
		ts, err := time.Parse(time.RFC3339, string(val))
		if err != nil {
			return nil, validationf("field %q expects an RFC3339 datetime", field.Key)
		}
		return DatetimeValue(ts.UTC().Format(time.RFC3339)), nil
	}
	return v, nil
}

// toRows lays a value out over the sparse value columns: one row for a
// scalar, one row per option for a multiSelect.
func toRows(tradeID, fieldID uint, v Value) []models.CustomFieldValue {
	row := models.CustomFieldValue{TradeID: tradeID, FieldID: fieldID}
	switch val := v.(type) {
	case TextValue:
		s := string(val)
		row.ValueText = &s
	case SelectValue:
		s := string(val)
		row.ValueText = &s
	case NumberValue:
		n := float64(val)
		row.ValueNumber = &n
	case BoolValue:
		b := bool(val)
		row.ValueBool = &b
	case DateValue:
		s := string(val)
		row.ValueDate = &s
	case DatetimeValue:
		s := string(val)
		row.ValueDatetime = &s
	case MultiSelectValue:
		rows := make([]models.CustomFieldValue, 0, len(val))
		for _, option := range val {
			s := option
			rows = append(rows, models.CustomFieldValue{TradeID: tradeID, FieldID: fieldID, ValueText: &s})
		}
		return rows
	default:
		return nil
	}
	return []models.CustomFieldValue{row}
}

// fromRow reads the column matching fieldType. A multiSelect row yields a
// single-option MultiSelectValue; callers merge rows of the same field.
func fromRow(fieldType models.FieldType, row models.CustomFieldValue) (Value, bool) {
	switch fieldType {
	case models.FieldText:
		if row.ValueText != nil {
			return TextValue(*row.ValueText), true
		}
	case models.FieldSingleSelect:
		if row.ValueText != nil {
			return SelectValue(*row.ValueText), true
		}
	case models.FieldMultiSelect:
		if row.ValueText != nil {
			return MultiSelectValue{*row.ValueText}, true
		}
	case models.FieldNumber:
		if row.ValueNumber != nil {
			return NumberValue(*row.ValueNumber), true
		}
	case models.FieldBoolean:
		if row.ValueBool != nil {
			return BoolValue(*row.ValueBool), true
		}
	case models.FieldDate:
		if row.ValueDate != nil {
			return DateValue(*row.ValueDate), true
		}
	case models.FieldDatetime:
		if row.ValueDatetime != nil {
			return DatetimeValue(*row.ValueDatetime), true
		}
	}
	return nil, false
}

func toNumber(raw any) (float64, bool) {
	switch n := raw.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

func toStrings(raw any) ([]string, bool) {
	switch items := raw.(type) {
	case []string:
		return items, true
	case []any:
		out := make([]string, 0, len(items))
		for _, item := range items {
			s, ok := item.(string)
			if !ok {
				return nil, false
			}
			out = append(out, s)
		}
		return out, true
	}
	return nil, false
}
