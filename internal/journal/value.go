package journal

import "trade-journal-go/internal/models"

// Value is a typed custom field value. The concrete type matches the
// field's declared type.
type Value interface {
	Type() models.FieldType
}

type (
	TextValue        string
	NumberValue      float64
	BoolValue        bool
	SelectValue      string
	MultiSelectValue []string
	DateValue        string // YYYY-MM-DD
	DatetimeValue    string // RFC3339, UTC
)

func (TextValue) Type() models.FieldType        { return models.FieldText }
func (NumberValue) Type() models.FieldType      { return models.FieldNumber }
func (BoolValue) Type() models.FieldType        { return models.FieldBoolean }
func (SelectValue) Type() models.FieldType      { return models.FieldSingleSelect }
func (MultiSelectValue) Type() models.FieldType { return models.FieldMultiSelect }
func (DateValue) Type() models.FieldType        { return models.FieldDate }
func (DatetimeValue) Type() models.FieldType    { return models.FieldDatetime }

// CustomValue is one field's value on an assembled trade.
type CustomValue struct {
	FieldID uint             `json:"fieldId"`
	Key     string           `json:"key"`
	Label   string           `json:"label"`
	Type    models.FieldType `json:"type"`
	Value   Value            `json:"value"`
}

// CustomValueInput sets one field on write. Value is either a Value or the
// decoded JSON of one (string, number, bool or list of strings); nil leaves
// the field without a value.
type CustomValueInput struct {
	FieldID uint `json:"fieldId"`
	Value   any  `json:"value"`
}
