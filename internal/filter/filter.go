// Package filter turns externally supplied trade filters into a normalized
// value and compiles that value into a parameterized SQL predicate shared by
// the trade listing and the analytics queries.
package filter

import (
	"encoding/json"
	"fmt"
	"strconv"

	"trade-journal-go/internal/models"
)

const (
	DefaultPage     = 1
	DefaultPageSize = 20
	MaxPageSize     = 500
)

// Filter is the set of constraints applied to the trade set. Nil or empty
// lists mean "no constraint".
type Filter struct {
	Page     int `json:"page,omitempty"`
	PageSize int `json:"pageSize,omitempty"`

	DateFrom string `json:"dateFrom,omitempty"`
	DateTo   string `json:"dateTo,omitempty"`

	Symbols      []string             `json:"symbols,omitempty"`
	TagIDs       []uint               `json:"tagIds,omitempty"`
	AccountTypes []models.AccountType `json:"accountTypes,omitempty"`
	Results      []models.Result      `json:"results,omitempty"`
	Compliant    *bool                `json:"compliant,omitempty"`

	MinPnL *float64 `json:"minPnl,omitempty"`
	MaxPnL *float64 `json:"maxPnl,omitempty"`

	CustomFields []CustomFieldFilter `json:"customFields,omitempty"`
}

// Offset is the number of rows skipped before the current page.
func (f Filter) Offset() int {
	if f.Page < 1 {
		return 0
	}
	return (f.Page - 1) * f.PageSize
}

// FieldIDs returns the custom field ids referenced by the filter.
func (f Filter) FieldIDs() []uint {
	if len(f.CustomFields) == 0 {
		return nil
	}
	ids := make([]uint, 0, len(f.CustomFields))
	for _, cf := range f.CustomFields {
		ids = append(ids, cf.FieldID)
	}
	return ids
}

// CustomFieldFilter constrains one custom field. Which members are read
// depends on Type:
//
//	text, singleSelect  Text
//	number              Min, Max
//	boolean             Bool
//	multiSelect         Values
//	date, datetime      From, To
type CustomFieldFilter struct {
	FieldID uint
	Type    models.FieldType

	Text   *string
	Bool   *bool
	Min    *float64
	Max    *float64
	From   *string
	To     *string
	Values []string
}

type customFieldFilterJSON struct {
	FieldID json.Number      `json:"fieldId"`
	Type    models.FieldType `json:"type"`
	Value   json.RawMessage  `json:"value,omitempty"`
	Values  []string         `json:"values,omitempty"`
	Min     *float64         `json:"min,omitempty"`
	Max     *float64         `json:"max,omitempty"`
	From    *string          `json:"from,omitempty"`
	To      *string          `json:"to,omitempty"`
}

// UnmarshalJSON decodes the wire shape, where "value" is a string or a
// boolean depending on the type.
func (c *CustomFieldFilter) UnmarshalJSON(data []byte) error {
	var raw customFieldFilterJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	id, err := strconv.ParseUint(raw.FieldID.String(), 10, 64)
	if err != nil {
		return fmt.Errorf("invalid fieldId %q", raw.FieldID.String())
	}

	out := CustomFieldFilter{
		FieldID: uint(id),
		Type:    raw.Type,
		Min:     raw.Min,
		Max:     raw.Max,
		From:    raw.From,
		To:      raw.To,
		Values:  raw.Values,
	}
	if len(raw.Value) > 0 && string(raw.Value) != "null" {
		switch raw.Type {
		case models.FieldBoolean:
			b, err := decodeBool(raw.Value)
			if err != nil {
				return fmt.Errorf("field %d: %w", id, err)
			}
			out.Bool = &b
		default:
			var s string
			if err := json.Unmarshal(raw.Value, &s); err != nil {
				return fmt.Errorf("field %d: value must be a string", id)
			}
			out.Text = &s
		}
	}
	*c = out
	return nil
}

// MarshalJSON encodes the wire shape accepted by UnmarshalJSON.
func (c CustomFieldFilter) MarshalJSON() ([]byte, error) {
	raw := customFieldFilterJSON{
		FieldID: json.Number(strconv.FormatUint(uint64(c.FieldID), 10)),
		Type:    c.Type,
		Values:  c.Values,
		Min:     c.Min,
		Max:     c.Max,
		From:    c.From,
		To:      c.To,
	}
	var err error
	switch {
	case c.Bool != nil:
		raw.Value, err = json.Marshal(*c.Bool)
	case c.Text != nil:
		raw.Value, err = json.Marshal(*c.Text)
	}
	if err != nil {
		return nil, err
	}
	return json.Marshal(raw)
}

func decodeBool(raw json.RawMessage) (bool, error) {
	var b bool
	if err := json.Unmarshal(raw, &b); err == nil {
		return b, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		switch s {
		case "true":
			return true, nil
		case "false":
			return false, nil
		}
	}
	return false, fmt.Errorf("value must be a boolean")
}
