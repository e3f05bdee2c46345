package journal

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trade-journal-go/internal/models"
)

func TestDecodeValue(t *testing.T) {
	field := func(typ models.FieldType) models.CustomField {
		return models.CustomField{ID: 1, Key: "k", Type: typ}
	}

	testCases := []struct {
		name     string
		field    models.CustomField
		raw      any
		expected Value
		wantErr  bool
	}{
		{name: "nil is no value", field: field(models.FieldText), raw: nil, expected: nil},
		{name: "text", field: field(models.FieldText), raw: "breakout", expected: TextValue("breakout")},
		{name: "number from json", field: field(models.FieldNumber), raw: 2.5, expected: NumberValue(2.5)},
		{name: "number from json.Number", field: field(models.FieldNumber), raw: json.Number("3"), expected: NumberValue(3)},
		{name: "number rejects text", field: field(models.FieldNumber), raw: "3", wantErr: true},
		{name: "boolean", field: field(models.FieldBoolean), raw: true, expected: BoolValue(true)},
		{name: "single select trimmed", field: field(models.FieldSingleSelect), raw: " A ", expected: SelectValue("A")},
		{name: "multi select from json", field: field(models.FieldMultiSelect), raw: []any{"M5", "M15", "M5", ""}, expected: MultiSelectValue{"M5", "M15"}},
		{name: "multi select rejects numbers", field: field(models.FieldMultiSelect), raw: []any{"M5", 1.0}, wantErr: true},
		{name: "empty multi select is no value", field: field(models.FieldMultiSelect), raw: []string{}, expected: nil},
		{name: "date", field: field(models.FieldDate), raw: "2024-03-01", expected: DateValue("2024-03-01")},
		{name: "bad date", field: field(models.FieldDate), raw: "03/01/2024", wantErr: true},
		{name: "datetime converted to utc", field: field(models.FieldDatetime), raw: "2024-03-01T10:00:00+02:00", expected: DatetimeValue("2024-03-01T08:00:00Z")},
		{name: "typed value of matching type", field: field(models.FieldText), raw: TextValue("x"), expected: TextValue("x")},
		{name: "typed value of other type", field: field(models.FieldText), raw: NumberValue(1), wantErr: true},
		{name: "unknown field type", field: field("rating"), raw: "5", wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			v, err := decodeValue(tc.field, tc.raw)

			if tc.wantErr {
				assert.ErrorIs(t, err, ErrValidation)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, v)
		})
	}
}

func TestToRows(t *testing.T) {
	rows := toRows(7, 3, MultiSelectValue{"M5", "M15"})
	require.Len(t, rows, 2)
	for i, option := range []string{"M5", "M15"} {
		assert.Equal(t, uint(7), rows[i].TradeID)
		assert.Equal(t, uint(3), rows[i].FieldID)
		require.NotNil(t, rows[i].ValueText)
		assert.Equal(t, option, *rows[i].ValueText)
	}

	rows = toRows(7, 4, NumberValue(1.5))
	require.Len(t, rows, 1)
	assert.Nil(t, rows[0].ValueText)
	require.NotNil(t, rows[0].ValueNumber)
	assert.Equal(t, 1.5, *rows[0].ValueNumber)
}

func TestRowRoundTrip(t *testing.T) {
	values := []Value{
		TextValue("a"),
		NumberValue(-2),
		BoolValue(false),
		SelectValue("A"),
		DateValue("2024-01-02"),
		DatetimeValue("2024-01-02T03:04:05Z"),
	}

	for _, v := range values {
		t.Run(string(v.Type()), func(t *testing.T) {
			rows := toRows(1, 1, v)
			require.Len(t, rows, 1)

			got, ok := fromRow(v.Type(), rows[0])

			require.True(t, ok)
			assert.Equal(t, v, got)
		})
	}
}

func TestFromRow_WrongColumnIsEmpty(t *testing.T) {
	text := "x"
	_, ok := fromRow(models.FieldNumber, models.CustomFieldValue{ValueText: &text})
	assert.False(t, ok)
}
