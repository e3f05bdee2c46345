package filter

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trade-journal-go/internal/models"
)

func TestParseQuery(t *testing.T) {
	testCases := []struct {
		name     string
		query    string
		expected Filter
	}{
		{
			name:     "empty query gets defaults",
			query:    "",
			expected: Filter{Page: 1, PageSize: 20},
		},
		{
			name:     "non-finite and fractional page values",
			query:    "page=2.9&pageSize=Infinity",
			expected: Filter{Page: 2, PageSize: 20},
		},
		{
			name:     "garbage page values drop to defaults",
			query:    "page=abc&pageSize=-3",
			expected: Filter{Page: 1, PageSize: 20},
		},
		{
			name:  "repeated and comma-joined lists",
			query: "symbols=ES,NQ&symbols=CL&tagIds=1,2&tagIds=3&accountTypes=live&results=takeProfit,stopLoss",
			expected: Filter{
				Page: 1, PageSize: 20,
				Symbols:      []string{"ES", "NQ", "CL"},
				TagIDs:       []uint{1, 2, 3},
				AccountTypes: []models.AccountType{models.AccountLive},
				Results:      []models.Result{models.ResultTakeProfit, models.ResultStopLoss},
			},
		},
		{
			name:  "empty list value is no constraint",
			query: "tagIds=&symbols=,",
			expected: Filter{
				Page: 1, PageSize: 20,
			},
		},
		{
			name:  "scalars",
			query: "dateFrom=2024-01-01T00:00:00Z&dateTo=2024-02-01T00:00:00Z&compliant=false&minPnl=-20.5&maxPnl=100",
			expected: Filter{
				Page: 1, PageSize: 20,
				DateFrom:  "2024-01-01T00:00:00Z",
				DateTo:    "2024-02-01T00:00:00Z",
				Compliant: ptr(false),
				MinPnL:    ptr(-20.5),
				MaxPnL:    ptr(100.0),
			},
		},
		{
			name:  "offset datetime bounds are converted to UTC",
			query: "dateFrom=" + url.QueryEscape("2024-01-15T09:30:00-05:00") + "&dateTo=" + url.QueryEscape("2024-01-16T01:00:00+02:00"),
			expected: Filter{
				Page: 1, PageSize: 20,
				DateFrom: "2024-01-15T14:30:00Z",
				DateTo:   "2024-01-15T23:00:00Z",
			},
		},
		{
			name:  "date-only bounds are kept",
			query: "dateFrom=2024-01-15&dateTo=2024-02",
			expected: Filter{
				Page: 1, PageSize: 20,
				DateFrom: "2024-01-15",
				DateTo:   "2024-02",
			},
		},
		{
			name:  "custom datetime bounds are converted to UTC",
			query: "customFields=" + url.QueryEscape(`[{"fieldId":8,"type":"datetime","from":"2024-03-01T08:00:00+01:00","to":"2024-03-02"}]`),
			expected: Filter{
				Page: 1, PageSize: 20,
				CustomFields: []CustomFieldFilter{
					{FieldID: 8, Type: models.FieldDatetime, From: ptr("2024-03-01T07:00:00Z"), To: ptr("2024-03-02")},
				},
			},
		},
		{
			name: "custom fields json",
			query: "customFields=" + url.QueryEscape(`[{"fieldId":4,"type":"multiSelect","values":["M5","M15"]},`+
				`{"fieldId":"2","type":"text","value":"breakout"},{"fieldId":5,"type":"boolean","value":true},`+
				`{"fieldId":6,"type":"number","min":1}]`),
			expected: Filter{
				Page: 1, PageSize: 20,
				CustomFields: []CustomFieldFilter{
					{FieldID: 4, Type: models.FieldMultiSelect, Values: []string{"M5", "M15"}},
					{FieldID: 2, Type: models.FieldText, Text: ptr("breakout")},
					{FieldID: 5, Type: models.FieldBoolean, Bool: ptr(true)},
					{FieldID: 6, Type: models.FieldNumber, Min: ptr(1.0)},
				},
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			values, err := url.ParseQuery(tc.query)
			require.NoError(t, err)

			f, err := ParseQuery(values)

			require.NoError(t, err)
			assert.Equal(t, tc.expected, f)
		})
	}
}

func TestParseQuery_Invalid(t *testing.T) {
	testCases := []struct {
		name  string
		query string
	}{
		{name: "tag id not a number", query: "tagIds=1,x"},
		{name: "compliant not a literal", query: "compliant=yes"},
		{name: "min pnl not a number", query: "minPnl=lots"},
		{name: "custom fields not json", query: "customFields=%5Bnope"},
		{name: "custom field boolean with text", query: "customFields=" + url.QueryEscape(`[{"fieldId":1,"type":"boolean","value":"maybe"}]`)},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			values, err := url.ParseQuery(tc.query)
			require.NoError(t, err)

			_, err = ParseQuery(values)

			assert.ErrorIs(t, err, ErrInvalidQuery)
		})
	}
}

func TestFilterValues_RoundTrip(t *testing.T) {
	in := Normalize(Filter{
		Page:         3,
		PageSize:     50,
		DateFrom:     "2024-01-01T00:00:00Z",
		Symbols:      []string{"ES", "NQ"},
		TagIDs:       []uint{7},
		Results:      []models.Result{models.ResultBreakeven},
		Compliant:    ptr(true),
		MaxPnL:       ptr(12.5),
		CustomFields: []CustomFieldFilter{{FieldID: 9, Type: models.FieldDate, From: ptr("2024-03-01")}},
	})

	out, err := ParseQuery(in.Values())

	require.NoError(t, err)
	assert.Equal(t, in, out)
}
