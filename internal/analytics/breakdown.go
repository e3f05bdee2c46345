package analytics

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"trade-journal-go/internal/filter"
	"trade-journal-go/internal/journal"
	"trade-journal-go/internal/models"
)

// Dimensions a trade set can be broken down by.
const (
	DimensionTag         = "tag"
	DimensionSymbol      = "symbol"
	DimensionAccountType = "accountType"
	DimensionResult      = "result"
	DimensionCompliance  = "compliance"
	DimensionMonth       = "month"
	DimensionWeekday     = "weekday"

	customFieldPrefix = "customField:"
)

// CustomFieldDimension names the breakdown by the values of one custom field.
func CustomFieldDimension(fieldID uint) string {
	return customFieldPrefix + strconv.FormatUint(uint64(fieldID), 10)
}

// Breakdown holds the metrics of one group.
type Breakdown struct {
	Key          string   `json:"key"`
	Label        string   `json:"label"`
	Trades       int64    `json:"trades"`
	Wins         int64    `json:"wins"`
	Losses       int64    `json:"losses"`
	Breakeven    int64    `json:"breakeven"`
	WinRate      float64  `json:"winRate"`
	AvgPnl       *float64 `json:"avgPnl"`
	ProfitFactor *float64 `json:"profitFactor"`
	Expectancy   *float64 `json:"expectancy"`
}

// grouping is the SQL that turns trades into groups: key and label
// expressions plus joins with their own arguments.
type grouping struct {
	key   string
	label string
	joins string
	args  []any
}

var weekdays = []string{"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"}

// GroupBy breaks the trades matching f down by dimension, largest groups
// first. A trade with several tags or options counts in each of their
// groups. An unknown dimension yields no groups.
func (e *Engine) GroupBy(ctx context.Context, f filter.Filter, dimension string) ([]Breakdown, error) {
	g, ok, err := e.grouping(ctx, dimension)
	if err != nil {
		return nil, err
	}
	if !ok {
		e.log.Debug("Unknown breakdown dimension", zap.String("dimension", dimension))
		return []Breakdown{}, nil
	}

	f = filter.Normalize(f)
	if err := journal.EnsureFields(ctx, e.db, f.FieldIDs()); err != nil {
		return nil, err
	}
	pred := filter.Compile(f)

	query := "SELECT COALESCE(" + g.key + ", '') AS group_key, COALESCE(" + g.label + ", '') AS group_label," +
		outcomeColumns + `
FROM trades AS t` + g.joins + `
WHERE ` + pred.Where() + `
GROUP BY group_key, group_label
ORDER BY trades DESC, group_key ASC`

	args := append(append([]any{}, g.args...), pred.Args...)
	var rows []aggregateRow
	if err := e.db.WithContext(ctx).Raw(query, args...).Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to group trades by %s: %w", dimension, err)
	}

	out := make([]Breakdown, len(rows))
	for i, row := range rows {
		out[i] = deriveBreakdown(row)
	}
	return out, nil
}

func (e *Engine) grouping(ctx context.Context, dimension string) (grouping, bool, error) {
	switch dimension {
	case DimensionTag:
		return grouping{
			key:   "CAST(g.id AS TEXT)",
			label: "g.name",
			joins: "\nJOIN trade_tags AS tt ON tt.trade_id = t.id\nJOIN tags AS g ON g.id = tt.tag_id",
		}, true, nil
	case DimensionSymbol:
		return grouping{key: "t.symbol", label: "t.symbol"}, true, nil
	case DimensionAccountType:
		return grouping{key: "t.account_type", label: "t.account_type"}, true, nil
	case DimensionResult:
		return grouping{key: "t.result", label: "t.result"}, true, nil
	case DimensionCompliance:
		return grouping{
			key:   "CASE WHEN t.is_compliant = 1 THEN 'true' ELSE 'false' END",
			label: "CASE WHEN t.is_compliant = 1 THEN 'Compliant' ELSE 'Not compliant' END",
		}, true, nil
	case DimensionMonth:
		return grouping{key: "substr(t.datetime, 1, 7)", label: "substr(t.datetime, 1, 7)"}, true, nil
	case DimensionWeekday:
		var label strings.Builder
		label.WriteString("CASE strftime('%w', t.datetime)")
		for i, day := range weekdays {
			fmt.Fprintf(&label, " WHEN '%d' THEN '%s'", i, day)
		}
		label.WriteString(" END")
		return grouping{key: "strftime('%w', t.datetime)", label: label.String()}, true, nil
	}

	raw, ok := strings.CutPrefix(dimension, customFieldPrefix)
	if !ok {
		return grouping{}, false, nil
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return grouping{}, false, nil
	}
	return e.customFieldGrouping(ctx, uint(id))
}

func (e *Engine) customFieldGrouping(ctx context.Context, id uint) (grouping, bool, error) {
	var fields []models.CustomField
	if err := e.db.WithContext(ctx).Where("id = ?", id).Limit(1).Find(&fields).Error; err != nil {
		return grouping{}, false, fmt.Errorf("failed to look up custom field %d: %w", id, err)
	}
	if len(fields) == 0 {
		return grouping{}, false, fmt.Errorf("%w: custom field %d", journal.ErrNotFound, id)
	}

	g := grouping{
		joins: "\nJOIN custom_field_values AS cfv ON cfv.trade_id = t.id AND cfv.field_id = ?",
		args:  []any{id},
	}
	switch fields[0].Type {
	case models.FieldNumber:
		g.key = "CAST(cfv.value_number AS TEXT)"
		g.joins += " AND cfv.value_number IS NOT NULL"
	case models.FieldBoolean:
		g.key = "CASE WHEN cfv.value_bool = 1 THEN 'true' ELSE 'false' END"
		g.joins += " AND cfv.value_bool IS NOT NULL"
	case models.FieldDate:
		g.key = "cfv.value_date"
		g.joins += " AND cfv.value_date IS NOT NULL"
	case models.FieldDatetime:
		g.key = "cfv.value_datetime"
		g.joins += " AND cfv.value_datetime IS NOT NULL"
	case models.FieldSingleSelect, models.FieldMultiSelect:
		g.key = "cfv.value_text"
		g.label = "COALESCE(o.label, cfv.value_text)"
		g.joins += " AND cfv.value_text IS NOT NULL" +
			"\nLEFT JOIN custom_field_options AS o ON o.field_id = cfv.field_id AND o.value = cfv.value_text"
	default:
		g.key = "cfv.value_text"
		g.joins += " AND cfv.value_text IS NOT NULL"
	}
	if g.label == "" {
		g.label = g.key
	}
	return g, true, nil
}

func deriveBreakdown(row aggregateRow) Breakdown {
	b := Breakdown{
		Key:          row.GroupKey,
		Label:        row.GroupLabel,
		Trades:       row.Trades,
		Wins:         row.Wins,
		Losses:       row.Losses,
		Breakeven:    row.Breakeven,
		WinRate:      rate(row.Wins, row.Trades),
		AvgPnl:       row.AvgPnl,
		ProfitFactor: ratio(row.SumWins, row.SumLosses),
		Expectancy:   row.AvgPnl,
	}
	return b
}
