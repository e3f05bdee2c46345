package filter

import (
	"strings"

	"trade-journal-go/internal/models"
)

// TradeAlias is the alias the trades table must carry in queries that use a
// compiled Predicate.
const TradeAlias = "t"

// Predicate is a conjunction of SQL conditions with one positional argument
// per "?" placeholder. An empty SQL means "no constraint".
type Predicate struct {
	SQL  string
	Args []any
}

// Where returns the predicate AND-ed onto the neutral condition 1=1, usable
// as a complete WHERE clause body.
func (p Predicate) Where() string {
	if p.SQL == "" {
		return "1=1"
	}
	return "1=1 AND " + p.SQL
}

// Empty reports whether the predicate constrains nothing.
func (p Predicate) Empty() bool {
	return p.SQL == ""
}

type builder struct {
	parts []string
	args  []any
}

func (b *builder) add(fragment string, args ...any) {
	b.parts = append(b.parts, fragment)
	b.args = append(b.args, args...)
}

func (b *builder) predicate() Predicate {
	return Predicate{SQL: strings.Join(b.parts, " AND "), Args: b.args}
}

// Compile turns a normalized filter into a Predicate over trades aliased as
// "t". Every present constraint is AND-ed with the others.
func Compile(f Filter) Predicate {
	var b builder

	if f.DateFrom != "" {
		b.add("t.datetime >= ?", f.DateFrom)
	}
	if f.DateTo != "" {
		b.add("t.datetime <= ?", f.DateTo)
	}
	if len(f.Symbols) > 0 {
		b.add("t.symbol IN ("+placeholders(len(f.Symbols))+")", toArgs(f.Symbols)...)
	}
	if len(f.TagIDs) > 0 {
		// A trade matches when it carries at least one of the tags.
		b.add("EXISTS (SELECT 1 FROM trade_tags tt WHERE tt.trade_id = t.id AND tt.tag_id IN ("+
			placeholders(len(f.TagIDs))+"))", toArgs(f.TagIDs)...)
	}
	if f.Compliant != nil {
		b.add("t.is_compliant = ?", boolArg(*f.Compliant))
	}
	if len(f.AccountTypes) > 0 {
		b.add("t.account_type IN ("+placeholders(len(f.AccountTypes))+")", toArgs(f.AccountTypes)...)
	}
	if len(f.Results) > 0 {
		b.add("t.result IN ("+placeholders(len(f.Results))+")", toArgs(f.Results)...)
	}
	if f.MinPnL != nil {
		b.add("t.pnl >= ?", *f.MinPnL)
	}
	if f.MaxPnL != nil {
		b.add("t.pnl <= ?", *f.MaxPnL)
	}
	for _, cf := range f.CustomFields {
		if fragment, args, ok := compileCustomField(cf); ok {
			b.add(fragment, args...)
		}
	}

	return b.predicate()
}

// compileCustomField builds one EXISTS over the value rows of a field. A
// trade passes when any of its rows for the field satisfies the conditions.
// Unknown field types compile to nothing.
func compileCustomField(cf CustomFieldFilter) (string, []any, bool) {
	conds := []string{"cfv.trade_id = t.id", "cfv.field_id = ?"}
	args := []any{cf.FieldID}

	switch cf.Type {
	case models.FieldText, models.FieldSingleSelect:
		if cf.Text != nil {
			conds = append(conds, "cfv.value_text = ?")
			args = append(args, *cf.Text)
		}
	case models.FieldNumber:
		if cf.Min != nil {
			conds = append(conds, "cfv.value_number >= ?")
			args = append(args, *cf.Min)
		}
		if cf.Max != nil {
			conds = append(conds, "cfv.value_number <= ?")
			args = append(args, *cf.Max)
		}
	case models.FieldBoolean:
		if cf.Bool != nil {
			conds = append(conds, "cfv.value_bool = ?")
			args = append(args, boolArg(*cf.Bool))
		}
	case models.FieldMultiSelect:
		if len(cf.Values) > 0 {
			conds = append(conds, "cfv.value_text IN ("+placeholders(len(cf.Values))+")")
			args = append(args, toArgs(cf.Values)...)
		}
	case models.FieldDate, models.FieldDatetime:
		column := "cfv.value_date"
		if cf.Type == models.FieldDatetime {
			column = "cfv.value_datetime"
		}
		if cf.From != nil {
			conds = append(conds, column+" >= ?")
			args = append(args, *cf.From)
		}
		if cf.To != nil {
			conds = append(conds, column+" <= ?")
			args = append(args, *cf.To)
		}
	default:
		return "", nil, false
	}

	return "EXISTS (SELECT 1 FROM custom_field_values cfv WHERE " + strings.Join(conds, " AND ") + ")", args, true
}

func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func toArgs[T any](items []T) []any {
	out := make([]any, len(items))
	for i, v := range items {
		out[i] = v
	}
	return out
}

func boolArg(v bool) int {
	if v {
		return 1
	}
	return 0
}
