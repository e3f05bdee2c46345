package filter

import (
	"strings"
	"time"

	"trade-journal-go/internal/models"
)

// Normalize fills in pagination defaults and prunes list fields: an empty
// list becomes nil and blank entries are dropped. It never mutates f and
// Normalize(Normalize(f)) equals Normalize(f).
func Normalize(f Filter) Filter {
	out := Filter{
		Page:      f.Page,
		PageSize:  f.PageSize,
		DateFrom:  normalizeBound(f.DateFrom),
		DateTo:    normalizeBound(f.DateTo),
		Compliant: copyBool(f.Compliant),
		MinPnL:    copyFloat(f.MinPnL),
		MaxPnL:    copyFloat(f.MaxPnL),
	}
	if out.Page < 1 {
		out.Page = DefaultPage
	}
	if out.PageSize < 1 {
		out.PageSize = DefaultPageSize
	}
	if out.PageSize > MaxPageSize {
		out.PageSize = MaxPageSize
	}

	out.Symbols = cleanStrings(f.Symbols)
	out.TagIDs = cleanIDs(f.TagIDs)
	out.AccountTypes = cleanEnums(f.AccountTypes)
	out.Results = cleanEnums(f.Results)

	if len(f.CustomFields) > 0 {
		cfs := make([]CustomFieldFilter, 0, len(f.CustomFields))
		for _, cf := range f.CustomFields {
			cfs = append(cfs, normalizeCustomField(cf))
		}
		out.CustomFields = cfs
	}
	return out
}

func normalizeCustomField(cf CustomFieldFilter) CustomFieldFilter {
	return CustomFieldFilter{
		FieldID: cf.FieldID,
		Type:    cf.Type,
		Text:    copyString(cf.Text),
		Bool:    copyBool(cf.Bool),
		Min:     copyFloat(cf.Min),
		Max:     copyFloat(cf.Max),
		From:    normalizeBoundPtr(cf.From),
		To:      normalizeBoundPtr(cf.To),
		Values:  cleanStrings(cf.Values),
	}
}

// normalizeBound converts an RFC3339 bound to UTC so it orders correctly
// against stored datetimes. Date-only prefixes are kept as given.
func normalizeBound(raw string) string {
	raw = strings.TrimSpace(raw)
	if ts, err := time.Parse(time.RFC3339, raw); err == nil {
		return ts.UTC().Format(time.RFC3339)
	}
	return raw
}

func normalizeBoundPtr(v *string) *string {
	if v == nil {
		return nil
	}
	s := normalizeBound(*v)
	return &s
}

func cleanStrings(items []string) []string {
	var out []string
	for _, raw := range items {
		v := strings.TrimSpace(raw)
		if v == "" {
			continue
		}
		out = append(out, v)
	}
	return out
}

func cleanEnums[T models.AccountType | models.Result](items []T) []T {
	var out []T
	for _, raw := range items {
		v := T(strings.TrimSpace(string(raw)))
		if v == "" {
			continue
		}
		out = append(out, v)
	}
	return out
}

func cleanIDs(items []uint) []uint {
	var out []uint
	for _, id := range items {
		if id == 0 {
			continue
		}
		out = append(out, id)
	}
	return out
}

func copyBool(v *bool) *bool {
	if v == nil {
		return nil
	}
	b := *v
	return &b
}

func copyFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	f := *v
	return &f
}

func copyString(v *string) *string {
	if v == nil {
		return nil
	}
	s := *v
	return &s
}
