package filter

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"

	"trade-journal-go/internal/models"
)

// ErrInvalidQuery marks a query string that cannot be decoded into a Filter.
var ErrInvalidQuery = errors.New("invalid filter query")

// Query-string keys.
const (
	KeyPage         = "page"
	KeyPageSize     = "pageSize"
	KeyDateFrom     = "dateFrom"
	KeyDateTo       = "dateTo"
	KeySymbols      = "symbols"
	KeyTagIDs       = "tagIds"
	KeyAccountTypes = "accountTypes"
	KeyResults      = "results"
	KeyCompliant    = "compliant"
	KeyMinPnL       = "minPnl"
	KeyMaxPnL       = "maxPnl"
	KeyCustomFields = "customFields"
)

// ParseQuery decodes the wire format of a trade filter and normalizes it.
// Lists may be repeated keys or comma-joined values, booleans are the
// literals "true"/"false", and custom field filters are a JSON array.
// Unusable page values fall back to their defaults.
func ParseQuery(values url.Values) (Filter, error) {
	var f Filter

	f.Page = parsePageNumber(values.Get(KeyPage))
	f.PageSize = parsePageNumber(values.Get(KeyPageSize))
	f.DateFrom = values.Get(KeyDateFrom)
	f.DateTo = values.Get(KeyDateTo)
	f.Symbols = splitList(values[KeySymbols])

	for _, raw := range splitList(values[KeyTagIDs]) {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return Filter{}, fmt.Errorf("%w: tagIds entry %q", ErrInvalidQuery, raw)
		}
		f.TagIDs = append(f.TagIDs, uint(id))
	}
	for _, raw := range splitList(values[KeyAccountTypes]) {
		f.AccountTypes = append(f.AccountTypes, models.AccountType(raw))
	}
	for _, raw := range splitList(values[KeyResults]) {
		f.Results = append(f.Results, models.Result(raw))
	}

	if raw := strings.TrimSpace(values.Get(KeyCompliant)); raw != "" {
		switch raw {
		case "true":
			v := true
			f.Compliant = &v
		case "false":
			v := false
			f.Compliant = &v
		default:
			return Filter{}, fmt.Errorf("%w: compliant must be true or false", ErrInvalidQuery)
		}
	}

	var err error
	if f.MinPnL, err = parseFloatPtr(KeyMinPnL, values.Get(KeyMinPnL)); err != nil {
		return Filter{}, err
	}
	if f.MaxPnL, err = parseFloatPtr(KeyMaxPnL, values.Get(KeyMaxPnL)); err != nil {
		return Filter{}, err
	}

	if raw := strings.TrimSpace(values.Get(KeyCustomFields)); raw != "" {
		if err := json.Unmarshal([]byte(raw), &f.CustomFields); err != nil {
			return Filter{}, fmt.Errorf("%w: customFields: %v", ErrInvalidQuery, err)
		}
	}

	return Normalize(f), nil
}

// Values encodes f in the wire format read by ParseQuery.
func (f Filter) Values() url.Values {
	v := url.Values{}
	if f.Page > 0 {
		v.Set(KeyPage, strconv.Itoa(f.Page))
	}
	if f.PageSize > 0 {
		v.Set(KeyPageSize, strconv.Itoa(f.PageSize))
	}
	if f.DateFrom != "" {
		v.Set(KeyDateFrom, f.DateFrom)
	}
	if f.DateTo != "" {
		v.Set(KeyDateTo, f.DateTo)
	}
	for _, s := range f.Symbols {
		v.Add(KeySymbols, s)
	}
	for _, id := range f.TagIDs {
		v.Add(KeyTagIDs, strconv.FormatUint(uint64(id), 10))
	}
	for _, a := range f.AccountTypes {
		v.Add(KeyAccountTypes, string(a))
	}
	for _, r := range f.Results {
		v.Add(KeyResults, string(r))
	}
	if f.Compliant != nil {
		v.Set(KeyCompliant, strconv.FormatBool(*f.Compliant))
	}
	if f.MinPnL != nil {
		v.Set(KeyMinPnL, strconv.FormatFloat(*f.MinPnL, 'f', -1, 64))
	}
	if f.MaxPnL != nil {
		v.Set(KeyMaxPnL, strconv.FormatFloat(*f.MaxPnL, 'f', -1, 64))
	}
	if len(f.CustomFields) > 0 {
		if raw, err := json.Marshal(f.CustomFields); err == nil {
			v.Set(KeyCustomFields, string(raw))
		}
	}
	return v
}

func parsePageNumber(raw string) int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0
	}
	n, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(n) || math.IsInf(n, 0) || n < 1 || n > math.MaxInt32 {
		return 0
	}
	return int(math.Trunc(n))
}

func parseFloatPtr(key, raw string) (*float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	n, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
		return nil, fmt.Errorf("%w: %s must be a finite number", ErrInvalidQuery, key)
	}
	return &n, nil
}

func splitList(raw []string) []string {
	var out []string
	for _, item := range raw {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
