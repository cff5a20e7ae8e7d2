package omada

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
)

// Record is one row of a response: field name to decoded JSON value.
type Record map[string]any

// Get returns the value stored under field.
func (r Record) Get(field string) (any, bool) {
	v, ok := r[field]
	return v, ok
}

// String returns the field formatted for display, "" when absent.
func (r Record) String(field string) string {
	v, ok := r[field]
	if !ok || v == nil {
		return ""
	}
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		b, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprintf("%v", val)
		}
		return string(b)
	}
}

// Records is a collection of uniform rows.
type Records []Record

// Columns returns the union of field names over all rows, sorted.
func (rs Records) Columns() []string {
	seen := make(map[string]struct{})
	for _, r := range rs {
		for k := range r {
			seen[k] = struct{}{}
		}
	}
	cols := make([]string, 0, len(seen))
	for k := range seen {
		cols = append(cols, k)
	}
	sort.Strings(cols)
	return cols
}

// Column returns the value of field for every row, nil where a row lacks it.
func (rs Records) Column(field string) []any {
	out := make([]any, len(rs))
	for i, r := range rs {
		out[i] = r[field]
	}
	return out
}

type recorder interface {
	Record() Record
}

// ToRecords reshapes typed rows into Records. Rows that carry their own Record (Device) keep every
// field the controller sent; other rows go through their JSON encoding.
func ToRecords[T any](items []T) (Records, error) {
	out := make(Records, 0, len(items))
	for i, item := range items {
		if r, ok := any(item).(recorder); ok {
			out = append(out, r.Record())
			continue
		}
		b, err := json.Marshal(item)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		var rec Record
		if err := json.Unmarshal(b, &rec); err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		out = append(out, rec)
	}
	return out, nil
}
