// internal/domain/models/item.go
package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Item is one entry of a remote collection (a curriculum, a pupil, a teacher).
//
// The dashboard renders whatever fields the API returns, so items stay
// schemaless. Only the policy knows which field is the key and which fields
// are displayed.
type Item map[string]any

// Key returns the canonical string form of field, used for identity
// comparisons. Numeric ids (1) and string ids ("MAT-1") both work, and
// a form value of "1" matches a JSON number 1. Missing fields return "".
func (it Item) Key(field string) string {
	return canonical(it[field])
}

// String returns the display form of field ("" when missing or null).
func (it Item) String(field string) string {
	return canonical(it[field])
}

// Join returns the non-empty values of fields joined with a space.
func (it Item) Join(fields []string) string {
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		if v := it.String(f); v != "" {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, " ")
}

// Has reports whether field is present (even if null).
func (it Item) Has(field string) bool {
	_, ok := it[field]
	return ok
}

// Clone returns a shallow copy.
func (it Item) Clone() Item {
	if it == nil {
		return nil
	}
	out := make(Item, len(it))
	for k, v := range it {
		out[k] = v
	}
	return out
}

// DecodeItems decodes a JSON array of objects, keeping numbers as json.Number
// so ids round-trip without float formatting.
func DecodeItems(data []byte) ([]Item, error) {
	var items []Item
	if err := decodeJSON(data, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// UnmarshalJSON keeps numeric fields as json.Number.
func (it *Item) UnmarshalJSON(data []byte) error {
	var m map[string]any
	if err := decodeJSON(data, &m); err != nil {
		return err
	}
	*it = Item(m)
	return nil
}

func decodeJSON(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	return dec.Decode(v)
}

func canonical(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	default:
		return fmt.Sprint(t)
	}
}
