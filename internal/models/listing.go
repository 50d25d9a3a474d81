// internal/models/listing.go
package models

import (
	"fmt"
	"strings"
)

// Item is one row of the stock listing. Rows are wide and loosely typed,
// so they are kept as decoded JSON and read by dotted column path.
type Item map[string]interface{}

// Lookup resolves a dotted path such as "equipment.model.name".
func (i Item) Lookup(path string) (interface{}, bool) {
	var cur interface{} = map[string]interface{}(i)
	for _, part := range strings.Split(path, ".") {
		m, ok := cur.(map[string]interface{})
		if !ok {
			return nil, false
		}
		cur, ok = m[part]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// Text renders the value at path for display. Reference objects are
// shown by their name.
func (i Item) Text(path string) string {
	v, ok := i.Lookup(path)
	if !ok || v == nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	case float64:
		if t == float64(int64(t)) {
			return fmt.Sprintf("%d", int64(t))
		}
		return fmt.Sprintf("%g", t)
	case bool:
		if t {
			return "да"
		}
		return "нет"
	case map[string]interface{}:
		for _, key := range []string{"name", "value", "employee_display"} {
			if s, ok := t[key].(string); ok {
				return s
			}
		}
	}
	return fmt.Sprintf("%v", v)
}

// UID is the item identifier.
func (i Item) UID() string {
	s, _ := i["uid"].(string)
	return s
}

// StatusCode is the code of the item's current status.
func (i Item) StatusCode() string {
	if s, ok := i.Lookup("status.code"); ok {
		if code, ok := s.(string); ok {
			return code
		}
	}
	return ""
}

// ListingResponse is one page of the stock listing.
type ListingResponse struct {
	Items []Item `json:"items"`
	Count int    `json:"count"`
}

// Tab is a listing tab with its row count.
type Tab struct {
	Name  string `json:"name"`
	Label string `json:"label"`
	Count int    `json:"count"`
}

// DefaultTabs is shown until the aggregate is known and whenever it fails.
func DefaultTabs() []Tab {
	return []Tab{{Name: "all", Label: "Весь сток", Count: 0}}
}

// AggregateTab is the backend shape of a tab total.
type AggregateTab struct {
	TabCode string `json:"tab_code"`
	TabName string `json:"tab_name"`
	Count   int    `json:"count"`
}

type AggregateResponse struct {
	Tabs []AggregateTab `json:"tabs"`
}

// ToTabs formats the aggregate for display.
func (a AggregateResponse) ToTabs() []Tab {
	out := make([]Tab, 0, len(a.Tabs))
	for _, t := range a.Tabs {
		out = append(out, Tab{Name: t.TabCode, Label: t.TabName, Count: t.Count})
	}
	return out
}

// Header is a listing column.
type Header struct {
	Text     string `json:"text"`
	Value    string `json:"value"`
	Sortable bool   `json:"sortable"`
	Visible  bool   `json:"visible"`
}
