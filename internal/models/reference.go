// internal/models/reference.go
package models

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// ID is a backend identifier. Some reference endpoints send numeric ids;
// they are kept as their decimal string.
type ID string

func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*id = ID(n.String())
	return nil
}

// Flag decodes booleans sent either as JSON booleans or as "true"/"false".
type Flag bool

func (f *Flag) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(bytes.TrimSpace(data)), `"`)
	if s == "" || s == "null" {
		*f = false
		return nil
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		return err
	}
	*f = Flag(v)
	return nil
}

// ReferenceItem is one entry of a reference list endpoint.
type ReferenceItem struct {
	UID         ID     `json:"uid"`
	Name        string `json:"name"`
	Code        string `json:"code,omitempty"`
	HasChildren Flag   `json:"has_children,omitempty"`
}

// Option is a selectable facet value.
type Option struct {
	Text        string `json:"text"`
	Value       string `json:"value"`
	HasChildren bool   `json:"has_children,omitempty"`
}

// ToOption maps a reference item to an option keyed by uid.
func (r ReferenceItem) ToOption() Option {
	return Option{Text: r.Name, Value: string(r.UID), HasChildren: bool(r.HasChildren)}
}

// ToStatusOption maps a status entry, which is keyed by code.
func (r ReferenceItem) ToStatusOption() Option {
	return Option{Text: r.Name, Value: r.Code}
}

// Options maps items with ToOption.
func Options(items []ReferenceItem) []Option {
	out := make([]Option, 0, len(items))
	for _, item := range items {
		out = append(out, item.ToOption())
	}
	return out
}

// StatusOptions maps items with ToStatusOption.
func StatusOptions(items []ReferenceItem) []Option {
	out := make([]Option, 0, len(items))
	for _, item := range items {
		out = append(out, item.ToStatusOption())
	}
	return out
}

// Location of a user.
type Location struct {
	City     *string `json:"city"`
	Timezone *string `json:"timezone"`
}

// User is a back-office employee, used for responsible assignments.
type User struct {
	UID             string    `json:"uid"`
	EmployeeDisplay *string   `json:"employeeDisplay"`
	Location        *Location `json:"location,omitempty"`
}

// DisplayName falls back to the uid when the employee has no display name.
func (u User) DisplayName() string {
	if u.EmployeeDisplay != nil && *u.EmployeeDisplay != "" {
		return *u.EmployeeDisplay
	}
	return u.UID
}

type UsersResponse struct {
	Users []User `json:"users"`
}
