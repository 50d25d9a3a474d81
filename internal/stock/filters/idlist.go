// internal/stock/filters/idlist.go
package filters

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// IDList is a list of selected option identifiers. Identifiers are always
// strings; the JSON decoder also accepts numbers and {"value": ...} option
// objects, which older persisted filters and some form components produce.
type IDList []string

func (l IDList) MarshalJSON() ([]byte, error) {
	if l == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]string(l))
}

func (l *IDList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*l = IDList{}
		return nil
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		// a lone scalar is treated as a one-element selection
		id, scalarErr := decodeID(data)
		if scalarErr != nil {
			return fmt.Errorf("id list: %w", err)
		}
		*l = IDList{id}
		return nil
	}

	out := make(IDList, 0, len(raw))
	for _, item := range raw {
		id, err := decodeID(item)
		if err != nil {
			return err
		}
		if id != "" {
			out = append(out, id)
		}
	}
	*l = out
	return nil
}

func decodeID(data []byte) (string, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return "", nil
	}

	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return "", err
		}
		return s, nil
	case '{':
		var option struct {
			Value json.RawMessage `json:"value"`
		}
		if err := json.Unmarshal(data, &option); err != nil {
			return "", err
		}
		if len(option.Value) == 0 {
			return "", fmt.Errorf("option object without value: %s", data)
		}
		return decodeID(option.Value)
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return "", fmt.Errorf("unsupported id %s", data)
		}
		if i, err := n.Int64(); err == nil {
			return strconv.FormatInt(i, 10), nil
		}
		return n.String(), nil
	}
}

// Strings returns a non-nil copy.
func (l IDList) Strings() []string {
	out := make([]string, len(l))
	copy(out, l)
	return out
}

func (l IDList) Contains(id string) bool {
	for _, v := range l {
		if v == id {
			return true
		}
	}
	return false
}
