// internal/models/massedit.go
package models

// EditableField is a field that can be changed from the listing.
type EditableField struct {
	Value      string `json:"value"`
	Code       string `json:"code"`
	MassChange bool   `json:"massChange"`
}

type EditableFieldsResponse struct {
	Rows    []EditableField `json:"rows"`
	Columns interface{}     `json:"columns,omitempty"`
}

// ChangedField is one field change of one item.
type ChangedField struct {
	Code   string `json:"code"`
	Change string `json:"change"`
}

type MassEditItem struct {
	UID  string         `json:"uid"`
	Rows []ChangedField `json:"rows"`
}

type MassEditRequest struct {
	Items []MassEditItem `json:"items"`
}

type MassEditRowResult struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type MassEditItemResult struct {
	UID     string              `json:"uid"`
	Message string              `json:"message"`
	Rows    []MassEditRowResult `json:"rows"`
}

// MassEditResult is the backend report of a mass update.
type MassEditResult struct {
	All       int                  `json:"all"`
	Successed int                  `json:"successed"`
	Failed    int                  `json:"failed"`
	Report    []MassEditItemResult `json:"report"`
}

// StatusTransition is a status reachable from a current status.
type StatusTransition struct {
	Code              string `json:"code"`
	Name              string `json:"name"`
	Standard          bool   `json:"standard,omitempty"`
	IsAvailableForAll bool   `json:"isAvailableForAll"`
}

// FallbackStatusTransitions is offered when none of the selected items
// carries a status code.
func FallbackStatusTransitions() []StatusTransition {
	return []StatusTransition{
		{Code: "TerminatedNotSeized", Name: "Расторгнут, не изъят", IsAvailableForAll: true},
		{Code: "TerminatedSeized", Name: "Расторгнут, изъят", IsAvailableForAll: true},
		{Code: "TerminatedImpossibleSeized", Name: "Расторгнут, невозможно изъять", IsAvailableForAll: true},
		{Code: "TerminatedSelling", Name: "Расторгнут, на продаже", IsAvailableForAll: true},
		{Code: "Returned", Name: "Возврат", IsAvailableForAll: true},
		{Code: "Leased", Name: "Аренда", IsAvailableForAll: true},
		{Code: "Sold", Name: "Продан", IsAvailableForAll: true},
	}
}

// KeysCountOptions are the fixed keys-count choices of the edit form.
func KeysCountOptions() []Option {
	return []Option{
		{Text: "Не применимо", Value: "NONE"},
		{Text: "1 ключ", Value: "ONE"},
		{Text: "2 ключа", Value: "TWO"},
	}
}
