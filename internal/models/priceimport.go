// internal/models/priceimport.go
package models

import "fmt"

// Import report message types.
const (
	ImportMessageError = "ERROR"
	ImportMessageAlarm = "ALARM"
)

type ImportReportItem struct {
	VIN string `json:"vin"`
}

// ImportReport groups the rows of an import that share a message.
type ImportReport struct {
	MessageType string             `json:"messageType"`
	Message     string             `json:"message"`
	Items       []ImportReportItem `json:"items"`
}

// PriceImportResult is the backend summary of a valuation import.
type PriceImportResult struct {
	All       int            `json:"all"`
	Processed int            `json:"processed"`
	Successed int            `json:"successed"`
	Failed    int            `json:"failed"`
	Warning   int            `json:"warning"`
	Report    []ImportReport `json:"report,omitempty"`
}

// FailedImport is the result shown when the import did not reach the
// backend or came back empty.
func FailedImport(message string) *PriceImportResult {
	return &PriceImportResult{
		Failed: 1,
		Report: []ImportReport{{MessageType: ImportMessageError, Message: message, Items: []ImportReportItem{}}},
	}
}

// HasChanges reports whether any row was applied, which makes the loaded
// listing outdated.
func (r *PriceImportResult) HasChanges() bool {
	return r != nil && r.Processed > 0
}

func (r *PriceImportResult) String() string {
	return fmt.Sprintf("всего: %d, обработано: %d, успешно: %d, с ошибками: %d, с предупреждениями: %d",
		r.All, r.Processed, r.Successed, r.Failed, r.Warning)
}
