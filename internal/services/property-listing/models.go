// internal/services/property-listing/models.go
package propertylisting

import (
	stockhttp "stock-backoffice/internal/common/http"
	"stock-backoffice/internal/common/logger"
	"stock-backoffice/internal/stock/filters"
)

// Query selects one listing page. SortBy holds listing column names; they
// are mapped to backend identifiers when the request is built.
type Query struct {
	Filter   filters.ServerFilter
	Page     int
	PerPage  int
	Group    filters.StatusGroup
	SortBy   []string
	SortDesc []bool
}

// Request is the body of the listing and export endpoints.
type Request struct {
	Filter     filters.ServerFilter `json:"filter"`
	Page       int                  `json:"page"`
	PerPage    int                  `json:"per_page"`
	SortColumn []string             `json:"sort_column,omitempty"`
	SortDesc   []bool               `json:"sort_desc,omitempty"`
}

type ServiceDependencies struct {
	Client    *stockhttp.Client
	Validator stockhttp.Validator
	Logger    logger.Logger
}
