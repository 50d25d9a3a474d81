// internal/services/property-listing/service.go
package propertylisting

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	stockhttp "stock-backoffice/internal/common/http"
	"stock-backoffice/internal/common/logger"
	"stock-backoffice/internal/common/validation"
	"stock-backoffice/internal/models"
	"stock-backoffice/internal/stock/filters"
)

const (
	ServiceName = "property-listing"
)

var (
	ErrListingFetchFailed = errors.New("LISTING_FETCH_FAILED")
)

// Service reads listing pages and the per-tab totals.
type Service struct {
	config    *Config
	client    *stockhttp.Client
	validator stockhttp.Validator
	logger    logger.Logger
}

func NewService(config *Config, deps ServiceDependencies) *Service {
	return &Service{
		config:    config,
		client:    deps.Client,
		validator: deps.Validator,
		logger:    deps.Logger.WithFields(map[string]interface{}{"service": ServiceName}),
	}
}

// BuildRequest assembles the request body of q: filter lists are made
// non-nil, brands are capped and sort columns are mapped.
func BuildRequest(q Query, maxBrands int) Request {
	columns, desc := filters.PrepareSortFields(q.SortBy, q.SortDesc)
	return Request{
		Filter:     q.Filter.Normalize(maxBrands),
		Page:       q.Page,
		PerPage:    q.PerPage,
		SortColumn: columns,
		SortDesc:   desc,
	}
}

// Fetch loads one listing page. Any listing request still in flight is
// aborted first, so only the latest page request reaches the caller. A
// call that brought no data (aborted, cancelled, 401, 204) returns a nil
// page and no error; timeouts and transport failures are errors.
func (s *Service) Fetch(ctx context.Context, q Query) (*models.ListingResponse, error) {
	s.AbortPending()

	ctx, cancel := context.WithTimeout(ctx, s.config.Timeout)
	defer cancel()

	body := BuildRequest(q, s.config.MaxBrands)
	s.logger.Debug("fetching listing", map[string]interface{}{
		"group":   string(q.Group),
		"page":    q.Page,
		"perPage": q.PerPage,
		"sort":    body.SortColumn,
	})

	resp, err := s.client.Post(ctx, s.config.Endpoint, url.Values{"status_group": {string(q.Group)}}, body)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrListingFetchFailed, err)
	}

	out := &models.ListingResponse{}
	ok, err := stockhttp.DecodeChecked(s.validator, validation.SchemaListing, resp, s.config.Endpoint, out)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrListingFetchFailed, err)
	}
	if !ok {
		return nil, nil
	}
	if out.Items == nil {
		out.Items = []models.Item{}
	}
	return out, nil
}

// AbortPending cancels the outstanding listing request, if any.
func (s *Service) AbortPending() int {
	return s.client.Abort(s.config.Endpoint + "?")
}

// Aggregate returns the listing tabs with their totals. Any failure yields
// the default single tab.
func (s *Service) Aggregate(ctx context.Context) []models.Tab {
	endpoint := s.config.Endpoint + "/total-items"

	ctx, cancel := context.WithTimeout(ctx, s.config.Timeout)
	defer cancel()

	resp, err := s.client.Get(ctx, endpoint, nil)
	if err != nil {
		s.logger.Warn("tab aggregate unavailable", map[string]interface{}{"error": err.Error()})
		return models.DefaultTabs()
	}

	var agg models.AggregateResponse
	ok, err := stockhttp.DecodeChecked(s.validator, validation.SchemaAggregate, resp, endpoint, &agg)
	if err != nil {
		s.logger.Warn("tab aggregate malformed", map[string]interface{}{"error": err.Error()})
		return models.DefaultTabs()
	}
	if !ok {
		return models.DefaultTabs()
	}
	return agg.ToTabs()
}
