// internal/services/property-detail/service.go
package propertydetail

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"

	stockhttp "stock-backoffice/internal/common/http"
	"stock-backoffice/internal/common/logger"
	"stock-backoffice/internal/common/storage"
	"stock-backoffice/internal/models"
)

const (
	ServiceName = "property-detail"
)

var (
	ErrMissingUID    = errors.New("MISSING_UID")
	ErrEmptyResponse = errors.New("EMPTY_RESPONSE")
	ErrUpdateFailed  = errors.New("PROPERTY_UPDATE_FAILED")
)

// Service reads and edits a single property card.
type Service struct {
	config *Config
	client *stockhttp.Client
	store  *storage.Store
	logger logger.Logger
}

func NewService(config *Config, deps ServiceDependencies) *Service {
	return &Service{
		config: config,
		client: deps.Client,
		store:  deps.Store,
		logger: deps.Logger.WithFields(map[string]interface{}{"service": ServiceName}),
	}
}

// Detail loads the card of uid and remembers its type triple.
func (s *Service) Detail(ctx context.Context, uid string) (*models.PropertyDetail, error) {
	if uid == "" {
		return nil, ErrMissingUID
	}

	endpoint := s.itemPath(uid, "")
	resp, err := s.get(ctx, endpoint, nil)
	if err != nil {
		return nil, err
	}

	detail := &models.PropertyDetail{}
	ok, err := stockhttp.Decode(resp, endpoint, detail)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrEmptyResponse, endpoint)
	}
	if err := json.Unmarshal(resp.Body, &detail.Fields); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrEmptyResponse, endpoint, err)
	}

	if types, ok := detail.Types(); ok && s.store != nil {
		if err := s.store.Save(ctx, PropertyTypesKey, types); err != nil {
			s.logger.Warn("failed to remember property types", map[string]interface{}{"uid": uid, "error": err.Error()})
		}
	}
	return detail, nil
}

// LastPropertyTypes returns the type triple of the last loaded card.
func (s *Service) LastPropertyTypes(ctx context.Context) (models.PropertyTypes, bool) {
	var types models.PropertyTypes
	if s.store == nil {
		return types, false
	}
	ok := s.store.Load(ctx, PropertyTypesKey, &types)
	return types, ok
}

func (s *Service) UpdateStatus(ctx context.Context, uid, status string) error {
	return s.patch(ctx, uid, "status", statusUpdate{Status: status})
}

// ValuationHistory degrades to an empty history on failure.
func (s *Service) ValuationHistory(ctx context.Context, uid string) models.ValuationHistory {
	empty := models.ValuationHistory{Items: []models.ValuationHistoryItem{}}
	endpoint := s.itemPath(uid, "valuation-history")

	resp, err := s.get(ctx, endpoint, nil)
	if err != nil {
		s.logger.Warn("valuation history unavailable", map[string]interface{}{"uid": uid, "error": err.Error()})
		return empty
	}

	var out models.ValuationHistory
	ok, err := stockhttp.Decode(resp, endpoint, &out)
	if err != nil || !ok {
		return empty
	}
	if out.Items == nil {
		out.Items = []models.ValuationHistoryItem{}
	}
	return out
}

// ValuationReasons accepts both {items: [...]} and a bare array.
func (s *Service) ValuationReasons(ctx context.Context) []models.NameValue {
	endpoint := s.config.ItemsPath + "/valuation-reasons"
	resp, err := s.get(ctx, endpoint, nil)
	if err != nil || resp == nil {
		return []models.NameValue{}
	}

	var envelope reasonsEnvelope
	if err := json.Unmarshal(resp.Body, &envelope); err == nil && envelope.Items != nil {
		return envelope.Items
	}
	var bare []models.NameValue
	if err := json.Unmarshal(resp.Body, &bare); err == nil && bare != nil {
		return bare
	}
	return []models.NameValue{}
}

func (s *Service) SaveValuation(ctx context.Context, uid string, req models.ValuationRequest) error {
	return s.patch(ctx, uid, "valuation", req)
}

// ClassifiedAds lists one entry per known classifieds site, filled from
// the card's existing ads where present.
func (s *Service) ClassifiedAds(ctx context.Context, existing []models.ClassifiedAd) ([]models.ClassifiedAd, error) {
	resp, err := s.get(ctx, s.config.ClassifiedPath, nil)
	if err != nil {
		return nil, err
	}

	var sites classifiedSites
	if _, err := stockhttp.Decode(resp, s.config.ClassifiedPath, &sites); err != nil {
		return nil, err
	}

	byCode := make(map[string]models.ClassifiedAd, len(existing))
	for _, ad := range existing {
		byCode[ad.Classified.Code] = ad
	}

	out := make([]models.ClassifiedAd, 0, len(sites.Classifides))
	for _, site := range sites.Classifides {
		ad := models.ClassifiedAd{
			Classified: models.CodeValue{Code: site.Code, Value: site.Value},
			Editable:   site.Editable,
		}
		if known, ok := byCode[site.Code]; ok {
			ad.UID = known.UID
			ad.Classified = known.Classified
			ad.Link = known.Link
			ad.Status = known.Status
		}
		out = append(out, ad)
	}
	return out, nil
}

// SaveClassifiedAds sends the links of the editable ads.
func (s *Service) SaveClassifiedAds(ctx context.Context, uid string, ads []models.ClassifiedAd) error {
	links := make([]models.ClassifiedLink, 0, len(ads))
	for _, ad := range ads {
		if ad.Editable {
			links = append(links, models.ClassifiedLink{Code: ad.Classified.Code, Link: ad.Link})
		}
	}
	return s.patch(ctx, uid, "classified-ads", classifiedSave{Classifides: links})
}

func (s *Service) UpdateRealization(ctx context.Context, uid string, update models.RealizationUpdate) error {
	return s.patch(ctx, uid, "realization", update)
}

func (s *Service) LeasingAgreements(ctx context.Context, uid string) ([]models.LeasingAgreement, error) {
	endpoint := s.itemPath(uid, "leasing-agreements")
	resp, err := s.get(ctx, endpoint, nil)
	if err != nil {
		return nil, err
	}

	var out leasingEnvelope
	if _, err := stockhttp.Decode(resp, endpoint, &out); err != nil {
		return nil, err
	}
	if out.Items == nil {
		return []models.LeasingAgreement{}, nil
	}
	return out.Items, nil
}

// Options returns the characteristics editable for a type triple.
func (s *Service) Options(ctx context.Context, types models.PropertyTypes) ([]models.PropertyOption, error) {
	params := url.Values{}
	for key, v := range map[string]*string{"type": types.Type, "subtype1": types.Subtype1, "subtype2": types.Subtype2} {
		if v != nil && *v != "" {
			params.Set(key, *v)
		}
	}

	endpoint := s.config.ItemsPath + "/options"
	resp, err := s.get(ctx, endpoint, params)
	if err != nil {
		return nil, err
	}

	out := []models.PropertyOption{}
	if _, err := stockhttp.Decode(resp, endpoint, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Service) Colors(ctx context.Context) ([]models.Color, error) {
	endpoint := s.config.ItemsPath + "/colors"
	resp, err := s.get(ctx, endpoint, nil)
	if err != nil {
		return nil, err
	}

	out := []models.Color{}
	if _, err := stockhttp.Decode(resp, endpoint, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Service) UpdateOptions(ctx context.Context, uid string, values map[string]interface{}) error {
	return s.patch(ctx, uid, "options", values)
}

// UpdateResponsible assigns responsible users to properties.
func (s *Service) UpdateResponsible(ctx context.Context, assignments []models.ResponsibleAssignment) error {
	endpoint := s.config.ItemsPath + "/responsible"

	ctx, cancel := context.WithTimeout(ctx, s.config.Timeout)
	defer cancel()

	if _, err := s.client.Patch(ctx, endpoint, responsibleUpdate{Responsible: assignments}); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrUpdateFailed, endpoint, err)
	}
	s.logger.Info("responsible updated", map[string]interface{}{"count": len(assignments)})
	return nil
}

func (s *Service) patch(ctx context.Context, uid, path string, body interface{}) error {
	if uid == "" {
		return ErrMissingUID
	}
	endpoint := s.itemPath(uid, path)

	ctx, cancel := context.WithTimeout(ctx, s.config.Timeout)
	defer cancel()

	if _, err := s.client.Patch(ctx, endpoint, body); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrUpdateFailed, endpoint, err)
	}
	s.logger.Info("property updated", map[string]interface{}{"uid": uid, "part": path})
	return nil
}

func (s *Service) get(ctx context.Context, endpoint string, params url.Values) (*stockhttp.Response, error) {
	ctx, cancel := context.WithTimeout(ctx, s.config.Timeout)
	defer cancel()
	return s.client.Get(ctx, endpoint, params)
}

func (s *Service) itemPath(uid, suffix string) string {
	path := s.config.ItemsPath + "/" + url.PathEscape(uid)
	if suffix != "" {
		path += "/" + suffix
	}
	return path
}
