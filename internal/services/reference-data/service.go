// internal/services/reference-data/service.go
package referencedata

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	stockhttp "stock-backoffice/internal/common/http"
	"stock-backoffice/internal/common/logger"
	"stock-backoffice/internal/common/validation"
	"stock-backoffice/internal/models"
)

const (
	ServiceName = "reference-data"
)

var (
	ErrReferenceFetchFailed = errors.New("REFERENCE_FETCH_FAILED")
)

// Service reads the reference lists behind the filter facets.
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

// Types returns the vehicle types, or the children of parents when given.
func (s *Service) Types(ctx context.Context, parents []string) ([]models.ReferenceItem, error) {
	var params url.Values
	if len(parents) > 0 {
		params = url.Values{"parents": parents}
	}
	return s.fetchList(ctx, s.endpoint("types"), params)
}

// Brands returns the brands of the given types. No request is made for an
// empty selection.
func (s *Service) Brands(ctx context.Context, types []string) ([]models.ReferenceItem, error) {
	if len(types) == 0 {
		return []models.ReferenceItem{}, nil
	}
	return s.fetchList(ctx, s.endpoint("brands"), url.Values{"types": types})
}

func (s *Service) Models(ctx context.Context, brands []string) ([]models.ReferenceItem, error) {
	if len(brands) == 0 {
		return []models.ReferenceItem{}, nil
	}
	return s.fetchList(ctx, s.endpoint("models"), url.Values{"brands": brands})
}

func (s *Service) Equipments(ctx context.Context, modelIDs []string) ([]models.ReferenceItem, error) {
	if len(modelIDs) == 0 {
		return []models.ReferenceItem{}, nil
	}
	return s.fetchList(ctx, s.endpoint("equipments"), url.Values{"models": modelIDs})
}

// Statuses returns the statuses of a status group. Items are keyed by code.
func (s *Service) Statuses(ctx context.Context, group string) ([]models.ReferenceItem, error) {
	return s.fetchList(ctx, s.endpoint("statuses"), url.Values{"status_group": {group}})
}

// StatusTransitions returns the statuses reachable from currentStatus.
func (s *Service) StatusTransitions(ctx context.Context, group, currentStatus string) ([]models.StatusTransition, error) {
	endpoint := s.endpoint("statuses")
	resp, err := s.get(ctx, endpoint, url.Values{"status_group": {group}, "current_status": {currentStatus}})
	if err != nil {
		return nil, err
	}

	out := []models.StatusTransition{}
	if _, err := stockhttp.DecodeChecked(s.validator, validation.SchemaStatusOptions, resp, endpoint, &out); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrReferenceFetchFailed, endpoint, err)
	}
	if out == nil {
		out = []models.StatusTransition{}
	}
	return out, nil
}

func (s *Service) Liquidities(ctx context.Context) ([]models.ReferenceItem, error) {
	return s.fetchList(ctx, s.endpoint("liquidities"), nil)
}

func (s *Service) KeysCount(ctx context.Context) ([]models.ReferenceItem, error) {
	return s.fetchList(ctx, s.endpoint("keys-count"), nil)
}

// Equipment returns one of the static equipment lists.
func (s *Service) Equipment(ctx context.Context, list EquipmentList) ([]models.ReferenceItem, error) {
	return s.fetchList(ctx, s.endpoint("equipment/"+string(list)), nil)
}

// Participants returns lessors or lessees. Failures degrade to an empty
// list.
func (s *Service) Participants(ctx context.Context, role ParticipantRole) []models.ReferenceItem {
	endpoint := s.endpoint("participants")
	resp, err := s.get(ctx, endpoint, url.Values{"type": {string(role)}})
	if err != nil {
		s.logger.Warn("participants unavailable", map[string]interface{}{
			"role":  string(role),
			"error": err.Error(),
		})
		return []models.ReferenceItem{}
	}

	out := []models.ReferenceItem{}
	if _, err := stockhttp.DecodeChecked(s.validator, validation.SchemaParticipants, resp, endpoint, &out); err != nil {
		s.logger.Warn("participants malformed", map[string]interface{}{
			"role":  string(role),
			"error": err.Error(),
		})
		return []models.ReferenceItem{}
	}
	return out
}

// Users returns the back-office employees.
func (s *Service) Users(ctx context.Context) ([]models.User, error) {
	const endpoint = "v1/users"
	resp, err := s.get(ctx, endpoint, nil)
	if err != nil {
		return nil, err
	}

	var out models.UsersResponse
	ok, err := stockhttp.DecodeChecked(s.validator, validation.SchemaUsers, resp, endpoint, &out)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrReferenceFetchFailed, endpoint, err)
	}
	if !ok || out.Users == nil {
		s.logger.Warn("user list is empty", nil)
		return []models.User{}, nil
	}
	return out.Users, nil
}

func (s *Service) fetchList(ctx context.Context, endpoint string, params url.Values) ([]models.ReferenceItem, error) {
	resp, err := s.get(ctx, endpoint, params)
	if err != nil {
		return nil, err
	}

	out := []models.ReferenceItem{}
	if _, err := stockhttp.DecodeChecked(s.validator, validation.SchemaReferenceList, resp, endpoint, &out); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrReferenceFetchFailed, endpoint, err)
	}
	if out == nil {
		out = []models.ReferenceItem{}
	}

	s.logger.Debug("reference list loaded", map[string]interface{}{
		"endpoint": endpoint,
		"count":    len(out),
	})
	return out, nil
}

func (s *Service) get(ctx context.Context, endpoint string, params url.Values) (*stockhttp.Response, error) {
	ctx, cancel := context.WithTimeout(ctx, s.config.Timeout)
	defer cancel()

	resp, err := s.client.Get(ctx, endpoint, params)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrReferenceFetchFailed, endpoint, err)
	}
	return resp, nil
}

func (s *Service) endpoint(path string) string {
	return s.config.BasePath + "/" + path
}
