// internal/services/mass-edit/service.go
package massedit

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
	ServiceName = "mass-edit"
)

var (
	ErrEditableFieldsFailed = errors.New("EDITABLE_FIELDS_FAILED")
	ErrMassEditFailed       = errors.New("MASS_EDIT_FAILED")
	ErrNothingToSave        = errors.New("NOTHING_TO_SAVE")
)

// Service reads the editable fields and applies field changes to many
// items at once.
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

// EditableFields returns the fields editable in group. A response in the
// legacy {columns} shape yields no fields.
func (s *Service) EditableFields(ctx context.Context, group string) ([]models.EditableField, error) {
	ctx, cancel := context.WithTimeout(ctx, s.config.Timeout)
	defer cancel()

	resp, err := s.client.Get(ctx, s.config.EditableEndpoint, url.Values{"status_group": {group}})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEditableFieldsFailed, err)
	}

	var out models.EditableFieldsResponse
	if _, err := stockhttp.DecodeChecked(s.validator, validation.SchemaEditableRows, resp, s.config.EditableEndpoint, &out); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEditableFieldsFailed, err)
	}
	if out.Columns != nil {
		s.logger.Warn("editable rows returned in legacy format", map[string]interface{}{"group": group})
		return []models.EditableField{}, nil
	}
	if out.Rows == nil {
		return []models.EditableField{}, nil
	}
	return out.Rows, nil
}

// Save applies items. Errors are always returned to the caller.
func (s *Service) Save(ctx context.Context, items []models.MassEditItem) (*models.MassEditResult, error) {
	if len(items) == 0 {
		return nil, ErrNothingToSave
	}

	ctx, cancel := context.WithTimeout(ctx, s.config.Timeout)
	defer cancel()

	s.logger.Info("saving mass changes", map[string]interface{}{"items": len(items)})

	resp, err := s.client.Patch(ctx, s.config.MassEndpoint, models.MassEditRequest{Items: items})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMassEditFailed, err)
	}

	out := &models.MassEditResult{}
	ok, err := stockhttp.DecodeChecked(s.validator, validation.SchemaMassEditResult, resp, s.config.MassEndpoint, out)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMassEditFailed, err)
	}
	if !ok {
		// the backend may answer with no body; report what was sent
		out.All = len(items)
		out.Successed = len(items)
	}

	s.logger.Info("mass changes saved", map[string]interface{}{
		"all":       out.All,
		"successed": out.Successed,
		"failed":    out.Failed,
	})
	return out, nil
}
