// internal/services/price-import/service.go
package priceimport

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	stockhttp "stock-backoffice/internal/common/http"
	"stock-backoffice/internal/common/logger"
	"stock-backoffice/internal/common/validation"
	"stock-backoffice/internal/models"
)

const (
	ServiceName = "price-import"
)

var (
	ErrUnsupportedFile = errors.New("UNSUPPORTED_IMPORT_FILE")
	ErrFileTooLarge    = errors.New("IMPORT_FILE_TOO_LARGE")
	ErrImportFailed    = errors.New("PRICE_IMPORT_FAILED")
)

// Service uploads valuation spreadsheets to the backend.
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

// ImportFile reads path and imports it.
func (s *Service) ImportFile(ctx context.Context, path string) (*models.PriceImportResult, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrImportFailed, err)
	}
	return s.Import(ctx, filepath.Base(path), content)
}

// Import uploads one valuation file. Files are checked locally first: the
// extension must be allowed and an .xlsx must open as a workbook. Errors
// are returned to the caller; an empty backend answer is reported as one
// failed row.
func (s *Service) Import(ctx context.Context, name string, content []byte) (*models.PriceImportResult, error) {
	if err := s.check(name, content); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.config.Timeout)
	defer cancel()

	s.logger.Info("importing prices", map[string]interface{}{"file": name, "size": len(content)})

	resp, err := s.client.Upload(ctx, s.config.Endpoint, stockhttp.File{Field: "file", Name: name, Content: content})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrImportFailed, err)
	}

	out := &models.PriceImportResult{}
	ok, err := stockhttp.DecodeChecked(s.validator, validation.SchemaPriceImport, resp, s.config.Endpoint, out)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrImportFailed, err)
	}
	if !ok {
		s.logger.Warn("price import returned no report", map[string]interface{}{"file": name})
		return models.FailedImport(emptyResponseMessage), nil
	}

	s.logger.Info("prices imported", map[string]interface{}{
		"file":      name,
		"all":       out.All,
		"processed": out.Processed,
		"failed":    out.Failed,
		"warning":   out.Warning,
	})
	return out, nil
}

func (s *Service) check(name string, content []byte) error {
	ext := strings.ToLower(filepath.Ext(name))
	allowed := false
	for _, e := range s.config.Extensions {
		if strings.EqualFold(e, ext) {
			allowed = true
			break
		}
	}
	if !allowed {
		return fmt.Errorf("%w: %q, expected one of %s", ErrUnsupportedFile, name, strings.Join(s.config.Extensions, ", "))
	}
	if int64(len(content)) > s.config.MaxSize {
		return fmt.Errorf("%w: %d bytes", ErrFileTooLarge, len(content))
	}

	if ext == ".xlsx" {
		wb, err := excelize.OpenReader(bytes.NewReader(content))
		if err != nil {
			return fmt.Errorf("%w: %s is not a workbook: %w", ErrUnsupportedFile, name, err)
		}
		_ = wb.Close()
	}
	return nil
}
