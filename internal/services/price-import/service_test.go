// internal/services/price-import/service_test.go
package priceimport

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	apperrors "stock-backoffice/internal/common/errors"
	stockhttp "stock-backoffice/internal/common/http"
	"stock-backoffice/internal/common/logger"
	"stock-backoffice/internal/common/validation"
	"stock-backoffice/internal/models"
)

// ==========================
// Test Helpers
// ==========================

type allowAll struct{}

func (allowAll) Authorize(context.Context) (string, bool) { return "test-token", true }

func createTestService(t *testing.T, handler http.HandlerFunc) *Service {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	log := logger.NewTestLogger(t)
	validator, err := validation.NewSchemaValidator()
	require.NoError(t, err)

	client := stockhttp.NewClient(stockhttp.Options{
		BaseURL: server.URL,
		Timeout: 5 * time.Second,
		Grace:   10 * time.Millisecond,
		Auth:    allowAll{},
		Logger:  log,
	})
	return NewService(LoadConfig(), ServiceDependencies{Client: client, Validator: validator, Logger: log})
}

func createTestWorkbook(t *testing.T) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]interface{}{"VIN", "Цена"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A2", &[]interface{}{"XW8ZZZ61ZEG000001", 1250000}))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

// ==========================
// Import
// ==========================

func TestService_Import(t *testing.T) {
	workbook := createTestWorkbook(t)

	tests := []struct {
		name           string
		file           string
		content        []byte
		status         int
		response       string
		wantUpload     bool
		validateOutput func(t *testing.T, result *models.PriceImportResult, err error)
	}{
		{
			name:       "report decoded",
			file:       "prices.xlsx",
			content:    workbook,
			status:     http.StatusOK,
			response:   `{"all":3,"processed":2,"successed":2,"failed":1,"warning":0,"report":[{"messageType":"ERROR","message":"VIN не найден","items":[{"vin":"X1"}]}]}`,
			wantUpload: true,
			validateOutput: func(t *testing.T, result *models.PriceImportResult, err error) {
				require.NoError(t, err)
				assert.Equal(t, 3, result.All)
				assert.True(t, result.HasChanges())
				require.Len(t, result.Report, 1)
				assert.Equal(t, models.ImportMessageError, result.Report[0].MessageType)
				assert.Equal(t, "X1", result.Report[0].Items[0].VIN)
			},
		},
		{
			name:       "csv is uploaded as is",
			file:       "prices.CSV",
			content:    []byte("vin;price\nX1;100\n"),
			status:     http.StatusOK,
			response:   `{"all":1,"processed":0,"successed":0,"failed":0,"warning":1}`,
			wantUpload: true,
			validateOutput: func(t *testing.T, result *models.PriceImportResult, err error) {
				require.NoError(t, err)
				assert.False(t, result.HasChanges())
				assert.Equal(t, 1, result.Warning)
			},
		},
		{
			name:       "empty answer is one failed row",
			file:       "prices.xlsx",
			content:    workbook,
			status:     http.StatusNoContent,
			wantUpload: true,
			validateOutput: func(t *testing.T, result *models.PriceImportResult, err error) {
				require.NoError(t, err)
				assert.Equal(t, 1, result.Failed)
				assert.Equal(t, emptyResponseMessage, result.Report[0].Message)
				assert.False(t, result.HasChanges())
			},
		},
		{
			name:       "server error is returned",
			file:       "prices.xlsx",
			content:    workbook,
			status:     http.StatusInternalServerError,
			response:   `{"error":"boom"}`,
			wantUpload: true,
			validateOutput: func(t *testing.T, result *models.PriceImportResult, err error) {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrImportFailed))
				assert.Equal(t, apperrors.ErrCodeHTTPError, apperrors.CodeOf(err))
				assert.Nil(t, result)
			},
		},
		{
			name:    "unsupported extension",
			file:    "prices.pdf",
			content: []byte("%PDF"),
			validateOutput: func(t *testing.T, result *models.PriceImportResult, err error) {
				assert.ErrorIs(t, err, ErrUnsupportedFile)
			},
		},
		{
			name:    "broken workbook",
			file:    "prices.xlsx",
			content: []byte("not a zip"),
			validateOutput: func(t *testing.T, result *models.PriceImportResult, err error) {
				assert.ErrorIs(t, err, ErrUnsupportedFile)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var uploads atomic.Int32
			svc := createTestService(t, func(w http.ResponseWriter, r *http.Request) {
				uploads.Add(1)
				assert.Equal(t, "/v1/import/valuations", r.URL.Path)
				file, header, err := r.FormFile("file")
				if assert.NoError(t, err) {
					defer file.Close()
					got, _ := io.ReadAll(file)
					assert.Equal(t, tt.file, header.Filename)
					assert.Equal(t, tt.content, got)
				}
				if tt.status == http.StatusNoContent {
					w.WriteHeader(http.StatusNoContent)
					return
				}
				writeJSON(w, tt.status, tt.response)
			})

			result, err := svc.Import(context.Background(), tt.file, tt.content)
			tt.validateOutput(t, result, err)
			assert.Equal(t, tt.wantUpload, uploads.Load() == 1)
		})
	}
}

func TestService_ImportFileTooLarge(t *testing.T) {
	svc := createTestService(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("oversized file must not be uploaded")
	})
	svc.config.MaxSize = 4

	_, err := svc.Import(context.Background(), "prices.csv", []byte("vin;price"))
	assert.ErrorIs(t, err, ErrFileTooLarge)
}

func TestService_ImportFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prices.xlsx")
	require.NoError(t, os.WriteFile(path, createTestWorkbook(t), 0o600))

	svc := createTestService(t, func(w http.ResponseWriter, r *http.Request) {
		_, header, err := r.FormFile("file")
		if assert.NoError(t, err) {
			assert.Equal(t, "prices.xlsx", header.Filename)
		}
		writeJSON(w, http.StatusOK, `{"all":1,"processed":1,"successed":1,"failed":0,"warning":0}`)
	})

	result, err := svc.ImportFile(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "всего: 1, обработано: 1, успешно: 1, с ошибками: 0, с предупреждениями: 0", result.String())

	_, err = svc.ImportFile(context.Background(), filepath.Join(t.TempDir(), "missing.xlsx"))
	assert.ErrorIs(t, err, ErrImportFailed)
}

func TestConfig_Validate(t *testing.T) {
	cfg := LoadConfig()
	assert.NoError(t, cfg.Validate())

	cfg.Extensions = nil
	assert.Error(t, cfg.Validate())
}
