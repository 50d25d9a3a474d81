// internal/services/stock-export/service_test.go
package stockexport

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	apperrors "stock-backoffice/internal/common/errors"
	stockhttp "stock-backoffice/internal/common/http"
	"stock-backoffice/internal/common/logger"
	"stock-backoffice/internal/models"
	propertylisting "stock-backoffice/internal/services/property-listing"
	"stock-backoffice/internal/stock/filters"
)

// ==========================
// Test Helpers
// ==========================

type allowAll struct{}

func (allowAll) Authorize(context.Context) (string, bool) { return "test-token", true }

var fixedNow = time.Date(2025, 3, 7, 9, 5, 0, 0, time.UTC)

func createTestService(t *testing.T, handler http.HandlerFunc) *Service {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	log := logger.NewTestLogger(t)
	client := stockhttp.NewClient(stockhttp.Options{
		BaseURL: server.URL,
		Timeout: 5 * time.Second,
		Grace:   10 * time.Millisecond,
		Auth:    allowAll{},
		Logger:  log,
	})

	cfg := LoadConfig()
	cfg.Dir = t.TempDir()
	return NewService(cfg, ServiceDependencies{Client: client, Logger: log, Now: func() time.Time { return fixedNow }})
}

func createWorkbook(t *testing.T, rows [][]interface{}) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func TestFilename(t *testing.T) {
	assert.Equal(t, "Выгрузка стока РМ ОРИИ_07_03_25_09_05.xlsx", Filename(fixedNow))
}

// ==========================
// Server export
// ==========================

func TestService_Export(t *testing.T) {
	workbook := createWorkbook(t, [][]interface{}{{"VIN", "Цена"}, {"X1", 100}, {"X2", 200}})

	tests := []struct {
		name           string
		status         int
		body           []byte
		validateOutput func(t *testing.T, wb *Workbook, err error)
	}{
		{
			name:   "valid workbook",
			status: http.StatusOK,
			body:   workbook,
			validateOutput: func(t *testing.T, wb *Workbook, err error) {
				require.NoError(t, err)
				assert.Equal(t, Filename(fixedNow), wb.Filename)
				assert.Equal(t, []string{"Sheet1"}, wb.Sheets)
				assert.Equal(t, 2, wb.Rows)
				assert.False(t, wb.Local)
			},
		},
		{
			name:   "not a workbook",
			status: http.StatusOK,
			body:   []byte("<html>error</html>"),
			validateOutput: func(t *testing.T, wb *Workbook, err error) {
				assert.Nil(t, wb)
				assert.Equal(t, apperrors.ErrCodeExportFailed, apperrors.CodeOf(err))
			},
		},
		{
			name:   "empty body",
			status: http.StatusOK,
			body:   nil,
			validateOutput: func(t *testing.T, wb *Workbook, err error) {
				assert.True(t, errors.Is(err, ErrExportEmpty))
			},
		},
		{
			name:   "server failure",
			status: http.StatusInternalServerError,
			body:   []byte("boom"),
			validateOutput: func(t *testing.T, wb *Workbook, err error) {
				assert.Equal(t, apperrors.ErrCodeHTTPError, apperrors.CodeOf(err))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := createTestService(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/v1/seized-property-items/xlsx", r.URL.Path)
				assert.Equal(t, "Archive", r.URL.Query().Get("status_group"))
				w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
				w.WriteHeader(tt.status)
				_, _ = w.Write(tt.body)
			})

			wb, err := svc.Export(context.Background(), propertylisting.Query{
				Filter: filters.CreateServerFilters(filters.Empty(), "", filters.GroupArchive),
				Group:  filters.GroupArchive,
			})
			tt.validateOutput(t, wb, err)
		})
	}
}

// ==========================
// Local workbook
// ==========================

func TestService_WriteLocalAndSave(t *testing.T) {
	svc := createTestService(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	})

	items := []models.Item{
		{"vin": "X1", "equipment": map[string]interface{}{"brand": map[string]interface{}{"name": "KIA"}}, "price": 1500000.0},
		{"vin": "X2"},
	}
	headers := []models.Header{
		{Text: "VIN", Value: "vin", Visible: true},
		{Text: "Марка", Value: "equipment.brand", Visible: true},
		{Text: "Скрытая", Value: "price", Visible: false},
	}

	wb, err := svc.WriteLocal(items, headers)
	require.NoError(t, err)
	assert.True(t, wb.Local)
	assert.Equal(t, 2, wb.Rows)

	f, err := excelize.OpenReader(bytes.NewReader(wb.Data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Сток")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"VIN", "Марка"}, rows[0])
	assert.Equal(t, []string{"X1", "KIA"}, rows[1])
	assert.Equal(t, []string{"X2"}, rows[2])

	path, err := svc.Save(wb)
	require.NoError(t, err)
	assert.Equal(t, Filename(fixedNow), filepath.Base(path))

	saved, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, wb.Data, saved)
}
